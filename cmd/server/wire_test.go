// Marquee - Media Catalog Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package main

import (
	"testing"

	"github.com/tomtom215/marquee/internal/config"
	"github.com/tomtom215/marquee/internal/models"
)

func loadConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv(config.ConfigPathEnvVar, "")
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	return cfg
}

func TestBuildEngineDefaults(t *testing.T) {
	eng, err := buildEngine(loadConfig(t))
	if err != nil {
		t.Fatalf("buildEngine() error = %v", err)
	}

	statuses := eng.dispatcher.Sources()
	if len(statuses) != 1 || statuses[0].ID != models.SourceAniList {
		t.Fatalf("Sources() = %+v, want only anilist", statuses)
	}
	if got := eng.dispatcher.SourcesFor(models.MediaTypeManga); len(got) != 1 {
		t.Errorf("SourcesFor(manga) = %v, want anilist", got)
	}
	if len(eng.caches) != 2 {
		t.Errorf("caches = %d, want source and result", len(eng.caches))
	}
}

func TestBuildEngineRegistrationOrder(t *testing.T) {
	t.Setenv("TMDB_ENABLED", "true")
	t.Setenv("TMDB_API_KEY", "test-key")
	t.Setenv("IGDB_ENABLED", "true")
	t.Setenv("IGDB_CLIENT_ID", "id")
	t.Setenv("IGDB_CLIENT_SECRET", "secret")

	eng, err := buildEngine(loadConfig(t))
	if err != nil {
		t.Fatalf("buildEngine() error = %v", err)
	}

	want := []models.SourceID{models.SourceTMDB, models.SourceIGDB, models.SourceAniList}
	statuses := eng.dispatcher.Sources()
	if len(statuses) != len(want) {
		t.Fatalf("Sources() = %+v, want %v", statuses, want)
	}
	for i, s := range statuses {
		if s.ID != want[i] {
			t.Errorf("Sources()[%d] = %s, want %s", i, s.ID, want[i])
		}
	}
}

func TestAdapterFactoriesCoverEverySource(t *testing.T) {
	var sc config.SourcesConfig
	for _, ns := range sc.All() {
		if _, ok := adapterFactories[ns.Name]; !ok {
			t.Errorf("no adapter factory for %q", ns.Name)
		}
	}
}
