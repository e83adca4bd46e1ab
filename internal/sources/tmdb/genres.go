// Marquee - Media Catalog Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package tmdb

// genreTable is TMDB's fixed genre id list for movies and TV, mapped to the
// common vocabulary. Combined TV genres expand to both names.
var genreTable = map[int][]string{
	28:    {"action"},
	12:    {"adventure"},
	16:    {"animation"},
	35:    {"comedy"},
	80:    {"crime"},
	99:    {"documentary"},
	18:    {"drama"},
	10751: {"family"},
	14:    {"fantasy"},
	36:    {"history"},
	27:    {"horror"},
	10402: {"music"},
	9648:  {"mystery"},
	10749: {"romance"},
	878:   {"science fiction"},
	10770: {"tv movie"},
	53:    {"thriller"},
	10752: {"war"},
	37:    {"western"},
	10759: {"action", "adventure"},
	10762: {"kids"},
	10763: {"news"},
	10764: {"reality"},
	10765: {"science fiction", "fantasy"},
	10766: {"soap"},
	10767: {"talk"},
	10768: {"war", "politics"},
}

func genreNames(ids []int) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, genreTable[id]...)
	}
	return out
}
