// Marquee - Media Catalog Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package logging

import (
	"context"
	"log/slog"

	"github.com/rs/zerolog"
)

// SlogHandler is a slog.Handler that writes through a zerolog logger. It lets
// the supervisor's sutureslog events land in the same JSON stream as the rest
// of the service. Group names become dotted key prefixes.
type SlogHandler struct {
	logger zerolog.Logger
	prefix string
}

var _ slog.Handler = (*SlogHandler)(nil)

// NewSlogHandler wraps logger.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewSlogHandler(logger zerolog.Logger) *SlogHandler {
	return &SlogHandler{logger: logger}
}

// NewSlogLogger returns a slog.Logger writing through the global logger,
// tagged with component.
//
//	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), cfg)
func NewSlogLogger(component string) *slog.Logger {
	return slog.New(NewSlogHandler(WithComponent(component)))
}

// Enabled reports whether level passes both the logger and global levels.
func (h *SlogHandler) Enabled(_ context.Context, level slog.Level) bool {
	zl := zerologLevel(level)
	return zl >= h.logger.GetLevel() && zl >= zerolog.GlobalLevel()
}

// Handle writes record as one zerolog event.
//
//nolint:gocritic // slog.Record is passed by value per slog.Handler interface
func (h *SlogHandler) Handle(_ context.Context, record slog.Record) error {
	fields := make(map[string]interface{}, record.NumAttrs())
	record.Attrs(func(attr slog.Attr) bool {
		flatten(fields, h.prefix, attr)
		return true
	})
	h.logger.WithLevel(zerologLevel(record.Level)).Fields(fields).Msg(record.Message)
	return nil
}

// WithAttrs returns a handler with attrs baked into its logger context.
func (h *SlogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	fields := make(map[string]interface{}, len(attrs))
	for _, attr := range attrs {
		flatten(fields, h.prefix, attr)
	}
	return &SlogHandler{logger: h.logger.With().Fields(fields).Logger(), prefix: h.prefix}
}

// WithGroup returns a handler that prefixes later keys with name.
func (h *SlogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &SlogHandler{logger: h.logger, prefix: h.prefix + name + "."}
}

// flatten adds attr to fields under prefix. Empty attrs are dropped and
// groups with an empty key are inlined.
func flatten(fields map[string]interface{}, prefix string, attr slog.Attr) {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return
	}

	v := attr.Value
	switch v.Kind() {
	case slog.KindGroup:
		inner := prefix
		if attr.Key != "" {
			inner = prefix + attr.Key + "."
		}
		for _, ga := range v.Group() {
			flatten(fields, inner, ga)
		}
	case slog.KindString:
		fields[prefix+attr.Key] = v.String()
	case slog.KindInt64:
		fields[prefix+attr.Key] = v.Int64()
	case slog.KindUint64:
		fields[prefix+attr.Key] = v.Uint64()
	case slog.KindFloat64:
		fields[prefix+attr.Key] = v.Float64()
	case slog.KindBool:
		fields[prefix+attr.Key] = v.Bool()
	case slog.KindDuration:
		fields[prefix+attr.Key] = v.Duration().String()
	case slog.KindTime:
		fields[prefix+attr.Key] = v.Time()
	default:
		if err, ok := v.Any().(error); ok {
			fields[prefix+attr.Key] = err.Error()
			return
		}
		fields[prefix+attr.Key] = v.Any()
	}
}

func zerologLevel(level slog.Level) zerolog.Level {
	switch {
	case level < slog.LevelDebug:
		return zerolog.TraceLevel
	case level < slog.LevelInfo:
		return zerolog.DebugLevel
	case level < slog.LevelWarn:
		return zerolog.InfoLevel
	case level < slog.LevelError:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}
