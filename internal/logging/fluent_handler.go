package logging

import (
	"context"
	"log/slog"
	"time"
)

// poster is the part of *fluent.Fluent the handler needs
type poster interface {
	Post(tag string, message interface{}) error
}

// FluentHandler forwards log records to Fluent Bit, tagged by level
type FluentHandler struct {
	client   poster
	minLevel slog.Level
	attrs    []slog.Attr
	groups   []string
}

// NewFluentHandler creates a handler posting to the given fluent client
func NewFluentHandler(client poster, minLevel slog.Leveler) *FluentHandler {
	level := slog.LevelInfo
	if minLevel != nil {
		level = minLevel.Level()
	}
	return &FluentHandler{client: client, minLevel: level}
}

func (h *FluentHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.minLevel
}

func (h *FluentHandler) Handle(_ context.Context, record slog.Record) error {
	data := make(map[string]interface{}, len(h.attrs)+record.NumAttrs()+3)
	for _, attr := range h.attrs {
		data[attr.Key] = attr.Value.Resolve().Any()
	}

	prefix := h.groupPrefix()
	record.Attrs(func(attr slog.Attr) bool {
		data[prefix+attr.Key] = attr.Value.Resolve().Any()
		return true
	})

	level := levelTag(record.Level)
	data["level"] = level
	data["message"] = record.Message
	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	data["timestamp"] = ts.UTC().Format(time.RFC3339Nano)

	return h.client.Post(level, data)
}

func (h *FluentHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	prefix := h.groupPrefix()
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	for _, attr := range attrs {
		merged = append(merged, slog.Attr{Key: prefix + attr.Key, Value: attr.Value})
	}
	return &FluentHandler{client: h.client, minLevel: h.minLevel, attrs: merged, groups: h.groups}
}

func (h *FluentHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	groups := append(append([]string{}, h.groups...), name)
	return &FluentHandler{client: h.client, minLevel: h.minLevel, attrs: h.attrs, groups: groups}
}

func (h *FluentHandler) groupPrefix() string {
	prefix := ""
	for _, g := range h.groups {
		prefix += g + "."
	}
	return prefix
}

func levelTag(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "error"
	case level >= slog.LevelWarn:
		return "warn"
	case level >= slog.LevelInfo:
		return "info"
	default:
		return "debug"
	}
}
