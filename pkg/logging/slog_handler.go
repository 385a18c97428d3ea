package logging

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// SyslogHandler is an slog.Handler that copies log records to remote
// syslog servers after passing them to a wrapped base handler.
type SyslogHandler struct {
	base   slog.Handler
	sink   *syslogSink
	attrs  []slog.Attr
	groups []string
}

// syslogSink is shared by a handler and every handler derived from it, so
// SetClients on the root reaches loggers created with With.
type syslogSink struct {
	mu      sync.RWMutex
	clients []*SyslogClient
}

// NewSyslogHandler wraps base. Records are only forwarded once
// SetClients has been called.
func NewSyslogHandler(base slog.Handler) *SyslogHandler {
	return &SyslogHandler{base: base, sink: &syslogSink{}}
}

// SetClients replaces the set of syslog clients. Old clients are closed.
func (h *SyslogHandler) SetClients(clients []*SyslogClient) {
	h.sink.mu.Lock()
	old := h.sink.clients
	h.sink.clients = clients
	h.sink.mu.Unlock()

	for _, c := range old {
		c.Close()
	}
}

// Close closes all syslog clients.
func (h *SyslogHandler) Close() {
	h.SetClients(nil)
}

// Enabled implements slog.Handler.
func (h *SyslogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.base.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *SyslogHandler) Handle(ctx context.Context, r slog.Record) error {
	err := h.base.Handle(ctx, r)

	h.sink.mu.RLock()
	clients := h.sink.clients
	h.sink.mu.RUnlock()

	if len(clients) > 0 {
		severity := slogLevelToSyslog(r.Level)
		msg := formatRecord(r, h.attrs, h.groups)
		for _, c := range clients {
			if c.ShouldSend(severity) {
				c.Send(severity, msg)
			}
		}
	}
	return err
}

// WithAttrs implements slog.Handler.
func (h *SyslogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &SyslogHandler{
		base:   h.base.WithAttrs(attrs),
		sink:   h.sink,
		attrs:  append(append([]slog.Attr{}, h.attrs...), attrs...),
		groups: h.groups,
	}
}

// WithGroup implements slog.Handler.
func (h *SyslogHandler) WithGroup(name string) slog.Handler {
	return &SyslogHandler{
		base:   h.base.WithGroup(name),
		sink:   h.sink,
		attrs:  h.attrs,
		groups: append(append([]string{}, h.groups...), name),
	}
}

// slogLevelToSyslog maps slog levels to syslog severity values.
func slogLevelToSyslog(level slog.Level) int {
	switch {
	case level >= slog.LevelError:
		return SyslogError
	case level >= slog.LevelWarn:
		return SyslogWarning
	case level >= slog.LevelInfo:
		return SyslogInfo
	default:
		return SyslogDebug
	}
}

// formatRecord produces a compact text representation of a log record.
func formatRecord(r slog.Record, preAttrs []slog.Attr, groups []string) string {
	var b strings.Builder
	b.WriteString(r.Message)

	for _, a := range preAttrs {
		fmt.Fprintf(&b, " %s=%s", a.Key, a.Value.String())
	}

	r.Attrs(func(a slog.Attr) bool {
		key := a.Key
		if len(groups) > 0 {
			key = strings.Join(groups, ".") + "." + key
		}
		fmt.Fprintf(&b, " %s=%s", key, a.Value.String())
		return true
	})

	return b.String()
}
