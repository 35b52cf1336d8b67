package testutil

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
)

// LogRecord is a captured log entry with its attributes flattened,
// including attributes added through Logger.With.
type LogRecord struct {
	Time    time.Time
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// LogCapture is a slog.Handler that keeps every record in memory.
type LogCapture struct {
	store *logStore
	attrs []slog.Attr
	group string
	t     *testing.T
}

type logStore struct {
	mu      sync.Mutex
	records []LogRecord
}

// NewLogCapture returns an empty capture. When t is non-nil records are
// echoed through t.Logf.
func NewLogCapture(t *testing.T) *LogCapture {
	return &LogCapture{store: &logStore{}, t: t}
}

// NewTestLogger returns a logger writing into a fresh capture.
func NewTestLogger(t *testing.T) (*slog.Logger, *LogCapture) {
	capture := NewLogCapture(t)
	return slog.New(capture), capture
}

// Enabled implements slog.Handler.
func (h *LogCapture) Enabled(context.Context, slog.Level) bool {
	return true
}

// Handle implements slog.Handler.
func (h *LogCapture) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]any, len(h.attrs)+r.NumAttrs())
	for _, a := range h.attrs {
		attrs[h.key(a.Key)] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs[h.key(a.Key)] = a.Value.Any()
		return true
	})

	h.store.mu.Lock()
	h.store.records = append(h.store.records, LogRecord{
		Time:    r.Time,
		Level:   r.Level,
		Message: r.Message,
		Attrs:   attrs,
	})
	h.store.mu.Unlock()

	if h.t != nil {
		h.t.Logf("[%s] %s %v", r.Level, r.Message, attrs)
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (h *LogCapture) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &next
}

// WithGroup implements slog.Handler.
func (h *LogCapture) WithGroup(name string) slog.Handler {
	next := *h
	next.group = h.key(name)
	return &next
}

func (h *LogCapture) key(k string) string {
	if h.group == "" {
		return k
	}
	return h.group + "." + k
}

// Records returns a copy of every captured record.
func (h *LogCapture) Records() []LogRecord {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	out := make([]LogRecord, len(h.store.records))
	copy(out, h.store.records)
	return out
}

// Find returns the records at level whose message contains msg.
func (h *LogCapture) Find(level slog.Level, msg string) []LogRecord {
	var out []LogRecord
	for _, r := range h.Records() {
		if r.Level == level && strings.Contains(r.Message, msg) {
			out = append(out, r)
		}
	}
	return out
}

// Count returns the number of captured records.
func (h *LogCapture) Count() int {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	return len(h.store.records)
}

// AssertContains fails the test unless a record at level contains msg.
func (h *LogCapture) AssertContains(t *testing.T, level slog.Level, msg string) {
	t.Helper()
	if len(h.Find(level, msg)) == 0 {
		t.Errorf("expected %s log containing %q, got %d records", level, msg, h.Count())
	}
}

// AssertNoErrors fails the test if any error-level record was captured.
func (h *LogCapture) AssertNoErrors(t *testing.T) {
	t.Helper()
	for _, r := range h.Records() {
		if r.Level >= slog.LevelError {
			t.Errorf("unexpected error log: %s %v", r.Message, r.Attrs)
		}
	}
}
