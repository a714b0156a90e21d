// Package hooks provides Hook and Logger implementations for the board
// pipeline.
package hooks

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Skryldev/boardstamp/core"
	apperrors "github.com/Skryldev/boardstamp/errors"
)

// ── Structured logger adapter ─────────────────────────────────────────────────

// SlogLogger wraps the standard library slog.Logger to satisfy core.Logger.
type SlogLogger struct {
	log *slog.Logger
}

// NewSlogLogger creates a logger backed by slog.
func NewSlogLogger(l *slog.Logger) *SlogLogger { return &SlogLogger{log: l} }

// NewHandlerLogger builds a SlogLogger writing to w.  level is one of
// debug, info, warn or error; format is "text" or "json".
func NewHandlerLogger(w io.Writer, level, format string) *SlogLogger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	var h slog.Handler
	if strings.EqualFold(format, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return NewSlogLogger(slog.New(h))
}

func parseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}

func (s *SlogLogger) Debug(msg string, fields ...any) { s.log.Debug(msg, fields...) }
func (s *SlogLogger) Info(msg string, fields ...any)  { s.log.Info(msg, fields...) }
func (s *SlogLogger) Warn(msg string, fields ...any)  { s.log.Warn(msg, fields...) }
func (s *SlogLogger) Error(msg string, fields ...any) { s.log.Error(msg, fields...) }

// ── Logging hook ──────────────────────────────────────────────────────────────

// LoggingHook logs before/after each pipeline step.
type LoggingHook struct {
	logger core.Logger
}

// NewLoggingHook creates a LoggingHook.
func NewLoggingHook(l core.Logger) *LoggingHook { return &LoggingHook{logger: l} }

func (h *LoggingHook) BeforeStep(_ context.Context, stepName string, img *core.ImageData) {
	h.logger.Debug("pipeline.step.start",
		"step", stepName,
		"format", img.Format,
		"width", img.Meta.Width,
		"height", img.Meta.Height,
	)
}

func (h *LoggingHook) AfterStep(_ context.Context, stepName string, img *core.ImageData, d time.Duration, err error) {
	if err != nil {
		h.logger.Error("pipeline.step.error",
			"step", stepName,
			"duration_ms", d.Milliseconds(),
			"category", category(err),
			"error", err.Error(),
		)
		return
	}
	out := "nil"
	if img != nil {
		out = fmt.Sprintf("%dx%d %s %dB exif=%t", img.Meta.Width, img.Meta.Height, img.Format,
			img.Meta.SizeBytes, img.Meta.EXIFAttached)
	}
	h.logger.Debug("pipeline.step.done",
		"step", stepName,
		"duration_ms", d.Milliseconds(),
		"output", out,
	)
}

func category(err error) string {
	for _, c := range []apperrors.Category{
		apperrors.CategoryDecode, apperrors.CategoryEncode, apperrors.CategoryInput,
		apperrors.CategoryEXIF, apperrors.CategoryBoard, apperrors.CategoryStorage,
		apperrors.CategoryConfig, apperrors.CategoryPipeline,
	} {
		if apperrors.IsCategory(err, c) {
			return string(c)
		}
	}
	return "unknown"
}

// ── In-memory metrics collector ───────────────────────────────────────────────

// StepStats aggregates the runs of one pipeline step.
type StepStats struct {
	Calls  int64
	Errors int64
	Total  time.Duration
	Max    time.Duration
}

// Avg returns the mean duration per call.
func (s StepStats) Avg() time.Duration {
	if s.Calls == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Calls)
}

// InMemoryMetrics accumulates metrics; safe for concurrent use.
type InMemoryMetrics struct {
	mu               sync.Mutex
	steps            map[string]StepStats
	errorsByCategory map[string]int64

	throughput atomic.Int64
}

// NewInMemoryMetrics creates an empty metrics store.
func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{
		steps:            make(map[string]StepStats),
		errorsByCategory: make(map[string]int64),
	}
}

func (m *InMemoryMetrics) RecordProcessingTime(stepName string, d time.Duration) {
	m.mu.Lock()
	s := m.steps[stepName]
	s.Calls++
	s.Total += d
	s.Max = max(s.Max, d)
	m.steps[stepName] = s
	m.mu.Unlock()
}

func (m *InMemoryMetrics) RecordThroughput(bytes int64) { m.throughput.Add(bytes) }

func (m *InMemoryMetrics) RecordError(stepName string, category string) {
	m.mu.Lock()
	s := m.steps[stepName]
	s.Errors++
	m.steps[stepName] = s
	m.errorsByCategory[category]++
	m.mu.Unlock()
}

// Snapshot returns a copy of current metrics.
func (m *InMemoryMetrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return MetricsSnapshot{
		Steps:            maps.Clone(m.steps),
		ErrorsByCategory: maps.Clone(m.errorsByCategory),
		TotalThroughputB: m.throughput.Load(),
	}
}

// MetricsSnapshot is an immutable point-in-time copy of metrics.
type MetricsSnapshot struct {
	Steps            map[string]StepStats
	ErrorsByCategory map[string]int64
	TotalThroughputB int64
}

// String renders one line per step in name order.
func (s MetricsSnapshot) String() string {
	var sb strings.Builder
	for _, name := range slices.Sorted(maps.Keys(s.Steps)) {
		st := s.Steps[name]
		fmt.Fprintf(&sb, "%-18s calls=%-4d errors=%-3d avg=%-10s max=%s\n",
			name, st.Calls, st.Errors, st.Avg(), st.Max)
	}
	fmt.Fprintf(&sb, "throughput=%dB", s.TotalThroughputB)
	return sb.String()
}

// ── Metrics hook ──────────────────────────────────────────────────────────────

// MetricsHook feeds pipeline events into a MetricsCollector.
type MetricsHook struct {
	collector core.MetricsCollector
}

// NewMetricsHook creates a MetricsHook.
func NewMetricsHook(c core.MetricsCollector) *MetricsHook { return &MetricsHook{collector: c} }

func (h *MetricsHook) BeforeStep(_ context.Context, _ string, _ *core.ImageData) {}

func (h *MetricsHook) AfterStep(_ context.Context, stepName string, _ *core.ImageData, d time.Duration, err error) {
	h.collector.RecordProcessingTime(stepName, d)
	if err != nil {
		h.collector.RecordError(stepName, category(err))
	}
}

// compile-time interface checks
var (
	_ core.Logger           = (*SlogLogger)(nil)
	_ core.Hook             = (*LoggingHook)(nil)
	_ core.Hook             = (*MetricsHook)(nil)
	_ core.MetricsCollector = (*InMemoryMetrics)(nil)
)
