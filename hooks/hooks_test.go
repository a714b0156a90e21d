package hooks_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Skryldev/boardstamp/core"
	apperrors "github.com/Skryldev/boardstamp/errors"
	"github.com/Skryldev/boardstamp/hooks"
)

func TestLoggingHook_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := hooks.NewHandlerLogger(&buf, "debug", "json")
	h := hooks.NewLoggingHook(log)

	img := &core.ImageData{Format: core.FormatJPEG, Meta: core.Metadata{Width: 10, Height: 20}}
	h.BeforeStep(context.Background(), "decode", img)
	h.AfterStep(context.Background(), "decode", img, time.Millisecond, nil)
	h.AfterStep(context.Background(), "encode", nil, time.Millisecond,
		apperrors.New(apperrors.CategoryEncode, "jpeg.encode", errors.New("disk full")))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d log lines:\n%s", len(lines), buf.String())
	}
	var last map[string]any
	if err := json.Unmarshal([]byte(lines[2]), &last); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if last["msg"] != "pipeline.step.error" || last["category"] != "encode" || last["level"] != "ERROR" {
		t.Errorf("unexpected error record: %v", last)
	}
}

func TestHandlerLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	log := hooks.NewHandlerLogger(&buf, "warn", "text")
	log.Info("hidden")
	log.Warn("shown", "k", "v")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "k=v") {
		t.Errorf("unexpected output: %q", buf.String())
	}

	buf.Reset()
	hooks.NewHandlerLogger(&buf, "bogus", "text").Debug("dropped")
	if buf.Len() != 0 {
		t.Errorf("unknown level should default to info, got %q", buf.String())
	}
}

func TestMetricsHook(t *testing.T) {
	m := hooks.NewInMemoryMetrics()
	h := hooks.NewMetricsHook(m)

	h.AfterStep(context.Background(), "decode", nil, 2*time.Millisecond, nil)
	h.AfterStep(context.Background(), "decode", nil, 3*time.Millisecond, errors.New("x"))
	m.RecordThroughput(100)

	snap := m.Snapshot()
	st := snap.Steps["decode"]
	if st.Calls != 2 || st.Errors != 1 {
		t.Errorf("calls=%d errors=%d", st.Calls, st.Errors)
	}
	if st.Total != 5*time.Millisecond || st.Max != 3*time.Millisecond || st.Avg() != 2500*time.Microsecond {
		t.Errorf("durations: %+v", st)
	}
	if snap.ErrorsByCategory["unknown"] != 1 {
		t.Errorf("categories: %v", snap.ErrorsByCategory)
	}
	if snap.TotalThroughputB != 100 {
		t.Errorf("throughput: %d", snap.TotalThroughputB)
	}
	if !strings.HasPrefix(snap.String(), "decode ") {
		t.Errorf("String: %q", snap.String())
	}

	// Snapshots are copies.
	snap.Steps["decode"] = hooks.StepStats{}
	if m.Snapshot().Steps["decode"].Calls != 2 {
		t.Error("snapshot aliases internal map")
	}
}
