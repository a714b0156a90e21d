package session_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"sync"
	"testing"
	"time"

	"github.com/Skryldev/boardstamp"
	"github.com/Skryldev/boardstamp/core"
	apperrors "github.com/Skryldev/boardstamp/errors"
	"github.com/Skryldev/boardstamp/exif"
	"github.com/Skryldev/boardstamp/session"
)

func newJPEG(t *testing.T, w, h int, doc *exif.Document) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 90, G: 90, B: 160, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encode test jpeg: %v", err)
	}
	if doc == nil {
		return buf.Bytes()
	}
	seg, err := exif.Encode(doc)
	if err != nil {
		t.Fatalf("exif.Encode: %v", err)
	}
	out, err := exif.Insert(seg, buf.Bytes())
	if err != nil {
		t.Fatalf("exif.Insert: %v", err)
	}
	return out
}

func newProc(t *testing.T) *boardstamp.Processor {
	t.Helper()
	p, err := boardstamp.New(boardstamp.DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { p.Close() })
	return p
}

func TestSession_LoadTakesDateFromEXIF(t *testing.T) {
	s := session.New(newProc(t))
	s.SetName("Road Works")
	if _, err := s.AddField("Weather", "Sunny"); err != nil {
		t.Fatal(err)
	}

	doc := exif.NewDocument()
	doc.Set(exif.IFDExif, exif.TagDateTimeOriginal, "2023:05:15 14:30:45")
	if _, err := s.Load(context.Background(), newJPEG(t, 64, 64, doc), "image/jpeg"); err != nil {
		t.Fatalf("Load: %v", err)
	}

	spec := s.Spec()
	want := time.Date(2023, 5, 15, 14, 30, 45, 0, time.Local)
	if !spec.Date.Equal(want) || !spec.DateFromEXIF {
		t.Errorf("date: %v fromEXIF=%t", spec.Date, spec.DateFromEXIF)
	}
	if spec.Name != "Road Works" || len(spec.Fields) != 1 {
		t.Errorf("name/fields not kept: %+v", spec)
	}

	// A source without a capture time clears the date.
	if _, err := s.Load(context.Background(), newJPEG(t, 64, 64, nil), "image/jpeg"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if spec := s.Spec(); spec.HasDate() || spec.DateFromEXIF {
		t.Errorf("date should be cleared: %+v", spec)
	}

	s.SetDate(want)
	if spec := s.Spec(); !spec.HasDate() || spec.DateFromEXIF {
		t.Errorf("manual date: %+v", spec)
	}
}

func TestSession_RejectedSourceKeepsState(t *testing.T) {
	s := session.New(newProc(t))
	if _, err := s.Load(context.Background(), newJPEG(t, 32, 32, nil), "image/jpeg"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Load(context.Background(), []byte("GIF89a"), "image/gif"); !apperrors.IsUnsupportedType(err) {
		t.Fatalf("got %v, want unsupported type", err)
	}
	res, err := s.Generate(context.Background())
	if err != nil || !res.Success {
		t.Fatalf("Generate after rejected load: %v %+v", err, res)
	}
}

func TestSession_GenerateAndReset(t *testing.T) {
	s := session.New(newProc(t))
	if _, err := s.Generate(context.Background()); !errors.Is(err, apperrors.ErrNoSource) {
		t.Fatalf("got %v, want ErrNoSource", err)
	}

	if _, err := s.Load(context.Background(), newJPEG(t, 120, 90, nil), "image/jpeg"); err != nil {
		t.Fatal(err)
	}
	s.SetName("Bridge")
	res, err := s.Generate(context.Background())
	if err != nil || !res.Success {
		t.Fatalf("Generate: %v %+v", err, res)
	}
	if s.Result() != res {
		t.Error("result not retained")
	}

	s.Reset()
	if s.Result() != nil || s.Inspection() != nil || s.Spec().Name != "" || len(s.Fields()) != 0 {
		t.Error("state survived Reset")
	}
	if _, err := s.Generate(context.Background()); !errors.Is(err, apperrors.ErrNoSource) {
		t.Errorf("got %v after Reset", err)
	}
}

// reloadHook loads a different source while the first pipeline is running.
type reloadHook struct {
	once sync.Once
	s    *session.Session
	data []byte
	err  error
}

func (h *reloadHook) BeforeStep(ctx context.Context, name string, _ *core.ImageData) {
	if name != "decode" {
		return
	}
	h.once.Do(func() { _, h.err = h.s.Load(ctx, h.data, "image/jpeg") })
}

func (h *reloadHook) AfterStep(context.Context, string, *core.ImageData, time.Duration, error) {}

func TestSession_LastWriterWins(t *testing.T) {
	proc := newProc(t)
	s := session.New(proc)
	hook := &reloadHook{s: s, data: newJPEG(t, 48, 48, nil)}
	proc.AddHook(hook)

	if _, err := s.Load(context.Background(), newJPEG(t, 64, 64, nil), "image/jpeg"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Generate(context.Background()); !errors.Is(err, apperrors.ErrStaleResult) {
		t.Fatalf("got %v, want ErrStaleResult", err)
	}
	if hook.err != nil {
		t.Fatalf("reload: %v", hook.err)
	}
	if s.Result() != nil {
		t.Error("stale result retained")
	}

	// The second source generates normally.
	res, err := s.Generate(context.Background())
	if err != nil || !res.Success {
		t.Fatalf("Generate: %v", err)
	}
	if b := res.Primary.Meta; b.Width != 48 || b.Height != 48 {
		t.Errorf("generated from the wrong source: %dx%d", b.Width, b.Height)
	}
}
