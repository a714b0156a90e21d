package pipeline_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/Skryldev/boardstamp/adapters/decoder"
	"github.com/Skryldev/boardstamp/adapters/encoder"
	"github.com/Skryldev/boardstamp/board"
	"github.com/Skryldev/boardstamp/core"
	apperrors "github.com/Skryldev/boardstamp/errors"
	"github.com/Skryldev/boardstamp/exif"
	"github.com/Skryldev/boardstamp/pipeline"
)

// ── Test helpers ──────────────────────────────────────────────────────────────

func newGrayJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 128, G: 128, B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encode test jpeg: %v", err)
	}
	return buf.Bytes()
}

func newRegistry() *core.DefaultRegistry {
	reg := core.NewRegistry()
	reg.RegisterDecoder(core.FormatJPEG, decoder.NewJPEG())
	reg.RegisterDecoder(core.FormatPNG, decoder.NewPNG())
	reg.RegisterEncoder(core.FormatJPEG, encoder.NewJPEG(90))
	return reg
}

func newPipeline(t *testing.T, reg core.Registry, log core.Logger) *pipeline.Pipeline {
	t.Helper()
	r, err := board.NewRenderer(nil, nil)
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return pipeline.New().Use(
		&pipeline.DecodeStep{Registry: reg},
		&pipeline.SurfaceStep{},
		&pipeline.BoardStep{Renderer: r, Style: board.DefaultStyle()},
		&pipeline.EncodeStep{Registry: reg, BaseOptions: core.EncodeOptions{Quality: 90}},
		&pipeline.ExifPassthroughStep{Logger: log},
	)
}

// recordingHook remembers step names and errors.
type recordingHook struct {
	mu     sync.Mutex
	before []string
	after  []string
	errs   []error
}

func (h *recordingHook) BeforeStep(_ context.Context, name string, _ *core.ImageData) {
	h.mu.Lock()
	h.before = append(h.before, name)
	h.mu.Unlock()
}

func (h *recordingHook) AfterStep(_ context.Context, name string, _ *core.ImageData, _ time.Duration, err error) {
	h.mu.Lock()
	h.after = append(h.after, name)
	h.errs = append(h.errs, err)
	h.mu.Unlock()
}

// warnLogger counts Warn calls.
type warnLogger struct {
	core.NopLogger
	warns int
}

func (l *warnLogger) Warn(string, ...any) { l.warns++ }

type failingStep struct{ err error }

func (s failingStep) Name() string { return "fail" }
func (s failingStep) Execute(context.Context, *core.ImageData) (*core.ImageData, error) {
	return nil, s.err
}

// ── Tests ─────────────────────────────────────────────────────────────────────

func TestPipeline_RunsAllSteps(t *testing.T) {
	reg := newRegistry()
	hook := &recordingHook{}
	pl := newPipeline(t, reg, nil).AddHook(hook)

	img := &core.ImageData{
		Data:     newGrayJPEG(t, 320, 240),
		Format:   core.FormatJPEG,
		Declared: core.FormatJPEG,
		Board:    board.Spec{Name: "Road Works", Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local)},
	}
	out, timings, err := pl.Run(context.Background(), img)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []string{"decode", "surface", "board", "encode", "exif_passthrough"}
	if got := pl.Steps(); len(got) != len(want) {
		t.Fatalf("Steps: got %v", got)
	}
	for i, name := range want {
		if hook.before[i] != name || hook.after[i] != name {
			t.Errorf("hook order %d: before=%s after=%s want %s", i, hook.before[i], hook.after[i], name)
		}
		if _, ok := timings[name]; !ok {
			t.Errorf("missing timing for %s", name)
		}
	}

	decoded, err := jpeg.Decode(bytes.NewReader(out.Data))
	if err != nil {
		t.Fatalf("output is not a JPEG: %v", err)
	}
	if b := decoded.Bounds(); b.Dx() != 320 || b.Dy() != 240 {
		t.Errorf("dimensions: %v", b)
	}
	// The board sits in the bottom-left corner: y 104..220 for a 320x240
	// image with two 38px rows.  Sample just inside its top-left border.
	r, g, _, _ := decoded.At(25, 110).RGBA()
	if g <= r {
		t.Errorf("expected green board at bottom-left, got r=%d g=%d", r>>8, g>>8)
	}
	if out.Meta.EXIFAttached || exif.HasSegment(out.Data) {
		t.Error("no EXIF expected for a source without a document")
	}
}

func TestPipeline_StopsOnError(t *testing.T) {
	hook := &recordingHook{}
	boom := errors.New("boom")
	pl := pipeline.New().
		Use(failingStep{err: boom}, &pipeline.SurfaceStep{}).
		AddHook(hook)

	_, _, err := pl.Run(context.Background(), &core.ImageData{})
	if !errors.Is(err, boom) {
		t.Fatalf("got %v, want boom", err)
	}
	if len(hook.after) != 1 || !errors.Is(hook.errs[0], boom) {
		t.Errorf("hooks: %v %v", hook.after, hook.errs)
	}
}

// cancelAfter cancels the run's context once the named step finishes.
type cancelAfter struct {
	step   string
	cancel context.CancelFunc
}

func (h cancelAfter) BeforeStep(context.Context, string, *core.ImageData) {}

func (h cancelAfter) AfterStep(_ context.Context, name string, _ *core.ImageData, _ time.Duration, _ error) {
	if name == h.step {
		h.cancel()
	}
}

func TestPipeline_CancelAfterStartCompletes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hook := &recordingHook{}
	pl := newPipeline(t, newRegistry(), nil).
		AddHook(cancelAfter{step: "decode", cancel: cancel}, hook)

	out, _, err := pl.Run(ctx, &core.ImageData{
		Data:   newGrayJPEG(t, 100, 100),
		Format: core.FormatJPEG,
		Board:  board.Spec{Name: "Test"},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if ctx.Err() == nil {
		t.Fatal("context was not cancelled")
	}
	if len(out.Data) == 0 || len(hook.after) != 5 {
		t.Errorf("steps run: %v, output %d bytes", hook.after, len(out.Data))
	}
}

func TestDecodeStep_ImageLoadError(t *testing.T) {
	step := &pipeline.DecodeStep{Registry: newRegistry()}

	_, err := step.Execute(context.Background(), &core.ImageData{
		Data:   []byte{0xff, 0xd8, 0xff, 0xdb, 0x00},
		Format: core.FormatJPEG,
	})
	if !apperrors.IsImageLoadError(err) {
		t.Errorf("corrupt jpeg: got %v", err)
	}

	_, err = step.Execute(context.Background(), &core.ImageData{
		Data:   []byte("not an image"),
		Format: core.FormatUnknown,
	})
	if !apperrors.IsImageLoadError(err) {
		t.Errorf("unknown format: got %v", err)
	}
}

type panicDecoder struct{}

func (panicDecoder) CanDecode(core.Format) bool { return true }
func (panicDecoder) Decode(context.Context, io.Reader) (*core.ImageData, error) {
	panic("decoder exploded")
}

func TestDecodeStep_RecoversPanic(t *testing.T) {
	reg := core.NewRegistry()
	reg.RegisterDecoder(core.FormatJPEG, panicDecoder{})
	step := &pipeline.DecodeStep{Registry: reg}

	_, err := step.Execute(context.Background(), &core.ImageData{Data: []byte{1}, Format: core.FormatJPEG})
	if !apperrors.IsImageLoadError(err) {
		t.Errorf("got %v, want image load error", err)
	}
}

func TestBoardStep_NothingToDraw(t *testing.T) {
	r, err := board.NewRenderer(nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	surface := image.NewRGBA(image.Rect(0, 0, 50, 50))
	step := &pipeline.BoardStep{Renderer: r, Style: board.DefaultStyle()}
	out, err := step.Execute(context.Background(), &core.ImageData{Image: surface})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out.Image.(*image.RGBA).RGBAAt(25, 45) != (color.RGBA{}) {
		t.Error("surface modified for an empty spec")
	}
}

func TestBoardStep_WarnsOnMissingGlyphs(t *testing.T) {
	r, err := board.NewRenderer(nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	spec := board.Spec{Name: "Road Works"}

	log := &warnLogger{}
	step := &pipeline.BoardStep{Renderer: r, Style: board.DefaultStyle(), Logger: log}
	if _, err := step.Execute(context.Background(), &core.ImageData{Image: image.NewRGBA(image.Rect(0, 0, 320, 240)), Board: spec}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if log.warns != 1 {
		t.Errorf("default CJK labels with Go fonts: warns=%d, want 1", log.warns)
	}

	latin := board.DefaultStyle()
	latin.NameLabel, latin.DateLabel = "Project", "Date"
	log = &warnLogger{}
	step = &pipeline.BoardStep{Renderer: r, Style: latin, Logger: log}
	if _, err := step.Execute(context.Background(), &core.ImageData{Image: image.NewRGBA(image.Rect(0, 0, 320, 240)), Board: spec}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if log.warns != 0 {
		t.Errorf("latin labels: warns=%d, want 0", log.warns)
	}
}

func TestExifPassthrough(t *testing.T) {
	src := exif.NewDocument()
	src.Set(exif.IFD0, exif.TagOrientation, []uint16{6})
	src.Set(exif.IFD0, 0x010f, "Acme")
	src.Set(exif.IFDExif, exif.TagDateTimeOriginal, "2023:05:15 14:30:45")

	plain := newGrayJPEG(t, 16, 16)

	t.Run("jpeg with data", func(t *testing.T) {
		step := &pipeline.ExifPassthroughStep{}
		out, err := step.Execute(context.Background(), &core.ImageData{
			Data: plain, Declared: core.FormatJPEG, EXIF: src,
		})
		if err != nil {
			t.Fatalf("Execute: %v", err)
		}
		if !out.Meta.EXIFAttached {
			t.Fatal("EXIF not attached")
		}
		doc, err := exif.Decode(out.Data)
		if err != nil {
			t.Fatalf("decode output exif: %v", err)
		}
		if o, _ := exif.Orientation(doc); o != 1 {
			t.Errorf("orientation: got %d, want 1", o)
		}
		if v, _ := doc.Get(exif.IFD0, 0x010f); v != "Acme" {
			t.Errorf("make: got %v", v)
		}
		// The caller's document is untouched.
		if o, _ := exif.Orientation(src); o != 6 {
			t.Errorf("source document mutated: orientation %d", o)
		}
	})

	t.Run("png source", func(t *testing.T) {
		out, _ := (&pipeline.ExifPassthroughStep{}).Execute(context.Background(), &core.ImageData{
			Data: plain, Declared: core.FormatPNG, EXIF: src,
		})
		if exif.HasSegment(out.Data) {
			t.Error("EXIF attached to PNG-sourced output")
		}
	})

	t.Run("empty document", func(t *testing.T) {
		out, _ := (&pipeline.ExifPassthroughStep{}).Execute(context.Background(), &core.ImageData{
			Data: plain, Declared: core.FormatJPEG, EXIF: exif.NewDocument(),
		})
		if exif.HasSegment(out.Data) {
			t.Error("EXIF attached for an empty document")
		}
	})

	t.Run("insert failure keeps bytes", func(t *testing.T) {
		log := &warnLogger{}
		notJPEG := []byte("definitely not a jpeg")
		out, err := (&pipeline.ExifPassthroughStep{Logger: log}).Execute(context.Background(), &core.ImageData{
			Data: notJPEG, Declared: core.FormatJPEG, EXIF: src,
		})
		if err != nil {
			t.Fatalf("Execute: %v", err)
		}
		if !bytes.Equal(out.Data, notJPEG) || out.Meta.EXIFAttached {
			t.Error("bytes changed after failed insert")
		}
		if log.warns != 1 {
			t.Errorf("warns: got %d, want 1", log.warns)
		}
	})

	t.Run("encode failure keeps bytes", func(t *testing.T) {
		bad := exif.NewDocument()
		bad.Set(exif.IFD0, 0x010f, struct{}{})
		log := &warnLogger{}
		out, err := (&pipeline.ExifPassthroughStep{Logger: log}).Execute(context.Background(), &core.ImageData{
			Data: plain, Declared: core.FormatJPEG, EXIF: bad,
		})
		if err != nil {
			t.Fatalf("Execute: %v", err)
		}
		if !bytes.Equal(out.Data, plain) || log.warns != 1 {
			t.Errorf("encode failure not absorbed: warns=%d", log.warns)
		}
	})
}
