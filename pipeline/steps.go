package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"image"

	xdraw "golang.org/x/image/draw"

	"github.com/Skryldev/boardstamp/board"
	"github.com/Skryldev/boardstamp/core"
	apperrors "github.com/Skryldev/boardstamp/errors"
	"github.com/Skryldev/boardstamp/exif"
)

// ── Decode ────────────────────────────────────────────────────────────────────

// DecodeStep decodes raw bytes in img.Data into an image.Image.  Each call
// runs the decoder once in its own goroutine and waits on a result channel
// scoped to that call.
type DecodeStep struct {
	Registry core.Registry
}

func (s *DecodeStep) Name() string { return "decode" }

type decodeResult struct {
	img *core.ImageData
	err error
}

func (s *DecodeStep) Execute(ctx context.Context, img *core.ImageData) (*core.ImageData, error) {
	if len(img.Data) == 0 {
		return nil, apperrors.New(apperrors.CategoryDecode, s.Name(), apperrors.ErrEmptyInput)
	}
	format := img.Format
	if format == core.FormatUnknown {
		format = img.Declared
	}
	dec, ok := s.Registry.DecoderFor(format)
	if !ok {
		return nil, apperrors.Wrapf(apperrors.CategoryDecode, s.Name(), apperrors.ErrImageLoad,
			"no decoder for %s", format)
	}

	done := make(chan decodeResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- decodeResult{err: apperrors.Wrapf(apperrors.CategoryDecode, s.Name(),
					apperrors.ErrImageLoad, "decoder panic: %v", r)}
			}
		}()
		d, err := dec.Decode(ctx, bytes.NewReader(img.Data))
		done <- decodeResult{img: d, err: err}
	}()

	res := <-done
	if res.err != nil {
		if apperrors.IsImageLoadError(res.err) {
			return nil, res.err
		}
		return nil, apperrors.Wrapf(apperrors.CategoryDecode, s.Name(), apperrors.ErrImageLoad, "%v", res.err)
	}
	if res.img == nil || res.img.Image == nil {
		return nil, apperrors.Wrapf(apperrors.CategoryDecode, s.Name(), apperrors.ErrImageLoad, "decoder returned no image")
	}

	out := *img
	out.Image = res.img.Image
	out.Meta = res.img.Meta
	out.Meta.SizeBytes = int64(len(img.Data))
	return &out, nil
}

// ── Surface ───────────────────────────────────────────────────────────────────

// SurfaceStep draws the decoded image at natural size onto a fresh RGBA
// surface of the same dimensions.
type SurfaceStep struct{}

func (s *SurfaceStep) Name() string { return "surface" }

func (s *SurfaceStep) Execute(_ context.Context, img *core.ImageData) (*core.ImageData, error) {
	src, ok := img.Image.(image.Image)
	if !ok || src == nil {
		return nil, apperrors.New(apperrors.CategoryPipeline, s.Name(), apperrors.ErrEmptyInput)
	}

	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(dst, dst.Bounds(), src, b.Min, xdraw.Src)

	out := *img
	out.Image = dst
	out.Meta.Width = b.Dx()
	out.Meta.Height = b.Dy()
	return &out, nil
}

// ── Board ─────────────────────────────────────────────────────────────────────

// BoardStep lays out img.Board for the surface size and paints it.  A spec
// with nothing to draw leaves the surface untouched.  Text the fonts cannot
// draw is reported through Logger when one is set.
type BoardStep struct {
	Renderer *board.Renderer
	Style    board.Style
	Logger   core.Logger
}

func (s *BoardStep) Name() string { return "board" }

func (s *BoardStep) Execute(_ context.Context, img *core.ImageData) (*core.ImageData, error) {
	surface, ok := img.Image.(xdraw.Image)
	if !ok || surface == nil {
		return nil, apperrors.New(apperrors.CategoryPipeline, s.Name(),
			fmt.Errorf("%w: no drawing surface", apperrors.ErrEmptyInput))
	}

	b := surface.Bounds()
	layout, ok := board.ComputeLayout(img.Board, b.Dx(), b.Dy(), s.Style, s.Renderer)
	if !ok {
		return img, nil
	}
	if s.Logger != nil {
		if missing := s.Renderer.MissingIn(layout); len(missing) > 0 {
			s.Logger.Warn("board.glyphs.missing", "glyphs", string(missing))
		}
	}
	if err := s.Renderer.Draw(surface, layout); err != nil {
		return nil, err
	}
	return img, nil
}

// ── Encode ────────────────────────────────────────────────────────────────────

// EncodeStep serialises the surface into encoded bytes using the registry.
type EncodeStep struct {
	Registry    core.Registry
	Format      core.Format
	BaseOptions core.EncodeOptions
}

func (s *EncodeStep) Name() string { return "encode" }

func (s *EncodeStep) Execute(ctx context.Context, img *core.ImageData) (*core.ImageData, error) {
	format := s.Format
	if format == "" {
		format = core.FormatJPEG
	}
	enc, ok := s.Registry.EncoderFor(format)
	if !ok {
		return nil, apperrors.New(apperrors.CategoryEncode, s.Name(),
			fmt.Errorf("%w: %s", apperrors.ErrUnsupportedFormat, format))
	}

	data, err := enc.Encode(ctx, img, s.BaseOptions)
	if err != nil {
		return nil, err
	}

	out := *img
	out.Data = data
	out.Format = format
	out.Meta.Format = format
	out.Meta.SizeBytes = int64(len(data))
	out.Meta.EXIFAttached = false
	return &out, nil
}

// ── EXIF passthrough ──────────────────────────────────────────────────────────

// ExifPassthroughStep copies the source EXIF into the encoded JPEG when the
// source was declared JPEG and its document carries data.  Orientation is
// forced to 1 because the surface is already upright.  Any failure is logged
// and the encoded bytes pass through unchanged.
type ExifPassthroughStep struct {
	Logger core.Logger
}

func (s *ExifPassthroughStep) Name() string { return "exif_passthrough" }

func (s *ExifPassthroughStep) Execute(_ context.Context, img *core.ImageData) (*core.ImageData, error) {
	if img.Declared != core.FormatJPEG || !exif.HasMeaningfulData(img.EXIF) {
		return img, nil
	}

	doc := exif.CloneForEdit(img.EXIF)
	doc.Set(exif.IFD0, exif.TagOrientation, []uint16{1})

	seg, err := exif.Encode(doc)
	if err != nil {
		s.warn("exif.encode", err)
		return img, nil
	}
	data, err := exif.Insert(seg, img.Data)
	if err != nil {
		s.warn("exif.insert", err)
		return img, nil
	}

	out := *img
	out.Data = data
	out.Meta.SizeBytes = int64(len(data))
	out.Meta.EXIFAttached = true
	return &out, nil
}

func (s *ExifPassthroughStep) warn(op string, err error) {
	if s.Logger == nil {
		return
	}
	s.Logger.Warn("pipeline.exif_passthrough.skipped", "op", op, "error", err.Error())
}

// compile-time interface checks
var (
	_ core.Step = (*DecodeStep)(nil)
	_ core.Step = (*SurfaceStep)(nil)
	_ core.Step = (*BoardStep)(nil)
	_ core.Step = (*EncodeStep)(nil)
	_ core.Step = (*ExifPassthroughStep)(nil)
)
