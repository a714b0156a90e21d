// Package vips provides an optional libvips decoder backend.  It needs
// libvips at build and run time.
package vips

import (
	"bytes"
	"context"
	"image/png"
	"io"
	"runtime"
	"sync"

	govips "github.com/davidbyttow/govips/v2/vips"

	"github.com/Skryldev/boardstamp/core"
	apperrors "github.com/Skryldev/boardstamp/errors"
	"github.com/Skryldev/boardstamp/utils"
)

// BackendConfig configures the libvips backend.
type BackendConfig struct {
	MaxCacheSize int
	MaxWorkers   int
	ReportLeaks  bool
}

// Backend decodes JPEG and PNG through libvips, applying the EXIF
// orientation with vips_autorot.  Safe for concurrent use across goroutines.
type Backend struct {
	cfg BackendConfig
}

var startOnce sync.Once

// NewBackend initialises libvips and returns a ready Backend.
// Call Shutdown() when the process exits.
func NewBackend(cfg BackendConfig) *Backend {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = runtime.NumCPU()
	}
	startOnce.Do(func() {
		govips.Startup(&govips.Config{
			ConcurrencyLevel: cfg.MaxWorkers,
			MaxCacheSize:     cfg.MaxCacheSize,
			ReportLeaks:      cfg.ReportLeaks,
		})
	})
	return &Backend{cfg: cfg}
}

// Shutdown releases all libvips resources. Call once at process exit.
func (b *Backend) Shutdown() {
	govips.Shutdown()
}

func (b *Backend) CanDecode(f core.Format) bool {
	return f == core.FormatJPEG || f == core.FormatPNG
}

// Decode loads the buffer with libvips, rotates it upright and hands the
// pixels over as an image.Image so the drawing steps stay backend-agnostic.
func (b *Backend) Decode(ctx context.Context, r io.Reader) (*core.ImageData, error) {
	const op = "vips.decode"
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryDecode, op, err)
	}

	buf, err := utils.DrainReader(ctx, r, 0)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryDecode, op, err)
	}
	raw := utils.CloneBytes(buf.Bytes())
	utils.ReleaseBuffer(buf)

	ref, err := govips.NewImageFromBuffer(raw)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.CategoryDecode, op, apperrors.ErrImageLoad, "%v", err)
	}
	defer ref.Close()

	format := core.Format(utils.DetectFormat(raw))
	orientation := ref.Orientation()
	if err := ref.AutoRotate(); err != nil {
		return nil, apperrors.Wrapf(apperrors.CategoryDecode, op, apperrors.ErrImageLoad, "autorotate: %v", err)
	}

	// PNG is the lossless hand-off format between libvips and image.Image.
	pngBytes, _, err := ref.ExportPng(govips.NewPngExportParams())
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.CategoryDecode, op, apperrors.ErrImageLoad, "export: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(pngBytes))
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.CategoryDecode, op, apperrors.ErrImageLoad, "%v", err)
	}

	bounds := img.Bounds()
	return &core.ImageData{
		Image:  img,
		Format: format,
		Meta: core.Metadata{
			Width:       bounds.Dx(),
			Height:      bounds.Dy(),
			Format:      format,
			ColorSpace:  core.ColorSpaceRGB,
			HasAlpha:    ref.HasAlpha(),
			SizeBytes:   int64(len(raw)),
			Orientation: orientation,
			Oriented:    orientation > 1,
		},
	}, nil
}

// RegisterVipsBackend replaces the standard library decoders with libvips.
// Encoding stays with the JPEG encoder.
func RegisterVipsBackend(reg core.Registry, b *Backend) {
	for _, f := range []core.Format{core.FormatJPEG, core.FormatPNG} {
		reg.RegisterDecoder(f, b)
	}
}

// compile-time interface checks
var _ core.Decoder = (*Backend)(nil)
