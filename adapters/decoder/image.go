package decoder

import (
	"context"
	"image"
	"io"

	"github.com/Skryldev/boardstamp/core"
	apperrors "github.com/Skryldev/boardstamp/errors"
	"github.com/Skryldev/boardstamp/utils"
)

// readAll drains r through the shared buffer pool.
func readAll(ctx context.Context, op string, r io.Reader) ([]byte, error) {
	buf, err := utils.DrainReader(ctx, r, 0)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryDecode, op, err)
	}
	raw := utils.CloneBytes(buf.Bytes())
	utils.ReleaseBuffer(buf)
	if len(raw) == 0 {
		return nil, apperrors.New(apperrors.CategoryDecode, op, apperrors.ErrEmptyInput)
	}
	return raw, nil
}

func newImageData(img image.Image, format core.Format, size int) *core.ImageData {
	b := img.Bounds()
	return &core.ImageData{
		Image:  img,
		Format: format,
		Meta: core.Metadata{
			Width:      b.Dx(),
			Height:     b.Dy(),
			Format:     format,
			ColorSpace: colorSpace(img),
			HasAlpha:   hasAlpha(img),
			SizeBytes:  int64(size),
		},
	}
}

func colorSpace(img image.Image) core.ColorSpace {
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		return core.ColorSpaceGray
	case *image.CMYK:
		return core.ColorSpaceCMYK
	}
	if hasAlpha(img) {
		return core.ColorSpaceRGBA
	}
	return core.ColorSpaceRGB
}

// hasAlpha reports whether any pixel is not fully opaque.
func hasAlpha(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return !o.Opaque()
	}
	return false
}
