package decoder

import (
	"bytes"
	"context"
	"image/png"
	"io"

	"github.com/Skryldev/boardstamp/core"
	apperrors "github.com/Skryldev/boardstamp/errors"
)

// PNG decodes PNG images using the standard library.  PNG sources carry no
// orientation, so pixels are used as stored.
type PNG struct{}

func NewPNG() *PNG { return &PNG{} }

func (p *PNG) CanDecode(format core.Format) bool { return format == core.FormatPNG }

func (p *PNG) Decode(ctx context.Context, r io.Reader) (*core.ImageData, error) {
	const op = "png.decode"
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryDecode, op, err)
	}
	raw, err := readAll(ctx, op, r)
	if err != nil {
		return nil, err
	}

	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.CategoryDecode, op, apperrors.ErrImageLoad, "%v", err)
	}
	return newImageData(img, core.FormatPNG, len(raw)), nil
}
