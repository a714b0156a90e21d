// Package decoder provides format-specific image decoders.
package decoder

import (
	"bytes"
	"context"
	"image/jpeg"
	"io"

	"github.com/Skryldev/boardstamp/core"
	apperrors "github.com/Skryldev/boardstamp/errors"
	"github.com/Skryldev/boardstamp/exif"
)

// JPEG decodes JPEG images using the standard library and applies the EXIF
// orientation so the pixels come out upright.
type JPEG struct {
	// KeepOrientation skips the orientation transform.
	KeepOrientation bool
}

// NewJPEG returns an initialised JPEG decoder.
func NewJPEG() *JPEG { return &JPEG{} }

func (j *JPEG) CanDecode(format core.Format) bool {
	return format == core.FormatJPEG
}

func (j *JPEG) Decode(ctx context.Context, r io.Reader) (*core.ImageData, error) {
	const op = "jpeg.decode"
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryDecode, op, err)
	}

	raw, err := readAll(ctx, op, r)
	if err != nil {
		return nil, err
	}

	img, err := jpeg.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.CategoryDecode, op, apperrors.ErrImageLoad, "%v", err)
	}

	// Orientation is best effort; a broken EXIF block leaves pixels as stored.
	orientation := 0
	if doc, err := exif.Decode(raw); err == nil {
		orientation, _ = exif.Orientation(doc)
	}
	oriented := false
	if !j.KeepOrientation && orientation > 1 {
		img = Orient(img, orientation)
		oriented = true
	}

	out := newImageData(img, core.FormatJPEG, len(raw))
	out.Meta.Orientation = orientation
	out.Meta.Oriented = oriented
	return out, nil
}
