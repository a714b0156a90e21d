// Package encoder provides output encoders.  The board pipeline always emits
// JPEG.
package encoder

import (
	"context"
	"image"
	"image/jpeg"

	"github.com/Skryldev/boardstamp/core"
	apperrors "github.com/Skryldev/boardstamp/errors"
	"github.com/Skryldev/boardstamp/utils"
)

// DefaultJPEGQuality matches a canvas export at quality 0.9.
const DefaultJPEGQuality = 90

// JPEG encodes images to JPEG format.
type JPEG struct {
	DefaultQuality int // used when EncodeOptions.Quality == 0
}

// NewJPEG returns an encoder using defaultQuality when a call names none.
// Out-of-range values select DefaultJPEGQuality.
func NewJPEG(defaultQuality int) *JPEG {
	if defaultQuality <= 0 || defaultQuality > 100 {
		defaultQuality = DefaultJPEGQuality
	}
	return &JPEG{DefaultQuality: defaultQuality}
}

func (j *JPEG) CanEncode(format core.Format) bool {
	return format == core.FormatJPEG
}

// Encode writes img.Image as baseline JPEG.  Any alpha channel is dropped;
// transparent pixels come out black.
func (j *JPEG) Encode(ctx context.Context, img *core.ImageData, opts core.EncodeOptions) ([]byte, error) {
	const op = "jpeg.encode"
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryEncode, op, err)
	}

	src, ok := img.Image.(image.Image)
	if !ok || src == nil {
		return nil, apperrors.New(apperrors.CategoryEncode, op, apperrors.ErrEmptyInput)
	}

	quality := opts.Quality
	if quality <= 0 {
		quality = j.DefaultQuality
	}
	quality = min(quality, 100)

	buf := utils.AcquireBuffer()
	defer utils.ReleaseBuffer(buf)
	if err := jpeg.Encode(buf, src, &jpeg.Options{Quality: quality}); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryEncode, op, err)
	}
	return utils.CloneBytes(buf.Bytes()), nil
}

var _ core.Encoder = (*JPEG)(nil)
