package encoder_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/Skryldev/boardstamp/adapters/encoder"
	"github.com/Skryldev/boardstamp/core"
	apperrors "github.com/Skryldev/boardstamp/errors"
)

func TestJPEG_Encode(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 96, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 96; x++ {
			src.SetRGBA(x, y, color.RGBA{R: uint8(x * 7), G: uint8(y * 11), B: uint8(x ^ y), A: 255})
		}
	}

	enc := encoder.NewJPEG(0)
	if enc.DefaultQuality != encoder.DefaultJPEGQuality {
		t.Errorf("default quality: %d", enc.DefaultQuality)
	}
	if !enc.CanEncode(core.FormatJPEG) || enc.CanEncode(core.FormatPNG) {
		t.Error("CanEncode")
	}

	data, err := enc.Encode(context.Background(), &core.ImageData{Image: src}, core.EncodeOptions{})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := got.Bounds(); b.Dx() != 96 || b.Dy() != 48 {
		t.Errorf("bounds: %v", b)
	}

	low, err := enc.Encode(context.Background(), &core.ImageData{Image: src}, core.EncodeOptions{Quality: 10})
	if err != nil {
		t.Fatalf("Encode q10: %v", err)
	}
	if len(low) >= len(data) {
		t.Errorf("quality 10 (%d bytes) not smaller than default (%d bytes)", len(low), len(data))
	}
}

func TestJPEG_EncodeErrors(t *testing.T) {
	enc := encoder.NewJPEG(90)
	if _, err := enc.Encode(context.Background(), &core.ImageData{}, core.EncodeOptions{}); !apperrors.IsCategory(err, apperrors.CategoryEncode) {
		t.Errorf("nil image: got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := enc.Encode(ctx, &core.ImageData{Image: image.NewRGBA(image.Rect(0, 0, 1, 1))}, core.EncodeOptions{}); err == nil {
		t.Error("expected error for cancelled context")
	}
}
