package decoder_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/Skryldev/boardstamp/adapters/decoder"
	"github.com/Skryldev/boardstamp/core"
	apperrors "github.com/Skryldev/boardstamp/errors"
	"github.com/Skryldev/boardstamp/exif"
)

var (
	red  = color.RGBA{R: 255, A: 255}
	blue = color.RGBA{B: 255, A: 255}
)

func twoPixel() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.SetRGBA(0, 0, red)
	img.SetRGBA(1, 0, blue)
	return img
}

func TestOrient(t *testing.T) {
	cases := []struct {
		orientation int
		w, h        int
		first       image.Point // where the red pixel ends up
	}{
		{1, 2, 1, image.Pt(0, 0)},
		{2, 2, 1, image.Pt(1, 0)},
		{3, 2, 1, image.Pt(1, 0)},
		{4, 2, 1, image.Pt(0, 0)},
		{5, 1, 2, image.Pt(0, 0)},
		{6, 1, 2, image.Pt(0, 0)},
		{7, 1, 2, image.Pt(0, 1)},
		{8, 1, 2, image.Pt(0, 1)},
		{9, 2, 1, image.Pt(0, 0)},
	}
	for _, tc := range cases {
		out := decoder.Orient(twoPixel(), tc.orientation)
		b := out.Bounds()
		if b.Dx() != tc.w || b.Dy() != tc.h {
			t.Errorf("orientation %d: size %dx%d, want %dx%d", tc.orientation, b.Dx(), b.Dy(), tc.w, tc.h)
			continue
		}
		r, _, _, _ := out.At(tc.first.X, tc.first.Y).RGBA()
		if r>>8 != 255 {
			t.Errorf("orientation %d: red pixel not at %v", tc.orientation, tc.first)
		}
	}
}

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func TestJPEG_AppliesOrientation(t *testing.T) {
	doc := exif.NewDocument()
	doc.Set(exif.IFD0, exif.TagOrientation, []uint16{6})
	seg, err := exif.Encode(doc)
	if err != nil {
		t.Fatalf("exif.Encode: %v", err)
	}
	raw, err := exif.Insert(seg, encodeJPEG(t, 40, 20))
	if err != nil {
		t.Fatalf("exif.Insert: %v", err)
	}

	got, err := decoder.NewJPEG().Decode(context.Background(), bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Meta.Width != 20 || got.Meta.Height != 40 {
		t.Errorf("size: got %dx%d, want 20x40", got.Meta.Width, got.Meta.Height)
	}
	if got.Meta.Orientation != 6 || !got.Meta.Oriented {
		t.Errorf("meta: orientation=%d oriented=%v", got.Meta.Orientation, got.Meta.Oriented)
	}

	keep := &decoder.JPEG{KeepOrientation: true}
	got, err = keep.Decode(context.Background(), bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Meta.Width != 40 || got.Meta.Oriented {
		t.Errorf("KeepOrientation: got width %d oriented=%v", got.Meta.Width, got.Meta.Oriented)
	}
}

func TestJPEG_Corrupt(t *testing.T) {
	_, err := decoder.NewJPEG().Decode(context.Background(), bytes.NewReader([]byte{0xff, 0xd8, 0xff, 0x00}))
	if !apperrors.IsImageLoadError(err) {
		t.Errorf("got %v, want image load error", err)
	}
}

func TestPNG_Decode(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, twoPixel()); err != nil {
		t.Fatal(err)
	}
	got, err := decoder.NewPNG().Decode(context.Background(), &buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Format != core.FormatPNG || got.Meta.Width != 2 {
		t.Errorf("got %s %dx%d", got.Format, got.Meta.Width, got.Meta.Height)
	}

	_, err = decoder.NewPNG().Decode(context.Background(), bytes.NewReader([]byte("\x89PNG\r\n\x1a\nbroken")))
	if !apperrors.IsImageLoadError(err) {
		t.Errorf("got %v, want image load error", err)
	}
}
