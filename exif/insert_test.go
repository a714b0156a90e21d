package exif_test

import (
	"bytes"
	"errors"
	"image/jpeg"
	"testing"

	qt "github.com/frankban/quicktest"

	apperrors "github.com/Skryldev/boardstamp/errors"
	"github.com/Skryldev/boardstamp/exif"
)

func TestInsertReplacesExistingSegment(t *testing.T) {
	c := qt.New(t)

	first := exif.NewDocument()
	first.Set(exif.IFD0, 0x010f, "First")
	second := exif.NewDocument()
	second.Set(exif.IFD0, 0x010f, "Second")

	seg1, err := exif.Encode(first)
	c.Assert(err, qt.IsNil)
	seg2, err := exif.Encode(second)
	c.Assert(err, qt.IsNil)

	out, err := exif.Insert(seg1, newJPEG(c, 8, 8))
	c.Assert(err, qt.IsNil)
	out, err = exif.Insert(seg2, out)
	c.Assert(err, qt.IsNil)

	c.Assert(bytes.Count(out, []byte("Exif\x00\x00")), qt.Equals, 1)
	d, err := exif.Decode(out)
	c.Assert(err, qt.IsNil)
	v, _ := d.Get(exif.IFD0, 0x010f)
	c.Assert(v, qt.Equals, "Second")

	// The APP1 sits directly after SOI.
	c.Assert(out[:4], qt.DeepEquals, []byte{0xff, 0xd8, 0xff, 0xe1})
}

func TestInsertDropsJFIF(t *testing.T) {
	c := qt.New(t)

	jfif := []byte("JFIF\x00\x01\x01\x00\x00\x01\x00\x01\x00\x00")
	src := withSegment(newJPEG(c, 8, 8), 0xe0, jfif)
	c.Assert(bytes.Contains(src, []byte("JFIF\x00")), qt.IsTrue)

	d := exif.NewDocument()
	d.Set(exif.IFD0, exif.TagOrientation, 1)
	seg, err := exif.Encode(d)
	c.Assert(err, qt.IsNil)

	out, err := exif.Insert(seg, src)
	c.Assert(err, qt.IsNil)
	c.Assert(bytes.Contains(out, []byte("JFIF\x00")), qt.IsFalse)
	c.Assert(exif.HasSegment(out), qt.IsTrue)

	_, err = jpeg.Decode(bytes.NewReader(out))
	c.Assert(err, qt.IsNil)
}

func TestInsertErrors(t *testing.T) {
	c := qt.New(t)

	seg, err := exif.Encode(exif.NewDocument())
	c.Assert(err, qt.IsNil)

	_, err = exif.Insert(seg, []byte("\x89PNG\r\n\x1a\n"))
	c.Assert(apperrors.IsInsertError(err), qt.IsTrue)
	c.Assert(errors.Is(err, apperrors.ErrNotJPEG), qt.IsTrue)

	truncated := []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x40, 'J'}
	_, err = exif.Insert(seg, truncated)
	c.Assert(apperrors.IsInsertError(err), qt.IsTrue)
	c.Assert(errors.Is(err, apperrors.ErrMalformedJPEG), qt.IsTrue)

	big := exif.NewDocument()
	big.Set(exif.IFD0, 0x927c, make([]byte, 70000))
	seg, err = exif.Encode(big)
	c.Assert(err, qt.IsNil)
	_, err = exif.Insert(seg, newJPEG(c, 8, 8))
	c.Assert(apperrors.IsInsertError(err), qt.IsTrue)
	c.Assert(errors.Is(err, apperrors.ErrSegmentTooLarge), qt.IsTrue)
}

func TestHasSegment(t *testing.T) {
	c := qt.New(t)
	plain := newJPEG(c, 8, 8)
	c.Assert(exif.HasSegment(plain), qt.IsFalse)
	c.Assert(exif.HasSegment(nil), qt.IsFalse)
}
