package exif_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/Skryldev/boardstamp/exif"
)

func TestDescribe(t *testing.T) {
	c := qt.New(t)

	d := exif.NewDocument()
	d.Set(exif.IFD0, exif.TagOrientation, []uint16{6})
	d.Set(exif.IFD0, 0x010f, "Acme")
	d.Set(exif.IFD0, 0x011a, []exif.Rational{{Num: 72, Den: 1}})
	d.Set(exif.IFDGPS, 0x0000, []byte{2, 3, 0, 0})
	d.Thumbnail = make([]byte, 12)

	want := `--- JPEG EXIF Data ---
0th IFD:
{
  "271": "Acme",
  "274": 6,
  "282": [
    72,
    1
  ]
}

GPS IFD:
{
  "0": [
    2,
    3,
    0,
    0
  ]
}

Thumbnail: Present (length 12)
`
	c.Assert(exif.Describe(d), qt.Equals, want)
}

func TestDescribeEmpty(t *testing.T) {
	c := qt.New(t)

	d := &exif.Document{IFDs: map[exif.IFD]exif.Tags{exif.IFD0: {}}}
	c.Assert(exif.Describe(d), qt.Equals, "--- JPEG EXIF Data ---\n0th IFD:\n{}\n\nThumbnail: Not present\n")
	c.Assert(exif.Describe(nil), qt.Equals, "--- JPEG EXIF Data ---\nThumbnail: Not present\n")
}
