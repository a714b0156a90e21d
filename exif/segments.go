package exif

import (
	"bytes"
	"encoding/binary"

	apperrors "github.com/Skryldev/boardstamp/errors"
)

const (
	markerSOI  = 0xd8
	markerEOI  = 0xd9
	markerSOS  = 0xda
	markerAPP0 = 0xe0
	markerAPP1 = 0xe1
	markerTEM  = 0x01

	// Largest payload a marker segment can carry (the length field counts itself).
	maxSegmentPayload = 0xffff - 2
)

var (
	exifHeader = []byte("Exif\x00\x00")
	jfifHeader = []byte("JFIF\x00")
)

// segment is one marker segment of a JPEG header.
type segment struct {
	marker     byte
	start, end int    // start points at the first 0xff, end is exclusive
	payload    []byte // bytes after the length field
}

func (s segment) isExif() bool {
	return s.marker == markerAPP1 && bytes.HasPrefix(s.payload, exifHeader)
}

func (s segment) isJFIF() bool {
	return s.marker == markerAPP0 && bytes.HasPrefix(s.payload, jfifHeader)
}

// scanSegments walks the marker segments of a JPEG stream up to the first SOS
// or EOI.  It returns the segments seen and the offset of the remaining data
// (the SOS marker onwards).  On a malformed segment the segments read so far
// are returned together with the error.
func scanSegments(b []byte) ([]segment, int, error) {
	if len(b) < 2 || b[0] != 0xff || b[1] != markerSOI {
		return nil, 0, apperrors.ErrNotJPEG
	}

	var segs []segment
	pos := 2
	for pos < len(b) {
		if b[pos] != 0xff {
			return segs, pos, apperrors.ErrMalformedJPEG
		}
		start := pos
		for pos < len(b) && b[pos] == 0xff {
			pos++
		}
		if pos >= len(b) {
			return segs, start, apperrors.ErrMalformedJPEG
		}
		marker := b[pos]
		pos++

		switch {
		case marker == markerSOS || marker == markerEOI:
			return segs, start, nil
		case marker == markerTEM || (marker >= 0xd0 && marker <= 0xd7):
			// Standalone markers carry no length.
			segs = append(segs, segment{marker: marker, start: start, end: pos})
			continue
		}

		if pos+2 > len(b) {
			return segs, start, apperrors.ErrMalformedJPEG
		}
		n := int(binary.BigEndian.Uint16(b[pos:]))
		if n < 2 || pos+n > len(b) {
			return segs, start, apperrors.ErrMalformedJPEG
		}
		segs = append(segs, segment{
			marker:  marker,
			start:   start,
			end:     pos + n,
			payload: b[pos+2 : pos+n],
		})
		pos += n
	}
	return segs, len(b), nil
}
