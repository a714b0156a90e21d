package exif

import (
	"bytes"

	apperrors "github.com/Skryldev/boardstamp/errors"
)

// Insert splices an EXIF payload (as returned by Encode) into a JPEG stream
// right after the SOI marker.  Existing EXIF APP1 segments and the JFIF APP0
// segment are dropped; all other segments and the scan data are copied
// unchanged.
//
// The returned error is an insert error (see errors.IsInsertError).
func Insert(exifSegment, jpegBytes []byte) ([]byte, error) {
	const op = "exif.insert"

	payload := exifSegment
	if !bytes.HasPrefix(payload, exifHeader) {
		payload = append(bytes.Clone(exifHeader), payload...)
	}
	if len(payload) > maxSegmentPayload {
		return nil, apperrors.Wrapf(apperrors.CategoryEXIF, op, apperrors.ErrSegmentTooLarge, "%d bytes", len(payload))
	}

	segs, rest, err := scanSegments(jpegBytes)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryEXIF, op, err)
	}

	n := len(payload) + 2
	out := make([]byte, 0, len(jpegBytes)+n+2)
	out = append(out, 0xff, markerSOI, 0xff, markerAPP1, byte(n>>8), byte(n))
	out = append(out, payload...)
	for _, s := range segs {
		if s.isExif() || s.isJFIF() {
			continue
		}
		out = append(out, jpegBytes[s.start:s.end]...)
	}
	return append(out, jpegBytes[rest:]...), nil
}

// HasSegment reports whether a JPEG stream carries an EXIF APP1 segment.
func HasSegment(jpegBytes []byte) bool {
	segs, _, _ := scanSegments(jpegBytes)
	for _, s := range segs {
		if s.isExif() {
			return true
		}
	}
	return false
}
