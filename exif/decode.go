package exif

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	apperrors "github.com/Skryldev/boardstamp/errors"
)

const (
	byteOrderBigEndian    = 0x4d4d
	byteOrderLittleEndian = 0x4949
	tiffMagic             = 42

	// Sanity cap on entries per IFD; real files stay far below it.
	maxIFDEntries = 2048
)

// Decode parses the EXIF APP1 segment out of a JPEG stream.
//
// The returned error is a decode error (see errors.IsDecodeError) wrapping
// ErrNoEXIF when the stream has no EXIF segment and ErrMalformedEXIF when the
// stream or the segment cannot be parsed.  Callers treat both as "no
// metadata".
func Decode(jpegBytes []byte) (*Document, error) {
	const op = "exif.decode"

	segs, _, err := scanSegments(jpegBytes)
	for _, s := range segs {
		if s.isExif() {
			return decodeTIFF(op, s.payload[len(exifHeader):])
		}
	}
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.CategoryEXIF, op, apperrors.ErrMalformedEXIF, "%v", err)
	}
	return nil, apperrors.New(apperrors.CategoryEXIF, op, apperrors.ErrNoEXIF)
}

// DecodeSegment parses an EXIF payload as produced by Encode: the
// "Exif\x00\x00" header followed by a TIFF structure.  A bare TIFF structure
// is accepted as well.
func DecodeSegment(seg []byte) (*Document, error) {
	return decodeTIFF("exif.decode_segment", bytes.TrimPrefix(seg, exifHeader))
}

func decodeTIFF(op string, b []byte) (doc *Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = apperrors.Wrapf(apperrors.CategoryEXIF, op, apperrors.ErrMalformedEXIF, "%v", r)
		}
	}()

	if len(b) < 8 {
		return nil, apperrors.Wrapf(apperrors.CategoryEXIF, op, apperrors.ErrMalformedEXIF, "tiff header truncated")
	}

	r := &tiffReader{b: b}
	switch binary.BigEndian.Uint16(b) {
	case byteOrderBigEndian:
		r.bo = binary.BigEndian
	case byteOrderLittleEndian:
		r.bo = binary.LittleEndian
	default:
		return nil, apperrors.Wrapf(apperrors.CategoryEXIF, op, apperrors.ErrMalformedEXIF, "unknown byte order %#x", b[:2])
	}
	if r.bo.Uint16(b[2:]) != tiffMagic {
		return nil, apperrors.Wrapf(apperrors.CategoryEXIF, op, apperrors.ErrMalformedEXIF, "bad tiff magic")
	}

	d := &decoder{r: r, visited: make(map[uint32]bool)}
	doc = NewDocument()

	ifd0, links, err := d.readIFD(IFD0, r.bo.Uint32(b[4:]))
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.CategoryEXIF, op, apperrors.ErrMalformedEXIF, "%s: %v", IFD0, err)
	}
	doc.IFDs[IFD0] = ifd0

	// Sub-IFDs are best effort: a broken pointer drops that group only.
	if off, ok := links.pointers[tagExifPointer]; ok {
		if tags, exifLinks, err := d.readIFD(IFDExif, off); err == nil {
			doc.IFDs[IFDExif] = tags
			if ioff, ok := exifLinks.pointers[tagInteropPointer]; ok {
				if tags, _, err := d.readIFD(IFDInterop, ioff); err == nil {
					doc.IFDs[IFDInterop] = tags
				}
			}
		}
	}
	if off, ok := links.pointers[tagGPSPointer]; ok {
		if tags, _, err := d.readIFD(IFDGPS, off); err == nil {
			doc.IFDs[IFDGPS] = tags
		}
	}
	if links.next != 0 {
		if tags, l1, err := d.readIFD(IFD1, links.next); err == nil {
			doc.IFDs[IFD1] = tags
			doc.Thumbnail = d.thumbnail(l1)
		}
	}
	return doc, nil
}

// ifdLinks carries the structural values of an IFD that are not kept as tags.
type ifdLinks struct {
	next     uint32
	pointers map[uint16]uint32
}

type decoder struct {
	r       *tiffReader
	visited map[uint32]bool
}

func (d *decoder) readIFD(ifd IFD, off uint32) (Tags, ifdLinks, error) {
	r := d.r
	r.err = nil
	links := ifdLinks{pointers: make(map[uint16]uint32)}

	if off < 8 || d.visited[off] {
		return nil, links, fmt.Errorf("invalid ifd offset %d", off)
	}
	d.visited[off] = true

	n := uint32(r.u16(off))
	if r.err != nil {
		return nil, links, r.err
	}
	if n > maxIFDEntries {
		return nil, links, fmt.Errorf("too many entries (%d)", n)
	}

	tags := make(Tags, n)
	for i := uint32(0); i < n; i++ {
		e := off + 2 + i*12
		tag := r.u16(e)
		typ := Type(r.u16(e + 2))
		count := r.u32(e + 4)
		if r.err != nil {
			return nil, links, r.err
		}

		size, ok := typeSize[typ]
		if !ok {
			// Unknown field type; skip the entry.
			continue
		}
		total := uint64(size) * uint64(count)
		if total > uint64(len(r.b)) {
			return nil, links, fmt.Errorf("tag %#04x: count %d out of range", tag, count)
		}

		var raw []byte
		if total <= 4 {
			raw = r.bytes(e+8, uint32(total))
		} else {
			raw = r.bytes(r.u32(e+8), uint32(total))
		}
		if r.err != nil {
			return nil, links, fmt.Errorf("tag %#04x: %w", tag, r.err)
		}

		value := decodeValue(r.bo, typ, count, raw)

		if isPointerTag(tag) || (ifd == IFD1 && isThumbnailTag(tag)) {
			if v, ok := firstUint(value); ok {
				links.pointers[tag] = v
			}
			continue
		}
		tags[tag] = value
	}

	links.next = r.u32(off + 2 + n*12)
	if r.err != nil {
		// A missing next-IFD offset is tolerated.
		links.next = 0
		r.err = nil
	}
	return tags, links, nil
}

func (d *decoder) thumbnail(l ifdLinks) []byte {
	off, ok1 := l.pointers[tagThumbOffset]
	n, ok2 := l.pointers[tagThumbLength]
	if !ok1 || !ok2 || n == 0 {
		return nil
	}
	d.r.err = nil
	b := d.r.bytes(off, n)
	if d.r.err != nil {
		return nil
	}
	return bytes.Clone(b)
}

func isPointerTag(tag uint16) bool {
	return tag == tagExifPointer || tag == tagGPSPointer || tag == tagInteropPointer
}

func isThumbnailTag(tag uint16) bool {
	return tag == tagThumbOffset || tag == tagThumbLength
}

func decodeValue(bo binary.ByteOrder, typ Type, count uint32, raw []byte) any {
	switch typ {
	case TypeByte, TypeUndefined:
		return bytes.Clone(raw)
	case TypeASCII:
		return string(bytes.TrimRight(raw, "\x00"))
	case TypeSByte:
		out := make([]int8, count)
		for i := range out {
			out[i] = int8(raw[i])
		}
		return out
	case TypeShort:
		out := make([]uint16, count)
		for i := range out {
			out[i] = bo.Uint16(raw[i*2:])
		}
		return out
	case TypeSShort:
		out := make([]int16, count)
		for i := range out {
			out[i] = int16(bo.Uint16(raw[i*2:]))
		}
		return out
	case TypeLong:
		out := make([]uint32, count)
		for i := range out {
			out[i] = bo.Uint32(raw[i*4:])
		}
		return out
	case TypeSLong:
		out := make([]int32, count)
		for i := range out {
			out[i] = int32(bo.Uint32(raw[i*4:]))
		}
		return out
	case TypeRational:
		out := make([]Rational, count)
		for i := range out {
			out[i] = Rational{Num: bo.Uint32(raw[i*8:]), Den: bo.Uint32(raw[i*8+4:])}
		}
		return out
	case TypeSRational:
		out := make([]SRational, count)
		for i := range out {
			out[i] = SRational{Num: int32(bo.Uint32(raw[i*8:])), Den: int32(bo.Uint32(raw[i*8+4:]))}
		}
		return out
	case TypeFloat:
		out := make([]float32, count)
		for i := range out {
			out[i] = math.Float32frombits(bo.Uint32(raw[i*4:]))
		}
		return out
	case TypeDouble:
		out := make([]float64, count)
		for i := range out {
			out[i] = math.Float64frombits(bo.Uint64(raw[i*8:]))
		}
		return out
	}
	return nil
}

var errOutOfBounds = errors.New("offset out of bounds")

// tiffReader reads fixed-width values at absolute offsets of a TIFF
// structure.  The first out-of-range read sets err; later reads return zero
// values until err is cleared.
type tiffReader struct {
	b   []byte
	bo  binary.ByteOrder
	err error
}

func (r *tiffReader) bytes(off, n uint32) []byte {
	if r.err != nil {
		return nil
	}
	end := uint64(off) + uint64(n)
	if end > uint64(len(r.b)) {
		r.err = fmt.Errorf("%w: %d+%d > %d", errOutOfBounds, off, n, len(r.b))
		return nil
	}
	return r.b[off:end]
}

func (r *tiffReader) u16(off uint32) uint16 {
	b := r.bytes(off, 2)
	if b == nil {
		return 0
	}
	return r.bo.Uint16(b)
}

func (r *tiffReader) u32(off uint32) uint32 {
	b := r.bytes(off, 4)
	if b == nil {
		return 0
	}
	return r.bo.Uint32(b)
}
