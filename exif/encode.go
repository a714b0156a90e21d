package exif

import (
	"encoding/binary"
	"fmt"
	"math"
	"slices"

	apperrors "github.com/Skryldev/boardstamp/errors"
)

// Encode serialises d into an EXIF APP1 payload: the "Exif\x00\x00" header
// followed by a big-endian TIFF structure holding every populated IFD and the
// thumbnail.  Structural tags (sub-IFD pointers, thumbnail offset/length) are
// computed; any such tags present in d are ignored.
func Encode(d *Document) ([]byte, error) {
	const op = "exif.encode"
	if d == nil {
		return nil, apperrors.New(apperrors.CategoryEXIF, op, apperrors.ErrEmptyInput)
	}

	present := func(ifd IFD) bool { return len(d.IFDs[ifd]) > 0 }

	hasInterop := present(IFDInterop)
	hasExif := present(IFDExif) || hasInterop
	hasGPS := present(IFDGPS)
	hasThumb := len(d.Thumbnail) > 0
	has1st := present(IFD1) || hasThumb

	var blocks []*block
	add := func(ifd IFD) (*block, error) {
		b := &block{ifd: ifd}
		for _, tag := range sortedTags(d.IFDs[ifd]) {
			if isPointerTag(tag) || (ifd == IFD1 && isThumbnailTag(tag)) {
				continue
			}
			e, err := encodeEntry(ifd, tag, d.IFDs[ifd][tag])
			if err != nil {
				return nil, apperrors.Wrapf(apperrors.CategoryEXIF, op, apperrors.ErrUnencodableTag, "%s tag %#04x: %v", ifd, tag, err)
			}
			b.entries = append(b.entries, e)
		}
		blocks = append(blocks, b)
		return b, nil
	}

	ifd0, err := add(IFD0)
	if err != nil {
		return nil, err
	}
	var exifB, gpsB, interopB, ifd1 *block
	if hasExif {
		if exifB, err = add(IFDExif); err != nil {
			return nil, err
		}
	}
	if hasGPS {
		if gpsB, err = add(IFDGPS); err != nil {
			return nil, err
		}
	}
	if hasInterop {
		if interopB, err = add(IFDInterop); err != nil {
			return nil, err
		}
	}
	if has1st {
		if ifd1, err = add(IFD1); err != nil {
			return nil, err
		}
	}

	// Placeholders first so every block has its final size before offsets
	// are assigned.
	if exifB != nil {
		ifd0.addPointer(tagExifPointer)
	}
	if gpsB != nil {
		ifd0.addPointer(tagGPSPointer)
	}
	if interopB != nil {
		exifB.addPointer(tagInteropPointer)
	}
	if hasThumb {
		ifd1.addPointer(tagThumbOffset)
		ifd1.addPointer(tagThumbLength)
	}

	off := uint32(8)
	for _, b := range blocks {
		slices.SortFunc(b.entries, func(x, y entry) int { return int(x.tag) - int(y.tag) })
		b.offset = off
		off += b.size()
	}
	thumbOffset := off
	total := off + uint32(len(d.Thumbnail))

	if exifB != nil {
		ifd0.setPointer(tagExifPointer, exifB.offset)
	}
	if gpsB != nil {
		ifd0.setPointer(tagGPSPointer, gpsB.offset)
	}
	if interopB != nil {
		exifB.setPointer(tagInteropPointer, interopB.offset)
	}
	if hasThumb {
		ifd1.setPointer(tagThumbOffset, thumbOffset)
		ifd1.setPointer(tagThumbLength, uint32(len(d.Thumbnail)))
	}

	out := make([]byte, 0, len(exifHeader)+int(total))
	out = append(out, exifHeader...)
	tiff := make([]byte, 8, total)
	bo.PutUint16(tiff, byteOrderBigEndian)
	bo.PutUint16(tiff[2:], tiffMagic)
	bo.PutUint32(tiff[4:], 8)

	for _, b := range blocks {
		var next uint32
		if b == ifd0 && ifd1 != nil {
			next = ifd1.offset
		}
		tiff = b.appendTo(tiff, next)
	}
	tiff = append(tiff, d.Thumbnail...)

	if uint32(len(tiff)) != total {
		return nil, apperrors.Wrapf(apperrors.CategoryEXIF, op, apperrors.ErrUnencodableTag, "layout mismatch: %d != %d", len(tiff), total)
	}
	return append(out, tiff...), nil
}

// Encoded segments are always big-endian ("MM").
var bo = binary.BigEndian

type entry struct {
	tag   uint16
	typ   Type
	count uint32
	data  []byte
}

type block struct {
	ifd     IFD
	entries []entry
	offset  uint32
}

func (b *block) addPointer(tag uint16) {
	b.entries = append(b.entries, entry{tag: tag, typ: TypeLong, count: 1, data: make([]byte, 4)})
}

func (b *block) setPointer(tag uint16, v uint32) {
	for i := range b.entries {
		if b.entries[i].tag == tag {
			bo.PutUint32(b.entries[i].data, v)
			return
		}
	}
}

// size is the encoded size of the IFD including its out-of-line data.
func (b *block) size() uint32 {
	n := 2 + 12*uint32(len(b.entries)) + 4
	for _, e := range b.entries {
		if l := uint32(len(e.data)); l > 4 {
			n += l + l%2
		}
	}
	return n
}

func (b *block) appendTo(dst []byte, next uint32) []byte {
	dataOff := b.offset + 2 + 12*uint32(len(b.entries)) + 4

	dst = bo.AppendUint16(dst, uint16(len(b.entries)))
	for _, e := range b.entries {
		dst = bo.AppendUint16(dst, e.tag)
		dst = bo.AppendUint16(dst, uint16(e.typ))
		dst = bo.AppendUint32(dst, e.count)
		if len(e.data) <= 4 {
			var inline [4]byte
			copy(inline[:], e.data)
			dst = append(dst, inline[:]...)
			continue
		}
		dst = bo.AppendUint32(dst, dataOff)
		l := uint32(len(e.data))
		dataOff += l + l%2
	}
	dst = bo.AppendUint32(dst, next)

	for _, e := range b.entries {
		if len(e.data) > 4 {
			dst = append(dst, e.data...)
			if len(e.data)%2 == 1 {
				dst = append(dst, 0)
			}
		}
	}
	return dst
}

func sortedTags(t Tags) []uint16 {
	ids := make([]uint16, 0, len(t))
	for id := range t {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// encodeEntry converts v to the dictionary wire type of tag when it can be
// represented there, and to its natural type otherwise.
func encodeEntry(ifd IFD, tag uint16, v any) (entry, error) {
	typ, val, err := normalize(v)
	if err != nil {
		return entry{}, err
	}
	if want := lookupTag(ifd, tag).Type; want != 0 && want != typ {
		if cv, ok := convert(val, typ, want); ok {
			typ, val = want, cv
		}
	}
	data, count := marshal(typ, val)
	return entry{tag: tag, typ: typ, count: count, data: data}, nil
}

// normalize maps a Go value to its natural EXIF type and canonical slice form.
func normalize(v any) (Type, any, error) {
	switch x := v.(type) {
	case string:
		return TypeASCII, x, nil
	case []byte:
		return TypeUndefined, x, nil
	case uint8:
		return TypeByte, []byte{x}, nil
	case uint16:
		return TypeShort, []uint16{x}, nil
	case []uint16:
		return TypeShort, x, nil
	case uint32:
		return TypeLong, []uint32{x}, nil
	case []uint32:
		return TypeLong, x, nil
	case uint:
		return normalizeInts([]int64{int64(x)})
	case int:
		return normalizeInts([]int64{int64(x)})
	case []int:
		ints := make([]int64, len(x))
		for i, n := range x {
			ints[i] = int64(n)
		}
		return normalizeInts(ints)
	case int8:
		return TypeSByte, []int8{x}, nil
	case []int8:
		return TypeSByte, x, nil
	case int16:
		return TypeSShort, []int16{x}, nil
	case []int16:
		return TypeSShort, x, nil
	case int32:
		return TypeSLong, []int32{x}, nil
	case []int32:
		return TypeSLong, x, nil
	case Rational:
		return TypeRational, []Rational{x}, nil
	case []Rational:
		return TypeRational, x, nil
	case SRational:
		return TypeSRational, []SRational{x}, nil
	case []SRational:
		return TypeSRational, x, nil
	case float32:
		return TypeFloat, []float32{x}, nil
	case []float32:
		return TypeFloat, x, nil
	case float64:
		return TypeDouble, []float64{x}, nil
	case []float64:
		return TypeDouble, x, nil
	}
	return 0, nil, fmt.Errorf("unsupported value type %T", v)
}

func normalizeInts(ints []int64) (Type, any, error) {
	if v, ok := fromInts(ints, TypeLong); ok {
		return TypeLong, v, nil
	}
	if v, ok := fromInts(ints, TypeSLong); ok {
		return TypeSLong, v, nil
	}
	return 0, nil, fmt.Errorf("integer out of range")
}

func isIntType(t Type) bool {
	switch t {
	case TypeByte, TypeShort, TypeLong, TypeSByte, TypeSShort, TypeSLong:
		return true
	}
	return false
}

// convert re-types a normalized value.  It reports false when the value
// cannot be represented in the target type.
func convert(val any, from, to Type) (any, bool) {
	isBytes := func(t Type) bool { return t == TypeByte || t == TypeUndefined }
	switch {
	case isBytes(from) && isBytes(to):
		return val, true
	case from == TypeASCII && isBytes(to):
		return []byte(val.(string)), true
	case isBytes(from) && to == TypeASCII:
		return string(val.([]byte)), true
	case isIntType(from) && isIntType(to):
		return fromInts(toInts(val), to)
	case from == TypeRational && to == TypeSRational:
		rs := val.([]Rational)
		out := make([]SRational, len(rs))
		for i, r := range rs {
			if r.Num > math.MaxInt32 || r.Den > math.MaxInt32 {
				return nil, false
			}
			out[i] = SRational{Num: int32(r.Num), Den: int32(r.Den)}
		}
		return out, true
	case from == TypeSRational && to == TypeRational:
		rs := val.([]SRational)
		out := make([]Rational, len(rs))
		for i, r := range rs {
			if r.Num < 0 || r.Den < 0 {
				return nil, false
			}
			out[i] = Rational{Num: uint32(r.Num), Den: uint32(r.Den)}
		}
		return out, true
	}
	return nil, false
}

func toInts(val any) []int64 {
	var out []int64
	switch x := val.(type) {
	case []byte:
		for _, v := range x {
			out = append(out, int64(v))
		}
	case []uint16:
		for _, v := range x {
			out = append(out, int64(v))
		}
	case []uint32:
		for _, v := range x {
			out = append(out, int64(v))
		}
	case []int8:
		for _, v := range x {
			out = append(out, int64(v))
		}
	case []int16:
		for _, v := range x {
			out = append(out, int64(v))
		}
	case []int32:
		for _, v := range x {
			out = append(out, int64(v))
		}
	}
	return out
}

func fromInts(ints []int64, to Type) (any, bool) {
	inRange := func(lo, hi int64) bool {
		for _, v := range ints {
			if v < lo || v > hi {
				return false
			}
		}
		return true
	}
	switch to {
	case TypeByte:
		if !inRange(0, math.MaxUint8) {
			return nil, false
		}
		out := make([]byte, len(ints))
		for i, v := range ints {
			out[i] = byte(v)
		}
		return out, true
	case TypeShort:
		if !inRange(0, math.MaxUint16) {
			return nil, false
		}
		out := make([]uint16, len(ints))
		for i, v := range ints {
			out[i] = uint16(v)
		}
		return out, true
	case TypeLong:
		if !inRange(0, math.MaxUint32) {
			return nil, false
		}
		out := make([]uint32, len(ints))
		for i, v := range ints {
			out[i] = uint32(v)
		}
		return out, true
	case TypeSByte:
		if !inRange(math.MinInt8, math.MaxInt8) {
			return nil, false
		}
		out := make([]int8, len(ints))
		for i, v := range ints {
			out[i] = int8(v)
		}
		return out, true
	case TypeSShort:
		if !inRange(math.MinInt16, math.MaxInt16) {
			return nil, false
		}
		out := make([]int16, len(ints))
		for i, v := range ints {
			out[i] = int16(v)
		}
		return out, true
	case TypeSLong:
		if !inRange(math.MinInt32, math.MaxInt32) {
			return nil, false
		}
		out := make([]int32, len(ints))
		for i, v := range ints {
			out[i] = int32(v)
		}
		return out, true
	}
	return nil, false
}

// marshal encodes a normalized value and returns the data and the value count.
func marshal(typ Type, val any) ([]byte, uint32) {
	var b []byte
	switch typ {
	case TypeASCII:
		s := val.(string)
		b = append([]byte(s), 0)
		if len(s) > 0 && s[len(s)-1] == 0 {
			b = b[:len(s)]
		}
		return b, uint32(len(b))
	case TypeByte, TypeUndefined:
		b = val.([]byte)
		return b, uint32(len(b))
	case TypeSByte:
		for _, v := range val.([]int8) {
			b = append(b, byte(v))
		}
		return b, uint32(len(b))
	case TypeShort:
		vs := val.([]uint16)
		for _, v := range vs {
			b = bo.AppendUint16(b, v)
		}
		return b, uint32(len(vs))
	case TypeSShort:
		vs := val.([]int16)
		for _, v := range vs {
			b = bo.AppendUint16(b, uint16(v))
		}
		return b, uint32(len(vs))
	case TypeLong:
		vs := val.([]uint32)
		for _, v := range vs {
			b = bo.AppendUint32(b, v)
		}
		return b, uint32(len(vs))
	case TypeSLong:
		vs := val.([]int32)
		for _, v := range vs {
			b = bo.AppendUint32(b, uint32(v))
		}
		return b, uint32(len(vs))
	case TypeRational:
		vs := val.([]Rational)
		for _, v := range vs {
			b = bo.AppendUint32(b, v.Num)
			b = bo.AppendUint32(b, v.Den)
		}
		return b, uint32(len(vs))
	case TypeSRational:
		vs := val.([]SRational)
		for _, v := range vs {
			b = bo.AppendUint32(b, uint32(v.Num))
			b = bo.AppendUint32(b, uint32(v.Den))
		}
		return b, uint32(len(vs))
	case TypeFloat:
		vs := val.([]float32)
		for _, v := range vs {
			b = bo.AppendUint32(b, math.Float32bits(v))
		}
		return b, uint32(len(vs))
	case TypeDouble:
		vs := val.([]float64)
		for _, v := range vs {
			b = bo.AppendUint64(b, math.Float64bits(v))
		}
		return b, uint32(len(vs))
	}
	return nil, 0
}
