// Package exif decodes, queries and re-encodes the EXIF APP1 segment of JPEG
// files.
//
// A decoded Document keeps every tag of the five IFD groups as a typed Go
// value:
//
//	BYTE, UNDEFINED  []byte
//	ASCII            string
//	SHORT            []uint16
//	LONG             []uint32
//	RATIONAL         []Rational
//	SBYTE            []int8
//	SSHORT           []int16
//	SLONG            []int32
//	SRATIONAL        []SRational
//	FLOAT            []float32
//	DOUBLE           []float64
//
// The encoder accepts the same types plus scalar conveniences (uint16, int,
// Rational, ...) and converts them to the wire type listed in the tag
// dictionary.
package exif

import (
	"bytes"
	"slices"
)

// IFD names one of the five tag groups of an EXIF segment.
type IFD string

const (
	IFD0       IFD = "0th"
	IFDExif    IFD = "Exif"
	IFDGPS     IFD = "GPS"
	IFDInterop IFD = "Interop"
	IFD1       IFD = "1st"
)

// IFDs lists the groups in serialisation order.
var IFDs = []IFD{IFD0, IFDExif, IFDGPS, IFDInterop, IFD1}

// Tags maps a numeric tag id to its value.
type Tags map[uint16]any

// Document is a decoded EXIF segment.  An IFD that was not present in the
// source is absent from IFDs rather than mapped to an empty Tags.
type Document struct {
	IFDs      map[IFD]Tags
	Thumbnail []byte
}

// NewDocument returns an empty document ready for Set.
func NewDocument() *Document {
	return &Document{IFDs: make(map[IFD]Tags)}
}

// Get returns the value of tag in ifd.
func (d *Document) Get(ifd IFD, tag uint16) (any, bool) {
	if d == nil {
		return nil, false
	}
	v, ok := d.IFDs[ifd][tag]
	return v, ok
}

// Set stores v under tag in ifd, creating the group if needed.
func (d *Document) Set(ifd IFD, tag uint16, v any) {
	if d.IFDs == nil {
		d.IFDs = make(map[IFD]Tags)
	}
	t, ok := d.IFDs[ifd]
	if !ok {
		t = make(Tags)
		d.IFDs[ifd] = t
	}
	t[tag] = v
}

// Rational is an unsigned EXIF RATIONAL.
type Rational struct {
	Num, Den uint32
}

// Float64 returns r as a float, or 0 when the denominator is zero.
func (r Rational) Float64() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

// SRational is a signed EXIF SRATIONAL.
type SRational struct {
	Num, Den int32
}

// Float64 returns r as a float, or 0 when the denominator is zero.
func (r SRational) Float64() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

// CloneForEdit returns a deep copy of d.  Callers that intend to mutate a
// document they did not create must edit the clone, never the original.
func CloneForEdit(d *Document) *Document {
	if d == nil {
		return nil
	}
	out := &Document{IFDs: make(map[IFD]Tags, len(d.IFDs))}
	for ifd, tags := range d.IFDs {
		if tags == nil {
			out.IFDs[ifd] = nil
			continue
		}
		cp := make(Tags, len(tags))
		for id, v := range tags {
			cp[id] = cloneValue(v)
		}
		out.IFDs[ifd] = cp
	}
	if d.Thumbnail != nil {
		out.Thumbnail = bytes.Clone(d.Thumbnail)
	}
	return out
}

func cloneValue(v any) any {
	switch vv := v.(type) {
	case []byte:
		return bytes.Clone(vv)
	case []uint16:
		return slices.Clone(vv)
	case []uint32:
		return slices.Clone(vv)
	case []int8:
		return slices.Clone(vv)
	case []int16:
		return slices.Clone(vv)
	case []int32:
		return slices.Clone(vv)
	case []int:
		return slices.Clone(vv)
	case []Rational:
		return slices.Clone(vv)
	case []SRational:
		return slices.Clone(vv)
	case []float32:
		return slices.Clone(vv)
	case []float64:
		return slices.Clone(vv)
	default:
		// Scalars and strings are immutable.
		return v
	}
}
