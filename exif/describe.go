package exif

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Describe renders d as the plain-text report shown to users: one section per
// IFD present, each a pretty-printed JSON object keyed by tag id, followed by
// a thumbnail line.
func Describe(d *Document) string {
	var sb strings.Builder
	sb.WriteString("--- JPEG EXIF Data ---\n")
	if d == nil {
		sb.WriteString("Thumbnail: Not present\n")
		return sb.String()
	}
	for _, ifd := range IFDs {
		tags, ok := d.IFDs[ifd]
		if !ok {
			continue
		}
		b, err := json.MarshalIndent(displayTags(tags), "", "  ")
		if err != nil {
			b = []byte(fmt.Sprintf("%q", err.Error()))
		}
		fmt.Fprintf(&sb, "%s IFD:\n%s\n\n", ifd, b)
	}
	if len(d.Thumbnail) > 0 {
		fmt.Fprintf(&sb, "Thumbnail: Present (length %d)\n", len(d.Thumbnail))
	} else {
		sb.WriteString("Thumbnail: Not present\n")
	}
	return sb.String()
}

// displayTags marshals with keys in numeric order.
type displayTags Tags

func (t displayTags) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, id := range sortedTags(Tags(t)) {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Quote(strconv.Itoa(int(id))))
		buf.WriteByte(':')
		v, err := json.Marshal(displayValue(t[id]))
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// displayValue unwraps single-element slices, renders rationals as
// [numerator, denominator] pairs and printable byte strings as text.
func displayValue(v any) any {
	switch x := v.(type) {
	case []byte:
		if isPrintable(x) {
			return string(bytes.TrimRight(x, "\x00"))
		}
		ints := make([]int, len(x))
		for i, b := range x {
			ints[i] = int(b)
		}
		return single(ints)
	case []uint16:
		return single(x)
	case []uint32:
		return single(x)
	case []int8:
		return single(x)
	case []int16:
		return single(x)
	case []int32:
		return single(x)
	case []float32:
		return single(x)
	case []float64:
		return single(x)
	case Rational:
		return [2]uint32{x.Num, x.Den}
	case SRational:
		return [2]int32{x.Num, x.Den}
	case []Rational:
		pairs := make([][2]uint32, len(x))
		for i, r := range x {
			pairs[i] = [2]uint32{r.Num, r.Den}
		}
		return single(pairs)
	case []SRational:
		pairs := make([][2]int32, len(x))
		for i, r := range x {
			pairs[i] = [2]int32{r.Num, r.Den}
		}
		return single(pairs)
	}
	return v
}

func single[T any](s []T) any {
	if len(s) == 1 {
		return s[0]
	}
	return s
}

func isPrintable(b []byte) bool {
	b = bytes.TrimRight(b, "\x00")
	if len(b) == 0 {
		return false
	}
	for _, c := range b {
		if c >= 0x80 || !unicode.IsPrint(rune(c)) {
			return false
		}
	}
	return true
}
