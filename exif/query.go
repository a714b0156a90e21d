package exif

import (
	"strings"
	"time"
)

// HasMeaningfulData reports whether d carries at least one tag in any IFD or
// a non-empty thumbnail.
func HasMeaningfulData(d *Document) bool {
	if d == nil {
		return false
	}
	for _, ifd := range IFDs {
		if len(d.IFDs[ifd]) > 0 {
			return true
		}
	}
	return len(d.Thumbnail) > 0
}

// captureTimeTags lists the capture timestamp sources in priority order.
var captureTimeTags = []struct {
	ifd IFD
	tag uint16
}{
	{IFDExif, TagDateTimeOriginal},
	{IFDExif, TagDateTimeDigitized},
	{IFD0, TagDateTime},
}

// ExtractCaptureTimestamp returns the capture time of d in local time.  The
// first non-empty of Exif.DateTimeOriginal, Exif.DateTimeDigitized and
// 0th.DateTime is used; if that value does not parse, ok is false.
func ExtractCaptureTimestamp(d *Document) (t time.Time, ok bool) {
	for _, src := range captureTimeTags {
		v, found := d.Get(src.ifd, src.tag)
		if !found {
			continue
		}
		s, isString := asString(v)
		if !isString || s == "" {
			continue
		}
		return ParseDateTime(s)
	}
	return time.Time{}, false
}

// ParseDateTime parses an EXIF "YYYY:MM:DD HH:MM:SS" string as local time.
// The string must split on single spaces into exactly a date and a time.
func ParseDateTime(s string) (time.Time, bool) {
	parts := strings.Split(s, " ")
	if len(parts) != 2 {
		return time.Time{}, false
	}
	date := strings.Replace(parts[0], ":", "-", 2)
	t, err := time.ParseInLocation("2006-01-02T15:04:05", date+"T"+parts[1], time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ExtractGPS returns the GPS IFD of d, or nil if it has no tags.  Values are
// returned as stored; no coordinate conversion is applied.
func ExtractGPS(d *Document) Tags {
	if d == nil || len(d.IFDs[IFDGPS]) == 0 {
		return nil
	}
	return d.IFDs[IFDGPS]
}

// Orientation returns 0th.Orientation.
func Orientation(d *Document) (int, bool) {
	v, ok := d.Get(IFD0, TagOrientation)
	if !ok {
		return 0, false
	}
	n, ok := firstUint(v)
	return int(n), ok
}

func asString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case []byte:
		return strings.TrimRight(string(s), "\x00"), true
	}
	return "", false
}

// firstUint returns the first element of an unsigned integer value.
func firstUint(v any) (uint32, bool) {
	switch x := v.(type) {
	case uint16:
		return uint32(x), true
	case uint32:
		return x, true
	case int:
		if x >= 0 {
			return uint32(x), true
		}
	case []byte:
		if len(x) > 0 {
			return uint32(x[0]), true
		}
	case []uint16:
		if len(x) > 0 {
			return uint32(x[0]), true
		}
	case []uint32:
		if len(x) > 0 {
			return x[0], true
		}
	}
	return 0, false
}
