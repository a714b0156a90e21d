package main

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want time.Time
	}{
		{"2024-01-05 09:03", time.Date(2024, 1, 5, 9, 3, 0, 0, time.Local)},
		{"2024-01-05T09:03", time.Date(2024, 1, 5, 9, 3, 0, 0, time.Local)},
		{" 2024-01-05 ", time.Date(2024, 1, 5, 0, 0, 0, 0, time.Local)},
	} {
		got, err := parseDate(tc.in)
		if err != nil {
			t.Errorf("%q: %v", tc.in, err)
			continue
		}
		if !got.Equal(tc.want) {
			t.Errorf("%q: got %v, want %v", tc.in, got, tc.want)
		}
	}

	if _, err := parseDate("05/01/2024"); err == nil {
		t.Error("expected error for an unknown layout")
	}
}
