package board

import (
	"image/color"
	"strings"
	"time"

	"github.com/Skryldev/boardstamp/config"
)

// Spec is everything drawn on one board.
type Spec struct {
	Name string
	// Date is the zero time when no date is set.
	Date         time.Time
	DateFromEXIF bool
	Fields       []Field
}

// HasDate reports whether a date is set.
func (s Spec) HasDate() bool { return !s.Date.IsZero() }

// IsEmpty reports whether there is nothing to draw: blank name and no date.
func (s Spec) IsEmpty() bool {
	return strings.TrimSpace(s.Name) == "" && !s.HasDate()
}

const displayDateLayout = "2006年1月2日 15:04"

// FormatDate renders t as e.g. "2024年1月5日 09:03".  It returns "" for the
// zero time and never panics.
func FormatDate(t time.Time) (s string) {
	defer func() {
		if recover() != nil {
			s = ""
		}
	}()
	if t.IsZero() {
		return ""
	}
	return t.Format(displayDateLayout)
}

// Style holds the resolved look of the board.
type Style struct {
	Padding       float64
	CellPadding   float64
	MinFontSize   float64
	FontSizeRatio float64
	RowExtra      float64
	MinValueWidth float64

	BorderWidth     float64
	RowLineWidth    float64
	ColumnLineWidth float64

	GradientStart color.RGBA
	GradientEnd   color.RGBA
	Border        color.RGBA
	Text          color.RGBA

	NameLabel string
	DateLabel string
}

// NewStyle resolves a BoardConfig.
func NewStyle(c config.BoardConfig) (Style, error) {
	s := Style{
		Padding:         c.Padding,
		CellPadding:     c.CellPadding,
		MinFontSize:     c.MinFontSize,
		FontSizeRatio:   c.FontSizeRatio,
		RowExtra:        c.RowExtra,
		MinValueWidth:   c.MinValueWidth,
		BorderWidth:     c.BorderWidth,
		RowLineWidth:    c.RowLineWidth,
		ColumnLineWidth: c.ColumnLineWidth,
		NameLabel:       c.NameLabel,
		DateLabel:       c.DateLabel,
	}
	for _, p := range []struct {
		hex string
		dst *color.RGBA
	}{
		{c.GradientStart, &s.GradientStart},
		{c.GradientEnd, &s.GradientEnd},
		{c.BorderColor, &s.Border},
		{c.TextColor, &s.Text},
	} {
		rgb, err := config.ParseHexColor(p.hex)
		if err != nil {
			return Style{}, err
		}
		*p.dst = color.RGBA{R: rgb.R, G: rgb.G, B: rgb.B, A: 0xff}
	}
	return s, nil
}

// DefaultStyle returns the stock board look.
func DefaultStyle() Style {
	s, err := NewStyle(config.Default().Board)
	if err != nil {
		panic(err)
	}
	return s
}
