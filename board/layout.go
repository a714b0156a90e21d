package board

import (
	"image/color"
	"math"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Measurer reports the advance width of text in pixels.
type Measurer interface {
	MeasureText(text string, bold bool, size float64) float64
}

// Row is one rendered line of the board.
type Row struct {
	Label string
	Value string
}

// Rect is an axis-aligned rectangle in image pixels.
type Rect struct {
	X, Y, W, H float64
}

// Geometry is the measured frame of a board.
type Geometry struct {
	Board      Rect
	FontSize   float64
	RowHeight  float64
	LabelWidth float64
	ValueWidth float64
}

// Command is a single drawing instruction.  Commands are applied in order.
type Command interface {
	command()
}

// FillGradient fills Rect with a vertical linear gradient from From (top) to
// To (bottom).
type FillGradient struct {
	Rect     Rect
	From, To color.RGBA
}

// StrokeRect outlines Rect with a stroke of Width centred on its edges.
type StrokeRect struct {
	Rect  Rect
	Color color.RGBA
	Width float64
}

// Line is an axis-aligned segment stroked with Width centred on it.
type Line struct {
	X1, Y1, X2, Y2 float64
	Color          color.RGBA
	Width          float64
}

// Text draws a left-aligned string whose em box is vertically centred on
// CenterY.
type Text struct {
	X, CenterY float64
	Text       string
	Bold       bool
	Size       float64
	Color      color.RGBA
}

func (FillGradient) command() {}
func (StrokeRect) command()   {}
func (Line) command()         {}
func (Text) command()         {}

// Layout is the output of ComputeLayout.
type Layout struct {
	Geometry Geometry
	Rows     []Row
	Commands []Command
}

// Rows returns the rows drawn for spec: the name row, the extra fields whose
// key and value are both non-blank, then the date row.
func Rows(spec Spec, style Style) []Row {
	rows := []Row{{Label: style.NameLabel, Value: clean(spec.Name)}}
	for _, f := range spec.Fields {
		k, v := clean(f.Key), clean(f.Value)
		if k == "" || v == "" {
			continue
		}
		rows = append(rows, Row{Label: k, Value: v})
	}
	return append(rows, Row{Label: style.DateLabel, Value: FormatDate(spec.Date)})
}

func clean(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// ComputeLayout places the board in the bottom-left corner of a width×height
// image.  It reports false when there is nothing to draw.
//
// The label column is sized from the name and date labels only.  An extra
// field key wider than both overflows into the value column.
func ComputeLayout(spec Spec, width, height int, style Style, m Measurer) (Layout, bool) {
	if spec.IsEmpty() {
		return Layout{}, false
	}

	w, h := float64(width), float64(height)
	fontSize := math.Max(style.MinFontSize, math.Min(w/style.FontSizeRatio, h/style.FontSizeRatio))
	rowHeight := fontSize + style.RowExtra

	rows := Rows(spec, style)
	totalHeight := rowHeight*float64(len(rows)) + 2*style.Padding

	labelText := math.Max(
		m.MeasureText(style.NameLabel, true, fontSize),
		m.MeasureText(style.DateLabel, true, fontSize),
	)
	labelWidth := labelText + 2*style.CellPadding

	var valueText float64
	for _, r := range rows {
		if r.Value == "" {
			continue
		}
		valueText = math.Max(valueText, m.MeasureText(r.Value, true, fontSize))
	}
	valueWidth := math.Max(valueText, style.MinValueWidth) + 2*style.CellPadding

	totalWidth := labelWidth + valueWidth + 2*style.Padding
	frame := Rect{
		X: style.Padding,
		Y: h - totalHeight - style.Padding,
		W: totalWidth,
		H: totalHeight,
	}

	l := Layout{
		Geometry: Geometry{
			Board:      frame,
			FontSize:   fontSize,
			RowHeight:  rowHeight,
			LabelWidth: labelWidth,
			ValueWidth: valueWidth,
		},
		Rows: rows,
	}

	l.Commands = append(l.Commands,
		FillGradient{Rect: frame, From: style.GradientStart, To: style.GradientEnd},
		StrokeRect{Rect: frame, Color: style.Border, Width: style.BorderWidth},
	)
	for i := 1; i < len(rows); i++ {
		y := frame.Y + float64(i)*rowHeight
		l.Commands = append(l.Commands, Line{
			X1: frame.X, Y1: y, X2: frame.X + frame.W, Y2: y,
			Color: style.Border, Width: style.RowLineWidth,
		})
	}
	colX := frame.X + labelWidth
	l.Commands = append(l.Commands, Line{
		X1: colX, Y1: frame.Y, X2: colX, Y2: frame.Y + frame.H,
		Color: style.Text, Width: style.ColumnLineWidth,
	})

	for i, r := range rows {
		cy := frame.Y + float64(i)*rowHeight + rowHeight/2
		l.Commands = append(l.Commands, Text{
			X: frame.X + style.CellPadding, CenterY: cy,
			Text: r.Label, Bold: true, Size: fontSize, Color: style.Text,
		})
		if r.Value != "" {
			l.Commands = append(l.Commands, Text{
				X: colX + style.CellPadding, CenterY: cy,
				Text: r.Value, Size: fontSize, Color: style.Text,
			})
		}
	}
	return l, true
}
