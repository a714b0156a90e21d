package board

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sync"
	"unicode"

	"github.com/spf13/afero"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/Skryldev/boardstamp/config"
	apperrors "github.com/Skryldev/boardstamp/errors"
)

// Renderer measures and paints board text with a regular and a bold
// OpenType face.  Faces are cached per size.  It is safe for concurrent use.
type Renderer struct {
	regular *opentype.Font
	bold    *opentype.Font

	mu    sync.Mutex
	faces map[faceKey]font.Face
}

type faceKey struct {
	size float64
	bold bool
}

// NewRenderer parses the given font files.  A nil slice selects the bundled
// Go font of that weight.
func NewRenderer(regular, bold []byte) (*Renderer, error) {
	const op = "board.renderer.new"
	if regular == nil {
		regular = goregular.TTF
	}
	if bold == nil {
		bold = gobold.TTF
	}
	rf, err := opentype.Parse(regular)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryConfig, op, fmt.Errorf("regular font: %w", err))
	}
	bf, err := opentype.Parse(bold)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryConfig, op, fmt.Errorf("bold font: %w", err))
	}
	return &Renderer{regular: rf, bold: bf, faces: make(map[faceKey]font.Face)}, nil
}

// NewRendererFromConfig loads the fonts named in c from fs.  Empty paths
// select the bundled fonts.
func NewRendererFromConfig(fs afero.Fs, c config.BoardConfig) (*Renderer, error) {
	load := func(path string) ([]byte, error) {
		if path == "" {
			return nil, nil
		}
		b, err := afero.ReadFile(fs, path)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CategoryConfig, "board.renderer.load_font", err)
		}
		return b, nil
	}
	regular, err := load(c.RegularFont)
	if err != nil {
		return nil, err
	}
	bold, err := load(c.BoldFont)
	if err != nil {
		return nil, err
	}
	return NewRenderer(regular, bold)
}

func (r *Renderer) face(size float64, bold bool) (font.Face, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := faceKey{size: size, bold: bold}
	if f, ok := r.faces[k]; ok {
		return f, nil
	}
	src := r.regular
	if bold {
		src = r.bold
	}
	f, err := opentype.NewFace(src, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, err
	}
	r.faces[k] = f
	return f, nil
}

// MeasureText implements Measurer.  Unmeasurable text reports zero width.
func (r *Renderer) MeasureText(text string, bold bool, size float64) float64 {
	f, err := r.face(size, bold)
	if err != nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return fixedToFloat(font.MeasureString(f, text))
}

// Missing returns the runes of text the chosen face has no glyph for, in
// order of first appearance.  The bundled Go fonts cover Latin, Greek and
// Cyrillic only; CJK labels need a configured font.
func (r *Renderer) Missing(text string, bold bool) []rune {
	src := r.regular
	if bold {
		src = r.bold
	}
	var (
		buf  sfnt.Buffer
		seen = make(map[rune]bool)
		out  []rune
	)
	for _, c := range text {
		if seen[c] || unicode.IsSpace(c) {
			continue
		}
		seen[c] = true
		if gi, err := src.GlyphIndex(&buf, c); err != nil || gi == 0 {
			out = append(out, c)
		}
	}
	return out
}

// MissingIn collects the runes of every Text command in l that its face
// cannot draw.
func (r *Renderer) MissingIn(l Layout) []rune {
	var (
		seen = make(map[rune]bool)
		out  []rune
	)
	for _, cmd := range l.Commands {
		t, ok := cmd.(Text)
		if !ok {
			continue
		}
		for _, c := range r.Missing(t.Text, t.Bold) {
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	return out
}

// Draw applies the layout's commands to dst.
func (r *Renderer) Draw(dst draw.Image, l Layout) error {
	for _, cmd := range l.Commands {
		switch c := cmd.(type) {
		case FillGradient:
			fillGradient(dst, c)
		case StrokeRect:
			strokeRect(dst, c)
		case Line:
			strokeLine(dst, c)
		case Text:
			if err := r.drawText(dst, c); err != nil {
				return apperrors.Wrap(apperrors.CategoryBoard, "board.renderer.draw", err)
			}
		default:
			return apperrors.New(apperrors.CategoryBoard, "board.renderer.draw", fmt.Errorf("unknown command %T", cmd))
		}
	}
	return nil
}

// Close releases the cached faces.
func (r *Renderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, f := range r.faces {
		f.Close()
		delete(r.faces, k)
	}
	return nil
}

func (r *Renderer) drawText(dst draw.Image, t Text) error {
	f, err := r.face(t.Size, t.Bold)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	m := f.Metrics()
	baseline := t.CenterY + fixedToFloat(m.Ascent-m.Descent)/2
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(t.Color),
		Face: f,
		Dot:  fixed.Point26_6{X: floatToFixed(t.X), Y: floatToFixed(baseline)},
	}
	d.DrawString(t.Text)
	return nil
}

// ── Primitives ───────────────────────────────────────────────────────────────

func fillGradient(dst draw.Image, g FillGradient) {
	r := toRect(g.Rect.X, g.Rect.Y, g.Rect.X+g.Rect.W, g.Rect.Y+g.Rect.H)
	if r.Empty() || g.Rect.H <= 0 {
		return
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		t := (float64(y) + 0.5 - g.Rect.Y) / g.Rect.H
		c := lerp(g.From, g.To, math.Min(math.Max(t, 0), 1))
		row := image.Rect(r.Min.X, y, r.Max.X, y+1)
		draw.Draw(dst, row, image.NewUniform(c), image.Point{}, draw.Over)
	}
}

func strokeRect(dst draw.Image, s StrokeRect) {
	x0, y0 := s.Rect.X, s.Rect.Y
	x1, y1 := x0+s.Rect.W, y0+s.Rect.H
	hw := s.Width / 2
	src := image.NewUniform(s.Color)
	for _, r := range []image.Rectangle{
		toRect(x0-hw, y0-hw, x1+hw, y0+hw),
		toRect(x0-hw, y1-hw, x1+hw, y1+hw),
		toRect(x0-hw, y0+hw, x0+hw, y1-hw),
		toRect(x1-hw, y0+hw, x1+hw, y1-hw),
	} {
		draw.Draw(dst, r, src, image.Point{}, draw.Over)
	}
}

// strokeLine handles horizontal and vertical segments only.
func strokeLine(dst draw.Image, l Line) {
	hw := l.Width / 2
	var r image.Rectangle
	switch {
	case l.Y1 == l.Y2:
		r = toRect(math.Min(l.X1, l.X2), l.Y1-hw, math.Max(l.X1, l.X2), l.Y1+hw)
	case l.X1 == l.X2:
		r = toRect(l.X1-hw, math.Min(l.Y1, l.Y2), l.X1+hw, math.Max(l.Y1, l.Y2))
	default:
		return
	}
	draw.Draw(dst, r, image.NewUniform(l.Color), image.Point{}, draw.Over)
}

func toRect(x0, y0, x1, y1 float64) image.Rectangle {
	return image.Rect(
		int(math.Round(x0)), int(math.Round(y0)),
		int(math.Round(x1)), int(math.Round(y1)),
	)
}

func lerp(a, b color.RGBA, t float64) color.RGBA {
	mix := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*t))
	}
	return color.RGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: mix(a.A, b.A)}
}

func fixedToFloat(v fixed.Int26_6) float64 { return float64(v) / 64 }

func floatToFixed(v float64) fixed.Int26_6 { return fixed.Int26_6(math.Round(v * 64)) }
