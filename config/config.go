package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Backend selects the decoder implementation.
type Backend string

const (
	BackendStdlib Backend = "stdlib"
	BackendVips   Backend = "vips"
)

// Config is the top-level configuration struct.  Start from Default() and
// override only what you need.
type Config struct {
	// JPEG output quality, 1-100.
	JPEGQuality int `mapstructure:"jpeg_quality"`

	// Streaming / memory limits.
	MaxImageBytes int64 `mapstructure:"max_image_bytes"` // 0 = no limit
	ChunkSize     int   `mapstructure:"chunk_size"`

	Backend Backend `mapstructure:"backend"`

	// OutputDir is where the CLI and Processor.Save write artifacts.
	OutputDir string `mapstructure:"output_dir"`

	// Logging.
	LogLevel  string `mapstructure:"log_level"`  // "debug", "info", "warn", "error"
	LogFormat string `mapstructure:"log_format"` // "text" or "json"

	Board BoardConfig `mapstructure:"board"`
}

// BoardConfig controls how the construction board is laid out and painted.
type BoardConfig struct {
	Padding       float64 `mapstructure:"padding"`
	CellPadding   float64 `mapstructure:"cell_padding"`
	MinFontSize   float64 `mapstructure:"min_font_size"`
	FontSizeRatio float64 `mapstructure:"font_size_ratio"` // canvas side / ratio = font size
	RowExtra      float64 `mapstructure:"row_extra"`       // row height = font size + RowExtra
	MinValueWidth float64 `mapstructure:"min_value_width"`

	BorderWidth     float64 `mapstructure:"border_width"`
	RowLineWidth    float64 `mapstructure:"row_line_width"`
	ColumnLineWidth float64 `mapstructure:"column_line_width"`

	// Colours as #rrggbb.
	GradientStart string `mapstructure:"gradient_start"`
	GradientEnd   string `mapstructure:"gradient_end"`
	BorderColor   string `mapstructure:"border_color"`
	TextColor     string `mapstructure:"text_color"`

	NameLabel string `mapstructure:"name_label"`
	DateLabel string `mapstructure:"date_label"`

	// Optional TrueType/OpenType files.  The built-in Go fonts have no CJK
	// glyphs, so point these at a Japanese font to render the default labels.
	RegularFont string `mapstructure:"regular_font"`
	BoldFont    string `mapstructure:"bold_font"`
}

// Default returns a Config populated with the stock board look.
func Default() Config {
	return Config{
		JPEGQuality:   90,
		MaxImageBytes: 64 << 20,
		ChunkSize:     32 * 1024,
		Backend:       BackendStdlib,
		OutputDir:     ".",
		LogLevel:      "info",
		LogFormat:     "text",
		Board: BoardConfig{
			Padding:         20,
			CellPadding:     12,
			MinFontSize:     18,
			FontSizeRatio:   25,
			RowExtra:        20,
			MinValueWidth:   200,
			BorderWidth:     3,
			RowLineWidth:    2,
			ColumnLineWidth: 3,
			GradientStart:   "#2d5a3d",
			GradientEnd:     "#4a7c59",
			BorderColor:     "#1a3b26",
			TextColor:       "#ffffff",
			NameLabel:       "工事名",
			DateLabel:       "日時",
		},
	}
}

// Validate returns an error if the configuration is inconsistent.
func Validate(c Config) error {
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return errors.New("config: JPEGQuality must be between 1 and 100")
	}
	if c.ChunkSize <= 0 {
		return errors.New("config: ChunkSize must be positive")
	}
	if c.MaxImageBytes < 0 {
		return errors.New("config: MaxImageBytes must not be negative")
	}
	switch c.Backend {
	case BackendStdlib, BackendVips:
	default:
		return fmt.Errorf("config: unknown Backend %q", c.Backend)
	}
	return validateBoard(c.Board)
}

func validateBoard(b BoardConfig) error {
	if b.FontSizeRatio <= 0 {
		return errors.New("config: Board.FontSizeRatio must be positive")
	}
	if b.MinFontSize <= 0 {
		return errors.New("config: Board.MinFontSize must be positive")
	}
	if b.Padding < 0 || b.CellPadding < 0 || b.RowExtra < 0 || b.MinValueWidth < 0 {
		return errors.New("config: Board paddings and widths must not be negative")
	}
	if strings.TrimSpace(b.NameLabel) == "" || strings.TrimSpace(b.DateLabel) == "" {
		return errors.New("config: Board labels must not be empty")
	}
	for name, v := range map[string]string{
		"GradientStart": b.GradientStart,
		"GradientEnd":   b.GradientEnd,
		"BorderColor":   b.BorderColor,
		"TextColor":     b.TextColor,
	} {
		if _, err := ParseHexColor(v); err != nil {
			return fmt.Errorf("config: Board.%s: %w", name, err)
		}
	}
	return nil
}

// RGB is a parsed #rrggbb colour.
type RGB struct{ R, G, B uint8 }

// ParseHexColor parses "#rrggbb" or "#rgb".
func ParseHexColor(s string) (RGB, error) {
	h, ok := strings.CutPrefix(strings.TrimSpace(s), "#")
	if !ok {
		return RGB{}, fmt.Errorf("colour %q must start with #", s)
	}
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return RGB{}, fmt.Errorf("colour %q must have 3 or 6 hex digits", s)
	}
	n, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("colour %q: %w", s, err)
	}
	return RGB{R: uint8(n >> 16), G: uint8(n >> 8), B: uint8(n)}, nil
}
