package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. BOARDSTAMP_JPEG_QUALITY
// or BOARDSTAMP_BOARD_PADDING.
const EnvPrefix = "BOARDSTAMP"

// Load builds a Config from defaults, an optional config file and the
// environment, in increasing order of precedence.
func Load(path string) (Config, error) {
	v := viper.NewWithOptions(
		viper.KeyDelimiter("."),
		viper.EnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_")),
	)

	v.SetEnvPrefix(EnvPrefix)
	v.AllowEmptyEnv(false)
	v.AutomaticEnv()

	setDefaults(v, Default())

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can resolve it.
func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("jpeg_quality", d.JPEGQuality)
	v.SetDefault("max_image_bytes", d.MaxImageBytes)
	v.SetDefault("chunk_size", d.ChunkSize)
	v.SetDefault("backend", string(d.Backend))
	v.SetDefault("output_dir", d.OutputDir)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)

	b := d.Board
	v.SetDefault("board.padding", b.Padding)
	v.SetDefault("board.cell_padding", b.CellPadding)
	v.SetDefault("board.min_font_size", b.MinFontSize)
	v.SetDefault("board.font_size_ratio", b.FontSizeRatio)
	v.SetDefault("board.row_extra", b.RowExtra)
	v.SetDefault("board.min_value_width", b.MinValueWidth)
	v.SetDefault("board.border_width", b.BorderWidth)
	v.SetDefault("board.row_line_width", b.RowLineWidth)
	v.SetDefault("board.column_line_width", b.ColumnLineWidth)
	v.SetDefault("board.gradient_start", b.GradientStart)
	v.SetDefault("board.gradient_end", b.GradientEnd)
	v.SetDefault("board.border_color", b.BorderColor)
	v.SetDefault("board.text_color", b.TextColor)
	v.SetDefault("board.name_label", b.NameLabel)
	v.SetDefault("board.date_label", b.DateLabel)
	v.SetDefault("board.regular_font", b.RegularFont)
	v.SetDefault("board.bold_font", b.BoldFont)
}
