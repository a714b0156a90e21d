package config

import (
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestDefaultIsValid(t *testing.T) {
	c := qt.New(t)
	c.Assert(Validate(Default()), qt.IsNil)
}

func TestValidate(t *testing.T) {
	c := qt.New(t)

	bad := Default()
	bad.JPEGQuality = 0
	c.Assert(Validate(bad), qt.ErrorMatches, ".*JPEGQuality.*")

	bad = Default()
	bad.Backend = "gpu"
	c.Assert(Validate(bad), qt.ErrorMatches, `.*unknown Backend "gpu"`)

	bad = Default()
	bad.Board.TextColor = "white"
	c.Assert(Validate(bad), qt.ErrorMatches, ".*TextColor.*")

	bad = Default()
	bad.Board.DateLabel = "  "
	c.Assert(Validate(bad), qt.ErrorMatches, ".*labels.*")
}

func TestParseHexColor(t *testing.T) {
	c := qt.New(t)

	rgb, err := ParseHexColor("#2d5a3d")
	c.Assert(err, qt.IsNil)
	c.Assert(rgb, qt.Equals, RGB{R: 0x2d, G: 0x5a, B: 0x3d})

	rgb, err = ParseHexColor("#fff")
	c.Assert(err, qt.IsNil)
	c.Assert(rgb, qt.Equals, RGB{R: 255, G: 255, B: 255})

	_, err = ParseHexColor("#12345")
	c.Assert(err, qt.IsNotNil)
	_, err = ParseHexColor("#zzzzzz")
	c.Assert(err, qt.IsNotNil)
}

func TestLoadDefaults(t *testing.T) {
	c := qt.New(t)
	cfg, err := Load("")
	c.Assert(err, qt.IsNil)
	c.Assert(cfg, qt.DeepEquals, Default())
}

func TestLoadFileAndEnv(t *testing.T) {
	c := qt.New(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "boardstamp.yaml")
	err := os.WriteFile(path, []byte("jpeg_quality: 75\nboard:\n  padding: 32\n  name_label: Project\n"), 0o644)
	c.Assert(err, qt.IsNil)

	t.Setenv("BOARDSTAMP_BOARD_TEXT_COLOR", "#000000")
	t.Setenv("BOARDSTAMP_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.JPEGQuality, qt.Equals, 75)
	c.Assert(cfg.Board.Padding, qt.Equals, 32.0)
	c.Assert(cfg.Board.NameLabel, qt.Equals, "Project")
	c.Assert(cfg.Board.DateLabel, qt.Equals, "日時")
	c.Assert(cfg.Board.TextColor, qt.Equals, "#000000")
	c.Assert(cfg.LogLevel, qt.Equals, "debug")
}

func TestLoadRejectsInvalid(t *testing.T) {
	c := qt.New(t)
	t.Setenv("BOARDSTAMP_JPEG_QUALITY", "101")
	_, err := Load("")
	c.Assert(err, qt.ErrorMatches, ".*JPEGQuality.*")
}
