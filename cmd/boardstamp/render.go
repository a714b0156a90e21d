package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Skryldev/boardstamp"
	"github.com/Skryldev/boardstamp/adapters/storage"
	"github.com/Skryldev/boardstamp/core"
	"github.com/Skryldev/boardstamp/session"
)

var renderOpts struct {
	ContentType string
	Name        string
	Date        string
	Fields      []string
	OutDir      string
}

// Accepted --date layouts, in local time.
var dateLayouts = []string{"2006-01-02 15:04", "2006-01-02T15:04", "2006-01-02"}

var renderCmd = &cobra.Command{
	Use:   "render FILE",
	Short: "Draw a construction board onto a photo",
	Long: `Draws the board in the bottom-left corner of the photo and writes
construction_board_image.jpg (plus a .meta.json side-car) to the output
directory.  Without --date the EXIF capture time is used when present.

Usage examples:

1. Name and date:

	boardstamp render site.jpg --name "Route 9 Bridge" --date "2024-01-05 09:00"

2. Extra rows:

	boardstamp render site.jpg --name "Route 9 Bridge" --field "Contractor=Acme" --field "Weather=Sunny"
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.stop()

		data, mime, err := readSource(args[0], renderOpts.ContentType)
		if err != nil {
			return err
		}

		s := session.New(a.proc)
		ins, err := s.Load(cmd.Context(), data, mime)
		if err != nil {
			return err
		}
		a.log.Debug("render.source", "format", ins.Format, "date_from_exif", ins.DateFromEXIF)

		s.SetName(renderOpts.Name)
		if renderOpts.Date != "" {
			t, err := parseDate(renderOpts.Date)
			if err != nil {
				return err
			}
			s.SetDate(t)
		}
		for _, f := range renderOpts.Fields {
			key, value, ok := strings.Cut(f, "=")
			if !ok {
				return fmt.Errorf("field %q must be key=value", f)
			}
			if _, err := s.AddField(key, value); err != nil {
				return err
			}
		}

		res, err := s.Generate(cmd.Context())
		if err != nil {
			return err
		}
		if !res.Success {
			return fmt.Errorf("generate: %s", res.ErrorMessage)
		}

		dir := renderOpts.OutDir
		if dir == "" {
			dir = a.cfg.OutputDir
		}
		store, err := storage.NewLocal(dir, 0o644)
		if err != nil {
			return err
		}
		if err := a.proc.Save(cmd.Context(), res, store, s.Spec()); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s (%d bytes, %s)\n",
			store.Path(core.StorageKey{Path: boardstamp.DownloadFilename}), len(res.Output), res.ProcessingTime)
		return nil
	},
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, strings.TrimSpace(s), time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("date %q must look like 2024-01-05 09:00 or 2024-01-05", s)
}

func init() {
	flags := renderCmd.Flags()
	flags.StringVar(&renderOpts.ContentType, "type", "",
		"Declared MIME type. Sniffed from the file contents if empty.")
	flags.StringVar(&renderOpts.Name, "name", "", "Construction name")
	flags.StringVar(&renderOpts.Date, "date", "",
		"Board date. Defaults to the EXIF capture time.")
	flags.StringArrayVar(&renderOpts.Fields, "field", nil,
		"Extra board row as key=value. Repeatable.")
	flags.StringVarP(&renderOpts.OutDir, "out", "o", "",
		"Output directory. Defaults to output_dir from the configuration.")
}
