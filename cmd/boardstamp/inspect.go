package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var inspectOpts struct {
	ContentType string
}

var inspectCmd = &cobra.Command{
	Use:   "inspect FILE",
	Short: "Print the EXIF report of a photo",
	Long: `Prints the EXIF metadata of a JPEG, grouped by IFD, followed by the
capture time that would be used as the board date.

Usage examples:

1. Inspect a photo:

	boardstamp inspect site.jpg
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.stop()

		data, mime, err := readSource(args[0], inspectOpts.ContentType)
		if err != nil {
			return err
		}
		ins, err := a.proc.Inspect(cmd.Context(), data, mime)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, ins.Status)
		if ins.DateFromEXIF {
			fmt.Fprintf(out, "Capture time: %s\n", ins.CaptureTime.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

func init() {
	inspectCmd.Flags().StringVar(&inspectOpts.ContentType, "type", "",
		"Declared MIME type. Sniffed from the file contents if empty.")
}
