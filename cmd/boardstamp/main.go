// Command boardstamp inspects photo metadata and stamps construction boards
// onto photos from the command line.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Skryldev/boardstamp"
	"github.com/Skryldev/boardstamp/adapters/vips"
	"github.com/Skryldev/boardstamp/config"
	"github.com/Skryldev/boardstamp/hooks"
	"github.com/Skryldev/boardstamp/utils"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "boardstamp",
	Short: "Stamp construction information boards onto site photos",
	Long: `boardstamp draws a construction information board (name, date and
free-form rows) onto a JPEG or PNG photo, writes the result as a JPEG and
carries the source EXIF metadata over with the orientation reset.

Configuration is read from --config (YAML, JSON or TOML) and from
BOARDSTAMP_* environment variables.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a configuration file")
	rootCmd.AddCommand(inspectCmd, renderCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// app bundles what every sub-command needs.
type app struct {
	cfg  config.Config
	proc *boardstamp.Processor
	log  *hooks.SlogLogger
	stop func()
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	log := hooks.NewHandlerLogger(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)

	proc, err := boardstamp.New(cfg)
	if err != nil {
		return nil, err
	}
	proc.SetLogger(log)
	proc.AddHook(hooks.NewLoggingHook(log))

	a := &app{cfg: cfg, proc: proc, log: log, stop: func() { proc.Close() }}
	if cfg.Backend == config.BackendVips {
		backend := vips.NewBackend(vips.BackendConfig{})
		vips.RegisterVipsBackend(proc.Registry(), backend)
		a.stop = func() {
			proc.Close()
			backend.Shutdown()
		}
	}
	return a, nil
}

// readSource reads path and works out its MIME type, preferring the
// sniffed type over the caller's hint.
func readSource(path, hint string) ([]byte, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(data) == 0 {
		return nil, "", errors.New("source file is empty")
	}
	mime := hint
	if mime == "" {
		mime = utils.MIMEType(data)
	}
	if mime == "" {
		mime = "application/octet-stream"
	}
	return data, mime, nil
}
