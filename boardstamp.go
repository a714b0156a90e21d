// Package boardstamp composites a construction-site information board onto
// a photo and re-attaches the photo's EXIF metadata to the resulting JPEG.
package boardstamp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"time"

	"github.com/spf13/afero"

	"github.com/Skryldev/boardstamp/adapters/decoder"
	"github.com/Skryldev/boardstamp/adapters/encoder"
	"github.com/Skryldev/boardstamp/board"
	"github.com/Skryldev/boardstamp/config"
	"github.com/Skryldev/boardstamp/core"
	apperrors "github.com/Skryldev/boardstamp/errors"
	"github.com/Skryldev/boardstamp/exif"
	"github.com/Skryldev/boardstamp/pipeline"
)

// DownloadFilename is the fixed name of the generated artifact.
const DownloadFilename = "construction_board_image.jpg"

// Re-export Format constants for convenience.
const (
	JPEG = core.FormatJPEG
	PNG  = core.FormatPNG
)

// DefaultConfig returns the stock configuration.
func DefaultConfig() config.Config { return config.Default() }

// Processor is the primary entry point.
type Processor struct {
	inner    *core.Processor
	reg      *core.DefaultRegistry
	renderer *board.Renderer
	style    board.Style
}

// New creates a Processor with the JPEG/PNG decoders and the JPEG encoder
// registered.  Font files named in cfg.Board are read from the OS
// filesystem.
func New(cfg config.Config) (*Processor, error) {
	return NewWithFs(cfg, afero.NewOsFs())
}

// NewWithFs is New with font files read from fs.
func NewWithFs(cfg config.Config, fs afero.Fs) (*Processor, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryConfig, "boardstamp.new", err)
	}
	style, err := board.NewStyle(cfg.Board)
	if err != nil {
		return nil, err
	}
	renderer, err := board.NewRendererFromConfig(fs, cfg.Board)
	if err != nil {
		return nil, err
	}

	reg := core.NewRegistry()
	reg.RegisterDecoder(core.FormatJPEG, decoder.NewJPEG())
	reg.RegisterDecoder(core.FormatPNG, decoder.NewPNG())
	reg.RegisterEncoder(core.FormatJPEG, encoder.NewJPEG(cfg.JPEGQuality))

	return &Processor{
		inner:    core.New(cfg, reg),
		reg:      reg,
		renderer: renderer,
		style:    style,
	}, nil
}

// SetLogger attaches a structured logger.
func (p *Processor) SetLogger(l core.Logger) { p.inner.SetLogger(l) }

// SetMetrics attaches a metrics collector.
func (p *Processor) SetMetrics(m core.MetricsCollector) { p.inner.SetMetrics(m) }

// AddHook registers an observer for pipeline step events.
func (p *Processor) AddHook(h core.Hook) { p.inner.AddHook(h) }

// RegisterDecoder registers a custom decoder for the given format.
func (p *Processor) RegisterDecoder(f core.Format, d core.Decoder) { p.reg.RegisterDecoder(f, d) }

// Registry exposes the codec registry, e.g. for vips.RegisterVipsBackend.
func (p *Processor) Registry() core.Registry { return p.reg }

// Inner exposes the underlying core.Processor.
func (p *Processor) Inner() *core.Processor { return p.inner }

// Style returns the board style derived from the configuration.
func (p *Processor) Style() board.Style { return p.style }

// Close releases cached font faces.
func (p *Processor) Close() error { return p.renderer.Close() }

// Stats returns lightweight processing statistics.
func (p *Processor) Stats() (processed, failed int64) {
	return p.inner.ProcessedCount(), p.inner.ErrorCount()
}

// NewPipeline builds the compositing pipeline: decode, draw onto a fresh
// surface, paint the board, encode JPEG, copy EXIF through.
func (p *Processor) NewPipeline() *pipeline.Pipeline {
	cfg := p.inner.Config()
	return pipeline.New().
		Use(
			&pipeline.DecodeStep{Registry: p.reg},
			&pipeline.SurfaceStep{},
			&pipeline.BoardStep{Renderer: p.renderer, Style: p.style, Logger: p.inner.Logger()},
			&pipeline.EncodeStep{
				Registry:    p.reg,
				Format:      core.FormatJPEG,
				BaseOptions: core.EncodeOptions{Quality: cfg.JPEGQuality},
			},
			&pipeline.ExifPassthroughStep{Logger: p.inner.Logger()},
		).
		AddHook(p.inner.Hooks()...)
}

// Generate runs one compositing invocation.  The result is never nil; a
// failed run has Success false and ErrorMessage set.
func (p *Processor) Generate(ctx context.Context, req core.Request) *core.ProcessingResult {
	return p.inner.Process(ctx, req, p.NewPipeline())
}

// Process is Generate over an in-memory source.
func (p *Processor) Process(ctx context.Context, data []byte, mime string, doc *exif.Document, spec board.Spec) *core.ProcessingResult {
	return p.Generate(ctx, core.Request{Source: FromBytes(data, mime), EXIF: doc, Board: spec})
}

// ── Inspection ────────────────────────────────────────────────────────────────

// Status texts shown for a selected source.
const (
	StatusNoEXIF = "No meaningful EXIF data found in this JPEG."

	StatusBadEXIF = "EXIF data could not be loaded from this JPEG. " +
		"It might be corrupted or not a standard JPEG EXIF format."

	StatusPNG = "PNG image selected. PNGs typically do not carry EXIF data the way JPEGs do. " +
		"No EXIF data will be extracted or copied."
)

// Inspection is what a caller learns about a source before generating.
type Inspection struct {
	Format core.Format

	// EXIF is nil for PNG sources and JPEGs whose metadata could not be
	// decoded.
	EXIF *exif.Document

	// CaptureTime is the zero time unless DateFromEXIF.
	CaptureTime  time.Time
	DateFromEXIF bool
	GPS          exif.Tags

	// Status is the plain-text report shown to the user.
	Status string
}

// Inspect reads the EXIF metadata of a source.  Only image/jpeg and
// image/png are accepted; EXIF decode failures are reported in Status,
// never as errors.
func (p *Processor) Inspect(ctx context.Context, data []byte, mime string) (*Inspection, error) {
	const op = "boardstamp.inspect"
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryInput, op, err)
	}
	format := core.ContentTypeToFormat(mime)
	switch format {
	case core.FormatPNG:
		return &Inspection{Format: format, Status: StatusPNG}, nil
	case core.FormatJPEG:
	default:
		return nil, apperrors.Wrapf(apperrors.CategoryInput, op, apperrors.ErrUnsupportedFormat, "%q", mime)
	}
	if limit := p.inner.Config().MaxImageBytes; limit > 0 && int64(len(data)) > limit {
		return nil, apperrors.New(apperrors.CategoryInput, op, apperrors.ErrInputTooLarge)
	}

	ins := &Inspection{Format: format}
	doc, err := exif.Decode(data)
	switch {
	case errors.Is(err, apperrors.ErrNoEXIF):
		ins.Status = StatusNoEXIF
		return ins, nil
	case err != nil:
		p.inner.Logger().Warn("boardstamp.inspect.exif", "error", err.Error())
		ins.Status = StatusBadEXIF
		return ins, nil
	}

	ins.EXIF = doc
	if !exif.HasMeaningfulData(doc) {
		ins.Status = StatusNoEXIF
		return ins, nil
	}
	ins.CaptureTime, ins.DateFromEXIF = exif.ExtractCaptureTimestamp(doc)
	ins.GPS = exif.ExtractGPS(doc)
	ins.Status = exif.Describe(doc)
	return ins, nil
}

// ── Persistence ───────────────────────────────────────────────────────────────

// Save writes a successful result under DownloadFilename with a side-car
// describing the board.
func (p *Processor) Save(ctx context.Context, res *core.ProcessingResult, store core.StorageAdapter, spec board.Spec) error {
	const op = "boardstamp.save"
	if res == nil || !res.Success || len(res.Output) == 0 {
		return apperrors.New(apperrors.CategoryStorage, op, apperrors.ErrEmptyInput)
	}

	fields, err := json.Marshal(spec.Fields)
	if err != nil {
		return apperrors.Wrap(apperrors.CategoryStorage, op, err)
	}
	meta := map[string]string{
		"content_type":   core.MIMEJPEG,
		"name":           spec.Name,
		"date_from_exif": strconv.FormatBool(spec.DateFromEXIF),
		"fields":         string(fields),
		"size":           strconv.Itoa(len(res.Output)),
	}
	if spec.HasDate() {
		meta["date"] = spec.Date.Format(time.RFC3339)
	}
	if res.Primary != nil {
		meta["exif_attached"] = strconv.FormatBool(res.Primary.Meta.EXIFAttached)
	}

	key := core.StorageKey{Path: DownloadFilename}
	if err := store.Put(ctx, key, bytes.NewReader(res.Output), meta); err != nil {
		return err
	}
	p.inner.Logger().Info("boardstamp.saved", "key", key.Path, "bytes", len(res.Output))
	return nil
}

// ── Source constructors ───────────────────────────────────────────────────────

// FromBytes creates a Source over an in-memory buffer.
func FromBytes(data []byte, contentType string) core.Source {
	return core.Source{Reader: bytes.NewReader(data), ContentType: contentType, Size: int64(len(data))}
}

// FromReader creates a Source from an io.Reader of unknown size.
func FromReader(r io.Reader, contentType string) core.Source {
	return core.Source{Reader: r, ContentType: contentType, Size: -1}
}
