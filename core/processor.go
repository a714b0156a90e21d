package core

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Skryldev/boardstamp/config"
	apperrors "github.com/Skryldev/boardstamp/errors"
	"github.com/Skryldev/boardstamp/utils"
)

// Processor is the central orchestrator.  It ingests a source, hands it to a
// pipeline and folds the outcome into a ProcessingResult.  It is safe for
// concurrent use; callers that share one drawing surface serialise calls
// themselves (see session.Session).
type Processor struct {
	cfg      config.Config
	registry Registry
	hooks    []Hook
	logger   Logger
	metrics  MetricsCollector

	// Atomic counters for lightweight internal metrics.
	processedCount int64
	errorCount     int64
}

// New creates a Processor with the given config.
func New(cfg config.Config, reg Registry) *Processor {
	return &Processor{
		cfg:      cfg,
		registry: reg,
		logger:   NopLogger{},
	}
}

// SetLogger attaches a structured logger.
func (p *Processor) SetLogger(l Logger) {
	if l == nil {
		l = NopLogger{}
	}
	p.logger = l
}

// Logger returns the attached logger.
func (p *Processor) Logger() Logger { return p.logger }

// SetMetrics attaches a metrics collector.
func (p *Processor) SetMetrics(m MetricsCollector) { p.metrics = m }

// AddHook registers a pipeline hook.
func (p *Processor) AddHook(h Hook) { p.hooks = append(p.hooks, h) }

// Hooks returns the registered hooks.
func (p *Processor) Hooks() []Hook { return append([]Hook(nil), p.hooks...) }

// Registry returns the underlying registry so callers can register
// encoders/decoders after construction.
func (p *Processor) Registry() Registry { return p.registry }

// Config returns the processor configuration.
func (p *Processor) Config() config.Config { return p.cfg }

// Ingest drains src into memory, respecting the size limit, and checks the
// declared type.  Only JPEG and PNG pass.
func (p *Processor) Ingest(ctx context.Context, src Source) (*ImageData, error) {
	declared := ContentTypeToFormat(src.ContentType)
	if declared == FormatUnknown {
		return nil, apperrors.Wrapf(apperrors.CategoryInput, "process.ingest", apperrors.ErrUnsupportedFormat,
			"%q", src.ContentType)
	}
	if src.Reader == nil {
		return nil, apperrors.New(apperrors.CategoryInput, "process.ingest", apperrors.ErrEmptyInput)
	}

	var r = src.Reader
	if p.cfg.MaxImageBytes > 0 {
		r = &utils.LimitedReader{R: src.Reader, Max: p.cfg.MaxImageBytes}
	}
	buf, err := utils.DrainReader(ctx, r, p.cfg.ChunkSize)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryInput, "process.drain", err)
	}
	raw := utils.CloneBytes(buf.Bytes())
	utils.ReleaseBuffer(buf)
	if len(raw) == 0 {
		return nil, apperrors.New(apperrors.CategoryInput, "process.ingest", apperrors.ErrEmptyInput)
	}

	format := Format(utils.DetectFormat(raw))
	if format == FormatUnknown {
		format = declared
	}
	return &ImageData{
		Data:         raw,
		Format:       format,
		Declared:     declared,
		OriginalSize: int64(len(raw)),
	}, nil
}

// Process ingests req.Source and runs it through runner.  Failures never
// escape as panics or bare errors: the result carries Success, ErrorMessage
// and Err.  ctx is checked once on entry; a run that has started completes
// even if ctx is cancelled afterwards.
func (p *Processor) Process(ctx context.Context, req Request, runner PipelineRunner) (res *ProcessingResult) {
	start := time.Now()
	res = &ProcessingResult{}

	defer func() {
		if r := recover(); r != nil {
			p.fail(res, apperrors.New(apperrors.CategoryPipeline, "process", fmt.Errorf("panic: %v", r)))
		}
		res.ProcessingTime = time.Since(start)
	}()

	if err := ctx.Err(); err != nil {
		p.fail(res, apperrors.Wrap(apperrors.CategoryPipeline, "process", err))
		return res
	}
	ctx = context.WithoutCancel(ctx)

	img, err := p.Ingest(ctx, req.Source)
	if err != nil {
		p.fail(res, err)
		return res
	}
	img.EXIF = req.EXIF
	img.Board = req.Board

	out, timings, err := runner.Run(ctx, img)
	res.StepTimings = timings
	if err != nil {
		p.fail(res, err)
		return res
	}
	if out == nil || len(out.Data) == 0 {
		p.fail(res, apperrors.New(apperrors.CategoryEncode, "process", apperrors.ErrEmptyInput))
		return res
	}

	atomic.AddInt64(&p.processedCount, 1)
	if p.metrics != nil {
		p.metrics.RecordThroughput(int64(len(out.Data)))
	}
	res.Success = true
	res.Output = out.Data
	res.Primary = out
	return res
}

func (p *Processor) fail(res *ProcessingResult, err error) {
	atomic.AddInt64(&p.errorCount, 1)
	p.logger.Error("process.failed", "error", err.Error())
	res.Success = false
	res.Output = nil
	res.Primary = nil
	res.Err = err
	res.ErrorMessage = err.Error()
}

// ContentTypeToFormat maps MIME types to Format values.  Parameters such as
// "; charset=" are ignored.
func ContentTypeToFormat(ct string) Format {
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	switch strings.ToLower(strings.TrimSpace(ct)) {
	case MIMEJPEG, "image/jpg", "image/pjpeg":
		return FormatJPEG
	case MIMEPNG:
		return FormatPNG
	}
	return FormatUnknown
}

// ProcessedCount returns the total number of successfully processed images.
func (p *Processor) ProcessedCount() int64 { return atomic.LoadInt64(&p.processedCount) }

// ErrorCount returns the total number of processing errors.
func (p *Processor) ErrorCount() int64 { return atomic.LoadInt64(&p.errorCount) }
