package core

import (
	"context"
	"io"
	"time"

	"github.com/Skryldev/boardstamp/board"
	"github.com/Skryldev/boardstamp/exif"
)

// Format identifies an image codec.
type Format string

const (
	FormatJPEG    Format = "jpeg"
	FormatPNG     Format = "png"
	FormatUnknown Format = "unknown"
)

// MIME types accepted at the pipeline boundary.
const (
	MIMEJPEG = "image/jpeg"
	MIMEPNG  = "image/png"
)

// ColorSpace represents the image colour model.
type ColorSpace string

const (
	ColorSpaceRGB  ColorSpace = "rgb"
	ColorSpaceRGBA ColorSpace = "rgba"
	ColorSpaceCMYK ColorSpace = "cmyk"
	ColorSpaceGray ColorSpace = "gray"
)

// Metadata holds image information gathered while the image moves through
// the pipeline.
type Metadata struct {
	Width      int
	Height     int
	Format     Format
	ColorSpace ColorSpace
	HasAlpha   bool
	SizeBytes  int64

	// Orientation is the EXIF orientation (1-8) found in the source, 0 when
	// absent.  Oriented reports that the pixel data already reflects it.
	Orientation int
	Oriented    bool

	// EXIFAttached reports that an EXIF segment was written into Data.
	EXIFAttached bool
}

// ImageData is the in-memory representation passed through a pipeline.
// Data holds encoded bytes; Image holds the decoded pixel buffer when needed.
type ImageData struct {
	// Encoded bytes: the raw input until the encode step replaces them.
	Data   []byte
	Format Format

	// Declared is the format named by the caller's MIME type.  EXIF
	// passthrough keys off this, not off sniffed bytes.
	Declared Format

	// Decoded pixel buffer.  Steps expect an image.Image; the drawing
	// surface is a draw.Image.
	Image any

	Meta Metadata

	// Inputs carried to the board and EXIF steps.
	EXIF  *exif.Document
	Board board.Spec

	OriginalSize int64
}

// ProcessingResult is returned to the caller after the full pipeline completes.
// A failed run has Success false, a non-empty ErrorMessage and no Output.
type ProcessingResult struct {
	Success      bool
	Output       []byte
	ErrorMessage string
	Err          error `json:"-"`

	Primary *ImageData `json:"-"`

	// Observability.
	ProcessingTime time.Duration
	StepTimings    map[string]time.Duration
}

// Source abstracts where raw bytes come from.
type Source struct {
	Reader      io.Reader
	ContentType string // declared MIME type
	Name        string // optional logical name / filename
	Size        int64  // -1 if unknown
}

// Request is one compositing invocation.
type Request struct {
	Source Source
	EXIF   *exif.Document
	Board  board.Spec
}

// Step is the fundamental pipeline building block.  Each Step transforms an
// *ImageData value and must be safe for concurrent use across goroutines.
type Step interface {
	Name() string
	Execute(ctx context.Context, img *ImageData) (*ImageData, error)
}

// Hook is an optional observer invoked around pipeline steps.
type Hook interface {
	BeforeStep(ctx context.Context, stepName string, img *ImageData)
	AfterStep(ctx context.Context, stepName string, img *ImageData, d time.Duration, err error)
}

// StorageKey uniquely identifies a stored artifact.
type StorageKey struct {
	Bucket string
	Path   string
}
