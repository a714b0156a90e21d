package errors

import (
	"errors"
	"fmt"
)

// Category classifies error types for targeted handling and monitoring.
type Category string

const (
	CategoryDecode   Category = "decode"
	CategoryEncode   Category = "encode"
	CategoryPipeline Category = "pipeline"
	CategoryStorage  Category = "storage"
	CategoryConfig   Category = "config"
	CategoryInput    Category = "input"
	CategoryEXIF     Category = "exif"
	CategoryBoard    Category = "board"
)

// ProcessingError is the structured error type used throughout the module.
type ProcessingError struct {
	Category Category
	Op       string // operation name
	Err      error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("[%s] %s: %v", e.Category, e.Op, e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }

// New creates a ProcessingError.
func New(category Category, op string, err error) *ProcessingError {
	return &ProcessingError{Category: category, Op: op, Err: err}
}

// Wrap wraps an existing error with context.
func Wrap(category Category, op string, err error) error {
	if err == nil {
		return nil
	}
	return New(category, op, err)
}

// Wrapf wraps sentinel with a formatted detail message.
func Wrapf(category Category, op string, sentinel error, format string, args ...any) error {
	return New(category, op, fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...)))
}

// IsCategory reports whether err belongs to the given category.
func IsCategory(err error, cat Category) bool {
	var pe *ProcessingError
	if errors.As(err, &pe) {
		return pe.Category == cat
	}
	return false
}

// IsDecodeError reports whether err is an EXIF decode failure.
func IsDecodeError(err error) bool {
	return IsCategory(err, CategoryEXIF) &&
		(errors.Is(err, ErrNoEXIF) || errors.Is(err, ErrMalformedEXIF))
}

// IsInsertError reports whether err is a failure to splice EXIF into a JPEG.
func IsInsertError(err error) bool {
	return IsCategory(err, CategoryEXIF) &&
		(errors.Is(err, ErrNotJPEG) || errors.Is(err, ErrMalformedJPEG) || errors.Is(err, ErrSegmentTooLarge))
}

// IsImageLoadError reports whether err means the source pixels could not be decoded.
func IsImageLoadError(err error) bool {
	return IsCategory(err, CategoryDecode) && errors.Is(err, ErrImageLoad)
}

// IsUnsupportedType reports whether err rejects the source MIME type.
func IsUnsupportedType(err error) bool {
	return IsCategory(err, CategoryInput) && errors.Is(err, ErrUnsupportedFormat)
}

// Sentinel errors for common failure modes.
var (
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrEmptyInput        = errors.New("empty input")
	ErrImageLoad         = errors.New("failed to load image")
	ErrInputTooLarge     = errors.New("input exceeds size limit")

	ErrNoEXIF          = errors.New("no exif segment")
	ErrMalformedEXIF   = errors.New("malformed exif data")
	ErrNotJPEG         = errors.New("not a jpeg stream")
	ErrMalformedJPEG   = errors.New("malformed jpeg segment")
	ErrSegmentTooLarge = errors.New("exif segment too large")
	ErrUnencodableTag  = errors.New("exif tag value cannot be encoded")

	ErrDuplicateKey  = errors.New("field key already exists")
	ErrFieldNotFound = errors.New("field not found")
	ErrStaleResult   = errors.New("result superseded by a newer source")
	ErrNoSource      = errors.New("no source image loaded")
)
