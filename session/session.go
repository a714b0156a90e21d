// Package session holds the state of one board-editing session: the loaded
// source, what was learned from its EXIF metadata, the board being edited
// and the last generated result.
package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Skryldev/boardstamp"
	"github.com/Skryldev/boardstamp/board"
	"github.com/Skryldev/boardstamp/core"
	apperrors "github.com/Skryldev/boardstamp/errors"
	"github.com/Skryldev/boardstamp/utils"
)

// Session is safe for concurrent use.  Generate calls are serialised so one
// pipeline at a time owns the drawing surface; a result computed for a
// source that has since been replaced is dropped.
type Session struct {
	proc *boardstamp.Processor

	// run is held for the duration of a pipeline invocation.
	run sync.Mutex

	mu         sync.Mutex
	generation uint64
	source     []byte
	mime       string
	inspection *boardstamp.Inspection
	name       string
	date       time.Time
	dateEXIF   bool
	fields     board.Fields
	result     *core.ProcessingResult
}

// New creates an empty session bound to proc.
func New(proc *boardstamp.Processor) *Session {
	return &Session{proc: proc}
}

// Load selects a new source.  The board date is replaced by the EXIF
// capture time (or cleared when there is none); name and extra fields are
// kept.  Any earlier result, including one still being generated, is
// discarded.  A rejected source leaves the session unchanged.
func (s *Session) Load(ctx context.Context, data []byte, mime string) (*boardstamp.Inspection, error) {
	ins, err := s.proc.Inspect(ctx, data, mime)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, apperrors.New(apperrors.CategoryInput, "session.load", apperrors.ErrEmptyInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.source = utils.CloneBytes(data)
	s.mime = mime
	s.inspection = ins
	s.date, s.dateEXIF = time.Time{}, false
	if ins.DateFromEXIF {
		s.date, s.dateEXIF = ins.CaptureTime, true
	}
	s.result = nil
	return ins, nil
}

// Inspection returns what Load learned about the current source.
func (s *Session) Inspection() *boardstamp.Inspection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inspection
}

// SetName sets the construction name.
func (s *Session) SetName(name string) {
	s.mu.Lock()
	s.name = name
	s.mu.Unlock()
}

// SetDate sets the board date by hand.  The zero time clears it.
func (s *Session) SetDate(t time.Time) {
	s.mu.Lock()
	s.date, s.dateEXIF = t, false
	s.mu.Unlock()
}

// AddField appends an extra board row.
func (s *Session) AddField(key, value string) (board.Field, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fields.Add(key, value)
}

// UpdateField edits an extra board row.
func (s *Session) UpdateField(id, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fields.Update(id, key, value)
}

// RemoveField deletes an extra board row.
func (s *Session) RemoveField(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fields.Remove(id)
}

// Fields returns a copy of the extra board rows.
func (s *Session) Fields() []board.Field {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fields.All()
}

// Spec returns the board as currently edited.
func (s *Session) Spec() board.Spec {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.specLocked()
}

func (s *Session) specLocked() board.Spec {
	return board.Spec{
		Name:         strings.TrimSpace(s.name),
		Date:         s.date,
		DateFromEXIF: s.dateEXIF,
		Fields:       s.fields.All(),
	}
}

// Generate composites the board onto the current source.  It returns
// ErrNoSource before the first Load and ErrStaleResult when another Load
// happened while the pipeline ran.  Pipeline failures are reported in the
// result, not as an error.
func (s *Session) Generate(ctx context.Context) (*core.ProcessingResult, error) {
	s.mu.Lock()
	if s.source == nil {
		s.mu.Unlock()
		return nil, apperrors.New(apperrors.CategoryPipeline, "session.generate", apperrors.ErrNoSource)
	}
	gen := s.generation
	req := core.Request{
		Source: boardstamp.FromBytes(s.source, s.mime),
		Board:  s.specLocked(),
	}
	if s.inspection != nil {
		req.EXIF = s.inspection.EXIF
	}
	s.mu.Unlock()

	s.run.Lock()
	res := s.proc.Generate(ctx, req)
	s.run.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return nil, apperrors.New(apperrors.CategoryPipeline, "session.generate", apperrors.ErrStaleResult)
	}
	if res.Success {
		s.result = res
	}
	return res, nil
}

// Result returns the last successful result for the current source.
func (s *Session) Result() *core.ProcessingResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Reset returns the session to its initial state.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.source = nil
	s.mime = ""
	s.inspection = nil
	s.name = ""
	s.date, s.dateEXIF = time.Time{}, false
	s.fields.Reset()
	s.result = nil
}
