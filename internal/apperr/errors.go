// Package apperr defines the error classes shared by every stage of the
// extraction pipeline and the phase context attached to them.
package apperr

import (
	"errors"
	"fmt"
)

// Error classes. Package-level sentinels wrap exactly one of these, so callers
// can tell what went wrong without knowing which stage failed.
var (
	ErrContainer         = errors.New("corrupt container")
	ErrUnschematic       = errors.New("unschematic document")
	ErrMarkup            = errors.New("malformed markup")
	ErrUnknownFormatting = errors.New("unknown formatting")
	ErrClassification    = errors.New("chapter role classification failed")
)

// PhaseError records which input file and processing phase an error came from.
type PhaseError struct {
	File  string
	Phase string
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s at phase %s: %v", e.File, e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}

// WithPhase wraps err with file and phase context. A nil err stays nil, and an
// error that already carries a phase keeps the innermost one.
func WithPhase(file, phase string, err error) error {
	if err == nil {
		return nil
	}
	var pe *PhaseError
	if errors.As(err, &pe) {
		return err
	}
	return &PhaseError{File: file, Phase: phase, Err: err}
}
