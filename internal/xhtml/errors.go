package xhtml

import (
	"fmt"

	"github.com/yuanying/epub2txt/internal/apperr"
)

var (
	ErrMalformedTagName  = fmt.Errorf("%w: malformed tag name", apperr.ErrMarkup)
	ErrTagEnd            = fmt.Errorf("%w: cannot find tag end", apperr.ErrMarkup)
	ErrUnexpectedEOF     = fmt.Errorf("%w: unexpected end of input", apperr.ErrMarkup)
	ErrMixedClosingMarks = fmt.Errorf("%w: tag is both closing and self-closing", apperr.ErrMarkup)
	ErrClosingMismatch   = fmt.Errorf("%w: closing tag does not match open tag", apperr.ErrMarkup)
	ErrNotOpen           = fmt.Errorf("%w: tag is not open in this cursor", apperr.ErrMarkup)
)

// SyntaxError reports a markup error at a byte offset of the scanned source.
type SyntaxError struct {
	Offset int
	Err    error
}

func (e *SyntaxError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("markup syntax error at offset %d: %v", e.Offset, e.Err)
}

// Unwrap exposes the underlying error.
func (e *SyntaxError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func syntaxError(offset int, err error) error {
	return &SyntaxError{Offset: offset, Err: err}
}
