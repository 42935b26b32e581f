package rdf

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
)

var (
	// ErrUnknownFormat is returned when no codec is registered for a
	// media type.
	ErrUnknownFormat = errors.New("unknown format")
	// ErrUnsupported is returned when a codec can't represent a dataset.
	ErrUnsupported = errors.New("unsupported by format")
)

// ParseError provides the position of a parse failure.
type ParseError struct {
	Format string // Media type of the input
	Line   int    // 1-based line number, 0 if unknown
	Column int    // 1-based column number, 0 if unknown
	Err    error  // Underlying error
}

func (e *ParseError) Error() string {
	var msg strings.Builder
	msg.WriteString(e.Format)

	if e.Line > 0 {
		if e.Column > 0 {
			fmt.Fprintf(&msg, ":%d:%d", e.Line, e.Column)
		} else {
			fmt.Fprintf(&msg, ":%d", e.Line)
		}
	}

	msg.WriteString(": ")
	msg.WriteString(e.Err.Error())
	return msg.String()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// parseError converts an error from the participle parser into a
// [ParseError].
func parseError(format string, err error) error {
	var perr participle.Error
	if errors.As(err, &perr) {
		pos := perr.Position()
		return &ParseError{
			Format: format,
			Line:   pos.Line,
			Column: pos.Column,
			Err:    errors.New(perr.Message()),
		}
	}

	return &ParseError{Format: format, Err: err}
}
