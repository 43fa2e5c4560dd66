// Package parser provides the div recursive descent parser.
package parser

import (
	"errors"
	"fmt"

	"github.com/kolkov/div/internal/token"
)

// ParseError represents a syntax error encountered during parsing.
// It implements the error interface and includes source position information.
type ParseError struct {
	Pos     token.Position // Position where the error occurred
	Message string         // Human-readable error message
	Got     string         // Description of the token that was found
	AtEOF   bool           // The error was raised at end of input
}

// Error returns a formatted error message with position information.
func (e *ParseError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s: %s", e.Pos, e.Message)
	}
	return e.Message
}

// ErrorList is a list of parse errors.
type ErrorList []*ParseError

// Error returns a combined error message for all errors.
func (el ErrorList) Error() string {
	switch len(el) {
	case 0:
		return "no errors"
	case 1:
		return el[0].Error()
	default:
		return fmt.Sprintf("%s (and %d more errors)", el[0].Error(), len(el)-1)
	}
}

// Err returns an error if there are any errors, nil otherwise.
func (el ErrorList) Err() error {
	if len(el) == 0 {
		return nil
	}
	return el
}

// IsIncomplete reports whether err is a parse error raised because the input
// ended in the middle of a construct. Interactive front ends use it to ask
// for a continuation line instead of reporting the error.
func IsIncomplete(err error) bool {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe.AtEOF
	}
	var el ErrorList
	if errors.As(err, &el) && len(el) > 0 {
		return el[0].AtEOF
	}
	return false
}
