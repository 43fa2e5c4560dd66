package div

import (
	"errors"
	"fmt"

	"github.com/kolkov/div/internal/codegen"
	"github.com/kolkov/div/internal/parser"
)

// ParseError represents a syntax error in div source code.
type ParseError struct {
	Line    int    // 1-based line number
	Column  int    // 1-based column number
	Message string // Error description
	err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %d:%d: %s", e.Line, e.Column, e.Message)
}

func (e *ParseError) Unwrap() error { return e.err }

// Incomplete reports whether the input ended in the middle of an entry.
func (e *ParseError) Incomplete() bool {
	return parser.IsIncomplete(e.err)
}

// CompileError represents a failure to generate code for an entry, such as
// an unknown variable or a call with the wrong number of arguments.
type CompileError struct {
	Message string // Error description
	err     error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile error: %s", e.Message)
}

func (e *CompileError) Unwrap() error { return e.err }

// RuntimeError represents an error while linking or executing code.
type RuntimeError struct {
	Message string // Error description
	err     error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime error: %s", e.Message)
}

func (e *RuntimeError) Unwrap() error { return e.err }

func parseError(err error) *ParseError {
	var pe *parser.ParseError
	if errors.As(err, &pe) {
		return &ParseError{Line: pe.Pos.Line, Column: pe.Pos.Column, Message: pe.Message, err: err}
	}
	var el parser.ErrorList
	if errors.As(err, &el) && len(el) > 0 {
		return &ParseError{Line: el[0].Pos.Line, Column: el[0].Pos.Column, Message: el[0].Message, err: err}
	}
	return &ParseError{Message: err.Error(), err: err}
}

func compileError(err error) *CompileError {
	var ce *codegen.Error
	if errors.As(err, &ce) {
		msg := ce.Kind.String()
		if ce.Name != "" {
			msg += fmt.Sprintf(" %q", ce.Name)
		}
		if ce.Message != "" {
			msg += ": " + ce.Message
		}
		return &CompileError{Message: msg, err: err}
	}
	return &CompileError{Message: err.Error(), err: err}
}

func runtimeError(err error) *RuntimeError {
	return &RuntimeError{Message: err.Error(), err: err}
}
