package jit

import (
	"errors"
	"fmt"
)

// Error kinds. Test with errors.Is.
var (
	ErrSymbolNotFound  = errors.New("symbol not found")
	ErrDuplicateSymbol = errors.New("symbol defined twice in one module")
	ErrCallDepth       = errors.New("maximum call depth exceeded")
	ErrArity           = errors.New("wrong number of arguments")
	ErrUnsupported     = errors.New("unsupported instruction")
	ErrUndefinedValue  = errors.New("use of undefined value")
	ErrTrackerRemoved  = errors.New("resource tracker already removed")
)

// Error is a failure while linking or running code. Func names the function
// being linked or executed. Cancellation is reported with Err set to the
// context's error.
type Error struct {
	Func   string
	Err    error
	Detail string
}

func (e *Error) Error() string {
	msg := e.Err.Error()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Func != "" {
		return fmt.Sprintf("@%s: %s", e.Func, msg)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(fn string, err error, format string, args ...any) *Error {
	e := &Error{Func: fn, Err: err}
	if format != "" {
		e.Detail = fmt.Sprintf(format, args...)
	}
	return e
}
