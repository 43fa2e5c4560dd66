package codegen

import (
	"fmt"

	"github.com/kolkov/div/internal/token"
)

// ErrorKind classifies code generation errors.
type ErrorKind uint8

const (
	UnknownVariable ErrorKind = iota + 1
	UnknownFunction
	ArityMismatch
	InvalidOperator
	InvalidFunction
)

var kindMessages = [...]string{
	UnknownVariable: "unknown variable name",
	UnknownFunction: "unknown function referenced",
	ArityMismatch:   "incorrect number of arguments passed",
	InvalidOperator: "invalid binary operator",
	InvalidFunction: "invalid function",
}

func (k ErrorKind) String() string {
	if int(k) < len(kindMessages) && kindMessages[k] != "" {
		return kindMessages[k]
	}
	return fmt.Sprintf("ErrorKind(%d)", uint8(k))
}

// Error is a code generation failure. The offending function is rolled back
// before the error is returned.
type Error struct {
	Kind    ErrorKind
	Pos     token.Position
	Name    string // Variable, function or operator involved
	Message string // Extra detail, may be empty
}

// Sentinels for errors.Is. Only Kind is compared.
var (
	ErrUnknownVariable = &Error{Kind: UnknownVariable}
	ErrUnknownFunction = &Error{Kind: UnknownFunction}
	ErrArityMismatch   = &Error{Kind: ArityMismatch}
	ErrInvalidOperator = &Error{Kind: InvalidOperator}
	ErrInvalidFunction = &Error{Kind: InvalidFunction}
)

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Name != "" {
		msg += fmt.Sprintf(" %q", e.Name)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s: %s", e.Pos, msg)
	}
	return msg
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func newError(kind ErrorKind, pos token.Position, name, format string, args ...any) *Error {
	err := &Error{Kind: kind, Pos: pos, Name: name}
	if format != "" {
		err.Message = fmt.Sprintf(format, args...)
	}
	return err
}
