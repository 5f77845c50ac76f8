package composer

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidBooleanLiteral is returned when a gate expression resolves
	// to anything other than the literal strings "true" or "false".
	ErrInvalidBooleanLiteral = errors.New("invalid boolean literal")
	// ErrCyclicInclude is returned when a descriptor directly or
	// transitively includes itself.
	ErrCyclicInclude = errors.New("cyclic include")
	// ErrMissingIncludeTarget is returned when an include's resolved target
	// path does not exist.
	ErrMissingIncludeTarget = errors.New("missing include target")
)

// Error wraps every composition failure, letting callers distinguish
// composition-time errors from supervision-time ones without inspecting
// individual causes.
type Error struct {
	// Path is the root descriptor whose composition failed.
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("composing %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
