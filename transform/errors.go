package transform

import (
	"errors"
	"fmt"

	"github.com/chazu/tiersplit/syntax"
)

// Sentinel errors. Every failure returned by this package wraps one of
// them so callers can classify it with errors.Is.
var (
	ErrInvalidTier    = errors.New("invalid tier")
	ErrMalformedGuard = errors.New("malformed tier guard")
	ErrMissingBinding = errors.New("missing hint binding")
)

// Error is a transformation failure tied to a source position.
type Error struct {
	Pos    syntax.Position
	Err    error
	Detail string
}

func (e *Error) Error() string {
	msg := e.Err.Error()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Pos.IsValid() {
		return fmt.Sprintf("line %d: %s", e.Pos.Line, msg)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func errorAt(n syntax.Node, err error, format string, args ...interface{}) *Error {
	return &Error{Pos: n.Pos(), Err: err, Detail: fmt.Sprintf(format, args...)}
}
