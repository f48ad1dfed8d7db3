// Package errs defines the error taxonomy shared by the store, render and
// HTTP layers.
package errs

import (
	"errors"
	"fmt"
)

// Kinds. Wrapped errors match these with errors.Is.
var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrConstraint    = errors.New("constraint violation")
	ErrAssetFatal    = errors.New("required asset unavailable")
	ErrAssetDegraded = errors.New("optional asset unavailable")
)

// Error carries the failing operation and the id of the object involved.
type Error struct {
	Op   string // e.g. "template.get", "render.vector"
	Kind error  // one of the sentinels above
	ID   string
	Msg  string
	Err  error // underlying cause, may be nil
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.Error()
	}
	if e.ID != "" {
		msg = fmt.Sprintf("%s %s", msg, e.ID)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NotFound reports a missing object, e.g. NotFound("template.get", "template", id).
func NotFound(op, what, id string) error {
	return &Error{Op: op, Kind: ErrNotFound, ID: id, Msg: what + " not found"}
}

// Invalid reports rejected input.
func Invalid(op, format string, args ...any) error {
	return &Error{Op: op, Kind: ErrInvalidInput, Msg: fmt.Sprintf(format, args...)}
}

// Conflict reports a violated uniqueness or safety constraint.
func Conflict(op, format string, args ...any) error {
	return &Error{Op: op, Kind: ErrConstraint, Msg: fmt.Sprintf(format, args...)}
}

// Fatal reports an asset without which the operation cannot produce output.
func Fatal(op, id string, err error) error {
	return &Error{Op: op, Kind: ErrAssetFatal, ID: id, Msg: "asset unavailable for", Err: err}
}

// Degraded reports an optional asset that was skipped.
func Degraded(op, id string, err error) error {
	return &Error{Op: op, Kind: ErrAssetDegraded, ID: id, Msg: "asset skipped for", Err: err}
}

// IsNotFound reports whether err, or anything it wraps, is a NotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
