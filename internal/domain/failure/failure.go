// Package failure defines the typed errors raised by pipeline stages.
//
// Every error names the stage (Op) and, where known, the group or row it
// concerns. The Kind sentinels let the orchestration layer decide between
// abort and recovery with errors.Is.
package failure

import (
	"errors"
	"strconv"
	"strings"
)

// Kinds.
var (
	ErrConfiguration = errors.New("configuration error")
	ErrJoinMismatch  = errors.New("join mismatch")
	ErrInvalidData   = errors.New("invalid data")
	ErrExternalIO    = errors.New("external io failure")
)

// Error is an attributable pipeline failure.
type Error struct {
	Op    string // stage, e.g. "aggregate.monitoring_cycle"
	Kind  error  // one of the Err* kinds, may be nil
	Group string // group key, when the failure concerns a group
	Row   int    // 1-based input row, 0 when unknown
	Err   error  // underlying cause, may be nil
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.Group != "" {
		b.WriteString(" [")
		b.WriteString(e.Group)
		b.WriteString("]")
	}
	if e.Row > 0 {
		b.WriteString(" row ")
		b.WriteString(strconv.Itoa(e.Row))
	}
	if e.Kind != nil {
		b.WriteString(": ")
		b.WriteString(e.Kind.Error())
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// NewKind returns an error of the given kind without a cause.
func NewKind(op string, kind error) *Error {
	return &Error{Op: op, Kind: kind}
}

// Wrap attributes err to op. A nil err yields nil.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// WrapKind attributes err to op under kind.
func WrapKind(op string, kind, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// WithGroup sets the group the failure concerns.
func (e *Error) WithGroup(group string) *Error {
	e.Group = group
	return e
}

// WithRow sets the 1-based input row the failure concerns.
func (e *Error) WithRow(row int) *Error {
	e.Row = row
	return e
}

// KindOf returns a short label for the kind of err, used in logs and metrics.
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrJoinMismatch):
		return "join_mismatch"
	case errors.Is(err, ErrInvalidData):
		return "invalid_data"
	case errors.Is(err, ErrExternalIO):
		return "external_io"
	default:
		return "internal"
	}
}
