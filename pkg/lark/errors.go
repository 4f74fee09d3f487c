package lark

import (
	"errors"
	"fmt"
)

// Kind classifies a relay failure so callers can map it to a transport
// status without inspecting messages.
type Kind int

const (
	// KindUnknown is returned by KindOf for errors that did not originate here.
	KindUnknown Kind = iota

	// KindValidation is a caller input problem (no template identifier).
	KindValidation

	// KindConfiguration is an operator problem (missing app credentials).
	KindConfiguration

	// KindUpstreamAuth means token issuance was rejected or unreachable.
	KindUpstreamAuth

	// KindUpstreamCopy means the copy call was rejected, failed, or returned
	// a body that could not be normalized.
	KindUpstreamCopy
)

// Sentinel errors, one per kind, for use with errors.Is.
var (
	ErrValidation    = errors.New("validation failed")
	ErrConfiguration = errors.New("relay is not configured")
	ErrUpstreamAuth  = errors.New("upstream authentication failed")
	ErrUpstreamCopy  = errors.New("upstream copy failed")
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConfiguration:
		return "configuration"
	case KindUpstreamAuth:
		return "upstream_auth"
	case KindUpstreamCopy:
		return "upstream_copy"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindValidation:
		return ErrValidation
	case KindConfiguration:
		return ErrConfiguration
	case KindUpstreamAuth:
		return ErrUpstreamAuth
	case KindUpstreamCopy:
		return ErrUpstreamCopy
	default:
		return nil
	}
}

// Error is the error type returned by every operation in this package.
type Error struct {
	// Kind is the failure class.
	Kind Kind

	// Op is the operation that failed (e.g. "IssueTenantToken", "CopyFile").
	Op string

	// Msg is a human-readable description.
	Msg string

	// StatusCode is the upstream HTTP status, when one was received.
	StatusCode int

	// Body is the raw upstream response body, kept for diagnostics.
	Body string

	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		if s := e.Kind.sentinel(); s != nil {
			msg = s.Error()
		} else {
			msg = "unknown error"
		}
	}
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (HTTP %d): %s", msg, e.StatusCode, e.Body)
	}
	if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	if e.Op == "" {
		return msg
	}
	return e.Op + ": " + msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for this error's kind.
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func newError(kind Kind, op, msg string, err error) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg, Err: err}
}

// ValidationError returns a KindValidation error. It is exported for the
// orchestrator, which owns input validation.
func ValidationError(op, msg string) *Error {
	return newError(KindValidation, op, msg, nil)
}
