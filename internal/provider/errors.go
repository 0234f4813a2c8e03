package provider

import (
	"errors"
	"fmt"

	"github.com/seenimoa/finny/internal/infra"
)

// Kind classifies a core failure.
type Kind string

const (
	KindConnection Kind = "connection" // upstream unreachable after retries
	KindProtocol   Kind = "protocol"   // upstream answered non-2xx after retries
	KindRequest    Kind = "request"    // request could not be made
	KindNotFound   Kind = "not_found"  // ticker or CIK unknown
	KindParse      Kind = "parse"      // malformed JSON or HTML
	KindNoData     Kind = "no_data"    // valid response with nothing in it
	KindBadInput   Kind = "bad_input"  // caller supplied an unusable argument
)

// StatusClass groups kinds by how a caller should present them.
type StatusClass string

const (
	ClassUnavailable StatusClass = "service_unavailable"
	ClassNotFound    StatusClass = "not_found"
	ClassBadInput    StatusClass = "bad_input"
)

// Class returns the status class of k.
func (k Kind) Class() StatusClass {
	switch k {
	case KindNotFound, KindNoData:
		return ClassNotFound
	case KindBadInput:
		return ClassBadInput
	default:
		return ClassUnavailable
	}
}

// Message returns the user-facing message of k.
func (k Kind) Message() string {
	switch k {
	case KindConnection:
		return "Failed to reach the upstream data service. Please try again later."
	case KindProtocol:
		return "The upstream data service returned an error. Please try again later."
	case KindRequest:
		return "The upstream request could not be completed."
	case KindNotFound:
		return "Ticker not found."
	case KindParse:
		return "Error parsing upstream data. Please try again later."
	case KindNoData:
		return "No data available for this ticker."
	case KindBadInput:
		return "Invalid input."
	default:
		return "Unexpected error."
	}
}

// Error is the classified error returned by every core operation.
type Error struct {
	Kind   Kind
	Op     string // e.g. "sec resolve", "yfinance quote"
	Status int    // last upstream HTTP status, when known
	Err    error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by kind, so the sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Err == nil
}

// Sentinels for errors.Is comparisons.
var (
	ErrConnection = &Error{Kind: KindConnection}
	ErrProtocol   = &Error{Kind: KindProtocol}
	ErrRequest    = &Error{Kind: KindRequest}
	ErrNotFound   = &Error{Kind: KindNotFound}
	ErrParse      = &Error{Kind: KindParse}
	ErrNoData     = &Error{Kind: KindNoData}
	ErrBadInput   = &Error{Kind: KindBadInput}
)

// Errorf builds a classified error.
func Errorf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// Wrap classifies err under op. A *Failure from the fetcher keeps its kind and
// last status; an existing *Error is returned with op prefixed; anything else
// becomes KindRequest.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}

	var perr *Error
	if errors.As(err, &perr) {
		return &Error{Kind: perr.Kind, Op: op, Status: perr.Status, Err: err}
	}

	var fail *infra.Failure
	if errors.As(err, &fail) {
		return &Error{Kind: fromFailure(fail.Kind), Op: op, Status: fail.LastStatus, Err: err}
	}
	return &Error{Kind: KindRequest, Op: op, Err: err}
}

// KindOf returns the kind of a classified error, or "" for nil and
// KindRequest for unclassified errors.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Kind
	}
	var fail *infra.Failure
	if errors.As(err, &fail) {
		return fromFailure(fail.Kind)
	}
	return KindRequest
}

// UpstreamStatus returns the last upstream HTTP status carried by err, or 0.
func UpstreamStatus(err error) int {
	var perr *Error
	if errors.As(err, &perr) && perr.Status != 0 {
		return perr.Status
	}
	var fail *infra.Failure
	if errors.As(err, &fail) {
		return fail.LastStatus
	}
	return 0
}

func fromFailure(k infra.FailureKind) Kind {
	switch k {
	case infra.FailureConnection:
		return KindConnection
	case infra.FailureProtocol:
		return KindProtocol
	default:
		return KindRequest
	}
}
