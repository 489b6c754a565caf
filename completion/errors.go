package completion

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a completion produced no answer.
type ErrorKind string

const (
	KindMissingCredential ErrorKind = "missing_credential"
	KindTimeout           ErrorKind = "timeout"
	KindConnection        ErrorKind = "connection"
	KindStatus            ErrorKind = "status"
	KindUpstream          ErrorKind = "upstream_error"
	KindSchema            ErrorKind = "schema"
)

// Error is the only error type returned by Service implementations.
type Error struct {
	Kind ErrorKind
	// StatusCode is set for KindStatus.
	StatusCode int
	// Detail is the response body, the upstream error field, the unexpected
	// payload or the transport failure, depending on Kind.
	Detail string
	Err    error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindMissingCredential:
		return "Error: API key not configured."
	case KindStatus:
		return fmt.Sprintf("API Error %d: %s", e.StatusCode, e.Detail)
	case KindUpstream:
		return "API Error: " + e.Detail
	case KindSchema:
		return "Unexpected response format: " + e.Detail
	case KindTimeout:
		return "Error communicating with completion API (timeout): " + e.Detail
	default:
		return "Error communicating with completion API: " + e.Detail
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of a completion error, or "" if err is nil or not an *Error.
func KindOf(err error) ErrorKind {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Kind
	}
	return ""
}

// Message renders a completion outcome as the single string shown to users.
func Message(answer string, err error) string {
	if err != nil {
		return err.Error()
	}
	return answer
}
