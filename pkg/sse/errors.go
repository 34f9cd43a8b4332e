package sse

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorized is returned when the server rejects the stream with 401 or 403.
	// Callers must not retry: the session has to be re-established first.
	ErrUnauthorized = errors.New("sse: unauthorized")

	// ErrUnexpectedStatus is returned for any other non-200 handshake response.
	ErrUnexpectedStatus = errors.New("sse: unexpected status code")

	// ErrUnexpectedContentType is returned when the response is not text/event-stream.
	ErrUnexpectedContentType = errors.New("sse: unexpected content type")

	// ErrInvalidURL is returned when the stream URL is empty or not http(s).
	ErrInvalidURL = errors.New("sse: invalid stream URL")

	// ErrStreamClosed is returned by Next after Close.
	ErrStreamClosed = errors.New("sse: stream closed")
)

// StatusError carries the status code of a rejected handshake.
// It matches ErrUnauthorized or ErrUnexpectedStatus through errors.Is.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("sse: handshake failed with status %d", e.Code)
}

func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.authRejected()
	case ErrUnexpectedStatus:
		return !e.authRejected()
	}
	return false
}

func (e *StatusError) authRejected() bool {
	return e.Code == http.StatusUnauthorized || e.Code == http.StatusForbidden
}

// IsUnauthorized reports whether err means the stream was rejected for auth reasons.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// ErrLineTooLong is returned by Next when a single line exceeds the configured limit.
var ErrLineTooLong = errors.New("sse: line too long")
