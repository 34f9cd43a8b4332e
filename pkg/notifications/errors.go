package notifications

import (
	"errors"

	"github.com/dmitrymomot/notifystream/pkg/sse"
)

var (
	// ErrUnauthorized means the session is gone. It matches sse.ErrUnauthorized.
	ErrUnauthorized = sse.ErrUnauthorized

	ErrInvalidPayload     = errors.New("notifications: invalid payload")
	ErrInvalidBaseURL     = errors.New("notifications: invalid base url")
	ErrEmptyID            = errors.New("notifications: notification id is required")
	ErrInvalidID          = errors.New("notifications: notification id is not a single path segment")
	ErrMarkReadRejected   = errors.New("notifications: mark-read rejected by server")
	ErrUnexpectedResponse = errors.New("notifications: unexpected response")
)
