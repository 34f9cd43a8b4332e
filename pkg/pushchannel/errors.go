package pushchannel

import (
	"errors"

	"github.com/dmitrymomot/notifystream/pkg/sse"
)

var (
	// ErrUnauthorized is returned by a Transport when the server rejects the
	// session. It is the same value as sse.ErrUnauthorized.
	ErrUnauthorized = sse.ErrUnauthorized

	ErrRetriesExhausted = errors.New("pushchannel: reconnect attempts exhausted")
	ErrDecode           = errors.New("pushchannel: malformed event payload")
	ErrEndpointRequired = errors.New("pushchannel: endpoint is required")
)
