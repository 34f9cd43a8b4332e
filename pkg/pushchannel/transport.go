package pushchannel

import (
	"context"

	"github.com/dmitrymomot/notifystream/pkg/sse"
)

// Message is one raw event delivered by a Stream.
type Message struct {
	ID   string
	Type string // empty or "message" for plain data events
	Data []byte
}

// Stream is an open push connection.
type Stream interface {
	// Next blocks until the next message or a connection-level error.
	Next() (Message, error)
	// LastEventID starts as the id passed to Connect and follows every id
	// field the server sends, including an empty one. It is replayed on the
	// following Connect.
	LastEventID() string
	Close() error
}

// Transport opens push connections. Connect must return an error matching
// ErrUnauthorized when the server rejects the session, and must abort when
// ctx is cancelled.
type Transport interface {
	Connect(ctx context.Context, endpoint, lastEventID string) (Stream, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, endpoint, lastEventID string) (Stream, error)

func (f TransportFunc) Connect(ctx context.Context, endpoint, lastEventID string) (Stream, error) {
	return f(ctx, endpoint, lastEventID)
}

// NewSSETransport returns a Transport backed by an event stream client.
func NewSSETransport(client *sse.Client) Transport {
	return sseTransport{client: client}
}

type sseTransport struct {
	client *sse.Client
}

func (t sseTransport) Connect(ctx context.Context, endpoint, lastEventID string) (Stream, error) {
	var opts []sse.ConnectOption
	if lastEventID != "" {
		opts = append(opts, sse.WithLastEventID(lastEventID))
	}
	s, err := t.client.Connect(ctx, endpoint, opts...)
	if err != nil {
		return nil, err
	}
	return sseStream{s}, nil
}

type sseStream struct {
	*sse.Stream
}

func (s sseStream) Next() (Message, error) {
	ev, err := s.Stream.Next()
	if err != nil {
		return Message{}, err
	}
	return Message{ID: ev.ID, Type: ev.Type, Data: ev.Data}, nil
}
