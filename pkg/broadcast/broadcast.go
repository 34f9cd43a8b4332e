package broadcast

import (
	"context"
	"sync"
)

// Message is one published item. ID is optional and lets stream writers
// tag events so that reconnecting readers can resume.
type Message[T any] struct {
	ID   string
	Data T
}

// Subscriber receives messages from a Broadcaster.
type Subscriber[T any] interface {
	// Receive returns the delivery channel. It is closed when the
	// subscription ends for any reason.
	Receive() <-chan Message[T]
	// Close ends the subscription. It is idempotent.
	Close() error
}

// Broadcaster fans messages out to every live subscriber.
type Broadcaster[T any] interface {
	// Subscribe registers a subscriber that lives until ctx is done or it is closed.
	Subscribe(ctx context.Context) Subscriber[T]
	// Broadcast delivers msg to every subscriber and reports how many got it.
	Broadcast(ctx context.Context, msg Message[T]) int
	Close() error
}

type subscriber[T any] struct {
	ch     chan Message[T]
	closed chan struct{}
	mu     sync.RWMutex
}

func newSubscriber[T any](bufferSize int) *subscriber[T] {
	return &subscriber[T]{
		ch:     make(chan Message[T], bufferSize),
		closed: make(chan struct{}),
	}
}

func (s *subscriber[T]) Receive() <-chan Message[T] {
	return s.ch
}

func (s *subscriber[T]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isClosed() {
		close(s.closed)
		close(s.ch)
	}
	return nil
}

func (s *subscriber[T]) done() <-chan struct{} {
	return s.closed
}

func (s *subscriber[T]) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

// send never blocks; a full buffer counts as a failed delivery.
func (s *subscriber[T]) send(msg Message[T]) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.isClosed() {
		return false
	}
	select {
	case s.ch <- msg:
		return true
	default:
		return false
	}
}
