package broadcast

import (
	"context"
	"sync"
)

// MemoryBroadcaster is an in-process Broadcaster. Subscribers whose buffer
// is full are dropped rather than blocking the publisher.
type MemoryBroadcaster[T any] struct {
	subscribers map[*subscriber[T]]struct{}
	bufferSize  int
	closed      bool
	mu          sync.RWMutex
	watchers    sync.WaitGroup
}

// NewMemoryBroadcaster creates a broadcaster with per-subscriber buffers of
// bufferSize, at least 1.
func NewMemoryBroadcaster[T any](bufferSize int) *MemoryBroadcaster[T] {
	return &MemoryBroadcaster[T]{
		subscribers: make(map[*subscriber[T]]struct{}),
		bufferSize:  max(bufferSize, 1),
	}
}

// Subscribe returns an already closed subscriber once the broadcaster is closed.
func (b *MemoryBroadcaster[T]) Subscribe(ctx context.Context) Subscriber[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := newSubscriber[T](b.bufferSize)
	if b.closed {
		_ = sub.Close()
		return sub
	}
	b.subscribers[sub] = struct{}{}

	if ctx.Done() != nil {
		b.watchers.Add(1)
		go func() {
			defer b.watchers.Done()
			select {
			case <-ctx.Done():
				b.unsubscribe(sub)
			case <-sub.done():
			}
		}()
	}
	return sub
}

func (b *MemoryBroadcaster[T]) Broadcast(_ context.Context, msg Message[T]) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return 0
	}

	delivered := 0
	for sub := range b.subscribers {
		if sub.send(msg) {
			delivered++
			continue
		}
		go b.unsubscribe(sub)
	}
	return delivered
}

// Len reports the number of live subscribers.
func (b *MemoryBroadcaster[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Disconnect closes every current subscriber but keeps the broadcaster open
// for new ones. It returns how many were closed.
func (b *MemoryBroadcaster[T]) Disconnect() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := len(b.subscribers)
	for sub := range b.subscribers {
		_ = sub.Close()
	}
	clear(b.subscribers)
	return n
}

// Close closes all subscribers. It is safe to call more than once.
func (b *MemoryBroadcaster[T]) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	for sub := range b.subscribers {
		_ = sub.Close()
	}
	clear(b.subscribers)
	b.mu.Unlock()

	b.watchers.Wait()
	return nil
}

func (b *MemoryBroadcaster[T]) unsubscribe(sub *subscriber[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subscribers, sub)
	_ = sub.Close()
}
