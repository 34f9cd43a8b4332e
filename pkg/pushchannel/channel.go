package pushchannel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/notifystream/pkg/logger"
	"github.com/dmitrymomot/notifystream/pkg/sse"
	"github.com/dmitrymomot/notifystream/pkg/statemachine"
)

// Handler receives decoded events. ctx is cancelled once the channel stops.
type Handler[T any] func(ctx context.Context, msg T)

// Channel keeps a push connection open, decodes each event into T and hands
// it to the registered handler. Dropped connections are retried up to the
// configured limit, after which the channel stays in Failed until Start is
// called again.
//
// Every callback carries the session generation it was created for; a
// callback from an older session is ignored.
type Channel[T any] struct {
	settings
	transport Transport
	log       *slog.Logger

	mu          sync.Mutex
	sm          *statemachine.Machine[State, trigger]
	gen         uint64
	endpoint    string
	lastEventID string
	retries     int
	handler     Handler[T]
	handlerSeq  uint64
	timer       Timer
	stream      Stream
	cancel      context.CancelFunc
	stopWatch   func() bool
	effects     []func()
}

// New creates a disconnected channel on top of transport.
func New[T any](transport Transport, opts ...Option) *Channel[T] {
	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}

	c := &Channel[T]{
		settings:  s,
		transport: transport,
		log:       s.logger.With(logger.Component("pushchannel")),
	}
	c.sm = newLifecycle(c.recordTransition)
	c.metrics.setState(Disconnected)
	return c
}

// NewFromConfig creates a channel from environment-driven settings.
// Explicit opts override the config.
func NewFromConfig[T any](cfg Config, transport Transport, opts ...Option) *Channel[T] {
	return New[T](transport, append(cfg.Options(), opts...)...)
}

// Start connects to endpoint. It does nothing when the page guard rejects
// ctx or when the channel is already connecting, open or waiting to retry.
// From Disconnected or Failed the retry counter starts over. The channel
// runs until Stop is called or ctx is cancelled.
func (c *Channel[T]) Start(ctx context.Context, endpoint string) error {
	if endpoint == "" {
		return ErrEndpointRequired
	}
	if c.guard != nil && !c.guard(ctx) {
		c.log.DebugContext(ctx, "push channel disabled for current page")
		return nil
	}

	c.mu.Lock()
	defer c.unlock()

	switch c.sm.Current() {
	case Connecting, Open, Retrying:
		return nil
	}

	c.gen++
	gen := c.gen
	runCtx, cancel := context.WithCancel(logger.WithAttrs(ctx, logger.Endpoint(endpoint), logger.Connection(gen)))
	c.cancel = cancel
	c.stopWatch = context.AfterFunc(runCtx, func() { c.halt(gen) })

	if endpoint != c.endpoint {
		c.lastEventID = ""
	}
	c.endpoint = endpoint
	c.retries = 0

	c.fire(runCtx, triggerStart, nil)
	c.log.InfoContext(runCtx, "opening push connection")
	c.launchLocked(runCtx, gen)
	return nil
}

// OnEvent registers the handler for decoded events, replacing any previous
// one. The returned func removes it unless it has been replaced since.
func (c *Channel[T]) OnEvent(h Handler[T]) (unsubscribe func()) {
	c.mu.Lock()
	c.handlerSeq++
	seq := c.handlerSeq
	c.handler = h
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.handlerSeq == seq {
			c.handler = nil
		}
	}
}

// Stop closes the connection, cancels any pending reconnect and moves the
// channel to Disconnected. It is safe to call from any state and from
// within a handler.
func (c *Channel[T]) Stop() {
	c.mu.Lock()
	defer c.unlock()
	c.haltLocked(context.Background())
}

// State reports the current lifecycle state.
func (c *Channel[T]) State() State {
	return c.sm.Current()
}

// RetryCount is the number of reconnects since the last successful open.
func (c *Channel[T]) RetryCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.retries
}

// LastEventID is the most recent event id received on any connection.
func (c *Channel[T]) LastEventID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastEventID
}

func (c *Channel[T]) connect(ctx context.Context, gen uint64, endpoint, lastEventID string) {
	c.metrics.attempt()
	stream, err := c.transport.Connect(ctx, endpoint, lastEventID)

	c.mu.Lock()
	if gen != c.gen || c.sm.Current() != Connecting {
		c.mu.Unlock()
		if stream != nil {
			_ = stream.Close()
		}
		return
	}

	if err != nil {
		c.metrics.drop()
		if errors.Is(err, ErrUnauthorized) {
			c.fire(ctx, triggerAuthRejected, nil)
			c.releaseLocked()
			c.log.WarnContext(ctx, "push connection rejected, authentication required", logger.Error(err))
			if hook := c.onAuth; hook != nil {
				hctx := context.WithoutCancel(ctx)
				c.effects = append(c.effects, func() { hook(hctx, err) })
			}
			c.unlock()
			return
		}
		c.log.WarnContext(ctx, "push connection failed", logger.Error(err))
		c.retryOrFailLocked(ctx, gen, err)
		c.unlock()
		return
	}

	c.stream = stream
	c.retries = 0
	c.fire(ctx, triggerOpened, nil)
	c.log.InfoContext(ctx, "push connection open")
	c.unlock()

	c.read(ctx, gen, stream)
}

func (c *Channel[T]) read(ctx context.Context, gen uint64, stream Stream) {
	for {
		msg, err := stream.Next()
		if err != nil {
			c.dropped(ctx, gen, stream, err)
			return
		}

		if msg.Type != "" && msg.Type != sse.DefaultEventType {
			c.log.DebugContext(ctx, "ignoring named event", logger.EventType(msg.Type), logger.EventID(msg.ID))
			continue
		}

		var v T
		if err := c.decode(msg.Data, &v); err != nil {
			c.metrics.decodeFailure()
			c.log.WarnContext(ctx, "discarding event",
				logger.EventID(msg.ID), logger.Error(fmt.Errorf("%w: %w", ErrDecode, err)))
			continue
		}

		c.mu.Lock()
		if gen != c.gen {
			c.mu.Unlock()
			return
		}
		c.lastEventID = stream.LastEventID()
		h := c.handler
		c.mu.Unlock()

		if h != nil {
			c.metrics.deliver()
			h(ctx, v)
		}
	}
}

func (c *Channel[T]) dropped(ctx context.Context, gen uint64, stream Stream, cause error) {
	c.mu.Lock()
	defer c.unlock()

	if gen != c.gen {
		return
	}
	c.lastEventID = stream.LastEventID()
	_ = stream.Close()
	c.stream = nil
	c.metrics.drop()
	c.log.WarnContext(ctx, "push connection lost", logger.Error(cause))
	c.retryOrFailLocked(ctx, gen, cause)
}

// retryOrFailLocked must be called with c.mu held after a failed attempt.
func (c *Channel[T]) retryOrFailLocked(ctx context.Context, gen uint64, cause error) {
	if ctx.Err() != nil {
		c.haltLocked(ctx)
		return
	}

	next, ok := c.fire(ctx, triggerDropped, retryBudget{used: c.retries, max: c.maxRetries})
	if !ok {
		return
	}

	switch next {
	case Retrying:
		c.retries++
		delay := c.backoff.NextInterval(c.retries)
		c.log.InfoContext(ctx, "scheduling reconnect",
			logger.RetryCount(c.retries), logger.MaxRetries(c.maxRetries), logger.Delay(delay))
		c.effects = append(c.effects, func() { c.schedule(ctx, gen, delay) })

	case Failed:
		c.releaseLocked()
		c.log.ErrorContext(ctx, "push connection abandoned",
			logger.RetryCount(c.retries), logger.MaxRetries(c.maxRetries), logger.Error(cause))
		if hook := c.onFailure; hook != nil {
			err := fmt.Errorf("%w: %w", ErrRetriesExhausted, cause)
			hctx := context.WithoutCancel(ctx)
			c.effects = append(c.effects, func() { hook(hctx, err) })
		}
	}
}

// schedule arms the reconnect timer unless the session moved on meanwhile.
func (c *Channel[T]) schedule(ctx context.Context, gen uint64, delay time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen || c.sm.Current() != Retrying || c.timer != nil {
		return
	}
	c.timer = c.clock.AfterFunc(delay, func() { c.reconnect(ctx, gen) })
}

func (c *Channel[T]) reconnect(ctx context.Context, gen uint64) {
	c.mu.Lock()
	defer c.unlock()

	if gen != c.gen || c.sm.Current() != Retrying {
		return
	}
	c.timer = nil

	if c.guard != nil && !c.guard(ctx) {
		c.fire(ctx, triggerExcluded, nil)
		c.releaseLocked()
		c.log.InfoContext(ctx, "reconnect abandoned, page excluded")
		return
	}

	c.fire(ctx, triggerReconnect, nil)
	c.launchLocked(ctx, gen)
}

// launchLocked queues a connection attempt to run once the lock is released,
// after the state hooks of the current transition.
func (c *Channel[T]) launchLocked(ctx context.Context, gen uint64) {
	endpoint, lastEventID := c.endpoint, c.lastEventID
	c.effects = append(c.effects, func() { go c.connect(ctx, gen, endpoint, lastEventID) })
}

func (c *Channel[T]) halt(gen uint64) {
	c.mu.Lock()
	defer c.unlock()

	if gen != c.gen {
		return
	}
	c.log.Info("push channel context done")
	c.haltLocked(context.Background())
}

func (c *Channel[T]) haltLocked(ctx context.Context) {
	c.gen++
	c.releaseLocked()
	if c.sm.Current() != Disconnected {
		c.fire(ctx, triggerStop, nil)
	}
}

func (c *Channel[T]) releaseLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if c.stopWatch != nil {
		c.stopWatch()
		c.stopWatch = nil
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if c.stream != nil {
		_ = c.stream.Close()
		c.stream = nil
	}
}

// fire must be called with c.mu held.
func (c *Channel[T]) fire(ctx context.Context, t trigger, data any) (State, bool) {
	next, err := c.sm.Fire(ctx, t, data)
	if err != nil {
		c.log.DebugContext(ctx, "transition ignored",
			logger.State(next), slog.String("trigger", string(t)), logger.Error(err))
		return next, false
	}
	return next, true
}

func (c *Channel[T]) recordTransition(ctx context.Context, from, to State, t trigger, _ any) error {
	c.metrics.setState(to)
	c.log.DebugContext(ctx, "state changed", logger.Transition(from, to), slog.String("trigger", string(t)))
	if hook := c.onState; hook != nil {
		c.effects = append(c.effects, func() { hook(from, to) })
	}
	return nil
}

// unlock releases c.mu and then runs the effects queued while it was held,
// in order.
func (c *Channel[T]) unlock() {
	effects := c.effects
	c.effects = nil
	c.mu.Unlock()

	for _, fn := range effects {
		fn()
	}
}
