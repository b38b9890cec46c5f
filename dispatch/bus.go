// Package dispatch implements the client event bus: named events are
// routed to one-shot waiters with predicates and to persistent
// handlers, each handler invocation running as a supervised
// background goroutine.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ErrWaitTimeout is returned by WaitFor when the timeout elapses
// before a matching event arrives.
var ErrWaitTimeout = errors.New("timed out waiting for event")

// HandlerFunc is a persistent subscriber invoked on every occurrence
// of its event. Returned errors are forwarded to the error hook.
type HandlerFunc func(args ...any) error

// CheckFunc decides whether an event payload satisfies a waiter.
type CheckFunc func(args ...any) bool

// ErrorHook receives errors and recovered panics from handlers.
type ErrorHook func(event string, err error, args ...any)

type waitResult struct {
	value any
	err   error
}

// waiter is a one-shot subscriber awaiting a single matching event.
type waiter struct {
	ctx    context.Context
	check  CheckFunc
	result chan waitResult
}

// Bus routes named events. Event names are case-insensitive.
type Bus struct {
	mu       sync.Mutex
	waiters  map[string][]*waiter
	handlers map[string]HandlerFunc

	// Internal hooks run synchronously before user handlers.
	internal map[string]func()

	onError ErrorHook
	wg      sync.WaitGroup

	ready     chan struct{}
	readyOnce sync.Once

	logger zerolog.Logger
}

// Option configures a Bus.
type Option func(*Bus)

// WithErrorHook overrides the default error hook, which only logs.
func WithErrorHook(hook ErrorHook) Option {
	return func(b *Bus) {
		b.onError = hook
	}
}

// NewBus creates an event bus with the readiness latch wired in.
func NewBus(logger zerolog.Logger, opts ...Option) *Bus {
	b := &Bus{
		waiters:  make(map[string][]*waiter),
		handlers: make(map[string]HandlerFunc),
		ready:    make(chan struct{}),
		logger:   logger,
	}
	b.internal = map[string]func(){
		"ready": b.markReady,
	}
	b.onError = func(event string, err error, args ...any) {
		b.logger.Error().Err(err).Str("event", event).Msg("Ignoring exception in event handler")
	}

	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Handle registers the persistent handler for an event, replacing any
// previous one.
func (b *Bus) Handle(event string, fn HandlerFunc) {
	name := strings.ToLower(event)
	b.mu.Lock()
	b.handlers[name] = fn
	b.mu.Unlock()
	b.logger.Debug().Str("event", name).Msg("Event handler registered")
}

// WaitFor blocks until an event matching check is dispatched, the
// timeout elapses, or ctx is cancelled. A nil check matches any
// payload. A zero timeout waits indefinitely. The resolved value is
// nil for empty payloads, the single value for one-element payloads,
// and an []any for larger ones.
func (b *Bus) WaitFor(ctx context.Context, event string, check CheckFunc, timeout time.Duration) (any, error) {
	if check == nil {
		check = func(...any) bool { return true }
	}

	waitCtx := ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		waitCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	w := &waiter{
		ctx:    waitCtx,
		check:  check,
		result: make(chan waitResult, 1),
	}

	name := strings.ToLower(event)
	b.mu.Lock()
	b.waiters[name] = append(b.waiters[name], w)
	b.mu.Unlock()

	select {
	case res := <-w.result:
		return res.value, res.err
	case <-waitCtx.Done():
		// The waiter stays registered; the next dispatch drops it.
		if ctx.Err() == nil && errors.Is(waitCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s", ErrWaitTimeout, name)
		}
		return nil, waitCtx.Err()
	}
}

// Dispatch delivers an event: pending waiters are resolved in
// registration order, then the persistent handler runs as an
// independent supervised goroutine.
func (b *Bus) Dispatch(event string, args ...any) {
	name := strings.ToLower(event)
	b.logger.Debug().Str("event", name).Int("args", len(args)).Msg("Dispatching event")

	b.mu.Lock()
	pending := b.waiters[name]
	var kept []*waiter
	for _, w := range pending {
		if w.ctx.Err() != nil {
			continue // cancelled waiter, drop silently
		}

		matched, err := runCheck(w.check, args)
		switch {
		case err != nil:
			b.logger.Error().Err(err).Str("event", name).Msg("Error in waiter predicate")
			w.result <- waitResult{err: err}
		case matched:
			w.result <- waitResult{value: payloadValue(args)}
		default:
			kept = append(kept, w)
		}
	}
	if len(kept) > 0 {
		b.waiters[name] = kept
	} else {
		delete(b.waiters, name)
	}
	internal := b.internal[name]
	handler := b.handlers[name]
	b.mu.Unlock()

	if internal != nil {
		internal()
	}

	if handler != nil {
		b.wg.Add(1)
		go b.runHandler(name, handler, args)
	}
}

// runHandler runs one handler invocation, containing its errors and
// panics so they never reach the dispatcher.
func (b *Bus) runHandler(event string, fn HandlerFunc, args []any) {
	defer b.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			b.callErrorHook(event, fmt.Errorf("panic in handler: %v", r), args)
		}
	}()

	if err := fn(args...); err != nil {
		b.callErrorHook(event, err, args)
	}
}

// callErrorHook invokes the error hook, swallowing its own panics.
func (b *Bus) callErrorHook(event string, err error, args []any) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error().Str("event", event).Interface("panic", r).Msg("Panic in error hook")
		}
	}()
	b.onError(event, err, args...)
}

// runCheck evaluates a waiter predicate, converting panics to errors.
func runCheck(check CheckFunc, args []any) (matched bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in waiter predicate: %v", r)
		}
	}()
	return check(args...), nil
}

func payloadValue(args []any) any {
	switch len(args) {
	case 0:
		return nil
	case 1:
		return args[0]
	default:
		out := make([]any, len(args))
		copy(out, args)
		return out
	}
}

func (b *Bus) markReady() {
	b.readyOnce.Do(func() {
		close(b.ready)
		b.logger.Debug().Msg("Ready event triggered")
	})
}

// IsReady reports whether the readiness flag has been set.
func (b *Bus) IsReady() bool {
	select {
	case <-b.ready:
		return true
	default:
		return false
	}
}

// WaitUntilReady blocks until the readiness flag is set or ctx is
// cancelled.
func (b *Bus) WaitUntilReady(ctx context.Context) error {
	select {
	case <-b.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close waits for all in-flight handler goroutines to finish.
func (b *Bus) Close() {
	b.wg.Wait()
}
