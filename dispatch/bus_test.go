package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadinessFlagIsIdempotent(t *testing.T) {
	b := NewBus(zerolog.Nop())
	assert.False(t, b.IsReady())

	// A caller waiting before the event must resolve after it.
	done := make(chan error, 1)
	go func() {
		done <- b.WaitUntilReady(context.Background())
	}()

	b.Dispatch("ready")
	require.NoError(t, <-done)
	assert.True(t, b.IsReady())

	// Waiting after the event resolves immediately, and a second
	// dispatch is harmless.
	b.Dispatch("ready")
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	require.NoError(t, b.WaitUntilReady(ctx))
}

func TestWaitForResolvesFirstMatch(t *testing.T) {
	b := NewBus(zerolog.Nop())

	type result struct {
		value any
		err   error
	}
	resCh := make(chan result, 1)

	go func() {
		check := func(args ...any) bool {
			return args[0].(int) > 5
		}
		v, err := b.WaitFor(context.Background(), "x", check, 2*time.Second)
		resCh <- result{v, err}
	}()

	require.Eventually(t, func() bool {
		b.mu.Lock()
		defer b.mu.Unlock()
		return len(b.waiters["x"]) == 1
	}, time.Second, time.Millisecond)

	b.Dispatch("x", 3)
	b.Dispatch("x", 7)

	res := <-resCh
	require.NoError(t, res.err)
	assert.Equal(t, 7, res.value)
}

func TestWaitForTimeout(t *testing.T) {
	b := NewBus(zerolog.Nop())
	_, err := b.WaitFor(context.Background(), "never", nil, 20*time.Millisecond)
	assert.ErrorIs(t, err, ErrWaitTimeout)
}

func TestWaitForPayloadShapes(t *testing.T) {
	b := NewBus(zerolog.Nop())

	wait := func(event string) (any, error) {
		ch := make(chan struct{})
		var v any
		var err error
		go func() {
			defer close(ch)
			v, err = b.WaitFor(context.Background(), event, nil, time.Second)
		}()
		require.Eventually(t, func() bool {
			b.mu.Lock()
			defer b.mu.Unlock()
			return len(b.waiters[event]) == 1
		}, time.Second, time.Millisecond)
		switch event {
		case "empty":
			b.Dispatch(event)
		case "single":
			b.Dispatch(event, "hello")
		default:
			b.Dispatch(event, 1, 2, 3)
		}
		<-ch
		return v, err
	}

	v, err := wait("empty")
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = wait("single")
	require.NoError(t, err)
	assert.Equal(t, "hello", v)

	v, err = wait("tuple")
	require.NoError(t, err)
	assert.Equal(t, []any{1, 2, 3}, v)
}

func TestWaitForEventNamesCaseInsensitive(t *testing.T) {
	b := NewBus(zerolog.Nop())

	ch := make(chan any, 1)
	go func() {
		v, _ := b.WaitFor(context.Background(), "Letter_Received", nil, time.Second)
		ch <- v
	}()
	require.Eventually(t, func() bool {
		b.mu.Lock()
		defer b.mu.Unlock()
		return len(b.waiters["letter_received"]) == 1
	}, time.Second, time.Millisecond)

	b.Dispatch("LETTER_RECEIVED", 99)
	assert.Equal(t, 99, <-ch)
}

func TestCancelledWaiterIsDroppedOnDispatch(t *testing.T) {
	b := NewBus(zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := b.WaitFor(ctx, "x", nil, 0)
		done <- err
	}()
	require.Eventually(t, func() bool {
		b.mu.Lock()
		defer b.mu.Unlock()
		return len(b.waiters["x"]) == 1
	}, time.Second, time.Millisecond)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	// The cancelled waiter is still registered until the next
	// dispatch silently removes it.
	b.Dispatch("x", 1)
	b.mu.Lock()
	remaining := len(b.waiters["x"])
	b.mu.Unlock()
	assert.Zero(t, remaining)
}

func TestWaiterPredicatePanicFailsThatWaiter(t *testing.T) {
	b := NewBus(zerolog.Nop())

	bad := make(chan error, 1)
	good := make(chan any, 1)

	go func() {
		_, err := b.WaitFor(context.Background(), "x", func(args ...any) bool {
			panic("boom")
		}, time.Second)
		bad <- err
	}()
	go func() {
		v, _ := b.WaitFor(context.Background(), "x", nil, time.Second)
		good <- v
	}()
	require.Eventually(t, func() bool {
		b.mu.Lock()
		defer b.mu.Unlock()
		return len(b.waiters["x"]) == 2
	}, time.Second, time.Millisecond)

	b.Dispatch("x", 42)

	err := <-bad
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic in waiter predicate")
	assert.Equal(t, 42, <-good)
}

func TestHandlerRunsInBackground(t *testing.T) {
	b := NewBus(zerolog.Nop())

	var mu sync.Mutex
	var got []any
	b.Handle("letter", func(args ...any) error {
		mu.Lock()
		got = append(got, args...)
		mu.Unlock()
		return nil
	})

	b.Dispatch("letter", "hi")
	b.Close()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []any{"hi"}, got)
}

func TestHandlerErrorsAreContained(t *testing.T) {
	b := NewBus(zerolog.Nop())

	var mu sync.Mutex
	var hookEvents []string
	var hookErrs []error
	b.onError = func(event string, err error, args ...any) {
		mu.Lock()
		hookEvents = append(hookEvents, event)
		hookErrs = append(hookErrs, err)
		mu.Unlock()
	}

	b.Handle("fails", func(args ...any) error {
		return errors.New("handler broke")
	})
	b.Handle("panics", func(args ...any) error {
		panic("handler panicked")
	})

	b.Dispatch("fails")
	b.Dispatch("panics")
	b.Close()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, hookErrs, 2)
	assert.ElementsMatch(t, []string{"fails", "panics"}, hookEvents)
}

func TestErrorHookPanicIsSwallowed(t *testing.T) {
	b := NewBus(zerolog.Nop(), WithErrorHook(func(event string, err error, args ...any) {
		panic("hook broke too")
	}))
	b.Handle("x", func(args ...any) error {
		return errors.New("nope")
	})

	// Must not panic.
	b.Dispatch("x")
	b.Close()
}

func TestSlowHandlerDoesNotBlockDispatch(t *testing.T) {
	b := NewBus(zerolog.Nop())

	release := make(chan struct{})
	started := make(chan struct{}, 2)
	b.Handle("slow", func(args ...any) error {
		started <- struct{}{}
		<-release
		return nil
	})

	b.Dispatch("slow")
	b.Dispatch("slow")

	// Both invocations run concurrently even though the first never
	// finished.
	for i := 0; i < 2; i++ {
		select {
		case <-started:
		case <-time.After(time.Second):
			t.Fatal("handler invocation blocked")
		}
	}
	close(release)
	b.Close()
}
