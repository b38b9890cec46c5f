package api

import (
	"context"
	"sync"
)

// gate is the process-wide rate-limit latch. It starts open and
// requests block while it is closed. The library never closes it;
// the latch exists so a limiter can be layered on without changing
// the request path.
type gate struct {
	mu   sync.Mutex
	open chan struct{}
}

func newGate() *gate {
	g := &gate{open: make(chan struct{})}
	close(g.open)
	return g
}

// wait blocks until the gate is open or the context is cancelled.
func (g *gate) wait(ctx context.Context) error {
	g.mu.Lock()
	open := g.open
	g.mu.Unlock()

	select {
	case <-open:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
