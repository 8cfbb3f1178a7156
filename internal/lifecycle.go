package internal

import (
	"context"
	"sync"
)

// Gate guards a single restartable background loop. Unlike a one-shot
// start/stop (errors on a redundant transition), Gate is idempotent: a
// second Start or Stop is a silent no-op, and a loop stopped once can be
// started again. This matches the restart semantics a Worker needs (a
// Queue's stop/start cycle resumes its Workers) that a strict CAS-once
// lifecycle cannot express.
type Gate struct {
	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// Start launches run in a new goroutine with a cancellable context derived
// from parent, unless the gate is already running. It reports whether it
// actually started the loop.
func (g *Gate) Start(parent context.Context, run func(ctx context.Context)) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running {
		return false
	}
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})
	g.running = true
	g.cancel = cancel
	g.done = done
	go func() {
		defer close(done)
		run(ctx)
	}()
	return true
}

// Stop cancels the running loop and waits for it to exit. It is a no-op if
// the gate is not running.
func (g *Gate) Stop() {
	g.mu.Lock()
	if !g.running {
		g.mu.Unlock()
		return
	}
	g.running = false
	cancel := g.cancel
	done := g.done
	g.mu.Unlock()

	cancel()
	<-done
}

// Running reports whether the loop is currently active.
func (g *Gate) Running() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.running
}
