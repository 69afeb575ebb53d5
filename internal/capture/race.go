// Package capture resolves a single trigger from whichever input channel fires first.
package capture

import (
	"context"
	"errors"
	"log"
	"sync"

	"macro/internal/input"
)

// guard is the single-write "resolved" flag shared by both listeners of one race
type guard struct {
	mu       sync.Mutex
	resolved bool
}

// claim returns true for exactly one caller
func (g *guard) claim() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.resolved {
		return false
	}
	g.resolved = true
	return true
}

type outcome struct {
	trigger input.Trigger
	err     error
}

// Race listens on the keyboard and the pointer at the same time and keeps the
// first result. Each call to Run is an independent race with its own guard.
type Race struct {
	listener  input.Listener
	onDiscard func(input.Trigger, error)
}

// Option configures a Race
type Option func(*Race)

// WithDiscardHook registers a callback invoked for each result that lost the race
func WithDiscardHook(fn func(input.Trigger, error)) Option {
	return func(r *Race) {
		r.onDiscard = fn
	}
}

// New creates a race over the given listener
func New(l input.Listener, opts ...Option) *Race {
	r := &Race{listener: l}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run blocks until one channel produces a trigger or fails, or ctx ends.
//
// The winner is whoever claims the guard first, not whichever event carries the
// earlier timestamp. When Run returns, the race context is cancelled so the
// losing listener releases its hook; its result, if it still arrives, is dropped.
func (r *Race) Run(ctx context.Context) (input.Trigger, error) {
	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g := &guard{}
	won := make(chan outcome, 1)

	listen := func(name string, fn func(context.Context) (input.Trigger, error)) {
		t, err := fn(raceCtx)
		if err != nil && raceCtx.Err() != nil && errors.Is(err, raceCtx.Err()) {
			return
		}
		if !g.claim() {
			log.Printf("Capture: discarding late %s result %v", name, t)
			if r.onDiscard != nil {
				r.onDiscard(t, err)
			}
			return
		}
		won <- outcome{trigger: t, err: err}
	}

	go listen("keyboard", r.listener.ListenKeyboard)
	go listen("pointer", r.listener.ListenPointer)

	select {
	case o := <-won:
		if o.err != nil {
			log.Printf("Capture: aborted: %v", o.err)
			return input.Trigger{}, o.err
		}
		log.Printf("Capture: resolved %v", o.trigger)
		return o.trigger, nil
	case <-ctx.Done():
		return input.Trigger{}, ctx.Err()
	}
}
