package playback

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jonboulle/clockwork"

	"macro/internal/input"
)

// Loop replays a trigger through an emitter
type Loop struct {
	emitter input.Emitter
	clock   clockwork.Clock
}

// Option configures a Loop
type Option func(*Loop)

// WithClock replaces the wall clock, mainly for tests
func WithClock(c clockwork.Clock) Option {
	return func(l *Loop) {
		l.clock = c
	}
}

// NewLoop creates a loop emitting through e
func NewLoop(e input.Emitter, opts ...Option) *Loop {
	l := &Loop{
		emitter: e,
		clock:   clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run waits the start delay, then emits the trigger once per interval until ctx
// is cancelled. Cancellation is checked before every emission, so nothing is
// emitted once ctx is done. A zero interval emits back to back.
//
// It returns the number of emissions. A cancelled run returns a nil error; an
// emitter failure stops the run and is returned.
func (l *Loop) Run(ctx context.Context, t input.Trigger, cfg Config) (int, error) {
	log.Printf("Playback: starting %v (interval %ds, delay %ds)", t, cfg.IntervalSeconds, cfg.StartDelaySeconds)

	emitted := 0
	if !l.wait(ctx, cfg.StartDelay()) {
		return emitted, nil
	}

	for {
		if ctx.Err() != nil {
			return emitted, nil
		}
		if err := l.emitter.Emit(t); err != nil {
			return emitted, fmt.Errorf("emit %v: %w", t, err)
		}
		emitted++

		if !l.wait(ctx, cfg.Interval()) {
			return emitted, nil
		}
	}
}

// wait sleeps for d and reports whether the run should continue
func (l *Loop) wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-l.clock.After(d):
		return true
	}
}
