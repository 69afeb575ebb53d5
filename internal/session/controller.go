// Package session owns the capture/playback state machine that front ends drive.
//
// Concurrency model:
//   - Every state change happens on the command loop goroutine started by Run.
//     Front ends submit commands and wait for the reply; the capture and playback
//     goroutines report completion by posting commands to the same loop, so no
//     other goroutine ever writes the state.
//   - Observers are called from a separate dispatcher goroutine fed by a buffered
//     channel. A slow observer delays later notifications but never the loop's
//     own bookkeeping beyond the buffer size.
//   - Each capture attempt and each playback run carries an id. Completions with a
//     stale id are ignored, which is how a stopped run's late exit is told apart
//     from a run that failed on its own.
package session

import (
	"context"
	"fmt"
	"log"
	"sync"

	"macro/internal/input"
	"macro/internal/playback"
)

// Capturer resolves one trigger per call
type Capturer interface {
	Run(ctx context.Context) (input.Trigger, error)
}

// Player repeats a trigger until ctx is cancelled
type Player interface {
	Run(ctx context.Context, t input.Trigger, cfg playback.Config) (int, error)
}

type commandType int

const (
	cmdBeginCapture commandType = iota
	cmdToggleRun
	cmdCaptureDone
	cmdRunDone
)

// command is the message sent to the command loop. reply is nil for
// internal completions.
type command struct {
	typ          commandType
	intervalText string
	delayText    string

	id      uint64
	trigger input.Trigger
	emitted int
	err     error

	reply chan error
}

// Controller is the only component front ends talk to
type Controller struct {
	capturer  Capturer
	player    Player
	translate func(string) string

	cmdCh  chan command
	events chan Event
	done   chan struct{}

	obsMu     sync.Mutex
	observers []Observer

	snapMu sync.RWMutex
	snap   Snapshot

	// owned by the command loop
	ctx           context.Context
	state         State
	trigger       input.Trigger
	captureLabel  string
	captureID     uint64
	captureFrom   State
	cancelCapture context.CancelFunc
	runID         uint64
	cancelRun     context.CancelFunc
	runDone       chan struct{}
}

// Option configures a Controller
type Option func(*Controller)

// WithTranslator sets the function used to localize control labels
func WithTranslator(fn func(string) string) Option {
	return func(c *Controller) {
		c.translate = fn
	}
}

// WithObserver registers an observer before the controller starts
func WithObserver(o Observer) Option {
	return func(c *Controller) {
		c.observers = append(c.observers, o)
	}
}

// New creates an idle controller. Call Run to start processing commands.
func New(capturer Capturer, player Player, opts ...Option) *Controller {
	c := &Controller{
		capturer:  capturer,
		player:    player,
		translate: func(s string) string { return s },
		cmdCh:     make(chan command, 16),
		events:    make(chan Event, 64),
		done:      make(chan struct{}),
		state:     Idle,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.captureLabel = c.translate(labelSetKey)
	c.publish()
	return c
}

// Label keys, translated through the configured translator.
const (
	labelSetKey   = "Click to set the key"
	labelWaiting  = "Waiting for input..."
	labelSelected = "'%s' selected"
	labelStart    = "Start"
	labelStop     = "Stop"
)

// Observe adds an observer. Safe to call at any time.
func (c *Controller) Observe(o Observer) {
	c.obsMu.Lock()
	defer c.obsMu.Unlock()
	c.observers = append(c.observers, o)
}

// Snapshot returns the current state, trigger and control status
func (c *Controller) Snapshot() Snapshot {
	c.snapMu.RLock()
	defer c.snapMu.RUnlock()
	return c.snap
}

// State returns the current state
func (c *Controller) State() State {
	return c.Snapshot().State
}

// BeginCapture starts listening for the next key or button. Allowed from Idle
// and Armed; the previous trigger is kept until the new one resolves.
//
// If the capture fails (for example input.ErrListenerInstall), the session
// returns to the state it started from: Idle on a first capture, Armed with
// the previous trigger still usable on a re-capture. The failure is reported
// as an EventError, not through this call's return value.
func (c *Controller) BeginCapture() error {
	return c.submit(command{typ: cmdBeginCapture})
}

// ToggleRun starts playback from Armed or stops it from Running. Both texts are
// validated before anything changes; a *playback.ConfigError leaves the state
// as it was.
func (c *Controller) ToggleRun(intervalText, delayText string) error {
	return c.submit(command{typ: cmdToggleRun, intervalText: intervalText, delayText: delayText})
}

func (c *Controller) submit(cmd command) error {
	cmd.reply = make(chan error, 1)
	select {
	case c.cmdCh <- cmd:
	case <-c.done:
		return ErrClosed
	}
	select {
	case err := <-cmd.reply:
		return err
	case <-c.done:
		return ErrClosed
	}
}

// post delivers an internal completion to the loop unless it has stopped
func (c *Controller) post(cmd command) {
	select {
	case c.cmdCh <- cmd:
	case <-c.done:
	}
}

// Run processes commands until ctx is cancelled and must be called only once.
// Any capture in flight is abandoned and any playback run is cancelled and
// waited for before Run returns.
func (c *Controller) Run(ctx context.Context) error {
	c.ctx = ctx
	dispatched := make(chan struct{})
	go c.dispatch(dispatched)

	c.emit(Event{Kind: EventStatusChanged})
	log.Println("Session: controller started")

	defer func() {
		close(c.done)
		if c.cancelCapture != nil {
			c.cancelCapture()
		}
		c.stopRun()
		if c.runDone != nil {
			<-c.runDone
		}
		close(c.events)
		<-dispatched
		log.Println("Session: controller stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd := <-c.cmdCh:
			err := c.handle(cmd)
			if cmd.reply != nil {
				cmd.reply <- err
			}
		}
	}
}

func (c *Controller) handle(cmd command) error {
	switch cmd.typ {
	case cmdBeginCapture:
		return c.beginCapture()
	case cmdToggleRun:
		return c.toggleRun(cmd.intervalText, cmd.delayText)
	case cmdCaptureDone:
		c.captureDone(cmd)
	case cmdRunDone:
		c.runFinished(cmd)
	}
	return nil
}

func (c *Controller) beginCapture() error {
	if !c.state.allows(ActionBeginCapture) {
		err := invalidTransition(c.state, ActionBeginCapture)
		log.Printf("Session: %v", err)
		return err
	}

	c.captureID++
	id := c.captureID
	ctx, cancel := context.WithCancel(c.ctx)
	c.cancelCapture = cancel
	c.captureFrom = c.state

	go func() {
		t, err := c.capturer.Run(ctx)
		c.post(command{typ: cmdCaptureDone, id: id, trigger: t, err: err})
	}()

	log.Printf("Session: capture #%d started", id)
	c.setState(Capturing)
	c.emit(Event{Kind: EventStatusChanged})
	return nil
}

func (c *Controller) captureDone(cmd command) {
	if cmd.id != c.captureID || c.state != Capturing {
		log.Printf("Session: ignoring stale capture #%d", cmd.id)
		return
	}
	c.cancelCapture()
	c.cancelCapture = nil

	if cmd.err != nil {
		log.Printf("Session: capture #%d failed: %v", cmd.id, cmd.err)
		c.setState(c.captureFrom)
		c.emit(Event{Kind: EventError, Text: cmd.err.Error(), Err: cmd.err})
		c.emit(Event{Kind: EventStatusChanged})
		return
	}

	c.trigger = cmd.trigger
	c.captureLabel = fmt.Sprintf(c.translate(labelSelected), cmd.trigger.ShortName())
	c.setState(Armed)
	log.Printf("Session: trigger set to %v", cmd.trigger)
	c.emit(Event{Kind: EventTriggerResolved, Trigger: cmd.trigger, Text: cmd.trigger.Description()})
	c.emit(Event{Kind: EventStatusChanged})
}

func (c *Controller) toggleRun(intervalText, delayText string) error {
	switch c.state {
	case Armed:
		cfg, err := playback.ParseConfig(intervalText, delayText)
		if err != nil {
			log.Printf("Session: %v", err)
			c.emit(Event{Kind: EventError, Text: err.Error(), Err: err})
			return err
		}
		c.startRun(cfg)
		c.setState(Running)
		c.emit(Event{Kind: EventStatusChanged})
		return nil

	case Running:
		c.stopRun()
		c.captureLabel = c.translate(labelSetKey)
		c.setState(Armed)
		c.emit(Event{Kind: EventStatusChanged})
		return nil
	}

	err := invalidTransition(c.state, ActionToggleRun)
	log.Printf("Session: %v", err)
	return err
}

// startRun spawns the playback goroutine. A previous run is always cancelled by
// then; waiting for it keeps at most one loop alive.
func (c *Controller) startRun(cfg playback.Config) {
	if c.runDone != nil {
		<-c.runDone
	}

	c.runID++
	id := c.runID
	ctx, cancel := context.WithCancel(c.ctx)
	done := make(chan struct{})
	c.cancelRun = cancel
	c.runDone = done

	t := c.trigger
	go func() {
		n, err := c.player.Run(ctx, t, cfg)
		// done must close before posting so startRun never waits on a
		// goroutine that is itself waiting on the loop
		close(done)
		c.post(command{typ: cmdRunDone, id: id, emitted: n, err: err})
	}()
	log.Printf("Session: playback #%d started", id)
}

func (c *Controller) stopRun() {
	if c.cancelRun != nil {
		c.cancelRun()
		c.cancelRun = nil
	}
}

func (c *Controller) runFinished(cmd command) {
	log.Printf("Session: playback #%d ended after %d emissions", cmd.id, cmd.emitted)
	if cmd.id != c.runID || c.state != Running {
		return
	}

	// the loop ended without being stopped, so it failed
	c.stopRun()
	c.setState(Armed)
	if cmd.err != nil {
		c.emit(Event{Kind: EventError, Text: cmd.err.Error(), Err: cmd.err})
	}
	c.emit(Event{Kind: EventStatusChanged})
}

func (c *Controller) setState(s State) {
	if s != c.state {
		log.Printf("Session: %s -> %s", c.state, s)
	}
	c.state = s
	c.publish()
}

func (c *Controller) status() Status {
	st := Status{
		CaptureLabel: c.captureLabel,
		RunLabel:     c.translate(labelStart),
	}
	switch c.state {
	case Idle:
		st.CaptureEnabled = true
	case Capturing:
		st.CaptureLabel = c.translate(labelWaiting)
	case Armed:
		st.CaptureEnabled = true
		st.RunEnabled = true
	case Running:
		st.RunLabel = c.translate(labelStop)
		st.RunEnabled = true
	}
	return st
}

func (c *Controller) publish() {
	c.snapMu.Lock()
	c.snap = Snapshot{State: c.state, Trigger: c.trigger, Status: c.status()}
	c.snapMu.Unlock()
}

// emit stamps ev with the current state and queues it for the dispatcher
func (c *Controller) emit(ev Event) {
	ev.State = c.state
	ev.Status = c.status()
	c.events <- ev
}

func (c *Controller) dispatch(done chan struct{}) {
	defer close(done)
	for ev := range c.events {
		c.obsMu.Lock()
		observers := append([]Observer(nil), c.observers...)
		c.obsMu.Unlock()

		for _, o := range observers {
			o.Notify(ev)
		}
	}
}
