package input

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
	"unicode"

	hook "github.com/robotn/gohook"
)

// Hook listens for global keyboard and pointer events through gohook.
//
// gohook owns a single process-wide event tap, so Hook multiplexes it: the tap is
// installed when the first listener subscribes and torn down as soon as the last
// listener returns. Create one Hook per process.
type Hook struct {
	mu      sync.Mutex
	subs    map[*subscriber]struct{}
	running bool
	stop    chan struct{}

	start   func() chan hook.Event
	end     func()
	trusted func() bool

	// installTimeout bounds the wait for the tap's HookEnabled event. gohook
	// hands back a channel even when the OS refuses the hook, so silence is
	// the only failure signal.
	installTimeout time.Duration
}

// DefaultInstallTimeout is how long a new tap may take to report it is running
const DefaultInstallTimeout = 2 * time.Second

type subscriber struct {
	ch chan hook.Event
}

// NewHook creates a listener backed by the global gohook event tap
func NewHook() *Hook {
	return &Hook{
		subs:           make(map[*subscriber]struct{}),
		start:          hook.Start,
		end:            hook.End,
		trusted:        accessibilityTrusted,
		installTimeout: DefaultInstallTimeout,
	}
}

// ListenKeyboard blocks until any key is pressed
func (h *Hook) ListenKeyboard(ctx context.Context) (Trigger, error) {
	return h.listen(ctx, keyboardTrigger)
}

// ListenPointer blocks until the left, right or middle button is pressed
func (h *Hook) ListenPointer(ctx context.Context) (Trigger, error) {
	return h.listen(ctx, pointerTrigger)
}

func (h *Hook) listen(ctx context.Context, match func(hook.Event) (Trigger, bool)) (Trigger, error) {
	sub, err := h.subscribe()
	if err != nil {
		return Trigger{}, err
	}
	defer h.unsubscribe(sub)

	for {
		select {
		case <-ctx.Done():
			return Trigger{}, ctx.Err()
		case ev, ok := <-sub.ch:
			if !ok || ev.Kind == hook.HookDisabled {
				return Trigger{}, fmt.Errorf("%w: event tap stopped", ErrListenerInstall)
			}
			if t, ok := match(ev); ok {
				return t, nil
			}
		}
	}
}

func (h *Hook) subscribe() (*subscriber, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.running {
		if !h.trusted() {
			return nil, fmt.Errorf("%w: accessibility permission not granted", ErrListenerInstall)
		}
		events := h.start()
		if events == nil {
			return nil, ErrListenerInstall
		}
		if err := h.awaitEnabled(events); err != nil {
			h.end()
			log.Printf("Input: %v", err)
			return nil, err
		}
		h.running = true
		h.stop = make(chan struct{})
		go h.pump(events, h.stop)
		log.Println("Input: global event tap installed")
	}

	sub := &subscriber{ch: make(chan hook.Event, 64)}
	h.subs[sub] = struct{}{}
	return sub, nil
}

// awaitEnabled drains the new tap until it reports HookEnabled. Events before
// that point belong to no listener and are dropped.
func (h *Hook) awaitEnabled(events chan hook.Event) error {
	timer := time.NewTimer(h.installTimeout)
	defer timer.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return fmt.Errorf("%w: event tap closed during install", ErrListenerInstall)
			}
			if ev.Kind == hook.HookEnabled {
				return nil
			}
		case <-timer.C:
			return fmt.Errorf("%w: event tap not running after %v", ErrListenerInstall, h.installTimeout)
		}
	}
}

func (h *Hook) unsubscribe(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subs[sub]; !ok {
		return
	}
	delete(h.subs, sub)

	if len(h.subs) == 0 && h.running {
		h.running = false
		close(h.stop)
		h.end()
		log.Println("Input: global event tap released")
	}
}

// pump fans tap events out to every subscriber. Slow subscribers lose events
// rather than stalling the tap.
func (h *Hook) pump(events chan hook.Event, stop chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case ev, ok := <-events:
			h.mu.Lock()
			select {
			case <-stop:
				// tap was released while this event was in flight
				h.mu.Unlock()
				return
			default:
			}
			for sub := range h.subs {
				if !ok {
					close(sub.ch)
					delete(h.subs, sub)
					continue
				}
				select {
				case sub.ch <- ev:
				default:
				}
			}
			if !ok {
				h.running = false
			}
			h.mu.Unlock()
			if !ok {
				return
			}
		}
	}
}

// keyboardTrigger accepts key presses. libuiohook reports KeyHold on press and
// KeyDown for the typed character that follows it; either one counts.
func keyboardTrigger(ev hook.Event) (Trigger, bool) {
	if ev.Kind != hook.KeyHold && ev.Kind != hook.KeyDown {
		return Trigger{}, false
	}
	name := keyName(ev)
	if name == "" {
		return Trigger{}, false
	}
	return KeyboardKey(name), true
}

func pointerTrigger(ev hook.Event) (Trigger, bool) {
	if ev.Kind != hook.MouseHold && ev.Kind != hook.MouseDown {
		return Trigger{}, false
	}
	b := buttonFromHook(ev.Button)
	if b == ButtonNone {
		return Trigger{}, false
	}
	return PointerButton(b), true
}

// buttonFromHook maps gohook's button numbering (1 left, 2 right, 3 middle)
func buttonFromHook(b uint16) Button {
	switch b {
	case 1:
		return ButtonLeft
	case 2:
		return ButtonRight
	case 3:
		return ButtonMiddle
	}
	return ButtonNone
}

func keyName(ev hook.Event) string {
	if name := hook.RawcodetoKeychar(ev.Rawcode); name != "" {
		return name
	}
	if ev.Keychar != 0 && unicode.IsPrint(ev.Keychar) {
		return string(unicode.ToLower(ev.Keychar))
	}
	if ev.Rawcode != 0 {
		return fmt.Sprintf("raw%d", ev.Rawcode)
	}
	return ""
}
