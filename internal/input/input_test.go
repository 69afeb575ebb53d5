package input

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	hook "github.com/robotn/gohook"
)

// TestTriggerDescription tests the labels shown when a trigger resolves
func TestTriggerDescription(t *testing.T) {
	cases := []struct {
		trigger Trigger
		desc    string
		short   string
	}{
		{PointerButton(ButtonLeft), "left mouse click", "left mouse"},
		{PointerButton(ButtonRight), "right mouse click", "right mouse"},
		{PointerButton(ButtonMiddle), "middle mouse click", "middle mouse"},
		{KeyboardKey("a"), "a", "a"},
		{KeyboardKey("space"), "space", "space"},
	}

	for _, c := range cases {
		if got := c.trigger.Description(); got != c.desc {
			t.Errorf("Expected description '%s', got '%s'", c.desc, got)
		}
		if got := c.trigger.ShortName(); got != c.short {
			t.Errorf("Expected short name '%s', got '%s'", c.short, got)
		}
	}
}

// TestTriggerValueIdentity tests that triggers compare by value
func TestTriggerValueIdentity(t *testing.T) {
	if KeyboardKey("q") != KeyboardKey("q") {
		t.Error("Expected equal keyboard triggers to compare equal")
	}
	if PointerButton(ButtonLeft) == PointerButton(ButtonRight) {
		t.Error("Expected different buttons to compare unequal")
	}
	if KeyboardKey("left") == PointerButton(ButtonLeft) {
		t.Error("Expected key named 'left' to differ from the left button")
	}
	if !(Trigger{}).IsZero() {
		t.Error("Expected zero trigger to report IsZero")
	}
}

// TestParseButton tests button name parsing
func TestParseButton(t *testing.T) {
	b, err := ParseButton("Center")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if b != ButtonMiddle {
		t.Errorf("Expected ButtonMiddle, got %v", b)
	}

	if _, err := ParseButton("mouse4"); !errors.Is(err, ErrUnknownButton) {
		t.Errorf("Expected ErrUnknownButton, got %v", err)
	}
}

// fakeTap mimics gohook: start always hands back a channel, and a working tap
// announces itself with HookEnabled. A silent tap is what a refused OS hook
// looks like.
type fakeTap struct {
	mu     sync.Mutex
	events chan hook.Event
	starts int
	ends   int
	silent bool
}

func (f *fakeTap) start() chan hook.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	f.events = make(chan hook.Event, 16)
	if !f.silent {
		f.events <- hook.Event{Kind: hook.MouseMove}
		f.events <- hook.Event{Kind: hook.HookEnabled}
	}
	return f.events
}

func (f *fakeTap) end() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ends++
}

func (f *fakeTap) send(ev hook.Event) {
	f.mu.Lock()
	ch := f.events
	f.mu.Unlock()
	ch <- ev
}

func (f *fakeTap) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts, f.ends
}

func newTestHook(tap *fakeTap) *Hook {
	h := NewHook()
	h.start = tap.start
	h.end = tap.end
	h.trusted = func() bool { return true }
	h.installTimeout = 100 * time.Millisecond
	return h
}

// waitSubscribers polls until the hook has n listeners attached
func waitSubscribers(t *testing.T, h *Hook, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		h.mu.Lock()
		got := len(h.subs)
		h.mu.Unlock()
		if got == n {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("Expected %d subscribers", n)
}

// TestHookPointerPress tests that only tracked buttons resolve a pointer listen
func TestHookPointerPress(t *testing.T) {
	tap := &fakeTap{}
	h := newTestHook(tap)

	result := make(chan Trigger, 1)
	go func() {
		tr, err := h.ListenPointer(context.Background())
		if err != nil {
			t.Errorf("Unexpected error: %v", err)
		}
		result <- tr
	}()

	waitSubscribers(t, h, 1)
	tap.send(hook.Event{Kind: hook.MouseMove})
	tap.send(hook.Event{Kind: hook.MouseHold, Button: 5})
	tap.send(hook.Event{Kind: hook.KeyHold, Rawcode: hook.KeychartoRawcode("a")})
	tap.send(hook.Event{Kind: hook.MouseHold, Button: 2})

	select {
	case tr := <-result:
		if tr != PointerButton(ButtonRight) {
			t.Errorf("Expected right button, got %v", tr)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Pointer listener did not resolve")
	}

	waitSubscribers(t, h, 0)
	if starts, ends := tap.counts(); starts != 1 || ends != 1 {
		t.Errorf("Expected tap installed and released once, got %d/%d", starts, ends)
	}
}

// TestHookKeyboardPress tests that key names come from the raw code table
func TestHookKeyboardPress(t *testing.T) {
	tap := &fakeTap{}
	h := newTestHook(tap)

	result := make(chan Trigger, 1)
	go func() {
		tr, _ := h.ListenKeyboard(context.Background())
		result <- tr
	}()

	waitSubscribers(t, h, 1)
	tap.send(hook.Event{Kind: hook.MouseHold, Button: 1})
	tap.send(hook.Event{Kind: hook.KeyHold, Rawcode: hook.KeychartoRawcode("a")})

	select {
	case tr := <-result:
		if tr != KeyboardKey("a") {
			t.Errorf("Expected key 'a', got %v", tr)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Keyboard listener did not resolve")
	}
}

// TestHookSharedTap tests that both listeners share one tap and release it together
func TestHookSharedTap(t *testing.T) {
	tap := &fakeTap{}
	h := newTestHook(tap)
	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for _, listen := range []func(context.Context) (Trigger, error){h.ListenKeyboard, h.ListenPointer} {
		wg.Add(1)
		go func(listen func(context.Context) (Trigger, error)) {
			defer wg.Done()
			_, err := listen(ctx)
			errs <- err
		}(listen)
	}

	waitSubscribers(t, h, 2)
	if starts, _ := tap.counts(); starts != 1 {
		t.Errorf("Expected a single tap install, got %d", starts)
	}

	cancel()
	wg.Wait()
	close(errs)
	for err := range errs {
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
	}
	if _, ends := tap.counts(); ends != 1 {
		t.Errorf("Expected tap released once, got %d", ends)
	}
}

// TestHookInstallFailure tests that a tap which never reports HookEnabled
// fails the listen and is torn down
func TestHookInstallFailure(t *testing.T) {
	tap := &fakeTap{silent: true}
	h := newTestHook(tap)

	errCh := make(chan error, 1)
	go func() {
		_, err := h.ListenKeyboard(context.Background())
		errCh <- err
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, ErrListenerInstall) {
			t.Errorf("Expected ErrListenerInstall, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Listener blocked on a tap that never started")
	}

	if starts, ends := tap.counts(); starts != 1 || ends != 1 {
		t.Errorf("Expected failed tap to be ended, got %d/%d", starts, ends)
	}
	h.mu.Lock()
	leftover := h.running || len(h.subs) != 0
	h.mu.Unlock()
	if leftover {
		t.Error("Expected no tap state after failed install")
	}

	// a later attempt tries a fresh install
	tap.mu.Lock()
	tap.silent = false
	tap.mu.Unlock()
	go func() {
		_, err := h.ListenPointer(context.Background())
		errCh <- err
	}()
	waitSubscribers(t, h, 1)
	tap.send(hook.Event{Kind: hook.MouseHold, Button: 1})
	if err := <-errCh; err != nil {
		t.Errorf("Expected retry to succeed, got %v", err)
	}
}

// TestHookUntrusted tests that a missing accessibility grant fails before installing
func TestHookUntrusted(t *testing.T) {
	tap := &fakeTap{}
	h := newTestHook(tap)
	h.trusted = func() bool { return false }

	if _, err := h.ListenPointer(context.Background()); !errors.Is(err, ErrListenerInstall) {
		t.Errorf("Expected ErrListenerInstall, got %v", err)
	}
	if starts, _ := tap.counts(); starts != 0 {
		t.Errorf("Expected no install attempt, got %d", starts)
	}
}

// TestHookDisabled tests that a tap torn down by the OS aborts the listen
func TestHookDisabled(t *testing.T) {
	tap := &fakeTap{}
	h := newTestHook(tap)

	errCh := make(chan error, 1)
	go func() {
		_, err := h.ListenPointer(context.Background())
		errCh <- err
	}()

	waitSubscribers(t, h, 1)
	tap.send(hook.Event{Kind: hook.HookDisabled})

	select {
	case err := <-errCh:
		if !errors.Is(err, ErrListenerInstall) {
			t.Errorf("Expected ErrListenerInstall, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Listener did not abort")
	}
}
