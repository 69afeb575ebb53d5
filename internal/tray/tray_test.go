package tray

import (
	"testing"

	"macro/internal/input"
	"macro/internal/session"
)

type fakeControls struct {
	captures int
	toggles  [][2]string
}

func (f *fakeControls) BeginCapture() error {
	f.captures++
	return nil
}

func (f *fakeControls) ToggleRun(interval, delay string) error {
	f.toggles = append(f.toggles, [2]string{interval, delay})
	return nil
}

func TestStateBeforeReady(t *testing.T) {
	tr := New("Macro")
	id := tr.AddMenuItem("Start", nil)

	tr.SetItemTitle(id, "Stop")
	tr.SetItemEnabled(id, false)
	tr.SetTooltip("Macro: a")

	item, ok := tr.Item(id)
	if !ok {
		t.Fatal("Expected item to exist")
	}
	if item.Title != "Stop" {
		t.Errorf("Expected title 'Stop', got '%s'", item.Title)
	}
	if !item.Disabled {
		t.Error("Expected item to be disabled")
	}

	// unknown ids and separators are ignored
	tr.AddSeparator()
	tr.SetItemTitle(id+1, "x")
	tr.SetItemTitle(99, "x")
	if _, ok := tr.Item(id + 1); ok {
		t.Error("Expected separator to have no item")
	}
}

func TestMenuFollowsStatus(t *testing.T) {
	tr := New("Macro")
	fc := &fakeControls{}
	m := NewMenu(tr, fc, func(s string) string { return s }, "5", "2", func() {})

	run, _ := tr.Item(m.runID)
	if !run.Disabled {
		t.Error("Expected start item disabled before a trigger is set")
	}

	m.Notify(session.Event{
		Kind:    session.EventTriggerResolved,
		State:   session.Armed,
		Trigger: input.KeyboardKey("a"),
		Text:    "a",
		Status:  session.Status{CaptureLabel: "'a' selected", CaptureEnabled: true, RunLabel: "Start", RunEnabled: true},
	})
	capture, _ := tr.Item(m.captureID)
	if capture.Title != "'a' selected" {
		t.Errorf("Expected capture label to update, got '%s'", capture.Title)
	}
	run, _ = tr.Item(m.runID)
	if run.Disabled {
		t.Error("Expected start item enabled once armed")
	}

	m.Notify(session.Event{
		Kind:   session.EventStatusChanged,
		State:  session.Running,
		Status: session.Status{CaptureLabel: "'a' selected", CaptureEnabled: false, RunLabel: "Stop", RunEnabled: true},
	})
	capture, _ = tr.Item(m.captureID)
	run, _ = tr.Item(m.runID)
	if !capture.Disabled {
		t.Error("Expected capture item disabled while running")
	}
	if run.Title != "Stop" {
		t.Errorf("Expected run label 'Stop', got '%s'", run.Title)
	}
}

func TestMenuCallbacks(t *testing.T) {
	tr := New("Macro")
	fc := &fakeControls{}
	quit := 0
	m := NewMenu(tr, fc, func(s string) string { return s }, "5", "2", func() { quit++ })

	tr.items[m.captureID].Callback()
	tr.items[m.runID].Callback()
	tr.items[len(tr.items)-1].Callback()

	if fc.captures != 1 {
		t.Errorf("Expected 1 capture, got %d", fc.captures)
	}
	if len(fc.toggles) != 1 || fc.toggles[0] != [2]string{"5", "2"} {
		t.Errorf("Expected toggle with configured texts, got %v", fc.toggles)
	}
	if quit != 1 {
		t.Errorf("Expected quit to be called once, got %d", quit)
	}
}

func TestIconHeader(t *testing.T) {
	icon := getIcon()
	if icon[2] != 0x01 || icon[4] != 0x01 {
		t.Fatalf("Expected ICO header, got % x", icon[:6])
	}
	size := int(icon[14]) | int(icon[15])<<8
	if size+22 != len(icon) {
		t.Errorf("Expected directory size %d, got %d", len(icon)-22, size)
	}
}
