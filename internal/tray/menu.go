package tray

import (
	"errors"
	"log"

	"macro/internal/session"
)

// Controls is what the menu drives on the session
type Controls interface {
	BeginCapture() error
	ToggleRun(intervalText, delayText string) error
}

// Menu binds the capture and start/stop items to a session and keeps their
// labels in sync with session events.
type Menu struct {
	tray      *Tray
	captureID int
	runID     int
}

// NewMenu adds the session items to t. interval and delay are the texts passed
// to every start request; quit is called from the Quit item.
func NewMenu(t *Tray, c Controls, translate func(string) string, interval, delay string, quit func()) *Menu {
	m := &Menu{tray: t}

	m.captureID = t.AddMenuItem(translate("Click to set the key"), func() {
		if err := c.BeginCapture(); err != nil && !errors.Is(err, session.ErrClosed) {
			log.Printf("Tray: capture request rejected: %v", err)
		}
	})
	m.runID = t.AddMenuItem(translate("Start"), func() {
		if err := c.ToggleRun(interval, delay); err != nil && !errors.Is(err, session.ErrClosed) {
			log.Printf("Tray: toggle request rejected: %v", err)
		}
	})
	t.SetItemEnabled(m.runID, false)

	t.AddSeparator()
	t.AddMenuItem(translate("Quit"), quit)
	return m
}

// Notify implements session.Observer
func (m *Menu) Notify(ev session.Event) {
	switch ev.Kind {
	case session.EventTriggerResolved, session.EventError:
		m.tray.SetTooltip("Macro: " + ev.Text)
	}

	m.tray.SetItemTitle(m.captureID, ev.Status.CaptureLabel)
	m.tray.SetItemEnabled(m.captureID, ev.Status.CaptureEnabled)
	m.tray.SetItemTitle(m.runID, ev.Status.RunLabel)
	m.tray.SetItemEnabled(m.runID, ev.Status.RunEnabled)
}
