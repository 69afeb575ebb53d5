// Package console is the headless front end: line commands on stdin, session
// events printed to stdout.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"macro/internal/session"
)

// ErrUnknownCommand is returned for lines that are not a console command
var ErrUnknownCommand = errors.New("unknown command")

// Session is what the console drives
type Session interface {
	BeginCapture() error
	ToggleRun(intervalText, delayText string) error
	Snapshot() session.Snapshot
}

// Verb names a console command
type Verb string

const (
	VerbCapture Verb = "capture"
	VerbToggle  Verb = "toggle"
	VerbStatus  Verb = "status"
	VerbQuit    Verb = "quit"
	VerbHelp    Verb = "help"
)

// Command is one parsed input line
type Command struct {
	Verb     Verb
	Interval string
	Delay    string
}

// ParseCommand parses "capture", "toggle [interval [delay]]", "status", "help"
// and "quit". Missing toggle texts are left empty for the caller to default.
func ParseCommand(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, fmt.Errorf("%w: empty line", ErrUnknownCommand)
	}

	verb := Verb(strings.ToLower(fields[0]))
	args := fields[1:]
	switch verb {
	case VerbCapture, VerbStatus, VerbHelp:
		if len(args) > 0 {
			return Command{}, fmt.Errorf("%s takes no arguments", verb)
		}
		return Command{Verb: verb}, nil
	case VerbQuit, "exit":
		return Command{Verb: VerbQuit}, nil
	case VerbToggle, "start", "stop":
		if len(args) > 2 {
			return Command{}, fmt.Errorf("toggle takes at most interval and delay")
		}
		cmd := Command{Verb: VerbToggle}
		if len(args) > 0 {
			cmd.Interval = args[0]
		}
		if len(args) > 1 {
			cmd.Delay = args[1]
		}
		return cmd, nil
	}
	return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, fields[0])
}

const helpText = `commands:
  capture                  wait for the next key or mouse button
  toggle [interval delay]  start or stop repeating (seconds)
  status                   show the current state
  quit                     exit`

// Console reads commands and prints session events
type Console struct {
	session  Session
	interval string
	delay    string

	mu  sync.Mutex
	out io.Writer
}

// New creates a console. interval and delay are used when toggle omits them.
func New(s Session, out io.Writer, interval, delay string) *Console {
	return &Console{
		session:  s,
		interval: interval,
		delay:    delay,
		out:      out,
	}
}

// Run reads commands from in until quit, EOF or ctx is done
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	c.printf("%s\n", helpText)
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			return err
		case line := <-lines:
			if strings.TrimSpace(line) == "" {
				continue
			}
			quit, err := c.Exec(line)
			if err != nil {
				c.printf("error: %v\n", err)
			}
			if quit {
				return nil
			}
		}
	}
}

// Exec runs a single command line and reports whether it was quit
func (c *Console) Exec(line string) (bool, error) {
	cmd, err := ParseCommand(line)
	if err != nil {
		return false, err
	}

	switch cmd.Verb {
	case VerbCapture:
		return false, c.session.BeginCapture()
	case VerbToggle:
		interval, delay := cmd.Interval, cmd.Delay
		if interval == "" {
			interval = c.interval
		}
		if delay == "" {
			delay = c.delay
		}
		return false, c.session.ToggleRun(interval, delay)
	case VerbStatus:
		snap := c.session.Snapshot()
		trigger := "none"
		if !snap.Trigger.IsZero() {
			trigger = snap.Trigger.Description()
		}
		c.printf("state: %s, trigger: %s, [%s] [%s]\n", snap.State, trigger, snap.Status.CaptureLabel, snap.Status.RunLabel)
	case VerbHelp:
		c.printf("%s\n", helpText)
	case VerbQuit:
		return true, nil
	}
	return false, nil
}

// Notify implements session.Observer
func (c *Console) Notify(ev session.Event) {
	switch ev.Kind {
	case session.EventTriggerResolved:
		c.printf("trigger set: %s\n", ev.Text)
	case session.EventError:
		c.printf("error: %s\n", ev.Text)
	default:
		c.printf("[%s] %s | %s\n", ev.State, ev.Status.CaptureLabel, ev.Status.RunLabel)
	}
}

func (c *Console) printf(format string, args ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}
