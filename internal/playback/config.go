// Package playback repeats a captured trigger on a timer until cancelled.
package playback

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrConfigParse is returned when interval or delay text is not a non-negative integer
var ErrConfigParse = errors.New("invalid playback setting")

// ConfigError reports which field failed to parse
type ConfigError struct {
	Field string
	Value string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s must be a whole number of seconds >= 0, got %q", ErrConfigParse, e.Field, e.Value)
}

func (e *ConfigError) Unwrap() error {
	return ErrConfigParse
}

// Config holds the timing of one playback run, in whole seconds
type Config struct {
	IntervalSeconds   int `json:"interval_seconds"`
	StartDelaySeconds int `json:"start_delay_seconds"`
}

// ParseConfig validates the raw text entered for the interval and the start delay
func ParseConfig(intervalText, delayText string) (Config, error) {
	interval, err := parseSeconds("interval", intervalText)
	if err != nil {
		return Config{}, err
	}
	delay, err := parseSeconds("start delay", delayText)
	if err != nil {
		return Config{}, err
	}
	return Config{IntervalSeconds: interval, StartDelaySeconds: delay}, nil
}

func parseSeconds(field, text string) (int, error) {
	// ParseUint rejects signs, so "-1" and "+1" both fail here
	n, err := strconv.ParseUint(strings.TrimSpace(text), 10, 31)
	if err != nil {
		return 0, &ConfigError{Field: field, Value: text}
	}
	return int(n), nil
}

// Interval returns the pause between emissions
func (c Config) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// StartDelay returns the pause before the first emission
func (c Config) StartDelay() time.Duration {
	return time.Duration(c.StartDelaySeconds) * time.Second
}
