package config

import (
	"fmt"
	"time"
)

// Duration parses YAML durations in time.ParseDuration syntax ("90s",
// "15m"). Bare integers are taken as seconds. Every duration knob in
// this binary is an interval or retention window, so negative values
// are rejected at parse time.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var seconds int64
	if err := unmarshal(&seconds); err == nil {
		if seconds < 0 {
			return fmt.Errorf("duration must not be negative: %d", seconds)
		}
		*d = Duration(time.Duration(seconds) * time.Second)
		return nil
	}

	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}

	duration, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("couldn't parse duration: %w", err)
	}
	if duration < 0 {
		return fmt.Errorf("duration must not be negative: %s", s)
	}

	*d = Duration(duration)
	return nil
}

func (d *Duration) Duration() time.Duration {
	return time.Duration(*d)
}
