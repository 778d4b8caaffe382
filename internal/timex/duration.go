// Package timex holds time helpers shared by the client: a config-friendly
// Duration and the clock/ticker seams used by countdowns and pollers.
package timex

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Duration decodes from either a Go duration string ("60s", "1m30s") or a
// bare number of seconds, the same forms Parse accepts.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value * float64(time.Second))
		return nil
	case string:
		return d.UnmarshalText([]byte(value))
	default:
		return errors.New("invalid duration")
	}
}

func (d *Duration) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// Parse reads a Go duration string, or a bare number as seconds ("30",
// "1.5").
func Parse(s string) (time.Duration, error) {
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(f * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	return d, nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}
