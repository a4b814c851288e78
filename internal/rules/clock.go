package rules

import (
	"fmt"
	"strings"
	"time"
)

// Clock is a time of day with minute precision.
type Clock struct {
	Hour   int
	Minute int
}

var clockLayouts = []string{
	"15:04", "15:04:05", "3:04 PM", "3:04PM", "3:04 pm", "3:04pm",
	"2006-01-02 15:04", "2006-01-02 15:04:05", time.RFC3339,
}

// ParseClock parses strings such as "09:15", "9:15:30" or "9:15 AM".
func ParseClock(s string) (Clock, error) {
	v := strings.TrimSpace(s)
	for _, l := range clockLayouts {
		if t, err := time.Parse(l, v); err == nil {
			return Clock{Hour: t.Hour(), Minute: t.Minute()}, nil
		}
	}
	return Clock{}, fmt.Errorf("parse time of day %q", s)
}

// Minutes returns minutes since midnight.
func (c Clock) Minutes() int { return c.Hour*60 + c.Minute }

// After reports whether c is strictly later than o.
func (c Clock) After(o Clock) bool { return c.Minutes() > o.Minutes() }

func (c Clock) String() string { return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute) }
