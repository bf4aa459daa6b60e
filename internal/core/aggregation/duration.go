package aggregation

import (
	"fmt"
	"strconv"
	"time"
)

// ParseInterval parses a duration string.
// Supports Go duration syntax (e.g., "500ms", "10s", "1m") plus "Xd" for days.
func ParseInterval(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("interval must not be empty")
	}

	// time.ParseDuration has no day unit.
	if len(s) > 1 && s[len(s)-1] == 'd' {
		var days int
		if _, err := fmt.Sscanf(s, "%dd", &days); err != nil {
			return 0, fmt.Errorf("invalid interval %q: %w", s, err)
		}
		if days <= 0 {
			return 0, fmt.Errorf("interval must be positive, got %q", s)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid interval %q: %w", s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("interval must be positive, got %q", s)
	}
	return d, nil
}

// Millis renders d as whole milliseconds, the unit the engine expects for
// TIMEOUT and MAXIDLE. Sub-millisecond durations round up to 1.
func Millis(d time.Duration) string {
	ms := d.Milliseconds()
	if ms == 0 && d > 0 {
		ms = 1
	}
	return strconv.FormatInt(ms, 10)
}
