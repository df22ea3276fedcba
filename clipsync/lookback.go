package clipsync

import (
	"fmt"
	"strconv"
	"time"
)

// Lookback is a clip search window expressed as "<integer><unit>" where unit
// is one of s, m, h, d, M, y. Days, months and years use calendar arithmetic
// so "1M" from March 31 lands where the calendar says, not a fixed number of
// hours.
type Lookback struct {
	n    int
	unit byte
}

// ParseLookback parses the window grammar. An unrecognized trailing unit is a
// configuration error.
func ParseLookback(s string) (Lookback, error) {
	if len(s) < 2 {
		return Lookback{}, &ConfigError{Reason: fmt.Sprintf("lookback %q too short, want <integer><unit>", s)}
	}
	unit := s[len(s)-1]
	switch unit {
	case 's', 'm', 'h', 'd', 'M', 'y':
	default:
		return Lookback{}, &ConfigError{Reason: fmt.Sprintf("lookback %q: only d (days), M (months), y (years), h (hours), m (minutes) and s (seconds) are allowed, got %q", s, string(unit))}
	}
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || n <= 0 {
		return Lookback{}, &ConfigError{Reason: fmt.Sprintf("lookback %q: bad count %q", s, s[:len(s)-1])}
	}
	return Lookback{n: n, unit: unit}, nil
}

// Start returns the window start instant for a cycle running at now.
func (l Lookback) Start(now time.Time) time.Time {
	switch l.unit {
	case 'd':
		return now.AddDate(0, 0, -l.n)
	case 'M':
		return now.AddDate(0, -l.n, 0)
	case 'y':
		return now.AddDate(-l.n, 0, 0)
	case 'h':
		return now.Add(-time.Duration(l.n) * time.Hour)
	case 'm':
		return now.Add(-time.Duration(l.n) * time.Minute)
	case 's':
		return now.Add(-time.Duration(l.n) * time.Second)
	}
	return now
}

func (l Lookback) String() string { return fmt.Sprintf("%d%s", l.n, string(l.unit)) }
