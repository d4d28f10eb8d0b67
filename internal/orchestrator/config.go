package orchestrator

import (
	"fmt"
	"runtime"
	"time"

	"github.com/slowlogdef/slowlogdef/internal/sampler"
)

// TimeWindow selects how Config.resolveTimeRange narrows the scan.
type TimeWindow string

const (
	// WindowAll disables time filtering entirely; the default.
	WindowAll TimeWindow = "all"
	// WindowToday restricts to UTC midnight through end of day.
	WindowToday TimeWindow = "today"
	// WindowDays restricts to the last Config.Days days through now.
	WindowDays TimeWindow = "days"
)

// Config drives one end-to-end run of the analyzer.
type Config struct {
	LogFile       string
	MinTime       float64
	ExcludeDumps  bool
	Jobs          int
	LooseStart    bool
	MarkTruncated bool
	ShowStats     bool

	Window TimeWindow
	Days   int

	// Now lets tests pin "the current instant" instead of depending on
	// wall-clock time; callers leave this zero in production and Run
	// substitutes time.Now().UTC().
	Now time.Time
}

// jobs returns the effective worker-pool size: CPU count when unset.
func (c Config) jobs() int {
	if c.Jobs > 0 {
		return c.Jobs
	}
	return runtime.NumCPU()
}

// resolveTimeRange turns the configured window into a concrete UTC
// range, or nil when no filtering was requested.
func (c Config) resolveTimeRange() (*sampler.Range, error) {
	now := c.Now
	if now.IsZero() {
		now = time.Now().UTC()
	} else {
		now = now.UTC()
	}

	switch c.Window {
	case "", WindowAll:
		return nil, nil
	case WindowToday:
		start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		end := start.Add(24*time.Hour - time.Nanosecond)
		return &sampler.Range{Start: start, End: end}, nil
	case WindowDays:
		if c.Days == 0 {
			start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
			end := start.Add(24*time.Hour - time.Nanosecond)
			return &sampler.Range{Start: start, End: end}, nil
		}
		start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -c.Days)
		return &sampler.Range{Start: start, End: now}, nil
	default:
		return nil, fmt.Errorf("invalid time window %q", c.Window)
	}
}
