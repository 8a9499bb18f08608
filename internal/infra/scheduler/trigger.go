package scheduler

import (
	"fmt"
	"strings"
	"time"

	"telegram-expiry-reminder/internal/config"
)

// Trigger decides when the next notification pass fires.
type Trigger interface {
	// Next returns the first fire time strictly after now.
	Next(now time.Time) time.Time
	String() string
}

// DailyTrigger fires once a day at a fixed wall-clock time in Location.
type DailyTrigger struct {
	Hour, Minute int
	Location     *time.Location
}

func (d DailyTrigger) Next(now time.Time) time.Time {
	loc := d.Location
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), d.Hour, d.Minute, 0, 0, loc)
	if !next.After(local) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, d.Hour, d.Minute, 0, 0, loc)
	}
	return next
}

func (d DailyTrigger) String() string {
	loc := "UTC"
	if d.Location != nil {
		loc = d.Location.String()
	}
	return fmt.Sprintf("daily at %02d:%02d %s", d.Hour, d.Minute, loc)
}

// IntervalTrigger fires every Every, counted from the previous fire.
type IntervalTrigger struct {
	Every time.Duration
}

func (i IntervalTrigger) Next(now time.Time) time.Time {
	every := i.Every
	if every <= 0 {
		every = time.Minute
	}
	return now.Add(every)
}

func (i IntervalTrigger) String() string {
	return "every " + i.Every.String()
}

// NewTrigger builds the trigger selected by cfg.Mode.
func NewTrigger(cfg config.SchedulerConfig) (Trigger, error) {
	switch strings.ToLower(cfg.Mode) {
	case "", "daily":
		h, m, err := cfg.DailyTime()
		if err != nil {
			return nil, err
		}
		loc, err := cfg.Location()
		if err != nil {
			return nil, err
		}
		return DailyTrigger{Hour: h, Minute: m, Location: loc}, nil
	case "interval":
		return IntervalTrigger{Every: cfg.Interval}, nil
	default:
		return nil, fmt.Errorf("unknown scheduler mode %q", cfg.Mode)
	}
}
