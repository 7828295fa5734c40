package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// DailyOffset fires once per UTC day, Before ahead of midnight or After past it.
type DailyOffset struct {
	Before time.Duration
	After  time.Duration
}

// Next returns the first firing strictly after t.
func (d DailyOffset) Next(t time.Time) time.Time {
	u := t.UTC()
	midnight := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	next := midnight.Add(d.After - d.Before)
	for !next.After(u) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

var cronParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ParseSchedule returns fallback when expr is empty, otherwise the six-field
// cron expression evaluated in UTC.
func ParseSchedule(expr string, fallback cron.Schedule) (cron.Schedule, error) {
	if expr == "" {
		return fallback, nil
	}
	sched, err := cronParser.Parse("CRON_TZ=UTC " + expr)
	if err != nil {
		return nil, fmt.Errorf("parse cron %q: %w", expr, err)
	}
	return sched, nil
}

// midnightAfter is the next UTC day boundary, the payment deadline.
func midnightAfter(t time.Time) time.Time {
	return DailyOffset{}.Next(t)
}
