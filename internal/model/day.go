package model

import (
	"fmt"
	"time"
)

// DayLayout is the text form of a Day in config, settings and commands.
const DayLayout = "2006-01-02"

// Day is a logical day: a calendar day in UTC, independent of the local clock.
// The zero value means "no date".
type Day struct {
	t time.Time
}

// DayOf returns the logical day containing t.
func DayOf(t time.Time) Day {
	y, m, d := t.UTC().Date()
	return Day{t: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// NewDay builds a Day from its calendar parts.
func NewDay(year int, month time.Month, day int) Day {
	return Day{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDay parses a YYYY-MM-DD string. An empty string yields the zero Day;
// 0001-01-01 is rejected because it is indistinguishable from it.
func ParseDay(s string) (Day, error) {
	if s == "" {
		return Day{}, nil
	}
	t, err := time.ParseInLocation(DayLayout, s, time.UTC)
	if err != nil {
		return Day{}, fmt.Errorf("parse day %q: %w", s, err)
	}
	if t.IsZero() {
		return Day{}, fmt.Errorf("parse day %q: reserved for no date", s)
	}
	return Day{t: t}, nil
}

func (d Day) IsZero() bool { return d.t.IsZero() }

// Start returns the UTC midnight that opens the day.
func (d Day) Start() time.Time { return d.t }

func (d Day) AddDays(n int) Day { return Day{t: d.t.AddDate(0, 0, n)} }

func (d Day) Equal(o Day) bool  { return d.t.Equal(o.t) }
func (d Day) Before(o Day) bool { return d.t.Before(o.t) }
func (d Day) After(o Day) bool  { return d.t.After(o.t) }

// DaysUntil returns the number of whole days from d to o (negative if o is earlier).
func (d Day) DaysUntil(o Day) int {
	// Both are UTC midnights, so the Unix seconds divide evenly.
	return int((o.t.Unix() - d.t.Unix()) / secondsPerDay)
}

const secondsPerDay = 24 * 60 * 60

func (d Day) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(DayLayout)
}

func (d Day) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Day) UnmarshalText(b []byte) error {
	parsed, err := ParseDay(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
