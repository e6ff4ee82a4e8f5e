// Package schedule computes firing times for five-field, set-based schedules.
//
// A Schedule matches an instant when its minute, hour, day-of-month, weekday
// and month all belong to the corresponding sets. Day-of-month and weekday are
// combined with AND: a job restricted to day 13 and weekday 4 fires only on
// Friday the 13th.
//
// Weekdays are numbered 0 (Monday) through 6 (Sunday).
package schedule

import (
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
)

// ErrUnsatisfiable is returned by Next when no instant within the search
// horizon satisfies every field of the schedule.
var ErrUnsatisfiable = errors.New("schedule has no satisfiable instant")

// ErrEmptyField is returned by Validate when any field allows no value.
var ErrEmptyField = errors.New("schedule field is empty")

// Horizon bounds how far Next searches past its lower bound. Day-of-month and
// weekday pairs such as "Feb 29 on a Monday" recur on a 28 year cycle, so the
// horizon must be comfortably longer than that.
const Horizon = 50 * 366 * 24 * time.Hour

type Schedule struct {
	Minutes  Set
	Hours    Set
	Days     Set
	Weekdays Set
	Months   Set
}

// Every returns a schedule matching every minute.
func Every() Schedule {
	return Schedule{
		Minutes:  Range(MinuteMin, MinuteMax),
		Hours:    Range(HourMin, HourMax),
		Days:     Range(DayMin, DayMax),
		Weekdays: Range(WeekdayMin, WeekdayMax),
		Months:   Range(MonthMin, MonthMax),
	}
}

// Validate checks that every field is non-empty and inside its range.
func (s Schedule) Validate() error {
	fields := []struct {
		name   string
		set    Set
		lo, hi int
	}{
		{"minute", s.Minutes, MinuteMin, MinuteMax},
		{"hour", s.Hours, HourMin, HourMax},
		{"day", s.Days, DayMin, DayMax},
		{"weekday", s.Weekdays, WeekdayMin, WeekdayMax},
		{"month", s.Months, MonthMin, MonthMax},
	}
	for _, f := range fields {
		if f.set.Empty() {
			return errors.Wrapf(ErrEmptyField, "%s", f.name)
		}
		if !f.set.Within(f.lo, f.hi) {
			return errors.Newf("%s: values must be within %d-%d (got %s)", f.name, f.lo, f.hi, f.set)
		}
	}
	return nil
}

// Matches reports whether t (in its own location) satisfies every field.
func (s Schedule) Matches(t time.Time) bool {
	return s.Months.Has(int(t.Month())) &&
		s.Days.Has(t.Day()) &&
		s.Weekdays.Has(weekday(t)) &&
		s.Hours.Has(t.Hour()) &&
		s.Minutes.Has(t.Minute())
}

func (s Schedule) String() string {
	return fmt.Sprintf("minute=%s hour=%s day=%s weekday=%s month=%s",
		s.Minutes, s.Hours, s.Days, s.Weekdays, s.Months)
}

// weekday maps time.Weekday (Sunday=0) onto Monday=0.
func weekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
