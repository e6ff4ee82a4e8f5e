package schedule

import (
	"time"

	"github.com/cockroachdb/errors"
)

// Next returns the earliest instant strictly after `after` that satisfies s.
// The result is expressed in after's location and always has zero seconds.
//
// Fields are resolved coarsest first (month, day, hour, minute), jumping
// straight to the next allowed value instead of stepping minute by minute.
// The walk happens on a zone-free civil calendar; the candidate is converted
// to the target location only once every field matches, and candidates that
// fall into a DST gap or fail to move past `after` are skipped.
func Next(s Schedule, after time.Time) (time.Time, error) {
	if err := s.Validate(); err != nil {
		return time.Time{}, err
	}
	loc := after.Location()

	// UTC stands in for a civil calendar with no DST transitions.
	c := time.Date(after.Year(), after.Month(), after.Day(), after.Hour(), after.Minute(), 0, 0, time.UTC).
		Add(time.Minute)
	limit := c.Add(Horizon)

	for {
		if c.After(limit) {
			return time.Time{}, errors.Wrapf(ErrUnsatisfiable, "%s: nothing within %d years of %s",
				s, int(Horizon.Hours()/24/366), after.Format(time.RFC3339))
		}

		if !s.Months.Has(int(c.Month())) {
			c = nextMonth(s, c)
			continue
		}

		if s.Days.UpTo(daysIn(c.Year(), c.Month())).Empty() {
			c = nextMonth(s, c)
			continue
		}

		if !s.Days.Has(c.Day()) || !s.Weekdays.Has(weekday(c)) {
			c = startOfDay(c).AddDate(0, 0, 1)
			continue
		}

		if !s.Hours.Has(c.Hour()) {
			if h, ok := s.Hours.NextAfter(c.Hour()); ok {
				c = time.Date(c.Year(), c.Month(), c.Day(), h, 0, 0, 0, time.UTC)
			} else {
				c = startOfDay(c).AddDate(0, 0, 1)
			}
			continue
		}

		if !s.Minutes.Has(c.Minute()) {
			if m, ok := s.Minutes.NextAfter(c.Minute()); ok {
				c = time.Date(c.Year(), c.Month(), c.Day(), c.Hour(), m, 0, 0, time.UTC)
			} else {
				c = c.Truncate(time.Hour).Add(time.Hour)
			}
			continue
		}

		t := time.Date(c.Year(), c.Month(), c.Day(), c.Hour(), c.Minute(), 0, 0, loc)
		if !sameWallClock(t, c) || !t.After(after) {
			c = c.Add(time.Minute)
			continue
		}
		return t, nil
	}
}

// NextN returns up to n consecutive firing times after `after`.
func NextN(s Schedule, after time.Time, n int) ([]time.Time, error) {
	out := make([]time.Time, 0, n)
	t := after
	for i := 0; i < n; i++ {
		next, err := Next(s, t)
		if err != nil {
			return out, err
		}
		out = append(out, next)
		t = next
	}
	return out, nil
}

// nextMonth moves c to the first instant of the next allowed month after c's
// month, wrapping into the following year when needed.
func nextMonth(s Schedule, c time.Time) time.Time {
	if m, ok := s.Months.NextAfter(int(c.Month())); ok {
		return time.Date(c.Year(), time.Month(m), 1, 0, 0, 0, 0, time.UTC)
	}
	m, _ := s.Months.Min()
	return time.Date(c.Year()+1, time.Month(m), 1, 0, 0, 0, 0, time.UTC)
}

func startOfDay(c time.Time) time.Time {
	return time.Date(c.Year(), c.Month(), c.Day(), 0, 0, 0, 0, time.UTC)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func sameWallClock(t, c time.Time) bool {
	return t.Year() == c.Year() && t.Month() == c.Month() && t.Day() == c.Day() &&
		t.Hour() == c.Hour() && t.Minute() == c.Minute()
}
