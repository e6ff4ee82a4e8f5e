package config

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/robfig/cron/v3"

	"croner/internal/schedule"
)

// Five standard fields plus descriptors like "@daily". Interval descriptors
// ("@every 5m") parse but are rejected below: they are not calendar based.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

type fieldKind int

const (
	fieldMinute fieldKind = iota
	fieldHour
	fieldDay
	fieldMonth
	fieldWeekday
)

var fieldNames = [...]string{"minute", "hour", "day", "month", "weekday"}

func (k fieldKind) String() string { return fieldNames[k] }

func (k fieldKind) bounds() (int, int) {
	switch k {
	case fieldMinute:
		return schedule.MinuteMin, schedule.MinuteMax
	case fieldHour:
		return schedule.HourMin, schedule.HourMax
	case fieldDay:
		return schedule.DayMin, schedule.DayMax
	case fieldMonth:
		return schedule.MonthMin, schedule.MonthMax
	default:
		return schedule.WeekdayMin, schedule.WeekdayMax
	}
}

// parseCronLine converts a full five-field expression into a Schedule.
// Day-of-month and weekday are still combined with AND.
func parseCronLine(expr string) (schedule.Schedule, error) {
	expr = strings.TrimSpace(expr)
	if strings.HasPrefix(expr, "TZ=") || strings.HasPrefix(expr, "CRON_TZ=") {
		return schedule.Schedule{}, errors.Newf("cron %q: per-job timezones are not supported, use the top-level timezone", expr)
	}
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return schedule.Schedule{}, errors.Wrapf(err, "cron %q", expr)
	}
	spec, ok := sched.(*cron.SpecSchedule)
	if !ok {
		return schedule.Schedule{}, errors.Newf("cron %q: interval schedules are not supported", expr)
	}
	return fromSpec(spec), nil
}

func fromSpec(spec *cron.SpecSchedule) schedule.Schedule {
	return schedule.Schedule{
		Minutes:  mask(spec.Minute, fieldMinute),
		Hours:    mask(spec.Hour, fieldHour),
		Days:     mask(spec.Dom, fieldDay),
		Weekdays: cronWeekdays(mask(spec.Dow, fieldWeekday)),
		Months:   mask(spec.Month, fieldMonth),
	}
}

// mask drops robfig's "star" marker bit and anything outside the field range.
func mask(bits uint64, k fieldKind) schedule.Set {
	lo, hi := k.bounds()
	return schedule.Set(bits) & schedule.Range(lo, hi)
}

// cronWeekdays renumbers cron weekdays (0=Sunday) to Monday=0.
func cronWeekdays(s schedule.Set) schedule.Set {
	var out schedule.Set
	for _, v := range s.Values() {
		out |= schedule.SetOf((v + 6) % 7)
	}
	return out
}

// parseCronField parses a single cron field expression by placing it in its
// column of an otherwise "*" expression.
func parseCronField(k fieldKind, expr string) (schedule.Set, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" || strings.ContainsAny(expr, " \t") {
		return 0, errors.Newf("%s: invalid field expression %q", k, expr)
	}
	cols := []string{"*", "*", "*", "*", "*"}
	cols[k] = expr
	sched, err := cronParser.Parse(strings.Join(cols, " "))
	if err != nil {
		return 0, errors.Wrapf(err, "%s: %q", k, expr)
	}
	spec := sched.(*cron.SpecSchedule)
	s := fromSpec(spec)
	switch k {
	case fieldMinute:
		return s.Minutes, nil
	case fieldHour:
		return s.Hours, nil
	case fieldDay:
		return s.Days, nil
	case fieldMonth:
		return s.Months, nil
	default:
		return s.Weekdays, nil
	}
}

// parseField resolves one schedule field value: omitted/null (every value),
// an integer, a cron expression string, or a list mixing both.
func parseField(k fieldKind, raw json.RawMessage) (schedule.Set, error) {
	lo, hi := k.bounds()
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return schedule.Range(lo, hi), nil
	}

	var items []json.RawMessage
	if raw[0] == '[' {
		if err := json.Unmarshal(raw, &items); err != nil {
			return 0, errors.Wrapf(err, "%s", k)
		}
		if len(items) == 0 {
			return 0, errors.Wrapf(schedule.ErrEmptyField, "%s", k)
		}
	} else {
		items = []json.RawMessage{raw}
	}

	var out schedule.Set
	for _, it := range items {
		it = bytes.TrimSpace(it)
		if len(it) > 0 && it[0] == '"' {
			var expr string
			if err := json.Unmarshal(it, &expr); err != nil {
				return 0, errors.Wrapf(err, "%s", k)
			}
			s, err := parseCronField(k, expr)
			if err != nil {
				return 0, err
			}
			out |= s
			continue
		}
		var n int
		if err := json.Unmarshal(it, &n); err != nil {
			return 0, errors.Newf("%s: expected integer or cron expression, got %s", k, it)
		}
		if n < lo || n > hi {
			return 0, errors.Newf("%s: %d out of range %d-%d", k, n, lo, hi)
		}
		out |= schedule.SetOf(n)
	}
	return out, nil
}

func (s *scheduleConfig) build() (schedule.Schedule, error) {
	var (
		out schedule.Schedule
		err error
	)
	if out.Minutes, err = parseField(fieldMinute, s.Minute); err != nil {
		return out, err
	}
	if out.Hours, err = parseField(fieldHour, s.Hour); err != nil {
		return out, err
	}
	if out.Days, err = parseField(fieldDay, s.Day); err != nil {
		return out, err
	}
	if out.Weekdays, err = parseField(fieldWeekday, s.Weekday); err != nil {
		return out, err
	}
	if out.Months, err = parseField(fieldMonth, s.Month); err != nil {
		return out, err
	}
	return out, nil
}
