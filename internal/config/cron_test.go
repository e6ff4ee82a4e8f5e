package config

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"croner/internal/schedule"
)

func TestParseCronLine(t *testing.T) {
	t.Parallel()
	s, err := parseCronLine("0 9 * * 1-5")
	require.NoError(t, err)
	assert.Equal(t, schedule.SetOf(0), s.Minutes)
	assert.Equal(t, schedule.SetOf(9), s.Hours)
	assert.Equal(t, schedule.Range(1, 31), s.Days)
	assert.Equal(t, schedule.Range(0, 4), s.Weekdays)
	assert.Equal(t, schedule.Range(1, 12), s.Months)

	s, err = parseCronLine("@daily")
	require.NoError(t, err)
	assert.Equal(t, schedule.SetOf(0), s.Minutes)
	assert.Equal(t, schedule.SetOf(0), s.Hours)

	_, err = parseCronLine("CRON_TZ=UTC 0 * * * *")
	assert.Error(t, err)
}

func TestCronSundayIsSix(t *testing.T) {
	t.Parallel()
	s, err := parseCronField(fieldWeekday, "SUN")
	require.NoError(t, err)
	assert.Equal(t, schedule.SetOf(6), s)

	s, err = parseCronField(fieldWeekday, "0,1")
	require.NoError(t, err)
	assert.Equal(t, schedule.SetOf(6, 0), s)
}

func TestParseField(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		kind fieldKind
		raw  string
		want schedule.Set
	}{
		{"omitted", fieldHour, "", schedule.Range(0, 23)},
		{"null", fieldMonth, "null", schedule.Range(1, 12)},
		{"int", fieldMinute, "7", schedule.SetOf(7)},
		{"list", fieldDay, "[1, 15, 31]", schedule.SetOf(1, 15, 31)},
		{"step", fieldHour, `"*/6"`, schedule.SetOf(0, 6, 12, 18)},
		{"range", fieldDay, `"10-12"`, schedule.SetOf(10, 11, 12)},
		{"month names", fieldMonth, `"JAN,JUL"`, schedule.SetOf(1, 7)},
		{"mixed list", fieldMinute, `[0, "30-31"]`, schedule.SetOf(0, 30, 31)},
		{"star", fieldDay, `"*"`, schedule.Range(1, 31)},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := parseField(tt.kind, json.RawMessage(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got, "got %s", got)
		})
	}
}

func TestParseFieldErrors(t *testing.T) {
	t.Parallel()
	for _, raw := range []string{`1.5`, `true`, `[]`, `"1 2"`, `"61"`, `[-1]`, `{"a":1}`} {
		_, err := parseField(fieldMinute, json.RawMessage(raw))
		assert.Error(t, err, raw)
	}
}
