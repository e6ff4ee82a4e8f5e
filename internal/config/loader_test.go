package config

import (
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"croner/internal/schedule"
)

const sampleYAML = `
timezone: UTC
jobs:
  - id: report
    schedule:
      minute: 0
      hour: [9]
      weekday: [0, 1, 2, 3, 4]
    command: ["echo", "report"]
  - id: poll
    schedule:
      minute: "*/15"
      weekday: "MON-FRI"
    command: ["curl", "-fsS", "http://localhost/health"]
    fanout: 3
  - id: monthly
    cron: "30 2 1 * *"
    command: ["backup.sh"]
`

func memLoader(t *testing.T, path, content string) (*Loader, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
	return NewLoader(fs, path), fs
}

func TestLoadYAML(t *testing.T) {
	t.Parallel()
	l, _ := memLoader(t, "croner.yml", sampleYAML)

	cfg, err := l.Load()
	require.NoError(t, err)
	require.Len(t, cfg.Jobs, 3)
	assert.Equal(t, "UTC", cfg.Location.String())

	report := cfg.Jobs[0]
	assert.Equal(t, "report", report.ID)
	assert.Equal(t, schedule.SetOf(0), report.Schedule.Minutes)
	assert.Equal(t, schedule.SetOf(9), report.Schedule.Hours)
	assert.Equal(t, schedule.Range(1, 31), report.Schedule.Days)
	assert.Equal(t, schedule.Range(0, 4), report.Schedule.Weekdays)
	assert.Equal(t, schedule.Range(1, 12), report.Schedule.Months)
	assert.Equal(t, 1, report.Fanout)

	poll := cfg.Jobs[1]
	assert.Equal(t, schedule.SetOf(0, 15, 30, 45), poll.Schedule.Minutes)
	assert.Equal(t, schedule.Range(0, 4), poll.Schedule.Weekdays, "cron weekday names map onto Monday=0")
	assert.Equal(t, 3, poll.Fanout)
	assert.Equal(t, []string{"curl", "-fsS", "http://localhost/health"}, poll.Command)

	monthly := cfg.Jobs[2]
	assert.Equal(t, schedule.SetOf(30), monthly.Schedule.Minutes)
	assert.Equal(t, schedule.SetOf(2), monthly.Schedule.Hours)
	assert.Equal(t, schedule.SetOf(1), monthly.Schedule.Days)
	assert.Equal(t, schedule.Range(0, 6), monthly.Schedule.Weekdays)
}

func TestLoadJSON(t *testing.T) {
	t.Parallel()
	l, _ := memLoader(t, "jobs.json", `{"jobs":[{"id":"a","schedule":{"minute":[5,10]},"command":["true"]}]}`)

	cfg, err := l.Load()
	require.NoError(t, err)
	require.Len(t, cfg.Jobs, 1)
	assert.Equal(t, schedule.SetOf(5, 10), cfg.Jobs[0].Schedule.Minutes)
	assert.Equal(t, time.Local, cfg.Location)
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		content string
	}{
		{"empty document", ""},
		{"top level list", "- id: a\n"},
		{"missing jobs", "timezone: UTC\n"},
		{"unknown top level key", "jobs: []\nextra: 1\n"},
		{"unknown schedule key", "jobs:\n  - id: a\n    schedule: {minutes: 1}\n    command: [x]\n"},
		{"missing id", "jobs:\n  - schedule: {minute: 1}\n    command: [x]\n"},
		{"missing command", "jobs:\n  - id: a\n    schedule: {minute: 1}\n"},
		{"missing schedule", "jobs:\n  - id: a\n    command: [x]\n"},
		{"schedule and cron", "jobs:\n  - id: a\n    schedule: {minute: 1}\n    cron: '* * * * *'\n    command: [x]\n"},
		{"minute out of range", "jobs:\n  - id: a\n    schedule: {minute: 60}\n    command: [x]\n"},
		{"weekday out of range", "jobs:\n  - id: a\n    schedule: {weekday: [7]}\n    command: [x]\n"},
		{"empty list", "jobs:\n  - id: a\n    schedule: {hour: []}\n    command: [x]\n"},
		{"bad cron field", "jobs:\n  - id: a\n    schedule: {minute: '*/x'}\n    command: [x]\n"},
		{"interval cron", "jobs:\n  - id: a\n    cron: '@every 5m'\n    command: [x]\n"},
		{"zero fanout", "jobs:\n  - id: a\n    schedule: {minute: 1}\n    command: [x]\n    fanout: 0\n"},
		{"duplicate id", "jobs:\n  - id: a\n    cron: '@hourly'\n    command: [x]\n  - id: a\n    cron: '@daily'\n    command: [y]\n"},
		{"bad timezone", "timezone: Mars/Olympus\njobs: []\n"},
		{"malformed yaml", "jobs: [\n"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			l, _ := memLoader(t, "croner.yml", tt.content)
			_, err := l.Load()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalid), "got %v", err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()
	l := NewLoader(afero.NewMemMapFs(), "nope.yml")
	_, err := l.Load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalid))
}

func TestModTime(t *testing.T) {
	t.Parallel()
	l, fs := memLoader(t, "croner.yml", "jobs: []\n")
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, fs.Chtimes("croner.yml", at, at))

	got, err := l.ModTime()
	require.NoError(t, err)
	assert.True(t, at.Equal(got))
}

func TestDefaultPath(t *testing.T) {
	t.Parallel()
	assert.Equal(t, DefaultPath, NewLoader(afero.NewMemMapFs(), "").Path())
}

func TestLoggingSection(t *testing.T) {
	t.Parallel()
	l, _ := memLoader(t, "croner.yml", "logging:\n  level: debug\n  console: false\n  file: {enabled: true, path: /tmp/c.log}\njobs: []\n")
	cfg, err := l.Load()
	require.NoError(t, err)

	lc := cfg.Logging.Logx()
	assert.Equal(t, "debug", lc.Level)
	assert.False(t, lc.Console)
	assert.True(t, lc.File.Enabled)

	var none *LoggingConfig
	assert.True(t, none.Logx().Console)
}
