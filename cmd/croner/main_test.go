package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"croner/internal/config"
	"croner/internal/schedule"
)

const jobsYAML = `
timezone: UTC
jobs:
  - id: report
    schedule:
      minute: 0
      hour: 9
      weekday: "MON-FRI"
    command: ["echo", "report"]
`

func testCmd(t *testing.T, path, content string) (*cobra.Command, *bytes.Buffer, *bytes.Buffer, *rootOptions, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))

	var stdout, stderr bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	return cmd, &stdout, &stderr, &rootOptions{configPath: path, color: "never"}, fs
}

func TestNextPrintsUpcomingRuns(t *testing.T) {
	t.Parallel()
	cmd, out, _, root, fs := testCmd(t, "croner.yml", jobsYAML)

	from := time.Date(2024, 1, 5, 9, 0, 30, 0, time.UTC) // Friday
	err := runNext(cmd, root, &nextOptions{count: 2, from: from.Format(time.RFC3339)}, fs, time.Now())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "report  ["), lines[0])
	assert.Contains(t, lines[1], "Mon 2024-01-08 09:00 UTC")
	assert.Contains(t, lines[1], "from now")
	assert.Contains(t, lines[2], "Tue 2024-01-09 09:00 UTC")
}

func TestNextRejectsBadFlags(t *testing.T) {
	t.Parallel()
	cmd, _, _, root, fs := testCmd(t, "croner.yml", jobsYAML)

	assert.Error(t, runNext(cmd, root, &nextOptions{count: 0}, fs, time.Now()))
	assert.Error(t, runNext(cmd, root, &nextOptions{count: 1, from: "yesterday"}, fs, time.Now()))
}

func TestNextReportsUnsatisfiable(t *testing.T) {
	t.Parallel()
	cmd, out, _, root, fs := testCmd(t, "croner.yml", `
jobs:
  - id: never
    cron: "0 0 30 2 *"
    command: ["true"]
`)
	require.NoError(t, runNext(cmd, root, &nextOptions{count: 3}, fs, time.Now()))
	assert.Contains(t, out.String(), "no satisfiable instant")
}

func TestValidateOK(t *testing.T) {
	t.Parallel()
	cmd, out, _, root, fs := testCmd(t, "jobs.yml", jobsYAML)

	require.NoError(t, runValidate(cmd, root, fs, time.Now()))
	assert.Equal(t, "jobs.yml: ok, 1 jobs (timezone UTC)\n", out.String())
}

func TestValidateInvalidFile(t *testing.T) {
	t.Parallel()
	cmd, _, _, root, fs := testCmd(t, "jobs.yml", "jobs:\n  - id: x\n")

	err := runValidate(cmd, root, fs, time.Now())
	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrInvalid))
}

func TestValidateUnsatisfiable(t *testing.T) {
	t.Parallel()
	cmd, _, errOut, root, fs := testCmd(t, "jobs.yml", `
jobs:
  - id: feb30
    cron: "0 0 30 2 *"
    command: ["true"]
`)
	err := runValidate(cmd, root, fs, time.Now())
	require.Error(t, err)
	assert.True(t, errors.Is(err, schedule.ErrUnsatisfiable))
	assert.Contains(t, errOut.String(), "feb30: ")
}

func TestRootFlags(t *testing.T) {
	t.Parallel()
	root := newRootCmd()
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["run"] && names["next"] && names["validate"], "commands: %v", names)

	def, err := root.PersistentFlags().GetString("config")
	require.NoError(t, err)
	assert.Equal(t, config.DefaultPath, def)

	assert.Error(t, (&rootOptions{configPath: "x", color: "sometimes"}).check())
	assert.Error(t, (&rootOptions{configPath: " ", color: "auto"}).check())
	assert.NoError(t, (&rootOptions{configPath: "x", color: "Always"}).check())
}
