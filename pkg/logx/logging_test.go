package logx

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf, "debug").With(String("comp", "scheduler"))

	log.Info("job fired", String("job", "backup"), Int("instances", 2))

	var m map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
	assert.Equal(t, "job fired", m["message"])
	assert.Equal(t, "scheduler", m["comp"])
	assert.Equal(t, "backup", m["job"])
	assert.EqualValues(t, 2, m["instances"])
	assert.True(t, strings.HasPrefix(m["caller"].(string), "logging_test.go:"))
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf, "warn")

	log.Info("hidden")
	assert.Zero(t, buf.Len())
	assert.False(t, log.Enabled(LevelDebug))
	assert.True(t, log.Enabled(LevelError))
}

func TestZeroLoggerIsNoop(t *testing.T) {
	var log Logger
	assert.True(t, log.IsZero())
	log.Error("nothing happens")
	assert.False(t, Nop().IsZero())
}

func TestServiceApplyFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "croner.log")
	svc, log := New(Config{Level: "info", File: FileConfig{Enabled: true, Path: path}})
	t.Cleanup(func() { _ = svc.Close() })

	log.Info("reloaded", Int("jobs", 3))

	svc.Apply(Config{Level: "error", File: FileConfig{Enabled: true, Path: path}})
	log.Info("dropped after apply")

	require.NoError(t, svc.Close())
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"message":"reloaded"`)
	assert.NotContains(t, string(b), "dropped after apply")
}

func TestParseLevel(t *testing.T) {
	lvl, ok := ParseLevel("Warning")
	assert.True(t, ok)
	assert.Equal(t, LevelWarn, lvl)

	_, ok = ParseLevel("loud")
	assert.False(t, ok)
}
