package config

import (
	"bytes"
	"encoding/json"
	"time"

	"croner/internal/job"
	logx "croner/pkg/logx"
)

// DefaultPath is the config file used when none is given.
const DefaultPath = "croner.yml"

// Config is a loaded, validated configuration.
type Config struct {
	Location *time.Location
	Logging  *LoggingConfig
	Jobs     []job.Spec
}

// fileConfig is the on-disk shape.
type fileConfig struct {
	// Timezone is an IANA name (e.g. "Asia/Jakarta"). Empty means local time.
	Timezone string         `json:"timezone,omitempty"`
	Logging  *LoggingConfig `json:"logging,omitempty"`
	Jobs     []jobConfig    `json:"jobs"`
}

type jobConfig struct {
	ID string `json:"id"`
	// Exactly one of Schedule and Cron must be set.
	Schedule *scheduleConfig `json:"schedule,omitempty"`
	Cron     string          `json:"cron,omitempty"`
	Command  []string        `json:"command"`
	Fanout   *int            `json:"fanout,omitempty"`
}

// scheduleConfig fields accept an integer, a list of integers, or a cron
// field expression such as "*/15" or "MON-FRI". Omitted fields match every value.
type scheduleConfig struct {
	Minute  json.RawMessage `json:"minute,omitempty"`
	Hour    json.RawMessage `json:"hour,omitempty"`
	Day     json.RawMessage `json:"day,omitempty"`
	Weekday json.RawMessage `json:"weekday,omitempty"`
	Month   json.RawMessage `json:"month,omitempty"`
}

// UnmarshalJSON disallows unknown fields so typos like "minutes" are caught
// instead of silently meaning "every minute".
func (s *scheduleConfig) UnmarshalJSON(b []byte) error {
	type tmp scheduleConfig
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	var t tmp
	if err := dec.Decode(&t); err != nil {
		return err
	}
	*s = scheduleConfig(t)
	return nil
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console *bool       `json:"console,omitempty"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// Logx converts the section into a logx.Config. Console defaults to on.
func (c *LoggingConfig) Logx() logx.Config {
	if c == nil {
		return logx.Config{Level: "info", Console: true}
	}
	console := true
	if c.Console != nil {
		console = *c.Console
	}
	return logx.Config{
		Level:   c.Level,
		Console: console,
		File:    logx.FileConfig{Enabled: c.File.Enabled, Path: c.File.Path},
	}
}
