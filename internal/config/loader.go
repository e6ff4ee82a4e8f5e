package config

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/afero"

	"croner/internal/job"
	logx "croner/pkg/logx"
)

// ErrInvalid marks every configuration failure: unreadable file, malformed
// document, or a job that fails validation.
var ErrInvalid = errors.New("invalid configuration")

// Loader reads job specifications from a file on an afero filesystem.
type Loader struct {
	fs   afero.Fs
	path string
	log  logx.Logger
}

func NewLoader(fs afero.Fs, path string) *Loader {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if strings.TrimSpace(path) == "" {
		path = DefaultPath
	}
	return &Loader{fs: fs, path: path}
}

func (l *Loader) SetLogger(log logx.Logger) { l.log = log }

func (l *Loader) Path() string { return l.path }

// ModTime returns the file's last modification time.
func (l *Loader) ModTime() (time.Time, error) {
	fi, err := l.fs.Stat(l.path)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "stat %s", l.path)
	}
	return fi.ModTime(), nil
}

// Load reads and validates the file.
func (l *Loader) Load() (*Config, error) {
	b, err := afero.ReadFile(l.fs, l.path)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "read %s", l.path), ErrInvalid)
	}
	cfg, err := Parse(l.path, b)
	if err != nil {
		return nil, err
	}
	if !l.log.IsZero() {
		l.log.Debug("config loaded", logx.String("path", l.path), logx.Int("jobs", len(cfg.Jobs)))
	}
	return cfg, nil
}

// Parse decodes and validates configuration bytes. The path only selects the
// format (by extension) and labels errors.
func Parse(path string, data []byte) (*Config, error) {
	cfg, err := parse(path, data)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "%s", path), ErrInvalid)
	}
	return cfg, nil
}

func parse(path string, data []byte) (*Config, error) {
	jb, _, err := coerceToJSONBytes(path, data)
	if err != nil {
		return nil, err
	}

	// The document must be a mapping with a "jobs" key.
	var top map[string]json.RawMessage
	if err := json.Unmarshal(jb, &top); err != nil || top == nil {
		return nil, errors.New("expected a mapping with 'jobs' at top level")
	}
	if _, ok := top["jobs"]; !ok {
		return nil, errors.New("expected 'jobs' at top level")
	}

	var fc fileConfig
	dec := json.NewDecoder(bytes.NewReader(jb))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&fc); err != nil {
		return nil, err
	}
	// reject trailing tokens (e.g. concatenated JSON)
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return nil, errors.New("trailing data")
		}
		return nil, err
	}

	loc := time.Local
	if tz := strings.TrimSpace(fc.Timezone); tz != "" {
		loc, err = time.LoadLocation(tz)
		if err != nil {
			return nil, errors.Wrapf(err, "timezone %q", tz)
		}
	}

	jobs := make([]job.Spec, 0, len(fc.Jobs))
	seen := make(map[string]int, len(fc.Jobs))
	for i, jc := range fc.Jobs {
		spec, err := jc.build()
		if err != nil {
			return nil, errors.Wrapf(err, "jobs[%d]", i)
		}
		if prev, dup := seen[spec.ID]; dup {
			return nil, errors.Newf("jobs[%d]: duplicate id %q (also jobs[%d])", i, spec.ID, prev)
		}
		seen[spec.ID] = i
		jobs = append(jobs, spec)
	}

	return &Config{Location: loc, Logging: fc.Logging, Jobs: jobs}, nil
}

func (jc jobConfig) build() (job.Spec, error) {
	spec := job.Spec{
		ID:      strings.TrimSpace(jc.ID),
		Command: jc.Command,
		Fanout:  1,
	}
	if spec.ID == "" {
		return spec, errors.New("id required")
	}

	switch {
	case jc.Schedule != nil && strings.TrimSpace(jc.Cron) != "":
		return spec, errors.Newf("job %q: set either schedule or cron, not both", spec.ID)
	case jc.Schedule != nil:
		s, err := jc.Schedule.build()
		if err != nil {
			return spec, errors.Wrapf(err, "job %q: schedule", spec.ID)
		}
		spec.Schedule = s
	case strings.TrimSpace(jc.Cron) != "":
		s, err := parseCronLine(jc.Cron)
		if err != nil {
			return spec, errors.Wrapf(err, "job %q", spec.ID)
		}
		spec.Schedule = s
	default:
		return spec, errors.Newf("job %q: schedule required", spec.ID)
	}

	if jc.Fanout != nil {
		if *jc.Fanout < 1 {
			return spec, errors.Newf("job %q: fanout must be a positive integer", spec.ID)
		}
		spec.Fanout = *jc.Fanout
	}

	if err := spec.Validate(); err != nil {
		return spec, err
	}
	return spec, nil
}
