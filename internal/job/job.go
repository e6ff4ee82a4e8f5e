// Package job holds the job model: specifications loaded from configuration
// and the per-firing instances they expand into.
package job

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"croner/internal/schedule"
)

// Spec describes one configured job.
type Spec struct {
	ID       string
	Schedule schedule.Schedule
	// Command is executed directly, never through a shell.
	Command []string
	// Fanout is the number of instances per firing. Zero means 1.
	Fanout int
}

// Instance is one process launch produced by a firing of a Spec.
type Instance struct {
	// ID is the job id, suffixed with "-<n>" when the job fans out.
	ID      string
	JobID   string
	Index   int
	Command []string
}

// Instances returns the effective fanout (at least 1).
func (s Spec) Instances() int {
	if s.Fanout < 1 {
		return 1
	}
	return s.Fanout
}

// Validate checks the fields the scheduler relies on.
func (s Spec) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return errors.New("job id required")
	}
	if len(s.Command) == 0 || strings.TrimSpace(s.Command[0]) == "" {
		return errors.Newf("job %q: command required", s.ID)
	}
	if s.Fanout < 0 {
		return errors.Newf("job %q: fanout must be positive", s.ID)
	}
	if err := s.Schedule.Validate(); err != nil {
		return errors.Wrapf(err, "job %q", s.ID)
	}
	return nil
}

// Expand produces the instances for one firing, in run order.
// Instances are numbered from 1; a job without fanout keeps its bare id.
func (s Spec) Expand() []Instance {
	n := s.Instances()
	out := make([]Instance, 0, n)
	for i := 1; i <= n; i++ {
		id := s.ID
		if n > 1 {
			id = s.ID + "-" + strconv.Itoa(i)
		}
		out = append(out, Instance{
			ID:      id,
			JobID:   s.ID,
			Index:   i,
			Command: append([]string(nil), s.Command...),
		})
	}
	return out
}
