// Package executor launches job instances as child processes and streams
// their combined output, line by line, into the shared output sink.
package executor

import (
	"bufio"
	"context"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"croner/internal/job"
	"croner/internal/output"
	logx "croner/pkg/logx"
)

// LaunchError reports that an instance's process could not be started
// (missing executable, permission denied, ...).
type LaunchError struct {
	ID  string
	Err error
}

func (e *LaunchError) Error() string { return "launch " + e.ID + ": " + e.Err.Error() }
func (e *LaunchError) Unwrap() error { return e.Err }

// ExitError reports that an instance ran but exited unsuccessfully.
type ExitError struct {
	ID   string
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.ID + ": " + e.Err.Error() }
func (e *ExitError) Unwrap() error { return e.Err }

// Result describes one finished (or failed) instance run.
type Result struct {
	ID       string
	ExitCode int
	Lines    int
	Started  time.Time
	Duration time.Duration
}

// Executor runs job instances.
type Executor interface {
	Run(ctx context.Context, inst job.Instance) (Result, error)
}

// Process is the Executor backed by os/exec.
type Process struct {
	out *output.Printer
	log logx.Logger

	// Dir and Env are passed through to the child; zero values inherit ours.
	Dir string
	Env []string
}

func NewProcess(out *output.Printer, log logx.Logger) *Process {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Process{out: out, log: log}
}

// Run starts inst.Command directly (argv, no shell), merges stdout and stderr
// into one pipe and blocks until the stream is exhausted and the child exits.
//
// The context is only consulted before launch; a running child is never
// signaled.
func (p *Process) Run(ctx context.Context, inst job.Instance) (Result, error) {
	res := Result{ID: inst.ID, ExitCode: -1, Started: time.Now()}
	if err := ctx.Err(); err != nil {
		return res, &LaunchError{ID: inst.ID, Err: err}
	}
	if len(inst.Command) == 0 {
		return res, &LaunchError{ID: inst.ID, Err: errors.New("empty command")}
	}

	pr, pw, err := os.Pipe()
	if err != nil {
		return res, &LaunchError{ID: inst.ID, Err: errors.Wrap(err, "pipe")}
	}
	defer pr.Close()

	cmd := exec.Command(inst.Command[0], inst.Command[1:]...)
	cmd.Dir = p.Dir
	cmd.Env = p.Env
	// Same *os.File for both streams: the child gets one fd, so ordering
	// between stdout and stderr is preserved.
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		_ = pw.Close()
		return res, &LaunchError{ID: inst.ID, Err: err}
	}
	// The child holds its own copy; closing ours lets reads hit EOF on exit.
	_ = pw.Close()

	p.log.Debug("instance started", logx.String("instance", inst.ID), logx.Int("pid", cmd.Process.Pid))

	n, readErr := p.stream(pr, inst)
	res.Lines = n
	waitErr := cmd.Wait()
	res.Duration = time.Since(res.Started)
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}

	if waitErr != nil {
		var ee *exec.ExitError
		if errors.As(waitErr, &ee) {
			return res, &ExitError{ID: inst.ID, Code: ee.ExitCode(), Err: waitErr}
		}
		return res, &LaunchError{ID: inst.ID, Err: waitErr}
	}
	if readErr != nil {
		return res, &LaunchError{ID: inst.ID, Err: errors.Wrap(readErr, "read output")}
	}
	return res, nil
}

// stream copies r to the sink line by line. Lines of any length are accepted.
func (p *Process) stream(r io.Reader, inst job.Instance) (int, error) {
	br := bufio.NewReader(r)
	n := 0
	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			p.out.Job(inst.JobID, inst.ID, strings.TrimRight(line, "\r\n"))
			n++
		}
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return n, err
		}
	}
}
