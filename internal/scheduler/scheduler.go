// Package scheduler drives the job loop: sleep until the earliest deadline,
// run every due job sequentially, compute each job's next run, and rebuild
// everything when the configuration file changes.
//
// One goroutine owns the loop and the queue; jobs never overlap.
package scheduler

import (
	"context"
	"reflect"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"croner/internal/config"
	"croner/internal/executor"
	"croner/internal/job"
	"croner/internal/output"
	"croner/internal/schedule"
	logx "croner/pkg/logx"
)

// DefaultIdleInterval is how long the loop parks when no job is queued.
const DefaultIdleInterval = 60 * time.Second

const reloadWarnInterval = time.Minute

// Options wires a Scheduler. Loader and Executor are required.
type Options struct {
	Loader   *config.Loader
	Executor executor.Executor
	Out      *output.Printer
	Log      logx.Logger

	// Logging, when set, receives the config's logging section on every
	// load whose section changed.
	Logging *logx.Service
	// LogLevel, when set, overrides the level from the logging section.
	LogLevel string
	// Wake interrupts the wait early (e.g. a file watcher). The reload
	// decision is still made by comparing modification times.
	Wake     <-chan struct{}
	Notifier Notifier

	IdleInterval time.Duration
	Now          func() time.Time
}

type Scheduler struct {
	loader   *config.Loader
	exec     executor.Executor
	out      *output.Printer
	log      logx.Logger
	logging  *logx.Service
	level    string
	wake     <-chan struct{}
	notifier Notifier
	idle     time.Duration
	now      func() time.Time

	cfg     *config.Config
	loc     *time.Location
	modTime time.Time
	queue   *Queue
	started bool

	reloadWarn *rate.Sometimes
}

func New(opts Options) *Scheduler {
	if opts.Log.IsZero() {
		opts.Log = logx.Nop()
	}
	if opts.Out == nil {
		opts.Out = output.NewPrinter(nil, false, nil)
	}
	if opts.Notifier == nil {
		opts.Notifier = NotifierFunc(func(string) {})
	}
	if opts.IdleInterval <= 0 {
		opts.IdleInterval = DefaultIdleInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Scheduler{
		loader:     opts.Loader,
		exec:       opts.Executor,
		out:        opts.Out,
		log:        opts.Log.With(logx.String("comp", "scheduler")),
		logging:    opts.Logging,
		level:      opts.LogLevel,
		wake:       opts.Wake,
		notifier:   opts.Notifier,
		idle:       opts.IdleInterval,
		now:        opts.Now,
		queue:      NewQueue(),
		loc:        time.Local,
		reloadWarn: newReloadWarn(),
	}
}

func newReloadWarn() *rate.Sometimes {
	return &rate.Sometimes{First: 1, Interval: reloadWarnInterval}
}

// Start performs the initial load and seeds the queue. A configuration error
// here is fatal and returned as is.
func (s *Scheduler) Start() error {
	if s.loader == nil || s.exec == nil {
		return errors.New("scheduler: loader and executor are required")
	}
	cfg, err := s.loader.Load()
	if err != nil {
		return err
	}
	mt, err := s.loader.ModTime()
	if err != nil {
		return errors.Mark(err, config.ErrInvalid)
	}

	s.out.System("running")
	s.modTime = mt
	s.apply(cfg, s.now())
	s.started = true

	s.log.Info("scheduler started",
		logx.String("config", s.loader.Path()),
		logx.String("tz", s.loc.String()),
		logx.Int("jobs", len(cfg.Jobs)),
		logx.Int("queued", s.queue.Len()),
	)
	s.notifier.Notify(daemon.SdNotifyReady)
	s.notifyStatus()
	return nil
}

// Run starts the scheduler if needed and loops until ctx is canceled.
// Running child processes are not interrupted by cancellation; Run returns
// once the current instance finishes.
func (s *Scheduler) Run(ctx context.Context) error {
	if !s.started {
		if err := s.Start(); err != nil {
			return err
		}
	}
	for {
		if err := s.wait(ctx); err != nil {
			s.log.Info("scheduler stopping")
			s.notifier.Notify(daemon.SdNotifyStopping)
			return nil
		}
		if s.queue.Len() > 0 {
			s.runDue(ctx, s.now())
		}
		if ctx.Err() != nil {
			continue
		}
		s.checkReload()
	}
}

// wait sleeps until the earliest entry is due, the idle interval passes on an
// empty queue, a wake signal arrives, or ctx is done.
func (s *Scheduler) wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d := s.idle
	if e, ok := s.queue.Peek(); ok {
		d = e.At.Sub(s.now())
		if d <= 0 {
			return nil
		}
	}

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
	case <-s.wake:
		s.log.Debug("woken by config watcher")
	}
	return nil
}

// runDue pops every entry due at now and runs them in pop order. Each job is
// rescheduled from now after its instances finish.
func (s *Scheduler) runDue(ctx context.Context, now time.Time) int {
	due := s.queue.PopDue(now)
	if len(due) == 0 {
		return 0
	}
	s.log.Debug("due batch", logx.Int("jobs", len(due)), logx.Time("now", now))

	for i, e := range due {
		if ctx.Err() != nil {
			// Shutting down: keep the remaining jobs queued as they were.
			for _, rest := range due[i:] {
				s.queue.Push(rest)
			}
			return i
		}
		s.fire(ctx, e)
		s.reschedule(e.Job, now)
	}
	s.notifyStatus()
	return len(due)
}

// fire runs every instance of one firing, sequentially.
func (s *Scheduler) fire(ctx context.Context, e Entry) {
	runID := uuid.NewString()
	log := s.log.With(logx.String("job", e.Job.ID), logx.String("run_id", runID))
	instances := e.Job.Expand()
	log.Info("job fired", logx.Time("due", e.At), logx.Int("instances", len(instances)))

	for _, inst := range instances {
		if ctx.Err() != nil {
			return
		}
		s.out.System("Running job: %s", inst.ID)
		res, err := s.exec.Run(ctx, inst)
		if err != nil {
			s.reportRunError(log, inst, err)
			continue
		}
		log.Debug("instance finished",
			logx.String("instance", inst.ID),
			logx.Int("lines", res.Lines),
			logx.Duration("took", res.Duration),
		)
	}
}

func (s *Scheduler) reportRunError(log logx.Logger, inst job.Instance, err error) {
	var exitErr *executor.ExitError
	if errors.As(err, &exitErr) {
		s.out.System("Job %s exited with status %d", inst.ID, exitErr.Code)
		log.Debug("instance exited non-zero", logx.String("instance", inst.ID), logx.Int("code", exitErr.Code))
		return
	}
	var launchErr *executor.LaunchError
	if errors.As(err, &launchErr) {
		s.out.System("Failed to run job: %s: %v", inst.ID, launchErr.Err)
	} else {
		s.out.System("Failed to run job: %s: %v", inst.ID, err)
	}
	log.Debug("instance failed", logx.String("instance", inst.ID), logx.Err(err))
}

// reschedule queues j's next run strictly after `after`. A job whose
// schedule cannot be satisfied is reported and dropped.
func (s *Scheduler) reschedule(j job.Spec, after time.Time) bool {
	next, err := schedule.Next(j.Schedule, after.In(s.loc))
	if err != nil {
		s.out.System("Failed to schedule job: %s: %v", j.ID, err)
		s.log.Error("job not scheduled", logx.String("job", j.ID), logx.Err(err))
		return false
	}
	s.queue.Push(Entry{At: next, Job: j})
	return true
}

// checkReload compares the config file's modification time with the one
// recorded at the last successful load and rebuilds the queue on change.
// A failed reload keeps the current jobs and is retried next iteration.
func (s *Scheduler) checkReload() bool {
	mt, err := s.loader.ModTime()
	if err != nil {
		s.reloadFailed(err)
		return false
	}
	if mt.Equal(s.modTime) {
		return false
	}

	s.notifier.Notify(daemon.SdNotifyReloading)
	defer s.notifier.Notify(daemon.SdNotifyReady)

	cfg, err := s.loader.Load()
	if err != nil {
		s.reloadFailed(err)
		return false
	}

	_, _, _, attrs := config.SummarizeJobChange(s.cfg, cfg)
	s.modTime = mt
	s.reloadWarn = newReloadWarn()
	s.out.System("Config changed, reloaded %d jobs", len(cfg.Jobs))
	s.log.Info("config reloaded", attrs...)
	s.apply(cfg, s.now())
	s.notifyStatus()
	return true
}

func (s *Scheduler) reloadFailed(err error) {
	s.reloadWarn.Do(func() {
		s.out.System("Failed to reload config, keeping %d jobs: %v", len(s.jobs()), err)
		s.log.Warn("config reload failed; keeping previous jobs", logx.String("path", s.loader.Path()), logx.Err(err))
	})
}

// apply discards the queue and reseeds it from cfg with now as lower bound.
func (s *Scheduler) apply(cfg *config.Config, now time.Time) {
	if s.logging != nil {
		if lc := s.loggingConfig(cfg); s.cfg == nil || !reflect.DeepEqual(s.loggingConfig(s.cfg), lc) {
			s.logging.Apply(lc)
		}
	}

	s.cfg = cfg
	s.loc = cfg.Location
	if s.loc == nil {
		s.loc = time.Local
	}
	s.queue.Clear()

	for _, j := range cfg.Jobs {
		if !s.reschedule(j, now) {
			continue
		}
		if s.log.Enabled(logx.LevelDebug) {
			s.log.Debug("job scheduled",
				logx.String("job", j.ID),
				logx.String("schedule", j.Schedule.String()),
				logx.Int("fanout", j.Instances()),
				logx.String("next", s.previewNextRuns(j, now, 3)),
			)
		}
	}
}

func (s *Scheduler) loggingConfig(cfg *config.Config) logx.Config {
	lc := cfg.Logging.Logx()
	if s.level != "" {
		lc.Level = s.level
	}
	return lc
}

// previewNextRuns returns a short, human-friendly list of upcoming run times.
func (s *Scheduler) previewNextRuns(j job.Spec, now time.Time, n int) string {
	times, _ := schedule.NextN(j.Schedule, now.In(s.loc), n)
	out := ""
	for i, t := range times {
		if i > 0 {
			out += ", "
		}
		out += t.Format("2006-01-02 15:04")
	}
	return out
}

func (s *Scheduler) notifyStatus() {
	e, ok := s.queue.Peek()
	if !ok {
		s.notifier.Notify("STATUS=no jobs scheduled")
		return
	}
	s.notifier.Notify("STATUS=" + humanize.Comma(int64(s.queue.Len())) + " jobs queued; next " + e.Job.ID + " " + humanize.Time(e.At))
}

func (s *Scheduler) jobs() []job.Spec {
	if s.cfg == nil {
		return nil
	}
	return s.cfg.Jobs
}

// Pending returns the queued entries in due order.
func (s *Scheduler) Pending() []Entry { return s.queue.Snapshot() }

// Config returns the active configuration.
func (s *Scheduler) Config() *config.Config { return s.cfg }
