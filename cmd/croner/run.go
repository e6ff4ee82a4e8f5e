package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"croner/internal/config"
	"croner/internal/executor"
	"croner/internal/output"
	"croner/internal/runtime/supervisor"
	"croner/internal/scheduler"
	logx "croner/pkg/logx"
)

func newRunCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the scheduler until interrupted",
		Long: `Run loads the jobs file, runs every job when it is due and reloads the
file whenever its modification time changes. A broken file at startup is
fatal; a broken file during a reload keeps the current jobs.

SIGINT or SIGTERM stops the loop once the running command (if any) exits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScheduler(cmd, opts)
		},
	}
}

func runScheduler(cmd *cobra.Command, opts *rootOptions) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	level := opts.logLevel
	if level == "" {
		level = "info"
	}
	logSvc, log := logx.New(logx.Config{Level: level, Console: true})
	defer func() { _ = logSvc.Close() }()

	out := output.NewPrinter(cmd.OutOrStdout(), !opts.quiet, output.NewColorPicker(output.ColorMode(opts.color, os.Stdout)))

	loader := config.NewLoader(afero.NewOsFs(), opts.configPath)
	loader.SetLogger(log.With(logx.String("comp", "config")))
	watcher := config.NewWatcher(opts.configPath, log.With(logx.String("comp", "config-watch")))

	sched := scheduler.New(scheduler.Options{
		Loader:   loader,
		Executor: executor.NewProcess(out, log.With(logx.String("comp", "executor"))),
		Out:      out,
		Log:      log,
		Logging:  logSvc,
		LogLevel: opts.logLevel,
		Wake:     watcher.Changes(),
		Notifier: scheduler.SystemdNotifier{Log: log},
	})
	if err := sched.Start(); err != nil {
		log.Error("startup failed", logx.Err(err))
		return err
	}

	sup := supervisor.NewSupervisor(ctx,
		supervisor.WithLogger(log.With(logx.String("comp", "supervisor"))),
		supervisor.WithCancelOnError(true),
	)
	sup.Go("config-watch", watcher.Watch)
	sup.Go("scheduler", sched.Run)

	err := sup.Wait()
	log.Info("stopped", logx.String("supervisor", sup.String()))
	return err
}
