package main

import (
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"croner/internal/config"
)

type rootOptions struct {
	configPath string
	quiet      bool
	color      string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "croner",
		Short: "Run commands on cron-style schedules",
		Long: `croner runs commands on cron-style schedules declared in a YAML or JSON
file, prefixes their combined output with the job id and reloads the file
when it changes on disk.

Examples:
  croner --config croner.yml          # run the scheduler (same as 'croner run')
  croner next --count 3               # show upcoming run times per job
  croner validate --config jobs.yml   # check a file without running anything`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.check()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScheduler(cmd, opts)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", config.DefaultPath, "Path to the jobs file (.yml, .yaml or .json)")
	pf.BoolVarP(&opts.quiet, "quiet", "q", false, "Suppress job output and scheduler notices on stdout")
	pf.StringVar(&opts.color, "color", "auto", "Colorize job prefixes: auto, always or never")
	pf.StringVar(&opts.logLevel, "log-level", "", "Log level (trace, debug, info, warn, error); overrides the config file")

	root.AddCommand(newRunCmd(opts), newNextCmd(opts), newValidateCmd(opts))
	return root
}

func (o *rootOptions) check() error {
	switch strings.ToLower(strings.TrimSpace(o.color)) {
	case "auto", "always", "never":
	default:
		return errors.Newf("invalid --color %q (want auto, always or never)", o.color)
	}
	if strings.TrimSpace(o.configPath) == "" {
		return errors.New("--config must not be empty")
	}
	return nil
}

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		root.PrintErrln("croner:", err)
		os.Exit(1)
	}
}
