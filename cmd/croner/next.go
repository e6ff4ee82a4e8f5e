package main

import (
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"croner/internal/config"
	"croner/internal/schedule"
)

type nextOptions struct {
	count int
	from  string
}

func newNextCmd(root *rootOptions) *cobra.Command {
	opts := &nextOptions{}
	cmd := &cobra.Command{
		Use:   "next",
		Short: "Print upcoming run times for every job",
		Long: `Next loads the jobs file and prints the next run times of each job in the
file's timezone, without running anything.

Examples:
  croner next
  croner next --count 10 --from 2024-01-05T09:00:00Z`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNext(cmd, root, opts, afero.NewOsFs(), time.Now())
		},
	}
	cmd.Flags().IntVarP(&opts.count, "count", "n", 5, "Number of run times per job")
	cmd.Flags().StringVar(&opts.from, "from", "", "Start instant (RFC3339); defaults to now")
	return cmd
}

func runNext(cmd *cobra.Command, root *rootOptions, opts *nextOptions, fs afero.Fs, now time.Time) error {
	if opts.count < 1 {
		return errors.Newf("--count must be positive, got %d", opts.count)
	}
	from := now
	if opts.from != "" {
		t, err := time.Parse(time.RFC3339, opts.from)
		if err != nil {
			return errors.Wrap(err, "--from")
		}
		from = t
	}

	cfg, err := config.NewLoader(fs, root.configPath).Load()
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	from = from.In(cfg.Location)
	for i, j := range cfg.Jobs {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s  [%s]  fanout=%d\n", j.ID, j.Schedule, j.Instances())
		times, err := schedule.NextN(j.Schedule, from, opts.count)
		for _, t := range times {
			fmt.Fprintf(w, "  %s  (%s)\n", t.Format("Mon 2006-01-02 15:04 MST"), humanize.RelTime(t, from, "ago", "from now"))
		}
		if err != nil {
			fmt.Fprintf(w, "  %v\n", err)
		}
	}
	return nil
}
