package main

import (
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"croner/internal/config"
	"croner/internal/schedule"
)

func newValidateCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check a jobs file without running it",
		Long: `Validate parses the jobs file and checks that every schedule can fire.
It exits non-zero when the file is invalid or any schedule never matches
a real date.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, root, afero.NewOsFs(), time.Now())
		},
	}
}

func runValidate(cmd *cobra.Command, root *rootOptions, fs afero.Fs, now time.Time) error {
	cfg, err := config.NewLoader(fs, root.configPath).Load()
	if err != nil {
		return err
	}

	var bad []string
	for _, j := range cfg.Jobs {
		if _, err := schedule.Next(j.Schedule, now.In(cfg.Location)); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", j.ID, err)
			bad = append(bad, j.ID)
		}
	}
	if len(bad) > 0 {
		return errors.Mark(errors.Newf("%d of %d jobs can never run", len(bad), len(cfg.Jobs)), schedule.ErrUnsatisfiable)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: ok, %d jobs (timezone %s)\n", root.configPath, len(cfg.Jobs), cfg.Location)
	return nil
}
