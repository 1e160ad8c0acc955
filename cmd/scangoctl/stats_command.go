package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"scango/app/internal/app/bootstrap"
)

func newStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show record counts per store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stores, err := ctx.ensureStores(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			reporter, err := bootstrap.NewReporter(stores)
			if err != nil {
				return err
			}

			stats, err := reporter.Stats(cmd.Context())
			if err != nil {
				return err
			}

			rows := [][]string{
				{"Demo pages", strconv.FormatInt(stats.Demos, 10)},
				{"Feedback", strconv.FormatInt(stats.Feedbacks, 10)},
				{"Curator proposals", strconv.FormatInt(stats.Proposals, 10)},
				{"Admins", strconv.FormatInt(stats.Admins, 10)},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Store", "Records"}, rows, []columnAlignment{alignLeft, alignRight}))
			return nil
		},
	}
}
