package main

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"scango/app/internal/app/bootstrap"
)

func newSeedDemosCommand(ctx *commandContext) *cobra.Command {
	var replace bool

	cmd := &cobra.Command{
		Use:   "seed-demos",
		Short: "Install the museum, product and health sample pages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stores, err := ctx.ensureStores(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			demos, _, err := bootstrap.NewDemoService(*ctx.cfg, stores, nil, ctx.logger)
			if err != nil {
				return err
			}

			result, err := demos.Seed(cmd.Context(), replace)
			if err != nil {
				return eris.Wrap(err, "seeding demo pages")
			}

			out := cmd.OutOrStdout()
			if len(result.Created) == 0 && len(result.Replaced) == 0 {
				fmt.Fprintln(out, "Sample pages already present; use --replace to recreate them")
				return nil
			}
			if len(result.Created) > 0 {
				fmt.Fprintf(out, "Created: %s\n", strings.Join(result.Created, ", "))
			}
			if len(result.Replaced) > 0 {
				fmt.Fprintf(out, "Replaced: %s\n", strings.Join(result.Replaced, ", "))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&replace, "replace", false, "Delete and recreate sample pages that already exist")

	return cmd
}
