package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"scango/app/internal/admin"
)

func newCreateAdminCommand(ctx *commandContext) *cobra.Command {
	var email string
	var password string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin account with a bcrypt hashed password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stores, err := ctx.ensureStores(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			created, err := admin.Seed(cmd.Context(), stores.Admins, email, password)
			if err != nil {
				return eris.Wrap(err, "creating admin")
			}

			out := cmd.OutOrStdout()
			if !created {
				fmt.Fprintf(out, "Admin %s already exists\n", email)
				return nil
			}
			fmt.Fprintf(out, "Admin %s created\n", email)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Admin email address")
	cmd.Flags().StringVar(&password, "password", "", "Admin password (at least 8 characters)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}
