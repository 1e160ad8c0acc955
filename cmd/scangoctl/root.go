package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var flags globalFlags

	ctx := newCommandContext(&flags)

	rootCmd := &cobra.Command{
		Use:           "scangoctl",
		Short:         "ScanGo administration CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return ctx.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&flags.configFile, "config", "c", "", "TOML configuration file path")
	rootCmd.PersistentFlags().StringVar(&flags.dbPath, "db", "", "SQLite database path (overrides DB_PATH)")
	rootCmd.PersistentFlags().StringVar(&flags.uploadDir, "upload-dir", "", "Upload directory (overrides UPLOAD_DIR)")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level (overrides LOG_LEVEL)")

	rootCmd.AddCommand(newCreateAdminCommand(ctx))
	rootCmd.AddCommand(newSeedDemosCommand(ctx))
	rootCmd.AddCommand(newStatsCommand(ctx))

	return rootCmd
}
