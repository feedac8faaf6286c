package main

import (
	"github.com/spf13/cobra"

	"cryptodash/internal/logger"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and exit.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup(cmd)
		if err != nil {
			return err
		}
		defer logger.Sync()

		if _, err := openDB(cfg); err != nil {
			return err
		}
		logger.Info("migrations applied")
		return nil
	},
}
