package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/assetdesk/internal/db"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, log, database, err := bootstrap()
			if err != nil {
				return err
			}
			defer db.Close(database)

			if err := db.Migrate(database); err != nil {
				return fmt.Errorf("auto migrate: %w", err)
			}
			log.Info("schema migrated")
			return nil
		},
	}
}
