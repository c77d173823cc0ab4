package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/assetdesk/internal/auth"
	"github.com/example/assetdesk/internal/db"
	"github.com/example/assetdesk/internal/repository"
	"github.com/example/assetdesk/internal/service"
)

func newCreateAdminCommand() *cobra.Command {
	var in service.RegisterInput

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin account, or promote and reset an existing one",
		RunE: func(cmd *cobra.Command, args []string) error {
			if in.Username == "" || in.Password == "" {
				return errors.New("--username and --password are required")
			}
			cfg, log, database, err := bootstrap()
			if err != nil {
				return err
			}
			defer db.Close(database)

			if err := db.Migrate(database); err != nil {
				return fmt.Errorf("auto migrate: %w", err)
			}

			users := service.NewUserService(
				repository.NewUserRepository(database),
				auth.NewPasswordHasher(cfg.Auth.BcryptCost),
				auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
				log,
			)
			u, err := users.EnsureAdmin(cmd.Context(), in)
			if err != nil {
				return err
			}
			log.Info("admin account ready", "user_id", u.ID, "username", u.Username)
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Username, "username", "", "admin username")
	cmd.Flags().StringVar(&in.Password, "password", "", "admin password")
	cmd.Flags().StringVar(&in.FullName, "full-name", "Administrator", "display name")
	return cmd
}
