package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/SadmanHussainChowdhury/community-complaint-api/internal/models"
	"github.com/SadmanHussainChowdhury/community-complaint-api/internal/repository"
	"github.com/SadmanHussainChowdhury/community-complaint-api/internal/service"
)

func newUsersCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage the user directory",
	}
	cmd.AddCommand(newUsersUpsertCmd(app))
	return cmd
}

func newUsersUpsertCmd(app *App) *cobra.Command {
	var (
		id       string
		email    string
		name     string
		role     string
		inactive bool
	)
	cmd := &cobra.Command{
		Use:   "upsert",
		Short: "Create a directory entry or update the one with the same email",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user := &models.User{
				ID:       strings.TrimSpace(id),
				Email:    strings.ToLower(strings.TrimSpace(email)),
				FullName: strings.TrimSpace(name),
				Role:     models.UserRole(role),
				Active:   !inactive,
			}
			if user.Email == "" || user.FullName == "" {
				return fmt.Errorf("--email and --name are required")
			}
			if !user.Role.Valid() {
				return fmt.Errorf("--role must be resident, staff or admin")
			}
			return app.withDB(cmd, func(ctx context.Context, db *sqlx.DB) error {
				users := repository.NewUserRepository(db)
				if err := users.Upsert(ctx, user); err != nil {
					return err
				}
				resolver := service.NewContactResolver(users, app.contacts, 0, nil, app.logger)
				if err := resolver.Forget(ctx, user.ID); err != nil {
					app.logger.Warn("stale contact left in cache", zap.String("user_id", user.ID), zap.Error(err))
				}
				return writeOut(cmd, app, map[string]any{"data": user})
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Identifier to use when creating (defaults to a new UUID)")
	cmd.Flags().StringVar(&email, "email", "", "Contact email, unique per user")
	cmd.Flags().StringVar(&name, "name", "", "Full name")
	cmd.Flags().StringVar(&role, "role", string(models.RoleResident), "resident, staff or admin")
	cmd.Flags().BoolVar(&inactive, "inactive", false, "Mark the user inactive so they cannot be assigned or notified")
	return cmd
}
