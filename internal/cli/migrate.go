package cli

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/SadmanHussainChowdhury/community-complaint-api/internal/repository"
)

func newMigrateCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withDB(cmd, func(ctx context.Context, db *sqlx.DB) error {
				if err := repository.Migrate(ctx, db); err != nil {
					return err
				}
				app.logger.Info("schema migrated")
				return writeOut(cmd, app, map[string]any{"data": map[string]any{"migrated": true}})
			})
		},
	}
}
