package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/SadmanHussainChowdhury/community-complaint-api/internal/models"
	"github.com/SadmanHussainChowdhury/community-complaint-api/internal/repository"
)

func newShowCmd(app *App) *cobra.Command {
	var as string
	cmd := &cobra.Command{
		Use:   "show <complaint-id>",
		Short: "Print a complaint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			role := models.UserRole(as)
			if !role.Valid() {
				return fmt.Errorf("--as must be resident, staff or admin")
			}
			return app.withDB(cmd, func(ctx context.Context, db *sqlx.DB) error {
				complaint, err := repository.NewComplaintRepository(db).GetByID(ctx, args[0])
				if errors.Is(err, sql.ErrNoRows) {
					return fmt.Errorf("complaint %s not found", args[0])
				}
				if err != nil {
					return err
				}
				return writeOut(cmd, app, map[string]any{"data": complaint.VisibleTo(role)})
			})
		},
	}
	cmd.Flags().StringVar(&as, "as", string(models.RoleAdmin), "Render as this role (resident hides internal notes)")
	return cmd
}

func newHistoryCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "history <complaint-id>",
		Short: "Print the assignment history of a complaint, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withDB(cmd, func(ctx context.Context, db *sqlx.DB) error {
				records, err := repository.NewAssignmentRepository(db).ListByComplaint(ctx, args[0])
				if err != nil {
					return err
				}
				if records == nil {
					records = []models.AssignmentRecord{}
				}
				return writeOut(cmd, app, map[string]any{
					"data": records,
					"meta": map[string]any{"count": len(records)},
				})
			})
		},
	}
}
