package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/SadmanHussainChowdhury/community-complaint-api/internal/repository"
	"github.com/SadmanHussainChowdhury/community-complaint-api/internal/service"
	"github.com/SadmanHussainChowdhury/community-complaint-api/pkg/cache"
	"github.com/SadmanHussainChowdhury/community-complaint-api/pkg/config"
	"github.com/SadmanHussainChowdhury/community-complaint-api/pkg/database"
	"github.com/SadmanHussainChowdhury/community-complaint-api/pkg/logger"
)

// Opener connects to the complaint database.
type Opener func(ctx context.Context) (*sqlx.DB, error)

// App carries state shared by every subcommand.
type App struct {
	PrettyJSON bool

	open     Opener
	contacts service.ContactCache
	closers  []func() error
	logger   *zap.Logger
}

// Option customises the App behind the root command.
type Option func(*App)

// WithContactCache sets the cache that directory changes invalidate.
func WithContactCache(c service.ContactCache) Option {
	return func(a *App) { a.contacts = c }
}

// NewRootCmd builds complaintctl. A nil opener connects using the environment
// configuration, including Redis for contact cache invalidation when enabled.
func NewRootCmd(open Opener, opts ...Option) *cobra.Command {
	app := &App{open: open, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(app)
	}

	cmd := &cobra.Command{
		Use:          "complaintctl",
		Short:        "Operator tooling for the complaint engine",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Create or upgrade the schema
  complaintctl migrate

  # Inspect a complaint the way a resident would see it
  complaintctl show 6f1c... --as resident

  # Register a staff member
  complaintctl users upsert --email ops@example.com --name "Ops Desk" --role staff
`),
	}
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Indent JSON output")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if app.open != nil {
			return nil
		}
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if l, err := logger.New(cfg); err == nil {
			app.logger = l
		}
		app.open = func(ctx context.Context) (*sqlx.DB, error) {
			return database.NewPostgres(ctx, cfg.Database)
		}
		if app.contacts == nil {
			client, err := cache.NewRedis(cmd.Context(), cfg.Redis)
			switch {
			case err == nil:
				app.contacts = repository.NewContactCacheRepository(client)
				app.closers = append(app.closers, client.Close)
			case !errors.Is(err, cache.ErrDisabled):
				app.logger.Warn("redis unavailable, cached contacts will expire on their own", zap.Error(err))
			}
		}
		return nil
	}
	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		for _, closeFn := range app.closers {
			_ = closeFn()
		}
		_ = app.logger.Sync()
		return nil
	}

	cmd.AddCommand(newMigrateCmd(app))
	cmd.AddCommand(newShowCmd(app))
	cmd.AddCommand(newHistoryCmd(app))
	cmd.AddCommand(newUsersCmd(app))
	return cmd
}

func (a *App) withDB(cmd *cobra.Command, fn func(ctx context.Context, db *sqlx.DB) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	db, err := a.open(ctx)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()
	return fn(ctx, db)
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	if app.PrettyJSON {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
