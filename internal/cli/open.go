package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/pkordes/slugkeeper/internal/backend"
	"github.com/pkordes/slugkeeper/internal/config"
	"github.com/pkordes/slugkeeper/internal/service"
)

// withServices opens the database named by opts, applies pending
// migrations, and runs fn with services built over it.
func withServices(cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, svc service.Services) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	registry, err := config.LoadRegistry(opts.TypesFile, opts.Separator)
	if err != nil {
		return WrapExitError(ExitCommandError, "load subject types", err)
	}
	b, err := openBackend(ctx, opts)
	if err != nil {
		return err
	}
	defer b.Close()

	return fn(ctx, service.NewServices(b.Store, service.Options{Registry: registry}))
}

func openBackend(ctx context.Context, opts *RootOptions) (*backend.Backend, error) {
	db, err := config.ParseDatabaseURL(opts.DB)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "parse --db", err)
	}
	b, err := backend.Open(ctx, db)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "open database", err)
	}
	if _, err := b.Migrate(ctx); err != nil {
		b.Close()
		return nil, WrapExitError(ExitCommandError, "migrate database", err)
	}
	return b, nil
}
