package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pkordes/slugkeeper/internal/backend"
	"github.com/pkordes/slugkeeper/internal/config"
	"github.com/pkordes/slugkeeper/internal/domain"
	"github.com/pkordes/slugkeeper/internal/service"
)

// MigrateResult is the JSON payload of the migrate command.
type MigrateResult struct {
	Applied int `json:"applied"`
}

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(opts, cmd)
		},
	}
}

func runMigrate(opts *RootOptions, cmd *cobra.Command) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	db, err := config.ParseDatabaseURL(opts.DB)
	if err != nil {
		return WrapExitError(ExitCommandError, "parse --db", err)
	}
	b, err := backend.Open(ctx, db)
	if err != nil {
		return WrapExitError(ExitCommandError, "open database", err)
	}
	defer b.Close()

	n, err := b.Migrate(ctx)
	if err != nil {
		return out.Fail(err)
	}
	return out.Success(MigrateResult{Applied: n}, func(w io.Writer) {
		fmt.Fprintf(w, "applied %d migrations\n", n)
	})
}

// NewCreateCommand creates the create command.
func NewCreateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "create <type> [text...]",
		Short: "Create a subject and assign its slug",
		Long: `Create a subject of the given type. Each text argument is a slug
candidate; the first one that is free is used, otherwise the first one
gets a sequence suffix.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(opts, args, cmd)
		},
	}
}

func runCreate(opts *RootOptions, args []string, cmd *cobra.Command) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return withServices(cmd, opts, func(ctx context.Context, svc service.Services) error {
		s, err := svc.Subjects.Create(ctx, args[0], opts.Scope, args[1:]...)
		if err != nil {
			return out.Fail(err)
		}
		return out.Success(s, subjectText(s))
	})
}

// NewAssignCommand creates the assign command.
func NewAssignCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "assign <type> <id> <text> [text...]",
		Short: "Assign a new slug to an existing subject",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAssign(opts, args, cmd)
		},
	}
}

func runAssign(opts *RootOptions, args []string, cmd *cobra.Command) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	id, err := parseID(args[1])
	if err != nil {
		return err
	}
	return withServices(cmd, opts, func(ctx context.Context, svc service.Services) error {
		s, err := svc.Assigner.Assign(ctx, args[0], id, args[2:]...)
		if err != nil {
			return out.Fail(err)
		}
		return out.Success(s, subjectText(s))
	})
}

// NewResolveCommand creates the resolve command.
func NewResolveCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <type> <token>",
		Short: "Find the subject a slug, old slug, or primary key refers to",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(opts, args, cmd)
		},
	}
}

func runResolve(opts *RootOptions, args []string, cmd *cobra.Command) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	var scope *string
	if opts.Scope != "" {
		scope = &opts.Scope
	}
	return withServices(cmd, opts, func(ctx context.Context, svc service.Services) error {
		res, err := svc.Resolver.Resolve(ctx, args[0], scope, args[1])
		if err != nil {
			return out.Fail(err)
		}
		return out.Success(res, func(w io.Writer) {
			fmt.Fprintf(w, "%s %d current=%s tier=%s stale=%t\n",
				res.SubjectType, res.SubjectID, res.CurrentSlug, res.Tier, res.Stale)
		})
	})
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "history <type> <id>",
		Short: "List the slugs a subject has held, newest first",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, args, cmd)
		},
	}
}

func runHistory(opts *RootOptions, args []string, cmd *cobra.Command) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	id, err := parseID(args[1])
	if err != nil {
		return err
	}
	return withServices(cmd, opts, func(ctx context.Context, svc service.Services) error {
		records, err := svc.Subjects.History(ctx, args[0], id)
		if err != nil {
			return out.Fail(err)
		}
		if records == nil {
			records = []domain.SlugRecord{}
		}
		return out.Success(records, func(w io.Writer) {
			for i, r := range records {
				marker := " "
				if i == 0 {
					marker = "*"
				}
				fmt.Fprintf(w, "%s %s\n", marker, r.Slug)
			}
		})
	})
}

// DeleteResult is the JSON payload of the delete command.
type DeleteResult struct {
	Type string `json:"type"`
	ID   int64  `json:"id"`
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <type> <id>",
		Short: "Delete a subject and its slug history",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(opts, args, cmd)
		},
	}
}

func runDelete(opts *RootOptions, args []string, cmd *cobra.Command) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	id, err := parseID(args[1])
	if err != nil {
		return err
	}
	return withServices(cmd, opts, func(ctx context.Context, svc service.Services) error {
		if err := svc.Subjects.Delete(ctx, args[0], id); err != nil {
			return out.Fail(err)
		}
		return out.Success(DeleteResult{Type: args[0], ID: id}, func(w io.Writer) {
			fmt.Fprintf(w, "deleted %s %d\n", args[0], id)
		})
	})
}

func subjectText(s domain.Subject) func(io.Writer) {
	return func(w io.Writer) {
		fmt.Fprintf(w, "%s %d %s\n", s.Type, s.ID, s.Slug)
	}
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, NewExitError(ExitCommandError, fmt.Sprintf("invalid id %q", raw))
	}
	return id, nil
}
