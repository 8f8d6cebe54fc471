// Package cli implements slugctl, the command-line client for a slugkeeper
// database. Every command opens the database directly, applies pending
// migrations, and runs one service operation.
package cli

import (
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/pkordes/slugkeeper/internal/domain"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	DB        string // DATABASE_URL-style connection string or SQLite path
	Format    string // "json" | "text"
	Scope     string
	TypesFile string
	Separator string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for slugctl.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "slugctl",
		Short: "Manage slugs in a slugkeeper database",
		Long: `slugctl assigns unique slugs to subjects, keeps their history,
and resolves slugs, old slugs, and primary keys back to subjects.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if opts.DB == "" {
				return NewExitError(ExitCommandError, "no database: set --db or DATABASE_URL")
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.DB, "db", os.Getenv("DATABASE_URL"), "database URL or SQLite file path (default $DATABASE_URL)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Scope, "scope", "", "scope for scoped subject types")
	cmd.PersistentFlags().StringVar(&opts.TypesFile, "types", os.Getenv("SUBJECT_TYPES_FILE"), "subject types YAML file (default $SUBJECT_TYPES_FILE)")
	cmd.PersistentFlags().StringVar(&opts.Separator, "separator", domain.DefaultSeparator, "default sequence separator")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewCreateCommand(opts))
	cmd.AddCommand(NewAssignCommand(opts))
	cmd.AddCommand(NewResolveCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))

	return cmd
}
