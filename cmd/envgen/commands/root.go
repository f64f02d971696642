package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var verbose bool

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "envgen",
		Short: "envgen - Environment variable generation from declarative schemas",
		Long: `envgen generates, validates, and persists environment variables from a
declarative YAML schema.

Features:
  - Typed variables (str, int, float, bool) with validation constraints
  - Generation rules: defaults, shell commands, cryptographic material
  - Template references between variables with dependency ordering
  - Pluggable storage: stdout, dotenv, JSON, TOML, YAML, Komodo, SQLite
  - Non-destructive updates preserving unmanaged file content`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	rootCmd.AddCommand(newGenerateCommand())
	rootCmd.AddCommand(newValidateCommand())

	return rootCmd
}
