package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/envgen/envgen/pkg/engine"
	"github.com/envgen/envgen/pkg/rules"
	"github.com/envgen/envgen/pkg/schema"
	"github.com/envgen/envgen/pkg/storage"
	"github.com/envgen/envgen/pkg/validation"
)

func newGenerateCommand() *cobra.Command {
	var (
		storageLocator string
		backendType    string
		overrideArgs   []string
		force          bool
		timeout        time.Duration
	)

	cmd := &cobra.Command{
		Use:   "generate <schema.yaml>",
		Short: "Generate environment variables from a schema",
		Long: `Generate environment variables from a YAML schema and persist them.

Existing values in the storage backend are preserved and reused unless
--force is given. CLI overrides always win over stored and generated
values. Nothing is persisted unless generation and validation succeed.`,
		Example: `  # Print generated values to stdout
  envgen generate schema.yaml

  # Update a .env file in place, keeping unmanaged content
  envgen generate schema.yaml -s .env.production

  # Regenerate everything, overriding one variable
  envgen generate schema.yaml -s values.json --force -o REGION=eu-west-1

  # Komodo TOML needs an explicit backend for its .toml extension
  envgen generate schema.yaml -s stack.toml -b komodo`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := schema.Load(args[0])
			if err != nil {
				return err
			}

			overrides, err := parseOverrides(overrideArgs)
			if err != nil {
				return err
			}

			backend, err := storage.Open(storageLocator, backendType)
			if err != nil {
				return err
			}

			existing := map[string]string{}
			if !force {
				if existing, err = backend.Load(); err != nil {
					return engine.NewError(engine.ErrCodeStorageIO, "failed to load existing values").WithErr(err)
				}
			}

			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			log.Debug().
				Str("schema", args[0]).
				Str("storage", storageLocator).
				Int("existing", len(existing)).
				Int("overrides", len(overrides)).
				Bool("force", force).
				Msg("Starting generation")

			gen := engine.NewGenerator(rules.NewExecutor(), log.Logger)
			result, err := gen.Run(ctx, sc, existing, overrides, force)
			if err != nil {
				return err
			}

			if report := validation.Validate(result); !report.OK() {
				return report.Err()
			}

			public := result.Public()
			entries := make([]storage.Entry, len(public))
			for i, p := range public {
				entries[i] = storage.Entry{Name: p.Name, Value: p.Value}
			}
			if err := backend.Store(entries); err != nil {
				return engine.NewError(engine.ErrCodeStorageIO, "failed to store generated values").WithErr(err)
			}

			log.Info().
				Int("variables", len(sc.Variables)).
				Int("stored", len(entries)).
				Msg("Generation complete")

			return nil
		},
	}

	cmd.Flags().StringVarP(&storageLocator, "storage", "s", "stdout", "storage locator: 'stdout' or a file path")
	cmd.Flags().StringVarP(&backendType, "backend", "b", "", "explicit backend type (dotenv, json, toml, yaml, komodo, sqlite)")
	cmd.Flags().StringArrayVarP(&overrideArgs, "override", "o", nil, "override a value as KEY=VALUE (repeatable)")
	cmd.Flags().BoolVar(&force, "force", false, "regenerate all values, ignoring existing stored values")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "timeout for the whole run, including command rules (0 = none)")

	return cmd
}

// parseOverrides parses repeatable KEY=VALUE override arguments.
func parseOverrides(args []string) (map[string]string, error) {
	overrides := make(map[string]string, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("override must be KEY=VALUE, got %q", arg)
		}
		overrides[key] = value
	}
	return overrides, nil
}
