package commands

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/envgen/envgen/pkg/schema"
)

func newValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <schema.yaml>",
		Short: "Validate a schema file without generating",
		Long: `Validate a YAML schema file.

This command checks:
  - YAML syntax validity
  - Variable types and generation rule structure
  - Compatibility between declared types and validation rules`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := schema.Load(args[0])
			if err != nil {
				return err
			}

			internal := 0
			for _, v := range sc.Variables {
				if v.Internal {
					internal++
				}
			}

			log.Info().
				Str("schema", args[0]).
				Int("variables", len(sc.Variables)).
				Int("internal", internal).
				Msg("Schema is valid")

			return nil
		},
	}

	return cmd
}
