package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/siteforge/cmd/siteforge/handlers"
)

// Doctor returns the command for checking the local setup.
func Doctor(g *handlers.Globals) *cobra.Command {
	var buildCommand string

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check tools, configuration and credentials",
		Long: `Check that everything a deployment needs is in place:

  - the programs the build command runs (node, pnpm, ...)
  - the configuration file and registrar credentials
  - AWS credentials, region and default bucket

No remote API is called. The exit code is 1 when a blocking problem is found.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Doctor(cmd.Context(), *g, buildCommand)
		},
	}

	cmd.Flags().StringVar(&buildCommand, "build-command", "", "Build command to check tools for (default: pnpm build)")

	return cmd
}
