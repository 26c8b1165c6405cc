package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/siteforge/cmd/siteforge/handlers"
)

// Init returns the command for creating a configuration interactively.
//
// Optional flags:
//
//	--output, -o: Output file path (default: siteforge.yaml)
func Init() *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a configuration interactively",
		Long: `Create a siteforge configuration with an interactive wizard.

The wizard asks for:
  1. Domain registrar (GoDaddy, DNSimple or Route 53 Domains)
  2. Registrar credentials and environment (sandbox or production)
  3. AWS region and default bucket
  4. Whether to keep credentials in the OS keyring instead of the file

Credentials can also come from the environment:
  GODADDY_API_KEY, GODADDY_API_SECRET, DNSIMPLE_API_TOKEN,
  AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY

Example:
  siteforge init
  siteforge init -o sites/siteforge.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Init(cmd.Context(), outputPath)
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "siteforge.yaml", "Output file path")

	return cmd
}
