// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument parsing,
// flag binding, and validation. Command execution is delegated to handler
// functions in the handlers package.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/siteforge/cmd/siteforge/handlers"
)

// Root returns the root command for the siteforge CLI.
//
// The root command owns the global flags and organizes the command
// hierarchy. Errors are printed by main, so cobra stays silent about them.
func Root() *cobra.Command {
	g := &handlers.Globals{}

	cmd := &cobra.Command{
		Use:   "siteforge",
		Short: "Put static web apps live on AWS behind your own domain",
		Long: `siteforge builds a web application, hosts it on S3 behind CloudFront with
an ACM certificate, points Route 53 DNS at it and manages the domain at
GoDaddy, DNSimple or Route 53 Domains.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&g.ConfigPath, "config", "c", "", "Path to configuration file (default: siteforge.yaml when present)")
	flags.BoolVarP(&g.Verbose, "verbose", "v", false, "Enable debug logging")
	flags.StringVar(&g.LogFile, "log-file", "", "Also write JSON logs to this file")
	flags.StringVar(&g.Provider, "provider", "", "Domain registrar: godaddy, dnsimple or route53")

	// Core commands
	cmd.AddCommand(Init())
	cmd.AddCommand(Doctor(g))
	cmd.AddCommand(Pipeline(g))
	cmd.AddCommand(Deploy(g))

	// Building blocks
	cmd.AddCommand(Domain(g))
	cmd.AddCommand(Contact(g))
	cmd.AddCommand(Cert(g))
	cmd.AddCommand(CDN(g))
	cmd.AddCommand(DNS(g))

	cmd.AddCommand(Version())
	cmd.AddCommand(Completion())

	return cmd
}
