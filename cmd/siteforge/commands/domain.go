package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/siteforge/cmd/siteforge/handlers"
)

// Domain returns the domain command group.
func Domain(g *handlers.Globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "domain",
		Short: "Search, list and buy domains at the configured registrar",
		Long: `Work with domains at the configured registrar (godaddy, dnsimple or route53).
Select another one for a single command with --provider.`,
	}

	cmd.AddCommand(domainSearch(g))
	cmd.AddCommand(domainSuggest(g))
	cmd.AddCommand(domainList(g))
	cmd.AddCommand(domainInfo(g))
	cmd.AddCommand(domainPurchase(g))

	return cmd
}

func domainSearch(g *handlers.Globals) *cobra.Command {
	return &cobra.Command{
		Use:   "search <domain>...",
		Short: "Check whether domains are available",
		Long: `Check the availability and price of one or more domains. Domains may be
given as separate arguments or comma separated.

Examples:
  siteforge domain search my-app.com
  siteforge domain search my-app.com,my-app.io my-app.dev`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.DomainSearch(cmd.Context(), *g, args)
		},
	}
}

func domainSuggest(g *handlers.Globals) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "suggest <query>",
		Short: "Suggest domain names for a keyword",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.DomainSuggest(cmd.Context(), *g, args[0], limit)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum number of suggestions")
	return cmd
}

func domainList(g *handlers.Globals) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the domains owned by the account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.DomainList(cmd.Context(), *g)
		},
	}
}

func domainInfo(g *handlers.Globals) *cobra.Command {
	return &cobra.Command{
		Use:   "info <domain>",
		Short: "Show the details of an owned domain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.DomainInfo(cmd.Context(), *g, args[0])
		},
	}
}

func domainPurchase(g *handlers.Globals) *cobra.Command {
	var opts handlers.PurchaseOptions

	cmd := &cobra.Command{
		Use:   "purchase <domain>",
		Short: "Register a domain",
		Long: `Register a domain. The contact file is validated, availability is checked
again and the order is dry-run before you are asked to confirm the price.

Sandbox environments (GoDaddy OTE, DNSimple sandbox) never charge; production
ones do.

Examples:
  siteforge domain purchase my-app.com --contact me.json
  siteforge domain purchase my-app.com --contact me.json --years 2 --yes`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Domain = args[0]
			return handlers.DomainPurchase(cmd.Context(), *g, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.ContactFile, "contact", "", "Registrant contact JSON file")
	f.IntVar(&opts.Years, "years", 1, "Registration period in years")
	f.BoolVar(&opts.AutoRenew, "auto-renew", false, "Renew automatically")
	f.BoolVar(&opts.Privacy, "privacy", false, "Enable WHOIS privacy where offered")
	f.BoolVarP(&opts.Yes, "yes", "y", false, "Skip the confirmation prompt")
	_ = cmd.MarkFlagRequired("contact")

	return cmd
}
