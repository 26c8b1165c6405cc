package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/imamik/siteforge/cmd/siteforge/handlers"
)

// Cert returns the certificate command group.
func Cert(g *handlers.Globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cert",
		Short: "Request ACM certificates and wait for them",
	}

	var noWWW, write bool
	request := &cobra.Command{
		Use:   "request <domain>",
		Short: "Request a certificate and print its validation records",
		Long: `Request a DNS-validated certificate in us-east-1 for the domain and its www
name. Repeating the request within an hour returns the same certificate.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.CertRequest(cmd.Context(), *g, args[0], !noWWW, write)
		},
	}
	request.Flags().BoolVar(&noWWW, "no-www", false, "Do not add the www name")
	request.Flags().BoolVar(&write, "write-records", false, "Write the validation records to the Route 53 zone")
	cmd.AddCommand(request)

	var timeout time.Duration
	wait := &cobra.Command{
		Use:   "wait <arn>",
		Short: "Wait until a certificate is issued",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.CertWait(cmd.Context(), *g, args[0], timeout)
		},
	}
	wait.Flags().DurationVar(&timeout, "timeout", 0, "Maximum wait (default: 30m)")
	cmd.AddCommand(wait)

	return cmd
}

// CDN returns the distribution command group.
func CDN(g *handlers.Globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cdn",
		Short: "Create CloudFront distributions and wait for them",
	}

	var bucket, prefix, domain, certificate string
	create := &cobra.Command{
		Use:   "create",
		Short: "Put a distribution in front of a website bucket",
		Long: `Create a CloudFront distribution with the bucket's website endpoint as
origin. An existing distribution serving the domain is reused, or updated
when its certificate or origin differs. Without --certificate it uses the
default CloudFront certificate and accepts HTTP.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.CDNCreate(cmd.Context(), *g, bucket, prefix, domain, certificate)
		},
	}
	create.Flags().StringVar(&bucket, "bucket", "", "Website bucket")
	create.Flags().StringVar(&prefix, "prefix", "", "Key prefix the site was uploaded under")
	create.Flags().StringVar(&domain, "domain", "", "Domain served by the distribution")
	create.Flags().StringVar(&certificate, "certificate", "", "ACM certificate ARN in us-east-1")
	_ = create.MarkFlagRequired("bucket")
	_ = create.MarkFlagRequired("domain")
	cmd.AddCommand(create)

	var timeout time.Duration
	wait := &cobra.Command{
		Use:   "wait <id>",
		Short: "Wait until a distribution is deployed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.CDNWait(cmd.Context(), *g, args[0], timeout)
		},
	}
	wait.Flags().DurationVar(&timeout, "timeout", 0, "Maximum wait (default: 30m)")
	cmd.AddCommand(wait)

	return cmd
}

// DNS returns the Route 53 command group.
func DNS(g *handlers.Globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dns",
		Short: "Manage Route 53 records",
	}

	var wait bool
	cutover := &cobra.Command{
		Use:   "cutover <domain> <distribution-domain>",
		Short: "Point a domain and its www name at a distribution",
		Long: `Upsert an alias A record for the domain and a www CNAME, both targeting the
distribution domain (e.g. d111111abcdef8.cloudfront.net). The hosted zone is
created when missing.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.DNSCutover(cmd.Context(), *g, args[0], args[1], wait)
		},
	}
	cutover.Flags().BoolVar(&wait, "wait", false, "Wait until the change is in sync")
	cmd.AddCommand(cutover)

	return cmd
}
