package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/siteforge/cmd/siteforge/handlers"
)

// Pipeline returns the command that takes an app from source to a live
// HTTPS site.
//
// Required flags:
//
//	--domain: Domain the site is served on
//
// The bucket defaults to aws.bucket from the configuration.
func Pipeline(g *handlers.Globals) *cobra.Command {
	var opts handlers.PipelineOptions

	cmd := &cobra.Command{
		Use:   "pipeline <app-dir>",
		Short: "Build, host and put an app live on its domain",
		Long: `Run every provisioning step for a static web application:

  install              install dependencies (--install)
  register             buy the domain (--register)
  build                run the build command and locate the output
  upload               create the website bucket and upload the output
  request-certificate  request an ACM certificate for the domain and www
  validation-records   write the DNS validation records to Route 53
  wait-certificate     wait for the certificate to be issued
  create-distribution  create or reuse the CloudFront distribution
  dns-cutover          point the domain and www at the distribution
  wait-distribution    wait for the distribution to deploy

Every step is safe to re-run: existing zones, certificates and distributions
are reused.

Examples:
  # Put ./my-app live on my-app.com
  siteforge pipeline ./my-app --domain my-app.com --bucket my-app-site

  # Buy the domain first and watch the dashboard
  siteforge pipeline ./my-app --domain my-app.com --register --contact me.json --tui`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.AppDir = args[0]
			return handlers.Pipeline(cmd.Context(), *g, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.Domain, "domain", "", "Domain to serve the site on")
	f.StringVar(&opts.Bucket, "bucket", "", "S3 bucket for the site (default: aws.bucket)")
	f.BoolVar(&opts.Register, "register", false, "Register the domain before deploying")
	f.StringVar(&opts.ContactFile, "contact", "", "Registrant contact JSON file (with --register)")
	f.IntVar(&opts.Years, "years", 1, "Registration period in years (with --register)")
	f.BoolVarP(&opts.Yes, "yes", "y", false, "Buy the domain without asking")
	f.BoolVar(&opts.Install, "install", false, "Install dependencies before building")
	f.StringVar(&opts.InstallCommand, "install-command", "", "Install command (default: pnpm install)")
	f.StringVar(&opts.BuildCommand, "build-command", "", "Build command (default: pnpm build)")
	f.BoolVar(&opts.SkipBuild, "skip-build", false, "Upload the existing build output")
	f.StringVar(&opts.Prefix, "prefix", "", "Key prefix inside the bucket")
	f.BoolVar(&opts.Prune, "prune", false, "Delete bucket objects that are not part of the upload")
	f.DurationVar(&opts.CertificateTimeout, "certificate-timeout", 0, "Maximum wait for certificate issuance (default: 30m)")
	f.DurationVar(&opts.DistributionTimeout, "distribution-timeout", 0, "Maximum wait for the distribution to deploy (default: 30m)")
	f.BoolVar(&opts.TUI, "tui", false, "Show a live dashboard")
	f.StringVar(&opts.MetricsTextfile, "metrics-textfile", "", "Write Prometheus metrics of the run to this file")

	_ = cmd.MarkFlagRequired("domain")
	cmd.MarkFlagsRequiredTogether("register", "contact")

	return cmd
}
