package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/siteforge/cmd/siteforge/handlers"
)

// Deploy returns the command that builds an app and uploads it to a website
// bucket.
func Deploy(g *handlers.Globals) *cobra.Command {
	var opts handlers.DeployOptions

	cmd := &cobra.Command{
		Use:   "deploy <app-dir>",
		Short: "Build an app and upload it to an S3 website bucket",
		Long: `Build an application and upload its static output to an S3 bucket
configured for website hosting. No certificate, CDN or DNS changes are made;
use 'siteforge pipeline' for that.

The output directory is the first of out, dist, build and .next that exists
after the build. --output also keeps a local copy of it; without a bucket
only the local copy is made.

Examples:
  siteforge deploy ./my-app --bucket my-app-site --install
  siteforge deploy ./my-app --bucket my-app-site --skip-build --prune`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.AppDir = args[0]
			return handlers.Deploy(cmd.Context(), *g, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.Bucket, "bucket", "", "S3 bucket for the site (default: aws.bucket)")
	f.StringVar(&opts.Prefix, "prefix", "", "Key prefix inside the bucket")
	f.BoolVar(&opts.Install, "install", false, "Install dependencies before building")
	f.StringVar(&opts.InstallCommand, "install-command", "", "Install command (default: pnpm install)")
	f.StringVar(&opts.BuildCommand, "build-command", "", "Build command (default: pnpm build)")
	f.BoolVar(&opts.SkipBuild, "skip-build", false, "Upload the existing build output")
	f.BoolVar(&opts.Prune, "prune", false, "Delete bucket objects that are not part of the upload")
	f.StringVarP(&opts.Output, "output", "o", "", "Also copy the build output to this directory")
	f.BoolVar(&opts.NoClean, "no-clean", false, "Fail instead of replacing an existing --output directory")
	f.BoolVar(&opts.Timestamp, "timestamp", false, "Append a timestamp to the --output directory name")

	return cmd
}
