package handlers

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/imamik/siteforge/internal/build"
	"github.com/imamik/siteforge/internal/errdefs"
	"github.com/imamik/siteforge/internal/pipeline"
	"github.com/imamik/siteforge/internal/platform/s3"
	"github.com/imamik/siteforge/internal/util/naming"
	"github.com/imamik/siteforge/internal/util/prerequisites"
)

// Factory function variables for build commands - can be replaced in tests.
var (
	// newBuilder creates the install and build runner.
	newBuilder = func(log logr.Logger) pipeline.Builder {
		return build.NewRunner(build.WithLogger(log))
	}

	// checkTools looks up the programs the build commands need.
	checkTools = prerequisites.Check
)

// DeployOptions are the inputs of Deploy.
type DeployOptions struct {
	AppDir         string
	Bucket         string
	Prefix         string
	Install        bool
	InstallCommand string
	BuildCommand   string
	SkipBuild      bool
	Prune          bool

	// Output also copies the build output to this local directory.
	Output    string
	NoClean   bool
	Timestamp bool
}

// Deploy builds an application and uploads the output to a website bucket,
// without certificates, CDN or DNS. With an Output directory and no bucket
// the output is only copied locally.
func Deploy(ctx context.Context, g Globals, opts DeployOptions) error {
	s, err := openSession(g, false)
	if err != nil {
		return err
	}
	defer s.Close()

	bucket := opts.Bucket
	if bucket == "" {
		bucket = s.settings.AWS.Bucket
	}
	if bucket == "" && opts.Output == "" {
		return errdefs.New(errdefs.KindValidation, "deploy", "a bucket is required: pass --bucket or set aws.bucket")
	}

	outDir, err := buildApp(ctx, s, opts.AppDir, opts.Install, opts.InstallCommand, opts.BuildCommand, opts.SkipBuild)
	if err != nil {
		return err
	}

	if opts.Output != "" {
		dest, err := build.CopyTo(outDir, opts.Output, build.CopyOptions{Clean: !opts.NoClean, Timestamp: opts.Timestamp})
		if err != nil {
			return err
		}
		fmt.Printf("Build output copied to %s\n", dest)
		if bucket == "" {
			return nil
		}
	}

	storage, err := s.storage(ctx)
	if err != nil {
		return err
	}
	region, err := storage.EnsureWebsiteBucket(ctx, bucket)
	if err != nil {
		return err
	}
	res, err := storage.UploadDirectory(ctx, bucket, outDir, s3.UploadOptions{Prefix: opts.Prefix, Prune: opts.Prune})
	if err != nil {
		return err
	}

	printHeader("Deployed")
	fmt.Printf("  Output:   %s\n", outDir)
	fmt.Printf("  Bucket:   s3://%s (%s)\n", bucket, region)
	fmt.Printf("  Files:    %d (%d bytes)\n", res.Files, res.Bytes)
	if res.Deleted > 0 {
		fmt.Printf("  Pruned:   %d\n", res.Deleted)
	}
	fmt.Printf("  Website:  http://%s\n", naming.WebsiteEndpoint(bucket, region))
	fmt.Println()
	return nil
}

// buildApp runs the optional install and the build, returning the output
// directory. With skip it only locates existing output.
func buildApp(ctx context.Context, s *session, appDir string, install bool, installCmd, buildCmd string, skip bool) (string, error) {
	b := newBuilder(s.log.Logger)
	if skip {
		return b.OutputDir(appDir)
	}

	if err := requireTools(install, installCmd, buildCmd); err != nil {
		return "", err
	}

	if install {
		if err := b.Install(ctx, appDir, installCmd); err != nil {
			return "", err
		}
	}
	return b.Build(ctx, appDir, buildCmd)
}

// requireTools fails when a program the build needs is not installed.
func requireTools(install bool, installCmd, buildCmd string) error {
	commands := []string{orDefault(buildCmd, build.DefaultBuildCommand)}
	if install {
		commands = append(commands, orDefault(installCmd, build.DefaultInstallCommand))
	}
	return checkTools(prerequisites.ForCommands(commands...)).Error()
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
