package handlers

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/imamik/siteforge/internal/errdefs"
	"github.com/imamik/siteforge/internal/pipeline"
	"github.com/imamik/siteforge/internal/registrar"
	"github.com/imamik/siteforge/internal/ui/tui"
)

// Factory function variables for the pipeline - can be replaced in tests.
var (
	// runTUI runs the pipeline behind the dashboard.
	runTUI = tui.RunPipelineTUI

	// stdoutIsTerminal reports whether the dashboard can be drawn.
	stdoutIsTerminal = func() bool {
		return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	}
)

// PipelineOptions are the inputs of Pipeline.
type PipelineOptions struct {
	AppDir string
	Bucket string
	Domain string

	Register    bool
	ContactFile string
	Years       int
	// Yes buys the domain without asking.
	Yes bool

	Install        bool
	InstallCommand string
	BuildCommand   string
	SkipBuild      bool
	Prefix         string
	Prune          bool

	// Zero timeouts use the configured ones.
	CertificateTimeout  time.Duration
	DistributionTimeout time.Duration

	TUI             bool
	MetricsTextfile string
}

// Pipeline takes an application from source to a live HTTPS site on its
// own domain.
func Pipeline(ctx context.Context, g Globals, opts PipelineOptions) error {
	var contact *registrar.Contact
	if opts.Register {
		c, err := loadContact(opts.ContactFile)
		if err != nil {
			return fmt.Errorf("failed to load contact: %w", err)
		}
		contact = &c
	}

	useTUI := opts.TUI && stdoutIsTerminal()
	if opts.Register && !opts.Yes && (useTUI || !isInteractive()) {
		return errdefs.New(errdefs.KindValidation, "pipeline",
			"registering a domain needs an interactive confirmation; pass --yes to confirm up front")
	}
	if useTUI {
		// The dashboard owns the terminal; the log file still gets everything.
		g.console = io.Discard
	}

	s, err := openSession(g, opts.Register)
	if err != nil {
		return err
	}
	defer s.Close()

	bucket := opts.Bucket
	if bucket == "" {
		bucket = s.settings.AWS.Bucket
	}

	deps, domains, err := pipelineDeps(ctx, s, opts.Register)
	if err != nil {
		return err
	}
	if !opts.SkipBuild {
		if err := requireTools(opts.Install, opts.InstallCommand, opts.BuildCommand); err != nil {
			return err
		}
	}

	runOpts := []pipeline.Option{
		pipeline.WithLogger(s.log.Logger),
		pipeline.WithObserver(s.metrics),
	}
	if opts.Register && !opts.Yes {
		runOpts = append(runOpts, pipeline.WithConfirm(confirmPurchase(domains.Provider().Environment())))
	}

	t := s.settings.Timeouts
	req := pipeline.Request{
		AppDir:              opts.AppDir,
		Bucket:              bucket,
		Domain:              opts.Domain,
		Register:            opts.Register,
		Contact:             contact,
		Years:               opts.Years,
		Install:             opts.Install,
		InstallCommand:      opts.InstallCommand,
		BuildCommand:        opts.BuildCommand,
		SkipBuild:           opts.SkipBuild,
		Prefix:              opts.Prefix,
		Prune:               opts.Prune,
		CertificateTimeout:  positive(opts.CertificateTimeout, t.Certificate),
		DistributionTimeout: positive(opts.DistributionTimeout, t.Distribution),
		ValidationTimeout:   t.Validation,
	}

	run := func(ctx context.Context, obs pipeline.Observer) (pipeline.Result, error) {
		return pipeline.New(deps, append(runOpts, pipeline.WithObserver(obs))...).Run(ctx, req)
	}

	var res pipeline.Result
	if useTUI {
		res, err = runTUI(ctx, run, opts.Domain, bucket)
	} else {
		res, err = run(ctx, nil)
	}

	if opts.MetricsTextfile != "" {
		if werr := s.metrics.WriteTextfile(opts.MetricsTextfile); werr != nil {
			s.log.Error(werr, "failed to write metrics", "path", opts.MetricsTextfile)
		}
	}
	if err != nil {
		return err
	}

	printPipelineResult(res)
	return nil
}

// pipelineDeps wires the real collaborators. The registrar is only created
// when the run registers a domain.
func pipelineDeps(ctx context.Context, s *session, register bool) (pipeline.Deps, *registrar.Service, error) {
	storage, err := s.storage(ctx)
	if err != nil {
		return pipeline.Deps{}, nil, err
	}
	certs, err := s.certificates(ctx)
	if err != nil {
		return pipeline.Deps{}, nil, err
	}
	dns, err := s.dns(ctx)
	if err != nil {
		return pipeline.Deps{}, nil, err
	}
	dists, err := s.distributions(ctx)
	if err != nil {
		return pipeline.Deps{}, nil, err
	}

	deps := pipeline.Deps{
		Builder:       newBuilder(s.log.Logger),
		Uploader:      storage,
		Certificates:  certs,
		DNS:           dns,
		Distributions: dists,
	}
	if !register {
		return deps, nil, nil
	}
	domains, err := s.domains(ctx)
	if err != nil {
		return pipeline.Deps{}, nil, err
	}
	deps.Registrar = domains
	return deps, domains, nil
}

func printPipelineResult(res pipeline.Result) {
	printHeader("Site is live")
	fmt.Printf("  URL:           %s\n", res.URL)
	fmt.Printf("  Distribution:  %s (%s)\n", res.DistributionID, res.DistributionDomain)
	fmt.Printf("  Certificate:   %s\n", res.CertificateARN)
	fmt.Printf("  Hosted zone:   %s\n", res.HostedZoneID)
	fmt.Printf("  Bucket region: %s\n", res.BucketRegion)
	fmt.Printf("  Files:         %d\n", res.FilesUploaded)
	fmt.Printf("  Duration:      %s\n", res.Duration.Round(time.Second))
	fmt.Printf("  Run:           %s\n", res.RunID)
	if len(res.NameServers) > 0 {
		fmt.Println()
		fmt.Println("Make sure the registrar delegates the domain to:")
		fmt.Printf("  %s\n", strings.Join(res.NameServers, "\n  "))
	}
	fmt.Println()
}

func positive(v, def time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return def
}
