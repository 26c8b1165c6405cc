// Package handlers implements the business logic for CLI commands.
//
// This package contains handler functions that are called by command definitions
// in the commands package. Handlers are framework-agnostic and can be tested
// independently of the CLI framework.
package handlers

import (
	"context"
	"fmt"
	"io"
	"strings"

	acmsdk "github.com/aws/aws-sdk-go-v2/service/acm"
	cloudfrontsdk "github.com/aws/aws-sdk-go-v2/service/cloudfront"
	route53sdk "github.com/aws/aws-sdk-go-v2/service/route53"
	route53domainssdk "github.com/aws/aws-sdk-go-v2/service/route53domains"

	"github.com/imamik/siteforge/internal/config"
	"github.com/imamik/siteforge/internal/logging"
	"github.com/imamik/siteforge/internal/pipeline"
	"github.com/imamik/siteforge/internal/platform/acm"
	awsplatform "github.com/imamik/siteforge/internal/platform/aws"
	"github.com/imamik/siteforge/internal/platform/cloudfront"
	"github.com/imamik/siteforge/internal/platform/route53"
	"github.com/imamik/siteforge/internal/platform/s3"
	"github.com/imamik/siteforge/internal/registrar"
	"github.com/imamik/siteforge/internal/util/retry"
)

// Globals are the flags shared by every command.
type Globals struct {
	ConfigPath string
	Verbose    bool
	LogFile    string
	// Provider overrides the configured registrar.
	Provider string

	// console overrides where the log stream goes.
	console io.Writer
}

// APIs are the AWS service clients behind the platform managers.
type APIs struct {
	ACM        acm.API
	Route53    route53.API
	CloudFront cloudfront.API
	Domains    registrar.Route53DomainsAPI
	S3         s3.API
	// Region is where new buckets are created.
	Region string
}

// Factory function variables - can be replaced in tests for dependency injection.
var (
	// resolveSettings loads settings without validating them.
	resolveSettings = config.Resolve

	// newLogger creates the process logger.
	newLogger = logging.New

	// newAWSAPIs creates the AWS service clients.
	newAWSAPIs = defaultAWSAPIs

	// newProvider creates a registrar provider by name.
	newProvider = registrar.New
)

// defaultAWSAPIs loads the AWS configuration and creates real SDK clients.
// Everything except S3 is pinned to the global region.
func defaultAWSAPIs(ctx context.Context, s awsplatform.Settings) (*APIs, error) {
	cfg, err := awsplatform.LoadConfig(ctx, s)
	if err != nil {
		return nil, err
	}
	global := awsplatform.Global(cfg)
	return &APIs{
		ACM:        acmsdk.NewFromConfig(global),
		Route53:    route53sdk.NewFromConfig(global),
		CloudFront: cloudfrontsdk.NewFromConfig(global),
		Domains:    route53domainssdk.NewFromConfig(global),
		S3:         s3.NewAPI(cfg),
		Region:     cfg.Region,
	}, nil
}

// session is the per-invocation state shared by the handlers.
type session struct {
	settings *config.Settings
	log      *logging.Logger
	metrics  *pipeline.Metrics
	apis     *APIs
}

// openSession resolves settings and sets up logging. Commands that talk to
// a registrar validate its credentials too.
func openSession(g Globals, needRegistrar bool) (*session, error) {
	settings, err := resolveSettings(g.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if g.Provider != "" {
		settings.Provider = strings.ToLower(strings.TrimSpace(g.Provider))
	}

	validate := settings.ValidatePlatform
	if needRegistrar {
		validate = settings.Validate
	}
	if err := validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	logFile := g.LogFile
	if logFile == "" {
		logFile = settings.Log.File
	}
	log, err := newLogger(logging.Options{
		Level:   settings.Log.Level,
		Verbose: g.Verbose,
		File:    logFile,
		Console: g.console,
	})
	if err != nil {
		return nil, err
	}

	return &session{settings: settings, log: log, metrics: pipeline.NewMetrics()}, nil
}

// Close flushes the logger.
func (s *session) Close() {
	_ = s.log.Close()
}

// aws returns the AWS clients, creating them on first use.
func (s *session) aws(ctx context.Context) (*APIs, error) {
	if s.apis != nil {
		return s.apis, nil
	}
	apis, err := newAWSAPIs(ctx, s.settings.AWSConfig())
	if err != nil {
		return nil, err
	}
	s.apis = apis
	return apis, nil
}

// policies returns the configured retry policies with retries counted in
// the session metrics.
func (s *session) policies() (read, mutation retry.Policy) {
	read, mutation = s.settings.Timeouts.RetryPolicies()
	read.OnRetry = s.metrics.RetryHook("read")
	mutation.OnRetry = s.metrics.RetryHook("mutation")
	return read, mutation
}

// provider creates the configured registrar provider.
func (s *session) provider(ctx context.Context) (registrar.Provider, error) {
	var domains registrar.Route53DomainsAPI
	if s.settings.Provider == registrar.ProviderRoute53 {
		apis, err := s.aws(ctx)
		if err != nil {
			return nil, err
		}
		domains = apis.Domains
	}
	read, mutation := s.policies()
	return newProvider(s.settings.Provider, s.settings.RegistrarConfig(domains),
		registrar.WithLogger(s.log.Logger),
		registrar.WithRetryPolicies(read, mutation))
}

// domains wraps the configured provider in a registrar.Service.
func (s *session) domains(ctx context.Context) (*registrar.Service, error) {
	p, err := s.provider(ctx)
	if err != nil {
		return nil, err
	}
	return registrar.NewService(p, s.log.Logger), nil
}

func (s *session) certificates(ctx context.Context) (*acm.Manager, error) {
	apis, err := s.aws(ctx)
	if err != nil {
		return nil, err
	}
	read, mutation := s.policies()
	t := s.settings.Timeouts
	return acm.NewManager(apis.ACM,
		acm.WithLogger(s.log.Logger),
		acm.WithRetryPolicies(read, mutation),
		acm.WithPollIntervals(t.ValidationPoll, t.CertificatePoll),
		acm.WithPollHook(s.metrics.PollHook)), nil
}

func (s *session) dns(ctx context.Context) (*route53.Manager, error) {
	apis, err := s.aws(ctx)
	if err != nil {
		return nil, err
	}
	read, mutation := s.policies()
	return route53.NewManager(apis.Route53,
		route53.WithLogger(s.log.Logger),
		route53.WithRetryPolicies(read, mutation),
		route53.WithChangePollInterval(s.settings.Timeouts.ValidationPoll),
		route53.WithPollHook(s.metrics.PollHook)), nil
}

func (s *session) distributions(ctx context.Context) (*cloudfront.Manager, error) {
	apis, err := s.aws(ctx)
	if err != nil {
		return nil, err
	}
	read, mutation := s.policies()
	return cloudfront.NewManager(apis.CloudFront,
		cloudfront.WithLogger(s.log.Logger),
		cloudfront.WithRetryPolicies(read, mutation),
		cloudfront.WithDeploymentPollInterval(s.settings.Timeouts.DistributionPoll),
		cloudfront.WithPollHook(s.metrics.PollHook)), nil
}

func (s *session) storage(ctx context.Context) (*s3.Client, error) {
	apis, err := s.aws(ctx)
	if err != nil {
		return nil, err
	}
	read, mutation := s.policies()
	return s3.New(apis.S3, apis.Region,
		s3.WithLogger(s.log.Logger),
		s3.WithRetryPolicies(read, mutation)), nil
}
