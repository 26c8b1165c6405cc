// Package cloudfront creates and tracks CloudFront distributions in front of
// S3 static website endpoints.
package cloudfront

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront/types"
	"github.com/go-logr/logr"

	"github.com/imamik/siteforge/internal/errdefs"
	awsplatform "github.com/imamik/siteforge/internal/platform/aws"
	"github.com/imamik/siteforge/internal/util/naming"
	"github.com/imamik/siteforge/internal/util/poll"
	"github.com/imamik/siteforge/internal/util/retry"
)

// Distribution statuses.
const (
	StatusInProgress = "InProgress"
	StatusDeployed   = "Deployed"
)

// DefaultDeploymentPollInterval is how often deployment status is polled.
const DefaultDeploymentPollInterval = 60 * time.Second

const defaultRootObject = "index.html"

// API is the subset of the CloudFront client used by Manager.
type API interface {
	CreateDistribution(ctx context.Context, in *cloudfront.CreateDistributionInput, optFns ...func(*cloudfront.Options)) (*cloudfront.CreateDistributionOutput, error)
	GetDistribution(ctx context.Context, in *cloudfront.GetDistributionInput, optFns ...func(*cloudfront.Options)) (*cloudfront.GetDistributionOutput, error)
	GetDistributionConfig(ctx context.Context, in *cloudfront.GetDistributionConfigInput, optFns ...func(*cloudfront.Options)) (*cloudfront.GetDistributionConfigOutput, error)
	UpdateDistribution(ctx context.Context, in *cloudfront.UpdateDistributionInput, optFns ...func(*cloudfront.Options)) (*cloudfront.UpdateDistributionOutput, error)
	ListDistributions(ctx context.Context, in *cloudfront.ListDistributionsInput, optFns ...func(*cloudfront.Options)) (*cloudfront.ListDistributionsOutput, error)
}

// Distribution is a normalized distribution description.
type Distribution struct {
	ID         string
	ARN        string
	DomainName string
	Status     string
	Aliases    []string
	// CertificateARN is empty when the default CloudFront certificate is used.
	CertificateARN string
	OriginDomain   string
	OriginPath     string
}

// Deployed reports whether the configuration has reached every edge location.
func (d Distribution) Deployed() bool { return d.Status == StatusDeployed }

// Origin locates the S3 website a distribution serves.
type Origin struct {
	Bucket string
	Region string
	// Path is the key prefix the site was uploaded under, if any.
	Path string
}

// OriginPath is the CloudFront origin path for o: empty, or "/" followed by
// the prefix without surrounding slashes.
func (o Origin) OriginPath() string {
	p := strings.Trim(o.Path, "/")
	if p == "" {
		return ""
	}
	return "/" + p
}

// Manager creates distributions and waits for them.
type Manager struct {
	api        API
	log        logr.Logger
	read       retry.Policy
	mutation   retry.Policy
	deployPoll time.Duration
	onPoll     func(resource string)
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(log logr.Logger) Option {
	return func(m *Manager) { m.log = log }
}

// WithRetryPolicies overrides the read and mutation retry policies.
func WithRetryPolicies(read, mutation retry.Policy) Option {
	return func(m *Manager) {
		m.read = read
		m.mutation = mutation
	}
}

// WithDeploymentPollInterval overrides how often deployment status is polled.
func WithDeploymentPollInterval(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.deployPoll = d
		}
	}
}

// WithPollHook installs a callback run after every poll.
func WithPollHook(fn func(resource string)) Option {
	return func(m *Manager) { m.onPoll = fn }
}

// NewManager creates a Manager.
func NewManager(api API, opts ...Option) *Manager {
	m := &Manager{
		api:        api,
		log:        logr.Discard(),
		read:       retry.ReadPolicy(),
		mutation:   retry.MutationPolicy(),
		deployPoll: DefaultDeploymentPollInterval,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.WithName("cloudfront")
	return m
}

// Create creates a distribution serving the bucket's website endpoint under
// domain. With a certificate ARN viewers are redirected to HTTPS; without one
// the distribution accepts HTTP and HTTPS on the default certificate.
func (m *Manager) Create(ctx context.Context, origin Origin, domain, certificateARN string) (Distribution, error) {
	if origin.Bucket == "" || origin.Region == "" {
		return Distribution{}, errdefs.New(errdefs.KindValidation, "create distribution", "bucket and region are required")
	}
	domain = naming.Normalize(domain)
	cfg := distributionConfig(origin, domain, certificateARN, naming.CallerReference("siteforge"))

	out, err := retry.Do(ctx, m.mutation, func(ctx context.Context) (*cloudfront.CreateDistributionOutput, error) {
		out, err := m.api.CreateDistribution(ctx, &cloudfront.CreateDistributionInput{DistributionConfig: cfg})
		return out, awsplatform.Classify("create distribution", err)
	}, nil)
	if err != nil {
		return Distribution{}, err
	}
	if out.Distribution == nil {
		return Distribution{}, errdefs.New(errdefs.KindServer, "create distribution", "response carried no distribution")
	}

	d := normalize(out.Distribution)
	m.log.Info("created distribution", "id", d.ID, "domain", d.DomainName, "alias", domain, "https", certificateARN != "")
	return d, nil
}

// Ensure returns the distribution serving domain, creating it when there is
// none. An existing distribution with a different certificate or origin is
// updated in place, so a re-run after ACM handed out a new certificate
// converges. Replacing a certificate with the default one is refused.
func (m *Manager) Ensure(ctx context.Context, origin Origin, domain, certificateARN string) (Distribution, error) {
	existing, found, err := m.FindByAlias(ctx, domain)
	if err != nil {
		return Distribution{}, err
	}
	if !found {
		return m.Create(ctx, origin, domain, certificateARN)
	}

	wantDomain := naming.WebsiteEndpoint(origin.Bucket, origin.Region)
	if existing.CertificateARN == certificateARN &&
		existing.OriginDomain == wantDomain && existing.OriginPath == origin.OriginPath() {
		m.log.Info("reusing distribution", "id", existing.ID, "alias", domain)
		return existing, nil
	}
	if certificateARN == "" && existing.CertificateARN != "" {
		return Distribution{}, errdefs.Newf(errdefs.KindUnavailable, "ensure distribution",
			"distribution %s serves %s over HTTPS; pass its certificate to keep it", existing.ID, domain)
	}
	return m.update(ctx, existing.ID, origin, domain, certificateARN)
}

// update rewrites the origin and viewer certificate of an existing
// distribution, keeping its caller reference and aliases.
func (m *Manager) update(ctx context.Context, id string, origin Origin, domain, certificateARN string) (Distribution, error) {
	if origin.Bucket == "" || origin.Region == "" {
		return Distribution{}, errdefs.New(errdefs.KindValidation, "update distribution", "bucket and region are required")
	}

	cur, err := retry.Do(ctx, m.read, func(ctx context.Context) (*cloudfront.GetDistributionConfigOutput, error) {
		out, err := m.api.GetDistributionConfig(ctx, &cloudfront.GetDistributionConfigInput{Id: aws.String(id)})
		return out, awsplatform.Classify("get distribution config", err)
	}, nil)
	if err != nil {
		return Distribution{}, err
	}
	if cur.DistributionConfig == nil {
		return Distribution{}, errdefs.Newf(errdefs.KindNotFound, "update distribution", "distribution %s has no config", id)
	}

	cfg := distributionConfig(origin, domain, certificateARN, aws.ToString(cur.DistributionConfig.CallerReference))
	if cur.DistributionConfig.Aliases != nil {
		cfg.Aliases = cur.DistributionConfig.Aliases
	}

	out, err := retry.Do(ctx, m.mutation, func(ctx context.Context) (*cloudfront.UpdateDistributionOutput, error) {
		out, err := m.api.UpdateDistribution(ctx, &cloudfront.UpdateDistributionInput{
			Id:                 aws.String(id),
			IfMatch:            cur.ETag,
			DistributionConfig: cfg,
		})
		return out, awsplatform.Classify("update distribution", err)
	}, nil)
	if err != nil {
		return Distribution{}, err
	}
	if out.Distribution == nil {
		return Distribution{}, errdefs.New(errdefs.KindServer, "update distribution", "response carried no distribution")
	}

	d := normalize(out.Distribution)
	m.log.Info("updated distribution", "id", d.ID, "alias", domain, "origin", d.OriginDomain+d.OriginPath, "https", certificateARN != "")
	return d, nil
}

// FindByAlias looks for a distribution whose aliases include domain.
func (m *Manager) FindByAlias(ctx context.Context, domain string) (Distribution, bool, error) {
	domain = naming.Normalize(domain)

	var marker *string
	for {
		out, err := retry.Do(ctx, m.read, func(ctx context.Context) (*cloudfront.ListDistributionsOutput, error) {
			out, err := m.api.ListDistributions(ctx, &cloudfront.ListDistributionsInput{Marker: marker})
			return out, awsplatform.Classify("list distributions", err)
		}, nil)
		if err != nil {
			return Distribution{}, false, err
		}
		list := out.DistributionList
		if list == nil {
			return Distribution{}, false, nil
		}

		for _, s := range list.Items {
			if s.Aliases == nil {
				continue
			}
			if slices.ContainsFunc(s.Aliases.Items, func(a string) bool { return naming.SameDomain(a, domain) }) {
				return summary(s), true, nil
			}
		}

		if !aws.ToBool(list.IsTruncated) || aws.ToString(list.NextMarker) == "" {
			return Distribution{}, false, nil
		}
		marker = list.NextMarker
	}
}

// Get returns the current state of a distribution.
func (m *Manager) Get(ctx context.Context, id string) (Distribution, error) {
	out, err := retry.Do(ctx, m.read, func(ctx context.Context) (*cloudfront.GetDistributionOutput, error) {
		out, err := m.api.GetDistribution(ctx, &cloudfront.GetDistributionInput{Id: aws.String(id)})
		return out, awsplatform.Classify("get distribution", err)
	}, nil)
	if err != nil {
		return Distribution{}, err
	}
	if out.Distribution == nil {
		return Distribution{}, errdefs.Newf(errdefs.KindNotFound, "get distribution", "distribution %s not found", id)
	}
	return normalize(out.Distribution), nil
}

// WaitForDeployment blocks until the distribution reports Deployed.
func (m *Manager) WaitForDeployment(ctx context.Context, id string, timeout time.Duration) error {
	start := time.Now()
	w := poll.Waiter{Interval: m.deployPoll, Timeout: timeout, Resource: "distribution deployment", OnPoll: m.onPoll}
	err := w.Until(ctx, func(ctx context.Context) (bool, error) {
		d, err := m.Get(ctx, id)
		if err != nil {
			return false, err
		}
		if d.Deployed() {
			return true, nil
		}
		m.log.Info("waiting for distribution", "id", id, "status", d.Status,
			"elapsed", time.Since(start).Round(time.Second).String())
		return false, nil
	})
	if err != nil {
		return err
	}
	m.log.Info("distribution deployed", "id", id)
	return nil
}

func distributionConfig(origin Origin, domain, certificateARN, callerRef string) *types.DistributionConfig {
	originID := naming.OriginID(origin.Bucket)

	viewerPolicy := types.ViewerProtocolPolicyAllowAll
	cert := &types.ViewerCertificate{CloudFrontDefaultCertificate: aws.Bool(true)}
	if certificateARN != "" {
		viewerPolicy = types.ViewerProtocolPolicyRedirectToHttps
		cert = &types.ViewerCertificate{
			ACMCertificateArn:      aws.String(certificateARN),
			SSLSupportMethod:       types.SSLSupportMethodSniOnly,
			MinimumProtocolVersion: types.MinimumProtocolVersionTLSv122021,
		}
	}

	methods := []types.Method{types.MethodGet, types.MethodHead}
	return &types.DistributionConfig{
		CallerReference:   aws.String(callerRef),
		Comment:           aws.String("siteforge: " + domain),
		Enabled:           aws.Bool(true),
		DefaultRootObject: aws.String(defaultRootObject),
		Aliases:           &types.Aliases{Quantity: aws.Int32(1), Items: []string{domain}},
		Origins: &types.Origins{
			Quantity: aws.Int32(1),
			Items: []types.Origin{{
				Id:         aws.String(originID),
				DomainName: aws.String(naming.WebsiteEndpoint(origin.Bucket, origin.Region)),
				OriginPath: aws.String(origin.OriginPath()),
				CustomOriginConfig: &types.CustomOriginConfig{
					HTTPPort:             aws.Int32(80),
					HTTPSPort:            aws.Int32(443),
					OriginProtocolPolicy: types.OriginProtocolPolicyHttpOnly,
					OriginSslProtocols: &types.OriginSslProtocols{
						Quantity: aws.Int32(1),
						Items:    []types.SslProtocol{types.SslProtocolTLSv12},
					},
				},
			}},
		},
		DefaultCacheBehavior: &types.DefaultCacheBehavior{
			TargetOriginId:       aws.String(originID),
			ViewerProtocolPolicy: viewerPolicy,
			Compress:             aws.Bool(true),
			AllowedMethods: &types.AllowedMethods{
				Quantity:      aws.Int32(int32(len(methods))),
				Items:         methods,
				CachedMethods: &types.CachedMethods{Quantity: aws.Int32(int32(len(methods))), Items: methods},
			},
			ForwardedValues: &types.ForwardedValues{
				QueryString: aws.Bool(false),
				Cookies:     &types.CookiePreference{Forward: types.ItemSelectionNone},
			},
			TrustedSigners: &types.TrustedSigners{Enabled: aws.Bool(false), Quantity: aws.Int32(0)},
			MinTTL:         aws.Int64(0),
		},
		ViewerCertificate: cert,
	}
}

func normalize(d *types.Distribution) Distribution {
	out := Distribution{
		ID:         aws.ToString(d.Id),
		ARN:        aws.ToString(d.ARN),
		DomainName: aws.ToString(d.DomainName),
		Status:     aws.ToString(d.Status),
	}
	if cfg := d.DistributionConfig; cfg != nil {
		if cfg.Aliases != nil {
			out.Aliases = cfg.Aliases.Items
		}
		if cfg.ViewerCertificate != nil {
			out.CertificateARN = aws.ToString(cfg.ViewerCertificate.ACMCertificateArn)
		}
		out.OriginDomain, out.OriginPath = firstOrigin(cfg.Origins)
	}
	return out
}

func summary(s types.DistributionSummary) Distribution {
	out := Distribution{
		ID:         aws.ToString(s.Id),
		ARN:        aws.ToString(s.ARN),
		DomainName: aws.ToString(s.DomainName),
		Status:     aws.ToString(s.Status),
	}
	if s.Aliases != nil {
		out.Aliases = s.Aliases.Items
	}
	if s.ViewerCertificate != nil {
		out.CertificateARN = aws.ToString(s.ViewerCertificate.ACMCertificateArn)
	}
	out.OriginDomain, out.OriginPath = firstOrigin(s.Origins)
	return out
}

func firstOrigin(origins *types.Origins) (domain, path string) {
	if origins == nil || len(origins.Items) == 0 {
		return "", ""
	}
	o := origins.Items[0]
	return aws.ToString(o.DomainName), aws.ToString(o.OriginPath)
}
