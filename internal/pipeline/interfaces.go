package pipeline

import (
	"context"
	"time"

	"github.com/imamik/siteforge/internal/platform/acm"
	"github.com/imamik/siteforge/internal/platform/cloudfront"
	"github.com/imamik/siteforge/internal/platform/route53"
	"github.com/imamik/siteforge/internal/platform/s3"
	"github.com/imamik/siteforge/internal/registrar"
)

// Builder installs dependencies and produces static output.
type Builder interface {
	Install(ctx context.Context, dir, command string) error
	Build(ctx context.Context, dir, command string) (string, error)
	OutputDir(dir string) (string, error)
}

// Uploader hosts build output in an object store.
type Uploader interface {
	EnsureWebsiteBucket(ctx context.Context, bucket string) (string, error)
	UploadDirectory(ctx context.Context, bucket, dir string, opts s3.UploadOptions) (s3.UploadResult, error)
}

// Registrar buys domains.
type Registrar interface {
	Purchase(ctx context.Context, req registrar.PurchaseRequest, confirm registrar.ConfirmFunc) (registrar.PurchaseOutcome, error)
}

// Certificates issues TLS certificates.
type Certificates interface {
	Request(ctx context.Context, domain string, includeAlternateNames bool) (string, error)
	ValidationRecords(ctx context.Context, arn string, timeout time.Duration) ([]acm.ValidationRecord, error)
	WaitForIssuance(ctx context.Context, arn string, timeout time.Duration) error
}

// DNS manages the domain's hosted zone.
type DNS interface {
	GetOrCreateHostedZone(ctx context.Context, domain string) (route53.HostedZone, error)
	WriteValidationRecords(ctx context.Context, domain string, records []acm.ValidationRecord) (string, error)
	WriteCutoverRecords(ctx context.Context, domain, distributionDomain string) (string, error)
}

// Distributions manages the CDN in front of the bucket.
type Distributions interface {
	Ensure(ctx context.Context, origin cloudfront.Origin, domain, certificateARN string) (cloudfront.Distribution, error)
	WaitForDeployment(ctx context.Context, id string, timeout time.Duration) error
}

var (
	_ Uploader      = (*s3.Client)(nil)
	_ Registrar     = (*registrar.Service)(nil)
	_ Certificates  = (*acm.Manager)(nil)
	_ DNS           = (*route53.Manager)(nil)
	_ Distributions = (*cloudfront.Manager)(nil)
)
