package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

// GlobalRegion serves CloudFront, Route 53, Route 53 Domains and the ACM
// certificates attached to CloudFront distributions.
const GlobalRegion = "us-east-1"

// Settings selects the region and, optionally, static credentials. Empty
// credentials fall back to the default AWS credential chain.
type Settings struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	Profile         string
	// Endpoint overrides every service endpoint, for LocalStack and tests.
	Endpoint string
}

// LoadConfig loads an AWS configuration from settings.
func LoadConfig(ctx context.Context, s Settings) (aws.Config, error) {
	region := s.Region
	if region == "" {
		region = GlobalRegion
	}

	opts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
		// retry.Policy owns retries; SDK retries would multiply its attempts.
		config.WithRetryer(func() aws.Retryer { return aws.NopRetryer{} }),
	}
	if s.AccessKeyID != "" && s.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s.AccessKeyID, s.SecretAccessKey, s.SessionToken),
		))
	}
	if s.Profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(s.Profile))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	if s.Endpoint != "" {
		cfg.BaseEndpoint = aws.String(s.Endpoint)
	}
	return cfg, nil
}

// Global returns a copy of cfg pinned to GlobalRegion.
func Global(cfg aws.Config) aws.Config {
	global := cfg.Copy()
	global.Region = GlobalRegion
	return global
}
