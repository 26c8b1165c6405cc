package s3

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/go-logr/logr"

	"github.com/imamik/siteforge/internal/errdefs"
	awsplatform "github.com/imamik/siteforge/internal/platform/aws"
	"github.com/imamik/siteforge/internal/util/retry"
)

// Website documents.
const (
	DefaultIndexDocument = "index.html"
	DefaultErrorDocument = "404.html"
)

const defaultUploadConcurrency = 8

// API is the subset of the S3 client used by Client.
type API interface {
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, in *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
	GetBucketLocation(ctx context.Context, in *s3.GetBucketLocationInput, optFns ...func(*s3.Options)) (*s3.GetBucketLocationOutput, error)
	PutBucketWebsite(ctx context.Context, in *s3.PutBucketWebsiteInput, optFns ...func(*s3.Options)) (*s3.PutBucketWebsiteOutput, error)
	PutPublicAccessBlock(ctx context.Context, in *s3.PutPublicAccessBlockInput, optFns ...func(*s3.Options)) (*s3.PutPublicAccessBlockOutput, error)
	PutBucketPolicy(ctx context.Context, in *s3.PutBucketPolicyInput, optFns ...func(*s3.Options)) (*s3.PutBucketPolicyOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObjects(ctx context.Context, in *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

// Client manages website buckets in one region.
type Client struct {
	s3            API
	region        string
	log           logr.Logger
	read          retry.Policy
	mutation      retry.Policy
	concurrency   int
	errorDocument string
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(log logr.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithRetryPolicies overrides the read and mutation retry policies.
func WithRetryPolicies(read, mutation retry.Policy) Option {
	return func(c *Client) {
		c.read = read
		c.mutation = mutation
	}
}

// WithConcurrency bounds the number of parallel object uploads.
func WithConcurrency(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithErrorDocument overrides the website error document.
func WithErrorDocument(key string) Option {
	return func(c *Client) {
		if key != "" {
			c.errorDocument = key
		}
	}
}

// NewClient creates a Client from an AWS configuration.
func NewClient(cfg aws.Config, opts ...Option) *Client {
	return New(NewAPI(cfg), cfg.Region, opts...)
}

// NewAPI creates the SDK client. A custom endpoint switches to path-style
// addressing.
func NewAPI(cfg aws.Config) API {
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.BaseEndpoint != nil
	})
}

// New creates a Client over an existing API implementation.
func New(api API, region string, opts ...Option) *Client {
	if region == "" {
		region = awsplatform.GlobalRegion
	}
	c := &Client{
		s3:            api,
		region:        region,
		log:           logr.Discard(),
		read:          retry.ReadPolicy(),
		mutation:      retry.MutationPolicy(),
		concurrency:   defaultUploadConcurrency,
		errorDocument: DefaultErrorDocument,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.WithName("s3")
	return c
}

// Region returns the region new buckets are created in.
func (c *Client) Region() string { return c.region }

// CreateBucket creates a new S3 bucket.
// Returns nil if the bucket already exists and is owned by us.
func (c *Client) CreateBucket(ctx context.Context, bucket string) error {
	in := &s3.CreateBucketInput{Bucket: aws.String(bucket)}
	// us-east-1 rejects an explicit location constraint.
	if c.region != awsplatform.GlobalRegion {
		in.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(c.region),
		}
	}

	err := retry.Execute(ctx, c.mutation, func(ctx context.Context) error {
		_, err := c.s3.CreateBucket(ctx, in)
		if err != nil && isBucketAlreadyOwnedByYou(err) {
			return nil
		}
		return awsplatform.Classify("create bucket", err)
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
	}
	return nil
}

// BucketExists checks if a bucket exists and is accessible.
func (c *Client) BucketExists(ctx context.Context, bucket string) (bool, error) {
	exists, err := retry.Do(ctx, c.read, func(ctx context.Context) (bool, error) {
		_, err := c.s3.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
		if err != nil {
			if isNotFoundError(err) {
				return false, nil
			}
			return false, awsplatform.Classify("head bucket", err)
		}
		return true, nil
	}, nil)
	if err != nil {
		return false, fmt.Errorf("failed to check bucket %s: %w", bucket, err)
	}
	return exists, nil
}

// BucketRegion returns the region a bucket lives in.
func (c *Client) BucketRegion(ctx context.Context, bucket string) (string, error) {
	out, err := retry.Do(ctx, c.read, func(ctx context.Context) (*s3.GetBucketLocationOutput, error) {
		out, err := c.s3.GetBucketLocation(ctx, &s3.GetBucketLocationInput{Bucket: aws.String(bucket)})
		return out, awsplatform.Classify("get bucket location", err)
	}, nil)
	if err != nil {
		return "", fmt.Errorf("failed to get region of bucket %s: %w", bucket, err)
	}
	// Buckets in us-east-1 report an empty constraint.
	if out.LocationConstraint == "" {
		return awsplatform.GlobalRegion, nil
	}
	return string(out.LocationConstraint), nil
}

// EnsureWebsiteBucket creates the bucket if needed and configures it for
// public static website hosting. It returns the bucket's region. Every step
// is safe to repeat.
func (c *Client) EnsureWebsiteBucket(ctx context.Context, bucket string) (string, error) {
	if bucket == "" {
		return "", errdefs.New(errdefs.KindValidation, "ensure website bucket", "bucket name is required")
	}

	exists, err := c.BucketExists(ctx, bucket)
	if err != nil {
		return "", err
	}
	region := c.region
	if exists {
		if region, err = c.BucketRegion(ctx, bucket); err != nil {
			return "", err
		}
	} else {
		if err := c.CreateBucket(ctx, bucket); err != nil {
			return "", err
		}
		c.log.Info("created bucket", "bucket", bucket, "region", region)
	}

	if err := c.configureWebsite(ctx, bucket); err != nil {
		return "", err
	}
	if err := c.allowPublicRead(ctx, bucket); err != nil {
		return "", err
	}

	c.log.Info("website bucket ready", "bucket", bucket, "region", region)
	return region, nil
}

func (c *Client) configureWebsite(ctx context.Context, bucket string) error {
	err := retry.Execute(ctx, c.mutation, func(ctx context.Context) error {
		_, err := c.s3.PutBucketWebsite(ctx, &s3.PutBucketWebsiteInput{
			Bucket: aws.String(bucket),
			WebsiteConfiguration: &types.WebsiteConfiguration{
				IndexDocument: &types.IndexDocument{Suffix: aws.String(DefaultIndexDocument)},
				ErrorDocument: &types.ErrorDocument{Key: aws.String(c.errorDocument)},
			},
		})
		return awsplatform.Classify("put bucket website", err)
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to configure website hosting on %s: %w", bucket, err)
	}
	return nil
}

func (c *Client) allowPublicRead(ctx context.Context, bucket string) error {
	err := retry.Execute(ctx, c.mutation, func(ctx context.Context) error {
		_, err := c.s3.PutPublicAccessBlock(ctx, &s3.PutPublicAccessBlockInput{
			Bucket: aws.String(bucket),
			PublicAccessBlockConfiguration: &types.PublicAccessBlockConfiguration{
				BlockPublicAcls:       aws.Bool(false),
				IgnorePublicAcls:      aws.Bool(false),
				BlockPublicPolicy:     aws.Bool(false),
				RestrictPublicBuckets: aws.Bool(false),
			},
		})
		return awsplatform.Classify("put public access block", err)
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to lift public access block on %s: %w", bucket, err)
	}

	policy, err := PublicReadPolicy(bucket)
	if err != nil {
		return err
	}
	err = retry.Execute(ctx, c.mutation, func(ctx context.Context) error {
		_, err := c.s3.PutBucketPolicy(ctx, &s3.PutBucketPolicyInput{
			Bucket: aws.String(bucket),
			Policy: aws.String(policy),
		})
		return awsplatform.Classify("put bucket policy", err)
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to set bucket policy on %s: %w", bucket, err)
	}
	return nil
}

type policyDocument struct {
	Version   string            `json:"Version"`
	Statement []policyStatement `json:"Statement"`
}

type policyStatement struct {
	Sid       string `json:"Sid"`
	Effect    string `json:"Effect"`
	Principal string `json:"Principal"`
	Action    string `json:"Action"`
	Resource  string `json:"Resource"`
}

// PublicReadPolicy renders a bucket policy granting anonymous GetObject.
func PublicReadPolicy(bucket string) (string, error) {
	doc := policyDocument{
		Version: "2012-10-17",
		Statement: []policyStatement{{
			Sid:       "PublicReadGetObject",
			Effect:    "Allow",
			Principal: "*",
			Action:    "s3:GetObject",
			Resource:  "arn:aws:s3:::" + bucket + "/*",
		}},
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to encode bucket policy: %w", err)
	}
	return string(b), nil
}

// ListObjects lists every key in a bucket with an optional prefix filter.
func (c *Client) ListObjects(ctx context.Context, bucket, prefix string) ([]string, error) {
	var keys []string
	var token *string
	for {
		input := &s3.ListObjectsV2Input{
			Bucket:            aws.String(bucket),
			ContinuationToken: token,
		}
		if prefix != "" {
			input.Prefix = aws.String(prefix)
		}

		out, err := retry.Do(ctx, c.read, func(ctx context.Context) (*s3.ListObjectsV2Output, error) {
			out, err := c.s3.ListObjectsV2(ctx, input)
			return out, awsplatform.Classify("list objects", err)
		}, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects in bucket %s: %w", bucket, err)
		}

		for _, obj := range out.Contents {
			if obj.Key != nil {
				keys = append(keys, *obj.Key)
			}
		}
		if !aws.ToBool(out.IsTruncated) || out.NextContinuationToken == nil {
			return keys, nil
		}
		token = out.NextContinuationToken
	}
}

// maxDeleteBatch is the DeleteObjects request limit.
const maxDeleteBatch = 1000

// DeleteObjects removes keys in batches.
func (c *Client) DeleteObjects(ctx context.Context, bucket string, keys []string) error {
	for start := 0; start < len(keys); start += maxDeleteBatch {
		end := min(start+maxDeleteBatch, len(keys))
		ids := make([]types.ObjectIdentifier, 0, end-start)
		for _, k := range keys[start:end] {
			ids = append(ids, types.ObjectIdentifier{Key: aws.String(k)})
		}

		out, err := retry.Do(ctx, c.mutation, func(ctx context.Context) (*s3.DeleteObjectsOutput, error) {
			out, err := c.s3.DeleteObjects(ctx, &s3.DeleteObjectsInput{
				Bucket: aws.String(bucket),
				Delete: &types.Delete{Objects: ids, Quiet: aws.Bool(true)},
			})
			return out, awsplatform.Classify("delete objects", err)
		}, nil)
		if err != nil {
			return fmt.Errorf("failed to delete objects from bucket %s: %w", bucket, err)
		}
		if len(out.Errors) > 0 {
			e := out.Errors[0]
			return fmt.Errorf("failed to delete %s from bucket %s: %s", aws.ToString(e.Key), bucket, aws.ToString(e.Message))
		}
	}
	return nil
}

// isBucketAlreadyOwnedByYou checks if the error indicates the bucket exists and is owned by us.
func isBucketAlreadyOwnedByYou(err error) bool {
	var baoby *types.BucketAlreadyOwnedByYou
	if errors.As(err, &baoby) {
		return true
	}
	return awsplatform.HasCode(err, "BucketAlreadyOwnedByYou")
}

// isNotFoundError checks if the error is a not found error.
func isNotFoundError(err error) bool {
	var nsb *types.NoSuchBucket
	if errors.As(err, &nsb) {
		return true
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}

	// HeadBucket responses carry no body, so only the status survives.
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NotFound" || code == "NoSuchBucket" || code == "404"
	}
	return false
}
