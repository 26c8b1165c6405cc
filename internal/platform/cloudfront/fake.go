package cloudfront

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront/types"
	"github.com/aws/smithy-go"
)

// FakeAPI is an in-memory CloudFront used by tests. New distributions report
// InProgress for DeployPolls GetDistribution calls, then Deployed.
type FakeAPI struct {
	DeployPolls int

	CreateDistributionFunc func(ctx context.Context, in *cloudfront.CreateDistributionInput) (*cloudfront.CreateDistributionOutput, error)

	mu            sync.Mutex
	distributions []*types.Distribution
	polls         map[string]int
	callerRefs    map[string]bool
	etags         map[string]int
	created       []*types.DistributionConfig
	updated       []*types.DistributionConfig
}

// NewFakeAPI creates an empty fake.
func NewFakeAPI() *FakeAPI {
	return &FakeAPI{polls: map[string]int{}, callerRefs: map[string]bool{}, etags: map[string]int{}}
}

var _ API = (*FakeAPI)(nil)

// Created returns the configs passed to CreateDistribution.
func (f *FakeAPI) Created() []*types.DistributionConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.created)
}

// Updated returns the configs passed to UpdateDistribution.
func (f *FakeAPI) Updated() []*types.DistributionConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.updated)
}

func (f *FakeAPI) find(id string) *types.Distribution {
	for _, d := range f.distributions {
		if aws.ToString(d.Id) == id {
			return d
		}
	}
	return nil
}

func (f *FakeAPI) etag(id string) string {
	return fmt.Sprintf("E%s-%d", id, f.etags[id])
}

func (f *FakeAPI) CreateDistribution(ctx context.Context, in *cloudfront.CreateDistributionInput, _ ...func(*cloudfront.Options)) (*cloudfront.CreateDistributionOutput, error) {
	if f.CreateDistributionFunc != nil {
		return f.CreateDistributionFunc(ctx, in)
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	cfg := in.DistributionConfig
	ref := aws.ToString(cfg.CallerReference)
	if f.callerRefs[ref] {
		return nil, &smithy.GenericAPIError{Code: "DistributionAlreadyExists", Message: "caller reference reused"}
	}
	for _, alias := range cfg.Aliases.Items {
		for _, d := range f.distributions {
			if slices.Contains(d.DistributionConfig.Aliases.Items, alias) {
				return nil, &smithy.GenericAPIError{Code: "CNAMEAlreadyExists", Message: alias + " is already in use"}
			}
		}
	}
	f.callerRefs[ref] = true
	f.created = append(f.created, cfg)

	id := fmt.Sprintf("E%04dFAKE", len(f.distributions)+1)
	d := &types.Distribution{
		Id:                 aws.String(id),
		ARN:                aws.String("arn:aws:cloudfront::123456789012:distribution/" + id),
		DomainName:         aws.String("d" + strings.ToLower(id) + ".cloudfront.net"),
		Status:             aws.String(StatusInProgress),
		DistributionConfig: cfg,
	}
	f.distributions = append(f.distributions, d)
	return &cloudfront.CreateDistributionOutput{Distribution: d}, nil
}

func (f *FakeAPI) GetDistribution(_ context.Context, in *cloudfront.GetDistributionInput, _ ...func(*cloudfront.Options)) (*cloudfront.GetDistributionOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := aws.ToString(in.Id)
	for _, d := range f.distributions {
		if aws.ToString(d.Id) != id {
			continue
		}
		f.polls[id]++
		if f.polls[id] > f.DeployPolls {
			d.Status = aws.String(StatusDeployed)
		}
		cp := *d
		return &cloudfront.GetDistributionOutput{Distribution: &cp}, nil
	}
	return nil, &smithy.GenericAPIError{Code: "NoSuchDistribution", Message: "no distribution " + id}
}

func (f *FakeAPI) ListDistributions(_ context.Context, in *cloudfront.ListDistributionsInput, _ ...func(*cloudfront.Options)) (*cloudfront.ListDistributionsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	start := 0
	if m := aws.ToString(in.Marker); m != "" {
		start = slices.IndexFunc(f.distributions, func(d *types.Distribution) bool { return aws.ToString(d.Id) == m })
		if start < 0 {
			return nil, &smithy.GenericAPIError{Code: "InvalidArgument", Message: "bad marker"}
		}
	}
	end := min(start+1, len(f.distributions))

	list := &types.DistributionList{IsTruncated: aws.Bool(end < len(f.distributions))}
	for _, d := range f.distributions[start:end] {
		list.Items = append(list.Items, types.DistributionSummary{
			Id:                aws.String(aws.ToString(d.Id)),
			ARN:               d.ARN,
			DomainName:        d.DomainName,
			Status:            d.Status,
			Aliases:           d.DistributionConfig.Aliases,
			ViewerCertificate: d.DistributionConfig.ViewerCertificate,
			Origins:           d.DistributionConfig.Origins,
		})
	}
	if end < len(f.distributions) {
		list.NextMarker = f.distributions[end].Id
	}
	return &cloudfront.ListDistributionsOutput{DistributionList: list}, nil
}

func (f *FakeAPI) GetDistributionConfig(_ context.Context, in *cloudfront.GetDistributionConfigInput, _ ...func(*cloudfront.Options)) (*cloudfront.GetDistributionConfigOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := aws.ToString(in.Id)
	d := f.find(id)
	if d == nil {
		return nil, &smithy.GenericAPIError{Code: "NoSuchDistribution", Message: "no distribution " + id}
	}
	cfg := *d.DistributionConfig
	return &cloudfront.GetDistributionConfigOutput{DistributionConfig: &cfg, ETag: aws.String(f.etag(id))}, nil
}

func (f *FakeAPI) UpdateDistribution(_ context.Context, in *cloudfront.UpdateDistributionInput, _ ...func(*cloudfront.Options)) (*cloudfront.UpdateDistributionOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := aws.ToString(in.Id)
	d := f.find(id)
	if d == nil {
		return nil, &smithy.GenericAPIError{Code: "NoSuchDistribution", Message: "no distribution " + id}
	}
	if aws.ToString(in.IfMatch) != f.etag(id) {
		return nil, &smithy.GenericAPIError{Code: "PreconditionFailed", Message: "stale ETag"}
	}
	if aws.ToString(in.DistributionConfig.CallerReference) != aws.ToString(d.DistributionConfig.CallerReference) {
		return nil, &smithy.GenericAPIError{Code: "IllegalUpdate", Message: "caller reference cannot change"}
	}

	f.etags[id]++
	f.polls[id] = 0
	f.updated = append(f.updated, in.DistributionConfig)
	d.DistributionConfig = in.DistributionConfig
	d.Status = aws.String(StatusInProgress)
	cp := *d
	return &cloudfront.UpdateDistributionOutput{Distribution: &cp, ETag: aws.String(f.etag(id))}, nil
}
