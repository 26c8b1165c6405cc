package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/imamik/siteforge/internal/platform/cloudfront"
	"github.com/imamik/siteforge/internal/util/naming"
)

// CDNCreate puts a distribution in front of a website bucket, serving the
// objects under prefix. An existing distribution for the domain is reused or
// updated.
func CDNCreate(ctx context.Context, g Globals, bucket, prefix, domain, certificateARN string) error {
	s, err := openSession(g, false)
	if err != nil {
		return err
	}
	defer s.Close()

	storage, err := s.storage(ctx)
	if err != nil {
		return err
	}
	region, err := storage.BucketRegion(ctx, bucket)
	if err != nil {
		return err
	}

	dists, err := s.distributions(ctx)
	if err != nil {
		return err
	}

	origin := cloudfront.Origin{Bucket: bucket, Region: region, Path: prefix}
	d, err := dists.Ensure(ctx, origin, naming.Normalize(domain), certificateARN)
	if err != nil {
		return err
	}

	printHeader("Distribution")
	fmt.Printf("  ID:      %s\n", d.ID)
	fmt.Printf("  Domain:  %s\n", d.DomainName)
	fmt.Printf("  Status:  %s\n", d.Status)
	fmt.Printf("  ARN:     %s\n", d.ARN)
	fmt.Printf("  Origin:  %s%s\n", naming.WebsiteEndpoint(bucket, region), origin.OriginPath())
	fmt.Println()
	return nil
}

// CDNWait blocks until the distribution is deployed. A zero timeout uses the
// configured one.
func CDNWait(ctx context.Context, g Globals, id string, timeout time.Duration) error {
	s, err := openSession(g, false)
	if err != nil {
		return err
	}
	defer s.Close()

	dists, err := s.distributions(ctx)
	if err != nil {
		return err
	}
	if timeout <= 0 {
		timeout = s.settings.Timeouts.Distribution
	}

	if err := dists.WaitForDeployment(ctx, id, timeout); err != nil {
		return err
	}
	fmt.Printf("Distribution %s is deployed.\n", id)
	return nil
}
