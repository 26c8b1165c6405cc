package testing

import (
	"time"

	"github.com/go-logr/logr"

	"github.com/imamik/siteforge/internal/pipeline"
	"github.com/imamik/siteforge/internal/platform/acm"
	"github.com/imamik/siteforge/internal/platform/cloudfront"
	"github.com/imamik/siteforge/internal/platform/route53"
	"github.com/imamik/siteforge/internal/util/retry"
)

// fixturePoll keeps fake waits fast.
const fixturePoll = time.Millisecond

// PipelineFixture wires the in-memory AWS fakes into the real managers.
type PipelineFixture struct {
	ACM        *acm.FakeAPI
	Route53    *route53.FakeAPI
	CloudFront *cloudfront.FakeAPI

	Certificates  *acm.Manager
	DNS           *route53.Manager
	Distributions *cloudfront.Manager
}

// NewPipelineFixture creates empty fakes and managers that poll every
// millisecond and retry without delay.
func NewPipelineFixture() *PipelineFixture {
	return NewPipelineFixtureWith(acm.NewFakeAPI(), route53.NewFakeAPI(), cloudfront.NewFakeAPI())
}

// NewPipelineFixtureWith wires pre-configured fakes.
func NewPipelineFixtureWith(a *acm.FakeAPI, r *route53.FakeAPI, c *cloudfront.FakeAPI) *PipelineFixture {
	read, mutation := retry.Policy{MaxAttempts: 3}, retry.Policy{MaxAttempts: 2}
	return &PipelineFixture{
		ACM:        a,
		Route53:    r,
		CloudFront: c,
		Certificates: acm.NewManager(a,
			acm.WithRetryPolicies(read, mutation),
			acm.WithPollIntervals(fixturePoll, fixturePoll)),
		DNS: route53.NewManager(r,
			route53.WithRetryPolicies(read, mutation),
			route53.WithChangePollInterval(fixturePoll)),
		Distributions: cloudfront.NewManager(c,
			cloudfront.WithRetryPolicies(read, mutation),
			cloudfront.WithDeploymentPollInterval(fixturePoll)),
	}
}

// Deps returns orchestrator dependencies using the fixture's managers and
// the given builder, uploader and registrar.
func (f *PipelineFixture) Deps(b pipeline.Builder, u pipeline.Uploader, r pipeline.Registrar) pipeline.Deps {
	return pipeline.Deps{
		Builder:       b,
		Uploader:      u,
		Registrar:     r,
		Certificates:  f.Certificates,
		DNS:           f.DNS,
		Distributions: f.Distributions,
	}
}

// Orchestrator builds an orchestrator over Deps with a discarded logger.
func (f *PipelineFixture) Orchestrator(b pipeline.Builder, u pipeline.Uploader, r pipeline.Registrar, opts ...pipeline.Option) *pipeline.Orchestrator {
	opts = append([]pipeline.Option{pipeline.WithLogger(logr.Discard())}, opts...)
	return pipeline.New(f.Deps(b, u, r), opts...)
}
