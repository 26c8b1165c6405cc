package pipeline_test

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	acmtypes "github.com/aws/aws-sdk-go-v2/service/acm/types"
	cftypes "github.com/aws/aws-sdk-go-v2/service/cloudfront/types"
	r53types "github.com/aws/aws-sdk-go-v2/service/route53/types"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/imamik/siteforge/internal/build"
	"github.com/imamik/siteforge/internal/errdefs"
	"github.com/imamik/siteforge/internal/pipeline"
	"github.com/imamik/siteforge/internal/platform/route53"
	"github.com/imamik/siteforge/internal/platform/s3"
	sftesting "github.com/imamik/siteforge/internal/testing"
)

// memoryUploader stands in for the object store.
type memoryUploader struct {
	mu      sync.Mutex
	buckets []string
	dirs    []string
}

func (u *memoryUploader) EnsureWebsiteBucket(_ context.Context, bucket string) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.buckets = append(u.buckets, bucket)
	return "us-east-1", nil
}

func (u *memoryUploader) UploadDirectory(_ context.Context, _, dir string, _ s3.UploadOptions) (s3.UploadResult, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.dirs = append(u.dirs, dir)
	return s3.UploadResult{Files: 2}, nil
}

func sharedValidationRecord(string) acmtypes.ResourceRecord {
	return acmtypes.ResourceRecord{
		Name:  aws.String("_abc.my-app.com."),
		Type:  acmtypes.RecordTypeCname,
		Value: aws.String("_xyz.acm-validations.aws."),
	}
}

var _ = Describe("Provisioning a site", func() {
	var (
		fixture  *sftesting.PipelineFixture
		uploader *memoryUploader
		builder  *build.Runner
		metrics  *pipeline.Metrics
		req      pipeline.Request
	)

	BeforeEach(func() {
		if runtime.GOOS == "windows" {
			Skip("the build step needs a POSIX shell")
		}
		fixture = sftesting.NewPipelineFixture()
		fixture.ACM.RecordPolls = 1
		fixture.ACM.IssuePolls = 2
		fixture.ACM.RecordFunc = sharedValidationRecord
		fixture.CloudFront.DeployPolls = 2

		uploader = &memoryUploader{}
		builder = build.NewRunner(build.WithLogger(GinkgoLogr))
		metrics = pipeline.NewMetrics()

		req = sftesting.NewRequestBuilder().
			WithAppDir(sftesting.StaticSite(GinkgoT())).
			WithBuildCommand("true").
			WithTimeouts(5*time.Second, 5*time.Second).
			Build()
	})

	run := func(r pipeline.Request) (pipeline.Result, error) {
		o := fixture.Orchestrator(builder, uploader, nil,
			pipeline.WithLogger(GinkgoLogr),
			pipeline.WithObserver(metrics))
		return o.Run(context.Background(), r)
	}

	Context("for my-app.com on my-website-bucket without registration", func() {
		It("serves the site over HTTPS", func() {
			res, err := run(req)
			Expect(err).NotTo(HaveOccurred())

			By("requesting a certificate that also covers www")
			requests := fixture.ACM.Requests()
			Expect(requests).To(HaveLen(1))
			Expect(aws.ToString(requests[0].DomainName)).To(Equal("my-app.com"))
			Expect(requests[0].SubjectAlternativeNames).To(Equal([]string{"www.my-app.com"}))

			By("writing one validation record")
			batches := fixture.Route53.Batches()
			Expect(batches).To(HaveLen(2))
			validation := batches[0].ChangeBatch.Changes
			Expect(validation).To(HaveLen(1))
			Expect(aws.ToString(validation[0].ResourceRecordSet.Name)).To(Equal("_abc.my-app.com."))
			Expect(validation[0].Action).To(Equal(r53types.ChangeActionUpsert))

			By("creating a distribution that redirects to HTTPS")
			created := fixture.CloudFront.Created()
			Expect(created).To(HaveLen(1))
			Expect(created[0].DefaultCacheBehavior.ViewerProtocolPolicy).To(Equal(cftypes.ViewerProtocolPolicyRedirectToHttps))
			Expect(aws.ToString(created[0].ViewerCertificate.ACMCertificateArn)).To(Equal(res.CertificateARN))
			Expect(created[0].Aliases.Items).To(Equal([]string{"my-app.com"}))

			By("cutting DNS over with one A alias and one www CNAME")
			cutover := batches[1].ChangeBatch.Changes
			Expect(cutover).To(HaveLen(2))
			Expect(cutover[0].ResourceRecordSet.Type).To(Equal(r53types.RRTypeA))
			Expect(aws.ToString(cutover[0].ResourceRecordSet.AliasTarget.HostedZoneId)).To(Equal(route53.CloudFrontHostedZoneID))
			Expect(cutover[1].ResourceRecordSet.Type).To(Equal(r53types.RRTypeCname))
			Expect(aws.ToString(cutover[1].ResourceRecordSet.Name)).To(Equal("www.my-app.com."))

			By("returning the live URL")
			Expect(res.URL).To(Equal("https://my-app.com"))
			Expect(res.DistributionID).NotTo(BeEmpty())
			Expect(res.DistributionDomain).To(HaveSuffix(".cloudfront.net"))
			Expect(res.NameServers).NotTo(BeEmpty(), "a new zone reports its delegation")
			Expect(uploader.buckets).To(Equal([]string{"my-website-bucket"}))
			Expect(uploader.dirs[0]).To(HaveSuffix("out"))
		})

		It("converges when run again", func() {
			first, err := run(req)
			Expect(err).NotTo(HaveOccurred())
			records := fixture.Route53.Records(first.HostedZoneID)

			second, err := run(req)
			Expect(err).NotTo(HaveOccurred())

			Expect(second.HostedZoneID).To(Equal(first.HostedZoneID))
			Expect(second.CertificateARN).To(Equal(first.CertificateARN))
			Expect(second.DistributionID).To(Equal(first.DistributionID))
			Expect(fixture.Route53.ZoneCount()).To(Equal(1))
			Expect(fixture.CloudFront.Created()).To(HaveLen(1))
			Expect(fixture.Route53.Records(first.HostedZoneID)).To(Equal(records))
		})

		It("counts steps and their outcomes", func() {
			_, err := run(req)
			Expect(err).NotTo(HaveOccurred())

			families, err := metrics.Registry().Gather()
			Expect(err).NotTo(HaveOccurred())
			var results []string
			for _, mf := range families {
				if mf.GetName() != "siteforge_pipeline_steps_total" {
					continue
				}
				for _, m := range mf.GetMetric() {
					for _, l := range m.GetLabel() {
						if l.GetName() == "result" {
							results = append(results, l.GetValue())
						}
					}
				}
			}
			Expect(results).To(ContainElements("success", "skipped"))
			Expect(results).NotTo(ContainElement("failure"))
		})
	})

	Context("when a failed run is repeated after the certificate token expired", func() {
		BeforeEach(func() {
			fixture.CloudFront.DeployPolls = 1 << 20
			req.DistributionTimeout = 30 * time.Millisecond
		})

		It("moves the existing distribution to the new certificate", func() {
			_, err := run(req)
			Expect(pipeline.FailedStep(err)).To(Equal(pipeline.StepWaitDistribution))
			firstDist := fixture.CloudFront.Created()
			Expect(firstDist).To(HaveLen(1))
			firstCert := aws.ToString(firstDist[0].ViewerCertificate.ACMCertificateArn)

			fixture.ACM.ExpireTokens()
			fixture.CloudFront.DeployPolls = 0
			req.DistributionTimeout = 5 * time.Second

			res, err := run(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.CertificateARN).NotTo(Equal(firstCert))
			Expect(fixture.CloudFront.Created()).To(HaveLen(1))

			updated := fixture.CloudFront.Updated()
			Expect(updated).To(HaveLen(1))
			Expect(aws.ToString(updated[0].ViewerCertificate.ACMCertificateArn)).To(Equal(res.CertificateARN))
			Expect(res.URL).To(Equal("https://my-app.com"))
		})
	})

	Context("when the site is uploaded under a prefix", func() {
		BeforeEach(func() {
			req.Prefix = "v1"
		})

		It("points the distribution origin at the prefix", func() {
			_, err := run(req)
			Expect(err).NotTo(HaveOccurred())
			created := fixture.CloudFront.Created()
			Expect(created).To(HaveLen(1))
			Expect(aws.ToString(created[0].Origins.Items[0].OriginPath)).To(Equal("/v1"))
		})
	})

	Context("when the certificate fails validation", func() {
		BeforeEach(func() {
			fixture.ACM.FinalStatus = acmtypes.CertificateStatusFailed
		})

		It("stops before creating a distribution", func() {
			_, err := run(req)
			Expect(err).To(HaveOccurred())
			Expect(pipeline.FailedStep(err)).To(Equal(pipeline.StepWaitCertificate))
			Expect(errdefs.IsTerminalState(err)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring(`pipeline step "wait-certificate" failed`))

			Expect(fixture.CloudFront.Created()).To(BeEmpty())
			Expect(fixture.Route53.Batches()).To(HaveLen(1), "only validation records were written")
		})
	})

	Context("when the distribution never deploys", func() {
		BeforeEach(func() {
			fixture.CloudFront.DeployPolls = 1 << 20
			req.DistributionTimeout = 30 * time.Millisecond
		})

		It("times out after the cut-over", func() {
			_, err := run(req)
			Expect(errdefs.IsTimeout(err)).To(BeTrue())
			Expect(pipeline.FailedStep(err)).To(Equal(pipeline.StepWaitDistribution))
			Expect(fixture.Route53.Batches()).To(HaveLen(2))
		})
	})

	Context("when the build fails", func() {
		BeforeEach(func() {
			req.BuildCommand = "echo 'Type error in page.tsx' >&2; exit 1"
		})

		It("never requests a certificate", func() {
			_, err := run(req)
			Expect(pipeline.FailedStep(err)).To(Equal(pipeline.StepBuild))
			Expect(err.Error()).To(ContainSubstring("Type error in page.tsx"))
			Expect(fixture.ACM.Requests()).To(BeEmpty())
			Expect(uploader.buckets).To(BeEmpty())
		})
	})
})
