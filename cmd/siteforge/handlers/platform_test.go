package handlers

import (
	"context"
	"regexp"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	acmtypes "github.com/aws/aws-sdk-go-v2/service/acm/types"
	cftypes "github.com/aws/aws-sdk-go-v2/service/cloudfront/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/siteforge/internal/errdefs"
)

// field extracts the first value printed after label.
func field(t *testing.T, output, label string) string {
	t.Helper()
	m := regexp.MustCompile(regexp.QuoteMeta(label) + `\s+(\S+)`).FindStringSubmatch(output)
	require.Len(t, m, 2, "no %q in output:\n%s", label, output)
	return m[1]
}

func TestCertRequest_PrintsRecords(t *testing.T) {
	fakes := newFakeAWS()
	stubEnvironment(t, testSettings(), fakes, nil)

	var err error
	output := captureOutput(func() {
		err = CertRequest(context.Background(), testGlobals(), "My-App.com", true, false)
	})
	require.NoError(t, err)

	assert.Contains(t, output, "Certificate requested")
	assert.Contains(t, output, "acm-validations.aws.")
	assert.Contains(t, output, "siteforge cert wait")

	requests := fakes.ACM.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, "my-app.com", aws.ToString(requests[0].DomainName))
	assert.Equal(t, []string{"www.my-app.com"}, requests[0].SubjectAlternativeNames)
	assert.Empty(t, fakes.Route53.Batches(), "records are only printed")
}

func TestCertRequest_WritesRecords(t *testing.T) {
	fakes := newFakeAWS()
	stubEnvironment(t, testSettings(), fakes, nil)

	var err error
	output := captureOutput(func() {
		err = CertRequest(context.Background(), testGlobals(), "my-app.com", false, true)
	})
	require.NoError(t, err)

	assert.Contains(t, output, "Validation records written")
	require.Len(t, fakes.ACM.Requests(), 1)
	assert.Empty(t, fakes.ACM.Requests()[0].SubjectAlternativeNames)
	require.Len(t, fakes.Route53.Batches(), 1)
	assert.Len(t, fakes.Route53.Batches()[0].ChangeBatch.Changes, 1)
	assert.Equal(t, 1, fakes.Route53.ZoneCount())
}

func TestCertWait(t *testing.T) {
	fakes := newFakeAWS()
	fakes.ACM.IssuePolls = 2
	stubEnvironment(t, testSettings(), fakes, nil)

	output := captureOutput(func() {
		require.NoError(t, CertRequest(context.Background(), testGlobals(), "my-app.com", true, false))
	})
	arn := field(t, output, "ARN:")

	output = captureOutput(func() {
		require.NoError(t, CertWait(context.Background(), testGlobals(), arn, 0))
	})
	assert.Contains(t, output, "is issued")
}

func TestCertWait_Failed(t *testing.T) {
	fakes := newFakeAWS()
	fakes.ACM.IssuePolls = 1
	fakes.ACM.FinalStatus = acmtypes.CertificateStatusFailed
	stubEnvironment(t, testSettings(), fakes, nil)

	output := captureOutput(func() {
		require.NoError(t, CertRequest(context.Background(), testGlobals(), "my-app.com", true, false))
	})

	var err error
	captureOutput(func() {
		err = CertWait(context.Background(), testGlobals(), field(t, output, "ARN:"), 0)
	})
	require.Error(t, err)
	assert.True(t, errdefs.IsTerminalState(err))
}

func TestCertRequest_InvalidSettings(t *testing.T) {
	settings := testSettings()
	settings.AWS.AccessKeyID = "AKIA"
	stubEnvironment(t, settings, newFakeAWS(), nil)

	err := CertRequest(context.Background(), testGlobals(), "my-app.com", true, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration validation failed")
}

func TestCDNCreate(t *testing.T) {
	fakes := newFakeAWS()
	fakes.S3.AddBucket("site", "eu-central-1")
	stubEnvironment(t, testSettings(), fakes, nil)

	var err error
	output := captureOutput(func() {
		err = CDNCreate(context.Background(), testGlobals(), "site", "", "my-app.com", "")
	})
	require.NoError(t, err)

	assert.Contains(t, output, "site.s3-website-eu-central-1.amazonaws.com")
	assert.Contains(t, output, ".cloudfront.net")

	created := fakes.CloudFront.Created()
	require.Len(t, created, 1)
	assert.Equal(t, []string{"my-app.com"}, created[0].Aliases.Items)
	assert.Equal(t, cftypes.ViewerProtocolPolicyAllowAll, created[0].DefaultCacheBehavior.ViewerProtocolPolicy)

	// A second create reuses the distribution.
	captureOutput(func() {
		err = CDNCreate(context.Background(), testGlobals(), "site", "", "my-app.com", "")
	})
	require.NoError(t, err)
	assert.Len(t, fakes.CloudFront.Created(), 1)

	id := field(t, output, "ID:")
	output = captureOutput(func() {
		require.NoError(t, CDNWait(context.Background(), testGlobals(), id, 0))
	})
	assert.Contains(t, output, "is deployed")
}

func TestCDNCreate_Prefix(t *testing.T) {
	fakes := newFakeAWS()
	fakes.S3.AddBucket("site", "eu-central-1")
	stubEnvironment(t, testSettings(), fakes, nil)

	var err error
	output := captureOutput(func() {
		err = CDNCreate(context.Background(), testGlobals(), "site", "v1", "my-app.com", "")
	})
	require.NoError(t, err)
	assert.Contains(t, output, "site.s3-website-eu-central-1.amazonaws.com/v1")

	created := fakes.CloudFront.Created()
	require.Len(t, created, 1)
	assert.Equal(t, "/v1", aws.ToString(created[0].Origins.Items[0].OriginPath))
}

func TestCDNCreate_MissingBucket(t *testing.T) {
	fakes := newFakeAWS()
	stubEnvironment(t, testSettings(), fakes, nil)

	var err error
	captureOutput(func() {
		err = CDNCreate(context.Background(), testGlobals(), "missing", "", "my-app.com", "")
	})
	require.Error(t, err)
	assert.Empty(t, fakes.CloudFront.Created())
}

func TestDNSCutover(t *testing.T) {
	fakes := newFakeAWS()
	fakes.Route53.PendingPolls = 2
	stubEnvironment(t, testSettings(), fakes, nil)

	var err error
	output := captureOutput(func() {
		err = DNSCutover(context.Background(), testGlobals(), "my-app.com", "d111111abcdef8.cloudfront.net", true)
	})
	require.NoError(t, err)

	assert.Contains(t, output, "DNS cutover")
	assert.Contains(t, output, "awsdns.test")
	assert.Contains(t, output, "Change is in sync.")

	batches := fakes.Route53.Batches()
	require.Len(t, batches, 1)
	assert.Len(t, batches[0].ChangeBatch.Changes, 2)
}

func TestDNSCutover_NoWait(t *testing.T) {
	fakes := newFakeAWS()
	stubEnvironment(t, testSettings(), fakes, nil)

	var err error
	output := captureOutput(func() {
		err = DNSCutover(context.Background(), testGlobals(), "my-app.com", "d111111abcdef8.cloudfront.net", false)
	})
	require.NoError(t, err)
	assert.NotContains(t, output, "in sync")
}
