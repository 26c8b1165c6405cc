package acm

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/acm"
	"github.com/aws/aws-sdk-go-v2/service/acm/types"
	"github.com/aws/smithy-go"

	"github.com/imamik/siteforge/internal/util/naming"
)

// FakeAPI is an in-memory ACM used by tests. A requested certificate has no
// validation records for RecordPolls describes, stays PENDING_VALIDATION for
// IssuePolls more, then settles on FinalStatus (ISSUED by default).
type FakeAPI struct {
	RecordPolls int
	IssuePolls  int
	FinalStatus types.CertificateStatus

	// RecordFunc builds the validation record for one name on a certificate.
	RecordFunc func(name string) types.ResourceRecord

	RequestCertificateFunc func(ctx context.Context, in *acm.RequestCertificateInput) (*acm.RequestCertificateOutput, error)

	mu       sync.Mutex
	certs    map[string]*fakeCert
	tokens   map[string]string
	requests []*acm.RequestCertificateInput
}

type fakeCert struct {
	in    *acm.RequestCertificateInput
	polls int
}

// NewFakeAPI creates an empty fake.
func NewFakeAPI() *FakeAPI {
	return &FakeAPI{certs: map[string]*fakeCert{}, tokens: map[string]string{}}
}

var _ API = (*FakeAPI)(nil)

// Requests returns the inputs passed to RequestCertificate.
func (f *FakeAPI) Requests() []*acm.RequestCertificateInput {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.requests)
}

// ExpireTokens forgets every idempotency token, as ACM does an hour after a
// request. The next request for a domain issues a new certificate.
func (f *FakeAPI) ExpireTokens() {
	f.mu.Lock()
	defer f.mu.Unlock()
	clear(f.tokens)
}

func (f *FakeAPI) RequestCertificate(ctx context.Context, in *acm.RequestCertificateInput, _ ...func(*acm.Options)) (*acm.RequestCertificateOutput, error) {
	if f.RequestCertificateFunc != nil {
		return f.RequestCertificateFunc(ctx, in)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, in)

	token := aws.ToString(in.IdempotencyToken)
	if arn, ok := f.tokens[token]; ok && token != "" {
		return &acm.RequestCertificateOutput{CertificateArn: aws.String(arn)}, nil
	}
	arn := fmt.Sprintf("arn:aws:acm:us-east-1:123456789012:certificate/%08d", len(f.certs)+1)
	f.certs[arn] = &fakeCert{in: in}
	f.tokens[token] = arn
	return &acm.RequestCertificateOutput{CertificateArn: aws.String(arn)}, nil
}

func (f *FakeAPI) DescribeCertificate(_ context.Context, in *acm.DescribeCertificateInput, _ ...func(*acm.Options)) (*acm.DescribeCertificateOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	arn := aws.ToString(in.CertificateArn)
	c, ok := f.certs[arn]
	if !ok {
		return nil, &smithy.GenericAPIError{Code: "ResourceNotFoundException", Message: "no certificate " + arn}
	}
	c.polls++

	names := append([]string{aws.ToString(c.in.DomainName)}, c.in.SubjectAlternativeNames...)
	d := &types.CertificateDetail{
		CertificateArn:          aws.String(arn),
		DomainName:              c.in.DomainName,
		SubjectAlternativeNames: names,
		Status:                  types.CertificateStatusPendingValidation,
	}
	for _, name := range names {
		opt := types.DomainValidation{DomainName: aws.String(name), ValidationMethod: types.ValidationMethodDns}
		if c.polls > f.RecordPolls {
			rr := f.record(name)
			opt.ResourceRecord = &rr
		}
		d.DomainValidationOptions = append(d.DomainValidationOptions, opt)
	}
	if c.polls > f.RecordPolls+f.IssuePolls {
		d.Status = f.FinalStatus
		if d.Status == "" {
			d.Status = types.CertificateStatusIssued
		}
	}
	return &acm.DescribeCertificateOutput{Certificate: d}, nil
}

func (f *FakeAPI) record(name string) types.ResourceRecord {
	if f.RecordFunc != nil {
		return f.RecordFunc(name)
	}
	token := naming.IdempotencyToken(name)
	return types.ResourceRecord{
		Name:  aws.String("_" + token + "." + name + "."),
		Type:  types.RecordTypeCname,
		Value: aws.String("_" + token + ".acm-validations.aws."),
	}
}
