// Package acm requests and tracks DNS-validated TLS certificates in AWS
// Certificate Manager. CloudFront only accepts certificates from us-east-1, so
// the client must be built from aws.Global.
package acm

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/acm"
	"github.com/aws/aws-sdk-go-v2/service/acm/types"
	"github.com/go-logr/logr"

	"github.com/imamik/siteforge/internal/errdefs"
	awsplatform "github.com/imamik/siteforge/internal/platform/aws"
	"github.com/imamik/siteforge/internal/util/naming"
	"github.com/imamik/siteforge/internal/util/poll"
	"github.com/imamik/siteforge/internal/util/retry"
)

// Default poll intervals.
const (
	DefaultValidationPollInterval = 5 * time.Second
	DefaultIssuancePollInterval   = 30 * time.Second
)

// Status is a certificate lifecycle status.
type Status string

// Certificate statuses.
const (
	StatusPendingValidation Status = "PENDING_VALIDATION"
	StatusIssued            Status = "ISSUED"
	StatusFailed            Status = "FAILED"
	StatusRevoked           Status = "REVOKED"
	StatusExpired           Status = "EXPIRED"
)

// API is the subset of the ACM client used by Manager.
type API interface {
	RequestCertificate(ctx context.Context, in *acm.RequestCertificateInput, optFns ...func(*acm.Options)) (*acm.RequestCertificateOutput, error)
	DescribeCertificate(ctx context.Context, in *acm.DescribeCertificateInput, optFns ...func(*acm.Options)) (*acm.DescribeCertificateOutput, error)
}

// Certificate is a normalized certificate description.
type Certificate struct {
	ARN            string
	Domain         string
	AlternateNames []string
	Status         Status
	// FailureReason is set for failed certificates.
	FailureReason string
}

// Terminal reports whether the certificate can never become ISSUED.
func (c Certificate) Terminal() bool {
	return c.Status != StatusIssued && c.Status != StatusPendingValidation
}

// ValidationRecord is a DNS record ACM needs to see before issuing.
type ValidationRecord struct {
	Name  string
	Type  string
	Value string
}

// Manager requests certificates and waits for them.
type Manager struct {
	api      API
	log      logr.Logger
	read     retry.Policy
	mutation retry.Policy

	validationPoll time.Duration
	issuancePoll   time.Duration
	onPoll         func(resource string)
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

// WithPollIntervals overrides how often validation records and issuance are polled.
func WithPollIntervals(validation, issuance time.Duration) Option {
	return func(m *Manager) {
		if validation > 0 {
			m.validationPoll = validation
		}
		if issuance > 0 {
			m.issuancePoll = issuance
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
		api:            api,
		log:            logr.Discard(),
		read:           retry.ReadPolicy(),
		mutation:       retry.MutationPolicy(),
		validationPoll: DefaultValidationPollInterval,
		issuancePoll:   DefaultIssuancePollInterval,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.WithName("acm")
	return m
}

// Request asks for a DNS-validated certificate for domain, optionally covering
// www.<domain> as well. Repeating the call for the same domain within an hour
// returns the same certificate.
func (m *Manager) Request(ctx context.Context, domain string, includeAlternateNames bool) (string, error) {
	domain = naming.Normalize(domain)
	in := &acm.RequestCertificateInput{
		DomainName:       aws.String(domain),
		ValidationMethod: types.ValidationMethodDns,
		IdempotencyToken: aws.String(naming.IdempotencyToken(domain)),
	}
	if includeAlternateNames {
		in.SubjectAlternativeNames = []string{naming.WWW(domain)}
	}

	out, err := retry.Do(ctx, m.mutation, func(ctx context.Context) (*acm.RequestCertificateOutput, error) {
		out, err := m.api.RequestCertificate(ctx, in)
		return out, awsplatform.Classify("request certificate", err)
	}, nil)
	if err != nil {
		return "", err
	}

	arn := aws.ToString(out.CertificateArn)
	m.log.Info("requested certificate", "domain", domain, "arn", arn, "alternateNames", in.SubjectAlternativeNames)
	return arn, nil
}

// Describe returns the current state of a certificate.
func (m *Manager) Describe(ctx context.Context, arn string) (Certificate, error) {
	detail, err := m.describe(ctx, arn)
	if err != nil {
		return Certificate{}, err
	}
	return normalize(detail), nil
}

// ValidationRecords waits until ACM has published the DNS validation records
// for every name on the certificate and returns them, one per record name.
func (m *Manager) ValidationRecords(ctx context.Context, arn string, timeout time.Duration) ([]ValidationRecord, error) {
	var records []ValidationRecord

	w := poll.Waiter{Interval: m.validationPoll, Timeout: timeout, Resource: "certificate validation records", OnPoll: m.onPoll}
	err := w.Until(ctx, func(ctx context.Context) (bool, error) {
		detail, err := m.describe(ctx, arn)
		if err != nil {
			return false, err
		}
		if c := normalize(detail); c.Terminal() {
			return false, terminalErr(c)
		}

		var ready bool
		records, ready = validationRecords(detail)
		if !ready {
			m.log.V(1).Info("validation records not yet published", "arn", arn)
		}
		return ready, nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// WaitForIssuance blocks until the certificate is ISSUED. A certificate that
// reaches a failure status ends the wait immediately.
func (m *Manager) WaitForIssuance(ctx context.Context, arn string, timeout time.Duration) error {
	start := time.Now()
	w := poll.Waiter{Interval: m.issuancePoll, Timeout: timeout, Resource: "certificate issuance", OnPoll: m.onPoll}
	err := w.Until(ctx, func(ctx context.Context) (bool, error) {
		detail, err := m.describe(ctx, arn)
		if err != nil {
			return false, err
		}
		c := normalize(detail)
		switch {
		case c.Status == StatusIssued:
			return true, nil
		case c.Terminal():
			return false, terminalErr(c)
		default:
			m.log.Info("waiting for certificate", "arn", arn, "status", c.Status,
				"elapsed", time.Since(start).Round(time.Second).String())
			return false, nil
		}
	})
	if err != nil {
		return err
	}
	m.log.Info("certificate issued", "arn", arn)
	return nil
}

func (m *Manager) describe(ctx context.Context, arn string) (*types.CertificateDetail, error) {
	out, err := retry.Do(ctx, m.read, func(ctx context.Context) (*acm.DescribeCertificateOutput, error) {
		out, err := m.api.DescribeCertificate(ctx, &acm.DescribeCertificateInput{CertificateArn: aws.String(arn)})
		return out, awsplatform.Classify("describe certificate", err)
	}, nil)
	if err != nil {
		return nil, err
	}
	if out.Certificate == nil {
		return nil, errdefs.Newf(errdefs.KindNotFound, "describe certificate", "certificate %s not found", arn)
	}
	return out.Certificate, nil
}

// validationRecords collects the published records, deduplicated by name.
// Several names can share one record. ready is false while any
// validation option still lacks its record.
func validationRecords(detail *types.CertificateDetail) (records []ValidationRecord, ready bool) {
	if len(detail.DomainValidationOptions) == 0 {
		return nil, false
	}
	for _, opt := range detail.DomainValidationOptions {
		rr := opt.ResourceRecord
		if rr == nil || aws.ToString(rr.Name) == "" {
			return nil, false
		}
		name := aws.ToString(rr.Name)
		if slices.ContainsFunc(records, func(r ValidationRecord) bool { return r.Name == name }) {
			continue
		}
		records = append(records, ValidationRecord{Name: name, Type: string(rr.Type), Value: aws.ToString(rr.Value)})
	}
	return records, true
}

func normalize(d *types.CertificateDetail) Certificate {
	c := Certificate{
		ARN:            aws.ToString(d.CertificateArn),
		Domain:         aws.ToString(d.DomainName),
		AlternateNames: d.SubjectAlternativeNames,
		FailureReason:  string(d.FailureReason),
	}
	switch d.Status {
	case types.CertificateStatusIssued:
		c.Status = StatusIssued
	case types.CertificateStatusPendingValidation:
		c.Status = StatusPendingValidation
	case types.CertificateStatusRevoked:
		c.Status = StatusRevoked
	case types.CertificateStatusExpired:
		c.Status = StatusExpired
	default:
		// FAILED, INACTIVE and VALIDATION_TIMED_OUT
		c.Status = StatusFailed
		if c.FailureReason == "" && d.Status != types.CertificateStatusFailed {
			c.FailureReason = string(d.Status)
		}
	}
	return c
}

func terminalErr(c Certificate) error {
	msg := fmt.Sprintf("certificate %s is %s", c.ARN, c.Status)
	if c.FailureReason != "" {
		msg += ": " + c.FailureReason
	}
	return errdefs.New(errdefs.KindTerminalState, "wait for certificate", msg)
}
