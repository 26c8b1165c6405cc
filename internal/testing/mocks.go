package testing

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/imamik/siteforge/internal/platform/acm"
	"github.com/imamik/siteforge/internal/platform/cloudfront"
	"github.com/imamik/siteforge/internal/platform/route53"
	"github.com/imamik/siteforge/internal/platform/s3"
	"github.com/imamik/siteforge/internal/registrar"
)

// MockProvider is a mock registrar.Provider shared by the registrar service,
// pipeline and CLI handler tests.
type MockProvider struct {
	mock.Mock
}

// Name returns the mocked provider name.
func (m *MockProvider) Name() string {
	args := m.Called()
	return args.String(0)
}

// Environment returns the mocked environment.
func (m *MockProvider) Environment() registrar.EnvironmentInfo {
	args := m.Called()
	return args.Get(0).(registrar.EnvironmentInfo)
}

// CheckAvailability returns the mocked availability.
func (m *MockProvider) CheckAvailability(ctx context.Context, domain string) (registrar.Availability, error) {
	args := m.Called(ctx, domain)
	return args.Get(0).(registrar.Availability), args.Error(1)
}

// Suggest returns the mocked suggestions.
func (m *MockProvider) Suggest(ctx context.Context, query string, limit int) ([]registrar.Suggestion, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]registrar.Suggestion), args.Error(1)
}

// ListDomains returns the mocked domain list.
func (m *MockProvider) ListDomains(ctx context.Context) ([]registrar.Domain, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]registrar.Domain), args.Error(1)
}

// GetDomain returns the mocked domain.
func (m *MockProvider) GetDomain(ctx context.Context, domain string) (registrar.Domain, error) {
	args := m.Called(ctx, domain)
	return args.Get(0).(registrar.Domain), args.Error(1)
}

// Purchase returns the mocked purchase result.
func (m *MockProvider) Purchase(ctx context.Context, req registrar.PurchaseRequest) (registrar.PurchaseResult, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(registrar.PurchaseResult), args.Error(1)
}

// ValidatePurchase returns the mocked validation error.
func (m *MockProvider) ValidatePurchase(ctx context.Context, req registrar.PurchaseRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

// NewMockProvider creates a MockProvider that reports the given name and a
// test environment.
func NewMockProvider(name string) *MockProvider {
	m := &MockProvider{}
	m.On("Name").Return(name).Maybe()
	m.On("Environment").Return(registrar.EnvironmentInfo{
		Provider:    name,
		Environment: "TEST",
		BaseURL:     "https://registrar.invalid",
	}).Maybe()
	return m
}

// WithAvailable configures the mock to report domain as available at price.
func (m *MockProvider) WithAvailable(domain string, price float64) *MockProvider {
	m.On("CheckAvailability", mock.Anything, domain).Return(registrar.Availability{
		Domain:     domain,
		Status:     registrar.StatusAvailable,
		Price:      price,
		Currency:   "USD",
		Period:     1,
		Definitive: true,
	}, nil)
	return m
}

// WithUnavailable configures the mock to report domain as taken.
func (m *MockProvider) WithUnavailable(domain string) *MockProvider {
	m.On("CheckAvailability", mock.Anything, domain).Return(registrar.Availability{
		Domain:     domain,
		Status:     registrar.StatusUnavailable,
		Definitive: true,
	}, nil)
	return m
}

// WithPurchase configures a successful validation and purchase of domain.
func (m *MockProvider) WithPurchase(domain, orderID string) *MockProvider {
	m.On("ValidatePurchase", mock.Anything, mock.MatchedBy(func(r registrar.PurchaseRequest) bool {
		return r.Domain == domain
	})).Return(nil)
	m.On("Purchase", mock.Anything, mock.MatchedBy(func(r registrar.PurchaseRequest) bool {
		return r.Domain == domain
	})).Return(registrar.PurchaseResult{
		Domain:   domain,
		OrderID:  orderID,
		Currency: "USD",
		Status:   "SUBMITTED",
		Years:    1,
	}, nil)
	return m
}

// MockBuilder is a mock pipeline.Builder.
type MockBuilder struct {
	mock.Mock
}

// Install returns the mocked error.
func (m *MockBuilder) Install(ctx context.Context, dir, command string) error {
	return m.Called(ctx, dir, command).Error(0)
}

// Build returns the mocked output directory.
func (m *MockBuilder) Build(ctx context.Context, dir, command string) (string, error) {
	args := m.Called(ctx, dir, command)
	return args.String(0), args.Error(1)
}

// OutputDir returns the mocked output directory.
func (m *MockBuilder) OutputDir(dir string) (string, error) {
	args := m.Called(dir)
	return args.String(0), args.Error(1)
}

// MockUploader is a mock pipeline.Uploader.
type MockUploader struct {
	mock.Mock
}

// EnsureWebsiteBucket returns the mocked region.
func (m *MockUploader) EnsureWebsiteBucket(ctx context.Context, bucket string) (string, error) {
	args := m.Called(ctx, bucket)
	return args.String(0), args.Error(1)
}

// UploadDirectory returns the mocked upload result.
func (m *MockUploader) UploadDirectory(ctx context.Context, bucket, dir string, opts s3.UploadOptions) (s3.UploadResult, error) {
	args := m.Called(ctx, bucket, dir, opts)
	return args.Get(0).(s3.UploadResult), args.Error(1)
}

// MockCertificates is a mock pipeline.Certificates.
type MockCertificates struct {
	mock.Mock
}

// Request returns the mocked certificate ARN.
func (m *MockCertificates) Request(ctx context.Context, domain string, includeAlternateNames bool) (string, error) {
	args := m.Called(ctx, domain, includeAlternateNames)
	return args.String(0), args.Error(1)
}

// ValidationRecords returns the mocked records.
func (m *MockCertificates) ValidationRecords(ctx context.Context, arn string, timeout time.Duration) ([]acm.ValidationRecord, error) {
	args := m.Called(ctx, arn, timeout)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]acm.ValidationRecord), args.Error(1)
}

// WaitForIssuance returns the mocked error.
func (m *MockCertificates) WaitForIssuance(ctx context.Context, arn string, timeout time.Duration) error {
	return m.Called(ctx, arn, timeout).Error(0)
}

// MockDNS is a mock pipeline.DNS.
type MockDNS struct {
	mock.Mock
}

// GetOrCreateHostedZone returns the mocked zone.
func (m *MockDNS) GetOrCreateHostedZone(ctx context.Context, domain string) (route53.HostedZone, error) {
	args := m.Called(ctx, domain)
	return args.Get(0).(route53.HostedZone), args.Error(1)
}

// WriteValidationRecords returns the mocked change ID.
func (m *MockDNS) WriteValidationRecords(ctx context.Context, domain string, records []acm.ValidationRecord) (string, error) {
	args := m.Called(ctx, domain, records)
	return args.String(0), args.Error(1)
}

// WriteCutoverRecords returns the mocked change ID.
func (m *MockDNS) WriteCutoverRecords(ctx context.Context, domain, distributionDomain string) (string, error) {
	args := m.Called(ctx, domain, distributionDomain)
	return args.String(0), args.Error(1)
}

// MockDistributions is a mock pipeline.Distributions.
type MockDistributions struct {
	mock.Mock
}

// Ensure returns the mocked distribution.
func (m *MockDistributions) Ensure(ctx context.Context, origin cloudfront.Origin, domain, certificateARN string) (cloudfront.Distribution, error) {
	args := m.Called(ctx, origin, domain, certificateARN)
	return args.Get(0).(cloudfront.Distribution), args.Error(1)
}

// WaitForDeployment returns the mocked error.
func (m *MockDistributions) WaitForDeployment(ctx context.Context, id string, timeout time.Duration) error {
	return m.Called(ctx, id, timeout).Error(0)
}
