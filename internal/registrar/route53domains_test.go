package registrar

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/route53domains"
	"github.com/aws/aws-sdk-go-v2/service/route53domains/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/imamik/siteforge/internal/errdefs"
)

type mockDomainsAPI struct {
	mock.Mock
}

func (m *mockDomainsAPI) CheckDomainAvailability(ctx context.Context, in *route53domains.CheckDomainAvailabilityInput, _ ...func(*route53domains.Options)) (*route53domains.CheckDomainAvailabilityOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*route53domains.CheckDomainAvailabilityOutput)
	return out, args.Error(1)
}

func (m *mockDomainsAPI) GetDomainSuggestions(ctx context.Context, in *route53domains.GetDomainSuggestionsInput, _ ...func(*route53domains.Options)) (*route53domains.GetDomainSuggestionsOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*route53domains.GetDomainSuggestionsOutput)
	return out, args.Error(1)
}

func (m *mockDomainsAPI) ListDomains(ctx context.Context, in *route53domains.ListDomainsInput, _ ...func(*route53domains.Options)) (*route53domains.ListDomainsOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*route53domains.ListDomainsOutput)
	return out, args.Error(1)
}

func (m *mockDomainsAPI) GetDomainDetail(ctx context.Context, in *route53domains.GetDomainDetailInput, _ ...func(*route53domains.Options)) (*route53domains.GetDomainDetailOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*route53domains.GetDomainDetailOutput)
	return out, args.Error(1)
}

func (m *mockDomainsAPI) RegisterDomain(ctx context.Context, in *route53domains.RegisterDomainInput, _ ...func(*route53domains.Options)) (*route53domains.RegisterDomainOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*route53domains.RegisterDomainOutput)
	return out, args.Error(1)
}

func (m *mockDomainsAPI) ListPrices(ctx context.Context, in *route53domains.ListPricesInput, _ ...func(*route53domains.Options)) (*route53domains.ListPricesOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*route53domains.ListPricesOutput)
	return out, args.Error(1)
}

func comPrices() *route53domains.ListPricesOutput {
	return &route53domains.ListPricesOutput{Prices: []types.DomainPrice{{
		Name:              aws.String("com"),
		RegistrationPrice: &types.PriceWithCurrency{Price: 15, Currency: aws.String("USD")},
	}}}
}

func forDomain(name string) any {
	return mock.MatchedBy(func(in *route53domains.CheckDomainAvailabilityInput) bool {
		return aws.ToString(in.DomainName) == name
	})
}

func TestRoute53Domains_CheckAvailability(t *testing.T) {
	t.Parallel()

	tests := []struct {
		availability types.DomainAvailability
		status       AvailabilityStatus
		definitive   bool
	}{
		{types.DomainAvailabilityAvailable, StatusAvailable, true},
		{types.DomainAvailabilityUnavailable, StatusUnavailable, true},
		{types.DomainAvailabilityReserved, StatusUnavailable, true},
		{types.DomainAvailabilityDontKnow, StatusUnavailable, false},
		{types.DomainAvailabilityPending, StatusUnavailable, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.availability), func(t *testing.T) {
			t.Parallel()
			api := new(mockDomainsAPI)
			api.On("CheckDomainAvailability", mock.Anything, forDomain("my-app.com")).
				Return(&route53domains.CheckDomainAvailabilityOutput{Availability: tt.availability}, nil)
			api.On("ListPrices", mock.Anything, mock.Anything).Return(comPrices(), nil).Maybe()

			a, err := NewRoute53Domains(api, testPolicies()).CheckAvailability(context.Background(), "https://My-App.com/")
			require.NoError(t, err)
			assert.Equal(t, "my-app.com", a.Domain)
			assert.Equal(t, tt.status, a.Status)
			assert.Equal(t, tt.definitive, a.Definitive)
			if a.Available() {
				assert.InDelta(t, 15.0, a.Price, 0.0001)
			}
			api.AssertExpectations(t)
		})
	}
}

func TestRoute53Domains_UnsupportedTLDIsUnavailable(t *testing.T) {
	t.Parallel()

	api := new(mockDomainsAPI)
	api.On("CheckDomainAvailability", mock.Anything, mock.Anything).
		Return(nil, &smithy.GenericAPIError{Code: "UnsupportedTLD", Message: "tld not supported"})

	a, err := NewRoute53Domains(api, testPolicies()).CheckAvailability(context.Background(), "example.zzz")
	require.NoError(t, err)
	assert.Equal(t, StatusUnavailable, a.Status)
}

func TestRoute53Domains_ThrottlingIsRetried(t *testing.T) {
	t.Parallel()

	api := new(mockDomainsAPI)
	throttled := &smithy.GenericAPIError{Code: "ThrottlingException", Message: "slow down"}
	api.On("CheckDomainAvailability", mock.Anything, mock.Anything).Return(nil, throttled).Twice()
	api.On("CheckDomainAvailability", mock.Anything, mock.Anything).
		Return(&route53domains.CheckDomainAvailabilityOutput{Availability: types.DomainAvailabilityAvailable}, nil).Once()
	api.On("ListPrices", mock.Anything, mock.Anything).Return(nil, &smithy.GenericAPIError{Code: "AccessDenied"})

	a, err := NewRoute53Domains(api, testPolicies()).CheckAvailability(context.Background(), "my-app.com")
	require.NoError(t, err)
	assert.True(t, a.Available())
	assert.Zero(t, a.Price, "price lookups are best effort")
	api.AssertNumberOfCalls(t, "CheckDomainAvailability", 3)
}

func TestRoute53Domains_Suggest(t *testing.T) {
	t.Parallel()

	api := new(mockDomainsAPI)
	api.On("GetDomainSuggestions", mock.Anything, mock.MatchedBy(func(in *route53domains.GetDomainSuggestionsInput) bool {
		return aws.ToString(in.DomainName) == "coffeeshop.com" && in.SuggestionCount == 2 && aws.ToBool(in.OnlyAvailable)
	})).Return(&route53domains.GetDomainSuggestionsOutput{
		SuggestionsList: []types.DomainSuggestion{
			{DomainName: aws.String("coffeeshop.net"), Availability: aws.String("AVAILABLE")},
			{DomainName: aws.String("mycoffeeshop.com"), Availability: aws.String("UNAVAILABLE")},
		},
	}, nil)

	got, err := NewRoute53Domains(api, testPolicies()).Suggest(context.Background(), "Coffee Shop", 2)
	require.NoError(t, err)
	assert.Equal(t, []Suggestion{
		{Domain: "coffeeshop.net", Status: StatusAvailable},
		{Domain: "mycoffeeshop.com", Status: StatusUnavailable},
	}, got)
}

func TestRoute53Domains_ListDomainsPaginates(t *testing.T) {
	t.Parallel()

	expiry := time.Date(2027, 5, 1, 0, 0, 0, 0, time.UTC)
	api := new(mockDomainsAPI)
	api.On("ListDomains", mock.Anything, mock.MatchedBy(func(in *route53domains.ListDomainsInput) bool {
		return in.Marker == nil
	})).Return(&route53domains.ListDomainsOutput{
		Domains:        []types.DomainSummary{{DomainName: aws.String("a.com"), AutoRenew: aws.Bool(true)}},
		NextPageMarker: aws.String("next"),
	}, nil)
	api.On("ListDomains", mock.Anything, mock.MatchedBy(func(in *route53domains.ListDomainsInput) bool {
		return aws.ToString(in.Marker) == "next"
	})).Return(&route53domains.ListDomainsOutput{
		Domains: []types.DomainSummary{{DomainName: aws.String("b.com"), Expiry: aws.Time(expiry), TransferLock: aws.Bool(true)}},
	}, nil)

	domains, err := NewRoute53Domains(api, testPolicies()).ListDomains(context.Background())
	require.NoError(t, err)
	require.Len(t, domains, 2)
	assert.Empty(t, domains[0].Status, "summaries carry no status")
	assert.True(t, domains[0].AutoRenew)
	assert.Equal(t, expiry, domains[1].ExpiresAt)
	assert.True(t, domains[1].Locked)
}

func TestRoute53Domains_GetDomain(t *testing.T) {
	t.Parallel()

	api := new(mockDomainsAPI)
	api.On("GetDomainDetail", mock.Anything, mock.Anything).Return(&route53domains.GetDomainDetailOutput{
		DomainName:   aws.String("my-app.com"),
		StatusList:   []string{"clientTransferProhibited"},
		AdminPrivacy: aws.Bool(true),
		Nameservers:  []types.Nameserver{{Name: aws.String("ns-1.awsdns-01.org")}},
	}, nil)

	d, err := NewRoute53Domains(api, testPolicies()).GetDomain(context.Background(), "my-app.com")
	require.NoError(t, err)
	assert.Equal(t, "clientTransferProhibited", d.Status)
	assert.True(t, d.Privacy)
	assert.Equal(t, []string{"ns-1.awsdns-01.org"}, d.NameServers)
}

func TestRoute53Domains_Purchase(t *testing.T) {
	t.Parallel()

	api := new(mockDomainsAPI)
	api.On("RegisterDomain", mock.Anything, mock.MatchedBy(func(in *route53domains.RegisterDomainInput) bool {
		return aws.ToString(in.DomainName) == "my-app.com" &&
			aws.ToInt32(in.DurationInYears) == 2 &&
			aws.ToString(in.RegistrantContact.PhoneNumber) == "+1.5551234567" &&
			in.RegistrantContact.ContactType == types.ContactTypePerson &&
			in.RegistrantContact.CountryCode == types.CountryCode("US")
	})).Return(&route53domains.RegisterDomainOutput{OperationId: aws.String("op-123")}, nil)
	api.On("ListPrices", mock.Anything, mock.MatchedBy(func(in *route53domains.ListPricesInput) bool {
		return aws.ToString(in.Tld) == "com"
	})).Return(comPrices(), nil)

	res, err := NewRoute53Domains(api, testPolicies()).Purchase(context.Background(),
		PurchaseRequest{Domain: "my-app.com", Years: 2, Contact: testContact()})
	require.NoError(t, err)
	assert.Equal(t, "op-123", res.OrderID)
	assert.Equal(t, 2, res.Years)
	assert.InDelta(t, 30.0, res.Total, 0.0001)
	assert.Equal(t, "USD", res.Currency)
	api.AssertExpectations(t)
}

func TestRoute53Domains_PurchaseWithoutPrice(t *testing.T) {
	t.Parallel()

	api := new(mockDomainsAPI)
	api.On("RegisterDomain", mock.Anything, mock.Anything).
		Return(&route53domains.RegisterDomainOutput{OperationId: aws.String("op-456")}, nil)
	api.On("ListPrices", mock.Anything, mock.Anything).
		Return(nil, &smithy.GenericAPIError{Code: "AccessDeniedException", Message: "denied"})

	res, err := NewRoute53Domains(api, testPolicies()).Purchase(context.Background(),
		PurchaseRequest{Domain: "my-app.com", Contact: testContact()})
	require.NoError(t, err, "the registration went through")
	assert.Equal(t, "op-456", res.OrderID)
	assert.Zero(t, res.Total)
	assert.Empty(t, res.Currency)
}

func TestRoute53Domains_PurchaseRequiresDottedPhone(t *testing.T) {
	t.Parallel()

	api := new(mockDomainsAPI)
	c := testContact()
	c.Phone = "+15551234567"

	_, err := NewRoute53Domains(api, testPolicies()).Purchase(context.Background(),
		PurchaseRequest{Domain: "my-app.com", Contact: c})
	assert.True(t, errdefs.IsValidation(err))
	assert.Contains(t, err.Error(), "+CC.NUMBER")
	api.AssertNotCalled(t, "RegisterDomain", mock.Anything, mock.Anything)
}

func TestRoute53Domains_PurchaseInsufficientFunds(t *testing.T) {
	t.Parallel()

	api := new(mockDomainsAPI)
	api.On("RegisterDomain", mock.Anything, mock.Anything).
		Return(nil, &smithy.GenericAPIError{Code: "DomainLimitExceeded", Message: "limit"})

	_, err := NewRoute53Domains(api, testPolicies()).Purchase(context.Background(),
		PurchaseRequest{Domain: "my-app.com", Contact: testContact()})
	require.Error(t, err)
	api.AssertNumberOfCalls(t, "RegisterDomain", 1)
}

func TestRoute53Domains_ValidatePurchase(t *testing.T) {
	t.Parallel()

	api := new(mockDomainsAPI)
	api.On("CheckDomainAvailability", mock.Anything, forDomain("taken.com")).
		Return(&route53domains.CheckDomainAvailabilityOutput{Availability: types.DomainAvailabilityUnavailable}, nil)

	err := NewRoute53Domains(api, testPolicies()).ValidatePurchase(context.Background(),
		PurchaseRequest{Domain: "taken.com", Contact: testContact()})
	assert.True(t, errdefs.IsUnavailable(err))
}
