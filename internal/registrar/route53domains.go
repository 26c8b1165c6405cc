package registrar

import (
	"context"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/route53domains"
	"github.com/aws/aws-sdk-go-v2/service/route53domains/types"
	"github.com/go-logr/logr"

	"github.com/imamik/siteforge/internal/errdefs"
	awsplatform "github.com/imamik/siteforge/internal/platform/aws"
	"github.com/imamik/siteforge/internal/util/retry"
	"github.com/imamik/siteforge/internal/util/validate"
)

// Route53DomainsAPI is the subset of the Route 53 Domains client used here.
type Route53DomainsAPI interface {
	CheckDomainAvailability(ctx context.Context, in *route53domains.CheckDomainAvailabilityInput, optFns ...func(*route53domains.Options)) (*route53domains.CheckDomainAvailabilityOutput, error)
	GetDomainSuggestions(ctx context.Context, in *route53domains.GetDomainSuggestionsInput, optFns ...func(*route53domains.Options)) (*route53domains.GetDomainSuggestionsOutput, error)
	ListDomains(ctx context.Context, in *route53domains.ListDomainsInput, optFns ...func(*route53domains.Options)) (*route53domains.ListDomainsOutput, error)
	GetDomainDetail(ctx context.Context, in *route53domains.GetDomainDetailInput, optFns ...func(*route53domains.Options)) (*route53domains.GetDomainDetailOutput, error)
	RegisterDomain(ctx context.Context, in *route53domains.RegisterDomainInput, optFns ...func(*route53domains.Options)) (*route53domains.RegisterDomainOutput, error)
	ListPrices(ctx context.Context, in *route53domains.ListPricesInput, optFns ...func(*route53domains.Options)) (*route53domains.ListPricesOutput, error)
}

// Route53Domains registers domains through AWS Route 53 Domains. Charges go to
// the AWS account, so there is no test environment.
type Route53Domains struct {
	api      Route53DomainsAPI
	log      logr.Logger
	read     retry.Policy
	mutation retry.Policy
}

// NewRoute53Domains creates a Route 53 Domains provider around an SDK client.
// The client must be configured for us-east-1, the only region serving the API.
func NewRoute53Domains(api Route53DomainsAPI, opts ...Option) *Route53Domains {
	o := applyOptions(opts)
	return &Route53Domains{
		api:      api,
		log:      o.log.WithName("route53domains"),
		read:     o.read,
		mutation: o.mutation,
	}
}

func (r *Route53Domains) Name() string { return "route53" }

func (r *Route53Domains) Environment() EnvironmentInfo {
	return EnvironmentInfo{
		Provider:    r.Name(),
		Environment: "PRODUCTION",
		BaseURL:     "route53domains." + awsplatform.GlobalRegion + ".amazonaws.com",
		Production:  true,
	}
}

func (r *Route53Domains) CheckAvailability(ctx context.Context, domain string) (Availability, error) {
	domain, err := validate.Domain(domain)
	if err != nil {
		return Availability{}, err
	}

	out, err := retry.Do(ctx, r.read, func(ctx context.Context) (*route53domains.CheckDomainAvailabilityOutput, error) {
		out, err := r.api.CheckDomainAvailability(ctx, &route53domains.CheckDomainAvailabilityInput{
			DomainName: aws.String(domain),
		})
		return out, awsplatform.Classify("check domain availability", err)
	}, nil)
	if err != nil {
		if errdefs.IsValidation(err) || errdefs.IsUnsupported(err) {
			return unavailable(domain, err.Error()), nil
		}
		return Availability{}, err
	}

	a := Availability{Domain: domain, Period: 1, Currency: "USD", Definitive: true}
	switch out.Availability {
	case types.DomainAvailabilityAvailable:
		a.Status = StatusAvailable
		if price, currency, ok := r.registrationPrice(ctx, domain); ok {
			a.Price, a.Currency = price, currency
		}
	case types.DomainAvailabilityDontKnow, types.DomainAvailabilityPending:
		a.Status = StatusUnavailable
		a.Definitive = false
		a.Reason = string(out.Availability)
	default:
		a.Status = StatusUnavailable
		a.Reason = string(out.Availability)
	}
	r.log.Info("checked availability", "domain", domain, "availability", string(out.Availability))
	return a, nil
}

// registrationPrice returns the one-year registration price for the domain's
// TLD. Pricing is informational, so failures are only logged.
func (r *Route53Domains) registrationPrice(ctx context.Context, domain string) (price float64, currency string, ok bool) {
	tld := validate.TLD(domain)
	out, err := retry.Do(ctx, r.read, func(ctx context.Context) (*route53domains.ListPricesOutput, error) {
		out, err := r.api.ListPrices(ctx, &route53domains.ListPricesInput{Tld: aws.String(tld)})
		return out, awsplatform.Classify("list prices", err)
	}, nil)
	if err != nil {
		r.log.V(1).Info("could not fetch prices", "tld", tld, "error", err.Error())
		return 0, "", false
	}
	for _, p := range out.Prices {
		if aws.ToString(p.Name) != tld || p.RegistrationPrice == nil {
			continue
		}
		currency = aws.ToString(p.RegistrationPrice.Currency)
		if currency == "" {
			currency = "USD"
		}
		return p.RegistrationPrice.Price, currency, true
	}
	return 0, "", false
}

func (r *Route53Domains) Suggest(ctx context.Context, query string, limit int) ([]Suggestion, error) {
	query = strings.ToLower(strings.Join(strings.Fields(query), ""))
	if query == "" {
		return nil, errdefs.New(errdefs.KindValidation, "suggest", "query cannot be empty")
	}
	if !strings.Contains(query, ".") {
		query += ".com"
	}
	if limit <= 0 {
		limit = 10
	}

	out, err := retry.Do(ctx, r.read, func(ctx context.Context) (*route53domains.GetDomainSuggestionsOutput, error) {
		out, err := r.api.GetDomainSuggestions(ctx, &route53domains.GetDomainSuggestionsInput{
			DomainName:      aws.String(query),
			SuggestionCount: int32(limit),
			OnlyAvailable:   aws.Bool(true),
		})
		return out, awsplatform.Classify("get domain suggestions", err)
	}, nil)
	if err != nil {
		return nil, err
	}

	suggestions := make([]Suggestion, 0, len(out.SuggestionsList))
	for _, s := range out.SuggestionsList {
		name := aws.ToString(s.DomainName)
		if name == "" {
			continue
		}
		status := StatusUnavailable
		if aws.ToString(s.Availability) == string(types.DomainAvailabilityAvailable) {
			status = StatusAvailable
		}
		suggestions = append(suggestions, Suggestion{Domain: name, Status: status})
	}
	return suggestions, nil
}

func (r *Route53Domains) ListDomains(ctx context.Context) ([]Domain, error) {
	var (
		all    []Domain
		marker *string
	)
	for {
		out, err := retry.Do(ctx, r.read, func(ctx context.Context) (*route53domains.ListDomainsOutput, error) {
			out, err := r.api.ListDomains(ctx, &route53domains.ListDomainsInput{Marker: marker})
			return out, awsplatform.Classify("list domains", err)
		}, nil)
		if err != nil {
			return nil, err
		}
		// Summaries carry no status; GetDomain reports it.
		for _, d := range out.Domains {
			all = append(all, Domain{
				Name:      aws.ToString(d.DomainName),
				ExpiresAt: aws.ToTime(d.Expiry),
				AutoRenew: aws.ToBool(d.AutoRenew),
				Locked:    aws.ToBool(d.TransferLock),
			})
		}
		if aws.ToString(out.NextPageMarker) == "" {
			break
		}
		marker = out.NextPageMarker
	}
	return all, nil
}

func (r *Route53Domains) GetDomain(ctx context.Context, domain string) (Domain, error) {
	domain, err := validate.Domain(domain)
	if err != nil {
		return Domain{}, err
	}

	out, err := retry.Do(ctx, r.read, func(ctx context.Context) (*route53domains.GetDomainDetailOutput, error) {
		out, err := r.api.GetDomainDetail(ctx, &route53domains.GetDomainDetailInput{DomainName: aws.String(domain)})
		return out, awsplatform.Classify("get domain detail", err)
	}, nil)
	if err != nil {
		return Domain{}, err
	}

	d := Domain{
		Name:      aws.ToString(out.DomainName),
		Status:    strings.Join(out.StatusList, ","),
		CreatedAt: aws.ToTime(out.CreationDate),
		ExpiresAt: aws.ToTime(out.ExpirationDate),
		AutoRenew: aws.ToBool(out.AutoRenew),
		Privacy:   aws.ToBool(out.AdminPrivacy),
	}
	for _, ns := range out.Nameservers {
		d.NameServers = append(d.NameServers, aws.ToString(ns.Name))
	}
	return d, nil
}

func (r *Route53Domains) ValidatePurchase(ctx context.Context, req PurchaseRequest) error {
	if _, err := awsContact(req.Contact); err != nil {
		return err
	}
	a, err := r.CheckAvailability(ctx, req.Domain)
	if err != nil {
		return err
	}
	if !a.Available() {
		return errdefs.Newf(errdefs.KindUnavailable, "route53 validate purchase",
			"domain %s is not available (%s)", a.Domain, a.Reason)
	}
	return nil
}

func (r *Route53Domains) Purchase(ctx context.Context, req PurchaseRequest) (PurchaseResult, error) {
	domain, err := validate.Domain(req.Domain)
	if err != nil {
		return PurchaseResult{}, err
	}
	contact, err := awsContact(req.Contact)
	if err != nil {
		return PurchaseResult{}, err
	}
	period := years(req.Years)

	out, err := retry.Do(ctx, r.mutation, func(ctx context.Context) (*route53domains.RegisterDomainOutput, error) {
		out, err := r.api.RegisterDomain(ctx, &route53domains.RegisterDomainInput{
			DomainName:                      aws.String(domain),
			DurationInYears:                 aws.Int32(int32(period)),
			AdminContact:                    contact,
			RegistrantContact:               contact,
			TechContact:                     contact,
			AutoRenew:                       aws.Bool(req.AutoRenew),
			PrivacyProtectAdminContact:      aws.Bool(req.Privacy),
			PrivacyProtectRegistrantContact: aws.Bool(req.Privacy),
			PrivacyProtectTechContact:       aws.Bool(req.Privacy),
		})
		return out, awsplatform.Classify("register domain", err)
	}, nil)
	if err != nil {
		return PurchaseResult{}, err
	}

	res := PurchaseResult{
		Domain:  domain,
		OrderID: aws.ToString(out.OperationId),
		Status:  "SUBMITTED",
		Years:   period,
	}
	// The charge is not part of the response; report the list price.
	if price, currency, ok := r.registrationPrice(ctx, domain); ok {
		res.Total, res.Currency = price*float64(period), currency
	}
	return res, nil
}

// awsContact converts a contact to the Route 53 Domains shape. Phone numbers
// must be in +CC.NUMBER form.
func awsContact(c Contact) (*types.ContactDetail, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	phone := strings.Join(strings.Fields(c.Phone), "")
	cc, number, ok := strings.Cut(strings.TrimPrefix(phone, "+"), ".")
	if !ok || !isDigits(cc) || !isDigits(number) {
		return nil, errdefs.Newf(errdefs.KindValidation, "contact",
			"route53 requires phone numbers as +CC.NUMBER, got %q", c.Phone)
	}

	contactType := types.ContactTypePerson
	if c.Organization != "" {
		contactType = types.ContactTypeCompany
	}

	d := &types.ContactDetail{
		FirstName:    aws.String(c.NameFirst),
		LastName:     aws.String(c.NameLast),
		ContactType:  contactType,
		AddressLine1: aws.String(c.AddressMailing.Address1),
		City:         aws.String(c.AddressMailing.City),
		State:        aws.String(c.AddressMailing.State),
		CountryCode:  types.CountryCode(strings.ToUpper(c.AddressMailing.Country)),
		ZipCode:      aws.String(c.AddressMailing.PostalCode),
		PhoneNumber:  aws.String("+" + cc + "." + number),
		Email:        aws.String(c.Email),
	}
	if c.Organization != "" {
		d.OrganizationName = aws.String(c.Organization)
	}
	if c.AddressMailing.Address2 != "" {
		d.AddressLine2 = aws.String(c.AddressMailing.Address2)
	}
	return d, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	_, err := strconv.ParseUint(s, 10, 64)
	return err == nil
}
