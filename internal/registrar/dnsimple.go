package registrar

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/imamik/siteforge/internal/errdefs"
	"github.com/imamik/siteforge/internal/util/validate"
)

const (
	dnsimpleSandboxURL    = "https://api.sandbox.dnsimple.com/v2"
	dnsimpleProductionURL = "https://api.dnsimple.com/v2"
	dnsimplePageSize      = 100
	dnsimpleCurrency      = "USD"
)

// DNSimpleConfig holds DNSimple credentials.
type DNSimpleConfig struct {
	Token string
	// AccountID is discovered from the token when empty.
	AccountID string
	Sandbox   bool
	// RegistrantID is an existing contact used for registrations. When zero a
	// contact is created from the purchase request.
	RegistrantID int64
	BaseURL      string
}

// DNSimple talks to the DNSimple v2 API.
type DNSimple struct {
	rest         restClient
	sandbox      bool
	registrantID int64

	mu        sync.Mutex
	accountID string
}

type dnsimpleEnvelope[T any] struct {
	Data       T                  `json:"data"`
	Pagination dnsimplePagination `json:"pagination"`
}

type dnsimplePagination struct {
	CurrentPage int `json:"current_page"`
	TotalPages  int `json:"total_pages"`
}

type dnsimpleWhoami struct {
	Account *struct {
		ID int64 `json:"id"`
	} `json:"account"`
}

type dnsimpleCheck struct {
	Domain       string  `json:"domain"`
	Available    bool    `json:"available"`
	Premium      bool    `json:"premium"`
	PremiumPrice *string `json:"premium_price"`
}

type dnsimplePrices struct {
	RegistrationPrice float64 `json:"registration_price"`
}

type dnsimpleDomain struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	State        string `json:"state"`
	AutoRenew    bool   `json:"auto_renew"`
	PrivateWhois bool   `json:"private_whois"`
	ExpiresAt    string `json:"expires_at"`
	CreatedAt    string `json:"created_at"`
}

type dnsimpleRegistrationRequest struct {
	RegistrantID int64 `json:"registrant_id"`
	AutoRenew    bool  `json:"auto_renew"`
	WhoisPrivacy bool  `json:"whois_privacy"`
}

type dnsimpleRegistration struct {
	ID     int64  `json:"id"`
	Period int    `json:"period"`
	State  string `json:"state"`
}

type dnsimpleContact struct {
	ID               int64  `json:"id,omitempty"`
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	OrganizationName string `json:"organization_name,omitempty"`
	JobTitle         string `json:"job_title,omitempty"`
	Address1         string `json:"address1"`
	Address2         string `json:"address2,omitempty"`
	City             string `json:"city"`
	StateProvince    string `json:"state_province"`
	PostalCode       string `json:"postal_code"`
	Country          string `json:"country"`
	Email            string `json:"email"`
	Phone            string `json:"phone"`
	Fax              string `json:"fax,omitempty"`
}

// NewDNSimple creates a DNSimple provider. With Sandbox it targets the DNSimple
// sandbox environment.
func NewDNSimple(cfg DNSimpleConfig, opts ...Option) *DNSimple {
	o := applyOptions(opts)

	base := cfg.BaseURL
	if base == "" {
		base = dnsimpleProductionURL
		if cfg.Sandbox {
			base = dnsimpleSandboxURL
		}
	}

	auth := "Bearer " + cfg.Token
	return &DNSimple{
		rest: restClient{
			provider:   "dnsimple",
			baseURL:    strings.TrimRight(base, "/"),
			authorize:  func(r *http.Request) { r.Header.Set("Authorization", auth) },
			httpClient: o.httpClient,
			log:        o.log.WithName("dnsimple"),
			read:       o.read,
			mutation:   o.mutation,
		},
		sandbox:      cfg.Sandbox,
		registrantID: cfg.RegistrantID,
		accountID:    cfg.AccountID,
	}
}

func (d *DNSimple) Name() string { return "dnsimple" }

func (d *DNSimple) Environment() EnvironmentInfo {
	env := "PRODUCTION"
	if d.sandbox {
		env = "SANDBOX"
	}
	return EnvironmentInfo{Provider: d.Name(), Environment: env, BaseURL: d.rest.baseURL, Production: !d.sandbox}
}

// account returns the account ID, resolving it through /whoami on first use.
func (d *DNSimple) account(ctx context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.accountID != "" {
		return d.accountID, nil
	}

	var resp dnsimpleEnvelope[dnsimpleWhoami]
	if err := d.rest.get(ctx, "/whoami", nil, &resp); err != nil {
		return "", err
	}
	if resp.Data.Account == nil {
		return "", errdefs.New(errdefs.KindAuth, "dnsimple whoami",
			"token is not bound to an account; set the account ID explicitly")
	}
	d.accountID = strconv.FormatInt(resp.Data.Account.ID, 10)
	return d.accountID, nil
}

func (d *DNSimple) path(ctx context.Context, format string, args ...string) (string, error) {
	acct, err := d.account(ctx)
	if err != nil {
		return "", err
	}
	p := "/" + acct + format
	for _, a := range args {
		p = strings.Replace(p, "{}", url.PathEscape(a), 1)
	}
	return p, nil
}

func (d *DNSimple) CheckAvailability(ctx context.Context, domain string) (Availability, error) {
	domain, err := validate.Domain(domain)
	if err != nil {
		return Availability{}, err
	}
	p, err := d.path(ctx, "/registrar/domains/{}/check", domain)
	if err != nil {
		return Availability{}, err
	}

	var resp dnsimpleEnvelope[dnsimpleCheck]
	if err := d.rest.get(ctx, p, nil, &resp); err != nil {
		if errdefs.IsUnavailable(err) || errdefs.IsNotFound(err) || errdefs.IsValidation(err) {
			return unavailable(domain, err.Error()), nil
		}
		return Availability{}, err
	}

	a := Availability{
		Domain:     domain,
		Status:     StatusUnavailable,
		Currency:   dnsimpleCurrency,
		Period:     1,
		Definitive: true,
	}
	if !resp.Data.Available {
		return a, nil
	}
	a.Status = StatusAvailable

	if resp.Data.PremiumPrice != nil {
		if price, err := strconv.ParseFloat(*resp.Data.PremiumPrice, 64); err == nil {
			a.Price = price
		}
		return a, nil
	}

	pricePath, err := d.path(ctx, "/registrar/domains/{}/prices", domain)
	if err != nil {
		return Availability{}, err
	}
	var prices dnsimpleEnvelope[dnsimplePrices]
	if err := d.rest.get(ctx, pricePath, nil, &prices); err != nil {
		d.rest.log.Info("could not fetch prices", "domain", domain, "error", err.Error())
		return a, nil
	}
	a.Price = prices.Data.RegistrationPrice
	return a, nil
}

// Suggest is not offered by the DNSimple API.
func (d *DNSimple) Suggest(context.Context, string, int) ([]Suggestion, error) {
	return nil, errdefs.New(errdefs.KindUnsupported, "dnsimple suggest",
		"DNSimple does not support domain suggestions")
}

func (d *DNSimple) ListDomains(ctx context.Context) ([]Domain, error) {
	p, err := d.path(ctx, "/domains")
	if err != nil {
		return nil, err
	}

	var all []Domain
	for page := 1; ; page++ {
		var resp dnsimpleEnvelope[[]dnsimpleDomain]
		q := url.Values{"page": {strconv.Itoa(page)}, "per_page": {strconv.Itoa(dnsimplePageSize)}}
		if err := d.rest.get(ctx, p, q, &resp); err != nil {
			return nil, err
		}
		for _, dom := range resp.Data {
			all = append(all, dom.normalize())
		}
		if page >= resp.Pagination.TotalPages {
			break
		}
	}
	return all, nil
}

func (d *DNSimple) GetDomain(ctx context.Context, domain string) (Domain, error) {
	domain, err := validate.Domain(domain)
	if err != nil {
		return Domain{}, err
	}
	p, err := d.path(ctx, "/domains/{}", domain)
	if err != nil {
		return Domain{}, err
	}

	var resp dnsimpleEnvelope[dnsimpleDomain]
	if err := d.rest.get(ctx, p, nil, &resp); err != nil {
		return Domain{}, err
	}
	return resp.Data.normalize(), nil
}

// ValidatePurchase checks the contact and the domain's availability. DNSimple
// has no dry-run registration endpoint.
func (d *DNSimple) ValidatePurchase(ctx context.Context, req PurchaseRequest) error {
	if err := d.checkPurchase(req); err != nil {
		return err
	}
	a, err := d.CheckAvailability(ctx, req.Domain)
	if err != nil {
		return err
	}
	if !a.Available() {
		return errdefs.Newf(errdefs.KindUnavailable, "dnsimple validate purchase", "domain %s is not available", a.Domain)
	}
	return nil
}

func (d *DNSimple) Purchase(ctx context.Context, req PurchaseRequest) (PurchaseResult, error) {
	if err := d.checkPurchase(req); err != nil {
		return PurchaseResult{}, err
	}
	domain, err := validate.Domain(req.Domain)
	if err != nil {
		return PurchaseResult{}, err
	}

	registrant := d.registrantID
	if registrant == 0 {
		created, err := d.CreateContact(ctx, req.Contact)
		if err != nil {
			return PurchaseResult{}, err
		}
		registrant = created.ID
		d.rest.log.Info("created registrant contact", "id", registrant)
	}

	p, err := d.path(ctx, "/registrar/domains/{}/registrations", domain)
	if err != nil {
		return PurchaseResult{}, err
	}

	body := dnsimpleRegistrationRequest{RegistrantID: registrant, AutoRenew: req.AutoRenew, WhoisPrivacy: req.Privacy}
	var resp dnsimpleEnvelope[dnsimpleRegistration]
	if err := d.rest.post(ctx, d.rest.mutation, p, body, &resp); err != nil {
		return PurchaseResult{}, err
	}

	return PurchaseResult{
		Domain:   domain,
		OrderID:  strconv.FormatInt(resp.Data.ID, 10),
		Currency: dnsimpleCurrency,
		Status:   resp.Data.State,
		Years:    years(resp.Data.Period),
	}, nil
}

func (d *DNSimple) checkPurchase(req PurchaseRequest) error {
	if req.Years > 1 {
		return errdefs.New(errdefs.KindUnsupported, "dnsimple purchase",
			"DNSimple registers for one year; renew the domain to extend it")
	}
	if d.registrantID == 0 {
		return req.Contact.Validate()
	}
	return nil
}

func (d *DNSimple) ListContacts(ctx context.Context) ([]ContactRecord, error) {
	p, err := d.path(ctx, "/contacts")
	if err != nil {
		return nil, err
	}

	var all []ContactRecord
	for page := 1; ; page++ {
		var resp dnsimpleEnvelope[[]dnsimpleContact]
		q := url.Values{"page": {strconv.Itoa(page)}, "per_page": {strconv.Itoa(dnsimplePageSize)}}
		if err := d.rest.get(ctx, p, q, &resp); err != nil {
			return nil, err
		}
		for _, c := range resp.Data {
			all = append(all, c.normalize())
		}
		if page >= resp.Pagination.TotalPages {
			break
		}
	}
	return all, nil
}

func (d *DNSimple) GetContact(ctx context.Context, id int64) (ContactRecord, error) {
	p, err := d.path(ctx, "/contacts/{}", strconv.FormatInt(id, 10))
	if err != nil {
		return ContactRecord{}, err
	}

	var resp dnsimpleEnvelope[dnsimpleContact]
	if err := d.rest.get(ctx, p, nil, &resp); err != nil {
		return ContactRecord{}, err
	}
	return resp.Data.normalize(), nil
}

func (d *DNSimple) CreateContact(ctx context.Context, contact Contact) (ContactRecord, error) {
	if err := contact.Validate(); err != nil {
		return ContactRecord{}, err
	}
	p, err := d.path(ctx, "/contacts")
	if err != nil {
		return ContactRecord{}, err
	}

	body := dnsimpleContact{
		FirstName:        contact.NameFirst,
		LastName:         contact.NameLast,
		OrganizationName: contact.Organization,
		JobTitle:         contact.JobTitle,
		Address1:         contact.AddressMailing.Address1,
		Address2:         contact.AddressMailing.Address2,
		City:             contact.AddressMailing.City,
		StateProvince:    contact.AddressMailing.State,
		PostalCode:       contact.AddressMailing.PostalCode,
		Country:          contact.AddressMailing.Country,
		Email:            contact.Email,
		Phone:            contact.Phone,
		Fax:              contact.Fax,
	}

	var resp dnsimpleEnvelope[dnsimpleContact]
	if err := d.rest.post(ctx, d.rest.mutation, p, body, &resp); err != nil {
		return ContactRecord{}, err
	}
	return resp.Data.normalize(), nil
}

func (d dnsimpleDomain) normalize() Domain {
	return Domain{
		Name:      d.Name,
		Status:    d.State,
		CreatedAt: parseTime(d.CreatedAt),
		ExpiresAt: parseTime(d.ExpiresAt),
		AutoRenew: d.AutoRenew,
		Privacy:   d.PrivateWhois,
	}
}

func (c dnsimpleContact) normalize() ContactRecord {
	return ContactRecord{
		ID: c.ID,
		Contact: Contact{
			NameFirst:    c.FirstName,
			NameLast:     c.LastName,
			Organization: c.OrganizationName,
			JobTitle:     c.JobTitle,
			Email:        c.Email,
			Phone:        c.Phone,
			Fax:          c.Fax,
			AddressMailing: Address{
				Address1:   c.Address1,
				Address2:   c.Address2,
				City:       c.City,
				State:      c.StateProvince,
				PostalCode: c.PostalCode,
				Country:    c.Country,
			},
		},
	}
}
