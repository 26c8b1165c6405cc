package registrar

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/imamik/siteforge/internal/errdefs"
	"github.com/imamik/siteforge/internal/util/validate"
)

const (
	goDaddyOTEURL        = "https://api.ote-godaddy.com"
	goDaddyProductionURL = "https://api.godaddy.com"

	// GoDaddy reports prices in millionths of the currency unit.
	goDaddyMicros = 1_000_000

	goDaddyDefaultAgreement = "DNRA"
)

// GoDaddyConfig holds GoDaddy credentials.
type GoDaddyConfig struct {
	APIKey     string
	APISecret  string
	Production bool
	// BaseURL overrides the environment endpoint.
	BaseURL string
}

// GoDaddy talks to the GoDaddy Domains API.
type GoDaddy struct {
	rest       restClient
	production bool
	now        func() time.Time
}

type goDaddyAvailability struct {
	Available  bool   `json:"available"`
	Domain     string `json:"domain"`
	Definitive bool   `json:"definitive"`
	Price      int64  `json:"price"`
	Currency   string `json:"currency"`
	Period     int    `json:"period"`
}

type goDaddySuggestion struct {
	Domain string `json:"domain"`
}

type goDaddyDomain struct {
	Domain      string   `json:"domain"`
	Status      string   `json:"status"`
	CreatedAt   string   `json:"createdAt"`
	Expires     string   `json:"expires"`
	RenewAuto   bool     `json:"renewAuto"`
	Locked      bool     `json:"locked"`
	Privacy     bool     `json:"privacy"`
	NameServers []string `json:"nameServers"`
}

type goDaddyAgreement struct {
	AgreementKey string `json:"agreementKey"`
}

type goDaddyConsent struct {
	AgreementKeys []string `json:"agreementKeys"`
	AgreedAt      string   `json:"agreedAt"`
	AgreedBy      string   `json:"agreedBy"`
}

type goDaddyPurchase struct {
	Domain            string         `json:"domain"`
	Period            int            `json:"period"`
	Privacy           bool           `json:"privacy"`
	RenewAuto         bool           `json:"renewAuto"`
	Consent           goDaddyConsent `json:"consent"`
	ContactAdmin      Contact        `json:"contactAdmin"`
	ContactBilling    Contact        `json:"contactBilling"`
	ContactRegistrant Contact        `json:"contactRegistrant"`
	ContactTech       Contact        `json:"contactTech"`
}

type goDaddyOrder struct {
	OrderID   int64  `json:"orderId"`
	ItemCount int    `json:"itemCount"`
	Total     int64  `json:"total"`
	Currency  string `json:"currency"`
}

// NewGoDaddy creates a GoDaddy provider. Without Production it targets the OTE
// test environment.
func NewGoDaddy(cfg GoDaddyConfig, opts ...Option) *GoDaddy {
	o := applyOptions(opts)

	base := cfg.BaseURL
	if base == "" {
		base = goDaddyOTEURL
		if cfg.Production {
			base = goDaddyProductionURL
		}
	}

	auth := "sso-key " + cfg.APIKey + ":" + cfg.APISecret
	return &GoDaddy{
		rest: restClient{
			provider:   "godaddy",
			baseURL:    strings.TrimRight(base, "/"),
			authorize:  func(r *http.Request) { r.Header.Set("Authorization", auth) },
			httpClient: o.httpClient,
			log:        o.log.WithName("godaddy"),
			read:       o.read,
			mutation:   o.mutation,
		},
		production: cfg.Production,
		now:        time.Now,
	}
}

func (g *GoDaddy) Name() string { return "godaddy" }

func (g *GoDaddy) Environment() EnvironmentInfo {
	env := "OTE"
	if g.production {
		env = "PRODUCTION"
	}
	return EnvironmentInfo{Provider: g.Name(), Environment: env, BaseURL: g.rest.baseURL, Production: g.production}
}

func (g *GoDaddy) CheckAvailability(ctx context.Context, domain string) (Availability, error) {
	domain, err := validate.Domain(domain)
	if err != nil {
		return Availability{}, err
	}

	var resp goDaddyAvailability
	err = g.rest.get(ctx, "/v1/domains/available", url.Values{"domain": {domain}}, &resp)
	if err != nil {
		if errdefs.IsUnavailable(err) || errdefs.IsNotFound(err) {
			return unavailable(domain, err.Error()), nil
		}
		return Availability{}, err
	}

	a := Availability{
		Domain:     domain,
		Status:     StatusUnavailable,
		Price:      float64(resp.Price) / goDaddyMicros,
		Currency:   resp.Currency,
		Period:     resp.Period,
		Definitive: resp.Definitive,
	}
	if resp.Available {
		a.Status = StatusAvailable
	}
	g.rest.log.Info("checked availability", "domain", domain, "available", resp.Available)
	return a, nil
}

func (g *GoDaddy) Suggest(ctx context.Context, query string, limit int) ([]Suggestion, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errdefs.New(errdefs.KindValidation, "suggest", "query cannot be empty")
	}
	if limit <= 0 {
		limit = 10
	}

	var resp []goDaddySuggestion
	q := url.Values{"query": {query}, "limit": {strconv.Itoa(limit)}}
	if err := g.rest.get(ctx, "/v1/domains/suggest", q, &resp); err != nil {
		return nil, err
	}

	suggestions := make([]Suggestion, 0, len(resp))
	for _, s := range resp {
		if s.Domain == "" {
			continue
		}
		suggestions = append(suggestions, Suggestion{Domain: s.Domain})
	}
	return suggestions, nil
}

func (g *GoDaddy) ListDomains(ctx context.Context) ([]Domain, error) {
	var resp []goDaddyDomain
	if err := g.rest.get(ctx, "/v1/domains", nil, &resp); err != nil {
		return nil, err
	}

	domains := make([]Domain, 0, len(resp))
	for _, d := range resp {
		domains = append(domains, d.normalize())
	}
	return domains, nil
}

func (g *GoDaddy) GetDomain(ctx context.Context, domain string) (Domain, error) {
	domain, err := validate.Domain(domain)
	if err != nil {
		return Domain{}, err
	}

	var resp goDaddyDomain
	if err := g.rest.get(ctx, "/v1/domains/"+url.PathEscape(domain), nil, &resp); err != nil {
		return Domain{}, err
	}
	return resp.normalize(), nil
}

func (g *GoDaddy) ValidatePurchase(ctx context.Context, req PurchaseRequest) error {
	body, err := g.purchaseBody(ctx, req)
	if err != nil {
		return err
	}
	return g.rest.post(ctx, g.rest.read, "/v1/domains/purchase/validate", body, nil)
}

func (g *GoDaddy) Purchase(ctx context.Context, req PurchaseRequest) (PurchaseResult, error) {
	body, err := g.purchaseBody(ctx, req)
	if err != nil {
		return PurchaseResult{}, err
	}

	if g.production {
		g.rest.log.Info("submitting purchase in PRODUCTION environment", "domain", body.Domain)
	}

	var order goDaddyOrder
	if err := g.rest.post(ctx, g.rest.mutation, "/v1/domains/purchase", body, &order); err != nil {
		return PurchaseResult{}, err
	}

	return PurchaseResult{
		Domain:   body.Domain,
		OrderID:  strconv.FormatInt(order.OrderID, 10),
		Total:    float64(order.Total) / goDaddyMicros,
		Currency: order.Currency,
		Status:   "SUBMITTED",
		Years:    body.Period,
	}, nil
}

func (g *GoDaddy) purchaseBody(ctx context.Context, req PurchaseRequest) (goDaddyPurchase, error) {
	domain, err := validate.Domain(req.Domain)
	if err != nil {
		return goDaddyPurchase{}, err
	}
	if err := req.Contact.Validate(); err != nil {
		return goDaddyPurchase{}, err
	}

	keys, err := g.agreementKeys(ctx, domain, req.Privacy)
	if err != nil {
		return goDaddyPurchase{}, err
	}

	return goDaddyPurchase{
		Domain:    domain,
		Period:    years(req.Years),
		Privacy:   req.Privacy,
		RenewAuto: req.AutoRenew,
		Consent: goDaddyConsent{
			AgreementKeys: keys,
			AgreedAt:      g.now().UTC().Format(time.RFC3339),
			AgreedBy:      req.Contact.Email,
		},
		ContactAdmin:      req.Contact,
		ContactBilling:    req.Contact,
		ContactRegistrant: req.Contact,
		ContactTech:       req.Contact,
	}, nil
}

// agreementKeys returns the legal agreements a purchase must consent to. The
// registration agreement is used when the API lists none.
func (g *GoDaddy) agreementKeys(ctx context.Context, domain string, privacy bool) ([]string, error) {
	var resp []goDaddyAgreement
	q := url.Values{"tlds": {validate.TLD(domain)}, "privacy": {strconv.FormatBool(privacy)}}
	if err := g.rest.get(ctx, "/v1/domains/agreements", q, &resp); err != nil {
		if errdefs.IsNotFound(err) {
			return []string{goDaddyDefaultAgreement}, nil
		}
		return nil, err
	}

	keys := make([]string, 0, len(resp))
	for _, a := range resp {
		if a.AgreementKey != "" {
			keys = append(keys, a.AgreementKey)
		}
	}
	if len(keys) == 0 {
		keys = []string{goDaddyDefaultAgreement}
	}
	return keys, nil
}

func (d goDaddyDomain) normalize() Domain {
	return Domain{
		Name:        d.Domain,
		Status:      d.Status,
		CreatedAt:   parseTime(d.CreatedAt),
		ExpiresAt:   parseTime(d.Expires),
		AutoRenew:   d.RenewAuto,
		Locked:      d.Locked,
		Privacy:     d.Privacy,
		NameServers: d.NameServers,
	}
}
