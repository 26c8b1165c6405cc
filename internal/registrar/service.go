package registrar

import (
	"context"

	"github.com/go-logr/logr"

	"github.com/imamik/siteforge/internal/errdefs"
	"github.com/imamik/siteforge/internal/util/async"
)

const defaultSearchConcurrency = 5

// ConfirmFunc is asked before money is spent. Returning false aborts the
// purchase without error.
type ConfirmFunc func(ctx context.Context, a Availability, req PurchaseRequest) (bool, error)

// Service layers multi-domain workflows over a single provider.
type Service struct {
	provider    Provider
	log         logr.Logger
	concurrency int
}

// NewService wraps a provider.
func NewService(p Provider, log logr.Logger) *Service {
	return &Service{provider: p, log: log.WithName("domains"), concurrency: defaultSearchConcurrency}
}

// Provider returns the wrapped provider.
func (s *Service) Provider() Provider { return s.provider }

// SearchResult pairs a domain with its availability or the error that
// prevented the check.
type SearchResult struct {
	Domain       string
	Availability Availability
	Err          error
}

// SearchMany checks several domains concurrently. Results keep the input order
// and a failure for one domain does not affect the others.
func (s *Service) SearchMany(ctx context.Context, domains []string) []SearchResult {
	results := async.Map(ctx, domains, s.concurrency, s.provider.CheckAvailability)

	out := make([]SearchResult, len(domains))
	for i, r := range results {
		out[i] = SearchResult{Domain: domains[i], Availability: r.Value, Err: r.Err}
	}
	return out
}

// PurchaseOutcome reports what Purchase did.
type PurchaseOutcome struct {
	Availability Availability
	Result       PurchaseResult
	// Declined is set when the confirmation callback refused the purchase.
	Declined bool
}

// Purchase registers a domain after validating the contact, re-checking
// availability and dry-running the order. confirm may be nil.
func (s *Service) Purchase(ctx context.Context, req PurchaseRequest, confirm ConfirmFunc) (PurchaseOutcome, error) {
	if err := req.Contact.Validate(); err != nil {
		return PurchaseOutcome{}, err
	}

	a, err := s.provider.CheckAvailability(ctx, req.Domain)
	if err != nil {
		return PurchaseOutcome{}, err
	}
	outcome := PurchaseOutcome{Availability: a}
	if !a.Available() {
		msg := "domain " + a.Domain + " is not available"
		if a.Reason != "" {
			msg += ": " + a.Reason
		}
		return outcome, errdefs.New(errdefs.KindUnavailable, "purchase", msg)
	}

	if err := s.provider.ValidatePurchase(ctx, req); err != nil {
		return outcome, err
	}

	if confirm != nil {
		ok, err := confirm(ctx, a, req)
		if err != nil {
			return outcome, err
		}
		if !ok {
			s.log.Info("purchase declined", "domain", a.Domain)
			outcome.Declined = true
			return outcome, nil
		}
	}

	env := s.provider.Environment()
	s.log.Info("purchasing domain", "domain", a.Domain, "provider", env.Provider, "environment", env.Environment)

	res, err := s.provider.Purchase(ctx, req)
	if err != nil {
		return outcome, err
	}
	outcome.Result = res
	s.log.Info("domain purchased", "domain", res.Domain, "order", res.OrderID)
	return outcome, nil
}
