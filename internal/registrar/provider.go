// Package registrar provides a uniform interface over domain registrar back-ends.
//
// Every provider returns normalized records and classifies failures with the
// errdefs taxonomy, so calling code never branches on which registrar is in use.
// A domain that cannot be registered is reported as an Availability with
// StatusUnavailable, not as an error.
package registrar

import (
	"context"
	"time"
)

// Provider is a domain registrar back-end.
type Provider interface {
	Name() string
	Environment() EnvironmentInfo
	CheckAvailability(ctx context.Context, domain string) (Availability, error)
	Suggest(ctx context.Context, query string, limit int) ([]Suggestion, error)
	ListDomains(ctx context.Context) ([]Domain, error)
	GetDomain(ctx context.Context, domain string) (Domain, error)
	Purchase(ctx context.Context, req PurchaseRequest) (PurchaseResult, error)
	ValidatePurchase(ctx context.Context, req PurchaseRequest) error
}

// ContactManager is implemented by providers that store registrant contacts
// separately from registrations.
type ContactManager interface {
	ListContacts(ctx context.Context) ([]ContactRecord, error)
	GetContact(ctx context.Context, id int64) (ContactRecord, error)
	CreateContact(ctx context.Context, contact Contact) (ContactRecord, error)
}

// EnvironmentInfo describes where a provider sends its requests.
type EnvironmentInfo struct {
	Provider    string
	Environment string
	BaseURL     string
	Production  bool
}

// AvailabilityStatus is the normalized outcome of an availability check.
type AvailabilityStatus string

// Availability statuses.
const (
	StatusAvailable   AvailabilityStatus = "AVAILABLE"
	StatusUnavailable AvailabilityStatus = "UNAVAILABLE"
)

// Availability is the normalized result of an availability check.
type Availability struct {
	Domain     string
	Status     AvailabilityStatus
	Price      float64
	Currency   string
	Period     int
	Definitive bool
	ExpiresAt  time.Time
	// Reason explains an unavailable status when the registrar gave one.
	Reason string
}

// Available reports whether the domain can be registered.
func (a Availability) Available() bool {
	return a.Status == StatusAvailable
}

// Suggestion is a suggested domain name. Status is empty when the registrar
// does not report availability with its suggestions.
type Suggestion struct {
	Domain string
	Status AvailabilityStatus
}

// Domain is a domain owned by the account.
type Domain struct {
	Name        string
	Status      string
	CreatedAt   time.Time
	ExpiresAt   time.Time
	AutoRenew   bool
	Locked      bool
	Privacy     bool
	NameServers []string
}

// PurchaseRequest describes a domain registration.
type PurchaseRequest struct {
	Domain    string
	Years     int
	Contact   Contact
	AutoRenew bool
	Privacy   bool
}

// PurchaseResult is the normalized outcome of a registration.
type PurchaseResult struct {
	Domain   string
	OrderID  string
	Total    float64
	Currency string
	Status   string
	Years    int
}

func unavailable(domain, reason string) Availability {
	return Availability{Domain: domain, Status: StatusUnavailable, Definitive: true, Reason: reason}
}

func years(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
