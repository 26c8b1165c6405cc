// Package validate checks user-supplied domain names and contact fields before
// any remote call is made. Failures are errdefs validation errors.
package validate

import (
	"regexp"
	"slices"
	"strings"

	"github.com/imamik/siteforge/internal/errdefs"
)

const maxDomainLength = 253

var (
	domainRegex = regexp.MustCompile(`^(?:[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?\.)+[a-z]{2,}$`)
	emailRegex  = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phoneRegex  = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)
	phoneStrip  = regexp.MustCompile(`[\s\-().]+`)
	schemeRegex = regexp.MustCompile(`^https?://`)
)

// Domain cleans and validates a domain name. It lowercases the input and strips
// an http(s) scheme, trailing slashes and a trailing dot.
func Domain(domain string) (string, error) {
	d := strings.ToLower(strings.TrimSpace(domain))
	d = schemeRegex.ReplaceAllString(d, "")
	d = strings.TrimRight(d, "/")
	d = strings.TrimSuffix(d, ".")

	if d == "" {
		return "", errdefs.New(errdefs.KindValidation, "validate domain", "domain name cannot be empty")
	}
	if len(d) > maxDomainLength {
		return "", errdefs.Newf(errdefs.KindValidation, "validate domain", "domain name too long (max %d characters)", maxDomainLength)
	}
	if !domainRegex.MatchString(d) {
		return "", errdefs.Newf(errdefs.KindValidation, "validate domain",
			"invalid domain format: %s (labels may contain only letters, numbers and hyphens)", d)
	}
	return d, nil
}

// TLD returns the last label of a domain.
func TLD(domain string) string {
	parts := strings.Split(domain, ".")
	if len(parts) < 2 {
		return ""
	}
	return parts[len(parts)-1]
}

// SLD returns the second-level label of a domain.
func SLD(domain string) string {
	parts := strings.Split(domain, ".")
	if len(parts) < 2 {
		return domain
	}
	return parts[len(parts)-2]
}

// Email cleans and validates an email address.
func Email(email string) (string, error) {
	e := strings.ToLower(strings.TrimSpace(email))
	if e == "" {
		return "", errdefs.New(errdefs.KindValidation, "validate email", "email address cannot be empty")
	}
	if !emailRegex.MatchString(e) {
		return "", errdefs.Newf(errdefs.KindValidation, "validate email", "invalid email format: %s", e)
	}
	return e, nil
}

// Phone validates an international phone number and returns it without
// separators.
func Phone(phone string) (string, error) {
	p := phoneStrip.ReplaceAllString(strings.TrimSpace(phone), "")
	if p == "" {
		return "", errdefs.New(errdefs.KindValidation, "validate phone", "phone number cannot be empty")
	}
	if !phoneRegex.MatchString(p) {
		return "", errdefs.Newf(errdefs.KindValidation, "validate phone",
			"invalid phone format: %s (use international format, e.g. +12345678901)", p)
	}
	return p, nil
}

// Required returns a validation error naming every empty field.
func Required(op string, fields map[string]string) error {
	var missing []string
	for name, value := range fields {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	slices.Sort(missing)
	return errdefs.Newf(errdefs.KindValidation, op, "missing required fields: %s", strings.Join(missing, ", "))
}
