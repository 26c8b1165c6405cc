package testing

import (
	"time"

	"github.com/imamik/siteforge/internal/pipeline"
	"github.com/imamik/siteforge/internal/registrar"
)

// ContactBuilder provides a fluent interface for constructing test contacts.
// Each method returns a new builder (immutable) for chaining.
type ContactBuilder struct {
	c registrar.Contact
}

// NewContactBuilder creates a ContactBuilder with a valid US contact.
func NewContactBuilder() *ContactBuilder {
	return &ContactBuilder{
		c: registrar.Contact{
			NameFirst: "Jane",
			NameLast:  "Doe",
			Email:     "jane@example.com",
			Phone:     "+1.5551234567",
			AddressMailing: registrar.Address{
				Address1:   "1 Main St",
				City:       "Springfield",
				State:      "IL",
				PostalCode: "62701",
				Country:    "US",
			},
		},
	}
}

// WithName sets the first and last name.
func (b *ContactBuilder) WithName(first, last string) *ContactBuilder {
	nb := *b
	nb.c.NameFirst, nb.c.NameLast = first, last
	return &nb
}

// WithEmail sets the email address.
func (b *ContactBuilder) WithEmail(email string) *ContactBuilder {
	nb := *b
	nb.c.Email = email
	return &nb
}

// WithPhone sets the phone number.
func (b *ContactBuilder) WithPhone(phone string) *ContactBuilder {
	nb := *b
	nb.c.Phone = phone
	return &nb
}

// WithOrganization sets the organization.
func (b *ContactBuilder) WithOrganization(org string) *ContactBuilder {
	nb := *b
	nb.c.Organization = org
	return &nb
}

// WithCountry sets the mailing address country.
func (b *ContactBuilder) WithCountry(country string) *ContactBuilder {
	nb := *b
	nb.c.AddressMailing.Country = country
	return &nb
}

// Build returns the contact.
func (b *ContactBuilder) Build() registrar.Contact {
	return b.c
}

// RequestBuilder provides a fluent interface for constructing pipeline requests.
type RequestBuilder struct {
	r pipeline.Request
}

// NewRequestBuilder creates a RequestBuilder for my-app.com served from
// my-website-bucket, built in the current directory.
func NewRequestBuilder() *RequestBuilder {
	return &RequestBuilder{
		r: pipeline.Request{
			AppDir: ".",
			Bucket: "my-website-bucket",
			Domain: "my-app.com",
		},
	}
}

// WithAppDir sets the application directory.
func (b *RequestBuilder) WithAppDir(dir string) *RequestBuilder {
	nb := *b
	nb.r.AppDir = dir
	return &nb
}

// WithDomain sets the apex domain.
func (b *RequestBuilder) WithDomain(domain string) *RequestBuilder {
	nb := *b
	nb.r.Domain = domain
	return &nb
}

// WithBucket sets the bucket.
func (b *RequestBuilder) WithBucket(bucket string) *RequestBuilder {
	nb := *b
	nb.r.Bucket = bucket
	return &nb
}

// WithInstall enables the install step.
func (b *RequestBuilder) WithInstall(command string) *RequestBuilder {
	nb := *b
	nb.r.Install = true
	nb.r.InstallCommand = command
	return &nb
}

// WithBuildCommand overrides the build command.
func (b *RequestBuilder) WithBuildCommand(command string) *RequestBuilder {
	nb := *b
	nb.r.BuildCommand = command
	return &nb
}

// WithRegistration enables domain registration with contact for years.
func (b *RequestBuilder) WithRegistration(contact registrar.Contact, years int) *RequestBuilder {
	nb := *b
	nb.r.Register = true
	nb.r.Contact = &contact
	nb.r.Years = years
	return &nb
}

// WithTimeouts sets the certificate and distribution wait budgets.
func (b *RequestBuilder) WithTimeouts(certificate, distribution time.Duration) *RequestBuilder {
	nb := *b
	nb.r.CertificateTimeout = certificate
	nb.r.DistributionTimeout = distribution
	return &nb
}

// Build returns the request.
func (b *RequestBuilder) Build() pipeline.Request {
	return b.r
}
