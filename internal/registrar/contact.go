package registrar

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/imamik/siteforge/internal/errdefs"
	"github.com/imamik/siteforge/internal/util/validate"
)

// Contact is a registrant contact. The JSON layout matches the contact files
// accepted by the CLI.
type Contact struct {
	NameFirst      string  `json:"nameFirst"`
	NameMiddle     string  `json:"nameMiddle,omitempty"`
	NameLast       string  `json:"nameLast"`
	Organization   string  `json:"organization,omitempty"`
	JobTitle       string  `json:"jobTitle,omitempty"`
	Email          string  `json:"email"`
	Phone          string  `json:"phone"`
	Fax            string  `json:"fax,omitempty"`
	AddressMailing Address `json:"addressMailing"`
}

// Address is a postal address.
type Address struct {
	Address1   string `json:"address1"`
	Address2   string `json:"address2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// ContactRecord is a contact stored at a registrar.
type ContactRecord struct {
	ID int64
	Contact
}

// Validate checks that every field a registrar requires is present and well
// formed.
func (c Contact) Validate() error {
	if err := validate.Required("contact", map[string]string{
		"nameFirst":                 c.NameFirst,
		"nameLast":                  c.NameLast,
		"email":                     c.Email,
		"phone":                     c.Phone,
		"addressMailing.address1":   c.AddressMailing.Address1,
		"addressMailing.city":       c.AddressMailing.City,
		"addressMailing.state":      c.AddressMailing.State,
		"addressMailing.postalCode": c.AddressMailing.PostalCode,
		"addressMailing.country":    c.AddressMailing.Country,
	}); err != nil {
		return err
	}
	if _, err := validate.Email(c.Email); err != nil {
		return err
	}
	if _, err := validate.Phone(c.Phone); err != nil {
		return err
	}
	if len(strings.TrimSpace(c.AddressMailing.Country)) != 2 {
		return errdefs.Newf(errdefs.KindValidation, "contact",
			"country must be a two-letter ISO code, got %q", c.AddressMailing.Country)
	}
	return nil
}

// ParseContact decodes a contact from JSON and validates it.
func ParseContact(data []byte) (Contact, error) {
	var c Contact
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		return Contact{}, errdefs.Wrap(errdefs.KindValidation, "parse contact", err)
	}
	if err := c.Validate(); err != nil {
		return Contact{}, err
	}
	return c, nil
}

// LoadContact reads and validates a contact JSON file.
func LoadContact(path string) (Contact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Contact{}, fmt.Errorf("failed to read contact file: %w", err)
	}
	return ParseContact(data)
}
