package handlers

import (
	"context"
	"fmt"

	"github.com/imamik/siteforge/internal/registrar"
)

// ContactGet prints a registrant contact stored at the registrar. Providers
// without a contact store return an Unsupported error.
func ContactGet(ctx context.Context, g Globals, id int64) error {
	s, err := openSession(g, true)
	if err != nil {
		return err
	}
	defer s.Close()

	cm, err := contactManager(ctx, s)
	if err != nil {
		return err
	}

	rec, err := cm.GetContact(ctx, id)
	if err != nil {
		return err
	}
	printContact(rec)
	return nil
}

// ContactCreate validates a contact file and stores it at the registrar.
func ContactCreate(ctx context.Context, g Globals, path string) error {
	contact, err := loadContact(path)
	if err != nil {
		return fmt.Errorf("failed to load contact: %w", err)
	}
	if err := contact.Validate(); err != nil {
		return err
	}

	s, err := openSession(g, true)
	if err != nil {
		return err
	}
	defer s.Close()

	cm, err := contactManager(ctx, s)
	if err != nil {
		return err
	}

	rec, err := cm.CreateContact(ctx, contact)
	if err != nil {
		return err
	}
	fmt.Printf("Contact created with ID %d.\n", rec.ID)
	printContact(rec)
	return nil
}

func contactManager(ctx context.Context, s *session) (registrar.ContactManager, error) {
	p, err := s.provider(ctx)
	if err != nil {
		return nil, err
	}
	return registrar.Contacts(p)
}

func printContact(rec registrar.ContactRecord) {
	c := rec.Contact
	a := c.AddressMailing

	printHeader(fmt.Sprintf("Contact %d", rec.ID))
	fmt.Printf("  Name:         %s %s\n", c.NameFirst, c.NameLast)
	if c.Organization != "" {
		fmt.Printf("  Organization: %s\n", c.Organization)
	}
	fmt.Printf("  Email:        %s\n", c.Email)
	fmt.Printf("  Phone:        %s\n", c.Phone)
	fmt.Printf("  Address:      %s, %s %s, %s %s\n", a.Address1, a.PostalCode, a.City, a.State, a.Country)
	fmt.Println()
}
