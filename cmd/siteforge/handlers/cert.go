package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/imamik/siteforge/internal/util/naming"
)

// CertRequest requests a certificate for domain and prints the DNS records
// that validate it. writeRecords also upserts them into the hosted zone.
func CertRequest(ctx context.Context, g Globals, domain string, withWWW, writeRecords bool) error {
	s, err := openSession(g, false)
	if err != nil {
		return err
	}
	defer s.Close()

	certs, err := s.certificates(ctx)
	if err != nil {
		return err
	}

	domain = naming.Normalize(domain)
	arn, err := certs.Request(ctx, domain, withWWW)
	if err != nil {
		return err
	}

	records, err := certs.ValidationRecords(ctx, arn, s.settings.Timeouts.Validation)
	if err != nil {
		return err
	}

	printHeader("Certificate requested")
	fmt.Printf("  ARN: %s\n", arn)
	fmt.Println()
	fmt.Println("  Validation records:")
	for _, r := range records {
		fmt.Printf("    %s %s %s\n", r.Name, r.Type, r.Value)
	}
	fmt.Println()

	if !writeRecords {
		fmt.Println("Add the records above to the domain's DNS, then run 'siteforge cert wait'.")
		return nil
	}

	dns, err := s.dns(ctx)
	if err != nil {
		return err
	}
	changeID, err := dns.WriteValidationRecords(ctx, domain, records)
	if err != nil {
		return err
	}
	fmt.Printf("Validation records written (change %s).\n", changeID)
	return nil
}

// CertWait blocks until the certificate is issued. A zero timeout uses the
// configured one.
func CertWait(ctx context.Context, g Globals, arn string, timeout time.Duration) error {
	s, err := openSession(g, false)
	if err != nil {
		return err
	}
	defer s.Close()

	certs, err := s.certificates(ctx)
	if err != nil {
		return err
	}
	if timeout <= 0 {
		timeout = s.settings.Timeouts.Certificate
	}

	if err := certs.WaitForIssuance(ctx, arn, timeout); err != nil {
		return err
	}
	fmt.Printf("Certificate %s is issued.\n", arn)
	return nil
}
