package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/imamik/siteforge/internal/util/naming"
)

// DNSCutover points the apex and www records of domain at a distribution.
// With wait it blocks until Route 53 reports the change as in sync.
func DNSCutover(ctx context.Context, g Globals, domain, distributionDomain string, wait bool) error {
	s, err := openSession(g, false)
	if err != nil {
		return err
	}
	defer s.Close()

	dns, err := s.dns(ctx)
	if err != nil {
		return err
	}

	domain = naming.Normalize(domain)
	zone, err := dns.GetOrCreateHostedZone(ctx, domain)
	if err != nil {
		return err
	}

	changeID, err := dns.WriteCutoverRecords(ctx, domain, naming.Normalize(distributionDomain))
	if err != nil {
		return err
	}

	printHeader("DNS cutover")
	fmt.Printf("  Domain:       %s\n", domain)
	fmt.Printf("  Target:       %s\n", distributionDomain)
	fmt.Printf("  Hosted zone:  %s\n", zone.ID)
	fmt.Printf("  Change:       %s\n", changeID)
	if len(zone.NameServers) > 0 {
		fmt.Printf("  Name servers: %s\n", strings.Join(zone.NameServers, ", "))
	}
	fmt.Println()

	if !wait {
		return nil
	}
	if err := dns.WaitForChange(ctx, changeID, s.settings.Timeouts.Validation); err != nil {
		return err
	}
	fmt.Println("Change is in sync.")
	return nil
}
