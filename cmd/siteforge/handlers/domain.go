package handlers

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"

	"github.com/imamik/siteforge/internal/errdefs"
	"github.com/imamik/siteforge/internal/registrar"
	"github.com/imamik/siteforge/internal/util/naming"
)

// Factory function variables for domain commands - can be replaced in tests.
var (
	// loadContact reads a registrant contact file.
	loadContact = registrar.LoadContact

	// confirmPurchase builds the interactive purchase confirmation.
	confirmPurchase = promptPurchase

	// isInteractive reports whether stdin is a terminal.
	isInteractive = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}
)

// DomainSearch checks the availability of one or more domains. Arguments may
// also be comma separated.
func DomainSearch(ctx context.Context, g Globals, args []string) error {
	domains := splitDomains(args)
	if len(domains) == 0 {
		return errdefs.New(errdefs.KindValidation, "domain search", "at least one domain is required")
	}

	s, err := openSession(g, true)
	if err != nil {
		return err
	}
	defer s.Close()

	svc, err := s.domains(ctx)
	if err != nil {
		return err
	}

	results := svc.SearchMany(ctx, domains)

	printHeader(fmt.Sprintf("Domain search (%s)", environmentLabel(svc.Provider().Environment())))
	failed := 0
	for _, r := range results {
		switch {
		case r.Err != nil:
			failed++
			fmt.Printf("  %-40s %-12s %s\n", r.Domain, "ERROR", r.Err)
		case r.Availability.Available():
			fmt.Printf("  %-40s %-12s %s\n", r.Domain, "available", formatPrice(r.Availability.Price, r.Availability.Currency))
		default:
			fmt.Printf("  %-40s %-12s %s\n", r.Domain, "taken", r.Availability.Reason)
		}
	}
	fmt.Println()

	if failed > 0 {
		return fmt.Errorf("%d of %d lookups failed", failed, len(results))
	}
	return nil
}

// DomainSuggest prints registrar suggestions for a keyword.
func DomainSuggest(ctx context.Context, g Globals, query string, limit int) error {
	s, err := openSession(g, true)
	if err != nil {
		return err
	}
	defer s.Close()

	p, err := s.provider(ctx)
	if err != nil {
		return err
	}

	suggestions, err := p.Suggest(ctx, query, limit)
	if err != nil {
		return err
	}

	printHeader(fmt.Sprintf("Suggestions for %q", query))
	if len(suggestions) == 0 {
		fmt.Println("  No suggestions.")
	}
	for i, sg := range suggestions {
		if sg.Status != "" {
			fmt.Printf("  %2d. %-40s %s\n", i+1, sg.Domain, strings.ToLower(string(sg.Status)))
			continue
		}
		fmt.Printf("  %2d. %s\n", i+1, sg.Domain)
	}
	fmt.Println()
	return nil
}

// DomainList prints the domains owned by the account.
func DomainList(ctx context.Context, g Globals) error {
	s, err := openSession(g, true)
	if err != nil {
		return err
	}
	defer s.Close()

	p, err := s.provider(ctx)
	if err != nil {
		return err
	}

	domains, err := p.ListDomains(ctx)
	if err != nil {
		return err
	}

	printHeader(fmt.Sprintf("Owned domains (%d)", len(domains)))
	for _, d := range domains {
		fmt.Printf("  %-40s %-12s expires %s\n", d.Name, orDefault(d.Status, "-"), formatDate(d.ExpiresAt))
	}
	fmt.Println()
	return nil
}

// DomainInfo prints the details of an owned domain.
func DomainInfo(ctx context.Context, g Globals, domain string) error {
	s, err := openSession(g, true)
	if err != nil {
		return err
	}
	defer s.Close()

	p, err := s.provider(ctx)
	if err != nil {
		return err
	}

	d, err := p.GetDomain(ctx, naming.Normalize(domain))
	if err != nil {
		return err
	}

	printHeader("Domain " + d.Name)
	fmt.Printf("  Status:       %s\n", d.Status)
	fmt.Printf("  Created:      %s\n", formatDate(d.CreatedAt))
	fmt.Printf("  Expires:      %s\n", formatDate(d.ExpiresAt))
	fmt.Printf("  Auto-renew:   %s\n", yesNo(d.AutoRenew))
	fmt.Printf("  Locked:       %s\n", yesNo(d.Locked))
	fmt.Printf("  Privacy:      %s\n", yesNo(d.Privacy))
	if len(d.NameServers) > 0 {
		fmt.Printf("  Name servers: %s\n", strings.Join(d.NameServers, ", "))
	}
	fmt.Println()
	return nil
}

// PurchaseOptions are the inputs of DomainPurchase.
type PurchaseOptions struct {
	Domain      string
	ContactFile string
	Years       int
	AutoRenew   bool
	Privacy     bool
	// Yes skips the confirmation prompt.
	Yes bool
}

// DomainPurchase registers a domain after an availability check, a dry run
// and a confirmation.
func DomainPurchase(ctx context.Context, g Globals, opts PurchaseOptions) error {
	if !opts.Yes && !isInteractive() {
		return errdefs.New(errdefs.KindValidation, "domain purchase",
			"refusing to purchase without confirmation; pass --yes to confirm non-interactively")
	}

	contact, err := loadContact(opts.ContactFile)
	if err != nil {
		return fmt.Errorf("failed to load contact: %w", err)
	}

	s, err := openSession(g, true)
	if err != nil {
		return err
	}
	defer s.Close()

	svc, err := s.domains(ctx)
	if err != nil {
		return err
	}

	var confirm registrar.ConfirmFunc
	if !opts.Yes {
		confirm = confirmPurchase(svc.Provider().Environment())
	}

	outcome, err := svc.Purchase(ctx, registrar.PurchaseRequest{
		Domain:    naming.Normalize(opts.Domain),
		Years:     opts.Years,
		Contact:   contact,
		AutoRenew: opts.AutoRenew,
		Privacy:   opts.Privacy,
	}, confirm)
	if err != nil {
		return err
	}
	if outcome.Declined {
		fmt.Println("Purchase canceled.")
		return nil
	}

	r := outcome.Result
	printHeader("Domain purchased")
	fmt.Printf("  Domain:  %s\n", r.Domain)
	fmt.Printf("  Order:   %s\n", r.OrderID)
	fmt.Printf("  Status:  %s\n", r.Status)
	fmt.Printf("  Period:  %d year(s)\n", r.Years)
	fmt.Printf("  Total:   %s\n", formatPrice(r.Total, r.Currency))
	fmt.Println()
	return nil
}

// promptPurchase asks on the terminal before money is spent.
func promptPurchase(env registrar.EnvironmentInfo) registrar.ConfirmFunc {
	return func(ctx context.Context, a registrar.Availability, req registrar.PurchaseRequest) (bool, error) {
		var ok bool
		desc := fmt.Sprintf("%s for %d year(s) via %s.", formatPrice(a.Price, a.Currency), req.Years, environmentLabel(env))
		if env.Production {
			desc += " This charges your account."
		}
		err := huh.NewForm(huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Register %s?", a.Domain)).
				Description(desc).
				Affirmative("Buy").
				Negative("Cancel").
				Value(&ok),
		)).RunWithContext(ctx)
		return ok, err
	}
}

// environmentLabel renders e.g. "godaddy OTE".
func environmentLabel(env registrar.EnvironmentInfo) string {
	if env.Environment == "" {
		return env.Provider
	}
	return env.Provider + " " + env.Environment
}

// splitDomains flattens comma separated arguments and drops duplicates.
func splitDomains(args []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, arg := range args {
		for _, d := range strings.Split(arg, ",") {
			d = naming.Normalize(d)
			if d == "" || seen[d] {
				continue
			}
			seen[d] = true
			out = append(out, d)
		}
	}
	return out
}
