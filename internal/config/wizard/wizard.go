package wizard

import (
	"context"
	"fmt"

	"github.com/imamik/siteforge/internal/registrar"
)

// WizardResult holds all the answers from the interactive wizard.
type WizardResult struct {
	Provider string

	// GoDaddy
	GoDaddyAPIKey      string
	GoDaddyAPISecret   string
	GoDaddyEnvironment string

	// DNSimple
	DNSimpleToken     string
	DNSimpleAccountID string
	DNSimpleSandbox   bool

	// AWS
	Region string
	Bucket string

	// UseKeyring stores credentials in the OS keyring instead of the file.
	UseKeyring bool
}

// RunWizard runs the interactive configuration wizard.
// The context is used for cancellation support (e.g., Ctrl+C).
func RunWizard(ctx context.Context) (*WizardResult, error) {
	result := &WizardResult{}

	if err := runProviderGroup(ctx, result); err != nil {
		return nil, fmt.Errorf("provider: %w", err)
	}

	switch result.Provider {
	case registrar.ProviderGoDaddy:
		if err := runGoDaddyGroup(ctx, result); err != nil {
			return nil, fmt.Errorf("godaddy: %w", err)
		}
	case registrar.ProviderDNSimple:
		if err := runDNSimpleGroup(ctx, result); err != nil {
			return nil, fmt.Errorf("dnsimple: %w", err)
		}
	}

	if err := runAWSGroup(ctx, result); err != nil {
		return nil, fmt.Errorf("aws: %w", err)
	}

	if result.hasSecrets() {
		if err := runStorageGroup(ctx, result); err != nil {
			return nil, fmt.Errorf("storage: %w", err)
		}
	}

	return result, nil
}

func (r *WizardResult) hasSecrets() bool {
	return r.GoDaddyAPIKey != "" || r.GoDaddyAPISecret != "" || r.DNSimpleToken != ""
}
