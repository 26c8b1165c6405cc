package wizard

import (
	"fmt"

	"github.com/imamik/siteforge/internal/config"
	"github.com/imamik/siteforge/internal/registrar"
)

// Function variable for dependency injection in tests.
var storeSecret = config.StoreSecret

// BuildSettings creates Settings from the wizard result. Only the selected
// provider's section is filled.
func BuildSettings(result *WizardResult) *config.Settings {
	s := &config.Settings{
		Provider: result.Provider,
		AWS: config.AWSSettings{
			Region: result.Region,
			Bucket: result.Bucket,
		},
	}

	switch result.Provider {
	case registrar.ProviderGoDaddy:
		s.GoDaddy = config.GoDaddySettings{
			APIKey:      result.GoDaddyAPIKey,
			APISecret:   result.GoDaddyAPISecret,
			Environment: result.GoDaddyEnvironment,
		}
	case registrar.ProviderDNSimple:
		sandbox := result.DNSimpleSandbox
		s.DNSimple = config.DNSimpleSettings{
			Token:     result.DNSimpleToken,
			AccountID: result.DNSimpleAccountID,
			Sandbox:   &sandbox,
		}
	}

	return s
}

// SaveSecrets moves the credentials in s to the keyring and clears them
// from s, so the file written afterwards holds no secrets.
func SaveSecrets(s *config.Settings) error {
	secrets := []struct {
		name string
		val  *string
	}{
		{config.SecretGoDaddyKey, &s.GoDaddy.APIKey},
		{config.SecretGoDaddySecret, &s.GoDaddy.APISecret},
		{config.SecretDNSimpleToken, &s.DNSimple.Token},
	}
	for _, sec := range secrets {
		if *sec.val == "" {
			continue
		}
		if err := storeSecret(sec.name, *sec.val); err != nil {
			return fmt.Errorf("keyring: %w", err)
		}
		*sec.val = ""
	}
	return nil
}
