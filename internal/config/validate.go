package config

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/imamik/siteforge/internal/errdefs"
	"github.com/imamik/siteforge/internal/logging"
	"github.com/imamik/siteforge/internal/registrar"
)

// placeholderPattern matches the values shipped in example configuration.
var placeholderPattern = regexp.MustCompile(`(?i)^(your_[a-z0-9_]*_here|changeme|<[^>]*>)$`)

// IsPlaceholder reports whether v is empty or an unedited example value.
func IsPlaceholder(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || placeholderPattern.MatchString(v)
}

// Validate checks the configuration for common errors and returns a detailed error if validation fails.
func (s *Settings) Validate() error {
	if !registrar.Supported(s.Provider) {
		return errdefs.Newf(errdefs.KindValidation, "validate config",
			"unknown provider %q: must be one of %s", s.Provider, strings.Join(registrar.Names(), ", "))
	}

	if err := s.validateCredentials(); err != nil {
		return err
	}

	if env := s.GoDaddy.Environment; env != GoDaddyOTE && env != GoDaddyProduction {
		return errdefs.Newf(errdefs.KindValidation, "validate config",
			"invalid godaddy.environment %q: must be %s or %s", env, GoDaddyOTE, GoDaddyProduction)
	}

	return s.ValidatePlatform()
}

// ValidatePlatform checks only the AWS and logging settings, for commands
// that never talk to a registrar.
func (s *Settings) ValidatePlatform() error {
	if (s.AWS.AccessKeyID == "") != (s.AWS.SecretAccessKey == "") {
		return errdefs.New(errdefs.KindValidation, "validate config",
			"aws.access_key_id and aws.secret_access_key must be set together")
	}

	if _, err := logging.ParseLevel(s.Log.Level); err != nil {
		return err
	}
	return nil
}

// validateCredentials checks the selected provider's credentials. route53
// uses the AWS credential chain and needs nothing here.
func (s *Settings) validateCredentials() error {
	var missing []string
	check := func(name, v string) {
		if IsPlaceholder(v) {
			missing = append(missing, name)
		}
	}

	switch s.Provider {
	case registrar.ProviderGoDaddy:
		check("GODADDY_API_KEY", s.GoDaddy.APIKey)
		check("GODADDY_API_SECRET", s.GoDaddy.APISecret)
	case registrar.ProviderDNSimple:
		check("DNSIMPLE_API_TOKEN", s.DNSimple.Token)
	}

	if len(missing) == 0 {
		return nil
	}
	return errdefs.New(errdefs.KindValidation, "validate config", fmt.Sprintf(
		"%s credentials must be set (missing or placeholder: %s); run 'siteforge init' or export them",
		s.Provider, strings.Join(missing, ", ")))
}
