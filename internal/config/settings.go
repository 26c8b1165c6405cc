package config

import (
	"github.com/imamik/siteforge/internal/platform/aws"
	"github.com/imamik/siteforge/internal/registrar"
)

// Defaults.
const (
	DefaultFile     = "siteforge.yaml"
	DefaultProvider = registrar.ProviderGoDaddy
	DefaultRegion   = "us-east-1"
	DefaultLogLevel = "info"

	GoDaddyOTE        = "OTE"
	GoDaddyProduction = "PRODUCTION"
)

// Settings is the resolved application configuration.
type Settings struct {
	Provider string           `yaml:"provider"`
	GoDaddy  GoDaddySettings  `yaml:"godaddy,omitempty"`
	DNSimple DNSimpleSettings `yaml:"dnsimple,omitempty"`
	AWS      AWSSettings      `yaml:"aws,omitempty"`
	Log      LogSettings      `yaml:"log,omitempty"`

	Timeouts Timeouts `yaml:"-"`

	// Source is the file the settings were read from, empty when none.
	Source string `yaml:"-"`
}

// GoDaddySettings configures the GoDaddy provider.
type GoDaddySettings struct {
	APIKey      string `yaml:"api_key,omitempty"`
	APISecret   string `yaml:"api_secret,omitempty"`
	Environment string `yaml:"environment,omitempty"` // OTE or PRODUCTION
}

// DNSimpleSettings configures the DNSimple provider.
type DNSimpleSettings struct {
	Token        string `yaml:"token,omitempty"`
	AccountID    string `yaml:"account_id,omitempty"`
	Sandbox      *bool  `yaml:"sandbox,omitempty"`
	RegistrantID int64  `yaml:"registrant_id,omitempty"`
}

// SandboxEnabled reports whether the sandbox API is used. Unset means true.
func (d DNSimpleSettings) SandboxEnabled() bool {
	return d.Sandbox == nil || *d.Sandbox
}

// AWSSettings configures the AWS session. Empty credentials fall back to
// the SDK credential chain.
type AWSSettings struct {
	Region          string `yaml:"region,omitempty"`
	Profile         string `yaml:"profile,omitempty"`
	AccessKeyID     string `yaml:"access_key_id,omitempty"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty"`
	SessionToken    string `yaml:"session_token,omitempty"`
	Endpoint        string `yaml:"endpoint,omitempty"`
	Bucket          string `yaml:"bucket,omitempty"`
}

// LogSettings configures logging.
type LogSettings struct {
	Level string `yaml:"level,omitempty"`
	File  string `yaml:"file,omitempty"`
}

// IsProduction reports whether registrar calls can spend real money.
func (s *Settings) IsProduction() bool {
	switch s.Provider {
	case registrar.ProviderDNSimple:
		return !s.DNSimple.SandboxEnabled()
	case registrar.ProviderRoute53:
		return true
	}
	return s.GoDaddy.Environment == GoDaddyProduction
}

// HasAWSCredentials reports whether static AWS credentials are configured.
func (s *Settings) HasAWSCredentials() bool {
	return s.AWS.AccessKeyID != "" && s.AWS.SecretAccessKey != ""
}

// AWSConfig returns the session settings for the AWS platform package.
func (s *Settings) AWSConfig() aws.Settings {
	return aws.Settings{
		Region:          s.AWS.Region,
		AccessKeyID:     s.AWS.AccessKeyID,
		SecretAccessKey: s.AWS.SecretAccessKey,
		SessionToken:    s.AWS.SessionToken,
		Profile:         s.AWS.Profile,
		Endpoint:        s.AWS.Endpoint,
	}
}

// RegistrarConfig returns the provider configuration. domains is only used
// by the route53 provider and may be nil otherwise.
func (s *Settings) RegistrarConfig(domains registrar.Route53DomainsAPI) registrar.Config {
	return registrar.Config{
		GoDaddy: registrar.GoDaddyConfig{
			APIKey:     s.GoDaddy.APIKey,
			APISecret:  s.GoDaddy.APISecret,
			Production: s.GoDaddy.Environment == GoDaddyProduction,
		},
		DNSimple: registrar.DNSimpleConfig{
			Token:        s.DNSimple.Token,
			AccountID:    s.DNSimple.AccountID,
			Sandbox:      s.DNSimple.SandboxEnabled(),
			RegistrantID: s.DNSimple.RegistrantID,
		},
		Route53Domains: domains,
	}
}

func (s *Settings) applyDefaults() {
	if s.Provider == "" {
		s.Provider = DefaultProvider
	}
	if s.GoDaddy.Environment == "" {
		s.GoDaddy.Environment = GoDaddyOTE
	}
	if s.AWS.Region == "" {
		s.AWS.Region = DefaultRegion
	}
	if s.Log.Level == "" {
		s.Log.Level = DefaultLogLevel
	}
}
