package registrar

import (
	"slices"
	"strings"

	"github.com/imamik/siteforge/internal/errdefs"
)

// Provider names accepted by New.
const (
	ProviderGoDaddy  = "godaddy"
	ProviderDNSimple = "dnsimple"
	ProviderRoute53  = "route53"
)

// Config carries the settings of every supported provider. Only the section
// for the selected provider is read.
type Config struct {
	GoDaddy  GoDaddyConfig
	DNSimple DNSimpleConfig
	// Route53Domains is an SDK client configured for us-east-1.
	Route53Domains Route53DomainsAPI
}

// Names returns the supported provider names.
func Names() []string {
	return []string{ProviderGoDaddy, ProviderDNSimple, ProviderRoute53}
}

// New returns the provider registered under name. Names are case-insensitive.
func New(name string, cfg Config, opts ...Option) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case ProviderGoDaddy:
		return NewGoDaddy(cfg.GoDaddy, opts...), nil
	case ProviderDNSimple:
		return NewDNSimple(cfg.DNSimple, opts...), nil
	case ProviderRoute53:
		if cfg.Route53Domains == nil {
			return nil, errdefs.New(errdefs.KindValidation, "new registrar",
				"route53 provider requires an AWS client")
		}
		return NewRoute53Domains(cfg.Route53Domains, opts...), nil
	default:
		return nil, errdefs.Newf(errdefs.KindValidation, "new registrar",
			"unknown provider %q (supported: %s)", name, strings.Join(Names(), ", "))
	}
}

// Supported reports whether name is a known provider.
func Supported(name string) bool {
	return slices.Contains(Names(), strings.ToLower(strings.TrimSpace(name)))
}

// Contacts returns the provider's contact manager, or an Unsupported error when
// the provider keeps contacts only inside registrations.
func Contacts(p Provider) (ContactManager, error) {
	if cm, ok := p.(ContactManager); ok {
		return cm, nil
	}
	return nil, errdefs.Newf(errdefs.KindUnsupported, "contacts",
		"%s does not manage contacts separately", p.Name())
}
