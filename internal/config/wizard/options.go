package wizard

import (
	"github.com/charmbracelet/huh"

	"github.com/imamik/siteforge/internal/config"
	"github.com/imamik/siteforge/internal/registrar"
)

// Option is a selectable value with a human description.
type Option struct {
	Value       string
	Label       string
	Description string
}

// Providers lists the supported domain providers.
var Providers = []Option{
	{Value: registrar.ProviderGoDaddy, Label: "GoDaddy", Description: "API key and secret, OTE test environment available"},
	{Value: registrar.ProviderDNSimple, Label: "DNSimple", Description: "API token, sandbox available"},
	{Value: registrar.ProviderRoute53, Label: "Route 53 Domains", Description: "uses your AWS credentials"},
}

// GoDaddyEnvironments lists the GoDaddy API environments.
var GoDaddyEnvironments = []Option{
	{Value: config.GoDaddyOTE, Label: "OTE", Description: "test environment, no charges"},
	{Value: config.GoDaddyProduction, Label: "Production", Description: "real registrations and charges"},
}

// Regions lists common AWS regions for the website bucket. CloudFront and
// ACM always use us-east-1.
var Regions = []Option{
	{Value: "us-east-1", Label: "us-east-1", Description: "N. Virginia"},
	{Value: "us-east-2", Label: "us-east-2", Description: "Ohio"},
	{Value: "us-west-2", Label: "us-west-2", Description: "Oregon"},
	{Value: "eu-west-1", Label: "eu-west-1", Description: "Ireland"},
	{Value: "eu-central-1", Label: "eu-central-1", Description: "Frankfurt"},
	{Value: "ap-southeast-2", Label: "ap-southeast-2", Description: "Sydney"},
	{Value: "ap-northeast-1", Label: "ap-northeast-1", Description: "Tokyo"},
}

// ToOptions converts options to huh select options.
func ToOptions(opts []Option) []huh.Option[string] {
	out := make([]huh.Option[string], len(opts))
	for i, o := range opts {
		label := o.Label
		if o.Description != "" {
			label += " - " + o.Description
		}
		out[i] = huh.NewOption(label, o.Value)
	}
	return out
}
