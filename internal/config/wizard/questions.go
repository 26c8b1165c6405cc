package wizard

import (
	"context"
	"regexp"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/imamik/siteforge/internal/config"
)

var (
	bucketRegex    = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]{1,61}[a-z0-9]$`)
	accountIDRegex = regexp.MustCompile(`^[0-9]+$`)
)

// runProviderGroup prompts for the domain provider.
func runProviderGroup(ctx context.Context, result *WizardResult) error {
	result.Provider = config.DefaultProvider

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Domain Provider").
				Description("Where domains are searched and registered").
				Options(ToOptions(Providers)...).
				Value(&result.Provider),
		).Title("Domains"),
	).RunWithContext(ctx)
}

// runGoDaddyGroup prompts for GoDaddy credentials.
func runGoDaddyGroup(ctx context.Context, result *WizardResult) error {
	result.GoDaddyEnvironment = config.GoDaddyOTE

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("API Key").
				Description("From developer.godaddy.com/keys").
				Value(&result.GoDaddyAPIKey).
				Validate(validateCredential),
			huh.NewInput().
				Title("API Secret").
				EchoMode(huh.EchoModePassword).
				Value(&result.GoDaddyAPISecret).
				Validate(validateCredential),
			huh.NewSelect[string]().
				Title("Environment").
				Options(ToOptions(GoDaddyEnvironments)...).
				Value(&result.GoDaddyEnvironment),
		).Title("GoDaddy"),
	).RunWithContext(ctx)
}

// runDNSimpleGroup prompts for DNSimple credentials.
func runDNSimpleGroup(ctx context.Context, result *WizardResult) error {
	result.DNSimpleSandbox = true

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("API Token").
				EchoMode(huh.EchoModePassword).
				Value(&result.DNSimpleToken).
				Validate(validateCredential),
			huh.NewInput().
				Title("Account ID (Optional)").
				Description("Leave empty to discover it from the token").
				Value(&result.DNSimpleAccountID).
				Validate(validateAccountID),
			huh.NewConfirm().
				Title("Use the sandbox?").
				Description("Sandbox registrations are free and not real").
				Value(&result.DNSimpleSandbox),
		).Title("DNSimple"),
	).RunWithContext(ctx)
}

// runAWSGroup prompts for the bucket region and default bucket.
func runAWSGroup(ctx context.Context, result *WizardResult) error {
	result.Region = config.DefaultRegion

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Bucket Region").
				Description("Credentials come from the AWS credential chain").
				Options(ToOptions(Regions)...).
				Value(&result.Region),
			huh.NewInput().
				Title("Default Bucket (Optional)").
				Placeholder("my-website-bucket").
				Value(&result.Bucket).
				Validate(validateBucket),
		).Title("AWS"),
	).RunWithContext(ctx)
}

// runStorageGroup asks whether credentials go to the keyring.
func runStorageGroup(ctx context.Context, result *WizardResult) error {
	result.UseKeyring = true

	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Store credentials in the OS keyring?").
				Description("Otherwise they are written to the config file").
				Value(&result.UseKeyring),
		).Title("Credentials"),
	).RunWithContext(ctx)
}

func validateCredential(s string) error {
	if strings.TrimSpace(s) == "" {
		return errCredentialRequired
	}
	if config.IsPlaceholder(s) {
		return errPlaceholder
	}
	return nil
}

func validateAccountID(s string) error {
	if s == "" || accountIDRegex.MatchString(s) {
		return nil
	}
	return errAccountIDInvalid
}

func validateBucket(s string) error {
	if s == "" || bucketRegex.MatchString(s) {
		return nil
	}
	return errBucketInvalid
}
