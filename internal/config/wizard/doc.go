// Package wizard provides the interactive setup wizard behind siteforge init.
//
// RunWizard asks for the domain provider, its credentials and the AWS
// defaults using charmbracelet/huh forms and returns a WizardResult. Use
// BuildSettings to convert results to config.Settings, SaveSecrets to move
// credentials into the OS keyring, and WriteConfig to write siteforge.yaml.
// Secrets are only ever written to the file when the keyring is declined.
package wizard
