package handlers

import (
	"context"
	"fmt"

	"github.com/imamik/siteforge/internal/config"
	"github.com/imamik/siteforge/internal/config/wizard"
	"github.com/imamik/siteforge/internal/registrar"
)

// Factory function variables for init - can be replaced in tests.
var (
	// fileExists checks if a file exists.
	fileExists = wizard.FileExists

	// confirmOverwrite asks before replacing an existing file.
	confirmOverwrite = wizard.ConfirmOverwrite

	// runWizard runs the interactive wizard.
	runWizard = wizard.RunWizard

	// saveSecrets moves credentials into the OS keyring.
	saveSecrets = wizard.SaveSecrets

	// writeConfig writes the settings file.
	writeConfig = wizard.WriteConfig
)

// Init runs the configuration wizard and writes the result to a file.
func Init(ctx context.Context, outputPath string) error {
	if outputPath == "" {
		outputPath = config.DefaultFile
	}
	if fileExists(outputPath) {
		ok, err := confirmOverwrite(outputPath)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Aborted.")
			return nil
		}
	}

	printWelcome()

	result, err := runWizard(ctx)
	if err != nil {
		return fmt.Errorf("wizard canceled: %w", err)
	}

	settings := wizard.BuildSettings(result)
	if result.UseKeyring {
		if err := saveSecrets(settings); err != nil {
			return fmt.Errorf("failed to store credentials: %w", err)
		}
	}

	if err := writeConfig(settings, outputPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	printInitSuccess(outputPath, result)
	return nil
}

func printWelcome() {
	fmt.Println()
	fmt.Println("siteforge - static sites on AWS")
	fmt.Println("===============================")
	fmt.Println()
	fmt.Println("This wizard selects a domain registrar, stores its credentials")
	fmt.Println("and picks the AWS region and bucket for your sites.")
	fmt.Println()
}

func printInitSuccess(outputPath string, result *wizard.WizardResult) {
	fmt.Println()
	fmt.Println("Configuration saved!")
	fmt.Println()
	fmt.Printf("  File: %s\n", outputPath)
	fmt.Println()

	fmt.Println("Summary")
	fmt.Println("-------")
	fmt.Printf("  Registrar: %s\n", result.Provider)
	switch {
	case result.GoDaddyEnvironment != "":
		fmt.Printf("  GoDaddy:   %s\n", result.GoDaddyEnvironment)
	case result.Provider == registrar.ProviderDNSimple:
		fmt.Printf("  Sandbox:   %s\n", yesNo(result.DNSimpleSandbox))
	}
	fmt.Printf("  Region:    %s\n", result.Region)
	if result.Bucket != "" {
		fmt.Printf("  Bucket:    %s\n", result.Bucket)
	}
	if result.UseKeyring {
		fmt.Println("  Secrets:   OS keyring")
	}
	fmt.Println()

	fmt.Println("Next steps:")
	fmt.Println("  1. Check your setup:")
	fmt.Println("     siteforge doctor")
	fmt.Println()
	fmt.Println("  2. Put a site live:")
	fmt.Printf("     siteforge pipeline ./my-app --domain my-app.com -c %s\n", outputPath)
	fmt.Println()
}
