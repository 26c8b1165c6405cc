package wizard

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/imamik/siteforge/internal/config"
)

// Function variable for dependency injection in tests.
var confirmOverwrite = defaultConfirmOverwrite

// WriteConfig writes the settings to a YAML file with a descriptive header.
func WriteConfig(s *config.Settings, outputPath string) error {
	yamlBytes, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(generateHeader(s, outputPath))
	sb.WriteString("\n")
	sb.Write(yamlBytes)

	if err := os.WriteFile(outputPath, []byte(sb.String()), 0o600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

// generateHeader creates the YAML file header comment.
func generateHeader(s *config.Settings, outputPath string) string {
	secrets := "# Credentials are read from the OS keyring (service \"siteforge\") or the\n# environment."
	if s.GoDaddy.APIKey != "" || s.DNSimple.Token != "" {
		secrets = "# This file contains credentials. Do not commit it."
	}
	return fmt.Sprintf(`# siteforge configuration
# Generated by: siteforge init
# Generated at: %s
%s
#
# Usage:
#   siteforge pipeline ./my-app --domain my-app.com -c %s
`, time.Now().Format(time.RFC3339), secrets, outputPath)
}

// FileExists checks if a file exists at the given path.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ConfirmOverwrite prompts the user to confirm overwriting an existing file.
func ConfirmOverwrite(path string) (bool, error) {
	return confirmOverwrite(path)
}

// defaultConfirmOverwrite is the default implementation that prompts via stdin.
func defaultConfirmOverwrite(path string) (bool, error) {
	fmt.Printf("\nFile already exists: %s\n", path)
	fmt.Print("Overwrite? (y/n): ")

	var response string
	if _, err := fmt.Scanln(&response); err != nil {
		return false, err
	}

	response = strings.ToLower(strings.TrimSpace(response))
	return response == "y" || response == "yes", nil
}
