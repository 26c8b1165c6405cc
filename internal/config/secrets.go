package config

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// KeyringService is the keyring service secrets are stored under.
const KeyringService = "siteforge"

// Keyring entry names.
const (
	SecretGoDaddyKey    = "godaddy_api_key"
	SecretGoDaddySecret = "godaddy_api_secret"
	SecretDNSimpleToken = "dnsimple_api_token"
	SecretAWSSecretKey  = "aws_secret_access_key"
)

// StoreSecret saves a secret in the OS keyring.
func StoreSecret(name, value string) error {
	if err := keyring.Set(KeyringService, name, value); err != nil {
		return fmt.Errorf("failed to store %s in keyring: %w", name, err)
	}
	return nil
}

// LookupSecret reads a secret from the OS keyring. A missing entry or an
// unavailable keyring yields ok=false.
func LookupSecret(name string) (value string, ok bool) {
	v, err := keyring.Get(KeyringService, name)
	if err != nil {
		return "", false
	}
	return v, true
}

// DeleteSecret removes a secret from the OS keyring. Deleting a missing
// entry is not an error.
func DeleteSecret(name string) error {
	err := keyring.Delete(KeyringService, name)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete %s from keyring: %w", name, err)
	}
	return nil
}

// applyKeyring fills empty secrets from the keyring.
func (s *Settings) applyKeyring() {
	fill := func(dst *string, name string) {
		if *dst != "" {
			return
		}
		if v, ok := LookupSecret(name); ok {
			*dst = v
		}
	}
	fill(&s.GoDaddy.APIKey, SecretGoDaddyKey)
	fill(&s.GoDaddy.APISecret, SecretGoDaddySecret)
	fill(&s.DNSimple.Token, SecretDNSimpleToken)
	if s.AWS.AccessKeyID != "" {
		fill(&s.AWS.SecretAccessKey, SecretAWSSecretKey)
	}
}
