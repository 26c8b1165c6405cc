package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load resolves settings from path, the environment, the keyring and
// defaults, then validates them. An empty path reads DefaultFile when it
// exists.
func Load(path string) (*Settings, error) {
	s, err := Resolve(path)
	if err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return s, nil
}

// Resolve is Load without validation, for commands that only need part of
// the settings.
func Resolve(path string) (*Settings, error) {
	s := &Settings{}

	file := path
	if file == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			file = DefaultFile
		}
	}
	if file != "" {
		if err := s.readFile(file); err != nil {
			return nil, err
		}
	}

	if err := s.applyEnv(); err != nil {
		return nil, err
	}
	s.applyKeyring()
	s.applyDefaults()
	s.Provider = strings.ToLower(strings.TrimSpace(s.Provider))
	s.GoDaddy.Environment = strings.ToUpper(strings.TrimSpace(s.GoDaddy.Environment))

	s.Timeouts = LoadTimeouts()
	return s, nil
}

// LoadFile reads settings from a YAML file without applying any other layer.
func LoadFile(path string) (*Settings, error) {
	s := &Settings{}
	if err := s.readFile(path); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Settings) readFile(path string) error {
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(s); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to unmarshal yaml: %w", err)
	}
	s.Source = path
	return nil
}

func (s *Settings) applyEnv() error {
	setString(&s.Provider, "DOMAIN_PROVIDER")

	setString(&s.GoDaddy.APIKey, "GODADDY_API_KEY")
	setString(&s.GoDaddy.APISecret, "GODADDY_API_SECRET")
	setString(&s.GoDaddy.Environment, "GODADDY_ENV")

	setString(&s.DNSimple.Token, "DNSIMPLE_API_TOKEN")
	setString(&s.DNSimple.AccountID, "DNSIMPLE_ACCOUNT_ID")
	if v := os.Getenv("DNSIMPLE_SANDBOX"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid DNSIMPLE_SANDBOX %q: %w", v, err)
		}
		s.DNSimple.Sandbox = &b
	}
	if v := os.Getenv("DNSIMPLE_REGISTRANT_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid DNSIMPLE_REGISTRANT_ID %q: %w", v, err)
		}
		s.DNSimple.RegistrantID = id
	}

	setString(&s.AWS.AccessKeyID, "AWS_ACCESS_KEY_ID")
	setString(&s.AWS.SecretAccessKey, "AWS_SECRET_ACCESS_KEY")
	setString(&s.AWS.SessionToken, "AWS_SESSION_TOKEN")
	setString(&s.AWS.Region, "AWS_REGION")
	setString(&s.AWS.Profile, "AWS_PROFILE")
	setString(&s.AWS.Endpoint, "AWS_ENDPOINT_URL")
	setString(&s.AWS.Bucket, "AWS_S3_BUCKET")

	setString(&s.Log.Level, "LOG_LEVEL")
	setString(&s.Log.File, "SITEFORGE_LOG_FILE")
	return nil
}

// setString overrides dst when the variable is set and non-empty.
func setString(dst *string, envVar string) {
	if v := os.Getenv(envVar); v != "" {
		*dst = v
	}
}
