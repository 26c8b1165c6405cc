package config

import (
	"os"
	"strconv"
	"time"

	"github.com/imamik/siteforge/internal/util/retry"
)

// Timeouts holds all configurable timeout values.
// These values can be customized via environment variables.
type Timeouts struct {
	Certificate       time.Duration // Timeout for certificate issuance
	Distribution      time.Duration // Timeout for distribution deployment
	Validation        time.Duration // Timeout for validation records to appear
	ValidationPoll    time.Duration // Poll interval while waiting for validation records
	CertificatePoll   time.Duration // Poll interval while waiting for issuance
	DistributionPoll  time.Duration // Poll interval while waiting for deployment
	ReadAttempts      int           // Maximum attempts for idempotent calls
	MutationAttempts  int           // Maximum attempts for non-idempotent calls
	RetryInitialDelay time.Duration
}

// LoadTimeouts loads timeout configuration from environment variables.
// If an environment variable is not set or invalid, a default value is used.
//
// Environment Variables:
//   - SITEFORGE_CERTIFICATE_TIMEOUT (default: 30m)
//   - SITEFORGE_DISTRIBUTION_TIMEOUT (default: 30m)
//   - SITEFORGE_VALIDATION_TIMEOUT (default: 5m)
//   - SITEFORGE_VALIDATION_POLL (default: 5s)
//   - SITEFORGE_CERTIFICATE_POLL (default: 30s)
//   - SITEFORGE_DISTRIBUTION_POLL (default: 60s)
//   - SITEFORGE_RETRY_READ_ATTEMPTS (default: 3)
//   - SITEFORGE_RETRY_MUTATION_ATTEMPTS (default: 2)
//   - SITEFORGE_RETRY_INITIAL_DELAY (default: 2s)
func LoadTimeouts() Timeouts {
	return Timeouts{
		Certificate:       parseDuration("SITEFORGE_CERTIFICATE_TIMEOUT", 30*time.Minute),
		Distribution:      parseDuration("SITEFORGE_DISTRIBUTION_TIMEOUT", 30*time.Minute),
		Validation:        parseDuration("SITEFORGE_VALIDATION_TIMEOUT", 5*time.Minute),
		ValidationPoll:    parseDuration("SITEFORGE_VALIDATION_POLL", 5*time.Second),
		CertificatePoll:   parseDuration("SITEFORGE_CERTIFICATE_POLL", 30*time.Second),
		DistributionPoll:  parseDuration("SITEFORGE_DISTRIBUTION_POLL", 60*time.Second),
		ReadAttempts:      parseInt("SITEFORGE_RETRY_READ_ATTEMPTS", 3),
		MutationAttempts:  parseInt("SITEFORGE_RETRY_MUTATION_ATTEMPTS", 2),
		RetryInitialDelay: parseDuration("SITEFORGE_RETRY_INITIAL_DELAY", 2*time.Second),
	}
}

// RetryPolicies returns the read and mutation policies with the configured
// attempt limits.
func (t Timeouts) RetryPolicies() (read, mutation retry.Policy) {
	read, mutation = retry.ReadPolicy(), retry.MutationPolicy()
	if t.ReadAttempts > 0 {
		read.MaxAttempts = t.ReadAttempts
	}
	if t.MutationAttempts > 0 {
		mutation.MaxAttempts = t.MutationAttempts
	}
	if t.RetryInitialDelay > 0 {
		read.InitialDelay = t.RetryInitialDelay
		mutation.InitialDelay = t.RetryInitialDelay
	}
	return read, mutation
}

// parseDuration parses a duration from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}

	return d
}

// parseInt parses an integer from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseInt(envVar string, defaultVal int) int {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}

	return i
}
