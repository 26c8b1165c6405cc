package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/imamik/siteforge/internal/errdefs"
	"github.com/imamik/siteforge/internal/util/retry"
)

var settingsEnv = []string{
	"DOMAIN_PROVIDER", "GODADDY_API_KEY", "GODADDY_API_SECRET", "GODADDY_ENV",
	"DNSIMPLE_API_TOKEN", "DNSIMPLE_ACCOUNT_ID", "DNSIMPLE_SANDBOX", "DNSIMPLE_REGISTRANT_ID",
	"AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY", "AWS_SESSION_TOKEN", "AWS_REGION",
	"AWS_PROFILE", "AWS_ENDPOINT_URL", "AWS_S3_BUCKET", "LOG_LEVEL", "SITEFORGE_LOG_FILE",
	"SITEFORGE_CERTIFICATE_TIMEOUT", "SITEFORGE_DISTRIBUTION_TIMEOUT", "SITEFORGE_VALIDATION_TIMEOUT",
	"SITEFORGE_VALIDATION_POLL", "SITEFORGE_CERTIFICATE_POLL", "SITEFORGE_DISTRIBUTION_POLL",
	"SITEFORGE_RETRY_READ_ATTEMPTS", "SITEFORGE_RETRY_MUTATION_ATTEMPTS", "SITEFORGE_RETRY_INITIAL_DELAY",
}

// isolate clears the settings environment, swaps in an in-memory keyring
// and moves into an empty directory.
func isolate(t *testing.T) string {
	t.Helper()
	for _, k := range settingsEnv {
		t.Setenv(k, "")
	}
	keyring.MockInit()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_File(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, dir, "custom.yaml", `
provider: dnsimple
dnsimple:
  token: dns-token
  account_id: "1234"
  sandbox: false
aws:
  region: eu-west-1
  bucket: my-website-bucket
log:
  level: debug
`)

	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "dnsimple", s.Provider)
	assert.Equal(t, "dns-token", s.DNSimple.Token)
	assert.Equal(t, "1234", s.DNSimple.AccountID)
	assert.False(t, s.DNSimple.SandboxEnabled())
	assert.True(t, s.IsProduction())
	assert.Equal(t, "eu-west-1", s.AWS.Region)
	assert.Equal(t, "my-website-bucket", s.AWS.Bucket)
	assert.Equal(t, "debug", s.Log.Level)
	assert.Equal(t, path, s.Source)
	assert.Equal(t, GoDaddyOTE, s.GoDaddy.Environment)
}

func TestLoad_DefaultFile(t *testing.T) {
	dir := isolate(t)
	writeFile(t, dir, DefaultFile, "provider: route53\n")

	s, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "route53", s.Provider)
	assert.Equal(t, DefaultFile, s.Source)
}

func TestLoad_NoFile(t *testing.T) {
	isolate(t)
	t.Setenv("GODADDY_API_KEY", "key")
	t.Setenv("GODADDY_API_SECRET", "secret")

	s, err := Load("")
	require.NoError(t, err)
	assert.Empty(t, s.Source)
	assert.Equal(t, DefaultProvider, s.Provider)
	assert.Equal(t, DefaultRegion, s.AWS.Region)
	assert.Equal(t, DefaultLogLevel, s.Log.Level)
	assert.False(t, s.IsProduction())
	assert.True(t, s.DNSimple.SandboxEnabled())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, dir, "siteforge.yaml", `
provider: godaddy
godaddy:
  api_key: file-key
  api_secret: file-secret
aws:
  region: eu-west-1
`)
	t.Setenv("GODADDY_API_KEY", "env-key")
	t.Setenv("GODADDY_ENV", "production")
	t.Setenv("AWS_REGION", "us-west-2")
	t.Setenv("DNSIMPLE_REGISTRANT_ID", "42")

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-key", s.GoDaddy.APIKey)
	assert.Equal(t, "file-secret", s.GoDaddy.APISecret)
	assert.Equal(t, GoDaddyProduction, s.GoDaddy.Environment)
	assert.True(t, s.IsProduction())
	assert.Equal(t, "us-west-2", s.AWS.Region)
	assert.Equal(t, int64(42), s.DNSimple.RegistrantID)
}

func TestLoad_KeyringFallback(t *testing.T) {
	isolate(t)
	require.NoError(t, StoreSecret(SecretGoDaddyKey, "ring-key"))
	require.NoError(t, StoreSecret(SecretGoDaddySecret, "ring-secret"))
	t.Setenv("GODADDY_API_SECRET", "env-secret")

	s, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "ring-key", s.GoDaddy.APIKey)
	assert.Equal(t, "env-secret", s.GoDaddy.APISecret, "environment wins over keyring")
}

func TestLoad_Errors(t *testing.T) {
	dir := isolate(t)

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := writeFile(t, dir, "typo.yaml", "provder: godaddy\n")
	_, err = Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provder")

	t.Setenv("DNSIMPLE_SANDBOX", "maybe")
	_, err = Resolve("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DNSIMPLE_SANDBOX")
}

func TestLoad_PlaceholderCredentials(t *testing.T) {
	isolate(t)
	t.Setenv("GODADDY_API_KEY", "your_api_key_here")
	t.Setenv("GODADDY_API_SECRET", "real-secret")

	_, err := Load("")
	require.Error(t, err)
	assert.True(t, errdefs.IsValidation(err))
	assert.Contains(t, err.Error(), "GODADDY_API_KEY")
	assert.NotContains(t, err.Error(), "GODADDY_API_SECRET")

	s, err := Resolve("")
	require.NoError(t, err, "Resolve skips validation")
	assert.Equal(t, "your_api_key_here", s.GoDaddy.APIKey)
}

func TestSettings_Validate(t *testing.T) {
	t.Parallel()

	valid := func() Settings {
		s := Settings{
			Provider: "godaddy",
			GoDaddy:  GoDaddySettings{APIKey: "k", APISecret: "s"},
		}
		s.applyDefaults()
		return s
	}

	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr string
	}{
		{"valid godaddy", func(*Settings) {}, ""},
		{"route53 needs no registrar secrets", func(s *Settings) { s.Provider = "route53"; s.GoDaddy = GoDaddySettings{Environment: GoDaddyOTE} }, ""},
		{"dnsimple token", func(s *Settings) { s.Provider = "dnsimple" }, "DNSIMPLE_API_TOKEN"},
		{"dnsimple changeme", func(s *Settings) { s.Provider = "dnsimple"; s.DNSimple.Token = "CHANGEME" }, "DNSIMPLE_API_TOKEN"},
		{"unknown provider", func(s *Settings) { s.Provider = "namecheap" }, "unknown provider"},
		{"bad environment", func(s *Settings) { s.GoDaddy.Environment = "STAGING" }, "godaddy.environment"},
		{"half aws keys", func(s *Settings) { s.AWS.AccessKeyID = "AKIA" }, "set together"},
		{"bad log level", func(s *Settings) { s.Log.Level = "loud" }, "log level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := valid()
			tt.mutate(&s)
			err := s.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errdefs.IsValidation(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSettings_ValidatePlatform(t *testing.T) {
	t.Parallel()

	s := Settings{Provider: "dnsimple"}
	s.applyDefaults()
	assert.NoError(t, s.ValidatePlatform(), "registrar credentials are not needed")

	s.AWS.SecretAccessKey = "secret"
	err := s.ValidatePlatform()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "set together")
}

func TestIsPlaceholder(t *testing.T) {
	t.Parallel()
	for _, v := range []string{"", "  ", "your_api_key_here", "YOUR_API_SECRET_HERE", "changeme", "<token>"} {
		assert.True(t, IsPlaceholder(v), v)
	}
	for _, v := range []string{"dKy8_abc", "your-key", "changeme2"} {
		assert.False(t, IsPlaceholder(v), v)
	}
}

func TestSettings_Conversions(t *testing.T) {
	t.Parallel()

	sandbox := false
	s := Settings{
		Provider: "dnsimple",
		GoDaddy:  GoDaddySettings{APIKey: "k", APISecret: "s", Environment: GoDaddyProduction},
		DNSimple: DNSimpleSettings{Token: "t", AccountID: "99", Sandbox: &sandbox, RegistrantID: 7},
		AWS:      AWSSettings{Region: "eu-west-1", AccessKeyID: "AKIA", SecretAccessKey: "x", Endpoint: "http://localhost:4566"},
	}

	rc := s.RegistrarConfig(nil)
	assert.True(t, rc.GoDaddy.Production)
	assert.Equal(t, "k", rc.GoDaddy.APIKey)
	assert.False(t, rc.DNSimple.Sandbox)
	assert.Equal(t, int64(7), rc.DNSimple.RegistrantID)

	ac := s.AWSConfig()
	assert.Equal(t, "eu-west-1", ac.Region)
	assert.Equal(t, "http://localhost:4566", ac.Endpoint)
	assert.True(t, s.HasAWSCredentials())
}

func TestSecrets(t *testing.T) {
	keyring.MockInit()

	_, ok := LookupSecret(SecretDNSimpleToken)
	assert.False(t, ok)

	require.NoError(t, StoreSecret(SecretDNSimpleToken, "tok"))
	v, ok := LookupSecret(SecretDNSimpleToken)
	assert.True(t, ok)
	assert.Equal(t, "tok", v)

	require.NoError(t, DeleteSecret(SecretDNSimpleToken))
	require.NoError(t, DeleteSecret(SecretDNSimpleToken), "deleting twice is fine")
	_, ok = LookupSecret(SecretDNSimpleToken)
	assert.False(t, ok)
}

func TestLoadTimeouts(t *testing.T) {
	isolate(t)

	d := LoadTimeouts()
	assert.Equal(t, 30*time.Minute, d.Certificate)
	assert.Equal(t, 30*time.Minute, d.Distribution)
	assert.Equal(t, 5*time.Minute, d.Validation)
	assert.Equal(t, 5*time.Second, d.ValidationPoll)
	assert.Equal(t, 30*time.Second, d.CertificatePoll)
	assert.Equal(t, 60*time.Second, d.DistributionPoll)
	assert.Equal(t, 3, d.ReadAttempts)
	assert.Equal(t, 2, d.MutationAttempts)
	assert.Equal(t, 2*time.Second, d.RetryInitialDelay)

	read, _ := d.RetryPolicies()
	assert.Equal(t, retry.ReadPolicy().InitialDelay, read.InitialDelay, "the default matches the retry package")

	t.Setenv("SITEFORGE_CERTIFICATE_TIMEOUT", "45m")
	t.Setenv("SITEFORGE_DISTRIBUTION_POLL", "invalid")
	t.Setenv("SITEFORGE_RETRY_READ_ATTEMPTS", "5")
	t.Setenv("SITEFORGE_RETRY_MUTATION_ATTEMPTS", "0")
	t.Setenv("SITEFORGE_VALIDATION_TIMEOUT", "-1m")
	t.Setenv("SITEFORGE_RETRY_INITIAL_DELAY", "500ms")

	c := LoadTimeouts()
	assert.Equal(t, 45*time.Minute, c.Certificate)
	assert.Equal(t, 60*time.Second, c.DistributionPoll, "invalid values fall back")
	assert.Equal(t, 5, c.ReadAttempts)
	assert.Equal(t, 2, c.MutationAttempts, "attempts below one fall back")
	assert.Equal(t, 5*time.Minute, c.Validation, "negative durations fall back")

	read, mutation := c.RetryPolicies()
	assert.Equal(t, 5, read.MaxAttempts)
	assert.Equal(t, 2, mutation.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, read.InitialDelay)
	assert.Equal(t, 500*time.Millisecond, mutation.InitialDelay)
}
