package handlers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/siteforge/internal/config"
	"github.com/imamik/siteforge/internal/errdefs"
	"github.com/imamik/siteforge/internal/registrar"
	"github.com/imamik/siteforge/internal/ui/tui"
	"github.com/imamik/siteforge/internal/util/prerequisites"
)

func findCheck(t *testing.T, checks []tui.DoctorCheck, name string) tui.DoctorCheck {
	t.Helper()
	for _, c := range checks {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("no check %q in %+v", name, checks)
	return tui.DoctorCheck{}
}

func TestDoctor_Ready(t *testing.T) {
	settings := testSettings()
	settings.Source = "siteforge.yaml"
	settings.AWS.Bucket = "site"
	settings.AWS.AccessKeyID = "AKIA"
	settings.AWS.SecretAccessKey = "secret"
	stubEnvironment(t, settings, newFakeAWS(), nil)

	var checked []prerequisites.Tool
	checkTools = func(tools []prerequisites.Tool) *prerequisites.CheckResults {
		checked = tools
		res := &prerequisites.CheckResults{}
		for _, tool := range tools {
			res.Results = append(res.Results, prerequisites.CheckResult{Tool: tool, Found: true, Version: "v1"})
		}
		return res
	}

	var err error
	output := captureOutput(func() {
		err = Doctor(context.Background(), testGlobals(), "")
	})
	require.NoError(t, err)

	assert.Contains(t, output, "siteforge doctor")
	assert.Contains(t, output, "registrar godaddy")
	assert.Contains(t, output, "static keys")
	assert.Contains(t, output, "Ready to deploy.")

	var names []string
	for _, tool := range checked {
		names = append(names, tool.Name)
	}
	assert.Contains(t, names, "pnpm")
}

func TestDoctor_MissingCredentials(t *testing.T) {
	settings := testSettings()
	settings.GoDaddy.APISecret = "your_api_secret_here"
	stubEnvironment(t, settings, newFakeAWS(), nil)

	var err error
	output := captureOutput(func() {
		err = Doctor(context.Background(), testGlobals(), "")
	})
	require.Error(t, err)
	assert.True(t, errdefs.IsValidation(err))
	assert.Contains(t, output, "GODADDY_API_SECRET")
	assert.NotContains(t, output, "Ready to deploy.")
}

func TestDoctor_MissingRequiredTool(t *testing.T) {
	stubEnvironment(t, testSettings(), newFakeAWS(), nil)
	checkTools = func(tools []prerequisites.Tool) *prerequisites.CheckResults {
		res := &prerequisites.CheckResults{}
		for _, tool := range tools {
			res.Results = append(res.Results, prerequisites.CheckResult{Tool: tool})
			res.Missing = append(res.Missing, tool)
		}
		return res
	}

	var err error
	captureOutput(func() {
		err = Doctor(context.Background(), testGlobals(), "yarn build")
	})
	require.Error(t, err)
}

func TestConfigChecks(t *testing.T) {
	t.Run("unreadable config", func(t *testing.T) {
		stubEnvironment(t, testSettings(), newFakeAWS(), nil)
		resolveSettings = func(string) (*config.Settings, error) {
			return nil, errors.New("failed to read config file: boom")
		}

		checks := configChecks(testGlobals())
		require.Len(t, checks, 1)
		assert.False(t, checks[0].OK)
		assert.False(t, checks[0].Warn)
		assert.Contains(t, checks[0].Detail, "boom")
	})

	t.Run("environment only", func(t *testing.T) {
		stubEnvironment(t, testSettings(), newFakeAWS(), nil)

		checks := configChecks(testGlobals())
		file := findCheck(t, checks, "config file")
		assert.False(t, file.OK)
		assert.True(t, file.Warn)

		aws := findCheck(t, checks, "aws credentials")
		assert.True(t, aws.Warn)
		assert.Contains(t, aws.Detail, "default credential chain")

		bucket := findCheck(t, checks, "default bucket")
		assert.Equal(t, "not set, pass --bucket", bucket.Detail)

		assert.Equal(t, "eu-central-1", findCheck(t, checks, "aws region").Detail)
		assert.Equal(t, "sandbox", findCheck(t, checks, "registrar godaddy").Detail)
	})

	t.Run("provider override and profile", func(t *testing.T) {
		settings := testSettings()
		settings.AWS.Profile = "sites"
		stubEnvironment(t, settings, newFakeAWS(), nil)

		g := testGlobals()
		g.Provider = "route53"
		checks := configChecks(g)

		r := findCheck(t, checks, "registrar "+registrar.ProviderRoute53)
		assert.True(t, r.OK)
		assert.Equal(t, "production, purchases are charged", r.Detail)
		assert.Equal(t, "profile sites", findCheck(t, checks, "aws credentials").Detail)
	})
}

func TestValidationMessage(t *testing.T) {
	t.Parallel()

	err := errdefs.New(errdefs.KindValidation, "validate config", "token missing")
	assert.Equal(t, "token missing", validationMessage(err))
	assert.Equal(t, "plain", validationMessage(errors.New("plain")))
}
