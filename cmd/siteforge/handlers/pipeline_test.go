package handlers

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/imamik/siteforge/internal/errdefs"
	"github.com/imamik/siteforge/internal/pipeline"
	"github.com/imamik/siteforge/internal/registrar"
	sftesting "github.com/imamik/siteforge/internal/testing"
	"github.com/imamik/siteforge/internal/ui/tui"
)

// writeContactFile writes a valid contact to a temporary JSON file.
func writeContactFile(t *testing.T) string {
	t.Helper()
	data, err := json.Marshal(sftesting.NewContactBuilder().Build())
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "contact.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestPipeline_LiveSite(t *testing.T) {
	fakes := newFakeAWS()
	stubEnvironment(t, testSettings(), fakes, nil)

	textfile := filepath.Join(t.TempDir(), "siteforge.prom")
	var err error
	output := captureOutput(func() {
		err = Pipeline(context.Background(), testGlobals(), PipelineOptions{
			AppDir:          sftesting.StaticSite(t),
			Bucket:          "my-website-bucket",
			Domain:          "my-app.com",
			SkipBuild:       true,
			MetricsTextfile: textfile,
		})
	})
	require.NoError(t, err)

	assert.Contains(t, output, "Site is live")
	assert.Contains(t, output, "https://my-app.com")
	assert.Contains(t, output, "Make sure the registrar delegates the domain to:")
	assert.Contains(t, output, "eu-central-1")

	assert.Equal(t, []string{"404.html", "index.html"}, fakes.S3.Keys("my-website-bucket"))
	assert.True(t, fakes.S3.Website("my-website-bucket"))
	require.Len(t, fakes.CloudFront.Created(), 1)
	assert.Equal(t, []string{"my-app.com"}, fakes.CloudFront.Created()[0].Aliases.Items)
	assert.Equal(t, 1, fakes.Route53.ZoneCount())

	metrics, err := os.ReadFile(textfile)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "siteforge_pipeline_steps_total")
}

func TestPipeline_DefaultBucketFromConfig(t *testing.T) {
	fakes := newFakeAWS()
	settings := testSettings()
	settings.AWS.Bucket = "configured-bucket"
	stubEnvironment(t, settings, fakes, nil)

	var err error
	captureOutput(func() {
		err = Pipeline(context.Background(), testGlobals(), PipelineOptions{
			AppDir:    sftesting.StaticSite(t),
			Domain:    "my-app.com",
			SkipBuild: true,
		})
	})
	require.NoError(t, err)
	assert.NotEmpty(t, fakes.S3.Keys("configured-bucket"))
}

func TestPipeline_RegisterNeedsConfirmation(t *testing.T) {
	stubEnvironment(t, testSettings(), newFakeAWS(), nil)

	err := Pipeline(context.Background(), testGlobals(), PipelineOptions{
		AppDir:      t.TempDir(),
		Bucket:      "b",
		Domain:      "my-app.com",
		Register:    true,
		ContactFile: writeContactFile(t),
		Years:       1,
	})
	require.Error(t, err)
	assert.True(t, errdefs.IsValidation(err))
	assert.Contains(t, err.Error(), "--yes")
}

func TestPipeline_RegisterWithYes(t *testing.T) {
	fakes := newFakeAWS()
	provider := sftesting.NewMockProvider(registrar.ProviderGoDaddy).
		WithAvailable("my-app.com", 11.99).
		WithPurchase("my-app.com", "order-1")
	stubEnvironment(t, testSettings(), fakes, provider)

	var err error
	output := captureOutput(func() {
		err = Pipeline(context.Background(), testGlobals(), PipelineOptions{
			AppDir:      sftesting.StaticSite(t),
			Bucket:      "my-website-bucket",
			Domain:      "my-app.com",
			Register:    true,
			ContactFile: writeContactFile(t),
			Years:       1,
			Yes:         true,
			SkipBuild:   true,
		})
	})
	require.NoError(t, err)
	assert.Contains(t, output, "https://my-app.com")
	provider.AssertCalled(t, "Purchase", mock.Anything, mock.MatchedBy(func(r registrar.PurchaseRequest) bool {
		return r.Domain == "my-app.com" && r.Years == 1
	}))
}

func TestPipeline_BadContactFile(t *testing.T) {
	stubEnvironment(t, testSettings(), newFakeAWS(), nil)

	err := Pipeline(context.Background(), testGlobals(), PipelineOptions{
		Domain:      "my-app.com",
		Register:    true,
		ContactFile: filepath.Join(t.TempDir(), "missing.json"),
		Yes:         true,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load contact")
}

func TestPipeline_UsesDashboardOnTerminal(t *testing.T) {
	fakes := newFakeAWS()
	stubEnvironment(t, testSettings(), fakes, nil)
	stdoutIsTerminal = func() bool { return true }

	origRunTUI := runTUI
	t.Cleanup(func() { runTUI = origRunTUI })

	var gotDomain, gotBucket string
	runTUI = func(ctx context.Context, run tui.RunFunc, domain, bucket string) (pipeline.Result, error) {
		gotDomain, gotBucket = domain, bucket
		return run(ctx, nil)
	}

	var err error
	output := captureOutput(func() {
		err = Pipeline(context.Background(), testGlobals(), PipelineOptions{
			AppDir:    sftesting.StaticSite(t),
			Bucket:    "my-website-bucket",
			Domain:    "my-app.com",
			SkipBuild: true,
			TUI:       true,
		})
	})
	require.NoError(t, err)
	assert.Equal(t, "my-app.com", gotDomain)
	assert.Equal(t, "my-website-bucket", gotBucket)
	assert.Contains(t, output, "Site is live")
}

func TestPipeline_StepFailure(t *testing.T) {
	fakes := newFakeAWS()
	stubEnvironment(t, testSettings(), fakes, nil)

	var err error
	captureOutput(func() {
		err = Pipeline(context.Background(), testGlobals(), PipelineOptions{
			AppDir:    t.TempDir(),
			Bucket:    "my-website-bucket",
			Domain:    "my-app.com",
			SkipBuild: true,
		})
	})
	require.Error(t, err)
	assert.Equal(t, pipeline.StepBuild, pipeline.FailedStep(err))
	assert.Empty(t, fakes.CloudFront.Created())
}

func TestPositive(t *testing.T) {
	t.Parallel()

	assert.Equal(t, time.Minute, positive(0, time.Minute))
	assert.Equal(t, time.Second, positive(time.Second, time.Minute))
	assert.Equal(t, time.Minute, positive(-time.Second, time.Minute))
}
