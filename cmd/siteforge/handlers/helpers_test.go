package handlers

import (
	"bytes"
	"context"
	"io"
	"os"
	"testing"
	"time"

	"github.com/imamik/siteforge/internal/config"
	"github.com/imamik/siteforge/internal/platform/acm"
	awsplatform "github.com/imamik/siteforge/internal/platform/aws"
	"github.com/imamik/siteforge/internal/platform/cloudfront"
	"github.com/imamik/siteforge/internal/platform/route53"
	"github.com/imamik/siteforge/internal/platform/s3"
	"github.com/imamik/siteforge/internal/registrar"
	"github.com/imamik/siteforge/internal/util/prerequisites"
)

// captureOutput captures stdout during function execution.
func captureOutput(f func()) string {
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	done := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		done <- buf.String()
	}()

	f()

	w.Close()
	os.Stdout = old
	return <-done
}

// testGlobals returns globals that keep log output off the terminal.
func testGlobals() Globals {
	return Globals{console: io.Discard}
}

// testSettings returns valid godaddy settings with fast waits.
func testSettings() *config.Settings {
	return &config.Settings{
		Provider: registrar.ProviderGoDaddy,
		GoDaddy: config.GoDaddySettings{
			APIKey:      "key",
			APISecret:   "secret",
			Environment: config.GoDaddyOTE,
		},
		AWS: config.AWSSettings{Region: "eu-central-1"},
		Log: config.LogSettings{Level: "info"},
		Timeouts: config.Timeouts{
			Certificate:       5 * time.Second,
			Distribution:      5 * time.Second,
			Validation:        5 * time.Second,
			ValidationPoll:    time.Millisecond,
			CertificatePoll:   time.Millisecond,
			DistributionPoll:  time.Millisecond,
			ReadAttempts:      2,
			MutationAttempts:  1,
			RetryInitialDelay: time.Millisecond,
		},
	}
}

// fakeAWS bundles the in-memory AWS services.
type fakeAWS struct {
	ACM        *acm.FakeAPI
	Route53    *route53.FakeAPI
	CloudFront *cloudfront.FakeAPI
	S3         *s3.FakeAPI
}

func newFakeAWS() *fakeAWS {
	return &fakeAWS{
		ACM:        acm.NewFakeAPI(),
		Route53:    route53.NewFakeAPI(),
		CloudFront: cloudfront.NewFakeAPI(),
		S3:         s3.NewFakeAPI(),
	}
}

// stubEnvironment replaces the settings, AWS and registrar factories and
// restores them when the test ends. provider may be nil for commands that
// never reach a registrar.
func stubEnvironment(t *testing.T, settings *config.Settings, fakes *fakeAWS, provider registrar.Provider) {
	t.Helper()

	origResolve := resolveSettings
	origAWS := newAWSAPIs
	origProvider := newProvider
	origCheckTools := checkTools
	origTerminal := stdoutIsTerminal
	origInteractive := isInteractive
	t.Cleanup(func() {
		resolveSettings = origResolve
		newAWSAPIs = origAWS
		newProvider = origProvider
		checkTools = origCheckTools
		stdoutIsTerminal = origTerminal
		isInteractive = origInteractive
	})

	resolveSettings = func(string) (*config.Settings, error) {
		copied := *settings
		return &copied, nil
	}
	newAWSAPIs = func(context.Context, awsplatform.Settings) (*APIs, error) {
		return &APIs{
			ACM:        fakes.ACM,
			Route53:    fakes.Route53,
			CloudFront: fakes.CloudFront,
			S3:         fakes.S3,
			Region:     settings.AWS.Region,
		}, nil
	}
	newProvider = func(name string, _ registrar.Config, _ ...registrar.Option) (registrar.Provider, error) {
		if provider == nil {
			t.Fatalf("unexpected registrar %q", name)
		}
		return provider, nil
	}
	checkTools = func([]prerequisites.Tool) *prerequisites.CheckResults {
		return &prerequisites.CheckResults{}
	}
	stdoutIsTerminal = func() bool { return false }
	isInteractive = func() bool { return false }
}
