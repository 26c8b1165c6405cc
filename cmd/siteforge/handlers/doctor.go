package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/imamik/siteforge/internal/build"
	"github.com/imamik/siteforge/internal/config"
	"github.com/imamik/siteforge/internal/errdefs"
	"github.com/imamik/siteforge/internal/ui/tui"
	"github.com/imamik/siteforge/internal/util/prerequisites"
)

// Doctor checks the local toolchain and the configuration without touching
// any remote API. buildCommand selects the tools to look for.
func Doctor(_ context.Context, g Globals, buildCommand string) error {
	tools := append(prerequisites.ForCommands(orDefault(buildCommand, build.DefaultBuildCommand)), prerequisites.OptionalTools()...)
	results := checkTools(tools)

	checks := configChecks(g)

	fmt.Print(tui.RenderDoctorOnce(results, checks))
	fmt.Println()

	if tui.DoctorFailed(results, checks) {
		return errdefs.New(errdefs.KindValidation, "doctor", "blocking problems found")
	}
	fmt.Println("Ready to deploy.")
	return nil
}

// configChecks resolves the settings and reports what a deployment would
// run into.
func configChecks(g Globals) []tui.DoctorCheck {
	s, err := resolveSettings(g.ConfigPath)
	if err != nil {
		return []tui.DoctorCheck{{Name: "config file", Detail: err.Error()}}
	}
	if g.Provider != "" {
		s.Provider = strings.ToLower(strings.TrimSpace(g.Provider))
	}

	source := s.Source
	if source == "" {
		source = "none, using environment"
	}
	checks := []tui.DoctorCheck{{Name: "config file", OK: s.Source != "", Detail: source, Warn: true}}

	registrarCheck := tui.DoctorCheck{Name: "registrar " + s.Provider, OK: true, Detail: registrarMode(s)}
	if err := s.Validate(); err != nil {
		registrarCheck.OK = false
		registrarCheck.Detail = validationMessage(err)
	}
	checks = append(checks, registrarCheck)

	awsCheck := tui.DoctorCheck{Name: "aws credentials", OK: true, Detail: "static keys"}
	switch {
	case s.HasAWSCredentials():
	case s.AWS.Profile != "":
		awsCheck.Detail = "profile " + s.AWS.Profile
	default:
		awsCheck.OK, awsCheck.Warn = false, true
		awsCheck.Detail = "none configured, using the default credential chain"
	}
	checks = append(checks, awsCheck)

	bucket := tui.DoctorCheck{Name: "default bucket", OK: s.AWS.Bucket != "", Detail: s.AWS.Bucket, Warn: true}
	if !bucket.OK {
		bucket.Detail = "not set, pass --bucket"
	}
	checks = append(checks, bucket)

	return append(checks, tui.DoctorCheck{Name: "aws region", OK: true, Detail: s.AWS.Region})
}

func registrarMode(s *config.Settings) string {
	if s.IsProduction() {
		return "production, purchases are charged"
	}
	return "sandbox"
}

// validationMessage strips the operation prefix of an errdefs error.
func validationMessage(err error) string {
	var e *errdefs.Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
