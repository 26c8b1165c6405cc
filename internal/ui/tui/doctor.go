package tui

import (
	"fmt"
	"strings"

	"github.com/imamik/siteforge/internal/util/prerequisites"
)

// DoctorCheck is one line of the doctor report beyond tool lookups.
type DoctorCheck struct {
	Name   string
	OK     bool
	Detail string
	// Warn marks a failed check that does not block deployments.
	Warn bool
}

// RenderDoctorOnce renders the doctor report: tool lookups followed by
// configuration and credential checks.
func RenderDoctorOnce(tools *prerequisites.CheckResults, checks []DoctorCheck) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("siteforge doctor"))
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render("  Tools"))
	b.WriteString("\n")
	for _, r := range tools.Results {
		var icon string
		var style styleFunc
		detail := r.Version
		switch {
		case r.Found:
			icon, style = checkMark, sf(readyStyle)
		case r.Tool.Required:
			icon, style = crossMark, sf(failedStyle)
			detail = "missing: " + r.Tool.InstallURL
		default:
			icon, style = warnMark, sf(warningStyle)
			detail = "optional: " + r.Tool.Description
		}
		fmt.Fprintf(&b, "    %s %-12s %s\n", style(icon), style(r.Tool.Name), dimStyle.Render(detail))
	}

	if len(checks) > 0 {
		b.WriteString(sectionStyle.Render("  Configuration"))
		b.WriteString("\n")
		for _, c := range checks {
			icon, style := checkMark, sf(readyStyle)
			if !c.OK {
				icon, style = crossMark, sf(failedStyle)
				if c.Warn {
					icon, style = warnMark, sf(warningStyle)
				}
			}
			fmt.Fprintf(&b, "    %s %-24s %s\n", style(icon), style(c.Name), dimStyle.Render(c.Detail))
		}
	}

	return b.String()
}

// DoctorFailed reports whether any blocking check failed.
func DoctorFailed(tools *prerequisites.CheckResults, checks []DoctorCheck) bool {
	if tools.HasErrors() {
		return true
	}
	for _, c := range checks {
		if !c.OK && !c.Warn {
			return true
		}
	}
	return false
}
