package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// styleFunc is a single-string styling function.
type styleFunc func(string) string

// sf wraps a lipgloss.Style into a styleFunc.
func sf(s lipgloss.Style) styleFunc {
	return func(str string) string { return s.Render(str) }
}

func renderView(m Model) string {
	var b strings.Builder

	renderHeader(&b, m)
	renderProgressBar(&b, m)
	renderSteps(&b, m)

	if len(m.Resources) > 0 {
		renderResources(&b, m)
	}
	if m.Result != nil {
		renderResult(&b, m)
	}

	renderFooter(&b, m)
	return b.String()
}

func renderHeader(b *strings.Builder, m Model) {
	title := fmt.Sprintf("siteforge: %s", m.Domain)
	if m.Bucket != "" {
		title += fmt.Sprintf(" (s3://%s)", m.Bucket)
	}
	b.WriteString(titleStyle.Render(title))

	status := " "
	switch {
	case m.Done:
		status += readyStyle.Render("Live")
	case m.Err != nil:
		status += failedStyle.Render(fmt.Sprintf("Error: %v", m.Err))
	default:
		if cur := m.current(); cur != nil {
			status += activeStyle.Render(currentSpinner(m.SpinnerFrame)+" ") + warningStyle.Render(cur.Name)
		} else {
			status += dimStyle.Render("Starting...")
		}
	}
	b.WriteString(status)
	b.WriteString("\n")
}

func renderProgressBar(b *strings.Builder, m Model) {
	progress := calculateProgress(m)
	barWidth := 40
	if m.Width > 0 && m.Width < 80 {
		barWidth = max(m.Width-30, 10)
	}
	filled := min(int(float64(barWidth)*progress), barWidth)

	bar := progressBarFull.Render(strings.Repeat("█", filled)) +
		progressBarEmpty.Render(strings.Repeat("░", barWidth-filled))

	eta := ""
	if m.EstimatedRemaining > 0 {
		eta = fmt.Sprintf(" ETA %s", formatDuration(m.EstimatedRemaining))
	}
	if m.PerformanceScale != 0 && m.PerformanceScale != 1.0 {
		eta += fmt.Sprintf("  speed x%.2f", m.PerformanceScale)
	}

	fmt.Fprintf(b, "  %s %d%%%s\n", bar, int(progress*100), eta)
}

func renderSteps(b *strings.Builder, m Model) {
	b.WriteString(sectionStyle.Render("  Steps"))
	b.WriteString("\n")

	for i, step := range m.Steps {
		icon, style := stepIcon(step.State, m.SpinnerFrame)

		extra := ""
		switch step.State {
		case StepDone, StepFailed:
			extra = dimStyle.Render(formatDuration(step.Duration))
		case StepActive:
			extra = dimStyle.Render(formatDuration(m.clock().Sub(step.StartedAt)))
			if step.Note != "" {
				extra += "  " + dimStyle.Render(step.Note)
			}
		case StepSkipped:
			extra = dimStyle.Render(step.Note)
		}

		label := fmt.Sprintf("%-20s", fmt.Sprintf("%s (%d/%d)", step.Name, i+1, len(m.Steps)))
		fmt.Fprintf(b, "    %s %s %s\n", style(icon), style(label), extra)
		if step.Err != nil {
			fmt.Fprintf(b, "         %s\n", failedStyle.Render(firstLine(step.Err.Error())))
		}
	}
}

func renderResources(b *strings.Builder, m Model) {
	b.WriteString(sectionStyle.Render("  Resources"))
	b.WriteString("\n")

	for _, r := range m.Resources {
		fmt.Fprintf(b, "    %s %-28s %s\n", readyStyle.Render(checkMark), r.Label, dimStyle.Render(r.ID))
	}
}

func renderResult(b *strings.Builder, m Model) {
	b.WriteString(sectionStyle.Render("  Live"))
	b.WriteString("\n")
	fmt.Fprintf(b, "    %s\n", readyStyle.Render(m.Result.URL))
	if len(m.Result.NameServers) > 0 {
		fmt.Fprintf(b, "    %s point your registrar at: %s\n",
			warningStyle.Render(warnMark), strings.Join(m.Result.NameServers, ", "))
	}
}

func renderFooter(b *strings.Builder, m Model) {
	parts := []string{fmt.Sprintf("elapsed: %s", formatDuration(m.clock().Sub(m.StartTime)))}
	if m.RunID != "" {
		parts = append(parts, "run: "+m.RunID)
	}
	b.WriteString(footerStyle.Render(fmt.Sprintf("  %s  |  q: quit", strings.Join(parts, "  |  "))))
	b.WriteString("\n")
}

// Helper functions

func stepIcon(state StepState, frame int) (string, styleFunc) {
	switch state {
	case StepDone:
		return checkMark, sf(readyStyle)
	case StepFailed:
		return crossMark, sf(failedStyle)
	case StepActive:
		return currentSpinner(frame), sf(activeStyle)
	case StepSkipped:
		return skipMark, sf(dimStyle)
	default:
		return pending, sf(dimStyle)
	}
}

func currentSpinner(frame int) string {
	if frame < 0 {
		frame = -frame
	}
	return spinnerFrames[frame%len(spinnerFrames)]
}

// calculateProgress weights steps by their expected duration, so the long
// waits move the bar the most.
func calculateProgress(m Model) float64 {
	if m.Done {
		return 1.0
	}

	var total, done float64
	for _, s := range m.Steps {
		if s.State == StepSkipped {
			continue
		}
		w := stepWeight(s.Name)
		total += w
		if s.State == StepDone {
			done += w
		}
	}
	if total == 0 {
		return 0
	}
	return min(done/total, 1.0)
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
