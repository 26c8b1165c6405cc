// Package tui provides a Bubble Tea-based terminal UI for pipeline runs.
package tui

import "github.com/imamik/siteforge/internal/pipeline"

// EventMsg carries one pipeline event.
type EventMsg struct {
	Event pipeline.Event
}

// TickMsg is sent periodically to refresh the display.
type TickMsg struct{}

// ErrMsg carries an error.
type ErrMsg struct{ Err error }

// DoneMsg signals that the run completed.
type DoneMsg struct {
	Result pipeline.Result
}
