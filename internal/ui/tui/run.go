package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/imamik/siteforge/internal/pipeline"
)

// RunFunc runs the pipeline, reporting events to obs.
type RunFunc func(ctx context.Context, obs pipeline.Observer) (pipeline.Result, error)

// Observer forwards pipeline events to a running program.
type Observer struct {
	program *tea.Program
}

// Event implements pipeline.Observer.
func (o Observer) Event(e pipeline.Event) {
	o.program.Send(EventMsg{Event: e})
}

// RunPipelineTUI runs the pipeline behind a Bubble Tea dashboard. Quitting
// the dashboard cancels the run.
func RunPipelineTUI(ctx context.Context, run RunFunc, domain, bucket string) (pipeline.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := NewPipelineModel(domain, bucket)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	type outcome struct {
		res pipeline.Result
		err error
	}
	done := make(chan outcome, 1)

	go func() {
		res, err := run(ctx, Observer{program: p})
		done <- outcome{res: res, err: err}
		if err != nil {
			p.Send(ErrMsg{Err: err})
			return
		}
		p.Send(DoneMsg{Result: res})
	}()

	finalModel, err := p.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return pipeline.Result{}, fmt.Errorf("TUI error: %w", err)
	}

	// Quitting early cancels the run; wait for it to unwind.
	cancel()
	out := <-done

	if fm, ok := finalModel.(Model); ok && fm.Err != nil && out.err == nil {
		return out.res, fm.Err
	}
	return out.res, out.err
}
