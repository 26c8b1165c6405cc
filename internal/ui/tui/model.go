package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/imamik/siteforge/internal/pipeline"
	"github.com/imamik/siteforge/internal/ui/benchmarks"
)

// StepState is the display state of a step.
type StepState int

// Step states.
const (
	StepPending StepState = iota
	StepActive
	StepDone
	StepSkipped
	StepFailed
)

// Step is one pipeline step for display.
type Step struct {
	Name      string
	State     StepState
	StartedAt time.Time
	Duration  time.Duration
	Note      string // skip reason or latest progress message
	Err       error
}

// Resource is a resource a step created or reused.
type Resource struct {
	Step  string
	Label string
	ID    string
}

// Model is the Bubble Tea model for the pipeline dashboard.
type Model struct {
	Domain string
	Bucket string
	RunID  string

	Steps     []Step
	Resources []Resource
	Result    *pipeline.Result

	// ETA
	EstimatedRemaining time.Duration
	PerformanceScale   float64
	StartTime          time.Time

	// Animation
	SpinnerFrame int

	// UI state
	Width  int
	Height int
	Err    error
	Done   bool

	now func() time.Time
}

// NewPipelineModel creates a model for a pipeline run.
func NewPipelineModel(domain, bucket string) Model {
	steps := make([]Step, len(pipeline.Steps))
	for i, name := range pipeline.Steps {
		steps[i] = Step{Name: name}
	}
	return Model{
		Domain:           domain,
		Bucket:           bucket,
		Steps:            steps,
		StartTime:        time.Now(),
		PerformanceScale: 1.0,
		now:              time.Now,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case EventMsg:
		m.applyEvent(msg.Event)
		m.updateETA()

	case TickMsg:
		m.SpinnerFrame++
		m.updateETA()
		return m, tickCmd()

	case ErrMsg:
		m.Err = msg.Err
		return m, tea.Quit

	case DoneMsg:
		m.Done = true
		m.Result = &msg.Result
		m.EstimatedRemaining = 0
		return m, tea.Quit
	}

	return m, nil
}

func (m *Model) applyEvent(e pipeline.Event) {
	if e.RunID != "" {
		m.RunID = e.RunID
	}

	step := m.step(e.Step)
	switch e.Type {
	case pipeline.EventRunFailed:
		m.Err = e.Err
	case pipeline.EventStepStarted:
		if step != nil {
			step.State = StepActive
			step.StartedAt = m.clock()
		}
	case pipeline.EventStepCompleted:
		if step != nil {
			step.State = StepDone
			step.Duration = e.Duration
		}
	case pipeline.EventStepSkipped:
		if step != nil {
			step.State = StepSkipped
			step.Note = e.Message
		}
	case pipeline.EventStepFailed:
		if step != nil {
			step.State = StepFailed
			step.Duration = e.Duration
			step.Err = e.Err
		}
	case pipeline.EventResourceReady:
		m.Resources = append(m.Resources, Resource{Step: e.Step, Label: e.Message, ID: e.Resource})
	case pipeline.EventProgress:
		if step != nil {
			step.Note = e.Message
		}
	}
}

func (m *Model) step(name string) *Step {
	for i := range m.Steps {
		if m.Steps[i].Name == name {
			return &m.Steps[i]
		}
	}
	return nil
}

// current returns the active step, or nil.
func (m *Model) current() *Step {
	for i := range m.Steps {
		if m.Steps[i].State == StepActive {
			return &m.Steps[i]
		}
	}
	return nil
}

func (m *Model) updateETA() {
	cur := m.current()
	if cur == nil || m.Done {
		m.EstimatedRemaining = 0
		return
	}

	var history []benchmarks.Record
	for _, s := range m.Steps {
		switch s.State {
		case StepDone:
			history = append(history, benchmarks.Record{Step: s.Name, Duration: s.Duration})
		case StepSkipped:
			history = append(history, benchmarks.Record{Step: s.Name, Skipped: true})
		}
	}

	elapsed := m.clock().Sub(cur.StartedAt)
	m.PerformanceScale = benchmarks.PerformanceScale(cur.Name, elapsed, history)
	m.EstimatedRemaining = benchmarks.EstimateRemainingWithScale(cur.Name, elapsed, history, m.PerformanceScale)
}

func (m *Model) clock() time.Time {
	if m.now == nil {
		return time.Now()
	}
	return m.now()
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// View implements tea.Model.
func (m Model) View() string {
	return renderView(m)
}

func stepWeight(step string) float64 {
	if d, ok := benchmarks.StepExpectedDuration(step); ok {
		return d.Seconds()
	}
	return 1
}
