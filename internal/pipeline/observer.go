package pipeline

import (
	"fmt"
	"time"

	"github.com/go-logr/logr"
)

// Observer receives the structured event stream of a run.
type Observer interface {
	Event(event Event)
}

// Event is one entry of a run's event stream.
type Event struct {
	Type      EventType
	RunID     string
	Step      string
	Index     int // 1-based position of Step
	Total     int
	Message   string
	Resource  string // identifier of the resource a step created or reused
	Duration  time.Duration
	Err       error
	Timestamp time.Time
	Fields    map[string]string
}

// Label renders the step position, e.g. "build (3/10)".
func (e Event) Label() string {
	if e.Step == "" {
		return ""
	}
	return fmt.Sprintf("%s (%d/%d)", e.Step, e.Index, e.Total)
}

// EventType classifies an Event.
type EventType string

const (
	// EventRunStarted is emitted once request validation passed.
	EventRunStarted EventType = "run.started"
	// EventRunCompleted carries the total duration of a successful run.
	EventRunCompleted EventType = "run.completed"
	// EventRunFailed carries the error that stopped the run.
	EventRunFailed EventType = "run.failed"

	EventStepStarted   EventType = "step.started"
	EventStepCompleted EventType = "step.completed"
	EventStepFailed    EventType = "step.failed"
	EventStepSkipped   EventType = "step.skipped"

	// EventResourceReady reports a resource a step created or found.
	EventResourceReady EventType = "resource.ready"
	// EventProgress reports progress inside a long step.
	EventProgress EventType = "progress"
)

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// Event implements Observer.
func (f ObserverFunc) Event(e Event) { f(e) }

// Observers fans events out to several observers in order.
type Observers []Observer

// Event implements Observer.
func (o Observers) Event(e Event) {
	for _, obs := range o {
		if obs != nil {
			obs.Event(e)
		}
	}
}

// LogObserver writes events to a logger.
type LogObserver struct {
	log logr.Logger
}

// NewLogObserver creates a LogObserver.
func NewLogObserver(log logr.Logger) *LogObserver {
	return &LogObserver{log: log}
}

// Event implements Observer.
func (o *LogObserver) Event(e Event) {
	log := o.log
	if e.RunID != "" {
		log = log.WithValues("run", e.RunID)
	}
	for k, v := range e.Fields {
		log = log.WithValues(k, v)
	}
	label := "[" + e.Label() + "]"

	switch e.Type {
	case EventRunStarted:
		log.Info(fmt.Sprintf("Starting pipeline with %d steps", e.Total), "message", e.Message)
	case EventRunCompleted:
		log.Info("Pipeline completed in " + e.Duration.Round(time.Millisecond).String())
	case EventRunFailed:
		log.Error(e.Err, "Pipeline failed", "step", e.Step)
	case EventStepStarted:
		log.Info(label + " starting")
	case EventStepCompleted:
		log.Info(label + " completed in " + e.Duration.Round(time.Millisecond).String())
	case EventStepSkipped:
		log.Info(label+" skipped", "reason", e.Message)
	case EventStepFailed:
		log.Error(e.Err, label+" failed")
	case EventResourceReady:
		log.Info(label+" "+e.Message, "resource", e.Resource)
	default:
		log.V(1).Info(label+" "+e.Message, "resource", e.Resource)
	}
}
