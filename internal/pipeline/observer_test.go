package pipeline

import (
	"errors"
	"testing"
	"time"

	"github.com/go-logr/logr/funcr"
	"github.com/stretchr/testify/assert"
)

func TestEvent_Label(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "build (3/10)", Event{Step: StepBuild, Index: 3, Total: 10}.Label())
	assert.Empty(t, Event{Type: EventRunStarted}.Label())
}

func TestObservers_FanOut(t *testing.T) {
	t.Parallel()

	var first, second []EventType
	obs := Observers{
		ObserverFunc(func(e Event) { first = append(first, e.Type) }),
		nil,
		ObserverFunc(func(e Event) { second = append(second, e.Type) }),
	}
	obs.Event(Event{Type: EventStepStarted})
	obs.Event(Event{Type: EventStepCompleted})

	want := []EventType{EventStepStarted, EventStepCompleted}
	assert.Equal(t, want, first)
	assert.Equal(t, want, second)
}

func TestLogObserver(t *testing.T) {
	t.Parallel()

	var lines []string
	log := funcr.New(func(prefix, args string) {
		lines = append(lines, args)
	}, funcr.Options{Verbosity: 1})
	o := NewLogObserver(log)

	o.Event(Event{Type: EventRunStarted, RunID: "01J", Total: 10})
	o.Event(Event{Type: EventStepStarted, Step: StepUpload, Index: 4, Total: 10})
	o.Event(Event{Type: EventStepCompleted, Step: StepUpload, Index: 4, Total: 10, Duration: 1500 * time.Millisecond})
	o.Event(Event{Type: EventStepSkipped, Step: StepInstall, Index: 1, Total: 10, Message: "install not requested"})
	o.Event(Event{Type: EventStepFailed, Step: StepBuild, Index: 3, Total: 10, Err: errors.New("exit 1")})
	o.Event(Event{Type: EventResourceReady, Step: StepUpload, Index: 4, Total: 10, Message: "bucket ready", Resource: "my-website-bucket"})

	if assert.Len(t, lines, 6) {
		assert.Contains(t, lines[0], "Starting pipeline with 10 steps")
		assert.Contains(t, lines[0], `"run"="01J"`)
		assert.Contains(t, lines[1], "[upload (4/10)] starting")
		assert.Contains(t, lines[2], "[upload (4/10)] completed in 1.5s")
		assert.Contains(t, lines[3], "install not requested")
		assert.Contains(t, lines[4], "[build (3/10)] failed")
		assert.Contains(t, lines[4], "exit 1")
		assert.Contains(t, lines[5], "my-website-bucket")
	}
}
