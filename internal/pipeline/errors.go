package pipeline

import (
	"errors"
	"fmt"
)

// ErrPurchaseDeclined stops a run whose domain purchase was not confirmed.
var ErrPurchaseDeclined = errors.New("domain purchase declined")

// Error reports the step a run failed in. It unwraps to the cause, so
// errdefs.KindOf still classifies it.
type Error struct {
	Step string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("pipeline step %q failed: %v", e.Step, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// FailedStep returns the step named by a pipeline error, or "".
func FailedStep(err error) string {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Step
	}
	return ""
}
