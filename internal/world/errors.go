package world

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidStep  = errors.New("world: dt must be positive and finite")
	ErrUnstable     = errors.New("world: non-finite body state")
	ErrUnknownBody  = errors.New("world: unknown body")
	ErrUnknownJoint = errors.New("world: unknown joint")
)

// StepError reports a failure during a single Update.
type StepError struct {
	Step    int
	Time    float64
	Body    BodyID
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f) body %d: %v", e.Step, e.Time, e.Body, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
