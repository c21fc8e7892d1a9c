// Package sim closes the loop between the walking controller and a
// simulated robot: every control tick the controller sees the measured
// state and the plant integrates the held control over one simulation
// step.
package sim

import (
	"fmt"

	"github.com/san-kum/stride/internal/dynamo"
	"github.com/san-kum/stride/internal/horizon"
	"github.com/san-kum/stride/internal/wbc"
)

type Config struct {
	// SimuStep is the integration step, one control tick.
	SimuStep float64
	Duration float64
	// ValidateState stops the run on the first NaN or Inf state.
	ValidateState bool
}

type Result struct {
	States   []dynamo.State
	Controls []dynamo.Control
	Times    []float64
	// Phases is the support phase applied to the plant at each tick.
	Phases  []horizon.Support
	Events  []wbc.Event
	Metrics map[string]float64
	// Errors collects solver failures the run recovered from and the
	// error that stopped it, if any.
	Errors     []error
	StepsTaken int
}

// SimError locates a failure in the run.
type SimError struct {
	Time    float64
	Step    int
	Message string
}

func (e SimError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %s", e.Step, e.Time, e.Message)
}
