package dynamo

import (
	"math"
)

// State is the stacked vector x = [q; v].
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Split returns views of the configuration and velocity halves. The
// returned slices alias s.
func (s State) Split(nq int) (q, v []float64) {
	return s[:nq], s[nq:]
}

// Join stacks q and v into a fresh state.
func Join(q, v []float64) State {
	x := make(State, 0, len(q)+len(v))
	x = append(x, q...)
	return append(x, v...)
}

type Control []float64

func (u Control) Clone() Control {
	c := make(Control, len(u))
	copy(c, u)
	return c
}

type Controller interface {
	Compute(x State, t float64) Control
}

type Metric interface {
	Name() string
	Observe(x State, u Control, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(x State, u Control, t float64)
}

// System is a continuous-time system dX/dt = f(X, u, t).
type System interface {
	Derive(x State, u Control, t float64) State
	StateDim() int
	ControlDim() int
}

type Integrator interface {
	Step(dyn System, x State, u Control, t float64, dt float64) State
}
