package integrators

import "github.com/san-kum/stride/internal/dynamo"

// Euler is the explicit Euler method.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t float64, dt float64) dynamo.State {
	dx := dyn.Derive(x, u, t)
	result := make(dynamo.State, len(x))
	for i := range x {
		result[i] = x[i] + dt*dx[i]
	}
	return result
}

// SemiImplicitEuler updates the velocity half of x first and moves the
// configuration with the new velocity. It is the scheme the horizon nodes
// integrate with.
type SemiImplicitEuler struct{}

func NewSemiImplicitEuler() *SemiImplicitEuler {
	return &SemiImplicitEuler{}
}

func (e *SemiImplicitEuler) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t float64, dt float64) dynamo.State {
	dx := dyn.Derive(x, u, t)
	half := len(x) / 2
	result := make(dynamo.State, len(x))
	for i := 0; i < half; i++ {
		vn := x[half+i] + dt*dx[half+i]
		result[half+i] = vn
		result[i] = x[i] + dt*vn
	}
	return result
}
