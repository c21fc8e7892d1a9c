package integrators

import "github.com/san-kum/stride/internal/dynamo"

// Verlet is position Verlet (drift, kick, drift) for x = [q; v]. It takes
// one derivative per step, at the half-step configuration.
type Verlet struct {
	mid dynamo.State
}

func NewVerlet() *Verlet {
	return &Verlet{}
}

func (v *Verlet) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	n := len(x)
	half := n / 2
	if len(v.mid) != n {
		v.mid = make(dynamo.State, n)
	}

	copy(v.mid, x)
	for i := 0; i < half; i++ {
		v.mid[i] += 0.5 * dt * x[half+i]
	}
	dx := dyn.Derive(v.mid, u, t+0.5*dt)

	result := make(dynamo.State, n)
	for i := 0; i < half; i++ {
		vn := x[half+i] + dt*dx[half+i]
		result[half+i] = vn
		result[i] = v.mid[i] + 0.5*dt*vn
	}
	return result
}
