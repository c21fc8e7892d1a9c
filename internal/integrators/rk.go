package integrators

import "github.com/san-kum/stride/internal/dynamo"

// ExplicitRK is an explicit Runge-Kutta method given by its Butcher
// tableau. Stage derivatives are kept between steps.
type ExplicitRK struct {
	a     [][]float64
	b     []float64
	c     []float64
	k     []dynamo.State
	stage dynamo.State
}

func NewRK4() *ExplicitRK {
	return &ExplicitRK{
		a: [][]float64{{}, {0.5}, {0, 0.5}, {0, 0, 1}},
		b: []float64{1.0 / 6, 1.0 / 3, 1.0 / 3, 1.0 / 6},
		c: []float64{0, 0.5, 0.5, 1},
	}
}

// NewMidpoint is the two-stage explicit midpoint method.
func NewMidpoint() *ExplicitRK {
	return &ExplicitRK{
		a: [][]float64{{}, {0.5}},
		b: []float64{0, 1},
		c: []float64{0, 0.5},
	}
}

func (r *ExplicitRK) ensureScratch(n int) {
	if len(r.stage) == n {
		return
	}
	r.stage = make(dynamo.State, n)
	r.k = make([]dynamo.State, len(r.b))
	for s := range r.k {
		r.k[s] = make(dynamo.State, n)
	}
}

func (r *ExplicitRK) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	n := len(x)
	r.ensureScratch(n)

	for s := range r.b {
		copy(r.stage, x)
		for j, a := range r.a[s] {
			if a == 0 {
				continue
			}
			for i := 0; i < n; i++ {
				r.stage[i] += dt * a * r.k[j][i]
			}
		}
		copy(r.k[s], dyn.Derive(r.stage, u, t+r.c[s]*dt))
	}

	result := x.Clone()
	for s, b := range r.b {
		if b == 0 {
			continue
		}
		for i := 0; i < n; i++ {
			result[i] += dt * b * r.k[s][i]
		}
	}
	return result
}
