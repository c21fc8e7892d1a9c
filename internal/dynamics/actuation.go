// Package dynamics provides contact-constrained forward dynamics and its
// time-integrated form, with analytical derivatives for shooting solvers.
package dynamics

import (
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/stride/internal/dynamo"
)

// Actuation maps controls to generalized forces: tau = S u.
type Actuation struct {
	// S is the nv x nu selection matrix.
	S *mat.Dense
}

// NewFloatingBaseActuation actuates every joint but the first base joints.
func NewFloatingBaseActuation(nv, base int) *Actuation {
	nu := nv - base
	s := mat.NewDense(nv, nu, nil)
	for i := 0; i < nu; i++ {
		s.Set(base+i, i, 1)
	}
	return &Actuation{S: s}
}

// NewFullActuation actuates every joint.
func NewFullActuation(nv int) *Actuation {
	return NewFloatingBaseActuation(nv, 0)
}

func (a *Actuation) NV() int {
	r, _ := a.S.Dims()
	return r
}

func (a *Actuation) NU() int {
	_, c := a.S.Dims()
	return c
}

// Calc writes S u into tau.
func (a *Actuation) Calc(tau []float64, u dynamo.Control) error {
	if len(u) != a.NU() {
		return dynamo.DimError("control", len(u), a.NU())
	}
	out := mat.NewVecDense(len(tau), tau)
	out.MulVec(a.S, mat.NewVecDense(len(u), u))
	return nil
}
