// Package residual evaluates task residuals of the walking robot with their
// derivatives with respect to the state and the control. They measure how
// a trajectory of the contact dynamics performs on a task, such as keeping
// the center of mass still or the center of pressure inside the feet.
package residual

import (
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/stride/internal/dynamics"
	"github.com/san-kum/stride/internal/dynamo"
	"github.com/san-kum/stride/internal/multibody"
)

// Residual is a vector function r(x, u) with analytical derivatives.
type Residual interface {
	NR() int
	NX() int
	NU() int
	CreateData() *Data
	Calc(d *Data, x dynamo.State, u dynamo.Control) error
	// CalcDiff fills Rx and Ru. It assumes Calc ran at (x, u).
	CalcDiff(d *Data, x dynamo.State, u dynamo.Control) error
}

// Data is the scratch of one residual evaluation.
type Data struct {
	R []float64
	// Rx (nr x nx) and Ru (nr x nu) are the residual derivatives.
	Rx *mat.Dense
	Ru *mat.Dense

	engine *multibody.Data
	fwd    *dynamics.ContactFwdData
}

func newData(nr, nx, nu int) *Data {
	d := &Data{R: make([]float64, nr), Rx: mat.NewDense(nr, nx, nil)}
	if nu > 0 {
		d.Ru = mat.NewDense(nr, nu, nil)
	} else {
		d.Ru = &mat.Dense{}
	}
	return d
}

func checkDims(r Residual, x dynamo.State, u dynamo.Control) error {
	if len(x) != r.NX() {
		return dynamo.DimError("state", len(x), r.NX())
	}
	if len(u) != r.NU() {
		return dynamo.DimError("control", len(u), r.NU())
	}
	return nil
}

// Norm returns the Euclidean norm of the last residual.
func (d *Data) Norm() float64 {
	return mat.Norm(mat.NewVecDense(len(d.R), d.R), 2)
}
