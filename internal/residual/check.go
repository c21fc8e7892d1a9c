package residual

import (
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/stride/internal/dynamo"
)

// CheckDerivatives returns the largest deviation of Rx and Ru at (x, u)
// from central finite differences of Calc, relative to the size of the
// finite-difference Jacobians. eps <= 0 uses the default step.
func CheckDerivatives(r Residual, x dynamo.State, u dynamo.Control, eps float64) (dx, du float64, err error) {
	d := r.CreateData()
	if err := r.Calc(d, x, u); err != nil {
		return 0, 0, err
	}
	if err := r.CalcDiff(d, x, u); err != nil {
		return 0, 0, err
	}

	var calcErr error
	scratch := r.CreateData()
	out := func(xs dynamo.State, us dynamo.Control, res []float64) {
		if err := r.Calc(scratch, xs, us); err != nil {
			calcErr = err
			return
		}
		copy(res, scratch.R)
	}
	settings := &fd.JacobianSettings{Formula: fd.Central, Step: math.Max(eps, 0)}
	fdx := mat.NewDense(r.NR(), r.NX(), nil)
	fd.Jacobian(fdx, func(res, xs []float64) { out(xs, u, res) }, x, settings)
	dx = relDiff(d.Rx, fdx)
	if r.NU() > 0 {
		fdu := mat.NewDense(r.NR(), r.NU(), nil)
		fd.Jacobian(fdu, func(res, us []float64) { out(x, us, res) }, u, settings)
		du = relDiff(d.Ru, fdu)
	}
	return dx, du, calcErr
}

func relDiff(got, want *mat.Dense) float64 {
	var diff mat.Dense
	diff.Sub(got, want)
	scale := math.Max(1, mat.Norm(want, math.Inf(1)))
	return floats.Norm(diff.RawMatrix().Data, math.Inf(1)) / scale
}
