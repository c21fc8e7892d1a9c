package dynamics

import (
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/stride/internal/dynamo"
)

// DerivativeCheck holds the largest deviation of each analytical
// derivative from central finite differences, relative to the size of the
// finite-difference Jacobian.
type DerivativeCheck struct {
	Fx   float64
	Fu   float64
	DfDx float64
	DfDu float64
}

func (c DerivativeCheck) Worst() float64 {
	return math.Max(math.Max(c.Fx, c.Fu), math.Max(c.DfDx, c.DfDu))
}

// CheckDerivatives compares CalcDiff at (x, u) with finite differences of
// Calc. eps <= 0 uses the default step of the central formula.
func CheckDerivatives(f *ContactFwd, x dynamo.State, u dynamo.Control, eps float64) (DerivativeCheck, error) {
	var c DerivativeCheck
	d := f.CreateData()
	if err := f.Calc(d, x, u); err != nil {
		return c, err
	}
	if err := f.CalcDiff(d, x, u); err != nil {
		return c, err
	}
	nv, nu, nc := f.Model.NV(), f.NU(), len(d.Lambda)

	var calcErr error
	scratch := f.CreateData()
	out := func(xs dynamo.State, us dynamo.Control, res []float64) {
		if err := f.Calc(scratch, xs, us); err != nil {
			calcErr = err
			return
		}
		copy(res, scratch.Xout)
		copy(res[nv:], scratch.Lambda)
	}
	settings := &fd.JacobianSettings{Formula: fd.Central, Step: math.Max(eps, 0)}
	fdx := mat.NewDense(nv+nc, 2*nv, nil)
	fd.Jacobian(fdx, func(res, xs []float64) { out(xs, u, res) }, x, settings)
	fdu := mat.NewDense(nv+nc, nu, nil)
	fd.Jacobian(fdu, func(res, us []float64) { out(x, us, res) }, u, settings)
	if calcErr != nil {
		return c, calcErr
	}

	rel := func(got, want mat.Matrix) float64 {
		scale := math.Max(1, mat.Norm(want, math.Inf(1)))
		return maxAbsDiff(got, want) / scale
	}
	c.Fx = rel(d.Fx, fdx.Slice(0, nv, 0, 2*nv))
	c.Fu = rel(d.Fu, fdu.Slice(0, nv, 0, nu))
	if nc > 0 {
		c.DfDx = rel(d.DfDx, fdx.Slice(nv, nv+nc, 0, 2*nv))
		c.DfDu = rel(d.DfDu, fdu.Slice(nv, nv+nc, 0, nu))
	}
	return c, nil
}

func maxAbsDiff(a, b mat.Matrix) float64 {
	var diff mat.Dense
	diff.Sub(a, b)
	return floats.Norm(diff.RawMatrix().Data, math.Inf(1))
}
