package multibody

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/stride/internal/dynamo"
)

// centralDiff differentiates the inverse dynamics and frame kinematics.
// Evaluations share scratch buffers, so they must stay sequential.
var centralDiff = &fd.JacobianSettings{Formula: fd.Central, Step: 1e-6}

// rnea computes tau = M(q)a + b(q, v) - sum_j J_j^T fext_j with Newton-Euler
// wrenches projected through the joint axes. Nil fext is ignored.
func (m *Model) rnea(k *kinState, tau, q, v, a []float64, fext []Force) {
	m.kinematics(k, q, v, a)
	for i := range tau {
		tau[i] = 0
	}

	for i, b := range m.Bodies {
		oMi := k.oMi[i]
		if b.Mass != 0 || b.Inertia != (mgl64.Mat3{}) {
			pc, _, ac := k.pointMotion(i, b.COM)
			F := ac.Sub(m.Gravity).Mul(b.Mass)
			Iw := oMi.R.Mul3(b.Inertia).Mul3(oMi.R.Transpose())
			w := k.omega[i]
			N := Iw.Mul3x1(k.alpha[i]).Add(w.Cross(Iw.Mul3x1(w)))
			m.project(k, tau, i, pc, F, N, 1)
		}

		if fext != nil && !fext[i].IsZero() {
			fw := Placement{R: oMi.R}.ActForce(fext[i])
			m.project(k, tau, i, oMi.P, fw.Linear, fw.Angular, -1)
		}
	}
}

// project adds sign * J^T [F; N] for a wrench applied at world point p of
// body i, N being the moment about p.
func (m *Model) project(k *kinState, tau []float64, i int, p, F, N mgl64.Vec3, sign float64) {
	for _, j := range m.support[i] {
		z := k.axis[j]
		if m.Joints[j].Kind == Revolute {
			tau[j] += sign * z.Dot(N.Add(p.Sub(k.oMi[j].P).Cross(F)))
		} else {
			tau[j] += sign * z.Dot(F)
		}
	}
}

// RNEA runs inverse dynamics with the external forces stored in d.Fext and
// returns d.Tau.
func RNEA(m *Model, d *Data, q, v, a []float64) []float64 {
	ForwardKinematics(m, d, q, v, a)
	m.rnea(&d.scratch, d.Tau, q, v, a, d.Fext)
	return d.Tau
}

// NonLinearEffects fills d.Nle with b(q, v), ignoring external forces.
func NonLinearEffects(m *Model, d *Data, q, v []float64) []float64 {
	m.rnea(&d.scratch, d.Nle, q, v, nil, nil)
	return d.Nle
}

// CRBA fills d.M with the joint-space mass matrix at q.
func CRBA(m *Model, d *Data, q []float64) *mat.Dense {
	k := &d.scratch
	m.kinematics(k, q, nil, nil)
	d.M.Zero()

	for i, b := range m.Bodies {
		if b.Mass == 0 && b.Inertia == (mgl64.Mat3{}) {
			continue
		}
		oMi := k.oMi[i]
		pc := oMi.ActPoint(b.COM)
		Iw := oMi.R.Mul3(b.Inertia).Mul3(oMi.R.Transpose())
		chain := m.support[i]

		lin := make([]mgl64.Vec3, len(chain))
		ang := make([]mgl64.Vec3, len(chain))
		for c, j := range chain {
			z := k.axis[j]
			if m.Joints[j].Kind == Revolute {
				lin[c] = z.Cross(pc.Sub(k.oMi[j].P))
				ang[c] = z
			} else {
				lin[c] = z
			}
		}
		for r, jr := range chain {
			Iang := Iw.Mul3x1(ang[r])
			for c, jc := range chain {
				val := b.Mass*lin[r].Dot(lin[c]) + Iang.Dot(ang[c])
				d.M.Set(jr, jc, d.M.At(jr, jc)+val)
			}
		}
	}
	return d.M
}

// ABA solves the unconstrained forward dynamics M a = tau - b and writes the
// acceleration into a.
func ABA(m *Model, d *Data, q, v, tau, a []float64) error {
	nv := m.NV()
	CRBA(m, d, q)
	NonLinearEffects(m, d, q, v)

	sym := mat.NewSymDense(nv, nil)
	for i := 0; i < nv; i++ {
		for j := i; j < nv; j++ {
			sym.SetSym(i, j, d.M.At(i, j))
		}
	}
	var chol mat.Cholesky
	if ok := chol.Factorize(sym); !ok {
		return fmt.Errorf("%w: mass matrix is not positive definite", dynamo.ErrNumericalDegeneracy)
	}

	rhs := mat.NewVecDense(nv, nil)
	for i := 0; i < nv; i++ {
		rhs.SetVec(i, tau[i]-d.Nle[i])
	}
	out := mat.NewVecDense(nv, a)
	return chol.SolveVecTo(out, rhs)
}

// ComputeRNEADerivatives fills d.Tau, d.DtauDq and d.DtauDv at (q, v, a)
// with the external forces of d.Fext held fixed in their joint frames.
func ComputeRNEADerivatives(m *Model, d *Data, q, v, a []float64) {
	RNEA(m, d, q, v, a)
	fd.Jacobian(d.DtauDq, func(out, x []float64) {
		m.rnea(&d.scratch, out, x, v, a, d.Fext)
	}, q, centralDiff)
	fd.Jacobian(d.DtauDv, func(out, x []float64) {
		m.rnea(&d.scratch, out, q, x, a, d.Fext)
	}, v, centralDiff)
}

// FrameDerivatives holds the partial derivatives of the linear velocity and
// classical acceleration of a frame origin, each 3 x nv.
type FrameDerivatives struct {
	VPartialDq *mat.Dense
	APartialDq *mat.Dense
	APartialDv *mat.Dense
}

func NewFrameDerivatives(nv int) FrameDerivatives {
	return FrameDerivatives{
		VPartialDq: mat.NewDense(3, nv, nil),
		APartialDq: mat.NewDense(3, nv, nil),
		APartialDv: mat.NewDense(3, nv, nil),
	}
}

// FrameAccelerationDerivatives differentiates the frame velocity and
// classical acceleration projected on ref at (q, v, a). The derivative with
// respect to a is the linear part of the frame Jacobian.
func FrameAccelerationDerivatives(m *Model, d *Data, frame int, ref ReferenceFrame, q, v, a []float64, out FrameDerivatives) {
	nv := m.NV()
	k := &d.scratch
	both := mat.NewDense(6, nv, nil)

	fd.Jacobian(both, func(res, x []float64) {
		m.kinematics(k, x, v, a)
		vel := frameLinear(m, k, frame, ref, false)
		acc := frameLinear(m, k, frame, ref, true)
		copy(res[:3], vel[:])
		copy(res[3:], acc[:])
	}, q, centralDiff)
	out.VPartialDq.Copy(both.Slice(0, 3, 0, nv))
	out.APartialDq.Copy(both.Slice(3, 6, 0, nv))

	fd.Jacobian(out.APartialDv, func(res, x []float64) {
		m.kinematics(k, q, x, a)
		acc := frameLinear(m, k, frame, ref, true)
		copy(res, acc[:])
	}, v, centralDiff)
}
