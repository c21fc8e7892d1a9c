package multibody

import (
	"gonum.org/v1/gonum/mat"
)

// Energy returns the kinetic and gravitational potential energy at (q, v).
// It overwrites the kinematics and mass matrix of d.
func Energy(m *Model, d *Data, q, v []float64) (kinetic, potential float64) {
	ForwardKinematics(m, d, q, v, nil)
	CRBA(m, d, q)
	vv := mat.NewVecDense(len(v), append([]float64(nil), v...))
	kinetic = 0.5 * mat.Inner(vv, d.M, vv)
	potential = -m.TotalMass() * m.Gravity.Dot(CenterOfMass(m, d))
	return kinetic, potential
}
