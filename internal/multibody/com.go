package multibody

import (
	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
)

// comMotion returns the mass-weighted position and velocity of the body
// centers of mass in k.
func (m *Model) comMotion(k *kinState) (p, vel mgl64.Vec3) {
	total := 0.0
	for i, b := range m.Bodies {
		if b.Mass == 0 {
			continue
		}
		pi, vi, _ := k.pointMotion(i, b.COM)
		p = p.Add(pi.Mul(b.Mass))
		vel = vel.Add(vi.Mul(b.Mass))
		total += b.Mass
	}
	if total == 0 {
		return p, vel
	}
	return p.Mul(1 / total), vel.Mul(1 / total)
}

// CenterOfMass returns the world center of mass of the placements
// computed by the last ForwardKinematics.
func CenterOfMass(m *Model, d *Data) mgl64.Vec3 {
	p, _ := m.comMotion(&d.kin)
	return p
}

// CenterOfMassVelocity returns the world velocity of the center of mass for
// the motion computed by the last ForwardKinematics.
func CenterOfMassVelocity(m *Model, d *Data) mgl64.Vec3 {
	_, v := m.comMotion(&d.kin)
	return v
}

// CenterOfMassJacobian fills dst (3 x nv) with the derivative of the center
// of mass with respect to q at the last ForwardKinematics. It also maps v to
// the center of mass velocity.
func CenterOfMassJacobian(m *Model, d *Data, dst *mat.Dense) {
	dst.Zero()
	k := &d.kin
	total := m.TotalMass()
	if total == 0 {
		return
	}
	for i, b := range m.Bodies {
		if b.Mass == 0 {
			continue
		}
		p, _, _ := k.pointMotion(i, b.COM)
		w := b.Mass / total
		for _, j := range m.support[i] {
			lin := k.axis[j]
			if m.Joints[j].Kind == Revolute {
				lin = lin.Cross(p.Sub(k.oMi[j].P))
			}
			for r := 0; r < 3; r++ {
				dst.Set(r, j, dst.At(r, j)+w*lin[r])
			}
		}
	}
}

// CenterOfMassVelocityDerivative fills dst (3 x nv) with the derivative of
// the center of mass velocity with respect to q at (q, v). The derivative
// with respect to v is CenterOfMassJacobian.
func CenterOfMassVelocityDerivative(m *Model, d *Data, q, v []float64, dst *mat.Dense) {
	k := &d.scratch
	fd.Jacobian(dst, func(res, x []float64) {
		m.kinematics(k, x, v, nil)
		_, vel := m.comMotion(k)
		copy(res, vel[:])
	}, q, centralDiff)
}
