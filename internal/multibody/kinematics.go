package multibody

import (
	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/mat"
)

func at(x []float64, i int) float64 {
	if x == nil {
		return 0
	}
	return x[i]
}

// kinematics propagates placements, velocities and classical accelerations
// of every body origin from the root. Nil v or a are treated as zero.
func (m *Model) kinematics(k *kinState, q, v, a []float64) {
	for i, j := range m.Joints {
		var (
			parent                   = Identity()
			omegaP, velP, alphaP, aP mgl64.Vec3
		)
		if j.Parent >= 0 {
			parent = k.oMi[j.Parent]
			omegaP = k.omega[j.Parent]
			velP = k.vel[j.Parent]
			alphaP = k.alpha[j.Parent]
			aP = k.acc[j.Parent]
		}

		base := parent.Act(j.Placement)
		z := base.R.Mul3x1(j.Axis.Unit())
		oMi := base.Act(j.motion(q[i]))
		r := oMi.P.Sub(parent.P)
		qd, qdd := at(v, i), at(a, i)

		k.oMi[i] = oMi
		k.axis[i] = z
		transport := aP.Add(alphaP.Cross(r)).Add(omegaP.Cross(omegaP.Cross(r)))

		if j.Kind == Revolute {
			k.omega[i] = omegaP.Add(z.Mul(qd))
			k.vel[i] = velP.Add(omegaP.Cross(r))
			k.alpha[i] = alphaP.Add(z.Mul(qdd)).Add(omegaP.Cross(z).Mul(qd))
			k.acc[i] = transport
		} else {
			k.omega[i] = omegaP
			k.vel[i] = velP.Add(omegaP.Cross(r)).Add(z.Mul(qd))
			k.alpha[i] = alphaP
			k.acc[i] = transport.Add(omegaP.Cross(z).Mul(2 * qd)).Add(z.Mul(qdd))
		}
	}
}

// pointMotion returns the world position, velocity and classical
// acceleration of a point fixed at offset c in body i.
func (k *kinState) pointMotion(i int, c mgl64.Vec3) (p, vel, acc mgl64.Vec3) {
	oMi := k.oMi[i]
	rc := oMi.R.Mul3x1(c)
	w := k.omega[i]
	p = oMi.P.Add(rc)
	vel = k.vel[i].Add(w.Cross(rc))
	acc = k.acc[i].Add(k.alpha[i].Cross(rc)).Add(w.Cross(w.Cross(rc)))
	return p, vel, acc
}

// ForwardKinematics updates all joint and frame placements and motions for
// (q, v, a). Nil v or a are treated as zero.
func ForwardKinematics(m *Model, d *Data, q, v, a []float64) {
	copy(d.q, q)
	fill(d.v, v)
	fill(d.a, a)
	m.kinematics(&d.kin, q, v, a)
	for f, fr := range m.Frames {
		d.OMf[f] = d.kin.oMi[fr.Joint].Act(fr.Placement)
	}
}

func fill(dst, src []float64) {
	if src == nil {
		for i := range dst {
			dst[i] = 0
		}
		return
	}
	copy(dst, src)
}

// FramePlacement returns the world placement computed by the last
// ForwardKinematics.
func FramePlacement(d *Data, frame int) Placement {
	return d.OMf[frame]
}

// FrameVelocity returns the linear velocity of the frame origin projected
// on ref axes.
func FrameVelocity(m *Model, d *Data, frame int, ref ReferenceFrame) mgl64.Vec3 {
	return frameLinear(m, &d.kin, frame, ref, false)
}

// FrameClassicalAcceleration returns the second time derivative of the
// frame origin projected on ref axes.
func FrameClassicalAcceleration(m *Model, d *Data, frame int, ref ReferenceFrame) mgl64.Vec3 {
	return frameLinear(m, &d.kin, frame, ref, true)
}

func frameLinear(m *Model, k *kinState, frame int, ref ReferenceFrame, accel bool) mgl64.Vec3 {
	fr := m.Frames[frame]
	_, vel, acc := k.pointMotion(fr.Joint, fr.Placement.P)
	out := vel
	if accel {
		out = acc
	}
	if ref.WorldAligned() {
		return out
	}
	R := k.oMi[fr.Joint].R.Mul3(fr.Placement.R)
	return R.Transpose().Mul3x1(out)
}

// FrameJacobian fills dst (6 x nv) with the frame Jacobian, linear rows
// first. World and LocalWorldAligned share the same point Jacobian.
func FrameJacobian(m *Model, d *Data, frame int, ref ReferenceFrame, dst *mat.Dense) {
	m.frameJacobian(&d.kin, frame, ref, dst)
}

func (m *Model) frameJacobian(k *kinState, frame int, ref ReferenceFrame, dst *mat.Dense) {
	dst.Zero()
	fr := m.Frames[frame]
	oMf := k.oMi[fr.Joint].Act(fr.Placement)
	Rt := oMf.R.Transpose()

	for _, j := range m.support[fr.Joint] {
		z := k.axis[j]
		var lin, ang mgl64.Vec3
		if m.Joints[j].Kind == Revolute {
			lin = z.Cross(oMf.P.Sub(k.oMi[j].P))
			ang = z
		} else {
			lin = z
		}
		if !ref.WorldAligned() {
			lin = Rt.Mul3x1(lin)
			ang = Rt.Mul3x1(ang)
		}
		for r := 0; r < 3; r++ {
			dst.Set(r, j, lin[r])
			dst.Set(3+r, j, ang[r])
		}
	}
}
