package contact

import (
	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/stride/internal/multibody"
)

// Data is the scratch state of one contact. It is created once per
// (contact, engine data) pair and overwritten by every evaluation.
type Data struct {
	Kind  Kind
	Frame int

	// Jc (nc x nv) and A0 (nc) are the constraint Jacobian and drift in the
	// contact's reference frame.
	Jc *mat.Dense
	A0 []float64
	// DA0dx (nc x 2nv) is the derivative of A0 with respect to (q, v).
	DA0dx *mat.Dense

	// FJf is the 6 x nv frame Jacobian in local axes, linear rows first.
	FJf *mat.Dense
	// ORf rotates the contact frame into world axes.
	ORf      mgl64.Mat3
	Position mgl64.Vec3
	// Velocity and Acceleration are the linear motion of the frame origin
	// projected on the reference frame.
	Velocity     mgl64.Vec3
	Acceleration mgl64.Vec3
	Derivatives  multibody.FrameDerivatives

	// SkewTerm (nv x nv) is the inverse-dynamics correction for a force
	// held fixed in world axes. It stays zero for local contacts.
	SkewTerm *mat.Dense

	// Force is the contact force as a spatial force in the contact frame.
	Force multibody.Force
	DfDx  *mat.Dense
	DfDu  *mat.Dense

	md   *multibody.Data
	nv   int
	jref *mat.Dense
	err  mgl64.Vec3
	da0  *mat.Dense
}

func newData(kind Kind, frame, nu int, md *multibody.Data) *Data {
	nv := len(md.Nle)
	nc := kind.NC()
	return &Data{
		Kind:        kind,
		Frame:       frame,
		Jc:          mat.NewDense(nc, nv, nil),
		A0:          make([]float64, nc),
		DA0dx:       mat.NewDense(nc, 2*nv, nil),
		FJf:         mat.NewDense(6, nv, nil),
		ORf:         mgl64.Ident3(),
		Derivatives: multibody.NewFrameDerivatives(nv),
		SkewTerm:    mat.NewDense(nv, nv, nil),
		DfDx:        mat.NewDense(nc, 2*nv, nil),
		DfDu:        mat.NewDense(nc, max(nu, 1), nil),
		md:          md,
		nv:          nv,
		jref:        mat.NewDense(3, nv, nil),
		da0:         mat.NewDense(3, 2*nv, nil),
	}
}

// storeForce converts a force given in reference-frame axes into the local
// spatial force.
func (d *Data) storeForce(t multibody.ReferenceFrame, ref mgl64.Vec3) {
	local := ref
	if t.WorldAligned() {
		local = d.ORf.Transpose().Mul3x1(ref)
	}
	d.Force = multibody.Force{Linear: local}
}

func (d *Data) referenceForce(t multibody.ReferenceFrame) mgl64.Vec3 {
	if t.WorldAligned() {
		return d.ORf.Mul3x1(d.Force.Linear)
	}
	return d.Force.Linear
}

func (d *Data) resetDiff() {
	d.DfDx.Zero()
	d.DfDu.Zero()
}

// kinematics evaluates the full 3-axis constraint of p. The engine data must
// hold a ForwardKinematics pass at the current state.
func (p *point) kinematics(m *multibody.Model, d *Data) {
	md := d.md
	multibody.FrameJacobian(m, md, p.frame, multibody.Local, d.FJf)
	oMf := multibody.FramePlacement(md, p.frame)
	d.ORf = oMf.R
	d.Position = oMf.P
	d.Velocity = multibody.FrameVelocity(m, md, p.frame, p.typ)
	d.Acceleration = multibody.FrameClassicalAcceleration(m, md, p.frame, p.typ)

	lin := d.FJf.Slice(0, 3, 0, d.nv)
	offset := oMf.P.Sub(p.xref)
	if p.typ.WorldAligned() {
		d.jref.Mul(dense3(d.ORf), lin)
		d.err = offset
	} else {
		d.jref.Copy(lin)
		d.err = d.ORf.Transpose().Mul3x1(offset)
	}
}

// project copies the constrained rows of the 3-axis constraint into Jc and
// A0.
func (p *point) project(d *Data, sel []int) {
	kp, kd := p.gains[0], p.gains[1]
	for r, i := range sel {
		for c := 0; c < d.nv; c++ {
			d.Jc.Set(r, c, d.jref.At(i, c))
		}
		d.A0[r] = d.Acceleration[i] + kp*d.err[i] + kd*d.Velocity[i]
	}
}

// derivatives fills the 3-axis drift derivative and the skew correction.
// It assumes kinematics ran at the same state and that the force was
// updated.
func (p *point) derivatives(m *multibody.Model, d *Data, q, v []float64) {
	nv := d.nv
	fd := d.Derivatives
	multibody.FrameAccelerationDerivatives(m, d.md, p.frame, p.typ, q, v, d.md.Acceleration(), fd)

	lin := d.FJf.Slice(0, 3, 0, nv)
	ang := d.FJf.Slice(3, 6, 0, nv)

	var dedq mat.Dense
	if p.typ.WorldAligned() {
		dedq.CloneFrom(d.jref)
	} else {
		dedq.Mul(skew(d.err), ang)
		dedq.Add(&dedq, lin)
	}

	kp, kd := p.gains[0], p.gains[1]
	dq := d.da0.Slice(0, 3, 0, nv).(*mat.Dense)
	dv := d.da0.Slice(0, 3, nv, 2*nv).(*mat.Dense)
	dq.Copy(fd.APartialDq)
	dv.Copy(fd.APartialDv)
	if kp != 0 {
		addScaled(dq, kp, &dedq)
	}
	if kd != 0 {
		addScaled(dq, kd, fd.VPartialDq)
		addScaled(dv, kd, d.jref)
	}

	d.SkewTerm.Zero()
	if p.typ.WorldAligned() {
		var tmp mat.Dense
		tmp.Mul(skew(d.Force.Linear), ang)
		d.SkewTerm.Mul(lin.T(), &tmp)
		d.SkewTerm.Scale(-1, d.SkewTerm)
	}
}

func (p *point) projectDiff(d *Data, sel []int) {
	for r, i := range sel {
		for c := 0; c < 2*d.nv; c++ {
			d.DA0dx.Set(r, c, d.da0.At(i, c))
		}
	}
}

func (c *OneAxis) calc(m *multibody.Model, d *Data) {
	c.kinematics(m, d)
	c.project(d, rows(c))
}

func (c *OneAxis) calcDiff(m *multibody.Model, d *Data, q, v []float64) {
	c.derivatives(m, d, q, v)
	c.projectDiff(d, rows(c))
}

func (c *ThreeAxis) calc(m *multibody.Model, d *Data) {
	c.kinematics(m, d)
	c.project(d, rows(c))
}

func (c *ThreeAxis) calcDiff(m *multibody.Model, d *Data, q, v []float64) {
	c.derivatives(m, d, q, v)
	c.projectDiff(d, rows(c))
}

func dense3(r mgl64.Mat3) *mat.Dense {
	out := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out.Set(i, j, r.At(i, j))
		}
	}
	return out
}

// skew returns [x]x, the matrix of the cross product with x.
func skew(x mgl64.Vec3) *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		0, -x[2], x[1],
		x[2], 0, -x[0],
		-x[1], x[0], 0,
	})
}

func addScaled(dst *mat.Dense, alpha float64, src mat.Matrix) {
	var tmp mat.Dense
	tmp.Scale(alpha, src)
	dst.Add(dst, &tmp)
}
