package residual

import (
	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/stride/internal/dynamo"
	"github.com/san-kum/stride/internal/multibody"
)

// CoMVelocity is the world velocity of the center of mass minus Ref.
type CoMVelocity struct {
	Model *multibody.Model
	Ref   mgl64.Vec3
	nu    int
}

func NewCoMVelocity(model *multibody.Model, ref mgl64.Vec3, nu int) *CoMVelocity {
	return &CoMVelocity{Model: model, Ref: ref, nu: nu}
}

func (c *CoMVelocity) NR() int { return 3 }
func (c *CoMVelocity) NX() int { return 2 * c.Model.NV() }
func (c *CoMVelocity) NU() int { return c.nu }

func (c *CoMVelocity) CreateData() *Data {
	d := newData(3, c.NX(), c.nu)
	d.engine = multibody.NewData(c.Model)
	return d
}

func (c *CoMVelocity) Calc(d *Data, x dynamo.State, u dynamo.Control) error {
	if err := checkDims(c, x, u); err != nil {
		return err
	}
	q, v := x.Split(c.Model.NV())
	multibody.ForwardKinematics(c.Model, d.engine, q, v, nil)
	vcom := multibody.CenterOfMassVelocity(c.Model, d.engine).Sub(c.Ref)
	copy(d.R, vcom[:])
	return nil
}

// CalcDiff fills Rx = [d(vcom)/dq, Jcom]. The residual does not depend on
// the control.
func (c *CoMVelocity) CalcDiff(d *Data, x dynamo.State, u dynamo.Control) error {
	if err := checkDims(c, x, u); err != nil {
		return err
	}
	nv := c.Model.NV()
	q, v := x.Split(nv)
	multibody.ForwardKinematics(c.Model, d.engine, q, v, nil)
	dq := d.Rx.Slice(0, 3, 0, nv).(*mat.Dense)
	dv := d.Rx.Slice(0, 3, nv, 2*nv).(*mat.Dense)
	multibody.CenterOfMassVelocityDerivative(c.Model, d.engine, q, v, dq)
	multibody.CenterOfMassJacobian(c.Model, d.engine, dv)
	if c.nu > 0 {
		d.Ru.Zero()
	}
	return nil
}
