package dynamics

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/stride/internal/dynamo"
)

// Euler integrates a ContactFwd over one time step with semi-implicit
// Euler: v+ = v + a*dt, q+ = q + v+*dt.
type Euler struct {
	Differential *ContactFwd
	Dt           float64
}

func NewEuler(diff *ContactFwd, dt float64) (*Euler, error) {
	if dt <= 0 {
		return nil, fmt.Errorf("%w: time step %g must be positive", dynamo.ErrInvalidArgument, dt)
	}
	return &Euler{Differential: diff, Dt: dt}, nil
}

func (e *Euler) NX() int { return e.Differential.NX() }
func (e *Euler) NU() int { return e.Differential.NU() }

type EulerData struct {
	Differential *ContactFwdData
	Xnext        dynamo.State
	// Fx (2nv x 2nv) and Fu (2nv x nu) are the state-transition derivatives.
	Fx *mat.Dense
	Fu *mat.Dense
}

func (e *Euler) CreateData() *EulerData {
	nx, nu := e.NX(), e.NU()
	return &EulerData{
		Differential: e.Differential.CreateData(),
		Xnext:        make(dynamo.State, nx),
		Fx:           mat.NewDense(nx, nx, nil),
		Fu:           mat.NewDense(nx, nu, nil),
	}
}

// Calc fills d.Xnext with the state one step after x under control u.
func (e *Euler) Calc(d *EulerData, x dynamo.State, u dynamo.Control) error {
	if err := e.Differential.Calc(d.Differential, x, u); err != nil {
		return err
	}
	nv := e.Differential.Model.NV()
	q, v := x.Split(nv)
	a := d.Differential.Xout
	dt := e.Dt
	for i := 0; i < nv; i++ {
		vn := v[i] + a[i]*dt
		d.Xnext[nv+i] = vn
		d.Xnext[i] = q[i] + vn*dt
	}
	return nil
}

// CalcDiff fills d.Fx and d.Fu. It assumes Calc ran at (x, u).
func (e *Euler) CalcDiff(d *EulerData, x dynamo.State, u dynamo.Control) error {
	if err := e.Differential.CalcDiff(d.Differential, x, u); err != nil {
		return err
	}
	nv := e.Differential.Model.NV()
	nu := e.NU()
	dt := e.Dt
	ax, au := d.Differential.Fx, d.Differential.Fu

	// dv+/dx = [0 I] + dt*da/dx, dq+/dx = [I 0] + dt*dv+/dx
	for i := 0; i < nv; i++ {
		for j := 0; j < 2*nv; j++ {
			dv := dt * ax.At(i, j)
			if j == nv+i {
				dv++
			}
			dq := dt * dv
			if j == i {
				dq++
			}
			d.Fx.Set(nv+i, j, dv)
			d.Fx.Set(i, j, dq)
		}
		for j := 0; j < nu; j++ {
			dv := dt * au.At(i, j)
			d.Fu.Set(nv+i, j, dv)
			d.Fu.Set(i, j, dt*dv)
		}
	}
	return nil
}
