package residual

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/stride/internal/contact"
	"github.com/san-kum/stride/internal/dynamics"
	"github.com/san-kum/stride/internal/dynamo"
)

// MinNormalForce is the total vertical force below which the center of
// pressure is undefined.
const MinNormalForce = 1e-6

// CenterOfPressure is the horizontal world position of the center of
// pressure of the active point contacts of a contact dynamics model, minus
// Ref:
//
//	r = sum_i fz_i * p_i[x, y] / sum_i fz_i - Ref
//
// The contact forces are those of the constrained dynamics at (x, u), so
// the residual depends on the control. Every contact must be expressed in
// world-aligned axes.
type CenterOfPressure struct {
	Fwd *dynamics.ContactFwd
	Ref [2]float64
}

func NewCenterOfPressure(fwd *dynamics.ContactFwd, ref [2]float64) *CenterOfPressure {
	return &CenterOfPressure{Fwd: fwd, Ref: ref}
}

func (c *CenterOfPressure) NR() int { return 2 }
func (c *CenterOfPressure) NX() int { return c.Fwd.NX() }
func (c *CenterOfPressure) NU() int { return c.Fwd.NU() }

func (c *CenterOfPressure) CreateData() *Data {
	d := newData(2, c.NX(), c.NU())
	d.fwd = c.Fwd.CreateData()
	return d
}

// pressure is one active contact's share of the vertical force.
type pressure struct {
	data *contact.Data
	// row is the stacked force row of the vertical component, -1 when the
	// contact carries no vertical force.
	row int
	fz  float64
}

func (c *CenterOfPressure) pressures(d *Data) ([]pressure, float64, error) {
	var (
		out   []pressure
		total float64
		row   int
	)
	for i, it := range c.Fwd.Contacts.Items() {
		if !it.Active {
			continue
		}
		if !it.Contact.Type().WorldAligned() {
			return nil, 0, fmt.Errorf("%w: contact %q is not world aligned", dynamo.ErrInvalidArgument, it.Name)
		}
		p := pressure{data: d.fwd.Contacts.Entries[i].Data, row: -1}
		switch ct := it.Contact.(type) {
		case *contact.ThreeAxis:
			p.row = row + 2
		case *contact.OneAxis:
			if ct.Mask() == contact.MaskZ {
				p.row = row
			}
		}
		if p.row >= 0 {
			p.fz = d.fwd.Lambda[p.row]
			total += p.fz
		}
		out = append(out, p)
		row += it.Contact.NC()
	}
	if math.Abs(total) < MinNormalForce {
		return nil, 0, fmt.Errorf("%w: total normal force %g", dynamo.ErrNumericalDegeneracy, total)
	}
	return out, total, nil
}

func (c *CenterOfPressure) Calc(d *Data, x dynamo.State, u dynamo.Control) error {
	if err := checkDims(c, x, u); err != nil {
		return err
	}
	if err := c.Fwd.Calc(d.fwd, x, u); err != nil {
		return err
	}
	ps, total, err := c.pressures(d)
	if err != nil {
		return err
	}
	var cop [2]float64
	for _, p := range ps {
		for k := 0; k < 2; k++ {
			cop[k] += p.fz * p.data.Position[k]
		}
	}
	for k := 0; k < 2; k++ {
		d.R[k] = cop[k]/total - c.Ref[k]
	}
	return nil
}

// CalcDiff differentiates the force-weighted mean:
//
//	dr = (sum_i fz_i dp_i + (p_i - cop) dfz_i) / sum_i fz_i
func (c *CenterOfPressure) CalcDiff(d *Data, x dynamo.State, u dynamo.Control) error {
	if err := checkDims(c, x, u); err != nil {
		return err
	}
	if err := c.Fwd.CalcDiff(d.fwd, x, u); err != nil {
		return err
	}
	ps, total, err := c.pressures(d)
	if err != nil {
		return err
	}
	nv, nu := c.Fwd.Model.NV(), c.NU()
	d.Rx.Zero()
	if nu > 0 {
		d.Ru.Zero()
	}
	var dp mat.Dense
	for _, p := range ps {
		if p.row < 0 {
			continue
		}
		// World position Jacobian of the contact point.
		dp.Mul(rotation(p.data), p.data.FJf.Slice(0, 3, 0, nv))
		for k := 0; k < 2; k++ {
			offset := p.data.Position[k] - (d.R[k] + c.Ref[k])
			for j := 0; j < nv; j++ {
				d.Rx.Set(k, j, d.Rx.At(k, j)+p.fz*dp.At(k, j)/total)
			}
			for j := 0; j < 2*nv; j++ {
				d.Rx.Set(k, j, d.Rx.At(k, j)+offset*d.fwd.DfDx.At(p.row, j)/total)
			}
			for j := 0; j < nu; j++ {
				d.Ru.Set(k, j, d.Ru.At(k, j)+offset*d.fwd.DfDu.At(p.row, j)/total)
			}
		}
	}
	return nil
}

func rotation(cd *contact.Data) *mat.Dense {
	r := cd.ORf
	return mat.NewDense(3, 3, []float64{
		r.At(0, 0), r.At(0, 1), r.At(0, 2),
		r.At(1, 0), r.At(1, 1), r.At(1, 2),
		r.At(2, 0), r.At(2, 1), r.At(2, 2),
	})
}
