package contact

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/stride/internal/dynamo"
	"github.com/san-kum/stride/internal/multibody"
)

// Item is a named contact with its activation flag.
type Item struct {
	Name    string
	Contact Contact
	Active  bool
}

// Multiple is an ordered collection of contacts sharing one robot model.
// Insertion order defines the row order of the aggregated constraint.
type Multiple struct {
	model *multibody.Model
	nu    int
	items []*Item
}

// NewMultiple creates an empty collection whose control dimension is the
// model's nv.
func NewMultiple(model *multibody.Model) *Multiple {
	return NewMultipleWithNU(model, model.NV())
}

func NewMultipleWithNU(model *multibody.Model, nu int) *Multiple {
	return &Multiple{model: model, nu: nu}
}

func (m *Multiple) Model() *multibody.Model { return m.model }
func (m *Multiple) NU() int { return m.nu }

// Items returns the contacts in insertion order.
func (m *Multiple) Items() []*Item { return m.items }

func (m *Multiple) find(name string) int {
	for i, it := range m.items {
		if it.Name == name {
			return i
		}
	}
	return -1
}

// AddContact appends a contact. Names must be unique.
func (m *Multiple) AddContact(name string, c Contact, active bool) error {
	if m.find(name) >= 0 {
		return &dynamo.ContactError{Op: "add contact", Name: name, Index: m.find(name),
			Wrapped: fmt.Errorf("%w: name already registered", dynamo.ErrInvalidArgument)}
	}
	if f := c.FrameID(); f < 0 || f >= len(m.model.Frames) {
		return &dynamo.ContactError{Op: "add contact", Name: name, Index: len(m.items),
			Wrapped: fmt.Errorf("%w: frame %d does not exist", dynamo.ErrInvalidArgument, f)}
	}
	m.items = append(m.items, &Item{Name: name, Contact: c, Active: active})
	return nil
}

func (m *Multiple) RemoveContact(name string) error {
	i := m.find(name)
	if i < 0 {
		return &dynamo.ContactError{Op: "remove contact", Name: name, Index: -1,
			Wrapped: fmt.Errorf("%w: unknown contact", dynamo.ErrInvalidArgument)}
	}
	m.items = append(m.items[:i], m.items[i+1:]...)
	return nil
}

// ChangeStatus activates or deactivates a contact.
func (m *Multiple) ChangeStatus(name string, active bool) error {
	i := m.find(name)
	if i < 0 {
		return &dynamo.ContactError{Op: "change status", Name: name, Index: -1,
			Wrapped: fmt.Errorf("%w: unknown contact", dynamo.ErrInvalidArgument)}
	}
	m.items[i].Active = active
	return nil
}

// NC is the number of rows contributed by the active contacts.
func (m *Multiple) NC() int {
	nc := 0
	for _, it := range m.items {
		if it.Active {
			nc += it.Contact.NC()
		}
	}
	return nc
}

// NCTotal counts the rows of every contact, active or not.
func (m *Multiple) NCTotal() int {
	nc := 0
	for _, it := range m.items {
		nc += it.Contact.NC()
	}
	return nc
}

// Entry pairs a contact with its data under one name.
type Entry struct {
	Name string
	Item *Item
	Data *Data
}

// MultipleData holds the per-contact data, in the same order as the model,
// and the aggregated constraint.
type MultipleData struct {
	Entries []Entry

	// Jc ((sum of active nc) x nv), A0 and DA0dx ((sum of active nc) x 2nv)
	// stack the active contacts. With no active contact they are empty.
	Jc    *mat.Dense
	A0    []float64
	DA0dx *mat.Dense
	// DDvDx is the derivative of the constrained acceleration, nv x 2nv.
	DDvDx *mat.Dense
	// Fext aliases the engine's per-joint external forces.
	Fext []multibody.Force

	md *multibody.Data
}

// CreateData builds the data of every contact for md.
func (m *Multiple) CreateData(md *multibody.Data) *MultipleData {
	nv := m.model.NV()
	d := &MultipleData{
		Jc:    &mat.Dense{},
		DA0dx: &mat.Dense{},
		DDvDx: mat.NewDense(nv, 2*nv, nil),
		Fext:  md.Fext,
		md:    md,
	}
	for _, it := range m.items {
		d.Entries = append(d.Entries, Entry{Name: it.Name, Item: it, Data: it.Contact.CreateData(md)})
	}
	return d
}

// EngineData returns the engine data the contacts were created for.
func (d *MultipleData) EngineData() *multibody.Data { return d.md }

// Contact returns the data of the named contact.
func (d *MultipleData) Contact(name string) (*Data, bool) {
	for _, e := range d.Entries {
		if e.Name == name {
			return e.Data, true
		}
	}
	return nil, false
}

// check verifies that d was built for the current contact set.
func (m *Multiple) check(op string, d *MultipleData) error {
	if len(d.Entries) != len(m.items) {
		return &dynamo.ContactError{Op: op, Index: -1,
			Wrapped: fmt.Errorf("%w: %d contact data for %d contacts", dynamo.ErrInvalidArgument, len(d.Entries), len(m.items))}
	}
	for i, it := range m.items {
		if d.Entries[i].Name != it.Name || d.Entries[i].Item != it {
			return &dynamo.ContactError{Op: op, Name: it.Name, Index: i,
				Wrapped: fmt.Errorf("%w: data holds contact %q at this index", dynamo.ErrInvalidArgument, d.Entries[i].Name)}
		}
	}
	return nil
}

// resize keeps the aggregated buffers at nc rows.
func (d *MultipleData) resize(nc, nv int) {
	if nc == 0 {
		d.Jc, d.DA0dx, d.A0 = &mat.Dense{}, &mat.Dense{}, d.A0[:0]
		return
	}
	if r, _ := d.Jc.Dims(); r != nc {
		d.Jc = mat.NewDense(nc, nv, nil)
		d.DA0dx = mat.NewDense(nc, 2*nv, nil)
		d.A0 = make([]float64, nc)
	}
}

// Calc evaluates the Jacobian and drift of every active contact and stacks
// them in insertion order. The engine data must hold a ForwardKinematics
// pass at x.
func (m *Multiple) Calc(d *MultipleData, x dynamo.State) error {
	if err := m.check("calc", d); err != nil {
		return err
	}
	nv := m.model.NV()
	d.resize(m.NC(), nv)

	row := 0
	for i, it := range m.items {
		if !it.Active {
			continue
		}
		cd := d.Entries[i].Data
		switch c := it.Contact.(type) {
		case *OneAxis:
			c.calc(m.model, cd)
		case *ThreeAxis:
			c.calc(m.model, cd)
		}
		nc := it.Contact.NC()
		d.Jc.Slice(row, row+nc, 0, nv).(*mat.Dense).Copy(cd.Jc)
		copy(d.A0[row:row+nc], cd.A0)
		row += nc
	}
	return nil
}

// CalcDiff evaluates the drift derivatives and the skew corrections of the
// active contacts. It assumes Calc and UpdateForce ran at x and that the
// engine data holds the acceleration to differentiate at.
func (m *Multiple) CalcDiff(d *MultipleData, x dynamo.State) error {
	if err := m.check("calc diff", d); err != nil {
		return err
	}
	nv := m.model.NV()
	if len(x) != 2*nv {
		return dynamo.DimError("state", len(x), 2*nv)
	}
	q, v := x.Split(nv)

	row := 0
	for i, it := range m.items {
		if !it.Active {
			continue
		}
		cd := d.Entries[i].Data
		switch c := it.Contact.(type) {
		case *OneAxis:
			c.calcDiff(m.model, cd, q, v)
		case *ThreeAxis:
			c.calcDiff(m.model, cd, q, v)
		}
		nc := it.Contact.NC()
		d.DA0dx.Slice(row, row+nc, 0, 2*nv).(*mat.Dense).Copy(cd.DA0dx)
		row += nc
	}
	return nil
}

// UpdateRneaDerivatives adds the skew correction of every active world or
// local-world-aligned contact into md.DtauDq, rows [0, nu) and all columns.
// The buffer is only accumulated into. A data collection that does not
// match the contacts is rejected before anything is written.
func (m *Multiple) UpdateRneaDerivatives(d *MultipleData, md *multibody.Data) error {
	if err := m.check("update rnea derivatives", d); err != nil {
		return err
	}
	nv := m.model.NV()
	if r, c := md.DtauDq.Dims(); r < m.nu || c != nv {
		return &dynamo.ContactError{Op: "update rnea derivatives", Index: -1,
			Wrapped: fmt.Errorf("%w: dtau/dq is %dx%d, contacts need %dx%d", dynamo.ErrInvalidArgument, r, c, m.nu, nv)}
	}

	block := md.DtauDq.Slice(0, m.nu, 0, nv).(*mat.Dense)
	for i, it := range m.items {
		if !it.Active || !it.Contact.Type().WorldAligned() {
			continue
		}
		switch it.Contact.(type) {
		case *OneAxis, *ThreeAxis:
			block.Add(block, d.Entries[i].Data.SkewTerm.Slice(0, m.nu, 0, nv))
		}
	}
	return nil
}

// UpdateForce splits the stacked force of the active contacts and writes
// the resulting spatial forces into the engine's external forces, one per
// joint. Inactive contacts carry zero force.
func (m *Multiple) UpdateForce(d *MultipleData, force []float64) error {
	if err := m.check("update force", d); err != nil {
		return err
	}
	if nc := m.NC(); len(force) != nc {
		return dynamo.DimError("contact force", len(force), nc)
	}
	d.md.ClearExternalForces()

	row := 0
	for i, it := range m.items {
		cd := d.Entries[i].Data
		if !it.Active {
			cd.Force = multibody.Force{}
			continue
		}
		nc := it.Contact.NC()
		if err := it.Contact.UpdateForce(cd, force[row:row+nc]); err != nil {
			return &dynamo.ContactError{Op: "update force", Name: it.Name, Index: i, Wrapped: err}
		}
		frame := m.model.Frames[it.Contact.FrameID()]
		d.Fext[frame.Joint] = d.Fext[frame.Joint].Add(frame.Placement.ActForce(cd.Force))
		row += nc
	}
	return nil
}

// Forces returns the reduced force of every active contact, keyed by name.
func (m *Multiple) Forces(d *MultipleData) map[string][]float64 {
	out := make(map[string][]float64)
	for i, it := range m.items {
		if it.Active && i < len(d.Entries) {
			out[it.Name] = it.Contact.ReducedForce(d.Entries[i].Data)
		}
	}
	return out
}

// UpdateAccelerationDiff stores the constrained acceleration derivative.
func (m *Multiple) UpdateAccelerationDiff(d *MultipleData, ddvdx *mat.Dense) error {
	nv := m.model.NV()
	if r, c := ddvdx.Dims(); r != nv || c != 2*nv {
		return fmt.Errorf("%w: acceleration derivative is %dx%d, expected %dx%d", dynamo.ErrDimensionMismatch, r, c, nv, 2*nv)
	}
	d.DDvDx.Copy(ddvdx)
	return nil
}

// UpdateForceDiff slices the stacked force derivatives into the active
// contacts. Inactive contacts get zero derivatives.
func (m *Multiple) UpdateForceDiff(d *MultipleData, dfdx, dfdu *mat.Dense) error {
	if err := m.check("update force diff", d); err != nil {
		return err
	}
	nc := m.NC()
	if r, _ := dfdx.Dims(); r != nc {
		return dynamo.DimError("force derivative rows", r, nc)
	}
	if r, _ := dfdu.Dims(); r != nc {
		return dynamo.DimError("force control derivative rows", r, nc)
	}
	_, cx := dfdx.Dims()
	_, cu := dfdu.Dims()

	row := 0
	for i, it := range m.items {
		cd := d.Entries[i].Data
		if !it.Active {
			cd.resetDiff()
			continue
		}
		n := it.Contact.NC()
		cd.DfDx.Copy(dfdx.Slice(row, row+n, 0, cx))
		if cu > 0 {
			cd.DfDu.Copy(dfdu.Slice(row, row+n, 0, cu))
		}
		row += n
	}
	return nil
}
