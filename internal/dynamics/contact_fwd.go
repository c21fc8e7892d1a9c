package dynamics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/stride/internal/contact"
	"github.com/san-kum/stride/internal/dynamo"
	"github.com/san-kum/stride/internal/multibody"
)

// maxCondition bounds the condition number of the KKT matrix. Above it the
// contact set is treated as redundant or conflicting.
const maxCondition = 1e12

// ContactFwd is the forward dynamics of a robot under rigid contacts. It
// solves
//
//	[M  Jc^T] [ a]   [tau - b]
//	[Jc 0   ] [-f] = [  -a0  ]
//
// for the joint acceleration a and the contact forces f.
type ContactFwd struct {
	Model     *multibody.Model
	Actuation *Actuation
	Contacts  *contact.Multiple
	// JointDamping adds -JointDamping*v to the actuated forces.
	JointDamping float64
}

func NewContactFwd(model *multibody.Model, actuation *Actuation, contacts *contact.Multiple) (*ContactFwd, error) {
	if contacts.Model() != model {
		return nil, fmt.Errorf("%w: contacts belong to model %q", dynamo.ErrInvalidArgument, contacts.Model().Name)
	}
	if actuation.NV() != model.NV() {
		return nil, dynamo.DimError("actuation rows", actuation.NV(), model.NV())
	}
	return &ContactFwd{Model: model, Actuation: actuation, Contacts: contacts}, nil
}

func (f *ContactFwd) NX() int { return 2 * f.Model.NV() }
func (f *ContactFwd) NU() int { return f.Actuation.NU() }

// ContactFwdData is the scratch of one ContactFwd evaluation. It is owned
// by one caller and invalidated by the next Calc.
type ContactFwdData struct {
	Engine   *multibody.Data
	Contacts *contact.MultipleData

	Tau []float64
	// Xout is the joint acceleration.
	Xout []float64
	// Lambda stacks the forces of the active contacts.
	Lambda []float64

	// Fx (nv x 2nv) and Fu (nv x nu) are the acceleration derivatives.
	Fx *mat.Dense
	Fu *mat.Dense
	// DfDx and DfDu are the stacked contact force derivatives.
	DfDx *mat.Dense
	DfDu *mat.Dense

	kkt    *mat.Dense
	kktInv *mat.Dense
	lu     mat.LU
	nc     int
}

func (f *ContactFwd) CreateData() *ContactFwdData {
	nv, nu := f.Model.NV(), f.NU()
	md := multibody.NewData(f.Model)
	return &ContactFwdData{
		Engine:   md,
		Contacts: f.Contacts.CreateData(md),
		Tau:      make([]float64, nv),
		Xout:     make([]float64, nv),
		Fx:       mat.NewDense(nv, 2*nv, nil),
		Fu:       mat.NewDense(nv, nu, nil),
		DfDx:     &mat.Dense{},
		DfDu:     &mat.Dense{},
	}
}

func (f *ContactFwd) check(x dynamo.State, u dynamo.Control) error {
	if len(x) != f.NX() {
		return dynamo.DimError("state", len(x), f.NX())
	}
	if len(u) != f.NU() {
		return dynamo.DimError("control", len(u), f.NU())
	}
	return nil
}

// Calc computes the constrained acceleration and contact forces at (x, u)
// and stores the forces in the engine's external forces.
func (f *ContactFwd) Calc(d *ContactFwdData, x dynamo.State, u dynamo.Control) error {
	if err := f.check(x, u); err != nil {
		return err
	}
	m, md := f.Model, d.Engine
	nv := m.NV()
	q, v := x.Split(nv)

	if err := f.Actuation.Calc(d.Tau, u); err != nil {
		return err
	}
	if f.JointDamping != 0 {
		for i := range d.Tau {
			d.Tau[i] -= f.JointDamping * v[i]
		}
	}

	multibody.ForwardKinematics(m, md, q, v, nil)
	multibody.CRBA(m, md, q)
	multibody.NonLinearEffects(m, md, q, v)
	if err := f.Contacts.Calc(d.Contacts, x); err != nil {
		return err
	}

	nc := f.Contacts.NC()
	n := nv + nc
	if d.nc != nc || d.kkt == nil {
		d.kkt = mat.NewDense(n, n, nil)
		d.kktInv = mat.NewDense(n, n, nil)
		d.Lambda = make([]float64, nc)
		d.nc = nc
	}
	d.kkt.Zero()
	d.kkt.Slice(0, nv, 0, nv).(*mat.Dense).Copy(md.M)
	if nc > 0 {
		jc := d.Contacts.Jc
		d.kkt.Slice(0, nv, nv, n).(*mat.Dense).Copy(jc.T())
		d.kkt.Slice(nv, n, 0, nv).(*mat.Dense).Copy(jc)
	}

	d.lu.Factorize(d.kkt)
	if c := d.lu.Cond(); math.IsInf(c, 0) || math.IsNaN(c) || c > maxCondition {
		return fmt.Errorf("%w: kkt condition number %g with %d contact rows", dynamo.ErrNumericalDegeneracy, c, nc)
	}

	rhs := mat.NewVecDense(n, nil)
	for i := 0; i < nv; i++ {
		rhs.SetVec(i, d.Tau[i]-md.Nle[i])
	}
	for i := 0; i < nc; i++ {
		rhs.SetVec(nv+i, -d.Contacts.A0[i])
	}
	var sol mat.VecDense
	if err := d.lu.SolveVecTo(&sol, false, rhs); err != nil {
		return fmt.Errorf("%w: %v", dynamo.ErrNumericalDegeneracy, err)
	}
	for i := 0; i < nv; i++ {
		d.Xout[i] = sol.AtVec(i)
	}
	for i := 0; i < nc; i++ {
		d.Lambda[i] = -sol.AtVec(nv + i)
	}
	return f.Contacts.UpdateForce(d.Contacts, d.Lambda)
}

// CalcDiff computes Fx, Fu and the contact force derivatives. It assumes
// Calc ran at (x, u) on the same data.
func (f *ContactFwd) CalcDiff(d *ContactFwdData, x dynamo.State, u dynamo.Control) error {
	if err := f.check(x, u); err != nil {
		return err
	}
	if d.kkt == nil {
		return fmt.Errorf("%w: calc diff before calc", dynamo.ErrNotInitialized)
	}
	m, md := f.Model, d.Engine
	nv, nu, nc := m.NV(), f.NU(), d.nc
	n := nv + nc
	q, v := x.Split(nv)

	multibody.ComputeRNEADerivatives(m, md, q, v, d.Xout)
	if err := f.Contacts.CalcDiff(d.Contacts, x); err != nil {
		return err
	}
	if err := f.Contacts.UpdateRneaDerivatives(d.Contacts, md); err != nil {
		return err
	}

	// dtau = d(rnea)/dx - d(actuation)/dx
	dtau := mat.NewDense(nv, 2*nv, nil)
	dtau.Slice(0, nv, 0, nv).(*mat.Dense).Copy(md.DtauDq)
	dtau.Slice(0, nv, nv, 2*nv).(*mat.Dense).Copy(md.DtauDv)
	if f.JointDamping != 0 {
		for i := 0; i < nv; i++ {
			dtau.Set(i, nv+i, dtau.At(i, nv+i)+f.JointDamping)
		}
	}

	if err := d.lu.SolveTo(d.kktInv, false, eye(n)); err != nil {
		return fmt.Errorf("%w: %v", dynamo.ErrNumericalDegeneracy, err)
	}
	tl := d.kktInv.Slice(0, nv, 0, nv)
	S := f.Actuation.S

	d.Fx.Mul(tl, dtau)
	d.Fu.Mul(tl, S)

	if nc == 0 {
		d.Fx.Scale(-1, d.Fx)
		d.DfDx, d.DfDu = &mat.Dense{}, &mat.Dense{}
	} else {
		tr := d.kktInv.Slice(0, nv, nv, n)
		bl := d.kktInv.Slice(nv, n, 0, nv)
		br := d.kktInv.Slice(nv, n, nv, n)
		da0 := d.Contacts.DA0dx

		var tmp mat.Dense
		tmp.Mul(tr, da0)
		d.Fx.Add(d.Fx, &tmp)
		d.Fx.Scale(-1, d.Fx)

		d.DfDx = mat.NewDense(nc, 2*nv, nil)
		d.DfDx.Mul(bl, dtau)
		tmp.Reset()
		tmp.Mul(br, da0)
		d.DfDx.Add(d.DfDx, &tmp)

		d.DfDu = mat.NewDense(nc, nu, nil)
		d.DfDu.Mul(bl, S)
		d.DfDu.Scale(-1, d.DfDu)

		if err := f.Contacts.UpdateForceDiff(d.Contacts, d.DfDx, d.DfDu); err != nil {
			return err
		}
	}
	return f.Contacts.UpdateAccelerationDiff(d.Contacts, d.Fx)
}

func eye(n int) *mat.Dense {
	id := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		id.Set(i, i, 1)
	}
	return id
}
