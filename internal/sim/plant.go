package sim

import (
	"fmt"
	"math"

	"github.com/san-kum/stride/internal/dynamics"
	"github.com/san-kum/stride/internal/dynamo"
	"github.com/san-kum/stride/internal/horizon"
)

// PhaseModels provides the contact dynamics of each support phase.
type PhaseModels interface {
	Model(s horizon.Support) (*dynamics.Euler, error)
}

// Plant is the simulated robot. It evaluates the contact dynamics of the
// current support phase as a continuous-time system.
type Plant struct {
	models  PhaseModels
	support horizon.Support
	data    map[horizon.Support]*dynamics.ContactFwdData
	last    *dynamics.ContactFwd
	lastD   *dynamics.ContactFwdData
	nx, nu  int
	err     error
}

func NewPlant(models PhaseModels, support horizon.Support) (*Plant, error) {
	e, err := models.Model(support)
	if err != nil {
		return nil, err
	}
	p := &Plant{
		models: models,
		data:   make(map[horizon.Support]*dynamics.ContactFwdData),
		nx:     e.NX(),
		nu:     e.NU(),
	}
	if err := p.SetSupport(support); err != nil {
		return nil, err
	}
	return p, nil
}

// SetSupport selects the contacts enforced from now on.
func (p *Plant) SetSupport(s horizon.Support) error {
	e, err := p.models.Model(s)
	if err != nil {
		return err
	}
	if e.NX() != p.nx || e.NU() != p.nu {
		return fmt.Errorf("%w: %s model has sizes (%d, %d), plant has (%d, %d)",
			dynamo.ErrDimensionMismatch, s, e.NX(), e.NU(), p.nx, p.nu)
	}
	d, ok := p.data[s]
	if !ok {
		d = e.Differential.CreateData()
		p.data[s] = d
	}
	p.support, p.last, p.lastD = s, e.Differential, d
	return nil
}

func (p *Plant) Support() horizon.Support { return p.support }

func (p *Plant) StateDim() int   { return p.nx }
func (p *Plant) ControlDim() int { return p.nu }

// Derive returns [v; a]. A failed evaluation yields a NaN derivative and is
// kept for Err.
func (p *Plant) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	dx := make(dynamo.State, len(x))
	if err := p.last.Calc(p.lastD, x, u); err != nil {
		if p.err == nil {
			p.err = err
		}
		for i := range dx {
			dx[i] = math.NaN()
		}
		return dx
	}
	nv := p.nx / 2
	copy(dx, x[nv:])
	copy(dx[nv:], p.lastD.Xout)
	return dx
}

// Err returns the first failed evaluation since the last ClearErr.
func (p *Plant) Err() error { return p.err }

func (p *Plant) ClearErr() { p.err = nil }

// ContactForces returns the forces of the last evaluation by contact name.
func (p *Plant) ContactForces() map[string][]float64 {
	return p.last.Contacts.Forces(p.lastD.Contacts)
}
