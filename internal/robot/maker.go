package robot

import (
	"fmt"
	"sync"

	"github.com/san-kum/stride/internal/contact"
	"github.com/san-kum/stride/internal/dynamics"
	"github.com/san-kum/stride/internal/dynamo"
	"github.com/san-kum/stride/internal/horizon"
	"github.com/san-kum/stride/internal/multibody"
)

// Contact names used in every phase model.
const (
	LeftContact  = "left_foot"
	RightContact = "right_foot"
)

// ModelMaker builds the integrated contact dynamics of each support phase.
// Models are built once per phase and shared by every node using it.
type ModelMaker struct {
	Designer *Designer
	Dt       float64
	// Gains are the Baumgarte gains {Kp, Kd} of the foot contacts.
	Gains        [2]float64
	JointDamping float64

	mu     sync.Mutex
	models map[horizon.Support]*dynamics.Euler
}

func NewModelMaker(d *Designer, dt float64) *ModelMaker {
	return &ModelMaker{Designer: d, Dt: dt, Gains: [2]float64{0, 50}}
}

// Model returns the phase model of s, building it on first use. Foot
// references are the sole positions at the designer's reference posture.
func (mm *ModelMaker) Model(s horizon.Support) (*dynamics.Euler, error) {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	if e, ok := mm.models[s]; ok {
		return e, nil
	}
	e, err := mm.build(s)
	if err != nil {
		return nil, fmt.Errorf("%s model: %w", s, err)
	}
	if mm.models == nil {
		mm.models = make(map[horizon.Support]*dynamics.Euler)
	}
	mm.models[s] = e
	return e, nil
}

func (mm *ModelMaker) build(s horizon.Support) (*dynamics.Euler, error) {
	d := mm.Designer
	m := d.Reduced
	lf, rf, err := d.FeetPositions(d.Q0())
	if err != nil {
		return nil, err
	}

	// The skew correction of world-aligned feet must reach every row of
	// dtau/dq, so the contacts span all nv joints.
	nu := m.NV()
	opts := []contact.Option{
		contact.WithGains(mm.Gains[0], mm.Gains[1]),
		contact.WithType(multibody.LocalWorldAligned),
	}
	cm := contact.NewMultipleWithNU(m, nu)
	if err := cm.AddContact(LeftContact, contact.NewThreeAxis(d.LeftFootID, lf, nu, opts...), s.LeftInContact()); err != nil {
		return nil, err
	}
	if err := cm.AddContact(RightContact, contact.NewThreeAxis(d.RightFootID, rf, nu, opts...), s.RightInContact()); err != nil {
		return nil, err
	}

	fwd, err := dynamics.NewContactFwd(m, dynamics.NewFloatingBaseActuation(m.NV(), BaseDOF), cm)
	if err != nil {
		return nil, err
	}
	fwd.JointDamping = mm.JointDamping
	return dynamics.NewEuler(fwd, mm.Dt)
}

// FormulateHorizon returns one node per support tag, in order.
func (mm *ModelMaker) FormulateHorizon(supports []horizon.Support) ([]*horizon.Node, error) {
	if len(supports) == 0 {
		return nil, fmt.Errorf("%w: no support phases", dynamo.ErrInvalidArgument)
	}
	nodes := make([]*horizon.Node, len(supports))
	for i, s := range supports {
		e, err := mm.Model(s)
		if err != nil {
			return nil, err
		}
		nodes[i] = horizon.NewNode(e, s)
	}
	return nodes, nil
}
