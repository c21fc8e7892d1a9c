// Package robot describes the walking robot: its complete and reduced
// models, the feet, the reference posture, and the per-phase dynamics
// models a horizon is made of.
package robot

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/stride/internal/dynamo"
	"github.com/san-kum/stride/internal/multibody"
)

// BaseDOF is the number of unactuated floating-base joints.
const BaseDOF = 6

// DefaultLockedJoints are frozen at the neutral posture to build the
// reduced model the controller works on.
var DefaultLockedJoints = []string{"left_ankle_pitch", "right_ankle_pitch"}

// Designer holds the complete robot model, the reduced model used for
// control, and the map between their postures.
type Designer struct {
	Complete *multibody.Model
	Reduced  *multibody.Model
	// ControlledJoints lists, for every joint of Reduced, its index in
	// Complete.
	ControlledJoints []int

	LeftFoot    string
	RightFoot   string
	LeftFootID  int
	RightFootID int

	q0 []float64
}

// NewBipedDesigner builds the bundled biped with the named joints locked.
// With no names the ankles are locked.
func NewBipedDesigner(locked ...string) (*Designer, error) {
	if len(locked) == 0 {
		locked = DefaultLockedJoints
	}
	return NewDesigner(multibody.NewBiped(), multibody.LeftSoleFrame, multibody.RightSoleFrame, locked)
}

// NewDesigner reduces complete by locking the named joints at the neutral
// posture and resolves the foot frames in the reduced model.
func NewDesigner(complete *multibody.Model, leftFoot, rightFoot string, locked []string) (*Designer, error) {
	ids := make([]int, 0, len(locked))
	for _, name := range locked {
		id, ok := complete.JointID(name)
		if !ok {
			return nil, fmt.Errorf("%w: model %q has no joint %q", dynamo.ErrInvalidArgument, complete.Name, name)
		}
		if id < BaseDOF {
			return nil, fmt.Errorf("%w: cannot lock base joint %q", dynamo.ErrInvalidArgument, name)
		}
		ids = append(ids, id)
	}

	neutral := multibody.BipedNeutral(complete)
	reduced, kept, err := complete.Reduce(ids, neutral)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", dynamo.ErrInvalidArgument, err)
	}

	d := &Designer{
		Complete:         complete,
		Reduced:          reduced,
		ControlledJoints: kept,
		LeftFoot:         leftFoot,
		RightFoot:        rightFoot,
		q0:               multibody.BipedNeutral(reduced),
	}
	var ok bool
	if d.LeftFootID, ok = reduced.FrameID(leftFoot); !ok {
		return nil, fmt.Errorf("%w: no foot frame %q", dynamo.ErrInvalidArgument, leftFoot)
	}
	if d.RightFootID, ok = reduced.FrameID(rightFoot); !ok {
		return nil, fmt.Errorf("%w: no foot frame %q", dynamo.ErrInvalidArgument, rightFoot)
	}
	return d, nil
}

// CompleteNQ and CompleteNV are the posture sizes of the complete model.
func (d *Designer) CompleteNQ() int { return d.Complete.NQ() }
func (d *Designer) CompleteNV() int { return d.Complete.NV() }

// NQ and NV are the posture sizes of the reduced model.
func (d *Designer) NQ() int { return d.Reduced.NQ() }
func (d *Designer) NV() int { return d.Reduced.NV() }

// NU is the number of actuated joints of the reduced model.
func (d *Designer) NU() int { return d.Reduced.NV() - BaseDOF }

// Q0 returns a copy of the reduced reference posture.
func (d *Designer) Q0() []float64 {
	return append([]float64(nil), d.q0...)
}

// SetQ0 replaces the reduced reference posture.
func (d *Designer) SetQ0(q []float64) error {
	if len(q) != d.NQ() {
		return dynamo.DimError("reference posture", len(q), d.NQ())
	}
	d.q0 = append(d.q0[:0], q...)
	return nil
}

// X0 is the reference posture at rest.
func (d *Designer) X0() dynamo.State {
	return dynamo.Join(d.Q0(), make([]float64, d.NV()))
}

// ReduceState extracts the controlled joints from a complete posture.
func (d *Designer) ReduceState(q, v []float64) (dynamo.State, error) {
	if len(q) != d.CompleteNQ() {
		return nil, dynamo.DimError("complete configuration", len(q), d.CompleteNQ())
	}
	if len(v) != d.CompleteNV() {
		return nil, dynamo.DimError("complete velocity", len(v), d.CompleteNV())
	}
	x := make(dynamo.State, d.NQ()+d.NV())
	for i, j := range d.ControlledJoints {
		x[i] = q[j]
		x[d.NQ()+i] = v[j]
	}
	return x, nil
}

// FeetPositions returns the world positions of the soles at posture q of
// the reduced model.
func (d *Designer) FeetPositions(q []float64) (left, right mgl64.Vec3, err error) {
	if len(q) != d.NQ() {
		return left, right, dynamo.DimError("configuration", len(q), d.NQ())
	}
	md := multibody.NewData(d.Reduced)
	multibody.ForwardKinematics(d.Reduced, md, q, nil, nil)
	return multibody.FramePlacement(md, d.LeftFootID).P, multibody.FramePlacement(md, d.RightFootID).P, nil
}
