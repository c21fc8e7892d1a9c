package multibody

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/stride/internal/dynamo"
)

// Reduce builds a model in which the locked joints are frozen at their value
// in qRef. Bodies of locked joints are merged into their closest kept
// ancestor and frames are re-attached to it. The returned slice maps every
// kept joint of the reduced model to its index in m.
func (m *Model) Reduce(locked []int, qRef []float64) (*Model, []int, error) {
	if len(qRef) != m.NQ() {
		return nil, nil, dynamo.DimError("reference configuration", len(qRef), m.NQ())
	}
	isLocked := make([]bool, m.NQ())
	for _, j := range locked {
		if j < 0 || j >= m.NQ() {
			return nil, nil, fmt.Errorf("locked joint %d does not exist", j)
		}
		isLocked[j] = true
	}

	red := NewModel(m.Name + "_reduced")
	red.Gravity = m.Gravity

	newID := make([]int, m.NQ())
	// pre[i] is the placement of body i relative to the body frame of its
	// closest kept ancestor (the world when there is none).
	pre := make([]Placement, m.NQ())
	owner := make([]int, m.NQ())
	var kept []int

	for i, j := range m.Joints {
		parentPre, parentOwner := Identity(), -1
		if j.Parent >= 0 {
			parentPre, parentOwner = pre[j.Parent], owner[j.Parent]
		}

		if !isLocked[i] {
			jr := j
			jr.Parent = parentOwner
			jr.Placement = parentPre.Act(j.Placement)
			id, err := red.AddJoint(jr, m.Bodies[i])
			if err != nil {
				return nil, nil, err
			}
			newID[i] = id
			pre[i] = Identity()
			owner[i] = id
			kept = append(kept, i)
			continue
		}

		newID[i] = -1
		pre[i] = parentPre.Act(j.Placement).Act(j.motion(qRef[i]))
		owner[i] = parentOwner
		if parentOwner >= 0 {
			red.Bodies[parentOwner] = mergeBody(red.Bodies[parentOwner], m.Bodies[i], pre[i])
		}
	}

	for _, f := range m.Frames {
		if owner[f.Joint] < 0 {
			return nil, nil, fmt.Errorf("frame %q would be fixed to the world", f.Name)
		}
		if _, err := red.AddFrame(f.Name, owner[f.Joint], pre[f.Joint].Act(f.Placement)); err != nil {
			return nil, nil, err
		}
	}
	return red, kept, nil
}

// mergeBody adds body b, placed at p in a's frame, to a.
func mergeBody(a, b Body, p Placement) Body {
	if b.Mass == 0 {
		return a
	}
	bCOM := p.ActPoint(b.COM)
	bI := p.R.Mul3(b.Inertia).Mul3(p.R.Transpose())
	mass := a.Mass + b.Mass
	com := a.COM.Mul(a.Mass).Add(bCOM.Mul(b.Mass)).Mul(1 / mass)

	inertia := shiftInertia(a.Inertia, a.Mass, a.COM.Sub(com)).
		Add(shiftInertia(bI, b.Mass, bCOM.Sub(com)))
	return Body{Mass: mass, COM: com, Inertia: inertia}
}

// shiftInertia applies the parallel axis theorem for an offset d.
func shiftInertia(I mgl64.Mat3, mass float64, d mgl64.Vec3) mgl64.Mat3 {
	outer := d.OuterProd3(d)
	return I.Add(mgl64.Ident3().Mul(d.Dot(d) * mass)).Sub(outer.Mul(mass))
}
