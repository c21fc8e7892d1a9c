package multibody

import "github.com/go-gl/mathgl/mgl64"

// Frame names used by the bundled models.
const (
	PointFrame     = "point"
	FootFrame      = "foot"
	LeftSoleFrame  = "left_sole"
	RightSoleFrame = "right_sole"
)

// NewPointMass returns a unit point mass moving along the world axes.
func NewPointMass() *Model {
	m := NewModel("point_mass")
	x := m.MustAddJoint(Joint{Name: "x", Kind: Prismatic, Axis: AxisX, Parent: -1, Placement: Identity()}, Body{})
	y := m.MustAddJoint(Joint{Name: "y", Kind: Prismatic, Axis: AxisY, Parent: x, Placement: Identity()}, Body{})
	z := m.MustAddJoint(Joint{Name: "z", Kind: Prismatic, Axis: AxisZ, Parent: y, Placement: Identity()},
		DiagonalInertia(1, mgl64.Vec3{}, 0, 0, 0))
	if _, err := m.AddFrame(PointFrame, z, Identity()); err != nil {
		panic(err)
	}
	return m
}

// NewPendulumFoot returns a roll/pitch pendulum with a telescopic link whose
// foot frame orientation depends on the configuration.
func NewPendulumFoot() *Model {
	m := NewModel("pendulum_foot")
	roll := m.MustAddJoint(Joint{Name: "roll", Kind: Revolute, Axis: AxisX, Parent: -1, Placement: Translation(0, 0, 1)},
		DiagonalInertia(0.5, mgl64.Vec3{0, 0, -0.1}, 0.01, 0.01, 0.005))
	pitch := m.MustAddJoint(Joint{Name: "pitch", Kind: Revolute, Axis: AxisY, Parent: roll, Placement: Identity()},
		DiagonalInertia(1.2, mgl64.Vec3{0.02, 0, -0.3}, 0.04, 0.05, 0.01))
	slide := m.MustAddJoint(Joint{Name: "slide", Kind: Prismatic, Axis: AxisZ, Parent: pitch, Placement: Translation(0, 0, -0.5)},
		DiagonalInertia(0.8, mgl64.Vec3{0, 0.01, -0.1}, 0.02, 0.02, 0.004))
	foot := Placement{R: AxisZ.Rotation(0.3).Mul3(AxisX.Rotation(-0.2)), P: mgl64.Vec3{0.1, 0.05, -0.2}}
	if _, err := m.AddFrame(FootFrame, slide, foot); err != nil {
		panic(err)
	}
	return m
}

// Biped geometry.
const (
	BipedHipWidth   = 0.1
	BipedThigh      = 0.4
	BipedShin       = 0.4
	BipedSoleOffset = 0.05
	// BipedStandingHeight places both soles on the ground at q = 0.
	BipedStandingHeight = BipedThigh + BipedShin + BipedSoleOffset
)

// NewBiped returns a floating-base biped: a 6-DoF base (three slides then
// yaw, pitch, roll) and two legs of hip roll, hip pitch, a telescopic knee
// and an ankle pitch. Joint order is base, left leg, right leg.
func NewBiped() *Model {
	m := NewModel("biped")
	parent := -1
	base := []struct {
		name string
		kind JointKind
		axis Axis
	}{
		{"base_x", Prismatic, AxisX},
		{"base_y", Prismatic, AxisY},
		{"base_z", Prismatic, AxisZ},
		{"base_yaw", Revolute, AxisZ},
		{"base_pitch", Revolute, AxisY},
		{"base_roll", Revolute, AxisX},
	}
	for i, b := range base {
		body := Body{}
		if i == len(base)-1 {
			body = DiagonalInertia(10, mgl64.Vec3{0, 0, 0.1}, 0.3, 0.25, 0.15)
		}
		parent = m.MustAddJoint(Joint{Name: b.name, Kind: b.kind, Axis: b.axis, Parent: parent, Placement: Identity()}, body)
	}
	pelvis := parent

	leg := func(side string, y float64, sole string) {
		hr := m.MustAddJoint(Joint{Name: side + "_hip_roll", Kind: Revolute, Axis: AxisX, Parent: pelvis, Placement: Translation(0, y, 0)},
			DiagonalInertia(0.5, mgl64.Vec3{}, 0.002, 0.002, 0.002))
		hp := m.MustAddJoint(Joint{Name: side + "_hip_pitch", Kind: Revolute, Axis: AxisY, Parent: hr, Placement: Identity()},
			DiagonalInertia(1.5, mgl64.Vec3{0, 0, -BipedThigh / 2}, 0.02, 0.02, 0.002))
		kn := m.MustAddJoint(Joint{Name: side + "_knee", Kind: Prismatic, Axis: AxisZ, Parent: hp, Placement: Translation(0, 0, -BipedThigh)},
			DiagonalInertia(1.0, mgl64.Vec3{0, 0, -BipedShin / 2}, 0.015, 0.015, 0.001))
		an := m.MustAddJoint(Joint{Name: side + "_ankle_pitch", Kind: Revolute, Axis: AxisY, Parent: kn, Placement: Translation(0, 0, -BipedShin)},
			DiagonalInertia(0.3, mgl64.Vec3{0.02, 0, -0.03}, 0.001, 0.002, 0.002))
		if _, err := m.AddFrame(sole, an, Translation(0, 0, -BipedSoleOffset)); err != nil {
			panic(err)
		}
	}
	leg("left", BipedHipWidth, LeftSoleFrame)
	leg("right", -BipedHipWidth, RightSoleFrame)
	return m
}

// BipedNeutral returns the standing configuration of NewBiped or of any
// model reduced from it, with the base at standing height.
func BipedNeutral(m *Model) []float64 {
	q := make([]float64, m.NQ())
	if z, ok := m.JointID("base_z"); ok {
		q[z] = BipedStandingHeight
	}
	return q
}
