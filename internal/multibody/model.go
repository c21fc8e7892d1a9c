package multibody

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// DefaultGravity points down the world Z axis.
var DefaultGravity = mgl64.Vec3{0, 0, -9.81}

type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) Unit() mgl64.Vec3 {
	var u mgl64.Vec3
	u[a] = 1
	return u
}

func (a Axis) Rotation(angle float64) mgl64.Mat3 {
	switch a {
	case AxisX:
		return mgl64.Rotate3DX(angle)
	case AxisY:
		return mgl64.Rotate3DY(angle)
	default:
		return mgl64.Rotate3DZ(angle)
	}
}

func (a Axis) String() string {
	return [...]string{"x", "y", "z"}[a]
}

type JointKind int

const (
	Revolute JointKind = iota
	Prismatic
)

// ReferenceFrame selects the axes point quantities are projected on.
type ReferenceFrame int

const (
	// Local projects on the axes of the frame itself.
	Local ReferenceFrame = iota
	// World projects on the world axes.
	World
	// LocalWorldAligned projects on world axes at the frame origin. For the
	// point quantities used by contacts it coincides with World.
	LocalWorldAligned
)

func (r ReferenceFrame) String() string {
	switch r {
	case World:
		return "world"
	case LocalWorldAligned:
		return "local_world_aligned"
	default:
		return "local"
	}
}

// WorldAligned reports whether quantities are expressed on world axes.
func (r ReferenceFrame) WorldAligned() bool {
	return r == World || r == LocalWorldAligned
}

// ParseReferenceFrame converts a reference frame name into its enum.
func ParseReferenceFrame(value string) (ReferenceFrame, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "local":
		return Local, nil
	case "world":
		return World, nil
	case "local_world_aligned", "lwa":
		return LocalWorldAligned, nil
	default:
		return Local, fmt.Errorf("unknown reference frame %q", value)
	}
}

// Placement is a rigid transform: x_parent = R*x_child + P.
type Placement struct {
	R mgl64.Mat3
	P mgl64.Vec3
}

func Identity() Placement {
	return Placement{R: mgl64.Ident3()}
}

// Translation returns a pure translation.
func Translation(x, y, z float64) Placement {
	return Placement{R: mgl64.Ident3(), P: mgl64.Vec3{x, y, z}}
}

// Act composes p with child, returning the child placement in p's parent.
func (p Placement) Act(child Placement) Placement {
	return Placement{
		R: p.R.Mul3(child.R),
		P: p.P.Add(p.R.Mul3x1(child.P)),
	}
}

func (p Placement) ActPoint(x mgl64.Vec3) mgl64.Vec3 {
	return p.P.Add(p.R.Mul3x1(x))
}

type Joint struct {
	Name      string
	Kind      JointKind
	Axis      Axis
	Parent    int
	Placement Placement
}

// motion returns the placement produced by the joint variable q.
func (j Joint) motion(q float64) Placement {
	if j.Kind == Revolute {
		return Placement{R: j.Axis.Rotation(q)}
	}
	return Placement{R: mgl64.Ident3(), P: j.Axis.Unit().Mul(q)}
}

// Body is the rigid body carried by a joint. COM and Inertia are expressed
// in the joint frame; Inertia is taken about the COM.
type Body struct {
	Mass    float64
	COM     mgl64.Vec3
	Inertia mgl64.Mat3
}

// DiagonalInertia builds a body with a principal inertia diag(ixx, iyy, izz).
func DiagonalInertia(mass float64, com mgl64.Vec3, ixx, iyy, izz float64) Body {
	return Body{Mass: mass, COM: com, Inertia: mgl64.Diag3(mgl64.Vec3{ixx, iyy, izz})}
}

// Frame is an operational frame rigidly attached to a joint.
type Frame struct {
	Name      string
	Joint     int
	Placement Placement
}

type Model struct {
	Name    string
	Joints  []Joint
	Bodies  []Body
	Frames  []Frame
	Gravity mgl64.Vec3

	// support[i] lists the joints from the root down to i, inclusive.
	support [][]int
}

func NewModel(name string) *Model {
	return &Model{Name: name, Gravity: DefaultGravity}
}

func (m *Model) NQ() int { return len(m.Joints) }
func (m *Model) NV() int { return len(m.Joints) }

// AddJoint appends a joint with its body and returns the joint index. The
// parent must already exist; -1 attaches to the world.
func (m *Model) AddJoint(j Joint, b Body) (int, error) {
	if j.Parent < -1 || j.Parent >= len(m.Joints) {
		return -1, fmt.Errorf("joint %q: parent %d does not exist", j.Name, j.Parent)
	}
	if _, ok := m.JointID(j.Name); ok {
		return -1, fmt.Errorf("joint %q already exists", j.Name)
	}
	id := len(m.Joints)
	m.Joints = append(m.Joints, j)
	m.Bodies = append(m.Bodies, b)

	var chain []int
	if j.Parent >= 0 {
		chain = append(chain, m.support[j.Parent]...)
	}
	m.support = append(m.support, append(chain, id))
	return id, nil
}

// MustAddJoint is AddJoint for statically known trees.
func (m *Model) MustAddJoint(j Joint, b Body) int {
	id, err := m.AddJoint(j, b)
	if err != nil {
		panic(err)
	}
	return id
}

func (m *Model) AddFrame(name string, joint int, p Placement) (int, error) {
	if joint < 0 || joint >= len(m.Joints) {
		return -1, fmt.Errorf("frame %q: joint %d does not exist", name, joint)
	}
	if _, ok := m.FrameID(name); ok {
		return -1, fmt.Errorf("frame %q already exists", name)
	}
	m.Frames = append(m.Frames, Frame{Name: name, Joint: joint, Placement: p})
	return len(m.Frames) - 1, nil
}

func (m *Model) JointID(name string) (int, bool) {
	for i, j := range m.Joints {
		if j.Name == name {
			return i, true
		}
	}
	return -1, false
}

func (m *Model) FrameID(name string) (int, bool) {
	for i, f := range m.Frames {
		if f.Name == name {
			return i, true
		}
	}
	return -1, false
}

// Support returns the joints moving joint i, root first.
func (m *Model) Support(i int) []int {
	return m.support[i]
}

func (m *Model) TotalMass() float64 {
	total := 0.0
	for _, b := range m.Bodies {
		total += b.Mass
	}
	return total
}
