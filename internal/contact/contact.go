// Package contact implements rigid point-contact constraints and their
// aggregation into one constrained-dynamics problem.
//
// A contact constrains the classical acceleration of a frame origin along
// one or three axes, stabilized by Baumgarte gains:
//
//	a0 = a_classical + Kp*(p - xref) + Kd*v
//
// expressed in the contact's reference frame. Contacts are collected in a
// Multiple, which stacks the Jacobians and drifts of its active contacts in
// insertion order and corrects the engine's inverse-dynamics derivatives
// for forces held fixed in world axes.
package contact

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/stride/internal/dynamo"
	"github.com/san-kum/stride/internal/multibody"
)

// Kind tags the constraint dimension of a contact.
type Kind int

const (
	KindOneAxis Kind = iota
	KindThreeAxis
)

func (k Kind) String() string {
	switch k {
	case KindOneAxis:
		return "1d"
	case KindThreeAxis:
		return "3d"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// NC returns the number of constraint rows of the kind.
func (k Kind) NC() int {
	if k == KindOneAxis {
		return 1
	}
	return 3
}

// Mask selects the constrained axis of a one-axis contact.
type Mask int

const (
	MaskX Mask = iota
	MaskY
	MaskZ
)

func (m Mask) Valid() bool { return m >= MaskX && m <= MaskZ }

func (m Mask) String() string {
	if !m.Valid() {
		return fmt.Sprintf("Mask(%d)", int(m))
	}
	return [...]string{"x", "y", "z"}[m]
}

func ParseMask(value string) (Mask, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "x":
		return MaskX, nil
	case "y":
		return MaskY, nil
	case "z":
		return MaskZ, nil
	}
	return MaskZ, fmt.Errorf("%w: unknown contact mask %q", dynamo.ErrInvalidArgument, value)
}

// Contact is the closed set of contact constraints: *OneAxis and *ThreeAxis.
type Contact interface {
	Kind() Kind
	NC() int
	NU() int
	FrameID() int
	Reference() mgl64.Vec3
	SetReference(xref mgl64.Vec3)
	Gains() [2]float64
	SetGains(gains [2]float64)
	Type() multibody.ReferenceFrame
	SetType(t multibody.ReferenceFrame)

	// CreateData allocates the scratch buffers of the contact for md.
	CreateData(md *multibody.Data) *Data
	// UpdateForce stores the reduced force f, expressed along the
	// constrained axes of the reference frame, as a local spatial force.
	UpdateForce(d *Data, f []float64) error
	// ReducedForce recovers the reduced force from the stored spatial force.
	ReducedForce(d *Data) []float64

	sealed()
}

// Option customizes a contact at construction.
type Option func(*point)

// WithGains sets the Baumgarte gains (Kp, Kd). The default is zero.
func WithGains(kp, kd float64) Option {
	return func(p *point) { p.gains = [2]float64{kp, kd} }
}

// WithType sets the reference frame of the constraint. The default is
// multibody.Local.
func WithType(t multibody.ReferenceFrame) Option {
	return func(p *point) { p.typ = t }
}

// WithMask sets the constrained axis of a one-axis contact. The default is
// MaskZ and is kept for an invalid mask. Three-axis contacts ignore it.
func WithMask(m Mask) Option {
	return func(p *point) {
		if m.Valid() {
			p.mask = m
		}
	}
}

// point holds what both contact kinds share.
type point struct {
	frame int
	xref  mgl64.Vec3
	gains [2]float64
	typ   multibody.ReferenceFrame
	nu    int
	mask  Mask
}

func newPoint(frame int, xref mgl64.Vec3, nu int, opts []Option) point {
	p := point{frame: frame, xref: xref, nu: nu, typ: multibody.Local, mask: MaskZ}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

func (p *point) NU() int { return p.nu }
func (p *point) FrameID() int { return p.frame }
func (p *point) Reference() mgl64.Vec3 { return p.xref }
func (p *point) SetReference(xref mgl64.Vec3) { p.xref = xref }
func (p *point) Gains() [2]float64 { return p.gains }
func (p *point) SetGains(gains [2]float64) { p.gains = gains }
func (p *point) Type() multibody.ReferenceFrame { return p.typ }
func (p *point) SetType(t multibody.ReferenceFrame) { p.typ = t }
func (p *point) sealed() {}

// OneAxis constrains the motion of a frame origin along one axis of its
// reference frame.
type OneAxis struct {
	point
}

// NewOneAxis creates a one-axis contact on frame with target position xref.
func NewOneAxis(frame int, xref mgl64.Vec3, nu int, opts ...Option) *OneAxis {
	return &OneAxis{point: newPoint(frame, xref, nu, opts)}
}

func (c *OneAxis) Kind() Kind { return KindOneAxis }
func (c *OneAxis) NC() int { return 1 }
func (c *OneAxis) Mask() Mask { return c.mask }

// SetMask changes the constrained axis. An invalid mask leaves it unchanged.
func (c *OneAxis) SetMask(m Mask) error {
	if !m.Valid() {
		return fmt.Errorf("%w: contact mask %s", dynamo.ErrInvalidArgument, m)
	}
	c.mask = m
	return nil
}

func (c *OneAxis) CreateData(md *multibody.Data) *Data {
	return newData(KindOneAxis, c.frame, c.nu, md)
}

func (c *OneAxis) UpdateForce(d *Data, f []float64) error {
	if len(f) != 1 {
		return fmt.Errorf("one-axis contact force has size %d, expected 1", len(f))
	}
	var ref mgl64.Vec3
	ref[c.mask] = f[0]
	d.storeForce(c.typ, ref)
	return nil
}

func (c *OneAxis) ReducedForce(d *Data) []float64 {
	ref := d.referenceForce(c.typ)
	return []float64{ref[c.mask]}
}

// ThreeAxis constrains the full position of a frame origin.
type ThreeAxis struct {
	point
}

// NewThreeAxis creates a three-axis contact on frame with target position
// xref.
func NewThreeAxis(frame int, xref mgl64.Vec3, nu int, opts ...Option) *ThreeAxis {
	return &ThreeAxis{point: newPoint(frame, xref, nu, opts)}
}

func (c *ThreeAxis) Kind() Kind { return KindThreeAxis }
func (c *ThreeAxis) NC() int { return 3 }

func (c *ThreeAxis) CreateData(md *multibody.Data) *Data {
	return newData(KindThreeAxis, c.frame, c.nu, md)
}

func (c *ThreeAxis) UpdateForce(d *Data, f []float64) error {
	if len(f) != 3 {
		return fmt.Errorf("three-axis contact force has size %d, expected 3", len(f))
	}
	d.storeForce(c.typ, mgl64.Vec3{f[0], f[1], f[2]})
	return nil
}

func (c *ThreeAxis) ReducedForce(d *Data) []float64 {
	ref := d.referenceForce(c.typ)
	return []float64{ref[0], ref[1], ref[2]}
}

// rows returns the constrained row indices of the 3-vector quantities.
func rows(c Contact) []int {
	switch c := c.(type) {
	case *OneAxis:
		return []int{int(c.mask)}
	case *ThreeAxis:
		return []int{0, 1, 2}
	}
	panic(fmt.Sprintf("contact: unknown contact %T", c))
}
