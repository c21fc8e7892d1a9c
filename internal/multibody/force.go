package multibody

import "github.com/go-gl/mathgl/mgl64"

// Force is a spatial force: a linear force and a moment about the origin
// of the frame it is expressed in.
type Force struct {
	Linear  mgl64.Vec3
	Angular mgl64.Vec3
}

// ActForce expresses f, given in the child frame of p, in p's parent frame.
func (p Placement) ActForce(f Force) Force {
	lin := p.R.Mul3x1(f.Linear)
	return Force{
		Linear:  lin,
		Angular: p.R.Mul3x1(f.Angular).Add(p.P.Cross(lin)),
	}
}

func (f Force) Add(g Force) Force {
	return Force{Linear: f.Linear.Add(g.Linear), Angular: f.Angular.Add(g.Angular)}
}

func (f Force) IsZero() bool {
	return f.Linear == (mgl64.Vec3{}) && f.Angular == (mgl64.Vec3{})
}
