package multibody

import (
	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/mat"
)

// kinState holds world-frame placements and motion of every joint body.
type kinState struct {
	oMi   []Placement
	axis  []mgl64.Vec3
	omega []mgl64.Vec3
	vel   []mgl64.Vec3
	alpha []mgl64.Vec3
	acc   []mgl64.Vec3
}

func newKinState(nj int) kinState {
	return kinState{
		oMi:   make([]Placement, nj),
		axis:  make([]mgl64.Vec3, nj),
		omega: make([]mgl64.Vec3, nj),
		vel:   make([]mgl64.Vec3, nj),
		alpha: make([]mgl64.Vec3, nj),
		acc:   make([]mgl64.Vec3, nj),
	}
}

// Data is the scratch space of one Model evaluation. It is mutated in place
// by every engine call and must not be shared between goroutines.
type Data struct {
	// M is the joint-space mass matrix (nv x nv).
	M *mat.Dense
	// Nle holds Coriolis, centrifugal and gravity effects.
	Nle []float64
	// Tau is the output of the last RNEA call.
	Tau []float64
	// DtauDq and DtauDv are the partial derivatives of RNEA. Contact models
	// only accumulate into them.
	DtauDq *mat.Dense
	DtauDv *mat.Dense
	// Fext holds one external force per joint, expressed in the joint frame.
	Fext []Force
	// OMf caches frame placements from the last ForwardKinematics.
	OMf []Placement

	q, v, a []float64
	kin     kinState
	scratch kinState
	tmp     []float64
}

func NewData(m *Model) *Data {
	nv := m.NV()
	return &Data{
		M:       mat.NewDense(nv, nv, nil),
		Nle:     make([]float64, nv),
		Tau:     make([]float64, nv),
		DtauDq:  mat.NewDense(nv, nv, nil),
		DtauDv:  mat.NewDense(nv, nv, nil),
		Fext:    make([]Force, nv),
		OMf:     make([]Placement, len(m.Frames)),
		q:       make([]float64, nv),
		v:       make([]float64, nv),
		a:       make([]float64, nv),
		kin:     newKinState(nv),
		scratch: newKinState(nv),
		tmp:     make([]float64, nv),
	}
}

// ClearExternalForces zeroes Fext.
func (d *Data) ClearExternalForces() {
	for i := range d.Fext {
		d.Fext[i] = Force{}
	}
}

// Acceleration returns the joint acceleration of the last
// ForwardKinematics call. The slice aliases d.
func (d *Data) Acceleration() []float64 {
	return d.a
}
