package control

import "github.com/san-kum/stride/internal/dynamo"

// Posture is a PD controller regulating the actuated joints of a floating
// robot around a reference configuration:
//
//	u_i = Uff_i + Kp*(qref_j - q_j) - Kd*v_j,  j = Actuated[i]
type Posture struct {
	Kp        float64
	Kd        float64
	Reference []float64
	Actuated  []int
	// Uff is an optional feedforward added to the feedback.
	Uff []float64

	nq int
}

func NewPosture(nq int, actuated []int, reference []float64, kp, kd float64) *Posture {
	return &Posture{
		Kp:        kp,
		Kd:        kd,
		Reference: append([]float64(nil), reference...),
		Actuated:  append([]int(nil), actuated...),
		nq:        nq,
	}
}

func (p *Posture) Compute(x dynamo.State, t float64) dynamo.Control {
	u := make(dynamo.Control, len(p.Actuated))
	if len(x) < 2*p.nq {
		return u
	}
	q, v := x.Split(p.nq)
	for i, j := range p.Actuated {
		u[i] = p.Kp*(p.Reference[j]-q[j]) - p.Kd*v[j]
		if i < len(p.Uff) {
			u[i] += p.Uff[i]
		}
	}
	return u
}

// GetParams returns tunable parameters for live adjustment
func (p *Posture) GetParams() map[string]float64 {
	return map[string]float64{
		"Kp": p.Kp,
		"Kd": p.Kd,
	}
}

// SetParam adjusts a gain
func (p *Posture) SetParam(name string, value float64) {
	switch name {
	case "Kp":
		p.Kp = value
	case "Kd":
		p.Kd = value
	}
}
