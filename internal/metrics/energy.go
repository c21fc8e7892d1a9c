package metrics

import (
	"math"

	"github.com/san-kum/stride/internal/dynamo"
	"github.com/san-kum/stride/internal/multibody"
)

// Energy averages the mechanical energy of the robot over the run.
type Energy struct {
	name        string
	model       *multibody.Model
	data        *multibody.Data
	samples     int
	totalEnergy float64
}

func NewEnergy(model *multibody.Model) *Energy {
	return &Energy{
		name:  "energy",
		model: model,
		data:  multibody.NewData(model),
	}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(x dynamo.State, u dynamo.Control, t float64) {
	nq := e.model.NQ()
	if len(x) != nq+e.model.NV() {
		return
	}
	q, v := x.Split(nq)
	ke, pe := multibody.Energy(e.model, e.data, q, v)
	e.totalEnergy += ke + pe
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.totalEnergy / float64(e.samples)
}

func (e *Energy) Reset() {
	e.totalEnergy = 0
	e.samples = 0
}

// EnergyDrift is the largest relative change of mechanical energy from the
// first observed state.
type EnergyDrift struct {
	name          string
	model         *multibody.Model
	data          *multibody.Data
	initialEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift(model *multibody.Model) *EnergyDrift {
	return &EnergyDrift{
		name:  "energy_drift",
		model: model,
		data:  multibody.NewData(model),
	}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(x dynamo.State, u dynamo.Control, t float64) {
	nq := e.model.NQ()
	if len(x) != nq+e.model.NV() {
		return
	}
	q, v := x.Split(nq)
	ke, pe := multibody.Energy(e.model, e.data, q, v)
	energy := ke + pe

	if e.samples == 0 {
		e.initialEnergy = energy
	}
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}
