package metrics

import (
	"math"

	"github.com/san-kum/stride/internal/dynamo"
	"github.com/san-kum/stride/internal/residual"
)

// ResidualRMS is the root mean square norm of a task residual over a run.
// Ticks where the residual cannot be evaluated are counted in Failures.
type ResidualRMS struct {
	name     string
	r        residual.Residual
	data     *residual.Data
	sumSq    float64
	samples  int
	failures int
}

func NewResidualRMS(name string, r residual.Residual) *ResidualRMS {
	return &ResidualRMS{name: name, r: r, data: r.CreateData()}
}

func (m *ResidualRMS) Name() string { return m.name }

func (m *ResidualRMS) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if err := m.r.Calc(m.data, x, u); err != nil {
		m.failures++
		return
	}
	n := m.data.Norm()
	m.sumSq += n * n
	m.samples++
}

func (m *ResidualRMS) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return math.Sqrt(m.sumSq / float64(m.samples))
}

func (m *ResidualRMS) Failures() int { return m.failures }

func (m *ResidualRMS) Reset() {
	m.sumSq = 0
	m.samples = 0
	m.failures = 0
}
