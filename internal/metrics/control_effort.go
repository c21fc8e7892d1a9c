package metrics

import (
	"math"

	"github.com/san-kum/stride/internal/dynamo"
)

// ControlEffort is the root mean square joint torque over a run. It also
// keeps the largest torque sent to any joint.
type ControlEffort struct {
	name    string
	sumSq   float64
	peak    float64
	entries int
}

func NewControlEffort() *ControlEffort {
	return &ControlEffort{name: "control_effort"}
}

func (c *ControlEffort) Name() string { return c.name }

func (c *ControlEffort) Observe(x dynamo.State, u dynamo.Control, t float64) {
	for _, tau := range u {
		c.sumSq += tau * tau
		c.peak = math.Max(c.peak, math.Abs(tau))
	}
	c.entries += len(u)
}

func (c *ControlEffort) Value() float64 {
	if c.entries == 0 {
		return 0
	}
	return math.Sqrt(c.sumSq / float64(c.entries))
}

// Peak is the largest absolute torque observed.
func (c *ControlEffort) Peak() float64 { return c.peak }

func (c *ControlEffort) Reset() {
	c.sumSq = 0
	c.peak = 0
	c.entries = 0
}
