package metrics

import (
	"math"

	"github.com/san-kum/stride/internal/dynamo"
)

// ForceSource exposes the contact forces of the last plant evaluation, by
// contact name, in the reference frame of each contact.
type ForceSource interface {
	ContactForces() map[string][]float64
}

// ContactForce averages the total normal force of the active contacts and
// tracks its peak.
type ContactForce struct {
	name    string
	source  ForceSource
	sum     float64
	peak    float64
	samples int
}

func NewContactForce(source ForceSource) *ContactForce {
	return &ContactForce{
		name:   "contact_force",
		source: source,
	}
}

func (c *ContactForce) Name() string { return c.name }

func (c *ContactForce) Observe(x dynamo.State, u dynamo.Control, t float64) {
	total := 0.0
	for _, f := range c.source.ContactForces() {
		if len(f) > 0 {
			total += f[len(f)-1]
		}
	}
	c.sum += total
	c.peak = math.Max(c.peak, total)
	c.samples++
}

func (c *ContactForce) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

// Peak is the largest total normal force observed.
func (c *ContactForce) Peak() float64 { return c.peak }

func (c *ContactForce) Reset() {
	c.sum = 0
	c.peak = 0
	c.samples = 0
}
