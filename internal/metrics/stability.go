package metrics

import (
	"math"

	"github.com/san-kum/stride/internal/dynamo"
)

// Stability is the fraction of ticks with the base above a minimum height.
// A diverged state counts as a fall.
type Stability struct {
	name      string
	index     int
	minHeight float64
	falls     int
	samples   int
	lowest    float64
}

// NewStability watches state component index, the base height.
func NewStability(index int, minHeight float64) *Stability {
	return &Stability{
		name:      "stability",
		index:     index,
		minHeight: minHeight,
		lowest:    math.Inf(1),
	}
}

func (s *Stability) Name() string { return s.name }

func (s *Stability) Observe(x dynamo.State, u dynamo.Control, t float64) {
	s.samples++
	if s.index >= len(x) || !x.IsValid() {
		s.falls++
		return
	}
	h := x[s.index]
	s.lowest = math.Min(s.lowest, h)
	if h < s.minHeight {
		s.falls++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.falls)/float64(s.samples)
}

// Lowest is the smallest finite base height observed, +Inf before any.
func (s *Stability) Lowest() float64 { return s.lowest }

func (s *Stability) Reset() {
	s.falls = 0
	s.samples = 0
	s.lowest = math.Inf(1)
}
