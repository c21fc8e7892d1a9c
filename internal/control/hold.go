package control

import (
	"sync"

	"github.com/san-kum/stride/internal/dynamo"
)

// Hold passes the last control set by the planner to the plant until the
// next one arrives.
type Hold struct {
	mu sync.RWMutex
	u  dynamo.Control
}

func NewHold(dim int) *Hold {
	return &Hold{u: make(dynamo.Control, dim)}
}

// Set replaces the held control. Controls of the wrong size are ignored.
func (h *Hold) Set(u dynamo.Control) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(u) != len(h.u) {
		return false
	}
	copy(h.u, u)
	return true
}

// Compute returns a copy of the held control.
func (h *Hold) Compute(state dynamo.State, t float64) dynamo.Control {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.u.Clone()
}
