// Package horizon manages the receding window of integrated contact
// dynamics models that a shooting solver optimizes over.
package horizon

import (
	"fmt"
	"io"
	"runtime"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/stride/internal/dynamics"
	"github.com/san-kum/stride/internal/dynamo"
)

// Node is one time step of the window. Data is exclusively owned by the
// node; models may be shared between nodes and windows.
type Node struct {
	Model   *dynamics.Euler
	Data    *dynamics.EulerData
	Support Support
}

// NewNode creates a node with fresh data for model.
func NewNode(model *dynamics.Euler, support Support) *Node {
	return &Node{Model: model, Data: model.CreateData(), Support: support}
}

// Fork returns a node sharing the model but owning new data.
func (n *Node) Fork() *Node {
	return NewNode(n.Model, n.Support)
}

// Solver optimizes the controls of a window starting from x0.
type Solver interface {
	Solve(p *Manager, x0 dynamo.State, maxIter int, isFeasible bool) (bool, error)
}

// Manager is a fixed-length window of nodes, node 0 being now, with warm
// starts of T+1 states and T controls.
type Manager struct {
	nodes  []*Node
	xs     []dynamo.State
	us     []dynamo.Control
	solver Solver
	log    logrus.FieldLogger
}

// Option configures a Manager.
type Option func(*Manager)

func WithSolver(s Solver) Option {
	return func(p *Manager) { p.solver = s }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(p *Manager) { p.log = log }
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// NewManager builds a window over nodes. Warm starts are zero until set.
func NewManager(nodes []*Node, opts ...Option) (*Manager, error) {
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: empty horizon", dynamo.ErrInvalidArgument)
	}
	p := &Manager{nodes: nodes, log: discardLogger()}
	for _, opt := range opts {
		opt(p)
	}
	nx := nodes[0].Model.NX()
	for i, n := range nodes {
		if n.Model.NX() != nx {
			return nil, fmt.Errorf("%w: node %d has state size %d, node 0 has %d",
				dynamo.ErrDimensionMismatch, i, n.Model.NX(), nx)
		}
		p.us = append(p.us, make(dynamo.Control, n.Model.NU()))
	}
	p.xs = make([]dynamo.State, len(nodes)+1)
	for i := range p.xs {
		p.xs[i] = make(dynamo.State, nx)
	}
	return p, nil
}

func (p *Manager) Size() int { return len(p.nodes) }

func (p *Manager) Node(i int) *Node { return p.nodes[i] }

// Tags lists the support phase of every node.
func (p *Manager) Tags() []Support {
	tags := make([]Support, len(p.nodes))
	for i, n := range p.nodes {
		tags[i] = n.Support
	}
	return tags
}

func (p *Manager) SetSolver(s Solver) { p.solver = s }

// State returns the warm-start state of knot i, 0 <= i <= Size().
func (p *Manager) State(i int) dynamo.State { return p.xs[i] }

// Control returns the warm-start control of node i.
func (p *Manager) Control(i int) dynamo.Control { return p.us[i] }

// States returns the T+1 warm-start states. The slice aliases the window.
func (p *Manager) States() []dynamo.State { return p.xs }

// Controls returns the T warm-start controls. The slice aliases the window.
func (p *Manager) Controls() []dynamo.Control { return p.us }

// SetWarmStart replaces the warm starts. xs must hold T+1 states and us T
// controls.
func (p *Manager) SetWarmStart(xs []dynamo.State, us []dynamo.Control) error {
	if len(xs) != len(p.nodes)+1 {
		return dynamo.DimError("warm-start states", len(xs), len(p.nodes)+1)
	}
	if len(us) != len(p.nodes) {
		return dynamo.DimError("warm-start controls", len(us), len(p.nodes))
	}
	for i, x := range xs {
		if len(x) != len(p.xs[i]) {
			return dynamo.DimError(fmt.Sprintf("warm-start state %d", i), len(x), len(p.xs[i]))
		}
		p.xs[i] = x.Clone()
	}
	for i, u := range us {
		if len(u) != p.nodes[i].Model.NU() {
			return dynamo.DimError(fmt.Sprintf("warm-start control %d", i), len(u), p.nodes[i].Model.NU())
		}
		p.us[i] = u.Clone()
	}
	return nil
}

// FillWarmStart sets every warm-start state to x and every control to zero.
func (p *Manager) FillWarmStart(x dynamo.State) {
	for i := range p.xs {
		p.xs[i] = x.Clone()
	}
	for i, n := range p.nodes {
		p.us[i] = make(dynamo.Control, n.Model.NU())
	}
}

// Recede moves node 0 to the end of the window together with its warm
// start. Applied Size() times it restores the original window.
func (p *Manager) Recede() {
	first, u0, x0 := p.nodes[0], p.us[0], p.xs[0]
	copy(p.nodes, p.nodes[1:])
	p.nodes[len(p.nodes)-1] = first
	copy(p.us, p.us[1:])
	p.us[len(p.us)-1] = u0

	// States keep T+1 knots: the old terminal state stays next to the new
	// last node and the old initial state becomes the new terminal guess.
	copy(p.xs, p.xs[1:])
	p.xs[len(p.xs)-1] = x0
}

// RecedeWith drops node 0 and appends a node running the model of the
// cycle's node 0, then advances the cycle. Warm starts shift down by one;
// the appended node starts from the cycle's warm start when the sizes
// match, else from the last guess.
func (p *Manager) RecedeWith(cycle *Manager) {
	src := cycle.nodes[0]
	next := src.Fork()

	copy(p.nodes, p.nodes[1:])
	p.nodes[len(p.nodes)-1] = next

	lastU := p.us[len(p.us)-1]
	copy(p.us, p.us[1:])
	if cu := cycle.us[0]; len(cu) == next.Model.NU() {
		p.us[len(p.us)-1] = cu.Clone()
	} else {
		p.us[len(p.us)-1] = lastU.Clone()
	}

	lastX := p.xs[len(p.xs)-1]
	copy(p.xs, p.xs[1:])
	p.xs[len(p.xs)-1] = lastX.Clone()

	p.log.WithField("support", next.Support).Trace("horizon receded")
	cycle.Recede()
}

// Head returns a window of n nodes that repeats this one cyclically. Nodes
// share models with p and own fresh data.
func (p *Manager) Head(n int) (*Manager, error) {
	nodes := make([]*Node, n)
	for i := range nodes {
		nodes[i] = p.nodes[i%len(p.nodes)].Fork()
	}
	h, err := NewManager(nodes, WithSolver(p.solver), WithLogger(p.log))
	if err != nil {
		return nil, err
	}
	for i := range h.us {
		h.us[i] = p.us[i%len(p.us)].Clone()
	}
	return h, nil
}

// Clone deep-copies the window: node data and warm starts are fresh, models
// are shared.
func (p *Manager) Clone() *Manager {
	c := &Manager{solver: p.solver, log: p.log}
	for _, n := range p.nodes {
		c.nodes = append(c.nodes, n.Fork())
	}
	for _, x := range p.xs {
		c.xs = append(c.xs, x.Clone())
	}
	for _, u := range p.us {
		c.us = append(c.us, u.Clone())
	}
	return c
}

// Solve runs the configured solver from x0.
func (p *Manager) Solve(x0 dynamo.State, maxIter int, isFeasible bool) (bool, error) {
	if p.solver == nil {
		return false, fmt.Errorf("%w: horizon has no solver", dynamo.ErrNotInitialized)
	}
	if len(x0) != len(p.xs[0]) {
		return false, dynamo.DimError("initial state", len(x0), len(p.xs[0]))
	}
	return p.solver.Solve(p, x0, maxIter, isFeasible)
}

// Rollout integrates the nodes from x0 under us and returns the T+1 states.
func (p *Manager) Rollout(x0 dynamo.State, us []dynamo.Control) ([]dynamo.State, error) {
	if len(us) != len(p.nodes) {
		return nil, dynamo.DimError("controls", len(us), len(p.nodes))
	}
	xs := make([]dynamo.State, len(p.nodes)+1)
	xs[0] = x0.Clone()
	for i, n := range p.nodes {
		if err := n.Model.Calc(n.Data, xs[i], us[i]); err != nil {
			return xs[:i+1], fmt.Errorf("node %d (%s): %w", i, n.Support, err)
		}
		xs[i+1] = n.Data.Xnext.Clone()
	}
	return xs, nil
}

// CalcDiff evaluates every node and its derivatives at the warm start,
// spreading nodes over the available CPUs.
func (p *Manager) CalcDiff() error {
	return dynamo.ParallelFor(len(p.nodes), 4, runtime.GOMAXPROCS(0), func(start, end int) error {
		for i := start; i < end; i++ {
			n := p.nodes[i]
			err := n.Model.Calc(n.Data, p.xs[i], p.us[i])
			if err == nil {
				err = n.Model.CalcDiff(n.Data, p.xs[i], p.us[i])
			}
			if err != nil {
				return fmt.Errorf("node %d (%s): %w", i, n.Support, err)
			}
		}
		return nil
	})
}
