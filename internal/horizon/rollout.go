package horizon

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/stride/internal/dynamo"
)

// Rollout is a Solver that forward-simulates the window without
// optimizing. Controls come from Policy when set, else from the warm start.
// The rolled-out trajectory becomes the new warm start.
type Rollout struct {
	Policy dynamo.Controller
	// Derivatives evaluates the node derivatives at the rolled-out
	// trajectory after every pass.
	Derivatives bool
	Log         logrus.FieldLogger
}

func (r *Rollout) Solve(p *Manager, x0 dynamo.State, maxIter int, isFeasible bool) (bool, error) {
	if maxIter <= 0 {
		return false, nil
	}
	us := make([]dynamo.Control, p.Size())
	for i := range us {
		us[i] = p.Control(i).Clone()
	}

	// A policy is deterministic, so one pass reaches its fixed point.
	var (
		xs  []dynamo.State
		err error
	)
	if r.Policy == nil {
		xs, err = p.Rollout(x0, us)
	} else {
		xs, err = r.closedLoop(p, x0, us)
	}
	if err != nil {
		if r.Log != nil {
			r.Log.WithError(err).WithField("feasible", isFeasible).Warn("rollout failed")
		}
		return false, err
	}

	for _, x := range xs {
		if !x.IsValid() {
			return false, fmt.Errorf("%w: rollout diverged", dynamo.ErrNumericalDegeneracy)
		}
	}
	if err := p.SetWarmStart(xs, us); err != nil {
		return false, err
	}
	if r.Derivatives {
		if err := p.CalcDiff(); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (r *Rollout) closedLoop(p *Manager, x0 dynamo.State, us []dynamo.Control) ([]dynamo.State, error) {
	xs := make([]dynamo.State, p.Size()+1)
	xs[0] = x0.Clone()
	t := 0.0
	for i := 0; i < p.Size(); i++ {
		n := p.Node(i)
		us[i] = r.Policy.Compute(xs[i], t)
		if err := n.Model.Calc(n.Data, xs[i], us[i]); err != nil {
			return nil, fmt.Errorf("node %d (%s): %w", i, n.Support, err)
		}
		xs[i+1] = n.Data.Xnext.Clone()
		t += n.Model.Dt
	}
	return xs, nil
}
