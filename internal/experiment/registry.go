package experiment

import (
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/stride/internal/control"
	"github.com/san-kum/stride/internal/dynamo"
	"github.com/san-kum/stride/internal/horizon"
	"github.com/san-kum/stride/internal/integrators"
	"github.com/san-kum/stride/internal/metrics"
	"github.com/san-kum/stride/internal/multibody"
	"github.com/san-kum/stride/internal/residual"
	"github.com/san-kum/stride/internal/robot"
	"github.com/san-kum/stride/internal/sim"
)

// Gains of the joint posture policy.
type Gains struct {
	Kp float64
	Kd float64
}

var DefaultGains = Gains{Kp: 200, Kd: 20}

type solverFactory func(d *robot.Designer, g Gains) horizon.Solver

// Registry names the horizon solvers and integrators a run can use.
type Registry struct {
	solvers map[string]solverFactory
}

func NewRegistry() *Registry {
	r := &Registry{
		solvers: make(map[string]solverFactory),
	}

	r.solvers["posture"] = func(d *robot.Designer, g Gains) horizon.Solver {
		actuated := make([]int, d.NU())
		for i := range actuated {
			actuated[i] = robot.BaseDOF + i
		}
		return &horizon.Rollout{Policy: control.NewPosture(d.NQ(), actuated, d.Q0(), g.Kp, g.Kd)}
	}
	r.solvers["passive"] = func(d *robot.Designer, g Gains) horizon.Solver {
		// A hold that is never set applies zero torque.
		return &horizon.Rollout{Policy: control.NewHold(d.NU())}
	}
	// warmstart replays the controls already stored in the horizon.
	r.solvers["warmstart"] = func(d *robot.Designer, g Gains) horizon.Solver {
		return &horizon.Rollout{}
	}

	return r
}

func (r *Registry) GetSolver(name string, d *robot.Designer, g Gains) (horizon.Solver, error) {
	fn, ok := r.solvers[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown solver: %s", dynamo.ErrInvalidArgument, name)
	}
	return fn(d, g), nil
}

func (r *Registry) GetIntegrator(name string) (dynamo.Integrator, error) {
	return integrators.New(name)
}

func (r *Registry) ListSolvers() []string {
	names := make([]string, 0, len(r.solvers))
	for name := range r.solvers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) ListIntegrators() []string {
	return integrators.Names()
}

// DefaultMetrics observes the effort, the contact forces, the base height,
// the center of mass velocity and the energy drift of a run.
func (r *Registry) DefaultMetrics(d *robot.Designer, plant *sim.Plant) []dynamo.Metric {
	ms := []dynamo.Metric{
		metrics.NewControlEffort(),
		metrics.NewContactForce(plant),
		metrics.NewEnergyDrift(d.Reduced),
		metrics.NewResidualRMS("com_velocity", residual.NewCoMVelocity(d.Reduced, mgl64.Vec3{}, d.NU())),
	}
	if z, ok := d.Reduced.JointID("base_z"); ok {
		ms = append(ms, metrics.NewStability(z, multibody.BipedStandingHeight/2))
	}
	return ms
}
