package sim

import (
	"context"
	"fmt"
	"io"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/stride/internal/control"
	"github.com/san-kum/stride/internal/dynamo"
	"github.com/san-kum/stride/internal/wbc"
)

// Simulator runs the walking controller against the plant.
type Simulator struct {
	plant      *Plant
	integrator dynamo.Integrator
	ctrl       *wbc.WBC
	hold       *control.Hold
	metrics    []dynamo.Metric
	observers  []dynamo.Observer
	log        logrus.FieldLogger
}

type Option func(*Simulator)

func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Simulator) { s.log = log }
}

// New wires an initialized controller to the plant.
func New(plant *Plant, integrator dynamo.Integrator, ctrl *wbc.WBC, opts ...Option) *Simulator {
	l := logrus.New()
	l.SetOutput(io.Discard)
	s := &Simulator{
		plant:      plant,
		integrator: integrator,
		ctrl:       ctrl,
		hold:       control.NewHold(plant.ControlDim()),
		metrics:    make([]dynamo.Metric, 0),
		observers:  make([]dynamo.Observer, 0),
		log:        l,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Simulator) AddMetric(m dynamo.Metric) { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) Plant() *Plant { return s.plant }

// Ticks is the number of control ticks of a run.
func (cfg Config) Ticks() int {
	return int(math.Round(cfg.Duration / cfg.SimuStep))
}

// Run simulates from x0 for cfg.Duration. A failed solve keeps the held
// control and is recorded in the result. A plant failure stops the run.
func (s *Simulator) Run(ctx context.Context, x0 dynamo.State, cfg Config) (*Result, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}
	if len(x0) != s.plant.StateDim() {
		return nil, dynamo.DimError("initial state", len(x0), s.plant.StateDim())
	}

	steps := cfg.Ticks()
	result := &Result{
		States:   make([]dynamo.State, 0, steps+1),
		Controls: make([]dynamo.Control, 0, steps),
		Times:    make([]float64, 0, steps+1),
		Metrics:  make(map[string]float64),
		Errors:   make([]error, 0),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	x := x0.Clone()
	t := 0.0
	dt := cfg.SimuStep
	nq := s.plant.StateDim() / 2

	result.States = append(result.States, x.Clone())
	result.Times = append(result.Times, t)

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			s.finish(result)
			return result, ctx.Err()
		default:
		}

		q, v := x.Split(nq)
		planned, err := s.ctrl.Iterate(i, q, v, true)
		switch {
		case err == nil:
			s.hold.Set(planned)
		case planned != nil:
			// The solve failed and planned is the previous control.
			s.hold.Set(planned)
			result.Errors = append(result.Errors, SimError{Time: t, Step: i, Message: err.Error()})
		default:
			s.finish(result)
			return result, fmt.Errorf("step %d: %w", i, err)
		}
		u := s.hold.Compute(x, t)

		if err := s.plant.SetSupport(s.ctrl.Support()); err != nil {
			s.finish(result)
			return result, err
		}

		for _, m := range s.metrics {
			m.Observe(x, u, t)
		}
		for _, obs := range s.observers {
			obs.OnStep(x, u, t)
		}

		s.plant.ClearErr()
		newX := s.integrator.Step(s.plant, x, u, t, dt)
		if err := s.plant.Err(); err != nil {
			result.Errors = append(result.Errors, SimError{Time: t, Step: i, Message: err.Error()})
			s.log.WithError(err).WithField("step", i).Warn("plant evaluation failed")
			break
		}
		if cfg.ValidateState && !newX.IsValid() {
			result.Errors = append(result.Errors, SimError{Time: t, Step: i, Message: "invalid state (NaN/Inf)"})
			break
		}

		x = newX
		t += dt
		result.StepsTaken++

		result.States = append(result.States, x.Clone())
		result.Controls = append(result.Controls, u)
		result.Times = append(result.Times, t)
		result.Phases = append(result.Phases, s.plant.Support())
	}

	s.finish(result)
	return result, nil
}

func (s *Simulator) finish(result *Result) {
	result.Events = s.ctrl.Events()
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}

func (s *Simulator) validateConfig(cfg Config) error {
	if cfg.SimuStep <= 0 {
		return fmt.Errorf("%w: simulation step must be positive, got %f", dynamo.ErrInvalidArgument, cfg.SimuStep)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %f", dynamo.ErrInvalidArgument, cfg.Duration)
	}
	return nil
}
