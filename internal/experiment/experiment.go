package experiment

import (
	"context"
	"fmt"
	"io"
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/stride/internal/config"
	"github.com/san-kum/stride/internal/dynamo"
	"github.com/san-kum/stride/internal/horizon"
	"github.com/san-kum/stride/internal/robot"
	"github.com/san-kum/stride/internal/sim"
	"github.com/san-kum/stride/internal/wbc"
)

type Config struct {
	// Preset names the settings unless Settings is set.
	Preset     string
	Settings   *config.Settings
	Integrator string
	Solver     string
	Gains      Gains
	Mode       wbc.Mode
	// Duration defaults to the walking time of the settings.
	Duration float64
	// Noise is the standard deviation of the initial joint velocities.
	Noise float64
	Seed  int64
}

// Experiment wires a walking run: designer, phase models, horizon,
// controller and plant.
type Experiment struct {
	cfg        Config
	settings   *config.Settings
	registry   *Registry
	designer   *robot.Designer
	maker      *robot.ModelMaker
	ctrl       *wbc.WBC
	simulator  *sim.Simulator
	x0         dynamo.State
	randSource *rand.Rand
	log        logrus.FieldLogger
}

type Option func(*Experiment)

func WithLogger(log logrus.FieldLogger) Option {
	return func(e *Experiment) { e.log = log }
}

func New(cfg Config, opts ...Option) *Experiment {
	l := logrus.New()
	l.SetOutput(io.Discard)
	e := &Experiment{
		cfg:        cfg,
		registry:   NewRegistry(),
		randSource: rand.New(rand.NewSource(cfg.Seed)),
		log:        l,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Experiment) resolveSettings() (*config.Settings, error) {
	if e.cfg.Settings != nil {
		s := *e.cfg.Settings
		if err := s.Validate(); err != nil {
			return nil, err
		}
		return &s, nil
	}
	name := e.cfg.Preset
	if name == "" {
		name = "walk"
	}
	s := config.GetPreset(name)
	if s == nil {
		return nil, fmt.Errorf("%w: unknown preset %q", dynamo.ErrConfiguration, name)
	}
	return s, nil
}

func (e *Experiment) Setup() error {
	settings, err := e.resolveSettings()
	if err != nil {
		return err
	}
	e.settings = settings

	if e.designer, err = robot.NewBipedDesigner(); err != nil {
		return err
	}
	e.maker = robot.NewModelMaker(e.designer, settings.Dt)

	gains := e.cfg.Gains
	if gains == (Gains{}) {
		gains = DefaultGains
	}
	solverName := e.cfg.Solver
	if solverName == "" {
		solverName = "posture"
	}
	solver, err := e.registry.GetSolver(solverName, e.designer, gains)
	if err != nil {
		return err
	}
	integName := e.cfg.Integrator
	if integName == "" {
		integName = "semi_euler"
	}
	integ, err := e.registry.GetIntegrator(integName)
	if err != nil {
		return err
	}

	h, err := wbc.InitialHorizon(e.maker, settings, horizon.WithSolver(solver), horizon.WithLogger(e.log))
	if err != nil {
		return err
	}

	e.x0 = e.designer.X0()
	if e.cfg.Noise > 0 {
		nq := e.designer.NQ()
		for i := nq + robot.BaseDOF; i < len(e.x0); i++ {
			e.x0[i] += e.cfg.Noise * e.randSource.NormFloat64()
		}
	}
	q, v := e.x0.Split(e.designer.NQ())

	e.ctrl = wbc.New(wbc.WithLogger(e.log))
	if err := e.ctrl.Initialize(settings, e.designer, h, q, v); err != nil {
		return err
	}
	if err := e.ctrl.GenerateWalkingCycle(e.maker); err != nil {
		return err
	}
	if err := e.ctrl.GenerateStandingCycle(e.maker); err != nil {
		return err
	}
	e.ctrl.SetMode(e.cfg.Mode)

	plant, err := sim.NewPlant(e.maker, e.ctrl.Support())
	if err != nil {
		return err
	}
	e.simulator = sim.New(plant, integ, e.ctrl, sim.WithLogger(e.log))
	for _, m := range e.registry.DefaultMetrics(e.designer, plant) {
		e.simulator.AddMetric(m)
	}

	e.log.WithFields(logrus.Fields{
		"solver":     solverName,
		"integrator": integName,
		"mode":       e.cfg.Mode,
		"nq":         e.designer.NQ(),
	}).Info("experiment ready")
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("%w: experiment not setup", dynamo.ErrNotInitialized)
	}
	duration := e.cfg.Duration
	if duration <= 0 {
		duration = e.settings.Duration()
	}
	simCfg := sim.Config{
		SimuStep:      e.settings.SimuStep,
		Duration:      duration,
		ValidateState: true,
	}
	return e.simulator.Run(ctx, e.x0, simCfg)
}

func (e *Experiment) Settings() *config.Settings { return e.settings }
func (e *Experiment) Designer() *robot.Designer { return e.designer }
func (e *Experiment) Controller() *wbc.WBC { return e.ctrl }
func (e *Experiment) Simulator() *sim.Simulator { return e.simulator }
func (e *Experiment) Registry() *Registry { return e.registry }
func (e *Experiment) InitialState() dynamo.State { return e.x0.Clone() }
