package wbc

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/stride/internal/config"
	"github.com/san-kum/stride/internal/dynamo"
	"github.com/san-kum/stride/internal/horizon"
	"github.com/san-kum/stride/internal/robot"
)

// initialIterations bounds the cold-start solve run by Initialize.
const initialIterations = 100

// ModelMaker builds horizon nodes for a sequence of support phases.
type ModelMaker interface {
	FormulateHorizon(supports []horizon.Support) ([]*horizon.Node, error)
}

// WalkingPhase is the support phase of node i of a walk that starts at
// node 0 with double support.
func WalkingPhase(s *config.Settings, i int) Support {
	k := i % (2 * s.Tstep)
	switch {
	case k < s.TdoubleSupport:
		return horizon.DoubleSupport
	case k < s.Tstep:
		return horizon.SingleSupportLeft
	case k < s.Tstep+s.TdoubleSupport:
		return horizon.DoubleSupport
	default:
		return horizon.SingleSupportRight
	}
}

// InitialHorizon builds the window of the first T nodes of the walk.
func InitialHorizon(maker ModelMaker, s *config.Settings, opts ...horizon.Option) (*horizon.Manager, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	tags := make([]Support, s.T)
	for i := range tags {
		tags[i] = WalkingPhase(s, i)
	}
	nodes, err := maker.FormulateHorizon(tags)
	if err != nil {
		return nil, err
	}
	return horizon.NewManager(nodes, opts...)
}

// WBC is the walking controller. It is not safe for concurrent use.
type WBC struct {
	settings config.Settings
	designer *robot.Designer
	horizon  *horizon.Manager

	walkingCycle  *horizon.Manager
	standingCycle *horizon.Manager
	mode          Mode

	x0 dynamo.State
	u0 dynamo.Control

	takeoffLF, takeoffRF []int
	landLF, landRF       []int

	landingLF, landingRF     bool
	takingOffLF, takingOffRF bool

	support     Support
	events      []Event
	initialized bool

	log logrus.FieldLogger
}

type Option func(*WBC)

func WithLogger(log logrus.FieldLogger) Option {
	return func(w *WBC) { w.log = log }
}

func New(opts ...Option) *WBC {
	l := logrus.New()
	l.SetOutput(io.Discard)
	w := &WBC{log: l}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Initialize validates the settings, sets the reference state from the
// posture (q0, v0), warm-starts the horizon with it, resets the step
// timers and runs a first solve.
func (w *WBC) Initialize(settings *config.Settings, designer *robot.Designer, h *horizon.Manager, q0, v0 []float64) error {
	if settings == nil {
		return fmt.Errorf("%w: no settings", dynamo.ErrConfiguration)
	}
	if err := settings.Validate(); err != nil {
		return err
	}
	if designer == nil || h == nil {
		return fmt.Errorf("%w: designer and horizon are required", dynamo.ErrInvalidArgument)
	}
	if h.Size() != settings.T {
		return fmt.Errorf("%w: horizon has %d nodes, T is %d", dynamo.ErrConfiguration, h.Size(), settings.T)
	}
	x0, err := shapeState(designer, q0, v0)
	if err != nil {
		return err
	}
	if nx := len(h.State(0)); len(x0) != nx {
		return dynamo.DimError("initial state", len(x0), nx)
	}

	w.settings = *settings
	w.designer = designer
	w.horizon = h
	w.x0 = x0
	w.events = nil
	w.resetTiming()

	h.FillWarmStart(x0)
	w.support = h.Node(0).Support
	if _, err := h.Solve(x0, initialIterations, false); err != nil {
		return fmt.Errorf("initial solve: %w", err)
	}
	w.u0 = h.Control(0).Clone()
	w.initialized = true
	w.log.WithFields(logrus.Fields{
		"T":     settings.T,
		"Tstep": settings.Tstep,
		"Nc":    settings.Nc,
	}).Info("controller initialized")
	return nil
}

func (w *WBC) requireInit() error {
	if !w.initialized {
		return fmt.Errorf("%w: controller is not initialized", dynamo.ErrNotInitialized)
	}
	return nil
}

// ShapeState turns a measured posture into a solver state. Complete
// postures are reduced to the controlled joints; reduced postures pass
// through unchanged.
func (w *WBC) ShapeState(q, v []float64) (dynamo.State, error) {
	if w.designer == nil {
		return nil, fmt.Errorf("%w: no robot designer", dynamo.ErrNotInitialized)
	}
	return shapeState(w.designer, q, v)
}

func shapeState(d *robot.Designer, q, v []float64) (dynamo.State, error) {
	switch {
	case len(q) == d.CompleteNQ() && len(v) == d.CompleteNV():
		return d.ReduceState(q, v)
	case len(q) == d.NQ() && len(v) == d.NV():
		return dynamo.Join(q, v), nil
	}
	return nil, fmt.Errorf("%w: posture sizes (%d, %d) match neither the complete (%d, %d) nor the reduced (%d, %d) robot",
		dynamo.ErrInvalidArgument, len(q), len(v), d.CompleteNQ(), d.CompleteNV(), d.NQ(), d.NV())
}

// GenerateWalkingCycle builds the walking cycle DS, SSL, DS, SSR. It
// starts T nodes into the walk so that the nodes it supplies continue the
// initial horizon.
func (w *WBC) GenerateWalkingCycle(maker ModelMaker) error {
	if err := w.requireInit(); err != nil {
		return err
	}
	s := &w.settings
	tags := make([]Support, 2*s.Tstep)
	for i := range tags {
		tags[i] = WalkingPhase(s, s.T+i)
	}
	cycle, err := w.cycle(maker, tags)
	if err != nil {
		return fmt.Errorf("walking cycle: %w", err)
	}
	w.walkingCycle = cycle
	return nil
}

// GenerateStandingCycle builds a double-support cycle of the walking
// cycle's length.
func (w *WBC) GenerateStandingCycle(maker ModelMaker) error {
	if err := w.requireInit(); err != nil {
		return err
	}
	tags := make([]Support, 2*w.settings.Tstep)
	for i := range tags {
		tags[i] = horizon.DoubleSupport
	}
	cycle, err := w.cycle(maker, tags)
	if err != nil {
		return fmt.Errorf("standing cycle: %w", err)
	}
	w.standingCycle = cycle
	return nil
}

func (w *WBC) cycle(maker ModelMaker, tags []Support) (*horizon.Manager, error) {
	nodes, err := maker.FormulateHorizon(tags)
	if err != nil {
		return nil, err
	}
	cycle, err := horizon.NewManager(nodes, horizon.WithLogger(w.log))
	if err != nil {
		return nil, err
	}
	if nx := len(cycle.State(0)); nx != len(w.x0) {
		return nil, dynamo.DimError("cycle state", nx, len(w.x0))
	}
	cycle.FillWarmStart(w.x0)
	return cycle, nil
}

func (w *WBC) resetTiming() {
	s := w.settings
	n := s.HorizonSteps
	w.takeoffRF, w.takeoffLF = make([]int, n), make([]int, n)
	w.landRF, w.landLF = make([]int, n), make([]int, n)
	for i := 0; i < n; i++ {
		w.takeoffRF[i] = 2*i*s.Tstep + s.TdoubleSupport
		w.takeoffLF[i] = w.takeoffRF[i] + s.Tstep
		w.landRF[i] = w.takeoffRF[i] + s.TsingleSupport
		w.landLF[i] = w.takeoffLF[i] + s.TsingleSupport
	}
	w.clearFlags()
}

func (w *WBC) clearFlags() {
	w.landingLF, w.landingRF = false, false
	w.takingOffLF, w.takingOffRF = false, false
}

// UpdateStepCycleTiming advances the foot event timers by one tick and
// raises the flags of the events reaching node 0. A timer that has passed
// its event moves one gait cycle ahead.
func (w *WBC) UpdateStepCycleTiming() {
	period := 2 * w.settings.Tstep
	for _, timer := range [][]int{w.takeoffLF, w.takeoffRF, w.landLF, w.landRF} {
		for i := range timer {
			timer[i]--
		}
		if len(timer) > 0 && timer[0] < 0 {
			for i := range timer {
				timer[i] += period
			}
		}
	}
	w.takingOffLF = head(w.takeoffLF) == 0
	w.takingOffRF = head(w.takeoffRF) == 0
	w.landingLF = head(w.landLF) == 0
	w.landingRF = head(w.landRF) == 0
}

func head(timer []int) int {
	if len(timer) == 0 {
		return -1
	}
	return timer[0]
}

// TimeToSolveDDP reports whether the horizon recedes at this tick.
func (w *WBC) TimeToSolveDDP(iteration int) bool {
	if w.settings.Nc <= 0 {
		return false
	}
	return iteration%w.settings.Nc == 0
}

// RecedeWithCycle recedes the horizon with the cycle of the current mode.
func (w *WBC) RecedeWithCycle() error {
	cycle := w.walkingCycle
	if w.mode == Standing {
		cycle = w.standingCycle
	}
	if cycle == nil {
		return fmt.Errorf("%w: no %s cycle", dynamo.ErrNotInitialized, w.mode)
	}
	return w.RecedeWithCycleFrom(cycle)
}

// RecedeWithCycleFrom recedes the horizon with the given cycle. It is how
// a caller switches gaits at the receding boundary.
func (w *WBC) RecedeWithCycleFrom(cycle *horizon.Manager) error {
	if err := w.requireInit(); err != nil {
		return err
	}
	if cycle == nil {
		return fmt.Errorf("%w: nil cycle", dynamo.ErrInvalidArgument)
	}
	if nx := len(cycle.State(0)); nx != len(w.x0) {
		return dynamo.DimError("cycle state", nx, len(w.x0))
	}
	w.horizon.RecedeWith(cycle)
	return nil
}

// Iterate runs one control tick: it shapes the measured posture, recedes
// the horizon and advances the gait when due, then solves from the
// measured state. On a failed solve the previous control is kept and
// returned with the error.
func (w *WBC) Iterate(iteration int, q, v []float64, isFeasible bool) (dynamo.Control, error) {
	if err := w.requireInit(); err != nil {
		return nil, err
	}
	x, err := w.ShapeState(q, v)
	if err != nil {
		return nil, err
	}
	w.x0 = x

	if w.TimeToSolveDDP(iteration) {
		if err := w.RecedeWithCycle(); err != nil {
			return nil, err
		}
		if w.mode == Walking {
			w.UpdateStepCycleTiming()
		} else {
			w.clearFlags()
		}
		w.record(iteration)
	}

	ok, err := w.horizon.Solve(x, w.settings.DDPIteration, isFeasible)
	if err != nil {
		w.log.WithError(err).WithField("iteration", iteration).Warn("solve failed, keeping previous control")
		return w.U0(), fmt.Errorf("iteration %d: %w", iteration, err)
	}
	if !ok {
		w.log.WithField("iteration", iteration).Debug("solver stopped before convergence")
	}
	w.u0 = w.horizon.Control(0).Clone()
	return w.U0(), nil
}

func (w *WBC) record(iteration int) {
	if s := w.horizon.Node(0).Support; s != w.support {
		w.events = append(w.events, Event{Iteration: iteration, Kind: PhaseChange, From: w.support, To: s})
		w.log.WithFields(logrus.Fields{"iteration": iteration, "from": w.support, "to": s}).Debug("support phase changed")
		w.support = s
	}
	flags := []struct {
		set  bool
		kind EventKind
		foot Foot
	}{
		{w.takingOffLF, Takeoff, LeftFoot},
		{w.takingOffRF, Takeoff, RightFoot},
		{w.landingLF, Landing, LeftFoot},
		{w.landingRF, Landing, RightFoot},
	}
	for _, f := range flags {
		if !f.set {
			continue
		}
		w.events = append(w.events, Event{Iteration: iteration, Kind: f.kind, Foot: f.foot})
		w.log.WithFields(logrus.Fields{"iteration": iteration, "foot": f.foot}).Debug(f.kind.String())
	}
}

func (w *WBC) Settings() config.Settings { return w.settings }
func (w *WBC) Designer() *robot.Designer { return w.designer }
func (w *WBC) Horizon() *horizon.Manager { return w.horizon }

func (w *WBC) WalkingCycle() *horizon.Manager { return w.walkingCycle }
func (w *WBC) StandingCycle() *horizon.Manager { return w.standingCycle }

func (w *WBC) SetWalkingCycle(c *horizon.Manager) { w.walkingCycle = c }
func (w *WBC) SetStandingCycle(c *horizon.Manager) { w.standingCycle = c }

func (w *WBC) Mode() Mode { return w.mode }

// SetMode selects the cycle used from the next receding tick on.
func (w *WBC) SetMode(m Mode) {
	if m != w.mode {
		w.log.WithField("mode", m).Info("gait mode changed")
	}
	w.mode = m
}

// X0 is the last shaped state.
func (w *WBC) X0() dynamo.State { return w.x0.Clone() }

func (w *WBC) SetX0(x dynamo.State) error {
	if w.x0 != nil && len(x) != len(w.x0) {
		return dynamo.DimError("state", len(x), len(w.x0))
	}
	w.x0 = x.Clone()
	return nil
}

// U0 is the first control of the last successful solve.
func (w *WBC) U0() dynamo.Control { return w.u0.Clone() }

// Support is the phase of node 0.
func (w *WBC) Support() Support { return w.support }

func (w *WBC) LandingLF() bool   { return w.landingLF }
func (w *WBC) LandingRF() bool   { return w.landingRF }
func (w *WBC) TakingOffLF() bool { return w.takingOffLF }
func (w *WBC) TakingOffRF() bool { return w.takingOffRF }

// Timing holds the foot event timers, next event first.
type Timing struct {
	TakeoffLF, TakeoffRF []int
	LandLF, LandRF       []int
}

func (w *WBC) Timing() Timing {
	cp := func(t []int) []int { return append([]int(nil), t...) }
	return Timing{cp(w.takeoffLF), cp(w.takeoffRF), cp(w.landLF), cp(w.landRF)}
}

// Events returns the log of phase changes and foot events.
func (w *WBC) Events() []Event {
	return append([]Event(nil), w.events...)
}
