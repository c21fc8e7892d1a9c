package wbc_test

import (
	"errors"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/stride/internal/config"
	"github.com/san-kum/stride/internal/dynamo"
	"github.com/san-kum/stride/internal/horizon"
	"github.com/san-kum/stride/internal/robot"
	"github.com/san-kum/stride/internal/wbc"
)

// recordingSolver writes the call count into the first control and can be
// told to fail.
type recordingSolver struct {
	calls int
	fail  error
	x0s   []dynamo.State
}

func (s *recordingSolver) Solve(p *horizon.Manager, x0 dynamo.State, maxIter int, isFeasible bool) (bool, error) {
	s.calls++
	s.x0s = append(s.x0s, x0.Clone())
	if s.fail != nil {
		return false, s.fail
	}
	p.Control(0)[0] = float64(s.calls)
	return true, nil
}

type fixture struct {
	settings *config.Settings
	designer *robot.Designer
	maker    *robot.ModelMaker
	solver   *recordingSolver
	horizon  *horizon.Manager
	ctrl     *wbc.WBC
}

func newFixture(preset string) *fixture {
	f := &fixture{settings: config.GetPreset(preset), solver: &recordingSolver{}}
	var err error
	f.designer, err = robot.NewBipedDesigner()
	Expect(err).NotTo(HaveOccurred())
	f.maker = robot.NewModelMaker(f.designer, f.settings.Dt)
	f.horizon, err = wbc.InitialHorizon(f.maker, f.settings, horizon.WithSolver(f.solver))
	Expect(err).NotTo(HaveOccurred())
	f.ctrl = wbc.New()
	return f
}

func (f *fixture) initialize() {
	x0 := f.designer.X0()
	q, v := x0.Split(f.designer.NQ())
	Expect(f.ctrl.Initialize(f.settings, f.designer, f.horizon, q, v)).To(Succeed())
	Expect(f.ctrl.GenerateWalkingCycle(f.maker)).To(Succeed())
	Expect(f.ctrl.GenerateStandingCycle(f.maker)).To(Succeed())
}

func (f *fixture) run(from, to int) {
	x0 := f.designer.X0()
	q, v := x0.Split(f.designer.NQ())
	for i := from; i < to; i++ {
		_, err := f.ctrl.Iterate(i, q, v, false)
		Expect(err).NotTo(HaveOccurred())
	}
}

func count(events []wbc.Event, kind wbc.EventKind, foot wbc.Foot) int {
	n := 0
	for _, e := range events {
		if e.Kind == kind && e.Foot == foot {
			n++
		}
	}
	return n
}

var _ = Describe("WBC", func() {
	var f *fixture

	Describe("before initialization", func() {
		BeforeEach(func() { f = newFixture("slow") })

		It("refuses to iterate", func() {
			_, err := f.ctrl.Iterate(0, nil, nil, false)
			Expect(errors.Is(err, dynamo.ErrNotInitialized)).To(BeTrue())
			Expect(errors.Is(f.ctrl.GenerateWalkingCycle(f.maker), dynamo.ErrNotInitialized)).To(BeTrue())
		})

		It("rejects invalid settings", func() {
			f.settings.Tstep = 1
			f.settings.Nc = 0
			x0 := f.designer.X0()
			q, v := x0.Split(f.designer.NQ())
			err := f.ctrl.Initialize(f.settings, f.designer, f.horizon, q, v)
			Expect(errors.Is(err, dynamo.ErrConfiguration)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("Tstep"))
			Expect(err.Error()).To(ContainSubstring("Nc"))
		})

		It("rejects a horizon of the wrong length", func() {
			f.settings.T = 50
			x0 := f.designer.X0()
			q, v := x0.Split(f.designer.NQ())
			err := f.ctrl.Initialize(f.settings, f.designer, f.horizon, q, v)
			Expect(errors.Is(err, dynamo.ErrConfiguration)).To(BeTrue())
		})
	})

	Describe("initialization", func() {
		BeforeEach(func() {
			f = newFixture("slow")
			f.initialize()
		})

		It("warm-starts the horizon from the reference state and solves once", func() {
			Expect(f.solver.calls).To(Equal(1))
			Expect(f.ctrl.X0()).To(Equal(f.designer.X0()))
			Expect(f.horizon.State(f.horizon.Size())).To(Equal(f.designer.X0()))
			Expect(f.ctrl.U0()).To(HaveLen(f.designer.NU()))
		})

		It("schedules the first steps", func() {
			t := f.ctrl.Timing()
			Expect(t.TakeoffRF).To(Equal([]int{100, 460}))
			Expect(t.TakeoffLF).To(Equal([]int{280, 640}))
			Expect(t.LandRF).To(Equal([]int{180, 540}))
			Expect(t.LandLF).To(Equal([]int{360, 720}))
		})

		It("builds one full gait cycle advanced by the horizon length", func() {
			cycle := f.ctrl.WalkingCycle()
			Expect(cycle.Size()).To(Equal(360))
			tags := cycle.Tags()
			Expect(tags[0]).To(Equal(horizon.SingleSupportLeft))
			Expect(tags[79]).To(Equal(horizon.SingleSupportLeft))
			Expect(tags[80]).To(Equal(horizon.DoubleSupport))
			Expect(tags[180]).To(Equal(horizon.SingleSupportRight))
			Expect(tags[359]).To(Equal(horizon.DoubleSupport))
			for _, s := range f.ctrl.StandingCycle().Tags() {
				Expect(s).To(Equal(horizon.DoubleSupport))
			}
		})
	})

	Describe("shaping the state", func() {
		BeforeEach(func() {
			f = newFixture("slow")
			f.initialize()
		})

		It("extracts the controlled joints of a complete posture", func() {
			q := make([]float64, f.designer.CompleteNQ())
			v := make([]float64, f.designer.CompleteNV())
			q[9], q[10] = 0.3, 0.7
			v[13], v[12] = -1, 2
			x, err := f.ctrl.ShapeState(q, v)
			Expect(err).NotTo(HaveOccurred())
			Expect(x).To(HaveLen(2 * f.designer.NV()))
			Expect(x[9]).To(Equal(0.7))
			Expect(x[f.designer.NQ()+11]).To(Equal(2.0))
			Expect(x).NotTo(ContainElement(0.3))
			Expect(x).NotTo(ContainElement(-1.0))
		})

		It("passes a reduced posture through", func() {
			x0 := f.designer.X0()
			q, v := x0.Split(f.designer.NQ())
			x, err := f.ctrl.ShapeState(q, v)
			Expect(err).NotTo(HaveOccurred())
			Expect(x).To(Equal(x0))
		})

		It("rejects any other size", func() {
			_, err := f.ctrl.ShapeState(make([]float64, 7), make([]float64, 7))
			Expect(errors.Is(err, dynamo.ErrInvalidArgument)).To(BeTrue())
		})

		It("has no side effects", func() {
			before := f.horizon.Tags()
			_, _ = f.ctrl.ShapeState(make([]float64, 14), make([]float64, 14))
			Expect(f.horizon.Tags()).To(Equal(before))
			Expect(f.solver.calls).To(Equal(1))
		})
	})

	Describe("timing", func() {
		BeforeEach(func() {
			f = newFixture("walk")
			f.initialize()
		})

		It("solves every Nc ticks", func() {
			for i, want := range map[int]bool{0: true, 1: false, 9: false, 10: true, 25: false, 30: true} {
				Expect(f.ctrl.TimeToSolveDDP(i)).To(Equal(want), fmt.Sprint(i))
			}
		})

		It("wraps timers by one gait cycle", func() {
			for i := 0; i < 50; i++ {
				f.ctrl.UpdateStepCycleTiming()
			}
			Expect(f.ctrl.TakingOffRF()).To(BeTrue())
			Expect(f.ctrl.Timing().TakeoffRF[0]).To(Equal(0))

			f.ctrl.UpdateStepCycleTiming()
			Expect(f.ctrl.TakingOffRF()).To(BeFalse())
			Expect(f.ctrl.Timing().TakeoffRF[0]).To(Equal(299))
		})
	})

	Describe("walking from double support", func() {
		BeforeEach(func() {
			f = newFixture("slow")
			f.initialize()
			f.run(0, 100)
		})

		It("enters left support exactly once", func() {
			Expect(f.horizon.Node(0).Support).To(Equal(horizon.SingleSupportLeft))
			Expect(f.ctrl.Support()).To(Equal(horizon.SingleSupportLeft))

			var changes []wbc.Event
			for _, e := range f.ctrl.Events() {
				if e.Kind == wbc.PhaseChange {
					changes = append(changes, e)
				}
			}
			Expect(changes).To(HaveLen(1))
			Expect(changes[0].From).To(Equal(horizon.DoubleSupport))
			Expect(changes[0].To).To(Equal(horizon.SingleSupportLeft))
			Expect(changes[0].Iteration).To(Equal(99))
		})

		It("lifts the right foot exactly once", func() {
			events := f.ctrl.Events()
			Expect(count(events, wbc.Takeoff, wbc.RightFoot)).To(Equal(1))
			Expect(count(events, wbc.Takeoff, wbc.LeftFoot)).To(BeZero())
			Expect(count(events, wbc.Landing, wbc.LeftFoot)).To(BeZero())
			Expect(count(events, wbc.Landing, wbc.RightFoot)).To(BeZero())
			Expect(f.ctrl.TakingOffRF()).To(BeTrue())
		})

		It("solves on every tick and keeps the first control", func() {
			Expect(f.solver.calls).To(Equal(101))
			Expect(f.ctrl.U0()[0]).To(Equal(101.0))
		})

		It("lands the right foot after single support", func() {
			f.run(100, 180)
			Expect(f.ctrl.LandingRF()).To(BeTrue())
			Expect(f.horizon.Node(0).Support).To(Equal(horizon.DoubleSupport))
			Expect(count(f.ctrl.Events(), wbc.Landing, wbc.RightFoot)).To(Equal(1))
		})

		It("continues the gait through a full cycle", func() {
			f.run(100, 460)
			events := f.ctrl.Events()
			Expect(count(events, wbc.Takeoff, wbc.RightFoot)).To(Equal(2))
			Expect(count(events, wbc.Takeoff, wbc.LeftFoot)).To(Equal(1))
			Expect(count(events, wbc.Landing, wbc.LeftFoot)).To(Equal(1))
			Expect(count(events, wbc.Landing, wbc.RightFoot)).To(Equal(1))
			Expect(f.horizon.Node(0).Support).To(Equal(horizon.SingleSupportLeft))
		})
	})

	Describe("standing", func() {
		BeforeEach(func() {
			f = newFixture("slow")
			f.initialize()
		})

		It("extends the horizon with double support only", func() {
			f.ctrl.SetMode(wbc.Standing)
			f.run(0, 150)
			for _, s := range f.horizon.Tags() {
				Expect(s).To(Equal(horizon.DoubleSupport))
			}
			Expect(f.ctrl.Events()).To(BeEmpty())
		})

		It("switches gait at the receding boundary", func() {
			f.run(0, 50)
			f.ctrl.SetMode(wbc.Standing)
			f.run(50, 51)
			tags := f.horizon.Tags()
			Expect(tags[len(tags)-1]).To(Equal(horizon.DoubleSupport))
			Expect(tags[len(tags)-2]).To(Equal(horizon.SingleSupportLeft))
		})
	})

	Describe("a failing solve", func() {
		BeforeEach(func() {
			f = newFixture("slow")
			f.initialize()
			f.run(0, 3)
		})

		It("keeps the previous control", func() {
			previous := f.ctrl.U0()
			f.solver.fail = fmt.Errorf("%w: singular kkt", dynamo.ErrNumericalDegeneracy)
			x0 := f.designer.X0()
			q, v := x0.Split(f.designer.NQ())
			u, err := f.ctrl.Iterate(3, q, v, false)
			Expect(errors.Is(err, dynamo.ErrNumericalDegeneracy)).To(BeTrue())
			Expect(u).To(Equal(previous))
			Expect(f.ctrl.U0()).To(Equal(previous))
		})
	})

	DescribeTable("parsing modes",
		func(value string, want wbc.Mode, ok bool) {
			m, err := wbc.ParseMode(value)
			if !ok {
				Expect(errors.Is(err, dynamo.ErrInvalidArgument)).To(BeTrue())
				return
			}
			Expect(err).NotTo(HaveOccurred())
			Expect(m).To(Equal(want))
		},
		Entry("walking", "walking", wbc.Walking, true),
		Entry("short standing", " Stand ", wbc.Standing, true),
		Entry("unknown", "running", wbc.Walking, false),
	)
})
