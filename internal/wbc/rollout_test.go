package wbc_test

import (
	"testing"

	. "github.com/onsi/gomega"

	"github.com/san-kum/stride/internal/config"
	"github.com/san-kum/stride/internal/control"
	"github.com/san-kum/stride/internal/horizon"
	"github.com/san-kum/stride/internal/robot"
	"github.com/san-kum/stride/internal/wbc"
)

func TestIterateWithRolloutSolver(t *testing.T) {
	g := NewWithT(t)
	settings := &config.Settings{
		HorizonSteps: 1, TotalSteps: 1, T: 10,
		TdoubleSupport: 4, TsingleSupport: 6, Tstep: 10,
		DDPIteration: 1, Dt: 0.01, SimuStep: 0.01, Nc: 1,
	}
	d, err := robot.NewBipedDesigner()
	g.Expect(err).NotTo(HaveOccurred())
	maker := robot.NewModelMaker(d, settings.Dt)

	actuated := make([]int, d.NU())
	for i := range actuated {
		actuated[i] = robot.BaseDOF + i
	}
	policy := control.NewPosture(d.NQ(), actuated, d.Q0(), 200, 20)
	h, err := wbc.InitialHorizon(maker, settings, horizon.WithSolver(&horizon.Rollout{Policy: policy}))
	g.Expect(err).NotTo(HaveOccurred())

	ctrl := wbc.New()
	x0 := d.X0()
	q, v := x0.Split(d.NQ())
	g.Expect(ctrl.Initialize(settings, d, h, q, v)).To(Succeed())
	g.Expect(ctrl.GenerateWalkingCycle(maker)).To(Succeed())

	g.Expect(h.Tags()).To(Equal([]horizon.Support{
		horizon.DoubleSupport, horizon.DoubleSupport, horizon.DoubleSupport, horizon.DoubleSupport,
		horizon.SingleSupportLeft, horizon.SingleSupportLeft, horizon.SingleSupportLeft,
		horizon.SingleSupportLeft, horizon.SingleSupportLeft, horizon.SingleSupportLeft,
	}))

	for i := 0; i < 4; i++ {
		u, err := ctrl.Iterate(i, q, v, true)
		g.Expect(err).NotTo(HaveOccurred())
		g.Expect(u).To(HaveLen(d.NU()))
	}
	g.Expect(ctrl.Support()).To(Equal(horizon.SingleSupportLeft))
	g.Expect(ctrl.TakingOffRF()).To(BeTrue())
	g.Expect(h.Tags()[h.Size()-1]).To(Equal(horizon.DoubleSupport))
	for _, x := range h.States() {
		g.Expect(x.IsValid()).To(BeTrue())
	}
}
