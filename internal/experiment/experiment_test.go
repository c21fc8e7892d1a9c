package experiment

import (
	"context"
	"errors"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/san-kum/stride/internal/config"
	"github.com/san-kum/stride/internal/dynamo"
	"github.com/san-kum/stride/internal/horizon"
	"github.com/san-kum/stride/internal/wbc"
)

func shortSettings() *config.Settings {
	return &config.Settings{
		HorizonSteps: 1, TotalSteps: 1, T: 10,
		TdoubleSupport: 4, TsingleSupport: 6, Tstep: 10,
		DDPIteration: 1, Dt: 0.01, SimuStep: 0.01, Nc: 1,
	}
}

func TestExperimentRun(t *testing.T) {
	g := NewWithT(t)
	e := New(Config{Settings: shortSettings(), Duration: 0.06})
	g.Expect(e.Setup()).To(Succeed())

	result, err := e.Run(context.Background())
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(result.StepsTaken).To(Equal(6))
	g.Expect(result.Errors).To(BeEmpty())
	g.Expect(result.Metrics).To(HaveKey("control_effort"))
	g.Expect(result.Metrics).To(HaveKey("contact_force"))
	g.Expect(result.Metrics).To(HaveKey("energy_drift"))
	g.Expect(result.Metrics).To(HaveKey("com_velocity"))
	g.Expect(result.Metrics).To(HaveKeyWithValue("stability", 1.0))
	g.Expect(result.Phases).To(ContainElement(horizon.SingleSupportLeft))
}

func TestExperimentStanding(t *testing.T) {
	g := NewWithT(t)
	e := New(Config{Settings: shortSettings(), Duration: 0.2, Mode: wbc.Standing})
	g.Expect(e.Setup()).To(Succeed())

	result, err := e.Run(context.Background())
	g.Expect(err).NotTo(HaveOccurred())
	// The initial window still holds the first steps; standing only
	// changes what is appended.
	g.Expect(e.Controller().Horizon().Tags()).To(HaveEach(horizon.DoubleSupport))
	for _, ev := range result.Events {
		g.Expect(ev.Kind).To(Equal(wbc.PhaseChange))
	}
}

func TestExperimentSeedIsReproducible(t *testing.T) {
	g := NewWithT(t)
	cfg := Config{Settings: shortSettings(), Noise: 0.01, Seed: 7}
	a, b := New(cfg), New(cfg)
	g.Expect(a.Setup()).To(Succeed())
	g.Expect(b.Setup()).To(Succeed())
	g.Expect(a.InitialState()).To(Equal(b.InitialState()))
	g.Expect(a.InitialState()).NotTo(Equal(a.Designer().X0()))
}

func TestExperimentSetupErrors(t *testing.T) {
	bad := shortSettings()
	bad.Tstep = 3
	tests := []struct {
		name string
		cfg  Config
		want error
	}{
		{"unknown preset", Config{Preset: "sprint"}, dynamo.ErrConfiguration},
		{"invalid settings", Config{Settings: bad}, dynamo.ErrConfiguration},
		{"unknown solver", Config{Settings: shortSettings(), Solver: "ilqr"}, dynamo.ErrInvalidArgument},
		{"unknown integrator", Config{Settings: shortSettings(), Integrator: "rk45"}, dynamo.ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.cfg).Setup()
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestRunBeforeSetup(t *testing.T) {
	_, err := New(Config{}).Run(context.Background())
	if !errors.Is(err, dynamo.ErrNotInitialized) {
		t.Errorf("expected ErrNotInitialized, got %v", err)
	}
}

func TestRegistry(t *testing.T) {
	g := NewWithT(t)
	r := NewRegistry()
	g.Expect(r.ListSolvers()).To(Equal([]string{"passive", "posture", "warmstart"}))
	g.Expect(r.ListIntegrators()).To(ContainElement("semi_euler"))
}
