package optim

import (
	"context"
	"errors"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/san-kum/stride/internal/config"
	"github.com/san-kum/stride/internal/dynamo"
	"github.com/san-kum/stride/internal/experiment"
)

func tinySettings() *config.Settings {
	return &config.Settings{
		HorizonSteps: 1, TotalSteps: 1, T: 6,
		TdoubleSupport: 2, TsingleSupport: 4, Tstep: 6,
		DDPIteration: 1, Dt: 0.01, SimuStep: 0.01, Nc: 1,
	}
}

func gainsExperiment(params map[string]float64) (*experiment.Experiment, error) {
	e := experiment.New(experiment.Config{
		Settings: tinySettings(),
		Duration: 0.03,
		Gains:    experiment.Gains{Kp: params["kp"], Kd: params["kd"]},
	})
	return e, e.Setup()
}

func TestGridSearchOrdersTrials(t *testing.T) {
	g := NewWithT(t)
	gs, err := NewGridSearch([]string{"kp", "kd"}, [][]float64{{50, 200}, {10}})
	g.Expect(err).NotTo(HaveOccurred())

	trials, err := gs.Search(context.Background(), gainsExperiment, "control_effort", Minimize)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(trials).To(HaveLen(2))
	g.Expect(trials[0].Value).To(BeNumerically("<=", trials[1].Value))
	g.Expect(trials[0].Params).To(HaveKeyWithValue("kd", 10.0))

	trials, err = gs.Search(context.Background(), gainsExperiment, "control_effort", Maximize)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(trials[0].Value).To(BeNumerically(">=", trials[1].Value))
}

func TestGridSearchReportsFailures(t *testing.T) {
	g := NewWithT(t)
	gs, err := NewGridSearch([]string{"kp"}, [][]float64{{1, 2}})
	g.Expect(err).NotTo(HaveOccurred())

	failing := func(map[string]float64) (*experiment.Experiment, error) {
		return nil, dynamo.ErrConfiguration
	}
	_, err = gs.Search(context.Background(), failing, "control_effort", Minimize)
	g.Expect(errors.Is(err, dynamo.ErrConfiguration)).To(BeTrue())

	_, err = gs.Search(context.Background(), gainsExperiment, "missing", Minimize)
	g.Expect(errors.Is(err, dynamo.ErrInvalidArgument)).To(BeTrue())
}

func TestGridSearchStopsOnCancel(t *testing.T) {
	gs, err := NewGridSearch([]string{"kp"}, [][]float64{{1}})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := gs.Search(ctx, gainsExperiment, "control_effort", Minimize); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestNewGridSearchValidates(t *testing.T) {
	if _, err := NewGridSearch([]string{"kp"}, nil); !errors.Is(err, dynamo.ErrInvalidArgument) {
		t.Errorf("mismatched ranges: got %v", err)
	}
	if _, err := NewGridSearch([]string{"kp"}, [][]float64{{}}); !errors.Is(err, dynamo.ErrInvalidArgument) {
		t.Errorf("empty range: got %v", err)
	}
}
