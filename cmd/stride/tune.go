package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/stride/internal/experiment"
	"github.com/san-kum/stride/internal/optim"
)

func newTuneCmd() *cobra.Command {
	var (
		preset   string
		duration float64
		kps, kds []float64
		metric   string
		maximize bool
	)
	cmd := &cobra.Command{
		Use:   "tune",
		Short: "grid-search the posture gains of the horizon solver",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gs, err := optim.NewGridSearch([]string{"kp", "kd"}, [][]float64{kps, kds})
			if err != nil {
				return err
			}
			build := func(params map[string]float64) (*experiment.Experiment, error) {
				e := experiment.New(experiment.Config{
					Preset:   preset,
					Duration: duration,
					Gains:    experiment.Gains{Kp: params["kp"], Kd: params["kd"]},
				}, experiment.WithLogger(log))
				return e, e.Setup()
			}
			goal := optim.Minimize
			if maximize {
				goal = optim.Maximize
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			trials, err := gs.Search(ctx, build, metric, goal)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "KP\tKD\t%s\n", metric)
			for _, tr := range trials {
				fmt.Fprintf(w, "%g\t%g\t%.6f\n", tr.Params["kp"], tr.Params["kd"], tr.Value)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&preset, "preset", "walk", "settings preset")
	cmd.Flags().Float64Var(&duration, "time", 0.5, "duration of each run in seconds")
	cmd.Flags().Float64SliceVar(&kps, "kp", []float64{100, 200, 400}, "stiffness values")
	cmd.Flags().Float64SliceVar(&kds, "kd", []float64{10, 20, 40}, "damping values")
	cmd.Flags().StringVar(&metric, "metric", "control_effort", "metric to optimize")
	cmd.Flags().BoolVar(&maximize, "maximize", false, "maximize instead of minimize")
	return cmd
}
