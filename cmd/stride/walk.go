package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/stride/internal/config"
	"github.com/san-kum/stride/internal/experiment"
	"github.com/san-kum/stride/internal/storage"
	"github.com/san-kum/stride/internal/wbc"
)

type walkFlags struct {
	preset     string
	configFile string
	integrator string
	solver     string
	mode       string
	duration   float64
	seed       int64
	noise      float64
	kp         float64
	kd         float64
	noSave     bool
}

func newWalkCmd() *cobra.Command {
	var f walkFlags
	cmd := &cobra.Command{
		Use:   "walk",
		Short: "run the walking controller on the simulated biped",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWalk(cmd, f)
		},
	}
	cmd.Flags().StringVar(&f.preset, "preset", "walk", "settings preset")
	cmd.Flags().StringVar(&f.configFile, "config", "", "settings file (yaml), overrides --preset")
	cmd.Flags().StringVar(&f.integrator, "integrator", "semi_euler", "plant integrator")
	cmd.Flags().StringVar(&f.solver, "solver", "posture", "horizon solver")
	cmd.Flags().StringVar(&f.mode, "mode", "walking", "walking or standing")
	cmd.Flags().Float64Var(&f.duration, "time", 0, "duration in seconds (default: totalSteps steps)")
	cmd.Flags().Int64Var(&f.seed, "seed", time.Now().UnixNano(), "random seed")
	cmd.Flags().Float64Var(&f.noise, "noise", 0, "std dev of the initial joint velocities")
	cmd.Flags().Float64Var(&f.kp, "kp", experiment.DefaultGains.Kp, "posture stiffness")
	cmd.Flags().Float64Var(&f.kd, "kd", experiment.DefaultGains.Kd, "posture damping")
	cmd.Flags().BoolVar(&f.noSave, "no-save", false, "do not store the run")
	return cmd
}

func runWalk(cmd *cobra.Command, f walkFlags) error {
	mode, err := wbc.ParseMode(f.mode)
	if err != nil {
		return err
	}
	cfg := experiment.Config{
		Preset:     f.preset,
		Integrator: f.integrator,
		Solver:     f.solver,
		Gains:      experiment.Gains{Kp: f.kp, Kd: f.kd},
		Mode:       mode,
		Duration:   f.duration,
		Noise:      f.noise,
		Seed:       f.seed,
	}
	if f.configFile != "" {
		s, err := config.Load(f.configFile)
		if err != nil {
			return err
		}
		cfg.Settings, cfg.Preset = s, ""
	}

	exp := experiment.New(cfg, experiment.WithLogger(log))
	if err := exp.Setup(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Fprintf(cmd.OutOrStdout(), "walking (%s, %s)...\n", mode, describeSource(cfg))
	start := time.Now()
	result, runErr := exp.Run(ctx)
	if result == nil {
		return runErr
	}
	elapsed := time.Since(start)

	runID := "-"
	if !f.noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		info := storage.RunInfo{
			Preset:     cfg.Preset,
			Settings:   exp.Settings(),
			Solver:     f.solver,
			Integrator: f.integrator,
			Mode:       mode.String(),
			Seed:       f.seed,
		}
		if runID, err = st.Save(info, result); err != nil {
			return err
		}
	}

	takeoffs, landings := 0, 0
	for _, e := range result.Events {
		switch e.Kind {
		case wbc.Takeoff:
			takeoffs++
		case wbc.Landing:
			landings++
		}
	}
	fields := []field{
		{"run id", runID},
		{"elapsed", elapsed.Round(time.Millisecond).String()},
		{"ticks", fmt.Sprintf("%d", result.StepsTaken)},
		{"sim time", fmt.Sprintf("%.3fs", result.Times[len(result.Times)-1])},
		{"takeoffs", fmt.Sprintf("%d", takeoffs)},
		{"landings", fmt.Sprintf("%d", landings)},
		{"solver errors", fmt.Sprintf("%d", len(result.Errors))},
	}
	names := make([]string, 0, len(result.Metrics))
	for name := range result.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fields = append(fields, field{name, fmt.Sprintf("%.6f", result.Metrics[name])})
	}
	fmt.Fprintln(cmd.OutOrStdout(), card("walk "+status(runErr == nil && len(result.Errors) == 0, "done"), fields))
	return runErr
}

func describeSource(cfg experiment.Config) string {
	if cfg.Settings != nil {
		return "custom settings"
	}
	return "preset " + cfg.Preset
}
