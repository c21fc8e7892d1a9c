package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/san-kum/stride/internal/config"
)

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "list the bundled settings presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range config.ListPresets() {
				s := config.GetPreset(name)
				fields := []field{
					{"T", fmt.Sprintf("%d", s.T)},
					{"TdoubleSupport", fmt.Sprintf("%d", s.TdoubleSupport)},
					{"TsingleSupport", fmt.Sprintf("%d", s.TsingleSupport)},
					{"Tstep", fmt.Sprintf("%d", s.Tstep)},
					{"totalSteps", fmt.Sprintf("%d", s.TotalSteps)},
					{"Dt", fmt.Sprintf("%g", s.Dt)},
					{"simu_step", fmt.Sprintf("%g", s.SimuStep)},
					{"Nc", fmt.Sprintf("%d", s.Nc)},
					{"duration", fmt.Sprintf("%.2fs", s.Duration())},
				}
				fmt.Fprintln(cmd.OutOrStdout(), card(name, fields))
			}
			return nil
		},
	}
}
