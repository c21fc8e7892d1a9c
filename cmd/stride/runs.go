package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/stride/internal/export"
	"github.com/san-kum/stride/internal/robot"
	"github.com/san-kum/stride/internal/storage"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := storage.New(dataDir).List()
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no runs found")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTIME\tPRESET\tMODE\tSOLVER\tINTEG\tTICKS\tEVENTS")
			for _, run := range runs {
				preset := run.Info.Preset
				if preset == "" {
					preset = "custom"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%d\t%d\n",
					run.ID,
					run.Timestamp.Format("2006-01-02 15:04:05"),
					preset,
					run.Info.Mode,
					run.Info.Solver,
					run.Info.Integrator,
					run.Steps,
					len(run.Events),
				)
			}
			return w.Flush()
		},
	}
}

// stateColumn resolves a joint name or an x<i> index into a trace column.
func stateColumn(name string, nq int) (int, error) {
	var i int
	if _, err := fmt.Sscanf(name, "x%d", &i); err == nil {
		return i, nil
	}
	d, err := robot.NewBipedDesigner()
	if err != nil {
		return 0, err
	}
	joint, velocity := name, false
	if strings.HasPrefix(name, "v:") {
		joint, velocity = strings.TrimPrefix(name, "v:"), true
	}
	id, ok := d.Reduced.JointID(joint)
	if !ok {
		return 0, fmt.Errorf("unknown state variable %q", name)
	}
	if velocity {
		return nq + id, nil
	}
	return id, nil
}

func selectSeries(tr *storage.Trace, vars []string) ([]export.Series, error) {
	if len(tr.States) == 0 {
		return nil, fmt.Errorf("no data to plot")
	}
	nq := len(tr.States[0]) / 2
	series := make([]export.Series, 0, len(vars))
	for _, name := range vars {
		col, err := stateColumn(name, nq)
		if err != nil {
			return nil, err
		}
		if col < 0 || col >= len(tr.States[0]) {
			return nil, fmt.Errorf("state variable %q out of range", name)
		}
		values := make([]float64, len(tr.States))
		for i, x := range tr.States {
			values[i] = x[col]
		}
		series = append(series, export.Series{Name: name, Values: values})
	}
	return series, nil
}

func newPlotCmd() *cobra.Command {
	var vars []string
	cmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot state variables of a run in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := storage.New(dataDir)
			meta, err := st.Load(args[0])
			if err != nil {
				return err
			}
			tr, err := st.LoadTrace(args[0])
			if err != nil {
				return err
			}
			series, err := selectSeries(tr, vars)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "run: %s\n", meta.ID)
			fmt.Fprintf(out, "samples: %d\n\n", len(tr.States))
			for _, s := range series {
				graph := asciigraph.Plot(s.Values,
					asciigraph.Height(10),
					asciigraph.Width(80),
					asciigraph.Caption(s.Name+" vs time"),
				)
				fmt.Fprintln(out, graph)
				fmt.Fprintln(out)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&vars, "var", []string{"base_x", "base_z", "left_knee", "right_knee"},
		"joint names, v:<joint> for velocities, or x<i>")
	return cmd
}

func newExportCmd() *cobra.Command {
	var (
		format string
		outDir string
		vars   []string
	)
	cmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a run as json, a gait timeline svg or a state trace png",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runID := args[0]
			st := storage.New(dataDir)
			meta, err := st.Load(runID)
			if err != nil {
				return err
			}
			tr, err := st.LoadTrace(runID)
			if err != nil {
				return err
			}

			var path string
			switch format {
			case "json":
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(meta)
			case "svg":
				if len(tr.Phases) < 2 {
					return fmt.Errorf("run %s has no ticks", runID)
				}
				svg := export.GaitTimelineSVG(tr.Times, tr.Phases[:len(tr.Phases)-1], 800)
				path = filepath.Join(outDir, runID+"_gait.svg")
				if err := os.WriteFile(path, []byte(svg), 0644); err != nil {
					return err
				}
			case "png":
				series, err := selectSeries(tr, vars)
				if err != nil {
					return err
				}
				p, err := export.TracePlot("run "+meta.ID, "state", tr.Times, series)
				if err != nil {
					return err
				}
				path = filepath.Join(outDir, runID+"_trace.png")
				f, err := os.Create(path)
				if err != nil {
					return err
				}
				defer f.Close()
				if err := export.WritePNG(f, p, 8, 5); err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown format %q (json, svg, png)", format)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "json, svg or png")
	cmd.Flags().StringVar(&outDir, "out", ".", "output directory")
	cmd.Flags().StringSliceVar(&vars, "var", []string{"base_z"}, "state variables of the png trace")
	return cmd
}
