package main

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/spf13/cobra"

	"github.com/san-kum/stride/internal/dynamics"
	"github.com/san-kum/stride/internal/dynamo"
	"github.com/san-kum/stride/internal/horizon"
	"github.com/san-kum/stride/internal/residual"
	"github.com/san-kum/stride/internal/robot"
)

func newCheckCmd() *cobra.Command {
	var (
		seed      int64
		scale     float64
		eps       float64
		tolerance float64
	)
	cmd := &cobra.Command{
		Use:   "check",
		Short: "compare the contact dynamics and residual derivatives with finite differences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := robot.NewBipedDesigner()
			if err != nil {
				return err
			}
			maker := robot.NewModelMaker(d, 0.01)
			r := rand.New(rand.NewSource(seed))

			x := d.X0()
			for i := robot.BaseDOF; i < len(x); i++ {
				x[i] += scale * (2*r.Float64() - 1)
			}
			u := make(dynamo.Control, d.NU())
			for i := range u {
				u[i] = 10 * scale * (2*r.Float64() - 1)
			}

			failed := false
			for _, s := range []horizon.Support{horizon.DoubleSupport, horizon.SingleSupportLeft, horizon.SingleSupportRight} {
				e, err := maker.Model(s)
				if err != nil {
					return err
				}
				c, err := dynamics.CheckDerivatives(e.Differential, x, u, eps)
				if err != nil {
					return fmt.Errorf("%s: %w", s, err)
				}
				copDx, copDu, err := residual.CheckDerivatives(residual.NewCenterOfPressure(e.Differential, [2]float64{}), x, u, eps)
				if err != nil {
					return fmt.Errorf("%s center of pressure: %w", s, err)
				}
				ok := c.Worst() < tolerance && copDx < tolerance && copDu < tolerance
				failed = failed || !ok
				fields := []field{
					{"da/dx", fmt.Sprintf("%.2e", c.Fx)},
					{"da/du", fmt.Sprintf("%.2e", c.Fu)},
					{"df/dx", fmt.Sprintf("%.2e", c.DfDx)},
					{"df/du", fmt.Sprintf("%.2e", c.DfDu)},
					{"dcop/dx", fmt.Sprintf("%.2e", copDx)},
					{"dcop/du", fmt.Sprintf("%.2e", copDu)},
				}
				verdict := status(ok, strings.ToUpper(fmt.Sprint(ok)))
				fmt.Fprintln(cmd.OutOrStdout(), card(fmt.Sprintf("%s  %s", s, verdict), fields))
				log.WithField("support", s).WithField("worst", c.Worst()).Debug("derivative check")
			}
			comDx, _, err := residual.CheckDerivatives(residual.NewCoMVelocity(d.Reduced, mgl64.Vec3{}, d.NU()), x, u, eps)
			if err != nil {
				return fmt.Errorf("center of mass velocity: %w", err)
			}
			ok := comDx < tolerance
			failed = failed || !ok
			fmt.Fprintln(cmd.OutOrStdout(), card("com velocity  "+status(ok, strings.ToUpper(fmt.Sprint(ok))),
				[]field{{"dvcom/dx", fmt.Sprintf("%.2e", comDx)}}))

			if failed {
				return fmt.Errorf("derivatives differ from finite differences by more than %g", tolerance)
			}
			return nil
		},
	}
	cmd.Flags().Int64Var(&seed, "seed", 1, "random seed of the test state")
	cmd.Flags().Float64Var(&scale, "scale", 0.1, "size of the random perturbation")
	cmd.Flags().Float64Var(&eps, "eps", 0, "finite-difference step (0: default)")
	cmd.Flags().Float64Var(&tolerance, "tol", 1e-5, "relative tolerance")
	return cmd
}
