package cli

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/motionkit/config"
	"go.viam.com/motionkit/logging"
	"go.viam.com/motionkit/spatialmath"
	"go.viam.com/motionkit/trajectory"
)

// TrajectoryAction is the corresponding action for 'trajectory'.
func TrajectoryAction(c *cli.Context) error {
	cfg, err := config.Read(c.String(generalFlagConfig))
	if err != nil {
		return err
	}
	traj, err := trajectoryFromConfig(cfg, newLogger(c))
	if err != nil {
		return err
	}
	dt := c.Float64(sampleFlagInterval)
	infof(c.App.Writer, "path of length %.4f with %d segments takes %.4fs",
		traj.Path().Length(), len(traj.Path().Segments()), traj.Duration())
	if err := printTrajectory(c.App.Writer, traj, dt); err != nil {
		return err
	}
	if file := c.String(generalFlagPlot); file != "" {
		if err := plotTrajectory(traj, dt, file); err != nil {
			return err
		}
		infof(c.App.Writer, "plot saved to %s", file)
	}
	return nil
}

func trajectoryFromConfig(cfg *config.Config, logger logging.Logger) (*trajectory.Trajectory, error) {
	if cfg.Path == nil {
		return nil, errors.New("config has no path to follow")
	}
	p, err := cfg.Path.Build()
	if err != nil {
		return nil, err
	}
	g := cfg.Constraints.Generic()
	return trajectory.Generate(p, g.VelocityConstraint(), g.AccelerationConstraint(),
		trajectory.WithProfileOptions(cfg.Profile),
		trajectory.WithLogger(logger),
	)
}

func printTrajectory(w io.Writer, traj *trajectory.Trajectory, dt float64) error {
	if !(dt > 0) {
		return errors.Errorf("sample interval must be positive, got %v", dt)
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"T", "S", "X", "Y", "Heading (deg)", "Speed", "Angular Vel (deg/s)"})
	for _, s := range traj.SampleAll(dt) {
		t.AppendRow(table.Row{
			fmt.Sprintf("%.3f", s.Time),
			fmt.Sprintf("%.4f", s.Distance),
			fmt.Sprintf("%.4f", s.Pose.Position.X),
			fmt.Sprintf("%.4f", s.Pose.Position.Y),
			fmt.Sprintf("%.2f", s.Pose.Heading.Norm().Degrees()),
			fmt.Sprintf("%.4f", s.Speed),
			fmt.Sprintf("%.2f", spatialmath.AngleFromRadians(s.AngularVelocity).Degrees()),
		})
	}
	t.Render()
	return nil
}
