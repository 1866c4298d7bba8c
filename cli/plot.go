package cli

import (
	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"go.viam.com/motionkit/profile"
	"go.viam.com/motionkit/trajectory"
)

const (
	plotWidth  = 8 * vg.Inch
	plotHeight = 5 * vg.Inch
)

// plotProfile draws position, velocity and acceleration against time. The file extension picks
// the image format.
func plotProfile(prof *profile.MotionProfile, dt float64, file string) error {
	times, err := sampleTimes(prof.Duration(), dt)
	if err != nil {
		return err
	}
	xs := make(plotter.XYs, len(times))
	vs := make(plotter.XYs, len(times))
	as := make(plotter.XYs, len(times))
	for i, tm := range times {
		s := prof.Get(tm)
		xs[i] = plotter.XY{X: tm, Y: s.X}
		vs[i] = plotter.XY{X: tm, Y: s.V}
		as[i] = plotter.XY{X: tm, Y: s.A}
	}

	p := plot.New()
	p.Title.Text = "Motion profile"
	p.X.Label.Text = "time (s)"
	p.Add(plotter.NewGrid())
	if err := plotutil.AddLines(p, "position", xs, "velocity", vs, "acceleration", as); err != nil {
		return errors.Wrap(err, "cannot plot profile")
	}
	return errors.Wrapf(p.Save(plotWidth, plotHeight, file), "cannot save plot to %q", file)
}

// plotTrajectory draws the path in the plane with a point at every sample.
func plotTrajectory(traj *trajectory.Trajectory, dt float64, file string) error {
	samples := traj.SampleAll(dt)
	pts := make(plotter.XYs, len(samples))
	for i, s := range samples {
		pts[i] = plotter.XY{X: s.Pose.Position.X, Y: s.Pose.Position.Y}
	}

	p := plot.New()
	p.Title.Text = "Trajectory"
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"
	p.Add(plotter.NewGrid())
	if err := plotutil.AddLinePoints(p, "samples", pts); err != nil {
		return errors.Wrap(err, "cannot plot trajectory")
	}
	return errors.Wrapf(p.Save(plotWidth, plotHeight, file), "cannot save plot to %q", file)
}
