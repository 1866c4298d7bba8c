package cli

import (
	"fmt"
	"io"
	"math"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/motionkit/profile"
)

// ProfileAction is the corresponding action for 'profile'.
func ProfileAction(c *cli.Context) error {
	distance := c.Float64(profileFlagDistance)
	maxVel := c.Float64(profileFlagMaxVel)
	maxAccel := c.Float64(profileFlagMaxAccel)
	v0 := c.Float64(profileFlagStartVel)
	vf := c.Float64(profileFlagEndVel)

	var (
		prof *profile.MotionProfile
		err  error
	)
	if c.Bool(profileFlagConstrained) {
		prof, err = constrainedProfile(distance, v0, vf, maxVel, maxAccel)
	} else {
		prof, err = profile.GenerateSimple(
			profile.MotionState{V: v0},
			profile.MotionState{X: distance, V: vf},
			maxVel, maxAccel,
		)
	}
	if err != nil {
		return err
	}

	dt := c.Float64(sampleFlagInterval)
	infof(c.App.Writer, "profile covers %.4f in %.4fs", prof.Distance(), prof.Duration())
	printSegments(c.App.Writer, prof)
	if err := printProfileSamples(c.App.Writer, prof, dt); err != nil {
		return err
	}
	if file := c.String(generalFlagPlot); file != "" {
		if err := plotProfile(prof, dt, file); err != nil {
			return err
		}
		infof(c.App.Writer, "plot saved to %s", file)
	}
	return nil
}

// constrainedProfile runs the sampled generator with constant limits, mirroring for a negative
// distance since the generator only moves forward.
func constrainedProfile(distance, v0, vf, maxVel, maxAccel float64) (*profile.MotionProfile, error) {
	vLimit := func(float64) float64 { return maxVel }
	aLimit := func(float64) float64 { return maxAccel }
	if distance < 0 {
		prof, err := profile.GeneratePathConstrained(-distance, -v0, -vf, vLimit, aLimit, profile.DefaultOptions())
		if err != nil {
			return nil, err
		}
		return prof.Flipped(), nil
	}
	return profile.GeneratePathConstrained(distance, v0, vf, vLimit, aLimit, profile.DefaultOptions())
}

func printSegments(w io.Writer, prof *profile.MotionProfile) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"#", "Start X", "Start V", "A", "Duration"})
	for i, seg := range prof.Segments() {
		t.AppendRow(table.Row{
			i,
			fmt.Sprintf("%.4f", seg.Start.X),
			fmt.Sprintf("%.4f", seg.Start.V),
			fmt.Sprintf("%.4f", seg.Start.A),
			fmt.Sprintf("%.4f", seg.Duration),
		})
	}
	t.Render()
}

func printProfileSamples(w io.Writer, prof *profile.MotionProfile, dt float64) error {
	times, err := sampleTimes(prof.Duration(), dt)
	if err != nil {
		return err
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"T", "X", "V", "A"})
	for _, tm := range times {
		s := prof.Get(tm)
		t.AppendRow(table.Row{
			fmt.Sprintf("%.3f", tm),
			fmt.Sprintf("%.4f", s.X),
			fmt.Sprintf("%.4f", s.V),
			fmt.Sprintf("%.4f", s.A),
		})
	}
	t.Render()
	return nil
}

// sampleTimes returns 0, dt, 2dt, ... up to and always including duration.
func sampleTimes(duration, dt float64) ([]float64, error) {
	if !(dt > 0) {
		return nil, errors.Errorf("sample interval must be positive, got %v", dt)
	}
	n := int(math.Floor(duration/dt + 1e-9))
	times := make([]float64, 0, n+2)
	for i := 0; i <= n; i++ {
		times = append(times, float64(i)*dt)
	}
	if duration-times[len(times)-1] > 1e-9 {
		times = append(times, duration)
	}
	return times, nil
}
