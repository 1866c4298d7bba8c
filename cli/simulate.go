package cli

import (
	"context"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/motionkit/components/motor"
	"go.viam.com/motionkit/components/motor/fake"
	"go.viam.com/motionkit/config"
	"go.viam.com/motionkit/control"
	"go.viam.com/motionkit/logging"
	"go.viam.com/motionkit/trajectory"
)

const (
	simulateModePower    = "power"
	simulateModeVelocity = "velocity"
	simulateModePosition = "position"

	defaultPrintEvery       = 100 * time.Millisecond
	defaultSimulateDuration = 3 * time.Second
	defaultLoopFrequency    = 100.0
	// followSettleTime is how long the simulation keeps running after a followed trajectory ends.
	followSettleTime = 500 * time.Millisecond
	// followTolerance is the fraction of the path length a follower may be off by before warning.
	followTolerance = 0.05
)

type simulatedMotor struct {
	name string
	dev  *fake.Motor
	ctrl *motor.Controller
}

// simulation ticks fake motors and their controllers on a mock clock. Every tick first advances
// the devices to the new time and then runs the group's controllers.
type simulation struct {
	clk    *clock.Mock
	motors []simulatedMotor
	group  *motor.Group
	loop   *control.Loop
}

func newSimulation(cfg *config.Config, logger logging.Logger) (*simulation, error) {
	if len(cfg.Motors) == 0 {
		return nil, errors.New("config has no motors to simulate")
	}
	clk := clock.NewMock()
	loopCfg := cfg.Loop
	if loopCfg.Frequency == 0 {
		loopCfg.Frequency = defaultLoopFrequency
	}

	sim := &simulation{clk: clk}
	var (
		updaters []control.Updater
		ctrls    []*motor.Controller
	)
	for _, m := range cfg.Motors {
		mcfg, err := m.MotorConfig()
		if err != nil {
			return nil, errors.Wrapf(err, "motor %q", m.Name)
		}
		scfg, err := m.SimulationConfig()
		if err != nil {
			return nil, errors.Wrapf(err, "motor %q", m.Name)
		}
		mlogger := logger.Sublogger(m.Name)
		dev, err := fake.NewMotor(*scfg, clk, mlogger)
		if err != nil {
			return nil, errors.Wrapf(err, "motor %q", m.Name)
		}
		ctrl, err := motor.New(dev, *mcfg, clk, mlogger)
		if err != nil {
			return nil, errors.Wrapf(err, "motor %q", m.Name)
		}
		sim.motors = append(sim.motors, simulatedMotor{name: m.Name, dev: dev, ctrl: ctrl})
		updaters = append(updaters, control.UpdaterFunc(dev.UpdateLoop))
		ctrls = append(ctrls, ctrl)
	}
	sim.group = motor.NewGroup(ctrls...)
	updaters = append(updaters, sim.group)

	loop, err := control.NewLoop(logger, clk, loopCfg, updaters...)
	if err != nil {
		return nil, err
	}
	sim.loop = loop
	return sim, nil
}

// step advances simulated time by one loop period and ticks the loop.
func (s *simulation) step(ctx context.Context) error {
	s.clk.Add(s.loop.Period())
	return s.loop.Tick(ctx)
}

// SimulateAction is the corresponding action for 'simulate'.
func SimulateAction(c *cli.Context) error {
	cfg, err := config.Read(c.String(generalFlagConfig))
	if err != nil {
		return err
	}
	logger := newLogger(c)
	sim, err := newSimulation(cfg, logger)
	if err != nil {
		return err
	}
	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}
	if c.Bool(simulateFlagReverse) {
		sim.group.SetReversed(true)
	}

	duration := c.Duration(simulateFlagDuration)
	var traj *trajectory.Trajectory
	mode := c.String(simulateFlagMode)
	switch mode {
	case simulateModePower:
		if err := sim.group.SetRunMode(motor.PowerOnly); err != nil {
			return err
		}
		if err := sim.group.SetPower(ctx, c.Float64(simulateFlagPower)); err != nil {
			return err
		}
	case simulateModeVelocity:
		if err := sim.group.SetRunMode(motor.ClosedLoopVelocity); err != nil {
			return err
		}
		if c.Bool(simulateFlagFollow) {
			if traj, err = trajectoryFromConfig(cfg, logger); err != nil {
				return err
			}
			if duration == 0 {
				duration = time.Duration(traj.Duration()*float64(time.Second)) + followSettleTime
			}
		} else if err := sim.group.SetRPM(c.Float64(simulateFlagRPM)); err != nil {
			return err
		}
	case simulateModePosition:
		if err := sim.group.SetRunMode(motor.ClosedLoopPosition); err != nil {
			return err
		}
		if err := sim.group.SetPower(ctx, c.Float64(simulateFlagPower)); err != nil {
			return err
		}
		sim.group.SetTargetDistance(c.Float64(simulateFlagDistance))
	default:
		return errors.Errorf("unknown mode %q, expected one of power, velocity or position", mode)
	}
	if duration == 0 {
		duration = defaultSimulateDuration
	}

	reached, err := sim.run(ctx, c.App.Writer, duration, c.Duration(simulateFlagEvery), traj)
	if err != nil {
		return err
	}
	if mode == simulateModePosition && !reached {
		warningf(c.App.Writer, "target position was not reached within %v", duration)
	}
	if err := sim.group.Stop(ctx); err != nil {
		return err
	}
	for _, m := range sim.motors {
		infof(c.App.Writer, "%s travelled %.4f (%d ticks)", m.name, m.ctrl.Distance(), m.ctrl.Position())
	}
	if traj != nil {
		length := traj.Path().Length()
		infof(c.App.Writer, "path length was %.4f", length)
		for _, m := range sim.motors {
			if math.Abs(m.ctrl.Distance()-length) > followTolerance*length {
				warningf(c.App.Writer, "%s is off the path length by %.4f", m.name, m.ctrl.Distance()-length)
			}
		}
	}
	return nil
}

func (s *simulation) run(
	ctx context.Context,
	w io.Writer,
	duration, printEvery time.Duration,
	traj *trajectory.Trajectory,
) (bool, error) {
	period := s.loop.Period()
	steps := int(duration / period)
	every := int(math.Max(1, math.Round(float64(printEvery)/float64(period))))

	t := table.NewWriter()
	t.SetOutputMirror(w)
	header := table.Row{"T"}
	if traj != nil {
		header = append(header, "Target Speed")
	}
	for _, m := range s.motors {
		header = append(header, m.name+" Dist", m.name+" RPM", m.name+" Power")
	}
	header = append(header, "Group RPM")
	t.AppendHeader(header)

	wasBusy := s.group.IsBusy()
	for i := 0; i <= steps; i++ {
		elapsed := time.Duration(i) * period
		var target float64
		if traj != nil {
			state := traj.Profile().Get(elapsed.Seconds())
			target = state.V
			if err := s.group.SetSpeed(state.V, state.A, motor.UPS); err != nil {
				return false, err
			}
		}
		if i > 0 {
			if err := s.step(ctx); err != nil {
				return false, err
			}
		}
		busy := s.group.IsBusy()
		done := wasBusy && !busy
		wasBusy = busy
		if i%every != 0 && !done && i != steps {
			continue
		}
		row, err := s.row(elapsed, traj != nil, target)
		if err != nil {
			return false, err
		}
		t.AppendRow(row)
		if done {
			t.Render()
			infof(w, "reached target position after %v", elapsed)
			return true, nil
		}
	}
	t.Render()
	// a target that started within tolerance never turns busy
	return !s.group.IsBusy(), nil
}

func (s *simulation) row(elapsed time.Duration, following bool, target float64) (table.Row, error) {
	row := table.Row{fmt.Sprintf("%.3f", elapsed.Seconds())}
	if following {
		row = append(row, fmt.Sprintf("%.4f", target))
	}
	for _, m := range s.motors {
		rpm, err := m.ctrl.Velocity(motor.RPM)
		if err != nil {
			return nil, err
		}
		row = append(row,
			fmt.Sprintf("%.4f", m.ctrl.Distance()),
			fmt.Sprintf("%.2f", rpm),
			fmt.Sprintf("%.3f", m.ctrl.Power()),
		)
	}
	groupRPM, err := s.group.Velocity(motor.RPM)
	if err != nil {
		return nil, err
	}
	return append(row, fmt.Sprintf("%.2f", groupRPM)), nil
}
