package motor_test

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/test"

	"go.viam.com/motionkit/components/motor"
	"go.viam.com/motionkit/components/motor/fake"
	"go.viam.com/motionkit/control"
	"go.viam.com/motionkit/logging"
)

// scriptedDevice replays encoder readings and records writes.
type scriptedDevice struct {
	mu        sync.Mutex
	positions []int
	reads     int
	power     float64
	readErr   error
	writeErr  error
}

func (d *scriptedDevice) Position(ctx context.Context) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.readErr != nil {
		return 0, d.readErr
	}
	p := d.positions[len(d.positions)-1]
	if d.reads < len(d.positions) {
		p = d.positions[d.reads]
	}
	d.reads++
	return p, nil
}

func (d *scriptedDevice) SetPower(ctx context.Context, power float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.writeErr != nil {
		return d.writeErr
	}
	d.power = power
	return nil
}

type rig struct {
	clk  *clock.Mock
	dev  *fake.Motor
	ctrl *motor.Controller
}

func newRig(t *testing.T, devCfg fake.Config, cfg motor.Config) *rig {
	t.Helper()
	logger := logging.NewTestLogger(t)
	clk := clock.NewMock()
	dev, err := fake.NewMotor(devCfg, clk, logger)
	test.That(t, err, test.ShouldBeNil)
	ctrl, err := motor.New(dev, cfg, clk, logger)
	test.That(t, err, test.ShouldBeNil)
	return &rig{clk: clk, dev: dev, ctrl: ctrl}
}

// tick advances time, lets the simulated motor move and then runs the controller.
func (r *rig) tick(t *testing.T, dt time.Duration) {
	t.Helper()
	r.clk.Add(dt)
	r.dev.Update()
	test.That(t, r.ctrl.Update(context.Background()), test.ShouldBeNil)
}

func velocity(t *testing.T, c interface {
	Velocity(motor.RotationUnit) (float64, error)
}, unit motor.RotationUnit,
) float64 {
	t.Helper()
	v, err := c.Velocity(unit)
	test.That(t, err, test.ShouldBeNil)
	return v
}

func TestConfigValidate(t *testing.T) {
	cfg := motor.Config{TicksPerRotation: 0, MaxRPM: 100}
	err := cfg.Validate("motors.0")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "ticks per rotation")
	test.That(t, err.Error(), test.ShouldContainSubstring, "motors.0")

	cfg = motor.Config{TicksPerRotation: 28, MaxRPM: -1}
	test.That(t, cfg.Validate("m").Error(), test.ShouldContainSubstring, "max rpm")

	cfg = motor.Config{TicksPerRotation: 28, MaxRPM: 6000}
	test.That(t, cfg.Validate("m"), test.ShouldBeNil)
	test.That(t, cfg.DistancePerRev, test.ShouldEqual, 1.0)
	test.That(t, cfg.PositionTolerance, test.ShouldEqual, motor.DefaultPositionTolerance)
	test.That(t, cfg.MaxTicksPerSecond(), test.ShouldAlmostEqual, 2800.0)

	_, err = motor.New(&scriptedDevice{positions: []int{0}}, motor.Config{MaxRPM: 1}, clock.NewMock(), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestPowerOnlyVelocity(t *testing.T) {
	const rpm, tpr = 69.0, 420.0
	r := newRig(t, fake.Config{MaxRPM: rpm, TicksPerRotation: tpr}, motor.Config{MaxRPM: rpm, TicksPerRotation: tpr})
	test.That(t, r.ctrl.SetPower(context.Background(), 1), test.ShouldBeNil)
	test.That(t, r.dev.Power(), test.ShouldEqual, 1.0)

	r.tick(t, time.Second)
	r.tick(t, time.Second)
	test.That(t, velocity(t, r.ctrl, motor.RPM), test.ShouldAlmostEqual, rpm)
	test.That(t, r.ctrl.Position(), test.ShouldEqual, 2*483)
}

func TestVelocityUnits(t *testing.T) {
	const rpm, tpr = 420.0, 69.0
	r := newRig(t,
		fake.Config{MaxRPM: rpm, TicksPerRotation: tpr},
		motor.Config{MaxRPM: rpm, TicksPerRotation: tpr, DistancePerRev: 2},
	)
	test.That(t, r.ctrl.SetPower(context.Background(), 1), test.ShouldBeNil)
	r.tick(t, time.Second)
	r.tick(t, time.Second)

	test.That(t, velocity(t, r.ctrl, motor.RPM), test.ShouldAlmostEqual, rpm)
	test.That(t, velocity(t, r.ctrl, motor.TPS), test.ShouldAlmostEqual, rpm*tpr/60)
	test.That(t, velocity(t, r.ctrl, motor.DPS), test.ShouldAlmostEqual, rpm/60*360)
	test.That(t, velocity(t, r.ctrl, motor.RPS), test.ShouldAlmostEqual, rpm/60*2*math.Pi)
	test.That(t, velocity(t, r.ctrl, motor.UPS), test.ShouldAlmostEqual, rpm/30)
	test.That(t, r.ctrl.Distance(), test.ShouldAlmostEqual, 2*2*rpm/60)

	_, err := r.ctrl.Velocity(motor.RotationUnit(42))
	test.That(t, err, test.ShouldNotBeNil)

	for _, unit := range []motor.RotationUnit{motor.RPM, motor.TPS, motor.DPS, motor.RPS, motor.UPS} {
		parsed, err := motor.ParseRotationUnit(unit.String())
		test.That(t, err, test.ShouldBeNil)
		test.That(t, parsed, test.ShouldEqual, unit)
	}
	_, err = motor.ParseRotationUnit("furlongs/fortnight")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestClosedLoopVelocity(t *testing.T) {
	const tpr, maxRPM = 600.0, 100.0
	cfg := motor.Config{
		TicksPerRotation: tpr,
		MaxRPM:           maxRPM,
		VelocityPID:      control.PIDCoefficients{Kp: 0.73, Ki: 2.0, Kd: 0.0003},
	}

	t.Run("converges on an ideal motor", func(t *testing.T) {
		r := newRig(t, fake.Config{MaxRPM: maxRPM, TicksPerRotation: tpr}, cfg)
		test.That(t, r.ctrl.SetRunMode(motor.ClosedLoopVelocity), test.ShouldBeNil)
		test.That(t, r.ctrl.SetRPM(50), test.ShouldBeNil)
		for i := 0; i < 100; i++ {
			r.tick(t, 10*time.Millisecond)
		}
		test.That(t, math.Abs(velocity(t, r.ctrl, motor.RPM)-50), test.ShouldBeLessThan, 0.5)
	})

	t.Run("corrects a weaker motor than modeled", func(t *testing.T) {
		r := newRig(t, fake.Config{MaxRPM: maxRPM, TicksPerRotation: tpr, Gain: 0.8}, cfg)
		test.That(t, r.ctrl.SetRunMode(motor.ClosedLoopVelocity), test.ShouldBeNil)
		test.That(t, r.ctrl.SetRPM(50), test.ShouldBeNil)
		var before int
		for i := 1; i <= 300; i++ {
			r.tick(t, 10*time.Millisecond)
			if i == 250 {
				before = r.ctrl.Position()
			}
		}
		// average over the last half second to smooth encoder quantization
		avgRPM := float64(r.ctrl.Position()-before) / 0.5 / tpr * 60
		test.That(t, avgRPM, test.ShouldAlmostEqual, 50.0, 1.5)
	})

	t.Run("power becomes a fraction of max speed", func(t *testing.T) {
		r := newRig(t, fake.Config{MaxRPM: maxRPM, TicksPerRotation: tpr}, cfg)
		test.That(t, r.ctrl.SetRunMode(motor.ClosedLoopVelocity), test.ShouldBeNil)
		test.That(t, r.ctrl.SetPower(context.Background(), 0.3), test.ShouldBeNil)
		for i := 0; i < 50; i++ {
			r.tick(t, 10*time.Millisecond)
		}
		test.That(t, velocity(t, r.ctrl, motor.RPM), test.ShouldAlmostEqual, 30.0, 0.5)
	})
}

func TestFeedforwardOnly(t *testing.T) {
	const tpr, maxRPM = 600.0, 100.0
	r := newRig(t,
		fake.Config{MaxRPM: maxRPM, TicksPerRotation: tpr, Gain: 0.5},
		motor.Config{TicksPerRotation: tpr, MaxRPM: maxRPM},
	)
	cfg := r.ctrl.Config()
	maxTPS := cfg.MaxTicksPerSecond()
	r.ctrl.SetFeedforward(control.FeedforwardCoefficients{Kv: 2 / maxTPS})
	test.That(t, r.ctrl.RunMode(), test.ShouldEqual, motor.PowerOnly)
	test.That(t, r.ctrl.SetRPM(40), test.ShouldBeNil)
	for i := 0; i < 100; i++ {
		r.tick(t, 10*time.Millisecond)
	}
	test.That(t, math.Abs(velocity(t, r.ctrl, motor.RPM)-40), test.ShouldBeLessThan, 1.0)
}

func TestRunToPosition(t *testing.T) {
	r := newRig(t,
		fake.Config{MaxRPM: 100, TicksPerRotation: 100},
		motor.Config{TicksPerRotation: 100, MaxRPM: 100, DistancePerRev: 2, PositionPID: control.PIDCoefficients{Kp: 1}},
	)
	test.That(t, r.ctrl.IsBusy(), test.ShouldBeFalse)
	test.That(t, r.ctrl.SetRunMode(motor.ClosedLoopPosition), test.ShouldBeNil)
	test.That(t, r.ctrl.SetPower(context.Background(), 1), test.ShouldBeNil)
	r.ctrl.SetTargetDistance(10)
	test.That(t, r.ctrl.TargetPosition(), test.ShouldEqual, 500)
	test.That(t, r.ctrl.IsBusy(), test.ShouldBeTrue)

	ticks := 0
	for r.ctrl.IsBusy() && ticks < 5000 {
		r.tick(t, 10*time.Millisecond)
		ticks++
	}
	test.That(t, r.ctrl.IsBusy(), test.ShouldBeFalse)
	test.That(t, math.Abs(float64(r.ctrl.Position()-500)), test.ShouldBeLessThanOrEqualTo, 10.0)
	// power was limited to the commanded maximum the whole way
	test.That(t, math.Abs(r.dev.Power()), test.ShouldBeLessThanOrEqualTo, 1.0)

	r.ctrl.SetTargetPosition(-200)
	test.That(t, r.ctrl.IsBusy(), test.ShouldBeTrue)
}

func TestReversal(t *testing.T) {
	r := newRig(t,
		fake.Config{MaxRPM: 100, TicksPerRotation: 600},
		motor.Config{TicksPerRotation: 600, MaxRPM: 100, Reversed: true},
	)
	test.That(t, r.ctrl.Reversed(), test.ShouldBeTrue)
	test.That(t, r.ctrl.SetPower(context.Background(), 0.5), test.ShouldBeNil)
	// output is flipped on the way out
	test.That(t, r.dev.Power(), test.ShouldEqual, -0.5)
	test.That(t, r.ctrl.Power(), test.ShouldEqual, 0.5)

	r.tick(t, time.Second)
	r.tick(t, time.Second)
	// and feedback on the way in, so the controller sees forward motion
	test.That(t, r.ctrl.Position(), test.ShouldEqual, 1000)
	test.That(t, velocity(t, r.ctrl, motor.TPS), test.ShouldAlmostEqual, 500.0)

	r.ctrl.ToggleReversed()
	test.That(t, r.ctrl.Reversed(), test.ShouldBeFalse)
	test.That(t, r.ctrl.Position(), test.ShouldEqual, -1000)
	r.ctrl.SetReversed(false)
	test.That(t, r.ctrl.Reversed(), test.ShouldBeFalse)
}

func TestMeasuredVelocityIsClamped(t *testing.T) {
	dev := &scriptedDevice{positions: []int{0, 1_000_000, 1_000_000}}
	clk := clock.NewMock()
	c, err := motor.New(dev, motor.Config{TicksPerRotation: 60, MaxRPM: 60}, clk, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	ctx := context.Background()
	test.That(t, c.Update(ctx), test.ShouldBeNil)
	clk.Add(10 * time.Millisecond)
	test.That(t, c.Update(ctx), test.ShouldBeNil)
	// max speed is 60 ticks/s, the glitch is clamped to twice that
	test.That(t, velocity(t, c, motor.TPS), test.ShouldAlmostEqual, 120.0)

	test.That(t, c.Step(ctx, 0.5), test.ShouldBeNil)
	test.That(t, velocity(t, c, motor.TPS), test.ShouldAlmostEqual, 0.0)
}

func TestVelocityFilter(t *testing.T) {
	dev := &scriptedDevice{positions: []int{0, 10, 30, 30}}
	cfg := motor.Config{
		TicksPerRotation: 60,
		MaxRPM:           600,
		VelocityFilter:   control.FilterConfig{Type: control.FilterMovingAverage, Size: 2},
	}
	c, err := motor.New(dev, cfg, clock.NewMock(), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	ctx := context.Background()
	test.That(t, c.Step(ctx, 1), test.ShouldBeNil)
	for _, want := range []float64{10, 15, 10} {
		test.That(t, c.Step(ctx, 1), test.ShouldBeNil)
		test.That(t, velocity(t, c, motor.TPS), test.ShouldAlmostEqual, want)
	}

	cfg.VelocityFilter = control.FilterConfig{Type: control.FilterExponential, Alpha: 2}
	test.That(t, cfg.Validate("m"), test.ShouldNotBeNil)
}

func TestVelocityPIDWaitsForFilter(t *testing.T) {
	dev := &scriptedDevice{positions: []int{0, 10, 20, 30, 40}}
	cfg := motor.Config{
		TicksPerRotation: 60,
		MaxRPM:           600,
		VelocityPID:      control.PIDCoefficients{Kp: 1},
		VelocityFilter:   control.FilterConfig{Type: control.FilterMovingAverage, Size: 3},
	}
	c, err := motor.New(dev, cfg, clock.NewMock(), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, c.SetRunMode(motor.ClosedLoopVelocity), test.ShouldBeNil)
	test.That(t, c.SetSpeed(300, 0, motor.TPS), test.ShouldBeNil)

	ctx := context.Background()
	// priming tick plus two ticks filling the window: feedforward only
	for i := 0; i < 3; i++ {
		test.That(t, c.Step(ctx, 1), test.ShouldBeNil)
		test.That(t, c.Power(), test.ShouldAlmostEqual, 0.5)
	}
	// window full: 0.5 + (300-10)/600
	test.That(t, c.Step(ctx, 1), test.ShouldBeNil)
	test.That(t, c.Power(), test.ShouldAlmostEqual, 0.5+290.0/600)
}

func TestDeviceErrors(t *testing.T) {
	dev := &scriptedDevice{positions: []int{0}, readErr: errors.New("i2c timeout")}
	c, err := motor.New(dev, motor.Config{TicksPerRotation: 60, MaxRPM: 60}, clock.NewMock(), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	err = c.Update(context.Background())
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "read position")
	test.That(t, errors.Cause(err).Error(), test.ShouldEqual, "i2c timeout")

	dev.readErr = nil
	dev.writeErr = errors.New("bus off")
	err = c.SetPower(context.Background(), 0.2)
	test.That(t, err.Error(), test.ShouldContainSubstring, "set power")
}

func TestRunModes(t *testing.T) {
	dev := &scriptedDevice{positions: []int{0}}
	c, err := motor.New(dev, motor.Config{TicksPerRotation: 60, MaxRPM: 60}, clock.NewMock(), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	test.That(t, c.SetRunMode(motor.RunMode(7)), test.ShouldNotBeNil)
	test.That(t, c.RunMode(), test.ShouldEqual, motor.PowerOnly)
	test.That(t, motor.ClosedLoopPosition.String(), test.ShouldEqual, "closed_loop_position")

	test.That(t, c.SetRunMode(motor.ClosedLoopVelocity), test.ShouldBeNil)
	test.That(t, c.SetRPM(30), test.ShouldBeNil)
	test.That(t, c.Update(context.Background()), test.ShouldBeNil)
	test.That(t, dev.power, test.ShouldAlmostEqual, 0.5)

	test.That(t, c.Stop(context.Background()), test.ShouldBeNil)
	test.That(t, c.RunMode(), test.ShouldEqual, motor.PowerOnly)
	test.That(t, dev.power, test.ShouldEqual, 0.0)
	test.That(t, c.Update(context.Background()), test.ShouldBeNil)
	test.That(t, dev.power, test.ShouldEqual, 0.0)
}

func TestGroupReversal(t *testing.T) {
	logger := logging.NewTestLogger(t)
	newController := func() *motor.Controller {
		c, err := motor.New(&scriptedDevice{positions: []int{0}}, motor.Config{TicksPerRotation: 1, MaxRPM: 1}, clock.NewMock(), logger)
		test.That(t, err, test.ShouldBeNil)
		return c
	}
	m1, m2 := newController(), motor.Reversed(newController())
	g := motor.NewGroup(m1, m2)
	test.That(t, g.Reversed(), test.ShouldBeFalse)
	test.That(t, []bool{m1.Reversed(), m2.Reversed()}, test.ShouldResemble, []bool{false, true})

	g.SetReversed(true)
	test.That(t, []bool{m1.Reversed(), m2.Reversed()}, test.ShouldResemble, []bool{true, false})
	test.That(t, g.Reversed(), test.ShouldBeTrue)

	// assigning the same value again does nothing
	g.SetReversed(true)
	test.That(t, []bool{m1.Reversed(), m2.Reversed()}, test.ShouldResemble, []bool{true, false})

	g.ToggleReversed()
	test.That(t, []bool{m1.Reversed(), m2.Reversed()}, test.ShouldResemble, []bool{false, true})
	test.That(t, g.Reversed(), test.ShouldBeFalse)
}

func TestGroupFanOut(t *testing.T) {
	logger := logging.NewTestLogger(t)
	cfg := motor.Config{TicksPerRotation: 60, MaxRPM: 60}
	good := &scriptedDevice{positions: []int{0, 30}}
	bad := &scriptedDevice{positions: []int{0, 60}, writeErr: errors.New("stalled")}
	other := &scriptedDevice{positions: []int{0, 90}}
	clk := clock.NewMock()
	var members []*motor.Controller
	for _, d := range []*scriptedDevice{good, bad, other} {
		c, err := motor.New(d, cfg, clk, logger)
		test.That(t, err, test.ShouldBeNil)
		members = append(members, c)
	}
	g := motor.NewGroup(members...)
	test.That(t, len(g.Members()), test.ShouldEqual, 3)

	err := g.SetPower(context.Background(), 0.25)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, len(multierr.Errors(err)), test.ShouldEqual, 1)
	// members after the failing one were still commanded
	test.That(t, good.power, test.ShouldEqual, 0.25)
	test.That(t, other.power, test.ShouldEqual, 0.25)

	bad.writeErr = nil
	test.That(t, g.SetRunMode(motor.ClosedLoopPosition), test.ShouldBeNil)
	test.That(t, g.SetRunMode(motor.RunMode(-1)), test.ShouldNotBeNil)
	g.SetTargetPosition(1000)
	test.That(t, g.IsBusy(), test.ShouldBeTrue)

	test.That(t, g.SetRunMode(motor.PowerOnly), test.ShouldBeNil)
	test.That(t, g.Update(context.Background()), test.ShouldBeNil)
	clk.Add(time.Second)
	test.That(t, g.Update(context.Background()), test.ShouldBeNil)
	// 30, 60 and 90 ticks/s at one tick per revolution
	test.That(t, velocity(t, g, motor.TPS), test.ShouldAlmostEqual, 60.0)
	test.That(t, g.IsBusy(), test.ShouldBeFalse)

	test.That(t, g.Stop(context.Background()), test.ShouldBeNil)
	test.That(t, other.power, test.ShouldEqual, 0.0)
}

func TestControllerInLoop(t *testing.T) {
	logger := logging.NewTestLogger(t)
	r := newRig(t, fake.Config{MaxRPM: 100, TicksPerRotation: 600}, motor.Config{TicksPerRotation: 600, MaxRPM: 100})
	test.That(t, r.ctrl.SetRPM(50), test.ShouldBeNil)

	loop, err := control.NewLoop(logger, r.clk, control.LoopConfig{Frequency: 100},
		control.UpdaterFunc(r.dev.UpdateLoop), r.ctrl)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, loop.Start(), test.ShouldBeNil)
	defer loop.Stop()

	for i := int64(1); i <= 20; i++ {
		r.clk.Add(loop.Period())
		deadline := time.Now().Add(5 * time.Second)
		for loop.Ticks() < i {
			if time.Now().After(deadline) {
				t.Fatalf("loop stalled at tick %d", loop.Ticks())
			}
			time.Sleep(time.Millisecond)
		}
	}
	test.That(t, velocity(t, r.ctrl, motor.RPM), test.ShouldAlmostEqual, 50.0, 0.5)
}

func TestNilLoggerUsesGlobal(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	prev := logging.Global()
	logging.ReplaceGlobal(logger)
	defer logging.ReplaceGlobal(prev)

	dev, err := fake.NewMotor(fake.Config{TicksPerRotation: 100}, clock.NewMock(), nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, logs.FilterMessageSnippet("Max RPM not provided").Len(), test.ShouldEqual, 1)

	c, err := motor.New(dev, motor.Config{TicksPerRotation: 100, MaxRPM: 100}, clock.NewMock(), nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, c.SetRunMode(motor.ClosedLoopVelocity), test.ShouldBeNil)
	test.That(t, logs.FilterMessage("changing run mode").Len(), test.ShouldEqual, 1)
}
