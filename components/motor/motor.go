// Package motor implements a closed-loop single-axis actuator controller and groups of them.
package motor

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"go.viam.com/motionkit/control"
	"go.viam.com/motionkit/logging"
	"go.viam.com/motionkit/utils"
)

// A Device is the hardware boundary of one actuator: an encoder to read and a power to write.
// Neither call may block for long; they run on every control tick.
type Device interface {
	// Position returns the raw encoder count.
	Position(ctx context.Context) (int, error)
	// SetPower drives the actuator with power in [-1, 1].
	SetPower(ctx context.Context, power float64) error
}

// RunMode selects how the controller turns setpoints into power.
type RunMode int

const (
	// PowerOnly passes the commanded power straight through, or drives a speed setpoint open
	// loop through feedforward.
	PowerOnly RunMode = iota
	// ClosedLoopVelocity tracks a velocity setpoint with feedforward plus PID on measured velocity.
	ClosedLoopVelocity
	// ClosedLoopPosition drives toward a target encoder position with PID, limited to the
	// commanded power.
	ClosedLoopPosition
)

func (m RunMode) String() string {
	switch m {
	case PowerOnly:
		return "power_only"
	case ClosedLoopVelocity:
		return "closed_loop_velocity"
	case ClosedLoopPosition:
		return "closed_loop_position"
	default:
		return fmt.Sprintf("RunMode(%d)", int(m))
	}
}

// Controller drives one Device. It is safe to call from several goroutines, but Update must
// only be driven by one periodic caller.
type Controller struct {
	mu     sync.Mutex
	dev    Device
	cfg    Config
	clk    clock.Clock
	logger logging.Logger

	mode     RunMode
	reversed bool

	velocityPID    *control.PIDController
	positionPID    *control.PIDController
	velocityFilter control.Filter

	// power is the passthrough command in PowerOnly and the power limit in ClosedLoopPosition.
	power float64
	// speed setpoint in ticks/s and ticks/s^2
	targetVelocity     float64
	targetAcceleration float64
	speedCommanded     bool
	targetPosition     int

	primed       bool
	lastTime     time.Time
	lastPosition int
	velocity     float64
	// velocityReady is false until the velocity filter has warmed up; the velocity PID waits for it.
	velocityReady bool
	output        float64
}

// New returns a controller for dev in PowerOnly mode. The config is validated and defaulted. A
// nil clk uses the wall clock and a nil logger the global logger.
func New(dev Device, cfg Config, clk clock.Clock, logger logging.Logger) (*Controller, error) {
	if err := cfg.Validate("motor"); err != nil {
		return nil, err
	}
	velocityFilter, err := control.NewFilter(cfg.VelocityFilter)
	if err != nil {
		return nil, err
	}
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = logging.Global()
	}
	return &Controller{
		dev:            dev,
		cfg:            cfg,
		clk:            clk,
		logger:         logger,
		mode:           PowerOnly,
		reversed:       cfg.Reversed,
		velocityPID:    control.NewPIDController(cfg.VelocityPID),
		positionPID:    control.NewPIDController(cfg.PositionPID),
		velocityFilter: velocityFilter,
	}, nil
}

// Config returns the validated configuration.
func (c *Controller) Config() Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg
}

// RunMode returns the current run mode.
func (c *Controller) RunMode() RunMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// SetRunMode switches modes. Accumulated PID state is always cleared so the integrator does
// not carry over between modes.
func (c *Controller) SetRunMode(mode RunMode) error {
	if mode < PowerOnly || mode > ClosedLoopPosition {
		return NewUnknownRunModeError(mode)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode != mode {
		c.logger.Debugw("changing run mode", "from", c.mode, "to", mode)
	}
	c.mode = mode
	c.velocityPID.Reset()
	c.positionPID.Reset()
	return nil
}

// SetVelocityPID replaces the velocity loop gains.
func (c *Controller) SetVelocityPID(coeffs control.PIDCoefficients) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg.VelocityPID = coeffs
	c.velocityPID.SetCoefficients(coeffs)
}

// SetPositionPID replaces the position loop gains.
func (c *Controller) SetPositionPID(coeffs control.PIDCoefficients) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg.PositionPID = coeffs
	c.positionPID.SetCoefficients(coeffs)
}

// SetFeedforward replaces the feedforward gains.
func (c *Controller) SetFeedforward(coeffs control.FeedforwardCoefficients) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg.Feedforward = coeffs
}

// SetPower commands power in [-1, 1]. In PowerOnly it is written to the device immediately; in
// ClosedLoopVelocity it becomes a speed setpoint of power times the maximum speed; in
// ClosedLoopPosition it limits the output magnitude.
func (c *Controller) SetPower(ctx context.Context, power float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	power = utils.Clamp(power, -1, 1)
	c.power = power
	switch c.mode {
	case PowerOnly:
		c.speedCommanded = false
		return c.write(ctx, power)
	case ClosedLoopVelocity:
		c.targetVelocity = power * c.cfg.MaxTicksPerSecond()
		c.targetAcceleration = 0
		c.speedCommanded = true
	case ClosedLoopPosition:
	}
	return nil
}

// SetSpeed sets the velocity setpoint and its feedforward acceleration, both expressed in unit
// (acceleration in unit per second).
func (c *Controller) SetSpeed(v, a float64, unit RotationUnit) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	tv, err := ConvertVelocity(v, unit, TPS, c.cfg.TicksPerRotation, c.cfg.DistancePerRev)
	if err != nil {
		return err
	}
	ta, err := ConvertVelocity(a, unit, TPS, c.cfg.TicksPerRotation, c.cfg.DistancePerRev)
	if err != nil {
		return err
	}
	c.targetVelocity = tv
	c.targetAcceleration = ta
	c.speedCommanded = true
	return nil
}

// SetRPM sets the velocity setpoint in revolutions per minute.
func (c *Controller) SetRPM(rpm float64) error {
	return c.SetSpeed(rpm, 0, RPM)
}

// SetTargetPosition sets the ClosedLoopPosition target in encoder ticks.
func (c *Controller) SetTargetPosition(ticks int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.targetPosition = ticks
}

// SetTargetDistance sets the ClosedLoopPosition target in distance units.
func (c *Controller) SetTargetDistance(distance float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.targetPosition = int(math.Round(distance / c.cfg.DistancePerRev * c.cfg.TicksPerRotation))
}

// TargetPosition returns the ClosedLoopPosition target in encoder ticks.
func (c *Controller) TargetPosition() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.targetPosition
}

// Update runs one control tick, measuring dt on the injected clock. The first tick after
// construction or a reversal only primes the velocity estimate.
func (c *Controller) Update(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.clk.Now()
	dt := 0.0
	if c.primed {
		dt = now.Sub(c.lastTime).Seconds()
	}
	c.lastTime = now
	return c.step(ctx, dt)
}

// Step runs one control tick with an explicit dt in seconds.
func (c *Controller) Step(ctx context.Context, dt float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastTime = c.clk.Now()
	return c.step(ctx, dt)
}

func (c *Controller) step(ctx context.Context, dt float64) error {
	raw, err := c.dev.Position(ctx)
	if err != nil {
		return NewDeviceError(err, "read position")
	}
	position := raw
	if c.reversed {
		position = -raw
	}

	measured := c.primed && dt > 0
	if measured {
		limit := 2 * c.cfg.MaxTicksPerSecond()
		c.velocity, c.velocityReady = c.velocityFilter.Next(utils.Clamp(float64(position-c.lastPosition)/dt, -limit, limit))
	}
	c.lastPosition = position
	c.primed = true

	var out float64
	switch c.mode {
	case PowerOnly:
		if !c.speedCommanded {
			out = c.power
			break
		}
		out = c.feedforward()
	case ClosedLoopVelocity:
		out = c.feedforward()
		if measured && c.velocityReady {
			maxVel := c.cfg.MaxTicksPerSecond()
			out += c.velocityPID.Update(c.targetVelocity/maxVel, c.velocity/maxVel, dt)
		}
	case ClosedLoopPosition:
		limit := math.Abs(c.power)
		out = utils.Clamp(c.positionPID.Update(float64(c.targetPosition), float64(position), dt), -limit, limit)
	default:
		return NewUnknownRunModeError(c.mode)
	}
	return c.write(ctx, utils.Clamp(out, -1, 1))
}

func (c *Controller) feedforward() float64 {
	if c.cfg.Feedforward.IsZero() {
		return c.targetVelocity / c.cfg.MaxTicksPerSecond()
	}
	return c.cfg.Feedforward.Calculate(c.targetVelocity, c.targetAcceleration)
}

// write sends output to the device, flipping it when reversed.
func (c *Controller) write(ctx context.Context, output float64) error {
	c.output = output
	if c.reversed {
		output = -output
	}
	if err := c.dev.SetPower(ctx, output); err != nil {
		return NewDeviceError(err, "set power")
	}
	return nil
}

// Power returns the last output written, before reversal.
func (c *Controller) Power() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.output
}

// Velocity returns the most recently measured velocity in unit.
func (c *Controller) Velocity(unit RotationUnit) (float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ConvertVelocity(c.velocity, TPS, unit, c.cfg.TicksPerRotation, c.cfg.DistancePerRev)
}

// Position returns the most recently measured encoder position in ticks.
func (c *Controller) Position() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastPosition
}

// Distance returns the most recently measured position in distance units.
func (c *Controller) Distance() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return float64(c.lastPosition) / c.cfg.TicksPerRotation * c.cfg.DistancePerRev
}

// IsBusy reports whether a ClosedLoopPosition move is still outside the position tolerance.
func (c *Controller) IsBusy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode != ClosedLoopPosition {
		return false
	}
	diff := c.targetPosition - c.lastPosition
	if diff < 0 {
		diff = -diff
	}
	return diff > c.cfg.PositionTolerance
}

// Reversed reports whether feedback and output are flipped.
func (c *Controller) Reversed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reversed
}

// SetReversed flips the sign of both measured feedback and written output.
func (c *Controller) SetReversed(reversed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setReversed(reversed)
}

// ToggleReversed inverts the reversal flag.
func (c *Controller) ToggleReversed() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setReversed(!c.reversed)
}

func (c *Controller) setReversed(reversed bool) {
	if c.reversed == reversed {
		return
	}
	c.reversed = reversed
	// the stored position has the old sign; measure afresh
	c.primed = false
	c.lastPosition = -c.lastPosition
	c.velocity = -c.velocity
	c.velocityFilter.Reset()
	c.velocityReady = false
	c.velocityPID.Reset()
	c.positionPID.Reset()
}

// Reversed is a convenience for building groups: it flips c and returns it.
func Reversed(c *Controller) *Controller {
	c.ToggleReversed()
	return c
}

// Stop switches to PowerOnly and writes zero power.
func (c *Controller) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mode = PowerOnly
	c.power = 0
	c.speedCommanded = false
	c.targetVelocity, c.targetAcceleration = 0, 0
	c.velocityPID.Reset()
	c.positionPID.Reset()
	return c.write(ctx, 0)
}
