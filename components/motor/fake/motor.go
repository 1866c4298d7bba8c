// Package fake implements a simulated DC motor with an encoder.
package fake

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"go.viam.com/motionkit/components/motor"
	"go.viam.com/motionkit/logging"
	"go.viam.com/motionkit/utils"
)

const defaultMaxRPM = 100

// Config describes the simulated motor's physics.
type Config struct {
	MaxRPM           float64 `json:"max_rpm,omitempty"`
	TicksPerRotation float64 `json:"ticks_per_rotation"`
	// Gain scales how much speed a unit of power actually produces; zero means 1.
	Gain float64 `json:"gain,omitempty"`
	// StaticPower is the power needed before the motor moves at all.
	StaticPower float64 `json:"static_power,omitempty"`
	// TimeConstant is the first-order response time to a power change; zero responds instantly.
	TimeConstant time.Duration `json:"time_constant,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate(path string) error {
	if cfg.TicksPerRotation <= 0 {
		return utils.NewConfigValidationError(path, motor.NewInvalidTicksPerRotationError(cfg.TicksPerRotation))
	}
	if cfg.MaxRPM < 0 {
		return utils.NewConfigValidationError(path, motor.NewInvalidMaxRPMError(cfg.MaxRPM))
	}
	if cfg.StaticPower < 0 || cfg.StaticPower >= 1 {
		return utils.NewConfigValidationError(path, errors.Errorf("static power must be in [0, 1), got %v", cfg.StaticPower))
	}
	return nil
}

var _ motor.Device = &Motor{}

// A Motor integrates its own position from the commanded power over time read from a clock.
// Call Update once per tick before the controller reads it.
type Motor struct {
	mu     sync.Mutex
	cfg    Config
	clk    clock.Clock
	logger logging.Logger

	power    float64
	velocity float64 // ticks/s
	position float64 // ticks
	lastTime time.Time

	positionErr error
}

// NewMotor returns a stationary motor at position zero.
func NewMotor(cfg Config, clk clock.Clock, logger logging.Logger) (*Motor, error) {
	if logger == nil {
		logger = logging.Global()
	}
	if err := cfg.Validate("fake"); err != nil {
		return nil, err
	}
	if cfg.MaxRPM == 0 {
		logger.Infof("Max RPM not provided to a fake motor, defaulting to %v", defaultMaxRPM)
		cfg.MaxRPM = defaultMaxRPM
	}
	if cfg.Gain == 0 {
		cfg.Gain = 1
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Motor{cfg: cfg, clk: clk, logger: logger, lastTime: clk.Now()}, nil
}

// Position returns the encoder count rounded to whole ticks.
func (m *Motor) Position(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.positionErr != nil {
		return 0, m.positionErr
	}
	return int(math.Round(m.position)), nil
}

// SetPower sets the given power, clamped into [-1, 1].
func (m *Motor) SetPower(ctx context.Context, power float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.power = utils.Clamp(power, -1, 1)
	return nil
}

// Power returns the last power written.
func (m *Motor) Power() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.power
}

// Velocity returns the true simulated velocity in ticks per second.
func (m *Motor) Velocity() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.velocity
}

// SetPositionError makes subsequent Position calls fail with err, or succeed again when nil.
func (m *Motor) SetPositionError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.positionErr = err
}

// Update advances the simulation to the clock's current time, holding the power written since
// the previous update.
func (m *Motor) Update() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.clk.Now()
	dt := now.Sub(m.lastTime).Seconds()
	m.lastTime = now
	if dt <= 0 {
		return
	}

	target := m.steadyStateVelocity()
	if m.cfg.TimeConstant > 0 {
		m.velocity += (target - m.velocity) * (1 - math.Exp(-dt/m.cfg.TimeConstant.Seconds()))
	} else {
		m.velocity = target
	}
	m.position += m.velocity * dt
}

// UpdateLoop adapts Update for use as a control loop updater.
func (m *Motor) UpdateLoop(context.Context) error {
	m.Update()
	return nil
}

func (m *Motor) steadyStateVelocity() float64 {
	effective := math.Abs(m.power) - m.cfg.StaticPower
	if effective <= 0 {
		return 0
	}
	maxTPS := m.cfg.MaxRPM * m.cfg.TicksPerRotation / 60
	return utils.Sign(m.power) * effective * m.cfg.Gain * maxTPS
}
