// Package config defines the file format used to describe a path, its constraints and the
// actuators that follow it.
package config

import (
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/motionkit/components/motor"
	"go.viam.com/motionkit/components/motor/fake"
	"go.viam.com/motionkit/control"
	"go.viam.com/motionkit/profile"
	"go.viam.com/motionkit/spatialmath"
	"go.viam.com/motionkit/trajectory"
	"go.viam.com/motionkit/utils"
)

// Config is the top level of a motion file.
type Config struct {
	Constraints Constraints        `json:"constraints"`
	Profile     profile.Options    `json:"profile"`
	Path        *PathConfig        `json:"path,omitempty"`
	Loop        control.LoopConfig `json:"loop"`
	Motors      []MotorConfig      `json:"motors,omitempty"`
}

// Validate checks every section and reports all problems at once.
func (cfg *Config) Validate() error {
	var errs error
	errs = multierr.Append(errs, cfg.Constraints.Validate("constraints"))
	if cfg.Path != nil {
		errs = multierr.Append(errs, cfg.Path.Validate("path"))
	}
	if cfg.Loop.Frequency != 0 {
		errs = multierr.Append(errs, cfg.Loop.Validate("loop"))
	}
	names := map[string]bool{}
	for i, m := range cfg.Motors {
		p := fmt.Sprintf("motors.%d", i)
		errs = multierr.Append(errs, m.Validate(p))
		if names[m.Name] {
			errs = multierr.Append(errs, utils.NewConfigValidationError(p, errors.Errorf("motor name %q is not unique", m.Name)))
		}
		names[m.Name] = true
	}
	return errs
}

// Constraints are the generic trajectory limits. Zero fields take the trajectory defaults.
type Constraints struct {
	MaxVel          float64 `json:"max_vel,omitempty"`
	MaxAccel        float64 `json:"max_accel,omitempty"`
	MaxAngVelDeg    float64 `json:"max_ang_vel_deg,omitempty"`
	MaxLateralAccel float64 `json:"max_lateral_accel,omitempty"`
}

// Validate ensures the constraints are usable once defaults are applied.
func (c Constraints) Validate(path string) error {
	if err := c.Generic().Validate(); err != nil {
		return utils.NewConfigValidationError(path, err)
	}
	return nil
}

// Generic converts the constraints, filling in defaults.
func (c Constraints) Generic() trajectory.GenericConstraints {
	g := trajectory.NewGenericConstraints()
	if c.MaxVel != 0 {
		g.MaxVel = c.MaxVel
	}
	if c.MaxAccel != 0 {
		g.MaxAccel = c.MaxAccel
	}
	if c.MaxAngVelDeg != 0 {
		g.MaxAngVel = spatialmath.AngleFromDegrees(c.MaxAngVelDeg)
	}
	g.MaxLateralAccel = c.MaxLateralAccel
	return g
}

// MotorConfig names one actuator. Attributes decode into a motor.Config; Simulation, when
// present, decodes into the fake motor used in place of hardware.
type MotorConfig struct {
	Name       string             `json:"name"`
	Attributes utils.AttributeMap `json:"attributes"`
	Simulation utils.AttributeMap `json:"simulation,omitempty"`
}

// Validate ensures the attributes decode and validate.
func (m MotorConfig) Validate(path string) error {
	if m.Name == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "name")
	}
	if _, err := m.MotorConfig(); err != nil {
		return utils.NewConfigValidationError(path, err)
	}
	if m.Simulation != nil {
		if _, err := m.SimulationConfig(); err != nil {
			return utils.NewConfigValidationError(path, err)
		}
	}
	return nil
}

// MotorConfig decodes and validates the controller attributes.
func (m MotorConfig) MotorConfig() (*motor.Config, error) {
	var cfg motor.Config
	if err := m.Attributes.Decode(&cfg); err != nil {
		return nil, errors.Wrap(err, "cannot decode motor attributes")
	}
	if err := cfg.Validate("attributes"); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SimulationConfig decodes the simulated device, defaulting its physics to the controller's.
func (m MotorConfig) SimulationConfig() (*fake.Config, error) {
	mcfg, err := m.MotorConfig()
	if err != nil {
		return nil, err
	}
	cfg := fake.Config{MaxRPM: mcfg.MaxRPM, TicksPerRotation: mcfg.TicksPerRotation}
	if m.Simulation != nil {
		if err := m.Simulation.Decode(&cfg); err != nil {
			return nil, errors.Wrap(err, "cannot decode simulation attributes")
		}
	}
	if err := cfg.Validate("simulation"); err != nil {
		return nil, err
	}
	return &cfg, nil
}
