package motor

import (
	"go.viam.com/motionkit/control"
	"go.viam.com/motionkit/utils"
)

// DefaultPositionTolerance is how close, in ticks, run-to-position must get before the
// controller stops reporting busy.
const DefaultPositionTolerance = 10

// Config describes one actuator and how to control it. Feedforward gains act on velocities in
// ticks per second; when they are all zero the controller uses v / maxTicksPerSecond.
type Config struct {
	TicksPerRotation  float64                         `json:"ticks_per_rotation"`
	MaxRPM            float64                         `json:"max_rpm"`
	DistancePerRev    float64                         `json:"distance_per_rev,omitempty"`
	PositionTolerance int                             `json:"position_tolerance,omitempty"`
	Reversed          bool                            `json:"reversed,omitempty"`
	VelocityPID       control.PIDCoefficients         `json:"velocity_pid"`
	PositionPID       control.PIDCoefficients         `json:"position_pid"`
	Feedforward       control.FeedforwardCoefficients `json:"feedforward"`
	// VelocityFilter smooths the measured velocity before it reaches the velocity loop.
	VelocityFilter control.FilterConfig `json:"velocity_filter"`
}

// Validate ensures all parts of the config are valid and fills in defaults.
func (cfg *Config) Validate(path string) error {
	if !(cfg.TicksPerRotation > 0) {
		return utils.NewConfigValidationError(path, NewInvalidTicksPerRotationError(cfg.TicksPerRotation))
	}
	if !(cfg.MaxRPM > 0) {
		return utils.NewConfigValidationError(path, NewInvalidMaxRPMError(cfg.MaxRPM))
	}
	if err := cfg.VelocityFilter.Validate(); err != nil {
		return utils.NewConfigValidationError(path, err)
	}
	if cfg.DistancePerRev == 0 {
		cfg.DistancePerRev = 1
	}
	if cfg.PositionTolerance <= 0 {
		cfg.PositionTolerance = DefaultPositionTolerance
	}
	return nil
}

// MaxTicksPerSecond is the speed reached at full power.
func (cfg *Config) MaxTicksPerSecond() float64 {
	return cfg.MaxRPM * cfg.TicksPerRotation / 60
}
