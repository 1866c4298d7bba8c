package motor

import "github.com/pkg/errors"

// NewInvalidTicksPerRotationError returns an error for a non-positive encoder resolution.
func NewInvalidTicksPerRotationError(tpr float64) error {
	return errors.Errorf("ticks per rotation must be positive, got %v", tpr)
}

// NewInvalidMaxRPMError returns an error for a non-positive maximum speed.
func NewInvalidMaxRPMError(maxRPM float64) error {
	return errors.Errorf("max rpm must be positive, got %v", maxRPM)
}

// NewUnknownRunModeError returns an error for a run mode the controller does not implement.
func NewUnknownRunModeError(mode RunMode) error {
	return errors.Errorf("unknown run mode %v", mode)
}

// NewUnknownUnitError returns an error for a rotation unit the controller cannot convert.
func NewUnknownUnitError(unit RotationUnit) error {
	return errors.Errorf("unknown rotation unit %v", unit)
}

// NewDeviceError wraps a failure reading from or writing to the underlying device.
func NewDeviceError(err error, op string) error {
	return errors.Wrapf(err, "motor device failed to %s", op)
}
