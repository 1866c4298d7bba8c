package motor

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// RotationUnit selects how an angular velocity is expressed.
type RotationUnit int

const (
	// RPM is revolutions per minute.
	RPM RotationUnit = iota
	// TPS is encoder ticks per second.
	TPS
	// DPS is degrees per second.
	DPS
	// RPS is radians per second.
	RPS
	// UPS is distance units per second, using the configured distance per revolution.
	UPS
)

func (u RotationUnit) String() string {
	switch u {
	case RPM:
		return "rpm"
	case TPS:
		return "ticks/s"
	case DPS:
		return "deg/s"
	case RPS:
		return "rad/s"
	case UPS:
		return "units/s"
	default:
		return fmt.Sprintf("RotationUnit(%d)", int(u))
	}
}

// ParseRotationUnit is the inverse of RotationUnit.String.
func ParseRotationUnit(s string) (RotationUnit, error) {
	for _, u := range []RotationUnit{RPM, TPS, DPS, RPS, UPS} {
		if u.String() == s {
			return u, nil
		}
	}
	return 0, errors.Errorf("unknown rotation unit %q", s)
}

// perRevolution is how much of unit one revolution per second corresponds to.
func perRevolution(unit RotationUnit, ticksPerRotation, distancePerRev float64) (float64, error) {
	switch unit {
	case RPM:
		return 60, nil
	case TPS:
		return ticksPerRotation, nil
	case DPS:
		return 360, nil
	case RPS:
		return 2 * math.Pi, nil
	case UPS:
		return distancePerRev, nil
	default:
		return 0, NewUnknownUnitError(unit)
	}
}

// ConvertVelocity converts v from one unit to another for an actuator with the given encoder
// resolution and distance per revolution.
func ConvertVelocity(v float64, from, to RotationUnit, ticksPerRotation, distancePerRev float64) (float64, error) {
	fromScale, err := perRevolution(from, ticksPerRotation, distancePerRev)
	if err != nil {
		return 0, err
	}
	toScale, err := perRevolution(to, ticksPerRotation, distancePerRev)
	if err != nil {
		return 0, err
	}
	return v / fromScale * toScale, nil
}
