// Package trajectory pairs a path with a path-constrained motion profile and samples the result
// by time.
package trajectory

import (
	"math"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/motionkit/spatialmath"
)

// A VelocityConstraint bounds speed at arc length s, given the path pose and curvature there.
type VelocityConstraint interface {
	MaxVelocity(s float64, pose spatialmath.Pose2d, curvature float64) float64
}

// An AccelerationConstraint bounds the magnitude of tangential acceleration at arc length s.
type AccelerationConstraint interface {
	MaxAcceleration(s float64, pose spatialmath.Pose2d, curvature float64) float64
}

// VelocityConstraintFunc adapts a function to a VelocityConstraint.
type VelocityConstraintFunc func(s float64, pose spatialmath.Pose2d, curvature float64) float64

// MaxVelocity calls f.
func (f VelocityConstraintFunc) MaxVelocity(s float64, pose spatialmath.Pose2d, curvature float64) float64 {
	return f(s, pose, curvature)
}

// AccelerationConstraintFunc adapts a function to an AccelerationConstraint.
type AccelerationConstraintFunc func(s float64, pose spatialmath.Pose2d, curvature float64) float64

// MaxAcceleration calls f.
func (f AccelerationConstraintFunc) MaxAcceleration(s float64, pose spatialmath.Pose2d, curvature float64) float64 {
	return f(s, pose, curvature)
}

// TranslationalVelocity caps speed everywhere.
func TranslationalVelocity(maxVel float64) VelocityConstraint {
	return VelocityConstraintFunc(func(float64, spatialmath.Pose2d, float64) float64 { return maxVel })
}

// AngularVelocity caps speed so the heading rate |κ|·v stays below maxAngVel. Straight sections
// are unconstrained.
func AngularVelocity(maxAngVel spatialmath.Angle) VelocityConstraint {
	return VelocityConstraintFunc(func(_ float64, _ spatialmath.Pose2d, curvature float64) float64 {
		if math.Abs(curvature) < curvatureEpsilon {
			return math.Inf(1)
		}
		return maxAngVel.Radians() / math.Abs(curvature)
	})
}

// LateralAcceleration caps speed so the centripetal acceleration κ·v² stays below maxAccel.
func LateralAcceleration(maxAccel float64) VelocityConstraint {
	return VelocityConstraintFunc(func(_ float64, _ spatialmath.Pose2d, curvature float64) float64 {
		if math.Abs(curvature) < curvatureEpsilon {
			return math.Inf(1)
		}
		return math.Sqrt(maxAccel / math.Abs(curvature))
	})
}

// TranslationalAcceleration is a constant acceleration limit.
func TranslationalAcceleration(maxAccel float64) AccelerationConstraint {
	return AccelerationConstraintFunc(func(float64, spatialmath.Pose2d, float64) float64 { return maxAccel })
}

// MinVelocity combines constraints by taking the tightest at every point.
func MinVelocity(constraints ...VelocityConstraint) VelocityConstraint {
	return VelocityConstraintFunc(func(s float64, pose spatialmath.Pose2d, curvature float64) float64 {
		return lo.Min(lo.Map(constraints, func(c VelocityConstraint, _ int) float64 {
			return c.MaxVelocity(s, pose, curvature)
		}))
	})
}

// MinAcceleration combines constraints by taking the tightest at every point.
func MinAcceleration(constraints ...AccelerationConstraint) AccelerationConstraint {
	return AccelerationConstraintFunc(func(s float64, pose spatialmath.Pose2d, curvature float64) float64 {
		return lo.Min(lo.Map(constraints, func(c AccelerationConstraint, _ int) float64 {
			return c.MaxAcceleration(s, pose, curvature)
		}))
	})
}

const curvatureEpsilon = 1e-9

// Defaults for GenericConstraints.
const (
	DefaultMaxVel   = 30.0
	DefaultMaxAccel = 30.0
)

// DefaultMaxAngVel is 180 degrees per second.
var DefaultMaxAngVel = spatialmath.AngleFromDegrees(180)

// GenericConstraints are the usual limits for a drivetrain following a path. A zero
// MaxLateralAccel leaves lateral acceleration unbounded.
type GenericConstraints struct {
	MaxVel          float64           `json:"max_vel"`
	MaxAccel        float64           `json:"max_accel"`
	MaxAngVel       spatialmath.Angle `json:"-"`
	MaxLateralAccel float64           `json:"max_lateral_accel"`
}

// NewGenericConstraints returns constraints with the default limits.
func NewGenericConstraints() GenericConstraints {
	return GenericConstraints{
		MaxVel:    DefaultMaxVel,
		MaxAccel:  DefaultMaxAccel,
		MaxAngVel: DefaultMaxAngVel,
	}
}

// Validate ensures all limits are usable.
func (c GenericConstraints) Validate() error {
	if !(c.MaxVel > 0) {
		return errors.Errorf("max velocity must be positive, got %v", c.MaxVel)
	}
	if !(c.MaxAccel > 0) {
		return errors.Errorf("max acceleration must be positive, got %v", c.MaxAccel)
	}
	if !(c.MaxAngVel.Radians() > 0) {
		return errors.Errorf("max angular velocity must be positive, got %v", c.MaxAngVel)
	}
	if c.MaxLateralAccel < 0 {
		return errors.Errorf("max lateral acceleration cannot be negative, got %v", c.MaxLateralAccel)
	}
	return nil
}

// VelocityConstraint returns the combined speed limit.
func (c GenericConstraints) VelocityConstraint() VelocityConstraint {
	cs := []VelocityConstraint{TranslationalVelocity(c.MaxVel), AngularVelocity(c.MaxAngVel)}
	if c.MaxLateralAccel > 0 {
		cs = append(cs, LateralAcceleration(c.MaxLateralAccel))
	}
	return MinVelocity(cs...)
}

// AccelerationConstraint returns the acceleration limit.
func (c GenericConstraints) AccelerationConstraint() AccelerationConstraint {
	return TranslationalAcceleration(c.MaxAccel)
}
