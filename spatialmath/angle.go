// Package spatialmath defines planar geometry primitives: angles, vectors and poses.
package spatialmath

import (
	"fmt"
	"math"

	"github.com/golang/geo/s1"
)

// AngleUnit is the unit an angle value is expressed in.
type AngleUnit int

// The supported angle units.
const (
	Radians AngleUnit = iota
	Degrees
)

func (u AngleUnit) String() string {
	switch u {
	case Radians:
		return "radians"
	case Degrees:
		return "degrees"
	default:
		return fmt.Sprintf("AngleUnit(%d)", int(u))
	}
}

// Angle is a planar angle. It always stores radians internally, so arithmetic and trigonometry
// never mix units; conversion happens only at construction and in Value.
type Angle struct {
	rad s1.Angle
}

// NewAngle returns the angle v expressed in unit.
func NewAngle(v float64, unit AngleUnit) Angle {
	if unit == Degrees {
		return Angle{rad: s1.Angle(v) * s1.Degree}
	}
	return Angle{rad: s1.Angle(v)}
}

// AngleFromRadians returns an angle of rad radians.
func AngleFromRadians(rad float64) Angle {
	return Angle{rad: s1.Angle(rad)}
}

// AngleFromDegrees returns an angle of deg degrees.
func AngleFromDegrees(deg float64) Angle {
	return NewAngle(deg, Degrees)
}

// Radians returns the angle in radians.
func (a Angle) Radians() float64 { return a.rad.Radians() }

// Degrees returns the angle in degrees.
func (a Angle) Degrees() float64 { return a.rad.Degrees() }

// Value returns the angle expressed in unit.
func (a Angle) Value(unit AngleUnit) float64 {
	if unit == Degrees {
		return a.Degrees()
	}
	return a.Radians()
}

// Add returns a+b.
func (a Angle) Add(b Angle) Angle { return Angle{rad: a.rad + b.rad} }

// Sub returns a-b.
func (a Angle) Sub(b Angle) Angle { return Angle{rad: a.rad - b.rad} }

// Neg returns -a.
func (a Angle) Neg() Angle { return Angle{rad: -a.rad} }

// Scale returns a*k.
func (a Angle) Scale(k float64) Angle { return Angle{rad: a.rad * s1.Angle(k)} }

// Sin returns the sine of the angle.
func (a Angle) Sin() float64 { return math.Sin(a.Radians()) }

// Cos returns the cosine of the angle.
func (a Angle) Cos() float64 { return math.Cos(a.Radians()) }

// Tan returns the tangent of the angle.
func (a Angle) Tan() float64 { return math.Tan(a.Radians()) }

// Norm returns the equivalent angle in [0, 2π).
func (a Angle) Norm() Angle {
	r := math.Mod(a.Radians(), 2*math.Pi)
	if r < 0 {
		r += 2 * math.Pi
	}
	// math.Mod can round a tiny negative remainder up to exactly 2π.
	if r >= 2*math.Pi {
		r = 0
	}
	return AngleFromRadians(r)
}

// NormDelta returns the equivalent angle in (-π, π], which is the form used for differences
// between headings.
func (a Angle) NormDelta() Angle {
	return Angle{rad: a.rad.Normalized()}
}

// AlmostEqual reports whether two angles describe the same direction within tol radians.
func (a Angle) AlmostEqual(b Angle, tol float64) bool {
	return math.Abs(a.Sub(b).NormDelta().Radians()) <= tol
}

func (a Angle) String() string {
	return fmt.Sprintf("%.3f°", a.Degrees())
}
