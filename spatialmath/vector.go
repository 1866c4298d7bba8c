package spatialmath

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"
)

// Vector2d is an immutable planar vector.
type Vector2d struct {
	X, Y float64
}

// NewVector2d returns the vector (x, y).
func NewVector2d(x, y float64) Vector2d {
	return Vector2d{X: x, Y: y}
}

// Polar returns the vector with magnitude r pointing along theta.
func Polar(r float64, theta Angle) Vector2d {
	return Vector2d{X: r * theta.Cos(), Y: r * theta.Sin()}
}

func (v Vector2d) r2() r2.Point { return r2.Point(v) }

// Add returns v+w.
func (v Vector2d) Add(w Vector2d) Vector2d { return Vector2d(v.r2().Add(w.r2())) }

// Sub returns v-w.
func (v Vector2d) Sub(w Vector2d) Vector2d { return Vector2d(v.r2().Sub(w.r2())) }

// Mul returns v scaled by k.
func (v Vector2d) Mul(k float64) Vector2d { return Vector2d(v.r2().Mul(k)) }

// Div returns v divided by k.
func (v Vector2d) Div(k float64) Vector2d { return Vector2d{X: v.X / k, Y: v.Y / k} }

// Neg returns -v.
func (v Vector2d) Neg() Vector2d { return Vector2d{X: -v.X, Y: -v.Y} }

// Dot returns the dot product of v and w.
func (v Vector2d) Dot(w Vector2d) float64 { return v.r2().Dot(w.r2()) }

// Cross returns the z component of the cross product of v and w.
func (v Vector2d) Cross(w Vector2d) float64 { return v.r2().Cross(w.r2()) }

// Norm returns the magnitude of v.
func (v Vector2d) Norm() float64 { return v.r2().Norm() }

// Normalize returns the unit vector along v, or the zero vector if v is zero.
func (v Vector2d) Normalize() Vector2d { return Vector2d(v.r2().Normalize()) }

// DistTo returns the distance between v and w.
func (v Vector2d) DistTo(w Vector2d) float64 { return v.Sub(w).Norm() }

// ProjectOnto returns the projection of v onto w.
func (v Vector2d) ProjectOnto(w Vector2d) Vector2d {
	return w.Mul(v.Dot(w) / w.Dot(w))
}

// Rotated returns v rotated counterclockwise by angle.
func (v Vector2d) Rotated(angle Angle) Vector2d {
	c, s := angle.Cos(), angle.Sin()
	return Vector2d{X: v.X*c - v.Y*s, Y: v.X*s + v.Y*c}
}

// Angle returns the direction of v.
func (v Vector2d) Angle() Angle {
	return AngleFromRadians(math.Atan2(v.Y, v.X))
}

// AngleBetween returns the unsigned angle between v and w.
func (v Vector2d) AngleBetween(w Vector2d) Angle {
	c := v.Dot(w) / (v.Norm() * w.Norm())
	// guard acos against rounding just outside [-1, 1]
	return AngleFromRadians(math.Acos(math.Max(-1, math.Min(1, c))))
}

// AlmostEqual reports whether both components agree within tol.
func (v Vector2d) AlmostEqual(w Vector2d, tol float64) bool {
	return math.Abs(v.X-w.X) <= tol && math.Abs(v.Y-w.Y) <= tol
}

func (v Vector2d) String() string {
	return fmt.Sprintf("(%.3f, %.3f)", v.X, v.Y)
}
