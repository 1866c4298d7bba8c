// Package path implements planar curve segments and their composition into arc-length
// parameterized paths.
package path

import (
	"go.viam.com/motionkit/spatialmath"
	"go.viam.com/motionkit/utils"
)

// A Segment is a curve parameterized by arc length over [0, Length()]. Arguments outside that
// range are clamped, so evaluation at the exact endpoints is always defined.
type Segment interface {
	Length() float64
	Position(s float64) spatialmath.Vector2d
	// Tangent returns the heading of the curve's direction of travel at s.
	Tangent(s float64) spatialmath.Angle
	// Curvature returns the signed curvature at s; positive turns counterclockwise.
	Curvature(s float64) float64
}

func clampArc(s, length float64) float64 {
	return utils.Clamp(s, 0, length)
}

// Line is a straight segment.
type Line struct {
	start, end spatialmath.Vector2d
	length     float64
	heading    spatialmath.Angle
}

// NewLine returns the segment from start to end. It fails with a GeometryError when the points
// coincide.
func NewLine(start, end spatialmath.Vector2d) (*Line, error) {
	length := start.DistTo(end)
	if length <= 0 {
		return nil, NewNonPositiveLengthError(0, length)
	}
	return &Line{start: start, end: end, length: length, heading: end.Sub(start).Angle()}, nil
}

// Length returns the length of the line.
func (l *Line) Length() float64 { return l.length }

// Position returns the point s along the line.
func (l *Line) Position(s float64) spatialmath.Vector2d {
	s = clampArc(s, l.length)
	return l.start.Add(l.end.Sub(l.start).Mul(s / l.length))
}

// Tangent returns the constant heading of the line.
func (l *Line) Tangent(float64) spatialmath.Angle { return l.heading }

// Curvature is always zero.
func (l *Line) Curvature(float64) float64 { return 0 }
