package path

import (
	"go.viam.com/motionkit/spatialmath"
)

// Builder accumulates segments starting from a pose. The first error encountered is kept and
// returned from Build; later calls are ignored.
type Builder struct {
	start     spatialmath.Pose2d
	current   spatialmath.Pose2d
	tolerance float64
	segments  []Segment
	err       error
}

// NewBuilder starts a path at start, whose heading is the initial tangent.
func NewBuilder(start spatialmath.Pose2d) *Builder {
	return &Builder{start: start, current: start, tolerance: DefaultHeadingTolerance}
}

// WithTolerance overrides the heading continuity tolerance used by Build.
func (b *Builder) WithTolerance(tol float64) *Builder {
	b.tolerance = tol
	return b
}

func (b *Builder) add(seg Segment, err error) *Builder {
	if b.err != nil {
		return b
	}
	if err != nil {
		if gerr, ok := err.(*GeometryError); ok {
			gerr.Segment = len(b.segments)
		}
		b.err = err
		return b
	}
	b.segments = append(b.segments, seg)
	b.current = spatialmath.Pose2d{Position: seg.Position(seg.Length()), Heading: seg.Tangent(seg.Length())}
	return b
}

// LineTo adds a straight segment to end. The segment must continue along the current tangent.
func (b *Builder) LineTo(end spatialmath.Vector2d) *Builder {
	line, err := NewLine(b.current.Position, end)
	if err != nil {
		return b.add(nil, err)
	}
	return b.add(line, nil)
}

// Forward adds a straight segment of length d along the current tangent.
func (b *Builder) Forward(d float64) *Builder {
	return b.LineTo(b.current.Position.Add(spatialmath.Polar(d, b.current.Heading)))
}

// SplineTo adds a quintic spline to end, arriving with tangent heading endTangent.
func (b *Builder) SplineTo(end spatialmath.Vector2d, endTangent spatialmath.Angle) *Builder {
	sp, err := NewSplineBetween(b.current, end, endTangent)
	if err != nil {
		return b.add(nil, err)
	}
	return b.add(sp, nil)
}

// Build returns the accumulated path. The first segment must leave along the start heading.
func (b *Builder) Build() (*Path, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.segments) > 0 {
		first := b.segments[0].Tangent(0)
		if !first.AlmostEqual(b.start.Heading, b.tolerance) {
			return nil, NewHeadingDiscontinuityError(0, b.start.Heading, first, b.tolerance)
		}
	}
	return NewWithTolerance(b.tolerance, b.segments...)
}
