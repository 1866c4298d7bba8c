package config

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/motionkit/path"
	"go.viam.com/motionkit/spatialmath"
	"go.viam.com/motionkit/utils"
)

// Segment types understood in a path config.
const (
	SegmentLine    = "line"
	SegmentForward = "forward"
	SegmentSpline  = "spline"
)

// PoseConfig is a pose with its heading in degrees.
type PoseConfig struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	HeadingDeg float64 `json:"heading_deg"`
}

// Pose converts to a spatialmath pose.
func (p PoseConfig) Pose() spatialmath.Pose2d {
	return spatialmath.NewPose2d(p.X, p.Y, spatialmath.AngleFromDegrees(p.HeadingDeg))
}

// SegmentConfig appends one segment: a line to (x, y), a line forward by distance, or a spline
// to (x, y) arriving at heading_deg.
type SegmentConfig struct {
	Type       string  `json:"type"`
	X          float64 `json:"x,omitempty"`
	Y          float64 `json:"y,omitempty"`
	HeadingDeg float64 `json:"heading_deg,omitempty"`
	Distance   float64 `json:"distance,omitempty"`
}

// PathConfig describes a path as a start pose and segments built in order.
type PathConfig struct {
	Start PoseConfig `json:"start"`
	// HeadingTolerance is the largest heading jump allowed at a join, in radians.
	HeadingTolerance float64         `json:"heading_tolerance,omitempty"`
	Segments         []SegmentConfig `json:"segments"`
}

// Validate checks segment types; geometry is checked when the path is built.
func (pc *PathConfig) Validate(p string) error {
	if len(pc.Segments) == 0 {
		return utils.NewConfigValidationFieldRequiredError(p, "segments")
	}
	for i, seg := range pc.Segments {
		switch seg.Type {
		case SegmentLine, SegmentSpline:
		case SegmentForward:
			if seg.Distance <= 0 {
				return utils.NewConfigValidationError(fmt.Sprintf("%s.segments.%d", p, i),
					errors.Errorf("forward distance must be positive, got %v", seg.Distance))
			}
		default:
			return utils.NewConfigValidationError(fmt.Sprintf("%s.segments.%d", p, i),
				errors.Errorf("unknown segment type %q, expected one of %v", seg.Type, SegmentTypes()))
		}
	}
	return nil
}

// SegmentTypes lists the supported segment types.
func SegmentTypes() []string {
	return []string{SegmentLine, SegmentForward, SegmentSpline}
}

// Build constructs the path, returning any *path.GeometryError from the builder.
func (pc *PathConfig) Build() (*path.Path, error) {
	b := path.NewBuilder(pc.Start.Pose())
	if pc.HeadingTolerance > 0 {
		b = b.WithTolerance(pc.HeadingTolerance)
	}
	for _, seg := range pc.Segments {
		switch seg.Type {
		case SegmentLine:
			b = b.LineTo(spatialmath.NewVector2d(seg.X, seg.Y))
		case SegmentForward:
			b = b.Forward(seg.Distance)
		case SegmentSpline:
			b = b.SplineTo(spatialmath.NewVector2d(seg.X, seg.Y), spatialmath.AngleFromDegrees(seg.HeadingDeg))
		default:
			return nil, errors.Errorf("unknown segment type %q", seg.Type)
		}
	}
	return b.Build()
}

// Waypoints returns the end point of every segment that names one.
func (pc *PathConfig) Waypoints() []spatialmath.Vector2d {
	withPoints := lo.Filter(pc.Segments, func(seg SegmentConfig, _ int) bool { return seg.Type != SegmentForward })
	return lo.Map(withPoints, func(seg SegmentConfig, _ int) spatialmath.Vector2d {
		return spatialmath.NewVector2d(seg.X, seg.Y)
	})
}
