package path

import (
	"sort"

	"github.com/samber/lo"

	"go.viam.com/motionkit/spatialmath"
)

// DefaultHeadingTolerance is the largest tangent heading jump, in radians, allowed at a join.
const DefaultHeadingTolerance = 1e-3

// Path is an immutable, G1-continuous chain of segments parameterized by total arc length.
type Path struct {
	segments []Segment
	// offsets[i] is the arc length at which segment i begins; offsets[len(segments)] is the length.
	offsets []float64
}

// New composes segments into a path using DefaultHeadingTolerance.
func New(segments ...Segment) (*Path, error) {
	return NewWithTolerance(DefaultHeadingTolerance, segments...)
}

// NewWithTolerance composes segments into a path, rejecting non-positive segment lengths and
// joins whose tangent headings differ by more than tol radians.
func NewWithTolerance(tol float64, segments ...Segment) (*Path, error) {
	if len(segments) == 0 {
		return nil, NewNonPositiveLengthError(-1, 0)
	}
	lengths := lo.Map(segments, func(seg Segment, _ int) float64 { return seg.Length() })
	offsets := make([]float64, len(segments)+1)
	for i, l := range lengths {
		if !(l > 0) {
			return nil, NewNonPositiveLengthError(i, l)
		}
		offsets[i+1] = offsets[i] + l
	}
	for i := 1; i < len(segments); i++ {
		from := segments[i-1].Tangent(lengths[i-1])
		to := segments[i].Tangent(0)
		if !from.AlmostEqual(to, tol) {
			return nil, NewHeadingDiscontinuityError(i, from, to, tol)
		}
	}
	return &Path{segments: append([]Segment(nil), segments...), offsets: offsets}, nil
}

// Length returns the total arc length.
func (p *Path) Length() float64 {
	return p.offsets[len(p.segments)]
}

// Segments returns a copy of the path's segments.
func (p *Path) Segments() []Segment {
	return append([]Segment(nil), p.segments...)
}

// locate returns the segment containing arc length s and the arc length within it.
func (p *Path) locate(s float64) (Segment, float64) {
	s = clampArc(s, p.Length())
	// first offset strictly greater than s, minus one, is the owning segment
	i := sort.Search(len(p.segments), func(i int) bool { return p.offsets[i+1] > s })
	if i == len(p.segments) {
		i--
	}
	return p.segments[i], s - p.offsets[i]
}

// Position returns the point at arc length s.
func (p *Path) Position(s float64) spatialmath.Vector2d {
	seg, local := p.locate(s)
	return seg.Position(local)
}

// Tangent returns the direction of travel at arc length s.
func (p *Path) Tangent(s float64) spatialmath.Angle {
	seg, local := p.locate(s)
	return seg.Tangent(local)
}

// Curvature returns the signed curvature at arc length s.
func (p *Path) Curvature(s float64) float64 {
	seg, local := p.locate(s)
	return seg.Curvature(local)
}

// Pose returns the position and tangent heading at arc length s.
func (p *Path) Pose(s float64) spatialmath.Pose2d {
	seg, local := p.locate(s)
	return spatialmath.Pose2d{Position: seg.Position(local), Heading: seg.Tangent(local)}
}

// Start returns the pose at the beginning of the path.
func (p *Path) Start() spatialmath.Pose2d { return p.Pose(0) }

// End returns the pose at the end of the path.
func (p *Path) End() spatialmath.Pose2d { return p.Pose(p.Length()) }
