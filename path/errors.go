package path

import (
	"fmt"

	"go.viam.com/motionkit/spatialmath"
)

// GeometryErrorKind classifies why a path could not be constructed.
type GeometryErrorKind int

const (
	// NonPositiveLength means a segment, or the whole path, has no extent.
	NonPositiveLength GeometryErrorKind = iota
	// HeadingDiscontinuity means consecutive segments do not share a tangent heading at their join.
	HeadingDiscontinuity
	// DegenerateCurve means a curve stalls or doubles back, so its tangent is undefined somewhere.
	DegenerateCurve
)

func (k GeometryErrorKind) String() string {
	switch k {
	case NonPositiveLength:
		return "non-positive length"
	case HeadingDiscontinuity:
		return "heading discontinuity"
	case DegenerateCurve:
		return "degenerate curve"
	default:
		return fmt.Sprintf("GeometryErrorKind(%d)", int(k))
	}
}

// A GeometryError is returned when segments or paths cannot be built. It is never repaired
// silently; callers detect it with errors.As.
type GeometryError struct {
	Kind GeometryErrorKind
	// Segment is the index of the offending segment, or -1 for the path as a whole.
	Segment int
	Length  float64
	// From and To are the tangent headings on either side of a discontinuous join.
	From, To  spatialmath.Angle
	Tolerance float64
}

func (e *GeometryError) Error() string {
	switch e.Kind {
	case NonPositiveLength:
		if e.Segment < 0 {
			return fmt.Sprintf("path length must be positive, got %v", e.Length)
		}
		return fmt.Sprintf("segment %d length must be positive, got %v", e.Segment, e.Length)
	case HeadingDiscontinuity:
		return fmt.Sprintf("heading discontinuity before segment %d: %s -> %s exceeds tolerance %v rad",
			e.Segment, e.From, e.To, e.Tolerance)
	default:
		return fmt.Sprintf("segment %d: %s", e.Segment, e.Kind)
	}
}

// NewNonPositiveLengthError returns a GeometryError for a segment (or path when index is -1)
// whose length is not positive.
func NewNonPositiveLengthError(index int, length float64) error {
	return &GeometryError{Kind: NonPositiveLength, Segment: index, Length: length}
}

// NewHeadingDiscontinuityError returns a GeometryError for a join whose tangent headings differ
// by more than tol.
func NewHeadingDiscontinuityError(index int, from, to spatialmath.Angle, tol float64) error {
	return &GeometryError{Kind: HeadingDiscontinuity, Segment: index, From: from, To: to, Tolerance: tol}
}

func newDegenerateCurveError(index int) error {
	return &GeometryError{Kind: DegenerateCurve, Segment: index}
}
