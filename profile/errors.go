package profile

import "fmt"

// ProfileErrorKind classifies why a profile could not be generated.
type ProfileErrorKind int

const (
	// InvalidConstraint means a velocity or acceleration limit is not positive.
	InvalidConstraint ProfileErrorKind = iota
	// InfeasibleBoundary means the boundary velocities cannot be met within the limits and distance.
	InfeasibleBoundary
	// NonPositiveLimit means the velocity limit is not positive somewhere along the path.
	NonPositiveLimit
	// NonPositiveLength means the path to profile has no length.
	NonPositiveLength
	// Discontinuous means supplied segments do not join up.
	Discontinuous
)

func (k ProfileErrorKind) String() string {
	switch k {
	case InvalidConstraint:
		return "invalid constraint"
	case InfeasibleBoundary:
		return "infeasible boundary conditions"
	case NonPositiveLimit:
		return "non-positive velocity limit"
	case NonPositiveLength:
		return "non-positive length"
	case Discontinuous:
		return "discontinuous segments"
	default:
		return fmt.Sprintf("ProfileErrorKind(%d)", int(k))
	}
}

// A ProfileError is returned synchronously from a single planning call that cannot be satisfied.
// Nothing is clamped to make an infeasible request succeed; the caller decides whether to retry
// with relaxed limits.
type ProfileError struct {
	Kind   ProfileErrorKind
	Detail string
}

func (e *ProfileError) Error() string {
	if e.Detail == "" {
		return "cannot generate profile: " + e.Kind.String()
	}
	return fmt.Sprintf("cannot generate profile: %s: %s", e.Kind, e.Detail)
}

func newProfileError(kind ProfileErrorKind, format string, args ...interface{}) error {
	return &ProfileError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}
