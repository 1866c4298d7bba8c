package spatialmath

import "fmt"

// Pose2d is a rigid-body configuration in the plane: a position and a heading.
type Pose2d struct {
	Position Vector2d
	Heading  Angle
}

// NewPose2d returns the pose at (x, y) facing heading.
func NewPose2d(x, y float64, heading Angle) Pose2d {
	return Pose2d{Position: Vector2d{X: x, Y: y}, Heading: heading}
}

// Vec returns the position of the pose.
func (p Pose2d) Vec() Vector2d { return p.Position }

// HeadingVec returns the unit vector the pose faces.
func (p Pose2d) HeadingVec() Vector2d { return Polar(1, p.Heading) }

// Add returns the componentwise sum of two poses.
func (p Pose2d) Add(o Pose2d) Pose2d {
	return Pose2d{Position: p.Position.Add(o.Position), Heading: p.Heading.Add(o.Heading)}
}

// Sub returns the componentwise difference of two poses.
func (p Pose2d) Sub(o Pose2d) Pose2d {
	return Pose2d{Position: p.Position.Sub(o.Position), Heading: p.Heading.Sub(o.Heading)}
}

// Mul scales both position and heading by k. Used for pose derivatives.
func (p Pose2d) Mul(k float64) Pose2d {
	return Pose2d{Position: p.Position.Mul(k), Heading: p.Heading.Scale(k)}
}

// AlmostEqual reports whether two poses match within tol in position and heading.
func (p Pose2d) AlmostEqual(o Pose2d, tol float64) bool {
	return p.Position.AlmostEqual(o.Position, tol) && p.Heading.AlmostEqual(o.Heading, tol)
}

func (p Pose2d) String() string {
	return fmt.Sprintf("(%.3f, %.3f, %s)", p.Position.X, p.Position.Y, p.Heading)
}
