package spatialmath

import (
	"math"
	"testing"

	"go.viam.com/test"
)

func TestVectorAlgebra(t *testing.T) {
	v := NewVector2d(3, 4)
	w := NewVector2d(1, -2)

	test.That(t, v.Add(w), test.ShouldResemble, NewVector2d(4, 2))
	test.That(t, v.Sub(w), test.ShouldResemble, NewVector2d(2, 6))
	test.That(t, v.Mul(2), test.ShouldResemble, NewVector2d(6, 8))
	test.That(t, v.Div(2), test.ShouldResemble, NewVector2d(1.5, 2))
	test.That(t, v.Neg(), test.ShouldResemble, NewVector2d(-3, -4))
	test.That(t, v.Dot(w), test.ShouldAlmostEqual, -5)
	test.That(t, v.Cross(w), test.ShouldAlmostEqual, -10)
	test.That(t, v.Norm(), test.ShouldAlmostEqual, 5)
	test.That(t, v.Normalize().Norm(), test.ShouldAlmostEqual, 1)
	test.That(t, Vector2d{}.Normalize(), test.ShouldResemble, Vector2d{})
	test.That(t, v.DistTo(w), test.ShouldAlmostEqual, math.Sqrt(40))
	test.That(t, v.String(), test.ShouldEqual, "(3.000, 4.000)")
}

func TestVectorAngles(t *testing.T) {
	test.That(t, NewVector2d(0, 2).Angle().Degrees(), test.ShouldAlmostEqual, 90)
	test.That(t, NewVector2d(-1, 0).Angle().Degrees(), test.ShouldAlmostEqual, 180)

	between := NewVector2d(1, 0).AngleBetween(NewVector2d(1, 1))
	test.That(t, between.Degrees(), test.ShouldAlmostEqual, 45)
	test.That(t, NewVector2d(1, 1).AngleBetween(NewVector2d(2, 2)).Radians(), test.ShouldAlmostEqual, 0)

	rot := NewVector2d(1, 0).Rotated(AngleFromDegrees(90))
	test.That(t, rot.AlmostEqual(NewVector2d(0, 1), 1e-12), test.ShouldBeTrue)

	p := Polar(2, AngleFromDegrees(60))
	test.That(t, p.X, test.ShouldAlmostEqual, 1)
	test.That(t, p.Y, test.ShouldAlmostEqual, math.Sqrt(3))

	proj := NewVector2d(2, 3).ProjectOnto(NewVector2d(4, 0))
	test.That(t, proj.AlmostEqual(NewVector2d(2, 0), 1e-12), test.ShouldBeTrue)
}

func TestPose(t *testing.T) {
	p := NewPose2d(1, 2, AngleFromDegrees(90))
	test.That(t, p.Vec(), test.ShouldResemble, NewVector2d(1, 2))
	test.That(t, p.HeadingVec().AlmostEqual(NewVector2d(0, 1), 1e-12), test.ShouldBeTrue)

	q := NewPose2d(0.5, 0.5, AngleFromDegrees(45))
	sum := p.Add(q)
	test.That(t, sum.AlmostEqual(NewPose2d(1.5, 2.5, AngleFromDegrees(135)), 1e-12), test.ShouldBeTrue)
	test.That(t, sum.Sub(q).AlmostEqual(p, 1e-12), test.ShouldBeTrue)
	test.That(t, q.Mul(2).AlmostEqual(NewPose2d(1, 1, AngleFromDegrees(90)), 1e-12), test.ShouldBeTrue)
	test.That(t, p.String(), test.ShouldEqual, "(1.000, 2.000, 90.000°)")
}
