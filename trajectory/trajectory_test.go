package trajectory

import (
	"math"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/motionkit/logging"
	"go.viam.com/motionkit/path"
	"go.viam.com/motionkit/profile"
	"go.viam.com/motionkit/spatialmath"
)

func straightPath(t *testing.T, length float64) *path.Path {
	t.Helper()
	p, err := path.NewBuilder(spatialmath.NewPose2d(0, 0, spatialmath.Angle{})).Forward(length).Build()
	test.That(t, err, test.ShouldBeNil)
	return p
}

func hookPath(t *testing.T) *path.Path {
	t.Helper()
	p, err := path.NewBuilder(spatialmath.NewPose2d(0, 0, spatialmath.Angle{})).
		SplineTo(spatialmath.NewVector2d(30, 0), spatialmath.AngleFromDegrees(160)).
		Build()
	test.That(t, err, test.ShouldBeNil)
	return p
}

func TestGenericConstraints(t *testing.T) {
	c := NewGenericConstraints()
	test.That(t, c.Validate(), test.ShouldBeNil)

	vc := c.VelocityConstraint()
	test.That(t, vc.MaxVelocity(0, spatialmath.Pose2d{}, 0), test.ShouldEqual, 30.0)
	test.That(t, vc.MaxVelocity(0, spatialmath.Pose2d{}, 1), test.ShouldAlmostEqual, math.Pi)
	test.That(t, vc.MaxVelocity(0, spatialmath.Pose2d{}, -0.5), test.ShouldAlmostEqual, 2*math.Pi)
	test.That(t, c.AccelerationConstraint().MaxAcceleration(3, spatialmath.Pose2d{}, 2), test.ShouldEqual, 30.0)

	c.MaxLateralAccel = 4
	// sqrt(4 / 1) is tighter than pi / 1
	test.That(t, c.VelocityConstraint().MaxVelocity(0, spatialmath.Pose2d{}, 1), test.ShouldAlmostEqual, 2.0)

	for _, bad := range []GenericConstraints{
		{MaxVel: 0, MaxAccel: 1, MaxAngVel: DefaultMaxAngVel},
		{MaxVel: 1, MaxAccel: -1, MaxAngVel: DefaultMaxAngVel},
		{MaxVel: 1, MaxAccel: 1},
		{MaxVel: 1, MaxAccel: 1, MaxAngVel: DefaultMaxAngVel, MaxLateralAccel: -2},
	} {
		test.That(t, bad.Validate(), test.ShouldNotBeNil)
	}
}

func TestMinConstraints(t *testing.T) {
	vc := MinVelocity(TranslationalVelocity(10), VelocityConstraintFunc(
		func(s float64, _ spatialmath.Pose2d, _ float64) float64 { return s },
	))
	test.That(t, vc.MaxVelocity(4, spatialmath.Pose2d{}, 0), test.ShouldEqual, 4.0)
	test.That(t, vc.MaxVelocity(40, spatialmath.Pose2d{}, 0), test.ShouldEqual, 10.0)

	ac := MinAcceleration(TranslationalAcceleration(5), TranslationalAcceleration(3))
	test.That(t, ac.MaxAcceleration(0, spatialmath.Pose2d{}, 0), test.ShouldEqual, 3.0)
}

func TestStraightTrajectory(t *testing.T) {
	c := NewGenericConstraints()
	traj, err := Generate(straightPath(t, 60), c.VelocityConstraint(), c.AccelerationConstraint())
	test.That(t, err, test.ShouldBeNil)

	test.That(t, traj.Duration(), test.ShouldAlmostEqual, 3.0, 1e-6)
	test.That(t, traj.Start().Speed, test.ShouldEqual, 0.0)
	test.That(t, traj.End().Pose.AlmostEqual(spatialmath.NewPose2d(60, 0, spatialmath.Angle{}), 1e-6), test.ShouldBeTrue)
	test.That(t, traj.End().Speed, test.ShouldAlmostEqual, 0.0, 1e-6)

	mid := traj.Sample(1.5)
	test.That(t, mid.Distance, test.ShouldAlmostEqual, 30.0, 1e-6)
	test.That(t, mid.Velocity.X, test.ShouldAlmostEqual, 30.0, 1e-6)
	test.That(t, mid.Velocity.Y, test.ShouldAlmostEqual, 0.0, 1e-9)
	test.That(t, mid.AngularVelocity, test.ShouldEqual, 0.0)

	accelerating := traj.Sample(0.5)
	test.That(t, accelerating.Acceleration.X, test.ShouldAlmostEqual, 30.0, 1e-6)

	// sampling is clamped to the trajectory's span
	test.That(t, traj.Sample(-3), test.ShouldResemble, traj.Start())
	test.That(t, traj.Sample(99), test.ShouldResemble, traj.End())
}

func TestCurvedTrajectory(t *testing.T) {
	c := NewGenericConstraints()
	p := hookPath(t)
	traj, err := Generate(p, c.VelocityConstraint(), c.AccelerationConstraint())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, traj.Path(), test.ShouldEqual, p)
	test.That(t, traj.Profile().End().X, test.ShouldAlmostEqual, p.Length(), 1e-4)

	end := traj.End()
	test.That(t, end.Pose.Position.AlmostEqual(spatialmath.NewVector2d(30, 0), 1e-4), test.ShouldBeTrue)
	test.That(t, end.Pose.Heading.AlmostEqual(spatialmath.AngleFromDegrees(160), 1e-3), test.ShouldBeTrue)

	prevDistance := -1.0
	for _, sample := range traj.SampleAll(0.01) {
		curvature := p.Curvature(sample.Distance)
		test.That(t, sample.Speed, test.ShouldBeLessThanOrEqualTo, c.MaxVel+1e-6)
		test.That(t, sample.Speed, test.ShouldBeGreaterThanOrEqualTo, -1e-9)
		test.That(t, sample.AngularVelocity, test.ShouldAlmostEqual, curvature*sample.Speed, 1e-9)

		tangent := sample.Pose.HeadingVec()
		normal := tangent.Rotated(spatialmath.AngleFromDegrees(90))
		test.That(t, sample.Velocity.Dot(tangent), test.ShouldAlmostEqual, sample.Speed, 1e-9)
		test.That(t, sample.Acceleration.Dot(normal), test.ShouldAlmostEqual, curvature*sample.Speed*sample.Speed, 1e-6)
		test.That(t, math.Abs(sample.Acceleration.Dot(tangent)), test.ShouldBeLessThanOrEqualTo, c.MaxAccel+1e-6)

		test.That(t, sample.Distance, test.ShouldBeGreaterThanOrEqualTo, prevDistance)
		prevDistance = sample.Distance
	}

	// the velocity limit holds exactly at the generator's sample positions
	vc := c.VelocityConstraint()
	intervals := int(math.Ceil(p.Length() / profile.DefaultResolution))
	if intervals < profile.DefaultMinSamples {
		intervals = profile.DefaultMinSamples
	}
	for i := 0; i <= intervals; i++ {
		s := p.Length() * float64(i) / float64(intervals)
		limit := vc.MaxVelocity(s, p.Pose(s), p.Curvature(s))
		test.That(t, traj.Profile().GetByPosition(s).V, test.ShouldBeLessThanOrEqualTo, limit+1e-6)
	}
}

func TestSampleAll(t *testing.T) {
	c := NewGenericConstraints()
	traj, err := Generate(straightPath(t, 60), c.VelocityConstraint(), c.AccelerationConstraint())
	test.That(t, err, test.ShouldBeNil)

	samples := traj.SampleAll(0.5)
	test.That(t, samples[0].Time, test.ShouldEqual, 0.0)
	test.That(t, samples[len(samples)-1].Time, test.ShouldEqual, traj.Duration())
	test.That(t, samples[1].Time, test.ShouldEqual, 0.5)

	test.That(t, len(traj.SampleAll(0)), test.ShouldEqual, 2)
}

func TestConcurrentSampling(t *testing.T) {
	c := NewGenericConstraints()
	traj, err := Generate(hookPath(t), c.VelocityConstraint(), c.AccelerationConstraint())
	test.That(t, err, test.ShouldBeNil)
	want := traj.Sample(0.7)

	var wg sync.WaitGroup
	results := make([]Sample, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = traj.Sample(0.7)
		}(i)
	}
	wg.Wait()
	for _, got := range results {
		test.That(t, got, test.ShouldResemble, want)
	}
}

func TestGenerateOptions(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	c := NewGenericConstraints()

	traj, err := Generate(straightPath(t, 60), c.VelocityConstraint(), c.AccelerationConstraint(),
		WithBoundaryVelocities(10, 5),
		WithProfileOptions(profile.Options{Resolution: 0.1}),
		WithLogger(logger),
	)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, traj.Start().Speed, test.ShouldAlmostEqual, 10.0)
	test.That(t, traj.End().Speed, test.ShouldAlmostEqual, 5.0, 1e-6)
	test.That(t, logs.FilterMessage("generated trajectory").Len(), test.ShouldEqual, 1)

	_, err = Generate(straightPath(t, 1), c.VelocityConstraint(), c.AccelerationConstraint(),
		WithBoundaryVelocities(0, 29),
		WithLogger(logger),
	)
	var perr *profile.ProfileError
	test.That(t, errors.As(err, &perr), test.ShouldBeTrue)
	test.That(t, perr.Kind, test.ShouldEqual, profile.InfeasibleBoundary)
	test.That(t, logs.FilterMessage("trajectory generation failed").Len(), test.ShouldEqual, 1)
}

func TestGenerateLogsToGlobalLogger(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	prev := logging.Global()
	logging.ReplaceGlobal(logger)
	defer logging.ReplaceGlobal(prev)

	c := NewGenericConstraints()
	_, err := Generate(straightPath(t, 20), c.VelocityConstraint(), c.AccelerationConstraint())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, logs.FilterMessage("generated trajectory").Len(), test.ShouldEqual, 1)
}
