package trajectory

import (
	"math"

	"go.viam.com/motionkit/logging"
	"go.viam.com/motionkit/path"
	"go.viam.com/motionkit/profile"
	"go.viam.com/motionkit/spatialmath"
)

// Option configures Generate.
type Option func(*generateOptions)

type generateOptions struct {
	v0, vf      float64
	profileOpts profile.Options
	logger      logging.Logger
}

// WithBoundaryVelocities sets the speed at the start and end of the path. Both default to zero.
func WithBoundaryVelocities(v0, vf float64) Option {
	return func(o *generateOptions) {
		o.v0, o.vf = v0, vf
	}
}

// WithProfileOptions overrides the sampling resolution and tolerance of the profile generator.
func WithProfileOptions(opts profile.Options) Option {
	return func(o *generateOptions) {
		o.profileOpts = opts
	}
}

// WithLogger reports generation details to logger instead of the global logger.
func WithLogger(logger logging.Logger) Option {
	return func(o *generateOptions) {
		o.logger = logger
	}
}

// Generate profiles motion along p under the given constraints and pairs the result with p.
// It returns the *profile.ProfileError from the generator when the constraints cannot be met.
func Generate(p *path.Path, vc VelocityConstraint, ac AccelerationConstraint, opts ...Option) (*Trajectory, error) {
	o := generateOptions{profileOpts: profile.DefaultOptions()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.Global()
	}

	vLimit := func(s float64) float64 {
		return vc.MaxVelocity(s, p.Pose(s), p.Curvature(s))
	}
	aLimit := func(s float64) float64 {
		return ac.MaxAcceleration(s, p.Pose(s), p.Curvature(s))
	}
	prof, err := profile.GeneratePathConstrained(p.Length(), o.v0, o.vf, vLimit, aLimit, o.profileOpts)
	if err != nil {
		o.logger.Warnw("trajectory generation failed", "length", p.Length(), "error", err)
		return nil, err
	}
	o.logger.Debugw("generated trajectory",
		"length", p.Length(),
		"duration", prof.Duration(),
		"segments", len(prof.Segments()),
	)
	return New(p, prof), nil
}

// Sample is the state of a trajectory at one instant.
type Sample struct {
	Time float64
	// Distance is the arc length travelled along the path.
	Distance        float64
	Pose            spatialmath.Pose2d
	Velocity        spatialmath.Vector2d
	Acceleration    spatialmath.Vector2d
	Speed           float64
	AngularVelocity float64
}

// Trajectory is an immutable path and profile pairing. It is safe for concurrent use.
type Trajectory struct {
	path    *path.Path
	profile *profile.MotionProfile
}

// New pairs a path with a profile whose positions are arc lengths along it.
func New(p *path.Path, prof *profile.MotionProfile) *Trajectory {
	return &Trajectory{path: p, profile: prof}
}

// Path returns the underlying path.
func (t *Trajectory) Path() *path.Path { return t.path }

// Profile returns the underlying motion profile.
func (t *Trajectory) Profile() *profile.MotionProfile { return t.profile }

// Duration returns the total time in seconds.
func (t *Trajectory) Duration() float64 { return t.profile.Duration() }

// Start returns the sample at time zero.
func (t *Trajectory) Start() Sample { return t.Sample(0) }

// End returns the sample at the end of the trajectory.
func (t *Trajectory) End() Sample { return t.Sample(t.Duration()) }

// Sample evaluates the trajectory at time tm, clamped into [0, Duration()].
func (t *Trajectory) Sample(tm float64) Sample {
	tm = math.Max(0, math.Min(tm, t.Duration()))
	state := t.profile.Get(tm)
	s := state.X

	pose := t.path.Pose(s)
	curvature := t.path.Curvature(s)
	tangent := pose.HeadingVec()
	normal := tangent.Rotated(spatialmath.AngleFromDegrees(90))

	return Sample{
		Time:            tm,
		Distance:        s,
		Pose:            pose,
		Velocity:        tangent.Mul(state.V),
		Acceleration:    tangent.Mul(state.A).Add(normal.Mul(curvature * state.V * state.V)),
		Speed:           state.V,
		AngularVelocity: curvature * state.V,
	}
}

// SampleAll samples the trajectory every dt seconds, always including the final instant.
func (t *Trajectory) SampleAll(dt float64) []Sample {
	duration := t.Duration()
	if dt <= 0 || duration == 0 {
		return []Sample{t.Start(), t.End()}
	}
	n := int(math.Ceil(duration / dt))
	samples := make([]Sample, 0, n+1)
	for i := 0; i < n; i++ {
		samples = append(samples, t.Sample(float64(i)*dt))
	}
	return append(samples, t.End())
}
