package profile

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"go.viam.com/motionkit/utils"
)

const (
	// DefaultResolution is the default spacing between velocity envelope samples.
	DefaultResolution = 0.25
	// DefaultMinSamples is the fewest sample intervals used for any path length.
	DefaultMinSamples = 100
	// DefaultTolerance is the default tolerance for comparing boundary velocities and merging pieces.
	DefaultTolerance = 1e-6
)

// Limit is a non-negative limit expressed as a function of position along the path.
type Limit func(s float64) float64

// Options tunes GeneratePathConstrained. Zero fields take their defaults.
type Options struct {
	// Resolution is the target spacing between envelope samples.
	Resolution float64 `json:"resolution"`
	// MinSamples is the minimum number of sample intervals.
	MinSamples int `json:"min_samples"`
	// Tolerance bounds velocity comparisons and merging of constant-acceleration pieces.
	Tolerance float64 `json:"tolerance"`
}

// DefaultOptions returns the options used when none are supplied.
func DefaultOptions() Options {
	return Options{Resolution: DefaultResolution, MinSamples: DefaultMinSamples, Tolerance: DefaultTolerance}
}

func (o Options) withDefaults() Options {
	if o.Resolution <= 0 {
		o.Resolution = DefaultResolution
	}
	if o.MinSamples <= 0 {
		o.MinSamples = DefaultMinSamples
	}
	if o.Tolerance <= 0 {
		o.Tolerance = DefaultTolerance
	}
	return o
}

// GeneratePathConstrained builds a profile along a path of the given length from velocity v0 to
// vf, respecting a position-dependent velocity limit and acceleration limit. The resulting
// profile's positions run from 0 to length.
//
// The limits are sampled at a fixed resolution. A forward pass bounds how fast the motion can
// be given how fast it could accelerate, and a backward pass bounds it by how soon it must
// brake; the velocity envelope is the pointwise minimum of both passes and the limit.
func GeneratePathConstrained(length, v0, vf float64, vLimit, aLimit Limit, opts Options) (*MotionProfile, error) {
	opts = opts.withDefaults()
	if !(length > 0) {
		return nil, newProfileError(NonPositiveLength, "path length %v", length)
	}
	if v0 < 0 || vf < 0 {
		return nil, newProfileError(InfeasibleBoundary, "boundary velocities (%v, %v) must be non-negative", v0, vf)
	}

	intervals := int(math.Ceil(length / opts.Resolution))
	if intervals < opts.MinSamples {
		intervals = opts.MinSamples
	}
	positions := floats.Span(make([]float64, intervals+1), 0, length)
	ds := length / float64(intervals)

	velLimits := make([]float64, len(positions))
	accelLimits := make([]float64, len(positions))
	for i, s := range positions {
		velLimits[i] = vLimit(s)
		if !(velLimits[i] > 0) {
			return nil, newProfileError(NonPositiveLimit, "velocity limit %v at s=%.4f", velLimits[i], s)
		}
		accelLimits[i] = aLimit(s)
		if !(accelLimits[i] > 0) {
			return nil, newProfileError(InvalidConstraint, "acceleration limit %v at s=%.4f", accelLimits[i], s)
		}
	}
	if v0 > velLimits[0]+opts.Tolerance {
		return nil, newProfileError(InfeasibleBoundary, "start velocity %v exceeds limit %v", v0, velLimits[0])
	}
	if vf > velLimits[intervals]+opts.Tolerance {
		return nil, newProfileError(InfeasibleBoundary, "end velocity %v exceeds limit %v", vf, velLimits[intervals])
	}

	// interval i spans [positions[i], positions[i+1]] and takes the tighter of its endpoint limits
	accel := func(i int) float64 { return math.Min(accelLimits[i], accelLimits[i+1]) }

	forward := make([]float64, len(positions))
	forward[0] = math.Min(v0, velLimits[0])
	for i := 1; i <= intervals; i++ {
		reachable := math.Sqrt(forward[i-1]*forward[i-1] + 2*accel(i-1)*ds)
		forward[i] = math.Min(velLimits[i], reachable)
	}
	backward := make([]float64, len(positions))
	backward[intervals] = math.Min(vf, velLimits[intervals])
	for i := intervals - 1; i >= 0; i-- {
		stoppable := math.Sqrt(backward[i+1]*backward[i+1] + 2*accel(i)*ds)
		backward[i] = math.Min(velLimits[i], stoppable)
	}

	envelope := make([]float64, len(positions))
	for i := range envelope {
		envelope[i] = math.Min(forward[i], backward[i])
	}
	if envelope[0] < v0-opts.Tolerance {
		return nil, newProfileError(InfeasibleBoundary,
			"cannot brake from start velocity %v in time; at most %v is allowed", v0, envelope[0])
	}
	if envelope[intervals] < vf-opts.Tolerance {
		return nil, newProfileError(InfeasibleBoundary,
			"cannot reach end velocity %v; at most %v is reachable", vf, envelope[intervals])
	}

	return integrateEnvelope(envelope, ds, opts.Tolerance)
}

// piece is one envelope interval expressed as constant acceleration over a duration.
type piece struct {
	v0, v1   float64
	accel    float64
	duration float64
}

func envelopePiece(v0, v1, ds float64) piece {
	return piece{
		v0:       v0,
		v1:       v1,
		accel:    (v1*v1 - v0*v0) / (2 * ds),
		duration: 2 * ds / (v0 + v1),
	}
}

// integrateEnvelope turns sampled velocities into constant-acceleration segments, merging
// consecutive intervals whose accelerations agree within tol. Each segment starts at the end
// state of the one before it so the profile is continuous by construction.
func integrateEnvelope(envelope []float64, ds, tol float64) (*MotionProfile, error) {
	var merged []piece
	for i := 0; i+1 < len(envelope); i++ {
		if envelope[i]+envelope[i+1] <= 0 {
			return nil, newProfileError(InfeasibleBoundary, "motion stalls at sample %d", i)
		}
		p := envelopePiece(envelope[i], envelope[i+1], ds)
		if n := len(merged); n > 0 && utils.Float64RelativelyEqual(merged[n-1].accel, p.accel, tol) {
			last := &merged[n-1]
			last.v1 = p.v1
			last.duration += p.duration
			last.accel = (last.v1 - last.v0) / last.duration
			continue
		}
		merged = append(merged, p)
	}

	segments := make([]MotionSegment, 0, len(merged))
	state := MotionState{V: envelope[0]}
	for _, p := range merged {
		state.A = p.accel
		segments = append(segments, MotionSegment{Start: state, Duration: p.duration})
		state = state.Get(p.duration)
	}
	return newMotionProfile(segments), nil
}
