package profile

import (
	"math"

	"go.viam.com/motionkit/utils"
)

// GenerateSimple builds the time-optimal trapezoidal (or triangular) profile from start to goal
// under constant velocity and acceleration limits. Only the X and V components of start and goal
// are used. A goal behind the start produces a mirrored profile with non-positive velocity.
func GenerateSimple(start, goal MotionState, maxVel, maxAccel float64) (*MotionProfile, error) {
	if !(maxVel > 0) {
		return nil, newProfileError(InvalidConstraint, "max velocity %v must be positive", maxVel)
	}
	if !(maxAccel > 0) {
		return nil, newProfileError(InvalidConstraint, "max acceleration %v must be positive", maxAccel)
	}
	start.A, goal.A = 0, 0

	if utils.Float64AlmostEqual(goal.X, start.X, utils.Epsilon) {
		if math.Abs(start.V) > maxVel+utils.Epsilon || math.Abs(goal.V) > maxVel+utils.Epsilon {
			return nil, newProfileError(InfeasibleBoundary,
				"boundary velocities (%v, %v) exceed max velocity %v", start.V, goal.V, maxVel)
		}
		if !utils.Float64AlmostEqual(start.V, goal.V, utils.Epsilon) {
			return nil, newProfileError(InfeasibleBoundary,
				"changing speed from %v to %v needs distance but start and goal coincide", start.V, goal.V)
		}
		return newMotionProfile([]MotionSegment{{Start: start}}), nil
	}
	if goal.X < start.X {
		flipped, err := GenerateSimple(start.Flipped(), goal.Flipped(), maxVel, maxAccel)
		if err != nil {
			return nil, err
		}
		return flipped.Flipped(), nil
	}

	v0, vf, d := start.V, goal.V, goal.X-start.X
	if v0 < 0 || vf < 0 {
		return nil, newProfileError(InfeasibleBoundary,
			"boundary velocities (%v, %v) point away from the direction of travel", v0, vf)
	}
	if v0 > maxVel+utils.Epsilon || vf > maxVel+utils.Epsilon {
		return nil, newProfileError(InfeasibleBoundary,
			"boundary velocities (%v, %v) exceed max velocity %v", v0, vf, maxVel)
	}
	// the distance needed just to change speed from v0 to vf
	if needed := math.Abs(vf*vf-v0*v0) / (2 * maxAccel); needed > d+utils.Epsilon {
		return nil, newProfileError(InfeasibleBoundary,
			"changing speed from %v to %v needs %v but only %v is available", v0, vf, needed, d)
	}

	peak := math.Sqrt((2*maxAccel*d + v0*v0 + vf*vf) / 2)
	cruise := 0.0
	if peak > maxVel {
		peak = maxVel
		accelDist := (peak*peak - v0*v0) / (2 * maxAccel)
		decelDist := (peak*peak - vf*vf) / (2 * maxAccel)
		cruise = (d - accelDist - decelDist) / peak
	}
	accelTime := math.Max(0, (peak-v0)/maxAccel)
	decelTime := math.Max(0, (peak-vf)/maxAccel)

	segments := make([]MotionSegment, 0, 3)
	state := start
	appendPhase := func(accel, duration float64) {
		if duration <= 0 {
			return
		}
		state.A = accel
		segments = append(segments, MotionSegment{Start: state, Duration: duration})
		state = state.Get(duration)
	}
	appendPhase(maxAccel, accelTime)
	appendPhase(0, cruise)
	appendPhase(-maxAccel, decelTime)
	if len(segments) == 0 {
		segments = append(segments, MotionSegment{Start: start})
	}
	return newMotionProfile(segments), nil
}
