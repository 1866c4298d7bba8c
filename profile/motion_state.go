// Package profile generates time-parameterized, kinematically feasible 1-D motion profiles.
package profile

import (
	"fmt"

	"go.viam.com/motionkit/utils"
)

// MotionState is position, velocity and acceleration at one instant.
type MotionState struct {
	X float64
	V float64
	A float64
}

// Get propagates the state forward by t seconds assuming constant acceleration.
func (m MotionState) Get(t float64) MotionState {
	return MotionState{
		X: m.X + m.V*t + 0.5*m.A*t*t,
		V: m.V + m.A*t,
		A: m.A,
	}
}

// Flipped negates every component, mirroring the motion about the origin.
func (m MotionState) Flipped() MotionState {
	return MotionState{X: -m.X, V: -m.V, A: -m.A}
}

// AlmostEqual reports whether position, velocity and acceleration each agree within tol.
func (m MotionState) AlmostEqual(o MotionState, tol float64) bool {
	return utils.Float64AlmostEqual(m.X, o.X, tol) &&
		utils.Float64AlmostEqual(m.V, o.V, tol) &&
		utils.Float64AlmostEqual(m.A, o.A, tol)
}

func (m MotionState) String() string {
	return fmt.Sprintf("(x=%.4f, v=%.4f, a=%.4f)", m.X, m.V, m.A)
}

// MotionSegment is a constant-acceleration piece of a profile.
type MotionSegment struct {
	Start    MotionState
	Duration float64
}

// Get returns the state t seconds into the segment.
func (s MotionSegment) Get(t float64) MotionState {
	return s.Start.Get(t)
}

// End returns the state at the end of the segment.
func (s MotionSegment) End() MotionState {
	return s.Start.Get(s.Duration)
}
