// Package utils contains small helpers shared across motionkit packages.
package utils

import "math"

// Epsilon is the default absolute tolerance used by AlmostEqual style comparisons.
const Epsilon = 1e-6

// Float64AlmostEqual compares two float64s and returns if the difference between them is less than epsilon.
func Float64AlmostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) <= epsilon
}

// Float64RelativelyEqual reports whether a and b agree to within tol relative to the larger magnitude.
// Values whose magnitude is below one are compared absolutely.
func Float64RelativelyEqual(a, b, tol float64) bool {
	scale := math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
	return math.Abs(a-b) <= tol*scale
}

// Clamp restricts x into [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Sign returns -1, 0 or 1 depending on the sign of x.
func Sign(x float64) float64 {
	if x == 0 {
		return 0
	}
	if math.Signbit(x) {
		return -1.0
	}
	return 1.0
}
