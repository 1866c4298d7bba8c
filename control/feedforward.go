package control

import "go.viam.com/motionkit/utils"

// FeedforwardCoefficients model the open-loop output needed to hold a velocity and acceleration.
// Ks overcomes static friction in the direction of motion.
type FeedforwardCoefficients struct {
	Kv float64 `json:"kv"`
	Ka float64 `json:"ka"`
	Ks float64 `json:"ks"`
}

// IsZero reports whether every gain is zero.
func (c FeedforwardCoefficients) IsZero() bool {
	return c.Kv == 0 && c.Ka == 0 && c.Ks == 0
}

// Calculate returns Kv·v + Ka·a + Ks·sign(v).
func (c FeedforwardCoefficients) Calculate(v, a float64) float64 {
	return c.Kv*v + c.Ka*a + c.Ks*utils.Sign(v)
}
