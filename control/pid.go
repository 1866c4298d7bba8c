// Package control implements the feedback and feedforward primitives used to drive actuators.
package control

import (
	"math"
	"sync"

	"github.com/pkg/errors"

	"go.viam.com/motionkit/utils"
)

// PIDCoefficients are the proportional, integral and derivative gains of a PID controller.
type PIDCoefficients struct {
	Kp float64 `json:"kp"`
	Ki float64 `json:"ki"`
	Kd float64 `json:"kd"`
}

// IsZero reports whether every gain is zero.
func (c PIDCoefficients) IsZero() bool {
	return c.Kp == 0 && c.Ki == 0 && c.Kd == 0
}

// PIDCoefficientsFromAttributes reads kp, ki and kd from a loosely typed attribute map.
// At least one of them must be present.
func PIDCoefficientsFromAttributes(attrs utils.AttributeMap) (PIDCoefficients, error) {
	if !attrs.Has("kp") && !attrs.Has("ki") && !attrs.Has("kd") {
		return PIDCoefficients{}, errors.New("pid should have at least one kp, ki or kd field")
	}
	return PIDCoefficients{
		Kp: attrs.Float64("kp", 0),
		Ki: attrs.Float64("ki", 0),
		Kd: attrs.Float64("kd", 0),
	}, nil
}

// PIDController is a discrete PID controller. The derivative acts on the error and is zero on
// the first update after a reset. It is safe for concurrent use.
type PIDController struct {
	mu     sync.Mutex
	coeffs PIDCoefficients
	// integralLimit bounds |Ki * integral|; zero or negative means unbounded.
	integralLimit float64

	integral  float64
	lastError float64
	primed    bool
}

// NewPIDController returns a controller with the given gains.
func NewPIDController(coeffs PIDCoefficients) *PIDController {
	return &PIDController{coeffs: coeffs}
}

// SetIntegralLimit bounds the magnitude of the integral term's contribution.
func (p *PIDController) SetIntegralLimit(limit float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.integralLimit = limit
}

// Coefficients returns the current gains.
func (p *PIDController) Coefficients() PIDCoefficients {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.coeffs
}

// SetCoefficients replaces the gains and clears accumulated state.
func (p *PIDController) SetCoefficients(coeffs PIDCoefficients) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.coeffs = coeffs
	p.reset()
}

// Update advances the controller by dt seconds and returns Kp·e + Ki·∫e + Kd·de/dt with
// e = setpoint - measured. A non-positive dt only applies the proportional term.
func (p *PIDController) Update(setpoint, measured, dt float64) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := setpoint - measured
	if dt <= 0 || math.IsNaN(dt) {
		return p.coeffs.Kp*err + p.coeffs.Ki*p.integral
	}

	p.integral += err * dt
	if p.integralLimit > 0 && p.coeffs.Ki != 0 {
		bound := p.integralLimit / math.Abs(p.coeffs.Ki)
		p.integral = utils.Clamp(p.integral, -bound, bound)
	}

	deriv := 0.0
	if p.primed {
		deriv = (err - p.lastError) / dt
	}
	p.lastError = err
	p.primed = true

	return p.coeffs.Kp*err + p.coeffs.Ki*p.integral + p.coeffs.Kd*deriv
}

// Reset clears the integral and derivative history.
func (p *PIDController) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
}

func (p *PIDController) reset() {
	p.integral = 0
	p.lastError = 0
	p.primed = false
}
