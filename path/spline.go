package path

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate/quad"
	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/stat"

	"go.viam.com/motionkit/spatialmath"
)

const (
	// splineArcSamples is the number of curve-parameter intervals in a spline's arc-length table.
	splineArcSamples = 256
	// quadraturePoints is the Gauss-Legendre order used per table interval.
	quadraturePoints = 8
	// stallSpeedRatio is the fraction of the mean parametric speed below which a spline is
	// considered to stop, leaving its tangent undefined.
	stallSpeedRatio = 1e-3
)

// Knot is a spline boundary condition: a position with its first and second derivative with
// respect to the curve parameter.
type Knot struct {
	Position, Deriv, SecondDeriv spatialmath.Vector2d
}

// quintic is p(t) = a t^5 + b t^4 + c t^3 + d t^2 + e t + f on t in [0, 1].
type quintic struct {
	a, b, c, d, e, f float64
}

func newQuintic(x0, dx0, ddx0, x1, dx1, ddx1 float64) quintic {
	return quintic{
		a: -6*x0 - 3*dx0 - 0.5*ddx0 + 0.5*ddx1 - 3*dx1 + 6*x1,
		b: 15*x0 + 8*dx0 + 1.5*ddx0 - ddx1 + 7*dx1 - 15*x1,
		c: -10*x0 - 6*dx0 - 1.5*ddx0 + 0.5*ddx1 - 4*dx1 + 10*x1,
		d: 0.5 * ddx0,
		e: dx0,
		f: x0,
	}
}

func (q quintic) get(t float64) float64 {
	return ((((q.a*t+q.b)*t+q.c)*t+q.d)*t+q.e)*t + q.f
}

func (q quintic) deriv(t float64) float64 {
	return (((5*q.a*t+4*q.b)*t+3*q.c)*t+2*q.d)*t + q.e
}

func (q quintic) secondDeriv(t float64) float64 {
	return ((20*q.a*t+12*q.b)*t+6*q.c)*t + 2*q.d
}

// QuinticSpline is a quintic Hermite curve between two knots, reparameterized by arc length.
type QuinticSpline struct {
	x, y   quintic
	length float64
	// arcToParam maps arc length to the curve parameter t.
	arcToParam interp.PiecewiseLinear
}

// NewQuinticSpline builds the spline joining start to end. It fails with a GeometryError when
// the curve has no length, or stalls or doubles back somewhere along it.
func NewQuinticSpline(start, end Knot) (*QuinticSpline, error) {
	sp := &QuinticSpline{
		x: newQuintic(start.Position.X, start.Deriv.X, start.SecondDeriv.X,
			end.Position.X, end.Deriv.X, end.SecondDeriv.X),
		y: newQuintic(start.Position.Y, start.Deriv.Y, start.SecondDeriv.Y,
			end.Position.Y, end.Deriv.Y, end.SecondDeriv.Y),
	}

	speed := func(t float64) float64 { return sp.deriv(t).Norm() }
	if sp.stalls() {
		return nil, newDegenerateCurveError(0)
	}

	params := make([]float64, splineArcSamples+1)
	arcs := make([]float64, splineArcSamples+1)
	for i := 1; i <= splineArcSamples; i++ {
		params[i] = float64(i) / splineArcSamples
		arcs[i] = arcs[i-1] + quad.Fixed(speed, params[i-1], params[i], quadraturePoints, nil, 0)
	}
	if arcs[splineArcSamples] <= 0 {
		return nil, NewNonPositiveLengthError(0, arcs[splineArcSamples])
	}
	for i := 1; i <= splineArcSamples; i++ {
		// PiecewiseLinear.Fit panics unless the arc lengths strictly increase.
		if !(arcs[i] > arcs[i-1]) {
			return nil, newDegenerateCurveError(0)
		}
	}
	sp.length = arcs[splineArcSamples]
	if err := sp.arcToParam.Fit(arcs, params); err != nil {
		return nil, errors.Wrap(err, "cannot parameterize spline by arc length")
	}
	return sp, nil
}

// stalls reports whether the curve's speed drops to nearly zero or its direction reverses
// between neighbouring samples, either of which makes the tangent jump.
func (sp *QuinticSpline) stalls() bool {
	const samples = splineArcSamples * quadraturePoints
	derivs := make([]spatialmath.Vector2d, samples+1)
	speeds := make([]float64, samples+1)
	for i := range derivs {
		derivs[i] = sp.deriv(float64(i) / samples)
		speeds[i] = derivs[i].Norm()
	}
	minSpeed := floats.Min(speeds)
	if meanSpeed := stat.Mean(speeds, nil); !(minSpeed > stallSpeedRatio*meanSpeed) {
		return true
	}
	for i := 1; i <= samples; i++ {
		if derivs[i-1].Dot(derivs[i]) <= 0 {
			return true
		}
	}
	return false
}

// NewSplineBetween returns a spline leaving start along its heading and arriving at end along
// endTangent, with derivative magnitudes equal to the chord length.
func NewSplineBetween(start spatialmath.Pose2d, end spatialmath.Vector2d, endTangent spatialmath.Angle) (*QuinticSpline, error) {
	mag := start.Position.DistTo(end)
	if mag <= 0 {
		return nil, NewNonPositiveLengthError(0, mag)
	}
	return NewQuinticSpline(
		Knot{Position: start.Position, Deriv: spatialmath.Polar(mag, start.Heading)},
		Knot{Position: end, Deriv: spatialmath.Polar(mag, endTangent)},
	)
}

func (sp *QuinticSpline) point(t float64) spatialmath.Vector2d {
	return spatialmath.NewVector2d(sp.x.get(t), sp.y.get(t))
}

func (sp *QuinticSpline) deriv(t float64) spatialmath.Vector2d {
	return spatialmath.NewVector2d(sp.x.deriv(t), sp.y.deriv(t))
}

func (sp *QuinticSpline) secondDeriv(t float64) spatialmath.Vector2d {
	return spatialmath.NewVector2d(sp.x.secondDeriv(t), sp.y.secondDeriv(t))
}

func (sp *QuinticSpline) param(s float64) float64 {
	return sp.arcToParam.Predict(clampArc(s, sp.length))
}

// Length returns the arc length of the spline.
func (sp *QuinticSpline) Length() float64 { return sp.length }

// Position returns the point at arc length s.
func (sp *QuinticSpline) Position(s float64) spatialmath.Vector2d {
	return sp.point(sp.param(s))
}

// Tangent returns the direction of travel at arc length s.
func (sp *QuinticSpline) Tangent(s float64) spatialmath.Angle {
	return sp.deriv(sp.param(s)).Angle()
}

// Curvature returns the signed curvature at arc length s.
func (sp *QuinticSpline) Curvature(s float64) float64 {
	t := sp.param(s)
	d, dd := sp.deriv(t), sp.secondDeriv(t)
	n := d.Norm()
	return d.Cross(dd) / (n * n * n)
}
