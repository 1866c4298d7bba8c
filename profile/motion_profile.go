package profile

import (
	"math"
	"sort"
)

// ContinuityTolerance bounds the position and velocity mismatch accepted between consecutive
// segments handed to NewMotionProfile.
const ContinuityTolerance = 1e-9

// MotionProfile is an immutable, time-contiguous sequence of constant-acceleration segments.
// It is safe for concurrent readers.
type MotionProfile struct {
	segments []MotionSegment
	// startTimes[i] is the time segment i begins; startTimes[len(segments)] is the duration.
	startTimes []float64
}

// NewMotionProfile validates and wraps segments. Durations must be non-negative and each
// segment must start where the previous one ends.
func NewMotionProfile(segments []MotionSegment) (*MotionProfile, error) {
	if len(segments) == 0 {
		return nil, newProfileError(Discontinuous, "profile needs at least one segment")
	}
	for i, seg := range segments {
		if seg.Duration < 0 || math.IsNaN(seg.Duration) {
			return nil, newProfileError(Discontinuous, "segment %d has duration %v", i, seg.Duration)
		}
		if i == 0 {
			continue
		}
		prev := segments[i-1].End()
		if math.Abs(prev.X-seg.Start.X) > ContinuityTolerance || math.Abs(prev.V-seg.Start.V) > ContinuityTolerance {
			return nil, newProfileError(Discontinuous, "segment %d starts at %v but segment %d ends at %v",
				i, seg.Start, i-1, prev)
		}
	}
	return newMotionProfile(append([]MotionSegment(nil), segments...)), nil
}

func newMotionProfile(segments []MotionSegment) *MotionProfile {
	startTimes := make([]float64, len(segments)+1)
	for i, seg := range segments {
		startTimes[i+1] = startTimes[i] + seg.Duration
	}
	return &MotionProfile{segments: segments, startTimes: startTimes}
}

// Duration returns the total duration in seconds.
func (p *MotionProfile) Duration() float64 {
	return p.startTimes[len(p.segments)]
}

// Segments returns a copy of the profile's segments.
func (p *MotionProfile) Segments() []MotionSegment {
	return append([]MotionSegment(nil), p.segments...)
}

// Start returns the initial state.
func (p *MotionProfile) Start() MotionState {
	return p.segments[0].Start
}

// End returns the final state.
func (p *MotionProfile) End() MotionState {
	return p.segments[len(p.segments)-1].End()
}

// Distance returns the signed displacement covered by the profile.
func (p *MotionProfile) Distance() float64 {
	return p.End().X - p.Start().X
}

// Get returns the state at time t, clamped into [0, Duration()].
func (p *MotionProfile) Get(t float64) MotionState {
	if t <= 0 {
		return p.Start()
	}
	if t >= p.Duration() {
		return p.End()
	}
	// owning segment is the last one starting at or before t
	i := sort.Search(len(p.segments), func(i int) bool { return p.startTimes[i+1] > t })
	if i == len(p.segments) {
		return p.End()
	}
	return p.segments[i].Get(t - p.startTimes[i])
}

// TimeAtPosition returns the earliest time at which the profile reaches position x. The profile
// must be non-decreasing in position; x is clamped into the profile's range.
func (p *MotionProfile) TimeAtPosition(x float64) float64 {
	if x <= p.Start().X {
		return 0
	}
	if x >= p.End().X {
		return p.Duration()
	}
	i := sort.Search(len(p.segments), func(i int) bool { return p.segments[i].End().X >= x })
	if i == len(p.segments) {
		return p.Duration()
	}
	seg := p.segments[i]
	dx := x - seg.Start.X
	var t float64
	if math.Abs(seg.Start.A) < 1e-12 {
		t = dx / seg.Start.V
	} else {
		disc := seg.Start.V*seg.Start.V + 2*seg.Start.A*dx
		t = (-seg.Start.V + math.Sqrt(math.Max(0, disc))) / seg.Start.A
	}
	return p.startTimes[i] + math.Max(0, math.Min(t, seg.Duration))
}

// GetByPosition returns the state at the moment the profile reaches position x.
func (p *MotionProfile) GetByPosition(x float64) MotionState {
	return p.Get(p.TimeAtPosition(x))
}

// Flipped returns the profile mirrored about the origin (positions, velocities and
// accelerations negated).
func (p *MotionProfile) Flipped() *MotionProfile {
	segments := make([]MotionSegment, len(p.segments))
	for i, seg := range p.segments {
		segments[i] = MotionSegment{Start: seg.Start.Flipped(), Duration: seg.Duration}
	}
	return newMotionProfile(segments)
}
