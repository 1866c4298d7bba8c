package motor

import (
	"context"
	"sync"

	"github.com/samber/lo"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/stat"
)

// Group fans commands out to controllers it does not own. Member failures are collected and
// returned together; one failing member never stops the rest from being commanded.
type Group struct {
	mu       sync.Mutex
	members  []*Controller
	reversed bool
}

// NewGroup groups members in order. The group's reversal flag starts false regardless of the
// members' own flags.
func NewGroup(members ...*Controller) *Group {
	return &Group{members: append([]*Controller(nil), members...)}
}

// Members returns the grouped controllers in order.
func (g *Group) Members() []*Controller {
	return append([]*Controller(nil), g.members...)
}

// Reversed returns the group-level reversal flag.
func (g *Group) Reversed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.reversed
}

// SetReversed inverts every member's reversal when reversed differs from the stored flag, and is
// a no-op otherwise. Members keep their reversal relative to one another.
func (g *Group) SetReversed(reversed bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.reversed == reversed {
		return
	}
	g.toggle()
}

// ToggleReversed inverts every member's reversal and the stored flag unconditionally.
func (g *Group) ToggleReversed() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.toggle()
}

func (g *Group) toggle() {
	for _, m := range g.members {
		m.ToggleReversed()
	}
	g.reversed = !g.reversed
}

func (g *Group) each(f func(*Controller) error) error {
	var errs error
	for _, m := range g.members {
		errs = multierr.Append(errs, f(m))
	}
	return errs
}

// SetRunMode sets mode on every member.
func (g *Group) SetRunMode(mode RunMode) error {
	return g.each(func(c *Controller) error { return c.SetRunMode(mode) })
}

// SetPower commands power on every member.
func (g *Group) SetPower(ctx context.Context, power float64) error {
	return g.each(func(c *Controller) error { return c.SetPower(ctx, power) })
}

// SetSpeed sets the velocity setpoint on every member.
func (g *Group) SetSpeed(v, a float64, unit RotationUnit) error {
	return g.each(func(c *Controller) error { return c.SetSpeed(v, a, unit) })
}

// SetRPM sets the velocity setpoint on every member in revolutions per minute.
func (g *Group) SetRPM(rpm float64) error {
	return g.SetSpeed(rpm, 0, RPM)
}

// SetTargetPosition sets the position target on every member.
func (g *Group) SetTargetPosition(ticks int) {
	for _, m := range g.members {
		m.SetTargetPosition(ticks)
	}
}

// SetTargetDistance sets the position target on every member in distance units.
func (g *Group) SetTargetDistance(distance float64) {
	for _, m := range g.members {
		m.SetTargetDistance(distance)
	}
}

// Update ticks every member.
func (g *Group) Update(ctx context.Context) error {
	return g.each(func(c *Controller) error { return c.Update(ctx) })
}

// Step ticks every member with an explicit dt in seconds.
func (g *Group) Step(ctx context.Context, dt float64) error {
	return g.each(func(c *Controller) error { return c.Step(ctx, dt) })
}

// Stop stops every member.
func (g *Group) Stop(ctx context.Context) error {
	return g.each(func(c *Controller) error { return c.Stop(ctx) })
}

// IsBusy reports whether any member is still moving to a position.
func (g *Group) IsBusy() bool {
	return lo.SomeBy(g.members, func(c *Controller) bool { return c.IsBusy() })
}

// Velocity returns the mean measured velocity of the members in unit.
func (g *Group) Velocity(unit RotationUnit) (float64, error) {
	if len(g.members) == 0 {
		return 0, nil
	}
	vels := make([]float64, 0, len(g.members))
	for _, m := range g.members {
		v, err := m.Velocity(unit)
		if err != nil {
			return 0, err
		}
		vels = append(vels, v)
	}
	return stat.Mean(vels, nil), nil
}
