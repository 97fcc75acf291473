// Package availability decides whether the storefront accepts new orders,
// combining the weekly schedule with a time-limited operator override.
package availability

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Status is the current storefront availability.
type Status struct {
	IsOpen    bool
	IsManual  bool
	Message   string
	ExpiresAt *time.Time
}

// Override is an operator-set availability flag. It is authoritative until
// ExpiresAt; afterwards the weekly schedule applies again.
type Override struct {
	IsOpen    bool
	Reason    string
	ExpiresAt time.Time
}

// Expired reports whether the override is no longer in force at t.
func (o Override) Expired(t time.Time) bool {
	return !t.Before(o.ExpiresAt)
}

// OverrideStore persists the single operator override. Get returns (nil, nil)
// when no override exists.
type OverrideStore interface {
	Get(ctx context.Context) (*Override, error)
	Set(ctx context.Context, o Override) error
	Clear(ctx context.Context) error
}

// Gate evaluates storefront availability. A non-expired override wins
// verbatim; otherwise the schedule decides.
type Gate struct {
	schedule        Schedule
	overrides       OverrideStore
	defaultDuration time.Duration
	now             func() time.Time
	lg              *zap.Logger
}

// NewGate creates a Gate. defaultDuration is used for overrides set without
// an explicit duration.
func NewGate(schedule Schedule, overrides OverrideStore, defaultDuration time.Duration, lg *zap.Logger) *Gate {
	return &Gate{
		schedule:        schedule,
		overrides:       overrides,
		defaultDuration: defaultDuration,
		now:             time.Now,
		lg:              lg,
	}
}

// Current returns the availability right now. An unreadable override is
// logged and treated as absent, so a broken override row can never block
// checkout evaluation.
func (g *Gate) Current(ctx context.Context) Status {
	now := g.now()

	ov, err := g.overrides.Get(ctx)
	if err != nil {
		g.lg.Warn("override unreadable, falling back to schedule", zap.Error(err))
		ov = nil
	}
	if ov != nil && !ov.Expired(now) {
		msg := ov.Reason
		if msg == "" {
			if ov.IsOpen {
				msg = "Store opened by staff"
			} else {
				msg = "Store temporarily closed by staff"
			}
		}
		expires := ov.ExpiresAt
		return Status{IsOpen: ov.IsOpen, IsManual: true, Message: msg, ExpiresAt: &expires}
	}

	return g.schedule.Evaluate(now)
}

// SetOverride persists a manual override for d, or for the gate's default
// duration when d <= 0.
func (g *Gate) SetOverride(ctx context.Context, isOpen bool, reason string, d time.Duration) (Override, error) {
	if d <= 0 {
		d = g.defaultDuration
	}
	ov := Override{
		IsOpen:    isOpen,
		Reason:    reason,
		ExpiresAt: g.now().Add(d),
	}
	if err := g.overrides.Set(ctx, ov); err != nil {
		return Override{}, err
	}
	return ov, nil
}

// ClearOverride removes any manual override, restoring schedule-derived
// availability immediately.
func (g *Gate) ClearOverride(ctx context.Context) error {
	return g.overrides.Clear(ctx)
}
