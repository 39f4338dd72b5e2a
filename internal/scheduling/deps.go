// Package scheduling implements the session and slot scheduling engine:
// booking a slot, the session status machine and the reschedule workflow.
// Every mutation runs in a single storage transaction; notifications and
// cache invalidation happen only after commit.
package scheduling

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// DefaultSlotDuration is the length of a slot synthesized when a
// reschedule is approved into a time with no declared slot.
const DefaultSlotDuration = 60 * time.Minute

// Deps carries the collaborators shared by the scheduling services.  Tx,
// the stores and Notifier are required; the rest have defaults.
type Deps struct {
	Tx          TxRunner
	Slots       SlotStore
	Sessions    SessionStore
	Reschedules RescheduleStore
	Reviews     ReviewStore
	Tiers       TierStore
	Notifier    Notifier
	Invalidator AvailabilityInvalidator
	Logger      *zap.Logger
	// Now defaults to time.Now.
	Now func() time.Time
	// SlotDuration defaults to DefaultSlotDuration.
	SlotDuration time.Duration
}

type base struct {
	Deps
}

func newBase(d Deps) base {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.SlotDuration <= 0 {
		d.SlotDuration = DefaultSlotDuration
	}
	if d.Notifier == nil {
		d.Notifier = LogNotifier{Log: d.Logger}
	}
	return base{Deps: d}
}

func (b base) now() time.Time { return b.Now().UTC() }

// notify delivers n and swallows any failure.
func (b base) notify(ctx context.Context, n Notification) {
	if n.UserID == 0 {
		return
	}
	if n.Link == "" && n.SessionID != 0 {
		n.Link = fmt.Sprintf("/sessions/%d", n.SessionID)
	}
	if err := b.Notifier.Notify(ctx, n); err != nil {
		b.Logger.Warn("notification failed",
			zap.Uint64("user_id", n.UserID),
			zap.String("category", string(n.Category)),
			zap.Uint64("session_id", n.SessionID),
			zap.Error(err),
		)
	}
}

// invalidate drops cached availability for the coach; failures only log.
func (b base) invalidate(ctx context.Context, coachID uint64) {
	if b.Invalidator == nil {
		return
	}
	if err := b.Invalidator.InvalidateCoach(ctx, coachID); err != nil {
		b.Logger.Warn("availability cache invalidation failed", zap.Uint64("coach_id", coachID), zap.Error(err))
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04 UTC")
}
