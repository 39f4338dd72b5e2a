package scheduling

import (
	"context"
	"time"

	"github.com/iliyamo/coach-scheduler/internal/model"
	"github.com/iliyamo/coach-scheduler/internal/repository"
)

// TxRunner runs fn inside one storage transaction.  A non-nil return from
// fn rolls everything back and is returned unchanged.
type TxRunner interface {
	InTx(ctx context.Context, fn func(tx repository.DBTX) error) error
}

// SlotStore is the coach calendar.
type SlotStore interface {
	FindAvailable(ctx context.Context, coachID uint64, from, to time.Time) ([]model.TimeSlot, error)
	AvailableAt(ctx context.Context, coachID uint64, start time.Time) (bool, error)
	LockAndFetchTx(ctx context.Context, tx repository.DBTX, coachID, slotID uint64) (*model.TimeSlot, error)
	MarkBookedTx(ctx context.Context, tx repository.DBTX, slotID uint64) error
	MarkAvailableTx(ctx context.Context, tx repository.DBTX, coachID uint64, start time.Time) error
	EnsureBookedSlotAtTx(ctx context.Context, tx repository.DBTX, coachID uint64, start time.Time, duration time.Duration) (*model.TimeSlot, error)
}

// SessionStore persists sessions.
type SessionStore interface {
	CreateTx(ctx context.Context, tx repository.DBTX, learnerID, coachID, tierID uint64, start time.Time, priceCents uint32) (uint64, error)
	GetTx(ctx context.Context, q repository.DBTX, id uint64, lock bool) (*model.Session, error)
	Get(ctx context.Context, id uint64) (*model.Session, error)
	UpdateStatusTx(ctx context.Context, tx repository.DBTX, id uint64, from, to model.SessionStatus) error
	RescheduleTx(ctx context.Context, tx repository.DBTX, id uint64, newTime time.Time) error
	ListForUser(ctx context.Context, userID uint64, status model.SessionStatus) ([]model.Session, error)
}

// RescheduleStore persists reschedule requests.
type RescheduleStore interface {
	CreateTx(ctx context.Context, tx repository.DBTX, req *model.RescheduleRequest) error
	GetTx(ctx context.Context, q repository.DBTX, id uint64, lock bool) (*model.RescheduleRequest, error)
	HasPendingTx(ctx context.Context, q repository.DBTX, sessionID uint64) (bool, error)
	ResolveTx(ctx context.Context, tx repository.DBTX, id uint64, status model.RescheduleStatus, at time.Time) error
	ListBySession(ctx context.Context, sessionID uint64) ([]model.RescheduleRequest, error)
}

// ReviewStore persists session reviews.
type ReviewStore interface {
	UpsertTx(ctx context.Context, tx repository.DBTX, rv *model.Review) error
}

// TierStore reads the externally managed tier and coach tables.
type TierStore interface {
	GetForCoachTx(ctx context.Context, q repository.DBTX, tierID, coachID uint64) (*model.Tier, error)
	CoachOwnerTx(ctx context.Context, q repository.DBTX, coachID uint64) (uint64, error)
}

// AvailabilityInvalidator drops cached availability for a coach after the
// calendar changes.
type AvailabilityInvalidator interface {
	InvalidateCoach(ctx context.Context, coachID uint64) error
}

var (
	_ SlotStore       = (*repository.SlotRepo)(nil)
	_ SessionStore    = (*repository.SessionRepo)(nil)
	_ RescheduleStore = (*repository.RescheduleRepo)(nil)
	_ ReviewStore     = (*repository.ReviewRepo)(nil)
	_ TierStore       = (*repository.TierRepo)(nil)
)
