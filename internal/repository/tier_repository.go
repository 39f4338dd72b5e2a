package repository

import (
	"context"

	"github.com/iliyamo/coach-scheduler/internal/model"
)

// TierRepo reads service tiers and coach ownership.  Both tables are
// maintained outside the scheduling engine.
type TierRepo struct {
	db DBTX
}

// NewTierRepo returns a TierRepo bound to the given database.
func NewTierRepo(db DBTX) *TierRepo { return &TierRepo{db: db} }

// GetForCoachTx returns an active tier that belongs to the coach, or
// sql.ErrNoRows.
func (r *TierRepo) GetForCoachTx(ctx context.Context, q DBTX, tierID, coachID uint64) (*model.Tier, error) {
	const query = `SELECT id, coach_id, name, duration_minutes, price_cents, is_active
                   FROM service_tiers WHERE id = ? AND coach_id = ? AND is_active = 1`
	var t model.Tier
	err := q.QueryRowContext(ctx, query, tierID, coachID).Scan(
		&t.ID, &t.CoachID, &t.Name, &t.DurationMinutes, &t.PriceCents, &t.IsActive,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CoachOwnerTx returns the user id that owns the coach profile, or
// sql.ErrNoRows.
func (r *TierRepo) CoachOwnerTx(ctx context.Context, q DBTX, coachID uint64) (uint64, error) {
	const query = `SELECT user_id FROM coaches WHERE id = ?`
	var userID uint64
	if err := q.QueryRowContext(ctx, query, coachID).Scan(&userID); err != nil {
		return 0, err
	}
	return userID, nil
}
