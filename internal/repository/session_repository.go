package repository

import (
	"context"
	"time"

	"github.com/iliyamo/coach-scheduler/internal/model"
)

// SessionRepo stores sessions.  Reads always join coaches so the coach's
// owning user id is available for access checks.
type SessionRepo struct {
	db DBTX
}

// NewSessionRepo returns a SessionRepo bound to the given database.
func NewSessionRepo(db DBTX) *SessionRepo { return &SessionRepo{db: db} }

const sessionSelect = `SELECT s.id, s.learner_id, s.coach_id, c.user_id, s.tier_id, s.scheduled_time,
                              s.price_cents, s.status, s.created_at, s.updated_at
                       FROM sessions s
                       JOIN coaches c ON c.id = s.coach_id`

func scanSession(row interface{ Scan(...any) error }) (*model.Session, error) {
	var s model.Session
	var status string
	err := row.Scan(&s.ID, &s.LearnerID, &s.CoachID, &s.CoachUserID, &s.TierID, &s.ScheduledTime,
		&s.PriceCents, &status, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	s.Status = model.SessionStatus(status)
	return &s, nil
}

// CreateTx inserts a scheduled session and returns its id.  The caller is
// responsible for booking the slot in the same transaction.
func (r *SessionRepo) CreateTx(ctx context.Context, tx DBTX, learnerID, coachID, tierID uint64, start time.Time, priceCents uint32) (uint64, error) {
	const q = `INSERT INTO sessions (learner_id, coach_id, tier_id, scheduled_time, price_cents, status)
               VALUES (?, ?, ?, ?, ?, 'scheduled')`
	res, err := tx.ExecContext(ctx, q, learnerID, coachID, tierID, start.UTC(), priceCents)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetTx loads a session by id, optionally locking the row.  Only the
// sessions row is locked; the joined coaches row stays shared so bookings
// for the same coach can still insert sessions.  It returns sql.ErrNoRows
// when the session does not exist.
func (r *SessionRepo) GetTx(ctx context.Context, q DBTX, id uint64, lock bool) (*model.Session, error) {
	query := sessionSelect + ` WHERE s.id = ?`
	if lock {
		query += ` FOR UPDATE OF s`
	}
	return scanSession(q.QueryRowContext(ctx, query, id))
}

// Get loads a session outside any transaction.
func (r *SessionRepo) Get(ctx context.Context, id uint64) (*model.Session, error) {
	return r.GetTx(ctx, r.db, id, false)
}

// UpdateStatusTx moves a session from one status to another.  The update
// only applies while the row still has the from status; otherwise ErrStale
// is returned.
func (r *SessionRepo) UpdateStatusTx(ctx context.Context, tx DBTX, id uint64, from, to model.SessionStatus) error {
	const q = `UPDATE sessions SET status = ?, updated_at = UTC_TIMESTAMP() WHERE id = ? AND status = ?`
	res, err := tx.ExecContext(ctx, q, string(to), id, string(from))
	if err != nil {
		return err
	}
	return affectedOne(res)
}

// RescheduleTx sets a new scheduled time.  It does not touch status or
// slots.
func (r *SessionRepo) RescheduleTx(ctx context.Context, tx DBTX, id uint64, newTime time.Time) error {
	const q = `UPDATE sessions SET scheduled_time = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`
	res, err := tx.ExecContext(ctx, q, newTime.UTC(), id)
	if err != nil {
		return err
	}
	return affectedOne(res)
}

// ListForUser returns the sessions where userID is the learner or owns the
// coach, soonest first.  An empty status returns every session.
func (r *SessionRepo) ListForUser(ctx context.Context, userID uint64, status model.SessionStatus) ([]model.Session, error) {
	q := sessionSelect + ` WHERE (s.learner_id = ? OR c.user_id = ?)`
	args := []any{userID, userID}
	if status != "" {
		q += ` AND s.status = ?`
		args = append(args, string(status))
	}
	q += ` ORDER BY s.scheduled_time ASC, s.id ASC`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Session, 0)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}
