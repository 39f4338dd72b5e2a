package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/coach-scheduler/internal/model"
)

// RescheduleRepo stores reschedule requests.  While a request is pending
// its pending_session_id column holds the session id; the column carries a
// UNIQUE index, so a second pending request for the same session fails
// with a duplicate-key error.
type RescheduleRepo struct {
	db DBTX
}

// NewRescheduleRepo returns a RescheduleRepo bound to the given database.
func NewRescheduleRepo(db DBTX) *RescheduleRepo { return &RescheduleRepo{db: db} }

const rescheduleColumns = `id, session_id, requester_id, proposed_time, reason, status, created_at, responded_at`

func scanReschedule(row interface{ Scan(...any) error }) (*model.RescheduleRequest, error) {
	var rr model.RescheduleRequest
	var status string
	var responded sql.NullTime
	if err := row.Scan(&rr.ID, &rr.SessionID, &rr.RequesterID, &rr.ProposedTime, &rr.Reason, &status, &rr.CreatedAt, &responded); err != nil {
		return nil, err
	}
	rr.Status = model.RescheduleStatus(status)
	if responded.Valid {
		t := responded.Time
		rr.RespondedAt = &t
	}
	return &rr, nil
}

// CreateTx inserts a pending request and fills in its id and status.  It
// returns ErrConflict when the session already has a pending request.
func (r *RescheduleRepo) CreateTx(ctx context.Context, tx DBTX, req *model.RescheduleRequest) error {
	const q = `INSERT INTO reschedule_requests (session_id, requester_id, proposed_time, reason, status, pending_session_id)
               VALUES (?, ?, ?, ?, 'pending', ?)`
	res, err := tx.ExecContext(ctx, q, req.SessionID, req.RequesterID, req.ProposedTime.UTC(), req.Reason, req.SessionID)
	if err != nil {
		if isDuplicate(err) {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	req.ID = uint64(id)
	req.Status = model.ReschedulePending
	return nil
}

// GetTx loads a request by id, optionally locking the row.  It returns
// sql.ErrNoRows when the request does not exist.
func (r *RescheduleRepo) GetTx(ctx context.Context, q DBTX, id uint64, lock bool) (*model.RescheduleRequest, error) {
	query := `SELECT ` + rescheduleColumns + ` FROM reschedule_requests WHERE id = ?`
	return scanReschedule(q.QueryRowContext(ctx, forUpdate(query, lock), id))
}

// HasPendingTx reports whether the session has a pending request.
func (r *RescheduleRepo) HasPendingTx(ctx context.Context, q DBTX, sessionID uint64) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM reschedule_requests WHERE session_id = ? AND status = 'pending')`
	var exists bool
	if err := q.QueryRowContext(ctx, query, sessionID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// ResolveTx moves a pending request to approved or rejected, stamps
// responded_at and releases the pending slot on the session.  It returns
// ErrStale when the request is no longer pending.
func (r *RescheduleRepo) ResolveTx(ctx context.Context, tx DBTX, id uint64, status model.RescheduleStatus, at time.Time) error {
	const q = `UPDATE reschedule_requests
               SET status = ?, responded_at = ?, pending_session_id = NULL
               WHERE id = ? AND status = 'pending'`
	res, err := tx.ExecContext(ctx, q, string(status), at.UTC(), id)
	if err != nil {
		return err
	}
	return affectedOne(res)
}

// ListBySession returns the session's requests, newest first.
func (r *RescheduleRepo) ListBySession(ctx context.Context, sessionID uint64) ([]model.RescheduleRequest, error) {
	const q = `SELECT ` + rescheduleColumns + ` FROM reschedule_requests WHERE session_id = ? ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.RescheduleRequest, 0)
	for rows.Next() {
		rr, err := scanReschedule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rr)
	}
	return out, rows.Err()
}
