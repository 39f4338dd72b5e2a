package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/coach-scheduler/internal/model"
)

// SlotRepo stores the coach calendar in the time_slots table.  Slots are
// addressed either by id (booking) or by (coach_id, start_time) (everything
// a session touches).  All times are stored in UTC.
type SlotRepo struct {
	db DBTX
}

// NewSlotRepo returns a SlotRepo bound to the given database.
func NewSlotRepo(db DBTX) *SlotRepo { return &SlotRepo{db: db} }

const slotColumns = `id, coach_id, start_time, end_time, status, created_at, updated_at`

func scanSlot(row interface{ Scan(...any) error }) (*model.TimeSlot, error) {
	var s model.TimeSlot
	var status string
	if err := row.Scan(&s.ID, &s.CoachID, &s.StartTime, &s.EndTime, &status, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.Status = model.SlotStatus(status)
	return &s, nil
}

// FindAvailable returns the coach's available slots with from <= start < to,
// earliest first.
func (r *SlotRepo) FindAvailable(ctx context.Context, coachID uint64, from, to time.Time) ([]model.TimeSlot, error) {
	const q = `SELECT ` + slotColumns + ` FROM time_slots
               WHERE coach_id = ? AND status = 'available' AND start_time >= ? AND start_time < ?
               ORDER BY start_time ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, q, coachID, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.TimeSlot, 0)
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// AvailableAt reports whether the coach has an available slot starting
// exactly at start.  It takes no locks.
func (r *SlotRepo) AvailableAt(ctx context.Context, coachID uint64, start time.Time) (bool, error) {
	_, err := r.slotAtTx(ctx, r.db, coachID, start, model.SlotAvailable, false)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// LockAndFetchTx reads the slot with a row lock held until the transaction
// ends.  It returns sql.ErrNoRows when the slot does not exist for the
// coach and ErrSlotNotAvailable when it is already booked.
func (r *SlotRepo) LockAndFetchTx(ctx context.Context, tx DBTX, coachID, slotID uint64) (*model.TimeSlot, error) {
	const q = `SELECT ` + slotColumns + ` FROM time_slots WHERE id = ? AND coach_id = ? FOR UPDATE`
	s, err := scanSlot(tx.QueryRowContext(ctx, q, slotID, coachID))
	if err != nil {
		return nil, err
	}
	if !s.Available() {
		return nil, ErrSlotNotAvailable
	}
	return s, nil
}

// MarkBookedTx flips a locked slot to booked.  The slot must still be
// available; otherwise ErrSlotNotAvailable is returned.
func (r *SlotRepo) MarkBookedTx(ctx context.Context, tx DBTX, slotID uint64) error {
	const q = `UPDATE time_slots SET status = 'booked', updated_at = UTC_TIMESTAMP() WHERE id = ? AND status = 'available'`
	res, err := tx.ExecContext(ctx, q, slotID)
	if err != nil {
		return err
	}
	if err := affectedOne(res); err != nil {
		if errors.Is(err, ErrStale) {
			return ErrSlotNotAvailable
		}
		return err
	}
	return nil
}

// MarkAvailableTx frees the booked slot at (coachID, start).  When no
// booked slot matches it does nothing.
func (r *SlotRepo) MarkAvailableTx(ctx context.Context, tx DBTX, coachID uint64, start time.Time) error {
	s, err := r.slotAtTx(ctx, tx, coachID, start, model.SlotBooked, true)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}
	const q = `UPDATE time_slots SET status = 'available', updated_at = UTC_TIMESTAMP() WHERE id = ?`
	_, err = tx.ExecContext(ctx, q, s.ID)
	return err
}

// EnsureBookedSlotAtTx makes sure a booked slot exists at (coachID, start).
// An available slot at that start is booked; otherwise a new booked slot of
// the given duration is inserted.  A slot that is already booked at that
// start yields ErrSlotNotAvailable.
func (r *SlotRepo) EnsureBookedSlotAtTx(ctx context.Context, tx DBTX, coachID uint64, start time.Time, duration time.Duration) (*model.TimeSlot, error) {
	s, err := r.slotAtTx(ctx, tx, coachID, start, model.SlotAvailable, true)
	switch {
	case err == nil:
		if err := r.MarkBookedTx(ctx, tx, s.ID); err != nil {
			return nil, err
		}
		s.Status = model.SlotBooked
		return s, nil
	case !errors.Is(err, sql.ErrNoRows):
		return nil, err
	}

	if _, err := r.slotAtTx(ctx, tx, coachID, start, model.SlotBooked, true); err == nil {
		return nil, ErrSlotNotAvailable
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	start = start.UTC()
	end := start.Add(duration)
	const ins = `INSERT INTO time_slots (coach_id, start_time, end_time, status) VALUES (?, ?, ?, 'booked')`
	res, err := tx.ExecContext(ctx, ins, coachID, start, end)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &model.TimeSlot{ID: uint64(id), CoachID: coachID, StartTime: start, EndTime: end, Status: model.SlotBooked}, nil
}

// slotAtTx resolves a slot by its natural key.  Every value-keyed lookup
// goes through here.  An empty status matches any status.
func (r *SlotRepo) slotAtTx(ctx context.Context, q DBTX, coachID uint64, start time.Time, status model.SlotStatus, lock bool) (*model.TimeSlot, error) {
	query := `SELECT ` + slotColumns + ` FROM time_slots WHERE coach_id = ? AND start_time = ?`
	args := []any{coachID, start.UTC()}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY id ASC LIMIT 1`
	return scanSlot(q.QueryRowContext(ctx, forUpdate(query, lock), args...))
}
