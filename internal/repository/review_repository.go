package repository

import (
	"context"

	"github.com/iliyamo/coach-scheduler/internal/model"
)

// ReviewRepo stores session reviews.  (session_id, rater_id) is unique.
type ReviewRepo struct {
	db DBTX
}

// NewReviewRepo returns a ReviewRepo bound to the given database.
func NewReviewRepo(db DBTX) *ReviewRepo { return &ReviewRepo{db: db} }

// UpsertTx inserts the review or, when the rater already reviewed the
// session, replaces its rating and comment.
func (r *ReviewRepo) UpsertTx(ctx context.Context, tx DBTX, rv *model.Review) error {
	const q = `INSERT INTO reviews (session_id, rater_id, coach_id, rating, comment)
               VALUES (?, ?, ?, ?, ?)
               ON DUPLICATE KEY UPDATE rating = VALUES(rating), comment = VALUES(comment), updated_at = UTC_TIMESTAMP()`
	_, err := tx.ExecContext(ctx, q, rv.SessionID, rv.RaterID, rv.CoachID, rv.Rating, rv.Comment)
	return err
}

// GetTx returns the review a rater left on a session, or sql.ErrNoRows.
func (r *ReviewRepo) GetTx(ctx context.Context, q DBTX, sessionID, raterID uint64) (*model.Review, error) {
	const query = `SELECT id, session_id, rater_id, coach_id, rating, comment, created_at, updated_at
                   FROM reviews WHERE session_id = ? AND rater_id = ?`
	var rv model.Review
	err := q.QueryRowContext(ctx, query, sessionID, raterID).Scan(
		&rv.ID, &rv.SessionID, &rv.RaterID, &rv.CoachID, &rv.Rating, &rv.Comment, &rv.CreatedAt, &rv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rv, nil
}
