package scheduling

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/iliyamo/coach-scheduler/internal/model"
	"github.com/iliyamo/coach-scheduler/internal/repository"
)

// maxCommentLen bounds review comments.
const maxCommentLen = 2000

// SessionService owns the session status machine and the party access
// gate.
type SessionService struct {
	base
}

// NewSessionService returns a SessionService using d.
func NewSessionService(d Deps) *SessionService {
	return &SessionService{base: newBase(d)}
}

// GetForParty returns the session when actorID is its learner or the user
// owning its coach.  Every session mutation goes through the same check.
func (s *SessionService) GetForParty(ctx context.Context, sessionID, actorID uint64) (*model.Session, error) {
	sess, err := s.Sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, translate(err)
	}
	if !sess.IsParty(actorID) {
		return nil, ErrForbidden
	}
	return sess, nil
}

// lockForParty is GetForParty inside a transaction with the row locked.
func lockForParty(ctx context.Context, sessions SessionStore, tx repository.DBTX, sessionID, actorID uint64) (*model.Session, error) {
	sess, err := sessions.GetTx(ctx, tx, sessionID, true)
	if err != nil {
		return nil, err
	}
	if !sess.IsParty(actorID) {
		return nil, ErrForbidden
	}
	return sess, nil
}

// SetStatus moves a session to a terminal status.  Completion requires the
// scheduled time to have passed.  Cancelling frees the booked slot in the
// same transaction.
func (s *SessionService) SetStatus(ctx context.Context, sessionID, actorID uint64, to model.SessionStatus) (*model.Session, error) {
	if !to.Valid() {
		return nil, ErrInvalidInput
	}
	var sess *model.Session
	err := s.Tx.InTx(ctx, func(tx repository.DBTX) error {
		var err error
		sess, err = s.transitionTx(ctx, tx, sessionID, actorID, to)
		return err
	})
	if err != nil {
		return nil, translate(err)
	}
	s.afterTransition(ctx, sess, actorID)
	return sess, nil
}

func (s *SessionService) transitionTx(ctx context.Context, tx repository.DBTX, sessionID, actorID uint64, to model.SessionStatus) (*model.Session, error) {
	sess, err := lockForParty(ctx, s.Sessions, tx, sessionID, actorID)
	if err != nil {
		return nil, err
	}
	if !model.CanTransition(sess.Status, to) {
		return nil, ErrInvalidTransition
	}
	if to == model.SessionCompleted && s.now().Before(sess.ScheduledTime) {
		return nil, ErrSessionNotYetElapsed
	}
	if err := s.Sessions.UpdateStatusTx(ctx, tx, sess.ID, sess.Status, to); err != nil {
		return nil, err
	}
	if to == model.SessionCancelled {
		if err := s.Slots.MarkAvailableTx(ctx, tx, sess.CoachID, sess.ScheduledTime); err != nil {
			return nil, err
		}
	}
	sess.Status = to
	return sess, nil
}

func (s *SessionService) afterTransition(ctx context.Context, sess *model.Session, actorID uint64) {
	s.Logger.Info("session status changed",
		zap.Uint64("session_id", sess.ID),
		zap.Uint64("actor_id", actorID),
		zap.String("status", string(sess.Status)),
	)
	n := Notification{
		UserID:    sess.Counterparty(actorID),
		SessionID: sess.ID,
	}
	when := formatTime(sess.ScheduledTime)
	switch sess.Status {
	case model.SessionCompleted:
		n.Title = "Session completed"
		n.Message = fmt.Sprintf("Your session on %s was marked as completed.", when)
		n.Category = CategorySessionCompleted
	case model.SessionCancelled:
		n.Title = "Session cancelled"
		n.Message = fmt.Sprintf("Your session on %s was cancelled.", when)
		n.Category = CategorySessionCancelled
		defer s.invalidate(ctx, sess.CoachID)
	default:
		return
	}
	s.notify(ctx, n)
}

// CompleteInput carries a completion and an optional rating.  Rating 0
// means no rating.
type CompleteInput struct {
	SessionID uint64
	ActorID   uint64
	Rating    int
	Comment   string
}

// CompleteResult is the completed session and the review written, if any.
type CompleteResult struct {
	Session *model.Session
	Review  *model.Review
}

// CompleteWithRating marks the session completed and, when the actor is
// the learner and supplied a rating, upserts their review.  Submitting a
// rating again for an already completed session updates the review.
func (s *SessionService) CompleteWithRating(ctx context.Context, in CompleteInput) (*CompleteResult, error) {
	if in.Rating != 0 && !model.ValidRating(in.Rating) {
		return nil, ErrInvalidInput
	}
	comment := strings.TrimSpace(in.Comment)
	if len(comment) > maxCommentLen {
		return nil, ErrInvalidInput
	}

	var res CompleteResult
	transitioned := false
	err := s.Tx.InTx(ctx, func(tx repository.DBTX) error {
		sess, err := lockForParty(ctx, s.Sessions, tx, in.SessionID, in.ActorID)
		if err != nil {
			return err
		}
		rates := in.Rating != 0 && in.ActorID == sess.LearnerID
		if sess.Status == model.SessionCompleted && rates {
			res.Session = sess
		} else {
			if sess, err = s.transitionTx(ctx, tx, in.SessionID, in.ActorID, model.SessionCompleted); err != nil {
				return err
			}
			res.Session = sess
			transitioned = true
		}
		if !rates {
			return nil
		}
		rv := &model.Review{
			SessionID: sess.ID,
			RaterID:   in.ActorID,
			CoachID:   sess.CoachID,
			Rating:    in.Rating,
			Comment:   comment,
		}
		if err := s.Reviews.UpsertTx(ctx, tx, rv); err != nil {
			return err
		}
		res.Review = rv
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	if transitioned {
		s.afterTransition(ctx, res.Session, in.ActorID)
	}
	if res.Review != nil {
		s.Logger.Info("review recorded",
			zap.Uint64("session_id", res.Review.SessionID),
			zap.Uint64("rater_id", res.Review.RaterID),
			zap.Int("rating", res.Review.Rating),
		)
	}
	return &res, nil
}

// ListForUser returns the sessions the user is a party to.  An empty
// status returns all of them.
func (s *SessionService) ListForUser(ctx context.Context, userID uint64, status model.SessionStatus) ([]model.Session, error) {
	if status != "" && !status.Valid() {
		return nil, ErrInvalidInput
	}
	out, err := s.Sessions.ListForUser(ctx, userID, status)
	if err != nil {
		return nil, translate(err)
	}
	return out, nil
}
