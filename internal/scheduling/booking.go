package scheduling

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/iliyamo/coach-scheduler/internal/model"
	"github.com/iliyamo/coach-scheduler/internal/repository"
)

// BookInput is a learner's selection of coach, tier and slot.
type BookInput struct {
	LearnerID uint64
	CoachID   uint64
	TierID    uint64
	SlotID    uint64
}

// BookingService turns a slot selection into a scheduled session.
type BookingService struct {
	base
}

// NewBookingService returns a BookingService using d.
func NewBookingService(d Deps) *BookingService {
	return &BookingService{base: newBase(d)}
}

// Book locks the slot, marks it booked and creates the session in one
// transaction.  Two bookers racing for the same slot serialize on the slot
// row lock; the loser gets ErrSlotUnavailable.  Both parties are notified
// after commit.
func (s *BookingService) Book(ctx context.Context, in BookInput) (*model.Session, error) {
	if in.LearnerID == 0 || in.CoachID == 0 || in.TierID == 0 || in.SlotID == 0 {
		return nil, ErrInvalidInput
	}

	var sess *model.Session
	err := s.Tx.InTx(ctx, func(tx repository.DBTX) error {
		owner, err := s.Tiers.CoachOwnerTx(ctx, tx, in.CoachID)
		if err != nil {
			return err
		}
		if owner == in.LearnerID {
			return ErrForbidden
		}
		slot, err := s.Slots.LockAndFetchTx(ctx, tx, in.CoachID, in.SlotID)
		if err != nil {
			return err
		}
		tier, err := s.Tiers.GetForCoachTx(ctx, tx, in.TierID, in.CoachID)
		if err != nil {
			return err
		}
		if err := s.Slots.MarkBookedTx(ctx, tx, slot.ID); err != nil {
			return err
		}
		id, err := s.Sessions.CreateTx(ctx, tx, in.LearnerID, in.CoachID, in.TierID, slot.StartTime, tier.PriceCents)
		if err != nil {
			return err
		}
		sess, err = s.Sessions.GetTx(ctx, tx, id, false)
		return err
	})
	if err != nil {
		err = translate(err)
		s.Logger.Info("booking rejected",
			zap.Uint64("learner_id", in.LearnerID),
			zap.Uint64("coach_id", in.CoachID),
			zap.Uint64("slot_id", in.SlotID),
			zap.Error(err),
		)
		return nil, err
	}

	s.Logger.Info("session booked",
		zap.Uint64("session_id", sess.ID),
		zap.Uint64("learner_id", sess.LearnerID),
		zap.Uint64("coach_id", sess.CoachID),
		zap.Time("scheduled_time", sess.ScheduledTime),
	)
	when := formatTime(sess.ScheduledTime)
	s.notify(ctx, Notification{
		UserID:    sess.LearnerID,
		Title:     "Session booked",
		Message:   fmt.Sprintf("Your session is booked for %s.", when),
		Category:  CategoryBooking,
		SessionID: sess.ID,
	})
	s.notify(ctx, Notification{
		UserID:    sess.CoachUserID,
		Title:     "New booking",
		Message:   fmt.Sprintf("A learner booked a session with you for %s.", when),
		Category:  CategoryBooking,
		SessionID: sess.ID,
	})
	s.invalidate(ctx, sess.CoachID)
	return sess, nil
}
