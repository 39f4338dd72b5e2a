package scheduling

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/coach-scheduler/internal/model"
	"github.com/iliyamo/coach-scheduler/internal/repository"
)

const maxReasonLen = 500

// Decision is the counterparty's answer to a reschedule request.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// ParseDecision accepts approve/approved and reject/rejected in any case.
func ParseDecision(s string) (Decision, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "approve", "approved":
		return DecisionApprove, nil
	case "reject", "rejected":
		return DecisionReject, nil
	}
	return "", ErrInvalidInput
}

func (d Decision) outcome() model.RescheduleStatus {
	if d == DecisionApprove {
		return model.RescheduleApproved
	}
	return model.RescheduleRejected
}

// RescheduleInput is a proposal to move a session.
type RescheduleInput struct {
	SessionID    uint64
	RequesterID  uint64
	ProposedTime time.Time
	Reason       string
}

// RequestResult is the stored request plus whether an available slot
// already exists at the proposed time.  SlotAvailable is informational.
type RequestResult struct {
	Request       *model.RescheduleRequest
	SlotAvailable bool
}

// RescheduleCoordinator runs the bilateral reschedule workflow.
type RescheduleCoordinator struct {
	base
}

// NewRescheduleCoordinator returns a RescheduleCoordinator using d.
func NewRescheduleCoordinator(d Deps) *RescheduleCoordinator {
	return &RescheduleCoordinator{base: newBase(d)}
}

// Request records a pending reschedule request.  The session row is locked
// for the duration of the check and insert, so two concurrent requests for
// one session cannot both become pending.
func (c *RescheduleCoordinator) Request(ctx context.Context, in RescheduleInput) (*RequestResult, error) {
	reason := strings.TrimSpace(in.Reason)
	if len(reason) > maxReasonLen || in.ProposedTime.IsZero() {
		return nil, ErrInvalidInput
	}
	proposed := in.ProposedTime.UTC().Truncate(time.Second)

	var (
		sess *model.Session
		req  *model.RescheduleRequest
	)
	err := c.Tx.InTx(ctx, func(tx repository.DBTX) error {
		var err error
		sess, err = lockForParty(ctx, c.Sessions, tx, in.SessionID, in.RequesterID)
		if err != nil {
			return err
		}
		if sess.Status != model.SessionScheduled {
			return ErrSessionNotReschedulable
		}
		if !proposed.After(c.now()) {
			return ErrInvalidTime
		}
		pending, err := c.Reschedules.HasPendingTx(ctx, tx, sess.ID)
		if err != nil {
			return err
		}
		if pending {
			return ErrRescheduleAlreadyPending
		}
		req = &model.RescheduleRequest{
			SessionID:    sess.ID,
			RequesterID:  in.RequesterID,
			ProposedTime: proposed,
			Reason:       reason,
			CreatedAt:    c.now(),
		}
		return c.Reschedules.CreateTx(ctx, tx, req)
	})
	if err != nil {
		return nil, translate(err)
	}

	available, err := c.Slots.AvailableAt(ctx, sess.CoachID, proposed)
	if err != nil {
		c.Logger.Warn("slot availability lookup failed", zap.Uint64("coach_id", sess.CoachID), zap.Error(err))
		available = false
	}

	c.Logger.Info("reschedule requested",
		zap.Uint64("request_id", req.ID),
		zap.Uint64("session_id", sess.ID),
		zap.Uint64("requester_id", in.RequesterID),
		zap.Time("proposed_time", proposed),
	)
	msg := fmt.Sprintf("A reschedule was requested: %s → %s.", formatTime(sess.ScheduledTime), formatTime(proposed))
	if reason != "" {
		msg += " Reason: " + reason
	}
	c.notify(ctx, Notification{
		UserID:    sess.Counterparty(in.RequesterID),
		Title:     "Reschedule requested",
		Message:   msg,
		Category:  CategoryRescheduleRequested,
		SessionID: sess.ID,
	})
	return &RequestResult{Request: req, SlotAvailable: available}, nil
}

// Respond resolves a pending request.  Only the session party who did not
// make the request may answer.  On approval the old slot is freed, a slot
// at the proposed time is booked (or created) and the session is moved, all
// in the same transaction as the status change.  Any failure leaves the
// request pending.
func (c *RescheduleCoordinator) Respond(ctx context.Context, requestID, responderID uint64, d Decision) (*model.RescheduleRequest, error) {
	if d != DecisionApprove && d != DecisionReject {
		return nil, ErrInvalidInput
	}

	var (
		req  *model.RescheduleRequest
		sess *model.Session
	)
	err := c.Tx.InTx(ctx, func(tx repository.DBTX) error {
		var err error
		req, err = c.Reschedules.GetTx(ctx, tx, requestID, true)
		if err != nil {
			return err
		}
		if req.Status != model.ReschedulePending {
			return ErrAlreadyResolved
		}
		sess, err = c.Sessions.GetTx(ctx, tx, req.SessionID, true)
		if err != nil {
			return err
		}
		if responder := sess.Counterparty(req.RequesterID); responder == 0 || responder != responderID {
			return ErrForbidden
		}

		now := c.now()
		outcome := d.outcome()
		if !model.CanResolve(req.Status, outcome) {
			return ErrAlreadyResolved
		}
		if err := c.Reschedules.ResolveTx(ctx, tx, req.ID, outcome, now); err != nil {
			if errors.Is(err, repository.ErrStale) {
				return ErrAlreadyResolved
			}
			return err
		}
		req.Status = outcome
		req.RespondedAt = &now

		if outcome != model.RescheduleApproved {
			return nil
		}
		return c.applyTx(ctx, tx, sess, req.ProposedTime, now)
	})
	if err != nil {
		return nil, translate(err)
	}

	c.Logger.Info("reschedule resolved",
		zap.Uint64("request_id", req.ID),
		zap.Uint64("session_id", req.SessionID),
		zap.Uint64("responder_id", responderID),
		zap.String("status", string(req.Status)),
	)
	n := Notification{UserID: req.RequesterID, SessionID: req.SessionID}
	if req.Status == model.RescheduleApproved {
		n.Title = "Reschedule approved"
		n.Message = fmt.Sprintf("Your session was moved to %s.", formatTime(req.ProposedTime))
		n.Category = CategoryRescheduleApproved
	} else {
		n.Title = "Reschedule declined"
		n.Message = fmt.Sprintf("Your request to move the session to %s was declined.", formatTime(req.ProposedTime))
		n.Category = CategoryRescheduleRejected
	}
	c.notify(ctx, n)
	if req.Status == model.RescheduleApproved {
		c.invalidate(ctx, sess.CoachID)
	}
	return req, nil
}

// applyTx moves the session and its slot to newTime.
func (c *RescheduleCoordinator) applyTx(ctx context.Context, tx repository.DBTX, sess *model.Session, newTime, now time.Time) error {
	if sess.Status != model.SessionScheduled {
		return ErrSessionNotReschedulable
	}
	if !newTime.After(now) {
		return ErrInvalidTime
	}
	if err := c.Slots.MarkAvailableTx(ctx, tx, sess.CoachID, sess.ScheduledTime); err != nil {
		return err
	}
	if _, err := c.Slots.EnsureBookedSlotAtTx(ctx, tx, sess.CoachID, newTime, c.SlotDuration); err != nil {
		return err
	}
	if err := c.Sessions.RescheduleTx(ctx, tx, sess.ID, newTime); err != nil {
		return err
	}
	sess.ScheduledTime = newTime
	return nil
}

// ListForSession returns the session's request history to a party.
func (c *RescheduleCoordinator) ListForSession(ctx context.Context, sessionID, actorID uint64) ([]model.RescheduleRequest, error) {
	sess, err := c.Sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, translate(err)
	}
	if !sess.IsParty(actorID) {
		return nil, ErrForbidden
	}
	out, err := c.Reschedules.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, translate(err)
	}
	return out, nil
}
