package scheduling

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/coach-scheduler/internal/repository"
)

// Errors returned by the scheduling operations.  Callers match them with
// errors.Is; Message turns them into text suitable for an end user.
var (
	ErrNotFound                 = errors.New("not found")
	ErrForbidden                = errors.New("forbidden")
	ErrSlotUnavailable          = errors.New("slot unavailable")
	ErrInvalidTransition        = errors.New("invalid status transition")
	ErrSessionNotYetElapsed     = errors.New("session not yet elapsed")
	ErrSessionNotReschedulable  = errors.New("session not reschedulable")
	ErrInvalidTime              = errors.New("invalid time")
	ErrRescheduleAlreadyPending = errors.New("reschedule already pending")
	ErrAlreadyResolved          = errors.New("request already resolved")
	ErrInvalidInput             = errors.New("invalid input")
	ErrStorageFailure           = errors.New("storage failure")
)

var known = []error{
	ErrNotFound, ErrForbidden, ErrSlotUnavailable, ErrInvalidTransition,
	ErrSessionNotYetElapsed, ErrSessionNotReschedulable, ErrInvalidTime,
	ErrRescheduleAlreadyPending, ErrAlreadyResolved, ErrInvalidInput, ErrStorageFailure,
}

// translate maps a store error onto the scheduling taxonomy.  Errors that
// already belong to it pass through; anything unrecognised is a storage
// failure.
func translate(err error) error {
	if err == nil {
		return nil
	}
	for _, k := range known {
		if errors.Is(err, k) {
			return err
		}
	}
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return ErrNotFound
	case errors.Is(err, repository.ErrForbidden):
		return ErrForbidden
	case errors.Is(err, repository.ErrSlotNotAvailable):
		return ErrSlotUnavailable
	case errors.Is(err, repository.ErrConflict):
		return ErrRescheduleAlreadyPending
	case errors.Is(err, repository.ErrStale):
		return ErrInvalidTransition
	}
	return fmt.Errorf("%w: %v", ErrStorageFailure, err)
}

var messages = map[error]string{
	ErrNotFound:                 "The requested session, slot or request does not exist.",
	ErrForbidden:                "You are not allowed to act on this session.",
	ErrSlotUnavailable:          "This time slot is no longer available. Please pick another one.",
	ErrInvalidTransition:        "The session cannot move to that status from its current status.",
	ErrSessionNotYetElapsed:     "A session can only be completed after its scheduled time.",
	ErrSessionNotReschedulable:  "Only scheduled sessions can be rescheduled.",
	ErrInvalidTime:              "The proposed time must be in the future.",
	ErrRescheduleAlreadyPending: "A reschedule request is already pending for this session.",
	ErrAlreadyResolved:          "This reschedule request has already been answered.",
	ErrInvalidInput:             "The request contains invalid values.",
	ErrStorageFailure:           "Something went wrong while saving. Please try again.",
}

// Message returns the user-facing text for err.  Storage details are never
// exposed.
func Message(err error) string {
	for _, k := range known {
		if errors.Is(err, k) {
			return messages[k]
		}
	}
	return messages[ErrStorageFailure]
}
