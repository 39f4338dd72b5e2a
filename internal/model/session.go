package model

import "time"

// SessionStatus is the lifecycle state of a Session.
type SessionStatus string

const (
	SessionScheduled SessionStatus = "scheduled"
	SessionCompleted SessionStatus = "completed"
	SessionCancelled SessionStatus = "cancelled"
)

// sessionTransitions lists every permitted status change.  Completed and
// cancelled are terminal.
var sessionTransitions = map[SessionStatus][]SessionStatus{
	SessionScheduled: {SessionCompleted, SessionCancelled},
}

// CanTransition reports whether a session may move from one status to
// another.  Re-applying the current status is not a transition.
func CanTransition(from, to SessionStatus) bool {
	if from.Terminal() {
		return false
	}
	for _, next := range sessionTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Valid reports whether s is one of the known session statuses.
func (s SessionStatus) Valid() bool {
	switch s {
	case SessionScheduled, SessionCompleted, SessionCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s SessionStatus) Terminal() bool {
	return s == SessionCompleted || s == SessionCancelled
}

// Session is a booked engagement between a learner and a coach.
//
// Fields:
//
//	ID            – primary key identifier.
//	LearnerID     – user who booked the session.
//	CoachID       – coach profile the session is with.
//	CoachUserID   – user that owns the coach profile (coaches.user_id).
//	TierID        – service tier that was booked.
//	ScheduledTime – start of the session; matches a booked slot start.
//	PriceCents    – tier price copied at booking time.
//	Status        – scheduled, completed or cancelled.
type Session struct {
	ID            uint64        `json:"id"`             // sessions.id
	LearnerID     uint64        `json:"learner_id"`     // sessions.learner_id
	CoachID       uint64        `json:"coach_id"`       // sessions.coach_id
	CoachUserID   uint64        `json:"coach_user_id"`  // coaches.user_id
	TierID        uint64        `json:"tier_id"`        // sessions.tier_id
	ScheduledTime time.Time     `json:"scheduled_time"` // sessions.scheduled_time
	PriceCents    uint32        `json:"price_cents"`    // sessions.price_cents
	Status        SessionStatus `json:"status"`         // sessions.status
	CreatedAt     time.Time     `json:"created_at"`     // sessions.created_at
	UpdatedAt     time.Time     `json:"updated_at"`     // sessions.updated_at
}

// IsParty reports whether userID is the learner or the coach's owning user.
func (s Session) IsParty(userID uint64) bool {
	return userID != 0 && (userID == s.LearnerID || userID == s.CoachUserID)
}

// Counterparty returns the other party relative to userID.  It returns 0
// when userID is not a party.
func (s Session) Counterparty(userID uint64) uint64 {
	switch userID {
	case s.LearnerID:
		return s.CoachUserID
	case s.CoachUserID:
		return s.LearnerID
	}
	return 0
}
