package model

import "time"

// RescheduleStatus is the state of a RescheduleRequest.
type RescheduleStatus string

const (
	ReschedulePending  RescheduleStatus = "pending"
	RescheduleApproved RescheduleStatus = "approved"
	RescheduleRejected RescheduleStatus = "rejected"
)

// CanResolve reports whether a request may move from one status to
// another.  A request is resolved exactly once.
func CanResolve(from, to RescheduleStatus) bool {
	return from == ReschedulePending && (to == RescheduleApproved || to == RescheduleRejected)
}

// RescheduleRequest is a proposal by one session party to move the
// session to a new time.  It needs the other party's approval.
type RescheduleRequest struct {
	ID           uint64           `json:"id"`                     // reschedule_requests.id
	SessionID    uint64           `json:"session_id"`             // reschedule_requests.session_id
	RequesterID  uint64           `json:"requester_id"`           // reschedule_requests.requester_id
	ProposedTime time.Time        `json:"proposed_time"`          // reschedule_requests.proposed_time
	Reason       string           `json:"reason"`                 // reschedule_requests.reason
	Status       RescheduleStatus `json:"status"`                 // reschedule_requests.status
	CreatedAt    time.Time        `json:"created_at"`             // reschedule_requests.created_at
	RespondedAt  *time.Time       `json:"responded_at,omitempty"` // reschedule_requests.responded_at (nullable)
}
