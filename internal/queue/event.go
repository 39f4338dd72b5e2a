// Package queue defines the lifecycle messages exchanged over RabbitMQ and
// the consumer that records them.
package queue

import (
	"time"

	"github.com/google/uuid"
)

// LifecycleQueue is the durable queue carrying session lifecycle events.
const LifecycleQueue = "session.lifecycle"

// LifecycleEvent is one notification addressed to one user: a booking, a
// reschedule request or answer, a completion or a cancellation.  It holds
// enough for the notification subsystem to deliver it without querying the
// scheduling database.
type LifecycleEvent struct {
	ID         string    `json:"id"`
	UserID     uint64    `json:"user_id"`
	SessionID  uint64    `json:"session_id"`
	Category   string    `json:"category"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	Link       string    `json:"link"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewLifecycleEvent stamps a fresh id and the current time.
func NewLifecycleEvent(userID, sessionID uint64, category, title, message, link string) LifecycleEvent {
	return LifecycleEvent{
		ID:         uuid.NewString(),
		UserID:     userID,
		SessionID:  sessionID,
		Category:   category,
		Title:      title,
		Message:    message,
		Link:       link,
		OccurredAt: time.Now().UTC(),
	}
}
