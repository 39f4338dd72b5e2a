package scheduling

import (
	"context"

	"go.uber.org/zap"
)

// Category classifies a lifecycle notification.
type Category string

const (
	CategoryBooking             Category = "booking"
	CategoryRescheduleRequested Category = "reschedule_requested"
	CategoryRescheduleApproved  Category = "reschedule_approved"
	CategoryRescheduleRejected  Category = "reschedule_rejected"
	CategorySessionCompleted    Category = "session_completed"
	CategorySessionCancelled    Category = "session_cancelled"
)

// Notification is a lifecycle event addressed to one user.
type Notification struct {
	UserID    uint64   `json:"user_id"`
	Title     string   `json:"title"`
	Message   string   `json:"message"`
	Link      string   `json:"link"`
	Category  Category `json:"category"`
	SessionID uint64   `json:"session_id"`
}

// Notifier forwards lifecycle events to the notification subsystem.  It is
// only called after a transaction commits; errors are logged and dropped.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// LogNotifier writes notifications to the log.  It stands in for the
// broker when publishing is disabled.
type LogNotifier struct {
	Log *zap.Logger
}

// Notify logs n at info level.
func (l LogNotifier) Notify(_ context.Context, n Notification) error {
	if l.Log == nil {
		return nil
	}
	l.Log.Info("notification",
		zap.Uint64("user_id", n.UserID),
		zap.String("category", string(n.Category)),
		zap.Uint64("session_id", n.SessionID),
		zap.String("title", n.Title),
		zap.String("message", n.Message),
		zap.String("link", n.Link),
	)
	return nil
}
