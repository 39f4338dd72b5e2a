package model

import "time"

// Review is a rating attached to a completed session.  There is at most
// one review per (SessionID, RaterID).
type Review struct {
	ID        uint64    `json:"id"`         // reviews.id
	SessionID uint64    `json:"session_id"` // reviews.session_id
	RaterID   uint64    `json:"rater_id"`   // reviews.rater_id
	CoachID   uint64    `json:"coach_id"`   // reviews.coach_id
	Rating    int       `json:"rating"`     // reviews.rating (1..5)
	Comment   string    `json:"comment"`    // reviews.comment
	CreatedAt time.Time `json:"created_at"` // reviews.created_at
	UpdatedAt time.Time `json:"updated_at"` // reviews.updated_at
}

// ValidRating reports whether r is within the 1..5 scale.
func ValidRating(r int) bool { return r >= 1 && r <= 5 }
