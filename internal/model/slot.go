package model

import "time"

// SlotStatus is the availability state of a TimeSlot.
type SlotStatus string

const (
	SlotAvailable SlotStatus = "available"
	SlotBooked    SlotStatus = "booked"
)

// TimeSlot is a bookable window on a coach's calendar.  The pair
// (CoachID, StartTime) is the natural key; sessions refer to a slot by
// value rather than by ID.
//
// Fields:
//
//	ID        – primary key identifier.
//	CoachID   – coach that owns the calendar.
//	StartTime – start of the window (UTC).
//	EndTime   – end of the window (UTC).
//	Status    – available or booked.
type TimeSlot struct {
	ID        uint64     `json:"id"`         // time_slots.id
	CoachID   uint64     `json:"coach_id"`   // time_slots.coach_id
	StartTime time.Time  `json:"start_time"` // time_slots.start_time
	EndTime   time.Time  `json:"end_time"`   // time_slots.end_time
	Status    SlotStatus `json:"status"`     // time_slots.status
	CreatedAt time.Time  `json:"created_at"` // time_slots.created_at
	UpdatedAt time.Time  `json:"updated_at"` // time_slots.updated_at
}

// Available reports whether the slot can still be booked.
func (s TimeSlot) Available() bool { return s.Status == SlotAvailable }
