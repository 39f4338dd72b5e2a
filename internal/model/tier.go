package model

// Tier is a coach-defined service offering.  Tiers are managed outside the
// scheduling engine; booking only reads them.
type Tier struct {
	ID              uint64 `json:"id"`               // service_tiers.id
	CoachID         uint64 `json:"coach_id"`         // service_tiers.coach_id
	Name            string `json:"name"`             // service_tiers.name
	DurationMinutes int    `json:"duration_minutes"` // service_tiers.duration_minutes
	PriceCents      uint32 `json:"price_cents"`      // service_tiers.price_cents
	IsActive        bool   `json:"is_active"`        // service_tiers.is_active
}
