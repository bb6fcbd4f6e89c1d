package types

import "time"

type OccasionStatus string

const (
	OccasionOpen   OccasionStatus = "open"
	OccasionClosed OccasionStatus = "closed"
)

// Occasion is owned by the event-management side. The check-in engine only
// ever sees its ID.
type Occasion struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	ScheduledAt time.Time      `json:"scheduled_at"`
	Status      OccasionStatus `json:"status"`
}
