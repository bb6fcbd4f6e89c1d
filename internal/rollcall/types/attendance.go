package types

import "time"

// AttendanceStatus is the presence state written for a person at an occasion.
type AttendanceStatus string

const (
	StatusPresent AttendanceStatus = "present"
	StatusLate    AttendanceStatus = "late"
	StatusAbsent  AttendanceStatus = "absent"
	StatusExcused AttendanceStatus = "excused"
)

// Valid reports whether s is one of the statuses the ledger accepts.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case StatusPresent, StatusLate, StatusAbsent, StatusExcused:
		return true
	}
	return false
}

// AttendanceFact is the durable record that a person attended an occasion.
// The ledger keeps at most one per (OccasionID, PersonID).
type AttendanceFact struct {
	OccasionID string           `json:"occasion_id"`
	PersonID   string           `json:"person_id"`
	Status     AttendanceStatus `json:"status"`
	RecordedAt time.Time        `json:"recorded_at"`
}

// DuplicatePolicy decides what the ledger does when a fact already exists for
// the same (occasion, person) key.
type DuplicatePolicy string

const (
	// PolicyReject keeps the first fact and reports the second write as a duplicate.
	PolicyReject DuplicatePolicy = "reject"
	// PolicyOverwrite replaces the earlier fact's status and timestamp.
	PolicyOverwrite DuplicatePolicy = "overwrite"
)

func (p DuplicatePolicy) Valid() bool {
	return p == PolicyReject || p == PolicyOverwrite
}
