package types

// AttendanceRequest is the body of POST /v1/attendance on the ledger service.
type AttendanceRequest struct {
	OccasionID string `json:"occasion_id"`
	PersonID   string `json:"person_id"`
	Status     string `json:"status,omitempty"`
	RecordedAt string `json:"recorded_at,omitempty"` // RFC3339; server time when empty
}

type AttendanceResponse struct {
	OK         bool   `json:"ok"`
	Duplicate  bool   `json:"duplicate"`
	OccasionID string `json:"occasion_id"`
	PersonID   string `json:"person_id"`
	Status     string `json:"status,omitempty"`
	RecordedAt string `json:"recorded_at,omitempty"`
	ServerTime string `json:"server_time"`
}

// PeopleResponse is the body returned by GET /v1/people.
type PeopleResponse struct {
	People     []PersonIdentity `json:"people"`
	ServerTime string           `json:"server_time"`
}

type ErrorResponse struct {
	OK      bool   `json:"ok"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// AttendanceListResponse is the body returned by
// GET /v1/occasions/{occasion_id}/attendance.
type AttendanceListResponse struct {
	OccasionID string           `json:"occasion_id"`
	Facts      []AttendanceFact `json:"facts"`
	ServerTime string           `json:"server_time"`
}
