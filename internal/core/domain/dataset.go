package domain

import "time"

type DatasetStatus string

const (
	StatusPending    DatasetStatus = "pending"
	StatusProcessing DatasetStatus = "processing"
	StatusCompleted  DatasetStatus = "completed"
	StatusFailed     DatasetStatus = "failed"
)

// ValidStatus reports whether s is one of the four registry statuses.
func ValidStatus(s DatasetStatus) bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

const (
	MinPriority     = 1
	MaxPriority     = 10
	DefaultPriority = 5
)

// ClampPriority maps out-of-range priorities to the default.
func ClampPriority(p int) int {
	if p < MinPriority || p > MaxPriority {
		return DefaultPriority
	}
	return p
}

// StatusChange is one entry in a dataset's audit trail.
type StatusChange struct {
	From         DatasetStatus `json:"from"`
	To           DatasetStatus `json:"to"`
	Timestamp    time.Time     `json:"timestamp"`
	ErrorMessage string        `json:"error_message,omitempty"`
}

// Dataset represents one externally identified unit of ingestion work.
type Dataset struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Domain        Domain         `json:"domain"`
	Priority      int            `json:"priority"`
	Status        DatasetStatus  `json:"status"`
	ErrorMessage  string         `json:"error_message,omitempty"`
	AddedAt       time.Time      `json:"added_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	Seq           int64          `json:"seq"` // insertion order, used for priority tie-breaks
	StatusHistory []StatusChange `json:"status_history"`
}
