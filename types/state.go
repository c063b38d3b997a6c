package types

import "time"

// State represents the harvest service state machine
type State string

const (
	StateIdle       State = "idle"
	StateHarvesting State = "harvesting"
	StateComplete   State = "complete"
	StateError      State = "error"
)

// LogEntry represents a single log line with timestamp
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

// CategorySummary reports per-category counts for a finished or in-progress run.
type CategorySummary struct {
	Category  Category `json:"category"`
	Published int      `json:"published"`
	Failed    int      `json:"failed"`
}

// StatusResponse is the JSON response for GET /api/harvest/status
type StatusResponse struct {
	State      State             `json:"state"`
	RunID      string            `json:"run_id,omitempty"`
	Categories []CategorySummary `json:"categories,omitempty"`
	Logs       []LogEntry        `json:"logs"`
	Error      string            `json:"error,omitempty"`
}
