package notify

import (
	"time"

	"github.com/ahrdadan/shotcheck/internal/verify"
	"github.com/google/uuid"
)

// Status represents the outcome of a run
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Event represents a finished verification run
type Event struct {
	RunID     string         `json:"run_id"`
	Status    Status         `json:"status"`
	URL       string         `json:"url"`
	ErrorKind string         `json:"error_kind,omitempty"`
	Message   string         `json:"message,omitempty"`
	Result    *verify.Result `json:"result,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// NewEvent builds the event for a run outcome. The run ID comes from
// result whenever there is one, so the event matches the run's log lines.
func NewEvent(url string, result *verify.Result, err error) Event {
	event := Event{
		RunID:     uuid.NewString(),
		URL:       url,
		Timestamp: time.Now().UTC(),
	}
	if result != nil {
		event.RunID = result.RunID
		event.URL = result.URL
	}

	if err != nil {
		event.Status = StatusFailed
		event.ErrorKind = verify.Kind(err)
		event.Message = err.Error()
		return event
	}

	event.Status = StatusSucceeded
	event.Result = result
	return event
}
