package events

import (
	"encoding/json"
	"time"
)

// Event types published to the UI stream as the pipeline advances.
const (
	TypeJobCreated   = "job_created"
	TypeJobCompleted = "job_completed"
	TypeJobFailed    = "job_failed"
	TypeJobDeleted   = "job_deleted"
	TypeResumeReady  = "resume_ready"
)

type Event struct {
	Type      string          `json:"type"`
	Version   int             `json:"v"`
	At        time.Time       `json:"at"`
	RequestID string          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

func MakeEvent(reqID, typ string, v int, data any) string {
	var raw json.RawMessage
	if data != nil {
		b, _ := json.Marshal(data)
		raw = b
	}
	e := Event{
		Type:      typ,
		Version:   v,
		At:        time.Now().UTC(),
		RequestID: reqID,
		Data:      raw,
	}
	b, _ := json.Marshal(e)
	return string(b)
}

// JobEvent is the payload for job_* events.
func JobEvent(reqID, typ string, jobID int64) string {
	return MakeEvent(reqID, typ, 1, map[string]any{"id": jobID})
}
