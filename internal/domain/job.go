package domain

import "time"

// Status is the lifecycle state of a job posting's embedding pipeline.
type Status string

const (
	StatusPending Status = "pending"
	// StatusProcessing is reserved for "publish acknowledged, awaiting
	// result". The pipeline never commits it today; downstream readers
	// must not depend on observing it.
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether the pipeline drives no further transition
// out of this state.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// JobPosting is one stored job. Text fields are immutable after
// creation; Embedding, Status and Error are owned by the result
// consumer.
type JobPosting struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Company     string    `json:"company"`
	ApplyURL    string    `json:"applyUrl"`
	Embedding   []float64 `json:"embedding,omitempty"`
	Status      Status    `json:"status"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// EmbeddingText is the text sent to the model service for this
// posting: title and description joined with a period separator.
func (j JobPosting) EmbeddingText() string {
	return j.Title + ". " + j.Description
}
