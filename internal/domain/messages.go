package domain

import "github.com/google/uuid"

// Bus topics. Requests flow to the model service and the fetcher;
// results flow back. Delivery is at-least-once with no ordering, so
// every consumer of these messages must be idempotent.
const (
	TopicJobProcess      = "job.process"      // -> model: {jobId, text}
	TopicJobProcessed    = "job.processed"    // <- model: {jobId, embedding|error}
	TopicResumeUploaded  = "resume.uploaded"  // -> model: {userId, resume}
	TopicResumeProcessed = "resume.processed" // <- model: {userId, embedding|error}
	TopicJobFetch        = "job.fetch"        // -> fetcher: {jobTitles}
)

// EmbedRequest asks the model service for an embedding of a job's text.
type EmbedRequest struct {
	TraceID string `json:"traceId"`
	JobID   int64  `json:"jobId"`
	Text    string `json:"text"`
}

// EmbedResult is the model service's answer. Either Embedding is set
// or Error explains why it is not.
type EmbedResult struct {
	TraceID   string    `json:"traceId,omitempty"`
	JobID     int64     `json:"jobId"`
	Embedding []float64 `json:"embedding,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// ResumeUploaded asks the model service for an embedding of a user's
// extracted resume text.
type ResumeUploaded struct {
	TraceID string `json:"traceId"`
	UserID  int64  `json:"userId"`
	Resume  string `json:"resume"`
}

// ResumeResult carries a user's resume embedding back to the engine.
type ResumeResult struct {
	TraceID   string    `json:"traceId,omitempty"`
	UserID    int64     `json:"userId"`
	Embedding []float64 `json:"embedding,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// FetchRequest triggers the board fetcher for a set of job titles.
type FetchRequest struct {
	TraceID   string   `json:"traceId"`
	JobTitles []string `json:"jobTitles"`
}

// NewTraceID returns a fresh trace ID for correlating a request with
// its eventual result in logs.
func NewTraceID() string {
	return uuid.NewString()
}
