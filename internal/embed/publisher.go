// Package embed is the engine's side of the embedding pipeline: the
// publisher hands job and resume texts to the model service over the
// bus, the consumer applies whatever comes back. Neither end ever
// blocks on the other.
package embed

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"jobmatch-engine/internal/bus"
	"jobmatch-engine/internal/domain"
)

// Publisher emits embedding requests. Fire-and-forget: a successful
// return means the broker accepted the message, nothing more. The
// caller must have durably stored the record before publishing.
type Publisher struct {
	bus bus.Bus
	log *slog.Logger
}

func NewPublisher(b bus.Bus, log *slog.Logger) *Publisher {
	return &Publisher{bus: b, log: log.With("component", "embed.publisher")}
}

// RequestJobEmbedding asks the model service to embed a posting's
// combined title and description.
func (p *Publisher) RequestJobEmbedding(job domain.JobPosting) error {
	req := domain.EmbedRequest{
		TraceID: domain.NewTraceID(),
		JobID:   job.ID,
		Text:    job.EmbeddingText(),
	}
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal embed request: %w", err)
	}
	if err := p.bus.Publish(domain.TopicJobProcess, data); err != nil {
		return fmt.Errorf("publish embed request for job %d: %w", job.ID, err)
	}
	p.log.Debug("published embed request", "job_id", job.ID, "trace_id", req.TraceID)
	return nil
}

// RequestResumeEmbedding asks the model service to embed a user's
// extracted resume text.
func (p *Publisher) RequestResumeEmbedding(userID int64, text string) error {
	req := domain.ResumeUploaded{
		TraceID: domain.NewTraceID(),
		UserID:  userID,
		Resume:  text,
	}
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal resume request: %w", err)
	}
	if err := p.bus.Publish(domain.TopicResumeUploaded, data); err != nil {
		return fmt.Errorf("publish resume request for user %d: %w", userID, err)
	}
	p.log.Debug("published resume request", "user_id", userID, "trace_id", req.TraceID)
	return nil
}

// RequestFetch asks the board fetcher to look for postings matching
// the given titles.
func (p *Publisher) RequestFetch(jobTitles []string) error {
	req := domain.FetchRequest{
		TraceID:   domain.NewTraceID(),
		JobTitles: jobTitles,
	}
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal fetch request: %w", err)
	}
	if err := p.bus.Publish(domain.TopicJobFetch, data); err != nil {
		return fmt.Errorf("publish fetch request: %w", err)
	}
	p.log.Debug("published fetch request", "titles", jobTitles, "trace_id", req.TraceID)
	return nil
}
