package embed

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"jobmatch-engine/internal/bus"
	"jobmatch-engine/internal/domain"
	"jobmatch-engine/internal/events"
	"jobmatch-engine/internal/store"
)

// QueueGroup shared by consumer instances so results are load-balanced
// rather than duplicated across replicas.
const QueueGroup = "engine"

// Consumer applies embedding results to the store. It is the single
// writer of terminal job state. Every handler converts failure into a
// terminal, inspectable state and never propagates an error back to
// the bus: a delivered message is handled exactly once from the
// consumer's perspective, and at-least-once redelivery of a previous
// message is safe because all writes are keyed field-sets.
type Consumer struct {
	store *store.Store
	bus   bus.Bus
	hub   *events.Hub
	log   *slog.Logger
}

func NewConsumer(st *store.Store, b bus.Bus, hub *events.Hub, log *slog.Logger) *Consumer {
	return &Consumer{
		store: st,
		bus:   b,
		hub:   hub,
		log:   log.With("component", "embed.consumer"),
	}
}

// Start subscribes to the result topics and blocks until ctx is done
// or the bus closes.
func (c *Consumer) Start(ctx context.Context) error {
	jobSub, err := c.bus.QueueSubscribe(domain.TopicJobProcessed, QueueGroup)
	if err != nil {
		return err
	}
	defer jobSub.Unsubscribe()

	resumeSub, err := c.bus.QueueSubscribe(domain.TopicResumeProcessed, QueueGroup)
	if err != nil {
		return err
	}
	defer resumeSub.Unsubscribe()

	c.log.Info("consumer started",
		"topics", []string{domain.TopicJobProcessed, domain.TopicResumeProcessed})

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-jobSub.Messages():
			if !ok {
				return bus.ErrClosed
			}
			c.handleJobResult(ctx, msg.Data)
		case msg, ok := <-resumeSub.Messages():
			if !ok {
				return bus.ErrClosed
			}
			c.handleResumeResult(ctx, msg.Data)
		}
	}
}

func (c *Consumer) handleJobResult(ctx context.Context, data []byte) {
	var res domain.EmbedResult
	if err := json.Unmarshal(data, &res); err != nil {
		c.log.Error("dropping malformed job result", "error", err)
		return
	}
	if res.JobID == 0 {
		c.log.Error("dropping job result without job id", "trace_id", res.TraceID)
		return
	}

	if res.Error != "" {
		c.failJob(ctx, res.JobID, res.Error)
		return
	}

	if err := c.store.ApplyEmbedding(ctx, res.JobID, res.Embedding); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Late result for a deleted job: report and move on.
			c.log.Warn("embed result for unknown job", "job_id", res.JobID, "trace_id", res.TraceID)
			return
		}
		// The update itself failed; still leave the record terminal.
		c.log.Error("apply embedding failed", "job_id", res.JobID, "error", err)
		c.failJob(ctx, res.JobID, err.Error())
		return
	}

	c.log.Info("job embedding applied", "job_id", res.JobID, "dims", len(res.Embedding), "trace_id", res.TraceID)
	c.hub.Publish(events.JobEvent("", events.TypeJobCompleted, res.JobID))
}

// failJob is best-effort: if even MarkFailed cannot reach the store
// there is nothing left to do but log.
func (c *Consumer) failJob(ctx context.Context, jobID int64, reason string) {
	if err := c.store.MarkFailed(ctx, jobID, reason); err != nil {
		c.log.Error("mark failed", "job_id", jobID, "reason", reason, "error", err)
		return
	}
	c.log.Warn("job marked failed", "job_id", jobID, "reason", reason)
	c.hub.Publish(events.JobEvent("", events.TypeJobFailed, jobID))
}

func (c *Consumer) handleResumeResult(ctx context.Context, data []byte) {
	var res domain.ResumeResult
	if err := json.Unmarshal(data, &res); err != nil {
		c.log.Error("dropping malformed resume result", "error", err)
		return
	}
	if res.UserID == 0 {
		c.log.Error("dropping resume result without user id", "trace_id", res.TraceID)
		return
	}
	if res.Error != "" {
		c.log.Warn("resume embedding failed remotely", "user_id", res.UserID, "reason", res.Error)
		return
	}

	if err := c.store.SetResumeEmbedding(ctx, res.UserID, res.Embedding); err != nil {
		c.log.Error("set resume embedding", "user_id", res.UserID, "error", err)
		return
	}

	c.log.Info("resume embedding applied", "user_id", res.UserID, "dims", len(res.Embedding), "trace_id", res.TraceID)
	c.hub.Publish(events.MakeEvent("", events.TypeResumeReady, 1, map[string]any{"userId": res.UserID}))
}
