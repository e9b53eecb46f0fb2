// The embed worker is a local stand-in for the external model service:
// it consumes embedding requests off the bus, calls an OpenAI-compatible
// embeddings endpoint and publishes results back. The engine only sees
// the result topics and never depends on this process's internals.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jobmatch-engine/internal/bus"
	"jobmatch-engine/internal/domain"
	"jobmatch-engine/internal/secrets"
)

const queueGroup = "embedworker"

type worker struct {
	bus    bus.Bus
	client *embedClient
	log    *slog.Logger
}

func main() {
	var (
		natsURL = flag.String("nats", "", "NATS server URL (required; the worker is pointless in-process)")
		baseURL = flag.String("api", "https://api.openai.com/v1", "embeddings API base URL")
		model   = flag.String("model", "text-embedding-3-small", "embedding model")
	)
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if *natsURL == "" {
		log.Error("missing -nats URL")
		os.Exit(1)
	}

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		log.Error("OPENAI_API_KEY is not set")
		os.Exit(1)
	}

	cfg := bus.DefaultNATSConfig()
	cfg.URL = *natsURL
	cfg.Name = "jobmatch-embedworker"
	cfg.Password = secrets.BrokerPassword()
	b, err := bus.NewNATSBus(cfg)
	if err != nil {
		log.Error("bus connect failed", "error", err)
		os.Exit(1)
	}
	defer b.Close()

	w := &worker{
		bus:    b,
		client: newEmbedClient(*baseURL, apiKey, *model, &http.Client{Timeout: 60 * time.Second}),
		log:    log,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := w.run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("worker exited", "error", err)
		os.Exit(1)
	}
}

func (w *worker) run(ctx context.Context) error {
	jobSub, err := w.bus.QueueSubscribe(domain.TopicJobProcess, queueGroup)
	if err != nil {
		return err
	}
	defer jobSub.Unsubscribe()

	resumeSub, err := w.bus.QueueSubscribe(domain.TopicResumeUploaded, queueGroup)
	if err != nil {
		return err
	}
	defer resumeSub.Unsubscribe()

	w.log.Info("worker started",
		"topics", []string{domain.TopicJobProcess, domain.TopicResumeUploaded})

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-jobSub.Messages():
			if !ok {
				return bus.ErrClosed
			}
			w.handleJob(ctx, msg.Data)
		case msg, ok := <-resumeSub.Messages():
			if !ok {
				return bus.ErrClosed
			}
			w.handleResume(ctx, msg.Data)
		}
	}
}

// handleJob always publishes a result: embedding on success, the error
// string otherwise. The engine turns the error into a failed posting.
func (w *worker) handleJob(ctx context.Context, data []byte) {
	var req domain.EmbedRequest
	if err := json.Unmarshal(data, &req); err != nil {
		w.log.Error("dropping malformed job request", "error", err)
		return
	}

	res := domain.EmbedResult{TraceID: req.TraceID, JobID: req.JobID}
	vec, err := w.client.Embed(ctx, req.Text)
	if err != nil {
		res.Error = err.Error()
		w.log.Warn("job embedding failed", "job_id", req.JobID, "error", err)
	} else {
		res.Embedding = vec
	}
	w.publish(domain.TopicJobProcessed, res)
}

func (w *worker) handleResume(ctx context.Context, data []byte) {
	var req domain.ResumeUploaded
	if err := json.Unmarshal(data, &req); err != nil {
		w.log.Error("dropping malformed resume request", "error", err)
		return
	}

	res := domain.ResumeResult{TraceID: req.TraceID, UserID: req.UserID}
	vec, err := w.client.Embed(ctx, req.Resume)
	if err != nil {
		res.Error = err.Error()
		w.log.Warn("resume embedding failed", "user_id", req.UserID, "error", err)
	} else {
		res.Embedding = vec
	}
	w.publish(domain.TopicResumeProcessed, res)
}

func (w *worker) publish(topic string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.log.Error("marshal result", "topic", topic, "error", err)
		return
	}
	if err := w.bus.Publish(topic, data); err != nil {
		w.log.Error("publish result", "topic", topic, "error", err)
	}
}
