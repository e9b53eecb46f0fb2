package embed

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"jobmatch-engine/internal/bus"
	"jobmatch-engine/internal/domain"
	"jobmatch-engine/internal/events"
	"jobmatch-engine/internal/store"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type pipeline struct {
	store *store.Store
	bus   *bus.MemoryBus
}

// startPipeline wires a store, a memory bus and a running consumer the
// way cmd/engine does.
func startPipeline(t *testing.T) pipeline {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	b := bus.NewMemoryBus(bus.DefaultConfig())
	t.Cleanup(func() { _ = b.Close() })

	c := NewConsumer(st, b, events.NewHub(), discard())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = c.Start(ctx) }()

	// let the consumer subscribe before the test publishes
	time.Sleep(20 * time.Millisecond)

	return pipeline{store: st, bus: b}
}

func publishJSON(t *testing.T, b bus.Bus, topic string, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Publish(topic, data); err != nil {
		t.Fatalf("publish %s: %v", topic, err)
	}
}

func waitForStatus(t *testing.T, st *store.Store, jobID int64, want domain.Status) domain.JobPosting {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		j, err := st.GetJob(context.Background(), jobID)
		if err == nil && j.Status == want {
			return j
		}
		time.Sleep(10 * time.Millisecond)
	}
	j, _ := st.GetJob(context.Background(), jobID)
	t.Fatalf("job %d never reached %q, last state %+v", jobID, want, j)
	return domain.JobPosting{}
}

func TestConsumerCompletesJob(t *testing.T) {
	p := startPipeline(t)

	job, err := p.store.CreateJob(context.Background(), domain.JobPosting{
		Title: "Backend Developer", Description: "d", Company: "c",
	})
	if err != nil {
		t.Fatal(err)
	}

	publishJSON(t, p.bus, domain.TopicJobProcessed, domain.EmbedResult{
		JobID:     job.ID,
		Embedding: []float64{0.1, 0.2},
	})

	got := waitForStatus(t, p.store, job.ID, domain.StatusCompleted)
	if len(got.Embedding) != 2 {
		t.Fatalf("embedding = %v", got.Embedding)
	}
	if got.Error != "" {
		t.Fatalf("error = %q", got.Error)
	}
}

func TestConsumerFailsJobOnRemoteError(t *testing.T) {
	p := startPipeline(t)

	job, _ := p.store.CreateJob(context.Background(), domain.JobPosting{
		Title: "Backend Developer", Description: "d", Company: "c",
	})

	publishJSON(t, p.bus, domain.TopicJobProcessed, domain.EmbedResult{
		JobID: job.ID,
		Error: "model overloaded",
	})

	got := waitForStatus(t, p.store, job.ID, domain.StatusFailed)
	if got.Error != "model overloaded" {
		t.Fatalf("error = %q", got.Error)
	}
}

func TestConsumerDuplicateDeliveryIsSafe(t *testing.T) {
	p := startPipeline(t)

	job, _ := p.store.CreateJob(context.Background(), domain.JobPosting{
		Title: "Backend Developer", Description: "d", Company: "c",
	})

	res := domain.EmbedResult{JobID: job.ID, Embedding: []float64{1, 1}}
	publishJSON(t, p.bus, domain.TopicJobProcessed, res)
	publishJSON(t, p.bus, domain.TopicJobProcessed, res)
	publishJSON(t, p.bus, domain.TopicJobProcessed, res)

	got := waitForStatus(t, p.store, job.ID, domain.StatusCompleted)
	if len(got.Embedding) != 2 {
		t.Fatalf("embedding = %v", got.Embedding)
	}
}

func TestConsumerSurvivesGarbage(t *testing.T) {
	p := startPipeline(t)

	// none of these may kill the loop
	_ = p.bus.Publish(domain.TopicJobProcessed, []byte("not json"))
	publishJSON(t, p.bus, domain.TopicJobProcessed, domain.EmbedResult{JobID: 0, Embedding: []float64{1}})
	publishJSON(t, p.bus, domain.TopicJobProcessed, domain.EmbedResult{JobID: 424242, Embedding: []float64{1}})

	job, _ := p.store.CreateJob(context.Background(), domain.JobPosting{
		Title: "Still alive", Description: "d", Company: "c",
	})
	publishJSON(t, p.bus, domain.TopicJobProcessed, domain.EmbedResult{
		JobID: job.ID, Embedding: []float64{1},
	})

	waitForStatus(t, p.store, job.ID, domain.StatusCompleted)
}

func TestConsumerAppliesResumeEmbedding(t *testing.T) {
	p := startPipeline(t)

	user, err := p.store.CreateUser(context.Background(), domain.User{
		Email: "ada@example.com", PasswordHash: "x",
	}, "Backend Developer")
	if err != nil {
		t.Fatal(err)
	}

	publishJSON(t, p.bus, domain.TopicResumeProcessed, domain.ResumeResult{
		UserID:    user.ID,
		Embedding: []float64{0.3, 0.7},
	})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		prof, err := p.store.GetProfile(context.Background(), user.ID)
		if err == nil && prof.HasResumeEmbedding() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("resume embedding never applied")
}
