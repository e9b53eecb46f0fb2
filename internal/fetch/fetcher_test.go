package fetch

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"jobmatch-engine/internal/bus"
	"jobmatch-engine/internal/domain"
	"jobmatch-engine/internal/embed"
	"jobmatch-engine/internal/events"
	"jobmatch-engine/internal/jobs"
	"jobmatch-engine/internal/store"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFetcherCreatesMatchingPostings(t *testing.T) {
	srv := newBoardServer(t)
	ctx := context.Background()

	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	b := bus.NewMemoryBus(bus.DefaultConfig())
	t.Cleanup(func() { _ = b.Close() })

	js := jobs.NewService(st, embed.NewPublisher(b, discard()), events.NewHub(), discard())
	scraper := NewBoardScraper(srv.URL, 100, 10)
	f := New(b, scraper, js, []Board{{Slug: "acme", Name: "Acme Corp"}}, discard())

	req, _ := json.Marshal(domain.FetchRequest{
		TraceID:   domain.NewTraceID(),
		JobTitles: []string{"Backend Developer"},
	})
	f.handle(ctx, req)

	got, err := st.ListJobs(ctx, -1)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("stored %d postings, want 1: %+v", len(got), got)
	}
	if got[0].Title != "Backend Developer" || got[0].Company != "Acme Corp" {
		t.Fatalf("stored %+v", got[0])
	}
	if got[0].Status != domain.StatusPending {
		t.Fatalf("fetched posting status %q, want pending", got[0].Status)
	}
}

func TestFetcherIgnoresBadRequests(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = st.Close() })

	b := bus.NewMemoryBus(bus.DefaultConfig())
	t.Cleanup(func() { _ = b.Close() })

	js := jobs.NewService(st, embed.NewPublisher(b, discard()), events.NewHub(), discard())
	f := New(b, NewBoardScraper("http://127.0.0.1:0", 100, 10), js, nil, discard())

	ctx := context.Background()
	f.handle(ctx, []byte("not json"))
	f.handle(ctx, []byte(`{"jobTitles":[]}`))
	f.handle(ctx, []byte(`{"jobTitles":["  "]}`))

	got, _ := st.ListJobs(ctx, -1)
	if len(got) != 0 {
		t.Fatalf("bad requests stored %d postings", len(got))
	}
}
