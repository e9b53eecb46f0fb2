package fetch

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"jobmatch-engine/internal/bus"
	"jobmatch-engine/internal/domain"
	"jobmatch-engine/internal/jobs"
)

// QueueGroup shared by fetcher instances so each keyword request is
// scraped once.
const QueueGroup = "fetcher"

// Fetcher consumes keyword requests and feeds matching board postings
// into the intake service.
type Fetcher struct {
	bus     bus.Bus
	scraper *BoardScraper
	jobs    *jobs.Service
	boards  []Board
	log     *slog.Logger
}

func New(b bus.Bus, scraper *BoardScraper, js *jobs.Service, boards []Board, log *slog.Logger) *Fetcher {
	return &Fetcher{
		bus:     b,
		scraper: scraper,
		jobs:    js,
		boards:  boards,
		log:     log.With("component", "fetch"),
	}
}

// Run blocks consuming job.fetch until ctx is cancelled. Requests are
// handled inline; a request arriving mid-scrape waits its turn.
func (f *Fetcher) Run(ctx context.Context) error {
	sub, err := f.bus.QueueSubscribe(domain.TopicJobFetch, QueueGroup)
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	f.log.Info("fetcher running", "boards", len(f.boards))

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-sub.Messages():
			if !ok {
				return nil
			}
			f.handle(ctx, msg.Data)
		}
	}
}

func (f *Fetcher) handle(ctx context.Context, data []byte) {
	var req domain.FetchRequest
	if err := json.Unmarshal(data, &req); err != nil {
		f.log.Warn("malformed fetch request dropped", "error", err)
		return
	}

	titles := make([]string, 0, len(req.JobTitles))
	for _, t := range req.JobTitles {
		if t = strings.TrimSpace(t); t != "" {
			titles = append(titles, t)
		}
	}
	if len(titles) == 0 {
		f.log.Warn("fetch request with no titles dropped", "trace_id", req.TraceID)
		return
	}

	log := f.log.With("trace_id", req.TraceID)

	var batch []jobs.CreateInput
	for _, board := range f.boards {
		postings, err := f.scraper.ScrapeBoard(ctx, board)
		if err != nil {
			// one board down must not sink the rest
			log.Warn("board scrape failed", "board", board.Slug, "error", err)
			continue
		}
		for _, p := range postings {
			if !matchesAny(p.Title, titles) {
				continue
			}
			batch = append(batch, jobs.CreateInput{
				Title:       p.Title,
				Description: p.Description,
				Company:     p.Company,
				ApplyURL:    p.ApplyURL,
			})
		}
	}

	if len(batch) == 0 {
		log.Info("fetch found no matching postings", "titles", titles)
		return
	}

	created, err := f.jobs.CreateBulk(ctx, batch)
	if err != nil {
		log.Error("fetched postings not stored", "count", len(batch), "error", err)
		return
	}
	log.Info("fetched postings stored", "count", len(created), "titles", titles)
}

func matchesAny(jobTitle string, wanted []string) bool {
	low := strings.ToLower(jobTitle)
	for _, w := range wanted {
		if strings.Contains(low, strings.ToLower(w)) {
			return true
		}
	}
	return false
}
