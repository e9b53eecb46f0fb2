// Package jobs is the intake surface for job postings: validate,
// durably store, then hand the posting to the embedding pipeline.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"jobmatch-engine/internal/domain"
	"jobmatch-engine/internal/embed"
	"jobmatch-engine/internal/events"
	"jobmatch-engine/internal/store"
)

// ErrInvalidInput marks intake validation failures; they are rejected
// synchronously and never reach the pipeline.
var ErrInvalidInput = errors.New("invalid job posting")

// CreateInput is the caller-facing shape of a new posting.
type CreateInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Company     string `json:"company"`
	ApplyURL    string `json:"applyUrl"`
}

func (in CreateInput) validate() error {
	var missing []string
	if strings.TrimSpace(in.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(in.Description) == "" {
		missing = append(missing, "description")
	}
	if strings.TrimSpace(in.Company) == "" {
		missing = append(missing, "company")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidInput, strings.Join(missing, ", "))
	}
	return nil
}

type Service struct {
	store *store.Store
	pub   *embed.Publisher
	hub   *events.Hub
	log   *slog.Logger
}

func NewService(st *store.Store, pub *embed.Publisher, hub *events.Hub, log *slog.Logger) *Service {
	return &Service{store: st, pub: pub, hub: hub, log: log.With("component", "jobs")}
}

// Create stores a posting and publishes its embedding request. The
// publish is strictly after the commit and its failure does not fail
// the request: the posting simply stays pending (the reaper, when
// enabled, eventually fails it).
func (s *Service) Create(ctx context.Context, in CreateInput) (domain.JobPosting, error) {
	if err := in.validate(); err != nil {
		return domain.JobPosting{}, err
	}

	job, err := s.store.CreateJob(ctx, domain.JobPosting{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Company:     strings.TrimSpace(in.Company),
		ApplyURL:    strings.TrimSpace(in.ApplyURL),
	})
	if err != nil {
		return domain.JobPosting{}, err
	}

	if err := s.pub.RequestJobEmbedding(job); err != nil {
		s.log.Warn("embed request not published, job stays pending", "job_id", job.ID, "error", err)
	}

	s.hub.Publish(events.JobEvent("", events.TypeJobCreated, job.ID))
	return job, nil
}

// CreateBulk stores a batch atomically, then publishes one embedding
// request per stored posting. A validation failure anywhere rejects
// the whole batch before any insert.
func (s *Service) CreateBulk(ctx context.Context, ins []CreateInput) ([]domain.JobPosting, error) {
	if len(ins) == 0 {
		return nil, fmt.Errorf("%w: empty batch", ErrInvalidInput)
	}
	postings := make([]domain.JobPosting, 0, len(ins))
	for i, in := range ins {
		if err := in.validate(); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		postings = append(postings, domain.JobPosting{
			Title:       strings.TrimSpace(in.Title),
			Description: strings.TrimSpace(in.Description),
			Company:     strings.TrimSpace(in.Company),
			ApplyURL:    strings.TrimSpace(in.ApplyURL),
		})
	}

	jobs, err := s.store.CreateJobs(ctx, postings)
	if err != nil {
		return nil, err
	}

	for _, job := range jobs {
		if err := s.pub.RequestJobEmbedding(job); err != nil {
			s.log.Warn("embed request not published, job stays pending", "job_id", job.ID, "error", err)
		}
		s.hub.Publish(events.JobEvent("", events.TypeJobCreated, job.ID))
	}

	s.log.Info("bulk created", "count", len(jobs))
	return jobs, nil
}

func (s *Service) Get(ctx context.Context, id int64) (domain.JobPosting, error) {
	return s.store.GetJob(ctx, id)
}

func (s *Service) List(ctx context.Context, limit int) ([]domain.JobPosting, error) {
	return s.store.ListJobs(ctx, limit)
}

func (s *Service) FindByEmbedding(ctx context.Context, vec []float64) ([]domain.JobPosting, error) {
	return s.store.FindByEmbedding(ctx, vec)
}

// Delete removes a posting. Administrative: the pipeline itself never
// deletes records.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteJob(ctx, id); err != nil {
		return err
	}
	s.hub.Publish(events.JobEvent("", events.TypeJobDeleted, id))
	return nil
}
