// Package rank turns a user's resume embedding and target title into
// an ordered top-K list of completed job postings.
package rank

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"jobmatch-engine/internal/domain"
	"jobmatch-engine/internal/store"
)

// ErrNoResumeEmbedding is the ranking precondition failure: the user
// has no profile or their resume has not been embedded yet.
var ErrNoResumeEmbedding = errors.New("no resume embedding available")

type Recommender struct {
	store *store.Store
	log   *slog.Logger
}

func NewRecommender(st *store.Store, log *slog.Logger) *Recommender {
	return &Recommender{store: st, log: log.With("component", "rank")}
}

type scored struct {
	job   domain.JobPosting
	final float64
}

// Recommend scores every completed, embedded posting against the
// user's resume embedding and returns the top limit postings. The
// returned postings carry no embedding or score fields. Reads the
// persisted state as of the query; no freshness beyond that.
func (r *Recommender) Recommend(ctx context.Context, userID int64, limit int) ([]domain.JobPosting, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	profile, err := r.store.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("user %d: %w", userID, ErrNoResumeEmbedding)
		}
		return nil, err
	}
	if !profile.HasResumeEmbedding() {
		return nil, fmt.Errorf("user %d: %w", userID, ErrNoResumeEmbedding)
	}

	// Related-title expansion is computed and logged, but not yet an
	// input to the score itself.
	r.log.Debug("related titles", "user_id", userID, "titles", RelatedTitles(profile.JobTitle))

	candidates, err := r.store.ListCompletedWithEmbedding(ctx)
	if err != nil {
		return nil, fmt.Errorf("load candidates: %w", err)
	}

	ranked := make([]scored, 0, len(candidates))
	for _, job := range candidates {
		sim := CosineSimilarity(job.Embedding, profile.ResumeEmbedding)
		if sim <= minSimilarity {
			continue
		}
		ranked = append(ranked, scored{
			job:   job,
			final: finalScore(sim, TitleMatchScore(job.Title, profile.JobTitle)),
		})
	}

	// Ties break by ascending ID, i.e. creation order.
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].final != ranked[j].final {
			return ranked[i].final > ranked[j].final
		}
		return ranked[i].job.ID < ranked[j].job.ID
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	out := make([]domain.JobPosting, 0, len(ranked))
	for _, s := range ranked {
		job := s.job
		job.Embedding = nil // callers never see raw vectors
		out = append(out, job)
	}

	r.log.Info("recommendations computed", "user_id", userID, "candidates", len(candidates), "returned", len(out))
	return out, nil
}
