package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"jobmatch-engine/internal/domain"
	"jobmatch-engine/internal/jobs"
	"jobmatch-engine/internal/rank"
	"jobmatch-engine/internal/store"
)

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var in jobs.CreateInput
	if !decodeJSON(w, r, &in) {
		return
	}
	job, err := s.Jobs.Create(r.Context(), in)
	if err != nil {
		if errors.Is(err, jobs.ErrInvalidInput) {
			writeError(w, r, http.StatusBadRequest, "invalid_input", err.Error())
			return
		}
		s.internal(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, job)
}

func (s *Server) handleCreateJobsBulk(w http.ResponseWriter, r *http.Request) {
	var ins []jobs.CreateInput
	if !decodeJSON(w, r, &ins) {
		return
	}
	created, err := s.Jobs.CreateBulk(r.Context(), ins)
	if err != nil {
		if errors.Is(err, jobs.ErrInvalidInput) {
			writeError(w, r, http.StatusBadRequest, "invalid_input", err.Error())
			return
		}
		s.internal(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 200)
	list, err := s.Jobs.List(r.Context(), limit)
	if err != nil {
		s.internal(w, r, err)
		return
	}
	if list == nil {
		list = []domain.JobPosting{} // never null in the response
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	job, err := s.Jobs.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "not_found", "job not found")
			return
		}
		s.internal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleDeleteJob(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.Jobs.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "not_found", "job not found")
			return
		}
		s.internal(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSearchByEmbedding returns jobs whose stored embedding exactly
// matches the query vector, e.g. /jobs/search?embedding=0.1,0.2,0.3.
func (s *Server) handleSearchByEmbedding(w http.ResponseWriter, r *http.Request) {
	vec, err := queryVector(r, "embedding")
	if err != nil || len(vec) == 0 {
		writeError(w, r, http.StatusBadRequest, "invalid_input",
			"embedding must be a comma-separated list of numbers")
		return
	}
	list, err := s.Jobs.FindByEmbedding(r.Context(), vec)
	if err != nil {
		s.internal(w, r, err)
		return
	}
	if list == nil {
		list = []domain.JobPosting{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	// Unparsable or missing limit falls back to the ranking default.
	limit := queryInt(r, "limit", 0)
	list, err := s.Rank.Recommend(r.Context(), UserIDFrom(r.Context()), limit)
	if err != nil {
		if errors.Is(err, rank.ErrNoResumeEmbedding) {
			writeError(w, r, http.StatusPreconditionFailed, "no_resume_embedding",
				"upload a resume and wait for it to be processed")
			return
		}
		s.internal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) internal(w http.ResponseWriter, r *http.Request, err error) {
	s.Log.Error("request failed", "path", r.URL.Path, "error", err, "request_id", requestIDFrom(r.Context()))
	writeError(w, r, http.StatusInternalServerError, "internal", "internal error")
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, r, http.StatusBadRequest, "invalid_id", "id must be a positive integer")
		return 0, false
	}
	return id, true
}

// queryVector parses a float vector from a query parameter. The
// parameter may repeat and each value may be comma-separated.
func queryVector(r *http.Request, name string) ([]float64, error) {
	var out []float64
	for _, raw := range r.URL.Query()[name] {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			f, err := strconv.ParseFloat(part, 64)
			if err != nil {
				return nil, err
			}
			out = append(out, f)
		}
	}
	return out, nil
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
