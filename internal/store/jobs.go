package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"jobmatch-engine/internal/domain"
)

// encodeVec stores an embedding as a JSON array in a TEXT column.
// Dimensionality is model-defined and not enforced here.
func encodeVec(v []float64) string {
	if len(v) == 0 {
		return "[]"
	}
	b, _ := json.Marshal(v)
	return string(b)
}

func decodeVec(s string) []float64 {
	if s == "" || s == "[]" {
		return nil
	}
	var v []float64
	_ = json.Unmarshal([]byte(s), &v)
	return v
}

// CreateJob inserts a posting in the pending state and returns it with
// its assigned ID. Callers publish the embedding request only after
// this returns: publish happens strictly after the durable commit.
func (s *Store) CreateJob(ctx context.Context, j domain.JobPosting) (domain.JobPosting, error) {
	j.Status = domain.StatusPending
	j.Embedding = nil
	j.Error = ""
	if j.CreatedAt.IsZero() {
		j.CreatedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx, `
INSERT INTO jobs (title, description, company, apply_url, status, created_at)
VALUES (?, ?, ?, ?, ?, ?);`,
		j.Title, j.Description, j.Company, j.ApplyURL, string(j.Status), j.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return domain.JobPosting{}, fmt.Errorf("insert job: %w", err)
	}
	j.ID, _ = res.LastInsertId()
	return j, nil
}

// CreateJobs inserts a batch atomically: either every row commits or
// none does. Publishing for the batch therefore happens only for rows
// that are durably stored.
func (s *Store) CreateJobs(ctx context.Context, js []domain.JobPosting) ([]domain.JobPosting, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	out := make([]domain.JobPosting, 0, len(js))
	for _, j := range js {
		j.Status = domain.StatusPending
		j.Embedding = nil
		j.Error = ""
		if j.CreatedAt.IsZero() {
			j.CreatedAt = time.Now().UTC()
		}
		res, err := tx.ExecContext(ctx, `
INSERT INTO jobs (title, description, company, apply_url, status, created_at)
VALUES (?, ?, ?, ?, ?, ?);`,
			j.Title, j.Description, j.Company, j.ApplyURL, string(j.Status), j.CreatedAt.Format(time.RFC3339Nano))
		if err != nil {
			return nil, fmt.Errorf("insert job %q: %w", j.Title, err)
		}
		j.ID, _ = res.LastInsertId()
		out = append(out, j)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return out, nil
}

// ApplyEmbedding commits the completed state for a job. It is a plain
// keyed field-set: duplicates and late arrivals overwrite whatever is
// there (last write wins), including terminal states. A missing job is
// reported as ErrNotFound, never a crash.
func (s *Store) ApplyEmbedding(ctx context.Context, jobID int64, vec []float64) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE jobs SET embedding = ?, status = ?, error = '' WHERE id = ?;`,
		encodeVec(vec), string(domain.StatusCompleted), jobID)
	if err != nil {
		return fmt.Errorf("apply embedding for job %d: %w", jobID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("job %d: %w", jobID, ErrNotFound)
	}
	return nil
}

// MarkFailed commits the failed state with a reason. Same overwrite
// semantics as ApplyEmbedding; callable on any current state.
func (s *Store) MarkFailed(ctx context.Context, jobID int64, msg string) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE jobs SET status = ?, error = ? WHERE id = ?;`,
		string(domain.StatusFailed), msg, jobID)
	if err != nil {
		return fmt.Errorf("mark job %d failed: %w", jobID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("job %d: %w", jobID, ErrNotFound)
	}
	return nil
}

const jobColumns = `id, title, description, company, apply_url, embedding, status, error, created_at`

func scanJob(sc interface{ Scan(...any) error }) (domain.JobPosting, error) {
	var j domain.JobPosting
	var embedding, status, createdAt string
	if err := sc.Scan(&j.ID, &j.Title, &j.Description, &j.Company, &j.ApplyURL,
		&embedding, &status, &j.Error, &createdAt); err != nil {
		return domain.JobPosting{}, err
	}
	j.Embedding = decodeVec(embedding)
	j.Status = domain.Status(status)
	j.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return j, nil
}

func (s *Store) GetJob(ctx context.Context, id int64) (domain.JobPosting, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?;`, id)
	j, err := scanJob(row)
	if err == sql.ErrNoRows {
		return domain.JobPosting{}, fmt.Errorf("job %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return domain.JobPosting{}, fmt.Errorf("get job %d: %w", id, err)
	}
	return j, nil
}

// ListJobs returns postings in creation order, newest last.
// limit <= 0 means no limit.
func (s *Store) ListJobs(ctx context.Context, limit int) ([]domain.JobPosting, error) {
	if limit <= 0 {
		limit = -1 // sqlite: no limit
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT `+jobColumns+` FROM jobs ORDER BY id ASC LIMIT ?;`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectJobs(rows)
}

// ListCompletedWithEmbedding returns the ranking candidate set: jobs
// in the completed state whose embedding is non-empty, in creation
// order so downstream tie-breaks are deterministic.
func (s *Store) ListCompletedWithEmbedding(ctx context.Context) ([]domain.JobPosting, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT `+jobColumns+` FROM jobs
WHERE status = ? AND embedding != '[]'
ORDER BY id ASC;`, string(domain.StatusCompleted))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectJobs(rows)
}

// FindByEmbedding returns jobs whose stored embedding exactly matches
// the given vector.
func (s *Store) FindByEmbedding(ctx context.Context, vec []float64) ([]domain.JobPosting, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT `+jobColumns+` FROM jobs WHERE embedding = ? ORDER BY id ASC;`, encodeVec(vec))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectJobs(rows)
}

func (s *Store) DeleteJob(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?;`, id)
	if err != nil {
		return fmt.Errorf("delete job %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("job %d: %w", id, ErrNotFound)
	}
	return nil
}

// MarkStalePendingFailed fails every job still pending since before
// the cutoff. Used only by the optional reaper; the pipeline itself
// has no timeout.
func (s *Store) MarkStalePendingFailed(ctx context.Context, cutoff time.Time, reason string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
UPDATE jobs SET status = ?, error = ?
WHERE status = ? AND created_at < ?;`,
		string(domain.StatusFailed), reason,
		string(domain.StatusPending), cutoff.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("reap stale pending jobs: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func collectJobs(rows *sql.Rows) ([]domain.JobPosting, error) {
	var out []domain.JobPosting
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}
