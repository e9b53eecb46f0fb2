package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"jobmatch-engine/internal/domain"
)

// CreateUser inserts a user and their profile row in one transaction.
// A duplicate email reports ErrEmailTaken.
func (s *Store) CreateUser(ctx context.Context, u domain.User, jobTitle string) (domain.User, error) {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.User{}, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
INSERT INTO users (email, first_name, last_name, password_hash, created_at)
VALUES (?, ?, ?, ?, ?);`,
		u.Email, u.FirstName, u.LastName, u.PasswordHash, u.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return domain.User{}, fmt.Errorf("%s: %w", u.Email, ErrEmailTaken)
		}
		return domain.User{}, fmt.Errorf("insert user: %w", err)
	}
	u.ID, _ = res.LastInsertId()

	if _, err := tx.ExecContext(ctx, `
INSERT INTO profiles (user_id, job_title, updated_at)
VALUES (?, ?, ?);`,
		u.ID, jobTitle, u.CreatedAt.Format(time.RFC3339Nano)); err != nil {
		return domain.User{}, fmt.Errorf("insert profile: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.User{}, err
	}
	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, email, first_name, last_name, password_hash, created_at
FROM users WHERE email = ?;`, email)
	return scanUser(row, email)
}

func (s *Store) GetUser(ctx context.Context, id int64) (domain.User, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, email, first_name, last_name, password_hash, created_at
FROM users WHERE id = ?;`, id)
	return scanUser(row, fmt.Sprint(id))
}

func scanUser(row *sql.Row, key string) (domain.User, error) {
	var u domain.User
	var createdAt string
	err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash, &createdAt)
	if err == sql.ErrNoRows {
		return domain.User{}, fmt.Errorf("user %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("get user %s: %w", key, err)
	}
	u.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return u, nil
}

func (s *Store) GetProfile(ctx context.Context, userID int64) (domain.UserProfile, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT user_id, job_title, resume_text, resume_embedding, updated_at
FROM profiles WHERE user_id = ?;`, userID)

	var p domain.UserProfile
	var embedding, updatedAt string
	err := row.Scan(&p.UserID, &p.JobTitle, &p.ResumeText, &embedding, &updatedAt)
	if err == sql.ErrNoRows {
		return domain.UserProfile{}, fmt.Errorf("profile for user %d: %w", userID, ErrNotFound)
	}
	if err != nil {
		return domain.UserProfile{}, fmt.Errorf("get profile for user %d: %w", userID, err)
	}
	p.ResumeEmbedding = decodeVec(embedding)
	p.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return p, nil
}

func (s *Store) UpdateJobTitle(ctx context.Context, userID int64, jobTitle string) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE profiles SET job_title = ?, updated_at = ? WHERE user_id = ?;`,
		jobTitle, time.Now().UTC().Format(time.RFC3339Nano), userID)
	if err != nil {
		return fmt.Errorf("update job title for user %d: %w", userID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("profile for user %d: %w", userID, ErrNotFound)
	}
	return nil
}

// SetResumeText stores the extracted resume text alongside the profile.
func (s *Store) SetResumeText(ctx context.Context, userID int64, text string) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE profiles SET resume_text = ?, updated_at = ? WHERE user_id = ?;`,
		text, time.Now().UTC().Format(time.RFC3339Nano), userID)
	if err != nil {
		return fmt.Errorf("set resume text for user %d: %w", userID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("profile for user %d: %w", userID, ErrNotFound)
	}
	return nil
}

// SetResumeEmbedding applies a resume embedding result. Same contract
// as Store.ApplyEmbedding on jobs: keyed field-set, last write wins,
// duplicates expected.
func (s *Store) SetResumeEmbedding(ctx context.Context, userID int64, vec []float64) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE profiles SET resume_embedding = ?, updated_at = ? WHERE user_id = ?;`,
		encodeVec(vec), time.Now().UTC().Format(time.RFC3339Nano), userID)
	if err != nil {
		return fmt.Errorf("set resume embedding for user %d: %w", userID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("profile for user %d: %w", userID, ErrNotFound)
	}
	return nil
}
