// Package users handles registration, login and resume ingestion.
// Resume embeddings arrive later over the bus with the same
// idempotent-update contract as job embeddings.
package users

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"jobmatch-engine/internal/domain"
	"jobmatch-engine/internal/embed"
	"jobmatch-engine/internal/resume"
	"jobmatch-engine/internal/store"
)

var (
	ErrInvalidInput       = errors.New("invalid user input")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// RegisterInput is the registration payload.
type RegisterInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	JobTitle  string `json:"jobTitle"`
}

type Service struct {
	store *store.Store
	pub   *embed.Publisher
	log   *slog.Logger
}

func NewService(st *store.Store, pub *embed.Publisher, log *slog.Logger) *Service {
	return &Service{store: st, pub: pub, log: log.With("component", "users")}
}

// Register creates the user plus profile and kicks off a board fetch
// for their target title. The fetch is fire-and-forget; registration
// succeeds regardless.
func (s *Service) Register(ctx context.Context, in RegisterInput) (domain.User, error) {
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.JobTitle = strings.TrimSpace(in.JobTitle)
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		return domain.User{}, fmt.Errorf("%w: email", ErrInvalidInput)
	}
	if len(in.Password) < 8 {
		return domain.User{}, fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidInput)
	}
	if in.JobTitle == "" {
		return domain.User{}, fmt.Errorf("%w: jobTitle", ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.store.CreateUser(ctx, domain.User{
		Email:        in.Email,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		PasswordHash: string(hash),
	}, in.JobTitle)
	if err != nil {
		return domain.User{}, err
	}

	if err := s.pub.RequestFetch([]string{in.JobTitle}); err != nil {
		s.log.Warn("fetch request not published", "user_id", user.ID, "error", err)
	}

	s.log.Info("user registered", "user_id", user.ID)
	return user, nil
}

// Login verifies credentials and returns the user.
func (s *Service) Login(ctx context.Context, email, password string) (domain.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return domain.User{}, ErrInvalidCredentials
	}
	return user, nil
}

func (s *Service) Profile(ctx context.Context, userID int64) (domain.UserProfile, error) {
	return s.store.GetProfile(ctx, userID)
}

func (s *Service) UpdateJobTitle(ctx context.Context, userID int64, jobTitle string) error {
	jobTitle = strings.TrimSpace(jobTitle)
	if jobTitle == "" {
		return fmt.Errorf("%w: jobTitle", ErrInvalidInput)
	}
	return s.store.UpdateJobTitle(ctx, userID, jobTitle)
}

// UploadResume extracts text from the uploaded file, stores it on the
// profile and publishes it for embedding. The embedding arrives
// asynchronously; until then ranking reports a precondition failure.
func (s *Service) UploadResume(ctx context.Context, userID int64, file io.Reader, contentType string) error {
	text, err := resume.ExtractText(file, contentType)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if text == "" {
		return fmt.Errorf("%w: empty resume", ErrInvalidInput)
	}

	if err := s.store.SetResumeText(ctx, userID, text); err != nil {
		return err
	}

	if err := s.pub.RequestResumeEmbedding(userID, text); err != nil {
		s.log.Warn("resume embed request not published", "user_id", userID, "error", err)
	}

	s.log.Info("resume uploaded", "user_id", userID, "chars", len(text))
	return nil
}
