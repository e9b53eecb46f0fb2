package store

import (
	"context"
	"errors"
	"testing"

	"jobmatch-engine/internal/domain"
)

func createUser(t *testing.T, s *Store, email string) domain.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), domain.User{
		Email:        email,
		FirstName:    "Ada",
		PasswordHash: "x",
	}, "Backend Developer")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func TestCreateUserAndProfile(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := createUser(t, s, "ada@example.com")
	if u.ID == 0 {
		t.Fatal("expected an assigned ID")
	}

	p, err := s.GetProfile(ctx, u.ID)
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if p.JobTitle != "Backend Developer" {
		t.Fatalf("job title = %q", p.JobTitle)
	}
	if p.HasResumeEmbedding() {
		t.Fatal("new profile should have no resume embedding")
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	s := newTestStore(t)

	createUser(t, s, "ada@example.com")
	_, err := s.CreateUser(context.Background(), domain.User{
		Email:        "ada@example.com",
		PasswordHash: "y",
	}, "Developer")
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("duplicate email: %v, want ErrEmailTaken", err)
	}
}

func TestGetUserByEmail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := createUser(t, s, "ada@example.com")
	got, err := s.GetUserByEmail(ctx, "ada@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if got.ID != u.ID || got.FirstName != "Ada" {
		t.Fatalf("got %+v", got)
	}

	if _, err := s.GetUserByEmail(ctx, "nobody@example.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing user: %v, want ErrNotFound", err)
	}
}

func TestSetResumeEmbeddingIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := createUser(t, s, "ada@example.com")

	vec := []float64{0.5, 0.5}
	if err := s.SetResumeEmbedding(ctx, u.ID, vec); err != nil {
		t.Fatalf("first set: %v", err)
	}
	if err := s.SetResumeEmbedding(ctx, u.ID, vec); err != nil {
		t.Fatalf("second set: %v", err)
	}

	p, _ := s.GetProfile(ctx, u.ID)
	if !p.HasResumeEmbedding() || len(p.ResumeEmbedding) != 2 {
		t.Fatalf("profile after duplicate set: %+v", p)
	}
}

func TestProfileUpdatesOnMissingUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.UpdateJobTitle(ctx, 404, "Developer"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("update title: %v", err)
	}
	if err := s.SetResumeText(ctx, 404, "text"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("set text: %v", err)
	}
	if err := s.SetResumeEmbedding(ctx, 404, []float64{1}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("set embedding: %v", err)
	}
}

func TestSetResumeText(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := createUser(t, s, "ada@example.com")

	if err := s.SetResumeText(ctx, u.ID, "ten years of Go"); err != nil {
		t.Fatalf("set text: %v", err)
	}
	p, _ := s.GetProfile(ctx, u.ID)
	if p.ResumeText != "ten years of Go" {
		t.Fatalf("resume text = %q", p.ResumeText)
	}
}
