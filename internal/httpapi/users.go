package httpapi

import (
	"errors"
	"net/http"

	"jobmatch-engine/internal/domain"
	"jobmatch-engine/internal/store"
	"jobmatch-engine/internal/users"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in users.RegisterInput
	if !decodeJSON(w, r, &in) {
		return
	}
	user, err := s.Users.Register(r.Context(), in)
	if err != nil {
		switch {
		case errors.Is(err, users.ErrInvalidInput):
			writeError(w, r, http.StatusBadRequest, "invalid_input", err.Error())
		case errors.Is(err, store.ErrEmailTaken):
			writeError(w, r, http.StatusConflict, "email_taken", "an account with this email already exists")
		default:
			s.internal(w, r, err)
		}
		return
	}

	token, err := s.Tokens.Issue(user.ID)
	if err != nil {
		s.internal(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"user": user, "token": token})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}
	user, err := s.Users.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			writeError(w, r, http.StatusUnauthorized, "invalid_credentials", "email or password is wrong")
			return
		}
		s.internal(w, r, err)
		return
	}

	token, err := s.Tokens.Issue(user.ID)
	if err != nil {
		s.internal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user, "token": token})
}

// profileResponse adds a readiness flag so clients can poll for the
// moment recommendations become available, without ever seeing the
// raw embedding.
type profileResponse struct {
	domain.UserProfile
	ResumeReady bool `json:"resumeReady"`
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.Users.Profile(r.Context(), UserIDFrom(r.Context()))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "not_found", "profile not found")
			return
		}
		s.internal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profileResponse{
		UserProfile: profile,
		ResumeReady: profile.HasResumeEmbedding(),
	})
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var in struct {
		JobTitle string `json:"jobTitle"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}
	userID := UserIDFrom(r.Context())
	if err := s.Users.UpdateJobTitle(r.Context(), userID, in.JobTitle); err != nil {
		switch {
		case errors.Is(err, users.ErrInvalidInput):
			writeError(w, r, http.StatusBadRequest, "invalid_input", err.Error())
		case errors.Is(err, store.ErrNotFound):
			writeError(w, r, http.StatusNotFound, "not_found", "profile not found")
		default:
			s.internal(w, r, err)
		}
		return
	}
	s.handleProfile(w, r)
}

// handleUploadResume accepts multipart form uploads under the "file"
// field, or a raw body when the request is not multipart.
func (s *Server) handleUploadResume(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFrom(r.Context())

	var (
		body        = r.Body
		contentType = r.Header.Get("Content-Type")
	)
	if mf, mh, err := r.FormFile("file"); err == nil {
		defer mf.Close()
		body = mf
		contentType = mh.Header.Get("Content-Type")
	}

	if err := s.Users.UploadResume(r.Context(), userID, body, contentType); err != nil {
		switch {
		case errors.Is(err, users.ErrInvalidInput):
			writeError(w, r, http.StatusBadRequest, "invalid_input", err.Error())
		case errors.Is(err, store.ErrNotFound):
			writeError(w, r, http.StatusNotFound, "not_found", "profile not found")
		default:
			s.internal(w, r, err)
		}
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{"status": "processing"})
}
