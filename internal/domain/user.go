package domain

import "time"

// User is an account that can log in and receive recommendations.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// UserProfile carries the ranking inputs for a user: a target job
// title and, once resume processing completes, the resume embedding.
// ResumeEmbedding is mutated only by the resume result consumer.
type UserProfile struct {
	UserID          int64     `json:"userId"`
	JobTitle        string    `json:"jobTitle"`
	ResumeText      string    `json:"-"`
	ResumeEmbedding []float64 `json:"-"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// HasResumeEmbedding reports whether ranking can run for this profile.
func (p UserProfile) HasResumeEmbedding() bool {
	return len(p.ResumeEmbedding) > 0
}
