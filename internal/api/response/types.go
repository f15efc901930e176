package response

import (
	"time"

	"github.com/inkpress/inkpress-go/internal/model"
)

// User represents a user in API responses
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// UserFromModel converts a model.User to a response User
func UserFromModel(u *model.User) User {
	return User{
		ID:        string(u.ID),
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

// AuthResponse is the response for authentication endpoints
type AuthResponse struct {
	User         User      `json:"user"`
	SessionToken string    `json:"session_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// AuthResponseFromSession creates an AuthResponse from a session
func AuthResponseFromSession(s *model.Session) AuthResponse {
	return AuthResponse{
		User:         UserFromModel(&s.User),
		SessionToken: s.Token,
		ExpiresAt:    s.ExpiresAt,
	}
}

// Job represents a demo formatting job in API responses
type Job struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	WordCount int       `json:"word_count"`
	Stage     string    `json:"stage"`
	Progress  int       `json:"progress"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// JobFromModel converts a model.Job to a response Job
func JobFromModel(j *model.Job) Job {
	return Job{
		ID:        string(j.ID),
		Title:     j.Title,
		WordCount: j.WordCount,
		Stage:     string(j.Stage),
		Progress:  j.Progress(),
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}
