package model

import "time"

// EventType identifies the type of broadcast event
type EventType string

const (
	// Auth events
	EventOpenAuth    EventType = "open_auth"
	EventAuthChanged EventType = "auth_changed"

	// Demo pipeline events
	EventJobProgress EventType = "job_progress"
	EventJobComplete EventType = "job_complete"
)

// AuthMode selects which sub-mode the auth dialog should open in
type AuthMode string

const (
	AuthModeSignIn AuthMode = "signin"
	AuthModeSignUp AuthMode = "signup"
)

// Event is the base structure for all broadcast events
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

// OpenAuthPayload asks the application shell to open the auth dialog in a
// given mode. Any component may dispatch it; the demo pipeline does on
// completion.
type OpenAuthPayload struct {
	Mode AuthMode `json:"mode"`
}

// AuthChangedPayload carries the new signed-in user, or nil after sign-out
type AuthChangedPayload struct {
	User *User `json:"user"`
}

// JobProgressPayload carries a pipeline stage transition
type JobProgressPayload struct {
	JobID    JobID    `json:"job_id"`
	Stage    JobStage `json:"stage"`
	Progress int      `json:"progress"`
}
