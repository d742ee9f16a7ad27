package models

import (
	"regexp"
	"time"
)

// Validation constants for input validation
const (
	// MaxUtteranceLength defines the maximum allowed length for a single turn message
	MaxUtteranceLength = 2000
	// MaxNameLength defines the maximum allowed length for lead and organization names
	MaxNameLength = 100
)

// Basic email shape check; full verification is a deployment concern.
var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// SessionSeed carries lead attributes known before the conversation starts,
// used to pre-fill the initial state.
type SessionSeed struct {
	Email            string           `json:"email,omitempty"`
	Name             string           `json:"name,omitempty"`
	OrganizationName string           `json:"organization_name,omitempty"`
	OrganizationType OrganizationType `json:"organization_type,omitempty"`
}

// CreateSessionRequest represents the payload for starting a new session.
type CreateSessionRequest struct {
	Seed SessionSeed `json:"seed"`
}

// Validate validates a CreateSessionRequest.
func (r *CreateSessionRequest) Validate() error {
	if r.Seed.Email != "" && !emailRegex.MatchString(r.Seed.Email) {
		return ErrInvalidEmail
	}
	if len(r.Seed.Name) > MaxNameLength || len(r.Seed.OrganizationName) > MaxNameLength {
		return ErrUtteranceTooLong
	}
	if r.Seed.OrganizationType != "" && !IsValidOrganizationType(r.Seed.OrganizationType) {
		return ErrUnknownField
	}
	return nil
}

// TurnRequest represents one user utterance submitted to a session.
type TurnRequest struct {
	Message string `json:"message"`
}

// Validate validates a TurnRequest.
func (r *TurnRequest) Validate() error {
	if r.Message == "" {
		return ErrEmptyUtterance
	}
	if len(r.Message) > MaxUtteranceLength {
		return ErrUtteranceTooLong
	}
	return nil
}

// IsValidEmail reports whether the string has a plausible email shape.
func IsValidEmail(s string) bool {
	return emailRegex.MatchString(s)
}

// Message represents one entry of a session transcript.
type Message struct {
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"` // "user" or "assistant"
	Body      string    `json:"body"`
	Time      time.Time `json:"time"`
}

// Message role constants.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// APIStatus represents the status of an API response.
type APIStatus string

const (
	// APIStatusOK indicates an API request completed successfully.
	APIStatusOK APIStatus = "ok"
	// APIStatusError indicates an API request failed with an error.
	APIStatusError APIStatus = "error"
)

// APIResponse represents a standard API response with a status and optional data.
type APIResponse struct {
	Status  string      `json:"status"`            // status of the API response
	Message string      `json:"message,omitempty"` // optional message for error responses or additional info
	Result  interface{} `json:"result,omitempty"`  // optional result data for successful responses
}

// Success creates a successful API response with optional result data.
func Success(result interface{}) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Result: result}
}

// Error creates an error API response with a message.
func Error(message string) APIResponse {
	return APIResponse{Status: string(APIStatusError), Message: message}
}
