// Package types provides type definitions for structured data used throughout InterVueX.
package types

import (
	"github.com/go-playground/validator/v10"
)

// UserType is the role a session was opened with.
type UserType string

const (
	// UserTypeCandidate is a person taking interviews and challenges.
	UserTypeCandidate UserType = "candidate"
	// UserTypeInterviewer is a person creating challenges and running interviews.
	UserTypeInterviewer UserType = "interviewer"
)

// Valid reports whether t is a known user type.
func (t UserType) Valid() bool {
	return t == UserTypeCandidate || t == UserTypeInterviewer
}

// User is the record stored for the currently logged in session.
type User struct {
	Email    string   `json:"email"`
	Name     string   `json:"name,omitempty"`
	UserType UserType `json:"userType"`
}

// LoginRequest represents the login and register request body.
type LoginRequest struct {
	Email    string   `json:"email" validate:"required,email"`
	Name     string   `json:"name,omitempty"`
	UserType UserType `json:"userType" validate:"required,oneof=candidate interviewer"`
}

// LoginResponse represents the login/register response with the session record and token.
type LoginResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

// Validate validates the LoginRequest using the validator.
func (r *LoginRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
