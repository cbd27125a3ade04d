package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Speakers recorded in an interview transcript.
const (
	SpeakerCandidate   = "candidate"
	SpeakerInterviewer = "interviewer"
	SpeakerAssistant   = "assistant"
)

// TranscriptEntry is one utterance in an interview transcript.
type TranscriptEntry struct {
	Speaker string    `json:"speaker" validate:"required"`
	Text    string    `json:"text" validate:"required"`
	At      time.Time `json:"at"`
}

// Validate validates the TranscriptEntry using the validator.
func (e *TranscriptEntry) Validate() error {
	return validator.New().Struct(e)
}

// Application is a job application listed on the candidate dashboard.
type Application struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"user_id"`
	JobTitle  string    `json:"job_title"`
	Company   string    `json:"company"`
	Status    string    `json:"status"`
	AppliedAt time.Time `json:"applied_at"`
}

// ApplyRequest is the body of POST /applications. The applicant is the session user.
type ApplyRequest struct {
	JobTitle string `json:"job_title" validate:"required"`
	Company  string `json:"company" validate:"required"`
}

// Validate validates the ApplyRequest using the validator.
func (r *ApplyRequest) Validate() error {
	return validator.New().Struct(r)
}

// Status codes used in the applicationsByUser envelope.
const (
	EnvelopeSuccess = "S"
	EnvelopeFailure = "F"
)

// ApplicationsResponse is the envelope returned by GET /applicationsByUser.
type ApplicationsResponse struct {
	Status       string        `json:"status"`
	Message      string        `json:"message,omitempty"`
	Applications []Application `json:"applications"`
}

// GenerateQuestionRequest is the body of POST /generate_question.
type GenerateQuestionRequest struct {
	Chunks         []string `json:"chunks"`
	SelectedSkills []string `json:"selected_skills"`
}

// Question is a generated training-mode interview question.
type Question struct {
	Question   string `json:"question" yaml:"question"`
	Skill      string `json:"skill,omitempty" yaml:"skill"`
	Difficulty string `json:"difficulty,omitempty" yaml:"difficulty"`
}

// ConfidenceReading is the latest value served by GET /stream.
type ConfidenceReading struct {
	Confidence float64   `json:"confidence"`
	UpdatedAt  time.Time `json:"updated_at,omitempty"`
}
