package server

import (
	"errors"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/techieRahul17/intervuex/internal/db"
	"github.com/techieRahul17/intervuex/internal/evaluator"
	"github.com/techieRahul17/intervuex/internal/schemas"
	"github.com/techieRahul17/intervuex/internal/session"
	"github.com/techieRahul17/intervuex/internal/speech"
	"github.com/techieRahul17/intervuex/internal/types"
)

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "validation error: email - invalid format", (&ErrValidation{Field: "email", Message: "invalid format"}).Error())
	assert.Equal(t, "challenge not found: abc", (&ErrNotFound{Kind: "challenge", ID: "abc"}).Error())
	assert.Equal(t, "forbidden: requires interviewer role", (&ErrForbidden{Action: "requires interviewer role"}).Error())
	assert.Equal(t, "transcription is not configured", (&ErrUnavailable{Feature: "transcription"}).Error())
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &ErrValidation{}, http.StatusBadRequest},
		{"schema", &schemas.ValidationError{}, http.StatusBadRequest},
		{"validator", validator.ValidationErrors{}, http.StatusBadRequest},
		{"language", &evaluator.UnsupportedLanguageError{Language: types.Language("cobol")}, http.StatusBadRequest},
		{"submission", &evaluator.SubmissionError{Message: "misaligned"}, http.StatusBadRequest},
		{"no session", &session.ErrNoSession{}, http.StatusUnauthorized},
		{"forbidden", &ErrForbidden{}, http.StatusForbidden},
		{"not found", &ErrNotFound{}, http.StatusNotFound},
		{"duplicate", &db.DuplicateError{Kind: "challenge"}, http.StatusConflict},
		{"upstream", &speech.APIError{StatusCode: 500}, http.StatusBadGateway},
		{"unavailable", &ErrUnavailable{}, http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestErrorMessage_FirstValidatorField(t *testing.T) {
	req := types.LoginRequest{Email: "nope", UserType: types.UserTypeCandidate}
	err := req.Validate()

	assert.Equal(t, "validation error: Email - email", errorMessage(err))
	assert.Equal(t, "boom", errorMessage(errors.New("boom")))
}
