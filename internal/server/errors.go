package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/techieRahul17/intervuex/internal/db"
	"github.com/techieRahul17/intervuex/internal/evaluator"
	"github.com/techieRahul17/intervuex/internal/schemas"
	"github.com/techieRahul17/intervuex/internal/session"
	"github.com/techieRahul17/intervuex/internal/speech"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrNotFound indicates a missing resource
type ErrNotFound struct {
	Kind string
	ID   string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// ErrForbidden indicates the session's role may not perform the action
type ErrForbidden struct {
	Action string
}

func (e *ErrForbidden) Error() string {
	return fmt.Sprintf("forbidden: %s", e.Action)
}

// ErrUnavailable indicates an optional integration is not configured
type ErrUnavailable struct {
	Feature string
}

func (e *ErrUnavailable) Error() string {
	return fmt.Sprintf("%s is not configured", e.Feature)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	switch err.(type) {
	case *ErrValidation, validator.ValidationErrors, *schemas.ValidationError,
		*evaluator.UnsupportedLanguageError, *evaluator.SubmissionError:
		return http.StatusBadRequest
	case *session.ErrNoSession:
		return http.StatusUnauthorized
	case *ErrForbidden:
		return http.StatusForbidden
	case *ErrNotFound:
		return http.StatusNotFound
	case *db.DuplicateError:
		return http.StatusConflict
	case *speech.APIError:
		return http.StatusBadGateway
	case *ErrUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage renders err for a response body. Validator output is reduced to its first field.
func errorMessage(err error) string {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		return fmt.Sprintf("validation error: %s - %s", ve[0].Field(), ve[0].Tag())
	}
	return err.Error()
}
