package evaluator

import (
	"fmt"

	"github.com/techieRahul17/intervuex/internal/types"
)

// UnsupportedLanguageError indicates a submission in a language with no registered executor.
type UnsupportedLanguageError struct {
	Language types.Language
}

func (e *UnsupportedLanguageError) Error() string {
	return fmt.Sprintf("unsupported language: %q", e.Language)
}

// SubmissionError indicates a malformed submission envelope.
type SubmissionError struct {
	Message string
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("invalid submission: %s", e.Message)
}

// errorResult turns a per-case failure into the reported result text.
func errorResult(err error) string {
	return "Error: " + err.Error()
}
