package types

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Language is a submission language tag.
type Language string

// Supported submission languages.
const (
	LanguageJavaScript Language = "javascript"
	LanguagePython     Language = "python"
	LanguageJava       Language = "java"
	LanguageCPP        Language = "cpp"
)

// Languages lists every supported language in display order.
var Languages = []Language{LanguageJavaScript, LanguagePython, LanguageJava, LanguageCPP}

// Valid reports whether l is a supported language.
func (l Language) Valid() bool {
	for _, known := range Languages {
		if l == known {
			return true
		}
	}
	return false
}

// Difficulty levels an interviewer can pick for a challenge.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Challenge is a coding problem created by an interviewer.
type Challenge struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title" validate:"required"`
	Description     string    `json:"description"`
	Difficulty      string    `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	StarterCode     string    `json:"starterCode"`
	TestCases       []string  `json:"testCases" validate:"required,min=1"`
	ExpectedOutputs []string  `json:"expectedOutputs" validate:"required,min=1"`
	TimeLimit       int       `json:"timeLimit" validate:"gte=0"` // minutes, informational only
	Language        Language  `json:"language" validate:"required,oneof=javascript python java cpp"`
	FunctionName    string    `json:"functionName,omitempty"`
	CreatedBy       string    `json:"createdBy,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Validate checks struct tags and that test cases and expected outputs line up.
func (c *Challenge) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if len(c.TestCases) != len(c.ExpectedOutputs) {
		return fmt.Errorf("testCases (%d) and expectedOutputs (%d) must have the same length",
			len(c.TestCases), len(c.ExpectedOutputs))
	}
	return nil
}

// TestResult is the verdict for one test case.
type TestResult struct {
	TestCase      string  `json:"testCase"`
	Result        string  `json:"result"`
	Expected      string  `json:"expected"`
	Passed        bool    `json:"passed"`
	ExecutionTime float64 `json:"executionTime"` // milliseconds
}

// RunReport aggregates the results of one evaluation run.
type RunReport struct {
	Language Language     `json:"language"`
	Results  []TestResult `json:"results"`
	Passed   int          `json:"passed"`
	Total    int          `json:"total"`
	Score    int          `json:"score"`
}

// SubmitReport is a RunReport with the extra figures shown on final submission.
type SubmitReport struct {
	RunReport
	AverageExecutionTime float64   `json:"averageExecutionTime"` // milliseconds
	MemoryUsage          string    `json:"memoryUsage"`
	SubmittedAt          time.Time `json:"submittedAt"`
}

// EvaluateRequest is the body of an ad-hoc evaluation.
type EvaluateRequest struct {
	Code            string   `json:"code" validate:"required"`
	Language        Language `json:"language" validate:"required,oneof=javascript python java cpp"`
	FunctionName    string   `json:"functionName,omitempty"`
	TestCases       []string `json:"testCases" validate:"required,min=1"`
	ExpectedOutputs []string `json:"expectedOutputs" validate:"required,min=1"`
}

// Validate validates the EvaluateRequest using the validator.
func (r *EvaluateRequest) Validate() error {
	return validator.New().Struct(r)
}

// SolutionRequest is the body for running or submitting against a stored challenge.
// An empty language falls back to the challenge language.
type SolutionRequest struct {
	Code     string   `json:"code" validate:"required"`
	Language Language `json:"language,omitempty" validate:"omitempty,oneof=javascript python java cpp"`
}

// Validate validates the SolutionRequest using the validator.
func (r *SolutionRequest) Validate() error {
	return validator.New().Struct(r)
}
