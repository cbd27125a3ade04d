package server

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/techieRahul17/intervuex/internal/evaluator"
	"github.com/techieRahul17/intervuex/internal/export"
	"github.com/techieRahul17/intervuex/internal/schemas"
	"github.com/techieRahul17/intervuex/internal/server/middleware"
	"github.com/techieRahul17/intervuex/internal/types"
)

// Evaluation modes used as metric labels.
const (
	modeRun    = "run"
	modeStream = "stream"
	modeSubmit = "submit"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// handleCreateChallenge stores a new challenge authored by the session user.
func (s *Server) handleCreateChallenge(w http.ResponseWriter, r *http.Request) {
	user, err := s.currentUser(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, r, &ErrValidation{Field: "body", Message: err.Error()})
		return
	}
	if !json.Valid(body) {
		s.writeError(w, r, &ErrValidation{Field: "body", Message: "invalid JSON"})
		return
	}
	if err := schemas.ValidateChallenge(body); err != nil {
		s.writeError(w, r, err)
		return
	}

	var ch types.Challenge
	if err := json.Unmarshal(body, &ch); err != nil {
		s.writeError(w, r, &ErrValidation{Field: "body", Message: err.Error()})
		return
	}
	if err := ch.Validate(); err != nil {
		if _, ok := err.(validator.ValidationErrors); !ok {
			err = &ErrValidation{Field: "testCases", Message: err.Error()}
		}
		s.writeError(w, r, err)
		return
	}

	// Identity and authorship are always server-assigned.
	ch.ID = uuid.Nil
	ch.CreatedAt = time.Time{}
	ch.CreatedBy = user.Email

	if err := s.store.CreateChallenge(r.Context(), &ch); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, ch)
}

// handleListChallenges lists challenges newest first.
func (s *Server) handleListChallenges(w http.ResponseWriter, r *http.Request) {
	challenges, err := s.store.ListChallenges(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if challenges == nil {
		challenges = []types.Challenge{}
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"challenges": challenges})
}

// handleGetChallenge returns one challenge.
func (s *Server) handleGetChallenge(w http.ResponseWriter, r *http.Request) {
	ch, err := s.loadChallenge(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, ch)
}

// handleEvaluate runs code against test cases sent in the request.
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req types.EvaluateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}

	report, err := s.run(r, modeRun, evaluator.Submission{
		Code:            req.Code,
		Language:        req.Language,
		FunctionName:    req.FunctionName,
		TestCases:       req.TestCases,
		ExpectedOutputs: req.ExpectedOutputs,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, report)
}

// handleRunChallenge runs a solution against a stored challenge.
func (s *Server) handleRunChallenge(w http.ResponseWriter, r *http.Request) {
	ch, req, err := s.solutionFor(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	report, err := s.run(r, modeRun, evaluator.SubmissionFor(ch, req.Code, req.Language))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, report)
}

// handleRunChallengeStream runs a solution and streams each case as it finishes.
func (s *Server) handleRunChallengeStream(w http.ResponseWriter, r *http.Request) {
	ch, req, err := s.solutionFor(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	sse, err := NewSSEWriter(w, s.cfg.CORSOrigin)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	sub := evaluator.SubmissionFor(ch, req.Code, req.Language)
	start := time.Now()
	report, err := s.evaluator.RunWithProgress(r.Context(), sub, func(i int, res types.TestResult) {
		if werr := sse.WriteResult(i, res); werr != nil {
			s.log.Debugw("stream client went away", "challenge", ch.ID, "error", werr)
		}
	})
	if err != nil {
		sse.WriteError(errorMessage(err))
		sse.WriteComplete(ch.ID.String(), "failed")
		return
	}
	s.metrics.RecordEvaluation(string(report.Language), modeStream, report.Passed, report.Total, time.Since(start))

	if err := sse.WriteReport(report); err != nil {
		return
	}
	sse.WriteComplete(ch.ID.String(), "completed")
}

// handleSubmitChallenge is the final submission path. ?format=xlsx returns a spreadsheet.
func (s *Server) handleSubmitChallenge(w http.ResponseWriter, r *http.Request) {
	ch, req, err := s.solutionFor(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	start := time.Now()
	report, err := s.evaluator.Submit(r.Context(), evaluator.SubmissionFor(ch, req.Code, req.Language))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.metrics.RecordEvaluation(string(report.Language), modeSubmit, report.Passed, report.Total, time.Since(start))

	if r.URL.Query().Get("format") != "xlsx" {
		s.jsonResponse(w, http.StatusOK, report)
		return
	}

	meta := export.ReportMeta{Challenge: ch.Title}
	if user, err := s.sessionUserIfAny(r); err == nil && user != nil {
		meta.Candidate = user.Email
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="submission.xlsx"`)
	if err := export.Write(w, report, meta); err != nil {
		s.log.Errorw("failed to write submission spreadsheet", "challenge", ch.ID, "error", err)
	}
}

// run evaluates sub and records metrics.
func (s *Server) run(r *http.Request, mode string, sub evaluator.Submission) (*types.RunReport, error) {
	start := time.Now()
	report, err := s.evaluator.Run(r.Context(), sub)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordEvaluation(string(report.Language), mode, report.Passed, report.Total, time.Since(start))
	return report, nil
}

// solutionFor loads the challenge named in the path and decodes the solution body.
func (s *Server) solutionFor(w http.ResponseWriter, r *http.Request) (*types.Challenge, *types.SolutionRequest, error) {
	ch, err := s.loadChallenge(r)
	if err != nil {
		return nil, nil, err
	}
	var req types.SolutionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return nil, nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, nil, err
	}
	return ch, &req, nil
}

func (s *Server) loadChallenge(r *http.Request) (*types.Challenge, error) {
	raw := r.PathValue("id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, &ErrValidation{Field: "id", Message: "must be a UUID"}
	}
	ch, err := s.store.GetChallenge(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if ch == nil {
		return nil, &ErrNotFound{Kind: "challenge", ID: raw}
	}
	return ch, nil
}

// sessionUserIfAny resolves the user for requests that carry an optional bearer token.
func (s *Server) sessionUserIfAny(r *http.Request) (*types.User, error) {
	token, ok := middleware.BearerToken(r)
	if !ok {
		return nil, nil
	}
	claims, err := s.jwtService.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	m, ok := s.sessions.Get(claims.SessionID)
	if !ok {
		return nil, nil
	}
	return m.Current()
}
