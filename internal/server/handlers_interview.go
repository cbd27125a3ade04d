package server

import (
	"net/http"
	"strings"

	"github.com/techieRahul17/intervuex/internal/meeting"
	"github.com/techieRahul17/intervuex/internal/types"
)

// maxAudioBytes bounds one recorded answer.
const maxAudioBytes = 25 << 20

// handleApplicationsByUser lists a user's applications in the dashboard envelope.
func (s *Server) handleApplicationsByUser(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		s.jsonResponse(w, http.StatusBadRequest, types.ApplicationsResponse{
			Status:       types.EnvelopeFailure,
			Message:      "user_id is required",
			Applications: []types.Application{},
		})
		return
	}

	apps, err := s.store.ListApplicationsByUser(r.Context(), userID)
	if err != nil {
		s.log.Errorw("failed to list applications", "user_id", userID, "error", err)
		s.jsonResponse(w, http.StatusInternalServerError, types.ApplicationsResponse{
			Status:       types.EnvelopeFailure,
			Message:      "failed to load applications",
			Applications: []types.Application{},
		})
		return
	}
	if apps == nil {
		apps = []types.Application{}
	}
	s.jsonResponse(w, http.StatusOK, types.ApplicationsResponse{
		Status:       types.EnvelopeSuccess,
		Applications: apps,
	})
}

// handleCreateApplication records an application for the session user.
func (s *Server) handleCreateApplication(w http.ResponseWriter, r *http.Request) {
	user, err := s.currentUser(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req types.ApplyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}

	app := types.Application{UserID: user.Email, JobTitle: req.JobTitle, Company: req.Company}
	if err := s.store.CreateApplication(r.Context(), &app); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, app)
}

// handleStream serves the latest confidence reading.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if s.confidence == nil {
		s.writeError(w, r, &ErrUnavailable{Feature: "confidence stream"})
		return
	}
	reading, ok := s.confidence.Latest()
	if !ok {
		s.errorResponse(w, http.StatusServiceUnavailable, "no confidence reading yet")
		return
	}
	s.jsonResponse(w, http.StatusOK, reading)
}

// handleGenerateQuestion returns training-mode questions. It always answers 200 once the
// body decodes; generation failures fall back to the default bank.
func (s *Server) handleGenerateQuestion(w http.ResponseWriter, r *http.Request) {
	var req types.GenerateQuestionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, s.questions.Generate(r.Context(), req))
}

// handleTranscribe forwards recorded audio to the speech service. With ?session_id= the
// text is also appended to that interview's transcript as the candidate's answer.
func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	if s.speech == nil {
		s.writeError(w, r, &ErrUnavailable{Feature: "transcription"})
		return
	}

	audio := http.MaxBytesReader(w, r.Body, maxAudioBytes)
	text, err := s.speech.Transcribe(r.Context(), audio, r.Header.Get("Content-Type"))
	if err != nil {
		s.log.Warnw("transcription failed", "error", err)
		s.writeError(w, r, err)
		return
	}

	if id := strings.TrimSpace(r.URL.Query().Get("session_id")); id != "" && text != "" {
		s.transcripts.Append(id, types.TranscriptEntry{Speaker: types.SpeakerCandidate, Text: text})
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"transcript": text})
}

// handleGetTranscript returns an interview transcript in arrival order.
func (s *Server) handleGetTranscript(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	entries, err := s.transcripts.Entries(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if entries == nil {
		entries = []types.TranscriptEntry{}
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"session_id": id, "entries": entries})
}

// handleAppendTranscript appends one utterance.
func (s *Server) handleAppendTranscript(w http.ResponseWriter, r *http.Request) {
	var e types.TranscriptEntry
	if err := decodeJSON(w, r, &e); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := e.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, s.transcripts.Append(r.PathValue("id"), e))
}

// handleMeetingConfig returns the video widget config for the session user.
// Interviewers join as moderators.
func (s *Server) handleMeetingConfig(w http.ResponseWriter, r *http.Request) {
	if s.meeting == nil {
		s.writeError(w, r, &ErrUnavailable{Feature: "video meeting"})
		return
	}
	user, err := s.currentUser(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	name := user.Name
	if name == "" {
		name = user.Email
	}
	cfg, err := s.meeting.Widget(meeting.Participant{
		ID:        user.Email,
		Name:      name,
		Email:     user.Email,
		Moderator: user.UserType == types.UserTypeInterviewer,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, cfg)
}
