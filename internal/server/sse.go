package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/techieRahul17/intervuex/internal/types"
)

// SSE event names used by the streaming run endpoint.
const (
	eventResult   = "result"
	eventReport   = "report"
	eventError    = "error"
	eventComplete = "complete"
)

// caseEvent is one finished test case, tagged with its input position.
type caseEvent struct {
	Index int `json:"index"`
	types.TestResult
}

// SSEWriter helps write Server-Sent Events
type SSEWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewSSEWriter creates a new SSE writer
func NewSSEWriter(w http.ResponseWriter, origin string) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	if origin != "" {
		w.Header().Set("Access-Control-Allow-Origin", origin)
	}

	return &SSEWriter{w: w, flusher: flusher}, nil
}

// WriteEvent sends an SSE event
func (s *SSEWriter) WriteEvent(event string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, jsonData); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// WriteResult sends one finished test case.
func (s *SSEWriter) WriteResult(index int, r types.TestResult) error {
	return s.WriteEvent(eventResult, caseEvent{Index: index, TestResult: r})
}

// WriteReport sends the aggregate run report.
func (s *SSEWriter) WriteReport(report *types.RunReport) error {
	return s.WriteEvent(eventReport, report)
}

// WriteError sends an error event
func (s *SSEWriter) WriteError(message string) {
	s.WriteEvent(eventError, map[string]string{"error": message}) //nolint:errcheck
}

// WriteComplete sends a completion event
func (s *SSEWriter) WriteComplete(challengeID, status string) {
	s.WriteEvent(eventComplete, map[string]string{ //nolint:errcheck
		"challenge_id": challengeID,
		"status":       status,
	})
}
