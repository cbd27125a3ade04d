// Package server provides the HTTP REST API for InterVueX.
package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/techieRahul17/intervuex/internal/config"
	"github.com/techieRahul17/intervuex/internal/db"
	"github.com/techieRahul17/intervuex/internal/evaluator"
	"github.com/techieRahul17/intervuex/internal/llm"
	"github.com/techieRahul17/intervuex/internal/meeting"
	"github.com/techieRahul17/intervuex/internal/metrics"
	"github.com/techieRahul17/intervuex/internal/server/middleware"
	"github.com/techieRahul17/intervuex/internal/server/ratelimit"
	"github.com/techieRahul17/intervuex/internal/session"
	"github.com/techieRahul17/intervuex/internal/transcript"
	"github.com/techieRahul17/intervuex/internal/types"
)

// maxBodyBytes bounds JSON request bodies. Audio uploads have their own limit.
const maxBodyBytes = 1 << 20

// Transcriber turns recorded audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader, contentType string) (string, error)
}

// QuestionSource produces training-mode questions. It must not fail.
type QuestionSource interface {
	Generate(ctx context.Context, req types.GenerateQuestionRequest) *llm.QuestionSet
}

// ConfidenceSource reports the latest upstream confidence reading.
type ConfidenceSource interface {
	Latest() (types.ConfidenceReading, bool)
}

// WidgetSigner builds the signed video meeting widget configuration.
type WidgetSigner interface {
	Widget(p meeting.Participant) (*meeting.WidgetConfig, error)
}

// Deps are the components the handlers call. Speech, Meeting, Confidence and Metrics
// are optional; the endpoints that need them answer 503 when they are nil.
type Deps struct {
	Store       db.Store
	Evaluator   *evaluator.Evaluator
	Sessions    *session.Registry
	JWT         *JWTService
	Questions   QuestionSource
	Transcripts *transcript.Log
	Speech      Transcriber
	Meeting     WidgetSigner
	Confidence  ConfidenceSource
	Metrics     *metrics.Metrics
	Logger      *zap.Logger
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	cfg        config.ServerConfig

	store       db.Store
	evaluator   *evaluator.Evaluator
	sessions    *session.Registry
	jwtService  *JWTService
	questions   QuestionSource
	transcripts *transcript.Log
	speech      Transcriber
	meeting     WidgetSigner
	confidence  ConfidenceSource
	metrics     *metrics.Metrics
	rateLimiter *ratelimit.Limiter
	log         *zap.SugaredLogger
}

// New creates a new server instance
func New(cfg config.ServerConfig, d Deps) (*Server, error) {
	switch {
	case d.Store == nil:
		return nil, fmt.Errorf("server: store is required")
	case d.Evaluator == nil:
		return nil, fmt.Errorf("server: evaluator is required")
	case d.Sessions == nil:
		return nil, fmt.Errorf("server: session registry is required")
	case d.JWT == nil:
		return nil, fmt.Errorf("server: JWT service is required")
	case d.Questions == nil:
		return nil, fmt.Errorf("server: question source is required")
	case d.Transcripts == nil:
		return nil, fmt.Errorf("server: transcript log is required")
	}
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		cfg:         cfg,
		store:       d.Store,
		evaluator:   d.Evaluator,
		sessions:    d.Sessions,
		jwtService:  d.JWT,
		questions:   d.Questions,
		transcripts: d.Transcripts,
		speech:      d.Speech,
		meeting:     d.Meeting,
		confidence:  d.Confidence,
		metrics:     d.Metrics,
		rateLimiter: ratelimit.NewLimiter(ratelimit.FromConfig(cfg.RateLimit)),
		log:         logger.Sugar().Named("http"),
	}

	auth := middleware.AuthMiddleware(s.jwtService.AsTokenValidator())

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	// Session stub
	mux.HandleFunc("POST /auth/login", s.handleLogin)
	mux.HandleFunc("POST /auth/register", s.handleRegister)
	mux.Handle("GET /auth/session", auth(http.HandlerFunc(s.handleSession)))
	mux.Handle("POST /auth/logout", auth(http.HandlerFunc(s.handleLogout)))

	// Coding challenges
	mux.Handle("POST /challenges", auth(s.requireRole(types.UserTypeInterviewer, s.handleCreateChallenge)))
	mux.HandleFunc("GET /challenges", s.handleListChallenges)
	mux.HandleFunc("GET /challenges/{id}", s.handleGetChallenge)
	mux.HandleFunc("POST /challenges/{id}/run", s.handleRunChallenge)
	mux.HandleFunc("POST /challenges/{id}/run/stream", s.handleRunChallengeStream)
	mux.HandleFunc("POST /challenges/{id}/submit", s.handleSubmitChallenge)
	mux.HandleFunc("POST /evaluate", s.handleEvaluate)

	// Candidate dashboard
	mux.HandleFunc("GET /applicationsByUser", s.handleApplicationsByUser)
	mux.Handle("POST /applications", auth(http.HandlerFunc(s.handleCreateApplication)))

	// Interview room
	mux.HandleFunc("GET /stream", s.handleStream)
	mux.HandleFunc("POST /generate_question", s.handleGenerateQuestion)
	mux.HandleFunc("POST /transcribe", s.handleTranscribe)
	mux.HandleFunc("GET /sessions/{id}/transcript", s.handleGetTranscript)
	mux.HandleFunc("POST /sessions/{id}/transcript", s.handleAppendTranscript)
	mux.Handle("GET /meeting/config", auth(http.HandlerFunc(s.handleMeetingConfig)))

	s.handler = s.withMetrics(s.withRateLimit(s.withLogging(s.withCORS(mux))))
	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // streamed runs and audio uploads
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler returns the fully wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	defer s.rateLimiter.Stop()

	errCh := make(chan error, 1)
	go func() {
		s.log.Infow("server starting", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Infow("shutting down server")
	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.log.Infow("server stopped")
	return nil
}

// Close stops background work without serving. Used when Start was never called.
func (s *Server) Close() {
	s.rateLimiter.Stop()
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.cfg.CORSOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(extractClientID(r), r.URL.Path, r.Method)
		setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, r, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := newStatusRecorder(w)
		next.ServeHTTP(rec, r)
		s.log.Infow("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
			"remote", r.RemoteAddr,
		)
	})
}

// withMetrics records request counts and latency by route pattern.
func (s *Server) withMetrics(next http.Handler) http.Handler {
	if s.metrics == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := newStatusRecorder(w)
		next.ServeHTTP(rec, r)

		// The mux fills r.Pattern in place; unmatched requests share one label.
		endpoint := r.Pattern
		if endpoint == "" {
			endpoint = "unmatched"
		}
		s.metrics.RecordHTTPRequest(endpoint, r.Method, rec.status, time.Since(start))
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status":              "ok",
		"sessions":            s.sessions.Len(),
		"pending_transcripts": s.transcripts.Pending(),
	})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Warnw("failed to encode JSON response", "error", err)
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// writeError maps err to a status code. Server-side failures are logged and not echoed.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError && status != http.StatusBadGateway && status != http.StatusServiceUnavailable {
		s.log.Errorw("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		s.errorResponse(w, status, "internal server error")
		return
	}
	s.errorResponse(w, status, errorMessage(err))
}

// decodeJSON decodes a bounded request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &ErrValidation{Field: "body", Message: "invalid JSON: " + err.Error()}
	}
	return nil
}

// extractClientID uses the IP address from RemoteAddr.
func extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, r *http.Request, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
	}
	if !info.ResetTime.IsZero() {
		response["reset_at"] = info.ResetTime.Format(time.RFC3339)
	}
	if info.RetryAfter > 0 {
		// Round up so clients never retry early.
		secs := int((info.RetryAfter + time.Second - 1) / time.Second)
		response["retry_after"] = secs
		w.Header().Set("Retry-After", strconv.Itoa(secs))
	}

	s.log.Warnw("rate limit exceeded",
		"client", extractClientID(r),
		"method", r.Method,
		"path", r.URL.Path,
		"limit", info.Limit,
	)
	s.jsonResponse(w, http.StatusTooManyRequests, response)
}

// statusRecorder captures the response status and keeps streaming working.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	return r.ResponseWriter.Write(b)
}

// Flush implements http.Flusher for SSE responses.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack implements http.Hijacker when the underlying writer does.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("hijacking not supported")
	}
	return h.Hijack()
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
