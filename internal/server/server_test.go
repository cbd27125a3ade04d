package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techieRahul17/intervuex/internal/config"
	"github.com/techieRahul17/intervuex/internal/db"
	"github.com/techieRahul17/intervuex/internal/evaluator"
	"github.com/techieRahul17/intervuex/internal/llm"
	"github.com/techieRahul17/intervuex/internal/meeting"
	"github.com/techieRahul17/intervuex/internal/metrics"
	"github.com/techieRahul17/intervuex/internal/session"
	"github.com/techieRahul17/intervuex/internal/speech"
	"github.com/techieRahul17/intervuex/internal/transcript"
	"github.com/techieRahul17/intervuex/internal/types"
)

const twoSum = `function twoSum(nums, target) {
  const seen = {};
  for (let i = 0; i < nums.length; i++) {
    const need = target - nums[i];
    if (seen[need] !== undefined) return [seen[need], i];
    seen[nums[i]] = i;
  }
  return [];
}`

type fakeQuestions struct {
	got types.GenerateQuestionRequest
}

func (f *fakeQuestions) Generate(_ context.Context, req types.GenerateQuestionRequest) *llm.QuestionSet {
	f.got = req
	return &llm.QuestionSet{
		Questions: []types.Question{{Question: "Explain closures.", Skill: "javascript"}},
		Source:    llm.SourceModel,
	}
}

type fakeSpeech struct {
	text        string
	err         error
	contentType string
	body        string
}

func (f *fakeSpeech) Transcribe(_ context.Context, audio io.Reader, contentType string) (string, error) {
	data, _ := io.ReadAll(audio)
	f.body = string(data)
	f.contentType = contentType
	return f.text, f.err
}

type fakeConfidence struct {
	reading types.ConfidenceReading
	ok      bool
}

func (f *fakeConfidence) Latest() (types.ConfidenceReading, bool) {
	return f.reading, f.ok
}

type fakeSigner struct {
	got meeting.Participant
}

func (f *fakeSigner) Widget(p meeting.Participant) (*meeting.WidgetConfig, error) {
	f.got = p
	return &meeting.WidgetConfig{Domain: "8x8.vc", RoomName: "app/InterVueX", JWT: "signed"}, nil
}

type testEnv struct {
	srv         *Server
	store       *db.Memory
	metrics     *metrics.Metrics
	transcripts *transcript.Log
	questions   *fakeQuestions
}

func newTestEnv(t *testing.T, mutate ...func(*config.ServerConfig, *Deps)) *testEnv {
	t.Helper()

	cfg := config.Default().Server
	cfg.RateLimit.Enabled = false

	env := &testEnv{
		store:       db.NewMemory(),
		metrics:     metrics.New(),
		transcripts: transcript.NewLog(nil, nil),
		questions:   &fakeQuestions{},
	}
	deps := Deps{
		Store:       env.store,
		Evaluator:   evaluator.New(evaluator.Options{Concurrency: 2, ExecutionTimeout: 2 * time.Second}),
		Sessions:    session.NewRegistry(time.Hour),
		JWT:         NewJWTService(&config.JWTConfig{Secret: "test-secret-key-for-session-tokens", ExpirationHours: 1}),
		Questions:   env.questions,
		Transcripts: env.transcripts,
		Metrics:     env.metrics,
	}
	for _, m := range mutate {
		m(&cfg, &deps)
	}

	srv, err := New(cfg, deps)
	require.NoError(t, err)
	t.Cleanup(srv.Close)
	env.srv = srv
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(w, req)
	return w
}

func (e *testEnv) login(t *testing.T, email string, userType types.UserType) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/auth/login", map[string]string{"email": email, "userType": string(userType)}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp types.LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Token
}

func (e *testEnv) seedChallenge(t *testing.T) *types.Challenge {
	t.Helper()
	ch := &types.Challenge{
		Title:           "Two Sum",
		Language:        types.LanguageJavaScript,
		TestCases:       []string{"[2,7,11,15], 9", "[3,2,4], 6"},
		ExpectedOutputs: []string{"[0,1]", "[1,2]"},
	}
	require.NoError(t, e.store.CreateChallenge(context.Background(), ch))
	return ch
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestNew_RequiresCoreDeps(t *testing.T) {
	_, err := New(config.Default().Server, Deps{})
	assert.Error(t, err)
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	resp := decode[map[string]any](t, w)
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodOptions, "/evaluate", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestAuth_LoginSessionLogout(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "a@b.com", types.UserTypeCandidate)

	w := env.do(t, http.MethodGet, "/auth/session", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	user := decode[types.User](t, w)
	assert.Equal(t, "a@b.com", user.Email)
	assert.Equal(t, types.UserTypeCandidate, user.UserType)

	w = env.do(t, http.MethodPost, "/auth/logout", nil, token)
	assert.Equal(t, http.StatusOK, w.Code)

	// The token is still well-formed but its session is gone.
	w = env.do(t, http.MethodGet, "/auth/session", nil, token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 0, env.srv.sessions.Len())
}

func TestAuth_Register(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/auth/register", map[string]string{
		"email": "lead@corp.io", "name": "Lead", "userType": "interviewer",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code)
	resp := decode[types.LoginResponse](t, w)
	assert.Equal(t, "Lead", resp.User.Name)
	assert.Equal(t, types.UserTypeInterviewer, resp.User.UserType)
	assert.NotEmpty(t, resp.Token)
}

func TestAuth_LoginRejectsBadRequests(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body any
	}{
		{name: "not json", body: "{"},
		{name: "bad email", body: map[string]string{"email": "nope", "userType": "candidate"}},
		{name: "bad role", body: map[string]string{"email": "a@b.com", "userType": "admin"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/auth/login", tt.body, "")
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.NotEmpty(t, decode[map[string]string](t, w)["error"])
		})
	}
	assert.Equal(t, 0, env.srv.sessions.Len())
}

func TestAuth_RequiresToken(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodGet, "/auth/session", nil, "").Code)
	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodGet, "/auth/session", nil, "garbage").Code)
}

func TestCreateChallenge(t *testing.T) {
	env := newTestEnv(t)
	body := map[string]any{
		"title":           "Two Sum",
		"difficulty":      "easy",
		"testCases":       []string{"[2,7,11,15], 9"},
		"expectedOutputs": []string{"[0,1]"},
		"language":        "javascript",
		"createdBy":       "spoofed@evil.io",
	}

	t.Run("anonymous", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodPost, "/challenges", body, "").Code)
	})

	t.Run("candidate forbidden", func(t *testing.T) {
		token := env.login(t, "c@b.com", types.UserTypeCandidate)
		assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodPost, "/challenges", body, token).Code)
	})

	t.Run("interviewer", func(t *testing.T) {
		token := env.login(t, "lead@corp.io", types.UserTypeInterviewer)
		w := env.do(t, http.MethodPost, "/challenges", body, token)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		ch := decode[types.Challenge](t, w)
		assert.Equal(t, "lead@corp.io", ch.CreatedBy)
		assert.False(t, ch.CreatedAt.IsZero())

		stored, err := env.store.GetChallenge(context.Background(), ch.ID)
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, "Two Sum", stored.Title)
	})

	t.Run("schema violation", func(t *testing.T) {
		token := env.login(t, "lead@corp.io", types.UserTypeInterviewer)
		w := env.do(t, http.MethodPost, "/challenges", map[string]any{"title": "x", "language": "cobol"}, token)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decode[map[string]string](t, w)["error"], "validation failed")
	})

	t.Run("misaligned cases", func(t *testing.T) {
		token := env.login(t, "lead@corp.io", types.UserTypeInterviewer)
		w := env.do(t, http.MethodPost, "/challenges", map[string]any{
			"title":           "x",
			"language":        "javascript",
			"testCases":       []string{"1", "2"},
			"expectedOutputs": []string{"1"},
		}, token)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decode[map[string]string](t, w)["error"], "same length")
	})
}

func TestGetAndListChallenges(t *testing.T) {
	env := newTestEnv(t)
	ch := env.seedChallenge(t)

	w := env.do(t, http.MethodGet, "/challenges/"+ch.ID.String(), nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Two Sum", decode[types.Challenge](t, w).Title)

	w = env.do(t, http.MethodGet, "/challenges", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[map[string][]types.Challenge](t, w)
	assert.Len(t, list["challenges"], 1)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/challenges/not-a-uuid", nil, "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/challenges/00000000-0000-0000-0000-000000000001", nil, "").Code)
}

func TestEvaluate_JavaScript(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/evaluate", types.EvaluateRequest{
		Code:            twoSum,
		Language:        types.LanguageJavaScript,
		TestCases:       []string{"[2,7,11,15], 9"},
		ExpectedOutputs: []string{"[0,1]"},
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	report := decode[types.RunReport](t, w)
	require.Len(t, report.Results, 1)
	assert.Equal(t, "[0,1]", report.Results[0].Result)
	assert.True(t, report.Results[0].Passed)
	assert.Equal(t, 100, report.Score)
}

func TestEvaluate_EmptyFunctionIsUndefined(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/evaluate", types.EvaluateRequest{
		Code:            "function twoSum(nums, target) {}",
		Language:        types.LanguageJavaScript,
		TestCases:       []string{"[2,7,11,15], 9"},
		ExpectedOutputs: []string{"[0,1]"},
	}, "")
	require.Equal(t, http.StatusOK, w.Code)

	report := decode[types.RunReport](t, w)
	assert.Equal(t, "undefined", report.Results[0].Result)
	assert.False(t, report.Results[0].Passed)
	assert.Equal(t, 0, report.Score)
}

func TestEvaluate_BadRequests(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/evaluate", map[string]any{"code": "x", "language": "cobol", "testCases": []string{"1"}, "expectedOutputs": []string{"1"}}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/evaluate", types.EvaluateRequest{
		Code:            twoSum,
		Language:        types.LanguageJavaScript,
		TestCases:       []string{"1", "2"},
		ExpectedOutputs: []string{"1"},
	}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[map[string]string](t, w)["error"], "invalid submission")
}

func TestRunChallenge(t *testing.T) {
	env := newTestEnv(t)
	ch := env.seedChallenge(t)

	w := env.do(t, http.MethodPost, "/challenges/"+ch.ID.String()+"/run", types.SolutionRequest{Code: twoSum}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	report := decode[types.RunReport](t, w)
	assert.Equal(t, types.LanguageJavaScript, report.Language)
	assert.Equal(t, 2, report.Passed)
	assert.Equal(t, 100, report.Score)
}

func TestRunChallengeStream(t *testing.T) {
	env := newTestEnv(t)
	ch := env.seedChallenge(t)

	w := env.do(t, http.MethodPost, "/challenges/"+ch.ID.String()+"/run/stream", types.SolutionRequest{Code: twoSum}, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	body := w.Body.String()
	assert.Equal(t, 2, strings.Count(body, "event: result\n"))
	assert.Equal(t, 1, strings.Count(body, "event: report\n"))
	assert.Contains(t, body, "event: complete\n")
	assert.Contains(t, body, `"status":"completed"`)
}

func TestSubmitChallenge(t *testing.T) {
	env := newTestEnv(t)
	ch := env.seedChallenge(t)
	path := "/challenges/" + ch.ID.String() + "/submit"

	w := env.do(t, http.MethodPost, path, types.SolutionRequest{Code: twoSum}, "")
	require.Equal(t, http.StatusOK, w.Code)
	report := decode[types.SubmitReport](t, w)
	assert.Equal(t, 100, report.Score)
	assert.True(t, strings.HasSuffix(report.MemoryUsage, " MB"))
	assert.False(t, report.SubmittedAt.IsZero())

	token := env.login(t, "a@b.com", types.UserTypeCandidate)
	w = env.do(t, http.MethodPost, path+"?format=xlsx", types.SolutionRequest{Code: twoSum}, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("PK")), "xlsx is a zip archive")
}

func TestApplicationsByUser(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.store.CreateApplication(context.Background(), &types.Application{
		UserID: "a@b.com", JobTitle: "Backend Engineer", Company: "Acme",
	}))

	w := env.do(t, http.MethodGet, "/applicationsByUser?user_id=a@b.com", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[types.ApplicationsResponse](t, w)
	assert.Equal(t, types.EnvelopeSuccess, resp.Status)
	require.Len(t, resp.Applications, 1)
	assert.Equal(t, "Acme", resp.Applications[0].Company)

	w = env.do(t, http.MethodGet, "/applicationsByUser?user_id=nobody", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"applications":[]`)

	w = env.do(t, http.MethodGet, "/applicationsByUser", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, types.EnvelopeFailure, decode[types.ApplicationsResponse](t, w).Status)
}

func TestCreateApplication(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t, "a@b.com", types.UserTypeCandidate)

	w := env.do(t, http.MethodPost, "/applications", types.ApplyRequest{JobTitle: "SRE", Company: "Acme"}, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	app := decode[types.Application](t, w)
	assert.Equal(t, "a@b.com", app.UserID)
	assert.Equal(t, "applied", app.Status)

	apps, err := env.store.ListApplicationsByUser(context.Background(), "a@b.com")
	require.NoError(t, err)
	assert.Len(t, apps, 1)
}

func TestStream(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		env := newTestEnv(t)
		assert.Equal(t, http.StatusServiceUnavailable, env.do(t, http.MethodGet, "/stream", nil, "").Code)
	})

	t.Run("no reading yet", func(t *testing.T) {
		env := newTestEnv(t, func(_ *config.ServerConfig, d *Deps) { d.Confidence = &fakeConfidence{} })
		assert.Equal(t, http.StatusServiceUnavailable, env.do(t, http.MethodGet, "/stream", nil, "").Code)
	})

	t.Run("reading", func(t *testing.T) {
		env := newTestEnv(t, func(_ *config.ServerConfig, d *Deps) {
			d.Confidence = &fakeConfidence{reading: types.ConfidenceReading{Confidence: 0.82}, ok: true}
		})
		w := env.do(t, http.MethodGet, "/stream", nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.InDelta(t, 0.82, decode[types.ConfidenceReading](t, w).Confidence, 1e-9)
	})
}

func TestGenerateQuestion(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/generate_question", map[string]any{
		"chunks":          []string{"Built a React dashboard."},
		"selected_skills": []string{"javascript"},
	}, "")
	require.Equal(t, http.StatusOK, w.Code)

	set := decode[llm.QuestionSet](t, w)
	require.Len(t, set.Questions, 1)
	assert.Equal(t, llm.SourceModel, set.Source)
	assert.Equal(t, []string{"javascript"}, env.questions.got.SelectedSkills)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/generate_question", "nope", "").Code)
}

func TestTranscribe(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		env := newTestEnv(t)
		assert.Equal(t, http.StatusServiceUnavailable, env.do(t, http.MethodPost, "/transcribe", "audio", "").Code)
	})

	t.Run("appends to session transcript", func(t *testing.T) {
		fake := &fakeSpeech{text: "I would use a hash map."}
		env := newTestEnv(t, func(_ *config.ServerConfig, d *Deps) { d.Speech = fake })

		req := httptest.NewRequest(http.MethodPost, "/transcribe?session_id=room-1", strings.NewReader("RIFF"))
		req.Header.Set("Content-Type", "audio/wav")
		w := httptest.NewRecorder()
		env.srv.Handler().ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "I would use a hash map.", decode[map[string]string](t, w)["transcript"])
		assert.Equal(t, "audio/wav", fake.contentType)
		assert.Equal(t, "RIFF", fake.body)

		entries, err := env.transcripts.Entries(context.Background(), "room-1")
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, types.SpeakerCandidate, entries[0].Speaker)
	})

	t.Run("upstream failure", func(t *testing.T) {
		fake := &fakeSpeech{err: &speech.APIError{StatusCode: 401, Message: "bad key"}}
		env := newTestEnv(t, func(_ *config.ServerConfig, d *Deps) { d.Speech = fake })
		assert.Equal(t, http.StatusBadGateway, env.do(t, http.MethodPost, "/transcribe", "audio", "").Code)
	})
}

func TestTranscriptEndpoints(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/sessions/room-1/transcript", types.TranscriptEntry{
		Speaker: types.SpeakerInterviewer, Text: "Tell me about yourself.",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code)
	assert.False(t, decode[types.TranscriptEntry](t, w).At.IsZero())

	env.do(t, http.MethodPost, "/sessions/room-1/transcript", types.TranscriptEntry{
		Speaker: types.SpeakerCandidate, Text: "I build backends.",
	}, "")

	w = env.do(t, http.MethodGet, "/sessions/room-1/transcript", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		SessionID string                  `json:"session_id"`
		Entries   []types.TranscriptEntry `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "room-1", resp.SessionID)
	require.Len(t, resp.Entries, 2)
	assert.Equal(t, types.SpeakerInterviewer, resp.Entries[0].Speaker)

	w = env.do(t, http.MethodPost, "/sessions/room-1/transcript", map[string]string{"speaker": "candidate"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMeetingConfig(t *testing.T) {
	signer := &fakeSigner{}
	env := newTestEnv(t, func(_ *config.ServerConfig, d *Deps) { d.Meeting = signer })

	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodGet, "/meeting/config", nil, "").Code)

	token := env.login(t, "lead@corp.io", types.UserTypeInterviewer)
	w := env.do(t, http.MethodGet, "/meeting/config", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	cfg := decode[meeting.WidgetConfig](t, w)
	assert.Equal(t, "signed", cfg.JWT)
	assert.True(t, signer.got.Moderator)
	assert.Equal(t, "lead@corp.io", signer.got.Name)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	env.do(t, http.MethodGet, "/health", nil, "")
	env.do(t, http.MethodGet, "/nowhere", nil, "")

	w := env.do(t, http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `intervuex_http_requests_total{endpoint="GET /health",method="GET",status_code="200"} 1`)
	assert.Contains(t, body, `endpoint="unmatched"`)
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t, func(c *config.ServerConfig, _ *Deps) {
		c.RateLimit = config.RateLimitConfig{Enabled: true, DefaultLimit: 2, DefaultWindow: time.Minute}
	})

	for i := 0; i < 2; i++ {
		w := env.do(t, http.MethodGet, "/challenges", nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	}

	w := env.do(t, http.MethodGet, "/challenges", nil, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Equal(t, "rate_limit_exceeded", decode[map[string]any](t, w)["error"])

	// Health checks are never limited.
	for i := 0; i < 10; i++ {
		assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/health", nil, "").Code)
	}
}
