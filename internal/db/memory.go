package db

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/techieRahul17/intervuex/internal/types"
)

var now = func() time.Time { return time.Now().UTC() }

// Memory is a process-local Store. Data is lost on restart.
type Memory struct {
	mu           sync.RWMutex
	challenges   map[uuid.UUID]types.Challenge
	applications []types.Application
	transcripts  map[string][]types.TranscriptEntry
}

// NewMemory creates an empty Memory store.
func NewMemory() *Memory {
	return &Memory{
		challenges:  make(map[uuid.UUID]types.Challenge),
		transcripts: make(map[string][]types.TranscriptEntry),
	}
}

func (m *Memory) CreateChallenge(_ context.Context, c *types.Challenge) error {
	prepareChallenge(c)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.challenges[c.ID]; exists {
		return &DuplicateError{Kind: "challenge", ID: c.ID.String()}
	}
	m.challenges[c.ID] = cloneChallenge(*c)
	return nil
}

func (m *Memory) GetChallenge(_ context.Context, id uuid.UUID) (*types.Challenge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.challenges[id]
	if !ok {
		return nil, nil
	}
	out := cloneChallenge(c)
	return &out, nil
}

// ListChallenges returns challenges newest first.
func (m *Memory) ListChallenges(_ context.Context) ([]types.Challenge, error) {
	m.mu.RLock()
	out := make([]types.Challenge, 0, len(m.challenges))
	for _, c := range m.challenges {
		out = append(out, cloneChallenge(c))
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) CreateApplication(_ context.Context, a *types.Application) error {
	prepareApplication(a)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.applications = append(m.applications, *a)
	return nil
}

// ListApplicationsByUser returns a user's applications in insertion order.
func (m *Memory) ListApplicationsByUser(_ context.Context, userID string) ([]types.Application, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []types.Application{}
	for _, a := range m.applications {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *Memory) AppendTranscript(_ context.Context, sessionID string, entries []types.TranscriptEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transcripts[sessionID] = append(m.transcripts[sessionID], entries...)
	return nil
}

func (m *Memory) TranscriptEntries(_ context.Context, sessionID string) ([]types.TranscriptEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]types.TranscriptEntry{}, m.transcripts[sessionID]...), nil
}

// Close is a no-op.
func (m *Memory) Close() {}

func cloneChallenge(c types.Challenge) types.Challenge {
	c.TestCases = append([]string(nil), c.TestCases...)
	c.ExpectedOutputs = append([]string(nil), c.ExpectedOutputs...)
	return c
}
