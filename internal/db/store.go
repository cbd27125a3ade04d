// Package db provides storage for challenges, applications and interview transcripts.
package db

import (
	"context"

	"github.com/google/uuid"

	"github.com/techieRahul17/intervuex/internal/types"
)

// Store is implemented by the in-memory and PostgreSQL backends.
// Lookups of missing records return nil with a nil error.
type Store interface {
	CreateChallenge(ctx context.Context, c *types.Challenge) error
	GetChallenge(ctx context.Context, id uuid.UUID) (*types.Challenge, error)
	ListChallenges(ctx context.Context) ([]types.Challenge, error)

	CreateApplication(ctx context.Context, a *types.Application) error
	ListApplicationsByUser(ctx context.Context, userID string) ([]types.Application, error)

	AppendTranscript(ctx context.Context, sessionID string, entries []types.TranscriptEntry) error
	TranscriptEntries(ctx context.Context, sessionID string) ([]types.TranscriptEntry, error)

	Close()
}

// prepareChallenge fills the server-assigned fields.
func prepareChallenge(c *types.Challenge) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now()
	}
}

func prepareApplication(a *types.Application) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.AppliedAt.IsZero() {
		a.AppliedAt = now()
	}
	if a.Status == "" {
		a.Status = "applied"
	}
}
