//go:build integration

package db

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techieRahul17/intervuex/internal/types"
)

func getTestDB(t *testing.T) *DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	db, err := Connect(ctx, dsn)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

func TestIntegration_Challenge_CRUD(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()
	ctx := context.Background()

	c := twoSumChallenge()
	c.FunctionName = "twoSum"
	require.NoError(t, db.CreateChallenge(ctx, c))
	defer func() { _, _ = db.pool.Exec(ctx, "DELETE FROM challenges WHERE id = $1", c.ID) }()

	got, err := db.GetChallenge(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, c.TestCases, got.TestCases)
	assert.Equal(t, c.ExpectedOutputs, got.ExpectedOutputs)
	assert.Equal(t, types.LanguageJavaScript, got.Language)
	assert.Equal(t, "twoSum", got.FunctionName)

	list, err := db.ListChallenges(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, list)

	var dup *DuplicateError
	assert.ErrorAs(t, db.CreateChallenge(ctx, c), &dup)

	missing, err := db.GetChallenge(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestIntegration_ApplicationsByUser(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()
	ctx := context.Background()

	userID := "integration-" + uuid.NewString()
	defer func() { _, _ = db.pool.Exec(ctx, "DELETE FROM applications WHERE user_id = $1", userID) }()

	require.NoError(t, db.CreateApplication(ctx, &types.Application{UserID: userID, JobTitle: "Backend Engineer", Company: "Acme"}))

	apps, err := db.ListApplicationsByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, "applied", apps[0].Status)
}

func TestIntegration_Transcript(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()
	ctx := context.Background()

	sessionID := "integration-" + uuid.NewString()
	defer func() { _, _ = db.pool.Exec(ctx, "DELETE FROM transcript_entries WHERE session_id = $1", sessionID) }()

	entries := []types.TranscriptEntry{
		{Speaker: types.SpeakerInterviewer, Text: "Tell me about yourself", At: now()},
		{Speaker: types.SpeakerCandidate, Text: "I build backends", At: now()},
	}
	require.NoError(t, db.AppendTranscript(ctx, sessionID, entries))

	got, err := db.TranscriptEntries(ctx, sessionID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "I build backends", got[1].Text)
}
