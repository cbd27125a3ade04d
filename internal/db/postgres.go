package db

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/techieRahul17/intervuex/internal/types"
)

//go:embed schema.sql
var schemaSQL string

// uniqueViolation is the PostgreSQL SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// Migrate applies the embedded schema. It is idempotent.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// CreateChallenge inserts c, assigning its id and creation time when unset.
func (db *DB) CreateChallenge(ctx context.Context, c *types.Challenge) error {
	prepareChallenge(c)
	cases, err := json.Marshal(c.TestCases)
	if err != nil {
		return fmt.Errorf("failed to marshal test cases: %w", err)
	}
	outputs, err := json.Marshal(c.ExpectedOutputs)
	if err != nil {
		return fmt.Errorf("failed to marshal expected outputs: %w", err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO challenges (id, title, description, difficulty, starter_code, test_cases,
		                         expected_outputs, time_limit, language, function_name, created_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		c.ID, c.Title, c.Description, c.Difficulty, c.StarterCode, cases,
		outputs, c.TimeLimit, string(c.Language), c.FunctionName, c.CreatedBy, c.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return &DuplicateError{Kind: "challenge", ID: c.ID.String()}
		}
		return fmt.Errorf("failed to create challenge: %w", err)
	}
	return nil
}

const challengeColumns = `id, title, description, difficulty, starter_code, test_cases,
	expected_outputs, time_limit, language, function_name, created_by, created_at`

func scanChallenge(row pgx.Row) (*types.Challenge, error) {
	var (
		c        types.Challenge
		cases    []byte
		outputs  []byte
		language string
	)
	if err := row.Scan(&c.ID, &c.Title, &c.Description, &c.Difficulty, &c.StarterCode, &cases,
		&outputs, &c.TimeLimit, &language, &c.FunctionName, &c.CreatedBy, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.Language = types.Language(language)
	if err := json.Unmarshal(cases, &c.TestCases); err != nil {
		return nil, fmt.Errorf("failed to decode test cases: %w", err)
	}
	if err := json.Unmarshal(outputs, &c.ExpectedOutputs); err != nil {
		return nil, fmt.Errorf("failed to decode expected outputs: %w", err)
	}
	return &c, nil
}

// GetChallenge retrieves a challenge by ID
func (db *DB) GetChallenge(ctx context.Context, id uuid.UUID) (*types.Challenge, error) {
	c, err := scanChallenge(db.pool.QueryRow(ctx,
		`SELECT `+challengeColumns+` FROM challenges WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}
	return c, nil
}

// ListChallenges returns challenges newest first
func (db *DB) ListChallenges(ctx context.Context) ([]types.Challenge, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+challengeColumns+` FROM challenges ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list challenges: %w", err)
	}
	defer rows.Close()

	out := []types.Challenge{}
	for rows.Next() {
		c, err := scanChallenge(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan challenge: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// CreateApplication inserts a job application
func (db *DB) CreateApplication(ctx context.Context, a *types.Application) error {
	prepareApplication(a)
	_, err := db.pool.Exec(ctx,
		`INSERT INTO applications (id, user_id, job_title, company, status, applied_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, a.UserID, a.JobTitle, a.Company, a.Status, a.AppliedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	return nil
}

// ListApplicationsByUser returns a user's applications, oldest first
func (db *DB) ListApplicationsByUser(ctx context.Context, userID string) ([]types.Application, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, user_id, job_title, company, status, applied_at
		 FROM applications WHERE user_id = $1 ORDER BY applied_at, id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	out := []types.Application{}
	for rows.Next() {
		var a types.Application
		if err := rows.Scan(&a.ID, &a.UserID, &a.JobTitle, &a.Company, &a.Status, &a.AppliedAt); err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// AppendTranscript writes entries for a session in one batch
func (db *DB) AppendTranscript(ctx context.Context, sessionID string, entries []types.TranscriptEntry) error {
	if len(entries) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(
			`INSERT INTO transcript_entries (session_id, speaker, text, at) VALUES ($1, $2, $3, $4)`,
			sessionID, e.Speaker, e.Text, e.At,
		)
	}
	if err := db.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to append transcript: %w", err)
	}
	return nil
}

// TranscriptEntries returns a session transcript in arrival order
func (db *DB) TranscriptEntries(ctx context.Context, sessionID string) ([]types.TranscriptEntry, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT speaker, text, at FROM transcript_entries WHERE session_id = $1 ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to read transcript: %w", err)
	}
	defer rows.Close()

	out := []types.TranscriptEntry{}
	for rows.Next() {
		var e types.TranscriptEntry
		if err := rows.Scan(&e.Speaker, &e.Text, &e.At); err != nil {
			return nil, fmt.Errorf("failed to scan transcript entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
