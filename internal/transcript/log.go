// Package transcript buffers interview transcripts in memory and flushes them
// to durable storage in the background.
package transcript

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/techieRahul17/intervuex/internal/types"
)

// Sink persists transcript entries for a session.
type Sink interface {
	AppendTranscript(ctx context.Context, sessionID string, entries []types.TranscriptEntry) error
}

// Source is implemented by sinks that can read transcripts back.
type Source interface {
	TranscriptEntries(ctx context.Context, sessionID string) ([]types.TranscriptEntry, error)
}

// Log holds transcripts per session in arrival order.
type Log struct {
	mu      sync.Mutex
	entries map[string][]types.TranscriptEntry
	pending map[string][]types.TranscriptEntry
	sink    Sink
	logger  *zap.Logger
	now     func() time.Time
}

// NewLog creates a Log. sink may be nil, in which case nothing is flushed.
func NewLog(sink Sink, logger *zap.Logger) *Log {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Log{
		entries: make(map[string][]types.TranscriptEntry),
		pending: make(map[string][]types.TranscriptEntry),
		sink:    sink,
		logger:  logger,
		now:     time.Now,
	}
}

// Append adds e to the session transcript, stamping it if At is zero.
func (l *Log) Append(sessionID string, e types.TranscriptEntry) types.TranscriptEntry {
	if e.At.IsZero() {
		e.At = l.now().UTC()
	}
	l.mu.Lock()
	l.entries[sessionID] = append(l.entries[sessionID], e)
	if l.sink != nil {
		l.pending[sessionID] = append(l.pending[sessionID], e)
	}
	l.mu.Unlock()
	return e
}

// Entries returns the transcript for sessionID. Sessions not seen by this process
// are read from the sink when it is a Source.
func (l *Log) Entries(ctx context.Context, sessionID string) ([]types.TranscriptEntry, error) {
	l.mu.Lock()
	entries, ok := l.entries[sessionID]
	out := append([]types.TranscriptEntry(nil), entries...)
	l.mu.Unlock()
	if ok {
		return out, nil
	}

	if src, isSource := l.sink.(Source); isSource {
		stored, err := src.TranscriptEntries(ctx, sessionID)
		if err != nil {
			return nil, fmt.Errorf("failed to load transcript %s: %w", sessionID, err)
		}
		return stored, nil
	}
	return []types.TranscriptEntry{}, nil
}

// Pending returns the number of entries not yet flushed.
func (l *Log) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, es := range l.pending {
		n += len(es)
	}
	return n
}

// Flush writes pending entries to the sink. Sessions that fail stay pending,
// ahead of anything appended meanwhile.
func (l *Log) Flush(ctx context.Context) error {
	if l.sink == nil {
		return nil
	}

	l.mu.Lock()
	batch := l.pending
	l.pending = make(map[string][]types.TranscriptEntry)
	l.mu.Unlock()

	var firstErr error
	for sessionID, entries := range batch {
		if err := l.sink.AppendTranscript(ctx, sessionID, entries); err != nil {
			l.logger.Warn("transcript flush failed",
				zap.String("session_id", sessionID),
				zap.Int("entries", len(entries)),
				zap.Error(err))
			l.mu.Lock()
			l.pending[sessionID] = append(entries, l.pending[sessionID]...)
			l.mu.Unlock()
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Run flushes every interval until ctx is cancelled, then flushes once more.
func (l *Log) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			finalCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			_ = l.Flush(finalCtx)
			cancel()
			return
		case <-ticker.C:
			_ = l.Flush(ctx)
		}
	}
}
