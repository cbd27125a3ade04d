// Package stream polls the upstream sentiment service for the candidate's
// live confidence value.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/techieRahul17/intervuex/internal/types"
)

// DefaultInterval is the fixed polling period.
const DefaultInterval = 3 * time.Second

// Poller fetches a confidence reading on a fixed interval and keeps the last one.
// A failed tick is logged and skipped; the next tick tries again.
type Poller struct {
	url        string
	interval   time.Duration
	httpClient *http.Client
	logger     *zap.Logger

	// OnFailure and OnReading are optional hooks, called from the polling goroutine.
	OnFailure func(error)
	OnReading func(types.ConfidenceReading)

	mu     sync.RWMutex
	latest types.ConfidenceReading
	ok     bool
}

// NewPoller creates a poller for url. A non-positive interval uses DefaultInterval.
func NewPoller(url string, interval time.Duration, logger *zap.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{
		url:        url,
		interval:   interval,
		httpClient: &http.Client{Timeout: interval},
		logger:     logger,
	}
}

// Run polls until ctx is cancelled. The first poll happens immediately.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

// Latest returns the last successful reading. ok is false until one arrives.
func (p *Poller) Latest() (reading types.ConfidenceReading, ok bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.latest, p.ok
}

func (p *Poller) tick(ctx context.Context) {
	reading, err := p.Poll(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		p.logger.Warn("confidence poll failed", zap.String("url", p.url), zap.Error(err))
		if p.OnFailure != nil {
			p.OnFailure(err)
		}
		return
	}

	p.mu.Lock()
	p.latest = reading
	p.ok = true
	p.mu.Unlock()

	if p.OnReading != nil {
		p.OnReading(reading)
	}
}

// Poll performs a single fetch.
func (p *Poller) Poll(ctx context.Context) (types.ConfidenceReading, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return types.ConfidenceReading{}, fmt.Errorf("failed to build poll request: %w", err)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return types.ConfidenceReading{}, fmt.Errorf("poll request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return types.ConfidenceReading{}, fmt.Errorf("poll returned status %d", resp.StatusCode)
	}

	var body struct {
		Confidence *float64 `json:"confidence"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return types.ConfidenceReading{}, fmt.Errorf("failed to decode poll response: %w", err)
	}
	if body.Confidence == nil {
		return types.ConfidenceReading{}, fmt.Errorf("poll response has no confidence field")
	}
	return types.ConfidenceReading{Confidence: *body.Confidence, UpdatedAt: time.Now().UTC()}, nil
}
