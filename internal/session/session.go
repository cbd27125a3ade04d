package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/techieRahul17/intervuex/internal/types"
)

// StorageKey is the well-known key the user record lives under.
const StorageKey = "intervuex_user"

// ErrNoSession indicates nobody is logged in.
type ErrNoSession struct{}

func (e *ErrNoSession) Error() string {
	return "no active session"
}

// Manager reads and writes the session record in a Storage.
type Manager struct {
	storage Storage
}

// NewManager creates a Manager over storage.
func NewManager(storage Storage) *Manager {
	return &Manager{storage: storage}
}

// Login stores user with the given role, replacing any previous record.
func (m *Manager) Login(user types.User, userType types.UserType) (*types.User, error) {
	return m.write(user, userType)
}

// Register stores a new user record. Like the browser stub, it does not check for
// existing users.
func (m *Manager) Register(user types.User, userType types.UserType) (*types.User, error) {
	return m.write(user, userType)
}

// Logout removes the stored record entirely.
func (m *Manager) Logout() error {
	return m.storage.Remove(StorageKey)
}

// Current returns the stored record or *ErrNoSession.
func (m *Manager) Current() (*types.User, error) {
	raw, ok, err := m.storage.Get(StorageKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &ErrNoSession{}
	}
	var user types.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, fmt.Errorf("failed to decode stored session: %w", err)
	}
	return &user, nil
}

func (m *Manager) write(user types.User, userType types.UserType) (*types.User, error) {
	if !userType.Valid() {
		return nil, fmt.Errorf("invalid user type: %q", userType)
	}
	user.UserType = userType
	data, err := json.Marshal(user)
	if err != nil {
		return nil, fmt.Errorf("failed to encode session: %w", err)
	}
	if err := m.storage.Set(StorageKey, string(data)); err != nil {
		return nil, err
	}
	return &user, nil
}

// Registry hands out one Manager per server-side session id. Sessions expire ttl after
// they are opened, matching the lifetime of the token that names them.
type Registry struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]entry
	ttl     time.Duration
	now     func() time.Time
}

type entry struct {
	manager *Manager
	expires time.Time // zero means never
}

func (e entry) expired(now time.Time) bool {
	return !e.expires.IsZero() && !now.Before(e.expires)
}

// NewRegistry creates an empty Registry. A ttl <= 0 keeps sessions until Close.
func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{
		entries: make(map[uuid.UUID]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Open creates a session with fresh storage and returns its id.
func (r *Registry) Open() (uuid.UUID, *Manager) {
	id := uuid.New()
	e := entry{manager: NewManager(NewMemoryStorage())}
	r.mu.Lock()
	if r.ttl > 0 {
		e.expires = r.now().Add(r.ttl)
	}
	r.entries[id] = e
	r.mu.Unlock()
	return id, e.manager
}

// Get returns the Manager for id. Expired sessions are not returned.
func (r *Registry) Get(id uuid.UUID) (*Manager, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok || e.expired(r.now()) {
		return nil, false
	}
	return e.manager, true
}

// Close logs the session out and forgets it.
func (r *Registry) Close(id uuid.UUID) error {
	r.mu.Lock()
	e, ok := r.entries[id]
	delete(r.entries, id)
	r.mu.Unlock()
	if !ok {
		return &ErrNoSession{}
	}
	return e.manager.Logout()
}

// Len returns the number of sessions not yet evicted.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// EvictExpired forgets every expired session and returns how many were dropped.
func (r *Registry) EvictExpired() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	n := 0
	for id, e := range r.entries {
		if e.expired(now) {
			_ = e.manager.Logout()
			delete(r.entries, id)
			n++
		}
	}
	return n
}

// Run evicts expired sessions every interval until ctx is cancelled.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.EvictExpired()
		}
	}
}
