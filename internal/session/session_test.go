package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/techieRahul17/intervuex/internal/types"
)

func TestManager_LoginLogout(t *testing.T) {
	storage := NewMemoryStorage()
	m := NewManager(storage)

	_, err := m.Login(types.User{Email: "a@b.com"}, types.UserTypeCandidate)
	require.NoError(t, err)

	current, err := m.Current()
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", current.Email)
	assert.Equal(t, types.UserTypeCandidate, current.UserType)

	require.NoError(t, m.Logout())
	_, err = m.Current()
	var noSession *ErrNoSession
	assert.ErrorAs(t, err, &noSession)
	assert.Equal(t, 0, storage.Len())
}

func TestManager_RegisterOverwrites(t *testing.T) {
	m := NewManager(NewMemoryStorage())

	_, err := m.Login(types.User{Email: "a@b.com"}, types.UserTypeCandidate)
	require.NoError(t, err)
	_, err = m.Register(types.User{Email: "lead@corp.io", Name: "Lead"}, types.UserTypeInterviewer)
	require.NoError(t, err)

	current, err := m.Current()
	require.NoError(t, err)
	assert.Equal(t, "lead@corp.io", current.Email)
	assert.Equal(t, "Lead", current.Name)
	assert.Equal(t, types.UserTypeInterviewer, current.UserType)
}

func TestManager_RejectsUnknownUserType(t *testing.T) {
	m := NewManager(NewMemoryStorage())

	_, err := m.Login(types.User{Email: "a@b.com"}, "admin")
	assert.Error(t, err)
}

func TestManager_CorruptRecord(t *testing.T) {
	storage := NewMemoryStorage()
	require.NoError(t, storage.Set(StorageKey, "{not json"))

	_, err := NewManager(storage).Current()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}

func TestFileStorage_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "storage.json")
	m := NewManager(NewFileStorage(path))

	_, err := m.Login(types.User{Email: "a@b.com"}, types.UserTypeCandidate)
	require.NoError(t, err)

	// A second storage over the same file sees the record.
	current, err := NewManager(NewFileStorage(path)).Current()
	require.NoError(t, err)
	assert.Equal(t, types.UserTypeCandidate, current.UserType)

	require.NoError(t, m.Logout())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), StorageKey)
}

func TestFileStorage_MissingFileIsEmpty(t *testing.T) {
	s := NewFileStorage(filepath.Join(t.TempDir(), "absent.json"))

	_, ok, err := s.Get(StorageKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRegistry_OpenGetClose(t *testing.T) {
	r := NewRegistry(0)

	id, m := r.Open()
	_, err := m.Login(types.User{Email: "a@b.com"}, types.UserTypeCandidate)
	require.NoError(t, err)

	got, ok := r.Get(id)
	require.True(t, ok)
	assert.Same(t, m, got)
	assert.Equal(t, 1, r.Len())

	require.NoError(t, r.Close(id))
	_, ok = r.Get(id)
	assert.False(t, ok)
	_, err = m.Current()
	assert.Error(t, err)

	err = r.Close(uuid.New())
	var noSession *ErrNoSession
	assert.ErrorAs(t, err, &noSession)
}

func TestRegistry_ExpiredSessionsAreEvicted(t *testing.T) {
	r := NewRegistry(time.Hour)
	now := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	old, m := r.Open()
	_, err := m.Login(types.User{Email: "a@b.com"}, types.UserTypeCandidate)
	require.NoError(t, err)

	now = now.Add(30 * time.Minute)
	fresh, _ := r.Open()

	_, ok := r.Get(old)
	assert.True(t, ok)
	assert.Equal(t, 0, r.EvictExpired())

	now = now.Add(31 * time.Minute)
	_, ok = r.Get(old)
	assert.False(t, ok, "expired session must not be served")
	_, ok = r.Get(fresh)
	assert.True(t, ok)

	assert.Equal(t, 1, r.EvictExpired())
	assert.Equal(t, 1, r.Len())
	_, err = m.Current()
	assert.Error(t, err, "evicted session is logged out")

	var noSession *ErrNoSession
	assert.ErrorAs(t, r.Close(old), &noSession)
}

func TestRegistry_ZeroTTLNeverExpires(t *testing.T) {
	r := NewRegistry(0)
	now := time.Now()
	r.now = func() time.Time { return now }

	id, _ := r.Open()
	now = now.Add(1000 * time.Hour)

	assert.Equal(t, 0, r.EvictExpired())
	_, ok := r.Get(id)
	assert.True(t, ok)
}

func TestRegistry_RunStopsOnCancel(t *testing.T) {
	r := NewRegistry(time.Millisecond)
	r.Open()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return r.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
