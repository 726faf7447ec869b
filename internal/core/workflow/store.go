package workflow

import (
	"context"
	"sync"
	"time"

	"auto-cart/internal/pkg/common"

	"go.uber.org/zap"
)

// Store persists WorkflowState by session id with a TTL. Load returns
// ErrNoActiveWorkflow when nothing is stored and ErrSessionExpired when an
// entry existed but aged out.
type Store interface {
	Load(ctx context.Context, sessionID string) (*State, error)
	Save(ctx context.Context, state *State) error
	Delete(ctx context.Context, sessionID string) error
}

type memoryEntry struct {
	state     State
	expiresAt time.Time
}

// MemoryStore keeps sessions in process memory with periodic cleanup. It
// backs tests and redis-less deployments.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	done    chan struct{}
	closed  sync.Once
}

// NewMemoryStore creates an in-memory session store and starts its cleanup
// goroutine.
func NewMemoryStore(ttl, cleanupEvery time.Duration) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		done:    make(chan struct{}),
	}
	go s.startCleanup(cleanupEvery)
	return s
}

// Load returns a copy of the stored state.
func (s *MemoryStore) Load(_ context.Context, sessionID string) (*State, error) {
	s.mu.RLock()
	entry, ok := s.entries[sessionID]
	s.mu.RUnlock()

	if !ok {
		return nil, common.ErrNoActiveWorkflow
	}
	if time.Now().After(entry.expiresAt) {
		s.mu.Lock()
		delete(s.entries, sessionID)
		s.mu.Unlock()
		return nil, common.ErrSessionExpired
	}

	state := entry.state
	return &state, nil
}

// Save stores the state, resetting its TTL.
func (s *MemoryStore) Save(_ context.Context, state *State) error {
	state.UpdatedAt = time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[state.SessionID] = memoryEntry{
		state:     *state,
		expiresAt: time.Now().Add(s.ttl),
	}
	return nil
}

// Delete removes the session; deleting an absent session is a no-op.
func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, sessionID)
	return nil
}

// Close stops the cleanup goroutine.
func (s *MemoryStore) Close() {
	s.closed.Do(func() {
		close(s.done)
	})
}

func (s *MemoryStore) startCleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.done:
			return
		}
	}
}

func (s *MemoryStore) cleanup() {
	now := time.Now()
	count := 0

	s.mu.Lock()
	for sessionID, entry := range s.entries {
		if now.After(entry.expiresAt) {
			delete(s.entries, sessionID)
			count++
		}
	}
	remaining := len(s.entries)
	s.mu.Unlock()

	if count > 0 {
		common.LogInfo("expired shopping sessions cleaned up",
			zap.Int("expired", count),
			zap.Int("remaining", remaining),
		)
	}
}
