package auth

import (
	"context"
	"sync"
)

// Credential is the external credential triple owned by an account. The
// three fields are always set or cleared as a unit, never partially.
type Credential struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ProfileID    string `json:"profile_id"`
}

// Empty reports whether no credential is on file.
func (c *Credential) Empty() bool {
	return c == nil || c.AccessToken == ""
}

// CredentialStore persists credentials per account. Save replaces the whole
// triple; Clear removes it entirely.
type CredentialStore interface {
	Get(ctx context.Context, accountID string) (*Credential, error)
	Save(ctx context.Context, accountID string, cred *Credential) error
	Clear(ctx context.Context, accountID string) error
}

// MemoryCredentialStore keeps credentials in process memory. Account CRUD
// and durable persistence belong to an external collaborator; this store is
// the in-process seam it plugs into.
type MemoryCredentialStore struct {
	mu    sync.RWMutex
	creds map[string]Credential
}

// NewMemoryCredentialStore creates an empty in-memory credential store.
func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{
		creds: make(map[string]Credential),
	}
}

// Get returns the stored credential or nil when none is on file.
func (s *MemoryCredentialStore) Get(_ context.Context, accountID string) (*Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cred, ok := s.creds[accountID]
	if !ok {
		return nil, nil
	}
	copied := cred
	return &copied, nil
}

// Save stores the credential triple atomically.
func (s *MemoryCredentialStore) Save(_ context.Context, accountID string, cred *Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.creds[accountID] = *cred
	return nil
}

// Clear removes all credential fields together.
func (s *MemoryCredentialStore) Clear(_ context.Context, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.creds, accountID)
	return nil
}
