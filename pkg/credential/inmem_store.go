package credential

import (
	"log/slog"
	"sync"
)

// InMemStore implements Store using an in-memory map. It is the default
// store for tests and for hosts that manage persistence themselves.
type InMemStore struct {
	mu    sync.Mutex
	creds map[Key]Credential
}

// NewInMemStore creates a new in-memory credential store.
func NewInMemStore() *InMemStore {
	return &InMemStore{
		creds: make(map[Key]Credential),
	}
}

// Save persists the credential under key, overwriting any previous value.
func (s *InMemStore) Save(cred Credential, key Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.creds[key] = cred
	slog.Debug("Credential saved", "identifier", key.Identifier, "accessGroup", key.AccessGroup)
	return nil
}

// Fetch returns the credential stored under key.
func (s *InMemStore) Fetch(key Key) (*Credential, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cred, ok := s.creds[key]
	if !ok {
		return nil, false
	}
	copied := cred
	return &copied, true
}

// Delete removes the credential stored under key.
func (s *InMemStore) Delete(key Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.creds, key)
	slog.Debug("Credential deleted", "identifier", key.Identifier, "accessGroup", key.AccessGroup)
	return nil
}
