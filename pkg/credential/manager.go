package credential

import (
	"fmt"
	"log/slog"

	evbus "github.com/asaskevich/EventBus"
)

// Notification topics published by the Manager. Subscribers receive the
// affected Key as the sole argument.
const (
	TopicCredentialSaved   = "credential.saved"
	TopicCredentialDeleted = "credential.deleted"
)

// CookieClearer removes session-scoped web cookies for an authentication
// domain. Deleting a credential clears the cookies tied to the same domain so
// a following web login does not silently reuse the old session.
type CookieClearer interface {
	ClearCookies(domain string)
}

// Manager fronts a Store with save/delete notifications and cookie
// invalidation. It is the credential facade the login orchestrator persists
// through.
type Manager struct {
	store      Store
	bus        evbus.Bus
	clearer    CookieClearer
	authDomain string
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithBus sets the event bus used for save/delete notifications. Without a
// bus the manager stays silent.
func WithBus(bus evbus.Bus) ManagerOption {
	return func(m *Manager) {
		m.bus = bus
	}
}

// WithCookieClearer registers a clearer invoked with authDomain whenever a
// credential is deleted.
func WithCookieClearer(clearer CookieClearer, authDomain string) ManagerOption {
	return func(m *Manager) {
		m.clearer = clearer
		m.authDomain = authDomain
	}
}

// NewManager creates a credential manager backed by store.
func NewManager(store Store, opts ...ManagerOption) *Manager {
	m := &Manager{store: store}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Save persists the credential under key and publishes a saved notification.
func (m *Manager) Save(cred Credential, key Key) error {
	if err := m.store.Save(cred, key); err != nil {
		slog.Error("Failed to save credential", "identifier", key.Identifier, "err", err)
		return fmt.Errorf("failed to save credential: %w", err)
	}
	if m.bus != nil {
		m.bus.Publish(TopicCredentialSaved, key)
	}
	return nil
}

// Fetch returns the credential stored under key.
func (m *Manager) Fetch(key Key) (*Credential, bool) {
	return m.store.Fetch(key)
}

// Delete removes the credential stored under key, clears session cookies for
// the authentication domain, and publishes a deleted notification. The two
// effects are performed together so callers observe them as one operation.
func (m *Manager) Delete(key Key) error {
	if m.clearer != nil {
		m.clearer.ClearCookies(m.authDomain)
	}
	if err := m.store.Delete(key); err != nil {
		slog.Error("Failed to delete credential", "identifier", key.Identifier, "err", err)
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	if m.bus != nil {
		m.bus.Publish(TopicCredentialDeleted, key)
	}
	return nil
}
