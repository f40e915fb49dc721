package credential

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore implements Store using file-based storage. Each credential is
// written to a JSON file named after its key within the data directory,
// giving hosts a durable store without a platform keychain.
type FileStore struct {
	dataDir string
	mutex   sync.Mutex
}

// NewFileStore creates a new file-based credential store rooted at dataDir.
func NewFileStore(dataDir string) (*FileStore, error) {
	// Create data directory if it doesn't exist
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return &FileStore{dataDir: dataDir}, nil
}

// Save persists the credential under key, overwriting any previous value.
func (s *FileStore) Save(cred Credential, key Key) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	data, err := json.MarshalIndent(cred, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal credential: %w", err)
	}

	if err := os.WriteFile(s.path(key), data, 0600); err != nil {
		return fmt.Errorf("failed to write credential file: %w", err)
	}
	return nil
}

// Fetch returns the credential stored under key.
func (s *FileStore) Fetch(key Key) (*Credential, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	data, err := os.ReadFile(s.path(key))
	if err != nil {
		return nil, false
	}

	var cred Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, false
	}
	return &cred, true
}

// Delete removes the credential stored under key.
func (s *FileStore) Delete(key Key) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	err := os.Remove(s.path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove credential file: %w", err)
	}
	return nil
}

func (s *FileStore) path(key Key) string {
	group := key.AccessGroup
	if group == "" {
		group = "default"
	}
	return filepath.Join(s.dataDir, fmt.Sprintf("%s.%s.json", group, key.Identifier))
}
