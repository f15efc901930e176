package auth

import (
	"os"
	"path/filepath"
	"strings"
)

// TokenStore persists the remote provider's session token across restarts.
// It plays the role local storage plays in a browser client.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// FileTokenStore stores the token in a file, created with user-only permissions
type FileTokenStore struct {
	Path string
}

// Ensure FileTokenStore implements TokenStore
var _ TokenStore = (*FileTokenStore)(nil)

// NewFileTokenStore creates a token store at the given path
func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{Path: path}
}

// Load reads the stored token. A missing file yields an empty token, not
// an error.
func (s *FileTokenStore) Load() (string, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// Save writes the token to the file
func (s *FileTokenStore) Save(token string) error {
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}
	return os.WriteFile(s.Path, []byte(token), 0600)
}

// Clear removes the token file. Missing files are a no-op.
func (s *FileTokenStore) Clear() error {
	err := os.Remove(s.Path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// MemoryTokenStore keeps the token in memory only (for tests and throwaway
// sessions)
type MemoryTokenStore struct {
	token string
}

// Ensure MemoryTokenStore implements TokenStore
var _ TokenStore = (*MemoryTokenStore)(nil)

func (s *MemoryTokenStore) Load() (string, error) { return s.token, nil }

func (s *MemoryTokenStore) Save(token string) error {
	s.token = token
	return nil
}

func (s *MemoryTokenStore) Clear() error {
	s.token = ""
	return nil
}
