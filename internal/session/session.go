// Package session holds the bearer token of the current user.
//
// A Store is created once per process and passed to the transport and the
// identity resolver. The token is treated as opaque. A Store created with a
// path persists the token there so it survives restarts until it is cleared.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/oauth2"
)

// Store holds at most one session token.
type Store struct {
	mu    sync.RWMutex
	token string
	path  string
}

// NewMemory creates a store that is never persisted.
func NewMemory() *Store {
	return &Store{}
}

// Open creates a store persisted at path, loading any token already saved
// there. A missing file yields an empty store.
func Open(path string) (*Store, error) {
	s := &Store{path: path}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token: %w", err)
	}

	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", filepath.Base(path), err)
	}
	s.token = tok.AccessToken
	return s, nil
}

// Token returns the current token and whether one is set.
func (s *Store) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

// OAuth2Token returns the current token as a bearer token, or nil when no
// session exists.
func (s *Store) OAuth2Token() *oauth2.Token {
	tok, ok := s.Token()
	if !ok {
		return nil
	}
	return &oauth2.Token{AccessToken: tok, TokenType: "Bearer"}
}

// Set replaces the held token. An empty token is equivalent to Clear.
// The held token is unchanged when persisting fails.
func (s *Store) Set(token string) error {
	if token == "" {
		return s.Clear()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path != "" {
		if err := saveToken(s.path, &oauth2.Token{AccessToken: token, TokenType: "Bearer"}); err != nil {
			return err
		}
	}
	s.token = token
	return nil
}

// Clear removes the held token and its persisted copy.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = ""
	if s.path == "" {
		return nil
	}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove token: %w", err)
	}
	return nil
}

// Path returns the file the store persists to, or "" for a memory store.
func (s *Store) Path() string {
	return s.path
}

// saveToken saves a token to a file with mode 0600, creating the directory
// with mode 0700.
func saveToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
