package client

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
)

// TokenStore persists the session token between runs of a front end.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// MemoryTokenStore keeps the token in memory only.
type MemoryTokenStore struct {
	mu    sync.Mutex
	token string
}

func (s *MemoryTokenStore) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

func (s *MemoryTokenStore) Save(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *MemoryTokenStore) Clear() error {
	return s.Save("")
}

// FileTokenStore keeps the token in a JSON file readable only by the owner.
type FileTokenStore struct {
	path string
}

// NewFileTokenStore returns a store backed by path.
func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

type tokenFile struct {
	Token string `json:"token"`
}

func (s *FileTokenStore) Load() (string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	var f tokenFile
	if err := json.Unmarshal(data, &f); err != nil {
		return "", err
	}
	return f.Token, nil
}

func (s *FileTokenStore) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	data, err := json.Marshal(tokenFile{Token: token})
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *FileTokenStore) Clear() error {
	err := os.Remove(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Session ties the API client, the cached token and a Guard together.
// Logging out only forgets the token locally; the server keeps no session.
type Session struct {
	client *Client
	tokens TokenStore
	guard  *Guard

	mu    sync.RWMutex
	token string
	user  *User
}

// NewSession returns a Session. Call Restore to pick up a cached token.
func NewSession(c *Client, tokens TokenStore, guard *Guard) *Session {
	return &Session{client: c, tokens: tokens, guard: guard}
}

// Guard returns the session's guard.
func (s *Session) Guard() *Guard {
	return s.guard
}

// Token returns the current token, or "" when logged out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns the account from the last login, if any.
func (s *Session) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Restore loads the cached token and starts verifying it.
func (s *Session) Restore() error {
	token, err := s.tokens.Load()
	if err != nil {
		s.setToken("", nil)
		return err
	}
	s.setToken(token, nil)
	return nil
}

// Login authenticates, caches the token and re-arms the guard.
func (s *Session) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	result, err := s.client.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if err := s.tokens.Save(result.Token); err != nil {
		return nil, err
	}
	user := result.User
	s.setToken(result.Token, &user)
	return result, nil
}

// Logout forgets the token locally.
func (s *Session) Logout() error {
	s.setToken("", nil)
	return s.tokens.Clear()
}

// Orders lists the logged in user's orders.
func (s *Session) Orders(ctx context.Context) ([]Order, error) {
	return s.client.Orders(ctx, s.Token())
}

func (s *Session) setToken(token string, user *User) {
	s.mu.Lock()
	s.token = token
	s.user = user
	s.mu.Unlock()

	if s.guard != nil {
		s.guard.SetToken(token)
	}
}
