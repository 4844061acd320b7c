package store

import (
	"context"
	"sync"
	"time"

	"leadgate/internal/ledger/models"
	"leadgate/pkg/platform/sentinel"
)

// ExecuteFunc inspects a locked record and decides its fate. A returned error
// is passed through to the caller after the action has been applied.
type ExecuteFunc = func(t *models.Token) (models.Action, error)

// InMemoryStore keeps tokens in a map guarded by an RWMutex.
type InMemoryStore struct {
	mu     sync.RWMutex
	tokens map[string]*models.Token
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{tokens: make(map[string]*models.Token)}
}

func (s *InMemoryStore) Save(_ context.Context, t *models.Token) error {
	if t == nil || t.Code == "" {
		return sentinel.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tokens[t.Code]; exists {
		return sentinel.ErrConflict
	}
	s.tokens[t.Code] = t.Clone()
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, code string) (*models.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tokens[code]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return t.Clone(), nil
}

func (s *InMemoryStore) Execute(_ context.Context, code string, fn ExecuteFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.tokens[code]
	if !ok {
		return sentinel.ErrNotFound
	}
	working := current.Clone()
	action, err := fn(working)
	switch action {
	case models.ActionDelete:
		delete(s.tokens, code)
	case models.ActionUpdate:
		s.tokens[code] = working
	}
	return err
}

// DeleteExpired collects expired codes under the read lock, then removes
// them under a short write lock.
func (s *InMemoryStore) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.RLock()
	var expired []string
	for code, t := range s.tokens {
		if t.IsExpired(now) {
			expired = append(expired, code)
		}
	}
	s.mu.RUnlock()

	if len(expired) == 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for _, code := range expired {
		if t, ok := s.tokens[code]; ok && t.IsExpired(now) {
			delete(s.tokens, code)
			deleted++
		}
	}
	return deleted, nil
}
