package store

import (
	"context"
	"sync"

	"leadgate/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu      sync.RWMutex
	setting *Setting
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Get(_ context.Context) (*Setting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.setting == nil {
		return nil, sentinel.ErrNotFound
	}
	c := *s.setting
	return &c, nil
}

func (s *InMemoryStore) Set(_ context.Context, setting Setting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setting = &setting
	return nil
}
