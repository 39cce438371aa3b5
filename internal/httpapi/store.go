package httpapi

import (
	"context"
	"errors"
	"sync"
)

// EntityStore is the storage collaborator consumed by the handlers. Entities
// are raw field maps; this layer never interprets them beyond the ownership
// facts needed for authorization and the before/after snapshots needed for
// auditing. Real persistence lives outside this repo.
type EntityStore interface {
	Get(ctx context.Context, entityType, id string) (map[string]any, error)
	List(ctx context.Context, entityType string) ([]map[string]any, error)
	Update(ctx context.Context, entityType, id string, patch map[string]any) (map[string]any, error)
}

var ErrNotFound = errors.New("httpapi: entity not found")

// MemoryEntityStore backs the handlers in tests and local runs.
type MemoryEntityStore struct {
	mu   sync.RWMutex
	data map[string]map[string]map[string]any // entityType -> id -> fields
}

func NewMemoryEntityStore() *MemoryEntityStore {
	return &MemoryEntityStore{data: make(map[string]map[string]map[string]any)}
}

func (s *MemoryEntityStore) Put(entityType, id string, entity map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data[entityType] == nil {
		s.data[entityType] = make(map[string]map[string]any)
	}
	s.data[entityType][id] = cloneEntity(entity)
}

func (s *MemoryEntityStore) Get(ctx context.Context, entityType, id string) (map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.data[entityType][id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneEntity(e), nil
}

func (s *MemoryEntityStore) List(ctx context.Context, entityType string) ([]map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]map[string]any, 0, len(s.data[entityType]))
	for _, e := range s.data[entityType] {
		out = append(out, cloneEntity(e))
	}
	return out, nil
}

func (s *MemoryEntityStore) Update(ctx context.Context, entityType, id string, patch map[string]any) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.data[entityType][id]
	if !ok {
		return nil, ErrNotFound
	}
	for k, v := range patch {
		e[k] = v
	}
	return cloneEntity(e), nil
}

func cloneEntity(e map[string]any) map[string]any {
	out := make(map[string]any, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}
