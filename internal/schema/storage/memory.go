package storage

import (
	"context"
	"sync"
	"time"

	"github.com/aevon-lab/aevon-search/internal/schema"
)

// MemoryRepository is an in-memory implementation of schema.Repository.
// Useful for testing and development.
type MemoryRepository struct {
	mu      sync.RWMutex
	schemas map[schema.Key]*schema.Schema
}

// NewMemoryRepository creates a new in-memory schema repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		schemas: make(map[schema.Key]*schema.Schema),
	}
}

func (r *MemoryRepository) Create(ctx context.Context, s *schema.Schema) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := s.Key()
	if _, exists := r.schemas[key]; exists {
		return schema.ErrAlreadyExists
	}

	stored := *s
	r.schemas[key] = &stored
	return nil
}

func (r *MemoryRepository) Get(ctx context.Context, key schema.Key) (*schema.Schema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, exists := r.schemas[key]
	if !exists {
		return nil, schema.ErrNotFound
	}

	out := *s
	return &out, nil
}

func (r *MemoryRepository) List(ctx context.Context, index string) ([]*schema.Schema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*schema.Schema, 0, len(r.schemas))
	for _, s := range r.schemas {
		if index != "" && s.Index != index {
			continue
		}
		out := *s
		result = append(result, &out)
	}
	return result, nil
}

func (r *MemoryRepository) UpdateState(ctx context.Context, key schema.Key, state schema.State) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, exists := r.schemas[key]
	if !exists {
		return schema.ErrNotFound
	}

	s.State = state
	if state == schema.StateDeprecated {
		now := time.Now().UTC()
		s.DeprecatedAt = &now
	}
	return nil
}

func (r *MemoryRepository) Delete(ctx context.Context, key schema.Key) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.schemas[key]; !exists {
		return schema.ErrNotFound
	}

	delete(r.schemas, key)
	return nil
}
