package schema

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// DefaultCacheCapacity is the default number of schemas to cache.
const DefaultCacheCapacity = 1000

// Registry provides schema lookup with caching.
type Registry struct {
	repo  Repository
	cache *LRUCache[*Schema]
}

// NewRegistry creates a new schema registry.
func NewRegistry(repo Repository) *Registry {
	return NewRegistryWithCache(repo, DefaultCacheCapacity)
}

// NewRegistryWithCache creates a registry with a custom cache capacity.
func NewRegistryWithCache(repo Repository, cacheCapacity int) *Registry {
	return &Registry{
		repo:  repo,
		cache: NewLRUCache[*Schema](cacheCapacity),
	}
}

// Get retrieves a schema version. Version 0 resolves to the latest active version.
func (r *Registry) Get(ctx context.Context, index string, version int) (*Schema, error) {
	if version == 0 {
		return r.Latest(ctx, index)
	}
	s, err := r.getWithCache(ctx, Key{Index: index, Version: version})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: %s v%d", ErrNotFound, index, version)
		}
		return nil, err
	}
	return s, nil
}

// Latest returns the highest active version registered for index.
func (r *Registry) Latest(ctx context.Context, index string) (*Schema, error) {
	schemas, err := r.repo.List(ctx, index)
	if err != nil {
		return nil, err
	}

	var latest *Schema
	for _, s := range schemas {
		if s.State != StateActive {
			continue
		}
		if latest == nil || s.Version > latest.Version {
			latest = s
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("%w: no active version of %s", ErrNotFound, index)
	}
	r.cache.Put(latest.Key(), latest)
	return cloneSchema(latest), nil
}

// getWithCache retrieves a schema from cache or repository.
func (r *Registry) getWithCache(ctx context.Context, key Key) (*Schema, error) {
	if s, ok := r.cache.Get(key); ok {
		return cloneSchema(s), nil
	}

	s, err := r.repo.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	r.cache.Put(key, s)
	return cloneSchema(s), nil
}

// Register creates a new model version.
func (r *Registry) Register(ctx context.Context, index string, version int, format Format, definition []byte) (*Schema, error) {
	if index == "" {
		return nil, errors.New("index is required")
	}
	if version < 1 {
		return nil, errors.New("version must be >= 1")
	}
	if len(definition) == 0 {
		return nil, errors.New("definition is required")
	}

	s := &Schema{
		ID:          uuid.New().String(),
		Index:       index,
		Version:     version,
		Format:      format,
		Definition:  definition,
		Fingerprint: ComputeFingerprint(definition),
		State:       StateActive,
		CreatedAt:   time.Now().UTC(),
	}

	if err := r.repo.Create(ctx, s); err != nil {
		return nil, err
	}

	r.cache.Put(s.Key(), s)
	return cloneSchema(s), nil
}

// Deprecate marks a schema as deprecated.
func (r *Registry) Deprecate(ctx context.Context, index string, version int) error {
	key := Key{Index: index, Version: version}

	if err := r.repo.UpdateState(ctx, key, StateDeprecated); err != nil {
		return err
	}

	r.cache.Invalidate(key)
	return nil
}

// List returns all schemas, optionally filtered by index, ordered by index then version.
func (r *Registry) List(ctx context.Context, index string) ([]*Schema, error) {
	schemas, err := r.repo.List(ctx, index)
	if err != nil {
		return nil, err
	}
	sort.Slice(schemas, func(i, j int) bool {
		if schemas[i].Index != schemas[j].Index {
			return schemas[i].Index < schemas[j].Index
		}
		return schemas[i].Version < schemas[j].Version
	})
	return schemas, nil
}

func cloneSchema(s *Schema) *Schema {
	c := *s
	return &c
}
