package schema

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Resolver compiles schemas into index models and caches the result.
type Resolver struct {
	formatRegistry *FormatRegistry

	mu           sync.RWMutex
	compiled     map[string]*IndexModel
	compileGroup singleflight.Group
}

// NewResolver creates a resolver over the given format registry.
func NewResolver(formatRegistry *FormatRegistry) *Resolver {
	return &Resolver{
		formatRegistry: formatRegistry,
		compiled:       make(map[string]*IndexModel),
	}
}

// RegisterFormat registers a format compiler.
func (r *Resolver) RegisterFormat(format Format, compiler FormatCompiler) {
	r.formatRegistry.RegisterFormat(format, compiler)
}

// Formats returns the underlying format registry.
func (r *Resolver) Formats() *FormatRegistry {
	return r.formatRegistry
}

// The fingerprint is part of the key so an edited definition never hits a stale model.
func resolverCacheKey(s *Schema) string {
	return fmt.Sprintf("%s:%d:%s", s.Index, s.Version, s.Fingerprint)
}

// Resolve returns the compiled model of s, compiling it at most once
// even under concurrent callers.
func (r *Resolver) Resolve(ctx context.Context, s *Schema) (*IndexModel, error) {
	key := resolverCacheKey(s)

	r.mu.RLock()
	if model, exists := r.compiled[key]; exists {
		r.mu.RUnlock()
		return model, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.compileGroup.Do(key, func() (interface{}, error) {
		r.mu.RLock()
		if model, exists := r.compiled[key]; exists {
			r.mu.RUnlock()
			return model, nil
		}
		r.mu.RUnlock()

		compiler, err := r.formatRegistry.GetCompiler(s.Format)
		if err != nil {
			return nil, fmt.Errorf("compilation failed: %w", err)
		}

		model, err := compiler.Compile(ctx, s)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.compiled[key] = model
		r.mu.Unlock()

		return model, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(*IndexModel), nil
}

// Invalidate removes the compiled model of s from the cache.
func (r *Resolver) Invalidate(s *Schema) {
	key := resolverCacheKey(s)
	r.mu.Lock()
	delete(r.compiled, key)
	r.mu.Unlock()
}
