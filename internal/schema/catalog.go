package schema

import (
	"context"
	"fmt"
)

// Catalog answers "which fields does this index have" by combining the
// registry lookup with model compilation.
type Catalog struct {
	registry *Registry
	resolver *Resolver
}

// NewCatalog creates a catalog over a registry and a resolver.
func NewCatalog(registry *Registry, resolver *Resolver) *Catalog {
	return &Catalog{registry: registry, resolver: resolver}
}

// Registry returns the underlying schema registry.
func (c *Catalog) Registry() *Registry {
	return c.registry
}

// Model resolves the index model of index at version (0 for latest active).
func (c *Catalog) Model(ctx context.Context, index string, version int) (*IndexModel, error) {
	s, err := c.registry.Get(ctx, index, version)
	if err != nil {
		return nil, err
	}
	if s.State == StateDeprecated {
		return nil, fmt.Errorf("%w: %s", ErrDeprecated, s.Key())
	}
	return c.resolver.Resolve(ctx, s)
}
