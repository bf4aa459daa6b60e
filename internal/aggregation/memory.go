package aggregation

import (
	"context"
	"fmt"
	"sort"
	"sync"

	coreagg "github.com/aevon-lab/aevon-search/internal/core/aggregation"
)

// InMemoryRuleRepository serves rules that were already loaded, e.g. by config.
type InMemoryRuleRepository struct {
	rules map[string]PipelineRule
}

// NewInMemoryRuleRepository creates a repository over rules. Later duplicates win.
func NewInMemoryRuleRepository(rules ...PipelineRule) *InMemoryRuleRepository {
	repo := &InMemoryRuleRepository{
		rules: make(map[string]PipelineRule),
	}
	for _, rule := range rules {
		repo.rules[rule.Name] = rule
	}
	return repo
}

func (r *InMemoryRuleRepository) Get(_ context.Context, name string) (*PipelineRule, error) {
	if rule, ok := r.rules[name]; ok {
		return &rule, nil
	}
	return nil, fmt.Errorf("%w: %q", coreagg.ErrRuleNotFound, name)
}

func (r *InMemoryRuleRepository) List(_ context.Context, index string) ([]PipelineRule, error) {
	var result []PipelineRule
	for _, rule := range r.GetRules() {
		if index == "" || rule.Index == index {
			result = append(result, rule)
		}
	}
	return result, nil
}

func (r *InMemoryRuleRepository) GetRules() []PipelineRule {
	result := make([]PipelineRule, 0, len(r.rules))
	for _, rule := range r.rules {
		result = append(result, rule)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// MemorySnapshotStore keeps the latest snapshot of each rule in memory.
// It backs the server when database.type is "memory".
type MemorySnapshotStore struct {
	mu     sync.RWMutex
	latest map[string]Snapshot
	saved  int
}

// NewMemorySnapshotStore creates an empty store.
func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{latest: make(map[string]Snapshot)}
}

func (m *MemorySnapshotStore) Save(_ context.Context, snap *Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latest[snap.Rule] = *snap
	m.saved++
	return nil
}

func (m *MemorySnapshotStore) Latest(_ context.Context, rule string) (*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap, ok := m.latest[rule]
	if !ok {
		return nil, fmt.Errorf("%w: %s", coreagg.ErrSnapshotNotFound, rule)
	}
	return &snap, nil
}

// Saved returns how many snapshots have been written.
func (m *MemorySnapshotStore) Saved() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saved
}
