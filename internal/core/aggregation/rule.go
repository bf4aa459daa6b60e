package aggregation

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// rawRule is the on-disk YAML shape.
type rawRule struct {
	Name     string `yaml:"name"`
	Index    string `yaml:"index"`
	Version  int    `yaml:"version"`
	Query    string `yaml:"query"`
	Verbatim bool   `yaml:"verbatim"`
	Timeout  string `yaml:"timeout"` // optional, e.g. "500ms"
	MaxRows  int    `yaml:"max_rows"`
	Steps    []Step `yaml:"steps"`
}

// RuleRepository defines the interface for loading saved pipelines.
type RuleRepository interface {
	// Get returns the rule with the given name, or an error if not found.
	Get(ctx context.Context, name string) (*PipelineRule, error)

	// List returns all loaded rules, optionally filtered by index.
	List(ctx context.Context, index string) ([]PipelineRule, error)

	// GetRules returns all rules as a slice (for batch processing).
	GetRules() []PipelineRule
}

// ErrRuleNotFound is returned by RuleRepository.Get for unknown names.
var ErrRuleNotFound = errors.New("pipeline rule not found")

// FileSystemRuleRepository loads saved pipelines from *.yaml files in a directory.
// Each file contains exactly one rule at the top level. Rules are loaded once at
// startup and cached in memory.
type FileSystemRuleRepository struct {
	dir   string
	rules map[string]PipelineRule // keyed by Name
}

// NewFileSystemRuleRepository creates a new repository and eagerly loads all rules
// from dir. Returns an error if any rule file is malformed or invalid.
func NewFileSystemRuleRepository(dir string) (*FileSystemRuleRepository, error) {
	repo := &FileSystemRuleRepository{
		dir:   dir,
		rules: make(map[string]PipelineRule),
	}
	if err := repo.load(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *FileSystemRuleRepository) load() error {
	info, err := os.Stat(r.dir)
	if os.IsNotExist(err) {
		return nil // zero rules configured
	}
	if err != nil {
		return fmt.Errorf("pipeline rule dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("pipeline rule path %q is not a directory", r.dir)
	}

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return fmt.Errorf("reading pipeline rule dir: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() || (!strings.HasSuffix(e.Name(), ".yaml") && !strings.HasSuffix(e.Name(), ".yml")) {
			continue
		}

		path := filepath.Join(r.dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading rule file %s: %w", path, err)
		}

		rule, err := ParseRule(data)
		if err != nil {
			return fmt.Errorf("rule file %s: %w", path, err)
		}
		if rule == nil {
			continue // empty / comment-only file
		}

		if _, exists := r.rules[rule.Name]; exists {
			return fmt.Errorf("rule %q: duplicate rule name (check multiple YAML files)", rule.Name)
		}
		r.rules[rule.Name] = *rule
	}
	return nil
}

// ParseRule decodes and validates one YAML rule document.
// A document without a name yields (nil, nil).
func ParseRule(data []byte) (*PipelineRule, error) {
	var raw rawRule
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing rule: %w", err)
	}
	if raw.Name == "" {
		return nil, nil
	}
	if raw.Index == "" {
		return nil, fmt.Errorf("rule %q: index must not be empty", raw.Name)
	}
	if raw.Version < 0 {
		return nil, fmt.Errorf("rule %q: version must be >= 0", raw.Name)
	}
	if raw.MaxRows < 0 {
		return nil, fmt.Errorf("rule %q: max_rows must be >= 0", raw.Name)
	}
	if err := ValidateSteps(raw.Steps); err != nil {
		return nil, fmt.Errorf("rule %q: %w", raw.Name, err)
	}

	rule := &PipelineRule{
		Name:        raw.Name,
		Index:       raw.Index,
		Version:     raw.Version,
		Query:       raw.Query,
		Verbatim:    raw.Verbatim,
		MaxRows:     raw.MaxRows,
		Steps:       raw.Steps,
		Fingerprint: fmt.Sprintf("%x", sha256.Sum256(data)),
	}
	if rule.Query == "" {
		rule.Query = "*"
	}
	if raw.Timeout != "" {
		timeout, err := ParseInterval(raw.Timeout)
		if err != nil {
			return nil, fmt.Errorf("rule %q: timeout: %w", raw.Name, err)
		}
		rule.Timeout = timeout
	}
	return rule, nil
}

// Get returns the rule with the given name, or an error if not found.
func (r *FileSystemRuleRepository) Get(_ context.Context, name string) (*PipelineRule, error) {
	rule, ok := r.rules[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrRuleNotFound, name)
	}
	return &rule, nil
}

// List returns all loaded rules, optionally filtered by index.
func (r *FileSystemRuleRepository) List(_ context.Context, index string) ([]PipelineRule, error) {
	var out []PipelineRule
	for _, rule := range r.GetRules() {
		if index != "" && rule.Index != index {
			continue
		}
		out = append(out, rule)
	}
	return out, nil
}

// GetRules returns all rules sorted by name.
func (r *FileSystemRuleRepository) GetRules() []PipelineRule {
	rules := make([]PipelineRule, 0, len(r.rules))
	for _, rule := range r.rules {
		rules = append(rules, rule)
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].Name < rules[j].Name })
	return rules
}
