package schema

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"time"

	"github.com/aevon-lab/aevon-search/internal/core/aggregation"
)

// State represents the lifecycle state of an index model.
type State string

const (
	StateActive     State = "active"
	StateDeprecated State = "deprecated"
)

// Format represents the format of the model definition.
type Format string

const (
	FormatProtobuf Format = "protobuf"
	FormatYaml     Format = "yaml"
)

// Storage is the document layout of an index.
type Storage string

const (
	StorageHash Storage = "hash"
	StorageJSON Storage = "json"
)

// Schema is a registered index model definition.
type Schema struct {
	// ID is the unique schema identifier (UUID).
	ID string `json:"id"`

	// Index is the search index the model describes (e.g., "products").
	Index string `json:"index"`

	// Version is the model version number (1, 2, 3...).
	Version int `json:"version"`

	Format Format `json:"format"`

	// Definition is the raw model content (.yaml or .proto).
	Definition []byte `json:"definition"`

	// Fingerprint is SHA-256 hash of Definition.
	Fingerprint string `json:"fingerprint"`

	State State `json:"state"`

	CreatedAt time.Time `json:"created_at"`

	// DeprecatedAt is when the schema was deprecated (nil if active).
	DeprecatedAt *time.Time `json:"deprecated_at,omitempty"`
}

// ComputeFingerprint calculates SHA-256 hash of the definition.
func ComputeFingerprint(definition []byte) string {
	hash := sha256.Sum256(definition)
	return hex.EncodeToString(hash[:])
}

// Key uniquely identifies a schema for lookup.
type Key struct {
	Index   string
	Version int
}

func (k Key) String() string {
	return fmt.Sprintf("%s v%d", k.Index, k.Version)
}

// Key returns the lookup key for this schema.
func (s *Schema) Key() Key {
	return Key{Index: s.Index, Version: s.Version}
}

// IndexModel is a compiled schema: the typed field catalog of one index.
type IndexModel struct {
	Index   string                        `json:"index"`
	Version int                           `json:"version"`
	Storage Storage                       `json:"storage"`
	Prefix  string                        `json:"prefix,omitempty"`
	Fields  []aggregation.FieldDescriptor `json:"fields"`
}

// Field looks a field up by model name, then by indexed alias.
func (m *IndexModel) Field(name string) (aggregation.FieldDescriptor, bool) {
	name = aggregation.StripPropertyMarker(name)
	for _, f := range m.Fields {
		if f.Name == name {
			return f, true
		}
	}
	for _, f := range m.Fields {
		if f.SearchAlias() == name {
			return f, true
		}
	}
	return aggregation.FieldDescriptor{}, false
}

// Lookup returns the descriptors for names in order, failing on the first unknown one.
func (m *IndexModel) Lookup(names ...string) ([]aggregation.FieldDescriptor, error) {
	out := make([]aggregation.FieldDescriptor, 0, len(names))
	for _, name := range names {
		f, ok := m.Field(name)
		if !ok {
			return nil, fmt.Errorf("%w: field %q is not part of index %s v%d",
				ErrUnknownField, name, m.Index, m.Version)
		}
		out = append(out, f)
	}
	return out, nil
}

// FieldNames returns the model field names, sorted.
func (m *IndexModel) FieldNames() []string {
	names := make([]string, 0, len(m.Fields))
	for _, f := range m.Fields {
		names = append(names, f.Name)
	}
	sort.Strings(names)
	return names
}
