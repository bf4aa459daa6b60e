package yaml

import (
	"fmt"
	"strings"

	"github.com/aevon-lab/aevon-search/internal/core/aggregation"
	"gopkg.in/yaml.v3"
)

// referenceType is the shorthand for string fields holding keys of other entities.
const referenceType = "ref"

// ModelSpec is the YAML representation of an index model.
type ModelSpec struct {
	Index       string    `yaml:"index"`
	Version     int       `yaml:"version"`
	Description string    `yaml:"description,omitempty"`
	Storage     string    `yaml:"storage,omitempty"`
	Prefix      string    `yaml:"prefix,omitempty"`
	Fields      FieldList `yaml:"fields"`
}

// FieldList keeps fields in declaration order.
type FieldList []*Field

// Field defines a single indexed field.
//
// Fields support two declaration styles:
//
//	Shorthand (scalar): brand: string
//	                    tags:  list<string>
//	                    owner: ref
//	Long form (mapping): price:
//	                        type: double
//	                        alias: unit_price
type Field struct {
	Name      string                `yaml:"-"`
	TypeName  string                `yaml:"type"`
	Alias     string                `yaml:"alias,omitempty"`
	Reference bool                  `yaml:"reference,omitempty"`
	Type      aggregation.ValueType `yaml:"-"`
}

// UnmarshalYAML decodes the fields mapping, preserving key order.
func (l *FieldList) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("fields must be a mapping")
	}
	out := make(FieldList, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		name := value.Content[i].Value
		f := &Field{}
		if err := f.UnmarshalYAML(value.Content[i+1]); err != nil {
			return fmt.Errorf("field %q: %w", name, err)
		}
		f.Name = name
		out = append(out, f)
	}
	*l = out
	return nil
}

// UnmarshalYAML supports both shorthand and long-form field declarations.
func (f *Field) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		if value.Value == "" {
			return fmt.Errorf("type cannot be empty")
		}
		return f.parseTypeString(value.Value)
	}

	// Decode through an alias type to avoid recursing into this method.
	type fieldAlias Field
	var alias fieldAlias
	if err := value.Decode(&alias); err != nil {
		return err
	}
	*f = Field(alias)

	if f.TypeName == "" {
		return fmt.Errorf("field missing 'type'")
	}
	return f.parseTypeString(f.TypeName)
}

// parseTypeString resolves a type name such as "long", "list<string>" or "ref".
func (f *Field) parseTypeString(s string) error {
	name := strings.TrimSpace(s)
	f.TypeName = name
	if strings.EqualFold(name, referenceType) {
		f.Reference = true
		f.Type = aggregation.String
		return nil
	}
	t, err := aggregation.ParseValueType(name)
	if err != nil {
		return err
	}
	f.Type = t
	return nil
}

// Validate checks if the model spec is structurally valid.
func (s *ModelSpec) Validate() error {
	if s.Index == "" {
		return fmt.Errorf("index is required")
	}
	if s.Version < 1 {
		return fmt.Errorf("version must be >= 1")
	}
	switch s.Storage {
	case "", "hash", "json":
	default:
		return fmt.Errorf("unsupported storage %q (must be: hash, json)", s.Storage)
	}
	if len(s.Fields) == 0 {
		return fmt.Errorf("model must define at least one field")
	}

	names := make(map[string]bool, len(s.Fields))
	aliases := make(map[string]string, len(s.Fields))
	for _, f := range s.Fields {
		if names[f.Name] {
			return fmt.Errorf("field %q declared twice", f.Name)
		}
		names[f.Name] = true

		alias := f.Descriptor().SearchAlias()
		if other, ok := aliases[alias]; ok {
			return fmt.Errorf("field %q: alias %q already used by %q", f.Name, alias, other)
		}
		aliases[alias] = f.Name

		if f.Type.IsList() && f.Type.Elem == nil {
			return fmt.Errorf("field %q: list type needs an element type, e.g. list<string>", f.Name)
		}
	}
	return nil
}

// Descriptor converts the field to its aggregation descriptor.
func (f *Field) Descriptor() aggregation.FieldDescriptor {
	return aggregation.FieldDescriptor{
		Name:      f.Name,
		Alias:     aggregation.StripPropertyMarker(f.Alias),
		Type:      f.Type,
		Reference: f.Reference,
	}
}

// String returns a human-readable description of the field type.
func (f *Field) String() string {
	parts := []string{f.Type.String()}
	if f.Alias != "" {
		parts = append(parts, "as "+f.Alias)
	}
	if f.Reference {
		parts = append(parts, "reference")
	}
	return strings.Join(parts, " ")
}
