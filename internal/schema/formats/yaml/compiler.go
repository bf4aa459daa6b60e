package yaml

import (
	"context"
	"fmt"

	"github.com/aevon-lab/aevon-search/internal/core/aggregation"
	"github.com/aevon-lab/aevon-search/internal/schema"
	"gopkg.in/yaml.v3"
)

// Compiler compiles YAML index model definitions.
type Compiler struct{}

// NewCompiler creates a new YAML compiler.
func NewCompiler() *Compiler {
	return &Compiler{}
}

// Compile parses a YAML model definition into an IndexModel.
func (c *Compiler) Compile(ctx context.Context, s *schema.Schema) (*schema.IndexModel, error) {
	if s.Format != schema.FormatYaml {
		return nil, fmt.Errorf("expected yaml format, got %s", s.Format)
	}

	var spec ModelSpec
	if err := yaml.Unmarshal(s.Definition, &spec); err != nil {
		return nil, schema.NewDefinitionError(s, "", "failed to parse YAML model: %v", err)
	}

	if err := spec.Validate(); err != nil {
		return nil, schema.NewDefinitionError(s, "", "invalid YAML model: %v", err)
	}

	if spec.Index != s.Index {
		return nil, schema.NewDefinitionError(s, "", "model index %q does not match %q", spec.Index, s.Index)
	}
	if spec.Version != s.Version {
		return nil, schema.NewDefinitionError(s, "", "model version %d does not match %d", spec.Version, s.Version)
	}

	storage := schema.StorageJSON
	if spec.Storage == string(schema.StorageHash) {
		storage = schema.StorageHash
	}

	fields := make([]aggregation.FieldDescriptor, 0, len(spec.Fields))
	for _, f := range spec.Fields {
		fields = append(fields, f.Descriptor())
	}

	return &schema.IndexModel{
		Index:   s.Index,
		Version: s.Version,
		Storage: storage,
		Prefix:  spec.Prefix,
		Fields:  fields,
	}, nil
}
