package protobuf

import (
	"context"
	"fmt"
	"strings"

	"github.com/aevon-lab/aevon-search/internal/core/aggregation"
	"github.com/aevon-lab/aevon-search/internal/schema"
	"github.com/bufbuild/protocompile"
	"google.golang.org/protobuf/reflect/protoreflect"
)

const timestampMessage protoreflect.FullName = "google.protobuf.Timestamp"

// Compiler compiles protobuf index model definitions.
type Compiler struct{}

// NewCompiler creates a new protobuf compiler.
func NewCompiler() *Compiler {
	return &Compiler{}
}

// Compile parses a .proto definition and maps the first top-level message
// to an IndexModel. Protobuf models are always JSON documents.
func (c *Compiler) Compile(ctx context.Context, s *schema.Schema) (*schema.IndexModel, error) {
	if s.Format != schema.FormatProtobuf {
		return nil, fmt.Errorf("expected protobuf format, got %s", s.Format)
	}

	fileName := fmt.Sprintf("%s_v%d.proto", strings.NewReplacer(".", "_", "/", "_").Replace(s.Index), s.Version)

	resolver := &singleFileResolver{
		fileName: fileName,
		content:  string(s.Definition),
	}

	compiler := protocompile.Compiler{
		Resolver:       protocompile.WithStandardImports(resolver),
		SourceInfoMode: protocompile.SourceInfoNone,
	}

	files, err := compiler.Compile(ctx, fileName)
	if err != nil {
		return nil, schema.NewDefinitionError(s, "", "failed to compile proto: %v", err)
	}
	if len(files) == 0 {
		return nil, schema.NewDefinitionError(s, "", "no files compiled")
	}

	messages := files[0].Messages()
	if messages.Len() == 0 {
		return nil, schema.NewDefinitionError(s, "", "proto must define at least one message")
	}

	fields, err := modelFields(s, messages.Get(0))
	if err != nil {
		return nil, err
	}

	return &schema.IndexModel{
		Index:   s.Index,
		Version: s.Version,
		Storage: schema.StorageJSON,
		Fields:  fields,
	}, nil
}

// modelFields maps message fields in declaration order. The indexed alias is the JSON name.
func modelFields(s *schema.Schema, md protoreflect.MessageDescriptor) ([]aggregation.FieldDescriptor, error) {
	fds := md.Fields()
	out := make([]aggregation.FieldDescriptor, 0, fds.Len())
	for i := 0; i < fds.Len(); i++ {
		fd := fds.Get(i)
		if fd.IsMap() {
			return nil, schema.NewDefinitionError(s, string(fd.Name()), "map fields are not supported")
		}

		t, reference := scalarType(fd)
		if fd.IsList() {
			t = aggregation.ListOf(t)
		}

		desc := aggregation.FieldDescriptor{
			Name:      string(fd.Name()),
			Type:      t,
			Reference: reference,
		}
		if jsonName := fd.JSONName(); jsonName != desc.Name {
			desc.Alias = jsonName
		}
		out = append(out, desc)
	}
	return out, nil
}

// scalarType maps a proto field kind to a value type. Nested messages other than
// Timestamp are treated as references to other entities.
func scalarType(fd protoreflect.FieldDescriptor) (aggregation.ValueType, bool) {
	switch fd.Kind() {
	case protoreflect.BoolKind:
		return aggregation.Bool, false
	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind,
		protoreflect.Uint32Kind, protoreflect.Fixed32Kind:
		return aggregation.Int, false
	case protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind,
		protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		return aggregation.Long, false
	case protoreflect.FloatKind, protoreflect.DoubleKind:
		return aggregation.Double, false
	case protoreflect.MessageKind, protoreflect.GroupKind:
		if fd.Message() != nil && fd.Message().FullName() == timestampMessage {
			return aggregation.Time, false
		}
		return aggregation.String, true
	default:
		// string, bytes, enum
		return aggregation.String, false
	}
}

// singleFileResolver provides proto content for compilation.
type singleFileResolver struct {
	fileName string
	content  string
}

func (r *singleFileResolver) FindFileByPath(path string) (protocompile.SearchResult, error) {
	if path == r.fileName {
		return protocompile.SearchResult{
			Source: strings.NewReader(r.content),
		}, nil
	}
	return protocompile.SearchResult{}, fmt.Errorf("file not found: %s", path)
}
