package schema

import (
	"errors"
	"fmt"
)

// Common errors
var (
	// ErrNotFound is returned when a schema is not found in the repository.
	ErrNotFound      = errors.New("schema not found")
	ErrAlreadyExists = errors.New("schema already exists")
	ErrDeprecated    = errors.New("schema is deprecated")

	// ErrUnknownField is returned when a pipeline names a field the model does not declare.
	ErrUnknownField = errors.New("unknown field")

	ErrUnsupportedFormat = errors.New("unsupported schema format")
)

// DefinitionError reports a malformed model definition.
type DefinitionError struct {
	Index   string `json:"index"`
	Version int    `json:"version"`
	Format  Format `json:"format,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (e *DefinitionError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("field '%s': %s (index %s v%d)", e.Field, e.Message, e.Index, e.Version)
	}
	return fmt.Sprintf("%s (index %s v%d)", e.Message, e.Index, e.Version)
}

// ValidationDetailer surfaces structured details for API error responses.
type ValidationDetailer interface {
	Details() map[string]interface{}
}

// Details returns the structured fields of the error.
func (e *DefinitionError) Details() map[string]interface{} {
	d := map[string]interface{}{
		"index":   e.Index,
		"version": e.Version,
	}
	if e.Format != "" {
		d["format"] = e.Format
	}
	if e.Field != "" {
		d["field"] = e.Field
	}
	return d
}

// NewDefinitionError creates a DefinitionError for s.
func NewDefinitionError(s *Schema, field, format string, args ...interface{}) *DefinitionError {
	return &DefinitionError{
		Index:   s.Index,
		Version: s.Version,
		Format:  s.Format,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}
