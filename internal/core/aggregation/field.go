package aggregation

import "strings"

// FieldDescriptor describes one indexed field of a search model.
type FieldDescriptor struct {
	// Name is the model-level field name.
	Name string `json:"name"`

	// Alias is the name the field is indexed under. Empty means Name.
	Alias string `json:"alias,omitempty"`

	// Type is the declared decode type of the field.
	Type ValueType `json:"type"`

	// Reference marks fields that hold keys of other entities.
	Reference bool `json:"reference,omitempty"`
}

// Field is a shorthand constructor for a descriptor whose alias equals its name.
func Field(name string, t ValueType) FieldDescriptor {
	return FieldDescriptor{Name: name, Type: t}
}

// AliasField wraps a bare alias the way ad-hoc reduce calls need it: string typed,
// no model behind it.
func AliasField(alias string) FieldDescriptor {
	return FieldDescriptor{Name: alias, Alias: alias, Type: String}
}

// SearchAlias returns the indexed name, without any leading "@".
func (f FieldDescriptor) SearchAlias() string {
	alias := f.Alias
	if alias == "" {
		alias = f.Name
	}
	return StripPropertyMarker(alias)
}

// Property returns the "@alias" reference used inside pipeline stages.
func (f FieldDescriptor) Property() string {
	return "@" + f.SearchAlias()
}

// StripPropertyMarker removes a single leading "@".
func StripPropertyMarker(s string) string {
	return strings.TrimPrefix(s, "@")
}

// PropertyRef adds a leading "@" unless one is already present.
func PropertyRef(s string) string {
	if strings.HasPrefix(s, "@") {
		return s
	}
	return "@" + s
}
