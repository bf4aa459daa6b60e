package schema

// InitializeResolver creates a resolver with an empty format registry.
// Callers register formats themselves; the format packages import this one.
func InitializeResolver() *Resolver {
	return NewResolver(NewFormatRegistry())
}
