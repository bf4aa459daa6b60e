package schema

import "github.com/aevon-lab/aevon-search/internal/stream"

// EntityDecoder picks the stream decoder matching the model's document layout.
func EntityDecoder[E any](m *IndexModel) stream.EntityDecoder[E] {
	if m.Storage == StorageHash {
		return stream.HashDecoder[E]{}
	}
	return stream.JSONDocumentDecoder[E]{}
}
