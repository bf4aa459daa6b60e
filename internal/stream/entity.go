package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aevon-lab/aevon-search/internal/core/aggregation"
	"github.com/go-viper/mapstructure/v2"
)

// EntityDecoder rebuilds an indexed entity from one result row.
type EntityDecoder[E any] interface {
	Decode(row Row) (E, error)
}

// EntityDecoderFunc adapts a function to EntityDecoder.
type EntityDecoderFunc[E any] func(row Row) (E, error)

func (f EntityDecoderFunc[E]) Decode(row Row) (E, error) { return f(row) }

// DocumentField is the row key holding the whole JSON document.
const DocumentField = "$"

// JSONDocumentDecoder decodes JSON-indexed documents from the row's "$" value.
type JSONDocumentDecoder[E any] struct{}

func (JSONDocumentDecoder[E]) Decode(row Row) (E, error) {
	var entity E
	raw, ok := row[DocumentField]
	if !ok {
		return entity, aggregation.NewDecodeError(DocumentField, "", aggregation.String, fmt.Errorf("row has no document; load it with LoadAll"))
	}
	var data []byte
	switch v := raw.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return entity, aggregation.NewDecodeError(DocumentField, fmt.Sprint(raw), aggregation.String, fmt.Errorf("unexpected %T", raw))
	}
	if err := json.Unmarshal(data, &entity); err != nil {
		return entity, aggregation.NewDecodeError(DocumentField, string(data), aggregation.String, err)
	}
	return entity, nil
}

// HashDecoder decodes hash-indexed documents from their field/value pairs.
// Values arrive as text and are converted to the target field types.
type HashDecoder[E any] struct {
	// TagName is the struct tag naming hash fields. Defaults to "json".
	TagName string
}

func (d HashDecoder[E]) Decode(row Row) (E, error) {
	var entity E
	tag := d.TagName
	if tag == "" {
		tag = "json"
	}

	input := make(map[string]any, len(row))
	for k, v := range row {
		input[k] = jsonValue(v)
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          tag,
		WeaklyTypedInput: true,
		Result:           &entity,
		DecodeHook:       mapstructure.StringToTimeHookFunc(time.RFC3339),
	})
	if err != nil {
		return entity, err
	}
	if err := dec.Decode(input); err != nil {
		return entity, fmt.Errorf("%w: hash row: %v", aggregation.ErrDecodeFailure, err)
	}
	return entity, nil
}

// CollectEntities executes the pipeline and decodes every row with the stream's
// entity decoder.
func (s *Stream[E]) CollectEntities(ctx context.Context, opts ...ExecOption) ([]E, error) {
	s.flush()
	if s.err != nil {
		return nil, s.err
	}
	if s.decoder == nil {
		return nil, fmt.Errorf("%w: stream has no entity decoder", aggregation.ErrInvalidState)
	}
	res, err := s.Execute(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return decodeEntities(s.decoder, res.Rows)
}

func decodeEntities[E any](dec EntityDecoder[E], rows []Row) ([]E, error) {
	out := make([]E, 0, len(rows))
	for _, row := range rows {
		e, err := dec.Decode(row)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
