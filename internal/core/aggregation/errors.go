package aggregation

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument marks malformed reducer parameters and builder arguments.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidState marks builder calls that cannot be honoured in the current state.
	ErrInvalidState = errors.New("invalid state")

	// ErrSchemaMismatch is returned when requested column types do not line up with
	// the registered output columns.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrCapacity is returned when a tuple would exceed MaxTupleArity columns.
	// It also matches ErrSchemaMismatch.
	ErrCapacity = fmt.Errorf("%w: tuple capacity exceeded", ErrSchemaMismatch)

	// ErrDecodeFailure marks raw values that could not be parsed as their column type.
	ErrDecodeFailure = errors.New("decode failure")

	// ErrTransportFailure wraps every error coming back from the executor.
	ErrTransportFailure = errors.New("transport failure")
)

// DecodeError describes a single value that failed to decode.
type DecodeError struct {
	Column string `json:"column"`
	Raw    string `json:"raw"`
	Type   string `json:"type"`
	Err    error  `json:"-"`
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("column '%s': cannot decode %q as %s: %v", e.Column, e.Raw, e.Type, e.Err)
	}
	return fmt.Sprintf("column '%s': cannot decode %q as %s", e.Column, e.Raw, e.Type)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrDecodeFailure) match any DecodeError.
func (e *DecodeError) Is(target error) bool {
	return target == ErrDecodeFailure
}

// Details returns the structured fields for API error responses.
func (e *DecodeError) Details() map[string]interface{} {
	return map[string]interface{}{
		"column": e.Column,
		"raw":    e.Raw,
		"type":   e.Type,
	}
}

// NewDecodeError creates a DecodeError for the given column.
func NewDecodeError(column string, raw string, t ValueType, cause error) *DecodeError {
	return &DecodeError{
		Column: column,
		Raw:    raw,
		Type:   t.String(),
		Err:    cause,
	}
}

func invalidArgumentf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
