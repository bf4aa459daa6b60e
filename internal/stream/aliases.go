package stream

import core "github.com/aevon-lab/aevon-search/internal/core/aggregation"

// Re-export core aggregation types so callers need a single import.
type ValueType = core.ValueType
type FieldDescriptor = core.FieldDescriptor
type ReducerKind = core.ReducerKind
type DecodeError = core.DecodeError

var (
	ErrInvalidArgument  = core.ErrInvalidArgument
	ErrInvalidState     = core.ErrInvalidState
	ErrSchemaMismatch   = core.ErrSchemaMismatch
	ErrCapacity         = core.ErrCapacity
	ErrDecodeFailure    = core.ErrDecodeFailure
	ErrTransportFailure = core.ErrTransportFailure
)

var (
	String  = core.String
	Int     = core.Int
	Long    = core.Long
	Double  = core.Double
	Decimal = core.Decimal
	Bool    = core.Bool
	Time    = core.Time
	ListOf  = core.ListOf
	Field   = core.Field
)

const (
	Count            = core.Count
	CountDistinct    = core.CountDistinct
	CountDistinctish = core.CountDistinctish
	Sum              = core.Sum
	Min              = core.Min
	Max              = core.Max
	Avg              = core.Avg
	StdDev           = core.StdDev
	Quantile         = core.Quantile
	ToList           = core.ToList
	FirstValue       = core.FirstValue
	RandomSample     = core.RandomSample
)
