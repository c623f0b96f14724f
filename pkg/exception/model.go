package exception

import "errors"

// Value type errors
var (
	ErrPrecisionMismatch = errors.New("model: operands carry incompatible precision")
	ErrInvalidPrecision  = errors.New("model: precision out of range")
	ErrInvalidDecimal    = errors.New("model: invalid decimal literal")
	ErrUnorderedLevels   = errors.New("model: side levels are not strictly ordered")
	ErrEmptyBatch        = errors.New("model: delta batch is empty")
	ErrInvalidIdentifier = errors.New("model: invalid instrument identifier")
)
