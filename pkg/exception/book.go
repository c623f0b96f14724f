package exception

import "errors"

// Book maintenance errors
var (
	ErrMalformedEvent     = errors.New("book: malformed event")
	ErrSequenceGap        = errors.New("book: update id is not the successor of the watermark")
	ErrStaleBook          = errors.New("book: desynchronized, snapshot required")
	ErrUnknownOrder       = errors.New("book: update or delete references an order not resting")
	ErrBookTypeMismatch   = errors.New("book: event book type does not match")
	ErrInstrumentMismatch = errors.New("book: event instrument does not match")
)
