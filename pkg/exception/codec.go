package exception

import "errors"

// Wire codec errors
var (
	ErrMissingField     = errors.New("codec: record is missing a required field")
	ErrFieldType        = errors.New("codec: record field has the wrong type")
	ErrUnknownEnum      = errors.New("codec: unknown enum literal")
	ErrUnexpectedOrder  = errors.New("codec: order payload present on a clear record")
	ErrCompoundEncoding = errors.New("codec: compound field byte string is malformed")
)
