package parse

import "errors"

// Sentinel errors returned by the parsers.
var (
	ErrFailedFetch  = errors.New("failed fetch")
	ErrUnreadable   = errors.New("unreadable document")
	ErrShortRow     = errors.New("row has too few cells")
	ErrMissingField = errors.New("required field missing")
)
