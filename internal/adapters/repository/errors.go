package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound  = errors.New("nothing stored")
	ErrMalformed = errors.New("malformed stored record")
	ErrNoPath    = errors.New("store path not configured")
)
