package service

import "errors"

var (
	// ErrNoData is returned when neither a cache nor an acquisition produced records.
	ErrNoData   = errors.New("no data available")
	ErrNotFound = errors.New("not found")
)
