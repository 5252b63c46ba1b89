package cli

import "errors"

var (
	ErrInvalidChoice = errors.New("invalid menu choice")
	// ErrActionPanic wraps a panic recovered from a menu action.
	ErrActionPanic = errors.New("menu action panicked")
)
