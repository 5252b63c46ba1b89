package model

import "errors"

// Sentinel validation errors.
var (
	ErrInvalidDraw   = errors.New("invalid draw record")
	ErrInvalidExpert = errors.New("invalid expert profile")
)
