package stats

import "errors"

var (
	ErrNoDraws   = errors.New("no draws to analyze")
	ErrNoExperts = errors.New("no expert profiles to analyze")
)
