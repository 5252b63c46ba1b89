package repository

import "github.com/okian/dltscope/pkg/logger"

// Option applies a configuration option to the CSVStore.
type Option func(*CSVStore)

// WithDrawPath sets the draw file.
func WithDrawPath(path string) Option {
	return func(s *CSVStore) { s.drawPath = path }
}

// WithExpertPath sets the expert file.
func WithExpertPath(path string) Option {
	return func(s *CSVStore) { s.expertPath = path }
}

// WithActivityFloor sets the floor used for the derived expert columns.
func WithActivityFloor(floor int) Option {
	return func(s *CSVStore) {
		if floor > 0 {
			s.floor = floor
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(l logger.Logger) Option {
	return func(s *CSVStore) {
		if l != nil {
			s.log = l
		}
	}
}
