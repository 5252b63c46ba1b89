// Package repository persists draws and expert profiles as delimited text
// files. A non-empty file acts as a cache that short-circuits acquisition.
package repository

import (
	"context"

	"github.com/okian/dltscope/internal/domain/model"
)

// DrawStore reads and writes draw records.
type DrawStore interface {
	// LoadDraws returns the stored draws in file order.
	// Returns ErrNotFound if nothing is stored.
	LoadDraws(ctx context.Context) ([]model.DrawRecord, error)
	// SaveDraws replaces the stored draws.
	SaveDraws(ctx context.Context, draws []model.DrawRecord) error
}

// ExpertStore reads and writes expert profiles.
type ExpertStore interface {
	// LoadExperts returns the stored profiles in file order.
	// Returns ErrNotFound if nothing is stored.
	LoadExperts(ctx context.Context) ([]model.ExpertProfile, error)
	// SaveExperts replaces the stored profiles. Derived columns are written
	// for readers of the file and ignored on load.
	SaveExperts(ctx context.Context, experts []model.ExpertProfile) error
}
