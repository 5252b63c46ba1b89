package acquire

import (
	"context"
	"slices"
	"strconv"
	"time"

	"github.com/okian/dltscope/internal/domain/model"
	"github.com/okian/dltscope/internal/domain/parse"
)

// SortByPeriodDesc stable-sorts draws newest first.
func SortByPeriodDesc(draws []model.DrawRecord) []model.DrawRecord {
	out := slices.Clone(draws)
	slices.SortStableFunc(out, model.ComparePeriodDesc)
	return out
}

// FilterBefore keeps draws dated strictly before cutoff. Order is preserved.
func FilterBefore(draws []model.DrawRecord, cutoff time.Time) []model.DrawRecord {
	out := make([]model.DrawRecord, 0, len(draws))
	for _, d := range draws {
		if d.Date.Before(cutoff) {
			out = append(out, d)
		}
	}
	return out
}

// Truncate keeps the first n draws. n < 0 keeps everything.
func Truncate(draws []model.DrawRecord, n int) []model.DrawRecord {
	if n < 0 || len(draws) <= n {
		return draws
	}
	return draws[:n]
}

// Finalize sorts, filters and truncates an acquisition result.
func Finalize(draws []model.DrawRecord, cutoff time.Time, n int) []model.DrawRecord {
	return Truncate(FilterBefore(SortByPeriodDesc(draws), cutoff), n)
}

// PageSource serves already fetched draw-list pages, one per round.
type PageSource struct {
	parser *parse.Parser
	pages  []string
	idx    int
}

// NewPageSource creates a source over pages in listing order.
func NewPageSource(parser *parse.Parser, pages []string) *PageSource {
	return &PageSource{parser: parser, pages: pages}
}

// Round parses the current page and emits each record keyed by its period.
func (s *PageSource) Round(ctx context.Context, seen func(string) bool, emit func(string, model.DrawRecord) bool) error {
	if s.idx >= len(s.pages) {
		return ErrExhausted
	}
	recs, err := s.parser.DrawRows(ctx, s.idx+1, s.pages[s.idx])
	if err != nil {
		return err
	}
	for _, rec := range recs {
		id := strconv.Itoa(rec.Period)
		if seen(id) {
			continue
		}
		if !emit(id, rec) {
			return nil
		}
	}
	return nil
}

// Next moves to the following page.
func (s *PageSource) Next(context.Context) error {
	if s.idx+1 >= len(s.pages) {
		s.idx = len(s.pages)
		return ErrExhausted
	}
	s.idx++
	return nil
}
