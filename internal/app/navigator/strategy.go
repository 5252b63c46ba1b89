package navigator

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/okian/dltscope/internal/domain/extract"
	"github.com/okian/dltscope/internal/domain/model"
)

// Entry is one item visible on the current list page.
type Entry struct {
	Key   string
	Index int                 // position among the rendered items
	Seed  model.ExpertProfile // fields known before the detail page is read
}

// Strategy knows how a list is laid out and how to move between it and a
// detail page.
type Strategy interface {
	// Enter shows the first batch of the list; it is also the recovery path.
	Enter(ctx context.Context, s *Steps) error
	Visible(ctx context.Context, s *Steps) ([]Entry, error)
	Open(ctx context.Context, s *Steps, e Entry) error
	Back(ctx context.Context, s *Steps) error
	// Advance shows the next batch. ErrExhausted means there is none.
	Advance(ctx context.Context, s *Steps) error
}

// Default locators of the rendered expert list.
var (
	ListMarker  = extract.L(".expert-list", "[class*=expert-list]")
	ListItem    = extract.L(".expert-item", "[class*=expert-item]")
	ItemName    = extract.L(".expert-name", "[class*=name]")
	NextControl = extract.L("a.change-batch", ".change-batch")
)

// ClickList steps through a rendered list by clicking its items.
type ClickList struct {
	URL    string
	Marker extract.Locator
	Item   extract.Locator
	Name   extract.Locator
	Next   extract.Locator
}

// NewClickList returns a ClickList with the default locators.
func NewClickList(listURL string) *ClickList {
	return &ClickList{URL: listURL, Marker: ListMarker, Item: ListItem, Name: ItemName, Next: NextControl}
}

func (l *ClickList) Enter(ctx context.Context, s *Steps) error {
	if err := s.Navigate(ctx, l.URL); err != nil {
		return err
	}
	return s.Wait(ctx, "list", l.Marker)
}

func (l *ClickList) Visible(ctx context.Context, s *Steps) ([]Entry, error) {
	html, err := s.HTML(ctx)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	items, ok := extract.Find(doc.Selection, l.Item)
	if !ok {
		return nil, nil
	}
	out := make([]Entry, 0, items.Length())
	items.Each(func(i int, item *goquery.Selection) {
		name, ok := extract.Text(item, l.Name)
		if !ok || name == "" {
			name = strings.TrimSpace(item.Text())
		}
		if name == "" {
			return
		}
		out = append(out, Entry{Key: name, Index: i, Seed: model.ExpertProfile{Name: name}})
	})
	return out, nil
}

func (l *ClickList) Open(ctx context.Context, s *Steps, e Entry) error {
	return s.Click(ctx, "open", l.Item, e.Index)
}

func (l *ClickList) Back(ctx context.Context, s *Steps) error {
	if err := s.Back(ctx); err != nil {
		return err
	}
	return s.Wait(ctx, "list", l.Marker)
}

func (l *ClickList) Advance(ctx context.Context, s *Steps) error {
	if err := s.Click(ctx, "next", l.Next, 0); err != nil {
		return err
	}
	return s.Wait(ctx, "list", l.Marker)
}

// RankingList walks ranking entries in windows and opens each expert by
// navigating to its detail URL.
type RankingList struct {
	entries   []model.ExpertProfile
	detailURL string // fmt pattern taking the expert id
	window    int
	offset    int
}

// NewRankingList creates a strategy over ranking entries. detailURL is a
// fmt pattern with one %s for the expert id.
func NewRankingList(entries []model.ExpertProfile, detailURL string, window int) *RankingList {
	if window <= 0 {
		window = len(entries)
	}
	return &RankingList{entries: entries, detailURL: detailURL, window: window}
}

// Enter needs no page: the list is data. It rewinds to the first window.
func (r *RankingList) Enter(context.Context, *Steps) error {
	r.offset = 0
	return nil
}

func (r *RankingList) Visible(context.Context, *Steps) ([]Entry, error) {
	if r.offset >= len(r.entries) {
		return nil, ErrExhausted
	}
	end := min(r.offset+r.window, len(r.entries))
	out := make([]Entry, 0, end-r.offset)
	for i, p := range r.entries[r.offset:end] {
		out = append(out, Entry{Key: p.Key(), Index: r.offset + i, Seed: p})
	}
	return out, nil
}

func (r *RankingList) Open(ctx context.Context, s *Steps, e Entry) error {
	if e.Seed.ID == "" {
		return fmt.Errorf("%w: %s has no id", ErrNoDetailURL, e.Key)
	}
	return s.Navigate(ctx, fmt.Sprintf(r.detailURL, url.QueryEscape(e.Seed.ID)))
}

// Back needs no page either: the next Open navigates directly.
func (r *RankingList) Back(context.Context, *Steps) error { return nil }

func (r *RankingList) Advance(context.Context, *Steps) error {
	if r.offset+r.window >= len(r.entries) {
		r.offset = len(r.entries)
		return ErrExhausted
	}
	r.offset += r.window
	return nil
}
