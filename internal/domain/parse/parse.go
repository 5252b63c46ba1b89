// Package parse turns draw-list pages, expert detail pages and ranking
// snapshots into domain records. Malformed rows are skipped and logged; a
// batch never fails because of one row.
package parse

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/okian/dltscope/internal/domain/extract"
	"github.com/okian/dltscope/internal/domain/model"
	"github.com/okian/dltscope/pkg/logger"
	"github.com/okian/dltscope/pkg/metrics"
	"github.com/shopspring/decimal"
)

// MinDrawCells is the number of cells a draw row needs.
const MinDrawCells = 14

// DefaultCategory is the award block label counted toward expert wins.
const DefaultCategory = "双色球"

// Draw row cell positions.
const (
	cellPeriod = iota
	cellDate
	cellFront
	cellBack
	cellSales
	cellFirstCount
	cellFirstAmount
	cellFirstPlusCount
	cellFirstPlusAmount
	cellSecondCount
	cellSecondAmount
	cellSecondPlusCount
	cellSecondPlusAmount
	cellPool
)

// Locators used by the parsers.
var (
	RowLocator     = extract.L("table tbody tr", "tbody tr")
	cellLocator    = extract.L("td")
	frontLocator   = extract.L("span.jqh", ".jqh")
	backLocator    = extract.L("span.jql", ".jql")
	DetailMarker   = extract.L(".okami-text", "div[class*=okami]")
	paragraphs     = extract.L("p")
	awardBlocks    = extract.L("div.djzj", ".djzj")
	awardLabel     = extract.L("span.text-head-bg", ".text-head-bg")
	awardItems     = extract.L("div.item", ".item")
	tenurePattern  = regexp.MustCompile(`彩龄：\s*(\d+)年`)
	articlePattern = regexp.MustCompile(`文章数量：\s*(\d+)篇`)
	winsPattern    = regexp.MustCompile(`(\d+)次`)
)

// Labels of the detail page paragraphs.
const (
	tenureLabel  = "彩龄："
	articleLabel = "文章数量："
)

// Parser converts markup into records.
type Parser struct {
	log      logger.Logger
	category string
}

// Option configures a Parser.
type Option func(*Parser)

// WithLogger sets the parser logger.
func WithLogger(l logger.Logger) Option {
	return func(p *Parser) {
		if l != nil {
			p.log = l
		}
	}
}

// WithCategory sets the award block label counted toward wins.
func WithCategory(label string) Option {
	return func(p *Parser) {
		if label = strings.TrimSpace(label); label != "" {
			p.category = label
		}
	}
}

// New creates a Parser.
func New(opts ...Option) *Parser {
	p := &Parser{category: DefaultCategory}
	for _, opt := range opts {
		opt(p)
	}
	if p.log == nil {
		p.log = logger.Get().Named("parse")
	}
	return p
}

// Category returns the configured award label.
func (p *Parser) Category() string { return p.category }

// DrawRows parses every row of one draw-list page in row order. Rows with
// fewer than MinDrawCells cells or invalid numbers are skipped.
func (p *Parser) DrawRows(ctx context.Context, page int, html string) ([]model.DrawRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("%w: page %d: %v", ErrUnreadable, page, err)
	}

	rows, ok := extract.Find(doc.Selection, RowLocator)
	if !ok {
		p.log.Warn(ctx, "no draw table on page", logger.Int("page", page))
		metrics.RecordRowSkipped("draw", "no_table")
		return nil, nil
	}

	out := make([]model.DrawRecord, 0, rows.Length())
	rows.Each(func(i int, row *goquery.Selection) {
		rec, reason, err := p.drawRow(row)
		if err != nil {
			p.log.Warn(ctx, "skipping draw row",
				logger.Int("page", page),
				logger.Int("row", i+1),
				logger.String("reason", reason),
				logger.Error(err),
			)
			metrics.RecordRowSkipped("draw", reason)
			return
		}
		metrics.RecordRowParsed("draw")
		out = append(out, rec)
	})

	p.log.Debug(ctx, "parsed draw page",
		logger.Int("page", page),
		logger.Int("rows", rows.Length()),
		logger.Int("records", len(out)),
	)
	return out, nil
}

func (p *Parser) drawRow(row *goquery.Selection) (model.DrawRecord, string, error) {
	cells, ok := extract.Find(row, cellLocator)
	if !ok {
		return model.DrawRecord{}, "short_row", fmt.Errorf("%w: no cells", ErrShortRow)
	}
	if cells.Length() < MinDrawCells {
		return model.DrawRecord{}, "short_row", fmt.Errorf("%w: %d cells", ErrShortRow, cells.Length())
	}
	cell := func(i int) *goquery.Selection { return cells.Eq(i) }
	whole := extract.Locator{}

	period, ok := extract.Int(cell(cellPeriod), whole)
	if !ok {
		return model.DrawRecord{}, "period", fmt.Errorf("%w: period cell", ErrMissingField)
	}
	date, ok := extract.Date(cell(cellDate), whole, model.DateLayout)
	if !ok {
		return model.DrawRecord{}, "date", fmt.Errorf("%w: date cell of %d", ErrMissingField, period)
	}

	rec := model.DrawRecord{
		Period: period,
		Date:   date,
		Front:  extract.Ints(cell(cellFront), frontLocator),
		Back:   extract.Ints(cell(cellBack), backLocator),
	}
	// Money columns degrade to zero; the listing uses "--" for tiers nobody won.
	money := []struct {
		dst *decimal.Decimal
		idx int
	}{
		{&rec.Sales, cellSales},
		{&rec.FirstCount, cellFirstCount},
		{&rec.FirstAmount, cellFirstAmount},
		{&rec.FirstPlusCount, cellFirstPlusCount},
		{&rec.FirstPlusAmount, cellFirstPlusAmount},
		{&rec.SecondCount, cellSecondCount},
		{&rec.SecondAmount, cellSecondAmount},
		{&rec.SecondPlusCount, cellSecondPlusCount},
		{&rec.SecondPlusAmount, cellSecondPlusAmount},
		{&rec.Pool, cellPool},
	}
	for _, m := range money {
		*m.dst, _ = extract.Decimal(cell(m.idx), whole)
	}

	if err := rec.Validate(); err != nil {
		return model.DrawRecord{}, "invalid", err
	}
	return rec, "", nil
}

// DrawPages parses pages in order, concatenates the rows and stable-sorts
// them by period descending so later filtering does not depend on fetch order.
func (p *Parser) DrawPages(ctx context.Context, pages []string) []model.DrawRecord {
	var all []model.DrawRecord
	for i, html := range pages {
		recs, err := p.DrawRows(ctx, i+1, html)
		if err != nil {
			p.log.Warn(ctx, "skipping draw page", logger.Int("page", i+1), logger.Error(err))
			continue
		}
		all = append(all, recs...)
	}
	slices.SortStableFunc(all, model.ComparePeriodDesc)
	return all
}

// ExpertDetail parses a rendered expert detail page. Missing sections leave
// zero values; the name is attached as the identifier.
func (p *Parser) ExpertDetail(ctx context.Context, name, html string) model.ExpertProfile {
	prof := model.ExpertProfile{Name: name}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		p.log.Warn(ctx, "unreadable detail page", logger.String("expert", name), logger.Error(err))
		return prof
	}

	if info, ok := extract.Find(doc.Selection, DetailMarker); ok {
		if years, ok := extract.Labeled(info, paragraphs, tenureLabel, tenurePattern); ok {
			prof.TenureYears = years
		} else {
			p.log.Debug(ctx, "tenure not found", logger.String("expert", name))
		}
		if articles, ok := extract.Labeled(info, paragraphs, articleLabel, articlePattern); ok {
			prof.Articles = articles
		} else {
			p.log.Debug(ctx, "article count not found", logger.String("expert", name))
		}
	} else {
		p.log.Warn(ctx, "detail section missing", logger.String("expert", name))
	}

	prof.Wins = p.awards(doc.Selection)
	metrics.RecordRowParsed("expert")
	return prof
}

// awards reads the first award block whose label contains the category.
func (p *Parser) awards(s *goquery.Selection) model.TierWins {
	var wins model.TierWins
	blocks, ok := extract.Find(s, awardBlocks)
	if !ok {
		return wins
	}
	blocks.EachWithBreak(func(_ int, block *goquery.Selection) bool {
		label, _ := extract.Text(block, awardLabel)
		if !strings.Contains(label, p.category) {
			return true
		}
		items, ok := extract.Find(block, awardItems)
		if !ok {
			return false
		}
		items.Each(func(_ int, item *goquery.Selection) {
			text := item.Text()
			sub := winsPattern.FindStringSubmatch(text)
			if len(sub) < 2 {
				return
			}
			n, _ := extract.IntFrom(sub[1])
			switch TierOf(text) {
			case 1:
				wins.First += n
			case 2:
				wins.Second += n
			case 3:
				wins.Third += n
			default:
				wins.Other += n
			}
		})
		return false
	})
	return wins
}

// TierOf classifies an award item by its prize label: 1, 2, 3, or 0 for other.
func TierOf(text string) int {
	switch {
	case strings.Contains(text, "一等奖"):
		return 1
	case strings.Contains(text, "二等奖"):
		return 2
	case strings.Contains(text, "三等奖"):
		return 3
	default:
		return 0
	}
}
