// Package extract pulls typed values out of parsed markup with primary and
// fallback selectors. Extraction never fails: every function returns the
// type's zero value plus ok=false so callers can log and carry on.
package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
)

// Locator is a CSS selector with ordered fallbacks. An empty Selector
// addresses the selection itself.
type Locator struct {
	Selector  string
	Fallbacks []string
}

// L builds a Locator.
func L(selector string, fallbacks ...string) Locator {
	return Locator{Selector: selector, Fallbacks: fallbacks}
}

// Candidates returns the primary selector followed by the fallbacks.
func (l Locator) Candidates() []string {
	return append([]string{l.Selector}, l.Fallbacks...)
}

// IsZero reports whether the locator addresses nothing but the selection itself.
func (l Locator) IsZero() bool {
	return l.Selector == "" && len(l.Fallbacks) == 0
}

var (
	digitRun  = regexp.MustCompile(`\d+`)
	numberRun = regexp.MustCompile(`-?\d[\d,]*(?:\.\d+)?`)
)

// unit suffixes written after amounts in listings.
var unitScale = map[string]decimal.Decimal{
	"亿": decimal.NewFromInt(100_000_000),
	"万": decimal.NewFromInt(10_000),
}

// Find returns the first candidate selector with at least one match.
func Find(s *goquery.Selection, loc Locator) (*goquery.Selection, bool) {
	if s == nil || s.Length() == 0 {
		return nil, false
	}
	for _, sel := range loc.Candidates() {
		if sel == "" {
			return s, true
		}
		if m := s.Find(sel); m.Length() > 0 {
			return m, true
		}
	}
	return nil, false
}

// Text returns the trimmed text of the first match.
func Text(s *goquery.Selection, loc Locator) (string, bool) {
	m, ok := Find(s, loc)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(m.First().Text()), true
}

// All returns the trimmed, non-empty texts of every match of the first
// candidate selector that matches.
func All(s *goquery.Selection, loc Locator) []string {
	m, ok := Find(s, loc)
	if !ok {
		return nil
	}
	out := make([]string, 0, m.Length())
	m.Each(func(_ int, item *goquery.Selection) {
		if t := strings.TrimSpace(item.Text()); t != "" {
			out = append(out, t)
		}
	})
	return out
}

// Int returns the first run of digits in the first match.
func Int(s *goquery.Selection, loc Locator) (int, bool) {
	t, ok := Text(s, loc)
	if !ok {
		return 0, false
	}
	return IntFrom(t)
}

// IntFrom returns the first run of digits in text.
func IntFrom(text string) (int, bool) {
	run := digitRun.FindString(text)
	if run == "" {
		return 0, false
	}
	n, err := strconv.Atoi(run)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Ints converts every match to an int, dropping texts without digits.
func Ints(s *goquery.Selection, loc Locator) []int {
	texts := All(s, loc)
	out := make([]int, 0, len(texts))
	for _, t := range texts {
		if n, ok := IntFrom(t); ok {
			out = append(out, n)
		}
	}
	return out
}

// Decimal reads an amount such as "1,234,567", "3.5亿" or "12万元".
func Decimal(s *goquery.Selection, loc Locator) (decimal.Decimal, bool) {
	t, ok := Text(s, loc)
	if !ok {
		return decimal.Zero, false
	}
	return DecimalFrom(t)
}

// DecimalFrom parses the first number in text, applying a trailing 万/亿 unit.
func DecimalFrom(text string) (decimal.Decimal, bool) {
	idx := numberRun.FindStringIndex(text)
	if idx == nil {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(text[idx[0]:idx[1]], ",", ""))
	if err != nil {
		return decimal.Zero, false
	}
	rest := strings.TrimSpace(text[idx[1]:])
	for unit, scale := range unitScale {
		if strings.HasPrefix(rest, unit) {
			d = d.Mul(scale)
			break
		}
	}
	return d, true
}

// Date parses the first match with layout after dropping a trailing
// "（weekday）" or "(weekday)" annotation.
func Date(s *goquery.Selection, loc Locator, layout string) (time.Time, bool) {
	t, ok := Text(s, loc)
	if !ok {
		return time.Time{}, false
	}
	return DateFrom(t, layout)
}

// DateFrom parses text with layout in local time after stripping annotations.
func DateFrom(text, layout string) (time.Time, bool) {
	if i := strings.IndexAny(text, "（("); i >= 0 {
		text = text[:i]
	}
	d, err := time.ParseInLocation(layout, strings.TrimSpace(text), time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// Labeled scans every match for the first whose text contains label and
// returns pattern's first capture group as an int. Label match, not position,
// decides which element is read.
func Labeled(s *goquery.Selection, loc Locator, label string, pattern *regexp.Regexp) (int, bool) {
	m, ok := Find(s, loc)
	if !ok {
		return 0, false
	}
	var (
		val   int
		found bool
	)
	m.EachWithBreak(func(_ int, item *goquery.Selection) bool {
		text := item.Text()
		if !strings.Contains(text, label) {
			return true
		}
		sub := pattern.FindStringSubmatch(text)
		if len(sub) < 2 {
			return true
		}
		n, err := strconv.Atoi(sub[1])
		if err != nil {
			return true
		}
		val, found = n, true
		return false
	})
	return val, found
}
