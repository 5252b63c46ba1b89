// Package stats computes finalized aggregates over draws and expert
// profiles: sales trend, number frequency, weekday patterns and the expert
// summary. Results are plain values a renderer or report can consume.
package stats

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/okian/dltscope/internal/domain/model"
	"github.com/shopspring/decimal"
)

// Analysis constants.
const (
	MaxMovingWindow = 10
	EstimateWindow  = 10
	FrontHotCount   = 10
	FrontColdMax    = 2
	BackHotCount    = 6
	BackColdMax     = 1
	WeekdayFrontHot = 5
	WeekdayBackHot  = 3
	minMovingWindow = 2
	movingWindowDiv = 4
)

// Chronological returns a copy of draws ordered oldest first.
func Chronological(draws []model.DrawRecord) []model.DrawRecord {
	out := slices.Clone(draws)
	slices.SortStableFunc(out, func(a, b model.DrawRecord) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return cmp.Compare(a.Period, b.Period)
	})
	return out
}

// Newest returns the n most recent draws, newest first.
func Newest(draws []model.DrawRecord, n int) []model.DrawRecord {
	out := slices.Clone(draws)
	slices.SortStableFunc(out, model.ComparePeriodDesc)
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Sales summarizes sales amounts.
type Sales struct {
	Count    int
	From, To time.Time
	Total    decimal.Decimal
	Mean     decimal.Decimal
	Median   decimal.Decimal
	Max      decimal.Decimal
	Min      decimal.Decimal
	Std      float64 // sample standard deviation

	// Window is min(10, Count/4); MovingAverage holds one value per
	// complete window, oldest first, and is empty when Window < 2.
	Window        int
	MovingAverage []decimal.Decimal

	// Estimate is the mean of the last EstimateWindow draws.
	Estimate decimal.Decimal
}

// SalesTrend summarizes sales over draws. An empty input yields ErrNoDraws.
func SalesTrend(draws []model.DrawRecord) (Sales, error) {
	if len(draws) == 0 {
		return Sales{}, ErrNoDraws
	}
	ordered := Chronological(draws)
	values := make([]decimal.Decimal, len(ordered))
	for i, d := range ordered {
		values[i] = d.Sales
	}

	s := Sales{
		Count: len(values),
		From:  ordered[0].Date,
		To:    ordered[len(ordered)-1].Date,
		Total: decimal.Sum(decimal.Zero, values...),
		Max:   decimal.Max(values[0], values[1:]...),
		Min:   decimal.Min(values[0], values[1:]...),
	}
	s.Mean = s.Total.Div(decimal.NewFromInt(int64(s.Count)))
	s.Median = median(values)
	s.Std = sampleStd(values)

	s.Window = min(MaxMovingWindow, s.Count/movingWindowDiv)
	if s.Window >= minMovingWindow {
		s.MovingAverage = movingAverage(values, s.Window)
	}

	tail := values[max(0, len(values)-EstimateWindow):]
	s.Estimate = decimal.Avg(tail[0], tail[1:]...)
	return s, nil
}

func median(values []decimal.Decimal) decimal.Decimal {
	sorted := slices.Clone(values)
	slices.SortFunc(sorted, func(a, b decimal.Decimal) int { return a.Cmp(b) })
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return sorted[mid-1].Add(sorted[mid]).Div(decimal.NewFromInt(2))
}

func sampleStd(values []decimal.Decimal) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v.InexactFloat64()
	}
	mean /= float64(len(values))
	var sq float64
	for _, v := range values {
		d := v.InexactFloat64() - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(values)-1))
}

func movingAverage(values []decimal.Decimal, window int) []decimal.Decimal {
	out := make([]decimal.Decimal, 0, len(values)-window+1)
	for i := window; i <= len(values); i++ {
		w := values[i-window : i]
		out = append(out, decimal.Avg(w[0], w[1:]...))
	}
	return out
}

// Frequency holds complete per-number appearance counts.
type Frequency struct {
	Draws int
	Front map[int]int // every number 1..35
	Back  map[int]int // every number 1..12
}

// Frequencies counts appearances of every front and back number.
func Frequencies(draws []model.DrawRecord) Frequency {
	f := Frequency{
		Draws: len(draws),
		Front: make(map[int]int, model.FrontMax),
		Back:  make(map[int]int, model.BackMax),
	}
	for n := 1; n <= model.FrontMax; n++ {
		f.Front[n] = 0
	}
	for n := 1; n <= model.BackMax; n++ {
		f.Back[n] = 0
	}
	for _, d := range draws {
		for _, n := range d.Front {
			f.Front[n]++
		}
		for _, n := range d.Back {
			f.Back[n]++
		}
	}
	return f
}

// NumberCount is one row of a frequency ranking.
type NumberCount struct {
	Number int
	Count  int
}

// Top returns the n most frequent numbers, ties broken by the smaller number.
func Top(table map[int]int, n int) []NumberCount {
	out := make([]NumberCount, 0, len(table))
	for num, c := range table {
		if c > 0 {
			out = append(out, NumberCount{Number: num, Count: c})
		}
	}
	slices.SortFunc(out, func(a, b NumberCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Number, b.Number)
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// Cold returns the numbers that appeared at most limit times, ascending.
func Cold(table map[int]int, limit int) []int {
	var out []int
	for num, c := range table {
		if c <= limit {
			out = append(out, num)
		}
	}
	slices.Sort(out)
	return out
}

// Numbers extracts the numbers of a ranking.
func Numbers(counts []NumberCount) []int {
	out := make([]int, len(counts))
	for i, c := range counts {
		out[i] = c.Number
	}
	return out
}

// HotCold is the hot/cold split of both zones.
type HotCold struct {
	FrontHot  []int
	FrontCold []int
	BackHot   []int
	BackCold  []int
}

// HotCold splits f with the listing thresholds: front top 10 and <= 2,
// back top 6 and <= 1.
func (f Frequency) HotCold() HotCold {
	return HotCold{
		FrontHot:  Numbers(Top(f.Front, FrontHotCount)),
		FrontCold: Cold(f.Front, FrontColdMax),
		BackHot:   Numbers(Top(f.Back, BackHotCount)),
		BackCold:  Cold(f.Back, BackColdMax),
	}
}

// Weekday aggregates draws held on one weekday.
type Weekday struct {
	Day        time.Weekday
	Count      int
	MeanSales  decimal.Decimal
	StdSales   float64
	OddEven    map[string]int // "3:2" = 3 odd, 2 even
	SmallLarge map[string]int // "2:3" = 2 small, 3 large
	HotFront   []int
	HotBack    []int
	Frequency  Frequency
}

// DrawDays are the weekdays draws are held on.
var DrawDays = []time.Weekday{time.Monday, time.Wednesday, time.Saturday}

// Weekdays aggregates draws per draw day. Days without draws are omitted.
func Weekdays(draws []model.DrawRecord) []Weekday {
	var out []Weekday
	for _, day := range DrawDays {
		var subset []model.DrawRecord
		for _, d := range draws {
			if d.Weekday() == day {
				subset = append(subset, d)
			}
		}
		if len(subset) == 0 {
			continue
		}
		w := Weekday{
			Day:        day,
			Count:      len(subset),
			OddEven:    map[string]int{},
			SmallLarge: map[string]int{},
			Frequency:  Frequencies(subset),
		}
		sales := make([]decimal.Decimal, len(subset))
		for i, d := range subset {
			sales[i] = d.Sales
			odd, small := d.OddCount(), d.SmallCount()
			w.OddEven[Pattern(odd, len(d.Front)-odd)]++
			w.SmallLarge[Pattern(small, len(d.Front)-small)]++
		}
		w.MeanSales = decimal.Avg(sales[0], sales[1:]...)
		w.StdSales = sampleStd(sales)
		w.HotFront = Numbers(Top(w.Frequency.Front, WeekdayFrontHot))
		w.HotBack = Numbers(Top(w.Frequency.Back, WeekdayBackHot))
		out = append(out, w)
	}
	return out
}

// Pattern formats a split such as 3 odd / 2 even as "3:2".
func Pattern(a, b int) string {
	return fmt.Sprintf("%d:%d", a, b)
}
