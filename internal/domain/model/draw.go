// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Number domains of the 5-of-35 + 2-of-12 game.
const (
	FrontSize = 5
	BackSize  = 2
	FrontMax  = 35
	BackMax   = 12

	// SmallMax is the largest front number counted as "small".
	SmallMax = 17
)

// DateLayout is the draw date layout used by listings and the tabular store.
const DateLayout = "2006-01-02"

// DrawRecord is one lottery draw. Records are immutable once parsed.
type DrawRecord struct {
	Period int       // unique, newest draws have the largest period
	Date   time.Time // draw date, local midnight
	Front  []int     // 5 distinct numbers in 1..35, listing order
	Back   []int     // 2 distinct numbers in 1..12, listing order

	Sales decimal.Decimal

	FirstCount      decimal.Decimal
	FirstAmount     decimal.Decimal
	FirstPlusCount  decimal.Decimal
	FirstPlusAmount decimal.Decimal

	SecondCount      decimal.Decimal
	SecondAmount     decimal.Decimal
	SecondPlusCount  decimal.Decimal
	SecondPlusAmount decimal.Decimal

	Pool decimal.Decimal
}

// Validate checks the number sets, the period and that money fields are non-negative.
func (d DrawRecord) Validate() error {
	if d.Period <= 0 {
		return fmt.Errorf("%w: period %d", ErrInvalidDraw, d.Period)
	}
	if d.Date.IsZero() {
		return fmt.Errorf("%w: period %d has no date", ErrInvalidDraw, d.Period)
	}
	if err := validateSet(d.Front, FrontSize, FrontMax); err != nil {
		return fmt.Errorf("%w: period %d front: %v", ErrInvalidDraw, d.Period, err)
	}
	if err := validateSet(d.Back, BackSize, BackMax); err != nil {
		return fmt.Errorf("%w: period %d back: %v", ErrInvalidDraw, d.Period, err)
	}
	for _, a := range d.Amounts() {
		if a.Value.IsNegative() {
			return fmt.Errorf("%w: period %d %s is negative", ErrInvalidDraw, d.Period, a.Name)
		}
	}
	return nil
}

// NamedAmount pairs a money or count column with its value.
type NamedAmount struct {
	Name  string
	Value decimal.Decimal
}

// Amounts lists the decimal columns in listing order.
func (d DrawRecord) Amounts() []NamedAmount {
	return []NamedAmount{
		{"sales", d.Sales},
		{"first_count", d.FirstCount},
		{"first_amount", d.FirstAmount},
		{"first_plus_count", d.FirstPlusCount},
		{"first_plus_amount", d.FirstPlusAmount},
		{"second_count", d.SecondCount},
		{"second_amount", d.SecondAmount},
		{"second_plus_count", d.SecondPlusCount},
		{"second_plus_amount", d.SecondPlusAmount},
		{"pool", d.Pool},
	}
}

func validateSet(nums []int, size, maxN int) error {
	if len(nums) != size {
		return fmt.Errorf("want %d numbers, got %d", size, len(nums))
	}
	seen := make(map[int]struct{}, size)
	for _, n := range nums {
		if n < 1 || n > maxN {
			return fmt.Errorf("%d outside 1..%d", n, maxN)
		}
		if _, dup := seen[n]; dup {
			return fmt.Errorf("duplicate %d", n)
		}
		seen[n] = struct{}{}
	}
	return nil
}

// Weekday returns the day of the week the draw took place.
func (d DrawRecord) Weekday() time.Weekday { return d.Date.Weekday() }

// OddCount counts odd front numbers.
func (d DrawRecord) OddCount() int {
	n := 0
	for _, v := range d.Front {
		if v%2 == 1 {
			n++
		}
	}
	return n
}

// SmallCount counts front numbers <= SmallMax.
func (d DrawRecord) SmallCount() int {
	n := 0
	for _, v := range d.Front {
		if v <= SmallMax {
			n++
		}
	}
	return n
}

// ComparePeriodDesc orders newer periods first, for slices.SortStableFunc.
func ComparePeriodDesc(a, b DrawRecord) int {
	switch {
	case a.Period > b.Period:
		return -1
	case a.Period < b.Period:
		return 1
	default:
		return 0
	}
}
