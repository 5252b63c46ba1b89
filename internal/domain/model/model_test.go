package model_test

import (
	"errors"
	"slices"
	"testing"
	"time"

	model "github.com/okian/dltscope/internal/domain/model"
	"github.com/shopspring/decimal"
	"github.com/smartystreets/goconvey/convey"
)

func validDraw() model.DrawRecord {
	return model.DrawRecord{
		Period: 25071,
		Date:   time.Date(2025, 6, 28, 0, 0, 0, 0, time.Local),
		Front:  []int{3, 11, 18, 24, 35},
		Back:   []int{2, 12},
		Sales:  decimal.NewFromInt(300_000_000),
		Pool:   decimal.NewFromInt(800_000_000),
	}
}

func TestDrawRecord(t *testing.T) {
	convey.Convey("Given a draw record", t, func() {
		d := validDraw()

		convey.Convey("When every field is in range", func() {
			convey.Convey("Then it validates", func() {
				convey.So(d.Validate(), convey.ShouldBeNil)
				convey.So(d.Weekday(), convey.ShouldEqual, time.Saturday)
				convey.So(d.OddCount(), convey.ShouldEqual, 3)
				convey.So(d.SmallCount(), convey.ShouldEqual, 2)
			})
		})

		convey.Convey("When the front set has a duplicate", func() {
			d.Front = []int{3, 3, 18, 24, 35}
			convey.So(errors.Is(d.Validate(), model.ErrInvalidDraw), convey.ShouldBeTrue)
		})

		convey.Convey("When the front set is short", func() {
			d.Front = []int{3, 11, 18, 24}
			convey.So(errors.Is(d.Validate(), model.ErrInvalidDraw), convey.ShouldBeTrue)
		})

		convey.Convey("When a back number is outside 1..12", func() {
			d.Back = []int{2, 13}
			convey.So(errors.Is(d.Validate(), model.ErrInvalidDraw), convey.ShouldBeTrue)
		})

		convey.Convey("When a front number is zero", func() {
			d.Front = []int{0, 11, 18, 24, 35}
			convey.So(errors.Is(d.Validate(), model.ErrInvalidDraw), convey.ShouldBeTrue)
		})

		convey.Convey("When sales are negative", func() {
			d.Sales = decimal.NewFromInt(-1)
			err := d.Validate()
			convey.So(errors.Is(err, model.ErrInvalidDraw), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, "sales")
		})

		convey.Convey("When sorting by period", func() {
			a, b, c := validDraw(), validDraw(), validDraw()
			a.Period, b.Period, c.Period = 25069, 25071, 25070
			draws := []model.DrawRecord{a, b, c}
			slices.SortStableFunc(draws, model.ComparePeriodDesc)

			convey.Convey("Then newer periods come first", func() {
				convey.So(draws[0].Period, convey.ShouldEqual, 25071)
				convey.So(draws[1].Period, convey.ShouldEqual, 25070)
				convey.So(draws[2].Period, convey.ShouldEqual, 25069)
			})
		})
	})
}

func TestExpertProfile(t *testing.T) {
	convey.Convey("Given an expert profile", t, func() {
		p := model.ExpertProfile{
			ID:          "1001",
			Name:        "老王",
			TenureYears: 4,
			Articles:    150,
			Wins:        model.TierWins{First: 1, Second: 3, Third: 6, Other: 10},
		}

		convey.Convey("Then derived values follow the activity heuristic", func() {
			convey.So(p.TotalWins(), convey.ShouldEqual, 20)
			convey.So(p.Activity(100), convey.ShouldEqual, 300)
			convey.So(p.WinRate(100), convey.ShouldAlmostEqual, 20.0/300.0)
			convey.So(p.Tier(100), convey.ShouldEqual, model.TierSenior)
		})

		convey.Convey("When tenure and articles are small", func() {
			p.TenureYears, p.Articles = 0, 10

			convey.Convey("Then the floor bounds activity", func() {
				convey.So(p.Activity(100), convey.ShouldEqual, 100)
				convey.So(p.Tier(100), convey.ShouldEqual, model.TierMaster)
			})
		})

		convey.Convey("When the profile has no wins", func() {
			p.Wins = model.TierWins{}
			convey.So(p.WinRate(100), convey.ShouldEqual, 0)
			convey.So(p.Tier(100).String(), convey.ShouldEqual, "novice")
		})

		convey.Convey("When the name is blank", func() {
			p.Name = "  "
			convey.So(p.Key(), convey.ShouldEqual, "1001")

			p.ID = ""
			convey.So(errors.Is(p.Validate(), model.ErrInvalidExpert), convey.ShouldBeTrue)
		})

		convey.Convey("Then tiers are ordered", func() {
			convey.So(model.TierNovice < model.TierIntermediate, convey.ShouldBeTrue)
			convey.So(model.TierSenior < model.TierMaster, convey.ShouldBeTrue)
			convey.So(model.TierFor(0.03), convey.ShouldEqual, model.TierIntermediate)
		})
	})
}

func TestCandidateScore(t *testing.T) {
	convey.Convey("Given a candidate score", t, func() {
		c := model.CandidateScore{Number: 7, Historical: 1, Recent: 2, Balance: 3, Jitter: 0.5}
		convey.So(c.Total(), convey.ShouldEqual, 6.5)
	})
}
