package repository_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/dltscope/internal/adapters/repository"
	"github.com/okian/dltscope/internal/domain/model"
	"github.com/okian/dltscope/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func sampleDraw() model.DrawRecord {
	return model.DrawRecord{
		Period:           25071,
		Date:             time.Date(2025, 6, 28, 0, 0, 0, 0, time.Local),
		Front:            []int{3, 9, 17, 22, 35},
		Back:             []int{4, 11},
		Sales:            decimal.RequireFromString("312456789.5"),
		FirstCount:       decimal.NewFromInt(2),
		FirstAmount:      decimal.NewFromInt(10000000),
		FirstPlusCount:   decimal.NewFromInt(1),
		FirstPlusAmount:  decimal.NewFromInt(8000000),
		SecondCount:      decimal.NewFromInt(80),
		SecondAmount:     decimal.NewFromInt(150000),
		SecondPlusCount:  decimal.NewFromInt(20),
		SecondPlusAmount: decimal.NewFromInt(120000),
		Pool:             decimal.NewFromInt(800000000),
	}
}

func TestCSVStoreDraws(t *testing.T) {
	ctx := context.Background()

	convey.Convey("Given a CSV store in a fresh directory", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "nested", "draws.csv")
		store := repository.NewCSVStore(repository.WithDrawPath(path))

		convey.Convey("When nothing was saved", func() {
			_, err := store.LoadDraws(ctx)

			convey.Convey("Then ErrNotFound is returned", func() {
				convey.So(errors.Is(err, repository.ErrNotFound), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When draws are saved and loaded back", func() {
			want := []model.DrawRecord{sampleDraw()}
			convey.So(store.SaveDraws(ctx, want), convey.ShouldBeNil)
			got, err := store.LoadDraws(ctx)

			convey.Convey("Then the records round-trip", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(got, convey.ShouldHaveLength, 1)
				convey.So(got[0].Period, convey.ShouldEqual, 25071)
				convey.So(got[0].Date.Equal(want[0].Date), convey.ShouldBeTrue)
				convey.So(got[0].Front, convey.ShouldResemble, want[0].Front)
				convey.So(got[0].Back, convey.ShouldResemble, want[0].Back)
				convey.So(got[0].Sales.Equal(want[0].Sales), convey.ShouldBeTrue)
				convey.So(got[0].Pool.Equal(want[0].Pool), convey.ShouldBeTrue)
			})

			convey.Convey("Then the file starts with a BOM and a header", func() {
				data, err := os.ReadFile(path)
				convey.So(err, convey.ShouldBeNil)
				convey.So(bytes.HasPrefix(data, []byte("\ufeffperiod,date,front,back,sales")), convey.ShouldBeTrue)
				convey.So(string(data), convey.ShouldContainSubstring, "03 09 17 22 35")
			})

			convey.Convey("Then no temp files are left behind", func() {
				entries, err := os.ReadDir(filepath.Dir(path))
				convey.So(err, convey.ShouldBeNil)
				convey.So(entries, convey.ShouldHaveLength, 1)
			})
		})

		convey.Convey("When only a header was saved", func() {
			convey.So(store.SaveDraws(ctx, nil), convey.ShouldBeNil)
			_, err := store.LoadDraws(ctx)

			convey.Convey("Then the cache counts as empty", func() {
				convey.So(errors.Is(err, repository.ErrNotFound), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the file holds an invalid row", func() {
			convey.So(os.MkdirAll(filepath.Dir(path), 0o755), convey.ShouldBeNil)
			bad := "period,date,front,back,sales,first_count,first_amount,first_plus_count,first_plus_amount," +
				"second_count,second_amount,second_plus_count,second_plus_amount,pool\n" +
				"25071,2025-06-28,01 02 03,04 05,1,0,0,0,0,0,0,0,0,0\n"
			convey.So(os.WriteFile(path, []byte(bad), 0o600), convey.ShouldBeNil)
			_, err := store.LoadDraws(ctx)

			convey.Convey("Then ErrMalformed is returned", func() {
				convey.So(errors.Is(err, repository.ErrMalformed), convey.ShouldBeTrue)
			})
		})
	})

	convey.Convey("Given a store without paths", t, func() {
		store := repository.NewCSVStore()

		convey.Convey("Then loads and saves report ErrNoPath", func() {
			_, err := store.LoadDraws(ctx)
			convey.So(errors.Is(err, repository.ErrNoPath), convey.ShouldBeTrue)
			convey.So(errors.Is(store.SaveExperts(ctx, nil), repository.ErrNoPath), convey.ShouldBeTrue)
		})
	})
}

func TestCSVStoreExperts(t *testing.T) {
	ctx := context.Background()

	convey.Convey("Given saved expert profiles", t, func() {
		path := filepath.Join(t.TempDir(), "experts.csv")
		store := repository.NewCSVStore(repository.WithExpertPath(path), repository.WithActivityFloor(100))
		want := []model.ExpertProfile{
			{
				ID: "101", Name: "甲", TenureYears: 3, Articles: 40,
				Wins:    model.TierWins{First: 2, Third: 13},
				Ranking: model.Ranking{Lottery: 23, Follow: 50, GradeName: "金牌", Rank: 1, Norm: 97.5, BestRecord: "7中5"},
			},
			{Name: "乙"},
		}
		convey.So(store.SaveExperts(ctx, want), convey.ShouldBeNil)

		convey.Convey("Then loading returns the same profiles", func() {
			got, err := store.LoadExperts(ctx)
			convey.So(err, convey.ShouldBeNil)
			convey.So(got, convey.ShouldResemble, want)
		})

		convey.Convey("Then the derived columns are written", func() {
			data, err := os.ReadFile(path)
			convey.So(err, convey.ShouldBeNil)
			// 15 wins over max(150, 80, 100)
			convey.So(string(data), convey.ShouldContainSubstring, "101,甲,3,40,2,0,13,0,15,0.100000,master")
		})
	})
}
