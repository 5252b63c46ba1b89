package scoring_test

import (
	"math/rand/v2"
	"testing"

	"github.com/okian/dltscope/internal/domain/model"
	"github.com/okian/dltscope/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed+1))
}

func uniformHistory() map[int]int {
	hist := map[int]int{1: 10, 2: 0}
	for n := 3; n <= model.FrontMax; n++ {
		hist[n] = 5
	}
	return hist
}

func TestScore(t *testing.T) {
	Convey("Given a history where 1 appeared 10 times and 2 never", t, func() {
		hist := uniformHistory()
		total := 10.0 + 33*5
		e := scoring.New(scoring.WithRand(seeded(7)))

		one := e.Score(1, hist, map[int]int{}, model.FrontMax)
		two := e.Score(2, hist, map[int]int{}, model.FrontMax)

		Convey("Then the historical gap is 40% of 10/Σh", func() {
			So(one.Historical-two.Historical, ShouldAlmostEqual, 0.4*(10/total), 1e-12)
			So(two.Historical, ShouldEqual, 0)
		})

		Convey("Then an empty recent table contributes exactly zero", func() {
			for n := 1; n <= model.FrontMax; n++ {
				So(e.Score(n, hist, nil, model.FrontMax).Recent, ShouldEqual, 0)
			}
		})

		Convey("Then the balance component follows the distance from the mean", func() {
			mean := total / model.FrontMax
			So(one.Balance, ShouldAlmostEqual, 0.2*(20-2*(10-mean)), 1e-12)
			So(two.Balance, ShouldAlmostEqual, 0.2*(20-2*mean), 1e-12)
		})

		Convey("Then jitter stays within 10% of U(0,10)", func() {
			for n := 1; n <= model.FrontMax; n++ {
				j := e.Score(n, hist, nil, model.FrontMax).Jitter
				So(j, ShouldBeGreaterThanOrEqualTo, 0)
				So(j, ShouldBeLessThan, 1)
			}
		})
	})

	Convey("Given empty tables", t, func() {
		e := scoring.New(scoring.WithoutJitter())
		c := e.Score(3, nil, nil, model.BackMax)

		Convey("Then only the balance ceiling remains", func() {
			So(c.Historical, ShouldEqual, 0)
			So(c.Recent, ShouldEqual, 0)
			So(c.Jitter, ShouldEqual, 0)
			So(c.Balance, ShouldAlmostEqual, 4.0, 1e-12)
		})
	})

	Convey("Given a number far from the mean", t, func() {
		e := scoring.New(scoring.WithoutJitter())
		c := e.Score(1, map[int]int{1: 100}, nil, model.BackMax)
		So(c.Balance, ShouldEqual, 0)
	})

	Convey("Given a seeded engine", t, func() {
		a := scoring.New(scoring.WithRand(seeded(42))).ScoreAll(uniformHistory(), nil, model.FrontMax)
		b := scoring.New(scoring.WithRand(seeded(42))).ScoreAll(uniformHistory(), nil, model.FrontMax)

		Convey("Then runs are reproducible and ranked", func() {
			So(a, ShouldResemble, b)
			for i := 1; i < len(a); i++ {
				So(a[i-1].Total(), ShouldBeGreaterThanOrEqualTo, a[i].Total())
			}
		})
	})
}

func TestSelectFront(t *testing.T) {
	Convey("Given random full-domain candidate pools", t, func() {
		r := seeded(99)
		for trial := 0; trial < 200; trial++ {
			ranked := make([]model.CandidateScore, 0, model.FrontMax)
			for n := 1; n <= model.FrontMax; n++ {
				ranked = append(ranked, model.CandidateScore{Number: n, Historical: r.Float64()})
			}
			scoring.Rank(ranked)

			picked := scoring.SelectFront(ranked, model.FrontSize)

			odd, small := 0, 0
			seen := map[int]bool{}
			for _, n := range picked {
				if n%2 == 1 {
					odd++
				}
				if n <= model.SmallMax {
					small++
				}
				seen[n] = true
			}
			So(len(picked), ShouldEqual, model.FrontSize)
			So(len(seen), ShouldEqual, model.FrontSize)
			So(odd, ShouldBeBetweenOrEqual, 2, 3)
			So(small, ShouldBeBetweenOrEqual, 2, 3)
		}
	})

	Convey("Given a ranking that starts with four small odd numbers", t, func() {
		ranked := []model.CandidateScore{
			{Number: 1, Historical: 10}, {Number: 3, Historical: 9}, {Number: 5, Historical: 8},
			{Number: 7, Historical: 7}, {Number: 20, Historical: 6}, {Number: 22, Historical: 5},
			{Number: 9, Historical: 4}, {Number: 24, Historical: 3},
		}

		Convey("Then the fourth small odd is skipped", func() {
			So(scoring.SelectFront(ranked, 5), ShouldResemble, []int{1, 3, 5, 20, 22})
		})
	})

	Convey("Given a pool the caps cannot satisfy", t, func() {
		ranked := []model.CandidateScore{
			{Number: 1, Historical: 5}, {Number: 3, Historical: 4}, {Number: 5, Historical: 3},
			{Number: 7, Historical: 2}, {Number: 9, Historical: 1},
		}

		Convey("Then the best leftovers fill the remaining slots", func() {
			So(scoring.SelectFront(ranked, 5), ShouldResemble, []int{1, 3, 5, 7, 9})
		})
	})

	Convey("Given fewer candidates than slots", t, func() {
		ranked := []model.CandidateScore{{Number: 2}, {Number: 4}}
		So(scoring.SelectFront(ranked, 5), ShouldResemble, []int{2, 4})
	})
}

func TestSelectBackAndPredict(t *testing.T) {
	Convey("Given ranked back candidates", t, func() {
		ranked := []model.CandidateScore{{Number: 9, Recent: 3}, {Number: 2, Recent: 2}, {Number: 5, Recent: 1}}
		So(scoring.SelectBack(ranked, 2), ShouldResemble, []int{9, 2})
		So(scoring.SelectBack(ranked[:1], 2), ShouldResemble, []int{9})
	})

	Convey("Given a seeded engine predicting from history", t, func() {
		e := scoring.New(scoring.WithRand(seeded(3)))
		histBack := map[int]int{1: 8, 2: 7, 3: 6, 4: 5, 5: 4, 6: 3, 7: 2, 8: 1, 9: 1, 10: 1, 11: 1, 12: 1}
		p := e.Predict(uniformHistory(), map[int]int{1: 2, 4: 1}, histBack, map[int]int{1: 1}, 3)

		Convey("Then the pick is valid and sorted", func() {
			d := model.DrawRecord{Period: 1, Front: p.Front, Back: p.Back}
			So(len(p.Front), ShouldEqual, model.FrontSize)
			So(len(p.Back), ShouldEqual, model.BackSize)
			So(p.Front[0], ShouldBeLessThan, p.Front[4])
			So(p.Back[0], ShouldBeLessThan, p.Back[1])
			So(d.OddCount(), ShouldBeLessThanOrEqualTo, 3)
			So(d.SmallCount(), ShouldBeLessThanOrEqualTo, 3)
		})

		Convey("Then three alternates are drawn from the top pools", func() {
			So(len(p.Alternates), ShouldEqual, 3)
			for _, alt := range p.Alternates {
				So(len(alt.Front), ShouldEqual, model.FrontSize)
				So(len(alt.Back), ShouldEqual, model.BackSize)
			}
		})
	})
}
