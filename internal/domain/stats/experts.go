package stats

import (
	"cmp"
	"math"
	"slices"

	"github.com/okian/dltscope/internal/domain/model"
	"github.com/okian/dltscope/internal/domain/types"
)

// Experts summarizes a set of expert profiles.
type Experts struct {
	Count            int
	MeanTenure       float64
	MeanArticles     float64
	MeanWins         float64
	MeanWinRate      float64
	TenureWinsCorr   float64 // Pearson; NaN when a column is constant
	ArticlesWinsCorr float64
	Grades           map[string]int     // ranking grade name -> experts
	MeanWinsByGrade  map[string]float64 // ranking grade name -> mean total wins
	Tiers            map[model.RankTier]int
}

// ExpertSummary aggregates profiles using floor as the activity floor.
func ExpertSummary(profiles []model.ExpertProfile, floor int) (Experts, error) {
	if len(profiles) == 0 {
		return Experts{}, ErrNoExperts
	}
	n := float64(len(profiles))
	e := Experts{
		Count:           len(profiles),
		Grades:          map[string]int{},
		MeanWinsByGrade: map[string]float64{},
		Tiers:           map[model.RankTier]int{},
	}

	tenure := make([]float64, len(profiles))
	articles := make([]float64, len(profiles))
	wins := make([]float64, len(profiles))
	winsByGrade := map[string]int{}
	for i, p := range profiles {
		tenure[i] = float64(p.TenureYears)
		articles[i] = float64(p.Articles)
		wins[i] = float64(p.TotalWins())
		e.MeanWinRate += p.WinRate(floor)
		e.Tiers[p.Tier(floor)]++

		grade := p.Ranking.GradeName
		if grade == "" {
			grade = "unknown"
		}
		e.Grades[grade]++
		winsByGrade[grade] += p.TotalWins()
	}
	e.MeanTenure = mean(tenure)
	e.MeanArticles = mean(articles)
	e.MeanWins = mean(wins)
	e.MeanWinRate /= n
	e.TenureWinsCorr = pearson(tenure, wins)
	e.ArticlesWinsCorr = pearson(articles, wins)
	for g, total := range winsByGrade {
		e.MeanWinsByGrade[g] = float64(total) / float64(e.Grades[g])
	}
	return e, nil
}

// Leaderboard ranks profiles by win rate, then total wins, then name.
// limit <= 0 returns every profile.
func Leaderboard(profiles []model.ExpertProfile, floor, limit int) []types.Entry {
	ranked := slices.Clone(profiles)
	slices.SortStableFunc(ranked, func(a, b model.ExpertProfile) int {
		if c := cmp.Compare(b.WinRate(floor), a.WinRate(floor)); c != 0 {
			return c
		}
		if c := cmp.Compare(b.TotalWins(), a.TotalWins()); c != 0 {
			return c
		}
		return cmp.Compare(a.Key(), b.Key())
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	out := make([]types.Entry, len(ranked))
	for i, p := range ranked {
		out[i] = types.Entry{
			Rank:      i + 1,
			ExpertID:  p.ID,
			Name:      p.Name,
			WinRate:   p.WinRate(floor),
			TotalWins: p.TotalWins(),
			Activity:  p.Activity(floor),
			Tier:      p.Tier(floor).String(),
			GradeName: p.Ranking.GradeName,
		}
	}
	return out
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var s float64
	for _, x := range xs {
		s += x
	}
	return s / float64(len(xs))
}

func pearson(xs, ys []float64) float64 {
	mx, my := mean(xs), mean(ys)
	var sxy, sxx, syy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return math.NaN()
	}
	return sxy / math.Sqrt(sxx*syy)
}
