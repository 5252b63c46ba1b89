package model

import (
	"fmt"
	"strings"
)

// Activity multipliers used to estimate how many predictions an expert has published.
const (
	ActivityPerTenureYear = 50
	ActivityPerArticle    = 2
)

// TierWins counts awards per prize tier.
type TierWins struct {
	First  int
	Second int
	Third  int
	Other  int
}

// Total sums all tiers.
func (w TierWins) Total() int { return w.First + w.Second + w.Third + w.Other }

// Ranking holds the optional fields of a ranking-list entry.
type Ranking struct {
	Lottery    int
	Follow     int
	GradeName  string
	Rank       int
	Norm       float64
	BestRecord string
	GoodRecord string
}

// ExpertProfile is one ranked expert. Derived values (total wins, win rate,
// tier) are methods and never stored on the struct.
type ExpertProfile struct {
	ID          string
	Name        string
	TenureYears int
	Articles    int
	Wins        TierWins
	Ranking     Ranking
}

// Key identifies the profile in dedup sets: the name, or the id when the name is empty.
func (p ExpertProfile) Key() string {
	if name := strings.TrimSpace(p.Name); name != "" {
		return name
	}
	return p.ID
}

// TotalWins sums the per-tier win counts.
func (p ExpertProfile) TotalWins() int { return p.Wins.Total() }

// Activity estimates published predictions as max(tenure*50, articles*2, floor).
func (p ExpertProfile) Activity(floor int) int {
	return max(p.TenureYears*ActivityPerTenureYear, p.Articles*ActivityPerArticle, floor)
}

// WinRate is TotalWins over Activity. A non-positive activity yields 0.
func (p ExpertProfile) WinRate(floor int) float64 {
	a := p.Activity(floor)
	if a <= 0 {
		return 0
	}
	return float64(p.TotalWins()) / float64(a)
}

// Tier classifies the profile by win rate.
func (p ExpertProfile) Tier(floor int) RankTier {
	return TierFor(p.WinRate(floor))
}

// Validate rejects profiles without identity or with negative counts.
func (p ExpertProfile) Validate() error {
	if p.Key() == "" {
		return fmt.Errorf("%w: no name or id", ErrInvalidExpert)
	}
	if p.TenureYears < 0 || p.Articles < 0 {
		return fmt.Errorf("%w: %s has negative tenure or article count", ErrInvalidExpert, p.Key())
	}
	w := p.Wins
	if w.First < 0 || w.Second < 0 || w.Third < 0 || w.Other < 0 {
		return fmt.Errorf("%w: %s has negative wins", ErrInvalidExpert, p.Key())
	}
	return nil
}

// RankTier is an ordered expert level.
type RankTier int

const (
	TierNovice RankTier = iota
	TierIntermediate
	TierSenior
	TierMaster
)

// Win-rate thresholds for each tier above novice.
const (
	IntermediateWinRate = 0.02
	SeniorWinRate       = 0.05
	MasterWinRate       = 0.10
)

// TierFor maps a win rate to its tier.
func TierFor(rate float64) RankTier {
	switch {
	case rate >= MasterWinRate:
		return TierMaster
	case rate >= SeniorWinRate:
		return TierSenior
	case rate >= IntermediateWinRate:
		return TierIntermediate
	default:
		return TierNovice
	}
}

func (t RankTier) String() string {
	switch t {
	case TierNovice:
		return "novice"
	case TierIntermediate:
		return "intermediate"
	case TierSenior:
		return "senior"
	case TierMaster:
		return "master"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}
