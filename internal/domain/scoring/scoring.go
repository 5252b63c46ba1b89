// Package scoring ranks candidate numbers from historical and recent
// frequency tables and picks a balanced selection from the ranking.
package scoring

import (
	"cmp"
	"math"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/okian/dltscope/internal/domain/model"
)

// Default scoring configuration constants.
const (
	defaultHistoricalWeight = 0.4
	defaultRecentWeight     = 0.3
	defaultBalanceWeight    = 0.2
	defaultJitterWeight     = 0.1

	// BalanceCeiling and BalanceSlope shape max(0, 20 - 2*|h - mean|).
	BalanceCeiling = 20.0
	BalanceSlope   = 2.0

	// JitterMax is the upper bound of the uniform jitter draw.
	JitterMax = 10.0

	// Caps of the front selection.
	MaxOdd   = 3
	MaxEven  = 3
	MaxSmall = 3
	MaxLarge = 3

	// Pools sampled for alternates.
	FrontPool = 15
	BackPool  = 8
)

// Weights scale each score component.
type Weights struct {
	Historical float64
	Recent     float64
	Balance    float64
	Jitter     float64
}

// DefaultWeights is 40/30/20/10.
func DefaultWeights() Weights {
	return Weights{
		Historical: defaultHistoricalWeight,
		Recent:     defaultRecentWeight,
		Balance:    defaultBalanceWeight,
		Jitter:     defaultJitterWeight,
	}
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithRand injects the jitter source. Seed it for reproducible runs.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) {
		if r != nil {
			e.rng = r
		}
	}
}

// WithoutJitter zeroes the jitter component.
func WithoutJitter() Option {
	return func(e *Engine) {
		e.weights.Jitter = 0
	}
}

// WithWeights overrides the component weights.
func WithWeights(w Weights) Option {
	return func(e *Engine) {
		e.weights = w
	}
}

// Engine scores candidates. It is not safe for concurrent use because the
// jitter source is shared.
type Engine struct {
	weights Weights
	rng     *rand.Rand
}

// New creates an Engine with default weights and a time-seeded jitter source.
func New(opts ...Option) *Engine {
	e := &Engine{weights: DefaultWeights()}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		seed := uint64(time.Now().UnixNano())
		e.rng = rand.New(rand.NewPCG(seed, seed>>1))
	}
	return e
}

// Weights returns the active weights.
func (e *Engine) Weights() Weights { return e.weights }

// Score computes the components for number n:
//
//	Historical = w.H * hist[n] / Σhist
//	Recent     = w.R * recent[n] / Σrecent
//	Balance    = w.B * max(0, 20 - 2*|hist[n] - Σhist/domainMax|)
//	Jitter     = w.J * U(0, 10)
//
// A zero total yields a zero component.
func (e *Engine) Score(n int, hist, recent map[int]int, domainMax int) model.CandidateScore {
	c := model.CandidateScore{Number: n}

	histTotal := sum(hist)
	if histTotal > 0 {
		c.Historical = e.weights.Historical * float64(hist[n]) / float64(histTotal)
	}

	if recentTotal := sum(recent); recentTotal > 0 {
		c.Recent = e.weights.Recent * float64(recent[n]) / float64(recentTotal)
	}

	mean := 0.0
	if histTotal > 0 && domainMax > 0 {
		mean = float64(histTotal) / float64(domainMax)
	}
	balance := BalanceCeiling - BalanceSlope*math.Abs(float64(hist[n])-mean)
	c.Balance = e.weights.Balance * math.Max(0, balance)

	if e.weights.Jitter != 0 {
		c.Jitter = e.weights.Jitter * e.rng.Float64() * JitterMax
	}
	return c
}

// ScoreAll scores 1..domainMax and orders by total descending, ties by number.
func (e *Engine) ScoreAll(hist, recent map[int]int, domainMax int) []model.CandidateScore {
	out := make([]model.CandidateScore, 0, domainMax)
	for n := 1; n <= domainMax; n++ {
		out = append(out, e.Score(n, hist, recent, domainMax))
	}
	Rank(out)
	return out
}

// Rank sorts scores by total descending, ties by number ascending.
func Rank(scores []model.CandidateScore) {
	slices.SortStableFunc(scores, func(a, b model.CandidateScore) int {
		if c := cmp.Compare(b.Total(), a.Total()); c != 0 {
			return c
		}
		return cmp.Compare(a.Number, b.Number)
	})
}

// SelectFront walks ranked candidates and accepts each one that keeps odd,
// even, small and large counts within their caps. When fewer than size are
// accepted, the highest-ranked leftovers fill the rest ignoring the caps.
func SelectFront(ranked []model.CandidateScore, size int) []int {
	picked := make([]int, 0, size)
	taken := make(map[int]bool, size)
	var odd, even, small, large int

	for _, c := range ranked {
		if len(picked) >= size {
			break
		}
		isOdd := c.Number%2 == 1
		isSmall := c.Number <= model.SmallMax
		if (isOdd && odd >= MaxOdd) || (!isOdd && even >= MaxEven) {
			continue
		}
		if (isSmall && small >= MaxSmall) || (!isSmall && large >= MaxLarge) {
			continue
		}
		picked = append(picked, c.Number)
		taken[c.Number] = true
		if isOdd {
			odd++
		} else {
			even++
		}
		if isSmall {
			small++
		} else {
			large++
		}
	}

	for _, c := range ranked {
		if len(picked) >= size {
			break
		}
		if !taken[c.Number] {
			picked = append(picked, c.Number)
			taken[c.Number] = true
		}
	}
	return picked
}

// SelectBack takes the top size numbers with no balance constraint.
func SelectBack(ranked []model.CandidateScore, size int) []int {
	size = min(size, len(ranked))
	out := make([]int, 0, size)
	for _, c := range ranked[:size] {
		out = append(out, c.Number)
	}
	return out
}

// Alternates samples count backup combinations from the top FrontPool front
// and top BackPool back candidates.
func (e *Engine) Alternates(front, back []model.CandidateScore, count int) []model.Combination {
	out := make([]model.Combination, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, model.Combination{
			Front: e.sample(front, FrontPool, model.FrontSize),
			Back:  e.sample(back, BackPool, model.BackSize),
		})
	}
	return out
}

func (e *Engine) sample(ranked []model.CandidateScore, pool, k int) []int {
	pool = min(pool, len(ranked))
	k = min(k, pool)
	idx := e.rng.Perm(pool)[:k]
	out := make([]int, 0, k)
	for _, i := range idx {
		out = append(out, ranked[i].Number)
	}
	slices.Sort(out)
	return out
}

// Predict scores both zones and returns the balanced front pick, the top
// back pick (each sorted ascending) and alternates.
func (e *Engine) Predict(histFront, recentFront, histBack, recentBack map[int]int, alternates int) model.Prediction {
	front := e.ScoreAll(histFront, recentFront, model.FrontMax)
	back := e.ScoreAll(histBack, recentBack, model.BackMax)

	p := model.Prediction{
		Front:      SelectFront(front, model.FrontSize),
		Back:       SelectBack(back, model.BackSize),
		Alternates: e.Alternates(front, back, alternates),
	}
	slices.Sort(p.Front)
	slices.Sort(p.Back)
	return p
}

func sum(t map[int]int) int {
	total := 0
	for _, v := range t {
		total += v
	}
	return total
}
