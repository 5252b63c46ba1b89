// Package acquire runs bounded acquisition loops over a paged item source.
// The orchestrator owns the dedup set and the accumulated items; sources
// only report what they see and hand over fully parsed items through emit.
package acquire

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/okian/dltscope/internal/domain/dedupe"
	"github.com/okian/dltscope/pkg/logger"
	"github.com/okian/dltscope/pkg/metrics"
)

// Outcome is the reason an acquisition stopped.
type Outcome int

const (
	OutcomeComplete Outcome = iota
	OutcomeBudget
	OutcomeExhausted
	OutcomeCancelled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeComplete:
		return "complete"
	case OutcomeBudget:
		return "budget"
	case OutcomeExhausted:
		return "exhausted"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Source produces items one page at a time.
type Source[T any] interface {
	// Round visits the current page. seen reports identities already
	// captured; emit commits one parsed item and returns false once no more
	// items are wanted. ErrExhausted ends the run.
	Round(ctx context.Context, seen func(id string) bool, emit func(id string, item T) bool) error

	// Next advances to the following page. ErrExhausted ends the run.
	Next(ctx context.Context) error
}

// Result is what an acquisition collected.
type Result[T any] struct {
	RunID    string
	Items    []T // emit order
	Outcome  Outcome
	Rounds   int
	Duration time.Duration
}

// Orchestrator drives a Source until a stop condition holds.
type Orchestrator[T any] struct {
	name     string
	log      logger.Logger
	sizeHint int
}

// Option configures an Orchestrator.
type Option func(*settings)

type settings struct {
	log      logger.Logger
	sizeHint int
}

// WithLogger sets the orchestrator logger.
func WithLogger(l logger.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.log = l
		}
	}
}

// WithSizeHint presizes the dedup set and item buffer.
func WithSizeHint(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.sizeHint = n
		}
	}
}

// New creates an orchestrator. name labels logs and metrics.
func New[T any](name string, opts ...Option) *Orchestrator[T] {
	s := &settings{}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Get().Named("acquire")
	}
	return &Orchestrator[T]{
		name:     name,
		log:      s.log.With(logger.String("acquirer", name)),
		sizeHint: s.sizeHint,
	}
}

// Acquire runs src for at most rounds rounds until target items are
// collected. target <= 0 collects everything; rounds <= 0 means no budget.
// Partial results are returned for every outcome.
func (o *Orchestrator[T]) Acquire(ctx context.Context, src Source[T], target, rounds int) Result[T] {
	start := time.Now()
	res := Result[T]{
		RunID: uuid.NewString(),
		Items: make([]T, 0, max(target, o.sizeHint, 0)),
	}
	seenSet := dedupe.NewInMemoryDeduper(dedupe.WithSizeHint(max(target, o.sizeHint)))
	full := func() bool { return target > 0 && len(res.Items) >= target }

	seen := func(id string) bool { return seenSet.Contains(ctx, id) }
	emit := func(id string, item T) bool {
		if full() {
			return false
		}
		if seenSet.SeenAndRecord(ctx, id) {
			metrics.RecordDuplicate(o.name)
			o.log.Debug(ctx, "duplicate item dropped", logger.String("id", id))
			return true
		}
		res.Items = append(res.Items, item)
		metrics.RecordItemCaptured(o.name)
		return !full()
	}

	log := o.log.With(logger.String("run", res.RunID))
	log.Info(ctx, "acquisition started", logger.Int("target", target), logger.Int("rounds", rounds))

	res.Outcome = o.loop(ctx, log, src, rounds, full, seen, emit, &res.Rounds)
	res.Duration = time.Since(start)
	metrics.RecordAcquisition(o.name, res.Outcome.String(), res.Duration.Seconds())
	log.Info(ctx, "acquisition finished",
		logger.String("outcome", res.Outcome.String()),
		logger.Int("items", len(res.Items)),
		logger.Int("rounds", res.Rounds),
		logger.Duration("duration", res.Duration),
	)
	return res
}

func (o *Orchestrator[T]) loop(
	ctx context.Context,
	log logger.Logger,
	src Source[T],
	rounds int,
	full func() bool,
	seen func(string) bool,
	emit func(string, T) bool,
	done *int,
) Outcome {
	for round := 1; rounds <= 0 || round <= rounds; round++ {
		if full() {
			return OutcomeComplete
		}
		if ctx.Err() != nil {
			return OutcomeCancelled
		}

		*done = round
		metrics.RecordRound(o.name)
		err := src.Round(ctx, seen, emit)
		switch {
		case full():
			return OutcomeComplete
		case ctx.Err() != nil:
			return OutcomeCancelled
		case errors.Is(err, ErrExhausted):
			return OutcomeExhausted
		case err != nil:
			log.Warn(ctx, "round failed", logger.Int("round", round), logger.Error(err))
			metrics.RecordErrorByComponent("acquire", "round")
		}

		if rounds > 0 && round == rounds {
			break
		}
		if err := src.Next(ctx); err != nil {
			if ctx.Err() != nil {
				return OutcomeCancelled
			}
			if !errors.Is(err, ErrExhausted) {
				log.Warn(ctx, "cannot advance source", logger.Int("round", round), logger.Error(err))
			}
			return OutcomeExhausted
		}
	}
	if full() {
		return OutcomeComplete
	}
	return OutcomeBudget
}
