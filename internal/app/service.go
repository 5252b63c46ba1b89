// Package service wires acquisition, storage, analysis and prediction into
// the operations the CLI and the HTTP API call.
package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/okian/dltscope/internal/adapters/browser"
	"github.com/okian/dltscope/internal/adapters/fetch"
	"github.com/okian/dltscope/internal/adapters/repository"
	"github.com/okian/dltscope/internal/app/acquire"
	"github.com/okian/dltscope/internal/app/navigator"
	"github.com/okian/dltscope/internal/config"
	"github.com/okian/dltscope/internal/domain/model"
	"github.com/okian/dltscope/internal/domain/parse"
	"github.com/okian/dltscope/internal/domain/scoring"
	"github.com/okian/dltscope/internal/domain/stats"
	"github.com/okian/dltscope/internal/domain/types"
	"github.com/okian/dltscope/pkg/logger"
	"github.com/okian/dltscope/pkg/metrics"
)

// Store is the persistence the service needs.
type Store interface {
	repository.DrawStore
	repository.ExpertStore
}

// SessionFactory opens a browser session for one expert acquisition.
type SessionFactory func(ctx context.Context) (browser.Session, error)

// Alternates is the number of backup combinations in a prediction.
const Alternates = 3

// Service implements the operations behind the menu and the API.
type Service struct {
	mu sync.RWMutex

	cfg        *config.Config
	store      Store
	fetcher    *fetch.Client
	parser     *parse.Parser
	scorer     *scoring.Engine
	newSession SessionFactory

	// loaded datasets, nil until first use
	draws   []model.DrawRecord
	experts []model.ExpertProfile

	started bool
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore replaces the CSV store.
func WithStore(s Store) Option {
	return func(svc *Service) {
		if s != nil {
			svc.store = s
		}
	}
}

// WithFetcher replaces the HTTP client.
func WithFetcher(f *fetch.Client) Option {
	return func(svc *Service) {
		if f != nil {
			svc.fetcher = f
		}
	}
}

// WithScorer replaces the scoring engine.
func WithScorer(e *scoring.Engine) Option {
	return func(svc *Service) {
		if e != nil {
			svc.scorer = e
		}
	}
}

// WithSessionFactory replaces how browser sessions are opened.
func WithSessionFactory(f SessionFactory) Option {
	return func(svc *Service) {
		if f != nil {
			svc.newSession = f
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(svc *Service) {
		if l != nil {
			svc.logger = l
		}
	}
}

// New constructs a Service from cfg.
func New(cfg *config.Config, opts ...Option) *Service {
	if cfg == nil {
		cfg = config.New()
	}
	s := &Service{cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.store == nil {
		s.store = repository.NewCSVStore(
			repository.WithDrawPath(cfg.DrawCSV),
			repository.WithExpertPath(cfg.ExpertCSV),
			repository.WithActivityFloor(cfg.ActivityFloor),
		)
	}
	if s.fetcher == nil {
		s.fetcher = fetch.New(
			fetch.WithTimeout(cfg.HTTPTimeout()),
			fetch.WithRate(cfg.RequestsPerSecond),
			fetch.WithUserAgent(cfg.UserAgent),
			fetch.WithConcurrency(cfg.FetchConcurrency),
		)
	}
	if s.scorer == nil {
		s.scorer = scoring.New()
	}
	if s.newSession == nil {
		s.newSession = func(ctx context.Context) (browser.Session, error) {
			return browser.NewChrome(ctx,
				browser.WithHeadless(cfg.Headless),
				browser.WithUserAgent(cfg.UserAgent),
				browser.WithCallTimeout(cfg.StepTimeout()),
			)
		}
	}
	s.parser = parse.New(parse.WithCategory(cfg.CategoryLabel))
	return s
}

// Start loads whatever the stores already hold. Missing data is not an
// error; it is acquired on first use.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}
	if draws, err := s.store.LoadDraws(ctx); err == nil {
		s.draws = draws
	} else if !errors.Is(err, repository.ErrNotFound) {
		s.logger.Warn(ctx, "draw cache unreadable", logger.Error(err))
	}
	if experts, err := s.store.LoadExperts(ctx); err == nil {
		s.experts = experts
	} else if !errors.Is(err, repository.ErrNotFound) {
		s.logger.Warn(ctx, "expert cache unreadable", logger.Error(err))
	}
	s.started = true
	s.logger.Info(ctx, "service started",
		logger.Int("draws", len(s.draws)),
		logger.Int("experts", len(s.experts)),
	)
	return nil
}

// Stop releases the loaded datasets.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	s.draws, s.experts = nil, nil
	s.started = false
	s.logger.Info(context.Background(), "service stopped")
}

// Draws returns the draw dataset, acquiring it when nothing is loaded.
func (s *Service) Draws(ctx context.Context) ([]model.DrawRecord, error) {
	s.mu.RLock()
	draws := s.draws
	s.mu.RUnlock()
	if draws != nil {
		return draws, nil
	}
	return s.AcquireDraws(ctx, false)
}

// AcquireDraws builds the draw dataset. Unless force is set, a non-empty
// CSV cache wins. Otherwise cached pages are parsed, or fetched when none
// exist, then sorted, filtered by the cutoff, truncated and saved.
func (s *Service) AcquireDraws(ctx context.Context, force bool) ([]model.DrawRecord, error) {
	if !force {
		if draws, err := s.store.LoadDraws(ctx); err == nil {
			s.setDraws(draws)
			return draws, nil
		} else if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn(ctx, "draw cache unreadable, acquiring", logger.Error(err))
		}
	}

	cutoff, err := s.cfg.CutoffDate()
	if err != nil {
		return nil, err
	}
	pages, err := s.drawPages(ctx)
	if err != nil {
		return nil, err
	}

	src := acquire.NewPageSource(s.parser, pages)
	res := acquire.New[model.DrawRecord]("draws", acquire.WithSizeHint(s.cfg.DedupeSize)).
		Acquire(ctx, src, 0, len(pages))
	draws := acquire.Finalize(res.Items, cutoff, s.cfg.TargetPeriods)
	if len(draws) == 0 {
		return nil, fmt.Errorf("%w: no draw before %s in %d pages", ErrNoData, s.cfg.Cutoff, len(pages))
	}
	if len(draws) < s.cfg.TargetPeriods {
		s.logger.Warn(ctx, "fewer draws than targeted",
			logger.Int("draws", len(draws)),
			logger.Int("target", s.cfg.TargetPeriods),
		)
	}

	if err := s.store.SaveDraws(ctx, draws); err != nil {
		s.logger.Error(ctx, "cannot save draws", logger.Error(err))
		metrics.RecordErrorByComponent("service", "save_draws")
	}
	s.setDraws(draws)
	s.logger.Info(ctx, "draws acquired",
		logger.String("run", res.RunID),
		logger.String("outcome", res.Outcome.String()),
		logger.Int("parsed", len(res.Items)),
		logger.Int("kept", len(draws)),
	)
	return draws, nil
}

// drawPages returns cached listing pages in lexical file order, or fetches
// them when the cache is empty.
func (s *Service) drawPages(ctx context.Context) ([]string, error) {
	if s.cfg.DrawSnapshotGlob != "" {
		files, err := filepath.Glob(s.cfg.DrawSnapshotGlob)
		if err != nil {
			return nil, fmt.Errorf("snapshot glob: %w", err)
		}
		slices.Sort(files)
		pages := make([]string, 0, len(files))
		for _, f := range files {
			data, err := os.ReadFile(f)
			if err != nil {
				s.logger.Warn(ctx, "skipping unreadable snapshot", logger.String("file", f), logger.Error(err))
				continue
			}
			pages = append(pages, string(data))
		}
		if len(pages) > 0 {
			metrics.RecordCacheLookup("draw_pages", "hit")
			return pages, nil
		}
		metrics.RecordCacheLookup("draw_pages", "miss")
	}

	pages, err := s.fetcher.DrawPages(ctx, s.cfg.DrawURL, s.cfg.DrawPages)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoData, err)
	}
	return pages, nil
}

func (s *Service) setDraws(draws []model.DrawRecord) {
	s.mu.Lock()
	s.draws = draws
	s.mu.Unlock()
}

// Experts returns the expert dataset, acquiring it when nothing is loaded.
func (s *Service) Experts(ctx context.Context) ([]model.ExpertProfile, error) {
	s.mu.RLock()
	experts := s.experts
	s.mu.RUnlock()
	if experts != nil {
		return experts, nil
	}
	return s.AcquireExperts(ctx, false)
}

// AcquireExperts builds the expert dataset. Unless force is set, a
// non-empty CSV cache wins. Otherwise one browser session walks the
// configured list strategy until the target, the round budget or the list
// runs out.
func (s *Service) AcquireExperts(ctx context.Context, force bool) ([]model.ExpertProfile, error) {
	if !force {
		if experts, err := s.store.LoadExperts(ctx); err == nil {
			s.setExperts(experts)
			return experts, nil
		} else if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn(ctx, "expert cache unreadable, acquiring", logger.Error(err))
		}
	}

	strategy, err := s.strategy(ctx)
	if err != nil {
		return nil, err
	}
	sess, err := s.newSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoData, err)
	}
	defer func() {
		if err := sess.Close(); err != nil {
			s.logger.Warn(ctx, "closing browser", logger.Error(err))
		}
	}()

	ctrl := navigator.New(sess, strategy, s.parser,
		navigator.WithPageWindow(s.cfg.PageWindow),
		navigator.WithStepTimeout(s.cfg.StepTimeout()),
		navigator.WithActionDelay(s.cfg.ActionDelay()),
	)
	if err := ctrl.Start(ctx); err != nil {
		return nil, fmt.Errorf("%w: list unavailable: %v", ErrNoData, err)
	}

	start := time.Now()
	res := acquire.New[model.ExpertProfile]("experts", acquire.WithSizeHint(s.cfg.DedupeSize)).
		Acquire(ctx, ctrl, s.cfg.TargetExperts, s.cfg.RoundBudget)
	if len(res.Items) == 0 {
		return nil, fmt.Errorf("%w: no expert captured (%s)", ErrNoData, res.Outcome)
	}

	if err := s.store.SaveExperts(ctx, res.Items); err != nil {
		s.logger.Error(ctx, "cannot save experts", logger.Error(err))
		metrics.RecordErrorByComponent("service", "save_experts")
	}
	s.setExperts(res.Items)
	s.logger.Info(ctx, "experts acquired",
		logger.String("run", res.RunID),
		logger.String("outcome", res.Outcome.String()),
		logger.Int("experts", len(res.Items)),
		logger.Duration("elapsed", time.Since(start)),
	)
	return res.Items, nil
}

func (s *Service) strategy(ctx context.Context) (navigator.Strategy, error) {
	if s.cfg.ExpertStrategy == config.StrategyClick {
		return navigator.NewClickList(s.cfg.ExpertListURL), nil
	}
	entries, err := s.fetcher.Ranking(ctx, s.cfg.ExpertRankingURL, s.cfg.RankingSnapshot)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoData, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: ranking list is empty", ErrNoData)
	}
	return navigator.NewRankingList(entries, s.cfg.ExpertDetailURL, s.cfg.PageWindow), nil
}

func (s *Service) setExperts(experts []model.ExpertProfile) {
	s.mu.Lock()
	s.experts = experts
	s.mu.Unlock()
}

// SalesTrend summarizes draw sales.
func (s *Service) SalesTrend(ctx context.Context) (stats.Sales, error) {
	draws, err := s.Draws(ctx)
	if err != nil {
		return stats.Sales{}, err
	}
	return stats.SalesTrend(draws)
}

// Frequency counts number appearances over all draws.
func (s *Service) Frequency(ctx context.Context) (stats.Frequency, error) {
	draws, err := s.Draws(ctx)
	if err != nil {
		return stats.Frequency{}, err
	}
	return stats.Frequencies(draws), nil
}

// Weekdays aggregates draws per draw day.
func (s *Service) Weekdays(ctx context.Context) ([]stats.Weekday, error) {
	draws, err := s.Draws(ctx)
	if err != nil {
		return nil, err
	}
	return stats.Weekdays(draws), nil
}

// Predict scores every number over all draws and the recent window and
// selects one combination plus alternates.
func (s *Service) Predict(ctx context.Context) (model.Prediction, error) {
	draws, err := s.Draws(ctx)
	if err != nil {
		return model.Prediction{}, err
	}
	hist := stats.Frequencies(draws)
	recent := stats.Frequencies(stats.Newest(draws, s.cfg.RecentWindow))

	s.mu.Lock()
	p := s.scorer.Predict(hist.Front, recent.Front, hist.Back, recent.Back, Alternates)
	s.mu.Unlock()

	metrics.RecordPrediction()
	s.logger.Debug(ctx, "prediction",
		logger.Any("front", p.Front),
		logger.Any("back", p.Back),
		logger.Int("recent", recent.Draws),
	)
	return p, nil
}

// ExpertSummary aggregates the expert dataset.
func (s *Service) ExpertSummary(ctx context.Context) (stats.Experts, error) {
	experts, err := s.Experts(ctx)
	if err != nil {
		return stats.Experts{}, err
	}
	return stats.ExpertSummary(experts, s.cfg.ActivityFloor)
}

// Leaderboard returns the top n experts by win rate. n <= 0 returns all.
func (s *Service) Leaderboard(ctx context.Context, n int) ([]types.Entry, error) {
	experts, err := s.Experts(ctx)
	if err != nil {
		return nil, err
	}
	return stats.Leaderboard(experts, s.cfg.ActivityFloor, n), nil
}

// Expert returns the leaderboard entry of one expert by name or id.
func (s *Service) Expert(ctx context.Context, key string) (types.Entry, error) {
	board, err := s.Leaderboard(ctx, 0)
	if err != nil {
		return types.Entry{}, err
	}
	for _, e := range board {
		if e.Name == key || (e.ExpertID != "" && e.ExpertID == key) {
			return e, nil
		}
	}
	return types.Entry{}, fmt.Errorf("%w: %s", ErrNotFound, key)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := map[string]interface{}{
		"started":  s.started,
		"draws":    len(s.draws),
		"experts":  len(s.experts),
		"cutoff":   s.cfg.Cutoff,
		"strategy": s.cfg.ExpertStrategy,
	}
	if len(s.draws) > 0 {
		newest := stats.Newest(s.draws, 1)[0]
		out["newestPeriod"] = newest.Period
		out["newestDate"] = newest.Date.Format(model.DateLayout)
	}
	return out
}
