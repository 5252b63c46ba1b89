// Package navigator steps one browser session through a paged expert list:
// open each unseen item, read its detail page, return to the list, and move
// to the next batch when the current one is used up.
package navigator

import (
	"context"
	"errors"
	"time"

	"github.com/okian/dltscope/internal/adapters/browser"
	"github.com/okian/dltscope/internal/domain/model"
	"github.com/okian/dltscope/internal/domain/parse"
	"github.com/okian/dltscope/pkg/logger"
	"github.com/okian/dltscope/pkg/metrics"
)

// State is where the controller believes the session is.
type State int

const (
	AtList State = iota
	AtDetail
	Exhausted
)

func (s State) String() string {
	switch s {
	case AtList:
		return "at_list"
	case AtDetail:
		return "at_detail"
	case Exhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Defaults.
const (
	DefaultPageWindow   = 8
	DefaultStepTimeout  = 10 * time.Second
	DefaultActionDelay  = time.Second
	DefaultNextAttempts = 2
)

// Controller is an acquire.Source of expert profiles over one session.
type Controller struct {
	steps    *Steps
	strategy Strategy
	parser   *parse.Parser
	source   string
	window   int
	attempts int
	batch    int // batches advanced past since the list was entered
	state    State
	log      logger.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithPageWindow limits how many visible items a round visits.
func WithPageWindow(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.window = n
		}
	}
}

// WithStepTimeout bounds each wait.
func WithStepTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.steps.timeout = d
		}
	}
}

// WithActionDelay sets the pause after each navigation or click.
func WithActionDelay(d time.Duration) Option {
	return func(c *Controller) {
		if d >= 0 {
			c.steps.delay = d
		}
	}
}

// WithSourceName labels metrics.
func WithSourceName(name string) Option {
	return func(c *Controller) {
		if name != "" {
			c.source = name
		}
	}
}

// WithLogger sets the controller logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// New creates a controller. The caller owns sess and must close it.
func New(sess browser.Session, strategy Strategy, parser *parse.Parser, opts ...Option) *Controller {
	c := &Controller{
		steps:    &Steps{sess: sess, timeout: DefaultStepTimeout, delay: DefaultActionDelay},
		strategy: strategy,
		parser:   parser,
		source:   "experts",
		window:   DefaultPageWindow,
		attempts: DefaultNextAttempts,
		state:    AtList,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.Get().Named("navigator")
	}
	c.steps.log = c.log
	return c
}

// State returns the current state.
func (c *Controller) State() State { return c.state }

// Start shows the list. It must succeed before the first round.
func (c *Controller) Start(ctx context.Context) error {
	if err := c.strategy.Enter(ctx, c.steps); err != nil {
		return err
	}
	c.batch = 0
	c.state = AtList
	return nil
}

// Round visits up to the page window of unseen visible items.
func (c *Controller) Round(ctx context.Context, seen func(string) bool, emit func(string, model.ExpertProfile) bool) error {
	if c.state == Exhausted {
		return ErrExhausted
	}
	entries, err := c.strategy.Visible(ctx, c.steps)
	if err != nil {
		if errors.Is(err, ErrExhausted) {
			c.state = Exhausted
			return err
		}
		c.log.Warn(ctx, "cannot read list", logger.Error(err))
		c.recover(ctx)
		return err
	}

	if len(entries) > c.window {
		entries = entries[:c.window]
	}
	fresh := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if !seen(e.Key) {
			fresh = append(fresh, e)
		}
	}
	c.log.Debug(ctx, "round", logger.Int("visible", len(entries)), logger.Int("unseen", len(fresh)))

	for _, e := range fresh {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		cur, ok, err := c.locate(ctx, e.Key)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.Warn(ctx, "cannot read list", logger.String("expert", e.Key), logger.Error(err))
			metrics.RecordItemFailed(c.source, "locate")
			c.recover(ctx)
			continue
		}
		if !ok {
			c.log.Debug(ctx, "item no longer visible", logger.String("expert", e.Key))
			metrics.RecordItemFailed(c.source, "locate")
			continue
		}
		prof, stage, err := c.visit(ctx, cur)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.Warn(ctx, "item failed",
				logger.String("expert", e.Key),
				logger.String("stage", stage),
				logger.Error(err),
			)
			metrics.RecordItemFailed(c.source, stage)
			c.recover(ctx)
			continue
		}
		more := emit(e.Key, prof)
		if err := c.back(ctx); err != nil {
			c.log.Warn(ctx, "return to list failed", logger.String("expert", e.Key), logger.Error(err))
			metrics.RecordItemFailed(c.source, "back")
			c.recover(ctx)
		}
		if !more {
			return nil
		}
	}
	return nil
}

// locate finds key on the list as it is shown now. Items are opened by
// position, and the list may have been re-rendered since the round began.
func (c *Controller) locate(ctx context.Context, key string) (Entry, bool, error) {
	entries, err := c.strategy.Visible(ctx, c.steps)
	if err != nil {
		return Entry{}, false, err
	}
	for _, e := range entries {
		if e.Key == key {
			return e, true, nil
		}
	}
	return Entry{}, false, nil
}

// visit opens e and parses its detail page. stage names the failing step.
func (c *Controller) visit(ctx context.Context, e Entry) (model.ExpertProfile, string, error) {
	if err := c.strategy.Open(ctx, c.steps, e); err != nil {
		return model.ExpertProfile{}, "open", err
	}
	c.state = AtDetail
	if err := c.steps.Wait(ctx, "detail", parse.DetailMarker); err != nil {
		return model.ExpertProfile{}, "wait_detail", err
	}
	html, err := c.steps.HTML(ctx)
	if err != nil {
		return model.ExpertProfile{}, "read", err
	}

	prof := c.parser.ExpertDetail(ctx, e.Seed.Name, html)
	prof.ID = e.Seed.ID
	prof.Ranking = e.Seed.Ranking
	if prof.Name == "" {
		prof.Name = e.Key
	}
	return prof, "", nil
}

func (c *Controller) back(ctx context.Context) error {
	if c.state != AtDetail {
		return nil
	}
	if err := c.strategy.Back(ctx, c.steps); err != nil {
		return err
	}
	c.state = AtList
	return nil
}

// recover re-enters the list after a failed step and advances it back to
// the batch the round was on. If the replay stops short, the controller
// continues from the batch it reached.
func (c *Controller) recover(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := c.strategy.Enter(ctx, c.steps); err != nil {
		c.log.Warn(ctx, "cannot re-enter list", logger.Error(err))
		metrics.RecordErrorByComponent("navigator", "reenter")
		return
	}
	c.state = AtList
	want := c.batch
	c.batch = 0
	for c.batch < want {
		if err := c.strategy.Advance(ctx, c.steps); err != nil {
			c.log.Warn(ctx, "cannot restore batch",
				logger.Int("batch", c.batch),
				logger.Int("want", want),
				logger.Error(err),
			)
			metrics.RecordErrorByComponent("navigator", "restore")
			return
		}
		c.batch++
	}
}

// Next shows the following batch, retrying once. Two failures in a row
// exhaust the controller.
func (c *Controller) Next(ctx context.Context) error {
	if c.state == Exhausted {
		return ErrExhausted
	}
	var last error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		last = c.strategy.Advance(ctx, c.steps)
		switch {
		case last == nil:
			c.batch++
			c.state = AtList
			return nil
		case errors.Is(last, ErrExhausted):
			c.state = Exhausted
			return ErrExhausted
		case ctx.Err() != nil:
			return ctx.Err()
		}
		c.log.Warn(ctx, "next batch failed", logger.Int("attempt", attempt), logger.Error(last))
		metrics.RecordNavigationFallback("next")
	}
	c.state = Exhausted
	c.log.Info(ctx, "list exhausted", logger.Error(last))
	return ErrExhausted
}
