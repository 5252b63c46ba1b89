// Package cli implements the interactive analysis menu.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/okian/dltscope/internal/domain/model"
	"github.com/okian/dltscope/internal/domain/stats"
	"github.com/okian/dltscope/internal/domain/types"
	"github.com/okian/dltscope/pkg/logger"
	input "github.com/tcnksm/go-input"
)

// Choices of the menu.
const (
	ChoiceExit = iota
	ChoiceSales
	ChoiceFrequency
	ChoicePrediction
	ChoiceWeekday
	ChoiceExperts
	ChoiceReport
)

// DefaultLeaderboardSize is the number of experts listed by the experts choice.
const DefaultLeaderboardSize = 10

const prompt = `
1) sales trend
2) number frequency
3) prediction
4) weekday patterns
5) expert analysis
6) full report
0) exit
choice:`

// Analyzer is the set of analyses the menu drives.
type Analyzer interface {
	SalesTrend(ctx context.Context) (stats.Sales, error)
	Frequency(ctx context.Context) (stats.Frequency, error)
	Predict(ctx context.Context) (model.Prediction, error)
	Weekdays(ctx context.Context) ([]stats.Weekday, error)
	ExpertSummary(ctx context.Context) (stats.Experts, error)
	Leaderboard(ctx context.Context, n int) ([]types.Entry, error)
}

// Menu reads choices and renders analyses as tables.
type Menu struct {
	svc    Analyzer
	ui     *input.UI
	out    io.Writer
	top    int
	logger logger.Logger
}

// Option configures a Menu.
type Option func(*Menu)

// WithUI sets the prompt used to read choices.
func WithUI(ui *input.UI) Option {
	return func(m *Menu) {
		if ui != nil {
			m.ui = ui
		}
	}
}

// WithOutput sets where tables are written.
func WithOutput(w io.Writer) Option {
	return func(m *Menu) {
		if w != nil {
			m.out = w
		}
	}
}

// WithLeaderboardSize sets how many experts the experts choice lists.
func WithLeaderboardSize(n int) Option {
	return func(m *Menu) {
		if n > 0 {
			m.top = n
		}
	}
}

// WithLogger sets the menu logger.
func WithLogger(l logger.Logger) Option {
	return func(m *Menu) {
		if l != nil {
			m.logger = l
		}
	}
}

// New creates a menu over svc.
func New(svc Analyzer, opts ...Option) *Menu {
	m := &Menu{
		svc: svc,
		out: os.Stdout,
		top: DefaultLeaderboardSize,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.ui == nil {
		m.ui = input.DefaultUI()
	}
	if m.logger == nil {
		m.logger = logger.Get().Named("cli")
	}
	return m
}

// Run loops until the exit choice, a read failure or cancellation.
// Failing actions are logged and the loop continues.
func (m *Menu) Run(ctx context.Context) error {
	opts := &input.Options{
		Required:     true,
		Loop:         true,
		HideOrder:    true,
		ValidateFunc: validateChoice,
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		answer, err := m.ui.Ask(prompt, opts)
		if err != nil {
			if errors.Is(err, input.ErrInterrupted) {
				return nil
			}
			return fmt.Errorf("read choice: %w", err)
		}
		choice, _ := strconv.Atoi(answer)
		if choice == ChoiceExit {
			return nil
		}
		if err := m.Dispatch(ctx, choice); err != nil {
			m.logger.Error(ctx, "menu action failed", logger.Int("choice", choice), logger.Error(err))
		}
	}
}

func validateChoice(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil || n < ChoiceExit || n > ChoiceReport {
		return fmt.Errorf("%w: %q", ErrInvalidChoice, s)
	}
	return nil
}

// Dispatch runs one choice. A panic inside the action is returned as ErrActionPanic.
func (m *Menu) Dispatch(ctx context.Context, choice int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrActionPanic, r)
		}
	}()

	switch choice {
	case ChoiceSales:
		return m.sales(ctx)
	case ChoiceFrequency:
		return m.frequency(ctx)
	case ChoicePrediction:
		return m.prediction(ctx)
	case ChoiceWeekday:
		return m.weekdays(ctx)
	case ChoiceExperts:
		return m.experts(ctx)
	case ChoiceReport:
		return m.report(ctx)
	default:
		return fmt.Errorf("%w: %d", ErrInvalidChoice, choice)
	}
}

func (m *Menu) sales(ctx context.Context) error {
	s, err := m.svc.SalesTrend(ctx)
	if err != nil {
		return err
	}
	SalesTable(m.out, s)
	return nil
}

func (m *Menu) frequency(ctx context.Context) error {
	f, err := m.svc.Frequency(ctx)
	if err != nil {
		return err
	}
	FrequencyTable(m.out, f)
	return nil
}

func (m *Menu) prediction(ctx context.Context) error {
	p, err := m.svc.Predict(ctx)
	if err != nil {
		return err
	}
	PredictionTable(m.out, p)
	return nil
}

func (m *Menu) weekdays(ctx context.Context) error {
	days, err := m.svc.Weekdays(ctx)
	if err != nil {
		return err
	}
	WeekdayTable(m.out, days)
	return nil
}

func (m *Menu) experts(ctx context.Context) error {
	sum, err := m.svc.ExpertSummary(ctx)
	if err != nil {
		return err
	}
	board, err := m.svc.Leaderboard(ctx, m.top)
	if err != nil {
		return err
	}
	ExpertTable(m.out, sum)
	LeaderboardTable(m.out, board)
	return nil
}

// report runs every analysis, continuing past failures.
func (m *Menu) report(ctx context.Context) error {
	var errs []error
	for _, step := range []func(context.Context) error{m.sales, m.frequency, m.weekdays, m.experts, m.prediction} {
		if err := step(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
