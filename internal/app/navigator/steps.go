package navigator

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/dltscope/internal/adapters/browser"
	"github.com/okian/dltscope/internal/domain/extract"
	"github.com/okian/dltscope/pkg/logger"
	"github.com/okian/dltscope/pkg/metrics"
)

// Steps wraps a session with bounded waits, fallback locators and a fixed
// pause after every action that changes the page.
type Steps struct {
	sess    browser.Session
	timeout time.Duration
	delay   time.Duration
	log     logger.Logger
}

// Wait waits for the primary selector, then each fallback once.
func (s *Steps) Wait(ctx context.Context, step string, loc extract.Locator) error {
	var last error
	for i, sel := range loc.Candidates() {
		if i > 0 {
			metrics.RecordNavigationFallback(step)
			s.log.Debug(ctx, "trying fallback locator", logger.String("step", step), logger.String("selector", sel))
		}
		if last = s.sess.WaitVisible(ctx, sel, s.timeout); last == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return fmt.Errorf("%s: %w", step, last)
}

// Click clicks the index-th match of the primary selector, then of each
// fallback, and pauses.
func (s *Steps) Click(ctx context.Context, step string, loc extract.Locator, index int) error {
	var last error
	for i, sel := range loc.Candidates() {
		if i > 0 {
			metrics.RecordNavigationFallback(step)
		}
		if last = s.sess.Click(ctx, sel, index); last == nil {
			return s.pause(ctx)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return fmt.Errorf("%s: %w", step, last)
}

// Navigate loads url and pauses.
func (s *Steps) Navigate(ctx context.Context, url string) error {
	if err := s.sess.Navigate(ctx, url); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return s.pause(ctx)
}

// Back returns to the previous page and pauses.
func (s *Steps) Back(ctx context.Context) error {
	if err := s.sess.Back(ctx); err != nil {
		return fmt.Errorf("back: %w", err)
	}
	return s.pause(ctx)
}

// HTML reads the current document.
func (s *Steps) HTML(ctx context.Context) (string, error) {
	return s.sess.HTML(ctx)
}

func (s *Steps) pause(ctx context.Context) error {
	if s.delay <= 0 {
		return nil
	}
	t := time.NewTimer(s.delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
