// Package browser drives one headless Chrome tab over the DevTools protocol.
package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/okian/dltscope/pkg/logger"
)

// Session is a single rendered page the caller steers step by step.
// Implementations are not safe for concurrent use.
type Session interface {
	Navigate(ctx context.Context, url string) error
	Back(ctx context.Context) error
	// WaitVisible blocks until selector matches a visible node or timeout.
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error
	// Click clicks the index-th node matching selector.
	Click(ctx context.Context, selector string, index int) error
	// HTML returns the current document markup.
	HTML(ctx context.Context) (string, error)
	Close() error
}

// DefaultUserAgent is sent when no user agent is configured.
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/142.0.0.0 Safari/537.36"

// Chrome is a Session backed by chromedp.
type Chrome struct {
	tab         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	callTimeout time.Duration
	headless    bool
	userAgent   string
	log         logger.Logger
	closeOnce   sync.Once
}

// Option configures a Chrome session.
type Option func(*Chrome)

// WithHeadless toggles headless mode.
func WithHeadless(on bool) Option {
	return func(c *Chrome) { c.headless = on }
}

// WithUserAgent overrides the user agent.
func WithUserAgent(ua string) Option {
	return func(c *Chrome) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithCallTimeout bounds navigation, click and read calls.
func WithCallTimeout(d time.Duration) Option {
	return func(c *Chrome) {
		if d > 0 {
			c.callTimeout = d
		}
	}
}

// WithLogger sets the session logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Chrome) {
		if l != nil {
			c.log = l
		}
	}
}

// NewChrome launches a browser and opens one tab. The browser lives until
// Close, independent of ctx, which only bounds the launch.
func NewChrome(ctx context.Context, opts ...Option) (*Chrome, error) {
	c := &Chrome{
		callTimeout: 30 * time.Second,
		headless:    true,
		userAgent:   DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.Get().Named("browser")
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", c.headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.UserAgent(c.userAgent),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	tab, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, args ...any) {
		c.log.Debug(context.Background(), fmt.Sprintf(format, args...))
	}))
	c.tab, c.cancelTab, c.cancelAlloc = tab, cancelTab, cancelAlloc

	// An empty Run starts the browser.
	if err := c.run(ctx, c.callTimeout); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("%w: %v", ErrLaunch, err)
	}
	c.log.Info(ctx, "browser started", logger.Bool("headless", c.headless))
	return c, nil
}

// run executes actions on the tab, bounded by timeout and by the caller ctx.
func (c *Chrome) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(c.tab, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(runCtx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w after %s", ErrTimeout, timeout)
	default:
		return err
	}
}

func (c *Chrome) Navigate(ctx context.Context, url string) error {
	c.log.Debug(ctx, "navigate", logger.String("url", url))
	return c.run(ctx, c.callTimeout, chromedp.Navigate(url))
}

func (c *Chrome) Back(ctx context.Context) error {
	return c.run(ctx, c.callTimeout, chromedp.NavigateBack())
}

func (c *Chrome) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = c.callTimeout
	}
	return c.run(ctx, timeout, chromedp.WaitVisible(selector, chromedp.ByQuery))
}

func (c *Chrome) Click(ctx context.Context, selector string, index int) error {
	sel, err := json.Marshal(selector)
	if err != nil {
		return err
	}
	script := fmt.Sprintf(`(() => {
  const nodes = document.querySelectorAll(%s);
  if (nodes.length <= %d) { return false; }
  nodes[%d].click();
  return true;
})()`, sel, index, index)

	var clicked bool
	if err := c.run(ctx, c.callTimeout, chromedp.Evaluate(script, &clicked)); err != nil {
		return err
	}
	if !clicked {
		return fmt.Errorf("%w: %s[%d]", ErrNotFound, selector, index)
	}
	return nil
}

func (c *Chrome) HTML(ctx context.Context) (string, error) {
	var html string
	if err := c.run(ctx, c.callTimeout, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return html, nil
}

// Close shuts the tab and the browser process. Safe to call more than once.
func (c *Chrome) Close() error {
	var err error
	c.closeOnce.Do(func() {
		if c.tab != nil {
			err = chromedp.Cancel(c.tab)
		}
		if c.cancelTab != nil {
			c.cancelTab()
		}
		if c.cancelAlloc != nil {
			c.cancelAlloc()
		}
	})
	return err
}
