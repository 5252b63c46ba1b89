// Package fetch downloads draw-list pages and the expert ranking over HTTP.
// Requests share one throttled client; draw pages fan out over a bounded
// group and are slotted back by page index.
package fetch

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/okian/dltscope/internal/domain/model"
	"github.com/okian/dltscope/internal/domain/parse"
	"github.com/okian/dltscope/pkg/logger"
	"github.com/okian/dltscope/pkg/metrics"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Fetch targets used as metric labels.
const (
	TargetDrawPage = "draw_page"
	TargetRanking  = "ranking"
)

// PageParam is the query parameter selecting a draw-list page.
const PageParam = "pageNum"

// Client is a throttled HTTP client.
type Client struct {
	http        *resty.Client
	limiter     *rate.Limiter
	concurrency int
	referer     string
	log         logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.SetTimeout(d)
		}
	}
}

// WithRate limits requests per second.
func WithRate(rps float64) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(1, int(rps)))
		}
	}
}

// WithUserAgent sets the user agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.http.SetHeader("User-Agent", ua)
		}
	}
}

// WithReferer sets the referer sent with ranking requests.
func WithReferer(ref string) Option {
	return func(c *Client) { c.referer = ref }
}

// WithConcurrency bounds concurrent page downloads.
func WithConcurrency(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithRetries retries transient failures n times.
func WithRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.http.SetRetryCount(n)
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// New creates a Client.
func New(opts ...Option) *Client {
	httpClient := resty.New().
		SetTimeout(10*time.Second).
		SetRetryCount(1).
		SetHeader("Accept-Language", "zh-CN,zh;q=0.9")

	c := &Client{
		http:        httpClient,
		limiter:     rate.NewLimiter(2, 2),
		concurrency: 4,
		referer:     "https://www.cmzj.net/",
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.Get().Named("fetch")
	}
	c.http.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return c.limiter.Wait(req.Context())
	})
	return c
}

// Get downloads url and returns the body. Non-2xx answers are ErrStatus.
func (c *Client) Get(ctx context.Context, target, u string, headers map[string]string) ([]byte, error) {
	start := time.Now()
	resp, err := c.http.R().SetContext(ctx).SetHeaders(headers).Get(u)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		metrics.RecordFetch(target, "error", elapsed)
		return nil, fmt.Errorf("get %s: %w", u, err)
	}
	metrics.RecordFetch(target, strconv.Itoa(resp.StatusCode()), elapsed)
	if resp.IsError() || resp.StatusCode() >= 300 {
		return nil, fmt.Errorf("%w: %s answered %d", ErrStatus, u, resp.StatusCode())
	}
	c.log.Debug(ctx, "fetched", logger.String("url", u), logger.Int64("bytes", resp.Size()))
	return resp.Body(), nil
}

// PageURL returns the URL of draw-list page n (1-based).
func PageURL(base string, n int) (string, error) {
	if n <= 1 {
		return base, nil
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("page url: %w", err)
	}
	q := u.Query()
	q.Set(PageParam, strconv.Itoa(n))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// DrawPages downloads pages 1..n of the listing at base. A page that fails
// is logged and left empty; only a run where every page fails is an error.
func (c *Client) DrawPages(ctx context.Context, base string, n int) ([]string, error) {
	pages := make([]string, n)
	failed := make([]error, n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i := range n {
		g.Go(func() error {
			u, err := PageURL(base, i+1)
			if err != nil {
				return err
			}
			body, err := c.Get(gctx, TargetDrawPage, u, map[string]string{
				"Accept": "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
			})
			if err != nil {
				failed[i] = err
				return nil
			}
			pages[i] = string(body)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ok := 0
	for i, err := range failed {
		if err != nil {
			c.log.Warn(ctx, "draw page fetch failed", logger.Int("page", i+1), logger.Error(err))
			continue
		}
		ok++
	}
	if ok == 0 {
		return nil, fmt.Errorf("%w: all %d draw pages failed", ErrNoPages, n)
	}
	return pages, nil
}

// Ranking downloads the ranking list. When the request fails or the answer
// is rejected, the snapshot file is used instead.
func (c *Client) Ranking(ctx context.Context, u, snapshot string) ([]model.ExpertProfile, error) {
	body, err := c.Get(ctx, TargetRanking, u, map[string]string{
		"Accept":  "application/json, text/plain, */*",
		"Referer": c.referer,
	})
	if err == nil {
		entries, perr := parse.RankingList(body)
		if perr == nil {
			return entries, nil
		}
		err = perr
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	c.log.Warn(ctx, "ranking unavailable, reading snapshot", logger.String("snapshot", snapshot), logger.Error(err))
	metrics.RecordErrorByComponent("fetch", "ranking")

	if snapshot == "" {
		return nil, fmt.Errorf("%w: %v", ErrNoRanking, err)
	}
	data, ferr := os.ReadFile(snapshot)
	if ferr != nil {
		return nil, fmt.Errorf("%w: %v; snapshot: %v", ErrNoRanking, err, ferr)
	}
	entries, perr := parse.RankingList(data)
	if perr != nil {
		return nil, fmt.Errorf("%w: snapshot %s: %v", ErrNoRanking, snapshot, perr)
	}
	return entries, nil
}
