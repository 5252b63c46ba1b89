// Package config defines dltscope configuration structures and loading hooks.
//
// Conventions:
//   - New() builds a Config holding every default.
//   - Load layers a YAML file and DLT_ environment variables on top.
//   - Durations are configured in milliseconds and exposed through accessors.
package config

import (
	"fmt"
	"time"
)

// CutoffLayout is the layout of the cutoff date key.
const CutoffLayout = "2006-01-02"

// Expert list strategies.
const (
	StrategyRanking = "ranking"
	StrategyClick   = "click"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// MaxListLimit caps the limit query parameter of list endpoints.
	MaxListLimit int `koanf:"max_list_limit"`

	// DrawCSV and ExpertCSV are the tabular caches consulted before any acquisition.
	DrawCSV   string `koanf:"draw_csv"`
	ExpertCSV string `koanf:"expert_csv"`

	// DrawSnapshotGlob matches cached draw-list pages, read in lexical order.
	DrawSnapshotGlob string `koanf:"draw_snapshot_glob"`

	// RankingSnapshot is the cached ranking JSON used when the ranking API is unreachable.
	RankingSnapshot string `koanf:"ranking_snapshot"`

	// DrawURL is the first draw-list page; DrawPages pages are fetched in total.
	DrawURL   string `koanf:"draw_url"`
	DrawPages int    `koanf:"draw_pages"`

	// FetchConcurrency bounds concurrent draw page fetches.
	FetchConcurrency int `koanf:"fetch_concurrency"`

	// HTTPTimeoutMS bounds a single upstream request.
	HTTPTimeoutMS int `koanf:"http_timeout_ms"`

	// RequestsPerSecond throttles upstream HTTP requests.
	RequestsPerSecond float64 `koanf:"requests_per_second"`

	// UserAgent is sent with HTTP requests and by the headless browser.
	UserAgent string `koanf:"user_agent"`

	// Cutoff keeps draws strictly before this date (YYYY-MM-DD).
	Cutoff string `koanf:"cutoff"`

	// TargetPeriods is the number of most recent draws kept after filtering.
	TargetPeriods int `koanf:"target_periods"`

	// RecentWindow is the number of newest draws feeding the recent frequency table.
	RecentWindow int `koanf:"recent_window"`

	// ExpertStrategy selects how the expert list is walked: ranking or click.
	ExpertStrategy string `koanf:"expert_strategy"`

	// ExpertRankingURL serves the ranking JSON.
	ExpertRankingURL string `koanf:"expert_ranking_url"`

	// ExpertDetailURL is a format string taking the expert id.
	ExpertDetailURL string `koanf:"expert_detail_url"`

	// ExpertListURL is the rendered list walked by the click strategy.
	ExpertListURL string `koanf:"expert_list_url"`

	// CategoryLabel selects which award block counts toward an expert's wins.
	CategoryLabel string `koanf:"category_label"`

	// PageWindow bounds how many visible list items are visited per round.
	PageWindow int `koanf:"page_window"`

	// TargetExperts and RoundBudget bound expert acquisition.
	TargetExperts int `koanf:"target_experts"`
	RoundBudget   int `koanf:"round_budget"`

	// StepTimeoutMS bounds every browser wait.
	StepTimeoutMS int `koanf:"step_timeout_ms"`

	// ActionDelayMS is the fixed pause between browser actions.
	ActionDelayMS int `koanf:"action_delay_ms"`

	// Headless runs the browser without a window.
	Headless bool `koanf:"headless"`

	// ActivityFloor is the lower bound of the estimated activity used in win rates.
	ActivityFloor int `koanf:"activity_floor"`

	// DedupeSize presizes the acquisition dedup set.
	DedupeSize int `koanf:"dedupe_size"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		Addr:              ":9080",
		MaxListLimit:      100,
		DrawCSV:           "data/draws.csv",
		ExpertCSV:         "data/experts.csv",
		DrawSnapshotGlob:  "data/pages/*.html",
		RankingSnapshot:   "data/ranking.json",
		DrawURL:           "https://www.zhcw.com/kjxx/dlt/",
		DrawPages:         1,
		FetchConcurrency:  4,
		HTTPTimeoutMS:     10_000,
		RequestsPerSecond: 2,
		UserAgent:         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
		Cutoff:            "2025-07-01",
		TargetPeriods:     100,
		RecentWindow:      20,
		ExpertStrategy:    StrategyRanking,
		ExpertRankingURL:  "https://i.cmzj.net/expert/rankingList?limit=30&page=1&lottery=23&quota=1&type=2&target=%E6%80%BB%E5%88%86&classPay=2&issueNum=7",
		ExpertDetailURL:   "https://www.cmzj.net/expertItem?id=%s",
		ExpertListURL:     "https://www.cmzj.net/expertList",
		CategoryLabel:     "双色球",
		PageWindow:        8,
		TargetExperts:     30,
		RoundBudget:       5,
		StepTimeoutMS:     10_000,
		ActionDelayMS:     1_000,
		Headless:          true,
		ActivityFloor:     100,
		DedupeSize:        1_024,
	}
}

// CutoffDate parses Cutoff.
func (c *Config) CutoffDate() (time.Time, error) {
	t, err := time.ParseInLocation(CutoffLayout, c.Cutoff, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: cutoff %q: %v", ErrInvalidConfig, c.Cutoff, err)
	}
	return t, nil
}

// StepTimeout returns the bounded wait for one browser step.
func (c *Config) StepTimeout() time.Duration {
	return time.Duration(c.StepTimeoutMS) * time.Millisecond
}

// ActionDelay returns the pause between browser actions.
func (c *Config) ActionDelay() time.Duration {
	return time.Duration(c.ActionDelayMS) * time.Millisecond
}

// HTTPTimeout returns the per-request HTTP timeout.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutMS) * time.Millisecond
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.DrawPages < 1:
		return fmt.Errorf("%w: draw_pages must be at least 1", ErrInvalidConfig)
	case c.FetchConcurrency < 1:
		return fmt.Errorf("%w: fetch_concurrency must be at least 1", ErrInvalidConfig)
	case c.TargetPeriods < 1:
		return fmt.Errorf("%w: target_periods must be at least 1", ErrInvalidConfig)
	case c.RecentWindow < 1:
		return fmt.Errorf("%w: recent_window must be at least 1", ErrInvalidConfig)
	case c.PageWindow < 1:
		return fmt.Errorf("%w: page_window must be at least 1", ErrInvalidConfig)
	case c.RequestsPerSecond <= 0:
		return fmt.Errorf("%w: requests_per_second must be positive", ErrInvalidConfig)
	case c.ActivityFloor < 1:
		return fmt.Errorf("%w: activity_floor must be at least 1", ErrInvalidConfig)
	case c.ExpertStrategy != StrategyRanking && c.ExpertStrategy != StrategyClick:
		return fmt.Errorf("%w: unknown expert_strategy %q", ErrInvalidConfig, c.ExpertStrategy)
	}
	_, err := c.CutoffDate()
	return err
}
