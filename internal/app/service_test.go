package service_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/okian/dltscope/internal/adapters/browser"
	"github.com/okian/dltscope/internal/adapters/fetch"
	service "github.com/okian/dltscope/internal/app"
	"github.com/okian/dltscope/internal/config"
	"github.com/okian/dltscope/internal/domain/model"
	"github.com/okian/dltscope/internal/domain/scoring"
	"github.com/okian/dltscope/internal/testpages"
	"github.com/okian/dltscope/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// detailSession serves expert detail pages by url.
type detailSession struct {
	pages   map[string]string
	current string
	closed  bool
}

func (d *detailSession) Navigate(_ context.Context, url string) error {
	d.current = d.pages[url]
	return nil
}

func (d *detailSession) Back(context.Context) error { return nil }

func (d *detailSession) WaitVisible(_ context.Context, selector string, _ time.Duration) error {
	if strings.Contains(d.current, strings.TrimPrefix(selector, ".")) {
		return nil
	}
	return browser.ErrTimeout
}

func (d *detailSession) Click(context.Context, string, int) error { return browser.ErrNotFound }

func (d *detailSession) HTML(context.Context) (string, error) { return d.current, nil }

func (d *detailSession) Close() error {
	d.closed = true
	return nil
}

func row(period, date string, front, back []int, weekday string) string {
	return testpages.DrawRow(testpages.Draw{Period: period, Date: date, Front: front, Back: back}, weekday)
}

// testConfig points every path into dir and every url at an unreachable server.
func testConfig(dir, downURL string) *config.Config {
	cfg := config.New()
	cfg.DrawCSV = filepath.Join(dir, "draws.csv")
	cfg.ExpertCSV = filepath.Join(dir, "experts.csv")
	cfg.DrawSnapshotGlob = filepath.Join(dir, "pages", "*.html")
	cfg.RankingSnapshot = filepath.Join(dir, "ranking.json")
	cfg.DrawURL = downURL
	cfg.ExpertRankingURL = downURL
	cfg.ExpertDetailURL = "https://example.test/expertItem?id=%s"
	cfg.ActionDelayMS = 0
	return cfg
}

func writeFile(path string, data []byte) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		panic(err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		panic(err)
	}
}

func TestServiceDraws(t *testing.T) {
	ctx := context.Background()
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()
	fetcher := fetch.New(fetch.WithRate(1000), fetch.WithRetries(0))

	Convey("Given two cached listing pages, each with a malformed row", t, func() {
		dir := t.TempDir()
		cfg := testConfig(dir, down.URL)
		writeFile(filepath.Join(dir, "pages", "page-001.html"), []byte(testpages.DrawPage(
			row("25072", "2025-07-02", []int{2, 4, 6, 8, 10}, []int{3, 4}, "Wednesday"),
			row("25071", "2025-06-30", []int{1, 3, 5, 7, 9}, []int{1, 2}, "Monday"),
			testpages.MalformedRow("25099"),
		)))
		writeFile(filepath.Join(dir, "pages", "page-002.html"), []byte(testpages.DrawPage(
			testpages.MalformedRow("25098"),
			row("25070", "2025-06-28", []int{11, 13, 15, 17, 19}, []int{5, 6}, "Saturday"),
		)))
		svc := service.New(cfg, service.WithFetcher(fetcher))

		Convey("When draws are acquired", func() {
			draws, err := svc.AcquireDraws(ctx, false)

			Convey("Then only valid rows before the cutoff remain, newest first", func() {
				So(err, ShouldBeNil)
				So(draws, ShouldHaveLength, 2)
				So(draws[0].Period, ShouldEqual, 25071)
				So(draws[1].Period, ShouldEqual, 25070)
			})

			Convey("Then the CSV cache is written and wins on the next run", func() {
				_, err := os.Stat(cfg.DrawCSV)
				So(err, ShouldBeNil)

				So(os.RemoveAll(filepath.Join(dir, "pages")), ShouldBeNil)
				again, err := service.New(cfg, service.WithFetcher(fetcher)).AcquireDraws(ctx, false)
				So(err, ShouldBeNil)
				So(again, ShouldHaveLength, 2)
				So(again[0].Period, ShouldEqual, 25071)
			})

			Convey("Then analyses run over the dataset", func() {
				trend, err := svc.SalesTrend(ctx)
				So(err, ShouldBeNil)
				So(trend.Count, ShouldEqual, 2)

				freq, err := svc.Frequency(ctx)
				So(err, ShouldBeNil)
				So(freq.Front[1], ShouldEqual, 1)
				So(freq.Front[2], ShouldEqual, 0)

				days, err := svc.Weekdays(ctx)
				So(err, ShouldBeNil)
				So(days, ShouldHaveLength, 2)
			})
		})

		Convey("When a prediction is requested", func() {
			svc := service.New(cfg, service.WithFetcher(fetcher), service.WithScorer(scoring.New(scoring.WithoutJitter())))
			p, err := svc.Predict(ctx)

			Convey("Then a full combination and three alternates are returned", func() {
				So(err, ShouldBeNil)
				So(p.Front, ShouldHaveLength, model.FrontSize)
				So(p.Back, ShouldHaveLength, model.BackSize)
				So(p.Alternates, ShouldHaveLength, service.Alternates)
				for _, n := range p.Front {
					So(n, ShouldBeBetweenOrEqual, 1, model.FrontMax)
				}
			})
		})
	})

	Convey("Given no cache, no snapshot and an unreachable listing", t, func() {
		cfg := testConfig(t.TempDir(), down.URL)
		svc := service.New(cfg, service.WithFetcher(fetcher))

		Convey("Then ErrNoData is surfaced", func() {
			_, err := svc.Draws(ctx)
			So(errors.Is(err, service.ErrNoData), ShouldBeTrue)
		})
	})
}

func TestServiceExperts(t *testing.T) {
	ctx := context.Background()
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer down.Close()
	fetcher := fetch.New(fetch.WithRate(1000), fetch.WithRetries(0))

	experts := []testpages.Expert{
		{ID: "1", Name: "甲", Tenure: 2, Articles: 10, Awards: []testpages.Award{{Label: "一等奖", Count: 5}, {Label: "二等奖", Count: 5}}, GradeName: "金牌"},
		{ID: "2", Name: "乙", Tenure: 4, Articles: 10, Awards: []testpages.Award{{Label: "三等奖", Count: 30}}, GradeName: "金牌"},
		{ID: "3", Name: "丙", Tenure: 1, Awards: []testpages.Award{{Label: "五等奖", Count: 1}}},
	}

	Convey("Given an unreachable ranking api with a local snapshot", t, func() {
		dir := t.TempDir()
		cfg := testConfig(dir, down.URL)
		cfg.PageWindow = 2
		writeFile(cfg.RankingSnapshot, testpages.Ranking(0, experts...))

		sess := &detailSession{pages: map[string]string{}}
		for _, e := range experts {
			sess.pages[fmt.Sprintf(cfg.ExpertDetailURL, e.ID)] = testpages.ExpertDetail(e)
		}
		svc := service.New(cfg,
			service.WithFetcher(fetcher),
			service.WithSessionFactory(func(context.Context) (browser.Session, error) { return sess, nil }),
		)

		Convey("When experts are acquired", func() {
			got, err := svc.AcquireExperts(ctx, false)

			Convey("Then every ranked expert is captured with details and the session is closed", func() {
				So(err, ShouldBeNil)
				So(got, ShouldHaveLength, 3)
				So(got[0].Wins, ShouldResemble, model.TierWins{First: 5, Second: 5})
				So(got[1].TenureYears, ShouldEqual, 4)
				So(got[2].Ranking.Rank, ShouldEqual, 3)
				So(sess.closed, ShouldBeTrue)
			})

			Convey("Then the leaderboard orders by win rate", func() {
				board, err := svc.Leaderboard(ctx, 2)
				So(err, ShouldBeNil)
				So(board, ShouldHaveLength, 2)
				So(board[0].Name, ShouldEqual, "乙")
				So(board[1].Name, ShouldEqual, "甲")
			})

			Convey("Then single experts are found by name or id", func() {
				e, err := svc.Expert(ctx, "3")
				So(err, ShouldBeNil)
				So(e.Name, ShouldEqual, "丙")

				_, err = svc.Expert(ctx, "nobody")
				So(errors.Is(err, service.ErrNotFound), ShouldBeTrue)
			})

			Convey("Then the summary covers every profile", func() {
				sum, err := svc.ExpertSummary(ctx)
				So(err, ShouldBeNil)
				So(sum.Count, ShouldEqual, 3)
				So(sum.Grades["金牌"], ShouldEqual, 2)
			})

			Convey("Then a later service reads the CSV instead of the browser", func() {
				calls := 0
				again := service.New(cfg,
					service.WithFetcher(fetcher),
					service.WithSessionFactory(func(context.Context) (browser.Session, error) {
						calls++
						return sess, nil
					}),
				)
				cached, err := again.Experts(ctx)
				So(err, ShouldBeNil)
				So(cached, ShouldHaveLength, 3)
				So(calls, ShouldEqual, 0)
			})
		})
	})

	Convey("Given no ranking snapshot", t, func() {
		cfg := testConfig(t.TempDir(), down.URL)
		svc := service.New(cfg, service.WithFetcher(fetcher))

		Convey("Then ErrNoData is surfaced before any browser starts", func() {
			_, err := svc.AcquireExperts(ctx, false)
			So(errors.Is(err, service.ErrNoData), ShouldBeTrue)
		})
	})
}

func TestServiceLifecycle(t *testing.T) {
	Convey("Given a service over an empty directory", t, func() {
		cfg := testConfig(t.TempDir(), "http://127.0.0.1:0")
		svc := service.New(cfg)

		Convey("Then it starts without data and reports stats", func() {
			So(svc.Start(context.Background()), ShouldBeNil)
			st := svc.GetStats()
			So(st["started"], ShouldEqual, true)
			So(st["draws"], ShouldEqual, 0)
			svc.Stop()
			So(svc.GetStats()["started"], ShouldEqual, false)
		})
	})
}
