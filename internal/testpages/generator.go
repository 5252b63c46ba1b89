package testpages

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/okian/dltscope/pkg/logger"
)

// File permission constants.
const (
	dirPermission  = 0o755
	filePermission = 0o644
)

// Config controls snapshot generation.
type Config struct {
	Dir         string    // output directory
	Pages       int       // draw-list pages
	RowsPerPage int       // valid rows per page
	Malformed   bool      // append one short row to every page
	Experts     int       // experts in the ranking snapshot and detail pages
	FirstPeriod int       // newest period
	FirstDate   time.Time // newest draw date
	Seed        uint64
}

// RandomDraws returns n draws, newest first, three draws a week
// (Monday, Wednesday, Saturday) walking back from start.
func RandomDraws(r *rand.Rand, n, firstPeriod int, start time.Time) []Draw {
	out := make([]Draw, 0, n)
	date := start
	for i := 0; i < n; i++ {
		front := r.Perm(35)[:5]
		back := r.Perm(12)[:2]
		for j := range front {
			front[j]++
		}
		for j := range back {
			back[j]++
		}
		slices.Sort(front)
		slices.Sort(back)
		out = append(out, Draw{
			Period: strconv.Itoa(firstPeriod - i),
			Date:   date.Format("2006-01-02"),
			Front:  front,
			Back:   back,
			Sales:  fmt.Sprintf("%d", 250_000_000+r.IntN(100_000_000)),
		})
		date = previousDrawDay(date)
	}
	return out
}

func previousDrawDay(d time.Time) time.Time {
	for {
		d = d.AddDate(0, 0, -1)
		switch d.Weekday() {
		case time.Monday, time.Wednesday, time.Saturday:
			return d
		}
	}
}

// RandomExperts returns n experts with deterministic names.
func RandomExperts(r *rand.Rand, n int) []Expert {
	grades := []string{"新锐专家", "资深专家", "金牌专家", "特级专家"}
	out := make([]Expert, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Expert{
			ID:        strconv.Itoa(10_000 + i),
			Name:      fmt.Sprintf("专家%02d", i+1),
			Tenure:    1 + r.IntN(12),
			Articles:  r.IntN(600),
			GradeName: grades[r.IntN(len(grades))],
			Follow:    r.IntN(50_000),
			Awards: []Award{
				{Label: "一等奖", Count: r.IntN(3)},
				{Label: "二等奖", Count: r.IntN(8)},
				{Label: "三等奖", Count: r.IntN(20)},
				{Label: "四等奖", Count: r.IntN(40)},
			},
		})
	}
	return out
}

// WriteSnapshots renders draw pages, a ranking snapshot and one detail page
// per expert into cfg.Dir:
//
//	pages/page-001.html ...
//	ranking.json
//	experts/<id>.html
func WriteSnapshots(ctx context.Context, cfg Config) error {
	log := logger.Get().Named("testpages")
	r := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))

	pagesDir := filepath.Join(cfg.Dir, "pages")
	expertsDir := filepath.Join(cfg.Dir, "experts")
	for _, d := range []string{pagesDir, expertsDir} {
		if err := os.MkdirAll(d, dirPermission); err != nil {
			return fmt.Errorf("create %s: %w", d, err)
		}
	}

	draws := RandomDraws(r, cfg.Pages*cfg.RowsPerPage, cfg.FirstPeriod, cfg.FirstDate)
	for p := 0; p < cfg.Pages; p++ {
		chunk := draws[p*cfg.RowsPerPage : (p+1)*cfg.RowsPerPage]
		rows := make([]string, 0, len(chunk)+1)
		for _, d := range chunk {
			date, _ := time.Parse("2006-01-02", d.Date)
			rows = append(rows, DrawRow(d, date.Weekday().String()))
		}
		if cfg.Malformed {
			rows = append(rows, MalformedRow("0"))
		}
		name := filepath.Join(pagesDir, fmt.Sprintf("page-%03d.html", p+1))
		if err := os.WriteFile(name, []byte(DrawPage(rows...)), filePermission); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}

	experts := RandomExperts(r, cfg.Experts)
	if err := os.WriteFile(filepath.Join(cfg.Dir, "ranking.json"), Ranking(0, experts...), filePermission); err != nil {
		return fmt.Errorf("write ranking: %w", err)
	}
	for _, e := range experts {
		name := filepath.Join(expertsDir, e.ID+".html")
		if err := os.WriteFile(name, []byte(ExpertDetail(e)), filePermission); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}

	log.Info(ctx, "snapshots written",
		logger.String("dir", cfg.Dir),
		logger.Int("pages", cfg.Pages),
		logger.Int("draws", len(draws)),
		logger.Int("experts", len(experts)),
	)
	return nil
}
