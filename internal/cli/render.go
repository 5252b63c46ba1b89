package cli

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/okian/dltscope/internal/domain/model"
	"github.com/okian/dltscope/internal/domain/stats"
	"github.com/okian/dltscope/internal/domain/types"
)

const topNumbers = 10

func newTable(w io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	t.SetTitle(title)
	return t
}

func numbers(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = fmt.Sprintf("%02d", n)
	}
	return strings.Join(parts, " ")
}

func corr(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.3f", v)
}

// SalesTable renders the sales trend.
func SalesTable(w io.Writer, s stats.Sales) {
	t := newTable(w, "Sales trend")
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRows([]table.Row{
		{"draws", s.Count},
		{"from", s.From.Format(model.DateLayout)},
		{"to", s.To.Format(model.DateLayout)},
		{"total", s.Total.StringFixed(0)},
		{"mean", s.Mean.StringFixed(2)},
		{"median", s.Median.StringFixed(2)},
		{"max", s.Max.StringFixed(0)},
		{"min", s.Min.StringFixed(0)},
		{"std", fmt.Sprintf("%.2f", s.Std)},
		{"window", s.Window},
	})
	if n := len(s.MovingAverage); n > 0 {
		t.AppendRow(table.Row{"latest moving average", s.MovingAverage[n-1].StringFixed(2)})
	}
	t.AppendSeparator()
	t.AppendRow(table.Row{"next draw estimate", s.Estimate.StringFixed(0)})
	t.Render()
}

// FrequencyTable renders the hottest numbers of each zone and the hot/cold sets.
func FrequencyTable(w io.Writer, f stats.Frequency) {
	t := newTable(w, fmt.Sprintf("Number frequency over %d draws", f.Draws))
	t.AppendHeader(table.Row{"#", "Front", "Count", "Back", "Count"})
	front := stats.Top(f.Front, topNumbers)
	back := stats.Top(f.Back, topNumbers)
	for i := range front {
		row := table.Row{i + 1, fmt.Sprintf("%02d", front[i].Number), front[i].Count, "", ""}
		if i < len(back) {
			row[3], row[4] = fmt.Sprintf("%02d", back[i].Number), back[i].Count
		}
		t.AppendRow(row)
	}
	hc := f.HotCold()
	t.AppendSeparator()
	t.AppendRow(table.Row{"hot", numbers(hc.FrontHot), "", numbers(hc.BackHot), ""})
	t.AppendRow(table.Row{"cold", numbers(hc.FrontCold), "", numbers(hc.BackCold), ""})
	t.Render()
}

// PredictionTable renders the selected combination and its alternates.
func PredictionTable(w io.Writer, p model.Prediction) {
	t := newTable(w, "Prediction")
	t.AppendHeader(table.Row{"", "Front", "Back", "Odd", "Small"})
	pick := model.Combination{Front: p.Front, Back: p.Back}
	t.AppendRow(combinationRow("pick", pick))
	if len(p.Alternates) > 0 {
		t.AppendSeparator()
	}
	for i, c := range p.Alternates {
		t.AppendRow(combinationRow(fmt.Sprintf("alternate %d", i+1), c))
	}
	t.Render()
}

func combinationRow(label string, c model.Combination) table.Row {
	d := model.DrawRecord{Front: c.Front, Back: c.Back}
	return table.Row{label, numbers(c.Front), numbers(c.Back), d.OddCount(), d.SmallCount()}
}

// WeekdayTable renders one row per draw day.
func WeekdayTable(w io.Writer, days []stats.Weekday) {
	t := newTable(w, "Weekday patterns")
	t.AppendHeader(table.Row{"Day", "Draws", "Mean sales", "Std", "Top odd:even", "Top small:large", "Hot front", "Hot back"})
	for _, d := range days {
		t.AppendRow(table.Row{
			d.Day.String(),
			d.Count,
			d.MeanSales.StringFixed(0),
			fmt.Sprintf("%.0f", d.StdSales),
			topPattern(d.OddEven),
			topPattern(d.SmallLarge),
			numbers(d.HotFront),
			numbers(d.HotBack),
		})
	}
	t.Render()
}

// topPattern returns the most frequent pattern, ties broken by pattern text.
func topPattern(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return "-"
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return fmt.Sprintf("%s (%d)", keys[0], counts[keys[0]])
}

// ExpertTable renders the expert summary.
func ExpertTable(w io.Writer, e stats.Experts) {
	t := newTable(w, "Expert summary")
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRows([]table.Row{
		{"experts", e.Count},
		{"mean tenure", fmt.Sprintf("%.2f", e.MeanTenure)},
		{"mean articles", fmt.Sprintf("%.2f", e.MeanArticles)},
		{"mean wins", fmt.Sprintf("%.2f", e.MeanWins)},
		{"mean win rate", fmt.Sprintf("%.4f", e.MeanWinRate)},
		{"tenure/wins corr", corr(e.TenureWinsCorr)},
		{"articles/wins corr", corr(e.ArticlesWinsCorr)},
	})

	grades := make([]string, 0, len(e.Grades))
	for g := range e.Grades {
		grades = append(grades, g)
	}
	sort.Strings(grades)
	if len(grades) > 0 {
		t.AppendSeparator()
	}
	for _, g := range grades {
		t.AppendRow(table.Row{"grade " + g, fmt.Sprintf("%d experts, %.2f mean wins", e.Grades[g], e.MeanWinsByGrade[g])})
	}

	t.AppendSeparator()
	for tier := model.TierNovice; tier <= model.TierMaster; tier++ {
		t.AppendRow(table.Row{"tier " + tier.String(), e.Tiers[tier]})
	}
	t.Render()
}

// LeaderboardTable renders leaderboard entries.
func LeaderboardTable(w io.Writer, entries []types.Entry) {
	t := newTable(w, "Leaderboard")
	t.AppendHeader(table.Row{"Rank", "Name", "Win rate", "Wins", "Activity", "Tier", "Grade"})
	for _, e := range entries {
		t.AppendRow(table.Row{e.Rank, e.Name, fmt.Sprintf("%.4f", e.WinRate), e.TotalWins, e.Activity, e.Tier, e.GradeName})
	}
	t.Render()
}
