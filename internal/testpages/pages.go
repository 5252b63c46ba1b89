// Package testpages renders synthetic draw-list pages, expert detail pages
// and ranking snapshots in the markup the parsers expect. Tests use it for
// fixtures and the fixtures command writes offline snapshots with it.
package testpages

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Draw is one row of a synthetic draw-list page.
type Draw struct {
	Period string
	Date   string // YYYY-MM-DD
	Front  []int
	Back   []int
	Sales  string
	Pool   string
}

// Award is one item of an award block, e.g. {"一等奖", 2}.
type Award struct {
	Label string
	Count int
}

// Expert describes a synthetic expert.
type Expert struct {
	ID        string
	Name      string
	Tenure    int
	Articles  int
	Category  string
	Awards    []Award
	GradeName string
	Follow    int
	Rank      int
}

var weekdays = map[string]string{
	"Monday": "一", "Tuesday": "二", "Wednesday": "三", "Thursday": "四",
	"Friday": "五", "Saturday": "六", "Sunday": "日",
}

// DrawRow renders a 14-cell draw row. Weekday is the English weekday name
// appended as a full-width annotation; empty omits it.
func DrawRow(d Draw, weekday string) string {
	var b strings.Builder
	b.WriteString("<tr>")
	fmt.Fprintf(&b, "<td>%s</td>", d.Period)
	if zh, ok := weekdays[weekday]; ok {
		fmt.Fprintf(&b, "<td>%s（%s）</td>", d.Date, zh)
	} else {
		fmt.Fprintf(&b, "<td>%s</td>", d.Date)
	}
	b.WriteString("<td>")
	for _, n := range d.Front {
		fmt.Fprintf(&b, `<span class="jqh">%02d</span>`, n)
	}
	b.WriteString("</td><td>")
	for _, n := range d.Back {
		fmt.Fprintf(&b, `<span class="jql">%02d</span>`, n)
	}
	b.WriteString("</td>")
	sales := d.Sales
	if sales == "" {
		sales = "300,000,000"
	}
	fmt.Fprintf(&b, "<td>%s</td>", sales)
	// first tier, second tier, each count/amount plus the plus-wager pair
	for _, v := range []string{"2", "10,000,000", "1", "8,000,000", "80", "150,000", "20", "120,000"} {
		fmt.Fprintf(&b, "<td>%s</td>", v)
	}
	pool := d.Pool
	if pool == "" {
		pool = "800,000,000"
	}
	fmt.Fprintf(&b, "<td>%s</td>", pool)
	b.WriteString("</tr>")
	return b.String()
}

// MalformedRow renders a row with too few cells.
func MalformedRow(period string) string {
	return fmt.Sprintf("<tr><td>%s</td><td>--</td><td>--</td></tr>", period)
}

// DrawPage wraps rows in a draw-list document.
func DrawPage(rows ...string) string {
	return `<html><head><meta charset="utf-8"></head><body>` +
		`<table class="kjxx"><thead><tr><th>期号</th></tr></thead><tbody>` +
		strings.Join(rows, "") +
		`</tbody></table></body></html>`
}

// ExpertDetail renders an expert detail page. Awards are placed in a block
// labeled e.Category, preceded by an unrelated block that must be ignored.
func ExpertDetail(e Expert) string {
	var b strings.Builder
	b.WriteString(`<html><body><div class="okami">`)
	fmt.Fprintf(&b, `<h2 class="title">%s</h2>`, e.Name)
	b.WriteString(`<div class="okami-text">`)
	fmt.Fprintf(&b, "<p>粉丝： %d人</p>", e.Follow)
	fmt.Fprintf(&b, "<p>文章数量： %d篇</p>", e.Articles)
	fmt.Fprintf(&b, "<p>彩龄： %d年</p>", e.Tenure)
	b.WriteString(`</div></div>`)
	b.WriteString(`<div class="djzj"><span class="text-head-bg">福彩3D大奖战绩</span>` +
		`<div class="item">一等奖 99次</div></div>`)
	label := e.Category
	if label == "" {
		label = "双色球"
	}
	fmt.Fprintf(&b, `<div class="djzj"><span class="text-head-bg">%s大奖战绩</span>`, label)
	for _, a := range e.Awards {
		fmt.Fprintf(&b, `<div class="item">%s %d次</div>`, a.Label, a.Count)
	}
	b.WriteString(`</div></body></html>`)
	return b.String()
}

// ExpertList renders a rendered expert list page for the click strategy.
// The list carries the marker class expert-list and a next-batch control.
func ExpertList(names ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body><div class="expert-list">`)
	for _, n := range names {
		fmt.Fprintf(&b, `<div class="expert-item"><span class="expert-name">%s</span></div>`, n)
	}
	b.WriteString(`</div><a class="change-batch">换一批</a></body></html>`)
	return b.String()
}

type rankingItem struct {
	ExpertID   string  `json:"expertId"`
	Name       string  `json:"name"`
	Lottery    int     `json:"lottery"`
	Follow     int     `json:"follow"`
	GradeName  string  `json:"gradeName"`
	Rank       int     `json:"rank"`
	Norm       float64 `json:"norm"`
	BestRecord string  `json:"bestRecord"`
	GoodRecord string  `json:"goodRecord"`
}

// Ranking renders a ranking snapshot with the given code.
func Ranking(code int, experts ...Expert) []byte {
	items := make([]rankingItem, 0, len(experts))
	for i, e := range experts {
		rank := e.Rank
		if rank == 0 {
			rank = i + 1
		}
		items = append(items, rankingItem{
			ExpertID:   e.ID,
			Name:       e.Name,
			Lottery:    23,
			Follow:     e.Follow,
			GradeName:  e.GradeName,
			Rank:       rank,
			Norm:       float64(100 - i),
			BestRecord: "7中5",
			GoodRecord: "近10期中6期",
		})
	}
	out, err := json.Marshal(map[string]any{"code": code, "msg": "ok", "data": items})
	if err != nil {
		panic(err)
	}
	return out
}
