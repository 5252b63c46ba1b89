package repository

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/okian/dltscope/internal/domain/model"
	"github.com/okian/dltscope/pkg/logger"
	"github.com/okian/dltscope/pkg/metrics"
	"github.com/shopspring/decimal"
)

// bom marks the files as UTF-8 for spreadsheet tools.
var bom = []byte("\ufeff")

var drawHeader = []string{
	"period", "date", "front", "back",
	"sales",
	"first_count", "first_amount", "first_plus_count", "first_plus_amount",
	"second_count", "second_amount", "second_plus_count", "second_plus_amount",
	"pool",
}

var expertHeader = []string{
	"id", "name", "tenure_years", "articles",
	"first", "second", "third", "other",
	"total_wins", "win_rate", "tier",
	"lottery", "follow", "grade_name", "rank", "norm", "best_record", "good_record",
}

// CSVStore keeps draws and experts in two CSV files.
type CSVStore struct {
	mu         sync.RWMutex
	drawPath   string
	expertPath string
	floor      int
	log        logger.Logger
}

// NewCSVStore creates a store.
func NewCSVStore(opts ...Option) *CSVStore {
	s := &CSVStore{floor: 100}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Get().Named("repository")
	}
	return s
}

var (
	_ DrawStore   = (*CSVStore)(nil)
	_ ExpertStore = (*CSVStore)(nil)
)

func (s *CSVStore) LoadDraws(ctx context.Context) ([]model.DrawRecord, error) {
	rows, err := s.read(ctx, "draws", s.drawPath, len(drawHeader))
	if err != nil {
		return nil, err
	}
	out := make([]model.DrawRecord, 0, len(rows))
	for i, row := range rows {
		d, err := drawFromRow(row)
		if err != nil {
			return nil, fmt.Errorf("%w: %s line %d: %v", ErrMalformed, s.drawPath, i+2, err)
		}
		out = append(out, d)
	}
	return out, nil
}

func (s *CSVStore) SaveDraws(ctx context.Context, draws []model.DrawRecord) error {
	rows := make([][]string, 0, len(draws)+1)
	rows = append(rows, drawHeader)
	for _, d := range draws {
		rows = append(rows, drawRow(d))
	}
	return s.write(ctx, "draws", s.drawPath, rows)
}

func (s *CSVStore) LoadExperts(ctx context.Context) ([]model.ExpertProfile, error) {
	rows, err := s.read(ctx, "experts", s.expertPath, len(expertHeader))
	if err != nil {
		return nil, err
	}
	out := make([]model.ExpertProfile, 0, len(rows))
	for i, row := range rows {
		p, err := expertFromRow(row)
		if err != nil {
			return nil, fmt.Errorf("%w: %s line %d: %v", ErrMalformed, s.expertPath, i+2, err)
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *CSVStore) SaveExperts(ctx context.Context, experts []model.ExpertProfile) error {
	rows := make([][]string, 0, len(experts)+1)
	rows = append(rows, expertHeader)
	for _, p := range experts {
		rows = append(rows, s.expertRow(p))
	}
	return s.write(ctx, "experts", s.expertPath, rows)
}

// read returns the data rows of path. A missing file or one holding only
// the header is ErrNotFound.
func (s *CSVStore) read(ctx context.Context, kind, path string, width int) ([][]string, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoPath, kind)
	}
	s.mu.RLock()
	data, err := os.ReadFile(path)
	s.mu.RUnlock()
	if errors.Is(err, fs.ErrNotExist) {
		metrics.RecordCacheLookup(kind, "miss")
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, bom)))
	r.FieldsPerRecord = width
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, path, err)
	}
	if len(records) <= 1 {
		metrics.RecordCacheLookup(kind, "miss")
		return nil, fmt.Errorf("%w: %s is empty", ErrNotFound, path)
	}
	metrics.RecordCacheLookup(kind, "hit")
	s.log.Debug(ctx, "loaded store", logger.String("kind", kind), logger.Int("rows", len(records)-1))
	return records[1:], nil
}

// write replaces path atomically through a sibling temp file.
func (s *CSVStore) write(ctx context.Context, kind, path string, rows [][]string) error {
	if path == "" {
		return fmt.Errorf("%w: %s", ErrNoPath, kind)
	}
	var buf bytes.Buffer
	buf.Write(bom)
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("encode %s: %w", kind, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	s.log.Info(ctx, "saved store", logger.String("kind", kind), logger.String("path", path), logger.Int("rows", len(rows)-1))
	return nil
}

func joinNumbers(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = fmt.Sprintf("%02d", n)
	}
	return strings.Join(parts, " ")
}

func splitNumbers(s string) ([]int, error) {
	fields := strings.Fields(s)
	out := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func drawRow(d model.DrawRecord) []string {
	row := []string{
		strconv.Itoa(d.Period),
		d.Date.Format(model.DateLayout),
		joinNumbers(d.Front),
		joinNumbers(d.Back),
	}
	for _, a := range d.Amounts() {
		row = append(row, a.Value.String())
	}
	return row
}

func drawFromRow(row []string) (model.DrawRecord, error) {
	var d model.DrawRecord
	var err error
	if d.Period, err = strconv.Atoi(row[0]); err != nil {
		return d, fmt.Errorf("period: %w", err)
	}
	if d.Date, err = time.ParseInLocation(model.DateLayout, row[1], time.Local); err != nil {
		return d, fmt.Errorf("date: %w", err)
	}
	if d.Front, err = splitNumbers(row[2]); err != nil {
		return d, fmt.Errorf("front: %w", err)
	}
	if d.Back, err = splitNumbers(row[3]); err != nil {
		return d, fmt.Errorf("back: %w", err)
	}
	amounts := []*decimal.Decimal{
		&d.Sales,
		&d.FirstCount, &d.FirstAmount, &d.FirstPlusCount, &d.FirstPlusAmount,
		&d.SecondCount, &d.SecondAmount, &d.SecondPlusCount, &d.SecondPlusAmount,
		&d.Pool,
	}
	for i, dst := range amounts {
		v, err := decimal.NewFromString(row[4+i])
		if err != nil {
			return d, fmt.Errorf("%s: %w", drawHeader[4+i], err)
		}
		*dst = v
	}
	return d, d.Validate()
}

func (s *CSVStore) expertRow(p model.ExpertProfile) []string {
	itoa := strconv.Itoa
	return []string{
		p.ID, p.Name, itoa(p.TenureYears), itoa(p.Articles),
		itoa(p.Wins.First), itoa(p.Wins.Second), itoa(p.Wins.Third), itoa(p.Wins.Other),
		itoa(p.TotalWins()),
		strconv.FormatFloat(p.WinRate(s.floor), 'f', 6, 64),
		p.Tier(s.floor).String(),
		itoa(p.Ranking.Lottery), itoa(p.Ranking.Follow), p.Ranking.GradeName,
		itoa(p.Ranking.Rank), strconv.FormatFloat(p.Ranking.Norm, 'f', -1, 64),
		p.Ranking.BestRecord, p.Ranking.GoodRecord,
	}
}

func expertFromRow(row []string) (model.ExpertProfile, error) {
	p := model.ExpertProfile{ID: row[0], Name: row[1]}
	ints := []struct {
		dst *int
		col int
	}{
		{&p.TenureYears, 2}, {&p.Articles, 3},
		{&p.Wins.First, 4}, {&p.Wins.Second, 5}, {&p.Wins.Third, 6}, {&p.Wins.Other, 7},
		{&p.Ranking.Lottery, 11}, {&p.Ranking.Follow, 12}, {&p.Ranking.Rank, 14},
	}
	for _, f := range ints {
		if row[f.col] == "" {
			continue
		}
		v, err := strconv.Atoi(row[f.col])
		if err != nil {
			return p, fmt.Errorf("%s: %w", expertHeader[f.col], err)
		}
		*f.dst = v
	}
	p.Ranking.GradeName = row[13]
	if row[15] != "" {
		norm, err := strconv.ParseFloat(row[15], 64)
		if err != nil {
			return p, fmt.Errorf("norm: %w", err)
		}
		p.Ranking.Norm = norm
	}
	p.Ranking.BestRecord, p.Ranking.GoodRecord = row[16], row[17]
	return p, p.Validate()
}
