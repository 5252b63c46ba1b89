package parse

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/okian/dltscope/internal/domain/model"
)

type rankingEnvelope struct {
	Code *int           `json:"code"`
	Msg  string         `json:"msg"`
	Data *[]rankingItem `json:"data"`
}

type rankingItem struct {
	ExpertID   flexString `json:"expertId"`
	Name       string     `json:"name"`
	Lottery    flexNumber `json:"lottery"`
	Follow     flexNumber `json:"follow"`
	GradeName  string     `json:"gradeName"`
	Rank       flexNumber `json:"rank"`
	Norm       flexNumber `json:"norm"`
	BestRecord flexString `json:"bestRecord"`
	GoodRecord flexString `json:"goodRecord"`
}

// flexString accepts a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(string(b))
	return nil
}

// flexNumber accepts a JSON number or a numeric string; anything else is 0.
type flexNumber float64

func (f *flexNumber) UnmarshalJSON(b []byte) error {
	var s flexString
	if err := s.UnmarshalJSON(b); err != nil {
		return err
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(string(s)), 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexNumber(v)
	return nil
}

// RankingList decodes a ranking snapshot of shape
// {code, data:[{expertId, name, lottery, follow, gradeName, rank, norm, bestRecord, goodRecord}]}.
// A non-zero code or a missing data array is ErrFailedFetch. Entries without
// a name or id are dropped.
func RankingList(data []byte) ([]model.ExpertProfile, error) {
	var env rankingEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedFetch, err)
	}
	if env.Code == nil || *env.Code != 0 {
		code := "missing"
		if env.Code != nil {
			code = strconv.Itoa(*env.Code)
		}
		return nil, fmt.Errorf("%w: code %s %s", ErrFailedFetch, code, env.Msg)
	}
	if env.Data == nil {
		return nil, fmt.Errorf("%w: no data", ErrFailedFetch)
	}

	out := make([]model.ExpertProfile, 0, len(*env.Data))
	for _, it := range *env.Data {
		p := model.ExpertProfile{
			ID:   strings.TrimSpace(string(it.ExpertID)),
			Name: strings.TrimSpace(it.Name),
			Ranking: model.Ranking{
				Lottery:    int(it.Lottery),
				Follow:     int(it.Follow),
				GradeName:  it.GradeName,
				Rank:       int(it.Rank),
				Norm:       float64(it.Norm),
				BestRecord: string(it.BestRecord),
				GoodRecord: string(it.GoodRecord),
			},
		}
		if p.Key() == "" {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}
