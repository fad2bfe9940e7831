package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"MarketPulse/internal/domain/models"
)

type latestView struct {
	RSI     float64 `json:"rsi"`
	EMAFast float64 `json:"ema_fast"`
	EMASlow float64 `json:"ema_slow"`
	Mom5    float64 `json:"mom5"`
	Vol10   float64 `json:"vol10"`
}

type groupView struct {
	Decision      models.Decision `json:"decision"`
	DecisionColor string          `json:"decision_color"`
	Prob          float64         `json:"prob"`
	Conf          float64         `json:"conf"`
	Comment       string          `json:"comment"`
	Latest        latestView      `json:"latest"`
	Data          []float64       `json:"data"`
}

type groupErrorView struct {
	Error string `json:"error"`
}

// HistoryView is one history point as exposed to clients.
type HistoryView struct {
	Time string  `json:"time"`
	Prob float64 `json:"prob"`
}

type summaryView struct {
	Trend       models.Trend  `json:"trend"`
	AvgProb     float64       `json:"avg_prob"`
	AvgConf     float64       `json:"avg_conf"`
	History     []HistoryView `json:"history"`
	GeneratedAt time.Time     `json:"generated_at"`
}

// GroupView lists a configured group for /api/groups.
type GroupView struct {
	Name    string   `json:"name"`
	Tickers []string `json:"tickers"`
}

func toHistoryView(entries []models.HistoryEntry) []HistoryView {
	out := make([]HistoryView, len(entries))
	for i, e := range entries {
		out[i] = HistoryView{Time: e.Time, Prob: e.AvgProbability}
	}
	return out
}

func groupValue(r models.GroupResult) interface{} {
	if !r.OK() {
		msg := models.ErrInsufficientData.Error()
		if r.Err != nil {
			msg = r.Err.Error()
		}
		return groupErrorView{Error: msg}
	}
	p := r.Prediction
	data := p.RecentCloses
	if data == nil {
		data = []float64{}
	}
	return groupView{
		Decision:      p.Decision,
		DecisionColor: p.Color,
		Prob:          p.Probability,
		Conf:          p.Confidence,
		Comment:       p.Comment,
		Latest: latestView{
			RSI:     p.Latest.RSI,
			EMAFast: p.Latest.EMAFast,
			EMASlow: p.Latest.EMASlow,
			Mom5:    p.Latest.Mom5,
			Vol10:   p.Latest.Vol10,
		},
		Data: data,
	}
}

// EncodeSnapshot renders the snapshot as one JSON object keyed by group name, in group
// order, followed by "summary". encoding/json sorts map keys, hence the manual object.
func EncodeSnapshot(s *models.Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for _, g := range s.Groups {
		if err := writeMember(&buf, g.Name, groupValue(g)); err != nil {
			return nil, err
		}
		buf.WriteByte(',')
	}

	summary := summaryView{
		Trend:       s.Summary.Trend,
		AvgProb:     s.Summary.AvgProbability,
		AvgConf:     s.Summary.AvgConfidence,
		History:     toHistoryView(s.Summary.History),
		GeneratedAt: s.Summary.GeneratedAt,
	}
	if err := writeMember(&buf, "summary", summary); err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeMember(buf *bytes.Buffer, key string, v interface{}) error {
	k, err := json.Marshal(key)
	if err != nil {
		return fmt.Errorf("encode key %q: %w", key, err)
	}
	val, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(val)
	return nil
}
