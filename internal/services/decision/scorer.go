package decision

import (
	"math"

	"github.com/shopspring/decimal"

	"MarketPulse/internal/domain/models"
)

// MaxScore is the best attainable score of DefaultRules; the two RSI rules exclude each other.
const MaxScore = 4.5

const recentCloses = 30

// Rule adds Weight to the score when Match holds for the last two rows.
// Rules sharing a non-empty Group are mutually exclusive; only the heaviest
// one counts towards the maximum score.
type Rule struct {
	Name   string
	Group  string
	Weight float64
	Match  func(last, prev models.IndicatorRow) bool
}

// DefaultRules is the production rule table.
var DefaultRules = []Rule{
	{"price_up", "", 1, func(last, prev models.IndicatorRow) bool { return last.Close/prev.Close-1 > 0 }},
	{"momentum_up", "", 1, func(last, _ models.IndicatorRow) bool { return last.Momentum5 > 0 }},
	{"ema_trend", "", 1, func(last, _ models.IndicatorRow) bool { return last.EMA5 > last.EMA20 }},
	{"rsi_neutral", "rsi", 0.5, func(last, _ models.IndicatorRow) bool { return last.RSI14 > 40 && last.RSI14 < 60 }},
	{"rsi_strong", "rsi", 1, func(last, _ models.IndicatorRow) bool { return last.RSI14 >= 60 }},
	{"low_volatility", "", 0.5, func(last, _ models.IndicatorRow) bool { return last.Volatility10 < 2 }},
}

// Scorer implements service.DecisionEngine over a rule table.
type Scorer struct {
	rules    []Rule
	maxScore float64
}

// NewScorer uses DefaultRules when rules is empty.
func NewScorer(rules ...Rule) *Scorer {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	return &Scorer{rules: rules, maxScore: maxAttainable(rules)}
}

func maxAttainable(rules []Rule) float64 {
	var total float64
	groups := make(map[string]float64)
	for _, r := range rules {
		if r.Group == "" {
			total += r.Weight
			continue
		}
		groups[r.Group] = math.Max(groups[r.Group], r.Weight)
	}
	for _, w := range groups {
		total += w
	}
	return total
}

// Score evaluates the last two rows of the table.
func (s *Scorer) Score(table models.IndicatorTable) (models.Prediction, error) {
	if len(table) < 2 {
		return models.Prediction{}, models.ErrInsufficientData
	}
	last, prev := table[len(table)-1], table[len(table)-2]

	var score float64
	for _, r := range s.rules {
		if r.Match(last, prev) {
			score += r.Weight
		}
	}

	prob := math.Min(100, score/s.maxScore*100)
	conf := math.Abs(50-last.RSI14) / 2
	d := Classify(prob)

	closes := table.Closes()
	if len(closes) > recentCloses {
		closes = closes[len(closes)-recentCloses:]
	}
	recent := make([]float64, len(closes))
	for i, c := range closes {
		recent[i] = Round(c, 2)
	}

	return models.Prediction{
		Decision:    d,
		Probability: prob,
		Confidence:  conf,
		Score:       score,
		Comment:     Comment(d),
		Color:       Color(d),
		Latest: models.LatestIndicators{
			RSI:     Round(last.RSI14, 2),
			EMAFast: Round(last.EMA5, 2),
			EMASlow: Round(last.EMA20, 2),
			Mom5:    Round(last.Momentum5, 4),
			Vol10:   Round(last.Volatility10, 4),
		},
		RecentCloses: recent,
	}, nil
}

// Classify maps a probability to a decision: UP above 55, DOWN below 45.
func Classify(prob float64) models.Decision {
	switch {
	case prob > 55:
		return models.DecisionUp
	case prob < 45:
		return models.DecisionDown
	default:
		return models.DecisionNeutral
	}
}

func Comment(d models.Decision) string {
	switch d {
	case models.DecisionUp:
		return "Uptrend"
	case models.DecisionDown:
		return "Downtrend"
	default:
		return "Neutral trend"
	}
}

func Color(d models.Decision) string {
	switch d {
	case models.DecisionUp:
		return "#00ff99"
	case models.DecisionDown:
		return "#ff5555"
	default:
		return "#ffff66"
	}
}

// Round rounds half away from zero to places decimals.
func Round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
