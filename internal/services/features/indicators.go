package features

import (
	"math"

	"github.com/markcheno/go-talib"

	"MarketPulse/internal/domain/models"
)

// Engine derives EMA, momentum, volatility and RSI columns from a close series.
// Implements service.IndicatorEngine.
type Engine struct {
	fastSpan  int
	slowSpan  int
	momPeriod int
	volWindow int
	rsiPeriod int
}

type Option func(*Engine)

func WithEMASpans(fast, slow int) Option {
	return func(e *Engine) { e.fastSpan, e.slowSpan = fast, slow }
}

func WithMomentumPeriod(n int) Option { return func(e *Engine) { e.momPeriod = n } }

func WithVolatilityWindow(n int) Option { return func(e *Engine) { e.volWindow = n } }

func WithRSIPeriod(n int) Option { return func(e *Engine) { e.rsiPeriod = n } }

// NewEngine returns an engine with EMA 5/20, momentum 5, volatility 10 and RSI 14.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{fastSpan: 5, slowSpan: 20, momPeriod: 5, volWindow: 10, rsiPeriod: 14}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Derive returns one row per timestamp where every indicator is defined and finite.
func (e *Engine) Derive(series models.PriceSeries) models.IndicatorTable {
	closes := series.Closes()
	n := len(closes)
	if n == 0 {
		return nil
	}

	emaFast := AdjustedEMA(closes, e.fastSpan)
	emaSlow := AdjustedEMA(closes, e.slowSpan)
	mom := Momentum(closes, e.momPeriod)
	vol := Volatility(closes, e.volWindow)
	rsi := RSI(closes, e.rsiPeriod)

	out := make(models.IndicatorTable, 0, n)
	for t := 0; t < n; t++ {
		row := models.IndicatorRow{
			Time:         series.Points[t].Time,
			Close:        closes[t],
			EMA5:         emaFast[t],
			EMA20:        emaSlow[t],
			Momentum5:    mom[t],
			Volatility10: vol[t],
			RSI14:        rsi[t],
		}
		if !finiteRow(row) {
			continue
		}
		out = append(out, row)
	}
	return out
}

func finiteRow(r models.IndicatorRow) bool {
	for _, v := range []float64{r.Close, r.EMA5, r.EMA20, r.Momentum5, r.Volatility10, r.RSI14} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// AdjustedEMA is the exponentially weighted mean with alpha = 2/(span+1), where each
// output is sum((1-alpha)^i * x[t-i]) / sum((1-alpha)^i) over every earlier point.
// It is defined from the first point on.
//
// talib.Ema seeds with an SMA of the first span points, which yields different values.
func AdjustedEMA(x []float64, span int) []float64 {
	out := make([]float64, len(x))
	if span < 1 {
		copy(out, x)
		return out
	}
	decay := 1 - 2/float64(span+1)
	var num, den float64
	for i, v := range x {
		num = v + decay*num
		den = 1 + decay*den
		out[i] = num / den
	}
	return out
}

// Momentum is x[t] - x[t-period]; NaN for t < period.
func Momentum(x []float64, period int) []float64 {
	out := nanSlice(len(x))
	if period < 1 || len(x) <= period {
		return out
	}
	mom := talib.Mom(x, period)
	for t := period; t < len(x); t++ {
		out[t] = mom[t]
	}
	return out
}

// Volatility is the sample standard deviation of the last window one-step percentage
// returns, times 100. NaN until window returns exist (t < window).
func Volatility(x []float64, window int) []float64 {
	out := nanSlice(len(x))
	if window < 2 || len(x) <= window {
		return out
	}
	returns := make([]float64, len(x)-1)
	for i := 1; i < len(x); i++ {
		returns[i-1] = x[i]/x[i-1] - 1
	}

	// talib.StdDev is the population deviation
	sample := math.Sqrt(float64(window) / float64(window-1))
	sd := talib.StdDev(returns, window, 1)
	for j := window - 1; j < len(returns); j++ {
		out[j+1] = sd[j] * sample * 100
	}
	return out
}

// RSI uses simple period means of clipped gains and losses:
// RSI = 100 - 100/(1+gain/loss). NaN for t < period.
// A zero mean loss with a positive mean gain gives RS = +Inf and RSI = 100;
// zero gain and zero loss give NaN.
func RSI(x []float64, period int) []float64 {
	out := nanSlice(len(x))
	if period < 1 || len(x) <= period {
		return out
	}
	gains := make([]float64, len(x)-1)
	losses := make([]float64, len(x)-1)
	for i := 1; i < len(x); i++ {
		d := x[i] - x[i-1]
		if d > 0 {
			gains[i-1] = d
		} else {
			losses[i-1] = -d
		}
	}

	avgGain := talib.Sma(gains, period)
	avgLoss := talib.Sma(losses, period)
	for j := period - 1; j < len(gains); j++ {
		rs := avgGain[j] / avgLoss[j]
		out[j+1] = 100 - 100/(1+rs)
	}
	return out
}
