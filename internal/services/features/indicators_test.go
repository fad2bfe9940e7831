package features

import (
	"math"
	"testing"
	"time"

	"MarketPulse/internal/domain/models"
)

func seriesOf(closes ...float64) models.PriceSeries {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	pts := make([]models.PricePoint, len(closes))
	for i, c := range closes {
		pts[i] = models.PricePoint{Time: start.AddDate(0, 0, i), Close: c}
	}
	return models.PriceSeries{Symbol: "TEST", Points: pts}
}

func linear(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

func almostEqual(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func TestAdjustedEMA(t *testing.T) {
	got := AdjustedEMA([]float64{1, 2, 3}, 3)
	// alpha 0.5: (2 + 0.5)/1.5 and (3 + 1 + 0.25)/1.75
	want := []float64{1, 2.5 / 1.5, 4.25 / 1.75}
	for i := range want {
		if !almostEqual(got[i], want[i], 1e-12) {
			t.Fatalf("ema[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestMomentum(t *testing.T) {
	got := Momentum(linear(10, 0, 1), 5)
	for i := 0; i < 5; i++ {
		if !math.IsNaN(got[i]) {
			t.Fatalf("mom[%d] = %v, want NaN", i, got[i])
		}
	}
	for i := 5; i < 10; i++ {
		if got[i] != 5 {
			t.Fatalf("mom[%d] = %v, want 5", i, got[i])
		}
	}
	if short := Momentum([]float64{1, 2}, 5); !math.IsNaN(short[1]) {
		t.Fatalf("short series should be undefined")
	}
}

func TestVolatilityMatchesSampleStd(t *testing.T) {
	closes := []float64{100, 101.5, 99.8, 102.3, 103.1, 101.7, 104.2, 105.0, 103.3, 106.1, 107.4, 106.0, 108.8}
	got := Volatility(closes, 10)

	for i := 0; i < 10; i++ {
		if !math.IsNaN(got[i]) {
			t.Fatalf("vol[%d] = %v, want NaN", i, got[i])
		}
	}
	for tIdx := 10; tIdx < len(closes); tIdx++ {
		rets := make([]float64, 0, 10)
		for k := tIdx - 9; k <= tIdx; k++ {
			rets = append(rets, closes[k]/closes[k-1]-1)
		}
		var mean float64
		for _, r := range rets {
			mean += r
		}
		mean /= 10
		var ss float64
		for _, r := range rets {
			ss += (r - mean) * (r - mean)
		}
		want := math.Sqrt(ss/9) * 100
		if !almostEqual(got[tIdx], want, 1e-6) {
			t.Fatalf("vol[%d] = %v, want %v", tIdx, got[tIdx], want)
		}
	}
}

func TestRSIEdges(t *testing.T) {
	cases := []struct {
		name   string
		closes []float64
		check  func(float64) bool
	}{
		{"only gains", linear(20, 100, 1), func(v float64) bool { return v == 100 }},
		{"only losses", linear(20, 200, -1), func(v float64) bool { return v == 0 }},
		{"flat", linear(20, 100, 0), math.IsNaN},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := RSI(tc.closes, 14)
			if !math.IsNaN(got[13]) {
				t.Fatalf("rsi[13] = %v, want NaN", got[13])
			}
			for i := 14; i < len(got); i++ {
				if !tc.check(got[i]) {
					t.Fatalf("rsi[%d] = %v", i, got[i])
				}
			}
		})
	}
}

func TestRSIMixed(t *testing.T) {
	// 15 points: deltas alternate +2, -1 over 14 steps -> gains 14, losses 7
	closes := []float64{100}
	for i := 0; i < 14; i++ {
		d := 2.0
		if i%2 == 1 {
			d = -1
		}
		closes = append(closes, closes[len(closes)-1]+d)
	}
	got := RSI(closes, 14)
	want := 100 - 100/(1+14.0/7.0)
	if !almostEqual(got[14], want, 1e-9) {
		t.Fatalf("rsi = %v, want %v", got[14], want)
	}
}

func TestDeriveAlignment(t *testing.T) {
	e := NewEngine()

	t.Run("fifteen points yield a single row", func(t *testing.T) {
		s := seriesOf(linear(15, 100, 1)...)
		table := e.Derive(s)
		if len(table) != 1 {
			t.Fatalf("rows = %d, want 1", len(table))
		}
		if !table[0].Time.Equal(s.Points[14].Time) {
			t.Fatalf("first row time = %v", table[0].Time)
		}
	})

	t.Run("increasing series", func(t *testing.T) {
		s := seriesOf(linear(40, 100, 1)...)
		table := e.Derive(s)
		if len(table) != 26 {
			t.Fatalf("rows = %d, want 26", len(table))
		}
		for i, r := range table {
			if !table[i].Time.Equal(s.Points[14+i].Time) || r.Close != s.Points[14+i].Close {
				t.Fatalf("row %d is not aligned with its source point", i)
			}
			if r.RSI14 != 100 || r.Momentum5 != 5 {
				t.Fatalf("row %d: rsi=%v mom=%v", i, r.RSI14, r.Momentum5)
			}
			if r.EMA5 <= r.EMA20 {
				t.Fatalf("row %d: ema5 %v <= ema20 %v", i, r.EMA5, r.EMA20)
			}
		}
	})

	t.Run("flat series has no rows", func(t *testing.T) {
		if got := e.Derive(seriesOf(linear(30, 100, 0)...)); len(got) != 0 {
			t.Fatalf("rows = %d, want 0", len(got))
		}
	})

	t.Run("empty series", func(t *testing.T) {
		if got := e.Derive(models.PriceSeries{}); len(got) != 0 {
			t.Fatalf("rows = %d, want 0", len(got))
		}
	})
}
