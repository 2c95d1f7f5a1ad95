package backtest

import "math"

const tradingDaysPerYear = 252.0

// Metrics summarizes a finalized simulation.
type Metrics struct {
	TotalReturn   float64
	MaxDrawdown   float64
	CAGR          float64
	Volatility    float64
	Sharpe        float64
	Sortino       float64
	Trades        int
	AvgConcurrent float64
}

func computeMetrics(curve []EquityPoint, trades, openCountSum int) Metrics {
	if len(curve) == 0 {
		return Metrics{}
	}

	totalRet := curve[len(curve)-1].Equity - 1.0

	dailyRets := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Equity
		if prev == 0 {
			dailyRets = append(dailyRets, 0)
			continue
		}
		dailyRets = append(dailyRets, curve[i].Equity/prev-1.0)
	}

	annFactor := tradingDaysPerYear / float64(len(curve))
	cagr := math.Pow(1.0+totalRet, annFactor) - 1.0

	vol := 0.0
	if len(dailyRets) > 1 {
		vol = stddev(dailyRets) * math.Sqrt(tradingDaysPerYear)
	}
	sharpe := 0.0
	if vol > 0 {
		sharpe = cagr / vol
	}

	var downside []float64
	for _, r := range dailyRets {
		if r < 0 {
			downside = append(downside, r)
		}
	}
	sortino := 0.0
	if len(downside) > 1 {
		if dv := stddev(downside) * math.Sqrt(tradingDaysPerYear); dv > 0 {
			sortino = cagr / dv
		}
	}

	return Metrics{
		TotalReturn:   totalRet,
		MaxDrawdown:   MaxDrawdown(curve),
		CAGR:          cagr,
		Volatility:    vol,
		Sharpe:        sharpe,
		Sortino:       sortino,
		Trades:        trades,
		AvgConcurrent: float64(openCountSum) / float64(len(curve)),
	}
}

// MaxDrawdown is the deepest peak-to-trough loss of the equity curve,
// expressed as a negative fraction.
func MaxDrawdown(curve []EquityPoint) float64 {
	if len(curve) == 0 {
		return 0
	}
	peak := curve[0].Equity
	worst := 0.0
	for _, p := range curve {
		if p.Equity > peak {
			peak = p.Equity
		}
		if peak > 0 {
			dd := (p.Equity - peak) / peak
			if dd < worst {
				worst = dd
			}
		}
	}
	return worst
}

// stddev is the sample standard deviation.
func stddev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var ss float64
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(values)-1))
}
