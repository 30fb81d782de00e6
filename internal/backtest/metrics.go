package backtest

import (
	"math"

	"github.com/jai-fire/production-grade-ai-trading-system/pkg/config"
	"github.com/jai-fire/production-grade-ai-trading-system/pkg/types"
)

// Report holds the performance metrics derived from one run. It is
// computed from the equity curve and trade log on demand and never
// cached, so it cannot go stale against the data it describes.
type Report struct {
	TotalReturn      float64
	AnnualizedReturn float64
	MaxDrawdown      float64
	SharpeRatio      float64
	SortinoRatio     float64
	CalmarRatio      float64
	ProfitFactor     float64
	WinRate          float64
	TotalTrades      int
	WinningTrades    int
	LosingTrades     int
	MaxExposure      float64
	AvgExposure      float64
	TotalFees        float64
}

// Report derives the metrics for the run using its metrics settings.
func (r *Result) Report() Report {
	cfg := r.metricsCfg
	if cfg.PeriodsPerYear <= 0 {
		cfg.PeriodsPerYear = config.DefaultPeriodsPerYear
	}
	return ComputeReport(r.EquityCurve, r.Trades, cfg)
}

// ComputeReport derives all metrics from an equity curve and trade log.
func ComputeReport(curve []types.EquityPoint, trades []types.Trade, cfg config.Metrics) Report {
	rep := Report{
		TotalReturn:      totalReturn(curve),
		AnnualizedReturn: annualizedReturn(curve, cfg.PeriodsPerYear),
		MaxDrawdown:      MaxDrawdown(curve),
		SharpeRatio:      SharpeRatio(curve, cfg),
		SortinoRatio:     sortinoRatio(curve, cfg),
		ProfitFactor:     profitFactor(trades),
		TotalTrades:      len(trades),
	}

	for _, trade := range trades {
		rep.TotalFees += trade.Fees
		if trade.PnL > 0 {
			rep.WinningTrades++
		} else {
			rep.LosingTrades++
		}
	}
	if rep.TotalTrades > 0 {
		rep.WinRate = float64(rep.WinningTrades) / float64(rep.TotalTrades)
	}

	if rep.MaxDrawdown > 0 {
		rep.CalmarRatio = rep.AnnualizedReturn / rep.MaxDrawdown
	} else if rep.AnnualizedReturn > 0 {
		rep.CalmarRatio = math.Inf(1)
	}

	maxExp, sumExp := 0.0, 0.0
	for _, point := range curve {
		if point.Exposure > maxExp {
			maxExp = point.Exposure
		}
		sumExp += point.Exposure
	}
	rep.MaxExposure = maxExp
	if len(curve) > 0 {
		rep.AvgExposure = sumExp / float64(len(curve))
	}

	return rep
}

func totalReturn(curve []types.EquityPoint) float64 {
	if len(curve) < 2 || curve[0].Equity == 0 {
		return 0
	}
	return curve[len(curve)-1].Equity/curve[0].Equity - 1
}

func annualizedReturn(curve []types.EquityPoint, periodsPerYear float64) float64 {
	if len(curve) < 2 || curve[0].Equity <= 0 || periodsPerYear <= 0 {
		return 0
	}
	periods := float64(len(curve) - 1)
	years := periods / periodsPerYear
	if years <= 0 {
		return 0
	}
	return math.Pow(curve[len(curve)-1].Equity/curve[0].Equity, 1.0/years) - 1.0
}

// MaxDrawdown is the largest peak-to-trough equity decline, as a
// fraction of the peak.
func MaxDrawdown(curve []types.EquityPoint) float64 {
	maxDD := 0.0
	peak := 0.0
	for _, point := range curve {
		if point.Equity > peak {
			peak = point.Equity
		}
		if peak > 0 {
			dd := (peak - point.Equity) / peak
			if dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// SharpeRatio is the annualized ratio of mean excess per-period return
// to its standard deviation.
func SharpeRatio(curve []types.EquityPoint, cfg config.Metrics) float64 {
	returns := periodReturns(curve)
	if len(returns) == 0 {
		return 0
	}

	rfPerPeriod := cfg.RiskFreeRate / cfg.PeriodsPerYear
	excess := make([]float64, len(returns))
	for i, ret := range returns {
		excess[i] = ret - rfPerPeriod
	}

	avg := meanOf(excess)
	sd := stdDevOf(excess, avg)
	if sd < 1e-12 {
		return 0
	}
	return avg / sd * math.Sqrt(cfg.PeriodsPerYear)
}

func sortinoRatio(curve []types.EquityPoint, cfg config.Metrics) float64 {
	returns := periodReturns(curve)
	if len(returns) == 0 {
		return 0
	}

	rfPerPeriod := cfg.RiskFreeRate / cfg.PeriodsPerYear
	avg := meanOf(returns) - rfPerPeriod

	downsideVariance := 0.0
	downsideCount := 0
	for _, ret := range returns {
		if ret < 0 {
			downsideVariance += ret * ret
			downsideCount++
		}
	}
	if downsideCount == 0 {
		if avg > 0 {
			return math.Inf(1)
		}
		return 0
	}

	downside := math.Sqrt(downsideVariance / float64(downsideCount))
	if downside < 1e-12 {
		return 0
	}
	return avg / downside * math.Sqrt(cfg.PeriodsPerYear)
}

func profitFactor(trades []types.Trade) float64 {
	totalProfit := 0.0
	totalLoss := 0.0
	for _, trade := range trades {
		if trade.PnL > 0 {
			totalProfit += trade.PnL
		} else {
			totalLoss += math.Abs(trade.PnL)
		}
	}
	if totalLoss == 0 {
		if totalProfit > 0 {
			return math.Inf(1)
		}
		return 0
	}
	return totalProfit / totalLoss
}

func periodReturns(curve []types.EquityPoint) []float64 {
	if len(curve) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		if curve[i-1].Equity > 0 {
			returns = append(returns, curve[i].Equity/curve[i-1].Equity-1)
		}
	}
	return returns
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stdDevOf(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	variance := 0.0
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	return math.Sqrt(variance / float64(len(values)))
}
