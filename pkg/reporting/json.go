package reporting

import (
	"encoding/json"
	"math"
	"os"

	"github.com/jai-fire/production-grade-ai-trading-system/internal/backtest"
)

// DefaultJSONReporter implements JSON output functionality
type DefaultJSONReporter struct {
	paths *DefaultPathManager
}

// NewDefaultJSONReporter creates a new JSON reporter
func NewDefaultJSONReporter() *DefaultJSONReporter {
	return &DefaultJSONReporter{paths: NewDefaultPathManager()}
}

// metricsDocument is the serialized report. Infinities are not valid
// JSON, so unbounded ratios serialize as null.
type metricsDocument struct {
	RunID            string   `json:"run_id"`
	Symbol           string   `json:"symbol"`
	Interval         string   `json:"interval"`
	StartBalance     float64  `json:"start_balance"`
	EndBalance       float64  `json:"end_balance"`
	TotalReturn      float64  `json:"total_return"`
	AnnualizedReturn float64  `json:"annualized_return"`
	MaxDrawdown      float64  `json:"max_drawdown"`
	SharpeRatio      float64  `json:"sharpe_ratio"`
	SortinoRatio     *float64 `json:"sortino_ratio"`
	CalmarRatio      *float64 `json:"calmar_ratio"`
	ProfitFactor     *float64 `json:"profit_factor"`
	WinRate          float64  `json:"win_rate"`
	TotalTrades      int      `json:"total_trades"`
	WinningTrades    int      `json:"winning_trades"`
	LosingTrades     int      `json:"losing_trades"`
	MaxExposure      float64  `json:"max_exposure"`
	AvgExposure      float64  `json:"avg_exposure"`
	TotalFees        float64  `json:"total_fees"`
	BarsTotal        int      `json:"bars_total"`
	BarsRejected     int      `json:"bars_rejected"`
}

// WriteMetricsJSON writes the derived performance metrics to a file.
func (r *DefaultJSONReporter) WriteMetricsJSON(result *backtest.Result, path string) error {
	if err := r.paths.EnsureDirectoryExists(path); err != nil {
		return err
	}

	rep := result.Report()
	doc := metricsDocument{
		RunID:            result.RunID,
		Symbol:           result.Symbol,
		Interval:         result.Interval,
		StartBalance:     result.StartBalance,
		EndBalance:       result.EndBalance,
		TotalReturn:      rep.TotalReturn,
		AnnualizedReturn: rep.AnnualizedReturn,
		MaxDrawdown:      rep.MaxDrawdown,
		SharpeRatio:      rep.SharpeRatio,
		SortinoRatio:     finiteOrNil(rep.SortinoRatio),
		CalmarRatio:      finiteOrNil(rep.CalmarRatio),
		ProfitFactor:     finiteOrNil(rep.ProfitFactor),
		WinRate:          rep.WinRate,
		TotalTrades:      rep.TotalTrades,
		WinningTrades:    rep.WinningTrades,
		LosingTrades:     rep.LosingTrades,
		MaxExposure:      rep.MaxExposure,
		AvgExposure:      rep.AvgExposure,
		TotalFees:        rep.TotalFees,
		BarsTotal:        result.BarsTotal,
		BarsRejected:     result.BarsRejected,
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func finiteOrNil(v float64) *float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}
