package reporting

import (
	"fmt"
	"os"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/jai-fire/production-grade-ai-trading-system/internal/backtest"
)

// DefaultChartReporter renders the equity curve as a standalone HTML
// chart.
type DefaultChartReporter struct {
	paths *DefaultPathManager
}

// NewDefaultChartReporter creates a new chart reporter
func NewDefaultChartReporter() *DefaultChartReporter {
	return &DefaultChartReporter{paths: NewDefaultPathManager()}
}

// WriteEquityChart writes an interactive equity and exposure chart.
func (r *DefaultChartReporter) WriteEquityChart(result *backtest.Result, path string) error {
	if err := r.paths.EnsureDirectoryExists(path); err != nil {
		return err
	}

	curve := result.EquityCurve
	xAxis := make([]string, 0, len(curve))
	equity := make([]opts.LineData, 0, len(curve))
	exposure := make([]opts.LineData, 0, len(curve))
	for _, point := range curve {
		xAxis = append(xAxis, point.Time.Format(time.DateTime))
		equity = append(equity, opts.LineData{Value: point.Equity})
		exposure = append(exposure, opts.LineData{Value: point.Exposure * 100})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: fmt.Sprintf("%s %s equity", result.Symbol, result.Interval),
			Width:     "1400px",
			Height:    "600px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("Equity Curve - %s %s", result.Symbol, result.Interval),
			Subtitle: fmt.Sprintf("Run %s | $%.2f → $%.2f", result.RunID, result.StartBalance, result.EndBalance),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", XAxisIndex: []int{0}}),
		charts.WithYAxisOpts(opts.YAxis{Scale: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)

	line.SetXAxis(xAxis)
	line.AddSeries("Equity $", equity,
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}))
	line.AddSeries("Exposure %", exposure,
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}))

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return line.Render(f)
}
