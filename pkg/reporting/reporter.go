package reporting

import (
	"fmt"
	"path/filepath"

	"github.com/jai-fire/production-grade-ai-trading-system/internal/backtest"
)

// Reporter bundles all output channels behind one call.
type Reporter struct {
	Console *DefaultConsoleReporter
	CSV     *DefaultCSVReporter
	Excel   *DefaultExcelReporter
	JSON    *DefaultJSONReporter
	Chart   *DefaultChartReporter
}

// NewReporter creates a reporter with every channel enabled.
func NewReporter() *Reporter {
	return &Reporter{
		Console: NewDefaultConsoleReporter(),
		CSV:     NewDefaultCSVReporter(),
		Excel:   NewDefaultExcelReporter(),
		JSON:    NewDefaultJSONReporter(),
		Chart:   NewDefaultChartReporter(),
	}
}

// WriteAll writes every file artifact for a run into outputDir and
// returns the paths written.
func (r *Reporter) WriteAll(result *backtest.Result, outputDir string) ([]string, error) {
	artifacts := []struct {
		name  string
		write func(*backtest.Result, string) error
	}{
		{"trades.csv", r.CSV.WriteTradesCSV},
		{"equity.csv", r.CSV.WriteEquityCSV},
		{"trades.xlsx", r.Excel.WriteTradesXLSX},
		{"metrics.json", r.JSON.WriteMetricsJSON},
		{"equity.html", r.Chart.WriteEquityChart},
	}

	written := make([]string, 0, len(artifacts))
	for _, artifact := range artifacts {
		path := filepath.Join(outputDir, artifact.name)
		if err := artifact.write(result, path); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", artifact.name, err)
		}
		written = append(written, path)
	}
	return written, nil
}
