package reporting

import (
	"github.com/jai-fire/production-grade-ai-trading-system/internal/backtest"
)

// Package reporting generates run artifacts: console summary, trade log
// files, metrics JSON and the equity chart.

// ConsoleReporter defines interface for console output
type ConsoleReporter interface {
	OutputResults(result *backtest.Result)
	OutputTrades(result *backtest.Result, limit int)
}

// FileReporter defines interface for file output
type FileReporter interface {
	WriteTradesCSV(result *backtest.Result, path string) error
	WriteEquityCSV(result *backtest.Result, path string) error
	WriteTradesXLSX(result *backtest.Result, path string) error
	WriteMetricsJSON(result *backtest.Result, path string) error
	WriteEquityChart(result *backtest.Result, path string) error
}

// PathManager defines interface for output path management
type PathManager interface {
	GetDefaultOutputDir(symbol, interval string) string
	EnsureDirectoryExists(path string) error
}
