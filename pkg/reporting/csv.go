package reporting

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/jai-fire/production-grade-ai-trading-system/internal/backtest"
)

// DefaultCSVReporter implements CSV output functionality
type DefaultCSVReporter struct {
	paths *DefaultPathManager
}

// NewDefaultCSVReporter creates a new CSV reporter
func NewDefaultCSVReporter() *DefaultCSVReporter {
	return &DefaultCSVReporter{paths: NewDefaultPathManager()}
}

// WriteTradesCSV writes the trade log to a CSV file.
func (r *DefaultCSVReporter) WriteTradesCSV(result *backtest.Result, path string) error {
	if err := r.paths.EnsureDirectoryExists(path); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{
		"Trade",
		"Symbol",
		"Side",
		"Entry_Time",
		"Exit_Time",
		"Entry_Price",
		"Exit_Price",
		"Size",
		"PnL_$",
		"Fees_$",
		"Exit_Reason",
		"Win_Loss",
	}); err != nil {
		return err
	}

	for i, trade := range result.Trades {
		winLoss := "LOSS"
		if trade.PnL > 0 {
			winLoss = "WIN"
		}
		record := []string{
			strconv.Itoa(i + 1),
			trade.Symbol,
			trade.Side.String(),
			trade.OpenedAt.Format(time.RFC3339),
			trade.ClosedAt.Format(time.RFC3339),
			fmt.Sprintf("%.8f", trade.EntryPrice),
			fmt.Sprintf("%.8f", trade.ExitPrice),
			fmt.Sprintf("%.8f", trade.Size),
			fmt.Sprintf("%.4f", trade.PnL),
			fmt.Sprintf("%.4f", trade.Fees),
			string(trade.ExitReason),
			winLoss,
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}

// WriteEquityCSV writes the equity curve to a CSV file.
func (r *DefaultCSVReporter) WriteEquityCSV(result *backtest.Result, path string) error {
	if err := r.paths.EnsureDirectoryExists(path); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"Time", "Equity_$", "Exposure"}); err != nil {
		return err
	}
	for _, point := range result.EquityCurve {
		record := []string{
			point.Time.Format(time.RFC3339),
			fmt.Sprintf("%.4f", point.Equity),
			fmt.Sprintf("%.6f", point.Exposure),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}
