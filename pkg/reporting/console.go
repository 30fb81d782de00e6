package reporting

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/jai-fire/production-grade-ai-trading-system/internal/backtest"
)

// DefaultConsoleReporter implements console output functionality
type DefaultConsoleReporter struct{}

// NewDefaultConsoleReporter creates a new console reporter
func NewDefaultConsoleReporter() *DefaultConsoleReporter {
	return &DefaultConsoleReporter{}
}

// OutputResults prints the run summary to the console.
func (r *DefaultConsoleReporter) OutputResults(result *backtest.Result) {
	rep := result.Report()

	fmt.Println("\n" + strings.Repeat("=", 50))
	fmt.Println("📊 BACKTEST RESULTS")
	fmt.Println(strings.Repeat("=", 50))

	fmt.Printf("🆔 Run ID:             %s\n", result.RunID)
	fmt.Printf("📅 Period:             %s → %s\n",
		result.StartTime.Format("2006-01-02"), result.EndTime.Format("2006-01-02"))
	fmt.Printf("🕯️  Bars Processed:     %d (%d rejected by feed)\n", result.BarsTotal, result.BarsRejected)
	fmt.Printf("💰 Initial Balance:    $%.2f\n", result.StartBalance)
	fmt.Printf("💰 Final Balance:      $%.2f\n", result.EndBalance)
	fmt.Printf("📈 Total Return:       %.2f%%\n", rep.TotalReturn*100)
	fmt.Printf("📈 Annualized Return:  %.2f%%\n", rep.AnnualizedReturn*100)
	fmt.Printf("📉 Max Drawdown:       %.2f%%\n", rep.MaxDrawdown*100)
	fmt.Printf("📊 Sharpe Ratio:       %.2f\n", rep.SharpeRatio)
	fmt.Printf("📊 Sortino Ratio:      %.2f\n", rep.SortinoRatio)
	fmt.Printf("📊 Calmar Ratio:       %.2f\n", rep.CalmarRatio)
	fmt.Printf("💹 Profit Factor:      %s\n", formatRatio(rep.ProfitFactor))
	fmt.Printf("🔄 Total Trades:       %d\n", rep.TotalTrades)

	winRate := 0.0
	loseRate := 0.0
	if rep.TotalTrades > 0 {
		winRate = float64(rep.WinningTrades) / float64(rep.TotalTrades) * 100
		loseRate = float64(rep.LosingTrades) / float64(rep.TotalTrades) * 100
	}
	fmt.Printf("✅ Winning Trades:     %d (%.1f%%)\n", rep.WinningTrades, winRate)
	fmt.Printf("❌ Losing Trades:      %d (%.1f%%)\n", rep.LosingTrades, loseRate)
	fmt.Printf("🎯 Max Exposure:       %.1f%%\n", rep.MaxExposure*100)
	fmt.Printf("🎯 Avg Exposure:       %.1f%%\n", rep.AvgExposure*100)
	fmt.Printf("💸 Total Fees:         $%.2f\n", rep.TotalFees)
}

// OutputTrades prints the most recent trades as a table. A limit of 0
// prints everything.
func (r *DefaultConsoleReporter) OutputTrades(result *backtest.Result, limit int) {
	trades := result.Trades
	if len(trades) == 0 {
		fmt.Println("\nNo trades executed.")
		return
	}
	if limit > 0 && len(trades) > limit {
		fmt.Printf("\n🔄 Last %d of %d trades:\n", limit, len(trades))
		trades = trades[len(trades)-limit:]
	} else {
		fmt.Printf("\n🔄 Trades (%d):\n", len(trades))
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"#", "Side", "Entry Time", "Entry", "Exit", "Size", "PnL $", "Fees $", "Exit Reason"})

	for i, trade := range trades {
		t.AppendRow(table.Row{
			i + 1,
			trade.Side,
			trade.OpenedAt.Format(time.DateTime),
			fmt.Sprintf("%.4f", trade.EntryPrice),
			fmt.Sprintf("%.4f", trade.ExitPrice),
			fmt.Sprintf("%.6f", trade.Size),
			fmt.Sprintf("%+.2f", trade.PnL),
			fmt.Sprintf("%.2f", trade.Fees),
			trade.ExitReason,
		})
	}

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 7, Align: text.AlignRight},
		{Number: 8, Align: text.AlignRight},
	})
	t.Render()
}

func formatRatio(v float64) string {
	if math.IsInf(v, 1) {
		return "∞"
	}
	return fmt.Sprintf("%.2f", v)
}
