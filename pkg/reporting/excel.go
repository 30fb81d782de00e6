package reporting

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/jai-fire/production-grade-ai-trading-system/internal/backtest"
)

const (
	summarySheet = "Summary"
	tradesSheet  = "Trades"
	equitySheet  = "Equity Curve"
)

// ExcelStyles holds the reusable cell styles for the workbook.
type ExcelStyles struct {
	Header   int
	Currency int
	Percent  int
	RedPnL   int
	GreenPnL int
	Base     int
}

// DefaultExcelReporter implements XLSX output functionality
type DefaultExcelReporter struct {
	paths *DefaultPathManager
}

// NewDefaultExcelReporter creates a new Excel reporter
func NewDefaultExcelReporter() *DefaultExcelReporter {
	return &DefaultExcelReporter{paths: NewDefaultPathManager()}
}

// WriteTradesXLSX writes a workbook with the run summary, trade log and
// equity curve.
func (r *DefaultExcelReporter) WriteTradesXLSX(result *backtest.Result, path string) error {
	if err := r.paths.EnsureDirectoryExists(path); err != nil {
		return err
	}

	fx := excelize.NewFile()
	defer fx.Close()

	fx.SetSheetName("Sheet1", summarySheet)
	fx.NewSheet(tradesSheet)
	fx.NewSheet(equitySheet)

	styles, err := createExcelStyles(fx)
	if err != nil {
		return err
	}

	if err := writeSummarySheet(fx, result, styles); err != nil {
		return err
	}
	if err := writeTradesSheet(fx, result, styles); err != nil {
		return err
	}
	if err := writeEquitySheet(fx, result, styles); err != nil {
		return err
	}

	return fx.SaveAs(path)
}

func createExcelStyles(fx *excelize.File) (ExcelStyles, error) {
	var styles ExcelStyles
	var err error

	styles.Header, err = fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold:  true,
			Color: "FFFFFF",
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"4472C4"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
		},
	})
	if err != nil {
		return styles, err
	}

	styles.Currency, err = fx.NewStyle(&excelize.Style{
		NumFmt: 177, // $#,##0.00
	})
	if err != nil {
		return styles, err
	}

	styles.Percent, err = fx.NewStyle(&excelize.Style{
		NumFmt: 10, // 0.00%
	})
	if err != nil {
		return styles, err
	}

	styles.RedPnL, err = fx.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Color: "CC0000"},
		NumFmt: 177,
	})
	if err != nil {
		return styles, err
	}

	styles.GreenPnL, err = fx.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Color: "007700"},
		NumFmt: 177,
	})
	if err != nil {
		return styles, err
	}

	styles.Base, err = fx.NewStyle(&excelize.Style{})
	return styles, err
}

func writeSummarySheet(fx *excelize.File, result *backtest.Result, styles ExcelStyles) error {
	rep := result.Report()

	rows := []struct {
		label string
		value interface{}
		style int
	}{
		{"Run ID", result.RunID, styles.Base},
		{"Symbol", result.Symbol, styles.Base},
		{"Interval", result.Interval, styles.Base},
		{"Start", result.StartTime.Format(time.DateTime), styles.Base},
		{"End", result.EndTime.Format(time.DateTime), styles.Base},
		{"Initial Balance", result.StartBalance, styles.Currency},
		{"Final Balance", result.EndBalance, styles.Currency},
		{"Total Return", rep.TotalReturn, styles.Percent},
		{"Annualized Return", rep.AnnualizedReturn, styles.Percent},
		{"Max Drawdown", rep.MaxDrawdown, styles.Percent},
		{"Sharpe Ratio", rep.SharpeRatio, styles.Base},
		{"Sortino Ratio", rep.SortinoRatio, styles.Base},
		{"Win Rate", rep.WinRate, styles.Percent},
		{"Total Trades", rep.TotalTrades, styles.Base},
		{"Total Fees", rep.TotalFees, styles.Currency},
	}

	fx.SetCellValue(summarySheet, "A1", "Metric")
	fx.SetCellValue(summarySheet, "B1", "Value")
	fx.SetCellStyle(summarySheet, "A1", "B1", styles.Header)

	for i, row := range rows {
		labelCell := fmt.Sprintf("A%d", i+2)
		valueCell := fmt.Sprintf("B%d", i+2)
		fx.SetCellValue(summarySheet, labelCell, row.label)
		fx.SetCellValue(summarySheet, valueCell, row.value)
		fx.SetCellStyle(summarySheet, valueCell, valueCell, row.style)
	}

	fx.SetColWidth(summarySheet, "A", "A", 22)
	fx.SetColWidth(summarySheet, "B", "B", 40)
	return nil
}

func writeTradesSheet(fx *excelize.File, result *backtest.Result, styles ExcelStyles) error {
	headers := []string{"#", "Side", "Entry Time", "Exit Time", "Entry Price", "Exit Price", "Size", "PnL $", "Fees $", "Exit Reason"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		fx.SetCellValue(tradesSheet, cell, header)
		fx.SetCellStyle(tradesSheet, cell, cell, styles.Header)
	}

	for i, trade := range result.Trades {
		row := i + 2
		values := []interface{}{
			i + 1,
			trade.Side.String(),
			trade.OpenedAt.Format(time.DateTime),
			trade.ClosedAt.Format(time.DateTime),
			trade.EntryPrice,
			trade.ExitPrice,
			trade.Size,
			trade.PnL,
			trade.Fees,
			string(trade.ExitReason),
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			fx.SetCellValue(tradesSheet, cell, value)
		}

		pnlCell, _ := excelize.CoordinatesToCellName(8, row)
		if trade.PnL >= 0 {
			fx.SetCellStyle(tradesSheet, pnlCell, pnlCell, styles.GreenPnL)
		} else {
			fx.SetCellStyle(tradesSheet, pnlCell, pnlCell, styles.RedPnL)
		}
	}

	fx.SetColWidth(tradesSheet, "C", "D", 20)
	return nil
}

func writeEquitySheet(fx *excelize.File, result *backtest.Result, styles ExcelStyles) error {
	headers := []string{"Time", "Equity $", "Exposure"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		fx.SetCellValue(equitySheet, cell, header)
		fx.SetCellStyle(equitySheet, cell, cell, styles.Header)
	}

	for i, point := range result.EquityCurve {
		row := i + 2
		timeCell, _ := excelize.CoordinatesToCellName(1, row)
		equityCell, _ := excelize.CoordinatesToCellName(2, row)
		exposureCell, _ := excelize.CoordinatesToCellName(3, row)

		fx.SetCellValue(equitySheet, timeCell, point.Time.Format(time.DateTime))
		fx.SetCellValue(equitySheet, equityCell, point.Equity)
		fx.SetCellStyle(equitySheet, equityCell, equityCell, styles.Currency)
		fx.SetCellValue(equitySheet, exposureCell, point.Exposure)
		fx.SetCellStyle(equitySheet, exposureCell, exposureCell, styles.Percent)
	}

	fx.SetColWidth(equitySheet, "A", "A", 20)
	return nil
}
