package logger

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jai-fire/production-grade-ai-trading-system/internal/backtest"
	"github.com/jai-fire/production-grade-ai-trading-system/pkg/types"
)

// Logger writes the per-bar decision trace and engine events to a file
// under logs/. One file per symbol, interval and day.
type Logger struct {
	symbol   string
	interval string
	logFile  *os.File
	logger   *log.Logger
	mu       sync.Mutex
}

// LogLevel represents different types of log entries
type LogLevel string

const (
	LogLevelInfo   LogLevel = "INFO"
	LogLevelWarn   LogLevel = "WARN"
	LogLevelError  LogLevel = "ERROR"
	LogLevelSignal LogLevel = "SIGNAL"
	LogLevelTrade  LogLevel = "TRADE"
)

// NewLogger creates a file logger for the specified symbol and interval.
func NewLogger(symbol, interval string) (*Logger, error) {
	logDir := "logs"
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02")
	filename := fmt.Sprintf("%s_%s_%s.log", symbol, interval, timestamp)
	logPath := filepath.Join(logDir, filename)

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	l := &Logger{
		symbol:   symbol,
		interval: interval,
		logFile:  file,
		logger:   log.New(file, "", 0),
	}

	l.writeSessionHeader()
	return l, nil
}

// writeSessionHeader writes a session start header to the log
func (l *Logger) writeSessionHeader() {
	l.mu.Lock()
	defer l.mu.Unlock()

	header := fmt.Sprintf(`
================================================================================
🚀 TRADING SESSION STARTED
================================================================================
Symbol: %s | Interval: %s
Started: %s
================================================================================
`, l.symbol, l.interval, time.Now().Format("2006-01-02 15:04:05"))

	l.logger.Print(header)
}

// Log writes a formatted log entry with the specified level
func (l *Logger) Log(level LogLevel, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	message := fmt.Sprintf(format, args...)
	l.logger.Println(fmt.Sprintf("[%s] [%s] %s", timestamp, level, message))
}

// Info logs an info message
func (l *Logger) Info(format string, args ...interface{}) {
	l.Log(LogLevelInfo, format, args...)
}

// Warning logs a warning message
func (l *Logger) Warning(format string, args ...interface{}) {
	l.Log(LogLevelWarn, format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.Log(LogLevelError, format, args...)
}

// TraceBar logs one bar's full decision trace: source scores, the
// aggregate signal, the risk verdict and any fills. It implements
// backtest.Tracer so the engine can be wired to a file trace directly.
func (l *Logger) TraceBar(rec backtest.TraceRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()

	barTime := rec.BarTime.Format("2006-01-02 15:04:05")

	sources := ""
	for name, score := range rec.Signal.Sources {
		if score.Err != "" {
			sources += fmt.Sprintf(" %s=ERR(%s)", name, score.Err)
		} else {
			sources += fmt.Sprintf(" %s=%.3f", name, score.Score)
		}
	}

	entry := fmt.Sprintf("[%s] [SIGNAL] %s close=%.4f direction=%s strength=%.3f sources:%s",
		barTime, rec.Symbol, rec.Close, rec.Signal.Direction, rec.Signal.Strength, sources)

	if rec.Signal.Direction != types.DirectionFlat || rec.Decision.Reason != "" {
		if rec.Decision.Approved {
			entry += fmt.Sprintf("\n[%s] [SIGNAL] ✅ approved %s size=%.6f notional=$%.2f stop=%.4f target=%.4f",
				barTime, rec.Decision.Side, rec.Decision.Size, rec.Decision.Notional,
				rec.Decision.StopLoss, rec.Decision.TakeProfit)
		} else {
			entry += fmt.Sprintf("\n[%s] [SIGNAL] 🚫 rejected: %s", barTime, rec.Decision.Reason)
		}
	}

	for _, fill := range rec.Fills {
		action := "OPEN"
		if fill.Reduce {
			action = fmt.Sprintf("CLOSE(%s)", fill.ExitReason)
		}
		entry += fmt.Sprintf("\n[%s] [TRADE] 💰 %s %s %.6f @ $%.4f fee=$%.4f order=%s",
			barTime, action, fill.Side, fill.Size, fill.Price, fill.Fee, fill.OrderID)
	}

	if rec.ExecErr != "" {
		entry += fmt.Sprintf("\n[%s] [ERROR] execution failed: %s", barTime, rec.ExecErr)
	}

	l.logger.Println(entry)
}

// LogFill logs a single fill outside the bar trace, for the live loop.
func (l *Logger) LogFill(fill types.Fill) {
	action := "OPEN"
	if fill.Reduce {
		action = fmt.Sprintf("CLOSE(%s)", fill.ExitReason)
	}
	l.Log(LogLevelTrade, "💰 %s %s %.6f @ $%.4f fee=$%.4f order=%s",
		action, fill.Side, fill.Size, fill.Price, fill.Fee, fill.OrderID)
}

// LogSessionSummary writes a session footer with final results.
func (l *Logger) LogSessionSummary(startBalance, endBalance float64, totalTrades int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	returnPct := 0.0
	if startBalance > 0 {
		returnPct = (endBalance/startBalance - 1) * 100
	}

	footer := fmt.Sprintf(`
================================================================================
🏁 TRADING SESSION ENDED
================================================================================
Ended: %s
Start Balance: $%.2f | End Balance: $%.2f | Return: %.2f%%
Total Trades: %d
================================================================================
`, time.Now().Format("2006-01-02 15:04:05"), startBalance, endBalance, returnPct, totalTrades)

	l.logger.Print(footer)
}

// Close closes the log file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.logFile != nil {
		return l.logFile.Close()
	}
	return nil
}
