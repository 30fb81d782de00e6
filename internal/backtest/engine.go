package backtest

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jai-fire/production-grade-ai-trading-system/internal/errors"
	"github.com/jai-fire/production-grade-ai-trading-system/internal/execution"
	"github.com/jai-fire/production-grade-ai-trading-system/internal/portfolio"
	"github.com/jai-fire/production-grade-ai-trading-system/internal/risk"
	"github.com/jai-fire/production-grade-ai-trading-system/internal/signal"
	"github.com/jai-fire/production-grade-ai-trading-system/pkg/config"
	"github.com/jai-fire/production-grade-ai-trading-system/pkg/data"
	"github.com/jai-fire/production-grade-ai-trading-system/pkg/types"
)

// TraceRecord is the per-bar decision trace consumed by logging: what
// the sources said, what risk decided, and what executed.
type TraceRecord struct {
	BarTime  time.Time
	Symbol   string
	Close    float64
	Signal   types.Signal
	Decision types.RiskDecision
	Fills    []types.Fill
	ExecErr  string // set when the bar failed to execute
}

// Tracer receives one TraceRecord per processed bar.
type Tracer interface {
	TraceBar(rec TraceRecord)
}

// Engine replays a historical bar sequence through the full decision
// pipeline: stop/target checks, signal aggregation, risk evaluation,
// execution, mark-to-market. Strictly sequential and single-threaded;
// identical bars, configuration and deterministic providers reproduce
// the trade log and metrics bit for bit.
type Engine struct {
	cfg        *config.Config
	aggregator *signal.Aggregator
	evaluator  risk.Evaluator
	executor   execution.Executor
	ledger     *portfolio.Ledger
	tracer     Tracer
}

// Result is the outcome of one backtest run. Metrics are derived lazily
// from the equity curve and trade log via Report.
type Result struct {
	RunID        string
	Symbol       string
	Interval     string
	StartBalance float64
	EndBalance   float64
	StartTime    time.Time
	EndTime      time.Time
	BarsTotal    int
	BarsRejected int
	Trades       []types.Trade
	EquityCurve  []types.EquityPoint
	metricsCfg   config.Metrics
}

// NewEngine wires the pipeline components together.
func NewEngine(cfg *config.Config, aggregator *signal.Aggregator, evaluator risk.Evaluator,
	executor execution.Executor, ledger *portfolio.Ledger) *Engine {
	return &Engine{
		cfg:        cfg,
		aggregator: aggregator,
		evaluator:  evaluator,
		executor:   executor,
		ledger:     ledger,
	}
}

// SetTracer installs an optional per-bar decision trace sink.
func (e *Engine) SetTracer(t Tracer) {
	e.tracer = t
}

// Run replays the bars. Feed violations are skipped and counted;
// execution failures mark the bar and continue; an invariant violation
// aborts the run with the offending bar's context attached.
func (e *Engine) Run(ctx context.Context, bars []types.Bar) (*Result, error) {
	result := &Result{
		RunID:        uuid.NewString(),
		Symbol:       e.cfg.Symbol,
		Interval:     e.cfg.Interval,
		StartBalance: e.ledger.StartBalance(),
		metricsCfg:   e.cfg.Metrics,
	}

	feed := data.NewFeed(e.cfg.Symbol)
	bars = feed.Replay(bars)
	result.BarsRejected = feed.Rejected()
	result.BarsTotal = len(bars)

	if len(bars) == 0 {
		result.EndBalance = e.ledger.StartBalance()
		return result, nil
	}
	result.StartTime = bars[0].OpenTime
	result.EndTime = bars[len(bars)-1].OpenTime

	windowSize := e.cfg.WindowSize
	for i := windowSize; i < len(bars); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		bar := bars[i]
		window := bars[i-windowSize : i+1]

		if err := e.processBar(ctx, bar, window); err != nil {
			return nil, err
		}
	}

	result.Trades = e.ledger.TradeLog()
	result.EquityCurve = e.ledger.EquityCurve()
	if n := len(result.EquityCurve); n > 0 {
		result.EndBalance = result.EquityCurve[n-1].Equity
	} else {
		result.EndBalance = e.ledger.StartBalance()
	}
	return result, nil
}

func (e *Engine) processBar(ctx context.Context, bar types.Bar, window []types.Bar) error {
	rec := TraceRecord{
		BarTime: bar.OpenTime,
		Symbol:  bar.Symbol,
		Close:   bar.Close,
	}

	// Stop/target monitoring and deferred entries run before any new
	// signal for the bar.
	fills, err := e.executor.ProcessBar(ctx, bar)
	rec.Fills = append(rec.Fills, fills...)
	if err != nil {
		if errors.IsInvariantViolation(err) {
			return err
		}
		rec.ExecErr = err.Error()
	}

	rec.Signal = e.aggregator.Aggregate(ctx, bar, window)
	rec.Decision = e.evaluator.Evaluate(rec.Signal, bar, e.ledger.Snapshot())

	if rec.Decision.Approved {
		fill, err := e.executor.Submit(ctx, rec.Decision, rec.Signal, bar)
		if err != nil {
			if errors.IsInvariantViolation(err) {
				return err
			}
			// Failed-to-execute: state unchanged, decision discarded.
			rec.ExecErr = err.Error()
		} else if fill != nil {
			rec.Fills = append(rec.Fills, *fill)
		}
	}

	if err := e.ledger.MarkToMarket(bar); err != nil {
		return err
	}

	if e.tracer != nil {
		e.tracer.TraceBar(rec)
	}
	return nil
}
