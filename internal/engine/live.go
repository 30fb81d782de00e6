package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/jai-fire/production-grade-ai-trading-system/internal/backtest"
	"github.com/jai-fire/production-grade-ai-trading-system/internal/errors"
	"github.com/jai-fire/production-grade-ai-trading-system/internal/exchange"
	"github.com/jai-fire/production-grade-ai-trading-system/internal/execution"
	"github.com/jai-fire/production-grade-ai-trading-system/internal/logger"
	"github.com/jai-fire/production-grade-ai-trading-system/internal/monitoring"
	"github.com/jai-fire/production-grade-ai-trading-system/internal/notifications"
	"github.com/jai-fire/production-grade-ai-trading-system/internal/portfolio"
	"github.com/jai-fire/production-grade-ai-trading-system/internal/risk"
	"github.com/jai-fire/production-grade-ai-trading-system/internal/signal"
	"github.com/jai-fire/production-grade-ai-trading-system/pkg/config"
	"github.com/jai-fire/production-grade-ai-trading-system/pkg/data"
	"github.com/jai-fire/production-grade-ai-trading-system/pkg/types"
)

// LiveEngine runs the decision pipeline against a live candle stream.
// One goroutine owns the ledger and the rolling window; bars arrive on
// the stream channel and are processed strictly in order, exactly like
// a backtest replay. An invariant violation halts trading rather than
// continuing on corrupt state.
type LiveEngine struct {
	cfg        *config.Config
	aggregator *signal.Aggregator
	evaluator  risk.Evaluator
	executor   execution.Executor
	ledger     *portfolio.Ledger
	feed       *data.Feed
	log        *logger.Logger
	notifier   notifications.Notifier
	health     *monitoring.HealthChecker

	window []types.Bar
}

// NewLiveEngine wires the live pipeline together.
func NewLiveEngine(cfg *config.Config, aggregator *signal.Aggregator, evaluator risk.Evaluator,
	executor execution.Executor, ledger *portfolio.Ledger, log *logger.Logger,
	notifier notifications.Notifier, health *monitoring.HealthChecker) *LiveEngine {
	return &LiveEngine{
		cfg:        cfg,
		aggregator: aggregator,
		evaluator:  evaluator,
		executor:   executor,
		ledger:     ledger,
		feed:       data.NewFeed(cfg.Symbol),
		log:        log,
		notifier:   notifier,
		health:     health,
		window:     make([]types.Bar, 0, cfg.WindowSize+1),
	}
}

// Bootstrap fills the rolling window with recent closed candles over
// REST so the first streamed bar already has full indicator history.
// The newest candle is dropped because it may still be forming.
func (e *LiveEngine) Bootstrap(ctx context.Context, client *exchange.Client) error {
	need := e.cfg.WindowSize + 1
	bars, err := client.GetKlines(ctx, e.cfg.Symbol, exchange.BybitInterval(e.cfg.Interval), time.Time{}, time.Time{}, need+1)
	if err != nil {
		return err
	}
	if len(bars) > 0 {
		bars = bars[:len(bars)-1]
	}
	if len(bars) < need {
		return fmt.Errorf("bootstrap returned %d closed bars, need %d", len(bars), need)
	}

	bars = e.feed.Replay(bars)
	e.window = append(e.window, bars[len(bars)-need:]...)
	e.log.Info("Bootstrapped %d bars of %s %s history, last close %s",
		len(e.window), e.cfg.Symbol, e.cfg.Interval,
		e.window[len(e.window)-1].OpenTime.Format(time.RFC3339))
	return nil
}

// Run consumes bars until the stream closes or the context is
// cancelled. Returns the halting error when trading stopped on an
// invariant violation.
func (e *LiveEngine) Run(ctx context.Context, bars <-chan types.Bar) error {
	e.health.SetConnected(true)
	defer e.health.SetConnected(false)

	for {
		select {
		case <-ctx.Done():
			e.log.Info("Shutting down on signal")
			return nil
		case bar, ok := <-bars:
			if !ok {
				e.log.Info("Bar stream closed")
				return nil
			}
			if err := e.handleBar(ctx, bar); err != nil {
				e.log.Error("Trading halted: %v", err)
				if nerr := e.notifier.NotifyHalt(err.Error()); nerr != nil {
					e.log.Warning("Failed to send halt alert: %v", nerr)
				}
				return err
			}
		}
	}
}

func (e *LiveEngine) handleBar(ctx context.Context, bar types.Bar) error {
	if err := e.feed.Accept(bar); err != nil {
		// Out-of-order or duplicate candles are dropped, not fatal.
		e.log.Warning("Rejected bar %s: %v", bar.OpenTime.Format(time.RFC3339), err)
		monitoring.RecordError(string(errors.CategoryFeed))
		return nil
	}

	e.window = append(e.window, bar)
	if len(e.window) > e.cfg.WindowSize+1 {
		e.window = e.window[len(e.window)-e.cfg.WindowSize-1:]
	}

	e.health.RecordBar(bar.Close, bar.OpenTime)
	monitoring.RecordBar(bar.Symbol, bar.Close)

	if len(e.window) < e.cfg.WindowSize+1 {
		return nil
	}

	rec := backtest.TraceRecord{
		BarTime: bar.OpenTime,
		Symbol:  bar.Symbol,
		Close:   bar.Close,
	}

	fills, err := e.executor.ProcessBar(ctx, bar)
	rec.Fills = append(rec.Fills, fills...)
	if err != nil {
		if errors.IsInvariantViolation(err) {
			return err
		}
		rec.ExecErr = err.Error()
		monitoring.RecordError(string(errors.CategoryOf(err)))
	}

	rec.Signal = e.aggregator.Aggregate(ctx, bar, e.window)
	monitoring.RecordSignal(bar.Symbol, rec.Signal.Direction.String())

	rec.Decision = e.evaluator.Evaluate(rec.Signal, bar, e.ledger.Snapshot())
	if !rec.Decision.Approved && rec.Decision.Reason != "" {
		monitoring.RecordRejection(bar.Symbol, string(rec.Decision.Reason))
	}

	if rec.Decision.Approved {
		fill, err := e.executor.Submit(ctx, rec.Decision, rec.Signal, bar)
		if err != nil {
			if errors.IsInvariantViolation(err) {
				return err
			}
			rec.ExecErr = err.Error()
			monitoring.RecordError(string(errors.CategoryOf(err)))
			e.health.RecordError(err.Error())
		} else if fill != nil {
			rec.Fills = append(rec.Fills, *fill)
		}
	}

	if err := e.ledger.MarkToMarket(bar); err != nil {
		return err
	}

	snap := e.ledger.Snapshot()
	monitoring.UpdateEquity(snap.Equity)

	for _, fill := range rec.Fills {
		monitoring.RecordFill(fill.Symbol, fill.Side.String(), fill.Price*fill.Size)
		if err := e.notifier.NotifyFill(fill); err != nil {
			e.log.Warning("Failed to send fill alert: %v", err)
		}
	}

	e.log.TraceBar(rec)
	return nil
}
