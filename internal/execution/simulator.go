package execution

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jai-fire/production-grade-ai-trading-system/internal/portfolio"
	"github.com/jai-fire/production-grade-ai-trading-system/pkg/config"
	"github.com/jai-fire/production-grade-ai-trading-system/pkg/types"
)

// Simulator fills approved decisions against historical bars. Fills are
// immediate and complete; the price model is the configured reference
// price (signal bar close, or next bar open to avoid look-ahead bias)
// moved adversely by the slippage rate, plus a per-fill fee.
type Simulator struct {
	cfg    config.Execution
	ledger *portfolio.Ledger

	// at most one deferred entry under the next-open fill policy
	pending *pendingEntry
}

type pendingEntry struct {
	decision types.RiskDecision
	signal   types.Signal
}

// NewSimulator creates a simulator that applies fills to the ledger.
func NewSimulator(cfg config.Execution, ledger *portfolio.Ledger) *Simulator {
	return &Simulator{cfg: cfg, ledger: ledger}
}

// Submit executes (or defers) an approved decision. A reversal closes
// the existing opposite position before the new one opens.
func (s *Simulator) Submit(ctx context.Context, decision types.RiskDecision, sig types.Signal, bar types.Bar) (*types.Fill, error) {
	if !decision.Approved {
		return nil, fmt.Errorf("submit called with rejected decision (%s)", decision.Reason)
	}

	if s.cfg.FillPolicy == config.FillAtNextOpen {
		s.pending = &pendingEntry{decision: decision, signal: sig}
		return nil, nil
	}

	fill, err := s.execute(decision, sig.Symbol, bar.Close, bar)
	if err != nil {
		return nil, err
	}
	return &fill, nil
}

// ProcessBar fills a deferred entry at the bar's open, then closes the
// open position if the bar crossed its stop or target. When both are
// crossed within one bar the stop wins: the intrabar order is unknown
// from OHLC alone, so the engine assumes the worse outcome.
func (s *Simulator) ProcessBar(ctx context.Context, bar types.Bar) ([]types.Fill, error) {
	var fills []types.Fill

	if s.pending != nil {
		entry := s.pending
		s.pending = nil
		fill, err := s.execute(entry.decision, entry.signal.Symbol, bar.Open, bar)
		if err != nil {
			return fills, err
		}
		fills = append(fills, fill)
	}

	pos, ok := s.ledger.Position(bar.Symbol)
	if !ok {
		return fills, nil
	}

	exitPrice, reason, hit := checkStops(pos, bar)
	if !hit {
		return fills, nil
	}

	fill := s.closeFill(pos, exitPrice, reason, bar)
	if err := s.ledger.ApplyFill(fill); err != nil {
		return fills, err
	}
	return append(fills, fill), nil
}

// checkStops reports whether the bar crossed the position's stop or
// target, and at which price the exit is assumed to print.
func checkStops(pos types.Position, bar types.Bar) (float64, types.ExitReason, bool) {
	if pos.Side == types.SideLong {
		if pos.StopLoss > 0 && bar.Low <= pos.StopLoss {
			return pos.StopLoss, types.ExitStopLoss, true
		}
		if pos.TakeProfit > 0 && bar.High >= pos.TakeProfit {
			return pos.TakeProfit, types.ExitTakeProfit, true
		}
		return 0, "", false
	}
	if pos.StopLoss > 0 && bar.High >= pos.StopLoss {
		return pos.StopLoss, types.ExitStopLoss, true
	}
	if pos.TakeProfit > 0 && bar.Low <= pos.TakeProfit {
		return pos.TakeProfit, types.ExitTakeProfit, true
	}
	return 0, "", false
}

// execute opens (or reverses into) a position at the reference price.
func (s *Simulator) execute(decision types.RiskDecision, symbol string, refPrice float64, bar types.Bar) (types.Fill, error) {
	// Reversal: close the opposite position at the same reference price
	// before opening the new one.
	if pos, ok := s.ledger.Position(symbol); ok {
		if pos.Side == decision.Side {
			return types.Fill{}, fmt.Errorf("approved entry for %s while same-side position is open", symbol)
		}
		closeFill := s.closeFill(pos, refPrice, types.ExitSignalReversal, bar)
		if err := s.ledger.ApplyFill(closeFill); err != nil {
			return types.Fill{}, err
		}
	}

	price := s.slip(refPrice, decision.Side, false)
	fill := types.Fill{
		Symbol:     symbol,
		Side:       decision.Side,
		Price:      price,
		Size:       decision.Size,
		Fee:        price * decision.Size * s.cfg.FeePercent,
		Time:       bar.OpenTime,
		OrderID:    uuid.NewString(),
		StopLoss:   decision.StopLoss,
		TakeProfit: decision.TakeProfit,
	}
	if err := s.ledger.ApplyFill(fill); err != nil {
		return types.Fill{}, err
	}
	return fill, nil
}

func (s *Simulator) closeFill(pos types.Position, refPrice float64, reason types.ExitReason, bar types.Bar) types.Fill {
	price := s.slip(refPrice, pos.Side, true)
	return types.Fill{
		Symbol:     pos.Symbol,
		Side:       pos.Side,
		Price:      price,
		Size:       pos.Size,
		Fee:        price * pos.Size * s.cfg.FeePercent,
		Time:       bar.OpenTime,
		OrderID:    uuid.NewString(),
		Reduce:     true,
		ExitReason: reason,
	}
}

// slip moves the reference price against the trader: entries pay up,
// exits give back.
func (s *Simulator) slip(price float64, side types.Side, closing bool) float64 {
	adverse := side.Sign()
	if closing {
		adverse = -adverse
	}
	return price * (1 + adverse*s.cfg.SlippagePercent)
}
