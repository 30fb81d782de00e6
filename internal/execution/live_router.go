package execution

import (
	"context"

	"github.com/jai-fire/production-grade-ai-trading-system/internal/errors"
	"github.com/jai-fire/production-grade-ai-trading-system/internal/portfolio"
	"github.com/jai-fire/production-grade-ai-trading-system/pkg/types"
)

// LiveRouter forwards approved decisions to the exchange provider. The
// decision is frozen before submission: exactly one order-submission
// side effect is attempted per decision, and a provider timeout or
// rejection surfaces as an execution error with the ledger untouched.
type LiveRouter struct {
	provider   OrderProvider
	ledger     *portfolio.Ledger
	feePercent float64
}

// NewLiveRouter creates a router over the exchange provider.
func NewLiveRouter(provider OrderProvider, ledger *portfolio.Ledger, feePercent float64) *LiveRouter {
	return &LiveRouter{provider: provider, ledger: ledger, feePercent: feePercent}
}

// Submit places one market order for the decision. A reversal closes the
// opposite position first; if the closing order succeeds but the opening
// order fails, the close stands: the ledger reflects what actually
// executed on the exchange.
func (r *LiveRouter) Submit(ctx context.Context, decision types.RiskDecision, sig types.Signal, bar types.Bar) (*types.Fill, error) {
	if !decision.Approved {
		return nil, errors.New(errors.CategoryExecution, "live_router", "submit", "rejected decision submitted")
	}

	if pos, ok := r.ledger.Position(sig.Symbol); ok && pos.Side != decision.Side {
		if _, err := r.closePosition(ctx, pos, types.ExitSignalReversal, bar); err != nil {
			return nil, err
		}
	}

	result, err := r.provider.PlaceMarketOrder(ctx, sig.Symbol, decision.Side, decision.Size,
		decision.StopLoss, decision.TakeProfit)
	if err != nil {
		return nil, errors.NewExecutionError("place_order", err).
			WithContext("bar_time", bar.OpenTime).
			WithContext("symbol", sig.Symbol)
	}

	fill := types.Fill{
		Symbol:     sig.Symbol,
		Side:       decision.Side,
		Price:      result.AvgPrice,
		Size:       result.ExecutedQty,
		Fee:        result.AvgPrice * result.ExecutedQty * r.feePercent,
		Time:       bar.OpenTime,
		OrderID:    result.OrderID,
		StopLoss:   decision.StopLoss,
		TakeProfit: decision.TakeProfit,
	}
	if err := r.ledger.ApplyFill(fill); err != nil {
		return nil, err
	}
	return &fill, nil
}

// ProcessBar mirrors the simulator's stop/target monitoring against
// live bars: when the closed bar crossed the open position's stop or
// target, a reducing market order goes out. The exchange also holds the
// stop server-side (attached at entry); this path covers the engine's
// own bookkeeping when the closed bar shows the level was touched.
func (r *LiveRouter) ProcessBar(ctx context.Context, bar types.Bar) ([]types.Fill, error) {
	pos, ok := r.ledger.Position(bar.Symbol)
	if !ok {
		return nil, nil
	}

	_, reason, hit := checkStops(pos, bar)
	if !hit {
		return nil, nil
	}

	fill, err := r.closePosition(ctx, pos, reason, bar)
	if err != nil {
		return nil, err
	}
	return []types.Fill{*fill}, nil
}

func (r *LiveRouter) closePosition(ctx context.Context, pos types.Position, reason types.ExitReason, bar types.Bar) (*types.Fill, error) {
	closeSide := types.SideShort
	if pos.Side == types.SideShort {
		closeSide = types.SideLong
	}

	result, err := r.provider.PlaceMarketOrder(ctx, pos.Symbol, closeSide, pos.Size, 0, 0)
	if err != nil {
		return nil, errors.NewExecutionError("close_position", err).
			WithContext("bar_time", bar.OpenTime).
			WithContext("symbol", pos.Symbol)
	}

	fill := types.Fill{
		Symbol:     pos.Symbol,
		Side:       pos.Side,
		Price:      result.AvgPrice,
		Size:       pos.Size,
		Fee:        result.AvgPrice * pos.Size * r.feePercent,
		Time:       bar.OpenTime,
		OrderID:    result.OrderID,
		Reduce:     true,
		ExitReason: reason,
	}
	if err := r.ledger.ApplyFill(fill); err != nil {
		return nil, err
	}
	return &fill, nil
}
