package execution

import (
	"context"

	"github.com/jai-fire/production-grade-ai-trading-system/pkg/types"
)

// Executor is the single contract behind backtest simulation and live
// order routing. The engine never branches on the mode.
type Executor interface {
	// Submit turns an approved decision into position changes on the
	// ledger. Under a deferred fill policy the returned fill is nil and
	// the entry executes on the next bar via ProcessBar. The decision is
	// frozen: a failed submission is surfaced, never retried with a
	// fresh risk evaluation.
	Submit(ctx context.Context, decision types.RiskDecision, sig types.Signal, bar types.Bar) (*types.Fill, error)

	// ProcessBar runs the per-bar duties that are independent of new
	// signals: executing a deferred entry at the bar's open and closing
	// positions whose stop or target the bar crossed. Called once per
	// bar, before signal aggregation.
	ProcessBar(ctx context.Context, bar types.Bar) ([]types.Fill, error)
}

// OrderResult is the live exchange's acknowledgement of a submitted
// order.
type OrderResult struct {
	OrderID     string
	AvgPrice    float64
	ExecutedQty float64
}

// OrderProvider is the narrow slice of the exchange used by the live
// router.
type OrderProvider interface {
	PlaceMarketOrder(ctx context.Context, symbol string, side types.Side, qty float64, stopLoss, takeProfit float64) (OrderResult, error)
}
