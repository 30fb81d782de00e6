package portfolio

import (
	"fmt"
	"time"

	"github.com/jai-fire/production-grade-ai-trading-system/internal/errors"
	"github.com/jai-fire/production-grade-ai-trading-system/pkg/types"
)

// Snapshot is a read-only copy of the ledger state handed to the risk
// manager. Decisions are pure functions of a snapshot, never of the
// live ledger.
type Snapshot struct {
	Time      time.Time
	Cash      float64
	Equity    float64
	Exposure  float64 // aggregate open notional in quote units
	DailyLoss float64 // realized losses within the snapshot's UTC day
	Positions map[string]types.Position
}

// Ledger owns cash, open positions, the trade log and the equity curve.
// It is the single owner of portfolio state: the only mutation entry
// points are ApplyFill and MarkToMarket, and in live operation both are
// called from one goroutine (single-writer discipline).
type Ledger struct {
	cash        float64
	positions   map[string]types.Position
	entryFees   map[string]float64
	lastPrice   map[string]float64
	trades      []types.Trade
	equityCurve []types.EquityPoint

	// realized loss per UTC day, for the daily-loss circuit breaker
	lossDay       time.Time
	realizedLoss  float64
	startBalance  float64
	lastMarkTime  time.Time
}

// NewLedger creates a ledger with the given starting cash balance.
func NewLedger(initialBalance float64) *Ledger {
	return &Ledger{
		cash:         initialBalance,
		startBalance: initialBalance,
		positions:    make(map[string]types.Position),
		entryFees:    make(map[string]float64),
		lastPrice:    make(map[string]float64),
	}
}

// ApplyFill mutates cash and positions for one executed fill. Opening a
// position over an existing one for the same symbol, or driving cash
// negative, is ledger corruption and returns a fatal invariant
// violation.
func (l *Ledger) ApplyFill(fill types.Fill) error {
	if fill.Reduce {
		return l.applyClose(fill)
	}
	return l.applyOpen(fill)
}

func (l *Ledger) applyOpen(fill types.Fill) error {
	if _, exists := l.positions[fill.Symbol]; exists {
		return errors.NewInvariantViolation("ledger",
			fmt.Sprintf("opening fill for %s while a position is already open", fill.Symbol)).
			WithContext("fill_time", fill.Time)
	}

	notional := fill.Price * fill.Size
	cost := notional + fill.Fee
	if cost > l.cash {
		return errors.NewInvariantViolation("ledger",
			fmt.Sprintf("opening fill for %s would drive cash negative (cost %.2f, cash %.2f)",
				fill.Symbol, cost, l.cash)).
			WithContext("fill_time", fill.Time)
	}

	l.cash -= cost
	l.positions[fill.Symbol] = types.Position{
		Symbol:     fill.Symbol,
		Side:       fill.Side,
		EntryPrice: fill.Price,
		Size:       fill.Size,
		StopLoss:   fill.StopLoss,
		TakeProfit: fill.TakeProfit,
		OpenedAt:   fill.Time,
	}
	l.entryFees[fill.Symbol] = fill.Fee
	l.lastPrice[fill.Symbol] = fill.Price
	return nil
}

func (l *Ledger) applyClose(fill types.Fill) error {
	pos, exists := l.positions[fill.Symbol]
	if !exists {
		return errors.NewInvariantViolation("ledger",
			fmt.Sprintf("reducing fill for %s with no open position", fill.Symbol)).
			WithContext("fill_time", fill.Time)
	}

	entryFee := l.entryFees[fill.Symbol]
	gross := pos.Side.Sign() * (fill.Price - pos.EntryPrice) * pos.Size
	pnl := gross - entryFee - fill.Fee

	// Release the reserved entry notional plus the realized move, net of
	// the exit fee (the entry fee was paid at open).
	l.cash += pos.EntryPrice*pos.Size + gross - fill.Fee

	trade := types.Trade{
		Symbol:     pos.Symbol,
		Side:       pos.Side,
		EntryPrice: pos.EntryPrice,
		ExitPrice:  fill.Price,
		Size:       pos.Size,
		OpenedAt:   pos.OpenedAt,
		ClosedAt:   fill.Time,
		PnL:        pnl,
		Fees:       entryFee + fill.Fee,
		ExitReason: fill.ExitReason,
	}
	l.trades = append(l.trades, trade)

	if pnl < 0 {
		l.accumulateLoss(fill.Time, -pnl)
	}

	delete(l.positions, fill.Symbol)
	delete(l.entryFees, fill.Symbol)
	l.lastPrice[fill.Symbol] = fill.Price
	return nil
}

// MarkToMarket revalues open positions at the bar's close and appends
// exactly one equity point. Bar times must strictly increase.
func (l *Ledger) MarkToMarket(bar types.Bar) error {
	if !l.lastMarkTime.IsZero() && !bar.OpenTime.After(l.lastMarkTime) {
		return errors.NewInvariantViolation("ledger",
			"mark-to-market bar time does not advance").
			WithContext("bar_time", bar.OpenTime).
			WithContext("last_mark", l.lastMarkTime)
	}
	l.lastPrice[bar.Symbol] = bar.Close

	equity := l.cash
	notional := 0.0
	for sym, pos := range l.positions {
		price := l.lastPrice[sym]
		equity += markValue(pos, price)
		notional += pos.Notional(price)
	}

	exposure := 0.0
	if equity > 0 {
		exposure = notional / equity
	}

	l.equityCurve = append(l.equityCurve, types.EquityPoint{
		Time:     bar.OpenTime,
		Equity:   equity,
		Exposure: exposure,
	})
	l.lastMarkTime = bar.OpenTime
	return nil
}

// markValue is the position's contribution to equity: the reserved
// entry notional plus unrealized P&L. For longs this reduces to
// size*price; for shorts to size*(2*entry - price).
func markValue(pos types.Position, price float64) float64 {
	return pos.EntryPrice*pos.Size + pos.UnrealizedPnL(price)
}

// Snapshot returns a copy of the current state for pure decisioning.
func (l *Ledger) Snapshot() Snapshot {
	positions := make(map[string]types.Position, len(l.positions))
	equity := l.cash
	notional := 0.0
	for sym, pos := range l.positions {
		positions[sym] = pos
		price := l.lastPrice[sym]
		equity += markValue(pos, price)
		notional += pos.Notional(price)
	}
	return Snapshot{
		Time:      l.lastMarkTime,
		Cash:      l.cash,
		Equity:    equity,
		Exposure:  notional,
		DailyLoss: l.RealizedLossToday(l.lastMarkTime),
		Positions: positions,
	}
}

// Position returns the open position for a symbol, if any.
func (l *Ledger) Position(symbol string) (types.Position, bool) {
	pos, ok := l.positions[symbol]
	return pos, ok
}

// OpenPositions returns the number of open positions.
func (l *Ledger) OpenPositions() int {
	return len(l.positions)
}

// Cash returns the current cash balance.
func (l *Ledger) Cash() float64 {
	return l.cash
}

// StartBalance returns the initial cash balance.
func (l *Ledger) StartBalance() float64 {
	return l.startBalance
}

// TradeLog returns a copy of the closed-trade log.
func (l *Ledger) TradeLog() []types.Trade {
	out := make([]types.Trade, len(l.trades))
	copy(out, l.trades)
	return out
}

// EquityCurve returns a copy of the equity curve.
func (l *Ledger) EquityCurve() []types.EquityPoint {
	out := make([]types.EquityPoint, len(l.equityCurve))
	copy(out, l.equityCurve)
	return out
}

// RealizedLossToday returns the realized losses accumulated within the
// UTC day containing now. Used by the daily-loss circuit breaker.
func (l *Ledger) RealizedLossToday(now time.Time) float64 {
	day := now.UTC().Truncate(24 * time.Hour)
	if !day.Equal(l.lossDay) {
		return 0
	}
	return l.realizedLoss
}

func (l *Ledger) accumulateLoss(at time.Time, loss float64) {
	day := at.UTC().Truncate(24 * time.Hour)
	if !day.Equal(l.lossDay) {
		l.lossDay = day
		l.realizedLoss = 0
	}
	l.realizedLoss += loss
}
