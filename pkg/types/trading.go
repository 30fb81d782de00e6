package types

import "time"

// Direction is the trading intent carried by a Signal.
type Direction int

const (
	DirectionFlat Direction = iota
	DirectionLong
	DirectionShort
)

func (d Direction) String() string {
	switch d {
	case DirectionLong:
		return "LONG"
	case DirectionShort:
		return "SHORT"
	case DirectionFlat:
		return "FLAT"
	default:
		return "UNKNOWN"
	}
}

// Side is the side of an open position or closed trade.
type Side int

const (
	SideLong Side = iota
	SideShort
)

func (s Side) String() string {
	if s == SideShort {
		return "SHORT"
	}
	return "LONG"
}

// Sign returns +1 for long and -1 for short, the multiplier used in
// every P&L computation.
func (s Side) Sign() float64 {
	if s == SideShort {
		return -1
	}
	return 1
}

// SourceScore records one aggregation source's contribution to a Signal.
// Err is non-empty when the source failed or timed out for the bar; a
// failed source always contributes a zero score.
type SourceScore struct {
	Score float64
	Err   string
}

// Signal is the normalized per-bar trading signal produced by the
// aggregator. Exactly one Signal exists per bar per symbol, and it is
// consumed exactly once by the risk manager.
type Signal struct {
	BarTime   time.Time
	Symbol    string
	Direction Direction
	Strength  float64
	Sources   map[string]SourceScore
}

// RejectReason explains why a RiskDecision was not approved.
type RejectReason string

const (
	RejectBelowThreshold   RejectReason = "below_threshold"
	RejectExposureCap      RejectReason = "exposure_cap"
	RejectConcurrencyCap   RejectReason = "concurrency_cap"
	RejectRiskRewardGate   RejectReason = "risk_reward_gate"
	RejectInsufficientCash RejectReason = "insufficient_cash"
	RejectDailyLossHalt    RejectReason = "daily_loss_halt"
)

// RiskDecision is the risk manager's verdict on a Signal. It lives only
// for the bar that produced it: approved decisions are handed to the
// executor, rejected ones are logged and dropped.
type RiskDecision struct {
	Approved   bool
	Side       Side
	Size       float64 // base units
	Notional   float64 // quote value at decision time
	StopLoss   float64
	TakeProfit float64
	Reason     RejectReason // set only when !Approved
}

// Position is an open holding in one symbol. At most one Position per
// symbol exists at any time.
type Position struct {
	Symbol     string
	Side       Side
	EntryPrice float64
	Size       float64
	StopLoss   float64
	TakeProfit float64
	OpenedAt   time.Time
}

// Notional returns the position's quote value at the given price.
func (p Position) Notional(price float64) float64 {
	return p.Size * price
}

// UnrealizedPnL returns the mark-to-market profit at the given price,
// before fees.
func (p Position) UnrealizedPnL(price float64) float64 {
	return p.Side.Sign() * (price - p.EntryPrice) * p.Size
}

// ExitReason records why a position was closed.
type ExitReason string

const (
	ExitSignalReversal ExitReason = "signal_reversal"
	ExitStopLoss       ExitReason = "stop_loss"
	ExitTakeProfit     ExitReason = "take_profit"
	ExitManual         ExitReason = "manual"
)

// Trade is the immutable record of a closed position, appended to the
// ledger's trade log at close time.
type Trade struct {
	Symbol     string
	Side       Side
	EntryPrice float64
	ExitPrice  float64
	Size       float64
	OpenedAt   time.Time
	ClosedAt   time.Time
	PnL        float64 // net of Fees
	Fees       float64 // entry + exit fees
	ExitReason ExitReason
}

// Fill is the result of an executed order, simulated or live. Reduce
// marks fills that close an existing position; opening fills carry the
// stop and target the new position will be monitored against.
type Fill struct {
	Symbol     string
	Side       Side
	Price      float64
	Size       float64
	Fee        float64
	Time       time.Time
	OrderID    string
	Reduce     bool
	StopLoss   float64    // opening fills only
	TakeProfit float64    // opening fills only
	ExitReason ExitReason // reducing fills only
}

// EquityPoint is one sample of the equity curve: account equity and
// notional exposure fraction at a bar close.
type EquityPoint struct {
	Time     time.Time
	Equity   float64
	Exposure float64
}
