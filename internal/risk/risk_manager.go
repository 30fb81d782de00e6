package risk

import (
	"math"

	"github.com/jai-fire/production-grade-ai-trading-system/internal/portfolio"
	"github.com/jai-fire/production-grade-ai-trading-system/pkg/config"
	"github.com/jai-fire/production-grade-ai-trading-system/pkg/types"
)

// Manager implements Evaluator over a fixed set of RiskLimits. It holds
// no mutable state: every gate reads only the signal, the bar, and the
// snapshot it is given.
type Manager struct {
	limits     config.RiskLimits
	feePercent float64
}

// NewManager creates a risk manager with the given limits. feePercent is
// the per-fill fee rate, needed for the cash-sufficiency gate.
func NewManager(limits config.RiskLimits, feePercent float64) *Manager {
	return &Manager{limits: limits, feePercent: feePercent}
}

// Evaluate applies the gates in a fixed order: threshold, concurrency,
// exposure, risk/reward, cash. The first failing gate determines the
// rejection reason.
func (m *Manager) Evaluate(sig types.Signal, bar types.Bar, snap portfolio.Snapshot) types.RiskDecision {
	if sig.Direction == types.DirectionFlat {
		return reject(types.RejectBelowThreshold)
	}

	side := types.SideLong
	if sig.Direction == types.DirectionShort {
		side = types.SideShort
	}

	existing, hasPosition := snap.Positions[sig.Symbol]
	isReversal := hasPosition && existing.Side != side

	// Concurrency cap. A reversal does not increase the position count,
	// so it is exempt; a same-side signal against an open position is
	// not a new trade and fails here.
	if !isReversal && (hasPosition || len(snap.Positions) >= m.limits.MaxConcurrentPositions) {
		return reject(types.RejectConcurrencyCap)
	}

	entry := bar.Close
	strength := math.Abs(sig.Strength)

	// Volatility-scaled sizing: strength scales the base allocation, the
	// stop distance caps the riskable notional.
	maxNotional := m.limits.MaxPositionSizePct * snap.Equity
	riskBudget := maxNotional / m.limits.StopLossPct
	notional := math.Min(maxNotional*strength, riskBudget)
	if notional <= 0 {
		return reject(types.RejectBelowThreshold)
	}

	// Exposure cap across all open positions. A reversal releases the
	// old position's notional before the new one opens.
	currentExposure := snap.Exposure
	if isReversal {
		currentExposure -= existing.Notional(entry)
	}
	headroom := m.limits.MaxPortfolioExposurePct*snap.Equity - currentExposure
	if notional > headroom {
		if m.limits.ExposureCapMode != config.ExposureClip || headroom <= 0 {
			return reject(types.RejectExposureCap)
		}
		notional = headroom
	}

	// Risk/reward gate: implied reward scales with signal conviction.
	impliedReward := m.limits.TakeProfitPct * strength
	if impliedReward/m.limits.StopLossPct < m.limits.RiskRewardMinRatio {
		return reject(types.RejectRiskRewardGate)
	}

	// Cash floor: the ledger reserves the entry notional plus the fee.
	// A reversal frees the old position's reserve (marked at the current
	// close) before the new reserve is taken.
	available := snap.Cash
	if isReversal {
		available += existing.EntryPrice*existing.Size + existing.UnrealizedPnL(entry)
	}
	if notional+notional*m.feePercent > available {
		return reject(types.RejectInsufficientCash)
	}

	stop := entry * (1 - side.Sign()*m.limits.StopLossPct)
	target := entry * (1 + side.Sign()*m.limits.TakeProfitPct)

	return types.RiskDecision{
		Approved:   true,
		Side:       side,
		Size:       notional / entry,
		Notional:   notional,
		StopLoss:   stop,
		TakeProfit: target,
	}
}

func reject(reason types.RejectReason) types.RiskDecision {
	return types.RiskDecision{Approved: false, Reason: reason}
}
