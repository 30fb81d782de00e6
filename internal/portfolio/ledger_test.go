package portfolio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jai-fire/production-grade-ai-trading-system/internal/errors"
	"github.com/jai-fire/production-grade-ai-trading-system/pkg/types"
)

// TestNewLedger tests the initial ledger state
func TestNewLedger(t *testing.T) {
	ledger := NewLedger(10000.0)

	assert.Equal(t, 10000.0, ledger.Cash())
	assert.Equal(t, 10000.0, ledger.StartBalance())
	assert.Equal(t, 0, ledger.OpenPositions())
	assert.Empty(t, ledger.TradeLog())
	assert.Empty(t, ledger.EquityCurve())
}

// TestLedger_ApplyFill_OpenLong tests that an opening fill reserves the notional plus fee
func TestLedger_ApplyFill_OpenLong(t *testing.T) {
	ledger := NewLedger(10000.0)

	err := ledger.ApplyFill(openFill("BTCUSDT", types.SideLong, 100.0, 1.0, 0.1, baseTime()))
	require.NoError(t, err)

	assert.InDelta(t, 9899.9, ledger.Cash(), 1e-9)
	assert.Equal(t, 1, ledger.OpenPositions())

	pos, ok := ledger.Position("BTCUSDT")
	require.True(t, ok)
	assert.Equal(t, types.SideLong, pos.Side)
	assert.Equal(t, 100.0, pos.EntryPrice)
	assert.Equal(t, 1.0, pos.Size)
}

// TestLedger_ApplyFill_CloseLong tests the realized P&L and cash release on a losing close
func TestLedger_ApplyFill_CloseLong(t *testing.T) {
	ledger := NewLedger(10000.0)
	require.NoError(t, ledger.ApplyFill(openFill("BTCUSDT", types.SideLong, 100.0, 1.0, 0.1, baseTime())))

	err := ledger.ApplyFill(closeFill("BTCUSDT", types.SideLong, 90.0, 1.0, 0.09, baseTime().Add(time.Hour)))
	require.NoError(t, err)

	assert.Equal(t, 0, ledger.OpenPositions())
	assert.InDelta(t, 9989.81, ledger.Cash(), 1e-9)

	trades := ledger.TradeLog()
	require.Len(t, trades, 1)
	assert.InDelta(t, -10.19, trades[0].PnL, 1e-9)
	assert.InDelta(t, 0.19, trades[0].Fees, 1e-9)
	assert.Equal(t, types.ExitStopLoss, trades[0].ExitReason)
}

// TestLedger_ApplyFill_ShortRoundTrip tests that a profitable short settles to the expected cash
func TestLedger_ApplyFill_ShortRoundTrip(t *testing.T) {
	ledger := NewLedger(10000.0)
	require.NoError(t, ledger.ApplyFill(openFill("BTCUSDT", types.SideShort, 100.0, 2.0, 0.2, baseTime())))
	assert.InDelta(t, 9799.8, ledger.Cash(), 1e-9)

	err := ledger.ApplyFill(closeFill("BTCUSDT", types.SideShort, 90.0, 2.0, 0.18, baseTime().Add(time.Hour)))
	require.NoError(t, err)

	// gross = -1 * (90-100) * 2 = +20, net of 0.38 total fees
	trades := ledger.TradeLog()
	require.Len(t, trades, 1)
	assert.InDelta(t, 19.62, trades[0].PnL, 1e-9)
	assert.InDelta(t, 10019.62, ledger.Cash(), 1e-9)
}

// TestLedger_ApplyFill_DoubleOpen tests that opening over an existing position is a fatal invariant violation
func TestLedger_ApplyFill_DoubleOpen(t *testing.T) {
	ledger := NewLedger(10000.0)
	require.NoError(t, ledger.ApplyFill(openFill("BTCUSDT", types.SideLong, 100.0, 1.0, 0.1, baseTime())))

	err := ledger.ApplyFill(openFill("BTCUSDT", types.SideLong, 101.0, 1.0, 0.1, baseTime().Add(time.Hour)))
	require.Error(t, err)
	assert.True(t, errors.IsInvariantViolation(err))
}

// TestLedger_ApplyFill_CashFloor tests that a fill that would drive cash negative is rejected
func TestLedger_ApplyFill_CashFloor(t *testing.T) {
	ledger := NewLedger(100.0)

	err := ledger.ApplyFill(openFill("BTCUSDT", types.SideLong, 100.0, 1.0, 0.1, baseTime()))
	require.Error(t, err)
	assert.True(t, errors.IsInvariantViolation(err))
	assert.Equal(t, 100.0, ledger.Cash())
	assert.Equal(t, 0, ledger.OpenPositions())
}

// TestLedger_ApplyFill_CloseWithoutPosition tests that a reducing fill with no position is fatal
func TestLedger_ApplyFill_CloseWithoutPosition(t *testing.T) {
	ledger := NewLedger(10000.0)

	err := ledger.ApplyFill(closeFill("BTCUSDT", types.SideLong, 100.0, 1.0, 0.1, baseTime()))
	require.Error(t, err)
	assert.True(t, errors.IsInvariantViolation(err))
}

// TestLedger_MarkToMarket tests equity revaluation at a bar close
func TestLedger_MarkToMarket(t *testing.T) {
	ledger := NewLedger(10000.0)
	require.NoError(t, ledger.ApplyFill(openFill("BTCUSDT", types.SideLong, 100.0, 1.0, 0.1, baseTime())))

	require.NoError(t, ledger.MarkToMarket(markBar("BTCUSDT", 110.0, baseTime().Add(time.Hour))))

	curve := ledger.EquityCurve()
	require.Len(t, curve, 1)
	assert.InDelta(t, 10009.9, curve[0].Equity, 1e-9)
	assert.InDelta(t, 110.0/10009.9, curve[0].Exposure, 1e-9)
}

// TestLedger_MarkToMarket_TimeMustAdvance tests that a stale or duplicate mark time is fatal
func TestLedger_MarkToMarket_TimeMustAdvance(t *testing.T) {
	ledger := NewLedger(10000.0)
	at := baseTime()
	require.NoError(t, ledger.MarkToMarket(markBar("BTCUSDT", 100.0, at)))

	err := ledger.MarkToMarket(markBar("BTCUSDT", 101.0, at))
	require.Error(t, err)
	assert.True(t, errors.IsInvariantViolation(err))

	err = ledger.MarkToMarket(markBar("BTCUSDT", 101.0, at.Add(-time.Hour)))
	require.Error(t, err)
	assert.True(t, errors.IsInvariantViolation(err))

	assert.Len(t, ledger.EquityCurve(), 1)
}

// TestLedger_Snapshot tests the snapshot's exposure and equity fields
func TestLedger_Snapshot(t *testing.T) {
	ledger := NewLedger(10000.0)
	require.NoError(t, ledger.ApplyFill(openFill("BTCUSDT", types.SideLong, 100.0, 1.0, 0.1, baseTime())))
	require.NoError(t, ledger.MarkToMarket(markBar("BTCUSDT", 105.0, baseTime().Add(time.Hour))))

	snap := ledger.Snapshot()

	assert.InDelta(t, 9899.9, snap.Cash, 1e-9)
	assert.InDelta(t, 10004.9, snap.Equity, 1e-9)
	assert.InDelta(t, 105.0, snap.Exposure, 1e-9)
	assert.Contains(t, snap.Positions, "BTCUSDT")

	// snapshot positions are a copy, not a view into the ledger
	snap.Positions["BTCUSDT"] = types.Position{}
	pos, ok := ledger.Position("BTCUSDT")
	require.True(t, ok)
	assert.Equal(t, 100.0, pos.EntryPrice)
}

// TestLedger_RealizedLossToday tests daily loss accumulation and UTC day rollover
func TestLedger_RealizedLossToday(t *testing.T) {
	ledger := NewLedger(10000.0)
	at := baseTime()

	require.NoError(t, ledger.ApplyFill(openFill("BTCUSDT", types.SideLong, 100.0, 1.0, 0.1, at)))
	require.NoError(t, ledger.ApplyFill(closeFill("BTCUSDT", types.SideLong, 90.0, 1.0, 0.09, at.Add(time.Hour))))

	assert.InDelta(t, 10.19, ledger.RealizedLossToday(at.Add(time.Hour)), 1e-9)

	// losses reset on the next UTC day
	assert.Equal(t, 0.0, ledger.RealizedLossToday(at.Add(25*time.Hour)))
}

// TestLedger_RealizedLossToday_IgnoresWins tests that winning trades do not count toward the daily loss
func TestLedger_RealizedLossToday_IgnoresWins(t *testing.T) {
	ledger := NewLedger(10000.0)
	at := baseTime()

	require.NoError(t, ledger.ApplyFill(openFill("BTCUSDT", types.SideLong, 100.0, 1.0, 0.1, at)))
	require.NoError(t, ledger.ApplyFill(closeFill("BTCUSDT", types.SideLong, 120.0, 1.0, 0.12, at.Add(time.Hour))))

	assert.Equal(t, 0.0, ledger.RealizedLossToday(at.Add(time.Hour)))
}

func baseTime() time.Time {
	return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
}

func openFill(symbol string, side types.Side, price, size, fee float64, at time.Time) types.Fill {
	return types.Fill{
		Symbol:     symbol,
		Side:       side,
		Price:      price,
		Size:       size,
		Fee:        fee,
		Time:       at,
		StopLoss:   price * 0.98,
		TakeProfit: price * 1.05,
	}
}

func closeFill(symbol string, side types.Side, price, size, fee float64, at time.Time) types.Fill {
	return types.Fill{
		Symbol:     symbol,
		Side:       side,
		Price:      price,
		Size:       size,
		Fee:        fee,
		Time:       at,
		Reduce:     true,
		ExitReason: types.ExitStopLoss,
	}
}

func markBar(symbol string, close float64, at time.Time) types.Bar {
	return types.Bar{
		Symbol:   symbol,
		OpenTime: at,
		Open:     close,
		High:     close,
		Low:      close,
		Close:    close,
	}
}
