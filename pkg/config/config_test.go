package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDefault tests that the default configuration is internally valid
func TestDefault(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "BTCUSDT", cfg.Symbol)
	assert.Equal(t, DefaultInitialBalance, cfg.InitialBalance)
	assert.Equal(t, DefaultWindowSize, cfg.WindowSize)
	assert.Equal(t, FillAtClose, cfg.Execution.FillPolicy)
	assert.Equal(t, ExposureReject, cfg.Risk.ExposureCapMode)
	assert.Equal(t, 10*time.Second, cfg.Aggregation.SourceTimeout)
}

// TestLoad_NoFile tests loading with no config file path
func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, DefaultInitialBalance, cfg.InitialBalance)
}

// TestLoad_FromFile tests that a JSON file overrides the defaults
func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{
		"symbol": "ETHUSDT",
		"interval": "15m",
		"initial_balance": 25000,
		"window_size": 100,
		"risk": {
			"max_position_size_pct": 0.2,
			"max_portfolio_exposure_pct": 0.6,
			"stop_loss_pct": 0.03,
			"take_profit_pct": 0.06,
			"risk_reward_min_ratio": 1.2,
			"max_concurrent_positions": 2,
			"exposure_cap_mode": "clip",
			"max_daily_loss_pct": 0.04
		},
		"aggregation": {
			"indicator_weight": 2,
			"model_weight": 1,
			"advisory_weight": 1,
			"long_threshold": 0.4,
			"short_threshold": -0.4,
			"conflict_penalty": 0.6,
			"source_timeout_seconds": 5
		},
		"execution": {
			"fill_policy": "next_open",
			"slippage_percent": 0.001,
			"fee_percent": 0.0005
		}
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "ETHUSDT", cfg.Symbol)
	assert.Equal(t, "15m", cfg.Interval)
	assert.Equal(t, 25000.0, cfg.InitialBalance)
	assert.Equal(t, 100, cfg.WindowSize)
	assert.Equal(t, 0.2, cfg.Risk.MaxPositionSizePct)
	assert.Equal(t, ExposureClip, cfg.Risk.ExposureCapMode)
	assert.Equal(t, FillAtNextOpen, cfg.Execution.FillPolicy)
	assert.Equal(t, 5*time.Second, cfg.Aggregation.SourceTimeout)
}

// TestLoad_InvalidJSON tests the parse error path
func TestLoad_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

// TestLoad_MissingFile tests that a named but absent file is an error
func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.json")
	assert.Error(t, err)
}

// TestLoad_EnvOverrides tests that credentials come from the environment
func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("EXCHANGE_API_KEY", "key-from-env")
	t.Setenv("EXCHANGE_API_SECRET", "secret-from-env")
	t.Setenv("EXCHANGE_TESTNET", "false")
	t.Setenv("INITIAL_BALANCE", "25000")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "key-from-env", cfg.Exchange.APIKey)
	assert.Equal(t, "secret-from-env", cfg.Exchange.APISecret)
	assert.False(t, cfg.Exchange.Testnet)
	assert.Equal(t, 25000.0, cfg.InitialBalance)
}

// TestConfig_Validate tests rejection of inconsistent run settings
func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty symbol", func(c *Config) { c.Symbol = "" }},
		{"zero balance", func(c *Config) { c.InitialBalance = 0 }},
		{"negative balance", func(c *Config) { c.InitialBalance = -100 }},
		{"zero window", func(c *Config) { c.WindowSize = 0 }},
		{"bad fill policy", func(c *Config) { c.Execution.FillPolicy = "market" }},
		{"excessive slippage", func(c *Config) { c.Execution.SlippagePercent = 0.5 }},
		{"negative fee", func(c *Config) { c.Execution.FeePercent = -0.001 }},
		{"zero periods per year", func(c *Config) { c.Metrics.PeriodsPerYear = 0 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

// TestRiskLimits_Validate tests rejection of inconsistent risk limits
func TestRiskLimits_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RiskLimits)
	}{
		{"zero position size", func(r *RiskLimits) { r.MaxPositionSizePct = 0 }},
		{"oversized position", func(r *RiskLimits) { r.MaxPositionSizePct = 1.5 }},
		{"zero exposure cap", func(r *RiskLimits) { r.MaxPortfolioExposurePct = 0 }},
		{"zero stop", func(r *RiskLimits) { r.StopLossPct = 0 }},
		{"full stop", func(r *RiskLimits) { r.StopLossPct = 1.0 }},
		{"zero target", func(r *RiskLimits) { r.TakeProfitPct = 0 }},
		{"negative risk reward", func(r *RiskLimits) { r.RiskRewardMinRatio = -1 }},
		{"zero concurrency", func(r *RiskLimits) { r.MaxConcurrentPositions = 0 }},
		{"unknown cap mode", func(r *RiskLimits) { r.ExposureCapMode = "scale" }},
		{"daily loss at one", func(r *RiskLimits) { r.MaxDailyLossPct = 1.0 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			limits := Default().Risk
			tc.mutate(&limits)
			assert.Error(t, limits.Validate())
		})
	}
}

// TestAggregation_Validate tests rejection of inconsistent aggregation settings
func TestAggregation_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Aggregation)
	}{
		{"negative weight", func(a *Aggregation) { a.ModelWeight = -1 }},
		{"all zero weights", func(a *Aggregation) { a.IndicatorWeight, a.ModelWeight, a.AdvisoryWeight = 0, 0, 0 }},
		{"zero long threshold", func(a *Aggregation) { a.LongThreshold = 0 }},
		{"positive short threshold", func(a *Aggregation) { a.ShortThreshold = 0.2 }},
		{"zero conflict penalty", func(a *Aggregation) { a.ConflictPenalty = 0 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			agg := Default().Aggregation
			tc.mutate(&agg)
			assert.Error(t, agg.Validate())
		})
	}
}
