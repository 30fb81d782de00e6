package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Default configuration values
const (
	DefaultInitialBalance  = 10000.0
	DefaultFeePercent      = 0.001  // 0.1% per fill
	DefaultSlippagePercent = 0.0005 // 0.05%
	DefaultWindowSize      = 60

	// Risk limit defaults
	DefaultMaxPositionSizePct      = 0.10
	DefaultMaxPortfolioExposurePct = 0.50
	DefaultStopLossPct             = 0.02
	DefaultTakeProfitPct           = 0.05
	DefaultRiskRewardMinRatio      = 1.5
	DefaultMaxConcurrentPositions  = 1
	DefaultMaxDailyLossPct         = 0.05

	// Aggregation defaults
	DefaultLongThreshold     = 0.3
	DefaultShortThreshold    = -0.3
	DefaultConflictPenalty   = 0.5
	DefaultSourceTimeoutSecs = 10

	// Metrics defaults
	DefaultRiskFreeRate   = 0.0
	DefaultPeriodsPerYear = 8760 // hourly bars
)

// FillPolicy selects the reference price for simulated fills.
type FillPolicy string

const (
	FillAtClose    FillPolicy = "close"     // fill at the signal bar's close
	FillAtNextOpen FillPolicy = "next_open" // fill at the next bar's open (no look-ahead)
)

// ExposureCapMode selects how the risk manager handles an order that
// would breach the portfolio exposure cap.
type ExposureCapMode string

const (
	ExposureReject ExposureCapMode = "reject"
	ExposureClip   ExposureCapMode = "clip" // shrink the order to the remaining headroom
)

// RiskLimits is the read-only risk configuration for a run.
type RiskLimits struct {
	MaxPositionSizePct      float64         `json:"max_position_size_pct"`
	MaxPortfolioExposurePct float64         `json:"max_portfolio_exposure_pct"`
	StopLossPct             float64         `json:"stop_loss_pct"`
	TakeProfitPct           float64         `json:"take_profit_pct"`
	RiskRewardMinRatio      float64         `json:"risk_reward_min_ratio"`
	MaxConcurrentPositions  int             `json:"max_concurrent_positions"`
	ExposureCapMode         ExposureCapMode `json:"exposure_cap_mode"`
	MaxDailyLossPct         float64         `json:"max_daily_loss_pct"` // 0 disables the daily halt
}

// Aggregation configures the signal aggregator: per-source weights,
// direction thresholds and the model/advisory conflict penalty.
type Aggregation struct {
	IndicatorWeight float64       `json:"indicator_weight"`
	ModelWeight     float64       `json:"model_weight"`
	AdvisoryWeight  float64       `json:"advisory_weight"`
	LongThreshold   float64       `json:"long_threshold"`
	ShortThreshold  float64       `json:"short_threshold"`
	ConflictPenalty float64       `json:"conflict_penalty"`
	SourceTimeout   time.Duration `json:"-"`
	SourceTimeoutS  int           `json:"source_timeout_seconds"`
}

// Execution configures the fill model for backtests.
type Execution struct {
	FillPolicy      FillPolicy `json:"fill_policy"`
	SlippagePercent float64    `json:"slippage_percent"`
	FeePercent      float64    `json:"fee_percent"`
}

// Metrics configures performance-metric derivation.
type Metrics struct {
	RiskFreeRate   float64 `json:"risk_free_rate"`
	PeriodsPerYear float64 `json:"periods_per_year"`
}

// Exchange holds live-trading credentials and environment selection.
// Credentials come from the environment, never from the config file.
type Exchange struct {
	Name      string `json:"name"`
	APIKey    string `json:"-"`
	APISecret string `json:"-"`
	Testnet   bool   `json:"testnet"`
	Category  string `json:"category"` // "spot" or "linear"
}

// Monitoring holds the ports for the Prometheus and health endpoints.
type Monitoring struct {
	PrometheusPort int `json:"prometheus_port"`
	HealthPort     int `json:"health_port"`
}

// Notifications holds Telegram alerting settings; tokens come from env.
type Notifications struct {
	TelegramToken  string `json:"-"`
	TelegramChatID string `json:"-"`
	Enabled        bool   `json:"enabled"`
}

// Config is the immutable run configuration. It is loaded once at
// startup and passed into each component at construction; nothing
// mutates it during a run.
type Config struct {
	Symbol         string        `json:"symbol"`
	Interval       string        `json:"interval"`
	DataFile       string        `json:"data_file"`
	InitialBalance float64       `json:"initial_balance"`
	WindowSize     int           `json:"window_size"`
	Risk           RiskLimits    `json:"risk"`
	Aggregation    Aggregation   `json:"aggregation"`
	Execution      Execution     `json:"execution"`
	Metrics        Metrics       `json:"metrics"`
	Exchange       Exchange      `json:"exchange"`
	Monitoring     Monitoring    `json:"monitoring"`
	Notifications  Notifications `json:"notifications"`
	ModelPath      string        `json:"model_path"`
}

// Default returns a configuration populated with the package defaults.
func Default() *Config {
	return &Config{
		Symbol:         "BTCUSDT",
		Interval:       "1h",
		InitialBalance: DefaultInitialBalance,
		WindowSize:     DefaultWindowSize,
		Risk: RiskLimits{
			MaxPositionSizePct:      DefaultMaxPositionSizePct,
			MaxPortfolioExposurePct: DefaultMaxPortfolioExposurePct,
			StopLossPct:             DefaultStopLossPct,
			TakeProfitPct:           DefaultTakeProfitPct,
			RiskRewardMinRatio:      DefaultRiskRewardMinRatio,
			MaxConcurrentPositions:  DefaultMaxConcurrentPositions,
			ExposureCapMode:         ExposureReject,
			MaxDailyLossPct:         DefaultMaxDailyLossPct,
		},
		Aggregation: Aggregation{
			IndicatorWeight: 1.0,
			ModelWeight:     1.0,
			AdvisoryWeight:  1.0,
			LongThreshold:   DefaultLongThreshold,
			ShortThreshold:  DefaultShortThreshold,
			ConflictPenalty: DefaultConflictPenalty,
			SourceTimeout:   DefaultSourceTimeoutSecs * time.Second,
			SourceTimeoutS:  DefaultSourceTimeoutSecs,
		},
		Execution: Execution{
			FillPolicy:      FillAtClose,
			SlippagePercent: DefaultSlippagePercent,
			FeePercent:      DefaultFeePercent,
		},
		Metrics: Metrics{
			RiskFreeRate:   DefaultRiskFreeRate,
			PeriodsPerYear: DefaultPeriodsPerYear,
		},
		Exchange: Exchange{
			Name:     "bybit",
			Testnet:  true,
			Category: "spot",
		},
		Monitoring: Monitoring{
			PrometheusPort: 8080,
			HealthPort:     8081,
		},
	}
}

// Load reads a JSON config file (when path is non-empty), applies it on
// top of the defaults, then applies environment overrides for secrets.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := json.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if cfg.Aggregation.SourceTimeoutS > 0 {
		cfg.Aggregation.SourceTimeout = time.Duration(cfg.Aggregation.SourceTimeoutS) * time.Second
	}

	cfg.InitialBalance = getEnvFloat("INITIAL_BALANCE", cfg.InitialBalance)
	cfg.Exchange.APIKey = getEnv("EXCHANGE_API_KEY", cfg.Exchange.APIKey)
	cfg.Exchange.APISecret = getEnv("EXCHANGE_API_SECRET", cfg.Exchange.APISecret)
	cfg.Exchange.Testnet = getEnvBool("EXCHANGE_TESTNET", cfg.Exchange.Testnet)
	cfg.Notifications.TelegramToken = getEnv("TELEGRAM_TOKEN", "")
	cfg.Notifications.TelegramChatID = getEnv("TELEGRAM_CHAT_ID", "")
	cfg.ModelPath = getEnv("MODEL_PATH", cfg.ModelPath)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field that could silently corrupt a run.
func (c *Config) Validate() error {
	if c.Symbol == "" {
		return fmt.Errorf("symbol is required")
	}
	if c.InitialBalance <= 0 {
		return fmt.Errorf("initial balance must be positive, got: %.2f", c.InitialBalance)
	}
	if c.WindowSize <= 0 {
		return fmt.Errorf("window size must be positive, got: %d", c.WindowSize)
	}
	if err := c.Risk.Validate(); err != nil {
		return err
	}
	if err := c.Aggregation.Validate(); err != nil {
		return err
	}
	if c.Execution.FillPolicy != FillAtClose && c.Execution.FillPolicy != FillAtNextOpen {
		return fmt.Errorf("fill policy must be %q or %q, got: %q", FillAtClose, FillAtNextOpen, c.Execution.FillPolicy)
	}
	if c.Execution.SlippagePercent < 0 || c.Execution.SlippagePercent > 0.1 {
		return fmt.Errorf("slippage percent must be between 0 and 0.1, got: %.4f", c.Execution.SlippagePercent)
	}
	if c.Execution.FeePercent < 0 || c.Execution.FeePercent > 0.1 {
		return fmt.Errorf("fee percent must be between 0 and 0.1, got: %.4f", c.Execution.FeePercent)
	}
	if c.Metrics.PeriodsPerYear <= 0 {
		return fmt.Errorf("periods per year must be positive, got: %.1f", c.Metrics.PeriodsPerYear)
	}
	return nil
}

// Validate checks the risk limits for internally consistent values.
func (r *RiskLimits) Validate() error {
	if r.MaxPositionSizePct <= 0 || r.MaxPositionSizePct > 1 {
		return fmt.Errorf("max position size pct must be in (0,1], got: %.4f", r.MaxPositionSizePct)
	}
	if r.MaxPortfolioExposurePct <= 0 || r.MaxPortfolioExposurePct > 1 {
		return fmt.Errorf("max portfolio exposure pct must be in (0,1], got: %.4f", r.MaxPortfolioExposurePct)
	}
	if r.StopLossPct <= 0 || r.StopLossPct >= 1 {
		return fmt.Errorf("stop loss pct must be in (0,1), got: %.4f", r.StopLossPct)
	}
	if r.TakeProfitPct <= 0 || r.TakeProfitPct >= 1 {
		return fmt.Errorf("take profit pct must be in (0,1), got: %.4f", r.TakeProfitPct)
	}
	if r.RiskRewardMinRatio < 0 {
		return fmt.Errorf("risk reward min ratio must be non-negative, got: %.2f", r.RiskRewardMinRatio)
	}
	if r.MaxConcurrentPositions < 1 {
		return fmt.Errorf("max concurrent positions must be at least 1, got: %d", r.MaxConcurrentPositions)
	}
	if r.ExposureCapMode != ExposureReject && r.ExposureCapMode != ExposureClip {
		return fmt.Errorf("exposure cap mode must be %q or %q, got: %q", ExposureReject, ExposureClip, r.ExposureCapMode)
	}
	if r.MaxDailyLossPct < 0 || r.MaxDailyLossPct >= 1 {
		return fmt.Errorf("max daily loss pct must be in [0,1), got: %.4f", r.MaxDailyLossPct)
	}
	return nil
}

// Validate checks the aggregation weights and thresholds.
func (a *Aggregation) Validate() error {
	if a.IndicatorWeight < 0 || a.ModelWeight < 0 || a.AdvisoryWeight < 0 {
		return fmt.Errorf("aggregation weights must be non-negative")
	}
	if a.IndicatorWeight+a.ModelWeight+a.AdvisoryWeight == 0 {
		return fmt.Errorf("at least one aggregation weight must be positive")
	}
	if a.LongThreshold <= 0 || a.LongThreshold > 1 {
		return fmt.Errorf("long threshold must be in (0,1], got: %.4f", a.LongThreshold)
	}
	if a.ShortThreshold >= 0 || a.ShortThreshold < -1 {
		return fmt.Errorf("short threshold must be in [-1,0), got: %.4f", a.ShortThreshold)
	}
	if a.ConflictPenalty <= 0 || a.ConflictPenalty > 1 {
		return fmt.Errorf("conflict penalty must be in (0,1], got: %.4f", a.ConflictPenalty)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return defaultVal
}
