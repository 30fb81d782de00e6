package main

import (
	"flag"
	"fmt"
	"strings"
)

// BacktestFlags holds all command line flags for the backtest command
type BacktestFlags struct {
	// Configuration
	ConfigFile *string
	DataFile   *string
	Symbol     *string
	Interval   *string
	EnvFile    *string

	// Account settings
	InitialBalance *float64
	WindowSize     *int

	// Run filters
	Period    *string // trailing period, e.g. 30d, 180d
	FromDate  *string // 2024-01-01
	ToDate    *string

	// Execution overrides
	FillPolicy *string

	// Signal sources
	UseAdvisory *bool // enable the LLM advisory source (non-deterministic)

	// Output
	OutputDir   *string
	NoFiles     *bool
	TradeLimit  *int
	Trace       *bool
	ShowVersion *bool
}

// NewBacktestFlags creates and registers all command line flags
func NewBacktestFlags() *BacktestFlags {
	return &BacktestFlags{
		ConfigFile: flag.String("config", "", "JSON configuration file"),
		DataFile:   flag.String("data", "", "CSV file with historical bars"),
		Symbol:     flag.String("symbol", "", "Trading symbol (e.g. BTCUSDT)"),
		Interval:   flag.String("interval", "", "Bar interval (e.g. 1h)"),
		EnvFile:    flag.String("env", ".env", "Environment file path"),

		InitialBalance: flag.Float64("balance", 0, "Initial balance (overrides config)"),
		WindowSize:     flag.Int("window", 0, "Indicator window size (overrides config)"),

		Period:   flag.String("period", "", "Trailing period filter (e.g. 30d, 180d)"),
		FromDate: flag.String("from", "", "Start date filter (YYYY-MM-DD)"),
		ToDate:   flag.String("to", "", "End date filter (YYYY-MM-DD)"),

		FillPolicy: flag.String("fill-policy", "", "Fill policy: close or next_open (overrides config)"),

		UseAdvisory: flag.Bool("advisory", false, "Enable the LLM advisory source (requires OPENAI_API_KEY; breaks determinism)"),

		OutputDir:   flag.String("output", "", "Output directory for run artifacts"),
		NoFiles:     flag.Bool("no-files", false, "Skip writing file artifacts"),
		TradeLimit:  flag.Int("trade-limit", 20, "Max trades to print on console (0 = all)"),
		Trace:       flag.Bool("trace", false, "Write the per-bar decision trace to logs/"),
		ShowVersion: flag.Bool("version", false, "Show version and exit"),
	}
}

// ValidateBacktestFlags checks flag combinations before the run starts
func ValidateBacktestFlags(flags *BacktestFlags) error {
	if *flags.ShowVersion {
		return nil
	}
	if *flags.ConfigFile == "" && *flags.DataFile == "" {
		return fmt.Errorf("either -config or -data is required")
	}
	if *flags.FillPolicy != "" {
		policy := strings.ToLower(*flags.FillPolicy)
		if policy != "close" && policy != "next_open" {
			return fmt.Errorf("invalid fill policy %q (use close or next_open)", *flags.FillPolicy)
		}
	}
	if *flags.Period != "" && (*flags.FromDate != "" || *flags.ToDate != "") {
		return fmt.Errorf("-period and -from/-to are mutually exclusive")
	}
	return nil
}
