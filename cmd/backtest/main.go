package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	ossignal "os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/jai-fire/production-grade-ai-trading-system/internal/advisory"
	"github.com/jai-fire/production-grade-ai-trading-system/internal/backtest"
	"github.com/jai-fire/production-grade-ai-trading-system/internal/execution"
	"github.com/jai-fire/production-grade-ai-trading-system/internal/indicators"
	"github.com/jai-fire/production-grade-ai-trading-system/internal/logger"
	"github.com/jai-fire/production-grade-ai-trading-system/internal/model"
	"github.com/jai-fire/production-grade-ai-trading-system/internal/portfolio"
	"github.com/jai-fire/production-grade-ai-trading-system/internal/risk"
	"github.com/jai-fire/production-grade-ai-trading-system/internal/signal"
	"github.com/jai-fire/production-grade-ai-trading-system/pkg/config"
	"github.com/jai-fire/production-grade-ai-trading-system/pkg/data"
	"github.com/jai-fire/production-grade-ai-trading-system/pkg/reporting"
	"github.com/jai-fire/production-grade-ai-trading-system/pkg/types"
)

const (
	AppName    = "Trading Engine Backtest"
	AppVersion = "1.0.0"

	// Fallback model settings when no ONNX model is configured
	DefaultMomentumLookback = 10
	DefaultMomentumScale    = 0.05
)

func main() {
	flags := NewBacktestFlags()
	flag.Parse()

	if err := ValidateBacktestFlags(flags); err != nil {
		log.Fatalf("❌ Flag validation error: %v", err)
	}

	if *flags.ShowVersion {
		fmt.Printf("%s v%s\n", AppName, AppVersion)
		return
	}

	printHeader()
	loadEnvironment(*flags.EnvFile)

	cfg, err := loadConfiguration(flags)
	if err != nil {
		log.Fatalf("❌ Configuration error: %v", err)
	}

	bars, err := loadBars(cfg, flags)
	if err != nil {
		log.Fatalf("❌ Data error: %v", err)
	}
	fmt.Printf("📂 Loaded %d bars of %s %s data\n", len(bars), cfg.Symbol, cfg.Interval)

	engine, err := buildPipeline(cfg, flags)
	if err != nil {
		log.Fatalf("❌ Pipeline error: %v", err)
	}

	ctx, stop := ossignal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	started := time.Now()
	result, err := engine.Run(ctx, bars)
	if err != nil {
		log.Fatalf("❌ Backtest failed: %v", err)
	}
	fmt.Printf("⏱️  Completed in %s\n", time.Since(started).Round(time.Millisecond))

	reporter := reporting.NewReporter()
	reporter.Console.OutputResults(result)
	reporter.Console.OutputTrades(result, *flags.TradeLimit)

	if !*flags.NoFiles {
		outputDir := *flags.OutputDir
		if outputDir == "" {
			outputDir = reporting.DefaultOutputDir(cfg.Symbol, cfg.Interval)
		}
		written, err := reporter.WriteAll(result, outputDir)
		if err != nil {
			log.Fatalf("❌ Failed to write artifacts: %v", err)
		}
		fmt.Println("\n💾 Artifacts:")
		for _, path := range written {
			fmt.Printf("   %s\n", path)
		}
	}
}

func printHeader() {
	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("🤖 %s v%s\n", AppName, AppVersion)
	fmt.Println(strings.Repeat("=", 50))
}

func loadEnvironment(envFile string) {
	if err := godotenv.Load(envFile); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("⚠️ Could not load %s: %v", envFile, err)
		}
	}
}

// loadConfiguration loads the config file and applies flag overrides.
func loadConfiguration(flags *BacktestFlags) (*config.Config, error) {
	cfg, err := config.Load(*flags.ConfigFile)
	if err != nil {
		return nil, err
	}

	if *flags.DataFile != "" {
		cfg.DataFile = *flags.DataFile
	}
	if *flags.Symbol != "" {
		cfg.Symbol = strings.ToUpper(*flags.Symbol)
	}
	if *flags.Interval != "" {
		cfg.Interval = *flags.Interval
	}
	if *flags.InitialBalance > 0 {
		cfg.InitialBalance = *flags.InitialBalance
	}
	if *flags.WindowSize > 0 {
		cfg.WindowSize = *flags.WindowSize
	}
	if *flags.FillPolicy != "" {
		cfg.Execution.FillPolicy = config.FillPolicy(strings.ToLower(*flags.FillPolicy))
	}

	if cfg.DataFile == "" {
		return nil, fmt.Errorf("no data file configured (use -data or the config file)")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadBars loads, validates and filters the historical data.
func loadBars(cfg *config.Config, flags *BacktestFlags) ([]types.Bar, error) {
	provider := data.NewCachedProvider(data.NewCSVProvider())
	bars, err := provider.LoadBars(cfg.DataFile, cfg.Symbol)
	if err != nil {
		return nil, err
	}
	if err := provider.ValidateBars(bars); err != nil {
		return nil, err
	}

	filter := data.NewDefaultFilter()
	if *flags.Period != "" {
		period, ok := data.ParseTrailingPeriod(*flags.Period)
		if !ok {
			return nil, fmt.Errorf("invalid period format: %s (use 7d, 30d, 180d)", *flags.Period)
		}
		bars = filter.ByPeriod(bars, period)
	}
	if *flags.FromDate != "" || *flags.ToDate != "" {
		start, end, err := parseDateRange(*flags.FromDate, *flags.ToDate)
		if err != nil {
			return nil, err
		}
		bars = filter.ByDateRange(bars, start, end)
	}

	if len(bars) <= cfg.WindowSize {
		return nil, fmt.Errorf("need more than %d bars after filtering, got %d", cfg.WindowSize, len(bars))
	}
	return bars, nil
}

func parseDateRange(from, to string) (time.Time, time.Time, error) {
	start := time.Time{}
	end := time.Now().UTC()

	if from != "" {
		parsed, err := time.Parse("2006-01-02", from)
		if err != nil {
			return start, end, fmt.Errorf("invalid -from date: %s", from)
		}
		start = parsed
	}
	if to != "" {
		parsed, err := time.Parse("2006-01-02", to)
		if err != nil {
			return start, end, fmt.Errorf("invalid -to date: %s", to)
		}
		end = parsed.Add(24*time.Hour - time.Nanosecond)
	}
	return start, end, nil
}

// buildPipeline wires the full decision pipeline for a simulated run.
func buildPipeline(cfg *config.Config, flags *BacktestFlags) (*backtest.Engine, error) {
	indicatorProvider := indicators.NewDefaultProvider()
	if required := indicatorProvider.RequiredPeriods(); cfg.WindowSize < required {
		return nil, fmt.Errorf("window size %d is below the indicator minimum %d", cfg.WindowSize, required)
	}

	var modelSource signal.ModelSource
	if cfg.ModelPath != "" {
		predictor, err := model.NewONNXPredictor(cfg.ModelPath, cfg.WindowSize)
		if err != nil {
			return nil, fmt.Errorf("failed to load model %s: %w", cfg.ModelPath, err)
		}
		modelSource = predictor
		fmt.Printf("🧠 Model: ONNX (%s)\n", cfg.ModelPath)
	} else {
		modelSource = model.NewStaticPredictor(DefaultMomentumLookback, DefaultMomentumScale)
		fmt.Println("🧠 Model: momentum fallback (no ONNX model configured)")
	}

	var advisorySource signal.AdvisorySource
	if *flags.UseAdvisory {
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("-advisory requires OPENAI_API_KEY")
		}
		advisorySource = advisory.NewOpenAIAdvisor(apiKey)
		fmt.Println("💬 Advisory: OpenAI (results are not reproducible)")
	} else {
		advisorySource = advisory.NewNoopAdvisor()
	}

	aggregator := signal.NewAggregator(cfg.Aggregation, indicatorProvider, modelSource, advisorySource)

	ledger := portfolio.NewLedger(cfg.InitialBalance)
	evaluator := risk.NewOverseer(risk.NewManager(cfg.Risk, cfg.Execution.FeePercent), cfg.Risk)
	simulator := execution.NewSimulator(cfg.Execution, ledger)

	engine := backtest.NewEngine(cfg, aggregator, evaluator, simulator, ledger)

	if *flags.Trace {
		traceLog, err := logger.NewLogger(cfg.Symbol, cfg.Interval)
		if err != nil {
			return nil, fmt.Errorf("failed to open trace log: %w", err)
		}
		engine.SetTracer(traceLog)
	}
	return engine, nil
}
