package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	ossignal "os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/jai-fire/production-grade-ai-trading-system/internal/advisory"
	"github.com/jai-fire/production-grade-ai-trading-system/internal/engine"
	"github.com/jai-fire/production-grade-ai-trading-system/internal/exchange"
	"github.com/jai-fire/production-grade-ai-trading-system/internal/execution"
	"github.com/jai-fire/production-grade-ai-trading-system/internal/indicators"
	"github.com/jai-fire/production-grade-ai-trading-system/internal/logger"
	"github.com/jai-fire/production-grade-ai-trading-system/internal/model"
	"github.com/jai-fire/production-grade-ai-trading-system/internal/monitoring"
	"github.com/jai-fire/production-grade-ai-trading-system/internal/notifications"
	"github.com/jai-fire/production-grade-ai-trading-system/internal/portfolio"
	"github.com/jai-fire/production-grade-ai-trading-system/internal/risk"
	"github.com/jai-fire/production-grade-ai-trading-system/internal/signal"
	"github.com/jai-fire/production-grade-ai-trading-system/pkg/config"
)

const (
	AppName    = "Trading Engine Live Bot"
	AppVersion = "1.0.0"

	DefaultMomentumLookback = 10
	DefaultMomentumScale    = 0.05

	// A live feed is degraded when no bar arrived for this long
	// relative to the configured interval.
	staleFactor = 3
)

func main() {
	var (
		configFile = flag.String("config", "", "JSON configuration file")
		envFile    = flag.String("env", ".env", "Environment file path")
		paperMode  = flag.Bool("paper", true, "Paper trading: simulate fills locally instead of routing orders (default: true)")
		version    = flag.Bool("version", false, "Show version and exit")
	)
	flag.Parse()

	if *version {
		fmt.Printf("%s v%s\n", AppName, AppVersion)
		return
	}

	printHeader(*paperMode)

	if err := godotenv.Load(*envFile); err != nil && !os.IsNotExist(err) {
		log.Printf("⚠️ Could not load %s: %v", *envFile, err)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("❌ Configuration error: %v", err)
	}
	if !*paperMode && (cfg.Exchange.APIKey == "" || cfg.Exchange.APISecret == "") {
		log.Fatal("❌ Live trading requires EXCHANGE_API_KEY and EXCHANGE_API_SECRET")
	}

	client := exchange.NewClient(cfg.Exchange)
	fmt.Printf("🔗 Exchange: %s (%s, %s)\n", cfg.Exchange.Name, client.Environment(), cfg.Exchange.Category)

	traceLog, err := logger.NewLogger(cfg.Symbol, cfg.Interval)
	if err != nil {
		log.Fatalf("❌ Failed to open log file: %v", err)
	}
	defer traceLog.Close()

	notifier := buildNotifier(cfg)
	health := monitoring.NewHealthChecker(staleFactor * intervalDuration(cfg.Interval))

	live, ledger, err := buildLiveEngine(cfg, client, *paperMode, traceLog, notifier, health)
	if err != nil {
		log.Fatalf("❌ Pipeline error: %v", err)
	}

	ctx, stop := ossignal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startMonitoringServers(cfg, health)

	if err := live.Bootstrap(ctx, client); err != nil {
		log.Fatalf("❌ Bootstrap failed: %v", err)
	}

	stream := exchange.NewKlineStream(cfg.Symbol, exchange.BybitInterval(cfg.Interval), cfg.Exchange.Category, cfg.Exchange.Testnet)
	go stream.Run(ctx)

	fmt.Printf("🚀 Trading %s %s, initial balance $%.2f\n", cfg.Symbol, cfg.Interval, cfg.InitialBalance)
	if err := live.Run(ctx, stream.Bars()); err != nil {
		traceLog.LogSessionSummary(ledger.StartBalance(), ledger.Snapshot().Equity, len(ledger.TradeLog()))
		log.Fatalf("🚨 Engine halted: %v", err)
	}

	snap := ledger.Snapshot()
	traceLog.LogSessionSummary(ledger.StartBalance(), snap.Equity, len(ledger.TradeLog()))
	fmt.Printf("\n🏁 Session ended. Equity: $%.2f (%d trades)\n", snap.Equity, len(ledger.TradeLog()))
}

func printHeader(paper bool) {
	mode := "LIVE TRADING"
	if paper {
		mode = "PAPER TRADING"
	}
	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("🤖 %s v%s - %s\n", AppName, AppVersion, mode)
	fmt.Println(strings.Repeat("=", 50))
}

func buildNotifier(cfg *config.Config) notifications.Notifier {
	if cfg.Notifications.Enabled && cfg.Notifications.TelegramToken != "" && cfg.Notifications.TelegramChatID != "" {
		fmt.Println("📱 Telegram alerts enabled")
		return notifications.NewTelegramNotifier(cfg.Notifications.TelegramToken, cfg.Notifications.TelegramChatID)
	}
	return notifications.NewNoopNotifier()
}

// buildLiveEngine wires the decision pipeline over either the local
// fill simulator (paper) or the exchange order router (live).
func buildLiveEngine(cfg *config.Config, client *exchange.Client, paper bool,
	traceLog *logger.Logger, notifier notifications.Notifier,
	health *monitoring.HealthChecker) (*engine.LiveEngine, *portfolio.Ledger, error) {

	indicatorProvider := indicators.NewDefaultProvider()
	if required := indicatorProvider.RequiredPeriods(); cfg.WindowSize < required {
		return nil, nil, fmt.Errorf("window size %d is below the indicator minimum %d", cfg.WindowSize, required)
	}

	var modelSource signal.ModelSource
	if cfg.ModelPath != "" {
		predictor, err := model.NewONNXPredictor(cfg.ModelPath, cfg.WindowSize)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load model %s: %w", cfg.ModelPath, err)
		}
		modelSource = predictor
		fmt.Printf("🧠 Model: ONNX (%s)\n", cfg.ModelPath)
	} else {
		modelSource = model.NewStaticPredictor(DefaultMomentumLookback, DefaultMomentumScale)
		fmt.Println("🧠 Model: momentum fallback")
	}

	var advisorySource signal.AdvisorySource
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		advisorySource = advisory.NewOpenAIAdvisor(apiKey)
		fmt.Println("💬 Advisory: OpenAI")
	} else {
		advisorySource = advisory.NewNoopAdvisor()
	}

	aggregator := signal.NewAggregator(cfg.Aggregation, indicatorProvider, modelSource, advisorySource)

	ledger := portfolio.NewLedger(cfg.InitialBalance)
	evaluator := risk.NewOverseer(risk.NewManager(cfg.Risk, cfg.Execution.FeePercent), cfg.Risk)

	var executor execution.Executor
	if paper {
		executor = execution.NewSimulator(cfg.Execution, ledger)
	} else {
		executor = execution.NewLiveRouter(client, ledger, cfg.Execution.FeePercent)
	}

	live := engine.NewLiveEngine(cfg, aggregator, evaluator, executor, ledger, traceLog, notifier, health)
	return live, ledger, nil
}

// startMonitoringServers exposes the Prometheus and health endpoints.
func startMonitoringServers(cfg *config.Config, health *monitoring.HealthChecker) {
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", monitoring.NewMetricsHandler())
		addr := fmt.Sprintf(":%d", cfg.Monitoring.PrometheusPort)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Printf("⚠️ Metrics server stopped: %v", err)
		}
	}()
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/health", health)
		addr := fmt.Sprintf(":%d", cfg.Monitoring.HealthPort)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Printf("⚠️ Health server stopped: %v", err)
		}
	}()
	fmt.Printf("📊 Metrics on :%d/metrics, health on :%d/health\n",
		cfg.Monitoring.PrometheusPort, cfg.Monitoring.HealthPort)
}

// intervalDuration converts a config interval to a duration, defaulting
// to one hour for unknown notation.
func intervalDuration(interval string) time.Duration {
	if d, ok := parseInterval(interval); ok {
		return d
	}
	return time.Hour
}

func parseInterval(interval string) (time.Duration, bool) {
	switch interval {
	case "1m":
		return time.Minute, true
	case "3m":
		return 3 * time.Minute, true
	case "5m":
		return 5 * time.Minute, true
	case "15m":
		return 15 * time.Minute, true
	case "30m":
		return 30 * time.Minute, true
	case "1h":
		return time.Hour, true
	case "2h":
		return 2 * time.Hour, true
	case "4h":
		return 4 * time.Hour, true
	case "6h":
		return 6 * time.Hour, true
	case "12h":
		return 12 * time.Hour, true
	case "1d":
		return 24 * time.Hour, true
	default:
		return 0, false
	}
}
