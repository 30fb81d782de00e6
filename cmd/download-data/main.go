package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jai-fire/production-grade-ai-trading-system/internal/exchange"
	"github.com/jai-fire/production-grade-ai-trading-system/pkg/config"
	"github.com/jai-fire/production-grade-ai-trading-system/pkg/types"
)

// Downloads historical klines from Bybit into the CSV layout the
// backtest loader reads: timestamp,open,high,low,close,volume.
func main() {
	var (
		symbol   = flag.String("symbol", "BTCUSDT", "Trading symbol (e.g. BTCUSDT)")
		interval = flag.String("interval", "1h", "Bar interval (e.g. 15m, 1h, 4h, 1d)")
		category = flag.String("category", "linear", "Market category (spot, linear)")
		start    = flag.String("start", "", "Start date (YYYY-MM-DD)")
		end      = flag.String("end", "", "End date (YYYY-MM-DD, default now)")
		outdir   = flag.String("outdir", "data", "Directory to write the CSV file")
		output   = flag.String("output", "", "Explicit output file path")
	)
	flag.Parse()

	if *start == "" {
		log.Fatal("❌ -start is required (YYYY-MM-DD)")
	}
	startTime, err := time.Parse("2006-01-02", *start)
	if err != nil {
		log.Fatalf("❌ Invalid start date: %v", err)
	}
	endTime := time.Now().UTC()
	if *end != "" {
		endTime, err = time.Parse("2006-01-02", *end)
		if err != nil {
			log.Fatalf("❌ Invalid end date: %v", err)
		}
		endTime = endTime.Add(24 * time.Hour)
	}

	client := exchange.NewClient(config.Exchange{
		Name:     "bybit",
		Category: *category,
	})

	fmt.Printf("📥 Downloading %s %s klines from %s to %s\n",
		*symbol, *interval, startTime.Format("2006-01-02"), endTime.Format("2006-01-02"))

	bars, err := downloadRange(client, strings.ToUpper(*symbol), exchange.BybitInterval(*interval), startTime, endTime)
	if err != nil {
		log.Fatalf("❌ Download failed: %v", err)
	}
	if len(bars) == 0 {
		log.Fatal("❌ No bars returned for the requested range")
	}

	path := *output
	if path == "" {
		path = filepath.Join(*outdir, fmt.Sprintf("%s_%s.csv", strings.ToUpper(*symbol), *interval))
	}
	if err := writeCSV(bars, path); err != nil {
		log.Fatalf("❌ Failed to write %s: %v", path, err)
	}

	fmt.Printf("✅ Wrote %d bars to %s (%s → %s)\n", len(bars), path,
		bars[0].OpenTime.Format(time.RFC3339), bars[len(bars)-1].OpenTime.Format(time.RFC3339))
}

// downloadRange pages through the kline endpoint oldest-first. Bybit
// caps each request at 1000 candles.
func downloadRange(client *exchange.Client, symbol, interval string, start, end time.Time) ([]types.Bar, error) {
	ctx := context.Background()

	var all []types.Bar
	cursor := start
	for cursor.Before(end) {
		batch, err := client.GetKlines(ctx, symbol, interval, cursor, end, 1000)
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			break
		}

		// Drop the overlap bar when pages share a boundary.
		if len(all) > 0 && !batch[0].OpenTime.After(all[len(all)-1].OpenTime) {
			trimmed := batch[:0]
			for _, bar := range batch {
				if bar.OpenTime.After(all[len(all)-1].OpenTime) {
					trimmed = append(trimmed, bar)
				}
			}
			batch = trimmed
		}
		if len(batch) == 0 {
			break
		}

		all = append(all, batch...)
		cursor = batch[len(batch)-1].OpenTime.Add(time.Millisecond)

		fmt.Printf("   %d bars, last %s\n", len(all), all[len(all)-1].OpenTime.Format(time.RFC3339))
		time.Sleep(200 * time.Millisecond) // stay under the rate limit
	}
	return all, nil
}

func writeCSV(bars []types.Bar, path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"timestamp", "open", "high", "low", "close", "volume"}); err != nil {
		return err
	}
	for _, bar := range bars {
		record := []string{
			bar.OpenTime.UTC().Format("2006-01-02 15:04:05"),
			fmt.Sprintf("%.8f", bar.Open),
			fmt.Sprintf("%.8f", bar.High),
			fmt.Sprintf("%.8f", bar.Low),
			fmt.Sprintf("%.8f", bar.Close),
			fmt.Sprintf("%.8f", bar.Volume),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}
