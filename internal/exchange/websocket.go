package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jai-fire/production-grade-ai-trading-system/pkg/types"
)

const (
	mainnetStreamURL = "wss://stream.bybit.com/v5/public/"
	testnetStreamURL = "wss://stream-testnet.bybit.com/v5/public/"

	pingInterval     = 20 * time.Second
	maxReconnectWait = 60 * time.Second
)

// KlineStream delivers closed candles for one symbol over the Bybit v5
// public websocket. Only confirmed bars are emitted, so every bar on the
// channel is final and strictly newer than the previous one. The stream
// reconnects with exponential backoff until the context is cancelled.
type KlineStream struct {
	url      string
	symbol   string
	interval string
	bars     chan types.Bar
}

// NewKlineStream creates a stream for one symbol and interval (Bybit
// interval notation, e.g. "60" for hourly). The category selects the
// public stream endpoint and must match the REST client's market.
func NewKlineStream(symbol, interval, category string, testnet bool) *KlineStream {
	if category == "" {
		category = "linear"
	}
	base := mainnetStreamURL
	if testnet {
		base = testnetStreamURL
	}
	return &KlineStream{
		url:      base + category,
		symbol:   symbol,
		interval: interval,
		bars:     make(chan types.Bar, 16),
	}
}

// Bars is the channel of confirmed candles. It is closed when the
// stream shuts down.
func (s *KlineStream) Bars() <-chan types.Bar {
	return s.bars
}

// Run connects and pumps bars until ctx is cancelled. Connection drops
// are retried with backoff; the caller only sees the bar channel.
func (s *KlineStream) Run(ctx context.Context) {
	defer close(s.bars)

	backoff := time.Second
	for {
		if err := s.connectAndPump(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("⚠️ Websocket disconnected: %v, reconnecting in %v", err, backoff)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxReconnectWait {
			backoff = maxReconnectWait
		}
	}
}

func (s *KlineStream) connectAndPump(ctx context.Context) error {
	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second

	conn, _, err := dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to websocket: %w", err)
	}
	defer conn.Close()

	topic := fmt.Sprintf("kline.%s.%s", s.interval, s.symbol)
	subscribeMsg := map[string]interface{}{
		"op":   "subscribe",
		"args": []string{topic},
	}
	if err := conn.WriteJSON(subscribeMsg); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}
	log.Printf("📡 Subscribed to %s", topic)

	// Bybit expects an application-level ping to keep the session alive.
	pingCtx, cancelPing := context.WithCancel(ctx)
	defer cancelPing()
	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-pingCtx.Done():
				return
			case <-ticker.C:
				if err := conn.WriteJSON(map[string]string{"op": "ping"}); err != nil {
					return
				}
			}
		}
	}()

	// Unblock ReadMessage when the context is cancelled.
	go func() {
		<-pingCtx.Done()
		conn.Close()
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to read message: %w", err)
		}

		bar, ok := s.parseKlineMessage(message)
		if !ok {
			continue
		}

		select {
		case s.bars <- bar:
		case <-ctx.Done():
			return nil
		}
	}
}

// klineEvent is the v5 kline push payload.
type klineEvent struct {
	Topic string `json:"topic"`
	Data  []struct {
		Start   int64  `json:"start"`
		Open    string `json:"open"`
		High    string `json:"high"`
		Low     string `json:"low"`
		Close   string `json:"close"`
		Volume  string `json:"volume"`
		Confirm bool   `json:"confirm"`
	} `json:"data"`
}

// parseKlineMessage extracts a confirmed candle from a push message.
// Subscription acks, pong replies and still-forming candles return
// ok=false.
func (s *KlineStream) parseKlineMessage(raw []byte) (types.Bar, bool) {
	var event klineEvent
	if err := json.Unmarshal(raw, &event); err != nil || event.Topic == "" {
		return types.Bar{}, false
	}

	for _, k := range event.Data {
		if !k.Confirm {
			continue
		}
		open, _ := strconv.ParseFloat(k.Open, 64)
		high, _ := strconv.ParseFloat(k.High, 64)
		low, _ := strconv.ParseFloat(k.Low, 64)
		closePrice, _ := strconv.ParseFloat(k.Close, 64)
		volume, _ := strconv.ParseFloat(k.Volume, 64)

		return types.Bar{
			Symbol:   s.symbol,
			OpenTime: time.UnixMilli(k.Start).UTC(),
			Open:     open,
			High:     high,
			Low:      low,
			Close:    closePrice,
			Volume:   volume,
		}, true
	}
	return types.Bar{}, false
}
