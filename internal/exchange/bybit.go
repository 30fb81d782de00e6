package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	bybit_api "github.com/bybit-exchange/bybit.go.api"
	"github.com/google/uuid"

	engineerrors "github.com/jai-fire/production-grade-ai-trading-system/internal/errors"
	"github.com/jai-fire/production-grade-ai-trading-system/internal/execution"
	"github.com/jai-fire/production-grade-ai-trading-system/pkg/config"
	"github.com/jai-fire/production-grade-ai-trading-system/pkg/types"
)

// Client wraps the Bybit v5 unified trading API for the two things the
// engine needs from an exchange: historical klines for warm-up, and
// market orders with attached stop/target for the live router.
type Client struct {
	httpClient *bybit_api.Client
	category   string
	testnet    bool
}

// NewClient creates a Bybit client from the exchange config.
func NewClient(cfg config.Exchange) *Client {
	baseURL := bybit_api.MAINNET
	if cfg.Testnet {
		baseURL = bybit_api.TESTNET
	}

	category := cfg.Category
	if category == "" {
		category = "linear"
	}

	return &Client{
		httpClient: bybit_api.NewBybitHttpClient(
			cfg.APIKey,
			cfg.APISecret,
			bybit_api.WithBaseURL(baseURL),
		),
		category: category,
		testnet:  cfg.Testnet,
	}
}

// Environment describes which endpoint the client talks to.
func (c *Client) Environment() string {
	if c.testnet {
		return "testnet"
	}
	return "mainnet"
}

// GetKlines fetches historical candles for a symbol. Bybit returns
// newest-first; the result is re-sorted oldest-first so it can feed the
// engine directly. Only closed candles should be passed downstream; the
// newest entry may still be forming.
func (c *Client) GetKlines(ctx context.Context, symbol, interval string, start, end time.Time, limit int) ([]types.Bar, error) {
	if limit <= 0 || limit > 1000 {
		limit = 1000
	}

	reqParams := map[string]interface{}{
		"category": c.category,
		"symbol":   symbol,
		"interval": interval,
		"limit":    limit,
	}
	if !start.IsZero() {
		reqParams["start"] = start.UnixMilli()
	}
	if !end.IsZero() {
		reqParams["end"] = end.UnixMilli()
	}

	result, err := c.httpClient.NewUtaBybitServiceWithParams(reqParams).GetMarketKline(ctx)
	if err != nil {
		return nil, engineerrors.Wrap(err, engineerrors.CategoryNetwork, "exchange", "get_klines")
	}

	bars, err := parseKlineResponse(result, symbol)
	if err != nil {
		return nil, engineerrors.Wrap(err, engineerrors.CategoryFeed, "exchange", "get_klines")
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].OpenTime.Before(bars[j].OpenTime) })
	return bars, nil
}

// GetLatestPrice fetches the last traded price for a symbol.
func (c *Client) GetLatestPrice(ctx context.Context, symbol string) (float64, error) {
	params := map[string]interface{}{
		"category": c.category,
		"symbol":   symbol,
	}

	result, err := c.httpClient.NewUtaBybitServiceWithParams(params).GetMarketTickers(ctx)
	if err != nil {
		return 0, engineerrors.Wrap(err, engineerrors.CategoryNetwork, "exchange", "get_ticker")
	}

	return parseLatestPriceResponse(result)
}

// GetBalance fetches the unified account wallet balance for one coin.
func (c *Client) GetBalance(ctx context.Context, coin string) (types.Balance, error) {
	params := map[string]interface{}{
		"accountType": "UNIFIED",
		"coin":        coin,
	}

	result, err := c.httpClient.NewUtaBybitServiceWithParams(params).GetAccountWallet(ctx)
	if err != nil {
		return types.Balance{}, engineerrors.Wrap(err, engineerrors.CategoryNetwork, "exchange", "get_balance")
	}

	return parseBalanceResponse(result, coin)
}

// PlaceMarketOrder submits a market order with optional attached stop
// loss and take profit. A zero stopLoss/takeProfit omits the trigger. It
// implements execution.OrderProvider for the live order router.
func (c *Client) PlaceMarketOrder(ctx context.Context, symbol string, side types.Side, qty, stopLoss, takeProfit float64) (execution.OrderResult, error) {
	apiSide := "Buy"
	if side == types.SideShort {
		apiSide = "Sell"
	}

	apiParams := map[string]interface{}{
		"category":    c.category,
		"symbol":      symbol,
		"side":        apiSide,
		"orderType":   "Market",
		"qty":         strconv.FormatFloat(qty, 'f', -1, 64),
		"orderLinkId": uuid.NewString(),
	}
	if takeProfit > 0 {
		apiParams["takeProfit"] = strconv.FormatFloat(takeProfit, 'f', -1, 64)
	}
	if stopLoss > 0 {
		apiParams["stopLoss"] = strconv.FormatFloat(stopLoss, 'f', -1, 64)
	}

	result, err := c.httpClient.NewUtaBybitServiceWithParams(apiParams).PlaceOrder(ctx)
	if err != nil {
		return execution.OrderResult{}, engineerrors.Wrap(err, engineerrors.CategoryExecution, "exchange", "place_order")
	}

	orderID, err := parseOrderResponse(result)
	if err != nil {
		return execution.OrderResult{}, engineerrors.Wrap(err, engineerrors.CategoryExecution, "exchange", "place_order")
	}

	// Market orders fill immediately on Bybit; read the execution back
	// so fills carry the real average price rather than the last tick.
	avgPrice, execQty, err := c.getOrderFill(ctx, symbol, orderID)
	if err != nil {
		return execution.OrderResult{}, err
	}

	return execution.OrderResult{
		OrderID:     orderID,
		AvgPrice:    avgPrice,
		ExecutedQty: execQty,
	}, nil
}

// getOrderFill reads the filled order back to obtain its average price
// and executed quantity.
func (c *Client) getOrderFill(ctx context.Context, symbol, orderID string) (avgPrice, execQty float64, err error) {
	params := map[string]interface{}{
		"category": c.category,
		"symbol":   symbol,
		"orderId":  orderID,
	}

	result, err := c.httpClient.NewUtaBybitServiceWithParams(params).GetOrderHistory(ctx)
	if err != nil {
		return 0, 0, engineerrors.Wrap(err, engineerrors.CategoryNetwork, "exchange", "get_order")
	}

	return parseOrderFillResponse(result, orderID)
}

// parseOrderFillResponse extracts the average price and executed quantity
// for one order from an order-history response.
func parseOrderFillResponse(response interface{}, orderID string) (avgPrice, execQty float64, err error) {
	serverResp, ok := response.(*bybit_api.ServerResponse)
	if !ok {
		return 0, 0, fmt.Errorf("invalid response type")
	}
	if serverResp.RetCode != 0 {
		return 0, 0, fmt.Errorf("API error: %s (code: %d)", serverResp.RetMsg, serverResp.RetCode)
	}

	resultBytes, err := json.Marshal(serverResp.Result)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to marshal result: %w", err)
	}

	var orderResult struct {
		List []struct {
			OrderID    string `json:"orderId"`
			AvgPrice   string `json:"avgPrice"`
			CumExecQty string `json:"cumExecQty"`
		} `json:"list"`
	}
	if err := json.Unmarshal(resultBytes, &orderResult); err != nil {
		return 0, 0, fmt.Errorf("failed to unmarshal order result: %w", err)
	}
	if len(orderResult.List) == 0 {
		return 0, 0, fmt.Errorf("order %s not found in history", orderID)
	}

	return parseFloat64(orderResult.List[0].AvgPrice), parseFloat64(orderResult.List[0].CumExecQty), nil
}

// parseOrderResponse extracts the exchange order ID from a placed order.
func parseOrderResponse(response interface{}) (string, error) {
	serverResp, ok := response.(*bybit_api.ServerResponse)
	if !ok {
		return "", fmt.Errorf("invalid response type")
	}
	if serverResp.RetCode != 0 {
		return "", fmt.Errorf("API error: %s (code: %d)", serverResp.RetMsg, serverResp.RetCode)
	}

	resultBytes, err := json.Marshal(serverResp.Result)
	if err != nil {
		return "", fmt.Errorf("failed to marshal result: %w", err)
	}

	var orderResult struct {
		OrderID     string `json:"orderId"`
		OrderLinkID string `json:"orderLinkId"`
	}
	if err := json.Unmarshal(resultBytes, &orderResult); err != nil {
		return "", fmt.Errorf("failed to unmarshal order result: %w", err)
	}
	if orderResult.OrderID == "" {
		return "", fmt.Errorf("order response has no order ID")
	}
	return orderResult.OrderID, nil
}

// parseKlineResponse converts the raw v5 kline response into bars.
// Bybit kline format: [startTime, open, high, low, close, volume, turnover].
func parseKlineResponse(response interface{}, symbol string) ([]types.Bar, error) {
	serverResp, ok := response.(*bybit_api.ServerResponse)
	if !ok {
		return nil, fmt.Errorf("invalid response type")
	}
	if serverResp.RetCode != 0 {
		return nil, fmt.Errorf("API error: %s (code: %d)", serverResp.RetMsg, serverResp.RetCode)
	}

	resultBytes, err := json.Marshal(serverResp.Result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}

	var klineResult struct {
		Symbol string     `json:"symbol"`
		List   [][]string `json:"list"`
	}
	if err := json.Unmarshal(resultBytes, &klineResult); err != nil {
		return nil, fmt.Errorf("failed to unmarshal kline result: %w", err)
	}

	bars := make([]types.Bar, 0, len(klineResult.List))
	for _, item := range klineResult.List {
		if len(item) < 7 {
			continue // skip incomplete rows
		}
		bars = append(bars, types.Bar{
			Symbol:   symbol,
			OpenTime: time.UnixMilli(parseInt64(item[0])).UTC(),
			Open:     parseFloat64(item[1]),
			High:     parseFloat64(item[2]),
			Low:      parseFloat64(item[3]),
			Close:    parseFloat64(item[4]),
			Volume:   parseFloat64(item[5]),
		})
	}
	return bars, nil
}

func parseLatestPriceResponse(response interface{}) (float64, error) {
	serverResp, ok := response.(*bybit_api.ServerResponse)
	if !ok {
		return 0, fmt.Errorf("invalid response type")
	}
	if serverResp.RetCode != 0 {
		return 0, fmt.Errorf("API error: %s (code: %d)", serverResp.RetMsg, serverResp.RetCode)
	}

	resultBytes, err := json.Marshal(serverResp.Result)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal result: %w", err)
	}

	var tickerResult struct {
		List []struct {
			LastPrice string `json:"lastPrice"`
		} `json:"list"`
	}
	if err := json.Unmarshal(resultBytes, &tickerResult); err != nil {
		return 0, fmt.Errorf("failed to unmarshal ticker result: %w", err)
	}
	if len(tickerResult.List) == 0 {
		return 0, fmt.Errorf("no ticker data in response")
	}

	return parseFloat64(tickerResult.List[0].LastPrice), nil
}

func parseBalanceResponse(response interface{}, coin string) (types.Balance, error) {
	serverResp, ok := response.(*bybit_api.ServerResponse)
	if !ok {
		return types.Balance{}, fmt.Errorf("invalid response type")
	}
	if serverResp.RetCode != 0 {
		return types.Balance{}, fmt.Errorf("API error: %s (code: %d)", serverResp.RetMsg, serverResp.RetCode)
	}

	resultBytes, err := json.Marshal(serverResp.Result)
	if err != nil {
		return types.Balance{}, fmt.Errorf("failed to marshal result: %w", err)
	}

	var walletResult struct {
		List []struct {
			Coin []struct {
				Coin          string `json:"coin"`
				WalletBalance string `json:"walletBalance"`
				Locked        string `json:"locked"`
			} `json:"coin"`
		} `json:"list"`
	}
	if err := json.Unmarshal(resultBytes, &walletResult); err != nil {
		return types.Balance{}, fmt.Errorf("failed to unmarshal wallet result: %w", err)
	}

	for _, account := range walletResult.List {
		for _, balance := range account.Coin {
			if balance.Coin == coin {
				return types.Balance{
					Asset:  coin,
					Free:   parseFloat64(balance.WalletBalance),
					Locked: parseFloat64(balance.Locked),
				}, nil
			}
		}
	}
	return types.Balance{}, fmt.Errorf("coin %s not found in account", coin)
}

func parseFloat64(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

func parseInt64(s string) int64 {
	v, _ := strconv.ParseInt(s, 10, 64)
	return v
}
