package exchange

// BybitInterval converts a human interval ("1h", "15m", "1d") to Bybit
// v5 kline notation ("60", "15", "D"). Unknown values pass through
// unchanged so raw Bybit notation also works in config.
func BybitInterval(interval string) string {
	switch interval {
	case "1m":
		return "1"
	case "3m":
		return "3"
	case "5m":
		return "5"
	case "15m":
		return "15"
	case "30m":
		return "30"
	case "1h":
		return "60"
	case "2h":
		return "120"
	case "4h":
		return "240"
	case "6h":
		return "360"
	case "12h":
		return "720"
	case "1d":
		return "D"
	case "1w":
		return "W"
	default:
		return interval
	}
}
