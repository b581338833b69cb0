// Package market is a read-only client for the CoinGecko public API.
package market

import "time"

const (
	// DefaultBaseURL is the public CoinGecko API root.
	DefaultBaseURL = "https://api.coingecko.com/api/v3"
	// DefaultSeriesDays is the chart window requested by the bot.
	DefaultSeriesDays = 7
	// DefaultTopCount is the size of the market-cap leaderboard.
	DefaultTopCount = 10

	apiKeyHeader     = "x-cg-demo-api-key"
	defaultUserAgent = "coinwatch-bot/1.0"
	vsCurrency       = "usd"
)

// Snapshot is one element of the /coins/markets response.
type Snapshot struct {
	ID            string  `json:"id"`
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	Price         float64 `json:"current_price"`
	Change24hPct  float64 `json:"price_change_percentage_24h"`
	Volume24h     float64 `json:"total_volume"`
	MarketCap     float64 `json:"market_cap"`
	MarketCapRank int     `json:"market_cap_rank"`
}

// PricePoint is a single sample of a price series.
type PricePoint struct {
	Time  time.Time
	Price float64
}

// Series is a chronological price series in API order.
type Series []PricePoint

// Times returns the sample timestamps.
func (s Series) Times() []time.Time {
	out := make([]time.Time, len(s))
	for i, p := range s {
		out[i] = p.Time
	}
	return out
}

// Prices returns the sample prices.
func (s Series) Prices() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Price
	}
	return out
}

type marketChartResponse struct {
	Prices [][]float64 `json:"prices"`
}

type simplePriceResponse map[string]map[string]*float64
