// Package coin resolves user-typed tickers into market-data identifiers.
package coin

import "strings"

// ID is the identifier the market-data API expects, e.g. "bitcoin".
type ID string

// String returns the identifier as a plain string.
func (id ID) String() string {
	return string(id)
}

// DefaultMarker is shown next to coins that have no dedicated marker.
const DefaultMarker = "💸"

var tickerToID = map[string]ID{
	"btc":  "bitcoin",
	"eth":  "ethereum",
	"usdt": "tether",
	"bnb":  "binancecoin",
	"sol":  "solana",
	"xrp":  "ripple",
	"usdc": "usd-coin",
	"ada":  "cardano",
	"avax": "avalanche-2",
	"doge": "dogecoin",
}

var markers = map[ID]string{
	"bitcoin":     "🪙",
	"ethereum":    "⧫",
	"tether":      "₮",
	"binancecoin": "🔶",
	"solana":      "🌞",
	"ripple":      "💧",
	"usd-coin":    "💵",
	"cardano":     "🌱",
	"avalanche-2": "❄️",
	"dogecoin":    "🐶",
}

var popular = []string{"btc", "eth", "usdt", "bnb", "sol"}

// Normalize trims and lowercases raw user input.
func Normalize(ticker string) string {
	return strings.ToLower(strings.TrimSpace(ticker))
}

// Resolve maps a ticker to its canonical id. Unknown tickers are returned
// lowercased so callers can pass full identifiers directly.
func Resolve(ticker string) ID {
	norm := Normalize(ticker)
	if id, ok := tickerToID[norm]; ok {
		return id
	}

	return ID(norm)
}

// Popular returns the tickers offered as quick suggestions.
func Popular() []string {
	out := make([]string, len(popular))
	copy(out, popular)
	return out
}

// Marker returns the decorative emoji for a coin id.
func Marker(id ID) string {
	if m, ok := markers[ID(Normalize(string(id)))]; ok {
		return m
	}

	return DefaultMarker
}
