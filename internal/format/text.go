package format

import (
	"strings"

	"github.com/Proton-105/coinwatch-bot/internal/i18n"
	"github.com/Proton-105/coinwatch-bot/internal/market"
)

const (
	pricePlaces  = 2
	volumePlaces = 0
)

// Snapshot renders the multi-line coin info message.
func Snapshot(t i18n.Translator, s market.Snapshot) string {
	lines := []string{
		i18n.Render(t, "info.header", map[string]string{
			"Name":   s.Name,
			"Symbol": strings.ToUpper(s.Symbol),
		}),
		i18n.Render(t, "info.price", map[string]string{"Value": USD(s.Price, pricePlaces)}),
		i18n.Render(t, "info.change", map[string]string{"Value": Percent(s.Change24hPct)}),
		i18n.Render(t, "info.volume", map[string]string{"Value": USD(s.Volume24h, volumePlaces)}),
		i18n.Render(t, "info.market_cap", map[string]string{"Value": USD(s.MarketCap, volumePlaces)}),
	}

	return strings.Join(lines, "\n")
}

// Price renders the one-line spot price reply.
func Price(t i18n.Translator, symbol string, price float64) string {
	return i18n.Render(t, "price.line", map[string]string{
		"Symbol": strings.ToUpper(symbol),
		"Price":  USD(price, pricePlaces),
	})
}

// TopHeader is the text shown above the top coins keyboard.
func TopHeader(t i18n.Translator) string {
	return i18n.Render(t, "top.header", nil)
}
