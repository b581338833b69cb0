// Package format renders market data as user-facing text.
package format

import (
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// USD formats v as a dollar amount grouped by thousands with the given decimal
// places. The shortest decimal form of v is rounded half away from zero.
func USD(v float64, places int32) string {
	return signed(v, "$"+grouped(v, places))
}

// Percent formats v with two decimals and a percent sign, e.g. -2.35%.
func Percent(v float64) string {
	return signed(v, grouped(v, 2)) + "%"
}

func grouped(v float64, places int32) string {
	d := decimal.NewFromFloat(v).Abs().Round(places)

	whole := humanize.BigComma(d.Truncate(0).BigInt())
	if places <= 0 {
		return whole
	}

	fixed := d.StringFixed(places)
	_, frac, _ := strings.Cut(fixed, ".")
	return whole + "." + frac
}

// signed prefixes body with a minus when v rounds to a negative value.
func signed(v float64, body string) string {
	if v < 0 && strings.Trim(body, "$0.,%") != "" {
		return "-" + body
	}
	return body
}

// CompactUSD keeps two decimals for prices of a dollar or more and four below.
func CompactUSD(v float64) string {
	if v > -1 && v < 1 {
		return USD(v, 4)
	}
	return USD(v, 2)
}
