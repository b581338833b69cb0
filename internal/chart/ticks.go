package chart

import (
	"time"

	"gonum.org/v1/plot"

	"github.com/Proton-105/coinwatch-bot/internal/format"
)

const dateLayout = "2006-01-02"

// DateTicks places at most maxTicks labelled ticks on sample indices, stepping
// by floor(n/maxTicks) with a minimum stride of 1.
func DateTicks(times []time.Time, maxTicks int) []plot.Tick {
	if len(times) == 0 || maxTicks <= 0 {
		return nil
	}

	stride := len(times) / maxTicks
	if stride < 1 {
		stride = 1
	}

	ticks := make([]plot.Tick, 0, maxTicks)
	for i := 0; i < len(times) && len(ticks) < maxTicks; i += stride {
		ticks = append(ticks, plot.Tick{
			Value: float64(i),
			Label: times[i].UTC().Format(dateLayout),
		})
	}

	return ticks
}

// currencyTicks keeps the default tick placement but labels major ticks as USD.
type currencyTicks struct {
	base plot.Ticker
}

func (c currencyTicks) Ticks(min, max float64) []plot.Tick {
	places := labelPlaces(max - min)

	ticks := c.base.Ticks(min, max)
	for i := range ticks {
		if ticks[i].Label == "" {
			continue
		}
		ticks[i].Label = format.USD(ticks[i].Value, places)
	}
	return ticks
}

// labelPlaces picks enough decimals for sub-dollar price ranges.
func labelPlaces(span float64) int32 {
	switch {
	case span >= 10:
		return 0
	case span >= 0.1:
		return 2
	default:
		return 4
	}
}
