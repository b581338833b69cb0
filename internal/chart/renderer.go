// Package chart renders price series as PNG line charts.
package chart

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"strings"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/Proton-105/coinwatch-bot/internal/format"
	"github.com/Proton-105/coinwatch-bot/internal/market"
	"github.com/Proton-105/coinwatch-bot/pkg/metrics"
)

const (
	// MovingAverageWindow is the sample count averaged by the overlay line.
	MovingAverageWindow = 3
	// MaxDateTicks bounds the number of labelled x-axis ticks.
	MaxDateTicks = 5

	imageFormat = "png"
)

// ErrNoData is returned when the series has no samples.
var ErrNoData = errors.New("chart: no price data")

var (
	backgroundColor = color.RGBA{R: 0x12, G: 0x12, B: 0x12, A: 0xff}
	foregroundColor = color.RGBA{R: 0xe0, G: 0xe0, B: 0xe0, A: 0xff}
	priceColor      = color.RGBA{R: 0x00, G: 0xff, B: 0xff, A: 0xff}
	averageColor    = color.RGBA{R: 0xff, G: 0xa5, B: 0x00, A: 0xff}
	gridColor       = color.RGBA{R: 0x80, G: 0x80, B: 0x80, A: 0x80}
)

// Renderer draws price charts.
type Renderer struct {
	Width  vg.Length
	Height vg.Length
	Days   int
}

// NewRenderer returns a Renderer producing 10x5 inch images.
func NewRenderer() *Renderer {
	return &Renderer{
		Width:  10 * vg.Inch,
		Height: 5 * vg.Inch,
		Days:   market.DefaultSeriesDays,
	}
}

// Render draws the raw price line and, given enough samples, its moving average.
func (r *Renderer) Render(series market.Series, symbol string) ([]byte, error) {
	if len(series) == 0 {
		return nil, ErrNoData
	}

	start := time.Now()
	defer func() {
		metrics.RecordChartRender(time.Since(start))
	}()

	symbol = strings.ToUpper(symbol)
	prices := series.Prices()
	high, low, _ := Bounds(prices)

	p := plot.New()
	r.style(p)

	p.Title.Text = fmt.Sprintf("%s price (last %d days)\nHigh: %s | Low: %s",
		symbol, r.Days, format.USD(high, 2), format.USD(low, 2))
	p.X.Label.Text = "Date"
	p.Y.Label.Text = "Price (USD)"

	grid := plotter.NewGrid()
	grid.Vertical.Color = gridColor
	grid.Vertical.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	grid.Horizontal.Color = gridColor
	grid.Horizontal.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	p.Add(grid)

	priceLine, err := plotter.NewLine(indexed(prices, 0))
	if err != nil {
		return nil, fmt.Errorf("chart: price line: %w", err)
	}
	priceLine.LineStyle.Color = priceColor
	priceLine.LineStyle.Width = vg.Points(2)
	p.Add(priceLine)
	p.Legend.Add(fmt.Sprintf("%s Price (USD)", symbol), priceLine)

	if avg := MovingAverage(prices, MovingAverageWindow); len(avg) > 0 {
		avgLine, err := plotter.NewLine(indexed(avg, MovingAverageWindow-1))
		if err != nil {
			return nil, fmt.Errorf("chart: moving average line: %w", err)
		}
		avgLine.LineStyle.Color = averageColor
		avgLine.LineStyle.Width = vg.Points(1.5)
		avgLine.LineStyle.Dashes = []vg.Length{vg.Points(6), vg.Points(3)}
		p.Add(avgLine)
		p.Legend.Add(fmt.Sprintf("%d-Point Moving Average", MovingAverageWindow), avgLine)
	}

	p.X.Tick.Marker = plot.ConstantTicks(DateTicks(series.Times(), MaxDateTicks))
	p.Y.Tick.Marker = currencyTicks{base: plot.DefaultTicks{}}

	writer, err := p.WriterTo(r.Width, r.Height, imageFormat)
	if err != nil {
		return nil, fmt.Errorf("chart: create writer: %w", err)
	}

	var buf bytes.Buffer
	if _, err := writer.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("chart: encode %s: %w", imageFormat, err)
	}

	return buf.Bytes(), nil
}

func (r *Renderer) style(p *plot.Plot) {
	p.BackgroundColor = backgroundColor
	p.Title.TextStyle.Color = foregroundColor

	for _, axis := range []*plot.Axis{&p.X, &p.Y} {
		axis.Color = foregroundColor
		axis.Label.TextStyle.Color = foregroundColor
		axis.Tick.Color = foregroundColor
		axis.Tick.Label.Color = foregroundColor
	}

	p.X.Tick.Label.Rotation = 0.785398
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter

	p.Legend.Top = true
	p.Legend.Left = true
	p.Legend.TextStyle.Color = foregroundColor
}

// indexed maps values onto x positions starting at offset.
func indexed(values []float64, offset int) plotter.XYs {
	xys := make(plotter.XYs, len(values))
	for i, v := range values {
		xys[i].X = float64(i + offset)
		xys[i].Y = v
	}
	return xys
}
