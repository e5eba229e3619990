// Package chart renders a PNG sparkline of observed prices.
package chart

import (
	"bytes"
	"time"

	"github.com/pkg/errors"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"crypto-alert-bot/internal/types"
)

var (
	lineColor = drawing.Color{R: 0, G: 122, B: 255, A: 255}
	fillColor = drawing.Color{R: 0, G: 122, B: 255, A: 25}
)

// Render draws observed prices over time. At least two points are required.
func Render(points []types.PricePoint, title string) ([]byte, error) {
	if len(points) < 2 {
		return nil, errors.New("not enough price points to render a chart")
	}

	xs := make([]time.Time, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i] = p.ObservedAt
		ys[i] = p.Price
	}

	graph := chart.Chart{
		Title:  title,
		Width:  800,
		Height: 360,
		Background: chart.Style{
			Padding: chart.Box{Top: 24, Left: 16, Right: 16, Bottom: 8},
		},
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeHourValueFormatter,
		},
		YAxis: chart.YAxis{
			ValueFormatter: chart.FloatValueFormatter,
		},
		Series: []chart.Series{
			chart.TimeSeries{
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeColor: lineColor,
					StrokeWidth: 2.0,
					FillColor:   fillColor,
				},
			},
		},
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, errors.Wrap(err, "could not render chart")
	}
	return buf.Bytes(), nil
}
