package renderer

import (
	"bytes"
	"fmt"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"PortfolioLens/internal/model"
)

var seriesPalette = []string{
	"2563eb", // blue-600
	"dc2626", // red-600
	"16a34a", // green-600
	"9333ea", // purple-600
	"ea580c", // orange-600
	"0891b2", // cyan-600
}

const netColor = "111827" // gray-900

// RenderChart renders the per-stock equity curves of an update as a PNG line
// chart, with the combined net curve overlaid when present. Needs at least
// one drawable series.
func RenderChart(update Update) ([]byte, error) {
	result := update.Result

	var series []chart.Series
	for i, symbol := range result.Order {
		points := result.PerStock[symbol]
		if len(points) < 2 {
			continue
		}
		x, y := axisValues(points, result.Mode)
		series = append(series, chart.TimeSeries{
			Name: symbol,
			Style: chart.Style{
				StrokeColor: drawing.ColorFromHex(seriesPalette[i%len(seriesPalette)]),
				StrokeWidth: 1.5,
			},
			XValues: x,
			YValues: y,
		})
	}
	if len(result.Net) >= 2 {
		x, y := axisValues(result.Net, result.Mode)
		series = append(series, chart.TimeSeries{
			Name: "Net",
			Style: chart.Style{
				StrokeColor: drawing.ColorFromHex(netColor),
				StrokeWidth: 2.5,
			},
			XValues: x,
			YValues: y,
		})
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("no drawable series")
	}

	graph := chart.Chart{
		Title:  "Net Equity",
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			TickPosition: chart.TickPositionBetweenTicks,
			ValueFormatter: func(v interface{}) string {
				if t, ok := v.(float64); ok {
					return chart.TimeFromFloat64(t).Format("Jan 02")
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: yFormatter(result.Mode),
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{
		chart.LegendLeft(&graph),
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}
	return buf.Bytes(), nil
}

// axisValues extracts the chart axes from an equity series. In percent mode
// points without a defined percent plot at zero.
func axisValues(points model.EquitySeries, mode model.DisplayMode) ([]time.Time, []float64) {
	x := make([]time.Time, len(points))
	y := make([]float64, len(points))
	for i, p := range points {
		x[i] = p.Time
		if mode == model.ModePercent {
			if p.PercentValid {
				y[i] = p.Percent
			}
		} else {
			y[i] = p.Equity
		}
	}
	return x, y
}

func yFormatter(mode model.DisplayMode) chart.ValueFormatter {
	if mode == model.ModePercent {
		return func(v interface{}) string {
			if f, ok := v.(float64); ok {
				return fmt.Sprintf("%.1f%%", f)
			}
			return ""
		}
	}
	return func(v interface{}) string {
		if f, ok := v.(float64); ok {
			return fmt.Sprintf("$%.2f", f)
		}
		return ""
	}
}
