// Package render draws dashboard views. It ships a go-chart PNG renderer,
// a file writer that keeps one PNG per chart on disk, JSON and log
// renderers, and a debouncer for resize-driven redraws.
package render

import (
	"bytes"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"streamlens/aggregate"
	"streamlens/catalog"
	"streamlens/dashboard"
)

// NoDataMessage is drawn instead of a chart when the selection is empty.
const NoDataMessage = "No data available for the current filter selection."

// Default chart size in pixels.
const (
	DefaultWidth  = 1024
	DefaultHeight = 512
)

// maxBars caps the bars of one bar chart; the rest are folded into "Other".
const maxBars = 15

// palette is the Tableau 10 scheme.
var palette = []drawing.Color{
	drawing.ColorFromHex("4e79a7"),
	drawing.ColorFromHex("f28e2c"),
	drawing.ColorFromHex("e15759"),
	drawing.ColorFromHex("76b7b2"),
	drawing.ColorFromHex("59a14f"),
	drawing.ColorFromHex("edc949"),
	drawing.ColorFromHex("af7aa1"),
	drawing.ColorFromHex("ff9da7"),
	drawing.ColorFromHex("9c755f"),
	drawing.ColorFromHex("bab0ab"),
}

func colorAt(i int) drawing.Color { return palette[i%len(palette)] }

// Size is a chart size in pixels.
type Size struct {
	Width  int
	Height int
}

func (s Size) orDefault() Size {
	if s.Width <= 0 {
		s.Width = DefaultWidth
	}
	if s.Height <= 0 {
		s.Height = DefaultHeight
	}
	return s
}

// PNG draws one chart of a view as a PNG image.
func PNG(view *dashboard.View, c dashboard.Chart, size Size) ([]byte, error) {
	size = size.orDefault()
	if view == nil || (view.Empty() && c != dashboard.ChartTimeline && c != dashboard.ChartPrices) {
		return Placeholder(size, NoDataMessage)
	}

	switch c {
	case dashboard.ChartFlow:
		return flowPNG(view.Flow, size)
	case dashboard.ChartHierarchy:
		return hierarchyPNG(view.Hierarchy, size)
	case dashboard.ChartTypes:
		return typesPNG(view.Types, size)
	case dashboard.ChartTimeline:
		return timelinePNG(view.Timeline, size)
	case dashboard.ChartPrices:
		return pricesPNG(view.Prices, size)
	default:
		return nil, fmt.Errorf("%w: %q", dashboard.ErrUnknownChart, c)
	}
}

// flowPNG draws the platform → genre layer as one stacked bar per platform.
func flowPNG(g aggregate.FlowGraph, size Size) ([]byte, error) {
	genreColor := make(map[string]drawing.Color)
	for _, n := range g.Nodes {
		if n.Kind == aggregate.KindGenre {
			genreColor[n.Value] = colorAt(len(genreColor))
		}
	}

	var bars []chart.StackedBar
	index := make(map[string]int)
	for _, e := range g.Edges {
		if e.Source.Kind != aggregate.KindPlatform {
			continue
		}
		i, ok := index[e.Source.Value]
		if !ok {
			i = len(bars)
			index[e.Source.Value] = i
			bars = append(bars, chart.StackedBar{Name: e.Source.Value})
		}
		bars[i].Values = append(bars[i].Values, chart.Value{
			Label: e.Target.Value,
			Value: float64(e.Count),
			Style: chart.Style{FillColor: genreColor[e.Target.Value], StrokeColor: drawing.ColorWhite},
		})
	}
	if len(bars) == 0 {
		return Placeholder(size, NoDataMessage)
	}

	sbc := chart.StackedBarChart{
		Title:      "Platform → Genre",
		Width:      size.Width,
		Height:     size.Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		Bars:       bars,
	}
	var buf bytes.Buffer
	if err := sbc.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("failed to render flow chart: %w", err)
	}
	return buf.Bytes(), nil
}

func hierarchyPNG(h aggregate.HierarchyView, size Size) ([]byte, error) {
	if len(h.Cells) == 0 {
		return Placeholder(size, NoDataMessage)
	}
	labels := make([]string, 0, len(h.Cells))
	values := make([]float64, 0, len(h.Cells))
	for _, c := range h.Cells {
		labels = append(labels, c.Name)
		values = append(values, float64(c.Value))
	}
	return barPNG("Content Quantity by "+h.Title, labels, values, size)
}

func typesPNG(v aggregate.TypeCountView, size Size) ([]byte, error) {
	if v.Mode == aggregate.ModeSingle {
		labels := make([]string, 0, len(v.Counts))
		values := make([]float64, 0, len(v.Counts))
		for _, c := range v.Counts {
			n := c.ShowCount
			if v.Type != catalog.TypeShow {
				n = c.MovieCount
			}
			labels = append(labels, c.Platform)
			values = append(values, float64(n))
		}
		return barPNG(fmt.Sprintf("%s titles per platform", v.Type), labels, values, size)
	}

	var bars []chart.StackedBar
	for _, c := range v.Counts {
		if c.Total() == 0 {
			continue
		}
		bars = append(bars, chart.StackedBar{
			Name: fmt.Sprintf("%s (%d)", c.Platform, c.Total()),
			Values: []chart.Value{
				{Label: fmt.Sprintf("Shows %d", c.ShowCount), Value: float64(c.ShowCount), Style: chart.Style{FillColor: colorAt(0), StrokeColor: drawing.ColorWhite}},
				{Label: fmt.Sprintf("Movies %d", c.MovieCount), Value: float64(c.MovieCount), Style: chart.Style{FillColor: colorAt(1), StrokeColor: drawing.ColorWhite}},
			},
		})
	}
	if len(bars) == 0 {
		return Placeholder(size, NoDataMessage)
	}
	sbc := chart.StackedBarChart{
		Title:      "Shows vs Movies per platform",
		Width:      size.Width,
		Height:     size.Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		Bars:       bars,
	}
	var buf bytes.Buffer
	if err := sbc.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("failed to render type chart: %w", err)
	}
	return buf.Bytes(), nil
}

// barPNG draws labelled values as a bar chart, folding the tail into an
// "Other" bar.
func barPNG(title string, labels []string, values []float64, size Size) ([]byte, error) {
	if len(values) > maxBars {
		other := 0.0
		for _, v := range values[maxBars-1:] {
			other += v
		}
		labels = append(labels[:maxBars-1:maxBars-1], "Other")
		values = append(values[:maxBars-1:maxBars-1], other)
	}

	bars := make([]chart.Value, len(values))
	top := 0.0
	for i, v := range values {
		bars[i] = chart.Value{Label: labels[i], Value: v, Style: chart.Style{FillColor: colorAt(i), StrokeColor: colorAt(i)}}
		top = max(top, v)
	}
	if top <= 0 {
		return Placeholder(size, NoDataMessage)
	}

	bc := chart.BarChart{
		Title:      title,
		Width:      size.Width,
		Height:     size.Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		BarWidth:   max(8, size.Width/(2*len(bars)+2)),
		YAxis:      chart.YAxis{Range: &chart.ContinuousRange{Min: 0, Max: top * 1.1}},
		Bars:       bars,
	}
	var buf bytes.Buffer
	if err := bc.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("failed to render bar chart: %w", err)
	}
	return buf.Bytes(), nil
}

func timelinePNG(t aggregate.TimelineView, size Size) ([]byte, error) {
	if !t.HasDomain || len(t.Buckets) == 0 {
		return Placeholder(size, NoDataMessage)
	}
	xs := make([]float64, len(t.Buckets))
	ys := make([]float64, len(t.Buckets))
	top := 0.0
	for i, b := range t.Buckets {
		xs[i] = float64(b.Year)
		ys[i] = float64(b.Count)
		top = max(top, ys[i])
	}
	xs, ys = padSinglePoint(xs, ys)

	ch := chart.Chart{
		Title:      fmt.Sprintf("Titles per year (%d-%d)", t.RangeLo, t.RangeHi),
		Width:      size.Width,
		Height:     size.Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis: chart.XAxis{
			Name:           "Year",
			Range:          &chart.ContinuousRange{Min: float64(t.DomainLo), Max: max(float64(t.DomainHi), xs[len(xs)-1])},
			ValueFormatter: yearFormatter,
		},
		YAxis: chart.YAxis{Name: "Titles", Range: &chart.ContinuousRange{Min: 0, Max: top * 1.1}},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "Titles",
				XValues: xs,
				YValues: ys,
				Style:   chart.Style{StrokeColor: colorAt(0), StrokeWidth: 2, FillColor: colorAt(0).WithAlpha(64)},
			},
		},
	}
	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("failed to render timeline: %w", err)
	}
	return buf.Bytes(), nil
}

func pricesPNG(lines []aggregate.PriceLine, size Size) ([]byte, error) {
	if len(lines) == 0 {
		return Placeholder(size, NoDataMessage)
	}

	var series []chart.Series
	lo, hi, top := 0.0, 0.0, 0.0
	first := true
	for i, line := range lines {
		if len(line.Points) == 0 {
			continue
		}
		xs := make([]float64, len(line.Points))
		ys := make([]float64, len(line.Points))
		for j, p := range line.Points {
			xs[j], ys[j] = float64(p.Year), p.Price
			top = max(top, p.Price)
		}
		xs, ys = padSinglePoint(xs, ys)
		for _, x := range xs {
			if first {
				lo, hi, first = x, x, false
			}
			lo, hi = min(lo, x), max(hi, x)
		}
		series = append(series, chart.ContinuousSeries{
			Name:    line.Platform,
			XValues: xs,
			YValues: ys,
			Style:   chart.Style{StrokeColor: colorAt(i), StrokeWidth: 2, DotColor: colorAt(i), DotWidth: 3},
		})
	}
	if len(series) == 0 {
		return Placeholder(size, NoDataMessage)
	}
	if hi <= lo {
		hi = lo + 1
	}

	ch := chart.Chart{
		Title:      "Subscription price per year",
		Width:      size.Width,
		Height:     size.Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.XAxis{Name: "Year", Range: &chart.ContinuousRange{Min: lo, Max: hi}, ValueFormatter: yearFormatter},
		YAxis:      chart.YAxis{Name: "Price", Range: &chart.ContinuousRange{Min: 0, Max: top * 1.1}},
		Series:     series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("failed to render price chart: %w", err)
	}
	return buf.Bytes(), nil
}

// padSinglePoint turns a lone point into a flat segment; go-chart cannot
// draw a one-point continuous series.
func padSinglePoint(xs, ys []float64) ([]float64, []float64) {
	if len(xs) != 1 {
		return xs, ys
	}
	return []float64{xs[0], xs[0] + 1}, []float64{ys[0], ys[0]}
}

func yearFormatter(v interface{}) string {
	if f, ok := v.(float64); ok {
		return fmt.Sprintf("%d", int(f))
	}
	return ""
}
