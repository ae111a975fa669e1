package chart

import (
	"bytes"

	"github.com/wcharczuk/go-chart/v2"
)

const (
	barWidth   = 20
	barSpacing = 8
	minWidth   = 640
	minHeight  = 400
)

type Options struct {
	Title  string
	Width  int
	Height int
}

// RenderSVG draws p as grouped bars, one group per row and one colour per
// column. Missing values are drawn as zero.
func RenderSVG(p Projection, opts Options) ([]byte, error) {
	if len(p.Series) == 0 {
		return nil, ErrNoNumericColumns
	}
	if len(p.Labels) == 0 {
		return nil, ErrNoRows
	}

	bars := make([]chart.Value, 0, len(p.Labels)*len(p.Series))
	lo, hi := 0.0, 0.0
	for i, label := range p.Labels {
		for j, s := range p.Series {
			v := 0.0
			if s.Values[i] != nil {
				v = *s.Values[i]
			}
			lo, hi = min(lo, v), max(hi, v)

			name := ""
			if j == 0 {
				name = label
			}
			color := chart.GetDefaultColor(j)
			bars = append(bars, chart.Value{
				Label: name,
				Value: v,
				Style: chart.Style{FillColor: color, StrokeColor: color, StrokeWidth: 1},
			})
		}
	}
	if hi == lo {
		hi = lo + 1
	}

	width := max(opts.Width, minWidth, len(bars)*(barWidth+barSpacing)+2*minWidth/10)
	height := max(opts.Height, minHeight)

	bc := chart.BarChart{
		Title:        opts.Title,
		Background:   chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		Width:        width,
		Height:       height,
		BarWidth:     barWidth,
		BarSpacing:   barSpacing,
		UseBaseValue: true,
		BaseValue:    0,
		YAxis:        chart.YAxis{Range: &chart.ContinuousRange{Min: lo, Max: hi}},
		Bars:         bars,
	}

	var buf bytes.Buffer
	if err := bc.Render(chart.SVG, &buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
