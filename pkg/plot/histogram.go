// Package plot turns execution counts into a histogram render model. The
// model holds positioned primitives only; internal/ui paints it with gio and
// WriteText prints it in a terminal.
package plot

import (
	"fmt"
	"image/color"
	"sort"

	"github.com/OpenTraceLab/OpenTraceMux/pkg/backend"
)

const (
	chartHeight = float32(240)
	barWidth    = float32(28)
	barGap      = float32(4)
	groupGap    = float32(24)
	marginLeft  = float32(48)
	marginRight = float32(24)
	marginTop   = float32(56)
	marginBelow = float32(40)
	axisWidth   = float32(2)
)

// Vec represents a 2D vector or size in logical pixels.
type Vec struct {
	X float32
	Y float32
}

// RectShape describes a filled rectangle.
type RectShape struct {
	Position     Vec
	Size         Vec
	Fill         color.NRGBA
	Stroke       color.NRGBA
	StrokeWidth  float32
	CornerRadius float32
}

// LabelAlignment indicates text alignment relative to Position.
type LabelAlignment int

const (
	AlignStart LabelAlignment = iota
	AlignCenter
	AlignEnd
)

// LabelShape represents a text label.
type LabelShape struct {
	Position Vec
	Text     string
	Color    color.NRGBA
	Size     float32
	Align    LabelAlignment
}

// Series is one named set of counts, e.g. "ideal" or "noisy".
type Series struct {
	Name   string
	Counts backend.Counts
}

// Bar is the geometry and data behind one rendered bar.
type Bar struct {
	Series      int
	Key         string
	Count       int
	Probability float64
	Position    Vec
	Size        Vec
}

// Histogram is a positioned bar chart ready to be painted.
type Histogram struct {
	Size       Vec
	Title      string
	Keys       []string
	Series     []string
	Rectangles []RectShape
	Labels     []LabelShape
	Bars       []Bar
}

// Options control scaling and label visibility.
type Options struct {
	Scale     float32
	BarLabels bool
}

var seriesColors = []color.NRGBA{
	{R: 66, G: 135, B: 245, A: 255},
	{R: 220, G: 68, B: 68, A: 255},
	{R: 235, G: 138, B: 52, A: 255},
	{R: 80, G: 180, B: 110, A: 255},
}

var (
	axisColor  = color.NRGBA{R: 200, G: 200, B: 210, A: 255}
	textColor  = color.NRGBA{R: 230, G: 230, B: 235, A: 255}
	panelColor = color.NRGBA{R: 35, G: 39, B: 48, A: 220}
)

// SeriesColor returns the fill used for the series at index i.
func SeriesColor(i int) color.NRGBA {
	return seriesColors[i%len(seriesColors)]
}

func normalizeOptions(opts *Options) Options {
	cfg := Options{Scale: 1.0, BarLabels: true}
	if opts == nil {
		return cfg
	}
	if opts.Scale > 0 {
		cfg.Scale = opts.Scale
	}
	cfg.BarLabels = opts.BarLabels
	return cfg
}

func scaledTextSize(value float32, opts Options) float32 {
	size := value * opts.Scale
	if size < 6 {
		return 6
	}
	return size
}

// unionKeys returns every outcome observed by any series, sorted.
func unionKeys(series []Series) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, s := range series {
		for k := range s.Counts {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)
	return keys
}

// NewHistogram lays out one bar group per outcome with one bar per series.
// Bar heights are proportional to each series' probability so series with
// different shot counts stay comparable.
func NewHistogram(title string, series []Series, opts *Options) Histogram {
	cfg := normalizeOptions(opts)
	s := cfg.Scale

	keys := unionKeys(series)
	names := make([]string, len(series))
	for i, ser := range series {
		names[i] = ser.Name
	}

	nSeries := len(series)
	if nSeries == 0 {
		nSeries = 1
	}
	groupWidth := float32(nSeries)*barWidth*s + float32(nSeries-1)*barGap*s
	groups := len(keys)
	if groups == 0 {
		groups = 1
	}
	plotWidth := float32(groups)*groupWidth + float32(groups+1)*groupGap*s
	plotHeight := chartHeight * s

	h := Histogram{
		Size:   Vec{X: marginLeft*s + plotWidth + marginRight*s, Y: marginTop*s + plotHeight + marginBelow*s},
		Title:  title,
		Keys:   keys,
		Series: names,
	}

	originX := marginLeft * s
	baseY := marginTop*s + plotHeight

	h.Rectangles = append(h.Rectangles, RectShape{
		Size: h.Size,
		Fill: panelColor,
	})
	// Axes.
	h.Rectangles = append(h.Rectangles,
		RectShape{Position: Vec{X: originX, Y: marginTop * s}, Size: Vec{X: axisWidth * s, Y: plotHeight}, Fill: axisColor},
		RectShape{Position: Vec{X: originX, Y: baseY}, Size: Vec{X: plotWidth, Y: axisWidth * s}, Fill: axisColor},
	)

	addLabel(&h.Labels, title, AlignCenter, scaledTextSize(16, cfg), Vec{X: h.Size.X / 2, Y: 18 * s}, textColor)
	addLabel(&h.Labels, "1.0", AlignEnd, scaledTextSize(10, cfg), Vec{X: originX - 6*s, Y: marginTop * s}, textColor)
	addLabel(&h.Labels, "0.5", AlignEnd, scaledTextSize(10, cfg), Vec{X: originX - 6*s, Y: marginTop*s + plotHeight/2}, textColor)
	addLabel(&h.Labels, "0", AlignEnd, scaledTextSize(10, cfg), Vec{X: originX - 6*s, Y: baseY}, textColor)

	// Legend, one swatch per series along the top.
	for i, name := range names {
		x := originX + float32(i)*120*s
		y := 36 * s
		h.Rectangles = append(h.Rectangles, RectShape{
			Position: Vec{X: x, Y: y},
			Size:     Vec{X: 10 * s, Y: 10 * s},
			Fill:     SeriesColor(i),
		})
		addLabel(&h.Labels, name, AlignStart, scaledTextSize(10, cfg), Vec{X: x + 14*s, Y: y + 5*s}, textColor)
	}

	for g, key := range keys {
		groupX := originX + groupGap*s + float32(g)*(groupWidth+groupGap*s)
		for i, ser := range series {
			p := ser.Counts.Probability(key)
			height := float32(p) * plotHeight
			pos := Vec{X: groupX + float32(i)*(barWidth+barGap)*s, Y: baseY - height}
			size := Vec{X: barWidth * s, Y: height}

			h.Rectangles = append(h.Rectangles, RectShape{
				Position: pos,
				Size:     size,
				Fill:     SeriesColor(i),
			})
			h.Bars = append(h.Bars, Bar{
				Series:      i,
				Key:         key,
				Count:       ser.Counts[key],
				Probability: p,
				Position:    pos,
				Size:        size,
			})
			if cfg.BarLabels {
				addLabel(&h.Labels, fmt.Sprintf("%d", ser.Counts[key]), AlignCenter, scaledTextSize(9, cfg),
					Vec{X: pos.X + size.X/2, Y: pos.Y - 8*s}, textColor)
			}
		}
		addLabel(&h.Labels, key, AlignCenter, scaledTextSize(11, cfg),
			Vec{X: groupX + groupWidth/2, Y: baseY + 16*s}, textColor)
	}

	return h
}

func addLabel(labels *[]LabelShape, text string, align LabelAlignment, size float32, pos Vec, col color.NRGBA) {
	*labels = append(*labels, LabelShape{
		Text:     text,
		Align:    align,
		Size:     size,
		Position: pos,
		Color:    col,
	})
}
