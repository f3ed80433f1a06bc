package chart

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ErrNothingToRender is returned when a spec has no drawable point.
var ErrNothingToRender = errors.New("chart has no drawable values")

// Format is an image output format.
type Format string

const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
)

// ParseFormat validates an image format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatPNG, FormatSVG:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported image format %q (want png or svg)", s)
	}
}

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	if f == FormatSVG {
		return "image/svg+xml"
	}
	return "image/png"
}

func (f Format) provider() gochart.RendererProvider {
	if f == FormatSVG {
		return gochart.SVG
	}
	return gochart.PNG
}

// Render draws s into w. Cells that did not normalize are skipped; pie
// slices must be positive.
func Render(s *Spec, f Format, width, height int, w io.Writer) error {
	if s == nil {
		return ErrNothingToRender
	}
	if width <= 0 {
		width = 1024
	}
	if height <= 0 {
		height = 600
	}
	switch s.Kind {
	case KindBar:
		return renderBar(s, f.provider(), width, height, w)
	case KindLine:
		return renderLine(s, f.provider(), width, height, w)
	case KindPie:
		return renderPie(s, f.provider(), width, height, w)
	default:
		return fmt.Errorf("render: unknown chart kind %q", s.Kind)
	}
}

// renderBar lays out one bar per category per series, grouped by category
// and colored by series.
func renderBar(s *Spec, rp gochart.RendererProvider, width, height int, w io.Writer) error {
	labels := s.CategoryLabels()
	var bars []gochart.Value
	var ys []float64
	for ci, label := range labels {
		for _, sr := range s.Series {
			if ci >= len(sr.Values) || !finite(sr.Values[ci]) {
				continue
			}
			name := label
			if len(s.Series) > 1 {
				name = label + " " + sr.Name
			}
			v := *sr.Values[ci]
			bars = append(bars, gochart.Value{Label: name, Value: v, Style: fill(sr.Color)})
			ys = append(ys, v)
		}
	}
	if len(bars) == 0 {
		return ErrNothingToRender
	}
	lo, hi := span(ys, true)
	slot := (width - 120) / len(bars)
	if slot < 3 {
		slot = 3
	}
	bc := gochart.BarChart{
		Title:      s.Title,
		Width:      width,
		Height:     height,
		Background: gochart.Style{Padding: gochart.Box{Top: 48, Left: 16, Right: 16, Bottom: 16}},
		BarWidth:   slot * 2 / 3,
		BarSpacing: slot - slot*2/3,
		YAxis: gochart.YAxis{
			Name:  s.YTitle,
			Range: &gochart.ContinuousRange{Min: lo, Max: hi},
		},
		Bars: bars,
	}
	if lo < 0 {
		bc.UseBaseValue = true
		bc.BaseValue = 0
	}
	return bc.Render(rp, w)
}

// renderLine plots each series over category indices; the x ticks carry the
// category labels.
func renderLine(s *Spec, rp gochart.RendererProvider, width, height int, w io.Writer) error {
	labels := s.CategoryLabels()
	var series []gochart.Series
	var ys []float64
	for _, sr := range s.Series {
		var xv, yv []float64
		for i, v := range sr.Values {
			if !finite(v) {
				continue
			}
			xv = append(xv, float64(i))
			yv = append(yv, *v)
		}
		if len(xv) == 0 {
			continue
		}
		c := color(sr.Color)
		series = append(series, gochart.ContinuousSeries{
			Name:    sr.Name,
			XValues: xv,
			YValues: yv,
			Style:   gochart.Style{StrokeColor: c, StrokeWidth: 2, DotColor: c, DotWidth: 4},
		})
		ys = append(ys, yv...)
	}
	if len(series) == 0 {
		return ErrNothingToRender
	}
	ticks := make([]gochart.Tick, len(labels))
	for i, l := range labels {
		ticks[i] = gochart.Tick{Value: float64(i), Label: l}
	}
	xmax := float64(len(labels) - 1)
	if xmax < 1 {
		xmax = 1
	}
	lo, hi := span(ys, false)
	ch := gochart.Chart{
		Title:      s.Title,
		Width:      width,
		Height:     height,
		Background: gochart.Style{Padding: gochart.Box{Top: 48, Left: 16, Right: 16, Bottom: 16}},
		XAxis: gochart.XAxis{
			Name:  s.XTitle,
			Ticks: ticks,
			Range: &gochart.ContinuousRange{Min: 0, Max: xmax},
		},
		YAxis: gochart.YAxis{
			Name:  s.YTitle,
			Range: &gochart.ContinuousRange{Min: lo, Max: hi},
		},
		Series: series,
	}
	ch.Elements = []gochart.Renderable{gochart.Legend(&ch)}
	return ch.Render(rp, w)
}

func renderPie(s *Spec, rp gochart.RendererProvider, width, height int, w io.Writer) error {
	var values []gochart.Value
	for _, sl := range s.Slices {
		if !finite(sl.Value) || *sl.Value <= 0 {
			continue
		}
		values = append(values, gochart.Value{Label: sl.Label, Value: *sl.Value, Style: fill(sl.Color)})
	}
	if len(values) == 0 {
		return ErrNothingToRender
	}
	pc := gochart.PieChart{
		Title:  s.Title,
		Width:  width,
		Height: height,
		Values: values,
	}
	return pc.Render(rp, w)
}

func finite(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}

// span returns a non-degenerate axis range over ys. Bars always include zero.
func span(ys []float64, withZero bool) (float64, float64) {
	lo, hi := ys[0], ys[0]
	for _, y := range ys[1:] {
		lo = math.Min(lo, y)
		hi = math.Max(hi, y)
	}
	if withZero {
		lo = math.Min(lo, 0)
		hi = math.Max(hi, 0)
	}
	if lo == hi {
		lo, hi = lo-1, hi+1
	}
	return lo, hi
}

func color(hex string) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
}

func fill(hex string) gochart.Style {
	c := color(hex)
	return gochart.Style{FillColor: c, StrokeColor: c}
}
