package indicator

import (
	"errors"
	"fmt"
	"image/color"
	"os"

	"github.com/pplcc/plotext"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

var (
	colorPrice  = color.RGBA{R: 30, G: 30, B: 30, A: 255}
	colorEMA    = color.RGBA{R: 200, G: 120, B: 0, A: 255}
	colorBand   = color.RGBA{R: 70, G: 110, B: 200, A: 255}
	colorRSI    = color.RGBA{R: 140, G: 40, B: 160, A: 255}
	colorEquity = color.RGBA{R: 20, G: 140, B: 60, A: 255}
)

type DebugPlot struct {
	plots   []*plot.Plot
	heights []float64
	w       int
	h       int
}

func NewDebugPlot(w, h int) *DebugPlot {
	return &DebugPlot{w: w, h: h}
}

func (d *DebugPlot) Add(p *plot.Plot, height float64) {
	d.plots = append(d.plots, p)
	d.heights = append(d.heights, height)
}

// AddReadings stacks a price panel with EMA and bands above an RSI panel.
func (d *DebugPlot) AddReadings(readings []Reading, th Thresholds) error {
	price := make(plotter.XYs, 0, len(readings))
	ema := make(plotter.XYs, 0, len(readings))
	upper := make(plotter.XYs, 0, len(readings))
	lower := make(plotter.XYs, 0, len(readings))
	rsi := make(plotter.XYs, 0, len(readings))
	for i, r := range readings {
		x := float64(i)
		price = append(price, plotter.XY{X: x, Y: r.Price})
		ema = append(ema, plotter.XY{X: x, Y: r.EMA})
		rsi = append(rsi, plotter.XY{X: x, Y: r.RSI})
		if r.Bands.Ready {
			upper = append(upper, plotter.XY{X: x, Y: r.Bands.Upper})
			lower = append(lower, plotter.XY{X: x, Y: r.Bands.Lower})
		}
	}

	pp := plot.New()
	pp.Title.Text = "Price"
	if err := addLines(pp, []series{
		{name: "close", xy: price, c: colorPrice},
		{name: "ema", xy: ema, c: colorEMA},
		{name: "upper", xy: upper, c: colorBand},
		{name: "lower", xy: lower, c: colorBand},
	}); err != nil {
		return fmt.Errorf("failed to build price plot: %w", err)
	}
	d.Add(pp, 0.5)

	n := float64(len(readings))
	rp := plot.New()
	rp.Title.Text = "RSI"
	rp.Y.Min, rp.Y.Max = 0, 100
	if err := addLines(rp, []series{
		{name: "rsi", xy: rsi, c: colorRSI},
		{name: "oversold", xy: plotter.XYs{{X: 0, Y: th.Oversold}, {X: n, Y: th.Oversold}}, c: colorBand},
		{name: "overbought", xy: plotter.XYs{{X: 0, Y: th.Overbought}, {X: n, Y: th.Overbought}}, c: colorBand},
	}); err != nil {
		return fmt.Errorf("failed to build rsi plot: %w", err)
	}
	d.Add(rp, 0.25)

	return nil
}

func (d *DebugPlot) AddEquity(values []float64) error {
	xy := make(plotter.XYs, len(values))
	for i, v := range values {
		xy[i] = plotter.XY{X: float64(i), Y: v}
	}

	p := plot.New()
	p.Title.Text = "Equity"
	if err := addLines(p, []series{{name: "equity", xy: xy, c: colorEquity}}); err != nil {
		return fmt.Errorf("failed to build equity plot: %w", err)
	}
	d.Add(p, 0.25)

	return nil
}

func (d *DebugPlot) Save(path string) (err error) {
	if len(d.plots) == 0 {
		return errors.New("nothing to plot")
	}

	var axis []*plot.Axis
	for _, p := range d.plots {
		axis = append(axis, &p.X)
	}
	plotext.UniteAxisRanges(axis)

	tbl := plotext.Table{
		RowHeights: d.heights,
		ColWidths:  []float64{1},
	}

	var plots2d [][]*plot.Plot
	for _, p := range d.plots {
		plots2d = append(plots2d, []*plot.Plot{p})
	}

	h := 0.0
	for _, v := range d.heights {
		h += v * float64(d.h)
	}

	img := vgimg.New(vg.Points(float64(d.w)), vg.Points(h))
	dc := draw.New(img)

	canvases := tbl.Align(plots2d, dc)
	for i, p := range d.plots {
		p.Draw(canvases[i][0])
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create plot file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close plot file: %w", cerr))
		}
	}()

	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(f); err != nil {
		return fmt.Errorf("failed to write plot to file: %w", err)
	}

	return nil
}

type series struct {
	name string
	xy   plotter.XYs
	c    color.Color
}

func addLines(p *plot.Plot, ss []series) error {
	for _, s := range ss {
		if len(s.xy) == 0 {
			continue
		}

		l, err := plotter.NewLine(s.xy)
		if err != nil {
			return fmt.Errorf("failed to create %s line: %w", s.name, err)
		}
		l.LineStyle.Color = s.c
		p.Add(l)
		p.Legend.Add(s.name, l)
	}

	return nil
}
