package report

import (
	"errors"
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/ayusman/repcount/internal/store"
)

// ErrNoEvents is returned when there is nothing to chart or export.
var ErrNoEvents = errors.New("no events")

// Chart dimensions.
const (
	ChartWidth  = 8 * vg.Inch
	ChartHeight = 4 * vg.Inch
)

// WriteChart renders cumulative reps over time as a PNG.
func WriteChart(w io.Writer, title string, events []store.RepEvent) error {
	if len(events) == 0 {
		return ErrNoEvents
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Seconds"
	p.Y.Label.Text = "Reps"
	p.Add(plotter.NewGrid())

	start := events[0].At
	pts := make(plotter.XYs, 0, len(events)+1)
	pts = append(pts, plotter.XY{X: 0, Y: 0})
	for i, e := range events {
		pts = append(pts, plotter.XY{X: e.At.Sub(start).Seconds(), Y: float64(i + 1)})
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("failed to build line: %w", err)
	}
	line.Width = vg.Points(1.5)
	line.Color = color.RGBA{R: 31, G: 119, B: 180, A: 255}

	scatter, err := plotter.NewScatter(pts[1:])
	if err != nil {
		return fmt.Errorf("failed to build scatter: %w", err)
	}
	scatter.Color = color.RGBA{R: 214, G: 39, B: 40, A: 255}

	p.Add(line, scatter)
	p.Y.Min = 0

	wt, err := p.WriterTo(ChartWidth, ChartHeight, "png")
	if err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}
