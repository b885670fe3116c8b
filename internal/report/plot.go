package report

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/activity.report/internal/accel"
	"github.com/banshee-data/activity.report/internal/analysis"
)

// hourlyTimeline averages finite samples into consecutive one-hour bins.
// X is hours since the start of the recording. Empty bins are skipped.
func hourlyTimeline(series accel.Series) plotter.XYs {
	perBin := int(math.Round(3600 / series.IntervalSeconds()))
	if perBin < 1 {
		perBin = 1
	}
	var pts plotter.XYs
	for lo := 0; lo < series.Len(); lo += perBin {
		hi := lo + perBin
		if hi > series.Len() {
			hi = series.Len()
		}
		var sum float64
		var n int
		for _, s := range series.Samples[lo:hi] {
			if !math.IsNaN(s.Acceleration) {
				sum += s.Acceleration
				n++
			}
		}
		if n > 0 {
			pts = append(pts, plotter.XY{X: float64(lo/perBin) + 0.5, Y: sum / float64(n)})
		}
	}
	return pts
}

// WriteTimeSeriesPNG plots the hourly mean acceleration with a marker at the
// start of each non-wear period.
func WriteTimeSeriesPNG(w io.Writer, r *analysis.Result, series accel.Series) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s - Hourly Mean Acceleration", r.Participant)
	p.X.Label.Text = fmt.Sprintf("Hours since %s", series.Start.Format(cellTimeLayout))
	p.Y.Label.Text = "Acceleration (mg)"

	if pts := hourlyTimeline(series); len(pts) > 0 {
		line, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		line.Color = color.RGBA{R: 31, G: 119, B: 180, A: 255}
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add("hourly mean", line)
	}

	if len(r.Wear.NonWearSegments) > 0 {
		marks := make(plotter.XYs, len(r.Wear.NonWearSegments))
		for i, s := range r.Wear.NonWearSegments {
			marks[i] = plotter.XY{X: s.StartTime.Sub(series.Start).Hours(), Y: 0}
		}
		sc, err := plotter.NewScatter(marks)
		if err != nil {
			return err
		}
		sc.GlyphStyle.Color = color.RGBA{R: 214, G: 39, B: 40, A: 255}
		sc.GlyphStyle.Shape = draw.TriangleGlyph{}
		sc.GlyphStyle.Radius = vg.Points(3)
		p.Add(sc)
		p.Legend.Add("non-wear start", sc)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	wt, err := p.WriterTo(14*vg.Inch, 6*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("failed to create png writer: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write png: %w", err)
	}
	return nil
}
