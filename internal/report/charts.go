package report

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/activity.report/internal/analysis"
)

// hourlyBar plots mean acceleration per clock hour of worn time.
func hourlyBar(r *analysis.Result) *charts.Bar {
	x := make([]string, 0, 24)
	y := make([]opts.BarData, 0, 24)
	for _, h := range r.Activity.Hourly.Hours {
		x = append(x, fmt.Sprintf("%02d:00", h.Hour))
		y = append(y, opts.BarData{Value: math.Round(h.MeanAcceleration*10) / 10})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Activity report " + r.Participant, Width: "100%", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{Title: "Mean acceleration by hour", Subtitle: "participant=" + r.Participant}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "mg"}),
	)
	bar.SetXAxis(x).AddSeries("mean", y)
	return bar
}

// dailyStack plots stacked intensity minutes per day.
func dailyStack(r *analysis.Result) *charts.Bar {
	dates := make([]string, 0, len(r.Daily))
	levels := map[string][]opts.BarData{}
	order := []string{"sedentary", "light", "moderate", "vigorous"}
	for _, d := range r.Daily {
		dates = append(dates, d.Date)
		mins := []float64{d.SedentaryMinutes, d.LightMinutes, d.ModerateMinutes, d.VigorousMinutes}
		for i, name := range order {
			levels[name] = append(levels[name], opts.BarData{Value: math.Round(mins[i])})
		}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{Title: "Daily intensity minutes"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "minutes"}),
	)
	bar.SetXAxis(dates)
	for _, name := range order {
		bar.AddSeries(name, levels[name], charts.WithBarChartOpts(opts.BarChart{Stack: "minutes"}))
	}
	return bar
}

// RenderCharts writes an HTML page with the hourly and daily charts.
func RenderCharts(w io.Writer, r *analysis.Result) error {
	page := components.NewPage()
	page.PageTitle = "Activity report " + r.Participant
	page.AddCharts(hourlyBar(r), dailyStack(r))
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render error: %w", err)
	}
	return nil
}
