// Package chart renders a training-load series as a PNG time chart.
package chart

import (
	"errors"
	"io"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"training-load/internal/trainload"
)

// RenderPNG draws CTL and ATL on the primary axis and TSB on the secondary
// axis for the given series, ascending by date.
func RenderPNG(w io.Writer, series []trainload.Point) error {
	if len(series) == 0 {
		return errors.New("no points to render")
	}

	x := make([]time.Time, len(series))
	ctl := make([]float64, len(series))
	atl := make([]float64, len(series))
	tsb := make([]float64, len(series))

	for i, p := range series {
		x[i] = p.Date
		ctl[i] = p.CTL
		atl[i] = p.ATL
		tsb[i] = p.TSB
	}

	scoreFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.1f")
	}
	graph := chart.Chart{
		Title:  "Training Load Trends",
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeDateValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "Load",
			ValueFormatter: scoreFormatter,
		},
		YAxisSecondary: chart.YAxis{
			Name:           "Balance",
			ValueFormatter: scoreFormatter,
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "CTL (42d)",
				XValues: x,
				YValues: ctl,
			},
			chart.TimeSeries{
				Name:    "ATL (7d)",
				XValues: x,
				YValues: atl,
			},
			chart.TimeSeries{
				Name:    "TSB",
				XValues: x,
				YValues: tsb,
				YAxis:   chart.YAxisSecondary,
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	return graph.Render(chart.PNG, w)
}
