// Package visuals renders PNG charts for evaluation results: predicted
// versus actual scatter, residual histogram and per-fold score bars.
package visuals

import (
	"fmt"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/modelbench/modelbench/pkg/errors"
)

const (
	chartWidth  = 6 * vg.Inch
	chartHeight = 4 * vg.Inch
)

// PredictedActualScatter draws predictions against actual values with the
// identity line for reference and writes the chart as PNG.
func PredictedActualScatter(w io.Writer, actual, predicted []float64, title string) error {
	if len(actual) == 0 || len(actual) != len(predicted) {
		return errors.NewValueError("visuals.PredictedActualScatter", "actual and predicted must be non-empty and the same length")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "actual"
	p.Y.Label.Text = "predicted"

	pts := make(plotter.XYs, len(actual))
	lo, hi := actual[0], actual[0]
	for i := range actual {
		pts[i].X = actual[i]
		pts[i].Y = predicted[i]
		lo = min(lo, min(actual[i], predicted[i]))
		hi = max(hi, max(actual[i], predicted[i]))
	}

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return errors.Wrap(err, "visuals.PredictedActualScatter")
	}
	identity, err := plotter.NewLine(plotter.XYs{{X: lo, Y: lo}, {X: hi, Y: hi}})
	if err != nil {
		return errors.Wrap(err, "visuals.PredictedActualScatter")
	}
	p.Add(scatter, identity)

	return writePNG(p, w)
}

// ResidualHistogram draws the distribution of prediction errors.
func ResidualHistogram(w io.Writer, actual, predicted []float64, title string) error {
	if len(actual) == 0 || len(actual) != len(predicted) {
		return errors.NewValueError("visuals.ResidualHistogram", "actual and predicted must be non-empty and the same length")
	}

	residuals := make(plotter.Values, len(actual))
	for i := range actual {
		residuals[i] = actual[i] - predicted[i]
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "residual"
	p.Y.Label.Text = "count"

	bins := 10
	if len(residuals) < 20 {
		bins = 5
	}
	hist, err := plotter.NewHist(residuals, bins)
	if err != nil {
		return errors.Wrap(err, "visuals.ResidualHistogram")
	}
	p.Add(hist)

	return writePNG(p, w)
}

// CVFoldBars draws one bar per cross-validation fold score.
func CVFoldBars(w io.Writer, scores []float64, title string) error {
	if len(scores) == 0 {
		return errors.NewValueError("visuals.CVFoldBars", "at least one fold score is required")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "fold"
	p.Y.Label.Text = "score"

	bars, err := plotter.NewBarChart(plotter.Values(scores), vg.Points(24))
	if err != nil {
		return errors.Wrap(err, "visuals.CVFoldBars")
	}
	p.Add(bars)

	labels := make([]string, len(scores))
	for i := range scores {
		labels[i] = fmt.Sprintf("%d", i+1)
	}
	p.NominalX(labels...)

	return writePNG(p, w)
}

func writePNG(p *plot.Plot, w io.Writer) error {
	wt, err := p.WriterTo(chartWidth, chartHeight, "png")
	if err != nil {
		return errors.Wrap(err, "visuals: render")
	}
	if _, err := wt.WriteTo(w); err != nil {
		return errors.Wrap(err, "visuals: write")
	}
	return nil
}
