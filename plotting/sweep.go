// Package plotting renders cross-validation sweep results to image
// files with gonum/plot.
package plotting

import (
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/canml/dogkit/core/model"
	"github.com/canml/dogkit/modelselection"
	"github.com/canml/dogkit/pkg/errors"
)

// SweepPlot writes a performance-vs-neighbor-count chart for a sweep
// result to path (format chosen by extension, e.g. .png). For
// classification sweeps it draws accuracy and macro-F1 (scaled to
// percent) curves; for regression sweeps a single validation-loss
// curve.
func SweepPlot(result *modelselection.SweepResult, path string) error {
	if result == nil || len(result.Candidates) == 0 {
		return errors.New("empty sweep result")
	}

	p := plot.New()
	p.X.Label.Text = "Number of nearest neighbors k"
	p.Add(plotter.NewGrid())

	switch result.Task {
	case model.Classification:
		p.Title.Text = "K-fold cross-validation performance per k"
		p.Y.Label.Text = "Performance in %"

		acc := make(plotter.XYs, len(result.Candidates))
		f1 := make(plotter.XYs, len(result.Candidates))
		for i, k := range result.Candidates {
			acc[i] = plotter.XY{X: float64(k), Y: result.Scores[i].Accuracy}
			f1[i] = plotter.XY{X: float64(k), Y: result.Scores[i].MacroF1 * 100}
		}

		accLine, accPoints, err := plotter.NewLinePoints(acc)
		if err != nil {
			return errors.Wrap(err, "build accuracy curve")
		}
		f1Line, f1Points, err := plotter.NewLinePoints(f1)
		if err != nil {
			return errors.Wrap(err, "build macro-F1 curve")
		}
		p.Add(accLine, accPoints, f1Line, f1Points)
		p.Legend.Add("accuracy", accLine)
		p.Legend.Add("macro-F1", f1Line)

	case model.Regression:
		p.Title.Text = "KNN validation loss per number of neighbors"
		p.Y.Label.Text = "Validation MSE"

		loss := make(plotter.XYs, len(result.Candidates))
		for i, k := range result.Candidates {
			loss[i] = plotter.XY{X: float64(k), Y: result.Scores[i].MSE}
		}
		lossLine, lossPoints, err := plotter.NewLinePoints(loss)
		if err != nil {
			return errors.Wrap(err, "build loss curve")
		}
		p.Add(lossLine, lossPoints)
		p.Legend.Add("MSE", lossLine)

	default:
		return errors.NewValidationError("task", "unsupported task kind", string(result.Task))
	}

	if err := p.Save(9*vg.Inch, 4*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "save sweep plot to %s", path)
	}
	return nil
}
