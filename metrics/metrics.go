// Package metrics implements the evaluation functions used by the
// dogkit experiments: percent accuracy and macro-F1 for breed
// classification, mean squared error for center regression.
package metrics

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/canml/dogkit/pkg/errors"
)

// Accuracy returns the fraction of exactly matching label entries,
// scaled to a percentage in [0,100].
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("Accuracy", "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError("Accuracy", n, yPred.Len(), 0)
	}

	matches := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			matches++
		}
	}
	return float64(matches) / float64(n) * 100.0, nil
}

// MacroF1 returns the macro-averaged F1 score over the distinct
// ground-truth classes.
//
// A class with zero true positives contributes nothing to the sum, yet
// the divisor stays the total distinct-class count. This deflates the
// score whenever the model never predicts some class correctly; it is
// kept deliberately because the reference results were produced with
// exactly this policy. MacroF1Corrected divides by the number of scored
// classes instead.
func MacroF1(yTrue, yPred *mat.VecDense) (float64, error) {
	return macroF1(yTrue, yPred, false)
}

// MacroF1Corrected is MacroF1 with the divisor corrected to the number
// of classes that actually received an F1 score.
func MacroF1Corrected(yTrue, yPred *mat.VecDense) (float64, error) {
	return macroF1(yTrue, yPred, true)
}

func macroF1(yTrue, yPred *mat.VecDense, corrected bool) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("MacroF1", "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError("MacroF1", n, yPred.Len(), 0)
	}

	classes := distinctValues(yTrue)
	sum := 0.0
	scored := 0
	for _, class := range classes {
		var tp, fp, fn int
		for i := 0; i < n; i++ {
			predPos := yPred.AtVec(i) == class
			gtPos := yTrue.AtVec(i) == class
			switch {
			case predPos && gtPos:
				tp++
			case predPos && !gtPos:
				fp++
			case !predPos && gtPos:
				fn++
			}
		}

		if tp == 0 {
			errors.Warn(errors.NewUndefinedMetricWarning(
				"macro_f1",
				fmt.Sprintf("no true positives for class %g", class),
				0.0,
			))
			continue
		}

		precision := float64(tp) / float64(tp+fp)
		recall := float64(tp) / float64(tp+fn)
		sum += 2 * precision * recall / (precision + recall)
		scored++
	}

	divisor := len(classes)
	if corrected {
		if scored == 0 {
			return 0, nil
		}
		divisor = scored
	}
	return sum / float64(divisor), nil
}

// MSE returns the mean of the squared element-wise differences between
// yTrue and yPred. The result is a scalar regardless of the target
// dimensionality, so (N,1) scalar targets and (N,2) center coordinates
// are both supported.
func MSE(yTrue, yPred mat.Matrix) (float64, error) {
	r, c := yTrue.Dims()
	rp, cp := yPred.Dims()
	if r == 0 || c == 0 {
		return 0, errors.NewValueError("MSE", "empty matrix")
	}
	if r != rp || c != cp {
		return 0, errors.NewDimensionError("MSE", r, rp, 0)
	}

	var sum float64
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			diff := yTrue.At(i, j) - yPred.At(i, j)
			sum += diff * diff
		}
	}
	return sum / float64(r*c), nil
}

// distinctValues returns the sorted distinct values of v.
func distinctValues(v *mat.VecDense) []float64 {
	seen := make(map[float64]struct{})
	for i := 0; i < v.Len(); i++ {
		seen[v.AtVec(i)] = struct{}{}
	}
	values := make([]float64, 0, len(seen))
	for val := range seen {
		values = append(values, val)
	}
	sort.Float64s(values)
	return values
}
