package preprocessing

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestComputeMeanAndStd(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		1, 10,
		2, 10,
		3, 10,
		4, 10,
	})

	mean := ComputeMean(X)
	if math.Abs(mean[0]-2.5) > 1e-12 || math.Abs(mean[1]-10) > 1e-12 {
		t.Errorf("ComputeMean() = %v, want [2.5 10]", mean)
	}

	// Population std: sqrt(mean of squared deviations).
	std := ComputeStd(X)
	wantStd0 := math.Sqrt((1.5*1.5 + 0.5*0.5 + 0.5*0.5 + 1.5*1.5) / 4)
	if math.Abs(std[0]-wantStd0) > 1e-12 {
		t.Errorf("ComputeStd()[0] = %v, want %v", std[0], wantStd0)
	}
	if std[1] != 0 {
		t.Errorf("ComputeStd()[1] = %v, want 0 for constant feature", std[1])
	}
}

func TestNormalize(t *testing.T) {
	X := mat.NewDense(2, 2, []float64{
		1, 4,
		3, 8,
	})
	out, err := Normalize(X, []float64{2, 6}, []float64{1, 2})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	want := mat.NewDense(2, 2, []float64{
		-1, -1,
		1, 1,
	})
	if !mat.EqualApprox(out, want, 1e-12) {
		t.Errorf("Normalize() = %v, want %v", mat.Formatted(out), mat.Formatted(want))
	}

	if _, err := Normalize(X, []float64{2}, []float64{1, 2}); err == nil {
		t.Error("Normalize() with short mean vector should fail")
	}
}

func TestAppendBias(t *testing.T) {
	X := mat.NewDense(2, 2, []float64{
		1, 2,
		3, 4,
	})
	out := AppendBias(X)

	r, c := out.Dims()
	if r != 2 || c != 3 {
		t.Fatalf("AppendBias() shape = (%d,%d), want (2,3)", r, c)
	}
	for i := 0; i < r; i++ {
		if out.At(i, 0) != 1 {
			t.Errorf("AppendBias() row %d bias = %v, want 1", i, out.At(i, 0))
		}
	}
	if out.At(1, 2) != 4 {
		t.Errorf("AppendBias() shifted value = %v, want 4", out.At(1, 2))
	}
}

func TestOneHotRoundTrip(t *testing.T) {
	labels := mat.NewVecDense(6, []float64{0, 2, 1, 2, 0, 3})

	onehot, err := LabelToOneHot(labels, 0) // infer C
	if err != nil {
		t.Fatalf("LabelToOneHot() error = %v", err)
	}
	r, c := onehot.Dims()
	if r != 6 || c != 4 {
		t.Fatalf("LabelToOneHot() shape = (%d,%d), want (6,4)", r, c)
	}

	back := OneHotToLabel(onehot)
	for i := 0; i < labels.Len(); i++ {
		if back.AtVec(i) != labels.AtVec(i) {
			t.Errorf("round trip label %d = %v, want %v", i, back.AtVec(i), labels.AtVec(i))
		}
	}
}

func TestLabelToOneHotOutOfRange(t *testing.T) {
	labels := mat.NewVecDense(2, []float64{0, 5})
	if _, err := LabelToOneHot(labels, 3); err == nil {
		t.Error("LabelToOneHot() with out-of-range label should fail")
	}
}

func TestNumClasses(t *testing.T) {
	labels := mat.NewVecDense(4, []float64{0, 3, 1, 2})
	if got := NumClasses(labels); got != 4 {
		t.Errorf("NumClasses() = %d, want 4", got)
	}
}

func TestStandardizer(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		1, 7,
		2, 7,
		3, 7,
		4, 7,
	})

	s := NewStandardizer()
	if _, err := s.Transform(X); err == nil {
		t.Fatal("Transform() before Fit() should fail")
	}

	out, err := s.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform() error = %v", err)
	}

	// First column standardized to zero mean; constant second column is
	// clamped to scale 1 instead of producing NaN.
	mean := ComputeMean(out)
	if math.Abs(mean[0]) > 1e-12 {
		t.Errorf("standardized mean = %v, want 0", mean[0])
	}
	for i := 0; i < 4; i++ {
		if out.At(i, 1) != 0 {
			t.Errorf("constant feature row %d = %v, want 0", i, out.At(i, 1))
		}
		if math.IsNaN(out.At(i, 1)) {
			t.Errorf("constant feature row %d is NaN", i)
		}
	}
}
