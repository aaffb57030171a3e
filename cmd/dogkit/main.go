// Command dogkit runs the coursework experiments: load the dog
// dataset, train one of the models and report its performance, with an
// optional k-fold cross-validation sweep over the KNN neighbor count.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"

	"github.com/canml/dogkit/baseline"
	"github.com/canml/dogkit/core/model"
	"github.com/canml/dogkit/dataset"
	"github.com/canml/dogkit/linear"
	"github.com/canml/dogkit/metrics"
	"github.com/canml/dogkit/modelselection"
	"github.com/canml/dogkit/neighbors"
	"github.com/canml/dogkit/pkg/errors"
	"github.com/canml/dogkit/pkg/log"
	"github.com/canml/dogkit/plotting"
	"github.com/canml/dogkit/preprocessing"
)

type config struct {
	task     string
	method   string
	dataPath string
	dataType string
	lambda   float64
	k        int
	lr       float64
	maxIters int
	test     bool
	kFold    int
	kMax     int
	seed     uint64
	plotPath string
	logLevel string
}

func parseFlags() config {
	var cfg config
	flag.StringVar(&cfg.task, "task", "center_locating", "center_locating / breed_identifying")
	flag.StringVar(&cfg.method, "method", "dummy_classifier", "dummy_classifier / knn / linear_regression / logistic_regression")
	flag.StringVar(&cfg.dataPath, "data_path", "data", "path to the dataset directory")
	flag.StringVar(&cfg.dataType, "data_type", "features", "features (precomputed archive) / original (image directory)")
	flag.Float64Var(&cfg.lambda, "lmda", 10, "lambda of linear/ridge regression")
	flag.IntVar(&cfg.k, "K", 1, "number of neighboring datapoints used for knn")
	flag.Float64Var(&cfg.lr, "lr", 1e-5, "learning rate for methods with learning rate")
	flag.IntVar(&cfg.maxIters, "max_iters", 100, "max iters for iterative methods")
	flag.BoolVar(&cfg.test, "test", false, "train on the whole training data and evaluate on the test split, otherwise carve a validation set")
	flag.IntVar(&cfg.kFold, "k_fold", 0, "fold count for the cross-validation sweep (0 disables the sweep)")
	flag.IntVar(&cfg.kMax, "k_max", 30, "largest neighbor count candidate in the sweep")
	flag.Uint64Var(&cfg.seed, "seed", 100, "random seed for splits and folds")
	flag.StringVar(&cfg.plotPath, "plot", "", "write the sweep performance plot to this file (requires -k_fold)")
	flag.StringVar(&cfg.logLevel, "log_level", "info", "debug / info / warn / error")
	flag.Parse()
	return cfg
}

func main() {
	cfg := parseFlags()
	log.SetupLogger(cfg.logLevel)
	installWarningSink()

	if err := run(cfg); err != nil {
		slog.Error("experiment failed", log.ErrAttr(err))
		os.Exit(1)
	}
}

// installWarningSink routes pkg/errors warnings (convergence, undefined
// metrics) through zerolog, keeping the structured fields of each
// warning type.
func installWarningSink() {
	zl := zerolog.New(os.Stderr).With().Timestamp().Logger()
	errors.SetZerologWarnFunc(func(w error) {
		if obj, ok := w.(zerolog.LogObjectMarshaler); ok {
			zl.Warn().EmbedObject(obj).Msg("warning")
			return
		}
		zl.Warn().Err(w).Msg("warning")
	})
}

func run(cfg config) error {
	task, err := taskKind(cfg.task)
	if err != nil {
		return err
	}

	ds, err := loadDataset(cfg)
	if err != nil {
		return err
	}

	xTrain, xTest := ds.XTrain, ds.XTest
	var yTrain, yTest *mat.Dense
	switch task {
	case model.Classification:
		yTrain, yTest = ds.YTrain, ds.YTest
	case model.Regression:
		yTrain, yTest = ds.CTrain, ds.CTest
	}

	// Without -test, the provided test split is ignored and a 20%
	// validation split is carved from the training data instead.
	if !cfg.test {
		rng := rand.New(rand.NewPCG(cfg.seed, cfg.seed))
		xTrain, yTrain, xTest, yTest, err = modelselection.TrainTestSplit(xTrain, yTrain, 0.2, rng)
		if err != nil {
			return err
		}
	}

	nTrain, nFeatures := xTrain.Dims()
	slog.Info("dataset prepared",
		log.TaskKey, string(task),
		log.SamplesKey, nTrain,
		log.FeaturesKey, nFeatures,
	)

	// Normalize with training statistics, then append the bias column
	// so linear models learn an intercept.
	scaler := preprocessing.NewStandardizer()
	xTrainStd, err := scaler.FitTransform(xTrain)
	if err != nil {
		return err
	}
	xTestStd, err := scaler.Transform(xTest)
	if err != nil {
		return err
	}
	xTrainPrep := preprocessing.AppendBias(xTrainStd)
	xTestPrep := preprocessing.AppendBias(xTestStd)

	knnK := cfg.k
	if cfg.kFold > 0 {
		bestK, err := runSweep(cfg, task, xTrainPrep, yTrain)
		if err != nil {
			return err
		}
		if cfg.method == "knn" {
			knnK = bestK
		}
	}

	m, err := buildModel(cfg, task, knnK)
	if err != nil {
		return err
	}

	return evaluate(m, task, xTrainPrep, yTrain, xTestPrep, yTest, cfg.test)
}

func taskKind(name string) (model.Task, error) {
	switch name {
	case "center_locating":
		return model.Regression, nil
	case "breed_identifying":
		return model.Classification, nil
	default:
		return "", errors.NewValidationError("task", "only center_locating and breed_identifying are supported", name)
	}
}

func loadDataset(cfg config) (*dataset.Dataset, error) {
	switch cfg.dataType {
	case "features":
		return dataset.LoadFeatures(filepath.Join(cfg.dataPath, "features.npz"))
	case "original":
		return dataset.LoadImages(filepath.Join(cfg.dataPath, "dog-small-64"))
	default:
		return nil, errors.NewValidationError("data_type", "only features and original are supported", cfg.dataType)
	}
}

// runSweep cross-validates neighbor counts 1..k_max and returns the
// selected best k.
func runSweep(cfg config, task model.Task, X, y mat.Matrix) (int, error) {
	kList := make([]int, cfg.kMax)
	for i := range kList {
		kList[i] = i + 1
	}

	start := time.Now()
	kf := modelselection.NewKFold(cfg.kFold, cfg.seed)
	result, err := kf.Sweep(X, y, task, kList)
	if err != nil {
		return 0, err
	}

	slog.Info("cross-validation sweep finished",
		log.FoldsKey, cfg.kFold,
		log.CandidatesKey, len(kList),
		log.BestKKey, result.BestK,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	fmt.Printf("Best number of nearest neighbors on validation set is k=%d\n", result.BestK)

	if cfg.plotPath != "" {
		if err := plotting.SweepPlot(result, cfg.plotPath); err != nil {
			return 0, err
		}
		slog.Info("sweep plot written", "path", cfg.plotPath)
	}
	return result.BestK, nil
}

func buildModel(cfg config, task model.Task, knnK int) (model.Model, error) {
	switch cfg.method {
	case "dummy_classifier":
		if task == model.Regression {
			return baseline.NewDummyRegressor(), nil
		}
		return baseline.NewDummyClassifier(), nil
	case "knn":
		return neighbors.NewKNN(knnK, task), nil
	case "linear_regression":
		if task != model.Regression {
			return nil, errors.NewValidationError("method", "linear_regression only supports center_locating", cfg.method)
		}
		return linear.NewRidgeRegression(cfg.lambda), nil
	case "logistic_regression":
		if task != model.Classification {
			return nil, errors.NewValidationError("method", "logistic_regression only supports breed_identifying", cfg.method)
		}
		return linear.NewLogisticRegression(cfg.lr, cfg.maxIters), nil
	default:
		return nil, errors.NewValidationError("method", "unsupported method", cfg.method)
	}
}

// evaluate fits m on the training split and reports train and
// test/validation performance in the task's metrics.
func evaluate(m model.Model, task model.Task, xTrain, yTrain, xTest, yTest mat.Matrix, testSplit bool) error {
	if err := m.Fit(xTrain, yTrain); err != nil {
		return err
	}

	predTrain, err := m.Predict(xTrain)
	if err != nil {
		return err
	}
	predTest, err := m.Predict(xTest)
	if err != nil {
		return err
	}

	evalName := "Validation"
	if testSplit {
		evalName = "Test"
	}

	switch task {
	case model.Regression:
		trainLoss, err := metrics.MSE(yTrain, predTrain)
		if err != nil {
			return err
		}
		testLoss, err := metrics.MSE(yTest, predTest)
		if err != nil {
			return err
		}
		slog.Info("regression results",
			log.LossKey, testLoss,
			log.OperationKey, "score",
		)
		fmt.Printf("\nTrain loss = %.3f - %s loss = %.3f\n", trainLoss, evalName, testLoss)

	case model.Classification:
		gtTrain, gtTest := columnVec(yTrain), columnVec(yTest)
		ppTrain, ppTest := columnVec(predTrain), columnVec(predTest)

		trainAcc, err := metrics.Accuracy(gtTrain, ppTrain)
		if err != nil {
			return err
		}
		trainF1, err := metrics.MacroF1(gtTrain, ppTrain)
		if err != nil {
			return err
		}
		testAcc, err := metrics.Accuracy(gtTest, ppTest)
		if err != nil {
			return err
		}
		testF1, err := metrics.MacroF1(gtTest, ppTest)
		if err != nil {
			return err
		}

		slog.Info("classification results",
			log.AccuracyKey, testAcc,
			log.MacroF1Key, testF1,
			log.OperationKey, "score",
		)
		fmt.Printf("\nTrain set: accuracy = %.3f%% - F1-score = %.6f\n", trainAcc, trainF1)
		fmt.Printf("%s set:  accuracy = %.3f%% - F1-score = %.6f\n", evalName, testAcc, testF1)
	}
	return nil
}

// columnVec copies the first column of m into a vector.
func columnVec(m mat.Matrix) *mat.VecDense {
	r, _ := m.Dims()
	v := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		v.SetVec(i, m.At(i, 0))
	}
	return v
}
