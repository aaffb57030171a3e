package dataset

import (
	"encoding/csv"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	// Register the decoders for the formats the dog images ship in.
	_ "image/jpeg"
	_ "image/png"

	"gonum.org/v1/gonum/mat"

	"github.com/canml/dogkit/pkg/errors"
)

// LoadImages decodes a directory of labeled dog images into the same
// six-array shape as the feature archive. The expected layout is
//
//	dir/train/<breed>/<image>
//	dir/test/<breed>/<image>
//	dir/centers.csv
//
// Breed names map to class indices in sorted order. Images are
// converted to grayscale and flattened row-major into feature vectors;
// every image must share the same dimensions. centers.csv holds one
// "split/breed/image,x,y" row per image with the dog-center target.
func LoadImages(dir string) (*Dataset, error) {
	centers, err := loadCenters(filepath.Join(dir, "centers.csv"))
	if err != nil {
		return nil, err
	}

	classes, err := breedIndex(dir)
	if err != nil {
		return nil, err
	}

	ds := &Dataset{}
	ds.XTrain, ds.YTrain, ds.CTrain, err = loadSplit(dir, "train", classes, centers)
	if err != nil {
		return nil, err
	}
	ds.XTest, ds.YTest, ds.CTest, err = loadSplit(dir, "test", classes, centers)
	if err != nil {
		return nil, err
	}
	return ds, ds.validate()
}

// breedIndex maps breed directory names to class indices, sorted so
// the mapping is stable across runs and across the two splits.
func breedIndex(dir string) (map[string]int, error) {
	names := make(map[string]struct{})
	for _, split := range []string{"train", "test"} {
		entries, err := os.ReadDir(filepath.Join(dir, split))
		if err != nil {
			return nil, errors.Wrapf(err, "read image split %s", split)
		}
		for _, e := range entries {
			if e.IsDir() {
				names[e.Name()] = struct{}{}
			}
		}
	}
	if len(names) == 0 {
		return nil, errors.Newf("no breed directories found under %s", dir)
	}

	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	classes := make(map[string]int, len(sorted))
	for i, name := range sorted {
		classes[name] = i
	}
	return classes, nil
}

// loadSplit decodes every image of one split into a feature row plus
// its breed label and center target.
func loadSplit(dir, split string, classes map[string]int, centers map[string][2]float64) (*mat.Dense, *mat.Dense, *mat.Dense, error) {
	splitDir := filepath.Join(dir, split)
	entries, err := os.ReadDir(splitDir)
	if err != nil {
		return nil, nil, nil, errors.Wrapf(err, "read image split %s", split)
	}

	var features [][]float64
	var labels []float64
	var targets [][2]float64
	featureDim := -1

	for _, breedDir := range entries {
		if !breedDir.IsDir() {
			continue
		}
		breed := breedDir.Name()
		class := classes[breed]

		images, err := os.ReadDir(filepath.Join(splitDir, breed))
		if err != nil {
			return nil, nil, nil, errors.Wrapf(err, "read breed directory %s", breed)
		}
		for _, img := range images {
			if img.IsDir() {
				continue
			}
			rel := filepath.ToSlash(filepath.Join(split, breed, img.Name()))
			center, ok := centers[rel]
			if !ok {
				return nil, nil, nil, errors.Newf("centers.csv has no entry for %s", rel)
			}

			row, err := flattenImage(filepath.Join(splitDir, breed, img.Name()))
			if err != nil {
				return nil, nil, nil, err
			}
			if featureDim < 0 {
				featureDim = len(row)
			} else if len(row) != featureDim {
				return nil, nil, nil, errors.NewDimensionError("LoadImages", featureDim, len(row), 1)
			}

			features = append(features, row)
			labels = append(labels, float64(class))
			targets = append(targets, center)
		}
	}

	if len(features) == 0 {
		return nil, nil, nil, errors.Newf("image split %s is empty", split)
	}

	n := len(features)
	X := mat.NewDense(n, featureDim, nil)
	y := mat.NewDense(n, 1, nil)
	c := mat.NewDense(n, 2, nil)
	for i := 0; i < n; i++ {
		X.SetRow(i, features[i])
		y.Set(i, 0, labels[i])
		c.Set(i, 0, targets[i][0])
		c.Set(i, 1, targets[i][1])
	}
	return X, y, c, nil
}

// flattenImage decodes one image into a grayscale feature vector with
// intensities scaled to [0,1].
func flattenImage(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open image %s", path)
	}
	defer func() { _ = f.Close() }()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "decode image %s", path)
	}

	bounds := img.Bounds()
	row := make([]float64, 0, bounds.Dx()*bounds.Dy())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			// ITU-R BT.601 luma, 16-bit channels scaled to [0,1].
			luma := 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
			row = append(row, luma/65535.0)
		}
	}
	return row, nil
}

// loadCenters reads the image-path to center-coordinate mapping.
func loadCenters(path string) (map[string][2]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open centers file %s", path)
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "parse centers file %s", path)
	}

	centers := make(map[string][2]float64, len(records))
	for i, rec := range records {
		if len(rec) != 3 {
			return nil, errors.Newf("centers file row %d: expected 3 fields, got %d", i+1, len(rec))
		}
		x, errX := strconv.ParseFloat(rec[1], 64)
		y, errY := strconv.ParseFloat(rec[2], 64)
		if errX != nil || errY != nil {
			return nil, errors.Newf("centers file row %d: malformed coordinates", i+1)
		}
		centers[rec[0]] = [2]float64{x, y}
	}
	return centers, nil
}
