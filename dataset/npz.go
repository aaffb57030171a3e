// Package dataset loads the six-array dog dataset consumed by the
// experiment driver, either from a precomputed feature archive (.npz)
// or from a directory of labeled images.
package dataset

import (
	"archive/zip"
	"encoding/binary"
	"io"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/canml/dogkit/pkg/errors"
)

// Dataset is the six-array shape every loader produces: features,
// breed labels and center-coordinate targets, each with a train and a
// test split.
type Dataset struct {
	XTrain, XTest *mat.Dense // features, (N,D)
	YTrain, YTest *mat.Dense // breed class indices, (N,1)
	CTrain, CTest *mat.Dense // center coordinates, (N,2)
}

// member names inside the feature archive.
var featureArrays = []string{"xtrain", "xtest", "ytrain", "ytest", "ctrain", "ctest"}

// LoadFeatures reads the precomputed feature archive at path. The
// archive is an .npz file: a zip whose members are .npy v1/v2 arrays
// named xtrain, xtest, ytrain, ytest, ctrain and ctest. One-dimensional
// arrays load as single-column matrices.
func LoadFeatures(path string) (*Dataset, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open feature archive %s", path)
	}
	defer func() { _ = r.Close() }()

	arrays := make(map[string]*mat.Dense, len(featureArrays))
	for _, f := range r.File {
		name := strings.TrimSuffix(f.Name, ".npy")
		rc, err := f.Open()
		if err != nil {
			return nil, errors.Wrapf(err, "open archive member %s", f.Name)
		}
		m, err := readNPY(rc)
		closeErr := rc.Close()
		if err != nil {
			return nil, errors.Wrapf(err, "decode archive member %s", f.Name)
		}
		if closeErr != nil {
			return nil, errors.Wrapf(closeErr, "close archive member %s", f.Name)
		}
		arrays[name] = m
	}

	for _, name := range featureArrays {
		if arrays[name] == nil {
			return nil, errors.Newf("feature archive %s is missing array %q", path, name)
		}
	}

	ds := &Dataset{
		XTrain: arrays["xtrain"],
		XTest:  arrays["xtest"],
		YTrain: arrays["ytrain"],
		YTest:  arrays["ytest"],
		CTrain: arrays["ctrain"],
		CTest:  arrays["ctest"],
	}
	return ds, ds.validate()
}

// validate checks the row-count invariants between features and
// targets.
func (ds *Dataset) validate() error {
	nTrain, _ := ds.XTrain.Dims()
	nTest, _ := ds.XTest.Dims()
	for _, check := range []struct {
		name string
		m    *mat.Dense
		want int
	}{
		{"ytrain", ds.YTrain, nTrain},
		{"ctrain", ds.CTrain, nTrain},
		{"ytest", ds.YTest, nTest},
		{"ctest", ds.CTest, nTest},
	} {
		r, _ := check.m.Dims()
		if r != check.want {
			return errors.NewDimensionError("Dataset."+check.name, check.want, r, 0)
		}
	}
	return nil
}

// npy v1.0 magic string.
var npyMagic = []byte{0x93, 'N', 'U', 'M', 'P', 'Y'}

// readNPY decodes a single .npy stream into a dense matrix. Supported
// dtypes are little-endian float64 and int64 in C (row-major) order;
// that is what numpy writes for the coursework arrays.
func readNPY(r io.Reader) (*mat.Dense, error) {
	header := make([]byte, 8)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, errors.Wrap(err, "read npy preamble")
	}
	for i, b := range npyMagic {
		if header[i] != b {
			return nil, errors.New("not an npy stream: bad magic")
		}
	}
	major := header[6]

	var headerLen int
	switch major {
	case 1:
		var l uint16
		if err := binary.Read(r, binary.LittleEndian, &l); err != nil {
			return nil, errors.Wrap(err, "read npy header length")
		}
		headerLen = int(l)
	case 2:
		var l uint32
		if err := binary.Read(r, binary.LittleEndian, &l); err != nil {
			return nil, errors.Wrap(err, "read npy header length")
		}
		headerLen = int(l)
	default:
		return nil, errors.Newf("unsupported npy version %d", major)
	}

	rawHeader := make([]byte, headerLen)
	if _, err := io.ReadFull(r, rawHeader); err != nil {
		return nil, errors.Wrap(err, "read npy header")
	}

	descr, fortran, shape, err := parseNPYHeader(string(rawHeader))
	if err != nil {
		return nil, err
	}
	if fortran {
		return nil, errors.New("fortran-ordered npy arrays are not supported")
	}

	var rows, cols int
	switch len(shape) {
	case 1:
		rows, cols = shape[0], 1
	case 2:
		rows, cols = shape[0], shape[1]
	default:
		return nil, errors.Newf("unsupported npy rank %d", len(shape))
	}

	data := make([]float64, rows*cols)
	switch descr {
	case "<f8":
		if err := binary.Read(r, binary.LittleEndian, data); err != nil {
			return nil, errors.Wrap(err, "read npy float64 payload")
		}
	case "<i8":
		ints := make([]int64, rows*cols)
		if err := binary.Read(r, binary.LittleEndian, ints); err != nil {
			return nil, errors.Wrap(err, "read npy int64 payload")
		}
		for i, v := range ints {
			data[i] = float64(v)
		}
	default:
		return nil, errors.Newf("unsupported npy dtype %q", descr)
	}

	for _, v := range data {
		if math.IsNaN(v) {
			return nil, errors.New("npy payload contains NaN values")
		}
	}

	if rows == 0 {
		return nil, errors.New("npy array has no rows")
	}
	return mat.NewDense(rows, cols, data), nil
}

// parseNPYHeader pulls descr, fortran_order and shape out of the
// python-dict header line, e.g.
//
//	{'descr': '<f8', 'fortran_order': False, 'shape': (120, 32), }
func parseNPYHeader(h string) (descr string, fortran bool, shape []int, err error) {
	descr, err = headerValue(h, "'descr':")
	if err != nil {
		return "", false, nil, err
	}

	switch {
	case strings.Contains(h, "'fortran_order': False"):
		fortran = false
	case strings.Contains(h, "'fortran_order': True"):
		fortran = true
	default:
		return "", false, nil, errors.New("npy header is missing fortran_order")
	}

	lo := strings.Index(h, "(")
	hi := strings.Index(h, ")")
	if lo < 0 || hi < lo {
		return "", false, nil, errors.New("npy header is missing shape")
	}
	for _, part := range strings.Split(h[lo+1:hi], ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue // trailing comma of 1-tuples
		}
		dim, convErr := strconv.Atoi(part)
		if convErr != nil {
			return "", false, nil, errors.Wrap(convErr, "parse npy shape")
		}
		shape = append(shape, dim)
	}
	if len(shape) == 0 {
		return "", false, nil, errors.New("npy header has empty shape")
	}
	return descr, fortran, shape, nil
}

// headerValue extracts the quoted value following key in the header.
func headerValue(h, key string) (string, error) {
	i := strings.Index(h, key)
	if i < 0 {
		return "", errors.Newf("npy header is missing %s", key)
	}
	rest := h[i+len(key):]
	lo := strings.Index(rest, "'")
	if lo < 0 {
		return "", errors.Newf("npy header has malformed %s", key)
	}
	hi := strings.Index(rest[lo+1:], "'")
	if hi < 0 {
		return "", errors.Newf("npy header has malformed %s", key)
	}
	return rest[lo+1 : lo+1+hi], nil
}
