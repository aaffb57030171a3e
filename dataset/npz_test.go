package dataset

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// npyBytes serializes one little-endian C-order .npy v1.0 array the
// way numpy writes them, including the 16-byte header alignment.
func npyBytes(t *testing.T, descr string, shape []int, data interface{}) []byte {
	t.Helper()

	dims := make([]string, len(shape))
	for i, d := range shape {
		dims[i] = fmt.Sprintf("%d", d)
	}
	shapeStr := strings.Join(dims, ", ")
	if len(shape) == 1 {
		shapeStr += ","
	}
	header := fmt.Sprintf("{'descr': '%s', 'fortran_order': False, 'shape': (%s), }", descr, shapeStr)

	// Pad so preamble+header is a multiple of 16, ending in newline.
	total := 6 + 2 + 2 + len(header) + 1
	if pad := 16 - total%16; pad != 16 {
		header += strings.Repeat(" ", pad)
	}
	header += "\n"

	var buf bytes.Buffer
	buf.Write([]byte{0x93, 'N', 'U', 'M', 'P', 'Y', 1, 0})
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint16(len(header))))
	buf.WriteString(header)
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, data))
	return buf.Bytes()
}

// writeArchive writes the named arrays into an .npz file under a temp
// directory and returns its path.
func writeArchive(t *testing.T, members map[string][]byte) string {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, payload := range members {
		w, err := zw.Create(name + ".npy")
		require.NoError(t, err)
		_, err = w.Write(payload)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	path := filepath.Join(t.TempDir(), "features.npz")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func sampleArchive(t *testing.T) map[string][]byte {
	t.Helper()
	return map[string][]byte{
		"xtrain": npyBytes(t, "<f8", []int{4, 3}, []float64{
			1, 2, 3,
			4, 5, 6,
			7, 8, 9,
			10, 11, 12,
		}),
		"xtest": npyBytes(t, "<f8", []int{2, 3}, []float64{
			0.5, 0.5, 0.5,
			1.5, 1.5, 1.5,
		}),
		"ytrain": npyBytes(t, "<i8", []int{4}, []int64{0, 1, 1, 0}),
		"ytest":  npyBytes(t, "<i8", []int{2}, []int64{1, 0}),
		"ctrain": npyBytes(t, "<f8", []int{4, 2}, []float64{
			10, 20,
			11, 21,
			12, 22,
			13, 23,
		}),
		"ctest": npyBytes(t, "<f8", []int{2, 2}, []float64{
			30, 40,
			31, 41,
		}),
	}
}

func TestLoadFeatures(t *testing.T) {
	path := writeArchive(t, sampleArchive(t))

	ds, err := LoadFeatures(path)
	require.NoError(t, err)

	r, c := ds.XTrain.Dims()
	assert.Equal(t, 4, r)
	assert.Equal(t, 3, c)
	assert.Equal(t, 6.0, ds.XTrain.At(1, 2))

	// 1-D label arrays load as single columns.
	r, c = ds.YTrain.Dims()
	assert.Equal(t, 4, r)
	assert.Equal(t, 1, c)
	assert.Equal(t, 1.0, ds.YTrain.At(1, 0))

	r, c = ds.CTest.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, 41.0, ds.CTest.At(1, 1))
}

func TestLoadFeaturesMissingArray(t *testing.T) {
	members := sampleArchive(t)
	delete(members, "ctest")
	path := writeArchive(t, members)

	_, err := LoadFeatures(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ctest")
}

func TestLoadFeaturesRowMismatch(t *testing.T) {
	members := sampleArchive(t)
	members["ytrain"] = npyBytes(t, "<i8", []int{3}, []int64{0, 1, 1})
	path := writeArchive(t, members)

	_, err := LoadFeatures(path)
	require.Error(t, err)
}

func TestReadNPYRejectsBadInput(t *testing.T) {
	t.Run("bad magic", func(t *testing.T) {
		_, err := readNPY(bytes.NewReader([]byte("not an npy stream at all")))
		require.Error(t, err)
	})

	t.Run("unsupported dtype", func(t *testing.T) {
		payload := npyBytes(t, "<f4", []int{2}, []float32{1, 2})
		_, err := readNPY(bytes.NewReader(payload))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "dtype")
	})

	t.Run("fortran order", func(t *testing.T) {
		payload := npyBytes(t, "<f8", []int{2}, []float64{1, 2})
		fixed := bytes.Replace(payload, []byte("'fortran_order': False"), []byte("'fortran_order': True "), 1)
		_, err := readNPY(bytes.NewReader(fixed))
		require.Error(t, err)
	})
}
