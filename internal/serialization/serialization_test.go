package serialization

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/born-ml/nas/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawOf(t *testing.T, data []float32, shape ...int) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.RawFromSlice(data, tensor.Shape(shape))
	require.NoError(t, err)
	return raw
}

func sampleStateDict(t *testing.T) map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{
		"stem.0.weight":       rawOf(t, []float32{1, -2, 3.5, 4, 5, 6}, 1, 1, 2, 3),
		"stem.1.moving_mean":  rawOf(t, []float32{0.25, -0.5, 0.75}, 3),
		"arch.betas_normal":   rawOf(t, []float32{1e-3, -1e-3}, 2),
		"classifier.bias":     rawOf(t, []float32{0}, 1),
		"cells.10.ops.0.mean": rawOf(t, []float32{7, 8}, 2),
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run", "best")
	sd := sampleStateDict(t)

	err := Save(path, sd, Header{
		ModelType: "SearchNetwork",
		Metadata:  map[string]string{"run_id": "abc"},
	})
	require.NoError(t, err)

	loaded, header, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, FormatVersion, header.FormatVersion)
	assert.Equal(t, "SearchNetwork", header.ModelType)
	assert.Equal(t, "abc", header.Metadata["run_id"])
	assert.False(t, header.CreatedAt.IsZero())

	require.Len(t, loaded, len(sd))
	for name, want := range sd {
		got, ok := loaded[name]
		require.True(t, ok, name)
		assert.Equal(t, want.Shape(), got.Shape(), name)
		assert.Equal(t, want.Data(), got.Data(), name)
	}
}

func TestDataSectionAligned(t *testing.T) {
	path := filepath.Join(t.TempDir(), "best")
	require.NoError(t, Save(path, sampleStateDict(t), Header{}))

	r, err := NewReader(path)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"arch.betas_normal",
		"cells.10.ops.0.mean",
		"classifier.bias",
		"stem.0.weight",
		"stem.1.moving_mean",
	}, r.TensorNames())
	assert.False(t, r.HasMetadata())

	info, err := os.Stat(path)
	require.NoError(t, err)
	var dataSize int64
	for _, meta := range r.Header().Tensors {
		dataSize += meta.Size
	}
	assert.Zero(t, (info.Size()-dataSize)%HeaderAlignment)
}

func TestLoadTensorNotFound(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "best")
	require.NoError(t, Save(path, sampleStateDict(t), Header{}))
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	buf.Write(content)

	r, err := ReadFrom(&buf)
	require.NoError(t, err)
	_, err = r.LoadTensor("missing")
	assert.ErrorIs(t, err, ErrTensorNotFound)
}

func TestReadFromCorrupted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "best")
	require.NoError(t, Save(path, sampleStateDict(t), Header{}))
	content, err := os.ReadFile(path)
	require.NoError(t, err)

	t.Run("magic", func(t *testing.T) {
		bad := bytes.Clone(content)
		copy(bad, "NOPE")
		_, err := ReadFrom(bytes.NewReader(bad))
		assert.ErrorIs(t, err, ErrInvalidMagic)
	})

	t.Run("version", func(t *testing.T) {
		bad := bytes.Clone(content)
		bad[4] = 9
		_, err := ReadFrom(bytes.NewReader(bad))
		assert.ErrorIs(t, err, ErrUnsupportedVersion)
	})

	t.Run("checksum", func(t *testing.T) {
		bad := bytes.Clone(content)
		bad[len(bad)-1] ^= 0xFF
		_, err := ReadFrom(bytes.NewReader(bad))
		assert.ErrorIs(t, err, ErrChecksumMismatch)
	})

	t.Run("truncated", func(t *testing.T) {
		_, err := ReadFrom(bytes.NewReader(content[:len(content)-4]))
		assert.Error(t, err)
	})
}

func TestValidateTensorName(t *testing.T) {
	tests := []struct {
		name  string
		valid bool
	}{
		{"cells.0.ops.12.sep_conv_3x3.0.1.weight", true},
		{"", false},
		{"../etc/passwd", false},
		{"a/b", false},
		{`a\b`, false},
		{"a\x00b", false},
	}
	for _, tt := range tests {
		err := ValidateTensorName(tt.name)
		if tt.valid {
			assert.NoError(t, err, tt.name)
		} else {
			assert.Error(t, err, tt.name)
		}
	}
}

func TestValidateHeader(t *testing.T) {
	ok := TensorMeta{Name: "a", DType: DTypeFloat32, Shape: []int{2}, Offset: 0, Size: 8}

	tests := []struct {
		name    string
		tensors []TensorMeta
		errType string
	}{
		{"valid", []TensorMeta{ok}, ""},
		{"dtype", []TensorMeta{{Name: "a", DType: "int8", Shape: []int{2}, Size: 2}}, "unsupported_dtype"},
		{"size", []TensorMeta{{Name: "a", DType: DTypeFloat32, Shape: []int{3}, Size: 8}}, "size_mismatch"},
		{"bounds", []TensorMeta{{Name: "a", DType: DTypeFloat32, Shape: []int{4}, Size: 16}}, "out_of_bounds"},
		{"overlap", []TensorMeta{ok, {Name: "b", DType: DTypeFloat32, Shape: []int{1}, Offset: 4, Size: 4}}, "offset_overlap"},
		{"duplicate", []TensorMeta{ok, ok}, "duplicate_name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateHeader(&Header{Tensors: tt.tensors}, 8)
			if tt.errType == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.errType, verr.Type)
		})
	}
}
