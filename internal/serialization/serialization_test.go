package serialization_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glint-ml/glint/internal/backend/cpu"
	"github.com/glint-ml/glint/internal/serialization"
	"github.com/glint-ml/glint/internal/tensor"
)

func makeStateDict(t *testing.T) map[string]*tensor.RawTensor {
	t.Helper()

	weight, err := tensor.NewRaw(tensor.Shape{2, 3}, tensor.Float32, tensor.CPU)
	require.NoError(t, err)
	copy(weight.AsFloat32(), []float32{0.5, -1.25, 3.75, 0, 100.5, -0.001})

	bias, err := tensor.NewRaw(tensor.Shape{3}, tensor.Float32, tensor.CPU)
	require.NoError(t, err)
	copy(bias.AsFloat32(), []float32{1, 2, 3})

	return map[string]*tensor.RawTensor{
		"weight": weight,
		"bias":   bias,
	}
}

func TestRoundtrip_Float32(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.glnt")
	backend := cpu.New()

	stateDict := makeStateDict(t)
	err := serialization.SaveStateDict(path, stateDict, "Conv2D", map[string]string{"purpose": "test"})
	require.NoError(t, err)

	loaded, header, err := serialization.LoadStateDict(path, backend)
	require.NoError(t, err)

	assert.Equal(t, "Conv2D", header.ModelType)
	assert.Equal(t, "test", header.Metadata["purpose"])
	assert.Len(t, loaded, 2)

	for name, original := range stateDict {
		raw, ok := loaded[name]
		require.True(t, ok, "missing tensor %s", name)
		assert.True(t, raw.Shape().Equal(original.Shape()))
		assert.Equal(t, tensor.Float32, raw.DType())
		assert.Equal(t, original.AsFloat32(), raw.AsFloat32())
	}
}

func TestRoundtrip_HalfPrecision(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model_f16.glnt")
	backend := cpu.New()

	stateDict := makeStateDict(t)

	writer, err := serialization.NewWriterWithOptions(path, serialization.WriterOptions{HalfPrecision: true})
	require.NoError(t, err)
	require.NoError(t, writer.WriteStateDict(stateDict, "Conv2D", nil))
	require.NoError(t, writer.Close())

	reader, err := serialization.NewReader(path)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, reader.Close())
	}()

	// Stored dtype is float16, read back as float32.
	meta, err := reader.TensorInfo("weight")
	require.NoError(t, err)
	assert.Equal(t, serialization.DTypeFloat16, meta.DType)
	assert.Equal(t, int64(6*2), meta.Size)

	loaded, err := reader.ReadStateDict(backend)
	require.NoError(t, err)

	for name, original := range stateDict {
		raw := loaded[name]
		require.NotNil(t, raw)
		assert.Equal(t, tensor.Float32, raw.DType())
		for i, want := range original.AsFloat32() {
			// float16 has ~3 decimal digits of precision
			assert.InDelta(t, want, raw.AsFloat32()[i], float64(abs32(want))*1e-3+1e-4,
				"%s[%d]", name, i)
		}
	}
}

func TestRoundtrip_DeterministicLayout(t *testing.T) {
	dir := t.TempDir()
	stateDict := makeStateDict(t)

	// Tensor order is sorted by name, so two writes differ only in the
	// created-at timestamp, and tensor offsets are identical.
	pathA := filepath.Join(dir, "a.glnt")
	pathB := filepath.Join(dir, "b.glnt")
	require.NoError(t, serialization.SaveStateDict(pathA, stateDict, "M", nil))
	require.NoError(t, serialization.SaveStateDict(pathB, stateDict, "M", nil))

	readerA, err := serialization.NewReader(pathA)
	require.NoError(t, err)
	defer readerA.Close()
	readerB, err := serialization.NewReader(pathB)
	require.NoError(t, err)
	defer readerB.Close()

	require.Equal(t, readerA.TensorNames(), readerB.TensorNames())
	assert.Equal(t, []string{"bias", "weight"}, readerA.TensorNames())
}

func TestReader_CorruptedData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.glnt")

	require.NoError(t, serialization.SaveStateDict(path, makeStateDict(t), "M", nil))

	// Flip a byte in the data section (the last byte of the file).
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[len(data)-1] ^= 0xFF
	require.NoError(t, os.WriteFile(path, data, 0o600))

	_, err = serialization.NewReader(path)
	require.ErrorIs(t, err, serialization.ErrChecksumMismatch)

	// Skipping validation lets the corrupted file open.
	reader, err := serialization.NewReaderWithOptions(path, serialization.ReaderOptions{SkipChecksumValidation: true})
	require.NoError(t, err)
	require.NoError(t, reader.Close())
}

func TestReader_InvalidMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.glnt")

	require.NoError(t, serialization.SaveStateDict(path, makeStateDict(t), "M", nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	copy(data[0:4], "NOPE")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	_, err = serialization.NewReader(path)
	require.ErrorIs(t, err, serialization.ErrInvalidMagic)
}

func TestReader_UnsupportedVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "future.glnt")

	require.NoError(t, serialization.SaveStateDict(path, makeStateDict(t), "M", nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[4] = 99
	require.NoError(t, os.WriteFile(path, data, 0o600))

	_, err = serialization.NewReader(path)
	require.ErrorIs(t, err, serialization.ErrUnsupportedVersion)
}

func TestWriter_ClosedWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "closed.glnt")

	writer, err := serialization.NewWriter(path)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	err = writer.WriteStateDict(makeStateDict(t), "M", nil)
	require.ErrorIs(t, err, serialization.ErrWriterClosed)
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
