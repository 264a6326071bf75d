package serialization

import (
	"encoding/binary"
	"encoding/json"
	"os"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/x448/float16"

	"github.com/glint-ml/glint/internal/tensor"
)

const glintVersion = "0.3.1"

// WriterOptions configures how state dicts are written.
type WriterOptions struct {
	// HalfPrecision stores float32 tensors as float16, halving checkpoint
	// size at the cost of precision. Other dtypes are stored as-is.
	HalfPrecision bool
}

// Writer writes state dictionaries in .glnt format.
type Writer struct {
	file   *os.File
	opts   WriterOptions
	closed bool
}

// NewWriter creates a new .glnt file writer with default options.
func NewWriter(path string) (*Writer, error) {
	return NewWriterWithOptions(path, WriterOptions{})
}

// NewWriterWithOptions creates a new .glnt file writer.
func NewWriterWithOptions(path string, opts WriterOptions) (*Writer, error) {
	//nolint:gosec // G304: checkpoint paths come from the caller
	file, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create file")
	}

	return &Writer{
		file: file,
		opts: opts,
	}, nil
}

// WriteStateDict writes a state dictionary to the file.
//
// Tensors are written in sorted name order so identical state dicts
// produce identical files.
func (w *Writer) WriteStateDict(stateDict map[string]*tensor.RawTensor, modelType string, metadata map[string]string) error {
	if w.closed {
		return ErrWriterClosed
	}

	header := Header{
		FormatVersion: FormatVersion,
		GlintVersion:  glintVersion,
		ModelType:     modelType,
		CreatedAt:     time.Now().UTC(),
		Tensors:       make([]TensorMeta, 0, len(stateDict)),
		Metadata:      metadata,
	}
	if header.Metadata == nil {
		header.Metadata = make(map[string]string)
	}

	tensorOrder := make([]string, 0, len(stateDict))
	for name := range stateDict {
		tensorOrder = append(tensorOrder, name)
	}
	sort.Strings(tensorOrder)

	// Encode tensors and compute offsets.
	var dataBuf []byte
	var currentOffset int64
	for _, name := range tensorOrder {
		raw := stateDict[name]

		data, storedDType := w.encodeTensor(raw)
		size := int64(len(data))

		header.Tensors = append(header.Tensors, TensorMeta{
			Name:   name,
			DType:  storedDType,
			Shape:  []int(raw.Shape()),
			Offset: currentOffset,
			Size:   size,
		})

		dataBuf = append(dataBuf, data...)
		currentOffset += size
	}

	checksum := ComputeChecksum(dataBuf)

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return errors.Wrap(err, "failed to marshal header")
	}

	headerSize := uint64(len(headerJSON))
	dataSize := uint64(len(dataBuf))

	flags := uint32(0)
	if len(header.Metadata) > 0 {
		flags |= FlagHasMetadata
	}
	if w.opts.HalfPrecision {
		flags |= FlagHalfPrecision
	}

	fixedHeader := make([]byte, FixedHeaderSize)
	copy(fixedHeader[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(fixedHeader[4:8], uint32(FormatVersion))
	binary.LittleEndian.PutUint32(fixedHeader[8:12], flags)
	// 0x0C-0x0F reserved, zero from make()
	binary.LittleEndian.PutUint64(fixedHeader[16:24], headerSize)
	binary.LittleEndian.PutUint64(fixedHeader[24:32], dataSize)
	copy(fixedHeader[ChecksumOffset:ChecksumOffset+ChecksumSize], checksum[:])

	if _, err := w.file.Write(fixedHeader); err != nil {
		return errors.Wrap(err, "failed to write fixed header")
	}

	if _, err := w.file.Write(headerJSON); err != nil {
		return errors.Wrap(err, "failed to write header JSON")
	}

	// Pad so the data section starts on a 64-byte boundary.
	currentPos := int64(FixedHeaderSize) + int64(headerSize)
	padding := (HeaderAlignment - (currentPos % HeaderAlignment)) % HeaderAlignment
	if padding > 0 {
		if _, err := w.file.Write(make([]byte, padding)); err != nil {
			return errors.Wrap(err, "failed to write padding")
		}
	}

	if _, err := w.file.Write(dataBuf); err != nil {
		return errors.Wrap(err, "failed to write tensor data")
	}

	return nil
}

// encodeTensor returns the serialized bytes and the stored dtype string
// for a tensor, applying half-precision conversion when enabled.
func (w *Writer) encodeTensor(raw *tensor.RawTensor) ([]byte, string) {
	if w.opts.HalfPrecision && raw.DType() == tensor.Float32 {
		src := raw.AsFloat32()
		out := make([]byte, len(src)*2)
		for i, v := range src {
			binary.LittleEndian.PutUint16(out[i*2:], float16.Fromfloat32(v).Bits())
		}
		return out, DTypeFloat16
	}

	data := make([]byte, len(raw.Data()))
	copy(data, raw.Data())
	return data, dtypeToString(raw.DType())
}

// Close closes the writer and the underlying file.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.file.Close()
}

// SaveStateDict is a convenience wrapper: create a writer, write, close.
func SaveStateDict(path string, stateDict map[string]*tensor.RawTensor, modelType string, metadata map[string]string) error {
	writer, err := NewWriter(path)
	if err != nil {
		return err
	}

	if err := writer.WriteStateDict(stateDict, modelType, metadata); err != nil {
		_ = writer.Close()
		return err
	}

	return writer.Close()
}
