package serialization

import (
	"encoding/binary"
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/x448/float16"

	"github.com/glint-ml/glint/internal/tensor"
)

// Reader reads state dictionaries from .glnt files.
type Reader struct {
	file       *os.File
	header     Header
	flags      uint32
	dataOffset int64
	dataSize   int64
	checksum   [32]byte
	closed     bool
}

// ReaderOptions configures the behavior of Reader.
type ReaderOptions struct {
	// SkipChecksumValidation skips the SHA-256 validation pass.
	// Faster for large checkpoints, but corruption goes undetected.
	SkipChecksumValidation bool
}

// NewReader creates a new .glnt file reader with checksum validation.
func NewReader(path string) (*Reader, error) {
	return NewReaderWithOptions(path, ReaderOptions{})
}

// NewReaderWithOptions creates a new .glnt file reader.
func NewReaderWithOptions(path string, opts ReaderOptions) (*Reader, error) {
	//nolint:gosec // G304: checkpoint paths come from the caller
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open file")
	}

	reader := &Reader{file: file}

	if err := reader.parseHeader(); err != nil {
		_ = file.Close()
		return nil, errors.Wrap(err, "failed to parse header")
	}

	if !opts.SkipChecksumValidation {
		if err := reader.validateChecksum(); err != nil {
			_ = file.Close()
			return nil, err
		}
	}

	return reader, nil
}

func (r *Reader) parseHeader() error {
	fixedHeader := make([]byte, FixedHeaderSize)
	if _, err := io.ReadFull(r.file, fixedHeader); err != nil {
		return errors.Wrap(err, "failed to read fixed header")
	}

	if string(fixedHeader[0:4]) != MagicBytes {
		return ErrInvalidMagic
	}

	version := binary.LittleEndian.Uint32(fixedHeader[4:8])
	if version != FormatVersion {
		return errors.Wrapf(ErrUnsupportedVersion, "got %d, expected %d", version, FormatVersion)
	}

	r.flags = binary.LittleEndian.Uint32(fixedHeader[8:12])
	headerSize := binary.LittleEndian.Uint64(fixedHeader[16:24])
	r.dataSize = int64(binary.LittleEndian.Uint64(fixedHeader[24:32]))
	copy(r.checksum[:], fixedHeader[ChecksumOffset:ChecksumOffset+ChecksumSize])

	if headerSize > maxHeaderSize {
		return ErrHeaderTooLarge
	}

	headerBytes := make([]byte, headerSize)
	if _, err := io.ReadFull(r.file, headerBytes); err != nil {
		return errors.Wrap(err, "failed to read header JSON")
	}

	if err := json.Unmarshal(headerBytes, &r.header); err != nil {
		return errors.Wrap(err, "failed to parse header JSON")
	}

	currentPos := int64(FixedHeaderSize) + int64(headerSize)
	padding := (HeaderAlignment - (currentPos % HeaderAlignment)) % HeaderAlignment
	r.dataOffset = currentPos + padding

	return nil
}

func (r *Reader) validateChecksum() error {
	if _, err := r.file.Seek(r.dataOffset, io.SeekStart); err != nil {
		return errors.Wrap(err, "failed to seek to tensor data")
	}

	data := make([]byte, r.dataSize)
	if _, err := io.ReadFull(r.file, data); err != nil {
		return errors.Wrap(err, "failed to read tensor data for checksum")
	}

	return ValidateChecksum(ComputeChecksum(data), r.checksum)
}

// Header returns the file header.
func (r *Reader) Header() Header {
	return r.header
}

// Metadata returns the metadata map from the header.
func (r *Reader) Metadata() map[string]string {
	return r.header.Metadata
}

// TensorNames returns the names of all tensors in the file.
func (r *Reader) TensorNames() []string {
	names := make([]string, len(r.header.Tensors))
	for i, meta := range r.header.Tensors {
		names[i] = meta.Name
	}
	return names
}

// TensorInfo returns the metadata for a specific tensor.
func (r *Reader) TensorInfo(name string) (*TensorMeta, error) {
	for _, meta := range r.header.Tensors {
		if meta.Name == name {
			return &meta, nil
		}
	}
	return nil, errors.Errorf("tensor %s not found", name)
}

// LoadTensor loads a single tensor from the file.
//
// Half-precision tensors are upcast to float32.
func (r *Reader) LoadTensor(name string, backend tensor.Backend) (*tensor.RawTensor, error) {
	if r.closed {
		return nil, ErrReaderClosed
	}

	meta, err := r.TensorInfo(name)
	if err != nil {
		return nil, err
	}

	dtype, ok := stringToDtype(meta.DType)
	if !ok {
		return nil, errors.Errorf("unsupported dtype: %s", meta.DType)
	}

	shape := tensor.Shape(meta.Shape)
	if err := shape.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid shape for tensor %s", name)
	}

	if _, err := r.file.Seek(r.dataOffset+meta.Offset, io.SeekStart); err != nil {
		return nil, errors.Wrap(err, "failed to seek to tensor data")
	}

	data := make([]byte, meta.Size)
	if _, err := io.ReadFull(r.file, data); err != nil {
		return nil, errors.Wrapf(err, "failed to read tensor %s", name)
	}

	if dtype == tensor.Float16 {
		return decodeFloat16(shape, data, backend)
	}

	raw, err := tensor.NewRaw(shape, dtype, backend.Device())
	if err != nil {
		return nil, errors.Wrap(err, "failed to create tensor")
	}
	copy(raw.Data(), data)

	return raw, nil
}

// decodeFloat16 upcasts stored half-precision values back to float32.
func decodeFloat16(shape tensor.Shape, data []byte, backend tensor.Backend) (*tensor.RawTensor, error) {
	raw, err := tensor.NewRaw(shape, tensor.Float32, backend.Device())
	if err != nil {
		return nil, errors.Wrap(err, "failed to create tensor")
	}

	dst := raw.AsFloat32()
	if len(data) != len(dst)*2 {
		return nil, errors.Errorf("float16 data size %d does not match %d elements", len(data), len(dst))
	}

	for i := range dst {
		bits := binary.LittleEndian.Uint16(data[i*2:])
		dst[i] = float16.Frombits(bits).Float32()
	}

	return raw, nil
}

// ReadStateDict reads all tensors into a state dictionary.
func (r *Reader) ReadStateDict(backend tensor.Backend) (map[string]*tensor.RawTensor, error) {
	if r.closed {
		return nil, ErrReaderClosed
	}

	stateDict := make(map[string]*tensor.RawTensor)
	for _, meta := range r.header.Tensors {
		raw, err := r.LoadTensor(meta.Name, backend)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to load tensor %s", meta.Name)
		}
		stateDict[meta.Name] = raw
	}

	return stateDict, nil
}

// Close closes the reader and the underlying file.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.file.Close()
}

// LoadStateDict is a convenience wrapper: open, read everything, close.
func LoadStateDict(path string, backend tensor.Backend) (map[string]*tensor.RawTensor, Header, error) {
	reader, err := NewReader(path)
	if err != nil {
		return nil, Header{}, err
	}
	defer func() {
		_ = reader.Close()
	}()

	stateDict, err := reader.ReadStateDict(backend)
	if err != nil {
		return nil, Header{}, err
	}

	return stateDict, reader.Header(), nil
}
