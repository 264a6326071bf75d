package serialization

import (
	"time"

	"github.com/glint-ml/glint/internal/tensor"
)

// Format constants.
const (
	MagicBytes      = "GLNT"
	FormatVersion   = 1
	HeaderAlignment = 64   // tensor data alignment
	FixedHeaderSize = 64   // fixed header size (0x40 bytes)
	ChecksumSize    = 32   // SHA-256
	ChecksumOffset  = 0x20 // checksum offset in the fixed header

	maxHeaderSize = 100 * 1024 * 1024
)

// Data type string constants for serialization.
const (
	DTypeFloat32 = "float32"
	DTypeFloat64 = "float64"
	DTypeFloat16 = "float16"
	DTypeBool    = "bool"
)

// Flags for the .glnt format.
const (
	FlagHasMetadata   uint32 = 1 << 0 // bit 0: custom metadata included
	FlagHalfPrecision uint32 = 1 << 1 // bit 1: float32 tensors stored as float16
)

// Header is the JSON header in a .glnt file.
type Header struct {
	FormatVersion int               `json:"format_version"`
	GlintVersion  string            `json:"glint_version"`
	ModelType     string            `json:"model_type"`
	CreatedAt     time.Time         `json:"created_at"`
	Tensors       []TensorMeta      `json:"tensors"`
	Metadata      map[string]string `json:"metadata"`
}

// TensorMeta describes one tensor in the data section.
type TensorMeta struct {
	Name   string `json:"name"`
	DType  string `json:"dtype"`  // storage dtype (float16 when half precision)
	Shape  []int  `json:"shape"`
	Offset int64  `json:"offset"` // bytes from start of the data section
	Size   int64  `json:"size"`   // bytes
}

func dtypeToString(dt tensor.DataType) string {
	switch dt {
	case tensor.Float32:
		return DTypeFloat32
	case tensor.Float64:
		return DTypeFloat64
	case tensor.Float16:
		return DTypeFloat16
	case tensor.Bool:
		return DTypeBool
	default:
		return "unknown"
	}
}

func stringToDtype(s string) (tensor.DataType, bool) {
	switch s {
	case DTypeFloat32:
		return tensor.Float32, true
	case DTypeFloat64:
		return tensor.Float64, true
	case DTypeFloat16:
		return tensor.Float16, true
	case DTypeBool:
		return tensor.Bool, true
	default:
		return 0, false
	}
}
