// Package tensor provides the core tensor types and operations for the Glint toolkit.
package tensor

// DType is a constraint for supported tensor element types.
type DType interface {
	~float32 | ~float64 | ~bool
}

// DataType represents runtime type information for tensors.
type DataType int

// Supported data types for tensors.
//
// Float16 is a storage-only type: checkpoints may hold half-precision
// tensors, but compute always happens in float32 or float64.
const (
	Float32 DataType = iota
	Float64
	Float16
	Bool
)

// Size returns the byte size of the data type.
func (dt DataType) Size() int {
	switch dt {
	case Float32:
		return 4
	case Float64:
		return 8
	case Float16:
		return 2
	case Bool:
		return 1
	default:
		panic("unknown data type")
	}
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Float16:
		return "float16"
	case Bool:
		return "bool"
	default:
		return "unknown"
	}
}

// inferDataType infers DataType from a generic type T.
func inferDataType[T DType](dummy T) DataType {
	switch any(dummy).(type) {
	case float32:
		return Float32
	case float64:
		return Float64
	case bool:
		return Bool
	default:
		panic("unsupported type")
	}
}
