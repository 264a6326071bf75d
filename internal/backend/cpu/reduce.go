package cpu

import (
	"fmt"

	"github.com/glint-ml/glint/internal/tensor"
)

// Sum reduces all elements to a single scalar tensor of shape [1].
func (cpu *CPUBackend) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	result, err := tensor.NewRaw(tensor.Shape{1}, x.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("sum: %v", err))
	}

	switch x.DType() {
	case tensor.Float32:
		src := x.AsFloat32()
		var total float32
		for _, v := range src {
			total += v
		}
		result.AsFloat32()[0] = total
	case tensor.Float64:
		src := x.AsFloat64()
		var total float64
		for _, v := range src {
			total += v
		}
		result.AsFloat64()[0] = total
	default:
		panic(fmt.Sprintf("sum: unsupported dtype %s (only float32/float64 supported)", x.DType()))
	}

	return result
}
