package tensor

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Bernoulli creates a tensor of independent Bernoulli draws: each element
// is 1 with probability p and 0 otherwise. A nil src uses the global
// source. Only works with float types.
//
// Example:
//
//	mask := tensor.Bernoulli[float32](Shape{1, 32, 32}, 0.7, rand.NewSource(42), backend)
func Bernoulli[T DType, B Backend](shape Shape, p float64, src rand.Source, b B) *Tensor[T, B] {
	dist := distuv.Bernoulli{P: p, Src: src}

	t := Zeros[T, B](shape, b)
	data := t.Data()

	var dummy T
	switch any(dummy).(type) {
	case float32:
		dataF32 := any(data).([]float32)
		for i := range dataF32 {
			dataF32[i] = float32(dist.Rand())
		}
	case float64:
		dataF64 := any(data).([]float64)
		for i := range dataF64 {
			dataF64[i] = dist.Rand()
		}
	default:
		panic("Bernoulli only supports float32 and float64 types")
	}
	return t
}

// Normal creates a tensor of independent draws from a Gaussian with the
// given mean and standard deviation. A nil src uses the global source.
// Only works with float types.
func Normal[T DType, B Backend](shape Shape, mu, sigma float64, src rand.Source, b B) *Tensor[T, B] {
	dist := distuv.Normal{Mu: mu, Sigma: sigma, Src: src}

	t := Zeros[T, B](shape, b)
	data := t.Data()

	var dummy T
	switch any(dummy).(type) {
	case float32:
		dataF32 := any(data).([]float32)
		for i := range dataF32 {
			dataF32[i] = float32(dist.Rand())
		}
	case float64:
		dataF64 := any(data).([]float64)
		for i := range dataF64 {
			dataF64[i] = dist.Rand()
		}
	default:
		panic("Normal only supports float32 and float64 types")
	}
	return t
}
