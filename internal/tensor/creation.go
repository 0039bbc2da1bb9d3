package tensor

import (
	"math/rand"
)

// Zeros creates a tensor filled with zeros.
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	var dummy T
	raw, err := NewRaw(shape, inferDataType(dummy), b.Device())
	if err != nil {
		panic(err)
	}
	return New[T, B](raw, b)
}

// Ones creates a tensor filled with ones.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return Full[T, B](shape, 1, b)
}

// Full creates a tensor filled with a specific value.
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = value
	}
	return t
}

// Randn creates a float tensor with values drawn from N(0, 1).
//
// Uses math/rand, which is appropriate for statistical initialization.
func Randn[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()
	for i := range data {
		//nolint:gosec // weight initialization is not security-critical
		data[i] = T(rand.NormFloat64())
	}
	return t
}

// Uniform creates a float tensor with values drawn from U(lo, hi).
func Uniform[T DType, B Backend](shape Shape, lo, hi float64, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()
	for i := range data {
		//nolint:gosec // weight initialization is not security-critical
		data[i] = T(lo + rand.Float64()*(hi-lo))
	}
	return t
}

// Arange creates a 1D tensor with values [start, start+1, ..., stop-1].
func Arange[T DType, B Backend](start, stop int, b B) *Tensor[T, B] {
	n := stop - start
	t := Zeros[T, B](Shape{n}, b)
	data := t.Data()
	for i := range data {
		data[i] = T(start + i)
	}
	return t
}
