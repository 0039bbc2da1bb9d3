// Package tensor provides the public API for tensors in the Ripple
// engine.
//
// The package re-exports the core types and creation functions:
//   - Tensor[T, B]: typed, backend-bound tensor
//   - RawTensor: untyped storage plus shape, dtype and device
//   - Backend: the compute kernel interface
//   - Shape, DataType, Device: core type definitions
//
// Example:
//
//	backend := cpu.New()
//	x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
//	z := x.Add(y)
package tensor

import (
	"github.com/ripple-ml/ripple/internal/tensor"
)

// DType is a constraint for supported tensor element types.
// Supported types: float32, float64, int32.
type DType = tensor.DType

// DataType is runtime type information for tensors.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
	Int32   DataType = tensor.Int32
)

// Device identifies where a tensor's storage lives.
type Device = tensor.Device

// Device constants. Only CPU is backed by an implementation in this
// build; the others are recognized so transfers fail with a precise
// message.
const (
	CPU    Device = tensor.CPU
	CUDA   Device = tensor.CUDA
	WebGPU Device = tensor.WebGPU
)

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 3, 4} is a 3D tensor with dimensions 2x3x4.
type Shape = tensor.Shape

// Backend is the compute kernel interface implemented by device
// backends such as backend/cpu.
type Backend = tensor.Backend

// RawTensor is the untyped tensor: a byte buffer plus shape, data type
// and device tag. State dictionaries and the serialization layer work
// in terms of RawTensor.
type RawTensor = tensor.RawTensor

// Tensor is a typed view over a RawTensor bound to a compute backend.
//
// T is the element type (float32, float64, int32).
// B is the backend implementation.
//
// Example:
//
//	backend := cpu.New()
//	x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	y := x.MatMul(w).Add(b)
type Tensor[T DType, B Backend] = tensor.Tensor[T, B]

// NewRaw allocates an untyped tensor on the given device.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype, device)
}

// New wraps a RawTensor with a typed, backend-bound Tensor.
func New[T DType, B Backend](raw *RawTensor, b B) *Tensor[T, B] {
	return tensor.New[T, B](raw, b)
}

// FromSlice creates a tensor from a Go slice. The data is copied.
func FromSlice[T DType, B Backend](data []T, shape Shape, b B) (*Tensor[T, B], error) {
	return tensor.FromSlice(data, shape, b)
}

// MustFromSlice is FromSlice panicking on error. Intended for tests and
// examples with literal data.
func MustFromSlice[T DType, B Backend](data []T, shape Shape, b B) *Tensor[T, B] {
	return tensor.MustFromSlice(data, shape, b)
}

// Zeros creates a tensor filled with zeros.
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Zeros[T, B](shape, b)
}

// Ones creates a tensor filled with ones.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Ones[T, B](shape, b)
}

// Full creates a tensor filled with a specific value.
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	return tensor.Full[T, B](shape, value, b)
}

// Randn creates a tensor with values drawn from N(0, 1).
func Randn[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Randn[T, B](shape, b)
}

// Uniform creates a tensor with values drawn from U(lo, hi).
func Uniform[T DType, B Backend](shape Shape, lo, hi float64, b B) *Tensor[T, B] {
	return tensor.Uniform[T, B](shape, lo, hi, b)
}

// Arange creates a 1D tensor with values [start, start+1, ..., stop-1].
func Arange[T DType, B Backend](start, stop int, b B) *Tensor[T, B] {
	return tensor.Arange[T, B](start, stop, b)
}

// Cast converts a tensor's element type, copying the data.
func Cast[U DType, T DType, B Backend](t *Tensor[T, B]) *Tensor[U, B] {
	return tensor.Cast[U](t)
}

// CheckAvailable returns an error naming the device if it is not usable
// in the current environment.
func CheckAvailable(d Device) error {
	return tensor.CheckAvailable(d)
}
