// Package cpu implements the tensor.Backend interface with pure Go
// kernels. It is the canonical device of the engine: persistence and
// device transfer normalize onto it.
package cpu

import (
	"fmt"

	"github.com/ripple-ml/ripple/internal/parallel"
	"github.com/ripple-ml/ripple/internal/tensor"
)

// CPUBackend computes tensor operations on the host CPU.
type CPUBackend struct {
	device   tensor.Device
	parallel parallel.Config
}

// New creates a CPU backend with default parallelism settings.
func New() *CPUBackend {
	return &CPUBackend{
		device:   tensor.CPU,
		parallel: parallel.DefaultConfig(),
	}
}

// NewSequential creates a CPU backend with parallel kernels disabled.
// Useful for deterministic profiling and debugging.
func NewSequential() *CPUBackend {
	cfg := parallel.DefaultConfig()
	cfg.Enabled = false
	return &CPUBackend{device: tensor.CPU, parallel: cfg}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string { return "cpu" }

// Device returns the backend's device tag.
func (cpu *CPUBackend) Device() tensor.Device { return cpu.device }

// checkBinary validates device and dtype agreement of a binary kernel's
// inputs before any output is allocated.
func checkBinary(op string, a, b *tensor.RawTensor) {
	if a.Device() != b.Device() {
		panic(fmt.Sprintf("%s: device mismatch: %s vs %s", op, a.Device(), b.Device()))
	}
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("%s: dtype mismatch: %s vs %s", op, a.DType(), b.DType()))
	}
}

// mustRaw allocates an output tensor, panicking on invalid shapes, which
// for kernels indicates a caller bug rather than a recoverable condition.
func (cpu *CPUBackend) mustRaw(op string, shape tensor.Shape, dtype tensor.DataType) *tensor.RawTensor {
	out, err := tensor.NewRaw(shape, dtype, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("%s: failed to allocate output: %v", op, err))
	}
	return out
}
