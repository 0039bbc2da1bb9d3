// Package cpu provides the pure Go CPU backend.
package cpu

import (
	internalcpu "github.com/ripple-ml/ripple/internal/backend/cpu"
	"github.com/ripple-ml/ripple/tensor"
)

// Backend is the CPU backend implementation. Element-wise kernels and
// matrix multiplication shard across goroutines for large tensors.
type Backend = internalcpu.CPUBackend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a CPU backend using all available cores.
//
// Example:
//
//	backend := cpu.New()
//	x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
func New() *Backend {
	return internalcpu.New()
}

// NewSequential creates a single-threaded CPU backend, useful for
// deterministic benchmarking and debugging.
func NewSequential() *Backend {
	return internalcpu.NewSequential()
}
