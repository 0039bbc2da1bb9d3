package tensor

import "fmt"

// Device identifies where a tensor's storage lives.
//
// The engine never performs implicit cross-device operations: every
// operation requires all participating tensors to share one device, and
// transfers happen only through explicit ToDevice calls on tensors and
// modules.
type Device int

// Known devices. Only CPU is backed by an implementation in this build;
// the others are recognized so that transfer requests can fail with a
// precise message instead of an unknown-identifier error.
const (
	CPU Device = iota
	CUDA
	WebGPU
)

// String returns a human-readable device name.
func (d Device) String() string {
	switch d {
	case CPU:
		return "cpu"
	case CUDA:
		return "cuda"
	case WebGPU:
		return "webgpu"
	default:
		return "unknown"
	}
}

// Available reports whether the device can actually hold tensors in the
// current environment.
func (d Device) Available() bool {
	return d == CPU
}

// CheckAvailable returns an error naming the device if it is not usable.
func CheckAvailable(d Device) error {
	if !d.Available() {
		return fmt.Errorf("device %s is not available in this environment", d)
	}
	return nil
}
