package nn

import (
	"fmt"

	"github.com/ripple-ml/ripple/internal/serialization"
	"github.com/ripple-ml/ripple/internal/tensor"
)

// SaveOptions configures Save.
type SaveOptions struct {
	// Float16 stores float32 tensors in half precision.
	Float16 bool
	// Metadata is carried verbatim in the file header.
	Metadata map[string]string
}

// Save writes the module's state to path. The module is moved to the CPU
// device and Reset first, so saving is also a pass-boundary: captured
// continuations and pending gradients do not survive it.
func Save[B tensor.Backend](m Module[B], path string, opts SaveOptions) error {
	m.ToDevice(tensor.CPU)
	m.Reset()
	if err := serialization.SaveStateDict(path, StateDict(m), m.Label(), serialization.WriterOptions{
		Float16:  opts.Float16,
		Metadata: opts.Metadata,
	}); err != nil {
		return fmt.Errorf("save %s: %w", m.Label(), err)
	}
	return nil
}

// Load reads state from path into a module of the same architecture.
// The module comes back quiescent and in inference mode.
func Load[B tensor.Backend](m Module[B], path string) error {
	dict, _, err := serialization.LoadStateDict(path)
	if err != nil {
		return fmt.Errorf("load %s: %w", m.Label(), err)
	}
	m.ToDevice(tensor.CPU)
	if err := LoadStateDict(m, dict); err != nil {
		return fmt.Errorf("load %s: %w", m.Label(), err)
	}
	m.Reset()
	m.SetTraining(false)
	return nil
}
