package nn

import (
	"fmt"

	"github.com/ripple-ml/ripple/internal/tensor"
)

// Parameter is a trainable leaf: a value tensor, an optionally-absent
// gradient slot, and a requires-grad flag read by optimizers.
//
// The gradient slot follows a single rule: the first write after Reset
// overwrites, every later write within the same pass accumulates. That is
// what makes multiple forward uses of one parameter within a pass sum
// their gradients correctly.
type Parameter[B tensor.Backend] struct {
	label        string
	tensor       *tensor.Tensor[float32, B]
	grad         *tensor.Tensor[float32, B] // nil means absent
	requiresGrad bool
}

// NewParameter creates a trainable parameter around an initialized tensor.
func NewParameter[B tensor.Backend](label string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return &Parameter[B]{
		label:        label,
		tensor:       t,
		requiresGrad: true,
	}
}

// Label returns the parameter label (e.g. "weight").
func (p *Parameter[B]) Label() string { return p.label }

// Tensor returns the parameter value.
func (p *Parameter[B]) Tensor() *tensor.Tensor[float32, B] { return p.tensor }

// Grad returns the accumulated gradient, or nil when the slot is absent.
func (p *Parameter[B]) Grad() *tensor.Tensor[float32, B] { return p.grad }

// RequiresGrad reports whether an optimizer should update this parameter.
func (p *Parameter[B]) RequiresGrad() bool { return p.requiresGrad }

// SetRequiresGrad toggles the optimizer hint. The engine keeps writing
// gradients either way; enforcement lives with the optimizer.
func (p *Parameter[B]) SetRequiresGrad(v bool) { p.requiresGrad = v }

// AccumulateGrad writes a gradient contribution into the slot:
// overwrite when absent, add when already present. A gradient whose shape
// differs from the value's is a contract violation.
func (p *Parameter[B]) AccumulateGrad(g *tensor.Tensor[float32, B]) {
	if !g.Shape().Equal(p.tensor.Shape()) {
		panic(fmt.Sprintf("parameter %s: gradient shape %v does not match value shape %v",
			p.label, g.Shape(), p.tensor.Shape()))
	}
	if p.grad == nil {
		p.grad = g.Clone()
		return
	}
	p.grad = p.grad.Add(g)
}

// ZeroGrad empties the gradient slot.
func (p *Parameter[B]) ZeroGrad() { p.grad = nil }

// toDevice moves the value (and any pending gradient) to device d.
func (p *Parameter[B]) toDevice(d tensor.Device) error {
	moved, err := p.tensor.ToDevice(d)
	if err != nil {
		return fmt.Errorf("parameter %s: %w", p.label, err)
	}
	p.tensor = moved
	if p.grad != nil {
		if p.grad, err = p.grad.ToDevice(d); err != nil {
			return fmt.Errorf("parameter %s: %w", p.label, err)
		}
	}
	return nil
}

// Buffer is non-trainable persistent module state, such as running
// statistics. It never carries a gradient and is mutated only by the
// owning module's forward pass.
type Buffer[B tensor.Backend] struct {
	label  string
	tensor *tensor.Tensor[float32, B]
}

// NewBuffer creates a buffer around an initialized tensor.
func NewBuffer[B tensor.Backend](label string, t *tensor.Tensor[float32, B]) *Buffer[B] {
	return &Buffer[B]{label: label, tensor: t}
}

// Label returns the buffer label.
func (b *Buffer[B]) Label() string { return b.label }

// Tensor returns the buffer value.
func (b *Buffer[B]) Tensor() *tensor.Tensor[float32, B] { return b.tensor }

// Update replaces the buffer value. Only the owning module's forward pass
// may call this.
func (b *Buffer[B]) Update(t *tensor.Tensor[float32, B]) {
	if !t.Shape().Equal(b.tensor.Shape()) {
		panic(fmt.Sprintf("buffer %s: update shape %v does not match value shape %v",
			b.label, t.Shape(), b.tensor.Shape()))
	}
	b.tensor = t
}

func (b *Buffer[B]) toDevice(d tensor.Device) error {
	moved, err := b.tensor.ToDevice(d)
	if err != nil {
		return fmt.Errorf("buffer %s: %w", b.label, err)
	}
	b.tensor = moved
	return nil
}
