// Package nn implements the Ripple differentiation engine: composable
// modules that capture backward continuations at forward time, the
// parameter/buffer model backing them, and the operation/cache protocol
// used by primitive differentiable transforms.
//
// There is no recorded computation graph above the operation level.
// Every module decides at forward time, based on its training flag,
// whether to retain the intermediates its backward pass needs, and
// stores a single continuation that computes the local Jacobian-vector
// product. Composition containers replay those continuations in exact
// reverse order; that ordering discipline is the engine's load-bearing
// invariant.
package nn

import (
	"fmt"

	"github.com/ripple-ml/ripple/internal/tensor"
)

// Module is the capability set every differentiable unit implements.
//
// A module owns its parameters, buffers and children exclusively; the
// only external mutations allowed are optimizer updates to parameter
// values. Forward and backward run synchronously to completion, and each
// instance supports at most one outstanding forward-but-not-yet-backward
// call: a new Forward replaces the previous continuation.
type Module[B tensor.Backend] interface {
	// Label names the module in error messages and serialized state.
	Label() string

	// Forward computes the module output. In training mode it also
	// captures the backward continuation for this call.
	Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

	// Backward consumes an output gradient and returns the gradient
	// with respect to the input of the most recent Forward call.
	// Panics with a mode violation when the module is not training or
	// no continuation has been captured.
	Backward(dy *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

	// Parameters enumerates owned parameters, recursing into children,
	// in a stable construction order.
	Parameters() []*Parameter[B]

	// Buffers enumerates owned buffers, recursing into children, in a
	// stable construction order.
	Buffers() []*Buffer[B]

	// OwnParameters and OwnBuffers enumerate without recursing;
	// Children returns the direct child modules. Together they expose
	// the module tree to state serialization.
	OwnParameters() []*Parameter[B]
	OwnBuffers() []*Buffer[B]
	Children() []Module[B]

	Training() bool
	SetTraining(bool)
	Trainable() bool
	SetTrainable(bool)
	RetainValues() bool
	SetRetainValues(bool)

	// Device reports where the module's tensors live. ToDevice moves
	// the whole subtree; it panics when the target is unavailable.
	Device() tensor.Device
	ToDevice(tensor.Device)

	// Reset clears the captured continuation, retained values and every
	// owned parameter's gradient slot. Idempotent.
	Reset()
}

// Core carries the shared module state machine. Concrete modules embed
// it, register their parameters, buffers and children at construction
// time, and implement Forward on top of Capture/Discard.
//
// State machine per instance: quiescent -> forward-completed(training)
// (continuation present) or forward-completed(inference) (continuation
// absent); Reset returns to quiescent.
type Core[B tensor.Backend] struct {
	label        string
	device       tensor.Device
	training     bool
	trainable    bool
	retainValues bool

	y  *tensor.Tensor[float32, B]
	dy *tensor.Tensor[float32, B]

	continuation func(*tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

	params   []*Parameter[B]
	buffers  []*Buffer[B]
	children []Module[B]
}

// NewCore creates module state with the given label, in inference mode,
// trainable, on the CPU device.
func NewCore[B tensor.Backend](label string) Core[B] {
	return Core[B]{
		label:     label,
		device:    tensor.CPU,
		trainable: true,
	}
}

// Label returns the module label.
func (c *Core[B]) Label() string { return c.label }

// Register adds parameters to the module's stable enumeration order.
// Call once per parameter, at construction time.
func (c *Core[B]) Register(params ...*Parameter[B]) {
	c.params = append(c.params, params...)
}

// RegisterBuffer adds buffers to the module's stable enumeration order.
func (c *Core[B]) RegisterBuffer(buffers ...*Buffer[B]) {
	c.buffers = append(c.buffers, buffers...)
}

// RegisterChild adds child modules. State toggles, device transfer and
// reset propagate to registered children automatically.
func (c *Core[B]) RegisterChild(children ...Module[B]) {
	c.children = append(c.children, children...)
}

// Parameters returns directly owned parameters followed by each child's
// parameters, in registration order.
func (c *Core[B]) Parameters() []*Parameter[B] {
	params := append([]*Parameter[B](nil), c.params...)
	for _, child := range c.children {
		params = append(params, child.Parameters()...)
	}
	return params
}

// Buffers returns directly owned buffers followed by each child's
// buffers, in registration order.
func (c *Core[B]) Buffers() []*Buffer[B] {
	buffers := append([]*Buffer[B](nil), c.buffers...)
	for _, child := range c.children {
		buffers = append(buffers, child.Buffers()...)
	}
	return buffers
}

// OwnParameters returns only directly owned parameters.
func (c *Core[B]) OwnParameters() []*Parameter[B] { return c.params }

// OwnBuffers returns only directly owned buffers.
func (c *Core[B]) OwnBuffers() []*Buffer[B] { return c.buffers }

// Children returns the registered child modules.
func (c *Core[B]) Children() []Module[B] { return c.children }

// Training reports whether the module is in training mode.
func (c *Core[B]) Training() bool { return c.training }

// SetTraining toggles training mode for the module and its children.
func (c *Core[B]) SetTraining(v bool) {
	c.training = v
	for _, child := range c.children {
		child.SetTraining(v)
	}
}

// Trainable reports whether the module's parameters should be updated.
func (c *Core[B]) Trainable() bool { return c.trainable }

// SetTrainable toggles trainability. It marks every owned parameter's
// requires-grad flag accordingly; this is a hint to the optimizer, not
// an enforcement inside the engine.
// Propagation is unconditional, like SetTraining: a child toggled
// individually is brought back in line with the subtree.
func (c *Core[B]) SetTrainable(v bool) {
	c.trainable = v
	for _, p := range c.params {
		p.SetRequiresGrad(v)
	}
	for _, child := range c.children {
		child.SetTrainable(v)
	}
}

// RetainValues reports whether the module keeps copies of its last
// output and output gradient for inspection.
func (c *Core[B]) RetainValues() bool { return c.retainValues }

// SetRetainValues toggles output retention for the module and its
// children. When disabled, nothing beyond what backward strictly needs
// is kept.
func (c *Core[B]) SetRetainValues(v bool) {
	c.retainValues = v
	for _, child := range c.children {
		child.SetRetainValues(v)
	}
}

// Output returns the retained copy of the last output, or nil when
// retention is disabled or no forward has run.
func (c *Core[B]) Output() *tensor.Tensor[float32, B] { return c.y }

// OutputGrad returns the retained copy of the last output gradient, or
// nil.
func (c *Core[B]) OutputGrad() *tensor.Tensor[float32, B] { return c.dy }

// Device returns the module's device tag.
func (c *Core[B]) Device() tensor.Device { return c.device }

// ToDevice moves every owned tensor, retained value and child module to
// device d. No-op when already there; panics when d is unavailable.
func (c *Core[B]) ToDevice(d tensor.Device) {
	if d == c.device {
		return
	}
	if err := tensor.CheckAvailable(d); err != nil {
		panic(fmt.Sprintf("%s: %v", c.label, err))
	}
	c.device = d

	move := func(t *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
		if t == nil {
			return nil
		}
		moved, err := t.ToDevice(d)
		if err != nil {
			panic(fmt.Sprintf("%s: %v", c.label, err))
		}
		return moved
	}
	c.y = move(c.y)
	c.dy = move(c.dy)

	for _, p := range c.params {
		if err := p.toDevice(d); err != nil {
			panic(fmt.Sprintf("%s: %v", c.label, err))
		}
	}
	for _, b := range c.buffers {
		if err := b.toDevice(d); err != nil {
			panic(fmt.Sprintf("%s: %v", c.label, err))
		}
	}
	for _, child := range c.children {
		child.ToDevice(d)
	}
}

// Reset clears the continuation, retained values and every owned
// parameter's gradient slot, recursing into children. Idempotent.
func (c *Core[B]) Reset() {
	c.y = nil
	c.dy = nil
	c.continuation = nil
	for _, p := range c.params {
		p.ZeroGrad()
	}
	for _, child := range c.children {
		child.Reset()
	}
}

// Backward runs the captured continuation on an output gradient and
// returns the input gradient. It is the shared implementation behind
// every module's Backward.
func (c *Core[B]) Backward(dy *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if !c.training {
		panic(fmt.Sprintf("%s: backward called while not in training mode", c.label))
	}
	if c.continuation == nil {
		panic(fmt.Sprintf("%s: no backward continuation captured; run forward in training mode first", c.label))
	}
	if c.retainValues {
		c.dy = dy.Clone()
	}
	return c.continuation(dy)
}

// Capture stores the backward continuation for the current forward call,
// replacing any previous one. Forward implementations call this exactly
// when Training() is true.
func (c *Core[B]) Capture(fn func(*tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]) {
	c.continuation = fn
}

// OpCache returns the cache variant for the current mode: a fresh
// recording cache in training, the discarding cache otherwise. Forward
// implementations pass it to primitive operations so that inference
// retains no backward intermediates.
func (c *Core[B]) OpCache() Cache {
	if c.training {
		return NewCache()
	}
	return NoCache()
}

// Discard drops any previously captured continuation. Forward
// implementations call this on the inference path so that a stale
// continuation can never outlive the forward call that produced it.
func (c *Core[B]) Discard() {
	c.continuation = nil
}

// RetainOutput stores a defensive copy of the output when retention is
// enabled. Call at the end of Forward.
func (c *Core[B]) RetainOutput(y *tensor.Tensor[float32, B]) {
	if c.retainValues {
		c.y = y.Clone()
	}
}

// CheckDevice validates that an input lives on the module's device.
func (c *Core[B]) CheckDevice(x *tensor.Tensor[float32, B]) {
	if x.Device() != c.device {
		panic(fmt.Sprintf("%s: input on device %s, module on %s", c.label, x.Device(), c.device))
	}
}

// CheckDims validates the input rank against the ranks the module
// supports, failing before any state mutation.
func (c *Core[B]) CheckDims(x *tensor.Tensor[float32, B], validDims ...int) {
	ndim := len(x.Shape())
	for _, d := range validDims {
		if ndim == d {
			return
		}
	}
	panic(fmt.Sprintf("%s: input has %d dimensions, valid: %v", c.label, ndim, validDims))
}
