package nn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ripple-ml/ripple/internal/backend/cpu"
	"github.com/ripple-ml/ripple/internal/tensor"
)

// orderProbe records the order its forward and backward run in.
type orderProbe struct {
	Core[*cpu.CPUBackend]
	name string
	log  *[]string
}

func newOrderProbe(name string, log *[]string) *orderProbe {
	return &orderProbe{Core: NewCore[*cpu.CPUBackend](name), name: name, log: log}
}

func (p *orderProbe) Forward(x *tensor.Tensor[float32, *cpu.CPUBackend]) *tensor.Tensor[float32, *cpu.CPUBackend] {
	*p.log = append(*p.log, "fwd:"+p.name)
	if p.Training() {
		p.Capture(func(dy *tensor.Tensor[float32, *cpu.CPUBackend]) *tensor.Tensor[float32, *cpu.CPUBackend] {
			*p.log = append(*p.log, "bwd:"+p.name)
			return dy
		})
	} else {
		p.Discard()
	}
	return x
}

func TestSequential_BackwardRunsInReverseOrder(t *testing.T) {
	var log []string
	seq := NewSequential("seq",
		newOrderProbe("a", &log),
		newOrderProbe("b", &log),
		newOrderProbe("c", &log))
	seq.SetTraining(true)

	backend := cpu.New()
	x := tensor.Ones[float32](tensor.Shape{1, 2}, backend)
	y := seq.Forward(x)
	seq.Backward(onesLike(y))

	assert.Equal(t, []string{"fwd:a", "fwd:b", "fwd:c", "bwd:c", "bwd:b", "bwd:a"}, log)
}

func TestSequential_PropagatesModeFlags(t *testing.T) {
	backend := cpu.New()
	lin := NewLinear(2, 2, true, backend)
	seq := NewSequential[*cpu.CPUBackend]("seq", lin, NewReLU[*cpu.CPUBackend]())

	seq.SetTraining(true)
	assert.True(t, lin.Training())
	seq.SetTraining(false)
	assert.False(t, lin.Training())

	seq.SetTrainable(false)
	assert.False(t, lin.Trainable())
	assert.False(t, lin.Weight().RequiresGrad())

	seq.SetRetainValues(true)
	assert.True(t, lin.RetainValues())
}

func TestSequential_CollectsChildParameters(t *testing.T) {
	backend := cpu.New()
	l1 := NewLinear(2, 4, true, backend)
	l2 := NewLinear(4, 1, false, backend)
	seq := NewSequential[*cpu.CPUBackend]("seq", l1, NewTanh[*cpu.CPUBackend](), l2)

	params := seq.Parameters()
	require.Len(t, params, 3)
	assert.Same(t, l1.Weight(), params[0])
	assert.Same(t, l1.Bias(), params[1])
	assert.Same(t, l2.Weight(), params[2])
}

func TestSequential_GradientCheck(t *testing.T) {
	backend := cpu.New()
	seq := NewSequential[*cpu.CPUBackend]("mlp",
		NewLinear(3, 4, true, backend),
		NewTanh[*cpu.CPUBackend](),
		NewLinear(4, 2, true, backend),
		NewSigmoid[*cpu.CPUBackend]())
	seq.SetTraining(true)

	x := tensor.MustFromSlice([]float32{0.2, -0.4, 1.1, -0.9, 0.5, 0.0}, tensor.Shape{2, 3}, backend)

	loss := func() float32 { return seq.Forward(x).Sum().Item() }
	y := seq.Forward(x)
	dx := seq.Backward(onesLike(y))

	checkGrads(t, "input", dx.Data(), fdGrad(loss, x, 1e-2), 2e-2)
	for i, p := range seq.Parameters() {
		// Recompute after each parameter's perturbations restore state.
		seq.Reset()
		seq.Forward(x)
		seq.Backward(onesLike(y))
		checkGrads(t, p.Label(), p.Grad().Data(), fdGrad(loss, p.Tensor(), 1e-2), 2e-2)
		_ = i
	}
}

func TestSequential_Append(t *testing.T) {
	backend := cpu.New()
	seq := NewSequential[*cpu.CPUBackend]("seq", NewLinear(2, 4, true, backend))
	seq.SetTraining(true)

	lin := NewLinear(4, 1, true, backend)
	seq.Append(lin)

	assert.True(t, lin.Training(), "appended child inherits mode")
	assert.Len(t, seq.Modules(), 2)
	assert.Len(t, seq.Parameters(), 4)

	x := tensor.Zeros[float32](tensor.Shape{1, 2}, backend)
	y := seq.Forward(x)
	assert.True(t, y.Shape().Equal(tensor.Shape{1, 1}))
}
