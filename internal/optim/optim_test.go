package optim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ripple-ml/ripple/internal/backend/cpu"
	"github.com/ripple-ml/ripple/internal/nn"
	"github.com/ripple-ml/ripple/internal/tensor"
)

func newParam(t *testing.T, values, grads []float32) *nn.Parameter[*cpu.CPUBackend] {
	t.Helper()
	backend := cpu.New()
	p := nn.NewParameter("weight",
		tensor.MustFromSlice(values, tensor.Shape{len(values)}, backend))
	if grads != nil {
		p.AccumulateGrad(tensor.MustFromSlice(grads, tensor.Shape{len(grads)}, backend))
	}
	return p
}

func TestSGD_Step(t *testing.T) {
	p := newParam(t, []float32{1, 2, 3}, []float32{0.5, -0.5, 1})
	sgd := NewSGD([]*nn.Parameter[*cpu.CPUBackend]{p}, SGDConfig{LR: 0.1})

	sgd.Step()
	assert.InDeltaSlice(t, []float32{0.95, 2.05, 2.9}, p.Tensor().Data(), 1e-6)
}

func TestSGD_Momentum(t *testing.T) {
	p := newParam(t, []float32{0}, []float32{1})
	sgd := NewSGD([]*nn.Parameter[*cpu.CPUBackend]{p}, SGDConfig{LR: 0.1, Momentum: 0.9})

	sgd.Step() // velocity = 1, param = -0.1
	assert.InDelta(t, -0.1, p.Tensor().Data()[0], 1e-6)

	sgd.Step() // velocity = 0.9 + 1 = 1.9, param = -0.1 - 0.19
	assert.InDelta(t, -0.29, p.Tensor().Data()[0], 1e-6)
}

func TestSGD_SkipsParametersWithoutGrad(t *testing.T) {
	p := newParam(t, []float32{1}, nil)
	sgd := NewSGD([]*nn.Parameter[*cpu.CPUBackend]{p}, SGDConfig{LR: 0.1})

	sgd.Step()
	assert.Equal(t, float32(1), p.Tensor().Data()[0])
}

func TestSGD_SkipsFrozenParameters(t *testing.T) {
	p := newParam(t, []float32{1}, []float32{1})
	p.SetRequiresGrad(false)
	sgd := NewSGD([]*nn.Parameter[*cpu.CPUBackend]{p}, SGDConfig{LR: 0.1})

	sgd.Step()
	assert.Equal(t, float32(1), p.Tensor().Data()[0])
}

func TestSGD_ZeroGrad(t *testing.T) {
	p := newParam(t, []float32{1}, []float32{1})
	sgd := NewSGD([]*nn.Parameter[*cpu.CPUBackend]{p}, SGDConfig{})

	require.NotNil(t, p.Grad())
	sgd.ZeroGrad()
	assert.Nil(t, p.Grad())
}

func TestAdam_FirstStepMovesByLR(t *testing.T) {
	// With bias correction, the very first Adam step is approximately
	// -lr * sign(grad) regardless of gradient magnitude.
	p := newParam(t, []float32{0, 0}, []float32{10, -0.001})
	adam := NewAdam([]*nn.Parameter[*cpu.CPUBackend]{p}, AdamConfig{LR: 0.1})

	adam.Step()
	data := p.Tensor().Data()
	assert.InDelta(t, -0.1, data[0], 1e-4)
	assert.InDelta(t, 0.1, data[1], 1e-4)
}

func TestAdam_ConvergesOnQuadratic(t *testing.T) {
	backend := cpu.New()
	p := nn.NewParameter("x", tensor.MustFromSlice([]float32{5}, tensor.Shape{1}, backend))
	adam := NewAdam([]*nn.Parameter[*cpu.CPUBackend]{p}, AdamConfig{LR: 0.5})

	// Minimize f(x) = x^2 by hand-feeding grad = 2x.
	for i := 0; i < 200; i++ {
		x := p.Tensor().Data()[0]
		p.ZeroGrad()
		p.AccumulateGrad(tensor.MustFromSlice([]float32{2 * x}, tensor.Shape{1}, backend))
		adam.Step()
	}
	assert.InDelta(t, 0, p.Tensor().Data()[0], 0.05)
}

func TestOptimizers_LearningRateAccessors(t *testing.T) {
	var params []*nn.Parameter[*cpu.CPUBackend]

	sgd := NewSGD(params, SGDConfig{})
	assert.Equal(t, float32(0.01), sgd.GetLR())
	sgd.SetLR(0.5)
	assert.Equal(t, float32(0.5), sgd.GetLR())

	adam := NewAdam(params, AdamConfig{})
	assert.Equal(t, float32(0.001), adam.GetLR())
	adam.SetLR(0.1)
	assert.Equal(t, float32(0.1), adam.GetLR())
}
