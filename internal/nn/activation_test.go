package nn

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ripple-ml/ripple/internal/backend/cpu"
	"github.com/ripple-ml/ripple/internal/tensor"
)

func TestReLU_ForwardBackward(t *testing.T) {
	backend := cpu.New()
	relu := NewReLU[*cpu.CPUBackend]()
	relu.SetTraining(true)

	x := tensor.MustFromSlice([]float32{-2, -0.5, 0, 1, 3}, tensor.Shape{1, 5}, backend)
	y := relu.Forward(x)
	assert.Equal(t, []float32{0, 0, 0, 1, 3}, y.Data())

	dx := relu.Backward(onesLike(y))
	assert.Equal(t, []float32{0, 0, 0, 1, 1}, dx.Data())
}

func TestSigmoid_GradientCheck(t *testing.T) {
	backend := cpu.New()
	sig := NewSigmoid[*cpu.CPUBackend]()
	sig.SetTraining(true)

	x := tensor.MustFromSlice([]float32{-1.5, -0.2, 0.4, 2.1}, tensor.Shape{1, 4}, backend)

	loss := func() float32 { return sig.Forward(x).Sum().Item() }
	y := sig.Forward(x)
	dx := sig.Backward(onesLike(y))

	checkGrads(t, "sigmoid", dx.Data(), fdGrad(loss, x, 1e-2), 1e-2)
}

func TestTanh_GradientCheck(t *testing.T) {
	backend := cpu.New()
	tanh := NewTanh[*cpu.CPUBackend]()
	tanh.SetTraining(true)

	x := tensor.MustFromSlice([]float32{-1.5, -0.2, 0.4, 2.1}, tensor.Shape{1, 4}, backend)

	loss := func() float32 { return tanh.Forward(x).Sum().Item() }
	y := tanh.Forward(x)
	dx := tanh.Backward(onesLike(y))

	checkGrads(t, "tanh", dx.Data(), fdGrad(loss, x, 1e-2), 1e-2)
}

func TestActivations_HaveNoParameters(t *testing.T) {
	assert.Empty(t, NewReLU[*cpu.CPUBackend]().Parameters())
	assert.Empty(t, NewSigmoid[*cpu.CPUBackend]().Parameters())
	assert.Empty(t, NewTanh[*cpu.CPUBackend]().Parameters())
}
