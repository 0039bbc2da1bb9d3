package nn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ripple-ml/ripple/internal/backend/cpu"
	"github.com/ripple-ml/ripple/internal/tensor"
)

func TestConvolution2D_ForwardValues(t *testing.T) {
	backend := cpu.New()
	conv := NewConvolution2D(1, 1, 2, 0, 1, false, backend)

	// All-ones 2x2 kernel sums each window.
	copy(conv.Parameters()[0].Tensor().Data(), []float32{1, 1, 1, 1})

	x := tensor.MustFromSlice([]float32{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
	}, tensor.Shape{1, 1, 3, 3}, backend)

	y := conv.Forward(x)
	require.True(t, y.Shape().Equal(tensor.Shape{1, 1, 2, 2}))
	assert.Equal(t, []float32{12, 16, 24, 28}, y.Data())
}

func TestConvolution2D_PaddingKeepsSize(t *testing.T) {
	backend := cpu.New()
	conv := NewConvolution2D(2, 4, 3, 1, 1, true, backend)

	x := tensor.Zeros[float32](tensor.Shape{1, 2, 8, 8}, backend)
	y := conv.Forward(x)
	assert.True(t, y.Shape().Equal(tensor.Shape{1, 4, 8, 8}))
}

func TestConvolution2D_GradientCheck(t *testing.T) {
	backend := cpu.New()
	conv := NewConvolution2D(1, 2, 2, 0, 1, true, backend)
	conv.SetTraining(true)

	x := tensor.Randn[float32](tensor.Shape{1, 1, 4, 4}, backend)

	loss := func() float32 { return conv.Forward(x).Sum().Item() }
	y := conv.Forward(x)
	dx := conv.Backward(onesLike(y))

	weight := conv.Parameters()[0]
	bias := conv.Parameters()[1]
	checkGrads(t, "input", dx.Data(), fdGrad(loss, x, 1e-2), 2e-2)
	checkGrads(t, "weight", weight.Grad().Data(), fdGrad(loss, weight.Tensor(), 1e-2), 2e-2)
	checkGrads(t, "bias", bias.Grad().Data(), fdGrad(loss, bias.Tensor(), 1e-2), 2e-2)
}

func TestConvolution2D_RejectsWrongChannels(t *testing.T) {
	backend := cpu.New()
	conv := NewConvolution2D(3, 4, 3, 1, 1, true, backend)

	x := tensor.Zeros[float32](tensor.Shape{1, 2, 8, 8}, backend)
	assert.Panics(t, func() { conv.Forward(x) })
}
