package nn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ripple-ml/ripple/internal/backend/cpu"
	"github.com/ripple-ml/ripple/internal/tensor"
)

func TestLinear_Creation(t *testing.T) {
	backend := cpu.New()
	lin := NewLinear(4, 3, true, backend)

	assert.Equal(t, 4, lin.InFeatures())
	assert.Equal(t, 3, lin.OutFeatures())
	assert.True(t, lin.HasBias())
	assert.Len(t, lin.Parameters(), 2)
	assert.Empty(t, lin.Buffers())

	noBias := NewLinear(4, 3, false, backend)
	assert.Len(t, noBias.Parameters(), 1)
}

func TestLinear_ForwardValues(t *testing.T) {
	backend := cpu.New()
	lin := NewLinear(2, 2, true, backend)

	copy(lin.Weight().Tensor().Data(), []float32{1, 2, 3, 4}) // (2, 2)
	copy(lin.Bias().Tensor().Data(), []float32{10, 20})

	x := tensor.MustFromSlice([]float32{1, 1}, tensor.Shape{1, 2}, backend)
	y := lin.Forward(x)

	// y = [1*1+1*3+10, 1*2+1*4+20]
	assert.Equal(t, []float32{14, 26}, y.Data())
}

func TestLinear_FixedWeightsAllOnesHandComputed(t *testing.T) {
	backend := cpu.New()
	lin := NewLinear(3, 2, false, backend)
	lin.SetTraining(true)

	copy(lin.Weight().Tensor().Data(), []float32{
		1, 2,
		3, 4,
		5, 6,
	})
	x := tensor.Ones[float32](tensor.Shape{4, 3}, backend)

	// Each output row is the per-column sum of the weights, replicated
	// across the batch.
	y := lin.Forward(x)
	require.True(t, y.Shape().Equal(tensor.Shape{4, 2}))
	for i := 0; i < 4; i++ {
		assert.Equal(t, float32(9), y.At(i, 0), "row %d", i)
		assert.Equal(t, float32(12), y.At(i, 1), "row %d", i)
	}

	dx := lin.Backward(tensor.Ones[float32](tensor.Shape{4, 2}, backend))

	// dW = xᵀ @ dy: every entry sees the 4 all-ones samples.
	for i, g := range lin.Weight().Grad().Data() {
		assert.Equal(t, float32(4), g, "weight grad %d", i)
	}

	// dx = dy @ Wᵀ: each input row is the per-row sum of the weights.
	want := []float32{3, 7, 11}
	for i := 0; i < 4; i++ {
		for j, w := range want {
			assert.Equal(t, w, dx.At(i, j), "dx[%d][%d]", i, j)
		}
	}
}

func TestLinear_BatchedInput(t *testing.T) {
	backend := cpu.New()
	lin := NewLinear(3, 5, true, backend)

	x := tensor.Zeros[float32](tensor.Shape{2, 4, 3}, backend)
	y := lin.Forward(x)
	assert.True(t, y.Shape().Equal(tensor.Shape{2, 4, 5}))
}

func TestLinear_GradientCheck(t *testing.T) {
	backend := cpu.New()
	lin := NewLinear(3, 2, true, backend)
	lin.SetTraining(true)

	x := tensor.MustFromSlice([]float32{0.5, -1.2, 2.0, 0.3, 0.8, -0.7}, tensor.Shape{2, 3}, backend)

	loss := func() float32 { return lin.Forward(x).Sum().Item() }

	y := lin.Forward(x)
	dx := lin.Backward(onesLike(y))

	checkGrads(t, "input", dx.Data(), fdGrad(loss, x, 1e-2), 1e-2)
	checkGrads(t, "weight", lin.Weight().Grad().Data(), fdGrad(loss, lin.Weight().Tensor(), 1e-2), 1e-2)
	checkGrads(t, "bias", lin.Bias().Grad().Data(), fdGrad(loss, lin.Bias().Tensor(), 1e-2), 1e-2)
}

func TestLinear_RejectsWrongFeatureCount(t *testing.T) {
	backend := cpu.New()
	lin := NewLinear(3, 2, true, backend)

	x := tensor.Zeros[float32](tensor.Shape{1, 4}, backend)
	require.Panics(t, func() { lin.Forward(x) })
}
