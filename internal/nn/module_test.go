package nn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ripple-ml/ripple/internal/backend/cpu"
	"github.com/ripple-ml/ripple/internal/tensor"
)

func TestBackward_PanicsOutsideTrainingMode(t *testing.T) {
	backend := cpu.New()
	lin := NewLinear(2, 2, true, backend)

	x := tensor.MustFromSlice([]float32{1, 2}, tensor.Shape{1, 2}, backend)
	lin.Forward(x)

	assert.PanicsWithValue(t,
		"linear: backward called while not in training mode",
		func() { lin.Backward(onesLike(x)) })
}

func TestBackward_PanicsWithoutForward(t *testing.T) {
	backend := cpu.New()
	lin := NewLinear(2, 2, true, backend)
	lin.SetTraining(true)

	assert.PanicsWithValue(t,
		"linear: no backward continuation captured; run forward in training mode first",
		func() { lin.Backward(tensor.Ones[float32](tensor.Shape{1, 2}, backend)) })
}

// An inference forward must invalidate the continuation captured by an
// earlier training forward, so that backward cannot silently use stale
// intermediates.
func TestInferenceForward_DiscardsStaleContinuation(t *testing.T) {
	backend := cpu.New()
	lin := NewLinear(2, 2, true, backend)
	x := tensor.MustFromSlice([]float32{1, 2}, tensor.Shape{1, 2}, backend)

	lin.SetTraining(true)
	lin.Forward(x)
	lin.SetTraining(false)
	lin.Forward(x)
	lin.SetTraining(true)

	assert.Panics(t, func() { lin.Backward(tensor.Ones[float32](tensor.Shape{1, 2}, backend)) })
}

func TestReset_ClearsGradsAndContinuation(t *testing.T) {
	backend := cpu.New()
	lin := NewLinear(2, 2, true, backend)
	lin.SetTraining(true)

	x := tensor.MustFromSlice([]float32{1, 2}, tensor.Shape{1, 2}, backend)
	y := lin.Forward(x)
	lin.Backward(onesLike(y))
	require.NotNil(t, lin.Weight().Grad())

	lin.Reset()
	assert.Nil(t, lin.Weight().Grad())
	assert.Panics(t, func() { lin.Backward(onesLike(y)) })

	// Reset is idempotent.
	lin.Reset()
	assert.Nil(t, lin.Weight().Grad())
}

func TestGradientSlot_AccumulatesAcrossPasses(t *testing.T) {
	backend := cpu.New()
	lin := NewLinear(2, 1, false, backend)
	lin.SetTraining(true)

	x := tensor.MustFromSlice([]float32{1, 2}, tensor.Shape{1, 2}, backend)
	dy := tensor.Ones[float32](tensor.Shape{1, 1}, backend)

	lin.Forward(x)
	lin.Backward(dy)
	first := append([]float32(nil), lin.Weight().Grad().Data()...)

	// Second pass without Reset adds onto the slot.
	lin.Forward(x)
	lin.Backward(dy)
	second := lin.Weight().Grad().Data()

	for i := range first {
		assert.InDelta(t, 2*first[i], second[i], 1e-6)
	}

	// After Reset the next write overwrites.
	lin.Reset()
	lin.Forward(x)
	lin.Backward(dy)
	for i := range first {
		assert.InDelta(t, first[i], lin.Weight().Grad().Data()[i], 1e-6)
	}
}

func TestAccumulateGrad_ShapeMismatchPanics(t *testing.T) {
	backend := cpu.New()
	p := NewParameter("weight", tensor.Zeros[float32](tensor.Shape{2, 3}, backend))

	assert.Panics(t, func() {
		p.AccumulateGrad(tensor.Zeros[float32](tensor.Shape{3, 2}, backend))
	})
}

func TestSetTrainable_TogglesRequiresGrad(t *testing.T) {
	backend := cpu.New()
	lin := NewLinear(2, 2, true, backend)

	require.True(t, lin.Weight().RequiresGrad())
	lin.SetTrainable(false)
	assert.False(t, lin.Weight().RequiresGrad())
	assert.False(t, lin.Bias().RequiresGrad())
	lin.SetTrainable(true)
	assert.True(t, lin.Weight().RequiresGrad())
}

func TestSetTrainable_RealignsIndividuallyToggledChildren(t *testing.T) {
	backend := cpu.New()
	frozen := NewLinear(2, 2, false, backend)
	seq := NewSequential[*cpu.CPUBackend]("seq", NewLinear(2, 2, false, backend), frozen)

	// The container already reads trainable; freezing one child must not
	// stop a later container-level toggle from reaching it.
	frozen.SetTrainable(false)
	require.True(t, seq.Trainable())

	seq.SetTrainable(true)
	assert.True(t, frozen.Trainable())
	assert.True(t, frozen.Weight().RequiresGrad())
}

func TestRetainValues_KeepsOutputCopies(t *testing.T) {
	backend := cpu.New()
	lin := NewLinear(2, 2, true, backend)
	lin.SetTraining(true)

	x := tensor.MustFromSlice([]float32{1, 2}, tensor.Shape{1, 2}, backend)

	lin.Forward(x)
	assert.Nil(t, lin.Output(), "retention disabled by default")

	lin.SetRetainValues(true)
	y := lin.Forward(x)
	require.NotNil(t, lin.Output())
	assert.Equal(t, y.Data(), lin.Output().Data())

	dy := onesLike(y)
	lin.Backward(dy)
	require.NotNil(t, lin.OutputGrad())
	assert.Equal(t, dy.Data(), lin.OutputGrad().Data())

	lin.Reset()
	assert.Nil(t, lin.Output())
	assert.Nil(t, lin.OutputGrad())
}

func TestForward_RejectsWrongDevice(t *testing.T) {
	backend := cpu.New()
	lin := NewLinear(2, 2, true, backend)

	x := tensor.MustFromSlice([]float32{1, 2}, tensor.Shape{1, 2}, backend)
	lin.ToDevice(tensor.CPU) // no-op, already there
	assert.Equal(t, tensor.CPU, lin.Device())

	assert.Panics(t, func() { lin.ToDevice(tensor.CUDA) }, "unavailable device")
	_ = x
}

func TestCache_Variants(t *testing.T) {
	rec := NewCache()
	require.True(t, rec.Recording())
	rec.Put("x", 42)
	assert.Equal(t, 42, rec.Get("x"))
	assert.Panics(t, func() { rec.Get("missing") })

	null := NoCache()
	require.False(t, null.Recording())
	null.Put("x", 42) // discarded
	assert.Panics(t, func() { null.Get("x") })
}
