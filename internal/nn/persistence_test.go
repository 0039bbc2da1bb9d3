package nn

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ripple-ml/ripple/internal/backend/cpu"
	"github.com/ripple-ml/ripple/internal/tensor"
)

func buildMLP(backend *cpu.CPUBackend) *Sequential[*cpu.CPUBackend] {
	return NewSequential[*cpu.CPUBackend]("mlp",
		NewLinear(4, 8, true, backend),
		NewBatchNorm1D(8, 0, 0, backend),
		NewTanh[*cpu.CPUBackend](),
		NewLinear(8, 2, true, backend))
}

func TestStateDict_Names(t *testing.T) {
	backend := cpu.New()
	model := buildMLP(backend)

	dict := StateDict[*cpu.CPUBackend](model)
	for _, name := range []string{
		"0.weight", "0.bias",
		"1.gamma", "1.beta", "1.rmean", "1.rvar",
		"3.weight", "3.bias",
	} {
		assert.Contains(t, dict, name)
	}
	assert.Len(t, dict, 8)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	backend := cpu.New()
	path := filepath.Join(t.TempDir(), "mlp.rpl")

	model := buildMLP(backend)
	model.SetTraining(true)

	// Run a pass so batchnorm buffers diverge from their init values.
	x := tensor.Randn[float32](tensor.Shape{8, 4}, backend)
	y := model.Forward(x)
	model.Backward(onesLike(y))

	require.NoError(t, Save[*cpu.CPUBackend](model, path, SaveOptions{}))

	loaded := buildMLP(backend)
	require.NoError(t, Load[*cpu.CPUBackend](loaded, path))

	// Loaded model is quiescent and in inference mode.
	assert.False(t, loaded.Training())
	for _, p := range loaded.Parameters() {
		assert.Nil(t, p.Grad())
	}

	wantDict := StateDict[*cpu.CPUBackend](model)
	gotDict := StateDict[*cpu.CPUBackend](loaded)
	for name, want := range wantDict {
		assert.Equal(t, want.AsFloat32(), gotDict[name].AsFloat32(), name)
	}

	// Same inputs, same inference outputs.
	model.SetTraining(false)
	a := model.Forward(x).Data()
	b := loaded.Forward(x).Data()
	assert.InDeltaSlice(t, a, b, 1e-6)
}

func TestSave_ResetsModule(t *testing.T) {
	backend := cpu.New()
	path := filepath.Join(t.TempDir(), "m.rpl")

	model := buildMLP(backend)
	model.SetTraining(true)
	y := model.Forward(tensor.Randn[float32](tensor.Shape{4, 4}, backend))
	model.Backward(onesLike(y))

	require.NoError(t, Save[*cpu.CPUBackend](model, path, SaveOptions{}))
	for _, p := range model.Parameters() {
		assert.Nil(t, p.Grad(), "save clears gradient slots")
	}
	assert.Panics(t, func() { model.Backward(onesLike(y)) }, "save clears continuations")
}

func TestLoad_ArchitectureMismatch(t *testing.T) {
	backend := cpu.New()
	path := filepath.Join(t.TempDir(), "m.rpl")

	model := buildMLP(backend)
	require.NoError(t, Save[*cpu.CPUBackend](model, path, SaveOptions{}))

	other := NewSequential[*cpu.CPUBackend]("mlp", NewLinear(4, 8, true, backend))
	err := Load[*cpu.CPUBackend](other, path)
	require.Error(t, err)
}

func TestSaveLoad_Float16(t *testing.T) {
	backend := cpu.New()
	path := filepath.Join(t.TempDir(), "half.rpl")

	model := NewLinear(4, 4, true, backend)
	require.NoError(t, Save[*cpu.CPUBackend](model, path, SaveOptions{Float16: true}))

	loaded := NewLinear(4, 4, true, backend)
	require.NoError(t, Load[*cpu.CPUBackend](loaded, path))

	want := model.Weight().Tensor().Data()
	got := loaded.Weight().Tensor().Data()
	// Half precision keeps ~3 decimal digits for values near 1.
	assert.InDeltaSlice(t, want, got, 1e-3)
}
