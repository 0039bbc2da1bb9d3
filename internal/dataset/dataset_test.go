package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ripple-ml/ripple/internal/backend/cpu"
	"github.com/ripple-ml/ripple/internal/tensor"
)

func TestXOR(t *testing.T) {
	backend := cpu.New()
	x, y := XOR(backend)

	assert.True(t, x.Shape().Equal(tensor.Shape{4, 2}))
	assert.True(t, y.Shape().Equal(tensor.Shape{4, 1}))
	for i := 0; i < 4; i++ {
		a, b := x.At(i, 0), x.At(i, 1)
		want := float32(0)
		if a != b {
			want = 1
		}
		assert.Equal(t, want, y.At(i, 0))
	}
}

func TestNoisyXOR_LabelsMatchRoundedInputs(t *testing.T) {
	backend := cpu.New()
	x, y := NoisyXOR(64, 0.05, backend)

	require.True(t, x.Shape().Equal(tensor.Shape{64, 2}))
	for i := 0; i < 64; i++ {
		a := int(x.At(i, 0) + 0.5)
		b := int(x.At(i, 1) + 0.5)
		assert.Equal(t, float32(a^b), y.At(i, 0), "sample %d", i)
	}
}

func TestTokenDataset_WindowsAndTargets(t *testing.T) {
	// The tiktoken encoding fetches its BPE ranks on first use; skip
	// when that is not possible in the sandbox.
	ds, err := NewTokenDataset("the quick brown fox jumps over the lazy dog", EncodingCL100kBase, 3)
	if err != nil {
		t.Skipf("tiktoken encoding unavailable: %v", err)
	}

	backend := cpu.New()
	x, y := Tensors(ds, backend)

	require.Equal(t, ds.NumSamples(), x.Shape()[0])
	require.Equal(t, 3, x.Shape()[1])

	// Every target is the token that follows its context window.
	for i := 1; i < ds.NumSamples(); i++ {
		assert.Equal(t, y.At(i-1), x.At(i, 2), "window %d shifts by one", i)
	}
}

func TestTokenDataset_RejectsShortText(t *testing.T) {
	_, err := NewTokenDataset("hi", EncodingCL100kBase, 128)
	require.Error(t, err)
}
