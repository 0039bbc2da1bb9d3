package nn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ripple-ml/ripple/internal/backend/cpu"
	"github.com/ripple-ml/ripple/internal/tensor"
)

func TestNewMetric_Lookup(t *testing.T) {
	for _, name := range []string{"accuracy", "Accuracy", "r2"} {
		m, err := NewMetric[*cpu.CPUBackend](name)
		require.NoError(t, err, name)
		require.NotNil(t, m)
	}
	_, err := NewMetric[*cpu.CPUBackend]("f1")
	require.Error(t, err)
}

func TestAccuracy(t *testing.T) {
	backend := cpu.New()

	// Rows argmax: 1, 0, 2; targets: 1, 2, 2 -> 2/3 correct.
	yPred := tensor.MustFromSlice([]float32{
		0.1, 0.8, 0.1,
		0.7, 0.2, 0.1,
		0.2, 0.2, 0.6,
	}, tensor.Shape{3, 3}, backend)
	yTrue := tensor.MustFromSlice([]float32{1, 2, 2}, tensor.Shape{3}, backend)

	acc := Accuracy[*cpu.CPUBackend]{}.Compute(yPred, yTrue)
	assert.InDelta(t, 2.0/3.0, acc, 1e-6)
}

func TestR2(t *testing.T) {
	backend := cpu.New()
	yTrue := tensor.MustFromSlice([]float32{1, 2, 3, 4}, tensor.Shape{4}, backend)

	perfect := R2[*cpu.CPUBackend]{}.Compute(yTrue.Clone(), yTrue)
	assert.InDelta(t, 1.0, perfect, 1e-6)

	// Predicting the mean scores zero.
	mean := tensor.Full[float32](tensor.Shape{4}, 2.5, backend)
	baseline := R2[*cpu.CPUBackend]{}.Compute(mean, yTrue)
	assert.InDelta(t, 0.0, baseline, 1e-6)
}
