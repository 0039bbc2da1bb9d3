package dataset

import (
	"math/rand"

	"github.com/ripple-ml/ripple/internal/tensor"
)

// XOR returns the canonical 4-sample XOR problem: inputs of shape
// (4, 2) and targets of shape (4, 1).
func XOR[B tensor.Backend](b B) (x, y *tensor.Tensor[float32, B]) {
	x = tensor.MustFromSlice([]float32{
		0, 0,
		0, 1,
		1, 0,
		1, 1,
	}, tensor.Shape{4, 2}, b)
	y = tensor.MustFromSlice([]float32{0, 1, 1, 0}, tensor.Shape{4, 1}, b)
	return x, y
}

// NoisyXOR samples n points from the XOR problem with Gaussian noise on
// the inputs, for experiments that need more than four samples.
func NoisyXOR[B tensor.Backend](n int, noise float64, b B) (x, y *tensor.Tensor[float32, B]) {
	x = tensor.Zeros[float32](tensor.Shape{n, 2}, b)
	y = tensor.Zeros[float32](tensor.Shape{n, 1}, b)

	xData, yData := x.Data(), y.Data()
	for i := 0; i < n; i++ {
		a := rand.Intn(2) //nolint:gosec // synthetic data, not crypto
		c := rand.Intn(2) //nolint:gosec
		xData[i*2] = float32(a) + float32(rand.NormFloat64()*noise)
		xData[i*2+1] = float32(c) + float32(rand.NormFloat64()*noise)
		yData[i] = float32(a ^ c)
	}
	return x, y
}
