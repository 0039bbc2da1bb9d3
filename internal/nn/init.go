package nn

import (
	"math"

	"github.com/ripple-ml/ripple/internal/tensor"
)

// Weight initializers. All draw from math/rand; call rand.Seed style
// setup in the caller if reproducibility matters.

// uniformFanIn draws from U(-k, k) with k = 1/sqrt(fanIn), the default
// scheme for linear and convolution weights and biases.
func uniformFanIn[B tensor.Backend](shape tensor.Shape, fanIn int, b B) *tensor.Tensor[float32, B] {
	k := 1.0 / math.Sqrt(float64(fanIn))
	return tensor.Uniform[float32](shape, -k, k, b)
}

// normalInit draws from N(0, std^2). Used for embedding tables.
func normalInit[B tensor.Backend](shape tensor.Shape, std float64, b B) *tensor.Tensor[float32, B] {
	return tensor.Randn[float32](shape, b).MulScalar(std)
}
