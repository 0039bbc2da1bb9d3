package nn

import (
	"testing"

	"github.com/ripple-ml/ripple/internal/backend/cpu"
	"github.com/ripple-ml/ripple/internal/tensor"
)

// fdGrad computes a central finite-difference gradient of f with respect
// to every element of x, mutating x in place and restoring it.
func fdGrad(f func() float32, x *tensor.Tensor[float32, *cpu.CPUBackend], eps float32) []float32 {
	data := x.Data()
	grads := make([]float32, len(data))
	for i := range data {
		orig := data[i]
		data[i] = orig + eps
		plus := f()
		data[i] = orig - eps
		minus := f()
		data[i] = orig
		grads[i] = (plus - minus) / (2 * eps)
	}
	return grads
}

// checkGrads compares analytic gradients against finite differences with
// a tolerance suited to float32 arithmetic.
func checkGrads(t *testing.T, name string, got, want []float32, tol float32) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s: gradient length %d, want %d", name, len(got), len(want))
	}
	for i := range got {
		diff := got[i] - want[i]
		if diff < 0 {
			diff = -diff
		}
		scale := float32(1)
		if w := want[i]; w > 1 || w < -1 {
			if w < 0 {
				w = -w
			}
			scale = w
		}
		if diff/scale > tol {
			t.Errorf("%s: grad[%d] = %f, numerical %f", name, i, got[i], want[i])
		}
	}
}

// onesLike returns an all-ones tensor matching x's shape.
func onesLike(x *tensor.Tensor[float32, *cpu.CPUBackend]) *tensor.Tensor[float32, *cpu.CPUBackend] {
	return tensor.Ones[float32](x.Shape(), x.Backend())
}
