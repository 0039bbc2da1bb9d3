package tensor

// Backend defines the numeric kernel interface the engine computes
// through. The engine itself owns no arithmetic: modules and operations
// express their forward and backward math in terms of these primitives.
//
// Contract notes:
//   - All inputs of one call must live on the backend's device; kernels
//     fail on device or dtype mismatch before touching any output.
//   - Kernels allocate fresh output tensors; inputs are never mutated.
//   - Binary element-wise kernels apply NumPy-style broadcasting.
type Backend interface {
	// Element-wise binary operations (broadcasting).
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor
	Div(a, b *RawTensor) *RawTensor

	// Element-wise operations with a scalar.
	AddScalar(x *RawTensor, scalar float64) *RawTensor
	MulScalar(x *RawTensor, scalar float64) *RawTensor

	// Element-wise unary math.
	Exp(x *RawTensor) *RawTensor
	Log(x *RawTensor) *RawTensor
	Sqrt(x *RawTensor) *RawTensor
	Rsqrt(x *RawTensor) *RawTensor
	Clip(x *RawTensor, lo, hi float64) *RawTensor

	// Element-wise comparisons producing 0/1 masks of the input dtype.
	Greater(a, b *RawTensor) *RawTensor
	Equal(a, b *RawTensor) *RawTensor

	// Activations.
	ReLU(x *RawTensor) *RawTensor
	Sigmoid(x *RawTensor) *RawTensor
	Tanh(x *RawTensor) *RawTensor
	Softmax(x *RawTensor, dim int) *RawTensor

	// Matrix operations (2D).
	MatMul(a, b *RawTensor) *RawTensor

	// Shape operations.
	Reshape(x *RawTensor, shape Shape) *RawTensor
	Transpose(x *RawTensor, axes ...int) *RawTensor

	// Reductions. axes == nil reduces over all axes to a scalar.
	SumAxes(x *RawTensor, axes []int, keepDims bool) *RawTensor
	MeanAxes(x *RawTensor, axes []int, keepDims bool) *RawTensor
	Argmax(x *RawTensor, dim int) *RawTensor

	// Convolution and pooling kernels.
	Conv2D(input, kernel *RawTensor, stride, padding int) *RawTensor
	Conv2DInputGrad(outGrad, kernel *RawTensor, inputShape Shape, stride, padding int) *RawTensor
	Conv2DKernelGrad(outGrad, input *RawTensor, kernelShape Shape, stride, padding int) *RawTensor
	MaxPool2D(input *RawTensor, kernelSize, stride int) (out, indices *RawTensor)
	MaxPool2DBackward(outGrad, indices *RawTensor, inputShape Shape) *RawTensor

	// Index operations.
	Lookup(weight, indices *RawTensor) *RawTensor
	LookupGrad(outGrad, indices *RawTensor, weightShape Shape) *RawTensor
	OneHot(indices *RawTensor, classes int) *RawTensor

	// Type conversion.
	Cast(x *RawTensor, dtype DataType) *RawTensor

	// Metadata.
	Name() string
	Device() Device
}
