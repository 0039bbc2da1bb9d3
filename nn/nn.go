package nn

import (
	"github.com/ripple-ml/ripple/internal/nn"
	"github.com/ripple-ml/ripple/internal/tensor"
)

// Module is the interface every layer and container implements. See the
// package documentation for the forward/backward contract.
type Module[B tensor.Backend] = nn.Module[B]

// Core carries the shared module state: label, device, mode flags,
// registered parameters, buffers and children, and the captured
// backward continuation. Embed it when writing a custom module.
type Core[B tensor.Backend] = nn.Core[B]

// NewCore creates module state with the given label. Modules start in
// inference mode, trainable, on CPU.
func NewCore[B tensor.Backend](label string) Core[B] {
	return nn.NewCore[B](label)
}

// Parameter is a learnable tensor with a gradient slot.
type Parameter[B tensor.Backend] = nn.Parameter[B]

// NewParameter creates a parameter with the given label and value.
func NewParameter[B tensor.Backend](label string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return nn.NewParameter(label, t)
}

// Buffer is non-learned module state that persists with the model, such
// as running statistics.
type Buffer[B tensor.Backend] = nn.Buffer[B]

// NewBuffer creates a buffer with the given label and value.
func NewBuffer[B tensor.Backend](label string, t *tensor.Tensor[float32, B]) *Buffer[B] {
	return nn.NewBuffer(label, t)
}

// Cache passes intermediate values from a forward computation to its
// backward counterpart.
type Cache = nn.Cache

// NewCache creates a recording cache for training-mode forward passes.
func NewCache() Cache { return nn.NewCache() }

// NoCache returns the null cache used by inference-mode forward passes:
// Put is a no-op and Get panics.
func NoCache() Cache { return nn.NoCache() }

// Layers

// Linear is a fully connected layer computing y = x*W + b.
type Linear[B tensor.Backend] = nn.Linear[B]

// NewLinear creates a linear layer with uniform fan-in initialization.
//
// Example:
//
//	backend := cpu.New()
//	layer := nn.NewLinear(784, 128, true, backend)
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, withBias bool, backend B) *Linear[B] {
	return nn.NewLinear(inFeatures, outFeatures, withBias, backend)
}

// ReLU is the rectified linear activation.
type ReLU[B tensor.Backend] = nn.ReLU[B]

// NewReLU creates a ReLU activation module.
func NewReLU[B tensor.Backend]() *ReLU[B] { return nn.NewReLU[B]() }

// Sigmoid is the logistic activation.
type Sigmoid[B tensor.Backend] = nn.Sigmoid[B]

// NewSigmoid creates a sigmoid activation module.
func NewSigmoid[B tensor.Backend]() *Sigmoid[B] { return nn.NewSigmoid[B]() }

// Tanh is the hyperbolic tangent activation.
type Tanh[B tensor.Backend] = nn.Tanh[B]

// NewTanh creates a tanh activation module.
func NewTanh[B tensor.Backend]() *Tanh[B] { return nn.NewTanh[B]() }

// Reshape changes the per-sample shape, preserving the batch dimension.
type Reshape[B tensor.Backend] = nn.Reshape[B]

// NewReshape creates a reshape module with the given per-sample shape.
func NewReshape[B tensor.Backend](sampleShape ...int) *Reshape[B] {
	return nn.NewReshape[B](sampleShape...)
}

// Flatten collapses each sample to a vector.
type Flatten[B tensor.Backend] = nn.Flatten[B]

// NewFlatten creates a flatten module.
func NewFlatten[B tensor.Backend]() *Flatten[B] { return nn.NewFlatten[B]() }

// Sequential chains modules, running them in order on Forward and in
// reverse order on Backward.
type Sequential[B tensor.Backend] = nn.Sequential[B]

// NewSequential creates a container running the given modules in order.
//
// Example:
//
//	model := nn.NewSequential[*cpu.Backend]("mlp",
//	    nn.NewLinear(2, 8, true, backend),
//	    nn.NewTanh[*cpu.Backend](),
//	    nn.NewLinear(8, 1, true, backend))
func NewSequential[B tensor.Backend](label string, modules ...Module[B]) *Sequential[B] {
	return nn.NewSequential(label, modules...)
}

// Convolution2D is a 2D convolution over NCHW input.
type Convolution2D[B tensor.Backend] = nn.Convolution2D[B]

// NewConvolution2D creates a square-kernel 2D convolution layer.
func NewConvolution2D[B tensor.Backend](inChannels, outChannels, kernelSize, padding, stride int, withBias bool, backend B) *Convolution2D[B] {
	return nn.NewConvolution2D(inChannels, outChannels, kernelSize, padding, stride, withBias, backend)
}

// MaxPooling2D is a 2D max pooling layer over NCHW input.
type MaxPooling2D[B tensor.Backend] = nn.MaxPooling2D[B]

// NewMaxPooling2D creates a max pooling layer. A stride of 0 defaults
// to the kernel size.
func NewMaxPooling2D[B tensor.Backend](kernelSize, stride int) *MaxPooling2D[B] {
	return nn.NewMaxPooling2D[B](kernelSize, stride)
}

// Normalization defaults, applied when a constructor receives zero.
const (
	DefaultEps      = nn.DefaultEps
	DefaultMomentum = nn.DefaultMomentum
)

// BatchNorm1D normalizes 2D (N, C) or 3D (N, C, L) input per channel.
type BatchNorm1D[B tensor.Backend] = nn.BatchNorm1D[B]

// NewBatchNorm1D creates a 1D batch normalization layer.
func NewBatchNorm1D[B tensor.Backend](channels int, eps, momentum float64, backend B) *BatchNorm1D[B] {
	return nn.NewBatchNorm1D(channels, eps, momentum, backend)
}

// BatchNorm2D normalizes 4D (N, C, H, W) input per channel.
type BatchNorm2D[B tensor.Backend] = nn.BatchNorm2D[B]

// NewBatchNorm2D creates a 2D batch normalization layer.
func NewBatchNorm2D[B tensor.Backend](channels int, eps, momentum float64, backend B) *BatchNorm2D[B] {
	return nn.NewBatchNorm2D(channels, eps, momentum, backend)
}

// LayerNorm normalizes over the trailing dimensions of each sample.
type LayerNorm[B tensor.Backend] = nn.LayerNorm[B]

// NewLayerNorm creates a layer normalization module over the given
// trailing shape.
func NewLayerNorm[B tensor.Backend](normalizedShape tensor.Shape, eps float64, backend B) *LayerNorm[B] {
	return nn.NewLayerNorm(normalizedShape, eps, backend)
}

// Embedding maps integer ids to dense vectors.
type Embedding[B tensor.Backend] = nn.Embedding[B]

// NewEmbedding creates an embedding table of vocabSize rows.
func NewEmbedding[B tensor.Backend](vocabSize, embedDim int, backend B) *Embedding[B] {
	return nn.NewEmbedding(vocabSize, embedDim, backend)
}

// Losses

// Loss scores predictions against targets and produces the seed
// gradient for the backward pass.
type Loss[B tensor.Backend] = nn.Loss[B]

// NewLoss returns the loss registered under name: "mse",
// "cross_entropy" or "bce".
func NewLoss[B tensor.Backend](name string) (Loss[B], error) {
	return nn.NewLoss[B](name)
}

// MSELoss is mean squared error.
type MSELoss[B tensor.Backend] = nn.MSELoss[B]

// NewMSELoss creates a mean squared error loss.
func NewMSELoss[B tensor.Backend]() *MSELoss[B] { return nn.NewMSELoss[B]() }

// CrossEntropyLoss is softmax cross-entropy over class logits.
type CrossEntropyLoss[B tensor.Backend] = nn.CrossEntropyLoss[B]

// NewCrossEntropyLoss creates a cross-entropy loss. Targets are class
// indices.
func NewCrossEntropyLoss[B tensor.Backend]() *CrossEntropyLoss[B] {
	return nn.NewCrossEntropyLoss[B]()
}

// BCELoss is binary cross-entropy over probabilities.
type BCELoss[B tensor.Backend] = nn.BCELoss[B]

// NewBCELoss creates a binary cross-entropy loss.
func NewBCELoss[B tensor.Backend]() *BCELoss[B] { return nn.NewBCELoss[B]() }

// Metrics

// Metric computes an evaluation score from predictions and targets.
type Metric[B tensor.Backend] = nn.Metric[B]

// NewMetric returns the metric registered under name: "accuracy" or
// "r2".
func NewMetric[B tensor.Backend](name string) (Metric[B], error) {
	return nn.NewMetric[B](name)
}

// Accuracy is the fraction of argmax predictions matching the targets.
type Accuracy[B tensor.Backend] = nn.Accuracy[B]

// R2 is the coefficient of determination for regression output.
type R2[B tensor.Backend] = nn.R2[B]

// Persistence

// StateDict flattens a module tree into named raw tensors. Keys are
// child-index paths ending in the parameter or buffer label, such as
// "0.weight".
func StateDict[B tensor.Backend](m Module[B]) map[string]*tensor.RawTensor {
	return nn.StateDict(m)
}

// LoadStateDict writes a state dictionary into a module of the same
// architecture. Missing or extra keys are errors.
func LoadStateDict[B tensor.Backend](m Module[B], dict map[string]*tensor.RawTensor) error {
	return nn.LoadStateDict(m, dict)
}

// SaveOptions configures Save.
type SaveOptions = nn.SaveOptions

// Save writes the module's state to path in the engine's binary model
// format.
func Save[B tensor.Backend](m Module[B], path string, opts SaveOptions) error {
	return nn.Save(m, path, opts)
}

// Load restores a module's state from a file written by Save. The
// module must already have the saved architecture.
func Load[B tensor.Backend](m Module[B], path string) error {
	return nn.Load(m, path)
}
