package nn

import (
	"fmt"
	"strings"

	"github.com/ripple-ml/ripple/internal/tensor"
)

// Loss reduces a prediction/target pair to a scalar and produces the
// seed gradient for the backward pass. Each loss is a stateless
// operation pair behind a thin stateful wrapper: Forward runs the
// operation with a recording cache in training mode or the discarding
// cache otherwise, so evaluation-only call sites retain no backward
// intermediates. Losses start in training mode.
type Loss[B tensor.Backend] interface {
	// Label names the loss (e.g. "mse").
	Label() string
	// Training reports whether forward passes record backward
	// intermediates.
	Training() bool
	// SetTraining toggles gradient recording. Leaving training mode
	// drops any recorded forward.
	SetTraining(bool)
	// Forward computes the scalar loss.
	Forward(yPred, yTrue *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]
	// Backward returns the gradient of the loss with respect to yPred.
	// Panics outside training mode and when no forward pass has run.
	Backward() *tensor.Tensor[float32, B]
}

// NewLoss returns the loss registered under name: "mse",
// "cross_entropy" or "bce". Unknown names are an error, not a default.
func NewLoss[B tensor.Backend](name string) (Loss[B], error) {
	switch strings.ToLower(name) {
	case "mse":
		return NewMSELoss[B](), nil
	case "cross_entropy", "crossentropy":
		return NewCrossEntropyLoss[B](), nil
	case "bce", "binary_cross_entropy":
		return NewBCELoss[B](), nil
	default:
		return nil, fmt.Errorf("unknown loss %q", name)
	}
}

// probEps keeps log and division away from 0 and 1 in the
// probability-valued losses.
const probEps = 1e-7

// lossCore holds the wrapper state shared by every loss: the label, the
// recording mode and the cache of the most recent forward call.
type lossCore struct {
	label    string
	training bool
	cache    Cache
}

func (l *lossCore) Label() string { return l.label }

func (l *lossCore) Training() bool { return l.training }

func (l *lossCore) SetTraining(v bool) {
	l.training = v
	if !v {
		l.cache = nil
	}
}

// begin returns the cache for one forward call: a fresh recording cache
// in training mode, the discarding variant otherwise.
func (l *lossCore) begin() Cache {
	if !l.training {
		l.cache = nil
		return NoCache()
	}
	l.cache = NewCache()
	return l.cache
}

// recorded returns the cache of the matching forward call, enforcing
// the mode contract.
func (l *lossCore) recorded() Cache {
	if !l.training {
		panic(fmt.Sprintf("%s: backward called while not in training mode", l.label))
	}
	if l.cache == nil {
		panic(fmt.Sprintf("%s: backward called before forward", l.label))
	}
	return l.cache
}

// mseOp is the stateless operation behind MSELoss.
type mseOp[B tensor.Backend] struct{}

func (mseOp[B]) Forward(cache Cache, yPred, yTrue *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if !yPred.Shape().Equal(yTrue.Shape()) {
		panic(fmt.Sprintf("mse: prediction shape %v does not match target shape %v", yPred.Shape(), yTrue.Shape()))
	}
	diff := yPred.Sub(yTrue)
	cache.Put("diff", diff)
	return diff.Mul(diff).Mean()
}

func (mseOp[B]) Backward(cache Cache) *tensor.Tensor[float32, B] {
	diff := cacheGet[*tensor.Tensor[float32, B]](cache, "diff")
	return diff.MulScalar(2.0 / float64(diff.NumElements()))
}

// MSELoss is the mean squared error over all elements.
type MSELoss[B tensor.Backend] struct {
	lossCore
	op mseOp[B]
}

// NewMSELoss creates a mean squared error loss.
func NewMSELoss[B tensor.Backend]() *MSELoss[B] {
	return &MSELoss[B]{lossCore: lossCore{label: "mse", training: true}}
}

// Forward computes mean((yPred - yTrue)^2).
func (l *MSELoss[B]) Forward(yPred, yTrue *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return l.op.Forward(l.begin(), yPred, yTrue)
}

// Backward returns d(loss)/d(yPred) = 2 (yPred - yTrue) / n.
func (l *MSELoss[B]) Backward() *tensor.Tensor[float32, B] {
	return l.op.Backward(l.recorded())
}

// crossEntropyOp is the stateless operation behind CrossEntropyLoss.
type crossEntropyOp[B tensor.Backend] struct{}

func (crossEntropyOp[B]) Forward(cache Cache, yPred, yTrue *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	predShape := yPred.Shape()
	if len(predShape) < 2 {
		panic(fmt.Sprintf("cross_entropy: prediction must have at least 2 dimensions, got shape %v", predShape))
	}
	classes := predShape[len(predShape)-1]
	if !yTrue.Shape().Equal(predShape[:len(predShape)-1]) {
		panic(fmt.Sprintf("cross_entropy: target shape %v does not match prediction batch shape %v",
			yTrue.Shape(), predShape[:len(predShape)-1]))
	}

	b := yPred.Backend()
	probs := yPred.Softmax(-1)
	ids := tensor.Cast[int32](yTrue)
	onehot := tensor.New[float32](b.OneHot(ids.Raw(), classes), b)
	cache.Put("probs", probs)
	cache.Put("onehot", onehot)

	lastAxis := len(predShape) - 1
	logProbs := probs.Clip(probEps, 1).Log()
	return logProbs.Mul(onehot).SumAxes([]int{lastAxis}, false).MulScalar(-1).Mean()
}

func (crossEntropyOp[B]) Backward(cache Cache) *tensor.Tensor[float32, B] {
	probs := cacheGet[*tensor.Tensor[float32, B]](cache, "probs")
	onehot := cacheGet[*tensor.Tensor[float32, B]](cache, "onehot")

	shape := probs.Shape()
	batch := probs.NumElements() / shape[len(shape)-1]
	return probs.Sub(onehot).MulScalar(1.0 / float64(batch))
}

// CrossEntropyLoss is the softmax cross entropy over the last dimension.
// yPred holds unnormalized logits of shape (..., classes); yTrue holds
// integral class ids of shape (...).
type CrossEntropyLoss[B tensor.Backend] struct {
	lossCore
	op crossEntropyOp[B]
}

// NewCrossEntropyLoss creates a softmax cross entropy loss.
func NewCrossEntropyLoss[B tensor.Backend]() *CrossEntropyLoss[B] {
	return &CrossEntropyLoss[B]{lossCore: lossCore{label: "cross_entropy", training: true}}
}

// Forward computes mean(-log softmax(yPred)[yTrue]).
func (l *CrossEntropyLoss[B]) Forward(yPred, yTrue *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return l.op.Forward(l.begin(), yPred, yTrue)
}

// Backward returns d(loss)/d(logits) = (softmax - onehot) / batch.
func (l *CrossEntropyLoss[B]) Backward() *tensor.Tensor[float32, B] {
	return l.op.Backward(l.recorded())
}

// bceOp is the stateless operation behind BCELoss.
type bceOp[B tensor.Backend] struct{}

func (bceOp[B]) Forward(cache Cache, yPred, yTrue *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if !yPred.Shape().Equal(yTrue.Shape()) {
		panic(fmt.Sprintf("bce: prediction shape %v does not match target shape %v", yPred.Shape(), yTrue.Shape()))
	}
	p := yPred.Clip(probEps, 1-probEps)
	onesMinusP := p.MulScalar(-1).AddScalar(1)
	onesMinusY := yTrue.MulScalar(-1).AddScalar(1)
	cache.Put("p", p)
	cache.Put("onesMinusP", onesMinusP)
	cache.Put("target", yTrue)

	return yTrue.Mul(p.Log()).Add(onesMinusY.Mul(onesMinusP.Log())).MulScalar(-1).Mean()
}

func (bceOp[B]) Backward(cache Cache) *tensor.Tensor[float32, B] {
	p := cacheGet[*tensor.Tensor[float32, B]](cache, "p")
	onesMinusP := cacheGet[*tensor.Tensor[float32, B]](cache, "onesMinusP")
	yTrue := cacheGet[*tensor.Tensor[float32, B]](cache, "target")

	// d/dp of -(y log p + (1-y) log(1-p)) = (p - y) / (p (1-p))
	n := p.NumElements()
	return p.Sub(yTrue).Div(p.Mul(onesMinusP)).MulScalar(1.0 / float64(n))
}

// BCELoss is the binary cross entropy over probability-valued
// predictions in (0, 1), matched element-wise against 0/1 targets.
type BCELoss[B tensor.Backend] struct {
	lossCore
	op bceOp[B]
}

// NewBCELoss creates a binary cross entropy loss.
func NewBCELoss[B tensor.Backend]() *BCELoss[B] {
	return &BCELoss[B]{lossCore: lossCore{label: "bce", training: true}}
}

// Forward computes mean(-(y log p + (1-y) log(1-p))).
func (l *BCELoss[B]) Forward(yPred, yTrue *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return l.op.Forward(l.begin(), yPred, yTrue)
}

// Backward returns d(loss)/d(yPred).
func (l *BCELoss[B]) Backward() *tensor.Tensor[float32, B] {
	return l.op.Backward(l.recorded())
}
