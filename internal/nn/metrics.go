package nn

import (
	"fmt"
	"strings"

	"github.com/ripple-ml/ripple/internal/tensor"
)

// Metric scores a prediction/target pair. Metrics are pure functions of
// their inputs and never participate in differentiation.
type Metric[B tensor.Backend] interface {
	// Label names the metric (e.g. "accuracy").
	Label() string
	// Compute returns the scalar score.
	Compute(yPred, yTrue *tensor.Tensor[float32, B]) float32
}

// NewMetric returns the metric registered under name: "accuracy" or
// "r2". Unknown names are an error.
func NewMetric[B tensor.Backend](name string) (Metric[B], error) {
	switch strings.ToLower(name) {
	case "accuracy":
		return Accuracy[B]{}, nil
	case "r2":
		return R2[B]{}, nil
	default:
		return nil, fmt.Errorf("unknown metric %q", name)
	}
}

// Accuracy is the fraction of samples whose argmax over the last
// dimension of yPred equals the class id in yTrue.
type Accuracy[B tensor.Backend] struct{}

// Label returns "accuracy".
func (Accuracy[B]) Label() string { return "accuracy" }

// Compute scores class predictions against integral targets.
func (Accuracy[B]) Compute(yPred, yTrue *tensor.Tensor[float32, B]) float32 {
	pred := yPred.Argmax(-1)
	target := tensor.Cast[int32](yTrue)
	if !pred.Shape().Equal(target.Shape()) {
		panic(fmt.Sprintf("accuracy: prediction batch shape %v does not match target shape %v",
			pred.Shape(), target.Shape()))
	}

	predData := pred.Data()
	targetData := target.Data()
	hits := 0
	for i := range predData {
		if predData[i] == targetData[i] {
			hits++
		}
	}
	return float32(hits) / float32(len(predData))
}

// R2 is the coefficient of determination, 1 - SSres/SStot. A constant
// predictor scores 0, a perfect one 1.
type R2[B tensor.Backend] struct{}

// Label returns "r2".
func (R2[B]) Label() string { return "r2" }

// Compute scores regression predictions against continuous targets.
func (R2[B]) Compute(yPred, yTrue *tensor.Tensor[float32, B]) float32 {
	if !yPred.Shape().Equal(yTrue.Shape()) {
		panic(fmt.Sprintf("r2: prediction shape %v does not match target shape %v", yPred.Shape(), yTrue.Shape()))
	}
	res := yPred.Sub(yTrue)
	ssRes := res.Mul(res).Sum().Item()

	mean := yTrue.Mean()
	tot := yTrue.Sub(mean)
	ssTot := tot.Mul(tot).Sum().Item()
	if ssTot == 0 {
		ssTot = probEps
	}
	return 1 - ssRes/ssTot
}
