package nn

import (
	"fmt"

	"github.com/ripple-ml/ripple/internal/tensor"
)

// lookupOp is the stateless gather operation behind Embedding: forward
// selects table rows by id, backward scatter-adds the output gradient
// into the table shape. Repeated ids within one batch sum their
// contributions.
type lookupOp[B tensor.Backend] struct{}

func (lookupOp[B]) Forward(cache Cache, table, ids *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	b := table.Backend()
	indices := tensor.Cast[int32](ids)
	cache.Put("indices", indices)
	cache.Put("tableShape", table.Shape())
	return tensor.New[float32](b.Lookup(table.Raw(), indices.Raw()), b)
}

func (lookupOp[B]) Backward(cache Cache, dy *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	indices := cacheGet[*tensor.Tensor[int32, B]](cache, "indices")
	tableShape := cacheGet[tensor.Shape](cache, "tableShape")

	b := dy.Backend()
	return tensor.New[float32](b.LookupGrad(dy.Raw(), indices.Raw(), tableShape), b)
}

// Embedding maps token ids to learned dense vectors. The input carries
// ids in a float32 tensor (the engine's single value type); ids must be
// integral and within [0, vocabSize).
type Embedding[B tensor.Backend] struct {
	Core[B]

	weight *Parameter[B] // (vocabSize, embedDim)
	op     lookupOp[B]

	vocabSize int
	embedDim  int
}

// NewEmbedding creates an embedding table initialized from N(0, 1).
func NewEmbedding[B tensor.Backend](vocabSize, embedDim int, b B) *Embedding[B] {
	if vocabSize < 1 || embedDim < 1 {
		panic(fmt.Sprintf("embedding: invalid table size %dx%d", vocabSize, embedDim))
	}
	e := &Embedding[B]{
		Core:      NewCore[B]("embedding"),
		vocabSize: vocabSize,
		embedDim:  embedDim,
	}
	e.weight = NewParameter("weight", normalInit[B](tensor.Shape{vocabSize, embedDim}, 1.0, b))
	e.Register(e.weight)
	return e
}

// VocabSize returns the number of table rows.
func (e *Embedding[B]) VocabSize() int { return e.vocabSize }

// EmbedDim returns the vector width.
func (e *Embedding[B]) EmbedDim() int { return e.embedDim }

// Weight returns the embedding table parameter.
func (e *Embedding[B]) Weight() *Parameter[B] { return e.weight }

// Forward gathers table rows: shape (...) in, shape (..., embedDim) out.
//
// The backward continuation scatter-adds the output gradient into the
// table and returns nil, because ids are discrete and carry no gradient.
func (e *Embedding[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	e.CheckDevice(x)

	cache := e.OpCache()
	y := e.op.Forward(cache, e.weight.Tensor(), x)

	if e.Training() {
		e.Capture(func(dy *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
			e.weight.AccumulateGrad(e.op.Backward(cache, dy))
			return nil
		})
	} else {
		e.Discard()
	}
	e.RetainOutput(y)
	return y
}
