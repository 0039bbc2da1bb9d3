// Package dataset provides ready-made datasets for examples and
// experiments: tokenized text for next-token prediction and small
// synthetic problems.
package dataset

import (
	"github.com/ripple-ml/ripple/internal/dataset"
	"github.com/ripple-ml/ripple/internal/tensor"
)

// Well-known tiktoken encodings.
const (
	EncodingCL100kBase = dataset.EncodingCL100kBase
	EncodingP50kBase   = dataset.EncodingP50kBase
	EncodingR50kBase   = dataset.EncodingR50kBase
)

// TokenDataset turns text into next-token prediction pairs: every
// window of contextLen consecutive token ids predicts the id that
// follows it.
type TokenDataset = dataset.TokenDataset

// NewTokenDataset tokenizes text with the named tiktoken encoding.
func NewTokenDataset(text, encodingName string, contextLen int) (*TokenDataset, error) {
	return dataset.NewTokenDataset(text, encodingName, contextLen)
}

// Tensors materializes a token dataset: x of shape (N, contextLen)
// holding context ids and y of shape (N) holding the following id.
func Tensors[B tensor.Backend](d *TokenDataset, b B) (x, y *tensor.Tensor[float32, B]) {
	return dataset.Tensors(d, b)
}

// XOR returns the canonical 4-sample XOR problem.
func XOR[B tensor.Backend](b B) (x, y *tensor.Tensor[float32, B]) {
	return dataset.XOR(b)
}

// NoisyXOR samples n XOR points with Gaussian noise on the inputs.
func NoisyXOR[B tensor.Backend](n int, noise float64, b B) (x, y *tensor.Tensor[float32, B]) {
	return dataset.NoisyXOR(n, noise, b)
}
