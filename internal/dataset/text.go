// Package dataset builds training tensors for the engine's examples and
// tests: tokenized text for next-token prediction and small synthetic
// problems.
package dataset

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"

	"github.com/ripple-ml/ripple/internal/tensor"
)

// Well-known tiktoken encodings.
const (
	EncodingCL100kBase = "cl100k_base" // GPT-4, GPT-3.5-turbo
	EncodingP50kBase   = "p50k_base"   // GPT-3, Codex
	EncodingR50kBase   = "r50k_base"   // older GPT-3 models
)

// TokenDataset turns text into next-token prediction pairs: every
// window of contextLen consecutive token ids predicts the id that
// follows it. Ids are carried in float32 tensors, the engine's single
// value type.
type TokenDataset struct {
	tokens     []int
	contextLen int
	encoding   *tiktoken.Tiktoken
	name       string
}

// NewTokenDataset tokenizes text with the named tiktoken encoding.
func NewTokenDataset(text, encodingName string, contextLen int) (*TokenDataset, error) {
	if contextLen < 1 {
		return nil, fmt.Errorf("token dataset: invalid context length %d", contextLen)
	}
	encoding, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("token dataset: failed to load encoding %q: %w", encodingName, err)
	}

	tokens := encoding.Encode(text, nil, nil)
	if len(tokens) <= contextLen {
		return nil, fmt.Errorf("token dataset: text tokenizes to %d tokens, need more than %d", len(tokens), contextLen)
	}
	return &TokenDataset{
		tokens:     tokens,
		contextLen: contextLen,
		encoding:   encoding,
		name:       encodingName,
	}, nil
}

// NumSamples returns the number of (context, next token) pairs.
func (d *TokenDataset) NumSamples() int { return len(d.tokens) - d.contextLen }

// ContextLen returns the window length.
func (d *TokenDataset) ContextLen() int { return d.contextLen }

// VocabSize returns the encoding's vocabulary size.
//
// tiktoken-go does not expose this directly; the values below are the
// actual sizes of the supported encodings.
func (d *TokenDataset) VocabSize() int {
	switch d.name {
	case EncodingCL100kBase:
		return 100256
	case EncodingP50kBase, EncodingR50kBase:
		return 50257
	default:
		return 100000
	}
}

// Decode converts token ids back to text, for sampling output.
func (d *TokenDataset) Decode(ids []int) string {
	return d.encoding.Decode(ids)
}

// Tensors materializes the full dataset: x of shape (N, contextLen)
// holding context ids and y of shape (N) holding the following id.
func Tensors[B tensor.Backend](d *TokenDataset, b B) (x, y *tensor.Tensor[float32, B]) {
	n := d.NumSamples()
	x = tensor.Zeros[float32](tensor.Shape{n, d.contextLen}, b)
	y = tensor.Zeros[float32](tensor.Shape{n}, b)

	xData, yData := x.Data(), y.Data()
	for i := 0; i < n; i++ {
		for j := 0; j < d.contextLen; j++ {
			xData[i*d.contextLen+j] = float32(d.tokens[i+j])
		}
		yData[i] = float32(d.tokens[i+d.contextLen])
	}
	return x, y
}
