package serialization

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/x448/float16"
	"k8s.io/klog/v2"

	"github.com/ripple-ml/ripple/internal/tensor"
)

// WriterOptions configures how a state dictionary is written.
type WriterOptions struct {
	// Float16 stores float32 tensors as float16, halving file size at
	// the cost of precision. Other dtypes are unaffected.
	Float16 bool
	// Metadata is carried verbatim in the header.
	Metadata map[string]string
}

// Writer writes model files.
type Writer struct {
	file   *os.File
	closed bool
}

// NewWriter creates a writer for the given path, truncating any
// existing file.
func NewWriter(path string) (*Writer, error) {
	//nolint:gosec // G304: the path is caller-chosen by design
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	return &Writer{file: file}, nil
}

// Close closes the underlying file. Safe to call twice.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.file.Close()
}

// WriteStateDict writes a state dictionary, keyed by hierarchical tensor
// names, in deterministic (sorted) order.
func (w *Writer) WriteStateDict(stateDict map[string]*tensor.RawTensor, modelType string, opts WriterOptions) error {
	if w.closed {
		return fmt.Errorf("writer is closed")
	}

	names := make([]string, 0, len(stateDict))
	for name := range stateDict {
		names = append(names, name)
	}
	sort.Strings(names)

	// Build the data section up front: offsets and the checksum both
	// need the final encoded bytes.
	var data []byte
	metas := make([]TensorMeta, 0, len(names))
	for _, name := range names {
		raw := stateDict[name]
		payload, dtypeName := encodeTensor(raw, opts.Float16)
		metas = append(metas, TensorMeta{
			Name:   name,
			DType:  dtypeName,
			Shape:  raw.Shape(),
			Offset: int64(len(data)),
			Size:   int64(len(payload)),
		})
		data = append(data, payload...)
	}

	sum := sha256.Sum256(data)
	header := Header{
		FormatVersion: FormatVersion,
		ModelType:     modelType,
		CreatedAt:     time.Now().UTC(),
		Tensors:       metas,
		Metadata:      opts.Metadata,
		Checksum:      hex.EncodeToString(sum[:]),
	}
	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}

	if _, err := w.file.WriteString(MagicBytes); err != nil {
		return fmt.Errorf("failed to write magic bytes: %w", err)
	}
	if err := binary.Write(w.file, binary.LittleEndian, uint32(FormatVersion)); err != nil {
		return fmt.Errorf("failed to write version: %w", err)
	}
	var flags uint32
	if opts.Float16 {
		flags |= FlagFloat16
	}
	if err := binary.Write(w.file, binary.LittleEndian, flags); err != nil {
		return fmt.Errorf("failed to write flags: %w", err)
	}
	if err := binary.Write(w.file, binary.LittleEndian, uint64(len(headerJSON))); err != nil {
		return fmt.Errorf("failed to write header size: %w", err)
	}
	if _, err := w.file.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	pos := int64(fixedPrefixSize + len(headerJSON))
	if padding := (HeaderAlignment - pos%HeaderAlignment) % HeaderAlignment; padding > 0 {
		if _, err := w.file.Write(make([]byte, padding)); err != nil {
			return fmt.Errorf("failed to write padding: %w", err)
		}
	}

	if _, err := w.file.Write(data); err != nil {
		return fmt.Errorf("failed to write tensor data: %w", err)
	}
	klog.V(2).Infof("wrote %q: %d tensors, %d data bytes", modelType, len(metas), len(data))
	return nil
}

// encodeTensor returns the stored payload and its dtype string.
func encodeTensor(raw *tensor.RawTensor, half bool) ([]byte, string) {
	if !half || raw.DType() != tensor.Float32 {
		return raw.Data(), dtypeToString(raw.DType())
	}
	src := raw.AsFloat32()
	payload := make([]byte, 2*len(src))
	for i, v := range src {
		binary.LittleEndian.PutUint16(payload[2*i:], float16.Fromfloat32(v).Bits())
	}
	return payload, DTypeFloat16
}

// SaveStateDict is a convenience wrapper writing a state dictionary to
// path in one call.
func SaveStateDict(path string, stateDict map[string]*tensor.RawTensor, modelType string, opts WriterOptions) error {
	w, err := NewWriter(path)
	if err != nil {
		return err
	}
	if err := w.WriteStateDict(stateDict, modelType, opts); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}
