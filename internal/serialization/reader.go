package serialization

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/x448/float16"
	"k8s.io/klog/v2"

	"github.com/ripple-ml/ripple/internal/tensor"
)

// maxHeaderSize bounds the JSON header to keep a corrupt size field from
// driving a huge allocation.
const maxHeaderSize = 100 * 1024 * 1024

// Reader reads model files.
type Reader struct {
	file       *os.File
	header     Header
	flags      uint32
	dataOffset int64
	closed     bool
}

// NewReader opens a model file and parses its header. The data section
// checksum is verified on ReadStateDict, not here.
func NewReader(path string) (*Reader, error) {
	//nolint:gosec // G304: the path is caller-chosen by design
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	r := &Reader{file: file}
	if err := r.parseHeader(); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}
	return r, nil
}

// Close closes the underlying file. Safe to call twice.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.file.Close()
}

// Header returns the parsed file header.
func (r *Reader) Header() Header { return r.header }

// ModelType returns the model type string recorded at save time.
func (r *Reader) ModelType() string { return r.header.ModelType }

func (r *Reader) parseHeader() error {
	magic := make([]byte, 4)
	if _, err := io.ReadFull(r.file, magic); err != nil {
		return fmt.Errorf("failed to read magic bytes: %w", err)
	}
	if string(magic) != MagicBytes {
		return ErrInvalidMagic
	}

	var version uint32
	if err := binary.Read(r.file, binary.LittleEndian, &version); err != nil {
		return fmt.Errorf("failed to read version: %w", err)
	}
	if version != FormatVersion {
		return fmt.Errorf("%w: got %d, expected %d", ErrUnsupportedVersion, version, FormatVersion)
	}

	if err := binary.Read(r.file, binary.LittleEndian, &r.flags); err != nil {
		return fmt.Errorf("failed to read flags: %w", err)
	}

	var headerSize uint64
	if err := binary.Read(r.file, binary.LittleEndian, &headerSize); err != nil {
		return fmt.Errorf("failed to read header size: %w", err)
	}
	if headerSize > maxHeaderSize {
		return ErrHeaderTooLarge
	}

	headerJSON := make([]byte, headerSize)
	if _, err := io.ReadFull(r.file, headerJSON); err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}
	if err := json.Unmarshal(headerJSON, &r.header); err != nil {
		return fmt.Errorf("failed to unmarshal header: %w", err)
	}

	pos := int64(fixedPrefixSize) + int64(headerSize)
	r.dataOffset = pos + (HeaderAlignment-pos%HeaderAlignment)%HeaderAlignment
	return nil
}

// ReadStateDict reads every tensor, verifies the data checksum, and
// returns the state dictionary on the CPU device.
func (r *Reader) ReadStateDict() (map[string]*tensor.RawTensor, error) {
	if r.closed {
		return nil, fmt.Errorf("reader is closed")
	}

	info, err := r.file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	data := make([]byte, info.Size()-r.dataOffset)
	if _, err := r.file.ReadAt(data, r.dataOffset); err != nil {
		return nil, fmt.Errorf("failed to read data section: %w", err)
	}

	sum := sha256.Sum256(data)
	if hex.EncodeToString(sum[:]) != r.header.Checksum {
		return nil, ErrChecksumMismatch
	}

	dict := make(map[string]*tensor.RawTensor, len(r.header.Tensors))
	for _, meta := range r.header.Tensors {
		if meta.Offset < 0 || meta.Offset+meta.Size > int64(len(data)) {
			return nil, fmt.Errorf("tensor %s: data range [%d, %d) outside data section", meta.Name, meta.Offset, meta.Offset+meta.Size)
		}
		raw, err := decodeTensor(meta, data[meta.Offset:meta.Offset+meta.Size])
		if err != nil {
			return nil, fmt.Errorf("tensor %s: %w", meta.Name, err)
		}
		dict[meta.Name] = raw
	}
	klog.V(2).Infof("read %q: %d tensors, %d data bytes", r.header.ModelType, len(dict), len(data))
	return dict, nil
}

// decodeTensor materializes one tensor from its stored payload, widening
// float16 back to float32.
func decodeTensor(meta TensorMeta, payload []byte) (*tensor.RawTensor, error) {
	shape := tensor.Shape(meta.Shape)

	if meta.DType == DTypeFloat16 {
		raw, err := tensor.NewRaw(shape, tensor.Float32, tensor.CPU)
		if err != nil {
			return nil, err
		}
		dst := raw.AsFloat32()
		if len(payload) != 2*len(dst) {
			return nil, fmt.Errorf("float16 payload of %d bytes for %d elements", len(payload), len(dst))
		}
		for i := range dst {
			dst[i] = float16.Frombits(binary.LittleEndian.Uint16(payload[2*i:])).Float32()
		}
		return raw, nil
	}

	dtype, ok := stringToDtype(meta.DType)
	if !ok {
		return nil, fmt.Errorf("unknown dtype %q", meta.DType)
	}
	raw, err := tensor.NewRaw(shape, dtype, tensor.CPU)
	if err != nil {
		return nil, err
	}
	if len(payload) != raw.ByteSize() {
		return nil, fmt.Errorf("payload of %d bytes for %d expected", len(payload), raw.ByteSize())
	}
	copy(raw.Data(), payload)
	return raw, nil
}

// LoadStateDict is a convenience wrapper reading the full state
// dictionary from path in one call.
func LoadStateDict(path string) (map[string]*tensor.RawTensor, string, error) {
	r, err := NewReader(path)
	if err != nil {
		return nil, "", err
	}
	defer func() { _ = r.Close() }()

	dict, err := r.ReadStateDict()
	if err != nil {
		return nil, "", err
	}
	return dict, r.ModelType(), nil
}
