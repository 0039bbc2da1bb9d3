// Package serialization implements the .rpl model file format.
//
// Layout:
//
//	[0:4]   magic "RPPL"
//	[4:8]   format version (uint32, little endian)
//	[8:12]  flags (uint32)
//	[12:20] header size (uint64)
//	[20:..] header JSON
//	padding to 64-byte alignment
//	tensor data section
//
// The header carries per-tensor metadata (name, dtype, shape, offset)
// plus a SHA-256 checksum of the data section. Float32 tensors can
// optionally be stored as float16 to halve file size; the reader widens
// them back transparently.
package serialization

import (
	"time"

	"github.com/ripple-ml/ripple/internal/tensor"
)

// Format constants.
const (
	MagicBytes      = "RPPL"
	FormatVersion   = 1
	HeaderAlignment = 64 // data section alignment in bytes
	fixedPrefixSize = 4 + 4 + 4 + 8
)

// Data type strings used in headers.
const (
	DTypeFloat32 = "float32"
	DTypeFloat64 = "float64"
	DTypeFloat16 = "float16" // storage-only: widened to float32 on read
	DTypeInt32   = "int32"
)

// Header flags.
const (
	FlagFloat16 uint32 = 1 << 0 // float32 tensors stored as float16
)

// Header is the JSON header of a .rpl file.
type Header struct {
	FormatVersion int               `json:"format_version"`
	ModelType     string            `json:"model_type"`
	CreatedAt     time.Time         `json:"created_at"`
	Tensors       []TensorMeta      `json:"tensors"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	Checksum      string            `json:"checksum"` // hex SHA-256 of the data section
}

// TensorMeta describes one tensor in the data section.
type TensorMeta struct {
	Name   string `json:"name"`
	DType  string `json:"dtype"`
	Shape  []int  `json:"shape"`
	Offset int64  `json:"offset"` // bytes from the start of the data section
	Size   int64  `json:"size"`   // stored size in bytes
}

func dtypeToString(dt tensor.DataType) string {
	switch dt {
	case tensor.Float32:
		return DTypeFloat32
	case tensor.Float64:
		return DTypeFloat64
	case tensor.Int32:
		return DTypeInt32
	default:
		return "unknown"
	}
}

func stringToDtype(s string) (tensor.DataType, bool) {
	switch s {
	case DTypeFloat32:
		return tensor.Float32, true
	case DTypeFloat64:
		return tensor.Float64, true
	case DTypeInt32:
		return tensor.Int32, true
	default:
		return 0, false
	}
}
