package serialization

import "errors"

// Sentinel errors for file parsing and validation.
var (
	ErrInvalidMagic       = errors.New("not a .rpl file: bad magic bytes")
	ErrUnsupportedVersion = errors.New("unsupported format version")
	ErrHeaderTooLarge     = errors.New("header exceeds size limit")
	ErrChecksumMismatch   = errors.New("data section checksum mismatch")
	ErrTensorNotFound     = errors.New("tensor not found in file")
)
