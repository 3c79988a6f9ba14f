package pngmeta

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTypeBytes  = errors.New("invalid chunk type bytes")
	ErrTruncated         = errors.New("truncated chunk")
	ErrCRCMismatch       = errors.New("crc32 mismatch")
	ErrSignatureMismatch = errors.New("not png: signature mismatch")
	ErrNotFound          = errors.New("chunk not found")
	ErrInvalidUTF8       = errors.New("chunk data is not valid utf-8")
	ErrTrailingBytes     = errors.New("trailing bytes after chunk")
	ErrNotTextChunk      = errors.New("not a tEXt chunk")
	ErrBadTextChunk      = errors.New("malformed tEXt chunk")
)

// ParseError reports where in the datastream a chunk failed to decode.
// Offset is counted from the first byte of the file, signature included.
type ParseError struct {
	Offset int64
	Type   string // empty when the type field itself could not be read
	Err    error
}

func (e *ParseError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("chunk at offset %d: %s", e.Offset, e.Err)
	}
	return fmt.Sprintf("chunk %s at offset %d: %s", e.Type, e.Offset, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
