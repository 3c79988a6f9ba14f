package pngmeta

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const signature = "\x89PNG\r\n\x1a\n"

// Signature returns the 8 magic bytes every PNG file starts with.
func Signature() [8]byte {
	return [8]byte([]byte(signature))
}

// Reader decodes a PNG datastream chunk by chunk, checking every CRC.
type Reader struct {
	r      io.Reader
	offset int64
}

func NewReader(r io.Reader) (*Reader, error) {
	header := make([]byte, len(signature))
	if _, err := io.ReadFull(r, header); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: file shorter than %d bytes", ErrSignatureMismatch, len(signature))
		}
		return nil, err
	}
	if string(header) != signature {
		return nil, fmt.Errorf("%w: got % x", ErrSignatureMismatch, header)
	}
	return &Reader{r: r, offset: int64(len(signature))}, nil
}

// Next returns the following chunk, or io.EOF when the stream ends cleanly
// on a chunk boundary. Any other failure is a *ParseError.
func (r *Reader) Next() (Chunk, error) {
	start := r.offset
	var header [chunkHeaderSize]byte
	n, err := io.ReadFull(r.r, header[:])
	switch {
	case errors.Is(err, io.EOF):
		return Chunk{}, io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		return Chunk{}, &ParseError{Offset: start, Err: fmt.Errorf("%w: %d byte header", ErrTruncated, n)}
	case err != nil:
		return Chunk{}, &ParseError{Offset: start, Err: err}
	}
	length := binary.BigEndian.Uint32(header[:4])
	typ, err := ChunkTypeFromSlice(header[4:8])
	if err != nil {
		return Chunk{}, &ParseError{Offset: start, Err: err}
	}
	// CopyN grows the buffer as data arrives so a bogus length cannot
	// force a huge allocation up front.
	var data bytes.Buffer
	if _, err := io.CopyN(&data, r.r, int64(length)); err != nil {
		return Chunk{}, &ParseError{Offset: start, Type: typ.String(), Err: truncated(err, "data", length)}
	}
	var stored uint32
	if err := binary.Read(r.r, binary.BigEndian, &stored); err != nil {
		return Chunk{}, &ParseError{Offset: start, Type: typ.String(), Err: truncated(err, "crc", chunkCRCSize)}
	}
	chunk, err := verifyChunk(typ, data.Bytes(), stored)
	if err != nil {
		return Chunk{}, &ParseError{Offset: start, Type: typ.String(), Err: err}
	}
	r.offset += int64(chunk.Size())
	return chunk, nil
}

func truncated(err error, field string, want uint32) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %s needs %d bytes", ErrTruncated, field, want)
	}
	return err
}
