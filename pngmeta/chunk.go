package pngmeta

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"unicode/utf8"
)

const (
	chunkHeaderSize = 8 // length + type
	chunkCRCSize    = 4
	minChunkSize    = chunkHeaderSize + chunkCRCSize
)

// Chunk is one length-prefixed, CRC protected record of a PNG datastream.
// The length is never stored; it is always len(data).
type Chunk struct {
	typ  ChunkType
	data []byte
	crc  uint32
}

// NewChunk builds a chunk and computes its checksum over type and data.
// data is copied, later changes to the caller's slice do not reach the chunk.
func NewChunk(typ ChunkType, data []byte) Chunk {
	owned := append([]byte{}, data...)
	return Chunk{
		typ:  typ,
		data: owned,
		crc:  chunkCRC(typ, owned),
	}
}

// ParseChunk decodes exactly one serialized chunk.
func ParseChunk(b []byte) (Chunk, error) {
	if len(b) < minChunkSize {
		return Chunk{}, fmt.Errorf("%w: need at least %d bytes, got %d", ErrTruncated, minChunkSize, len(b))
	}
	length := binary.BigEndian.Uint32(b[:4])
	typ, err := ChunkTypeFromSlice(b[4:8])
	if err != nil {
		return Chunk{}, err
	}
	end := uint64(chunkHeaderSize) + uint64(length) + chunkCRCSize
	if uint64(len(b)) < end {
		return Chunk{}, fmt.Errorf("%w: length %d needs %d bytes, got %d", ErrTruncated, length, end, len(b))
	}
	if uint64(len(b)) > end {
		return Chunk{}, fmt.Errorf("%w: %d extra", ErrTrailingBytes, uint64(len(b))-end)
	}
	data := make([]byte, length)
	copy(data, b[chunkHeaderSize:chunkHeaderSize+int(length)])
	stored := binary.BigEndian.Uint32(b[end-chunkCRCSize:])
	return verifyChunk(typ, data, stored)
}

func verifyChunk(typ ChunkType, data []byte, stored uint32) (Chunk, error) {
	if computed := chunkCRC(typ, data); computed != stored {
		return Chunk{}, fmt.Errorf("%w: stored %08x, computed %08x", ErrCRCMismatch, stored, computed)
	}
	return Chunk{typ: typ, data: data, crc: stored}, nil
}

func chunkCRC(typ ChunkType, data []byte) uint32 {
	code := typ.Bytes()
	checksummer := crc32.NewIEEE()
	checksummer.Write(code[:])
	checksummer.Write(data)
	return checksummer.Sum32()
}

func (c Chunk) Type() ChunkType {
	return c.typ
}

func (c Chunk) Length() uint32 {
	return uint32(len(c.data))
}

// Data returns the payload. The slice is shared with the chunk and must not
// be modified.
func (c Chunk) Data() []byte {
	return c.data
}

func (c Chunk) CRC() uint32 {
	return c.crc
}

// DataString interprets the payload as UTF-8 text.
func (c Chunk) DataString() (string, error) {
	if !utf8.Valid(c.data) {
		return "", fmt.Errorf("%w: chunk %s", ErrInvalidUTF8, c.typ)
	}
	return string(c.data), nil
}

// Size is the number of bytes the chunk takes in a file.
func (c Chunk) Size() int {
	return minChunkSize + len(c.data)
}

// Bytes serializes the chunk as length, type, data, crc.
func (c Chunk) Bytes() []byte {
	buf := make([]byte, 0, c.Size())
	return c.appendTo(buf)
}

func (c Chunk) appendTo(buf []byte) []byte {
	code := c.typ.Bytes()
	buf = binary.BigEndian.AppendUint32(buf, c.Length())
	buf = append(buf, code[:]...)
	buf = append(buf, c.data...)
	return binary.BigEndian.AppendUint32(buf, c.crc)
}

// Equal compares type, payload and checksum.
func (c Chunk) Equal(o Chunk) bool {
	return c.typ == o.typ && c.crc == o.crc && string(c.data) == string(o.data)
}

func (c Chunk) String() string {
	return fmt.Sprintf("%s len=%d crc=%08x", c.typ, len(c.data), c.crc)
}
