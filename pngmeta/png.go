package pngmeta

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
)

// PNG is a whole file seen as its signature plus an ordered chunk list.
// The signature is fixed, so only the chunks are stored.
type PNG struct {
	chunks []Chunk
}

func NewPNG(chunks ...Chunk) *PNG {
	return &PNG{chunks: append([]Chunk(nil), chunks...)}
}

// Parse decodes a complete file. On error nothing is returned, there is no
// partially decoded result.
func Parse(b []byte) (*PNG, error) {
	return Decode(bytes.NewReader(b))
}

// Decode reads a datastream until EOF.
func Decode(r io.Reader) (*PNG, error) {
	pr, err := NewReader(r)
	if err != nil {
		return nil, err
	}
	var chunks []Chunk
	for {
		chunk, err := pr.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		chunks = append(chunks, chunk)
	}
	return &PNG{chunks: chunks}, nil
}

func ReadFile(fname string) (*PNG, error) {
	data, err := os.ReadFile(fname)
	if err != nil {
		return nil, err
	}
	png, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fname, err)
	}
	return png, nil
}

// WriteFile serializes p into fname, replacing its content.
func WriteFile(fname string, p *PNG, perm os.FileMode) error {
	return os.WriteFile(fname, p.Bytes(), perm)
}

func (p *PNG) Bytes() []byte {
	size := len(signature)
	for _, c := range p.chunks {
		size += c.Size()
	}
	buf := make([]byte, 0, size)
	buf = append(buf, signature...)
	for _, c := range p.chunks {
		buf = c.appendTo(buf)
	}
	return buf
}

// WriteTo implements io.WriterTo.
func (p *PNG) WriteTo(w io.Writer) (int64, error) {
	pw, err := NewWriter(w)
	if err != nil {
		return 0, err
	}
	for _, c := range p.chunks {
		if err := pw.WriteChunk(c); err != nil {
			return pw.Written(), err
		}
	}
	return pw.Written(), nil
}

// Chunks returns a copy of the chunk list.
func (p *PNG) Chunks() []Chunk {
	return append([]Chunk(nil), p.chunks...)
}

func (p *PNG) Len() int {
	return len(p.chunks)
}

// ChunkByType returns the first chunk of the given type.
func (p *PNG) ChunkByType(typ ChunkType) (Chunk, bool) {
	i := p.index(typ)
	if i < 0 {
		return Chunk{}, false
	}
	return p.chunks[i], true
}

func (p *PNG) ChunksByType(typ ChunkType) []Chunk {
	var resp []Chunk
	for _, c := range p.chunks {
		if c.typ == typ {
			resp = append(resp, c)
		}
	}
	return resp
}

// AppendChunk adds c at the end. Chunks of the same type may repeat.
func (p *PNG) AppendChunk(c Chunk) {
	p.chunks = append(p.chunks, c)
}

// InsertBeforeEnd places c right before the first IEND chunk, where PNG
// decoders still look at it. Without an IEND it appends.
func (p *PNG) InsertBeforeEnd(c Chunk) {
	i := p.index(IEND)
	if i < 0 {
		p.AppendChunk(c)
		return
	}
	p.chunks = append(p.chunks, Chunk{})
	copy(p.chunks[i+1:], p.chunks[i:])
	p.chunks[i] = c
}

// RemoveByType removes only the first chunk of the given type and returns it.
func (p *PNG) RemoveByType(typ ChunkType) (Chunk, error) {
	i := p.index(typ)
	if i < 0 {
		return Chunk{}, fmt.Errorf("%w: %s", ErrNotFound, typ)
	}
	return p.removeAt(i), nil
}

// RemoveAt removes the chunk at position i of the sequence.
func (p *PNG) RemoveAt(i int) (Chunk, error) {
	if i < 0 || i >= len(p.chunks) {
		return Chunk{}, fmt.Errorf("%w: no chunk at index %d", ErrNotFound, i)
	}
	return p.removeAt(i), nil
}

func (p *PNG) removeAt(i int) Chunk {
	removed := p.chunks[i]
	p.chunks = append(p.chunks[:i], p.chunks[i+1:]...)
	return removed
}

func (p *PNG) index(typ ChunkType) int {
	for i, c := range p.chunks {
		if c.typ == typ {
			return i
		}
	}
	return -1
}
