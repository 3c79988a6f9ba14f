package pngmeta

import (
	"io"
)

// Writer emits a PNG datastream: the signature first, then chunks in the
// order they are written.
type Writer struct {
	w       io.Writer
	written int64
}

func NewWriter(w io.Writer) (*Writer, error) {
	n, err := io.WriteString(w, signature)
	if err != nil {
		return nil, err
	}
	return &Writer{w: w, written: int64(n)}, nil
}

func (w *Writer) WriteChunk(c Chunk) error {
	n, err := w.w.Write(c.Bytes())
	w.written += int64(n)
	return err
}

// Written is the byte count emitted so far, signature included.
func (w *Writer) Written() int64 {
	return w.written
}
