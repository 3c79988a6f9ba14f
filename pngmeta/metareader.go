package pngmeta

import (
	"bytes"
	"fmt"
	"unicode/utf8"
)

// TextEntry is the keyword/text pair carried by a standard tEXt chunk.
type TextEntry struct {
	Keyword string
	Text    string
}

// NewTextChunk builds a tEXt chunk. PNG limits keywords to 1-79 bytes and
// forbids the null separator inside them.
func NewTextChunk(keyword, text string) (Chunk, error) {
	if len(keyword) == 0 || len(keyword) > 79 {
		return Chunk{}, fmt.Errorf("%w: keyword length %d", ErrBadTextChunk, len(keyword))
	}
	if bytes.IndexByte([]byte(keyword), 0) >= 0 {
		return Chunk{}, fmt.Errorf("%w: null byte in keyword", ErrBadTextChunk)
	}
	content := bytes.NewBuffer(nil)
	content.WriteString(keyword)
	content.WriteByte(0) // Null separator
	content.WriteString(text)
	return NewChunk(TEXT, content.Bytes()), nil
}

// TextEntry splits a tEXt payload at its first null byte. Text after the
// separator is returned as is; it must still be valid UTF-8.
func (c Chunk) TextEntry() (TextEntry, error) {
	if c.typ != TEXT {
		return TextEntry{}, fmt.Errorf("%w: got %s", ErrNotTextChunk, c.typ)
	}
	keyword, text, found := bytes.Cut(c.data, []byte{0})
	if !found || len(keyword) == 0 {
		return TextEntry{}, fmt.Errorf("%w: missing keyword separator", ErrBadTextChunk)
	}
	if !utf8.Valid(text) {
		return TextEntry{}, fmt.Errorf("%w: tEXt %q", ErrInvalidUTF8, keyword)
	}
	return TextEntry{Keyword: string(keyword), Text: string(text)}, nil
}

// TextEntry returns the first tEXt entry stored under keyword. A matching
// chunk with a bad payload is reported, not skipped.
func (p *PNG) TextEntry(keyword string) (TextEntry, error) {
	for _, c := range p.ChunksByType(TEXT) {
		kw, _, found := bytes.Cut(c.data, []byte{0})
		if found && string(kw) == keyword {
			return c.TextEntry()
		}
	}
	return TextEntry{}, fmt.Errorf("%w: tEXt %q", ErrNotFound, keyword)
}

// TextEntries collects every well-formed tEXt chunk of p in file order.
func (p *PNG) TextEntries() []TextEntry {
	var resp []TextEntry
	for _, c := range p.ChunksByType(TEXT) {
		entry, err := c.TextEntry()
		if err != nil {
			continue
		}
		resp = append(resp, entry)
	}
	return resp
}
