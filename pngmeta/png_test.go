package pngmeta

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// minimalPNG builds signature + IHDR + IEND by hand for a 1x1 greyscale image.
func minimalPNG() []byte {
	ihdr := binary.BigEndian.AppendUint32(nil, 1) // width
	ihdr = binary.BigEndian.AppendUint32(ihdr, 1) // height
	ihdr = append(ihdr, 8, 0, 0, 0, 0)
	buf := []byte("\x89PNG\r\n\x1a\n")
	buf = append(buf, rawChunk(13, "IHDR", ihdr, crc32.ChecksumIEEE(append([]byte("IHDR"), ihdr...)))...)
	buf = append(buf, rawChunk(0, "IEND", nil, crc32.ChecksumIEEE([]byte("IEND")))...)
	return buf
}

// encodedImage returns a real PNG produced by image/png.
func encodedImage(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 16), B: uint8(y * 16), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func types(p *PNG) []string {
	var resp []string
	for _, c := range p.Chunks() {
		resp = append(resp, c.Type().String())
	}
	return resp
}

func TestParseRoundTrip(t *testing.T) {
	cases := []struct {
		name  string
		input []byte
		types []string
	}{
		{name: "minimal", input: minimalPNG(), types: []string{"IHDR", "IEND"}},
		{name: "encoded", input: encodedImage(t)},
		{name: "signature only", input: []byte(signature)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := Parse(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.input, p.Bytes())
			if tc.types != nil {
				assert.Equal(t, tc.types, types(p))
			}
			var buf bytes.Buffer
			n, err := p.WriteTo(&buf)
			require.NoError(t, err)
			assert.Equal(t, int64(len(tc.input)), n)
			assert.Equal(t, tc.input, buf.Bytes())
		})
	}
}

func TestSerializeThenParse(t *testing.T) {
	p := NewPNG(
		NewChunk(IHDR, make([]byte, 13)),
		NewChunk(mustChunkType("ruSt"), []byte("one")),
		NewChunk(mustChunkType("ruSt"), []byte("two")),
		NewChunk(IEND, nil),
	)
	parsed, err := Parse(p.Bytes())
	require.NoError(t, err)
	require.Equal(t, p.Len(), parsed.Len())
	for i, c := range p.Chunks() {
		assert.True(t, c.Equal(parsed.Chunks()[i]), "chunk %d", i)
	}
	assert.Equal(t, p.Bytes(), parsed.Bytes())
}

func TestParseErrors(t *testing.T) {
	good := minimalPNG()
	badCRC := append([]byte(nil), good...)
	badCRC[len(good)-12-1] ^= 0x01 // last byte of the IHDR crc
	cases := []struct {
		name   string
		input  []byte
		want   error
		offset int64
	}{
		{name: "empty", input: nil, want: ErrSignatureMismatch, offset: -1},
		{name: "short signature", input: good[:5], want: ErrSignatureMismatch, offset: -1},
		{name: "wrong signature", input: append([]byte("GIF89a\x00\x00"), good[8:]...), want: ErrSignatureMismatch, offset: -1},
		{name: "cut header", input: good[:8+6], want: ErrTruncated, offset: 8},
		{name: "cut data", input: good[:8+8+5], want: ErrTruncated, offset: 8},
		{name: "cut crc", input: good[:len(good)-2], want: ErrTruncated, offset: 33},
		{name: "bad crc", input: badCRC, want: ErrCRCMismatch, offset: 8},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := Parse(tc.input)
			assert.Nil(t, p)
			require.ErrorIs(t, err, tc.want)
			var perr *ParseError
			if tc.offset < 0 {
				assert.False(t, errors.As(err, &perr))
				return
			}
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tc.offset, perr.Offset)
		})
	}
}

func TestAppendRemoveInverse(t *testing.T) {
	p, err := Parse(minimalPNG())
	require.NoError(t, err)
	before := p.Chunks()
	typ := mustChunkType("ruSt")
	added := NewChunk(typ, []byte("hidden"))
	p.AppendChunk(added)
	assert.Equal(t, []string{"IHDR", "IEND", "ruSt"}, types(p))
	removed, err := p.RemoveByType(typ)
	require.NoError(t, err)
	assert.True(t, added.Equal(removed))
	assert.Equal(t, before, p.Chunks())
	assert.Equal(t, minimalPNG(), p.Bytes())
}

func TestRemoveNotFound(t *testing.T) {
	p, err := Parse(minimalPNG())
	require.NoError(t, err)
	_, err = p.RemoveByType(mustChunkType("ruSt"))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, minimalPNG(), p.Bytes())
	_, err = p.RemoveAt(5)
	assert.ErrorIs(t, err, ErrNotFound)
	_, ok := p.ChunkByType(mustChunkType("ruSt"))
	assert.False(t, ok)
}

func TestRemoveOnlyFirstDuplicate(t *testing.T) {
	p, err := Parse(minimalPNG())
	require.NoError(t, err)
	typ := mustChunkType("ruSt")
	first := NewChunk(typ, []byte("first"))
	second := NewChunk(typ, []byte("second"))
	p.AppendChunk(first)
	p.AppendChunk(second)
	require.Len(t, p.ChunksByType(typ), 2)
	found, ok := p.ChunkByType(typ)
	require.True(t, ok)
	assert.True(t, first.Equal(found))

	removed, err := p.RemoveByType(typ)
	require.NoError(t, err)
	assert.True(t, first.Equal(removed))
	left := p.ChunksByType(typ)
	require.Len(t, left, 1)
	assert.True(t, second.Equal(left[0]))
	assert.Equal(t, []string{"IHDR", "IEND", "ruSt"}, types(p))
}

func TestInsertBeforeEnd(t *testing.T) {
	p, err := Parse(minimalPNG())
	require.NoError(t, err)
	p.InsertBeforeEnd(NewChunk(mustChunkType("ruSt"), []byte("x")))
	assert.Equal(t, []string{"IHDR", "ruSt", "IEND"}, types(p))

	bare := NewPNG(NewChunk(IHDR, nil))
	bare.InsertBeforeEnd(NewChunk(mustChunkType("ruSt"), nil))
	assert.Equal(t, []string{"IHDR", "ruSt"}, types(bare))
}

func TestEndToEndHello(t *testing.T) {
	p, err := Parse(minimalPNG())
	require.NoError(t, err)
	typ, err := ParseChunkType("ruSt")
	require.NoError(t, err)
	p.AppendChunk(NewChunk(typ, []byte("hello")))
	reparsed, err := Parse(p.Bytes())
	require.NoError(t, err)
	chunk, ok := reparsed.ChunkByType(typ)
	require.True(t, ok)
	text, err := chunk.DataString()
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
}

func TestEmbeddedImageStillDecodes(t *testing.T) {
	src := encodedImage(t)
	p, err := Parse(src)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		p.InsertBeforeEnd(NewChunk(mustChunkType("ruSt"), []byte(fmt.Sprintf("msg %d", i))))
	}
	p.AppendChunk(NewChunk(mustChunkType("ruSt"), []byte("after end")))
	want, err := png.Decode(bytes.NewReader(src))
	require.NoError(t, err)
	got, err := png.Decode(bytes.NewReader(p.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, want.Bounds(), got.Bounds())
	assert.Equal(t, want.At(3, 7), got.At(3, 7))
}

func TestReadWriteFile(t *testing.T) {
	dir := t.TempDir()
	fpath := filepath.Join(dir, "in.png")
	require.NoError(t, os.WriteFile(fpath, minimalPNG(), 0o644))
	p, err := ReadFile(fpath)
	require.NoError(t, err)
	p.AppendChunk(NewChunk(mustChunkType("ruSt"), []byte("saved")))
	out := filepath.Join(dir, "out.png")
	require.NoError(t, WriteFile(out, p, 0o644))
	again, err := ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, p.Bytes(), again.Bytes())

	require.NoError(t, os.WriteFile(fpath, []byte("not a png"), 0o644))
	_, err = ReadFile(fpath)
	assert.ErrorIs(t, err, ErrSignatureMismatch)
}
