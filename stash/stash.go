package stash

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"pngme/config"
	"pngme/models"
	"pngme/pngmeta"
	"pngme/storage"
	"strings"
	"unicode/utf8"

	"code.cloudfoundry.org/bytefmt"
)

var (
	ErrCriticalChunk   = errors.New("refusing to remove a critical chunk")
	ErrPayloadTooLarge = errors.New("payload too large")
	ErrNoLedger        = errors.New("ledger disabled")
)

// Stash hides messages in PNG files and gets them back. The ledger is
// optional; when nil nothing is recorded.
type Stash struct {
	logger *slog.Logger
	store  storage.Ledger
	cfg    *config.Config
}

func New(logger *slog.Logger, store storage.Ledger, cfg *config.Config) *Stash {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Stash{logger: logger, store: store, cfg: cfg}
}

type EncodeReq struct {
	Path      string
	ChunkType string // falls back to the configured default
	Message   string
	Output    string // empty means overwrite Path
	// Keyword switches to a standard tEXt chunk: keyword\0message
	Keyword string
	// BeforeEnd inserts the chunk ahead of IEND instead of appending
	BeforeEnd bool
}

type DecodeReq struct {
	Path      string
	ChunkType string
	Keyword   string // look up a tEXt entry instead of a raw chunk
}

type RemoveReq struct {
	Path      string
	ChunkType string
	Output    string
	Force     bool // allow removing critical chunks
}

type PrintOpts struct {
	// TextOnly drops chunks whose payload is not UTF-8 instead of listing
	// them as binary.
	TextOnly bool
}

func (s *Stash) Encode(req EncodeReq) (pngmeta.Chunk, error) {
	src, err := os.ReadFile(req.Path)
	if err != nil {
		return pngmeta.Chunk{}, err
	}
	out, chunk, err := s.EncodeBytes(src, req)
	if err != nil {
		return pngmeta.Chunk{}, fmt.Errorf("%s: %w", req.Path, err)
	}
	dst := req.Output
	if dst == "" {
		dst = req.Path
	}
	if err := s.writeFile(dst, out); err != nil {
		return pngmeta.Chunk{}, err
	}
	s.logger.Info("message encoded", "file", dst, "type", chunk.Type().String(),
		"size", bytefmt.ByteSize(uint64(chunk.Length())))
	s.record(dst, models.OpEncode, chunk)
	return chunk, nil
}

// EncodeBytes adds the message chunk to the PNG in src and returns the new file.
func (s *Stash) EncodeBytes(src []byte, req EncodeReq) ([]byte, pngmeta.Chunk, error) {
	chunk, err := s.NewChunk(req)
	if err != nil {
		return nil, pngmeta.Chunk{}, err
	}
	png, err := pngmeta.Parse(src)
	if err != nil {
		return nil, pngmeta.Chunk{}, err
	}
	if req.BeforeEnd {
		png.InsertBeforeEnd(chunk)
	} else {
		png.AppendChunk(chunk)
	}
	return png.Bytes(), chunk, nil
}

// NewChunk builds the chunk Encode would add, checking the payload limit.
// Path, Output and BeforeEnd are ignored.
func (s *Stash) NewChunk(req EncodeReq) (pngmeta.Chunk, error) {
	if limit := s.cfg.MaxPayloadBytes; limit > 0 && uint64(len(req.Message)) > limit {
		return pngmeta.Chunk{}, fmt.Errorf("%w: %s over %s", ErrPayloadTooLarge,
			bytefmt.ByteSize(uint64(len(req.Message))), bytefmt.ByteSize(limit))
	}
	if req.Keyword != "" {
		return pngmeta.NewTextChunk(req.Keyword, req.Message)
	}
	typ, err := s.chunkType(req.ChunkType)
	if err != nil {
		return pngmeta.Chunk{}, err
	}
	if !typ.IsValid() {
		s.logger.Warn("chunk type has the reserved bit set", "type", typ.String())
	}
	return pngmeta.NewChunk(typ, []byte(req.Message)), nil
}

func (s *Stash) chunkType(code string) (pngmeta.ChunkType, error) {
	if code == "" {
		code = s.cfg.DefaultChunkType
	}
	return pngmeta.ParseChunkType(code)
}

func (s *Stash) Decode(req DecodeReq) (string, error) {
	src, err := os.ReadFile(req.Path)
	if err != nil {
		return "", err
	}
	msg, err := s.DecodeBytes(src, req)
	if err != nil {
		return "", fmt.Errorf("%s: %w", req.Path, err)
	}
	return msg, nil
}

// DecodeBytes returns the text of the first chunk of the requested type.
func (s *Stash) DecodeBytes(src []byte, req DecodeReq) (string, error) {
	png, err := pngmeta.Parse(src)
	if err != nil {
		return "", err
	}
	if req.Keyword != "" {
		entry, err := png.TextEntry(req.Keyword)
		if err != nil {
			return "", err
		}
		return entry.Text, nil
	}
	typ, err := s.chunkType(req.ChunkType)
	if err != nil {
		return "", err
	}
	chunk, ok := png.ChunkByType(typ)
	if !ok {
		return "", fmt.Errorf("%w: %s", pngmeta.ErrNotFound, typ)
	}
	return chunk.DataString()
}

func (s *Stash) Remove(req RemoveReq) (pngmeta.Chunk, error) {
	src, err := os.ReadFile(req.Path)
	if err != nil {
		return pngmeta.Chunk{}, err
	}
	out, chunk, err := s.RemoveBytes(src, req)
	if err != nil {
		return pngmeta.Chunk{}, fmt.Errorf("%s: %w", req.Path, err)
	}
	dst := req.Output
	if dst == "" {
		dst = req.Path
	}
	if err := s.writeFile(dst, out); err != nil {
		return pngmeta.Chunk{}, err
	}
	s.logger.Info("chunk removed", "file", dst, "type", chunk.Type().String())
	s.record(dst, models.OpRemove, chunk)
	return chunk, nil
}

// Guarded reports whether removing typ would leave an image decoders
// reject. Only public critical types count, so private codes like RuSt
// stay removable.
func Guarded(typ pngmeta.ChunkType) bool {
	return typ.IsCritical() && typ.IsPublic()
}

// RemoveBytes drops the first chunk of the requested type.
func (s *Stash) RemoveBytes(src []byte, req RemoveReq) ([]byte, pngmeta.Chunk, error) {
	typ, err := s.chunkType(req.ChunkType)
	if err != nil {
		return nil, pngmeta.Chunk{}, err
	}
	if Guarded(typ) && !req.Force {
		return nil, pngmeta.Chunk{}, fmt.Errorf("%w: %s", ErrCriticalChunk, typ)
	}
	png, err := pngmeta.Parse(src)
	if err != nil {
		return nil, pngmeta.Chunk{}, err
	}
	chunk, err := png.RemoveByType(typ)
	if err != nil {
		return nil, pngmeta.Chunk{}, err
	}
	return png.Bytes(), chunk, nil
}

// Edit is one pending change made to an image held in memory.
type Edit struct {
	Op    models.Op
	Chunk pngmeta.Chunk
}

// Commit writes an edited image back to path and records edits in order.
func (s *Stash) Commit(path string, png *pngmeta.PNG, edits []Edit) error {
	if err := s.writeFile(path, png.Bytes()); err != nil {
		return err
	}
	for _, e := range edits {
		s.record(path, e.Op, e.Chunk)
	}
	s.logger.Info("image saved", "file", path, "chunks", png.Len(), "edits", len(edits))
	return nil
}

func (s *Stash) Print(path string, opts PrintOpts) ([]models.Entry, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	entries, err := s.PrintBytes(src, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return entries, nil
}

// PrintBytes lists every chunk with its flags and, when the payload is
// UTF-8, its text.
func (s *Stash) PrintBytes(src []byte, opts PrintOpts) ([]models.Entry, error) {
	png, err := pngmeta.Parse(src)
	if err != nil {
		return nil, err
	}
	return Entries(png, opts), nil
}

// Entries describes the chunks of png in file order.
func Entries(png *pngmeta.PNG, opts PrintOpts) []models.Entry {
	resp := []models.Entry{}
	offset := int64(len(pngmeta.Signature()))
	for i, c := range png.Chunks() {
		entry := models.Entry{
			Index:     i,
			Offset:    offset,
			ChunkType: c.Type().String(),
			Flags:     c.Type().Flags(),
			Critical:  c.Type().IsCritical(),
			Length:    c.Length(),
			CRC:       c.CRC(),
		}
		offset += int64(c.Size())
		if utf8.Valid(c.Data()) {
			entry.Text = string(c.Data())
		} else {
			if opts.TextOnly {
				continue
			}
			entry.Binary = true
		}
		resp = append(resp, entry)
	}
	return resp
}

func (s *Stash) History(path string) ([]models.Record, error) {
	if s.store == nil {
		return nil, ErrNoLedger
	}
	if path == "" {
		return s.store.ListAllRecords()
	}
	if !strings.HasPrefix(path, UploadPrefix) {
		path = absPath(path)
	}
	return s.store.ListRecords(path)
}

// UploadPrefix marks ledger entries for images edited in memory, such as
// HTTP uploads, that have no path on disk.
const UploadPrefix = "upload:"

// RecordUpload logs an edit made through the byte level operations under
// UploadPrefix+name.
func (s *Stash) RecordUpload(name string, op models.Op, chunk pngmeta.Chunk) {
	s.addRecord(UploadPrefix+name, op, chunk)
}

func (s *Stash) record(file string, op models.Op, chunk pngmeta.Chunk) {
	s.addRecord(absPath(file), op, chunk)
}

func (s *Stash) addRecord(file string, op models.Op, chunk pngmeta.Chunk) {
	if s.store == nil {
		return
	}
	rec := models.NewRecord(file, op, chunk.Type().String(), chunk.Length(), chunk.CRC())
	if _, err := s.store.AddRecord(rec); err != nil {
		s.logger.Warn("failed to write ledger record", "file", file, "error", err)
	}
}

// writeFile replaces fname through a temp file and rename so a failed
// write never leaves a half written image behind.
func (s *Stash) writeFile(fname string, data []byte) error {
	perm := os.FileMode(0o644)
	if info, err := os.Stat(fname); err == nil {
		perm = info.Mode().Perm()
		if s.cfg.BackupOnWrite {
			if err := copyFile(fname, fname+".bak", perm); err != nil {
				return fmt.Errorf("backup %s: %w", fname, err)
			}
			s.logger.Debug("backup written", "file", fname+".bak")
		}
	}
	tmp, err := os.CreateTemp(filepath.Dir(fname), "."+filepath.Base(fname)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), fname)
}

func copyFile(src, dst string, perm os.FileMode) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, perm)
}

func absPath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	return abs
}
