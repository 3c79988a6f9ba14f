package models

import (
	"time"

	"github.com/google/uuid"
)

// Record is one ledger row: a chunk added to or removed from a file.
type Record struct {
	ID        string    `db:"id" json:"id"`
	File      string    `db:"file" json:"file"`
	Op        Op        `db:"op" json:"op"`
	ChunkType string    `db:"chunk_type" json:"chunk_type"`
	Size      uint32    `db:"size" json:"size"`
	CRC       uint32    `db:"crc" json:"crc"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

func NewRecord(file string, op Op, chunkType string, size, crc uint32) *Record {
	return &Record{
		ID:        uuid.NewString(),
		File:      file,
		Op:        op,
		ChunkType: chunkType,
		Size:      size,
		CRC:       crc,
		CreatedAt: time.Now().UTC(),
	}
}
