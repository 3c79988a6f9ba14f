package models

type Op string

const (
	OpEncode Op = "encode"
	OpRemove Op = "remove"
)

// Entry describes one chunk of a file for listings.
type Entry struct {
	Index     int    `json:"index"`
	Offset    int64  `json:"offset"`
	ChunkType string `json:"chunk_type"`
	Flags     string `json:"flags"`
	Critical  bool   `json:"critical"`
	Length    uint32 `json:"length"`
	CRC       uint32 `json:"crc"`
	Text      string `json:"text,omitempty"`
	Binary    bool   `json:"binary"`
}
