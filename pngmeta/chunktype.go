package pngmeta

import "fmt"

// ChunkType is a four letter PNG chunk type code. The case of each letter
// carries one property bit, see https://www.w3.org/TR/png/#5Chunk-naming-conventions
// The flags are derived once, when the value is built.
type ChunkType struct {
	code [4]byte

	critical         bool
	public           bool
	reservedBitValid bool
	safeToCopy       bool
}

var (
	IHDR = mustChunkType("IHDR")
	IDAT = mustChunkType("IDAT")
	IEND = mustChunkType("IEND")
	TEXT = mustChunkType("tEXt")
)

// ParseChunkType builds a chunk type from its 4 letter string form.
func ParseChunkType(s string) (ChunkType, error) {
	return ChunkTypeFromSlice([]byte(s))
}

// ChunkTypeFromSlice accepts any byte slice and fails unless it holds
// exactly four ASCII letters.
func ChunkTypeFromSlice(b []byte) (ChunkType, error) {
	if len(b) != 4 {
		return ChunkType{}, fmt.Errorf("%w: want 4 bytes, got %d", ErrInvalidTypeBytes, len(b))
	}
	return ChunkTypeFromBytes([4]byte(b))
}

func ChunkTypeFromBytes(b [4]byte) (ChunkType, error) {
	for i, c := range b {
		if !isASCIILetter(c) {
			return ChunkType{}, fmt.Errorf("%w: byte %d is 0x%02x", ErrInvalidTypeBytes, i, c)
		}
	}
	return deriveChunkType(b), nil
}

// deriveChunkType is the only place the property bits are read.
func deriveChunkType(b [4]byte) ChunkType {
	return ChunkType{
		code:             b,
		critical:         isASCIIUpper(b[0]),
		public:           isASCIIUpper(b[1]),
		reservedBitValid: isASCIIUpper(b[2]),
		safeToCopy:       !isASCIIUpper(b[3]),
	}
}

func mustChunkType(s string) ChunkType {
	ct, err := ParseChunkType(s)
	if err != nil {
		panic(err)
	}
	return ct
}

func (ct ChunkType) Bytes() [4]byte {
	return ct.code
}

func (ct ChunkType) String() string {
	return string(ct.code[:])
}

// IsCritical reports whether a decoder must understand the chunk to
// display the image.
func (ct ChunkType) IsCritical() bool {
	return ct.critical
}

func (ct ChunkType) IsPublic() bool {
	return ct.public
}

func (ct ChunkType) IsReservedBitValid() bool {
	return ct.reservedBitValid
}

// IsSafeToCopy reports whether editors that do not recognise the chunk may
// copy it into a modified file.
func (ct ChunkType) IsSafeToCopy() bool {
	return ct.safeToCopy
}

// IsValid is true for the codes this version of PNG allows, that is when
// the reserved bit is unset.
func (ct ChunkType) IsValid() bool {
	return ct.reservedBitValid
}

// Flags renders the property bits as a compact 4 letter mask,
// e.g. "C-R-" for critical, private, reserved ok, unsafe to copy.
func (ct ChunkType) Flags() string {
	mask := []byte("----")
	if ct.critical {
		mask[0] = 'C'
	}
	if ct.public {
		mask[1] = 'P'
	}
	if ct.reservedBitValid {
		mask[2] = 'R'
	}
	if ct.safeToCopy {
		mask[3] = 'S'
	}
	return string(mask)
}

func isASCIILetter(c byte) bool {
	return ('A' <= c && c <= 'Z') || ('a' <= c && c <= 'z')
}

func isASCIIUpper(c byte) bool {
	return 'A' <= c && c <= 'Z'
}
