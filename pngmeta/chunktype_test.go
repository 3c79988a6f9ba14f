package pngmeta

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkTypeFlags(t *testing.T) {
	cases := []struct {
		code             string
		critical         bool
		public           bool
		reservedBitValid bool
		safeToCopy       bool
	}{
		{code: "RuSt", critical: true, public: false, reservedBitValid: true, safeToCopy: true},
		{code: "ruSt", critical: false, public: false, reservedBitValid: true, safeToCopy: true},
		{code: "RUSt", critical: true, public: true, reservedBitValid: true, safeToCopy: true},
		{code: "Rust", critical: true, public: false, reservedBitValid: false, safeToCopy: true},
		{code: "RuST", critical: true, public: false, reservedBitValid: true, safeToCopy: false},
		{code: "IHDR", critical: true, public: true, reservedBitValid: true, safeToCopy: false},
		{code: "tEXt", critical: false, public: true, reservedBitValid: true, safeToCopy: true},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			ct, err := ParseChunkType(tc.code)
			require.NoError(t, err)
			assert.Equal(t, tc.critical, ct.IsCritical(), "critical")
			assert.Equal(t, tc.public, ct.IsPublic(), "public")
			assert.Equal(t, tc.reservedBitValid, ct.IsReservedBitValid(), "reserved bit")
			assert.Equal(t, tc.safeToCopy, ct.IsSafeToCopy(), "safe to copy")
			assert.Equal(t, tc.reservedBitValid, ct.IsValid(), "valid follows the reserved bit")
			assert.Equal(t, tc.code, ct.String())
		})
	}
}

func TestChunkTypeInvalid(t *testing.T) {
	for _, code := range []string{"Ru1t", "", "abc", "abcde", "ab d", "ab\x00d", "RuSté"} {
		t.Run(code, func(t *testing.T) {
			_, err := ParseChunkType(code)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidTypeBytes), "got %v", err)
		})
	}
	_, err := ChunkTypeFromBytes([4]byte{82, 117, 0x80, 116})
	assert.ErrorIs(t, err, ErrInvalidTypeBytes)
}

func TestChunkTypeFromBytesMatchesString(t *testing.T) {
	fromBytes, err := ChunkTypeFromBytes([4]byte{82, 117, 83, 116})
	require.NoError(t, err)
	fromString, err := ParseChunkType("RuSt")
	require.NoError(t, err)
	assert.True(t, fromBytes == fromString)
	assert.Equal(t, [4]byte{82, 117, 83, 116}, fromString.Bytes())
	other, err := ParseChunkType("RuST")
	require.NoError(t, err)
	assert.False(t, fromBytes == other)
}

func TestChunkTypeFlagMask(t *testing.T) {
	assert.Equal(t, "C-RS", mustChunkType("RuSt").Flags())
	assert.Equal(t, "CPR-", IHDR.Flags())
	assert.Equal(t, "-PRS", TEXT.Flags())
}
