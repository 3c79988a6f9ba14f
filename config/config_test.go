package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadConfig(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "config.toml")
	content := `
LogLevel = "debug"
LedgerEnabled = false
MaxPayload = "64K"
DefaultChunkType = "meSs"
BackupOnWrite = true
`
	require.NoError(t, os.WriteFile(fn, []byte(content), 0o644))
	cfg, err := LoadConfig(fn)
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, cfg.Level())
	assert.False(t, cfg.LedgerEnabled)
	assert.Equal(t, uint64(64*1024), cfg.MaxPayloadBytes)
	assert.Equal(t, "meSs", cfg.DefaultChunkType)
	assert.True(t, cfg.BackupOnWrite)
	// untouched fields keep defaults
	assert.Equal(t, "pngme.db", cfg.DBPATH)
	assert.Equal(t, "localhost:3333", cfg.ServerAddr)
}

func TestLoadConfigErrors(t *testing.T) {
	cases := map[string]string{
		"bad toml":    `LogLevel = `,
		"bad payload": `MaxPayload = "lots"`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			fn := filepath.Join(t.TempDir(), "config.toml")
			require.NoError(t, os.WriteFile(fn, []byte(content), 0o644))
			_, err := LoadConfig(fn)
			assert.Error(t, err)
		})
	}
}

func TestLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"debug": slog.LevelDebug, "INFO": slog.LevelInfo, "warn": slog.LevelWarn,
		"error": slog.LevelError, "": slog.LevelInfo, "chatty": slog.LevelInfo,
	} {
		assert.Equal(t, want, (&Config{LogLevel: in}).Level(), in)
	}
}
