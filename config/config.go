package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"code.cloudfoundry.org/bytefmt"
	"github.com/BurntSushi/toml"
)

type Config struct {
	LogFile  string `toml:"LogFile"`  // empty means stderr
	LogLevel string `toml:"LogLevel"` // debug, info, warn, error
	// ledger of encode/remove operations
	LedgerEnabled bool   `toml:"LedgerEnabled"`
	DBPATH        string `toml:"DBPATH"`
	// payload limits, human readable ("64KB", "1MB")
	MaxPayload       string `toml:"MaxPayload"`
	MaxPayloadBytes  uint64 `toml:"-"`
	DefaultChunkType string `toml:"DefaultChunkType"`
	// write a .bak copy before overwriting a file in place
	BackupOnWrite bool `toml:"BackupOnWrite"`
	// http api
	ServerAddr string `toml:"ServerAddr"`
	// browse
	ColorScheme string `toml:"ColorScheme"`
}

func Default() *Config {
	return &Config{
		LogLevel:         "info",
		LedgerEnabled:    true,
		DBPATH:           "pngme.db",
		MaxPayload:       "1MB",
		MaxPayloadBytes:  1 << 20,
		DefaultChunkType: "ruSt",
		ServerAddr:       "localhost:3333",
		ColorScheme:      "default",
	}
}

// LoadConfig reads fn over the defaults. A missing file is not an error,
// the defaults are returned as is.
func LoadConfig(fn string) (*Config, error) {
	if fn == "" {
		fn = "config.toml"
	}
	config := Default()
	_, err := toml.DecodeFile(fn, config)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config %s: %w", fn, err)
	}
	// if any value is empty fill with default
	def := Default()
	if config.LogLevel == "" {
		config.LogLevel = def.LogLevel
	}
	if config.DBPATH == "" {
		config.DBPATH = def.DBPATH
	}
	if config.MaxPayload == "" {
		config.MaxPayload = def.MaxPayload
	}
	if config.DefaultChunkType == "" {
		config.DefaultChunkType = def.DefaultChunkType
	}
	if config.ServerAddr == "" {
		config.ServerAddr = def.ServerAddr
	}
	if config.ColorScheme == "" {
		config.ColorScheme = def.ColorScheme
	}
	size, err := bytefmt.ToBytes(config.MaxPayload)
	if err != nil {
		return nil, fmt.Errorf("config %s: MaxPayload %q: %w", fn, config.MaxPayload, err)
	}
	config.MaxPayloadBytes = size
	return config, nil
}

// Level maps LogLevel to a slog level, info when unknown.
func (c *Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
