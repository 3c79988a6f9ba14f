package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"pngme/config"
	"pngme/stash"
	"pngme/storage"

	"github.com/alecthomas/kong"
)

var (
	cfg      *config.Config
	logger   *slog.Logger
	logLevel = new(slog.LevelVar)
)

type CLI struct {
	Config string `help:"Path to the config file." default:"config.toml" type:"path"`
	Debug  bool   `help:"Log debug messages."`

	Encode  EncodeCmd  `cmd:"" help:"Hide a message in a PNG file."`
	Decode  DecodeCmd  `cmd:"" help:"Print the message stored in a chunk."`
	Remove  RemoveCmd  `cmd:"" help:"Remove the first chunk of a type."`
	Print   PrintCmd   `cmd:"" help:"List every chunk of a PNG file."`
	History HistoryCmd `cmd:"" help:"Show recorded encode and remove operations."`
	Serve   ServeCmd   `cmd:"" help:"Serve the operations over HTTP."`
	Browse  BrowseCmd  `cmd:"" help:"Browse and edit chunks interactively."`
}

// deps is what every command receives from kong.
type deps struct {
	stash  *stash.Stash
	store  storage.Ledger
	out    io.Writer
	closer func()
}

func newParser(cli *CLI, options ...kong.Option) (*kong.Kong, error) {
	options = append([]kong.Option{
		kong.Name("pngme"),
		kong.Description("Hide, find and remove messages in PNG chunks."),
		kong.UsageOnError(),
	}, options...)
	return kong.New(cli, options...)
}

// setup loads the config and builds the logger and ledger. The ledger is
// optional: when it cannot be opened the tool keeps working without it.
func setup(configPath string, debug bool) (*deps, error) {
	var err error
	cfg, err = config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	logLevel.Set(cfg.Level())
	if debug {
		logLevel.Set(slog.LevelDebug)
	}
	var logfile io.Writer = os.Stderr
	closers := []func(){}
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", cfg.LogFile, err)
		}
		logfile = f
		closers = append(closers, func() { f.Close() })
	}
	logger = slog.New(slog.NewTextHandler(logfile, &slog.HandlerOptions{Level: logLevel}))
	d := &deps{out: stdout}
	if cfg.LedgerEnabled {
		provider, err := storage.NewProviderSQL(cfg.DBPATH, logger)
		if err != nil {
			logger.Warn("ledger unavailable, operations will not be recorded", "path", cfg.DBPATH, "error", err)
		} else {
			d.store = provider
			closers = append(closers, func() { provider.Close() })
		}
	}
	d.stash = stash.New(logger, d.store, cfg)
	d.closer = func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	return d, nil
}

func main() {
	cli := CLI{}
	parser, err := newParser(&cli)
	if err != nil {
		panic(err)
	}
	kctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)
	d, err := setup(cli.Config, cli.Debug)
	parser.FatalIfErrorf(err)
	err = kctx.Run(d)
	d.closer()
	parser.FatalIfErrorf(err)
}
