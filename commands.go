package main

import (
	"fmt"
	"io"
	"os"
	"pngme/models"
	"pngme/stash"
	"strings"
	"unicode"

	"code.cloudfoundry.org/bytefmt"
	"github.com/gookit/color"
)

var stdout io.Writer = os.Stdout

type EncodeCmd struct {
	FilePath   string `short:"f" required:"" type:"existingfile" help:"PNG file to hide the message in."`
	ChunkType  string `short:"c" help:"4 letter chunk type code, the configured default when empty."`
	Message    string `short:"m" required:"" help:"Message to hide."`
	OutputFile string `short:"o" type:"path" help:"Write here instead of overwriting the source."`
	Keyword    string `short:"k" help:"Store as a standard tEXt chunk under this keyword."`
	BeforeEnd  bool   `help:"Insert the chunk before IEND instead of appending it."`
}

func (c *EncodeCmd) Run(d *deps) error {
	chunk, err := d.stash.Encode(stash.EncodeReq{
		Path:      c.FilePath,
		ChunkType: c.ChunkType,
		Message:   c.Message,
		Output:    c.OutputFile,
		Keyword:   c.Keyword,
		BeforeEnd: c.BeforeEnd,
	})
	if err != nil {
		return err
	}
	dst := c.OutputFile
	if dst == "" {
		dst = c.FilePath
	}
	color.Fprintf(d.out, "<green>encoded</> %s chunk (%s) into %s\n",
		chunk.Type(), bytefmt.ByteSize(uint64(chunk.Length())), dst)
	return nil
}

type DecodeCmd struct {
	FilePath  string `short:"f" required:"" type:"existingfile" help:"PNG file holding the message."`
	ChunkType string `short:"c" help:"Chunk type that holds the message."`
	Keyword   string `short:"k" help:"Read a tEXt entry with this keyword instead."`
	HTML      bool   `help:"Render the message as markdown to HTML."`
}

func (c *DecodeCmd) Run(d *deps) error {
	msg, err := d.stash.Decode(stash.DecodeReq{Path: c.FilePath, ChunkType: c.ChunkType, Keyword: c.Keyword})
	if err != nil {
		return err
	}
	if c.HTML {
		msg, err = renderMarkdown(msg)
		if err != nil {
			return err
		}
	}
	fmt.Fprintln(d.out, msg)
	return nil
}

type RemoveCmd struct {
	FilePath   string `short:"f" required:"" type:"existingfile" help:"PNG file to edit."`
	ChunkType  string `short:"c" required:"" help:"Chunk type to remove; only the first match goes."`
	OutputFile string `short:"o" type:"path" help:"Write here instead of overwriting the source."`
	Force      bool   `help:"Allow removing critical chunks such as IDAT."`
}

func (c *RemoveCmd) Run(d *deps) error {
	chunk, err := d.stash.Remove(stash.RemoveReq{
		Path:      c.FilePath,
		ChunkType: c.ChunkType,
		Output:    c.OutputFile,
		Force:     c.Force,
	})
	if err != nil {
		return err
	}
	color.Fprintf(d.out, "<yellow>removed</> %s\n", chunk)
	return nil
}

type PrintCmd struct {
	FilePath string `short:"f" required:"" type:"existingfile" help:"PNG file to list."`
	TextOnly bool   `help:"Only show chunks whose payload is UTF-8 text."`
}

func (c *PrintCmd) Run(d *deps) error {
	entries, err := d.stash.Print(c.FilePath, stash.PrintOpts{TextOnly: c.TextOnly})
	if err != nil {
		return err
	}
	for _, e := range entries {
		printEntry(d.out, e)
	}
	return nil
}

type HistoryCmd struct {
	FilePath string `short:"f" help:"Only show operations on this file."`
}

func (c *HistoryCmd) Run(d *deps) error {
	records, err := d.stash.History(c.FilePath)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(d.out, "no recorded operations")
		return nil
	}
	for _, r := range records {
		op := "<green>" + string(r.Op) + "</>"
		if r.Op == models.OpRemove {
			op = "<yellow>" + string(r.Op) + "</>"
		}
		color.Fprintf(d.out, "%s %-6s %s %-6s crc=%08x %s\n",
			r.CreatedAt.Local().Format("2006-01-02 15:04:05"), op, r.ChunkType,
			bytefmt.ByteSize(uint64(r.Size)), r.CRC, r.File)
	}
	return nil
}

const previewLen = 60

func printEntry(w io.Writer, e models.Entry) {
	typ := "<cyan>" + e.ChunkType + "</>"
	if e.Critical {
		typ = "<red>" + e.ChunkType + "</>"
	}
	color.Fprintf(w, "%3d %s %s %6s crc=%08x %s\n",
		e.Index, typ, e.Flags, bytefmt.ByteSize(uint64(e.Length)), e.CRC, preview(e))
}

func preview(e models.Entry) string {
	if e.Binary {
		return "<gray>[binary]</>"
	}
	// keep payload text from being read as colour tags
	return color.ClearTag(clip(e.Text))
}

// clip replaces unprintable runes and cuts text to previewLen runes.
func clip(text string) string {
	text = strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) {
			return r
		}
		return '.'
	}, text)
	if len([]rune(text)) > previewLen {
		text = string([]rune(text)[:previewLen]) + "..."
	}
	return text
}
