package main

import (
	"fmt"
	"pngme/models"
	"strconv"

	"code.cloudfoundry.org/bytefmt"
	"github.com/rivo/tview"
)

var chunkTableHeader = []string{"#", "type", "flags", "size", "crc", "preview"}

func makeChunkTable() *tview.Table {
	chunkTable := tview.NewTable().
		SetBorders(false).
		SetSelectable(true, false).
		SetFixed(1, 0)
	chunkTable.SetBorder(true).SetTitle("chunks")
	return chunkTable
}

// fillChunkTable redraws the table from entries; row 0 is the header so
// entry i lives on row i+1.
func fillChunkTable(chunkTable *tview.Table, entries []models.Entry, pal palette) {
	chunkTable.Clear()
	for c, title := range chunkTableHeader {
		chunkTable.SetCell(0, c,
			tview.NewTableCell(title).
				SetTextColor(pal.header).
				SetSelectable(false).
				SetAlign(tview.AlignLeft))
	}
	for i, e := range entries {
		r := i + 1
		typeColor := pal.ancillary
		if e.Critical {
			typeColor = pal.critical
		}
		text, textColor := tview.Escape(clip(e.Text)), pal.text
		if e.Binary {
			text, textColor = tview.Escape("[binary]"), pal.binary
		}
		cells := []*tview.TableCell{
			tview.NewTableCell(strconv.Itoa(e.Index)).SetAlign(tview.AlignRight),
			tview.NewTableCell(e.ChunkType).SetTextColor(typeColor),
			tview.NewTableCell(e.Flags),
			tview.NewTableCell(bytefmt.ByteSize(uint64(e.Length))).SetAlign(tview.AlignRight),
			tview.NewTableCell(fmt.Sprintf("%08x", e.CRC)),
			tview.NewTableCell(text).SetTextColor(textColor).SetExpansion(1),
		}
		for c, cell := range cells {
			chunkTable.SetCell(r, c, cell)
		}
	}
}
