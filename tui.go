package main

import (
	"encoding/hex"
	"fmt"
	"pngme/models"
	"pngme/pngmeta"
	"pngme/stash"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

const (
	chunkPage = "chunk"
	quitPage  = "quit"
	addPage   = "add"
	helpText  = `[yellow]Enter[white]: show payload  [yellow]a[white]: add chunk  [yellow]d[white]: remove chunk  [yellow]w[white]: write file  [yellow]q/Esc[white]: quit`
)

type BrowseCmd struct {
	FilePath string `short:"f" required:"" type:"existingfile" help:"PNG file to browse."`
}

func (c *BrowseCmd) Run(d *deps) error {
	b, err := newBrowser(d.stash, c.FilePath, cfg.ColorScheme)
	if err != nil {
		return err
	}
	return b.app.SetRoot(b.pages, true).Run()
}

// browser holds one image in memory; edits stay pending until written.
type browser struct {
	stash      *stash.Stash
	path       string
	png        *pngmeta.PNG
	edits      []stash.Edit
	app        *tview.Application
	pages      *tview.Pages
	chunkTable *tview.Table
	position   *tview.TextView
	pal        palette
}

func newBrowser(st *stash.Stash, path, scheme string) (*browser, error) {
	png, err := pngmeta.ReadFile(path)
	if err != nil {
		return nil, err
	}
	pal := lookupPalette(scheme)
	tview.Styles = pal.theme()
	b := &browser{
		stash:      st,
		path:       path,
		png:        png,
		app:        tview.NewApplication(),
		pages:      tview.NewPages(),
		chunkTable: makeChunkTable(),
		pal:        pal,
	}
	b.position = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	helpView := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter).
		SetText(helpText)
	flex := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(b.chunkTable, 0, 1, true).
		AddItem(b.position, 1, 0, false).
		AddItem(helpView, 1, 0, false)
	b.pages.AddPage("main", flex, true, true)
	b.chunkTable.SetSelectedFunc(func(row, column int) {
		b.showChunk(row - 1)
	})
	b.chunkTable.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEsc {
			b.quit()
			return nil
		}
		switch event.Rune() {
		case 'a':
			b.showAddForm()
			return nil
		case 'd':
			row, _ := b.chunkTable.GetSelection()
			b.removeAt(row - 1)
			return nil
		case 'w':
			b.save()
			return nil
		case 'q':
			b.quit()
			return nil
		}
		return event
	})
	b.refresh()
	b.chunkTable.Select(1, 0)
	return b, nil
}

func (b *browser) dirty() bool {
	return len(b.edits) > 0
}

func (b *browser) refresh() {
	fillChunkTable(b.chunkTable, stash.Entries(b.png, stash.PrintOpts{}), b.pal)
	state := "[green]saved[white]"
	if b.dirty() {
		state = fmt.Sprintf("[red]%d unsaved edit(s)[white]", len(b.edits))
	}
	b.setStatus(fmt.Sprintf("%s: %d chunks, %s", tview.Escape(b.path), b.png.Len(), state))
}

func (b *browser) setStatus(text string) {
	b.position.SetText(text)
}

// removeAt drops chunk i unless the image needs it to decode.
func (b *browser) removeAt(i int) {
	chunks := b.png.Chunks()
	if i < 0 || i >= len(chunks) {
		return
	}
	if stash.Guarded(chunks[i].Type()) {
		b.setStatus(fmt.Sprintf("[red]refusing to remove critical chunk %s[white]", chunks[i].Type()))
		return
	}
	chunk, err := b.png.RemoveAt(i)
	if err != nil {
		logger.Error("failed to remove chunk", "index", i, "error", err)
		b.setStatus("[red]" + tview.Escape(err.Error()) + "[white]")
		return
	}
	b.edits = append(b.edits, stash.Edit{Op: models.OpRemove, Chunk: chunk})
	b.refresh()
	row := i + 1
	if row > b.png.Len() {
		row = b.png.Len()
	}
	b.chunkTable.Select(row, 0)
}

func (b *browser) save() bool {
	if err := b.stash.Commit(b.path, b.png, b.edits); err != nil {
		logger.Error("failed to save image", "file", b.path, "error", err)
		b.setStatus("[red]" + tview.Escape(err.Error()) + "[white]")
		return false
	}
	b.edits = nil
	b.refresh()
	return true
}

func (b *browser) showChunk(i int) {
	chunks := b.png.Chunks()
	if i < 0 || i >= len(chunks) {
		return
	}
	chunk := chunks[i]
	text, err := chunk.DataString()
	if err != nil {
		text = hex.Dump(chunk.Data())
	}
	payloadView := tview.NewTextView().
		SetScrollable(true).
		SetWrap(true).
		SetText(text)
	payloadView.SetBorder(true).SetTitle(chunk.String())
	payloadView.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEsc || event.Key() == tcell.KeyEnter || event.Rune() == 'q' {
			b.pages.RemovePage(chunkPage)
			return nil
		}
		return event
	})
	b.pages.AddPage(chunkPage, payloadView, true, true)
}

func (b *browser) quit() {
	if !b.dirty() {
		b.app.Stop()
		return
	}
	quitModal := tview.NewModal().
		SetText(fmt.Sprintf("%d edit(s) not written to %s", len(b.edits), b.path)).
		AddButtons([]string{"write and quit", "discard", "cancel"}).
		SetDoneFunc(func(buttonIndex int, buttonLabel string) {
			b.pages.RemovePage(quitPage)
			switch buttonLabel {
			case "write and quit":
				if b.save() {
					b.app.Stop()
				}
			case "discard":
				b.app.Stop()
			}
		})
	b.pages.AddPage(quitPage, quitModal, true, true)
}
