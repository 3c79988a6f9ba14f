package main

import (
	"pngme/models"
	"pngme/stash"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// showAddForm asks for a new chunk and adds it to the image in memory.
func (b *browser) showAddForm() {
	form := tview.NewForm().
		AddInputField("type", "", 6, nil, nil).
		AddInputField("keyword", "", 40, nil, nil).
		AddTextArea("message", "", 0, 6, 0, nil).
		AddCheckbox("before IEND", true, nil)
	form.SetBorder(true).SetTitle("Add chunk (empty type uses the default, keyword makes tEXt)")
	form.AddButton("add", func() {
		req := stash.EncodeReq{
			ChunkType: form.GetFormItemByLabel("type").(*tview.InputField).GetText(),
			Keyword:   form.GetFormItemByLabel("keyword").(*tview.InputField).GetText(),
			Message:   form.GetFormItemByLabel("message").(*tview.TextArea).GetText(),
			BeforeEnd: form.GetFormItemByLabel("before IEND").(*tview.Checkbox).IsChecked(),
		}
		if err := b.addChunk(req); err != nil {
			b.setStatus("[red]" + tview.Escape(err.Error()) + "[white]")
			return
		}
		b.pages.RemovePage(addPage)
	})
	form.AddButton("cancel", func() {
		b.pages.RemovePage(addPage)
	})
	form.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEsc {
			b.pages.RemovePage(addPage)
			return nil
		}
		return event
	})
	b.pages.AddPage(addPage, form, true, true)
}

func (b *browser) addChunk(req stash.EncodeReq) error {
	chunk, err := b.stash.NewChunk(req)
	if err != nil {
		return err
	}
	if req.BeforeEnd {
		b.png.InsertBeforeEnd(chunk)
	} else {
		b.png.AppendChunk(chunk)
	}
	b.edits = append(b.edits, stash.Edit{Op: models.OpEncode, Chunk: chunk})
	b.refresh()
	return nil
}
