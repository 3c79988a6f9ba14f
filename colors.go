package main

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// palette holds the colours the chunk browser draws with. The tview theme
// for forms, modals and borders is derived from it.
type palette struct {
	background tcell.Color
	border     tcell.Color
	title      tcell.Color
	text       tcell.Color
	header     tcell.Color // table header and key hints
	button     tcell.Color // modal and form buttons
	critical   tcell.Color // IHDR, IDAT, IEND...
	ancillary  tcell.Color
	binary     tcell.Color // payloads that are not UTF-8
}

var palettes = map[string]palette{
	"default": {
		background: tcell.ColorDefault,
		border:     tcell.ColorGray,
		title:      tcell.ColorRed,
		text:       tcell.ColorLightGray,
		header:     tcell.ColorYellow,
		button:     tcell.ColorSteelBlue,
		critical:   tcell.ColorRed,
		ancillary:  tcell.ColorDarkCyan,
		binary:     tcell.ColorGray,
	},
	"gruvbox": {
		background: tcell.NewHexColor(0x282828),
		border:     tcell.NewHexColor(0xa89984),
		title:      tcell.NewHexColor(0xfb4934),
		text:       tcell.NewHexColor(0xd5c4a1),
		header:     tcell.NewHexColor(0xfabd2f),
		button:     tcell.NewHexColor(0xb57614),
		critical:   tcell.NewHexColor(0xfb4934),
		ancillary:  tcell.NewHexColor(0x8ec07c),
		binary:     tcell.NewHexColor(0x928374),
	},
	// for terminals without colour support
	"mono": {
		background: tcell.ColorDefault,
		border:     tcell.ColorWhite,
		title:      tcell.ColorWhite,
		text:       tcell.ColorWhite,
		header:     tcell.ColorWhite,
		button:     tcell.ColorGray,
		critical:   tcell.ColorWhite,
		ancillary:  tcell.ColorWhite,
		binary:     tcell.ColorGray,
	},
}

func lookupPalette(name string) palette {
	if p, ok := palettes[name]; ok {
		return p
	}
	return palettes["default"]
}

func (p palette) theme() tview.Theme {
	return tview.Theme{
		PrimitiveBackgroundColor:    p.background,
		ContrastBackgroundColor:     p.button,
		MoreContrastBackgroundColor: p.border,
		BorderColor:                 p.border,
		TitleColor:                  p.title,
		GraphicsColor:               p.border,
		PrimaryTextColor:            p.text,
		SecondaryTextColor:          p.header,
		TertiaryTextColor:           p.ancillary,
		InverseTextColor:            p.background,
		ContrastSecondaryTextColor:  p.header,
	}
}
