package main

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// renderMarkdown turns a decoded message into HTML. Raw HTML inside the
// message is dropped, goldmark's default.
func renderMarkdown(msg string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(msg), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
