package markdown

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// Goldmark converts with github.com/yuin/goldmark and the GFM extensions.
// Raw HTML in the source is passed through, as the classic engine does.
type Goldmark struct {
	md goldmark.Markdown
}

// NewGoldmark returns a Goldmark converter.
func NewGoldmark() *Goldmark {
	return &Goldmark{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
			goldmark.WithRendererOptions(
				gmhtml.WithHardWraps(),
				gmhtml.WithUnsafe(),
			),
		),
	}
}

func (g *Goldmark) Name() string { return EngineGoldmark }

// Convert implements Converter.
func (g *Goldmark) Convert(src []byte) (Document, error) {
	var doc Document
	body := src
	if title, rest, ok := ParseTitleOverride(src); ok {
		doc.Title, doc.HasTitle = title, true
		body = rest
	}
	var buf bytes.Buffer
	if err := g.md.Convert(body, &buf); err != nil {
		return Document{}, fmt.Errorf("goldmark: %w", err)
	}
	doc.HTML = string(bytes.TrimRight(buf.Bytes(), "\n"))
	return doc, nil
}
