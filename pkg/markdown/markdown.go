// Package markdown converts post sources to HTML.
//
// Two engines exist. Classic is the site's own line-oriented converter and
// understands headings, lists, blockquotes, indented code blocks and a small
// set of inline spans. Goldmark delegates to github.com/yuin/goldmark with
// the GitHub Flavored Markdown extensions. Both honour the title override:
// a first line of the form {{"Title"}} that replaces the post's title.
package markdown

import (
	"fmt"
	"strings"
)

// Document is the result of converting one source file.
type Document struct {
	// Title is the title override, valid when HasTitle is set.
	Title    string
	HasTitle bool
	HTML     string
}

// Converter turns Markdown source into a Document.
type Converter interface {
	Name() string
	Convert(src []byte) (Document, error)
}

// Engine names accepted by New.
const (
	EngineClassic  = "classic"
	EngineGoldmark = "goldmark"
)

// New returns the converter registered under engine. An empty name selects
// the classic converter.
func New(engine string) (Converter, error) {
	switch strings.ToLower(strings.TrimSpace(engine)) {
	case "", EngineClassic:
		return Classic{}, nil
	case EngineGoldmark:
		return NewGoldmark(), nil
	}
	return nil, fmt.Errorf("unknown markdown engine %q", engine)
}
